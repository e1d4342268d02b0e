package optimizer

import (
	"github.com/hassan/cc64/internal/parser/ast"
)

// LoopRemoval deletes loops whose condition is literally false: their
// bodies can never run.
//
// WHAT IT REMOVES:
//   - while (0) { ... } disappears entirely.
//   - for (init; 0; post) { ... } keeps only the init clause, whose side
//     effects still happen before the condition is first tested.
//
// A for loop with no condition runs forever and is left alone, as is any
// loop with a truthy literal condition: an intentional infinite loop is
// not dead code.
type LoopRemoval struct{}

func (l *LoopRemoval) Name() string { return "loop-removal" }

func (l *LoopRemoval) Run(program *ast.Program) (*ast.Program, int) {
	r := &rewriter{stmt: l.removeDeadLoop}
	return r.program(program)
}

func (l *LoopRemoval) removeDeadLoop(stmt ast.Stmt) (ast.Stmt, int) {
	switch s := stmt.(type) {
	case *ast.WhileStmt:
		if truthy, isLiteral := literalTruth(s.Cond); isLiteral && !truthy {
			return nil, 1
		}
	case *ast.ForStmt:
		if s.Cond == nil {
			return stmt, 0
		}
		if truthy, isLiteral := literalTruth(s.Cond); isLiteral && !truthy {
			if s.Init == nil {
				return nil, 1
			}
			// Keep the init clause inside its own block: a declaration
			// there was scoped to the loop and must not leak into the
			// enclosing scope, where it could collide with a sibling.
			return &ast.CompoundStmt{
				Statements: []ast.Stmt{s.Init},
				Position:   s.Position,
			}, 1
		}
	}
	return stmt, 0
}
