package optimizer

import (
	"github.com/hassan/cc64/internal/parser/ast"
)

// DeadCodeElimination removes statements that can never run.
//
// WHAT IT REMOVES:
//   - Statements after a return in the same statement list. Control never
//     reaches them.
//   - Branches ruled out by a literal condition: if (1) keeps only the then
//     branch, if (0) keeps only the else branch (or nothing).
//
// Constant folding feeds this pass: if (2 > 3) first folds to if (0),
// then collapses here on the next round of the driver.
type DeadCodeElimination struct{}

func (d *DeadCodeElimination) Name() string { return "dead-code" }

func (d *DeadCodeElimination) Run(program *ast.Program) (*ast.Program, int) {
	r := &rewriter{
		stmt:  d.collapseIf,
		stmts: d.truncateAfterReturn,
	}
	return r.program(program)
}

// truncateAfterReturn drops everything in a statement list that follows a
// return statement.
func (d *DeadCodeElimination) truncateAfterReturn(stmts []ast.Stmt) ([]ast.Stmt, int) {
	for i, stmt := range stmts {
		if _, ok := stmt.(*ast.ReturnStmt); ok && i+1 < len(stmts) {
			return stmts[:i+1], len(stmts) - i - 1
		}
	}
	return stmts, 0
}

// collapseIf replaces an if with a literal condition by the branch that
// would run. The literal itself has no side effects, so dropping it is
// safe.
func (d *DeadCodeElimination) collapseIf(stmt ast.Stmt) (ast.Stmt, int) {
	ifStmt, ok := stmt.(*ast.IfStmt)
	if !ok {
		return stmt, 0
	}
	truthy, isLiteral := literalTruth(ifStmt.Cond)
	if !isLiteral {
		return stmt, 0
	}
	if truthy {
		return ifStmt.Then, 1
	}
	return ifStmt.Else, 1 // may be nil, deleting the statement
}
