// Package ast defines the Abstract Syntax Tree node types for the compiler.
//
// The AST is a tree representation of the program's structure. It:
// 1. Preserves program semantics (but not all syntax details)
// 2. Is easy to traverse and analyze
// 3. Maintains position information for error reporting
//
// KEY DESIGN CHOICES:
//   - Node kinds form a closed set. Every traversal (semantic analysis,
//     optimization, code generation, liveness extraction) is an exhaustive
//     type switch over that set, so an unhandled kind fails loudly instead of
//     falling through a default visitor.
//   - Every node owns its children outright: the tree is strict (no sharing,
//     no cycles). Optimizer passes build fresh subtrees rather than mutating
//     shared nodes.
//   - Use marker methods (exprNode, stmtNode, declNode) to prevent accidental
//     interface satisfaction.
package ast

import (
	"github.com/hassan/cc64/internal/lexer"
)

// Node is the base interface for all AST nodes.
// Every node must be able to report its position for error messages.
type Node interface {
	Pos() lexer.Position
}

// Expr is the interface for all expression nodes.
//
// An expression is a piece of code that produces a value:
// 2 + 3, foo(x), i++, "hello".
type Expr interface {
	Node
	exprNode()
}

// Stmt is the interface for all statement nodes.
//
// A statement performs an action and produces no value:
// if (x) {...}, while (...) {...}, return x;
type Stmt interface {
	Node
	stmtNode()
}

// Decl is the interface for declaration nodes.
//
// A declaration introduces a new name (variable or function). Variable
// declarations are also statements, so Decl embeds Stmt; a FunctionDecl in
// statement position is rejected by the parser, not the type system.
type Decl interface {
	Stmt
	declNode()
}

// Program is the root of the AST: an ordered list of top-level declarations.
type Program struct {
	Decls []Decl
}

func (p *Program) Pos() lexer.Position {
	if len(p.Decls) > 0 {
		return p.Decls[0].Pos()
	}
	return lexer.Position{}
}

// FunctionDecl is a function prototype or definition.
//
// A declaration without a body (Body == nil) is a prototype: it introduces
// the signature but does not mark the function as defined.
type FunctionDecl struct {
	ReturnType string // type keyword as written: "int", "void", ...
	Name       string
	Params     []*Parameter
	Body       *CompoundStmt // nil for a prototype
	Position   lexer.Position
}

func (d *FunctionDecl) Pos() lexer.Position { return d.Position }
func (d *FunctionDecl) stmtNode()           {}
func (d *FunctionDecl) declNode()           {}

// IsDefinition reports whether this declaration carries a body.
func (d *FunctionDecl) IsDefinition() bool { return d.Body != nil }

// Parameter is a single function parameter: a type keyword and a name.
type Parameter struct {
	TypeName string
	Name     string
	Position lexer.Position
}

func (p *Parameter) Pos() lexer.Position { return p.Position }

// VariableDecl is a variable declaration with an optional initializer,
// at either top level (global) or block level (local).
type VariableDecl struct {
	TypeName string
	Name     string
	Init     Expr // nil when no initializer was given
	Position lexer.Position
}

func (d *VariableDecl) Pos() lexer.Position { return d.Position }
func (d *VariableDecl) stmtNode()           {}
func (d *VariableDecl) declNode()           {}
