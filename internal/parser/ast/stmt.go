package ast

import (
	"github.com/hassan/cc64/internal/lexer"
)

// CompoundStmt is a brace-delimited block. Entering a block opens a new
// lexical scope; the block owns its statements in source order.
type CompoundStmt struct {
	Statements []Stmt
	Position   lexer.Position // position of the '{'
}

func (s *CompoundStmt) Pos() lexer.Position { return s.Position }
func (s *CompoundStmt) stmtNode()           {}

// ExprStmt is an expression evaluated for its side effects: foo(x); i++;
type ExprStmt struct {
	Expression Expr
}

func (s *ExprStmt) Pos() lexer.Position { return s.Expression.Pos() }
func (s *ExprStmt) stmtNode()           {}

// ReturnStmt is a return with an optional value.
type ReturnStmt struct {
	Value    Expr // nil for a bare "return;"
	Position lexer.Position
}

func (s *ReturnStmt) Pos() lexer.Position { return s.Position }
func (s *ReturnStmt) stmtNode()           {}

// IfStmt is a conditional with an optional else branch.
type IfStmt struct {
	Cond     Expr
	Then     Stmt
	Else     Stmt // nil when no else branch
	Position lexer.Position
}

func (s *IfStmt) Pos() lexer.Position { return s.Position }
func (s *IfStmt) stmtNode()           {}

// WhileStmt is a pre-test loop.
type WhileStmt struct {
	Cond     Expr
	Body     Stmt
	Position lexer.Position
}

func (s *WhileStmt) Pos() lexer.Position { return s.Position }
func (s *WhileStmt) stmtNode()           {}

// ForStmt is a C-style for loop. All three header clauses are optional;
// a missing condition means the loop runs until a break or return.
// The init clause may be a variable declaration or an expression statement.
type ForStmt struct {
	Init     Stmt // nil, *VariableDecl, or *ExprStmt
	Cond     Expr // nil when omitted
	Post     Expr // nil when omitted
	Body     Stmt
	Position lexer.Position
}

func (s *ForStmt) Pos() lexer.Position { return s.Position }
func (s *ForStmt) stmtNode()           {}
