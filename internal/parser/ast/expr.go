package ast

import (
	"github.com/hassan/cc64/internal/lexer"
)

// BinaryExpr is a binary operation: left op right.
// Operator carries both the operator kind and its source position.
type BinaryExpr struct {
	Left     Expr
	Operator lexer.Token
	Right    Expr
}

func (e *BinaryExpr) Pos() lexer.Position { return e.Left.Pos() }
func (e *BinaryExpr) exprNode()           {}

// UnaryExpr is a prefix or postfix unary operation: -x, !x, x++, --y.
// Postfix reports whether the operator followed its operand, which matters
// for the value produced by ++ and --.
type UnaryExpr struct {
	Operator lexer.Token
	Operand  Expr
	Postfix  bool
}

func (e *UnaryExpr) Pos() lexer.Position {
	if e.Postfix {
		return e.Operand.Pos()
	}
	return e.Operator.Position
}
func (e *UnaryExpr) exprNode() {}

// AssignExpr is a plain or compound assignment: x = v, x += v.
// Target is always an *Identifier in well-formed trees; the parser rejects
// other left-hand sides before building the node.
type AssignExpr struct {
	Target   Expr
	Operator lexer.Token
	Value    Expr
}

func (e *AssignExpr) Pos() lexer.Position { return e.Target.Pos() }
func (e *AssignExpr) exprNode()           {}

// CallExpr is a function call: callee(arg, ...).
type CallExpr struct {
	Callee   Expr
	Args     []Expr
	Position lexer.Position // position of the '('
}

func (e *CallExpr) Pos() lexer.Position { return e.Callee.Pos() }
func (e *CallExpr) exprNode()           {}

// Identifier is a reference to a declared name.
type Identifier struct {
	Name     string
	Position lexer.Position
}

func (e *Identifier) Pos() lexer.Position { return e.Position }
func (e *Identifier) exprNode()           {}

// IntLiteral is an integer constant.
type IntLiteral struct {
	Value    int64
	Position lexer.Position
}

func (e *IntLiteral) Pos() lexer.Position { return e.Position }
func (e *IntLiteral) exprNode()           {}

// FloatLiteral is a floating-point constant.
type FloatLiteral struct {
	Value    float64
	Position lexer.Position
}

func (e *FloatLiteral) Pos() lexer.Position { return e.Position }
func (e *FloatLiteral) exprNode()           {}

// StringLiteral is a string constant. Value holds the unescaped contents,
// without the surrounding quotes.
type StringLiteral struct {
	Value    string
	Position lexer.Position
}

func (e *StringLiteral) Pos() lexer.Position { return e.Position }
func (e *StringLiteral) exprNode()           {}

// CharLiteral is a character constant. Value is the unescaped character.
type CharLiteral struct {
	Value    byte
	Position lexer.Position
}

func (e *CharLiteral) Pos() lexer.Position { return e.Position }
func (e *CharLiteral) exprNode()           {}
