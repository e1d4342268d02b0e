package optimizer

import (
	"github.com/hassan/cc64/internal/lexer"
	"github.com/hassan/cc64/internal/parser/ast"
)

// ConstantFolding evaluates constant expressions at compile time.
//
// WHAT IT FOLDS:
//   - Arithmetic over literals: 2 + 3 becomes 5, 2.0 * 1.5 becomes 3.0
//   - Comparisons over literals: 3 < 5 becomes 1
//   - Logical operators over literals: 1 && 0 becomes 0
//   - Unary operators over literals: -(4) becomes -4, !7 becomes 0
//   - Algebraic identities with one literal side: x+0, 0+x, x-0, x*1,
//     1*x, x/1 become x; x*0 and 0*x become 0
//
// WHAT IT LEAVES ALONE:
//   - Division and modulo by a literal zero. Folding would hide the fault;
//     the program keeps its runtime behavior and the expression stays put.
//   - Anything involving a variable or call, except the identities above.
type ConstantFolding struct{}

func (c *ConstantFolding) Name() string { return "constant-folding" }

func (c *ConstantFolding) Run(program *ast.Program) (*ast.Program, int) {
	r := &rewriter{expr: c.foldExpr}
	return r.program(program)
}

// foldExpr folds bottom-up: children first, then the node itself, so
// (2+3)*4 folds to 5*4 and then to 20 in a single pass.
func (c *ConstantFolding) foldExpr(expr ast.Expr) (ast.Expr, int) {
	switch e := expr.(type) {
	case *ast.BinaryExpr:
		left, n1 := c.foldExpr(e.Left)
		right, n2 := c.foldExpr(e.Right)
		node := e
		if n1+n2 > 0 {
			node = &ast.BinaryExpr{Left: left, Operator: e.Operator, Right: right}
		}
		folded, n3 := c.foldBinary(node)
		return folded, n1 + n2 + n3

	case *ast.UnaryExpr:
		operand, n1 := c.foldExpr(e.Operand)
		node := e
		if n1 > 0 {
			node = &ast.UnaryExpr{Operator: e.Operator, Operand: operand, Postfix: e.Postfix}
		}
		folded, n2 := c.foldUnary(node)
		return folded, n1 + n2

	case *ast.AssignExpr:
		value, n := c.foldExpr(e.Value)
		if n == 0 {
			return e, 0
		}
		return &ast.AssignExpr{Target: e.Target, Operator: e.Operator, Value: value}, n

	case *ast.CallExpr:
		changed := 0
		args := make([]ast.Expr, len(e.Args))
		for i, arg := range e.Args {
			folded, n := c.foldExpr(arg)
			args[i] = folded
			changed += n
		}
		if changed == 0 {
			return e, 0
		}
		return &ast.CallExpr{Callee: e.Callee, Args: args, Position: e.Position}, changed

	default:
		return expr, 0
	}
}

// intValue extracts an integer constant. Char literals count: they are
// small integers everywhere else in the compiler too.
func intValue(expr ast.Expr) (int64, bool) {
	switch e := expr.(type) {
	case *ast.IntLiteral:
		return e.Value, true
	case *ast.CharLiteral:
		return int64(e.Value), true
	}
	return 0, false
}

func floatValue(expr ast.Expr) (float64, bool) {
	if e, ok := expr.(*ast.FloatLiteral); ok {
		return e.Value, true
	}
	return 0, false
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func (c *ConstantFolding) foldBinary(e *ast.BinaryExpr) (ast.Expr, int) {
	// Logical operators fold on literal truthiness, covering mixed
	// int/float operands.
	switch e.Operator.Type {
	case lexer.TokenAnd, lexer.TokenOr:
		lt, lok := literalTruth(e.Left)
		rt, rok := literalTruth(e.Right)
		if !lok || !rok {
			return e, 0
		}
		value := lt && rt
		if e.Operator.Type == lexer.TokenOr {
			value = lt || rt
		}
		return &ast.IntLiteral{Value: boolToInt(value), Position: e.Pos()}, 1
	}

	li, lInt := intValue(e.Left)
	ri, rInt := intValue(e.Right)
	if lInt && rInt {
		return c.foldIntBinary(e, li, ri)
	}

	// Mixed or pure float arithmetic folds in float.
	lf, lOk := floatOrInt(e.Left)
	rf, rOk := floatOrInt(e.Right)
	_, lIsFloat := floatValue(e.Left)
	_, rIsFloat := floatValue(e.Right)
	if lOk && rOk && (lIsFloat || rIsFloat) {
		return c.foldFloatBinary(e, lf, rf)
	}

	return c.foldIdentity(e)
}

func floatOrInt(expr ast.Expr) (float64, bool) {
	if f, ok := floatValue(expr); ok {
		return f, true
	}
	if i, ok := intValue(expr); ok {
		return float64(i), true
	}
	return 0, false
}

func (c *ConstantFolding) foldIntBinary(e *ast.BinaryExpr, l, r int64) (ast.Expr, int) {
	var value int64
	switch e.Operator.Type {
	case lexer.TokenPlus:
		value = l + r
	case lexer.TokenMinus:
		value = l - r
	case lexer.TokenStar:
		value = l * r
	case lexer.TokenSlash:
		if r == 0 {
			return e, 0 // keep the runtime fault
		}
		value = l / r
	case lexer.TokenPercent:
		if r == 0 {
			return e, 0
		}
		value = l % r
	case lexer.TokenEqual:
		value = boolToInt(l == r)
	case lexer.TokenNotEqual:
		value = boolToInt(l != r)
	case lexer.TokenLess:
		value = boolToInt(l < r)
	case lexer.TokenLessEqual:
		value = boolToInt(l <= r)
	case lexer.TokenGreater:
		value = boolToInt(l > r)
	case lexer.TokenGreaterEqual:
		value = boolToInt(l >= r)
	default:
		return e, 0
	}
	return &ast.IntLiteral{Value: value, Position: e.Pos()}, 1
}

func (c *ConstantFolding) foldFloatBinary(e *ast.BinaryExpr, l, r float64) (ast.Expr, int) {
	switch e.Operator.Type {
	case lexer.TokenPlus:
		return &ast.FloatLiteral{Value: l + r, Position: e.Pos()}, 1
	case lexer.TokenMinus:
		return &ast.FloatLiteral{Value: l - r, Position: e.Pos()}, 1
	case lexer.TokenStar:
		return &ast.FloatLiteral{Value: l * r, Position: e.Pos()}, 1
	case lexer.TokenSlash:
		if r == 0 {
			return e, 0
		}
		return &ast.FloatLiteral{Value: l / r, Position: e.Pos()}, 1
	case lexer.TokenEqual:
		return &ast.IntLiteral{Value: boolToInt(l == r), Position: e.Pos()}, 1
	case lexer.TokenNotEqual:
		return &ast.IntLiteral{Value: boolToInt(l != r), Position: e.Pos()}, 1
	case lexer.TokenLess:
		return &ast.IntLiteral{Value: boolToInt(l < r), Position: e.Pos()}, 1
	case lexer.TokenLessEqual:
		return &ast.IntLiteral{Value: boolToInt(l <= r), Position: e.Pos()}, 1
	case lexer.TokenGreater:
		return &ast.IntLiteral{Value: boolToInt(l > r), Position: e.Pos()}, 1
	case lexer.TokenGreaterEqual:
		return &ast.IntLiteral{Value: boolToInt(l >= r), Position: e.Pos()}, 1
	}
	return e, 0
}

// foldIdentity applies algebraic identities where exactly one side is an
// integer literal. The identities hold for every numeric type, so the
// non-literal side's type does not matter.
func (c *ConstantFolding) foldIdentity(e *ast.BinaryExpr) (ast.Expr, int) {
	li, lIsInt := intValue(e.Left)
	ri, rIsInt := intValue(e.Right)

	switch e.Operator.Type {
	case lexer.TokenPlus:
		if lIsInt && li == 0 {
			return e.Right, 1
		}
		if rIsInt && ri == 0 {
			return e.Left, 1
		}
	case lexer.TokenMinus:
		if rIsInt && ri == 0 {
			return e.Left, 1
		}
	case lexer.TokenStar:
		if lIsInt && li == 1 {
			return e.Right, 1
		}
		if rIsInt && ri == 1 {
			return e.Left, 1
		}
		if (lIsInt && li == 0) || (rIsInt && ri == 0) {
			return &ast.IntLiteral{Value: 0, Position: e.Pos()}, 1
		}
	case lexer.TokenSlash:
		if rIsInt && ri == 1 {
			return e.Left, 1
		}
	}
	return e, 0
}

func (c *ConstantFolding) foldUnary(e *ast.UnaryExpr) (ast.Expr, int) {
	switch e.Operator.Type {
	case lexer.TokenMinus:
		if i, ok := intValue(e.Operand); ok {
			return &ast.IntLiteral{Value: -i, Position: e.Pos()}, 1
		}
		if f, ok := floatValue(e.Operand); ok {
			return &ast.FloatLiteral{Value: -f, Position: e.Pos()}, 1
		}
	case lexer.TokenNot:
		if truthy, ok := literalTruth(e.Operand); ok {
			return &ast.IntLiteral{Value: boolToInt(!truthy), Position: e.Pos()}, 1
		}
	}
	return e, 0
}
