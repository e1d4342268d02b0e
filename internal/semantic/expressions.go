package semantic

import (
	"github.com/hassan/cc64/internal/lexer"
	"github.com/hassan/cc64/internal/parser/ast"
	"github.com/hassan/cc64/internal/types"
)

// checkExpr type-checks an expression, records its type in the Info, and
// returns it. Errors produce types.Invalid, which downstream checks treat
// as "already diagnosed" so one mistake is reported once.
func (a *Analyzer) checkExpr(expr ast.Expr) types.CType {
	ty := a.typeOf(expr)
	a.info.Types[expr] = ty
	return ty
}

func (a *Analyzer) typeOf(expr ast.Expr) types.CType {
	switch e := expr.(type) {
	case *ast.IntLiteral:
		return types.Int
	case *ast.FloatLiteral:
		return types.Float
	case *ast.CharLiteral:
		return types.Char
	case *ast.StringLiteral:
		return types.String
	case *ast.Identifier:
		return a.checkIdentifier(e)
	case *ast.BinaryExpr:
		return a.checkBinary(e)
	case *ast.UnaryExpr:
		return a.checkUnary(e)
	case *ast.AssignExpr:
		return a.checkAssign(e)
	case *ast.CallExpr:
		return a.checkCall(e)
	default:
		a.bag.Errorf(expr.Pos(), "unhandled expression kind %T", expr)
		return types.Invalid
	}
}

func (a *Analyzer) checkIdentifier(e *ast.Identifier) types.CType {
	sym := a.table.Lookup(e.Name)
	if sym == nil {
		a.bag.Errorf(e.Pos(), "undeclared identifier %q", e.Name)
		return types.Invalid
	}
	if sym.IsFunction() {
		a.bag.Errorf(e.Pos(), "function %q used as a value", e.Name)
		return types.Invalid
	}
	sym.MarkUsed()
	a.info.Uses[e] = sym
	return sym.Type
}

// checkBinary checks arithmetic, comparison, and logical operators.
//
// TYPE RULES:
//   - Arithmetic (+ - * / %) promotes: the result is the wider operand type,
//     with char widening to int. % additionally requires integral operands.
//   - Comparisons and logical operators always produce int (0 or 1).
func (a *Analyzer) checkBinary(e *ast.BinaryExpr) types.CType {
	left := a.checkExpr(e.Left)
	right := a.checkExpr(e.Right)

	if left.IsInvalid() || right.IsInvalid() {
		return types.Invalid
	}

	if !types.Compatible(left, right) {
		a.bag.Errorf(e.Operator.Position, "invalid operands to %q: %s and %s",
			e.Operator.Lexeme, left, right)
		return types.Invalid
	}

	switch e.Operator.Type {
	case lexer.TokenPlus, lexer.TokenMinus, lexer.TokenStar, lexer.TokenSlash:
		return types.Promote(left, right)

	case lexer.TokenPercent:
		if !left.IsIntegral() || !right.IsIntegral() {
			a.bag.Errorf(e.Operator.Position, "invalid operands to %q: %s and %s (integers required)",
				e.Operator.Lexeme, left, right)
			return types.Invalid
		}
		return types.Int

	case lexer.TokenEqual, lexer.TokenNotEqual,
		lexer.TokenLess, lexer.TokenLessEqual,
		lexer.TokenGreater, lexer.TokenGreaterEqual,
		lexer.TokenAnd, lexer.TokenOr:
		return types.Int

	default:
		a.bag.Errorf(e.Operator.Position, "unhandled binary operator %q", e.Operator.Lexeme)
		return types.Invalid
	}
}

// checkUnary checks prefix and postfix unary operators.
//
// TYPE RULES:
// - Negation preserves the operand type.
// - Logical not produces int.
// - ++ and -- require a numeric variable and preserve its type.
func (a *Analyzer) checkUnary(e *ast.UnaryExpr) types.CType {
	operand := a.checkExpr(e.Operand)
	if operand.IsInvalid() {
		return types.Invalid
	}

	if !operand.IsNumeric() {
		a.bag.Errorf(e.Operator.Position, "invalid operand to %q: %s",
			e.Operator.Lexeme, operand)
		return types.Invalid
	}

	switch e.Operator.Type {
	case lexer.TokenMinus:
		return operand
	case lexer.TokenNot:
		return types.Int
	case lexer.TokenPlusPlus, lexer.TokenMinusMinus:
		// The parser guarantees the operand is an identifier.
		return operand
	default:
		a.bag.Errorf(e.Operator.Position, "unhandled unary operator %q", e.Operator.Lexeme)
		return types.Invalid
	}
}

// checkAssign checks plain and compound assignment.
//
// TYPE RULES:
//   - Plain assignment: the value must be assignable to the target; any
//     numeric value converts to any numeric target.
//   - Compound assignment (+=, -=, ...): target and value must be numeric,
//     the implied binary operation applies.
//
// The expression's value is the target's type.
func (a *Analyzer) checkAssign(e *ast.AssignExpr) types.CType {
	target := a.checkExpr(e.Target)
	value := a.checkExpr(e.Value)
	if target.IsInvalid() || value.IsInvalid() {
		return types.Invalid
	}

	if e.Operator.Type == lexer.TokenAssign {
		if !types.AssignableTo(value, target) {
			a.bag.Errorf(e.Operator.Position, "cannot assign %s to %s", value, target)
			return types.Invalid
		}
		return target
	}

	// Compound assignment is target = target op value.
	if !types.Compatible(target, value) {
		a.bag.Errorf(e.Operator.Position, "invalid operands to %q: %s and %s",
			e.Operator.Lexeme, target, value)
		return types.Invalid
	}
	if e.Operator.Type == lexer.TokenPercentEq && (!target.IsIntegral() || !value.IsIntegral()) {
		a.bag.Errorf(e.Operator.Position, "invalid operands to %q: %s and %s (integers required)",
			e.Operator.Lexeme, target, value)
		return types.Invalid
	}
	return target
}

// checkCall checks a function call against the callee's signature.
//
// A variadic callee (printf) requires only its fixed parameters; extra
// arguments pass unchecked beyond excluding void expressions.
func (a *Analyzer) checkCall(e *ast.CallExpr) types.CType {
	ident, ok := e.Callee.(*ast.Identifier)
	if !ok {
		a.bag.Errorf(e.Callee.Pos(), "called object is not a function name")
		return types.Invalid
	}

	sym := a.table.Lookup(ident.Name)
	if sym == nil {
		a.bag.Errorf(ident.Pos(), "call to undeclared function %q", ident.Name)
		a.checkArgs(e.Args)
		return types.Invalid
	}
	if !sym.IsFunction() {
		a.bag.Errorf(ident.Pos(), "%q is a %s, not a function", ident.Name, sym.Kind)
		a.checkArgs(e.Args)
		return types.Invalid
	}
	sym.MarkUsed()
	a.info.Uses[ident] = sym
	a.info.Types[e.Callee] = sym.Type

	argTypes := a.checkArgs(e.Args)

	if sym.Variadic {
		if len(e.Args) < len(sym.Params) {
			a.bag.Errorf(e.Position, "too few arguments to %q: got %d, want at least %d",
				sym.Name, len(e.Args), len(sym.Params))
			return sym.Type
		}
	} else if len(e.Args) != len(sym.Params) {
		a.bag.Errorf(e.Position, "wrong number of arguments to %q: got %d, want %d",
			sym.Name, len(e.Args), len(sym.Params))
		return sym.Type
	}

	for i, param := range sym.Params {
		arg := argTypes[i]
		if arg.IsInvalid() {
			continue
		}
		if param == types.String {
			if arg != types.String {
				a.bag.Errorf(e.Args[i].Pos(), "argument %d to %q must be a string literal",
					i+1, sym.Name)
			}
			continue
		}
		if !types.AssignableTo(arg, param) {
			a.bag.Errorf(e.Args[i].Pos(), "cannot pass %s as %s in argument %d to %q",
				arg, param, i+1, sym.Name)
		}
	}

	// Variadic tail: anything but void.
	for i := len(sym.Params); i < len(argTypes); i++ {
		if argTypes[i].IsVoid() {
			a.bag.Errorf(e.Args[i].Pos(), "void value passed as argument %d to %q",
				i+1, sym.Name)
		}
	}

	if sym.Variadic && len(e.Args) > 0 {
		a.checkFormat(e)
	}

	return sym.Type
}

// checkFormat warns when a variadic call's format string wants a
// different number of values than were passed. A warning, not an error:
// the call still compiles and behaves like C would.
func (a *Analyzer) checkFormat(e *ast.CallExpr) {
	format, ok := e.Args[0].(*ast.StringLiteral)
	if !ok {
		return
	}
	want := countConversions(format.Value)
	if got := len(e.Args) - 1; got != want {
		a.bag.Warningf(e.Args[0].Pos(), "format string expects %d value(s), got %d", want, got)
	}
}

// countConversions counts % conversions in a format string, ignoring the
// %% escape.
func countConversions(s string) int {
	count := 0
	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			continue
		}
		if i+1 < len(s) && s[i+1] == '%' {
			i++
			continue
		}
		count++
	}
	return count
}

func (a *Analyzer) checkArgs(args []ast.Expr) []types.CType {
	out := make([]types.CType, len(args))
	for i, arg := range args {
		out[i] = a.checkExpr(arg)
	}
	return out
}
