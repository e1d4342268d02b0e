package parser

import (
	"github.com/hassan/cc64/internal/lexer"
)

// Precedence represents operator precedence levels.
//
// PRECEDENCE RULES (from lowest to highest):
// 1. Assignment (=, +=, -=, *=, /=, %=)
// 2. Logical OR (||)
// 3. Logical AND (&&)
// 4. Equality (==, !=)
// 5. Comparison (<, <=, >, >=)
// 6. Addition/Subtraction (+, -)
// 7. Multiplication/Division/Modulo (*, /, %)
// 8. Unary (!, -, ++, --)
// 9. Call and postfix (f(...), x++, x--)
//
// These match C conventions, which is what source programs expect.
type Precedence int

const (
	PrecNone       Precedence = iota
	PrecAssignment            // =, +=, -=, *=, /=, %=
	PrecOr                    // ||
	PrecAnd                   // &&
	PrecEquality              // ==, !=
	PrecComparison            // <, <=, >, >=
	PrecTerm                  // +, -
	PrecFactor                // *, /, %
	PrecUnary                 // !, -, ++x, --x
	PrecCall                  // f(...), x++, x--
	PrecPrimary               // literals, identifiers, grouping
)

// getPrecedence returns the precedence level for a given token type.
//
// This is what the Pratt parser consults to decide when to stop
// extending an expression to the right.
func getPrecedence(tokenType lexer.TokenType) Precedence {
	switch tokenType {
	case lexer.TokenAssign,
		lexer.TokenPlusEq,
		lexer.TokenMinusEq,
		lexer.TokenStarEq,
		lexer.TokenSlashEq,
		lexer.TokenPercentEq:
		return PrecAssignment

	case lexer.TokenOr:
		return PrecOr

	case lexer.TokenAnd:
		return PrecAnd

	case lexer.TokenEqual, lexer.TokenNotEqual:
		return PrecEquality

	case lexer.TokenLess,
		lexer.TokenLessEqual,
		lexer.TokenGreater,
		lexer.TokenGreaterEqual:
		return PrecComparison

	case lexer.TokenPlus, lexer.TokenMinus:
		return PrecTerm

	case lexer.TokenStar, lexer.TokenSlash, lexer.TokenPercent:
		return PrecFactor

	case lexer.TokenLeftParen,
		lexer.TokenPlusPlus,
		lexer.TokenMinusMinus:
		return PrecCall

	default:
		return PrecNone
	}
}
