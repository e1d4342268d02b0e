package lexer

// TokenType represents the type of a token.
//
// DESIGN CHOICE: We use an int-based enum (via iota) rather than strings because:
// 1. Faster comparisons (integer vs string comparison)
// 2. Less memory (1 int vs string pointer + length + data)
// 3. Type safety (compiler catches typos)
//
// The downside is a more verbose String() implementation, but that's only
// used for debugging and error messages, not hot paths.
type TokenType int

// Token type enumeration.
//
// ORGANIZATION: Tokens are grouped logically:
// 1. Special tokens (EOF, Invalid)
// 2. Literals (integer, float, char, string)
// 3. Identifiers and keywords
// 4. Operators (grouped by precedence/category)
// 5. Punctuation
//
// This organization makes it easier to implement precedence climbing in the
// parser and to check token categories with range comparisons.
const (
	// TokenEOF marks the end of the input.
	// DESIGN CHOICE: We use a token instead of nil/error because:
	// - It simplifies parser logic (no special case for end of input)
	// - It has a position (useful for "unexpected end of file" errors)
	TokenEOF TokenType = iota

	// TokenInvalid represents a lexical error. A token of this type is only
	// ever produced together with a non-nil error from NextToken.
	TokenInvalid

	// Literals

	// TokenInteger represents an integer literal (42, 0).
	TokenInteger

	// TokenFloat represents a floating-point literal (3.14, 0.5).
	// The lexer distinguishes the two numeric kinds so the parser can build
	// the right literal node without re-scanning the lexeme.
	TokenFloat

	// TokenChar represents a character literal ('a', '\n').
	// The lexeme holds the already-unescaped character.
	TokenChar

	// TokenString represents a string literal.
	// The lexeme holds the unescaped string contents without quotes.
	TokenString

	// TokenIdentifier represents a variable/function name.
	// The actual name is stored in Token.Lexeme.
	TokenIdentifier

	// Keywords - type names

	TokenInt
	TokenFloatKw
	TokenCharKw
	TokenDouble
	TokenVoid

	// Keywords - control flow

	TokenIf
	TokenElse
	TokenWhile
	TokenFor
	TokenReturn

	// Operators - arithmetic
	// DESIGN CHOICE: We have separate tokens for each operator rather than
	// a generic "operator" token because:
	// - It makes the parser simpler (switch on token type vs string comparison)
	// - It makes precedence handling clearer

	TokenPlus    // +
	TokenMinus   // -
	TokenStar    // *
	TokenSlash   // /
	TokenPercent // %

	// Operators - comparison

	TokenEqual        // ==
	TokenNotEqual     // !=
	TokenLess         // <
	TokenLessEqual    // <=
	TokenGreater      // >
	TokenGreaterEqual // >=

	// Operators - logical

	TokenAnd // &&
	TokenOr  // ||
	TokenNot // !

	// Operators - assignment

	TokenAssign    // =
	TokenPlusEq    // +=
	TokenMinusEq   // -=
	TokenStarEq    // *=
	TokenSlashEq   // /=
	TokenPercentEq // %=

	// Operators - increment/decrement

	TokenPlusPlus   // ++
	TokenMinusMinus // --

	// Punctuation

	TokenLeftParen  // (
	TokenRightParen // )
	TokenLeftBrace  // {
	TokenRightBrace // }
	TokenSemicolon  // ;
	TokenComma      // ,
	TokenDot        // .
)

// Token represents a single lexical token.
//
// DESIGN CHOICE: Token is a value type (not pointer) because:
// 1. Tokens are small and cheap to copy
// 2. No need for sharing/mutation after creation
// 3. Avoids GC pressure (no allocations for token values)
type Token struct {
	// Type is the token type.
	Type TokenType

	// Lexeme is the text of the token. For string and char literals this is
	// the unescaped content; for everything else it is the source text.
	Lexeme string

	// Position is where this token appears in the source.
	// This is crucial for error reporting.
	Position Position

	// Length is the length of the token in source bytes.
	// We store this rather than computing it from Lexeme because string and
	// char lexemes are unescaped and no longer match the source extent.
	Length int
}

// String returns a human-readable representation of the token.
// Format: "TYPE(lexeme) at position"
// Example: "IDENTIFIER(foo) at main.c:42:15"
func (t Token) String() string {
	return t.Type.String() + "(" + t.Lexeme + ") at " + t.Position.String()
}

// Span returns the source span covered by this token.
func (t Token) Span() Span {
	return Span{
		Start: t.Position,
		End: Position{
			Filename: t.Position.Filename,
			Line:     t.Position.Line,
			Column:   t.Position.Column + t.Length,
			Offset:   t.Position.Offset + t.Length,
		},
	}
}

// String returns the string representation of a token type.
// We use descriptive names for clarity in error messages.
func (tt TokenType) String() string {
	switch tt {
	case TokenEOF:
		return "EOF"
	case TokenInvalid:
		return "INVALID"
	case TokenInteger:
		return "INTEGER"
	case TokenFloat:
		return "FLOAT"
	case TokenChar:
		return "CHAR"
	case TokenString:
		return "STRING"
	case TokenIdentifier:
		return "IDENTIFIER"
	case TokenInt:
		return "int"
	case TokenFloatKw:
		return "float"
	case TokenCharKw:
		return "char"
	case TokenDouble:
		return "double"
	case TokenVoid:
		return "void"
	case TokenIf:
		return "if"
	case TokenElse:
		return "else"
	case TokenWhile:
		return "while"
	case TokenFor:
		return "for"
	case TokenReturn:
		return "return"
	case TokenPlus:
		return "+"
	case TokenMinus:
		return "-"
	case TokenStar:
		return "*"
	case TokenSlash:
		return "/"
	case TokenPercent:
		return "%"
	case TokenEqual:
		return "=="
	case TokenNotEqual:
		return "!="
	case TokenLess:
		return "<"
	case TokenLessEqual:
		return "<="
	case TokenGreater:
		return ">"
	case TokenGreaterEqual:
		return ">="
	case TokenAnd:
		return "&&"
	case TokenOr:
		return "||"
	case TokenNot:
		return "!"
	case TokenAssign:
		return "="
	case TokenPlusEq:
		return "+="
	case TokenMinusEq:
		return "-="
	case TokenStarEq:
		return "*="
	case TokenSlashEq:
		return "/="
	case TokenPercentEq:
		return "%="
	case TokenPlusPlus:
		return "++"
	case TokenMinusMinus:
		return "--"
	case TokenLeftParen:
		return "("
	case TokenRightParen:
		return ")"
	case TokenLeftBrace:
		return "{"
	case TokenRightBrace:
		return "}"
	case TokenSemicolon:
		return ";"
	case TokenComma:
		return ","
	case TokenDot:
		return "."
	default:
		return "UNKNOWN"
	}
}

// keywords maps keyword strings to their token types.
//
// DESIGN CHOICE: We use a map rather than a long if-else chain because:
// - O(1) lookup vs O(n) linear search
// - Easier to maintain (just add to the map)
//
// The map is initialized once and never modified (effectively const).
var keywords = map[string]TokenType{
	"int":    TokenInt,
	"float":  TokenFloatKw,
	"char":   TokenCharKw,
	"double": TokenDouble,
	"void":   TokenVoid,
	"if":     TokenIf,
	"else":   TokenElse,
	"while":  TokenWhile,
	"for":    TokenFor,
	"return": TokenReturn,
}

// LookupKeyword checks if an identifier is actually a keyword.
// Returns the keyword token type if it is, or TokenIdentifier if not.
//
// USAGE: After lexing an identifier, call this to determine if it's a keyword.
func LookupKeyword(identifier string) TokenType {
	if tokenType, ok := keywords[identifier]; ok {
		return tokenType
	}
	return TokenIdentifier
}

// IsKeyword returns true if the token is a keyword.
// This is useful for parser error recovery (keywords start new statements).
func (tt TokenType) IsKeyword() bool {
	return tt >= TokenInt && tt <= TokenReturn
}

// IsTypeKeyword returns true if the token names one of the built-in types.
// Type keywords begin declarations, so the parser and its error recovery
// both need this check.
func (tt TokenType) IsTypeKeyword() bool {
	return tt >= TokenInt && tt <= TokenVoid
}

// IsLiteral returns true if the token is a literal value.
func (tt TokenType) IsLiteral() bool {
	return tt >= TokenInteger && tt <= TokenString
}
