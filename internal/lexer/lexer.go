package lexer

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// LexError is a fatal lexical error: an unterminated literal or comment, or
// an unrecognized character. Lexing stops at the first LexError; there is no
// recovery at the token level (the parser recovers from its own errors, but a
// broken literal leaves no sane place to resume scanning).
type LexError struct {
	Message string
	Pos     Position
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos.String(), e.Message)
}

// Lexer performs lexical analysis on source code, converting it into a
// stream of tokens.
//
// The lexer's responsibilities are:
// 1. Break source into tokens
// 2. Track position information for error reporting
// 3. Skip whitespace and both comment styles
// 4. Recognize keywords, identifiers, literals, and operators
//
// The lexer does NOT parse syntax or check types; those are later phases.
//
// DESIGN CHOICE: We use a struct with methods rather than a functional
// approach because state management (current position, line, column) is
// clearer, and it matches Go idioms (similar to bufio.Scanner).
type Lexer struct {
	// source is the complete source code being lexed.
	// We store the entire source rather than streaming because:
	// - It simplifies lookahead (can peek multiple characters ahead)
	// - Position tracking is easier (can seek to any offset)
	source string

	// filename is the name of the source file (for error reporting).
	filename string

	// start is the byte offset of the current token being scanned.
	start int

	// current is the byte offset we're currently examining.
	current int

	// line is the current line number (1-based).
	line int

	// lineStart is the byte offset where the current line started.
	// Column numbers are computed on demand: column = start - lineStart + 1.
	lineStart int
}

// New creates a new Lexer for the given source code.
//
// DESIGN CHOICE: Constructor function (New) rather than struct literal
// because it performs initialization (line starts at 1) and matches Go
// conventions (strings.Builder, bufio.Scanner, etc.).
func New(source, filename string) *Lexer {
	return &Lexer{
		source:   source,
		filename: filename,
		line:     1,
	}
}

// Tokenize scans the entire source and returns the complete token stream,
// always ending in a TokenEOF token on success.
//
// A LexError is fatal: the tokens scanned so far are returned alongside the
// error, but the stream is incomplete and must not be parsed.
func (l *Lexer) Tokenize() ([]Token, error) {
	tokens := make([]Token, 0, 64)
	for {
		tok, err := l.NextToken()
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, nil
		}
	}
}

// PeekToken returns the next token without consuming it. The lexer's
// position is restored afterwards, so the following NextToken call returns
// the same token.
func (l *Lexer) PeekToken() (Token, error) {
	saved := *l
	tok, err := l.NextToken()
	*l = saved
	return tok, err
}

// NextToken returns the next token from the source.
//
// DESIGN CHOICE: Return (Token, error) rather than just Token with an
// invalid type because it follows Go conventions and errors can carry more
// context than a token.
func (l *Lexer) NextToken() (Token, error) {
	if err := l.skipWhitespaceAndComments(); err != nil {
		return l.makeToken(TokenInvalid, ""), err
	}

	// Mark the start of this token
	l.start = l.current

	if l.isAtEnd() {
		return l.makeToken(TokenEOF, ""), nil
	}

	ch, _ := l.advance()

	// Identifiers and keywords start with a letter or underscore
	if isLetter(ch) {
		return l.scanIdentifier(), nil
	}

	// Numbers start with a digit
	if isDigit(ch) {
		return l.scanNumber(), nil
	}

	// Everything else is operators, punctuation, or invalid.
	// Two-character operators are matched by explicit ordered lookahead:
	// the longer form is checked before falling back to the single char.
	switch ch {
	case '(':
		return l.makeToken(TokenLeftParen, "("), nil
	case ')':
		return l.makeToken(TokenRightParen, ")"), nil
	case '{':
		return l.makeToken(TokenLeftBrace, "{"), nil
	case '}':
		return l.makeToken(TokenRightBrace, "}"), nil
	case ';':
		return l.makeToken(TokenSemicolon, ";"), nil
	case ',':
		return l.makeToken(TokenComma, ","), nil
	case '.':
		return l.makeToken(TokenDot, "."), nil

	case '+':
		if l.match('+') {
			return l.makeToken(TokenPlusPlus, "++"), nil
		} else if l.match('=') {
			return l.makeToken(TokenPlusEq, "+="), nil
		}
		return l.makeToken(TokenPlus, "+"), nil

	case '-':
		if l.match('-') {
			return l.makeToken(TokenMinusMinus, "--"), nil
		} else if l.match('=') {
			return l.makeToken(TokenMinusEq, "-="), nil
		}
		return l.makeToken(TokenMinus, "-"), nil

	case '*':
		if l.match('=') {
			return l.makeToken(TokenStarEq, "*="), nil
		}
		return l.makeToken(TokenStar, "*"), nil

	case '/':
		// Comments were consumed by skipWhitespaceAndComments, so a slash
		// here is always an operator.
		if l.match('=') {
			return l.makeToken(TokenSlashEq, "/="), nil
		}
		return l.makeToken(TokenSlash, "/"), nil

	case '%':
		if l.match('=') {
			return l.makeToken(TokenPercentEq, "%="), nil
		}
		return l.makeToken(TokenPercent, "%"), nil

	case '=':
		if l.match('=') {
			return l.makeToken(TokenEqual, "=="), nil
		}
		return l.makeToken(TokenAssign, "="), nil

	case '!':
		if l.match('=') {
			return l.makeToken(TokenNotEqual, "!="), nil
		}
		return l.makeToken(TokenNot, "!"), nil

	case '<':
		if l.match('=') {
			return l.makeToken(TokenLessEqual, "<="), nil
		}
		return l.makeToken(TokenLess, "<"), nil

	case '>':
		if l.match('=') {
			return l.makeToken(TokenGreaterEqual, ">="), nil
		}
		return l.makeToken(TokenGreater, ">"), nil

	case '&':
		if l.match('&') {
			return l.makeToken(TokenAnd, "&&"), nil
		}
		return l.makeToken(TokenInvalid, ""), l.error("unexpected character: '&'")

	case '|':
		if l.match('|') {
			return l.makeToken(TokenOr, "||"), nil
		}
		return l.makeToken(TokenInvalid, ""), l.error("unexpected character: '|'")

	case '"':
		return l.scanString()

	case '\'':
		return l.scanChar()

	default:
		return l.makeToken(TokenInvalid, ""),
			l.error(fmt.Sprintf("unexpected character: %q", ch))
	}
}

// advance reads and returns the next character, advancing the current position.
//
// UNICODE HANDLING: We use utf8.DecodeRuneInString so multi-byte characters
// are consumed whole; they can only ever appear inside string literals or as
// unexpected-character errors.
func (l *Lexer) advance() (rune, int) {
	if l.isAtEnd() {
		return 0, 0
	}
	ch, size := utf8.DecodeRuneInString(l.source[l.current:])
	l.current += size
	return ch, size
}

// peek returns the current character without advancing.
// Returns 0 if at end of file.
func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	ch, _ := utf8.DecodeRuneInString(l.source[l.current:])
	return ch
}

// peekNext returns the character after the current one without advancing.
// Returns 0 if not enough characters remain.
func (l *Lexer) peekNext() rune {
	if l.current+1 >= len(l.source) {
		return 0
	}
	_, size := utf8.DecodeRuneInString(l.source[l.current:])
	ch, _ := utf8.DecodeRuneInString(l.source[l.current+size:])
	return ch
}

// match checks if the current character matches the expected one.
// If it does, advance and return true. Otherwise, return false.
//
// This is the ordered-lookahead primitive for two-character operators:
// after seeing '+', we match('+') before match('=') before falling back.
func (l *Lexer) match(expected rune) bool {
	if l.isAtEnd() {
		return false
	}
	ch, size := utf8.DecodeRuneInString(l.source[l.current:])
	if ch != expected {
		return false
	}
	l.current += size
	return true
}

// isAtEnd returns true if we've consumed all the source code.
func (l *Lexer) isAtEnd() bool {
	return l.current >= len(l.source)
}

// skipWhitespaceAndComments skips whitespace and both comment styles.
//
// DESIGN CHOICE: Comments are consumed here and never emitted as tokens.
// The parser has no use for them, and skipping them in one place keeps the
// operator scanning free of comment special cases.
//
// An unterminated block comment is a fatal LexError.
func (l *Lexer) skipWhitespaceAndComments() error {
	for {
		if l.isAtEnd() {
			return nil
		}

		switch l.peek() {
		case ' ', '\r', '\t':
			l.advance()
		case '\n':
			l.advance()
			l.line++
			l.lineStart = l.current
		case '/':
			switch l.peekNext() {
			case '/':
				// Line comment: consume to end of line
				for !l.isAtEnd() && l.peek() != '\n' {
					l.advance()
				}
			case '*':
				if err := l.skipBlockComment(); err != nil {
					return err
				}
			default:
				return nil
			}
		default:
			return nil
		}
	}
}

// skipBlockComment consumes a /* ... */ comment, tracking newlines.
// Block comments do not nest.
func (l *Lexer) skipBlockComment() error {
	l.start = l.current
	l.advance() // '/'
	l.advance() // '*'

	for !l.isAtEnd() {
		if l.peek() == '*' && l.peekNext() == '/' {
			l.advance()
			l.advance()
			return nil
		}
		if l.peek() == '\n' {
			l.line++
			l.advance()
			l.lineStart = l.current
			continue
		}
		l.advance()
	}

	return l.error("unterminated block comment")
}

// scanIdentifier scans an identifier or keyword.
//
// RULES:
// - Starts with a letter or underscore
// - Continues with letters, digits, or underscores
func (l *Lexer) scanIdentifier() Token {
	for !l.isAtEnd() {
		ch := l.peek()
		if isLetter(ch) || isDigit(ch) {
			l.advance()
		} else {
			break
		}
	}

	text := l.source[l.start:l.current]

	// Check if it's a keyword
	return l.makeToken(LookupKeyword(text), text)
}

// scanNumber scans an integer or float literal.
//
// A literal containing a '.' is a float. A second '.' stops the number
// early: "1.2.3" lexes as the float 1.2 followed by a '.' punctuation
// token, not as an error. This is a deliberate tolerance; the parser will
// reject the stray dot if it is actually illegal in context.
func (l *Lexer) scanNumber() Token {
	isFloat := false

	for !l.isAtEnd() {
		ch := l.peek()
		if isDigit(ch) {
			l.advance()
			continue
		}
		if ch == '.' && !isFloat {
			isFloat = true
			l.advance()
			continue
		}
		break
	}

	text := l.source[l.start:l.current]
	if isFloat {
		return l.makeToken(TokenFloat, text)
	}
	return l.makeToken(TokenInteger, text)
}

// scanString scans a string literal.
//
// The returned token's lexeme holds the unescaped contents without the
// surrounding quotes. Supported escapes: \n \t \r \\ \" \'. An unrecognized
// escape passes the raw character through unchanged ("\q" becomes "q").
// Reaching end of input before the closing quote is a fatal LexError.
func (l *Lexer) scanString() (Token, error) {
	var value []byte

	for !l.isAtEnd() {
		ch := l.peek()

		if ch == '"' {
			l.advance()
			return l.makeToken(TokenString, string(value)), nil
		}

		if ch == '\n' {
			l.line++
			l.advance()
			l.lineStart = l.current
			value = append(value, '\n')
			continue
		}

		if ch == '\\' {
			l.advance()
			if l.isAtEnd() {
				break
			}
			esc, _ := l.advance()
			value = append(value, unescape(esc)...)
			continue
		}

		l.advance()
		value = utf8.AppendRune(value, ch)
	}

	return l.makeToken(TokenInvalid, ""), l.error("unterminated string literal")
}

// scanChar scans a character literal: exactly one (possibly escaped)
// character between single quotes.
func (l *Lexer) scanChar() (Token, error) {
	if l.isAtEnd() {
		return l.makeToken(TokenInvalid, ""), l.error("unterminated character literal")
	}

	var value string
	ch := l.peek()

	if ch == '\\' {
		l.advance()
		if l.isAtEnd() {
			return l.makeToken(TokenInvalid, ""), l.error("unterminated character literal")
		}
		esc, _ := l.advance()
		value = string(unescape(esc))
	} else {
		l.advance()
		value = string(ch)
	}

	if l.isAtEnd() || l.peek() != '\'' {
		return l.makeToken(TokenInvalid, ""), l.error("unterminated character literal")
	}
	l.advance() // closing quote

	return l.makeToken(TokenChar, value), nil
}

// unescape maps an escape character to its replacement.
// Unrecognized escapes pass the raw character through unchanged.
func unescape(ch rune) []byte {
	switch ch {
	case 'n':
		return []byte{'\n'}
	case 't':
		return []byte{'\t'}
	case 'r':
		return []byte{'\r'}
	case '\\':
		return []byte{'\\'}
	case '"':
		return []byte{'"'}
	case '\'':
		return []byte{'\''}
	default:
		return utf8.AppendRune(nil, ch)
	}
}

// makeToken creates a token with the current position information.
// All position tracking happens here in one place.
func (l *Lexer) makeToken(tokenType TokenType, lexeme string) Token {
	return Token{
		Type:     tokenType,
		Lexeme:   lexeme,
		Position: l.currentPosition(),
		Length:   l.current - l.start,
	}
}

// currentPosition returns the position at the start of the current token.
func (l *Lexer) currentPosition() Position {
	return Position{
		Filename: l.filename,
		Line:     l.line,
		Column:   l.start - l.lineStart + 1,
		Offset:   l.start,
	}
}

// error creates a LexError at the current token's position.
func (l *Lexer) error(message string) error {
	return &LexError{Message: message, Pos: l.currentPosition()}
}

// Helper functions for character classification

// isLetter returns true if the rune is a letter or underscore.
func isLetter(ch rune) bool {
	return unicode.IsLetter(ch) || ch == '_'
}

// isDigit returns true if the rune is a decimal digit (0-9).
// Only ASCII digits count; numeric literals are ASCII by definition.
func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}
