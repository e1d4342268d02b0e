// Package parser implements a recursive descent parser for the C subset.
//
// PARSING STRATEGY:
// 1. Recursive descent for declarations and statements
// 2. Pratt parsing (precedence climbing) for expressions
//
// ERROR HANDLING STRATEGY:
//   - Report errors but continue parsing (find multiple errors in one pass)
//   - Use panic/recover for error recovery at declaration and statement
//     boundaries: an error panics with a private sentinel, the boundary
//     recovers and discards tokens until a synchronization point
//   - A synchronization point is a just-consumed ';', a closing '}', or a
//     token that can start a statement (a type keyword, if, while, for,
//     return)
//
// The parser never prints. Everything it finds goes into a diag.Bag the
// caller inspects.
package parser

import (
	"strconv"

	"github.com/hassan/cc64/internal/diag"
	"github.com/hassan/cc64/internal/lexer"
	"github.com/hassan/cc64/internal/parser/ast"
)

// bailout is the sentinel panic value used for error recovery.
// It never escapes the parser.
type bailout struct{}

// Parser converts a stream of tokens into an Abstract Syntax Tree.
type Parser struct {
	// lexer is the source of tokens
	lexer *lexer.Lexer

	// current is the token we're currently examining
	current lexer.Token

	// previous is the last token we consumed (useful for error messages
	// and for detecting statement boundaries during recovery)
	previous lexer.Token

	// bag accumulates every syntax error found in the input
	bag diag.Bag

	// lexFailure holds the first lexer error, if any. Lexer errors are
	// fatal: once one occurs, parsing winds down and Parse reports only
	// this diagnostic.
	lexFailure *diag.Diagnostic
}

// New creates a parser reading tokens from l.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{lexer: l}
	// Prime the parser by reading the first token
	p.advance()
	return p
}

// Parse parses a complete translation unit.
//
// GRAMMAR:
//
//	program = declaration* EOF
//	declaration = function-decl | variable-decl
//
// The returned Program is never nil. When the input is unsalvageable the
// program is simply empty and the diagnostics explain why.
func (p *Parser) Parse() (*ast.Program, *diag.Bag) {
	program := &ast.Program{Decls: make([]ast.Decl, 0)}

	for !p.isAtEnd() {
		before := p.current
		if decl := p.parseTopLevel(); decl != nil {
			program.Decls = append(program.Decls, decl)
		}
		// Recovery can land on a token that itself triggers the same
		// error. Force progress so the loop always terminates.
		if p.current == before && !p.isAtEnd() {
			p.advance()
		}
	}

	// A lexer error invalidates everything parsed around it. Return an
	// empty program and just that error, not the syntax noise that
	// follows a bad character.
	if p.lexFailure != nil {
		bag := &diag.Bag{}
		bag.Add(*p.lexFailure)
		return &ast.Program{Decls: make([]ast.Decl, 0)}, bag
	}

	return program, &p.bag
}

// parseTopLevel parses one top-level declaration, recovering from any
// syntax error inside it. Returns nil when the declaration was abandoned.
func (p *Parser) parseTopLevel() (decl ast.Decl) {
	defer p.recoverHere(func() { decl = nil })
	return p.parseDecl()
}

// parseDecl parses a function or global variable declaration.
//
// Both start with a type keyword and a name. The token after the name
// decides which it is: '(' means function, anything else means variable.
func (p *Parser) parseDecl() ast.Decl {
	if !p.current.Type.IsTypeKeyword() {
		p.errorf("expected declaration, got %s", p.describe(p.current))
	}
	typeToken := p.current
	p.advance()

	p.consume(lexer.TokenIdentifier, "expected name after type")
	name := p.previous

	if p.check(lexer.TokenLeftParen) {
		return p.parseFunctionDecl(typeToken, name)
	}
	return p.parseVariableDecl(typeToken, name)
}

// parseFunctionDecl parses the remainder of a function declaration, the
// type keyword and name having already been consumed.
//
// GRAMMAR:
//
//	function-decl = type identifier "(" parameters? ")" (block | ";")
//
// A trailing ';' instead of a body makes this a prototype.
func (p *Parser) parseFunctionDecl(typeToken, name lexer.Token) *ast.FunctionDecl {
	p.consume(lexer.TokenLeftParen, "expected '(' after function name")
	params := p.parseParameters()
	p.consume(lexer.TokenRightParen, "expected ')' after parameters")

	decl := &ast.FunctionDecl{
		ReturnType: typeToken.Lexeme,
		Name:       name.Lexeme,
		Params:     params,
		Position:   typeToken.Position,
	}

	if p.match(lexer.TokenSemicolon) {
		return decl // prototype
	}

	if !p.check(lexer.TokenLeftBrace) {
		p.errorf("expected '{' or ';' after function signature, got %s", p.describe(p.current))
	}
	decl.Body = p.parseBlock()
	return decl
}

// parseParameters parses a comma-separated parameter list. The list may be
// empty, and the C idiom "(void)" is accepted as an empty list.
func (p *Parser) parseParameters() []*ast.Parameter {
	params := make([]*ast.Parameter, 0)
	if p.check(lexer.TokenRightParen) {
		return params
	}

	// "(void)" declares zero parameters
	if p.check(lexer.TokenVoid) && p.peekIs(lexer.TokenRightParen) {
		p.advance()
		return params
	}

	for {
		if !p.current.Type.IsTypeKeyword() {
			p.errorf("expected parameter type, got %s", p.describe(p.current))
		}
		typeToken := p.current
		p.advance()
		p.consume(lexer.TokenIdentifier, "expected parameter name")
		params = append(params, &ast.Parameter{
			TypeName: typeToken.Lexeme,
			Name:     p.previous.Lexeme,
			Position: typeToken.Position,
		})
		if !p.match(lexer.TokenComma) {
			return params
		}
	}
}

// parseVariableDecl parses the remainder of a variable declaration, the
// type keyword and name having already been consumed.
//
// GRAMMAR:
//
//	variable-decl = type identifier ("=" expression)? ";"
func (p *Parser) parseVariableDecl(typeToken, name lexer.Token) *ast.VariableDecl {
	decl := &ast.VariableDecl{
		TypeName: typeToken.Lexeme,
		Name:     name.Lexeme,
		Position: typeToken.Position,
	}
	if p.match(lexer.TokenAssign) {
		decl.Init = p.parseExpression()
	}
	p.consume(lexer.TokenSemicolon, "expected ';' after variable declaration")
	return decl
}

// Statements

// parseStmt parses a single statement.
//
// GRAMMAR:
//
//	statement = block | if | while | for | return
//	          | variable-decl | expression ";"
func (p *Parser) parseStmt() ast.Stmt {
	switch p.current.Type {
	case lexer.TokenLeftBrace:
		return p.parseBlock()
	case lexer.TokenIf:
		return p.parseIfStmt()
	case lexer.TokenWhile:
		return p.parseWhileStmt()
	case lexer.TokenFor:
		return p.parseForStmt()
	case lexer.TokenReturn:
		return p.parseReturnStmt()
	default:
		if p.current.Type.IsTypeKeyword() {
			return p.parseLocalDecl()
		}
		return p.parseExprStmt()
	}
}

// parseLocalDecl parses a block-level variable declaration. Nested
// function declarations are not part of the language, so a '(' after the
// name is an error here.
func (p *Parser) parseLocalDecl() ast.Stmt {
	typeToken := p.current
	p.advance()
	p.consume(lexer.TokenIdentifier, "expected name after type")
	name := p.previous
	if p.check(lexer.TokenLeftParen) {
		p.errorf("function declarations are only allowed at top level")
	}
	return p.parseVariableDecl(typeToken, name)
}

// parseBlock parses a brace-delimited statement list. Each statement gets
// its own recovery boundary so one bad statement does not take the rest of
// the block with it.
func (p *Parser) parseBlock() *ast.CompoundStmt {
	p.consume(lexer.TokenLeftBrace, "expected '{'")
	block := &ast.CompoundStmt{
		Statements: make([]ast.Stmt, 0),
		Position:   p.previous.Position,
	}

	for !p.check(lexer.TokenRightBrace) && !p.isAtEnd() {
		before := p.current
		if stmt := p.parseStmtSafe(); stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
		if p.current == before && !p.check(lexer.TokenRightBrace) && !p.isAtEnd() {
			p.advance()
		}
	}

	p.consume(lexer.TokenRightBrace, "expected '}' to close block")
	return block
}

// parseStmtSafe parses one statement with panic-mode recovery.
func (p *Parser) parseStmtSafe() (stmt ast.Stmt) {
	defer p.recoverHere(func() { stmt = nil })
	return p.parseStmt()
}

func (p *Parser) parseIfStmt() *ast.IfStmt {
	pos := p.current.Position
	p.advance() // consume 'if'
	p.consume(lexer.TokenLeftParen, "expected '(' after 'if'")
	cond := p.parseExpression()
	p.consume(lexer.TokenRightParen, "expected ')' after if condition")

	stmt := &ast.IfStmt{Cond: cond, Position: pos}
	stmt.Then = p.parseStmt()
	if p.match(lexer.TokenElse) {
		stmt.Else = p.parseStmt()
	}
	return stmt
}

func (p *Parser) parseWhileStmt() *ast.WhileStmt {
	pos := p.current.Position
	p.advance() // consume 'while'
	p.consume(lexer.TokenLeftParen, "expected '(' after 'while'")
	cond := p.parseExpression()
	p.consume(lexer.TokenRightParen, "expected ')' after while condition")

	return &ast.WhileStmt{
		Cond:     cond,
		Body:     p.parseStmt(),
		Position: pos,
	}
}

// parseForStmt parses a C-style for loop. Every header clause is optional.
//
// GRAMMAR:
//
//	for = "for" "(" (variable-decl | expression ";" | ";")
//	      expression? ";" expression? ")" statement
func (p *Parser) parseForStmt() *ast.ForStmt {
	pos := p.current.Position
	p.advance() // consume 'for'
	p.consume(lexer.TokenLeftParen, "expected '(' after 'for'")

	stmt := &ast.ForStmt{Position: pos}

	// Init clause. The declaration and expression cases consume their own
	// terminating ';'.
	switch {
	case p.match(lexer.TokenSemicolon):
		// no init
	case p.current.Type.IsTypeKeyword():
		stmt.Init = p.parseLocalDecl()
	default:
		stmt.Init = p.parseExprStmt()
	}

	if !p.check(lexer.TokenSemicolon) {
		stmt.Cond = p.parseExpression()
	}
	p.consume(lexer.TokenSemicolon, "expected ';' after for condition")

	if !p.check(lexer.TokenRightParen) {
		stmt.Post = p.parseExpression()
	}
	p.consume(lexer.TokenRightParen, "expected ')' after for clauses")

	stmt.Body = p.parseStmt()
	return stmt
}

func (p *Parser) parseReturnStmt() *ast.ReturnStmt {
	pos := p.current.Position
	p.advance() // consume 'return'

	stmt := &ast.ReturnStmt{Position: pos}
	if !p.check(lexer.TokenSemicolon) {
		stmt.Value = p.parseExpression()
	}
	p.consume(lexer.TokenSemicolon, "expected ';' after return")
	return stmt
}

func (p *Parser) parseExprStmt() *ast.ExprStmt {
	expr := p.parseExpression()
	p.consume(lexer.TokenSemicolon, "expected ';' after expression")
	return &ast.ExprStmt{Expression: expr}
}

// Expressions

func (p *Parser) parseExpression() ast.Expr {
	return p.parsePrecedence(PrecAssignment)
}

// parsePrecedence parses an expression with at least the given precedence.
//
// This is the core of Pratt parsing: parse a prefix expression, then keep
// folding infix operators into it while they bind at least as tightly as
// the caller requires.
func (p *Parser) parsePrecedence(precedence Precedence) ast.Expr {
	left := p.parsePrefix()

	for precedence <= getPrecedence(p.current.Type) {
		left = p.parseInfix(left)
	}

	return left
}

// parsePrefix parses a token that can begin an expression: a literal, an
// identifier, a grouped expression, or a prefix unary operator.
func (p *Parser) parsePrefix() ast.Expr {
	switch p.current.Type {
	case lexer.TokenInteger:
		return p.parseIntLiteral()
	case lexer.TokenFloat:
		return p.parseFloatLiteral()
	case lexer.TokenString:
		lit := &ast.StringLiteral{Value: p.current.Lexeme, Position: p.current.Position}
		p.advance()
		return lit
	case lexer.TokenChar:
		return p.parseCharLiteral()
	case lexer.TokenIdentifier:
		ident := &ast.Identifier{Name: p.current.Lexeme, Position: p.current.Position}
		p.advance()
		return ident
	case lexer.TokenLeftParen:
		return p.parseGrouping()
	case lexer.TokenMinus, lexer.TokenNot,
		lexer.TokenPlusPlus, lexer.TokenMinusMinus:
		return p.parseUnary()
	default:
		p.errorf("expected expression, got %s", p.describe(p.current))
		return nil // unreachable, errorf panics
	}
}

// parseInfix extends left with the operator at the current token.
func (p *Parser) parseInfix(left ast.Expr) ast.Expr {
	switch p.current.Type {
	case lexer.TokenPlus, lexer.TokenMinus,
		lexer.TokenStar, lexer.TokenSlash, lexer.TokenPercent,
		lexer.TokenEqual, lexer.TokenNotEqual,
		lexer.TokenLess, lexer.TokenLessEqual,
		lexer.TokenGreater, lexer.TokenGreaterEqual,
		lexer.TokenAnd, lexer.TokenOr:
		return p.parseBinary(left)

	case lexer.TokenAssign, lexer.TokenPlusEq, lexer.TokenMinusEq,
		lexer.TokenStarEq, lexer.TokenSlashEq, lexer.TokenPercentEq:
		return p.parseAssignment(left)

	case lexer.TokenLeftParen:
		return p.parseCall(left)

	case lexer.TokenPlusPlus, lexer.TokenMinusMinus:
		operator := p.current
		p.advance()
		p.requireLvalue(left, "operand of "+operator.Lexeme)
		return &ast.UnaryExpr{Operator: operator, Operand: left, Postfix: true}

	default:
		return left
	}
}

// parseBinary parses a left-associative binary operator. The right operand
// is parsed one level tighter so equal-precedence operators group left.
func (p *Parser) parseBinary(left ast.Expr) ast.Expr {
	operator := p.current
	p.advance()
	right := p.parsePrecedence(getPrecedence(operator.Type) + 1)
	return &ast.BinaryExpr{Left: left, Operator: operator, Right: right}
}

// parseAssignment parses a plain or compound assignment. Assignment is
// right-associative, so the value side is parsed at the same precedence:
// a = b = c groups as a = (b = c).
func (p *Parser) parseAssignment(left ast.Expr) ast.Expr {
	operator := p.current
	p.advance()
	p.requireLvalue(left, "assignment target")
	value := p.parsePrecedence(PrecAssignment)
	return &ast.AssignExpr{Target: left, Operator: operator, Value: value}
}

func (p *Parser) parseCall(callee ast.Expr) ast.Expr {
	if _, ok := callee.(*ast.Identifier); !ok {
		p.errorf("called object is not a function name")
	}
	parenPos := p.current.Position
	p.advance() // consume '('

	args := make([]ast.Expr, 0)
	if !p.check(lexer.TokenRightParen) {
		for {
			args = append(args, p.parseExpression())
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	p.consume(lexer.TokenRightParen, "expected ')' after arguments")

	return &ast.CallExpr{Callee: callee, Args: args, Position: parenPos}
}

func (p *Parser) parseUnary() ast.Expr {
	operator := p.current
	p.advance()
	operand := p.parsePrecedence(PrecUnary)
	if operator.Type == lexer.TokenPlusPlus || operator.Type == lexer.TokenMinusMinus {
		p.requireLvalue(operand, "operand of "+operator.Lexeme)
	}
	return &ast.UnaryExpr{Operator: operator, Operand: operand}
}

func (p *Parser) parseGrouping() ast.Expr {
	p.advance() // consume '('
	expr := p.parseExpression()
	p.consume(lexer.TokenRightParen, "expected ')' after expression")
	return expr
}

func (p *Parser) parseIntLiteral() ast.Expr {
	token := p.current
	p.advance()
	value, err := strconv.ParseInt(token.Lexeme, 10, 64)
	if err != nil {
		p.errorAt(token.Position, "integer literal %q out of range", token.Lexeme)
	}
	return &ast.IntLiteral{Value: value, Position: token.Position}
}

func (p *Parser) parseFloatLiteral() ast.Expr {
	token := p.current
	p.advance()
	value, err := strconv.ParseFloat(token.Lexeme, 64)
	if err != nil {
		p.errorAt(token.Position, "invalid float literal %q", token.Lexeme)
	}
	return &ast.FloatLiteral{Value: value, Position: token.Position}
}

func (p *Parser) parseCharLiteral() ast.Expr {
	token := p.current
	p.advance()
	// The lexer guarantees a one-byte unescaped lexeme.
	return &ast.CharLiteral{Value: token.Lexeme[0], Position: token.Position}
}

// requireLvalue reports an error unless expr can be assigned to.
// Only plain identifiers are assignable in this language.
func (p *Parser) requireLvalue(expr ast.Expr, what string) {
	if _, ok := expr.(*ast.Identifier); !ok {
		p.errorAt(expr.Pos(), "%s must be a variable", what)
	}
}

// Token stream helpers

// advance consumes the current token. A lexer error is fatal: the first
// one is remembered, the token stream is cut short with an EOF token so
// every parsing loop drains, and Parse reports only that error.
func (p *Parser) advance() {
	p.previous = p.current
	token, err := p.lexer.NextToken()
	if err != nil {
		pos := p.current.Position
		message := err.Error()
		if lexErr, ok := err.(*lexer.LexError); ok {
			pos = lexErr.Pos
			message = lexErr.Message
		}
		if p.lexFailure == nil {
			p.lexFailure = &diag.Diagnostic{
				Severity: diag.Error,
				Message:  message,
				Pos:      pos,
			}
		}
		p.current = lexer.Token{Type: lexer.TokenEOF, Position: pos}
		return
	}
	p.current = token
}

func (p *Parser) check(tokenType lexer.TokenType) bool {
	return p.current.Type == tokenType
}

// peekIs reports whether the token after the current one has the given
// type, without consuming anything.
func (p *Parser) peekIs(tokenType lexer.TokenType) bool {
	token, err := p.lexer.PeekToken()
	return err == nil && token.Type == tokenType
}

// match consumes the current token if it has one of the given types.
func (p *Parser) match(tokenTypes ...lexer.TokenType) bool {
	for _, tt := range tokenTypes {
		if p.check(tt) {
			p.advance()
			return true
		}
	}
	return false
}

// consume requires the current token to have the given type and consumes
// it, or reports an error.
func (p *Parser) consume(tokenType lexer.TokenType, message string) {
	if p.check(tokenType) {
		p.advance()
		return
	}
	p.errorf("%s, got %s", message, p.describe(p.current))
}

func (p *Parser) isAtEnd() bool {
	return p.current.Type == lexer.TokenEOF
}

// describe renders a token for an error message.
func (p *Parser) describe(token lexer.Token) string {
	switch token.Type {
	case lexer.TokenEOF:
		return "end of file"
	case lexer.TokenInvalid:
		return "invalid input"
	default:
		return "'" + token.Lexeme + "'"
	}
}

// errorf records an error at the current token and unwinds to the nearest
// recovery boundary.
func (p *Parser) errorf(format string, args ...interface{}) {
	p.errorAt(p.current.Position, format, args...)
}

// errorAt records an error at pos and unwinds to the nearest recovery
// boundary.
func (p *Parser) errorAt(pos lexer.Position, format string, args ...interface{}) {
	p.bag.Errorf(pos, format, args...)
	panic(bailout{})
}

// recoverHere installs a recovery boundary: a bailout panic is swallowed,
// the token stream is resynchronized, and onBail runs to discard the
// partial result. Any other panic is re-raised.
func (p *Parser) recoverHere(onBail func()) {
	if r := recover(); r != nil {
		if _, ok := r.(bailout); !ok {
			panic(r)
		}
		p.synchronize()
		onBail()
	}
}

// synchronize discards tokens until a likely statement boundary: just past
// a ';', or at a token that begins a statement, or at a '}' (left for the
// enclosing block to consume).
func (p *Parser) synchronize() {
	for !p.isAtEnd() {
		if p.previous.Type == lexer.TokenSemicolon {
			return
		}

		switch p.current.Type {
		case lexer.TokenIf, lexer.TokenWhile, lexer.TokenFor, lexer.TokenReturn,
			lexer.TokenInt, lexer.TokenFloatKw, lexer.TokenCharKw,
			lexer.TokenDouble, lexer.TokenVoid,
			lexer.TokenRightBrace:
			return
		}

		p.advance()
	}
}
