package lexer

import "testing"

func TestLookupKeyword(t *testing.T) {
	tests := []struct {
		identifier string
		expected   TokenType
	}{
		{"int", TokenInt},
		{"float", TokenFloatKw},
		{"char", TokenCharKw},
		{"double", TokenDouble},
		{"void", TokenVoid},
		{"if", TokenIf},
		{"else", TokenElse},
		{"while", TokenWhile},
		{"for", TokenFor},
		{"return", TokenReturn},
		{"foo", TokenIdentifier},
		{"integer", TokenIdentifier},
		{"If", TokenIdentifier}, // keywords are case-sensitive
		{"", TokenIdentifier},
	}

	for _, tt := range tests {
		t.Run(tt.identifier, func(t *testing.T) {
			if got := LookupKeyword(tt.identifier); got != tt.expected {
				t.Errorf("LookupKeyword(%q) = %v, want %v", tt.identifier, got, tt.expected)
			}
		})
	}
}

func TestTokenType_Categories(t *testing.T) {
	if !TokenInt.IsKeyword() || !TokenReturn.IsKeyword() {
		t.Error("expected int and return to be keywords")
	}
	if TokenPlus.IsKeyword() || TokenIdentifier.IsKeyword() {
		t.Error("expected + and identifiers not to be keywords")
	}

	if !TokenInt.IsTypeKeyword() || !TokenVoid.IsTypeKeyword() {
		t.Error("expected int and void to be type keywords")
	}
	if TokenIf.IsTypeKeyword() || TokenReturn.IsTypeKeyword() {
		t.Error("expected if and return not to be type keywords")
	}

	if !TokenInteger.IsLiteral() || !TokenString.IsLiteral() {
		t.Error("expected integer and string to be literals")
	}
	if TokenIdentifier.IsLiteral() {
		t.Error("expected identifier not to be a literal")
	}
}

func TestToken_String(t *testing.T) {
	tok := Token{
		Type:     TokenIdentifier,
		Lexeme:   "foo",
		Position: Position{Filename: "main.c", Line: 3, Column: 7},
	}

	want := "IDENTIFIER(foo) at main.c:3:7"
	if got := tok.String(); got != want {
		t.Errorf("Token.String() = %q, want %q", got, want)
	}
}

func TestToken_Span(t *testing.T) {
	tok := Token{
		Type:     TokenIdentifier,
		Lexeme:   "foo",
		Length:   3,
		Position: Position{Filename: "main.c", Line: 1, Column: 5, Offset: 4},
	}

	span := tok.Span()
	if span.Start != tok.Position {
		t.Errorf("span start = %v, want %v", span.Start, tok.Position)
	}
	if span.End.Offset != 7 || span.End.Column != 8 {
		t.Errorf("span end = %v, want offset 7 column 8", span.End)
	}
	if span.Length() != 3 {
		t.Errorf("span length = %d, want 3", span.Length())
	}
}

func TestPosition_Ordering(t *testing.T) {
	a := Position{Filename: "main.c", Line: 1, Column: 1, Offset: 0}
	b := Position{Filename: "main.c", Line: 2, Column: 1, Offset: 10}

	if !a.Before(b) || b.Before(a) {
		t.Error("expected a < b by offset")
	}
	if !b.After(a) || a.After(b) {
		t.Error("expected b > a by offset")
	}
	if !a.IsValid() || (Position{}).IsValid() {
		t.Error("validity should follow the line number")
	}
}
