package parser

import (
	"fmt"
	"strings"
	"testing"

	"github.com/hassan/cc64/internal/diag"
	"github.com/hassan/cc64/internal/lexer"
	"github.com/hassan/cc64/internal/parser/ast"
)

// parseSource parses src and returns the program and diagnostics.
func parseSource(t *testing.T, src string) (*ast.Program, *diag.Bag) {
	t.Helper()
	p := New(lexer.New(src, "test.c"))
	return p.Parse()
}

// parseClean parses src and fails the test on any diagnostic.
func parseClean(t *testing.T, src string) *ast.Program {
	t.Helper()
	program, bag := parseSource(t, src)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.All())
	}
	return program
}

// exprString renders an expression with full parenthesization, making
// precedence and associativity visible: "1 + 2 * 3" -> "(1 + (2 * 3))".
func exprString(e ast.Expr) string {
	switch e := e.(type) {
	case *ast.IntLiteral:
		return fmt.Sprintf("%d", e.Value)
	case *ast.FloatLiteral:
		return fmt.Sprintf("%g", e.Value)
	case *ast.StringLiteral:
		return fmt.Sprintf("%q", e.Value)
	case *ast.CharLiteral:
		return fmt.Sprintf("'%c'", e.Value)
	case *ast.Identifier:
		return e.Name
	case *ast.BinaryExpr:
		return fmt.Sprintf("(%s %s %s)", exprString(e.Left), e.Operator.Lexeme, exprString(e.Right))
	case *ast.UnaryExpr:
		if e.Postfix {
			return fmt.Sprintf("(%s%s)", exprString(e.Operand), e.Operator.Lexeme)
		}
		return fmt.Sprintf("(%s%s)", e.Operator.Lexeme, exprString(e.Operand))
	case *ast.AssignExpr:
		return fmt.Sprintf("(%s %s %s)", exprString(e.Target), e.Operator.Lexeme, exprString(e.Value))
	case *ast.CallExpr:
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = exprString(a)
		}
		return fmt.Sprintf("%s(%s)", exprString(e.Callee), strings.Join(args, ", "))
	default:
		return fmt.Sprintf("<%T>", e)
	}
}

// firstReturnExpr extracts the expression from "int f() { return <expr>; }".
func firstReturnExpr(t *testing.T, program *ast.Program) ast.Expr {
	t.Helper()
	if len(program.Decls) != 1 {
		t.Fatalf("expected 1 declaration, got %d", len(program.Decls))
	}
	fn, ok := program.Decls[0].(*ast.FunctionDecl)
	if !ok || fn.Body == nil || len(fn.Body.Statements) == 0 {
		t.Fatalf("expected a function with a body")
	}
	ret, ok := fn.Body.Statements[0].(*ast.ReturnStmt)
	if !ok {
		t.Fatalf("expected a return statement, got %T", fn.Body.Statements[0])
	}
	return ret.Value
}

func TestParser_ExpressionPrecedence(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"1 * 2 + 3", "((1 * 2) + 3)"},
		{"1 - 2 - 3", "((1 - 2) - 3)"},
		{"10 / 2 % 3", "((10 / 2) % 3)"},
		{"(1 + 2) * 3", "((1 + 2) * 3)"},
		{"a < b == c", "((a < b) == c)"},
		{"a == b && c != d", "((a == b) && (c != d))"},
		{"a && b || c && d", "((a && b) || (c && d))"},
		{"!a && b", "((!a) && b)"},
		{"-a * b", "((-a) * b)"},
		{"-(a * b)", "(-(a * b))"},
		{"a = b = 3", "(a = (b = 3))"},
		{"a += b * 2", "(a += (b * 2))"},
		{"a = b || c", "(a = (b || c))"},
		{"++a + b", "((++a) + b)"},
		{"a++ + b", "((a++) + b)"},
		{"f(1, 2 + 3)", "f(1, (2 + 3))"},
		{"f() + g(x)", "(f() + g(x))"},
		{"a < b + 1", "(a < (b + 1))"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			program := parseClean(t, "int f() { return "+tt.input+"; }")
			got := exprString(firstReturnExpr(t, program))
			if got != tt.want {
				t.Errorf("parsed %q as %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestParser_FunctionDefinition(t *testing.T) {
	program := parseClean(t, `
int add(int a, int b) {
	return a + b;
}
`)

	fn := program.Decls[0].(*ast.FunctionDecl)
	if fn.Name != "add" || fn.ReturnType != "int" {
		t.Errorf("got %s %s, want int add", fn.ReturnType, fn.Name)
	}
	if len(fn.Params) != 2 {
		t.Fatalf("expected 2 parameters, got %d", len(fn.Params))
	}
	if fn.Params[0].Name != "a" || fn.Params[0].TypeName != "int" {
		t.Errorf("bad first parameter: %+v", fn.Params[0])
	}
	if !fn.IsDefinition() {
		t.Error("expected a definition, got a prototype")
	}
}

func TestParser_FunctionPrototype(t *testing.T) {
	program := parseClean(t, "int add(int a, int b);")
	fn := program.Decls[0].(*ast.FunctionDecl)
	if fn.IsDefinition() {
		t.Error("expected a prototype, got a definition")
	}
}

func TestParser_VoidParameterList(t *testing.T) {
	program := parseClean(t, "int main(void) { return 0; }")
	fn := program.Decls[0].(*ast.FunctionDecl)
	if len(fn.Params) != 0 {
		t.Errorf("(void) should declare zero parameters, got %d", len(fn.Params))
	}
}

func TestParser_GlobalVariables(t *testing.T) {
	program := parseClean(t, `
int counter = 10;
float rate;
`)

	if len(program.Decls) != 2 {
		t.Fatalf("expected 2 declarations, got %d", len(program.Decls))
	}

	v0 := program.Decls[0].(*ast.VariableDecl)
	if v0.Name != "counter" || v0.TypeName != "int" || v0.Init == nil {
		t.Errorf("bad first global: %+v", v0)
	}
	v1 := program.Decls[1].(*ast.VariableDecl)
	if v1.Name != "rate" || v1.TypeName != "float" || v1.Init != nil {
		t.Errorf("bad second global: %+v", v1)
	}
}

func TestParser_Statements(t *testing.T) {
	program := parseClean(t, `
int main() {
	int x = 1;
	if (x > 0) {
		x = 2;
	} else {
		x = 3;
	}
	while (x < 10)
		x++;
	for (int i = 0; i < 5; i++) {
		x += i;
	}
	return x;
}
`)

	body := program.Decls[0].(*ast.FunctionDecl).Body
	if len(body.Statements) != 5 {
		t.Fatalf("expected 5 statements, got %d", len(body.Statements))
	}

	if _, ok := body.Statements[0].(*ast.VariableDecl); !ok {
		t.Errorf("statement 0: got %T, want *ast.VariableDecl", body.Statements[0])
	}

	ifStmt, ok := body.Statements[1].(*ast.IfStmt)
	if !ok {
		t.Fatalf("statement 1: got %T, want *ast.IfStmt", body.Statements[1])
	}
	if ifStmt.Else == nil {
		t.Error("if statement lost its else branch")
	}

	whileStmt, ok := body.Statements[2].(*ast.WhileStmt)
	if !ok {
		t.Fatalf("statement 2: got %T, want *ast.WhileStmt", body.Statements[2])
	}
	if _, ok := whileStmt.Body.(*ast.ExprStmt); !ok {
		t.Errorf("while body: got %T, want unbraced *ast.ExprStmt", whileStmt.Body)
	}

	forStmt, ok := body.Statements[3].(*ast.ForStmt)
	if !ok {
		t.Fatalf("statement 3: got %T, want *ast.ForStmt", body.Statements[3])
	}
	if forStmt.Init == nil || forStmt.Cond == nil || forStmt.Post == nil {
		t.Error("for statement lost a header clause")
	}
	if _, ok := forStmt.Init.(*ast.VariableDecl); !ok {
		t.Errorf("for init: got %T, want *ast.VariableDecl", forStmt.Init)
	}
}

func TestParser_ForClausesOptional(t *testing.T) {
	program := parseClean(t, "int main() { for (;;) { return 0; } }")
	forStmt := program.Decls[0].(*ast.FunctionDecl).Body.Statements[0].(*ast.ForStmt)
	if forStmt.Init != nil || forStmt.Cond != nil || forStmt.Post != nil {
		t.Error("empty for header should leave all clauses nil")
	}
}

func TestParser_DanglingElse(t *testing.T) {
	// The else binds to the nearest if.
	program := parseClean(t, `
int main() {
	if (a)
		if (b)
			x = 1;
		else
			x = 2;
	return 0;
}
`)
	outer := program.Decls[0].(*ast.FunctionDecl).Body.Statements[0].(*ast.IfStmt)
	if outer.Else != nil {
		t.Error("else bound to outer if, want inner")
	}
	inner, ok := outer.Then.(*ast.IfStmt)
	if !ok {
		t.Fatalf("outer then: got %T, want *ast.IfStmt", outer.Then)
	}
	if inner.Else == nil {
		t.Error("inner if lost its else branch")
	}
}

func TestParser_BareReturn(t *testing.T) {
	program := parseClean(t, "void f() { return; }")
	ret := program.Decls[0].(*ast.FunctionDecl).Body.Statements[0].(*ast.ReturnStmt)
	if ret.Value != nil {
		t.Error("bare return should carry no value")
	}
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantSub string
	}{
		{"missing semicolon", "int main() { return 0 }", "expected ';'"},
		{"missing close paren", "int main() { return (1 + 2; }", "expected ')'"},
		{"assign to literal", "int main() { 5 = x; return 0; }", "must be a variable"},
		{"increment literal", "int main() { 5++; return 0; }", "must be a variable"},
		{"missing condition paren", "int main() { if x > 0 { return 1; } return 0; }", "expected '('"},
		{"nested function", "int main() { int g() { return 1; } return 0; }", "top level"},
		{"garbage at top level", "return 42;", "expected declaration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, bag := parseSource(t, tt.input)
			if !bag.HasErrors() {
				t.Fatalf("expected errors for %q, got none", tt.input)
			}
			found := false
			for _, d := range bag.All() {
				if strings.Contains(d.Message, tt.wantSub) {
					found = true
				}
			}
			if !found {
				t.Errorf("no diagnostic containing %q in %v", tt.wantSub, bag.All())
			}
		})
	}
}

func TestParser_RecoversAcrossStatements(t *testing.T) {
	// Two distinct errors in one function: recovery after the first must
	// carry on far enough to find the second.
	_, bag := parseSource(t, `
int main() {
	int x = ;
	int y = 2
	return y;
}
`)
	errs := 0
	for _, d := range bag.All() {
		if d.Severity == diag.Error {
			errs++
		}
	}
	if errs < 2 {
		t.Errorf("expected at least 2 errors, got %d: %v", errs, bag.All())
	}
}

func TestParser_RecoversAcrossDeclarations(t *testing.T) {
	// A broken first function must not hide the second one.
	program, bag := parseSource(t, `
int broken( { return 1; }
int fine() { return 2; }
`)
	if !bag.HasErrors() {
		t.Fatal("expected errors from the broken declaration")
	}
	found := false
	for _, d := range program.Decls {
		if fn, ok := d.(*ast.FunctionDecl); ok && fn.Name == "fine" {
			found = true
		}
	}
	if !found {
		t.Error("second declaration lost during recovery")
	}
}

func TestParser_GarbageYieldsEmptyProgram(t *testing.T) {
	program, bag := parseSource(t, "@@@ ;;; +++")
	if program == nil {
		t.Fatal("Parse must always return a program")
	}
	if len(program.Decls) != 0 {
		t.Errorf("expected no declarations, got %d", len(program.Decls))
	}
	if !bag.HasErrors() {
		t.Error("expected errors for garbage input")
	}
}

func TestParser_LexerErrorIsFatal(t *testing.T) {
	// The '@' poisons the whole input. The broken prototype on the next
	// line must not add syntax errors on top of the lexer's.
	program, bag := parseSource(t, "int @ = 1;\nint f(;\n")
	if len(program.Decls) != 0 {
		t.Errorf("expected no declarations, got %d", len(program.Decls))
	}
	if bag.Len() != 1 {
		t.Fatalf("expected exactly one diagnostic, got %d: %v", bag.Len(), bag.All())
	}
	d := bag.All()[0]
	if d.Severity != diag.Error {
		t.Errorf("severity = %v, want error", d.Severity)
	}
	if !strings.Contains(d.Message, "unexpected character") {
		t.Errorf("diagnostic %q does not name the bad character", d.Message)
	}
	if d.Pos.Line != 1 {
		t.Errorf("diagnostic line = %d, want 1", d.Pos.Line)
	}
}

func TestParser_PositionsPreserved(t *testing.T) {
	program := parseClean(t, "int main() {\n\treturn 42;\n}")
	fn := program.Decls[0].(*ast.FunctionDecl)
	if fn.Pos().Line != 1 {
		t.Errorf("function position line = %d, want 1", fn.Pos().Line)
	}
	ret := fn.Body.Statements[0].(*ast.ReturnStmt)
	if ret.Pos().Line != 2 {
		t.Errorf("return position line = %d, want 2", ret.Pos().Line)
	}
}
