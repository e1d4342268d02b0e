package codegen

import (
	"strings"
	"testing"

	"github.com/hassan/cc64/internal/lexer"
	"github.com/hassan/cc64/internal/parser"
	"github.com/hassan/cc64/internal/parser/ast"
	"github.com/hassan/cc64/internal/semantic"
)

// analyzeSource parses and analyzes src, failing the test on any error.
func analyzeSource(t *testing.T, src string) (*ast.Program, *semantic.Info) {
	t.Helper()
	program, pbag := parser.New(lexer.New(src, "test.c")).Parse()
	if pbag.HasErrors() {
		t.Fatalf("parse errors: %v", pbag.Sorted())
	}
	info, sbag := semantic.New().Analyze(program)
	if sbag.HasErrors() {
		t.Fatalf("semantic errors: %v", sbag.Sorted())
	}
	return program, info
}

func funcNamed(t *testing.T, program *ast.Program, name string) *ast.FunctionDecl {
	t.Helper()
	for _, decl := range program.Decls {
		if fn, ok := decl.(*ast.FunctionDecl); ok && fn.Name == name && fn.IsDefinition() {
			return fn
		}
	}
	t.Fatalf("no function %q in program", name)
	return nil
}

func generate(t *testing.T, src string, allocator Allocator) string {
	t.Helper()
	program, info := analyzeSource(t, src)
	asm, err := Generate(program, info, allocator)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return asm
}

func wantContains(t *testing.T, asm string, subs ...string) {
	t.Helper()
	for _, sub := range subs {
		if !strings.Contains(asm, sub) {
			t.Errorf("assembly missing %q\n%s", sub, asm)
		}
	}
}

func TestGenerate_ReturnConstant(t *testing.T) {
	asm := generate(t, `int main() { return 42; }`, &NaiveAllocator{})
	wantContains(t, asm,
		".text",
		".globl main",
		"main:",
		"mov $42, %rax",
		".Lmain_epilogue:",
		"ret",
	)
}

func TestGenerate_GlobalData(t *testing.T) {
	asm := generate(t, `
int counter = 7;
int main() { return counter; }
`, &NaiveAllocator{})
	wantContains(t, asm,
		".data",
		"counter:",
		"  .quad 7",
		"mov counter(%rip), %rax",
	)
}

func TestGenerate_NegatedGlobalInitializer(t *testing.T) {
	asm := generate(t, `
int offset = -5;
int main() { return offset; }
`, &NaiveAllocator{})
	wantContains(t, asm, "  .quad -5")
}

func TestGenerate_UninitializedGlobalIsZero(t *testing.T) {
	asm := generate(t, `
int total;
int main() { return total; }
`, &NaiveAllocator{})
	wantContains(t, asm, "total:", "  .quad 0")
}

func TestGenerate_StringLiteralsDeduplicated(t *testing.T) {
	asm := generate(t, `
int main() {
	printf("hi\n");
	printf("hi\n");
	printf("bye\n");
	return 0;
}
`, &NaiveAllocator{})
	wantContains(t, asm,
		".section .rodata",
		`.string "hi\n"`,
		`.string "bye\n"`,
		"lea .LC0(%rip), %rax",
	)
	if got := strings.Count(asm, ".LC0:"); got != 1 {
		t.Errorf(".LC0 defined %d times, want 1", got)
	}
	if !strings.Contains(asm, ".LC1:") || strings.Contains(asm, ".LC2:") {
		t.Errorf("want exactly two pooled strings\n%s", asm)
	}
}

func TestGenerate_VariadicCallZeroesAL(t *testing.T) {
	asm := generate(t, `
int main() {
	printf("%d\n", 1);
	return 0;
}
`, &NaiveAllocator{})
	wantContains(t, asm, "mov $0, %eax", "call printf")
	if strings.Index(asm, "mov $0, %eax") > strings.Index(asm, "call printf") {
		t.Errorf("%%eax must be zeroed before the variadic call\n%s", asm)
	}
}

func TestGenerate_ParamsHomedOnStackUnderNaive(t *testing.T) {
	asm := generate(t, `int f(int a, int b) { return a + b; }`, &NaiveAllocator{})
	wantContains(t, asm,
		"mov %rdi, -8(%rbp)",
		"mov %rsi, -16(%rbp)",
		"sub $16, %rsp",
	)
}

func TestGenerate_ParamsStayInRegistersUnderLinearScan(t *testing.T) {
	asm := generate(t, `int f(int a) { return a + 1; }`, &LinearScan{})
	wantContains(t, asm, "mov %rdi, %rax")
	if strings.Contains(asm, "(%rbp)") {
		t.Errorf("no frame slot expected\n%s", asm)
	}
}

func TestGenerate_DivisionPreservesRdx(t *testing.T) {
	asm := generate(t, `int f(int a, int b) { return a / b; }`, &LinearScan{})
	wantContains(t, asm, "push %rdx", "cqto", "idiv %r11", "pop %rdx")
}

func TestGenerate_ModuloTakesRemainder(t *testing.T) {
	asm := generate(t, `int f(int a, int b) { return a % b; }`, &NaiveAllocator{})
	wantContains(t, asm, "idiv %r11", "mov %rdx, %rax")
}

func TestGenerate_ComparisonMaterializesFlag(t *testing.T) {
	asm := generate(t, `int f(int a, int b) { return a < b; }`, &NaiveAllocator{})
	wantContains(t, asm, "cmp %r11, %rax", "setl %al", "movzbq %al, %rax")
}

func TestGenerate_WhileLoopShape(t *testing.T) {
	asm := generate(t, `
int main() {
	int i = 0;
	while (i < 10) {
		i = i + 1;
	}
	return i;
}
`, &NaiveAllocator{})
	wantContains(t, asm, "cmp $0, %rax", "je .L", "jmp .L")
}

func TestGenerate_ShortCircuitAnd(t *testing.T) {
	asm := generate(t, `int f(int a, int b) { return a && b; }`, &NaiveAllocator{})
	wantContains(t, asm, "je .L", "mov $1, %rax", "mov $0, %rax")
}

func TestGenerate_CalleeSavedPushedAndPopped(t *testing.T) {
	asm := generate(t, `
int main() {
	int x = 1;
	int y = 2;
	return x + y;
}
`, &LinearScan{})
	wantContains(t, asm, "push %rbx", "pop %rbx", "push %r12", "pop %r12")
}

func TestGenerate_SpilledVariableAvoidsSaveArea(t *testing.T) {
	// Six overlapping locals exhaust the pool, so one variable lives on
	// the stack. Its slot must sit below the five pushed pool registers,
	// which occupy -8(%rbp) through -40(%rbp).
	asm := generate(t, `
int main() {
	int a = 1;
	int b = 2;
	int c = 3;
	int d = 4;
	int e = 5;
	int g = 6;
	return a + b + c + d + e + g;
}
`, &LinearScan{})
	wantContains(t, asm, "-48(%rbp)")
	for _, slot := range []string{"-8(%rbp)", "-16(%rbp)", "-24(%rbp)", "-32(%rbp)", "-40(%rbp)"} {
		if strings.Contains(asm, slot) {
			t.Errorf("spill touches save area slot %s\n%s", slot, asm)
		}
	}
}

func TestGenerate_MissingReturnYieldsZero(t *testing.T) {
	asm := generate(t, `
void log_it() { printf("x"); }
int main() { return 0; }
`, &NaiveAllocator{})
	// The non-void main gets the default, the void function does not
	// need one but the shared epilogue still closes both.
	wantContains(t, asm, ".Llog_it_epilogue:", "mov $0, %rax")
}

func TestGenerate_PrototypeEmitsNothing(t *testing.T) {
	asm := generate(t, `
int helper(int x);
int main() { return 0; }
`, &NaiveAllocator{})
	if strings.Contains(asm, "helper:") {
		t.Errorf("prototype must not emit a label\n%s", asm)
	}
}

func TestGenerate_PostfixIncrementYieldsOldValue(t *testing.T) {
	asm := generate(t, `
int main() {
	int i = 5;
	return i++;
}
`, &NaiveAllocator{})
	load := strings.Index(asm, "mov -8(%rbp), %rax")
	inc := strings.Index(asm, "incq -8(%rbp)")
	if load < 0 || inc < 0 || inc < load {
		t.Errorf("postfix must load before incrementing\n%s", asm)
	}
}

func TestGenerate_CompoundAssignment(t *testing.T) {
	asm := generate(t, `
int main() {
	int x = 10;
	x += 3;
	return x;
}
`, &NaiveAllocator{})
	wantContains(t, asm, "mov %rax, %r11", "add %r11, %rax", "mov %rax, -8(%rbp)")
}

func TestGenerate_CallSavesLiveParamRegisters(t *testing.T) {
	asm := generate(t, `
int twice(int n) { return n + n; }
int f(int a) { return twice(a) + a; }
`, &LinearScan{})
	wantContains(t, asm, "push %rdi", "pop %rdi", "call twice")
}
