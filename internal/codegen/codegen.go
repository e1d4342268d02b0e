package codegen

import (
	"fmt"
	"strings"

	"github.com/hassan/cc64/internal/lexer"
	"github.com/hassan/cc64/internal/parser/ast"
	"github.com/hassan/cc64/internal/semantic"
	"github.com/hassan/cc64/internal/symtab"
)

// Generator emits AT&T syntax x86-64 assembly for one program.
//
// EVALUATION MODEL:
// Expressions evaluate into %rax. Binary operators evaluate the left
// operand, push it, evaluate the right operand, and combine through the
// %r11 scratch register. That is the same accumulator-and-stack scheme a
// person uses translating C by hand, which keeps the emitted code easy to
// read and check.
//
// Every value occupies a full 64-bit slot regardless of its declared
// type. Floating-point expressions are lowered through integer
// truncation: float literals become their truncated integer value and
// float arithmetic shares the integer instructions.
//
// CALLS:
// Arguments are evaluated left to right onto the stack, parameters held
// in caller-saved registers are saved, the stack is padded to the 16-byte
// call boundary, and the arguments are loaded into the System V argument
// registers straight from their stack slots. Saving after argument
// evaluation (not before) means an argument's side effects on a parameter
// survive the call.
type Generator struct {
	info      *semantic.Info
	allocator Allocator

	out strings.Builder

	// string literal pool, emitted once at the end
	strings   []string
	stringIdx map[string]int

	labelSeq int

	// per-function state
	alloc     *AllocationResult
	epilogue  string
	pushDepth int // 8-byte pushes since the prologue aligned the stack
}

// Generate compiles the program to assembly text using the given
// allocator for register assignment.
func Generate(program *ast.Program, info *semantic.Info, allocator Allocator) (string, error) {
	g := &Generator{
		info:      info,
		allocator: allocator,
		stringIdx: make(map[string]int),
	}
	return g.run(program)
}

func (g *Generator) run(program *ast.Program) (string, error) {
	var globals []*ast.VariableDecl
	var funcs []*ast.FunctionDecl
	for _, decl := range program.Decls {
		switch d := decl.(type) {
		case *ast.VariableDecl:
			globals = append(globals, d)
		case *ast.FunctionDecl:
			if d.IsDefinition() {
				funcs = append(funcs, d)
			}
		}
	}

	if len(globals) > 0 {
		g.raw(".data\n")
		for _, d := range globals {
			value, err := g.globalValue(d)
			if err != nil {
				return "", err
			}
			g.emitf(".globl %s", d.Name)
			g.emitf("%s:", d.Name)
			g.emitf("  .quad %d", value)
		}
	}

	g.raw(".text\n")
	for _, fn := range funcs {
		if err := g.function(fn); err != nil {
			return "", err
		}
	}

	if len(g.strings) > 0 {
		g.raw(".section .rodata\n")
		for i, s := range g.strings {
			g.emitf(".LC%d:", i)
			g.emitf("  .string %s", asQuoted(s))
		}
	}

	return g.out.String(), nil
}

// globalValue evaluates a global initializer to its 64-bit image. The
// analyzer restricts initializers to literals, optionally negated.
func (g *Generator) globalValue(d *ast.VariableDecl) (int64, error) {
	expr := d.Init
	if expr == nil {
		return 0, nil
	}
	neg := false
	if u, ok := expr.(*ast.UnaryExpr); ok && u.Operator.Type == lexer.TokenMinus {
		neg = true
		expr = u.Operand
	}
	var value int64
	switch e := expr.(type) {
	case *ast.IntLiteral:
		value = e.Value
	case *ast.FloatLiteral:
		value = int64(e.Value)
	case *ast.CharLiteral:
		value = int64(e.Value)
	default:
		return 0, fmt.Errorf("global %q: initializer is not a constant", d.Name)
	}
	if neg {
		value = -value
	}
	return value, nil
}

// function emits one function: prologue, homed parameters, body,
// fall-through default, and a single epilogue every return jumps to.
func (g *Generator) function(fn *ast.FunctionDecl) error {
	alloc, err := g.allocator.Allocate(fn, g.info)
	if err != nil {
		return err
	}
	g.alloc = alloc
	g.epilogue = ".L" + fn.Name + "_epilogue"
	g.pushDepth = 0

	g.emitf(".globl %s", fn.Name)
	g.emitf("%s:", fn.Name)
	g.emitf("  push %%rbp")
	g.emitf("  mov %%rsp, %%rbp")
	for _, reg := range alloc.UsedCalleeSaved {
		g.emitf("  push %s", reg)
	}

	// An odd number of callee-saved pushes leaves %rsp off the 16-byte
	// boundary; fold the fixup into the frame.
	frame := alloc.FrameSize
	if len(alloc.UsedCalleeSaved)%2 == 1 {
		frame += 8
	}
	if frame > 0 {
		g.emitf("  sub $%d, %%rsp", frame)
	}

	// Home the parameters.
	for i, p := range fn.Params {
		sym := g.info.Decls[p]
		if sym == nil {
			continue
		}
		loc := alloc.Locations[sym]
		src := argRegisters[i]
		if loc.Operand() != src {
			g.emitf("  mov %s, %s", src, loc.Operand())
		}
	}

	fnSym := g.info.Decls[fn]
	for _, stmt := range fn.Body.Statements {
		if err := g.stmt(stmt); err != nil {
			return err
		}
	}

	// Falling off the end of a non-void function yields zero.
	if fnSym == nil || !fnSym.Type.IsVoid() {
		g.emitf("  mov $0, %%rax")
	}

	g.emitf("%s:", g.epilogue)
	if frame > 0 {
		g.emitf("  add $%d, %%rsp", frame)
	}
	for i := len(alloc.UsedCalleeSaved) - 1; i >= 0; i-- {
		g.emitf("  pop %s", alloc.UsedCalleeSaved[i])
	}
	g.emitf("  pop %%rbp")
	g.emitf("  ret")
	return nil
}

func (g *Generator) stmt(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.CompoundStmt:
		for _, inner := range s.Statements {
			if err := g.stmt(inner); err != nil {
				return err
			}
		}
		return nil

	case *ast.VariableDecl:
		if s.Init == nil {
			return nil
		}
		if err := g.expr(s.Init); err != nil {
			return err
		}
		g.store("%rax", g.info.Decls[s])
		return nil

	case *ast.ExprStmt:
		return g.expr(s.Expression)

	case *ast.ReturnStmt:
		if s.Value != nil {
			if err := g.expr(s.Value); err != nil {
				return err
			}
		}
		g.emitf("  jmp %s", g.epilogue)
		return nil

	case *ast.IfStmt:
		return g.ifStmt(s)

	case *ast.WhileStmt:
		return g.whileStmt(s)

	case *ast.ForStmt:
		return g.forStmt(s)

	default:
		return fmt.Errorf("cannot generate code for %T", stmt)
	}
}

func (g *Generator) ifStmt(s *ast.IfStmt) error {
	elseLabel := g.newLabel()
	endLabel := elseLabel
	if s.Else != nil {
		endLabel = g.newLabel()
	}

	if err := g.expr(s.Cond); err != nil {
		return err
	}
	g.emitf("  cmp $0, %%rax")
	g.emitf("  je %s", elseLabel)

	if err := g.stmt(s.Then); err != nil {
		return err
	}
	if s.Else != nil {
		g.emitf("  jmp %s", endLabel)
		g.emitf("%s:", elseLabel)
		if err := g.stmt(s.Else); err != nil {
			return err
		}
	}
	g.emitf("%s:", endLabel)
	return nil
}

func (g *Generator) whileStmt(s *ast.WhileStmt) error {
	condLabel := g.newLabel()
	endLabel := g.newLabel()

	g.emitf("%s:", condLabel)
	if err := g.expr(s.Cond); err != nil {
		return err
	}
	g.emitf("  cmp $0, %%rax")
	g.emitf("  je %s", endLabel)

	if err := g.stmt(s.Body); err != nil {
		return err
	}
	g.emitf("  jmp %s", condLabel)
	g.emitf("%s:", endLabel)
	return nil
}

func (g *Generator) forStmt(s *ast.ForStmt) error {
	condLabel := g.newLabel()
	endLabel := g.newLabel()

	if s.Init != nil {
		if err := g.stmt(s.Init); err != nil {
			return err
		}
	}
	g.emitf("%s:", condLabel)
	if s.Cond != nil {
		if err := g.expr(s.Cond); err != nil {
			return err
		}
		g.emitf("  cmp $0, %%rax")
		g.emitf("  je %s", endLabel)
	}
	if err := g.stmt(s.Body); err != nil {
		return err
	}
	if s.Post != nil {
		if err := g.expr(s.Post); err != nil {
			return err
		}
	}
	g.emitf("  jmp %s", condLabel)
	g.emitf("%s:", endLabel)
	return nil
}

// expr evaluates an expression into %rax.
func (g *Generator) expr(expr ast.Expr) error {
	switch e := expr.(type) {
	case *ast.IntLiteral:
		g.emitf("  mov $%d, %%rax", e.Value)
		return nil

	case *ast.FloatLiteral:
		g.emitf("  mov $%d, %%rax", int64(e.Value))
		return nil

	case *ast.CharLiteral:
		g.emitf("  mov $%d, %%rax", e.Value)
		return nil

	case *ast.StringLiteral:
		g.emitf("  lea %s(%%rip), %%rax", g.stringLabel(e.Value))
		return nil

	case *ast.Identifier:
		g.load(g.info.SymbolOf(e), "%rax")
		return nil

	case *ast.UnaryExpr:
		return g.unary(e)

	case *ast.BinaryExpr:
		return g.binary(e)

	case *ast.AssignExpr:
		return g.assign(e)

	case *ast.CallExpr:
		return g.call(e)

	default:
		return fmt.Errorf("cannot generate code for %T", expr)
	}
}

func (g *Generator) unary(e *ast.UnaryExpr) error {
	switch e.Operator.Type {
	case lexer.TokenMinus:
		if err := g.expr(e.Operand); err != nil {
			return err
		}
		g.emitf("  neg %%rax")
		return nil

	case lexer.TokenNot:
		if err := g.expr(e.Operand); err != nil {
			return err
		}
		g.emitf("  cmp $0, %%rax")
		g.emitf("  sete %%al")
		g.emitf("  movzbq %%al, %%rax")
		return nil

	case lexer.TokenPlusPlus, lexer.TokenMinusMinus:
		return g.incDec(e)

	default:
		return fmt.Errorf("cannot generate code for unary %q", e.Operator.Lexeme)
	}
}

// incDec emits ++ and --. Prefix yields the new value, postfix the old.
func (g *Generator) incDec(e *ast.UnaryExpr) error {
	ident, ok := e.Operand.(*ast.Identifier)
	if !ok {
		return fmt.Errorf("%s: operand of %q is not a variable",
			e.Pos(), e.Operator.Lexeme)
	}
	sym := g.info.SymbolOf(ident)
	target := g.operandFor(sym)

	op := "incq"
	if e.Operator.Type == lexer.TokenMinusMinus {
		op = "decq"
	}

	if e.Postfix {
		g.load(sym, "%rax")
		g.emitf("  %s %s", op, target)
	} else {
		g.emitf("  %s %s", op, target)
		g.load(sym, "%rax")
	}
	return nil
}

func (g *Generator) binary(e *ast.BinaryExpr) error {
	switch e.Operator.Type {
	case lexer.TokenAnd:
		return g.logicalAnd(e)
	case lexer.TokenOr:
		return g.logicalOr(e)
	}

	if err := g.expr(e.Left); err != nil {
		return err
	}
	g.push("%rax")
	if err := g.expr(e.Right); err != nil {
		return err
	}
	g.emitf("  mov %%rax, %%r11")
	g.pop("%rax")

	return g.applyBinary(e.Operator)
}

// applyBinary combines %rax (left) and %r11 (right) into %rax.
func (g *Generator) applyBinary(op lexer.Token) error {
	switch op.Type {
	case lexer.TokenPlus:
		g.emitf("  add %%r11, %%rax")
	case lexer.TokenMinus:
		g.emitf("  sub %%r11, %%rax")
	case lexer.TokenStar:
		g.emitf("  imul %%r11, %%rax")
	case lexer.TokenSlash:
		g.divide(false)
	case lexer.TokenPercent:
		g.divide(true)
	case lexer.TokenEqual:
		g.compare("sete")
	case lexer.TokenNotEqual:
		g.compare("setne")
	case lexer.TokenLess:
		g.compare("setl")
	case lexer.TokenLessEqual:
		g.compare("setle")
	case lexer.TokenGreater:
		g.compare("setg")
	case lexer.TokenGreaterEqual:
		g.compare("setge")
	default:
		return fmt.Errorf("cannot generate code for operator %q", op.Lexeme)
	}
	return nil
}

// divide emits signed division of %rax by %r11. idiv clobbers %rdx, which
// may hold a parameter, so it is preserved around the instruction.
func (g *Generator) divide(remainder bool) {
	g.push("%rdx")
	g.emitf("  cqto")
	g.emitf("  idiv %%r11")
	if remainder {
		g.emitf("  mov %%rdx, %%rax")
	}
	g.pop("%rdx")
}

func (g *Generator) compare(setcc string) {
	g.emitf("  cmp %%r11, %%rax")
	g.emitf("  %s %%al", setcc)
	g.emitf("  movzbq %%al, %%rax")
}

func (g *Generator) logicalAnd(e *ast.BinaryExpr) error {
	falseLabel := g.newLabel()
	endLabel := g.newLabel()

	if err := g.expr(e.Left); err != nil {
		return err
	}
	g.emitf("  cmp $0, %%rax")
	g.emitf("  je %s", falseLabel)
	if err := g.expr(e.Right); err != nil {
		return err
	}
	g.emitf("  cmp $0, %%rax")
	g.emitf("  je %s", falseLabel)
	g.emitf("  mov $1, %%rax")
	g.emitf("  jmp %s", endLabel)
	g.emitf("%s:", falseLabel)
	g.emitf("  mov $0, %%rax")
	g.emitf("%s:", endLabel)
	return nil
}

func (g *Generator) logicalOr(e *ast.BinaryExpr) error {
	trueLabel := g.newLabel()
	endLabel := g.newLabel()

	if err := g.expr(e.Left); err != nil {
		return err
	}
	g.emitf("  cmp $0, %%rax")
	g.emitf("  jne %s", trueLabel)
	if err := g.expr(e.Right); err != nil {
		return err
	}
	g.emitf("  cmp $0, %%rax")
	g.emitf("  jne %s", trueLabel)
	g.emitf("  mov $0, %%rax")
	g.emitf("  jmp %s", endLabel)
	g.emitf("%s:", trueLabel)
	g.emitf("  mov $1, %%rax")
	g.emitf("%s:", endLabel)
	return nil
}

func (g *Generator) assign(e *ast.AssignExpr) error {
	ident, ok := e.Target.(*ast.Identifier)
	if !ok {
		return fmt.Errorf("%s: assignment target is not a variable", e.Pos())
	}
	sym := g.info.SymbolOf(ident)

	if err := g.expr(e.Value); err != nil {
		return err
	}

	if e.Operator.Type == lexer.TokenAssign {
		g.store("%rax", sym)
		return nil
	}

	// Compound assignment: stage the value in %r11, reload the target,
	// apply the underlying operator, store back.
	g.emitf("  mov %%rax, %%r11")
	g.load(sym, "%rax")
	if err := g.applyBinary(compoundBase(e.Operator)); err != nil {
		return err
	}
	g.store("%rax", sym)
	return nil
}

// compoundBase maps a compound assignment operator to its underlying
// binary operator token.
func compoundBase(op lexer.Token) lexer.Token {
	base := op
	switch op.Type {
	case lexer.TokenPlusEq:
		base.Type = lexer.TokenPlus
	case lexer.TokenMinusEq:
		base.Type = lexer.TokenMinus
	case lexer.TokenStarEq:
		base.Type = lexer.TokenStar
	case lexer.TokenSlashEq:
		base.Type = lexer.TokenSlash
	case lexer.TokenPercentEq:
		base.Type = lexer.TokenPercent
	}
	return base
}

func (g *Generator) call(e *ast.CallExpr) error {
	ident := e.Callee.(*ast.Identifier)
	callee := g.info.SymbolOf(ident)
	variadic := callee != nil && callee.Variadic

	if len(e.Args) > len(argRegisters) {
		return fmt.Errorf("%s: call to %q with more than %d arguments not supported",
			e.Pos(), ident.Name, len(argRegisters))
	}

	// Evaluate arguments left to right onto the stack.
	for _, arg := range e.Args {
		if err := g.expr(arg); err != nil {
			return err
		}
		g.push("%rax")
	}

	// Save parameters living in caller-saved registers. Saving after
	// argument evaluation keeps argument side effects on parameters.
	saves := g.alloc.CallerSavedInUse
	for _, reg := range saves {
		g.push(reg)
	}

	pad := 0
	if g.pushDepth%2 == 1 {
		pad = 1
		g.emitf("  sub $8, %%rsp")
		g.pushDepth++
	}

	// Load arguments straight from their stack slots; they sit below the
	// saves and the padding.
	n := len(e.Args)
	for i := 0; i < n; i++ {
		offset := 8 * (pad + len(saves) + (n - 1 - i))
		if offset == 0 {
			g.emitf("  mov (%%rsp), %s", argRegisters[i])
		} else {
			g.emitf("  mov %d(%%rsp), %s", offset, argRegisters[i])
		}
	}

	if variadic {
		// Variadic call with no vector arguments.
		g.emitf("  mov $0, %%eax")
	}
	g.emitf("  call %s", ident.Name)

	if pad == 1 {
		g.emitf("  add $8, %%rsp")
		g.pushDepth--
	}
	for i := len(saves) - 1; i >= 0; i-- {
		g.pop(saves[i])
	}
	if n > 0 {
		g.emitf("  add $%d, %%rsp", 8*n)
		g.pushDepth -= n
	}
	return nil
}

// load copies a variable into reg.
func (g *Generator) load(sym *symtab.Symbol, reg string) {
	g.emitf("  mov %s, %s", g.operandFor(sym), reg)
}

// store copies reg into a variable.
func (g *Generator) store(reg string, sym *symtab.Symbol) {
	g.emitf("  mov %s, %s", reg, g.operandFor(sym))
}

// operandFor renders a variable reference: globals are %rip-relative,
// locals come from the allocation.
func (g *Generator) operandFor(sym *symtab.Symbol) string {
	if sym == nil {
		return "$0" // unresolved after earlier errors; never assembled
	}
	if sym.IsGlobal() {
		return sym.Name + "(%rip)"
	}
	return g.alloc.Locations[sym].Operand()
}

func (g *Generator) push(reg string) {
	g.emitf("  push %s", reg)
	g.pushDepth++
}

func (g *Generator) pop(reg string) {
	g.emitf("  pop %s", reg)
	g.pushDepth--
}

func (g *Generator) stringLabel(s string) string {
	if i, ok := g.stringIdx[s]; ok {
		return fmt.Sprintf(".LC%d", i)
	}
	i := len(g.strings)
	g.strings = append(g.strings, s)
	g.stringIdx[s] = i
	return fmt.Sprintf(".LC%d", i)
}

func (g *Generator) newLabel() string {
	g.labelSeq++
	return fmt.Sprintf(".L%d", g.labelSeq)
}

func (g *Generator) emitf(format string, args ...interface{}) {
	fmt.Fprintf(&g.out, format, args...)
	g.out.WriteByte('\n')
}

func (g *Generator) raw(s string) {
	g.out.WriteString(s)
}

// asQuoted renders a string literal for the assembler, re-escaping the
// control characters the lexer unescaped.
func asQuoted(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
