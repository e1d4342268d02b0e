// Package semantic implements semantic analysis for the compiler.
//
// SEMANTIC ANALYSIS:
// After parsing, we have a syntactically correct AST, but it might not be
// semantically valid. Semantic analysis checks:
// 1. Name resolution - are all names declared before use?
// 2. Type checking - do operations use compatible types?
// 3. Signatures - do calls and returns match declarations?
//
// DESIGN PHILOSOPHY:
//   - Collect every problem into a diag.Bag, don't stop at the first one
//   - Traverse the AST with exhaustive type switches
//   - Annotate types and resolved symbols in a separate Info record, leaving
//     the AST untouched
//
// PASSES:
// Analysis runs in two passes over the top level. The first pass declares
// every global variable and function signature; the second pass checks
// function bodies and initializers. This lets a function call another one
// that is defined later in the file, as C programmers expect when they
// write prototypes.
package semantic

import (
	"github.com/hassan/cc64/internal/diag"
	"github.com/hassan/cc64/internal/lexer"
	"github.com/hassan/cc64/internal/parser/ast"
	"github.com/hassan/cc64/internal/symtab"
	"github.com/hassan/cc64/internal/types"
)

// Info holds the results of analysis that later phases consume.
type Info struct {
	// Types maps every checked expression to its type.
	Types map[ast.Expr]types.CType

	// Uses maps every identifier to the symbol it resolved to.
	Uses map[*ast.Identifier]*symtab.Symbol

	// Decls maps each declaration node to the symbol it introduced.
	Decls map[ast.Node]*symtab.Symbol

	// Table is the completed symbol table. Its global scope lists every
	// top-level name, including the printf builtin.
	Table *symtab.Table
}

// TypeOf returns the recorded type of expr, or Invalid if it was never
// checked (which only happens after parse errors).
func (info *Info) TypeOf(expr ast.Expr) types.CType {
	if t, ok := info.Types[expr]; ok {
		return t
	}
	return types.Invalid
}

// SymbolOf returns the symbol an identifier resolved to, or nil.
func (info *Info) SymbolOf(ident *ast.Identifier) *symtab.Symbol {
	return info.Uses[ident]
}

// Analyzer performs semantic analysis on an AST.
type Analyzer struct {
	table *symtab.Table
	info  *Info
	bag   diag.Bag
}

// New creates an analyzer with a fresh symbol table containing the
// builtins.
func New() *Analyzer {
	a := &Analyzer{
		table: symtab.NewTable(),
		info: &Info{
			Types: make(map[ast.Expr]types.CType),
			Uses:  make(map[*ast.Identifier]*symtab.Symbol),
			Decls: make(map[ast.Node]*symtab.Symbol),
		},
	}
	a.info.Table = a.table
	a.declareBuiltins()
	return a
}

// declareBuiltins installs the functions every program may call without
// declaring. printf is the only one: it takes a format string and any
// number of further arguments.
func (a *Analyzer) declareBuiltins() {
	printf := &symtab.Symbol{
		Name:     "printf",
		Kind:     symtab.SymbolFunction,
		Type:     types.Int,
		Params:   []types.CType{types.String},
		Variadic: true,
		Defined:  true,
		Used:     true, // never warn about an unused builtin
	}
	// The global scope is empty here, so Define cannot fail.
	_ = a.table.Define(printf)
}

// Analyze checks the whole program and returns the collected annotations
// and diagnostics. The Info is usable even when errors were found; callers
// must check the bag before generating code.
func (a *Analyzer) Analyze(program *ast.Program) (*Info, *diag.Bag) {
	// Pass 1: declare all top-level names so bodies can refer to
	// declarations that appear later in the file.
	for _, decl := range program.Decls {
		a.declareTopLevel(decl)
	}

	// Pass 2: check initializers and bodies.
	for _, decl := range program.Decls {
		switch d := decl.(type) {
		case *ast.VariableDecl:
			a.checkGlobalInit(d)
		case *ast.FunctionDecl:
			a.checkFunctionBody(d)
		}
	}

	a.warnUnused(a.table.Global())
	return a.info, &a.bag
}

// declareTopLevel enters decl into the global scope.
func (a *Analyzer) declareTopLevel(decl ast.Decl) {
	switch d := decl.(type) {
	case *ast.VariableDecl:
		ty := a.resolveType(d.TypeName, d.Pos())
		if ty.IsVoid() {
			a.bag.Errorf(d.Pos(), "variable %q declared void", d.Name)
			ty = types.Invalid
		}
		sym := &symtab.Symbol{
			Name: d.Name,
			Kind: symtab.SymbolVariable,
			Type: ty,
			Pos:  d.Pos(),
		}
		if err := a.table.Define(sym); err != nil {
			a.bag.Errorf(d.Pos(), "%s", err)
			return
		}
		a.info.Decls[d] = sym

	case *ast.FunctionDecl:
		a.declareFunction(d)
	}
}

// declareFunction handles the prototype/definition dance: a name may be
// declared any number of times as a prototype, and defined exactly once,
// as long as every appearance agrees on the signature.
func (a *Analyzer) declareFunction(d *ast.FunctionDecl) {
	retType := a.resolveType(d.ReturnType, d.Pos())
	paramTypes := make([]types.CType, len(d.Params))
	for i, p := range d.Params {
		paramTypes[i] = a.resolveType(p.TypeName, p.Position)
		if paramTypes[i].IsVoid() {
			a.bag.Errorf(p.Position, "parameter %q declared void", p.Name)
			paramTypes[i] = types.Invalid
		}
	}

	if existing := a.table.Global().LookupLocal(d.Name); existing != nil {
		if !existing.IsFunction() {
			a.bag.Errorf(d.Pos(), "%q redeclared as a function; previous declaration at %s",
				d.Name, existing.Pos)
			return
		}
		if !signaturesMatch(existing, retType, paramTypes) {
			a.bag.Errorf(d.Pos(), "conflicting declaration of %q; previous declaration at %s",
				d.Name, existing.Pos)
			return
		}
		if d.IsDefinition() {
			if existing.Defined {
				a.bag.Errorf(d.Pos(), "function %q redefined; previous definition at %s",
					d.Name, existing.Pos)
				return
			}
			existing.Defined = true
			existing.Pos = d.Pos()
		}
		a.info.Decls[d] = existing
		return
	}

	sym := &symtab.Symbol{
		Name:    d.Name,
		Kind:    symtab.SymbolFunction,
		Type:    retType,
		Params:  paramTypes,
		Pos:     d.Pos(),
		Defined: d.IsDefinition(),
	}
	if err := a.table.Define(sym); err != nil {
		a.bag.Errorf(d.Pos(), "%s", err)
		return
	}
	a.info.Decls[d] = sym
}

func signaturesMatch(sym *symtab.Symbol, retType types.CType, params []types.CType) bool {
	if sym.Type != retType || len(sym.Params) != len(params) {
		return false
	}
	for i, p := range params {
		if sym.Params[i] != p {
			return false
		}
	}
	return true
}

// checkGlobalInit checks a global variable's initializer. Globals live in
// the data section, so the initializer must be a constant literal.
func (a *Analyzer) checkGlobalInit(d *ast.VariableDecl) {
	sym := a.info.Decls[d]
	if sym == nil || d.Init == nil {
		return
	}

	initType := a.checkExpr(d.Init)
	lit := d.Init
	if u, ok := lit.(*ast.UnaryExpr); ok && u.Operator.Type == lexer.TokenMinus {
		lit = u.Operand
	}
	switch lit.(type) {
	case *ast.IntLiteral, *ast.FloatLiteral, *ast.CharLiteral:
		// constant, fine
	default:
		a.bag.Errorf(d.Init.Pos(), "initializer for global %q must be a constant", d.Name)
		return
	}
	if !types.AssignableTo(initType, sym.Type) {
		a.bag.Errorf(d.Init.Pos(), "cannot initialize %s %q with %s", sym.Type, d.Name, initType)
	}
}

// checkFunctionBody checks a function definition: parameters go into the
// function scope, then the body statements are checked against them.
func (a *Analyzer) checkFunctionBody(d *ast.FunctionDecl) {
	sym := a.info.Decls[d]
	if sym == nil || !d.IsDefinition() {
		return
	}

	defer a.table.EnterFunction(sym)()

	for i, p := range d.Params {
		param := &symtab.Symbol{
			Name: p.Name,
			Kind: symtab.SymbolParameter,
			Type: sym.Params[i],
			Pos:  p.Position,
		}
		if err := a.table.Define(param); err != nil {
			a.bag.Errorf(p.Position, "%s", err)
			continue
		}
		a.info.Decls[p] = param
	}

	// The body shares the function scope, so locals at the top of the
	// body may not collide with parameters.
	for _, stmt := range d.Body.Statements {
		a.checkStmt(stmt)
	}

	a.warnUnused(a.table.Current())
}

// checkStmt checks one statement. The switch is exhaustive over the
// statement kinds the parser can produce.
func (a *Analyzer) checkStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.CompoundStmt:
		defer a.table.Enter(symtab.ScopeBlock)()
		for _, inner := range s.Statements {
			a.checkStmt(inner)
		}
		a.warnUnused(a.table.Current())

	case *ast.VariableDecl:
		a.checkLocalDecl(s)

	case *ast.ExprStmt:
		a.checkExpr(s.Expression)

	case *ast.ReturnStmt:
		a.checkReturn(s)

	case *ast.IfStmt:
		a.checkCondition(s.Cond, "if")
		a.checkStmt(s.Then)
		if s.Else != nil {
			a.checkStmt(s.Else)
		}

	case *ast.WhileStmt:
		a.checkCondition(s.Cond, "while")
		a.checkStmt(s.Body)

	case *ast.ForStmt:
		// The header clauses and body share one scope, so a variable
		// declared in the init clause is visible throughout the loop.
		defer a.table.Enter(symtab.ScopeBlock)()
		if s.Init != nil {
			a.checkStmt(s.Init)
		}
		if s.Cond != nil {
			a.checkCondition(s.Cond, "for")
		}
		if s.Post != nil {
			a.checkExpr(s.Post)
		}
		a.checkStmt(s.Body)
		a.warnUnused(a.table.Current())

	case *ast.FunctionDecl:
		// The parser rejects nested functions; reaching here means the
		// switch is out of sync with the AST.
		a.bag.Errorf(s.Pos(), "unexpected nested function %q", s.Name)

	default:
		a.bag.Errorf(stmt.Pos(), "unhandled statement kind %T", stmt)
	}
}

func (a *Analyzer) checkLocalDecl(d *ast.VariableDecl) {
	ty := a.resolveType(d.TypeName, d.Pos())
	if ty.IsVoid() {
		a.bag.Errorf(d.Pos(), "variable %q declared void", d.Name)
		ty = types.Invalid
	}

	// Check the initializer before defining the name: "int x = x;" must
	// resolve the right-hand x to an outer declaration, or fail.
	var initType types.CType
	if d.Init != nil {
		initType = a.checkExpr(d.Init)
	}

	sym := &symtab.Symbol{
		Name: d.Name,
		Kind: symtab.SymbolVariable,
		Type: ty,
		Pos:  d.Pos(),
	}
	if err := a.table.Define(sym); err != nil {
		a.bag.Errorf(d.Pos(), "%s", err)
		return
	}
	a.info.Decls[d] = sym

	if d.Init != nil && !types.AssignableTo(initType, ty) {
		a.bag.Errorf(d.Init.Pos(), "cannot initialize %s %q with %s", ty, d.Name, initType)
	}
}

func (a *Analyzer) checkReturn(s *ast.ReturnStmt) {
	fn := a.table.EnclosingFunction()
	if fn == nil {
		a.bag.Errorf(s.Pos(), "return outside of a function")
		if s.Value != nil {
			a.checkExpr(s.Value)
		}
		return
	}

	if s.Value == nil {
		if !fn.Type.IsVoid() {
			a.bag.Errorf(s.Pos(), "return with no value in function %q returning %s",
				fn.Name, fn.Type)
		}
		return
	}

	valueType := a.checkExpr(s.Value)
	if fn.Type.IsVoid() {
		a.bag.Errorf(s.Value.Pos(), "return with a value in void function %q", fn.Name)
		return
	}
	if !types.AssignableTo(valueType, fn.Type) {
		a.bag.Errorf(s.Value.Pos(), "cannot return %s from function %q returning %s",
			valueType, fn.Name, fn.Type)
	}
}

// checkCondition checks a control-flow condition, which must be numeric:
// any nonzero value is truthy, as in C.
func (a *Analyzer) checkCondition(cond ast.Expr, context string) {
	ty := a.checkExpr(cond)
	if !ty.IsNumeric() && !ty.IsInvalid() {
		a.bag.Errorf(cond.Pos(), "%s condition has non-numeric type %s", context, ty)
	}
}

// resolveType maps a type keyword to its type, diagnosing unknown names.
// The parser only produces known keywords, so the error path guards
// against future drift.
func (a *Analyzer) resolveType(name string, pos lexer.Position) types.CType {
	ty, ok := types.FromName(name)
	if !ok {
		a.bag.Errorf(pos, "unknown type %q", name)
		return types.Invalid
	}
	return ty
}

// warnUnused reports variables and parameters in scope that were never
// referenced. Functions are exempt: an unused helper is normal.
func (a *Analyzer) warnUnused(scope *symtab.Scope) {
	for _, sym := range scope.Names() {
		if sym.Used || sym.IsFunction() {
			continue
		}
		a.bag.Warningf(sym.Pos, "%s %q declared but not used", sym.Kind, sym.Name)
	}
}
