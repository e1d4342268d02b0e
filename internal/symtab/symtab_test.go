package symtab

import (
	"testing"

	"github.com/hassan/cc64/internal/lexer"
	"github.com/hassan/cc64/internal/types"
)

func variable(name string, ty types.CType) *Symbol {
	return &Symbol{
		Name: name,
		Kind: SymbolVariable,
		Type: ty,
		Pos:  lexer.Position{Filename: "test.c", Line: 1, Column: 1},
	}
}

func TestScope_DefineAndLookup(t *testing.T) {
	global := NewScope(ScopeGlobal, nil)

	x := variable("x", types.Int)
	if err := global.Define(x); err != nil {
		t.Fatalf("Define(x) failed: %v", err)
	}

	if got := global.Lookup("x"); got != x {
		t.Errorf("Lookup(x) = %v, want the defined symbol", got)
	}
	if got := global.Lookup("y"); got != nil {
		t.Errorf("Lookup(y) = %v, want nil", got)
	}
	if x.Scope != global {
		t.Error("Define must record the owning scope")
	}
}

func TestScope_RedeclarationRejected(t *testing.T) {
	global := NewScope(ScopeGlobal, nil)

	if err := global.Define(variable("x", types.Int)); err != nil {
		t.Fatalf("first Define failed: %v", err)
	}
	err := global.Define(variable("x", types.Float))
	if err == nil {
		t.Fatal("same-scope redeclaration must fail")
	}
}

func TestScope_Shadowing(t *testing.T) {
	global := NewScope(ScopeGlobal, nil)
	inner := NewScope(ScopeBlock, global)

	outer := variable("x", types.Int)
	shadow := variable("x", types.Float)

	if err := global.Define(outer); err != nil {
		t.Fatal(err)
	}
	if err := inner.Define(shadow); err != nil {
		t.Fatalf("shadowing must be allowed: %v", err)
	}

	if got := inner.Lookup("x"); got != shadow {
		t.Error("inner lookup must find the shadowing symbol")
	}
	if got := global.Lookup("x"); got != outer {
		t.Error("outer lookup must find the original symbol")
	}
	if got := inner.LookupLocal("x"); got != shadow {
		t.Error("LookupLocal must find the local symbol")
	}
	if got := global.LookupLocal("y"); got != nil {
		t.Error("LookupLocal must not search parents")
	}
}

func TestScope_Names_DeclarationOrder(t *testing.T) {
	scope := NewScope(ScopeFunction, NewScope(ScopeGlobal, nil))
	for _, name := range []string{"c", "a", "b"} {
		if err := scope.Define(variable(name, types.Int)); err != nil {
			t.Fatal(err)
		}
	}

	names := scope.Names()
	want := []string{"c", "a", "b"}
	for i, sym := range names {
		if sym.Name != want[i] {
			t.Errorf("Names()[%d] = %s, want %s", i, sym.Name, want[i])
		}
	}
}

func TestTable_EnterExitBalanced(t *testing.T) {
	table := NewTable()
	if table.Current() != table.Global() {
		t.Fatal("a fresh table starts at the global scope")
	}

	exitFn := table.Enter(ScopeFunction)
	exitBlock := table.Enter(ScopeBlock)

	if table.Current().Depth != 2 {
		t.Errorf("depth = %d, want 2", table.Current().Depth)
	}

	exitBlock()
	exitFn()

	if table.Current() != table.Global() {
		t.Error("balanced exits must return to the global scope")
	}
}

func TestTable_OutOfOrderExitPanics(t *testing.T) {
	table := NewTable()
	exitOuter := table.Enter(ScopeBlock)
	table.Enter(ScopeBlock) // inner scope left open

	defer func() {
		if recover() == nil {
			t.Error("exiting an outer scope before its inner scope must panic")
		}
	}()
	exitOuter()
}

func TestTable_EnclosingFunction(t *testing.T) {
	table := NewTable()
	if table.EnclosingFunction() != nil {
		t.Error("no enclosing function at file level")
	}

	fn := &Symbol{Name: "main", Kind: SymbolFunction, Type: types.Int}
	exit := table.EnterFunction(fn)
	defer exit()

	if got := table.EnclosingFunction(); got != fn {
		t.Errorf("EnclosingFunction = %v, want main", got)
	}

	exitBlock := table.Enter(ScopeBlock)
	if got := table.EnclosingFunction(); got != fn {
		t.Error("nested blocks must inherit the enclosing function")
	}
	exitBlock()
}

func TestTable_ShadowingAcrossScopes(t *testing.T) {
	table := NewTable()
	if err := table.Define(variable("x", types.Int)); err != nil {
		t.Fatal(err)
	}

	exit := table.Enter(ScopeBlock)
	shadow := variable("x", types.Float)
	if err := table.Define(shadow); err != nil {
		t.Fatalf("shadowing across scopes must be allowed: %v", err)
	}
	if got := table.Lookup("x"); got != shadow {
		t.Error("lookup inside the block must find the shadow")
	}
	exit()

	if got := table.Lookup("x"); got == nil || got.Type != types.Int {
		t.Error("lookup after exit must find the outer symbol again")
	}
}
