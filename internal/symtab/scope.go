package symtab

import (
	"fmt"
)

// ScopeKind represents the kind of scope.
type ScopeKind int

const (
	// ScopeGlobal is the file-level scope.
	ScopeGlobal ScopeKind = iota

	// ScopeFunction is a function's outermost scope, holding its
	// parameters and top-level locals.
	ScopeFunction

	// ScopeBlock is a nested block scope, including loop bodies.
	ScopeBlock
)

// String returns a human-readable representation of the scope kind.
func (sk ScopeKind) String() string {
	switch sk {
	case ScopeGlobal:
		return "global"
	case ScopeFunction:
		return "function"
	case ScopeBlock:
		return "block"
	default:
		return "unknown"
	}
}

// Scope represents a lexical scope in the program.
//
// Scopes form a tree through parent pointers: inner scopes can see names
// from outer scopes, and a name declared in an inner scope shadows the
// same name outside.
type Scope struct {
	// Kind is the kind of scope.
	Kind ScopeKind

	// Parent is the enclosing scope (nil for the global scope).
	Parent *Scope

	// Symbols maps names declared directly in this scope.
	Symbols map[string]*Symbol

	// Function is the function whose body this scope sits in (nil at
	// file level). Return statements check their value against it.
	Function *Symbol

	// Depth is the nesting depth: 0 for global, 1 for a function body.
	Depth int

	// order remembers declaration order for Names.
	order []string
}

// NewScope creates a new scope nested in parent. A ScopeFunction scope
// resets the enclosing function, which the caller sets afterwards; other
// kinds inherit it.
func NewScope(kind ScopeKind, parent *Scope) *Scope {
	scope := &Scope{
		Kind:    kind,
		Parent:  parent,
		Symbols: make(map[string]*Symbol),
	}
	if parent != nil {
		scope.Depth = parent.Depth + 1
		if kind != ScopeFunction {
			scope.Function = parent.Function
		}
	}
	return scope
}

// Define adds a symbol to this scope.
//
// Shadowing an outer scope's name is fine; redeclaring a name in the same
// scope is an error. The caller turns the error into a diagnostic.
func (s *Scope) Define(symbol *Symbol) error {
	if existing, ok := s.Symbols[symbol.Name]; ok {
		return fmt.Errorf("%s %q already declared at %s",
			existing.Kind, symbol.Name, existing.Pos)
	}
	s.Symbols[symbol.Name] = symbol
	s.order = append(s.order, symbol.Name)
	symbol.Scope = s
	return nil
}

// Lookup finds a symbol by name in this scope or any enclosing scope,
// innermost first. Returns nil when the name is undeclared.
func (s *Scope) Lookup(name string) *Symbol {
	for scope := s; scope != nil; scope = scope.Parent {
		if symbol, ok := scope.Symbols[name]; ok {
			return symbol
		}
	}
	return nil
}

// LookupLocal finds a symbol declared directly in this scope, ignoring
// enclosing scopes. Used to detect same-scope redeclaration.
func (s *Scope) LookupLocal(name string) *Symbol {
	return s.Symbols[name]
}

// Names returns the symbols declared in this scope, in declaration order.
func (s *Scope) Names() []*Symbol {
	out := make([]*Symbol, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.Symbols[name])
	}
	return out
}

// Table tracks the current scope during a traversal of the AST.
//
// The zero value is not usable; call NewTable, which creates the global
// scope.
type Table struct {
	global  *Scope
	current *Scope
}

// NewTable creates a table positioned at a fresh global scope.
func NewTable() *Table {
	global := NewScope(ScopeGlobal, nil)
	return &Table{global: global, current: global}
}

// Global returns the file-level scope.
func (t *Table) Global() *Scope { return t.global }

// Current returns the innermost open scope.
func (t *Table) Current() *Scope { return t.current }

// Enter opens a new scope of the given kind and returns the function that
// closes it. The intended shape is
//
//	defer t.Enter(ScopeBlock)()
//
// which guarantees entries and exits stay balanced no matter how the
// traversal returns.
func (t *Table) Enter(kind ScopeKind) func() {
	entered := NewScope(kind, t.current)
	t.current = entered
	return func() {
		if t.current != entered {
			panic("symtab: scope exited out of order")
		}
		t.current = entered.Parent
	}
}

// EnterFunction opens a function scope bound to fn and returns its closer.
func (t *Table) EnterFunction(fn *Symbol) func() {
	exit := t.Enter(ScopeFunction)
	t.current.Function = fn
	return exit
}

// Define adds a symbol to the innermost open scope.
func (t *Table) Define(symbol *Symbol) error {
	return t.current.Define(symbol)
}

// Lookup resolves a name starting from the innermost open scope.
func (t *Table) Lookup(name string) *Symbol {
	return t.current.Lookup(name)
}

// EnclosingFunction returns the function whose body is being traversed,
// or nil at file level.
func (t *Table) EnclosingFunction() *Symbol {
	return t.current.Function
}
