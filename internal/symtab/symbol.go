// Package symtab implements symbol table management for name resolution
// and scoping.
//
// The symbol table tracks all named entities (variables, parameters, and
// functions) and their scopes. The semantic analyzer uses it to:
// 1. Resolve names to their declarations
// 2. Detect redeclarations and undefined names
// 3. Support nested scopes with shadowing
//
// KEY DESIGN CHOICES:
//   - Lexical scoping: inner scopes shadow outer scopes.
//   - One Symbol struct for every kind. The function-only fields sit unused
//     on variables; the simplicity is worth a few empty fields.
//   - Scope entry and exit are paired through a closure, so a forgotten exit
//     is impossible to write: defer table.Enter(kind)() and the scope closes
//     when the enclosing analysis function returns.
package symtab

import (
	"github.com/hassan/cc64/internal/lexer"
	"github.com/hassan/cc64/internal/types"
)

// SymbolKind represents the kind of symbol.
type SymbolKind int

const (
	// SymbolVariable is a global or local variable.
	SymbolVariable SymbolKind = iota

	// SymbolParameter is a function parameter. Distinguished from
	// variables because parameters arrive in registers and get clearer
	// error messages.
	SymbolParameter

	// SymbolFunction is a function prototype or definition.
	SymbolFunction
)

// String returns a human-readable representation of the symbol kind.
func (sk SymbolKind) String() string {
	switch sk {
	case SymbolVariable:
		return "variable"
	case SymbolParameter:
		return "parameter"
	case SymbolFunction:
		return "function"
	default:
		return "unknown"
	}
}

// Symbol represents a named entity in the program.
type Symbol struct {
	// Name is the symbol's identifier.
	Name string

	// Kind is what kind of symbol this is.
	Kind SymbolKind

	// Type is the variable's type, or the function's return type.
	Type types.CType

	// Pos is where this symbol was declared, for error messages
	// ("x already declared at line 10").
	Pos lexer.Position

	// Scope is the scope where this symbol was declared.
	Scope *Scope

	// Used tracks whether this symbol has been referenced, which feeds
	// unused-variable warnings.
	Used bool

	// Function-only fields.

	// Params holds the declared parameter types, in order.
	Params []types.CType

	// Defined reports whether a body has been seen. A prototype leaves
	// this false until (unless) the definition arrives.
	Defined bool

	// Variadic marks functions that accept any arguments after the
	// declared ones. Only the printf builtin sets this.
	Variadic bool
}

// IsFunction reports whether the symbol names a function.
func (s *Symbol) IsFunction() bool { return s.Kind == SymbolFunction }

// IsGlobal reports whether the symbol was declared at file scope.
func (s *Symbol) IsGlobal() bool {
	return s.Scope != nil && s.Scope.Kind == ScopeGlobal
}

// MarkUsed records that the symbol has been referenced.
func (s *Symbol) MarkUsed() { s.Used = true }
