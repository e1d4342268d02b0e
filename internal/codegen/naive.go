package codegen

import (
	"fmt"

	"github.com/hassan/cc64/internal/parser/ast"
	"github.com/hassan/cc64/internal/semantic"
	"github.com/hassan/cc64/internal/symtab"
)

// NaiveAllocator gives every parameter and local its own stack slot.
//
// The prologue copies incoming argument registers into their slots, and
// from then on every access goes through memory. The generated code is
// slow but trivially correct: nothing lives in a caller-saved register,
// so calls clobber nothing, and there is no interference to reason about.
// It exists as the baseline the linear-scan allocator is measured against
// and as the fallback when the fancier allocator misbehaves.
type NaiveAllocator struct{}

func (a *NaiveAllocator) Name() string { return "naive" }

func (a *NaiveAllocator) Allocate(fn *ast.FunctionDecl, info *semantic.Info) (*AllocationResult, error) {
	result := &AllocationResult{
		Locations: make(map[*symtab.Symbol]Location),
	}
	if fn.Body == nil {
		return result, nil
	}

	if len(fn.Params) > len(argRegisters) {
		return nil, fmt.Errorf("function %q: more than %d parameters not supported",
			fn.Name, len(argRegisters))
	}

	offset := 0
	place := func(sym *symtab.Symbol) {
		offset -= 8
		result.Locations[sym] = Location{Kind: LocStack, Offset: offset}
	}

	for _, p := range fn.Params {
		sym := info.Decls[p]
		if sym == nil {
			return nil, &AllocatorInternalError{
				Function: fn.Name,
				Reason:   fmt.Sprintf("parameter %q has no symbol", p.Name),
			}
		}
		place(sym)
	}

	for _, sym := range localDecls(fn.Body, info) {
		place(sym)
	}

	result.FrameSize = alignFrame(-offset)
	return result, nil
}

// localDecls lists the symbols of every variable declared anywhere in the
// body, in source order. Shadowed variables are distinct symbols and get
// distinct slots.
func localDecls(body *ast.CompoundStmt, info *semantic.Info) []*symtab.Symbol {
	var out []*symtab.Symbol
	var walk func(stmt ast.Stmt)
	walk = func(stmt ast.Stmt) {
		switch s := stmt.(type) {
		case *ast.CompoundStmt:
			for _, inner := range s.Statements {
				walk(inner)
			}
		case *ast.VariableDecl:
			if sym := info.Decls[s]; sym != nil {
				out = append(out, sym)
			}
		case *ast.IfStmt:
			walk(s.Then)
			if s.Else != nil {
				walk(s.Else)
			}
		case *ast.WhileStmt:
			walk(s.Body)
		case *ast.ForStmt:
			if s.Init != nil {
				walk(s.Init)
			}
			walk(s.Body)
		}
	}
	walk(body)
	return out
}
