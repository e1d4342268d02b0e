package codegen

import (
	"fmt"

	"github.com/hassan/cc64/internal/parser/ast"
	"github.com/hassan/cc64/internal/semantic"
	"github.com/hassan/cc64/internal/symtab"
)

// LinearScan places variables by scanning live intervals in start order.
//
// ALGORITHM (Poletto & Sarkar):
//  1. Parameters are pre-assigned to their System V argument registers and
//     keep them for the whole function.
//  2. Remaining intervals are visited in order of start point. Intervals
//     that ended before the current start release their registers.
//  3. A free pool register is taken when available. Otherwise the active
//     interval that ends furthest in the future surrenders: if that is the
//     current interval itself, it goes straight to the stack; if it is an
//     older interval, the old one moves to the stack and the current one
//     takes its register. Ending furthest means blocking the pool longest,
//     so evicting it frees the most future pressure.
//  4. Every spill gets a fresh 8-byte slot. Slots are never reused, so
//     offsets grow monotonically and two variables never alias.
//
// Placement is decided entirely before emission; a variable has a single
// home for the whole function, so no fixup code is needed at the point a
// register changes hands.
type LinearScan struct{}

func (a *LinearScan) Name() string { return "linearscan" }

func (a *LinearScan) Allocate(fn *ast.FunctionDecl, info *semantic.Info) (*AllocationResult, error) {
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

	params := make(map[*symtab.Symbol]bool)
	for i, p := range fn.Params {
		sym := info.Decls[p]
		if sym == nil {
			return nil, &AllocatorInternalError{
				Function: fn.Name,
				Reason:   fmt.Sprintf("parameter %q has no symbol", p.Name),
			}
		}
		result.Locations[sym] = Location{Kind: LocRegister, Reg: argRegisters[i]}
		result.CallerSavedInUse = append(result.CallerSavedInUse, argRegisters[i])
		params[sym] = true
	}

	liveness, err := AnalyzeLiveness(fn, info)
	if err != nil {
		return nil, err
	}

	type activeEntry struct {
		interval Interval
		reg      string
	}
	var active []activeEntry
	nextOffset := 0

	freshSlot := func() Location {
		nextOffset -= 8
		result.Spills++
		return Location{Kind: LocStack, Offset: nextOffset}
	}

	inUse := func() map[string]bool {
		used := make(map[string]bool, len(active))
		for _, a := range active {
			used[a.reg] = true
		}
		return used
	}

	for _, current := range liveness.Intervals() {
		if params[current.Sym] {
			continue
		}

		// Expire intervals that ended before this one starts.
		live := active[:0]
		for _, a := range active {
			if a.interval.End >= current.Start {
				live = append(live, a)
			}
		}
		active = live

		// Take a free pool register when one exists.
		used := inUse()
		assigned := ""
		for _, reg := range poolRegisters {
			if !used[reg] {
				assigned = reg
				break
			}
		}
		if assigned != "" {
			result.Locations[current.Sym] = Location{Kind: LocRegister, Reg: assigned}
			active = append(active, activeEntry{interval: current, reg: assigned})
			continue
		}

		// Pool exhausted: the furthest-ending interval goes to the stack.
		victim := -1
		for i := range active {
			if victim < 0 || active[i].interval.End > active[victim].interval.End {
				victim = i
			}
		}
		if victim >= 0 && active[victim].interval.End > current.End {
			// Steal the victim's register; the victim lives in memory.
			result.Locations[current.Sym] = Location{Kind: LocRegister, Reg: active[victim].reg}
			result.Locations[active[victim].interval.Sym] = freshSlot()
			active[victim] = activeEntry{interval: current, reg: active[victim].reg}
		} else {
			result.Locations[current.Sym] = freshSlot()
		}
	}

	result.FrameSize = alignFrame(-nextOffset)
	result.UsedCalleeSaved = usedPoolRegisters(result.Locations)

	// The prologue pushes the callee-saved registers right below the saved
	// %rbp, so -8(%rbp) through -8*len(saved)(%rbp) belong to them. Shift
	// every spill slot below that save area.
	if bias := 8 * len(result.UsedCalleeSaved); bias > 0 {
		for sym, loc := range result.Locations {
			if loc.Kind == LocStack {
				loc.Offset -= bias
				result.Locations[sym] = loc
			}
		}
	}
	return result, nil
}

// usedPoolRegisters lists the pool registers appearing in locations, in
// the pool's fixed order so prologue and epilogue agree.
func usedPoolRegisters(locations map[*symtab.Symbol]Location) []string {
	used := make(map[string]bool)
	for _, loc := range locations {
		if loc.Kind == LocRegister {
			used[loc.Reg] = true
		}
	}
	var out []string
	for _, reg := range poolRegisters {
		if used[reg] {
			out = append(out, reg)
		}
	}
	return out
}
