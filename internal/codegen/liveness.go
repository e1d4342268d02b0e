package codegen

import (
	"sort"

	"github.com/hassan/cc64/internal/lexer"
	"github.com/hassan/cc64/internal/parser/ast"
	"github.com/hassan/cc64/internal/semantic"
	"github.com/hassan/cc64/internal/symtab"
)

// Live-variable analysis for one function.
//
// The function body is linearized into a sequence of numbered points, one
// per statement-level action (a declaration, an expression statement, a
// condition test, a loop post clause, a return). Each point records which
// variables it defines and which it uses, plus its successor points.
//
// Control flow is modeled at the granularity the allocator needs: an if
// condition branches to both arms, the end of a then-arm skips the else
// arm. Loop conditions branch to the body and past the loop; the backward
// edge from a body to its condition is deliberately not modeled, which
// makes every interval a single contiguous range. A variable used across
// iterations is still handled correctly because its first definition sits
// before the loop and its last use inside it, so the interval covers the
// whole loop anyway.
//
// The classic backward dataflow equations apply:
//
//	out[p] = union of in[s] for every successor s
//	in[p]  = use[p] union (out[p] minus def[p])
//
// Iterated to a fixpoint, capped so a bug here surfaces as an
// AllocatorInternalError instead of a hang.

// point is one node of the linearized body.
type point struct {
	defs   map[*symtab.Symbol]bool
	uses   map[*symtab.Symbol]bool
	extra  []int // successors besides fallthrough
	noFall bool  // true when control never falls to the next point
}

// Liveness holds the analysis result: live-in and live-out sets per point.
type Liveness struct {
	points  []*point
	LiveIn  []map[*symtab.Symbol]bool
	LiveOut []map[*symtab.Symbol]bool

	params []*symtab.Symbol
}

// Interval is the live range of one variable in point numbering.
type Interval struct {
	Sym   *symtab.Symbol
	Start int
	End   int
}

// AnalyzeLiveness linearizes fn's body and solves the dataflow equations.
func AnalyzeLiveness(fn *ast.FunctionDecl, info *semantic.Info) (*Liveness, error) {
	b := &livenessBuilder{info: info}
	for _, stmt := range fn.Body.Statements {
		b.stmt(stmt)
	}

	lv := &Liveness{points: b.points}
	for _, p := range fn.Params {
		if sym := info.Decls[p]; sym != nil {
			lv.params = append(lv.params, sym)
		}
	}

	if err := lv.solve(fn.Name); err != nil {
		return nil, err
	}
	return lv, nil
}

// solve runs the backward fixpoint. Without loop back-edges one pass in
// reverse order converges; the cap guards against the equations ever
// failing to settle.
func (lv *Liveness) solve(fnName string) error {
	n := len(lv.points)
	lv.LiveIn = make([]map[*symtab.Symbol]bool, n)
	lv.LiveOut = make([]map[*symtab.Symbol]bool, n)
	for i := range lv.points {
		lv.LiveIn[i] = make(map[*symtab.Symbol]bool)
		lv.LiveOut[i] = make(map[*symtab.Symbol]bool)
	}

	maxRounds := 2*n + 4
	for round := 0; ; round++ {
		if round >= maxRounds {
			return &AllocatorInternalError{
				Function: fnName,
				Reason:   "liveness analysis did not converge",
			}
		}

		changed := false
		for i := n - 1; i >= 0; i-- {
			p := lv.points[i]

			out := lv.LiveOut[i]
			for _, s := range lv.successors(i) {
				for sym := range lv.LiveIn[s] {
					if !out[sym] {
						out[sym] = true
						changed = true
					}
				}
			}

			in := lv.LiveIn[i]
			for sym := range p.uses {
				if !in[sym] {
					in[sym] = true
					changed = true
				}
			}
			for sym := range out {
				if !p.defs[sym] && !in[sym] {
					in[sym] = true
					changed = true
				}
			}
		}

		if !changed {
			return nil
		}
	}
}

// successors lists the in-range successor points of i. An index past the
// end means "function exit" and contributes nothing.
func (lv *Liveness) successors(i int) []int {
	var succs []int
	p := lv.points[i]
	if !p.noFall && i+1 < len(lv.points) {
		succs = append(succs, i+1)
	}
	for _, s := range p.extra {
		if s < len(lv.points) {
			succs = append(succs, s)
		}
	}
	return succs
}

// Intervals derives one contiguous live range per variable, sorted by
// start point (ties by name for determinism). Parameters start at point
// zero: they are defined by the call itself, before the body runs.
func (lv *Liveness) Intervals() []Interval {
	start := make(map[*symtab.Symbol]int)
	end := make(map[*symtab.Symbol]int)

	note := func(sym *symtab.Symbol, i int) {
		if _, ok := start[sym]; !ok {
			start[sym] = i
			end[sym] = i
			return
		}
		if i < start[sym] {
			start[sym] = i
		}
		if i > end[sym] {
			end[sym] = i
		}
	}

	for _, sym := range lv.params {
		note(sym, 0)
	}
	for i, p := range lv.points {
		for sym := range p.defs {
			note(sym, i)
		}
		for sym := range p.uses {
			note(sym, i)
		}
		for sym := range lv.LiveOut[i] {
			note(sym, i)
		}
	}

	intervals := make([]Interval, 0, len(start))
	for sym, s := range start {
		intervals = append(intervals, Interval{Sym: sym, Start: s, End: end[sym]})
	}
	sort.Slice(intervals, func(i, j int) bool {
		if intervals[i].Start != intervals[j].Start {
			return intervals[i].Start < intervals[j].Start
		}
		return intervals[i].Sym.Name < intervals[j].Sym.Name
	})
	return intervals
}

// Points returns the number of linearized points, for tests.
func (lv *Liveness) Points() int { return len(lv.points) }

// livenessBuilder linearizes statements into points.
type livenessBuilder struct {
	info   *semantic.Info
	points []*point
}

// add appends a fresh point and returns its index.
func (b *livenessBuilder) add() int {
	b.points = append(b.points, &point{
		defs: make(map[*symtab.Symbol]bool),
		uses: make(map[*symtab.Symbol]bool),
	})
	return len(b.points) - 1
}

func (b *livenessBuilder) stmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.CompoundStmt:
		for _, inner := range s.Statements {
			b.stmt(inner)
		}

	case *ast.VariableDecl:
		i := b.add()
		sym := b.info.Decls[s]
		if s.Init != nil {
			b.collect(s.Init, i)
		}
		if sym != nil && !sym.IsGlobal() {
			b.points[i].defs[sym] = true
		}

	case *ast.ExprStmt:
		i := b.add()
		b.collect(s.Expression, i)

	case *ast.ReturnStmt:
		i := b.add()
		if s.Value != nil {
			b.collect(s.Value, i)
		}
		b.points[i].noFall = true

	case *ast.IfStmt:
		c := b.add()
		b.collect(s.Cond, c)

		thenStart := len(b.points)
		b.stmt(s.Then)
		thenEnd := len(b.points) - 1

		if s.Else == nil {
			// condition false jumps past the then arm
			b.points[c].extra = append(b.points[c].extra, len(b.points))
			return
		}

		elseStart := len(b.points)
		b.points[c].extra = append(b.points[c].extra, elseStart)
		b.stmt(s.Else)
		after := len(b.points)

		// the then arm jumps over the else arm
		if thenEnd >= thenStart {
			last := b.points[thenEnd]
			if !last.noFall {
				last.noFall = true
				last.extra = append(last.extra, after)
			}
		}

	case *ast.WhileStmt:
		c := b.add()
		b.collect(s.Cond, c)
		b.stmt(s.Body)
		// condition false exits the loop; the body-to-condition back
		// edge is not modeled, see the package comment above
		b.points[c].extra = append(b.points[c].extra, len(b.points))

	case *ast.ForStmt:
		if s.Init != nil {
			b.stmt(s.Init)
		}
		c := -1
		if s.Cond != nil {
			c = b.add()
			b.collect(s.Cond, c)
		}
		b.stmt(s.Body)
		if s.Post != nil {
			i := b.add()
			b.collect(s.Post, i)
		}
		if c >= 0 {
			b.points[c].extra = append(b.points[c].extra, len(b.points))
		}
	}
}

// collect records the defs and uses of an expression at point i.
func (b *livenessBuilder) collect(expr ast.Expr, i int) {
	p := b.points[i]
	b.walk(expr, func(sym *symtab.Symbol, isDef, isUse bool) {
		if sym.IsGlobal() {
			return // globals live in memory, not in the allocator's world
		}
		if isUse {
			p.uses[sym] = true
		}
		if isDef {
			p.defs[sym] = true
		}
	})
}

// walk visits every variable occurrence in expr. The callback receives
// whether the occurrence writes the variable, reads it, or both.
func (b *livenessBuilder) walk(expr ast.Expr, visit func(sym *symtab.Symbol, isDef, isUse bool)) {
	switch e := expr.(type) {
	case *ast.Identifier:
		if sym := b.info.SymbolOf(e); sym != nil && !sym.IsFunction() {
			visit(sym, false, true)
		}

	case *ast.BinaryExpr:
		b.walk(e.Left, visit)
		b.walk(e.Right, visit)

	case *ast.UnaryExpr:
		if e.Operator.Type == lexer.TokenPlusPlus || e.Operator.Type == lexer.TokenMinusMinus {
			if ident, ok := e.Operand.(*ast.Identifier); ok {
				if sym := b.info.SymbolOf(ident); sym != nil {
					visit(sym, true, true)
				}
				return
			}
		}
		b.walk(e.Operand, visit)

	case *ast.AssignExpr:
		b.walk(e.Value, visit)
		if ident, ok := e.Target.(*ast.Identifier); ok {
			if sym := b.info.SymbolOf(ident); sym != nil {
				// compound assignment reads the target first
				isUse := e.Operator.Type != lexer.TokenAssign
				visit(sym, true, isUse)
			}
		}

	case *ast.CallExpr:
		for _, arg := range e.Args {
			b.walk(arg, visit)
		}
	}
}
