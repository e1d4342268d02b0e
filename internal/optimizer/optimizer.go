// Package optimizer implements AST-level optimization passes.
//
// DESIGN PHILOSOPHY:
// Each optimization is a separate pass that can be:
// - Enabled/disabled independently
// - Tested in isolation
// - Composed with other passes
//
// Passes are pure transforms: a pass never mutates its input tree. It
// returns a rewritten tree (which may share unchanged subtrees with the
// input) together with the number of rewrites it performed. Purity makes
// the fixpoint driver trivial to reason about and lets tests run a pass
// twice over the same input.
//
// PASS ORDER:
//  1. Constant folding - reduces expressions, exposes literal conditions
//  2. Dead code elimination - removes unreachable statements and collapses
//     branches on the literals folding produced
//  3. Loop removal - drops loops whose condition is literally false
//
// Passes run in sequence until a full round changes nothing, capped at a
// fixed iteration budget so a misbehaving pass cannot spin forever.
package optimizer

import (
	"fmt"
	"strings"

	"github.com/hassan/cc64/internal/parser/ast"
)

// maxIterations caps fixpoint iteration. Each round either strictly
// shrinks the tree or stops, so real programs settle in two or three
// rounds; the cap is a guard rail, not a tuning knob.
const maxIterations = 10

// Pass is one optimization. Run returns the rewritten program and how
// many rewrites it made; zero means the pass found nothing to do.
type Pass interface {
	Name() string
	Run(program *ast.Program) (*ast.Program, int)
}

// Level selects how much optimization to apply.
type Level int

const (
	// LevelNone disables optimization entirely.
	LevelNone Level = iota

	// LevelBasic folds constants and removes dead code.
	LevelBasic

	// LevelAggressive additionally removes loops that can never run.
	LevelAggressive
)

// ParseLevel maps a command-line spelling to a Level.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "0", "none", "off":
		return LevelNone, nil
	case "1", "basic":
		return LevelBasic, nil
	case "2", "aggressive":
		return LevelAggressive, nil
	}
	return LevelNone, fmt.Errorf("unknown optimization level %q", s)
}

// Stats reports what an optimization run did.
type Stats struct {
	// Iterations is how many full rounds ran, including the final round
	// that changed nothing.
	Iterations int

	// Rewrites counts changes per pass name.
	Rewrites map[string]int
}

// Total returns the total number of rewrites across all passes.
func (s Stats) Total() int {
	total := 0
	for _, n := range s.Rewrites {
		total += n
	}
	return total
}

func (s Stats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d iterations, %d rewrites", s.Iterations, s.Total())
	for name, n := range s.Rewrites {
		if n > 0 {
			fmt.Fprintf(&b, "; %s: %d", name, n)
		}
	}
	return b.String()
}

// Optimizer coordinates the execution of optimization passes.
type Optimizer struct {
	passes []Pass
}

// New creates an optimizer configured for the given level.
func New(level Level) *Optimizer {
	o := &Optimizer{}
	switch level {
	case LevelNone:
		// no passes
	case LevelBasic:
		o.passes = []Pass{
			&ConstantFolding{},
			&DeadCodeElimination{},
		}
	case LevelAggressive:
		o.passes = []Pass{
			&ConstantFolding{},
			&DeadCodeElimination{},
			&LoopRemoval{},
		}
	}
	return o
}

// AddPass appends a custom pass to the pipeline.
func (o *Optimizer) AddPass(pass Pass) {
	o.passes = append(o.passes, pass)
}

// Optimize runs the configured passes to a fixpoint and returns the
// optimized program. The input program is not modified.
func (o *Optimizer) Optimize(program *ast.Program) (*ast.Program, Stats) {
	stats := Stats{Rewrites: make(map[string]int)}
	if len(o.passes) == 0 {
		return program, stats
	}

	current := program
	for stats.Iterations < maxIterations {
		stats.Iterations++
		changed := 0
		for _, pass := range o.passes {
			next, n := pass.Run(current)
			current = next
			changed += n
			stats.Rewrites[pass.Name()] += n
		}
		if changed == 0 {
			break
		}
	}
	return current, stats
}
