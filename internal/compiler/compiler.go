// Package compiler wires the phases into a single entry point: source
// text in, assembly text and diagnostics out.
//
// The pipeline is lex, parse, analyze, optimize, generate, peephole.
// Each phase returns structured diagnostics instead of printing;
// compilation succeeds exactly when no error-severity diagnostic was
// collected, and assembly is produced only on success.
package compiler

import (
	"fmt"

	"github.com/hassan/cc64/internal/codegen"
	"github.com/hassan/cc64/internal/diag"
	"github.com/hassan/cc64/internal/lexer"
	"github.com/hassan/cc64/internal/optimizer"
	"github.com/hassan/cc64/internal/parser"
	"github.com/hassan/cc64/internal/semantic"
)

// Allocator strategy names accepted in Options.Allocator.
const (
	AllocLinearScan = "linearscan"
	AllocNaive      = "naive"
)

// NewAllocator returns the allocator for a strategy name. The empty
// string selects linear scan.
func NewAllocator(name string) (codegen.Allocator, error) {
	switch name {
	case "", AllocLinearScan:
		return &codegen.LinearScan{}, nil
	case AllocNaive:
		return &codegen.NaiveAllocator{}, nil
	}
	return nil, fmt.Errorf("unknown allocator %q (want %s or %s)",
		name, AllocLinearScan, AllocNaive)
}

// Options configures one compilation. The zero value compiles without
// optimization using the linear-scan allocator.
type Options struct {
	// Level gates the AST passes and the peephole pass together.
	Level optimizer.Level

	// Allocator names the register allocation strategy; see the Alloc
	// constants. Selectable independently of Level.
	Allocator string
}

// Result is the outcome of one compilation.
type Result struct {
	// Assembly is the emitted text, empty when errors were found.
	Assembly string

	// Diagnostics lists everything the phases reported, in source
	// order with errors before warnings at the same position.
	Diagnostics []diag.Diagnostic

	// Stats describes what the AST optimizer did; zero when Level is
	// LevelNone or when errors stopped the pipeline first.
	Stats optimizer.Stats

	// PeepholeRewrites counts line rewrites in the emitted assembly.
	PeepholeRewrites int
}

// OK reports whether compilation succeeded: no error-severity
// diagnostics, regardless of how many warnings were collected.
func (r *Result) OK() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == diag.Error {
			return false
		}
	}
	return true
}

// Compile runs the whole pipeline over one source text. Source-level
// problems land in Result.Diagnostics; a non-nil error means the
// compiler itself failed (a bad option or an allocator bug), not the
// input.
func Compile(source, filename string, opts Options) (*Result, error) {
	alloc, err := NewAllocator(opts.Allocator)
	if err != nil {
		return nil, err
	}

	result := &Result{}

	program, parseBag := parser.New(lexer.New(source, filename)).Parse()
	info, semaBag := semantic.New().Analyze(program)

	var bag diag.Bag
	bag.Merge(parseBag)
	bag.Merge(semaBag)
	result.Diagnostics = bag.Sorted()
	if bag.HasErrors() {
		return result, nil
	}

	if opts.Level != optimizer.LevelNone {
		program, result.Stats = optimizer.New(opts.Level).Optimize(program)
		// Passes build fresh subtrees, so the analysis annotations no
		// longer cover the whole tree. Re-analyze the optimized program.
		// The input was well formed, so an error here means a pass broke
		// the tree, which is a compiler bug rather than a user mistake.
		var optBag *diag.Bag
		info, optBag = semantic.New().Analyze(program)
		if optBag.HasErrors() {
			for _, d := range optBag.Sorted() {
				if d.Severity == diag.Error {
					return nil, fmt.Errorf("optimizer produced an ill-formed program: %s", d)
				}
			}
		}
	}

	asm, err := codegen.Generate(program, info, alloc)
	if err != nil {
		return nil, err
	}
	if opts.Level != optimizer.LevelNone {
		asm, result.PeepholeRewrites = codegen.Peephole(asm)
	}

	result.Assembly = asm
	return result, nil
}
