// Package diag collects structured compiler diagnostics.
//
// Phases record problems into a Bag instead of printing them, so callers
// decide how (and whether) to render them. A diagnostic is a plain record:
// severity, message, and the source position it refers to.
package diag

import (
	"fmt"
	"sort"

	"github.com/hassan/cc64/internal/lexer"
)

// Severity classifies a diagnostic.
type Severity int

const (
	// Warning marks code that is suspicious but does not stop compilation.
	Warning Severity = iota
	// Error marks code that prevents assembly from being produced.
	Error
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Diagnostic is a single reported problem.
type Diagnostic struct {
	Severity Severity
	Message  string
	Pos      lexer.Position
}

// String formats the diagnostic as "file:line:col: severity: message".
func (d Diagnostic) String() string {
	if d.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s", d.Pos, d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Severity, d.Message)
}

// Bag accumulates diagnostics across a compilation phase.
// The zero value is ready to use.
type Bag struct {
	diags []Diagnostic
}

// Errorf records an error at pos.
func (b *Bag) Errorf(pos lexer.Position, format string, args ...interface{}) {
	b.diags = append(b.diags, Diagnostic{
		Severity: Error,
		Message:  fmt.Sprintf(format, args...),
		Pos:      pos,
	})
}

// Warningf records a warning at pos.
func (b *Bag) Warningf(pos lexer.Position, format string, args ...interface{}) {
	b.diags = append(b.diags, Diagnostic{
		Severity: Warning,
		Message:  fmt.Sprintf(format, args...),
		Pos:      pos,
	})
}

// Add appends an already-built diagnostic.
func (b *Bag) Add(d Diagnostic) {
	b.diags = append(b.diags, d)
}

// Merge appends all diagnostics from other.
func (b *Bag) Merge(other *Bag) {
	b.diags = append(b.diags, other.diags...)
}

// HasErrors reports whether any error-severity diagnostic was recorded.
func (b *Bag) HasErrors() bool {
	for _, d := range b.diags {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Len returns the number of recorded diagnostics.
func (b *Bag) Len() int { return len(b.diags) }

// All returns the recorded diagnostics in insertion order.
func (b *Bag) All() []Diagnostic { return b.diags }

// Sorted returns the diagnostics ordered by source position, with errors
// before warnings at the same position. Insertion order breaks remaining
// ties, so the sort is stable.
func (b *Bag) Sorted() []Diagnostic {
	out := make([]Diagnostic, len(b.diags))
	copy(out, b.diags)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Pos.Line != out[j].Pos.Line {
			return out[i].Pos.Line < out[j].Pos.Line
		}
		if out[i].Pos.Column != out[j].Pos.Column {
			return out[i].Pos.Column < out[j].Pos.Column
		}
		return out[i].Severity > out[j].Severity
	})
	return out
}
