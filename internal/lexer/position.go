// Package lexer provides lexical analysis (tokenization) for the C subset.
// It transforms raw source text into a stream of tokens that can be consumed
// by the parser.
package lexer

// Position represents a location in the source code.
//
// DESIGN CHOICE: Position is a value type (not a pointer) because:
// 1. It's small and immutable once created
// 2. Copying is cheap and avoids pointer chasing
// 3. No need for nil state - invalid positions can use zero values
//
// Position tracking is critical for:
// - Error reporting: users need to know exactly where errors occur
// - Diagnostics: every diagnostic record carries a line and column
type Position struct {
	// Filename is the name of the source file.
	// We store this in every Position rather than using a file ID because:
	// - It makes error messages self-contained and easier to read
	// - Memory overhead is acceptable (strings in Go are just pointers + length)
	Filename string

	// Line is the 1-based line number.
	// We use 1-based indexing because:
	// - It matches how text editors display line numbers
	// - Zero value (0) can represent "no line" or invalid position
	Line int

	// Column is the 1-based column number (character position in the line).
	Column int

	// Offset is the 0-based byte offset from the start of the file.
	// Used for fast slicing into the source and for ordering positions.
	Offset int
}

// String returns a human-readable representation of the position.
// Format: "filename:line:column"
// Example: "main.c:42:15"
//
// DESIGN CHOICE: We follow the GCC/Clang format (file:line:column) because:
// - It's widely recognized and understood
// - Many tools (editors, CI systems) can parse this format and create clickable links
func (p Position) String() string {
	return p.Filename + ":" + itoa(p.Line) + ":" + itoa(p.Column)
}

// IsValid returns true if the position is valid (has a non-zero line number).
func (p Position) IsValid() bool {
	return p.Line > 0
}

// Before returns true if this position comes before the other position.
// Positions are compared by offset: offset is the source of truth,
// line/column are derived from it.
func (p Position) Before(other Position) bool {
	return p.Offset < other.Offset
}

// After returns true if this position comes after the other position.
func (p Position) After(other Position) bool {
	return p.Offset > other.Offset
}

// itoa is a simple integer to ASCII conversion.
// Implemented locally to avoid pulling strconv into the hot path of
// Position.String, which is called for every diagnostic.
func itoa(n int) string {
	if n == 0 {
		return "0"
	}

	negative := false
	if n < 0 {
		negative = true
		n = -n
	}

	buf := make([]byte, 0, 12)
	for n > 0 {
		buf = append(buf, byte('0'+n%10))
		n /= 10
	}

	if negative {
		buf = append(buf, '-')
	}

	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}

	return string(buf)
}

// Span represents a range in the source code from Start to End (inclusive).
//
// We use this for:
// - Error reporting: highlighting the entire problematic token/expression
// - Tests that assert on exact token extents
type Span struct {
	Start Position
	End   Position
}

// String returns a human-readable representation of the span.
// Format: "filename:startLine:startCol-endLine:endCol", collapsed to
// "filename:line:col1-col2" when both ends are on the same line.
func (s Span) String() string {
	if s.Start.Line == s.End.Line {
		return s.Start.Filename + ":" + itoa(s.Start.Line) + ":" +
			itoa(s.Start.Column) + "-" + itoa(s.End.Column)
	}
	return s.Start.String() + "-" + itoa(s.End.Line) + ":" + itoa(s.End.Column)
}

// IsValid returns true if the span is valid (both positions are valid and ordered correctly).
func (s Span) IsValid() bool {
	return s.Start.IsValid() && s.End.IsValid() && !s.End.Before(s.Start)
}

// Contains returns true if the given position is within this span (inclusive).
func (s Span) Contains(pos Position) bool {
	return !pos.Before(s.Start) && !pos.After(s.End)
}

// Length returns the number of bytes covered by this span.
func (s Span) Length() int {
	if !s.IsValid() {
		return 0
	}
	return s.End.Offset - s.Start.Offset
}
