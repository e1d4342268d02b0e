package diag

import (
	"testing"

	"github.com/hassan/cc64/internal/lexer"
)

func at(line, column int) lexer.Position {
	return lexer.Position{Filename: "test.c", Line: line, Column: column}
}

func TestBag_ZeroValueUsable(t *testing.T) {
	var bag Bag
	if bag.HasErrors() || bag.Len() != 0 {
		t.Fatalf("zero bag reports contents")
	}
	bag.Warningf(at(1, 1), "suspicious")
	if bag.HasErrors() {
		t.Error("warnings must not count as errors")
	}
	bag.Errorf(at(2, 1), "broken")
	if !bag.HasErrors() {
		t.Error("error not seen")
	}
	if bag.Len() != 2 {
		t.Errorf("Len = %d, want 2", bag.Len())
	}
}

func TestBag_SortedByPositionErrorsFirst(t *testing.T) {
	var bag Bag
	bag.Warningf(at(3, 1), "third")
	bag.Errorf(at(1, 5), "second")
	bag.Errorf(at(1, 2), "first")
	bag.Warningf(at(1, 5), "warning at same spot")

	sorted := bag.Sorted()
	want := []string{"first", "second", "warning at same spot", "third"}
	for i, msg := range want {
		if sorted[i].Message != msg {
			t.Errorf("sorted[%d] = %q, want %q", i, sorted[i].Message, msg)
		}
	}
	// Sorted must not reorder the bag itself.
	if bag.All()[0].Message != "third" {
		t.Error("All() order changed by Sorted()")
	}
}

func TestBag_Merge(t *testing.T) {
	var a, b Bag
	a.Warningf(at(1, 1), "from a")
	b.Errorf(at(2, 1), "from b")
	a.Merge(&b)
	if a.Len() != 2 || !a.HasErrors() {
		t.Errorf("merge lost diagnostics: %v", a.All())
	}
}

func TestDiagnostic_String(t *testing.T) {
	tests := []struct {
		name string
		d    Diagnostic
		want string
	}{
		{
			"error with position",
			Diagnostic{Severity: Error, Message: "undeclared identifier", Pos: at(4, 7)},
			"test.c:4:7: error: undeclared identifier",
		},
		{
			"warning without position",
			Diagnostic{Severity: Warning, Message: "odd"},
			"warning: odd",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
