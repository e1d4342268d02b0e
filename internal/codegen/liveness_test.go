package codegen

import (
	"testing"
)

// intervalsByName runs liveness on the named function and indexes the
// resulting intervals by variable name.
func intervalsByName(t *testing.T, src, fn string) map[string]Interval {
	t.Helper()
	program, info := analyzeSource(t, src)
	lv, err := AnalyzeLiveness(funcNamed(t, program, fn), info)
	if err != nil {
		t.Fatalf("AnalyzeLiveness: %v", err)
	}
	out := make(map[string]Interval)
	for _, iv := range lv.Intervals() {
		out[iv.Sym.Name] = iv
	}
	return out
}

func wantInterval(t *testing.T, ivs map[string]Interval, name string, start, end int) {
	t.Helper()
	iv, ok := ivs[name]
	if !ok {
		t.Fatalf("no interval for %q, have %v", name, ivs)
	}
	if iv.Start != start || iv.End != end {
		t.Errorf("%s: interval [%d,%d], want [%d,%d]", name, iv.Start, iv.End, start, end)
	}
}

func TestLiveness_StraightLine(t *testing.T) {
	ivs := intervalsByName(t, `
int f(int a) {
	int x = a + 1;
	int y = x + 2;
	return x + y;
}
`, "f")
	wantInterval(t, ivs, "a", 0, 0)
	wantInterval(t, ivs, "x", 0, 2)
	wantInterval(t, ivs, "y", 1, 2)
}

func TestLiveness_ParamsStartAtZero(t *testing.T) {
	ivs := intervalsByName(t, `
int f(int a, int b) {
	int pad = 1;
	return a + b + pad;
}
`, "f")
	// Parameters are defined by the call, before the body runs, even
	// though their first use is later.
	wantInterval(t, ivs, "a", 0, 1)
	wantInterval(t, ivs, "b", 0, 1)
}

func TestLiveness_UseAfterSkippedBranch(t *testing.T) {
	ivs := intervalsByName(t, `
int f(int a) {
	int t = a * 2;
	if (a) {
		return 1;
	}
	return t;
}
`, "f")
	// t is read only when the then-branch is skipped; the interval must
	// reach that use through the condition's false edge.
	wantInterval(t, ivs, "t", 0, 3)
}

func TestLiveness_ElseBranchEdge(t *testing.T) {
	ivs := intervalsByName(t, `
int f(int a) {
	int u = a + 1;
	int v = a + 2;
	if (a) {
		return u;
	} else {
		return v;
	}
}
`, "f")
	// v is live across the then-arm it never executes.
	wantInterval(t, ivs, "v", 1, 4)
	wantInterval(t, ivs, "u", 0, 3)
}

func TestLiveness_LoopVariableCoversBody(t *testing.T) {
	ivs := intervalsByName(t, `
int f(int n) {
	int s = 0;
	int i = 0;
	while (i < n) {
		s = s + i;
		i = i + 1;
	}
	return s;
}
`, "f")
	// Without a modeled back edge the interval still spans the loop:
	// first definition before it, last use inside or after it.
	wantInterval(t, ivs, "s", 0, 5)
	wantInterval(t, ivs, "i", 1, 4)
	wantInterval(t, ivs, "n", 0, 2)
}

func TestLiveness_ForLoop(t *testing.T) {
	ivs := intervalsByName(t, `
int f(int n) {
	int s = 0;
	for (int i = 0; i < n; i++) {
		s = s + i;
	}
	return s;
}
`, "f")
	wantInterval(t, ivs, "s", 0, 5)
	wantInterval(t, ivs, "i", 1, 4)
}

func TestLiveness_PointCount(t *testing.T) {
	program, info := analyzeSource(t, `
int f(int a) {
	int x = 1;
	if (a) {
		x = 2;
	}
	return x;
}
`)
	lv, err := AnalyzeLiveness(funcNamed(t, program, "f"), info)
	if err != nil {
		t.Fatalf("AnalyzeLiveness: %v", err)
	}
	// decl, condition, then-assignment, return
	if got := lv.Points(); got != 4 {
		t.Errorf("Points() = %d, want 4", got)
	}
}

func TestLiveness_GlobalsIgnored(t *testing.T) {
	ivs := intervalsByName(t, `
int g = 1;
int f() {
	g = g + 1;
	return g;
}
`, "f")
	if _, ok := ivs["g"]; ok {
		t.Errorf("global g must not get a live interval, have %v", ivs)
	}
}

func TestLiveness_NestedLoopsConverge(t *testing.T) {
	program, info := analyzeSource(t, `
int f(int n) {
	int total = 0;
	for (int i = 0; i < n; i++) {
		for (int j = 0; j < n; j++) {
			while (total < 100) {
				total = total + i + j;
			}
		}
	}
	return total;
}
`)
	if _, err := AnalyzeLiveness(funcNamed(t, program, "f"), info); err != nil {
		t.Fatalf("AnalyzeLiveness: %v", err)
	}
}

func TestLiveness_CompoundAssignmentReadsTarget(t *testing.T) {
	ivs := intervalsByName(t, `
int f(int a) {
	int x = a;
	x += 1;
	x += 2;
	return 0;
}
`, "f")
	// The final += still reads x, so the interval extends to it even
	// though the value is then dead.
	wantInterval(t, ivs, "x", 0, 2)
}
