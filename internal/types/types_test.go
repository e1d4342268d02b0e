package types

import "testing"

func TestFromName(t *testing.T) {
	tests := []struct {
		name string
		want CType
		ok   bool
	}{
		{"void", Void, true},
		{"char", Char, true},
		{"int", Int, true},
		{"float", Float, true},
		{"double", Double, true},
		{"long", Invalid, false},
		{"", Invalid, false},
	}

	for _, tt := range tests {
		got, ok := FromName(tt.name)
		if got != tt.want || ok != tt.ok {
			t.Errorf("FromName(%q) = %v, %v; want %v, %v", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}

func TestPromote(t *testing.T) {
	tests := []struct {
		a, b, want CType
	}{
		{Int, Int, Int},
		{Int, Float, Float},
		{Float, Int, Float},
		{Float, Double, Double},
		{Char, Char, Int},
		{Char, Int, Int},
		{Char, Double, Double},
		{Int, Void, Invalid},
		{Void, Void, Invalid},
		{Invalid, Int, Invalid},
	}

	for _, tt := range tests {
		if got := Promote(tt.a, tt.b); got != tt.want {
			t.Errorf("Promote(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestCompatible(t *testing.T) {
	if !Compatible(Int, Float) {
		t.Error("int and float must be compatible")
	}
	if !Compatible(Char, Double) {
		t.Error("char and double must be compatible")
	}
	if Compatible(Void, Int) {
		t.Error("void is compatible with nothing")
	}
	if Compatible(Invalid, Int) {
		t.Error("invalid is compatible with nothing")
	}
}

func TestAssignableTo(t *testing.T) {
	if !AssignableTo(Int, Float) {
		t.Error("int must be assignable to float")
	}
	if !AssignableTo(Double, Char) {
		t.Error("numeric narrowing assignment is allowed")
	}
	if AssignableTo(Void, Int) {
		t.Error("void is not assignable anywhere")
	}
	if !AssignableTo(Invalid, Int) {
		t.Error("invalid assigns quietly to avoid cascading diagnostics")
	}
}

func TestPredicates(t *testing.T) {
	if !Float.IsFloating() || !Double.IsFloating() {
		t.Error("float and double are floating")
	}
	if Int.IsFloating() {
		t.Error("int is not floating")
	}
	if !Char.IsIntegral() || !Int.IsIntegral() {
		t.Error("char and int are integral")
	}
	if !Void.IsVoid() || Int.IsVoid() {
		t.Error("IsVoid misclassifies")
	}
	for _, ty := range []CType{Char, Int, Float, Double} {
		if !ty.IsNumeric() {
			t.Errorf("%v must be numeric", ty)
		}
	}
	if Void.IsNumeric() || Invalid.IsNumeric() {
		t.Error("void and invalid are not numeric")
	}
}
