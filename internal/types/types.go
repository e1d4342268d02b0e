// Package types implements the type system for the compiler.
//
// The language has exactly five types: void, char, int, float, and double.
// There are no pointers, arrays, structs, or typedefs, so a type is a small
// value record rather than an interface hierarchy. Two types are the same
// type exactly when their names are equal.
//
// KEY DESIGN CHOICES:
//   - CType is a comparable value, not a pointer. Types are interned as
//     package-level values (Int, Float, ...) and compared with ==.
//   - All numeric types are mutually compatible: mixed arithmetic promotes
//     rather than erroring, matching C's usual arithmetic conversions for
//     this subset.
//   - Sizes are what the code generator allocates. Every value lives in a
//     64-bit slot at runtime, but declared sizes still follow C so that
//     diagnostics read naturally.
package types

// CType describes one of the language's primitive types.
type CType struct {
	// Name is the type as written in source: "int", "float", ...
	Name string

	// Size is the declared size in bytes.
	Size int

	// Signed reports whether the type holds signed values. It is false
	// only for void, which holds no values at all.
	Signed bool
}

// The language's complete type universe.
var (
	Void   = CType{Name: "void", Size: 0, Signed: false}
	Char   = CType{Name: "char", Size: 1, Signed: true}
	Int    = CType{Name: "int", Size: 4, Signed: true}
	Float  = CType{Name: "float", Size: 4, Signed: true}
	Double = CType{Name: "double", Size: 8, Signed: true}

	// String is the type of string literals. The language has no string
	// variables; a literal exists only to be passed to printf, so String
	// is neither numeric nor assignable.
	String = CType{Name: "char *", Size: 8, Signed: false}

	// Invalid is the recovery type produced when checking fails. It never
	// matches any real type, so one bad expression does not cascade into
	// spurious errors about everything that touches it.
	Invalid = CType{Name: "<invalid>", Size: 0, Signed: false}
)

func (t CType) String() string { return t.Name }

// IsVoid reports whether t is the void type.
func (t CType) IsVoid() bool { return t == Void }

// IsInvalid reports whether t is the error-recovery type.
func (t CType) IsInvalid() bool { return t == Invalid }

// IsNumeric reports whether t participates in arithmetic.
func (t CType) IsNumeric() bool {
	switch t {
	case Char, Int, Float, Double:
		return true
	}
	return false
}

// IsFloating reports whether t is a floating-point type.
func (t CType) IsFloating() bool { return t == Float || t == Double }

// IsIntegral reports whether t is an integer type.
func (t CType) IsIntegral() bool { return t == Char || t == Int }

// FromName resolves a type keyword to its type. The second result is false
// for names outside the type universe.
func FromName(name string) (CType, bool) {
	switch name {
	case "void":
		return Void, true
	case "char":
		return Char, true
	case "int":
		return Int, true
	case "float":
		return Float, true
	case "double":
		return Double, true
	}
	return Invalid, false
}

// rank orders the numeric types for promotion. A wider rank absorbs a
// narrower one in mixed arithmetic.
func rank(t CType) int {
	switch t {
	case Char:
		return 1
	case Int:
		return 2
	case Float:
		return 3
	case Double:
		return 4
	}
	return 0
}

// Compatible reports whether a and b may appear together in an arithmetic
// or comparison expression. Numeric types are pairwise compatible; void and
// invalid are compatible with nothing.
func Compatible(a, b CType) bool {
	return a.IsNumeric() && b.IsNumeric()
}

// Promote returns the result type of an arithmetic expression over a and b:
// the higher-ranked of the two, with integer results widened to int.
// Incompatible operands promote to Invalid.
func Promote(a, b CType) CType {
	if !Compatible(a, b) {
		return Invalid
	}
	wider := a
	if rank(b) > rank(a) {
		wider = b
	}
	// char arithmetic produces int, as in C
	if wider == Char {
		return Int
	}
	return wider
}

// AssignableTo reports whether a value of type src may be assigned to a
// location of type dst. Any numeric value converts implicitly to any
// numeric location; the conversion is inserted by the code generator.
func AssignableTo(src, dst CType) bool {
	if src.IsInvalid() || dst.IsInvalid() {
		// Already diagnosed elsewhere; stay quiet.
		return true
	}
	return src.IsNumeric() && dst.IsNumeric()
}
