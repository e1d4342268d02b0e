// Package codegen translates the analyzed AST into x86-64 assembly in
// AT&T syntax, ready for GNU as.
//
// REGISTER CONVENTIONS (System V AMD64):
//   - %rax is the expression accumulator and carries return values.
//   - %r10 and %r11 are reserved as emitter scratch: binary operators and
//     compound assignments stage their right-hand value in %r11. Neither
//     ever holds a variable.
//   - %rdi, %rsi, %rdx, %rcx, %r8, %r9 carry the first six arguments.
//     Under linear scan, parameters stay in these registers.
//   - %rbx, %r12-%r15 form the allocatable pool for locals. They are
//     callee-saved, so values parked there survive calls without spilling;
//     the prologue pushes whichever ones a function uses.
//   - %rdx is additionally clobbered by idiv, so division saves and
//     restores it around the instruction.
package codegen

import (
	"fmt"

	"github.com/hassan/cc64/internal/parser/ast"
	"github.com/hassan/cc64/internal/semantic"
	"github.com/hassan/cc64/internal/symtab"
)

// argRegisters carry the first six integer arguments, in order.
var argRegisters = [6]string{"%rdi", "%rsi", "%rdx", "%rcx", "%r8", "%r9"}

// poolRegisters is the allocatable pool for locals, all callee-saved.
var poolRegisters = [5]string{"%rbx", "%r12", "%r13", "%r14", "%r15"}

// LocationKind says where a variable lives for the whole function.
type LocationKind int

const (
	// LocRegister keeps the variable in one register for its lifetime.
	LocRegister LocationKind = iota

	// LocStack keeps the variable in a frame slot at Offset(%rbp).
	LocStack
)

// Location is a variable's home. A variable has exactly one home for the
// whole function; the allocator decides it before any code is emitted.
type Location struct {
	Kind   LocationKind
	Reg    string // valid for LocRegister
	Offset int    // valid for LocStack; negative, relative to %rbp
}

// Operand renders the location as an assembly operand.
func (l Location) Operand() string {
	if l.Kind == LocRegister {
		return l.Reg
	}
	return fmt.Sprintf("%d(%%rbp)", l.Offset)
}

func (l Location) String() string { return l.Operand() }

// AllocationResult is everything the emitter needs to know about one
// function's variables: where each one lives, how much frame to reserve,
// and which registers the prologue must preserve.
type AllocationResult struct {
	// Locations maps each local variable and parameter to its home.
	Locations map[*symtab.Symbol]Location

	// FrameSize is the stack space to reserve below %rbp, already
	// aligned to 16 bytes.
	FrameSize int

	// UsedCalleeSaved lists the pool registers holding variables, in
	// push order. The prologue pushes them, the epilogue pops them.
	UsedCalleeSaved []string

	// CallerSavedInUse lists the argument registers holding parameters,
	// in a fixed order. The emitter preserves them across calls.
	CallerSavedInUse []string

	// Spills counts variables that wanted a register but got a slot.
	Spills int
}

// Allocator decides variable placement for one function.
type Allocator interface {
	// Name identifies the strategy in logs and CLI flags.
	Name() string

	// Allocate places every parameter and local of fn.
	Allocate(fn *ast.FunctionDecl, info *semantic.Info) (*AllocationResult, error)
}

// AllocatorInternalError reports a bug in the allocator itself, such as
// liveness analysis failing to converge. It is distinct from source-level
// diagnostics: the input program is fine, the compiler is not.
type AllocatorInternalError struct {
	Function string
	Reason   string
}

func (e *AllocatorInternalError) Error() string {
	return fmt.Sprintf("register allocator internal error in %q: %s", e.Function, e.Reason)
}

// alignFrame rounds a frame size up to 16 bytes.
func alignFrame(n int) int {
	return (n + 15) &^ 15
}
