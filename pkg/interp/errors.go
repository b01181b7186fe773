// Package interp executes a decoded Program by walking its AST. It never
// mutates the tree: all evaluation state lives in per-call environments and
// in the function table built once at construction.
package interp

import (
	"fmt"

	"minic/pkg/compiler"
)

// Every failure mode has its own error type so callers can dispatch on the
// condition rather than match message text. All of them are fatal to the
// evaluation that raised them; none is ever defaulted to a zero result.

// DuplicateDefinition is raised while building the function table: two
// definitions (function or struct) share one name.
type DuplicateDefinition struct {
	Name string
}

func (e DuplicateDefinition) Error() string {
	return fmt.Sprintf("duplicate definition of %q", e.Name)
}

// UndefinedEntryPoint is raised when the requested entry function is absent.
type UndefinedEntryPoint struct {
	Name string
}

func (e UndefinedEntryPoint) Error() string {
	return fmt.Sprintf("entry point %q is not defined", e.Name)
}

// UndefinedVariable is raised when an identifier is read that the current
// call frame never bound.
type UndefinedVariable struct {
	Name string
	Span compiler.Span
}

func (e UndefinedVariable) Error() string {
	return fmt.Sprintf("undefined variable %q", e.Name)
}

// UndefinedFunction is raised when a call names a function that was never
// defined.
type UndefinedFunction struct {
	Name string
	Span compiler.Span
}

func (e UndefinedFunction) Error() string {
	return fmt.Sprintf("call to undefined function %q", e.Name)
}

// ArityMismatch is raised when a call supplies a different number of
// arguments than the callee declares parameters.
type ArityMismatch struct {
	Name string
	Want int
	Got  int
}

func (e ArityMismatch) Error() string {
	return fmt.Sprintf("function %q takes %d argument(s), got %d", e.Name, e.Want, e.Got)
}

// MissingReturn is raised when a function body runs to completion without
// executing a return statement.
type MissingReturn struct {
	Name string
}

func (e MissingReturn) Error() string {
	return fmt.Sprintf("function %q completed without returning a value", e.Name)
}

// DivisionByZero is raised instead of the host's native fault.
type DivisionByZero struct {
	Span compiler.Span
}

func (e DivisionByZero) Error() string {
	return "division by zero"
}

// ArithmeticOverflow is raised when a result does not fit in a signed 64-bit
// integer. Trapping is deliberate: wraparound would be silent and
// irreproducible across integer widths.
type ArithmeticOverflow struct {
	Op   string
	Span compiler.Span
}

func (e ArithmeticOverflow) Error() string {
	return fmt.Sprintf("arithmetic overflow in %q", e.Op)
}

// StackExhausted is raised when call nesting exceeds the configured limit.
type StackExhausted struct {
	Depth int
}

func (e StackExhausted) Error() string {
	return fmt.Sprintf("call depth exceeded %d frames", e.Depth)
}

// InvalidNode is raised when evaluation reaches a recovery placeholder:
// a partial parse was interpreted anyway.
type InvalidNode struct {
	Span compiler.Span
}

func (e InvalidNode) Error() string {
	return "cannot evaluate a node that did not parse"
}
