package compiler

import "fmt"

// Diagnostic is one recovered-from parse error. The parser collects these
// across the whole pass instead of stopping at the first failure.
type Diagnostic struct {
	Span Span
	Msg  string
	Fix  string // optional suggested fix, empty when none applies
}

func (d Diagnostic) String() string {
	s := fmt.Sprintf("line %d: %s", d.Span.Line, d.Msg)
	if d.Fix != "" {
		s += "\n  fix: " + d.Fix
	}
	return s
}
