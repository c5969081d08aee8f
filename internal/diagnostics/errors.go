// Package diagnostics defines the error categories the core reports and a
// stack-trace renderer that walks the interpreter's frame stack.
package diagnostics

import (
	"fmt"

	"github.com/pkg/errors"
)

// Category names the kind of failure without exposing a Go type per kind,
// matching the "no type names, just kinds" policy.
type Category int

const (
	ParseError Category = iota
	ResolutionError
	TypeError
	StackUnderflow
	IndexOutOfBounds
	ArithmeticError
	Unimplemented
)

func (c Category) String() string {
	switch c {
	case ParseError:
		return "ParseError"
	case ResolutionError:
		return "ResolutionError"
	case TypeError:
		return "TypeError"
	case StackUnderflow:
		return "StackUnderflow"
	case IndexOutOfBounds:
		return "IndexOutOfBounds"
	case ArithmeticError:
		return "ArithmeticError"
	case Unimplemented:
		return "Unimplemented"
	default:
		return "Unknown"
	}
}

// Fault is the error value every fallible core operation returns. It carries
// a category, a human-readable detail, and (via pkg/errors) a captured Go
// call stack distinct from the JVM-level frame trace attached separately by
// the interpreter.
type Fault struct {
	Cat    Category
	Detail string
	cause  error
}

func (f *Fault) Error() string {
	if f.cause != nil {
		return fmt.Sprintf("%s: %s: %v", f.Cat, f.Detail, f.cause)
	}
	return fmt.Sprintf("%s: %s", f.Cat, f.Detail)
}

func (f *Fault) Unwrap() error { return f.cause }

// New builds a Fault with a captured stack, ready to propagate.
func New(cat Category, format string, args ...interface{}) error {
	return errors.WithStack(&Fault{Cat: cat, Detail: fmt.Sprintf(format, args...)})
}

// Wrap attaches a category and detail to an existing cause, preserving it
// via Unwrap while still capturing a fresh stack at the wrap site.
func Wrap(cause error, cat Category, format string, args ...interface{}) error {
	return errors.WithStack(&Fault{Cat: cat, Detail: fmt.Sprintf(format, args...), cause: cause})
}

// CategoryOf walks cause chains looking for a *Fault and returns its
// category, or false if none is found.
func CategoryOf(err error) (Category, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f.Cat, true
	}
	return 0, false
}

// FrameLocation is one entry in an interpreter-level stack trace: the class
// owning the executing method and the decoded program counter at the point
// of failure.
type FrameLocation struct {
	OwningClass string
	Method      string
	PC          int
}

// StackTrace renders frame locations one per line in the order given; the
// interpreter passes them top-to-bottom (innermost first).
func StackTrace(locations []FrameLocation) string {
	s := ""
	for _, loc := range locations {
		s += fmt.Sprintf("\tat %s.%s(pc=%d)\n", loc.OwningClass, loc.Method, loc.PC)
	}
	return s
}
