package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the bridge the error occurred
type Phase string

const (
	PhaseCreate   Phase = "create"   // handle construction
	PhaseRun      Phase = "run"      // translate-and-execute loop
	PhaseMemory   Phase = "memory"   // guest memory access
	PhaseCoproc   Phase = "coproc"   // coprocessor compile queries
	PhaseTeardown Phase = "teardown" // handle destruction
)

// Kind categorizes the error
type Kind string

const (
	KindMissingCallback Kind = "missing_callback"
	KindInvalidVariant  Kind = "invalid_variant"
	KindPageTable       Kind = "page_table"
	KindUnsupported     Kind = "unsupported"
	KindUnmapped        Kind = "unmapped"
	KindNotInitialized  Kind = "not_initialized"
	KindInvalidInput    Kind = "invalid_input"
	KindHalted          Kind = "halted"
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Convenience constructors for common error patterns

// MissingCallback reports a required callback-table slot left nil
func MissingCallback(phase Phase, slot string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMissingCallback,
		Detail: fmt.Sprintf("callback slot %s is required", slot),
	}
}

// InvalidVariant reports a result value carrying an undefined tag
func InvalidVariant(phase Phase, op string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidVariant,
		Detail: fmt.Sprintf("%s returned a result with an invalid tag", op),
	}
}

// PageTable reports a malformed page-table entry
func PageTable(phase Phase, page uint32, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindPageTable,
		Detail: fmt.Sprintf("page %#x backing has length %d, want the page size", page, length),
	}
}

// Unsupported reports an operation this bridge wires no handler for
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Unmapped reports an access to an address no span covers
func Unmapped(phase Phase, addr uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnmapped,
		Detail: fmt.Sprintf("address %#x is not mapped", addr),
	}
}

// NotInitialized reports use of a zero or already-closed component
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Halted reports execution stopped by a handler before completion
func Halted(detail string) *Error {
	return &Error{
		Phase:  PhaseRun,
		Kind:   KindHalted,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
