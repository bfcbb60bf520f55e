package sim

import (
	"errors"
	"fmt"
)

// ErrBrokenReference is the kind for internal-consistency faults during a run:
// a current PC that resolves to no statement, or a successor function failure.
// These should not occur for a validated program and are always fatal to the
// run.
var ErrBrokenReference = errors.New("broken statement reference")

// BrokenReferenceError wraps run-time engine faults.
type BrokenReferenceError struct {
	Kind error
	Msg  string
}

func (e *BrokenReferenceError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *BrokenReferenceError) Unwrap() error { return e.Kind }

func brokenf(format string, args ...any) error {
	return &BrokenReferenceError{Kind: ErrBrokenReference, Msg: fmt.Sprintf(format, args...)}
}
