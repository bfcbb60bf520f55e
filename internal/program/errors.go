package program

import (
	"errors"
	"fmt"
)

// ErrMalformedProgram is the kind for all construction-time validation failures.
var ErrMalformedProgram = errors.New("malformed program")

// MalformedProgramError wraps deterministic program validation failures.
type MalformedProgramError struct {
	Kind error
	Msg  string
}

func (e *MalformedProgramError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *MalformedProgramError) Unwrap() error { return e.Kind }

func malformedf(format string, args ...any) error {
	return &MalformedProgramError{Kind: ErrMalformedProgram, Msg: fmt.Sprintf(format, args...)}
}
