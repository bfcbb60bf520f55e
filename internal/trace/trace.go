package trace

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ExecutionTrace is the canonical, deterministic record of one simulation run.
//
// Invariants:
//   - Events are in execution order; that order IS the canonical order.
//   - Events are contiguous: each exit count equals the next entry count.
//   - Must not include timestamps, pointers, or any runtime-dependent values.
//
// ProgramHash is a string to avoid coupling this package to the program
// implementation; it should be populated with the deterministic program
// identity.
//
// The trace is observational only and must never affect execution behavior.
// Byte-for-byte stability of CanonicalJSON is required.
type ExecutionTrace struct {
	ProgramHash string
	Outcome     string
	Events      []Event
}

// Event is one statement's span within a run.
//
// Determinism constraints:
//   - No timestamps.
//   - No error strings / stack traces.
//   - No fields derived from pointer identity or map iteration.
//
// Text is threaded through for the renderer and may be empty.
type Event struct {
	PC          int
	Text        string
	EnterCycles int
	ExitCycles  int
}

// Cycles returns the number of cycles the event spans.
func (e Event) Cycles() int { return e.ExitCycles - e.EnterCycles }

// Validate checks basic invariants and returns a descriptive error.
func (t *ExecutionTrace) Validate() error {
	if t == nil {
		return errors.New("trace is nil")
	}
	if t.ProgramHash == "" {
		return errors.New("programHash is required")
	}
	for i := range t.Events {
		e := t.Events[i]
		if e.EnterCycles < 0 {
			return fmt.Errorf("events[%d]: negative entry count %d", i, e.EnterCycles)
		}
		if e.ExitCycles < e.EnterCycles {
			return fmt.Errorf("events[%d]: exit count %d precedes entry count %d", i, e.ExitCycles, e.EnterCycles)
		}
		if i > 0 && e.EnterCycles != t.Events[i-1].ExitCycles {
			return fmt.Errorf("events[%d]: entry count %d does not continue previous exit count %d",
				i, e.EnterCycles, t.Events[i-1].ExitCycles)
		}
	}
	return nil
}

// TotalCycles returns the run's reported cycle total: the final event's exit
// count, or zero for an empty trace.
func (t *ExecutionTrace) TotalCycles() int {
	if t == nil || len(t.Events) == 0 {
		return 0
	}
	return t.Events[len(t.Events)-1].ExitCycles
}

// CanonicalJSON returns the canonical JSON encoding of the trace.
//
// Unlike traces of concurrent systems there is nothing to sort here: events
// are already totally ordered by simulated time, so canonicalization is
// validation plus a fixed-field-order encoding.
func (t ExecutionTrace) CanonicalJSON() ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(&t)
}

// Hash returns the deterministic trace hash (sha256 hex) of the canonical
// JSON bytes.
func (t ExecutionTrace) Hash() (string, error) {
	b, err := t.CanonicalJSON()
	if err != nil {
		return "", err
	}
	return ComputeTraceHash(b), nil
}

// MarshalJSON ensures canonical field ordering and omission rules.
func (t ExecutionTrace) MarshalJSON() ([]byte, error) {
	if t.ProgramHash == "" {
		return nil, errors.New("programHash is required")
	}
	var buf bytes.Buffer
	buf.WriteByte('{')

	buf.WriteString("\"programHash\":")
	ph, _ := json.Marshal(t.ProgramHash)
	buf.Write(ph)

	if t.Outcome != "" {
		buf.WriteByte(',')
		buf.WriteString("\"outcome\":")
		ob, _ := json.Marshal(t.Outcome)
		buf.Write(ob)
	}

	buf.WriteByte(',')
	buf.WriteString("\"events\":[")
	for i := range t.Events {
		if i > 0 {
			buf.WriteByte(',')
		}
		eb, err := json.Marshal(t.Events[i])
		if err != nil {
			return nil, err
		}
		buf.Write(eb)
	}
	buf.WriteByte(']')

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON ensures canonical field ordering and omission of the optional
// text field.
func (e Event) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	fmt.Fprintf(&buf, "\"pc\":%d", e.PC)

	if e.Text != "" {
		buf.WriteString(",\"text\":")
		tb, _ := json.Marshal(e.Text)
		buf.Write(tb)
	}

	fmt.Fprintf(&buf, ",\"enterCycles\":%d", e.EnterCycles)
	fmt.Fprintf(&buf, ",\"exitCycles\":%d", e.ExitCycles)

	buf.WriteByte('}')
	return buf.Bytes(), nil
}
