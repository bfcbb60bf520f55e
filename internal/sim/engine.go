package sim

import (
	"fmt"

	"github.com/sophiecomputer/cycle-sim/internal/program"
	"github.com/sophiecomputer/cycle-sim/internal/trace"
)

// SuccessorFunc chooses the next statement after st executes.
//
// It must be side-effect-free given its inputs: any evolving run state is
// threaded through as a value (state in, newState out), never mutated in
// place. halt reports that the run should end normally instead of following
// next. A non-nil error is an internal-consistency fault and aborts the run.
type SuccessorFunc func(st program.Statement, state any) (next int, newState any, halt bool, err error)

// FixedSuccessor ignores run state and follows a static successor table.
// PCs absent from the table are halt signals. Useful for branch-free programs
// and tests.
func FixedSuccessor(next map[int]int) SuccessorFunc {
	return func(st program.Statement, state any) (int, any, bool, error) {
		n, ok := next[st.PC]
		if !ok {
			return 0, state, true, nil
		}
		return n, state, false, nil
	}
}

// Config configures a single run.
type Config struct {
	// Successor is required.
	Successor SuccessorFunc

	// StepLimit bounds the number of executed statements. Zero or negative
	// selects DefaultStepLimit.
	StepLimit int

	// State is the initial value threaded through Successor. May be nil.
	State any

	// Sink, if set, observes each event as it is emitted. Recording is inert
	// and cannot affect the run.
	Sink trace.Sink
}

// Outcome distinguishes how a run ended. Both values are successful returns:
// a step-limited trace is valid but incomplete.
type Outcome string

const (
	OutcomeHalted    Outcome = "HALTED"
	OutcomeStepLimit Outcome = "STEP_LIMIT_EXCEEDED"
)

// Result is the structured summary of one run.
type Result struct {
	Trace       trace.ExecutionTrace
	Outcome     Outcome
	Steps       int
	TotalCycles int

	// FinalState is the state value after the last successor decision.
	FinalState any
}

// Simulate walks p from its start statement and returns the accumulated
// trace.
//
// Per executed statement it emits one event covering the statement's cycle
// span, advances the running counter, and consults the termination policy.
// The program is never mutated; each call allocates its own trace, so
// concurrent calls on distinct programs need no coordination.
//
// A BrokenReferenceError is returned only for internal-consistency faults
// (unknown PC, successor failure); running past the step limit is not an
// error but OutcomeStepLimit.
func Simulate(p *program.Program, cfg Config) (*Result, error) {
	if p == nil {
		return nil, fmt.Errorf("nil program")
	}
	if cfg.Successor == nil {
		return nil, fmt.Errorf("nil successor func")
	}
	limit := cfg.StepLimit
	if limit <= 0 {
		limit = DefaultStepLimit
	}

	var events []trace.Event
	state := cfg.State
	cycles := 0
	pc := p.StartPC()
	outcome := OutcomeHalted

loop:
	for {
		st, ok := p.Lookup(pc)
		if !ok {
			return nil, brokenf("pc %d does not exist", pc)
		}

		ev := trace.Event{
			PC:          st.PC,
			Text:        st.Text,
			EnterCycles: cycles,
			ExitCycles:  cycles + st.Cycles,
		}
		events = append(events, ev)
		trace.SafeRecord(cfg.Sink, ev)
		cycles = ev.ExitCycles

		next, newState, halted, err := cfg.Successor(st, state)
		if err != nil {
			return nil, brokenf("successor for pc %d: %v", st.PC, err)
		}
		state = newState

		switch Decide(len(events), limit, halted) {
		case Halt:
			break loop
		case StepLimitExceeded:
			outcome = OutcomeStepLimit
			break loop
		case Continue:
			pc = next
		}
	}

	return &Result{
		Trace: trace.ExecutionTrace{
			ProgramHash: p.Hash(),
			Outcome:     string(outcome),
			Events:      events,
		},
		Outcome:     outcome,
		Steps:       len(events),
		TotalCycles: cycles,
		FinalState:  state,
	}, nil
}
