package sim

// Decision is the termination policy's verdict after a statement executes.
type Decision int

const (
	// Continue advances the walk to the chosen successor.
	Continue Decision = iota
	// Halt ends the run normally.
	Halt
	// StepLimitExceeded ends the run because the safety bound was reached
	// without a halt signal. It is a distinct verdict so callers can tell a
	// looping program from one that finished.
	StepLimitExceeded
)

func (d Decision) String() string {
	switch d {
	case Continue:
		return "CONTINUE"
	case Halt:
		return "HALT"
	case StepLimitExceeded:
		return "STEP_LIMIT_EXCEEDED"
	default:
		return "UNKNOWN"
	}
}

// DefaultStepLimit bounds runs whose successor graph contains an unconditional
// cycle with no halt path.
const DefaultStepLimit = 10000

// Decide is the termination policy: a pure function of the executed step
// count, the configured limit, and whether the just-executed statement
// signalled halt.
//
// A halt signal always wins, so a program that halts exactly at the limit is
// a normal halt, not a truncation.
func Decide(steps, limit int, halted bool) Decision {
	if halted {
		return Halt
	}
	if steps >= limit {
		return StepLimitExceeded
	}
	return Continue
}
