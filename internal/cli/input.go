package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/sophiecomputer/cycle-sim/internal/render"
	"github.com/sophiecomputer/cycle-sim/internal/sim"
)

const (
	ExitSuccess           = 0
	ExitRunFailure        = 1
	ExitInvalidInvocation = 2
	ExitBadProgram        = 3
	ExitInternalError     = 4
)

// Invocation is the fully canonicalized, deterministic description of a run.
//
// All paths are cleaned. No environment variables are consulted.
type Invocation struct {
	InputPath  string
	OutputPath string
	TracePath  string
	StepLimit  int
	MsPerCycle int

	// StrictLimit makes a step-limited run a failure exit instead of a
	// warning. The partial animation and trace are still written either way.
	StrictLimit bool

	Quiet      bool
	CPUProfile string
}

type InvocationError struct {
	ExitCode int
	Message  string
}

func (e *InvocationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func invalidInvocationf(format string, args ...any) error {
	return &InvocationError{ExitCode: ExitInvalidInvocation, Message: fmt.Sprintf(format, args...)}
}

// ExitCode maps an error to its semantic exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var invErr *InvocationError
	if errors.As(err, &invErr) {
		return invErr.ExitCode
	}
	return ExitInternalError
}

// ParseInvocation parses CLI flags into a canonical Invocation.
//
// Determinism goals:
//   - Does not read env vars.
//   - All defaults are fixed values, not derived from the host.
func ParseInvocation(args []string) (Invocation, error) {
	fs := flag.NewFlagSet("cyclesim", flag.ContinueOnError)
	fs.SetOutput(io.Discard) // parsing errors are returned, not printed

	var inv Invocation
	fs.StringVar(&inv.InputPath, "in", "", "Program table path. Required.")
	fs.StringVar(&inv.OutputPath, "out", "result.gif", "Animation output path.")
	fs.StringVar(&inv.TracePath, "trace", "", "Canonical trace JSON output path (optional).")
	fs.IntVar(&inv.StepLimit, "step-limit", sim.DefaultStepLimit, "Maximum executed statements before the run is cut off.")
	fs.IntVar(&inv.MsPerCycle, "ms-per-cycle", render.MillisecondsPerCycle, "Animation speed in milliseconds per cycle.")
	fs.BoolVar(&inv.StrictLimit, "strict-limit", false, "Treat a step-limited run as a failure exit.")
	fs.BoolVar(&inv.Quiet, "quiet", false, "Only log errors.")
	fs.StringVar(&inv.CPUProfile, "cpuprofile", "", "Write a CPU profile into this directory (optional).")

	if err := fs.Parse(args); err != nil {
		return Invocation{}, invalidInvocationf("%v", err)
	}
	if fs.NArg() != 0 {
		return Invocation{}, invalidInvocationf("unexpected positional arguments: %q", strings.Join(fs.Args(), " "))
	}

	if inv.InputPath == "" {
		return Invocation{}, invalidInvocationf("--in is required")
	}
	if inv.OutputPath == "" {
		return Invocation{}, invalidInvocationf("--out must not be empty")
	}
	if inv.StepLimit <= 0 {
		return Invocation{}, invalidInvocationf("--step-limit must be positive (got %d)", inv.StepLimit)
	}
	if inv.MsPerCycle <= 0 {
		return Invocation{}, invalidInvocationf("--ms-per-cycle must be positive (got %d)", inv.MsPerCycle)
	}

	inv.InputPath = filepath.Clean(inv.InputPath)
	inv.OutputPath = filepath.Clean(inv.OutputPath)
	if inv.TracePath != "" {
		inv.TracePath = filepath.Clean(inv.TracePath)
	}
	if inv.CPUProfile != "" {
		inv.CPUProfile = filepath.Clean(inv.CPUProfile)
	}
	return inv, nil
}
