package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/sophiecomputer/cycle-sim/internal/eval"
	"github.com/sophiecomputer/cycle-sim/internal/program"
	"github.com/sophiecomputer/cycle-sim/internal/render"
	"github.com/sophiecomputer/cycle-sim/internal/sim"
	"github.com/sophiecomputer/cycle-sim/internal/table"
)

// Result is the CLI-level outcome of one invocation.
type Result struct {
	ExitCode int
	Sim      *sim.Result
}

// Execute maps a canonical Invocation to a full run: load table, simulate,
// write the optional trace artifact, render frames, encode the GIF.
//
// Exit-code mapping:
//   - malformed table / program: ExitBadProgram
//   - run fault (broken reference): ExitRunFailure
//   - step-limited run: ExitSuccess with a warning, or ExitRunFailure when
//     StrictLimit is set; the partial animation is written either way.
func Execute(ctx context.Context, inv Invocation) (Result, error) {
	logger := newLogger(inv.Quiet)

	p, err := table.ReadFile(inv.InputPath)
	if err != nil {
		return Result{ExitCode: classifyLoadError(err)}, err
	}
	logger.Info("program loaded", "statements", p.Len(), "hash", p.Hash()[:12])

	successor, err := eval.Successor(p)
	if err != nil {
		return Result{ExitCode: ExitBadProgram}, err
	}

	res, err := sim.Simulate(p, sim.Config{
		Successor: successor,
		StepLimit: inv.StepLimit,
		State:     eval.Env{},
	})
	if err != nil {
		return Result{ExitCode: ExitRunFailure}, err
	}
	logger.Info("simulation finished",
		"outcome", string(res.Outcome),
		"steps", res.Steps,
		"cycles", res.TotalCycles,
	)
	if res.Outcome == sim.OutcomeStepLimit {
		logger.Warn("step limit exceeded; animation will be incomplete", "limit", inv.StepLimit)
	}

	if inv.TracePath != "" {
		b, err := res.Trace.CanonicalJSON()
		if err != nil {
			return Result{ExitCode: ExitInternalError, Sim: res}, fmt.Errorf("encode trace: %w", err)
		}
		if err := os.WriteFile(inv.TracePath, b, 0o644); err != nil {
			return Result{ExitCode: ExitInternalError, Sim: res}, fmt.Errorf("write trace: %w", err)
		}
		logger.Info("trace written", "path", inv.TracePath)
	}

	if err := ctx.Err(); err != nil {
		return Result{ExitCode: ExitInternalError, Sim: res}, err
	}

	r, err := render.New(p)
	if err != nil {
		return Result{ExitCode: ExitBadProgram, Sim: res}, err
	}
	defer r.Close()

	frames := r.Frames(res.Trace, func(done, total int) {
		if done%100 == 0 || done == total {
			logger.Info("rendering", "frame", done, "total", total)
		}
	})

	if err := ctx.Err(); err != nil {
		return Result{ExitCode: ExitInternalError, Sim: res}, err
	}

	out, err := os.Create(inv.OutputPath)
	if err != nil {
		return Result{ExitCode: ExitInternalError, Sim: res}, fmt.Errorf("create output: %w", err)
	}
	defer out.Close()
	if err := render.WriteGIF(out, frames, inv.MsPerCycle); err != nil {
		return Result{ExitCode: ExitInternalError, Sim: res}, fmt.Errorf("encode animation: %w", err)
	}
	logger.Info("animation written", "path", inv.OutputPath, "frames", len(frames))

	if res.Outcome == sim.OutcomeStepLimit && inv.StrictLimit {
		return Result{ExitCode: ExitRunFailure, Sim: res}, nil
	}
	return Result{ExitCode: ExitSuccess, Sim: res}, nil
}

func classifyLoadError(err error) int {
	var perr *table.ParseError
	if errors.As(err, &perr) {
		return ExitBadProgram
	}
	if errors.Is(err, program.ErrMalformedProgram) {
		return ExitBadProgram
	}
	return ExitInternalError
}

func newLogger(quiet bool) *slog.Logger {
	level := slog.LevelInfo
	if quiet {
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
