package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/pkg/profile"

	"github.com/sophiecomputer/cycle-sim/internal/cli"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is a deterministic boundary: it canonicalizes all CLI inputs into an
// Invocation before any engine logic is invoked. It returns the process exit
// code so deferred cleanup (the profiler) still runs.
func run(args []string) int {
	inv, err := cli.ParseInvocation(args)
	if err != nil {
		var invErr *cli.InvocationError
		if errors.As(err, &invErr) {
			fmt.Fprintln(os.Stderr, invErr.Message)
			return invErr.ExitCode
		}
		fmt.Fprintln(os.Stderr, err)
		return cli.ExitInternalError
	}

	if inv.CPUProfile != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(inv.CPUProfile)).Stop()
	}

	result, execErr := cli.Execute(context.Background(), inv)
	if execErr != nil {
		fmt.Fprintln(os.Stderr, execErr)
	}
	return result.ExitCode
}
