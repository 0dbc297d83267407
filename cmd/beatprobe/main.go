package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"beatprobe/internal/pyruntime"
	"beatprobe/internal/worker"
)

const (
	exitOK             = 0
	exitAnalysisFailed = 1
	exitSetupFailed    = 2
)

// errSetup tags failures that happen before any worker could run, so they
// map to the setup exit code.
var errSetup = errors.New("setup failed")

func main() {
	cmd := newRootCommand()
	err := cmd.Execute()
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(exitCodeFor(err))
}

func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errSetup),
		errors.Is(err, worker.ErrRuntimeNotFound),
		errors.Is(err, worker.ErrScriptNotFound),
		errors.Is(err, worker.ErrSpawn),
		errors.Is(err, pyruntime.ErrNotFound):
		return exitSetupFailed
	default:
		return exitAnalysisFailed
	}
}

func setupError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", errSetup, err)
}
