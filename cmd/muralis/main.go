package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"muralis/internal/daemon"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "muralis: "+err.Error())
		}
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error to the process exit status. A daemon that refuses
// to start because another instance holds the socket exits 2 so scripts can
// tell "already running" apart from real failures.
func exitCode(err error) int {
	if errors.Is(err, daemon.ErrAlreadyRunning) {
		return 2
	}
	return 1
}
