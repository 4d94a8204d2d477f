// Package main is the entry point for the agent-dispatch CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/runoshun/agent-dispatch/internal/app"
	"github.com/runoshun/agent-dispatch/internal/cli"
)

// version is set at build time using -ldflags.
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

// run executes the CLI and returns the process exit code.
func run(args []string, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := cli.NewRootCommand(app.New, version)
	rootCmd.SetArgs(args)
	return exitCode(rootCmd.ExecuteContext(ctx), stderr)
}

// exitCode maps a command error to an exit code, printing the error when
// there is one to print.
func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}
	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			_, _ = fmt.Fprintln(stderr, exitErr.Err)
		}
		return exitErr.Code
	}
	_, _ = fmt.Fprintln(stderr, err)
	return 1
}
