// Package runner provides headless agent execution.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"

	"github.com/runoshun/agent-dispatch/internal/domain"
)

// Client implements domain.AgentRunner for non-interactive runs.
// Fields are ordered to minimize memory padding.
type Client struct {
	lookPath func(string) (string, error)
	stdin    io.Reader
	pty      bool
}

// NewClient creates a new headless runner. When pty is true and script(1)
// is available, the agent runs inside a pseudo-terminal.
func NewClient(pty bool) *Client {
	return &Client{
		lookPath: exec.LookPath,
		stdin:    os.Stdin,
		pty:      pty,
	}
}

// Ensure Client implements domain.AgentRunner interface.
var _ domain.AgentRunner = (*Client)(nil)

// Command returns the argv that Run executes for run.
func (c *Client) Command(run domain.AgentRun) ([]string, error) {
	if _, err := c.lookPath(run.Bin); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrAgentNotFound, run.Bin)
	}
	argv := domain.HeadlessArgs(run)
	if !c.pty {
		return argv, nil
	}
	script, err := c.lookPath("script")
	if err != nil {
		return argv, nil
	}
	// script -q -c "<cmd>" /dev/null keeps agents that require a TTY from hanging.
	return []string{script, "-q", "-c", domain.ShellJoin(argv), "/dev/null"}, nil
}

// Run executes the agent and streams combined stdout and stderr into output.
// It returns once the process has exited and its output is fully copied.
// A non-zero exit is reported through AgentResult, not as an error.
func (c *Client) Run(ctx context.Context, run domain.AgentRun, output io.Writer) (domain.AgentResult, error) {
	argv, err := c.Command(run)
	if err != nil {
		return domain.AgentResult{}, err
	}

	// #nosec G204 - argv is built from the task definition
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = run.Dir
	cmd.Stdin = c.stdin
	// A single writer for both streams makes exec share one pipe, and Wait
	// returns only after that pipe is drained.
	cmd.Stdout = output
	cmd.Stderr = output

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return domain.AgentResult{ExitCode: exitCode(exitErr)}, nil
		}
		return domain.AgentResult{}, fmt.Errorf("run agent: %w", err)
	}
	return domain.AgentResult{ExitCode: 0}, nil
}

// exitCode maps a signal death to the shell convention 128+signal.
func exitCode(err *exec.ExitError) int {
	if ws, ok := err.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return err.ExitCode()
}
