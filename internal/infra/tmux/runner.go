package tmux

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/runoshun/agent-dispatch/internal/domain"
)

// Interactive timing defaults.
const (
	DefaultPromptDelay  = 2 * time.Second
	DefaultTrustDelay   = 800 * time.Millisecond
	DefaultPollInterval = 500 * time.Millisecond
	peekLines           = 200
	trustNeedle         = "trust"
	exitCodeFile        = "exit_code"
)

// RunnerOptions configures the interactive runner.
type RunnerOptions struct {
	TrustWait    time.Duration // How long to look for the workspace trust prompt
	TrustDelay   time.Duration // Pause after answering the trust prompt
	PromptDelay  time.Duration // Pause before typing the prompt
	SendDelay    time.Duration // Pause after each prompt line
	PollInterval time.Duration // Session liveness poll interval
}

// Runner implements domain.AgentRunner by driving the agent inside tmux.
// Pane output is appended to the task capture through pipe-pane.
type Runner struct {
	client   *Client
	captures domain.CaptureStore
	lookPath func(string) (string, error)
	opts     RunnerOptions
}

// Ensure Runner implements domain.AgentRunner interface.
var _ domain.AgentRunner = (*Runner)(nil)

// NewRunner creates an interactive runner.
func NewRunner(client *Client, captures domain.CaptureStore, opts RunnerOptions) *Runner {
	if opts.TrustWait <= 0 {
		opts.TrustWait = domain.DefaultTrustWaitTime
	}
	if opts.TrustDelay <= 0 {
		opts.TrustDelay = DefaultTrustDelay
	}
	if opts.PromptDelay <= 0 {
		opts.PromptDelay = DefaultPromptDelay
	}
	if opts.SendDelay <= 0 {
		opts.SendDelay = domain.DefaultSendDelay
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	return &Runner{
		client:   client,
		captures: captures,
		lookPath: exec.LookPath,
		opts:     opts,
	}
}

// Run launches the agent in a fresh session, answers the trust prompt,
// types the prompt lines and blocks until the session ends.
func (r *Runner) Run(ctx context.Context, run domain.AgentRun, output io.Writer) (domain.AgentResult, error) {
	if _, err := r.lookPath("tmux"); err != nil {
		return domain.AgentResult{}, domain.ErrTmuxNotFound
	}
	if _, err := r.lookPath(run.Bin); err != nil {
		return domain.AgentResult{}, fmt.Errorf("%w: %s", domain.ErrAgentNotFound, run.Bin)
	}

	name := domain.SessionName(run.TaskID)
	capture := r.captures.Path(run.TaskID)
	exitPath := filepath.Join(filepath.Dir(capture), exitCodeFile)
	if err := os.MkdirAll(filepath.Dir(capture), 0o750); err != nil {
		return domain.AgentResult{}, fmt.Errorf("create task directory: %w", err)
	}
	_ = os.Remove(exitPath)

	// A leftover session with the same name belongs to an earlier attempt.
	if err := r.client.Stop(name); err != nil {
		return domain.AgentResult{}, err
	}
	if err := r.client.Start(ctx, name, run.Dir, "sh"); err != nil {
		return domain.AgentResult{}, err
	}
	if err := r.client.PipePane(name, capture); err != nil {
		_ = r.client.Stop(name)
		return domain.AgentResult{}, err
	}

	launch := domain.ShellJoin(domain.InteractiveArgs(run)) +
		"; echo $? > " + domain.ShellQuote(exitPath) + "; exit"
	if err := r.typeLine(name, launch); err != nil {
		_ = r.client.Stop(name)
		return domain.AgentResult{}, err
	}

	_, _ = fmt.Fprintf(output, "Started interactive agent in tmux.\n  Monitor: tmux -S %s attach -t %s\n",
		domain.ShellQuote(r.client.SocketPath()), name)

	if err := r.drive(ctx, name, run.Prompt); err != nil {
		_ = r.client.Stop(name)
		return domain.AgentResult{}, err
	}

	if err := r.waitForExit(ctx, name); err != nil {
		_ = r.client.Stop(name)
		return domain.AgentResult{}, err
	}
	return domain.AgentResult{ExitCode: readExitCode(exitPath)}, nil
}

// drive answers the trust prompt and types the prompt lines.
func (r *Runner) drive(ctx context.Context, name, prompt string) error {
	found, err := r.waitForText(ctx, name, trustNeedle, r.opts.TrustWait)
	if err != nil {
		return err
	}
	if found {
		if err := r.client.Send(name, "y"); err != nil {
			return err
		}
		if err := r.client.Send(name, "Enter"); err != nil {
			return err
		}
		if err := sleep(ctx, r.opts.TrustDelay); err != nil {
			return err
		}
	}

	lines := domain.PromptLines(prompt)
	if len(lines) == 0 {
		return nil
	}
	if err := sleep(ctx, r.opts.PromptDelay); err != nil {
		return err
	}
	for _, line := range lines {
		if err := r.typeLine(name, line); err != nil {
			// The agent may have exited early; waitForExit picks that up.
			if errors.Is(err, domain.ErrNoSession) {
				return nil
			}
			return err
		}
		if err := sleep(ctx, r.opts.SendDelay); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) typeLine(name, line string) error {
	if err := r.client.SendLiteral(name, line); err != nil {
		return err
	}
	return r.client.Send(name, "Enter")
}

// waitForText polls the pane until it contains needle (case-insensitive),
// the session ends, or timeout elapses.
func (r *Runner) waitForText(ctx context.Context, name, needle string, timeout time.Duration) (bool, error) {
	deadline := time.Now().Add(timeout)
	needle = strings.ToLower(needle)
	for time.Now().Before(deadline) {
		buf, err := r.client.Peek(name, peekLines)
		if errors.Is(err, domain.ErrNoSession) {
			return false, nil
		}
		if err == nil && strings.Contains(strings.ToLower(buf), needle) {
			return true, nil
		}
		if err := sleep(ctx, r.opts.PollInterval); err != nil {
			return false, err
		}
	}
	return false, nil
}

func (r *Runner) waitForExit(ctx context.Context, name string) error {
	for {
		running, err := r.client.IsRunning(name)
		if err != nil {
			return err
		}
		if !running {
			return nil
		}
		if err := sleep(ctx, r.opts.PollInterval); err != nil {
			return err
		}
	}
}

// readExitCode returns the code the session shell recorded, or 1 when the
// agent ended without one (e.g. the session was killed).
func readExitCode(path string) int {
	content, err := os.ReadFile(path)
	if err != nil {
		return 1
	}
	code, err := strconv.Atoi(strings.TrimSpace(string(content)))
	if err != nil {
		return 1
	}
	return code
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
