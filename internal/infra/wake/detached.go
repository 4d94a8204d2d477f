package wake

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/runoshun/agent-dispatch/internal/domain"
)

// WakeCommand is the hidden subcommand that performs the HTTP call in the
// detached child process.
const WakeCommand = "_wake"

// Detached implements domain.WakeSignaler by re-executing the current binary
// as a detached background process, so the call outlives the notifier.
type Detached struct {
	start      func(*exec.Cmd) error
	executable string
	tokenFile  string
	tokenKey   string
	extraArgs  []string
}

// Ensure Detached implements domain.WakeSignaler interface.
var _ domain.WakeSignaler = (*Detached)(nil)

// NewDetached creates a signaler. extraArgs are passed to the child before
// the wake flags (e.g. a --dir override).
func NewDetached(tokenFile, tokenKey string, extraArgs ...string) *Detached {
	exe, err := os.Executable()
	if err != nil {
		exe = os.Args[0]
	}
	return &Detached{
		start:      startDetached,
		executable: exe,
		tokenFile:  tokenFile,
		tokenKey:   tokenKey,
		extraArgs:  extraArgs,
	}
}

// Signal checks that a token is configured and spawns the child. It does not
// wait for the child or the endpoint.
func (d *Detached) Signal(_ context.Context, sig domain.WakeSignal) error {
	if _, err := ReadToken(d.tokenFile, d.tokenKey); err != nil {
		return err
	}

	args := append([]string{WakeCommand}, d.extraArgs...)
	args = append(args, "--text", sig.Text)

	// #nosec G204 - re-executes this binary
	cmd := exec.Command(d.executable, args...)
	if err := d.start(cmd); err != nil {
		return fmt.Errorf("spawn wake: %w", err)
	}
	return nil
}

// startDetached starts cmd in its own session with no inherited stdio and
// releases it.
func startDetached(cmd *exec.Cmd) error {
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}
