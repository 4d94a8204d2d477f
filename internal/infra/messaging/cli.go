// Package messaging delivers notifications through an external messaging CLI.
package messaging

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/runoshun/agent-dispatch/internal/domain"
)

// CLI implements domain.Messenger by invoking
// <command> message send --channel <kind> --target <addr> --message <body> [--account <acct>].
type CLI struct {
	lookPath func(string) (string, error)
	command  string
}

// NewCLI creates a messenger for command. An empty command disables delivery.
func NewCLI(command string) *CLI {
	return &CLI{
		lookPath: exec.LookPath,
		command:  command,
	}
}

// Ensure CLI implements domain.Messenger interface.
var _ domain.Messenger = (*CLI)(nil)

// Available reports whether the command is configured and installed.
func (c *CLI) Available() bool {
	if c.command == "" {
		return false
	}
	_, err := c.lookPath(c.command)
	return err == nil
}

// Args returns the argument list passed to the command for msg.
func Args(msg domain.Message) []string {
	args := []string{
		"message", "send",
		"--channel", msg.Channel,
		"--target", msg.Target,
		"--message", msg.Body,
	}
	if msg.Account != "" {
		args = append(args, "--account", msg.Account)
	}
	return args
}

// Send runs the command once. The combined output is included in the error.
func (c *CLI) Send(ctx context.Context, msg domain.Message) error {
	if !c.Available() {
		return domain.ErrTransportNotConfigured
	}
	if msg.Target == "" {
		return domain.ErrNoRecipient
	}

	// #nosec G204 - command comes from configuration, arguments are passed without a shell
	cmd := exec.CommandContext(ctx, c.command, Args(msg)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("send message to %s: %w: %s", msg.Target, err, strings.TrimSpace(string(out)))
	}
	return nil
}
