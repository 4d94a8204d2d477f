// Package tmux provides tmux session management and the interactive agent runner.
package tmux

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/runoshun/agent-dispatch/internal/domain"
)

// Client manages tmux sessions on a private socket.
type Client struct {
	socketPath string // Path to the tmux socket
}

// NewClient creates a new tmux client.
// socketPath is the path to the tmux socket (typically <dir>/tmux.sock).
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

// SocketPath returns the socket the client talks to.
func (c *Client) SocketPath() string {
	return c.socketPath
}

// Start creates a detached session running command in dir.
func (c *Client) Start(ctx context.Context, name, dir, command string) error {
	running, err := c.IsRunning(name)
	if err != nil {
		return fmt.Errorf("check session: %w", err)
	}
	if running {
		return domain.ErrSessionRunning
	}
	if err := os.MkdirAll(filepath.Dir(c.socketPath), 0o750); err != nil {
		return fmt.Errorf("create socket directory: %w", err)
	}

	// tmux -S <socket> new-session -d -s <name> -c <dir> [command]
	args := []string{
		"-S", c.socketPath,
		"new-session",
		"-d",       // Detached
		"-s", name, // Session name
	}
	if dir != "" {
		args = append(args, "-c", dir)
	}
	if command != "" {
		args = append(args, command)
	}

	cmd := exec.CommandContext(ctx, "tmux", args...)
	cmd.Dir = dir

	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("start session: %w: %s", err, string(out))
	}
	return nil
}

// Stop terminates a session. Stopping a session that is not running is a no-op.
func (c *Client) Stop(name string) error {
	running, err := c.IsRunning(name)
	if err != nil {
		return fmt.Errorf("check session: %w", err)
	}
	if !running {
		return nil
	}

	// tmux -S <socket> kill-session -t =<name>
	// Session names follow our naming convention (dispatch-<id>) and are safe to pass to tmux.
	cmd := exec.Command("tmux", "-S", c.socketPath, "kill-session", "-t", exactTarget(name)) //nolint:gosec // name follows dispatch-<id> naming convention
	if out, err := cmd.CombinedOutput(); err != nil {
		// The session may have exited on its own in the meantime
		stillRunning, checkErr := c.IsRunning(name)
		if checkErr != nil || stillRunning {
			return fmt.Errorf("stop session: %w: %s", err, string(out))
		}
	}
	return nil
}

// Peek captures the last N lines of the session's pane, joining wrapped lines.
func (c *Client) Peek(name string, lines int) (string, error) {
	running, err := c.IsRunning(name)
	if err != nil {
		return "", fmt.Errorf("check session: %w", err)
	}
	if !running {
		return "", domain.ErrNoSession
	}

	// tmux -S <socket> capture-pane -p -J -t <name> -S -<lines>
	cmd := exec.Command("tmux", //nolint:gosec // name follows dispatch-<id> naming convention
		"-S", c.socketPath,
		"capture-pane",
		"-p",
		"-J",
		"-t", name,
		"-S", fmt.Sprintf("-%d", lines),
	)

	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("peek session: %w", err)
	}
	return strings.TrimSuffix(string(out), "\n"), nil
}

// Send sends key names (e.g. "Enter", "y") to a session.
func (c *Client) Send(name string, keys ...string) error {
	return c.sendKeys(name, keys...)
}

// SendLiteral types text into a session without key name lookup.
func (c *Client) SendLiteral(name, text string) error {
	return c.sendKeys(name, "-l", "--", text)
}

func (c *Client) sendKeys(name string, args ...string) error {
	running, err := c.IsRunning(name)
	if err != nil {
		return fmt.Errorf("check session: %w", err)
	}
	if !running {
		return domain.ErrNoSession
	}

	// tmux -S <socket> send-keys -t <name> <args...>
	full := append([]string{"-S", c.socketPath, "send-keys", "-t", name}, args...)
	cmd := exec.Command("tmux", full...) //nolint:gosec // name follows dispatch-<id> naming convention

	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("send keys: %w: %s", err, string(out))
	}
	return nil
}

// PipePane appends everything the session's pane prints to path.
func (c *Client) PipePane(name, path string) error {
	// tmux -S <socket> pipe-pane -o -t <name> 'cat >> <path>'
	cmd := exec.Command("tmux", //nolint:gosec // path is quoted for the shell tmux spawns
		"-S", c.socketPath,
		"pipe-pane",
		"-o",
		"-t", name,
		"cat >> "+domain.ShellQuote(path),
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("pipe pane: %w: %s", err, string(out))
	}
	return nil
}

// IsRunning checks if a session is running.
func (c *Client) IsRunning(name string) (bool, error) {
	// tmux -S <socket> has-session -t =<name>
	// Exit code 0 = exists, 1 = doesn't exist
	cmd := exec.Command("tmux", //nolint:gosec // name follows dispatch-<id> naming convention
		"-S", c.socketPath,
		"has-session",
		"-t", exactTarget(name),
	)

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return false, nil
		}
		// tmux itself could not be started
		return false, fmt.Errorf("has-session: %w", err)
	}
	return true, nil
}

// exactTarget disables tmux's session name prefix matching.
func exactTarget(name string) string {
	return "=" + name
}
