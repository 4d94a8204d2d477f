package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runoshun/agent-dispatch/internal/domain"
	"github.com/runoshun/agent-dispatch/internal/usecase"
)

// runOptions holds the flags of the run command.
type runOptions struct {
	ID              string
	Name            string
	File            string
	Model           string
	Mode            string
	RunMode         string
	Workspace       string
	Target          string
	CallbackGroup   string
	CallbackDM      string
	CallbackAccount string
	Yolo            bool
}

// newRunCommand creates the run command for dispatching an agent task.
func newRunCommand(e *env) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run [prompt] [-- agent-args...]",
		Short: "Run the agent on a task and notify on completion",
		Long: `Run the coding agent on a prompt, or on a Markdown task file with
YAML frontmatter, then deliver the completion report.

Prompts containing a slash command (a line starting with "/") run in
interactive mode inside a private tmux session. Everything else runs
headless. Use --run-mode to force either one.

The command exits with the agent's exit code.

Examples:
  # Run a prompt in the current directory
  agent-dispatch run --name calc-cli --target chat:oc_123 "Build a calculator CLI"

  # Run a task file; workdir in the frontmatter is relative to the file
  agent-dispatch run --file tasks/calc.md

  # Pass extra arguments to the agent
  agent-dispatch run "Fix the tests" -- --max-turns 5

Task file format:
  ---
  name: calc-cli
  workdir: ./calc
  target: chat:oc_123
  callback_group: chat:oc_456
  ---
  Build a calculator CLI with tests.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := e.container(cmd)
			if err != nil {
				return err
			}

			positional, extra := splitAtDash(cmd, args)
			input, err := opts.input(cmd, c.Config.WorkDir, positional)
			if err != nil {
				return err
			}
			input.Extra = extra

			out, err := c.RunTaskUseCase().Execute(cmd.Context(), input)
			if err != nil {
				if errors.Is(err, domain.ErrAgentNotFound) {
					return &ExitError{Code: usecase.ExitAgentNotFound, Err: err}
				}
				if out == nil {
					return err
				}
				return &ExitError{Code: nonZero(out.ExitCode), Err: err}
			}
			if out.ExitCode != 0 {
				return &ExitError{Code: out.ExitCode}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.ID, "id", "", "Task id (default: generated from the name)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "Task name (default: workdir base name)")
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "Markdown task file with YAML frontmatter")
	cmd.Flags().StringVar(&opts.Model, "model", "", "Model passed to the agent")
	cmd.Flags().StringVar(&opts.Mode, "mode", "", "Agent mode (plan or ask)")
	cmd.Flags().StringVar(&opts.RunMode, "run-mode", "", "Force headless or interactive")
	cmd.Flags().StringVar(&opts.Workspace, "workspace", "", "Workspace passed to the agent")
	cmd.Flags().BoolVar(&opts.Yolo, "yolo", false, "Let the agent run commands without asking")
	cmd.Flags().StringVar(&opts.Target, "target", "", "Primary recipient of the full report")
	cmd.Flags().StringVar(&opts.CallbackGroup, "callback-group", "", "Group recipient of the status line")
	cmd.Flags().StringVar(&opts.CallbackDM, "callback-dm", "", "Direct-message recipient of the status line")
	cmd.Flags().StringVar(&opts.CallbackAccount, "callback-account", "", "Sender account for the direct message")

	return cmd
}

// input merges the task file, positional prompt and flags. Flags win over
// the file.
func (o *runOptions) input(cmd *cobra.Command, workDir string, args []string) (usecase.RunTaskInput, error) {
	in := usecase.RunTaskInput{
		ID:        o.ID,
		WorkDir:   workDir,
		Workspace: o.Workspace,
		Yolo:      o.Yolo,
	}

	if o.File != "" {
		tf, dir, err := readTaskFile(o.File)
		if err != nil {
			return in, err
		}
		in.Name = tf.Name
		in.Prompt = tf.Prompt
		in.Model = tf.Model
		in.Mode = tf.Mode
		in.RunMode = domain.RunMode(tf.RunMode)
		in.Recipients = tf.Recipients()
		if tf.WorkDir != "" && !cmd.Flags().Changed("workdir") {
			in.WorkDir = resolveRelative(dir, tf.WorkDir)
		}
	}

	if len(args) > 0 {
		in.Prompt = strings.Join(args, " ")
	}
	if in.Prompt == "" {
		return in, fmt.Errorf("a prompt or --file is required: %w", domain.ErrEmptyPrompt)
	}

	setIf(&in.Name, o.Name)
	setIf(&in.Model, o.Model)
	setIf(&in.Mode, o.Mode)
	setIf(&in.Recipients.Primary, o.Target)
	setIf(&in.Recipients.CallbackGroup, o.CallbackGroup)
	setIf(&in.Recipients.CallbackDM, o.CallbackDM)
	setIf(&in.Recipients.DMAccount, o.CallbackAccount)
	if o.RunMode != "" {
		in.RunMode = domain.RunMode(o.RunMode)
	}
	return in, nil
}

// readTaskFile parses a task file and returns the directory it lives in.
func readTaskFile(path string) (*domain.TaskFile, string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, "", fmt.Errorf("resolve task file: %w", err)
	}
	// #nosec G304 - path comes from the command line
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, "", fmt.Errorf("read task file: %w", err)
	}
	tf, err := domain.ParseTaskFile(string(data))
	if err != nil {
		return nil, "", fmt.Errorf("parse %s: %w", path, err)
	}
	return tf, filepath.Dir(abs), nil
}

func resolveRelative(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// splitAtDash separates positional args from the args after "--".
func splitAtDash(cmd *cobra.Command, args []string) ([]string, []string) {
	n := cmd.ArgsLenAtDash()
	if n < 0 {
		return args, nil
	}
	return args[:n], args[n:]
}

func nonZero(code int) int {
	if code == 0 {
		return 1
	}
	return code
}
