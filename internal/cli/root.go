// Package cli provides the command-line interface for agent-dispatch.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runoshun/agent-dispatch/internal/app"
)

// Command group IDs.
const (
	groupDispatch = "dispatch"
	groupRecord   = "record"
)

// Builder creates the container once the global flags are parsed.
type Builder func(app.Options) (*app.Container, error)

// env carries the lazily built container between the root and its subcommands.
type env struct {
	build Builder
	c     *app.Container
	opts  app.Options
}

// container builds the container on first use.
func (e *env) container(cmd *cobra.Command) (*app.Container, error) {
	if e.c != nil {
		return e.c, nil
	}
	opts := e.opts
	opts.Stdout = cmd.OutOrStdout()
	opts.Stderr = cmd.ErrOrStderr()
	c, err := e.build(opts)
	if err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}
	e.c = c
	return c, nil
}

// NewRootCommand creates the root command for agent-dispatch.
// build is called once per invocation after flag parsing.
func NewRootCommand(build Builder, version string) *cobra.Command {
	e := &env{build: build}

	root := &cobra.Command{
		Use:   "agent-dispatch",
		Short: "Dispatch coding-agent tasks and relay their completion",
		Long: `agent-dispatch launches a coding-agent CLI against a task prompt,
captures its output, and reports completion through a messaging CLI
and a local wake webhook.

A run records the task, streams the agent output to the terminal and
a capture file, then notifies the configured recipients. Duplicate
completion triggers within the dedup window are skipped.`,
		Version: version,
		// SilenceUsage prevents usage from being printed on errors
		SilenceUsage: true,
		// SilenceErrors prevents Cobra from printing errors (we handle it in main)
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			c, err := e.container(cmd)
			if err != nil {
				return err
			}
			// The detached wake child has no terminal to warn on
			if cmd.Name() == wakeCommandName {
				return nil
			}
			for _, w := range c.AppConfig.Warnings {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", w)
			}
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if e.c == nil {
				return nil
			}
			return e.c.Close()
		},
	}

	root.PersistentFlags().StringVarP(&e.opts.WorkDir, "workdir", "C", "", "Workspace directory (default: current directory)")
	root.PersistentFlags().StringVar(&e.opts.StoreDir, "dir", "", "Result directory (default: [store] dir, $AGENT_DISPATCH_DIR, or ~/.local/state/agent-dispatch)")

	root.AddGroup(
		&cobra.Group{ID: groupDispatch, Title: "Dispatch Commands:"},
		&cobra.Group{ID: groupRecord, Title: "Record Commands:"},
	)

	runCmd := newRunCommand(e)
	runCmd.GroupID = groupDispatch

	notifyCmd := newNotifyCommand(e)
	notifyCmd.GroupID = groupDispatch

	callbackCmd := newCallbackCommand(e)
	callbackCmd.GroupID = groupDispatch

	recordCmd := newRecordCommand(e)
	recordCmd.GroupID = groupRecord

	showCmd := newShowCommand(e)
	showCmd.GroupID = groupRecord

	root.AddCommand(
		runCmd,
		notifyCmd,
		callbackCmd,
		recordCmd,
		showCmd,
		newWakeCommand(e),
	)

	return root
}
