package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runoshun/agent-dispatch/internal/domain"
	"github.com/runoshun/agent-dispatch/internal/usecase"
)

// newRecordCommand creates the record command group used by external
// launchers that run the agent themselves.
func newRecordCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Manage task records",
		Long: `Manage task records directly.

Launchers that start the agent on their own call "record begin" before
the launch and "record complete" after it exits, then trigger "notify".`,
	}
	cmd.AddCommand(
		newRecordBeginCommand(e),
		newRecordCompleteCommand(e),
		newRecordShowCommand(e),
	)
	return cmd
}

func newRecordBeginCommand(e *env) *cobra.Command {
	var opts struct {
		ID            string
		Name          string
		Prompt        string
		Model         string
		Target        string
		CallbackGroup string
		CallbackDM    string
		Account       string
	}

	cmd := &cobra.Command{
		Use:   "begin",
		Short: "Create a running task record and make it current",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := e.container(cmd)
			if err != nil {
				return err
			}

			out, err := c.BeginTaskUseCase().Execute(cmd.Context(), usecase.BeginTaskInput{
				Recipients: domain.Recipients{
					Primary:       opts.Target,
					CallbackGroup: opts.CallbackGroup,
					CallbackDM:    opts.CallbackDM,
					DMAccount:     opts.Account,
				},
				ID:      opts.ID,
				Name:    opts.Name,
				WorkDir: c.Config.WorkDir,
				Prompt:  opts.Prompt,
				Model:   opts.Model,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), out.Record.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.ID, "id", "", "Task id (default: generated from the name)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "Task name (required)")
	cmd.Flags().StringVar(&opts.Prompt, "prompt", "", "Prompt, kept for audit")
	cmd.Flags().StringVar(&opts.Model, "model", "", "Model name")
	cmd.Flags().StringVar(&opts.Target, "target", "", "Primary recipient")
	cmd.Flags().StringVar(&opts.CallbackGroup, "callback-group", "", "Group recipient")
	cmd.Flags().StringVar(&opts.CallbackDM, "callback-dm", "", "Direct-message recipient")
	cmd.Flags().StringVar(&opts.Account, "callback-account", "", "Sender account for the direct message")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newRecordCompleteCommand(e *env) *cobra.Command {
	var opts struct {
		TaskID   string
		ExitCode int
	}

	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Mark a task record done with its exit code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := e.container(cmd)
			if err != nil {
				return err
			}

			out, err := c.CompleteTaskUseCase().Execute(cmd.Context(), usecase.CompleteTaskInput{
				TaskID:   opts.TaskID,
				ExitCode: opts.ExitCode,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", out.Record.ID, domain.OutcomeOf(out.Record.ExitCode))
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.TaskID, "task", "", "Task id (default: current task)")
	cmd.Flags().IntVar(&opts.ExitCode, "exit-code", 0, "Agent exit code")

	return cmd
}

// recordView is the JSON shape printed by "record show".
type recordView struct {
	*domain.TaskRecord
	ModTime string `json:"modified_at"`
	Capture string `json:"capture,omitempty"`
	Stale   bool   `json:"stale"`
}

func newRecordShowCommand(e *env) *cobra.Command {
	var opts struct {
		TaskID string
		Tail   int
	}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a task record as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := e.container(cmd)
			if err != nil {
				return err
			}

			out, err := c.ShowTaskUseCase().Execute(cmd.Context(), usecase.ShowTaskInput{
				TaskID:      opts.TaskID,
				CaptureTail: opts.Tail,
			})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(recordView{
				TaskRecord: out.Record,
				ModTime:    out.ModTime.Format(domain.TimestampLayout),
				Capture:    out.Capture,
				Stale:      out.Stale,
			})
		},
	}

	cmd.Flags().StringVar(&opts.TaskID, "task", "", "Task id (default: current task)")
	cmd.Flags().IntVar(&opts.Tail, "tail", 0, "Include the last N characters of the capture")

	return cmd
}
