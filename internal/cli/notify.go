package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runoshun/agent-dispatch/internal/usecase"
)

// newNotifyCommand creates the notify command. It is the entry point for
// external completion hooks.
func newNotifyCommand(e *env) *cobra.Command {
	var opts struct {
		TaskID    string
		NoSettle  bool
		ShowStage bool
	}

	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Report a finished task to its recipients",
		Long: `Collect the capture of a finished task, deliver the report, and
persist the latest result.

Without --task the current task is used. Repeated triggers for the same
task within the dedup window are skipped. Delivery failures are logged
and never fail the command; only persistence failures do.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := e.container(cmd)
			if err != nil {
				return err
			}

			out, err := c.NotifyCompletionUseCase().Execute(cmd.Context(), usecase.NotifyCompletionInput{
				TaskID:     opts.TaskID,
				SkipSettle: opts.NoSettle,
			})
			if out != nil && opts.ShowStage {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), out.Stage)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&opts.TaskID, "task", "", "Task id (default: current task)")
	cmd.Flags().BoolVar(&opts.NoSettle, "no-settle", false, "Skip the settle delay")
	cmd.Flags().BoolVar(&opts.ShowStage, "stage", false, "Print the final stage reached")

	return cmd
}
