package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runoshun/agent-dispatch/internal/domain"
	"github.com/runoshun/agent-dispatch/internal/usecase"
)

// newShowCommand creates the show command for the latest result.
func newShowCommand(e *env) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the most recently finished task",
		Long: `Show latest.json and pending_wake.json from the result directory.

These are single-slot records: each notifier run overwrites them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := e.container(cmd)
			if err != nil {
				return err
			}

			out, err := c.ShowResultUseCase().Execute(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return printResultJSON(cmd.OutOrStdout(), out)
			}
			printResult(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	return cmd
}

func printResultJSON(w io.Writer, out *usecase.ShowResultOutput) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Result      *domain.ResultRecord      `json:"latest"`
		PendingWake *domain.PendingWakeRecord `json:"pending_wake"`
	}{out.Result, out.PendingWake})
}

func printResult(w io.Writer, out *usecase.ShowResultOutput) {
	s := newStyles(w)

	if out.Result == nil {
		_, _ = fmt.Fprintln(w, s.Muted.Render("No result recorded yet."))
		return
	}

	r := out.Result
	outcome := domain.Outcome(r.Outcome)
	_, _ = fmt.Fprintf(w, "%s %s\n",
		s.OutcomeStyle(outcome).Render(outcome.Marker()),
		s.Title.Render(r.TaskName))

	field := func(label, value string) {
		if value == "" {
			return
		}
		_, _ = fmt.Fprintf(w, "%s%s\n", s.Label.Render(label), s.Value.Render(value))
	}
	field("Task", r.TaskID)
	field("Outcome", s.OutcomeStyle(outcome).Render(r.Outcome))
	if r.ExitCode != nil {
		field("Exit", fmt.Sprintf("%d", *r.ExitCode))
	}
	field("Duration", r.Duration)
	field("Finished", r.Timestamp)
	field("Target", r.Recipient)

	if strings.TrimSpace(r.Output) != "" {
		_, _ = fmt.Fprintln(w, s.Section.Render("Output"))
		_, _ = fmt.Fprintln(w, s.Output.Render(strings.TrimRight(r.Output, "\n")))
	}

	if out.PendingWake != nil {
		_, _ = fmt.Fprintln(w, s.Section.Render("Pending wake"))
		_, _ = fmt.Fprintln(w, s.Muted.Render(out.PendingWake.Summary))
	}
}
