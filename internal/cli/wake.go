package cli

import (
	"github.com/spf13/cobra"

	"github.com/runoshun/agent-dispatch/internal/infra/wake"
)

const wakeCommandName = wake.WakeCommand

// newWakeCommand creates the hidden command run by the detached wake child.
// It posts one wake request and logs the outcome.
func newWakeCommand(e *env) *cobra.Command {
	var text string

	cmd := &cobra.Command{
		Use:    wakeCommandName,
		Short:  "Post a wake request (internal)",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := e.container(cmd)
			if err != nil {
				return err
			}

			token, err := wake.ReadToken(c.Config.TokenFile, c.AppConfig.Wake.TokenKey)
			if err != nil {
				c.Logger.Warn("", "wake", err.Error())
				return err
			}

			client := c.WakeClient(token)
			if err := client.Post(cmd.Context(), text); err != nil {
				c.Logger.Warn("", "wake", "post "+client.URL()+": "+err.Error())
				return err
			}
			c.Logger.Info("", "wake", "posted to "+client.URL())
			return nil
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Wake text")

	return cmd
}
