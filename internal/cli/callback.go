package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runoshun/agent-dispatch/internal/domain"
	"github.com/runoshun/agent-dispatch/internal/usecase"
)

// newCallbackCommand creates the callback command group. It manages the
// workspace callback file read by "run".
func newCallbackCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "callback",
		Short: "Manage the workspace callback file",
		Long: `Manage ` + domain.CallbackFileName + ` in the workspace.

The callback file adds a group or direct-message recipient for the short
status line. Recipients given on the command line always win.`,
	}
	cmd.AddCommand(
		newCallbackSetCommand(e),
		newCallbackShowCommand(e),
		newCallbackClearCommand(e),
	)
	return cmd
}

func newCallbackSetCommand(e *env) *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "set <group|dm|wake> [target]",
		Short: "Write the callback file",
		Example: `  agent-dispatch callback set group chat:oc_456
  agent-dispatch callback set dm user:ou_789 --account bot2
  agent-dispatch callback set wake`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := e.container(cmd)
			if err != nil {
				return err
			}

			cb := &domain.Callback{Type: domain.CallbackType(args[0]), Account: account}
			if len(args) == 2 {
				switch cb.Type {
				case domain.CallbackGroup:
					cb.Group = args[1]
				case domain.CallbackDM:
					cb.DM = args[1]
				default:
					return fmt.Errorf("callback type %s takes no target", cb.Type)
				}
			}

			out, err := c.SetCallbackUseCase().Execute(cmd.Context(), usecase.CallbackInput{
				Callback: cb,
				WorkDir:  c.Config.WorkDir,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out.Path)
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "Sender account for dm callbacks")

	return cmd
}

func newCallbackShowCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the callback file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := e.container(cmd)
			if err != nil {
				return err
			}

			out, err := c.ShowCallbackUseCase().Execute(cmd.Context(), usecase.CallbackInput{WorkDir: c.Config.WorkDir})
			if err != nil {
				return err
			}
			if out.Callback == nil {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "No callback file at %s\n", out.Path)
				return nil
			}
			data, err := json.MarshalIndent(out.Callback, "", "  ")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func newCallbackClearCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the callback file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := e.container(cmd)
			if err != nil {
				return err
			}

			out, err := c.ClearCallbackUseCase().Execute(cmd.Context(), usecase.CallbackInput{WorkDir: c.Config.WorkDir})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", out.Path)
			return nil
		},
	}
}
