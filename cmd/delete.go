package cmd

import (
	"fmt"

	"github.com/heinsupport/hein-assist/internal"
	"github.com/spf13/cobra"
)

// deleteCmd removes a conversation from history
var deleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a conversation",
	Long:  `Remove a conversation and all its messages from history.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		app, _, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(app)

		session, err := resolveSession(app, args[0])
		if err != nil {
			return err
		}

		removed, err := app.DeleteSession(ctx, session.ID)
		if err != nil {
			return fmt.Errorf("failed to delete conversation: %w", err)
		}
		if !removed {
			internal.PrintInfo(cmd.OutOrStdout(), fmt.Sprintf("Conversation %s was already deleted", session.ID))
			return nil
		}
		internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Deleted conversation %q (%s)", session.Title, session.ID))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
