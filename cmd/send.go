package cmd

import (
	"fmt"
	"strings"

	"github.com/heinsupport/hein-assist/internal"
	"github.com/spf13/cobra"
)

var sendSession string

// sendCmd runs a single turn from the command line
var sendCmd = &cobra.Command{
	Use:   "send [--session <id>] <message...>",
	Short: "Ask the assistant a single question",
	Long: `Send one message to the assistant and print its reply.

Without --session a new conversation is started. With --session the message
is appended to that conversation. The session ID is printed on stderr so
follow-up questions can continue the same conversation.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		app, _, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(app)

		target := ""
		if sendSession != "" {
			session, err := resolveSession(app, sendSession)
			if err != nil {
				return err
			}
			target = session.ID
		}

		text := strings.Join(args, " ")
		var outcome internal.Outcome
		err = internal.ShowProgress(ctx, "HEIN is typing...", func() error {
			var sendErr error
			outcome, sendErr = app.SendTo(ctx, target, text)
			return sendErr
		})
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), outcome.Reply.Content)
		fmt.Fprintf(cmd.ErrOrStderr(), "session %s\n", outcome.Session.ID)

		if outcome.StoreErr != nil {
			internal.PrintWarning(cmd.ErrOrStderr(), "The conversation could not be saved; it will be lost on exit")
		}
		if outcome.Failed {
			return fmt.Errorf("assistant unreachable: %w", outcome.Err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&sendSession, "session", "s", "", "Continue an existing conversation")
}
