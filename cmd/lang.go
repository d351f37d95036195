package cmd

import (
	"fmt"
	"strings"

	"github.com/heinsupport/hein-assist/internal"
	"github.com/spf13/cobra"
)

// langCmd shows or persists the language preference
var langCmd = &cobra.Command{
	Use:   "lang [code]",
	Short: "Show or set the assistant language",
	Long: `Show the current language, or save a new one.

Supported languages: EN, FR, DE, NL. The saved language takes precedence over
the configured default.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		app, _, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(app)

		out := cmd.OutOrStdout()
		if len(args) == 0 {
			codes := make([]string, len(internal.SupportedLanguages))
			for i, l := range internal.SupportedLanguages {
				codes[i] = string(l)
			}
			fmt.Fprintf(out, "%s (supported: %s)\n", app.State().Language, strings.Join(codes, ", "))
			return nil
		}

		lang, err := internal.ParseLanguage(args[0])
		if err != nil {
			return err
		}
		if err := app.SetLanguage(ctx, lang); err != nil {
			return fmt.Errorf("failed to save language: %w", err)
		}
		internal.PrintSuccess(out, fmt.Sprintf("Language set to %s", lang))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(langCmd)
}
