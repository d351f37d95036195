package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/heinsupport/hein-assist/internal"
	"github.com/spf13/cobra"
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	previewStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Italic(true)
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List past conversations",
	Long:  `List saved conversations, newest first, with message count and last activity.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := openApp(commandContext(cmd))
		if err != nil {
			return err
		}
		defer closeApp(app)

		displaySessions(cmd.OutOrStdout(), internal.Summarize(app.Sessions().Sessions()), time.Now())
		return nil
	},
}

func displaySessions(out io.Writer, rows []internal.SessionSummary, now time.Time) {
	if len(rows) == 0 {
		fmt.Fprintln(out, headerStyle.Render("📋 No conversations yet"))
		return
	}

	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("📋 Found %d conversation(s)", len(rows))))
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Title")+"\t"+titleStyle.Render("Messages")+"\t"+titleStyle.Render("Last activity")+"\t"+titleStyle.Render("Last message")+"\t")
	_, _ = fmt.Fprintln(w, strings.Repeat("─", 110))

	for _, row := range rows {
		title := row.Title
		if title == "" {
			title = "Untitled"
		}

		// Show short ID for readability; commands accept unique prefixes
		shortID := row.ID
		if len(shortID) > 8 {
			shortID = shortID[:8]
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n",
			idStyle.Render(shortID),
			title,
			countStyle.Render(strconv.Itoa(row.MessageCount)),
			dateStyle.Render(internal.FormatActivity(row.LastActivity, now)),
			previewStyle.Render(row.Preview),
		)
	}

	_ = w.Flush()
	fmt.Fprintln(out)
	fmt.Fprintln(out, idStyle.Render("💡 Tip: Use the ID (e.g., ")+
		lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Render(rows[0].ID)+
		idStyle.Render(") with `hein-assist show <id>`"))
}

func init() {
	rootCmd.AddCommand(listCmd)
}
