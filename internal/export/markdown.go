package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/heinsupport/hein-assist/internal"
)

const markdownTimeLayout = "2006-01-02 15:04:05"

// MarkdownExporter exports sessions in Markdown format
type MarkdownExporter struct{}

// Export exports a session to Markdown format
func (e *MarkdownExporter) Export(session *internal.Session, w io.Writer) error {
	title := session.Title
	if title == "" {
		title = "Session " + session.ID
	}
	_, _ = fmt.Fprintf(w, "# %s\n\n", escapeMarkdown(title))

	_, _ = fmt.Fprintf(w, "**Session:** %s  \n", session.ID)
	if !session.LastActivity.IsZero() {
		_, _ = fmt.Fprintf(w, "**Last activity:** %s  \n", session.LastActivity.Local().Format(markdownTimeLayout))
	}
	_, _ = fmt.Fprintf(w, "**Messages:** %d\n\n", len(session.Messages))

	_, _ = fmt.Fprintf(w, "---\n\n")
	_, _ = fmt.Fprintf(w, "## Messages\n\n")

	for i, msg := range session.Messages {
		timestamp := ""
		if !msg.Timestamp.IsZero() {
			timestamp = fmt.Sprintf(" (%s)", msg.Timestamp.Local().Format(markdownTimeLayout))
		}

		_, _ = fmt.Fprintf(w, "**%s:**%s\n\n%s\n\n", roleLabel(msg.Role), timestamp, escapeMarkdown(msg.Content))

		// rule between messages, not after the last
		if i < len(session.Messages)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

func roleLabel(role internal.Role) string {
	switch role {
	case internal.RoleUser:
		return "You"
	case internal.RoleAssistant:
		return "HEIN"
	default:
		return string(role)
	}
}

// escapeMarkdown escapes emphasis markers outside fenced code blocks
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}

// Filename builds the default export file name for a session,
// hein_session_<date>_<time>.<ext>, from the session's last activity
func Filename(session *internal.Session, ext string) string {
	t := session.LastActivity
	if t.IsZero() {
		t = time.Now()
	}
	return fmt.Sprintf("hein_session_%s.%s", t.Local().Format("2006-01-02_15-04-05"), ext)
}
