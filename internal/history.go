package internal

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// SessionSummary is one row of the history view
type SessionSummary struct {
	ID           string
	Title        string
	MessageCount int
	LastActivity time.Time
	Preview      string
}

// previewRunes bounds the last-message preview in the history view
const previewRunes = 60

// Summarize builds history rows in collection order, newest first
func Summarize(sessions []Session) []SessionSummary {
	out := make([]SessionSummary, 0, len(sessions))
	for i := range sessions {
		sess := &sessions[i]
		row := SessionSummary{
			ID:           sess.ID,
			Title:        sess.Title,
			MessageCount: len(sess.Messages),
			LastActivity: sess.LastActivity,
		}
		if last, ok := sess.LastMessage(); ok {
			row.Preview = truncateRunes(strings.Join(strings.Fields(last.Content), " "), previewRunes)
		}
		out = append(out, row)
	}
	return out
}

// FormatActivity renders a last-activity time relative to now
func FormatActivity(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	if now.Sub(t) < time.Minute && !t.After(now) {
		return "just now"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// FormatSize renders a byte count for the manuals list
func FormatSize(n int) string {
	return humanize.Bytes(uint64(n))
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + titleEllipsis
}
