package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// PDFBytes returns a minimal but well-formed PDF document
func PDFBytes() []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	buf.WriteString("1 0 obj << /Type /Catalog /Pages 2 0 R >> endobj\n")
	buf.WriteString("2 0 obj << /Type /Pages /Kids [3 0 R] /Count 1 >> endobj\n")
	buf.WriteString("3 0 obj << /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >> endobj\n")
	buf.WriteString("trailer << /Root 1 0 R >>\n%%EOF\n")
	return buf.Bytes()
}

// PNGBytes returns the header of a PNG image, enough for type sniffing
func PNGBytes() []byte {
	return []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
}

// StoredMessage mirrors the persisted message layout
type StoredMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// StoredSession mirrors the persisted session layout
type StoredSession struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Messages      []StoredMessage `json:"messages"`
	LastTimestamp time.Time       `json:"lastTimestamp"`
}

// SessionCollectionJSON builds a persisted collection of n sessions, each
// holding one turn, newest first
func SessionCollectionJSON(n int, start time.Time) string {
	sessions := make([]StoredSession, 0, n)
	for i := n - 1; i >= 0; i-- {
		at := start.Add(time.Duration(i) * time.Minute)
		sessions = append(sessions, StoredSession{
			ID:    fmt.Sprintf("session-%d", i+1),
			Title: fmt.Sprintf("Question %d", i+1),
			Messages: []StoredMessage{
				{ID: fmt.Sprintf("m%d-1", i+1), Role: "user", Content: fmt.Sprintf("Question %d", i+1), Timestamp: at},
				{ID: fmt.Sprintf("m%d-2", i+1), Role: "assistant", Content: fmt.Sprintf("Answer %d", i+1), Timestamp: at.Add(time.Second)},
			},
			LastTimestamp: at.Add(time.Second),
		})
	}
	data, err := json.Marshal(sessions)
	if err != nil {
		panic(err)
	}
	return string(data)
}
