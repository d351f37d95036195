package export

import (
	"encoding/json"
	"io"

	"github.com/heinsupport/hein-assist/internal"
)

// transcript is the durable session record plus a turn summary. It is the
// document written by the JSON and YAML exporters.
type transcript struct {
	internal.Session `yaml:",inline"`
	MessageCount     int `json:"messageCount" yaml:"message_count"`
	FailedTurns      int `json:"failedTurns" yaml:"failed_turns"`
}

func newTranscript(session *internal.Session) transcript {
	t := transcript{Session: *session, MessageCount: len(session.Messages)}
	for _, msg := range session.Messages {
		if msg.Role == internal.RoleAssistant && msg.Content == internal.ConnectivityErrorText {
			t.FailedTurns++
		}
	}
	return t
}

// JSONExporter writes a session as an indented transcript. Existing readers
// of the durable session record can decode it unchanged.
type JSONExporter struct{}

// Export exports a session to JSON format
func (e *JSONExporter) Export(session *internal.Session, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	if err := enc.Encode(newTranscript(session)); err != nil {
		return &internal.ExportError{Format: "json", Path: session.ID, Err: err}
	}
	return nil
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}
