package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ReplyShape identifies which known response layout produced a reply
type ReplyShape string

const (
	ShapeString   ReplyShape = "string"   // the body is a bare JSON string
	ShapeOutput   ReplyShape = "output"   // {"output": ...}, the usual chat trigger reply
	ShapeResponse ReplyShape = "response" // {"response": ...}
	ShapeText     ReplyShape = "text"     // {"text": ...}
	ShapeMessage  ReplyShape = "message"  // {"message": ...}
	ShapePayload  ReplyShape = "payload"  // nothing matched; the whole body as text
)

// replyFields is tried in order; the first present, non-null field wins
var replyFields = []ReplyShape{ShapeOutput, ShapeResponse, ShapeText, ShapeMessage}

// Reply is the text extracted from a workflow response
type Reply struct {
	Text  string
	Shape ReplyShape
}

// ExtractReply pulls the assistant text out of a workflow response body.
// A top-level array is unwrapped to its first element. Bodies that are not
// JSON, or are JSON null, are malformed.
func ExtractReply(body []byte) (Reply, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Reply{}, &ParseError{Source: "workflow", Key: "body", Err: fmt.Errorf("empty response body")}
	}
	if !json.Valid(trimmed) {
		return Reply{}, &ParseError{Source: "workflow", Key: "body", Err: fmt.Errorf("response is not JSON")}
	}

	// n8n answers with a list of items; only the first is the reply
	if trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return Reply{}, &ParseError{Source: "workflow", Key: "body", Err: err}
		}
		if len(items) > 0 {
			trimmed = bytes.TrimSpace(items[0])
		}
	}

	switch trimmed[0] {
	case 'n':
		return Reply{}, &ParseError{Source: "workflow", Key: "body", Err: fmt.Errorf("response is null")}
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return Reply{}, &ParseError{Source: "workflow", Key: "body", Err: err}
		}
		return Reply{Text: s, Shape: ShapeString}, nil
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return Reply{}, &ParseError{Source: "workflow", Key: "body", Err: err}
		}
		for _, shape := range replyFields {
			raw, ok := fields[string(shape)]
			if !ok || isJSONNull(raw) {
				continue
			}
			return Reply{Text: rawText(raw), Shape: shape}, nil
		}
	}

	return Reply{Text: compactJSON(trimmed), Shape: ShapePayload}, nil
}

func isJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// rawText returns a JSON string's value, or any other JSON value as text
func rawText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return compactJSON(raw)
}

func compactJSON(raw []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
