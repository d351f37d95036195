package internal

import "time"

// Session represents one conversation thread
type Session struct {
	ID           string    `json:"id" yaml:"id"`
	Title        string    `json:"title" yaml:"title"`
	Messages     []Message `json:"messages" yaml:"messages"`
	LastActivity time.Time `json:"lastTimestamp" yaml:"last_activity"`
}

// Message represents a single user or assistant message. Messages are
// immutable once appended to a session.
type Message struct {
	ID        string    `json:"id" yaml:"id"`
	Role      Role      `json:"role" yaml:"role"`
	Content   string    `json:"content" yaml:"content"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// clone returns a deep copy so callers never share the messages slice with
// the store.
func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Messages = make([]Message, len(s.Messages))
	copy(cp.Messages, s.Messages)
	return &cp
}

// LastMessage returns the newest message, or false for an empty session
func (s *Session) LastMessage() (Message, bool) {
	if s == nil || len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}
