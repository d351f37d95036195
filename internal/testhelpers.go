package internal

import (
	"time"
)

// testEpoch keeps fixture timestamps stable across runs
var testEpoch = time.Date(2025, time.March, 14, 9, 30, 0, 0, time.UTC)

// CreateTestSession creates a test session with one complete turn
func CreateTestSession(id string) *Session {
	return CreateTestSessionWithMessages(id, []Message{
		CreateTestMessage(RoleUser, "Oven E3 error code", testEpoch),
		CreateTestMessage(RoleAssistant, "Check the door sensor.", testEpoch.Add(2*time.Second)),
	})
}

// CreateTestSessionWithMessages creates a test session with custom messages.
// The title and last activity are derived the way SessionStore derives them.
func CreateTestSessionWithMessages(id string, messages []Message) *Session {
	sess := &Session{
		ID:           id,
		Messages:     messages,
		LastActivity: testEpoch,
	}
	if len(messages) > 0 {
		sess.Title = DeriveTitle(messages[0].Content)
		sess.LastActivity = messages[len(messages)-1].Timestamp
	}
	return sess
}

// CreateTestMessage creates a message with a fresh id
func CreateTestMessage(role Role, content string, at time.Time) Message {
	return Message{
		ID:        NewID(),
		Role:      role,
		Content:   content,
		Timestamp: at,
	}
}
