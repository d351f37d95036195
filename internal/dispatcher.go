package internal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	// ConnectivityErrorText replaces the reply when a turn fails
	ConnectivityErrorText = "System Error: Could not reach the HEIN assistant. Please check your connection and try again."
	// EmptyReplyText replaces a reply that extracted to nothing
	EmptyReplyText = "Communication error."
)

// Assistant sends one chat turn to the remote workflow
type Assistant interface {
	Send(ctx context.Context, req WorkflowRequest) (string, error)
}

// MessageDispatcher runs conversation turns: it records the user message,
// calls the assistant exactly once and records exactly one reply or error
// message. It does not serialize calls; callers must keep at most one send
// outstanding per session.
type MessageDispatcher struct {
	sessions  *SessionStore
	assistant Assistant
	now       func() time.Time
}

// NewMessageDispatcher wires a dispatcher to its session store and assistant
func NewMessageDispatcher(sessions *SessionStore, assistant Assistant) *MessageDispatcher {
	return &MessageDispatcher{
		sessions:  sessions,
		assistant: assistant,
		now:       time.Now,
	}
}

// Chat is one chat instance. Its correlation token is stable for the life of
// the instance and lets the workflow keep its own conversation context.
type Chat struct {
	dispatcher *MessageDispatcher
	token      string

	mu       sync.Mutex
	language Language
}

// NewChat starts a chat instance with a fresh correlation token
func (d *MessageDispatcher) NewChat(lang Language) *Chat {
	return &Chat{
		dispatcher: d,
		token:      NewCorrelationToken(d.now()),
		language:   lang,
	}
}

// Token returns the correlation token sent with every turn
func (c *Chat) Token() string {
	return c.token
}

// Language returns the locale sent with the next turn
func (c *Chat) Language() Language {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.language
}

// SetLanguage changes the locale for subsequent turns
func (c *Chat) SetLanguage(lang Language) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.language = lang
}

// Outcome describes a finished turn
type Outcome struct {
	Session  Session // the session after the reply was appended
	Created  bool    // the turn started a new session
	Reply    Message
	Failed   bool  // Reply carries the connectivity error text
	Err      error // the dispatch failure behind Failed
	StoreErr error // last persistence failure during the turn, if any
}

type sendConfig struct {
	onSession func(Session)
}

// SendOption customizes a single Send
type SendOption func(*sendConfig)

// WithSessionCallback calls fn once the user message is recorded and before
// the assistant is contacted
func WithSessionCallback(fn func(Session)) SendOption {
	return func(c *sendConfig) {
		c.onSession = fn
	}
}

// Send runs one turn. With an empty activeID a new session is created from
// the user message; otherwise the message is appended to that session.
// Validation failures and unknown sessions return an error before anything
// is recorded. Dispatch failures never return an error: they are recorded in
// the conversation and reported through the Outcome.
func (c *Chat) Send(ctx context.Context, activeID, text string, opts ...SendOption) (Outcome, error) {
	cfg := sendConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	if strings.TrimSpace(text) == "" {
		return Outcome{}, ErrEmptyMessage
	}

	d := c.dispatcher
	userMsg := Message{
		ID:        NewID(),
		Role:      RoleUser,
		Content:   text,
		Timestamp: d.now(),
	}

	var (
		out  Outcome
		sess Session
		err  error
	)
	if activeID == "" {
		sess, err = d.sessions.CreateSession(ctx, userMsg)
		out.Created = true
	} else {
		sess, err = d.sessions.AppendMessage(ctx, activeID, userMsg)
		if errors.Is(err, ErrSessionNotFound) {
			return Outcome{}, err
		}
	}
	if err != nil {
		out.StoreErr = err
	}
	if cfg.onSession != nil {
		cfg.onSession(sess)
	}

	req := WorkflowRequest{
		Message:   text,
		SessionID: c.token,
		Language:  c.Language(),
	}
	LogDebug("Dispatching turn for session %s", sess.ID)
	replyText, err := d.assistant.Send(ctx, req)
	if err != nil {
		LogWarn("Assistant request failed: %v", err)
		out.Failed = true
		out.Err = err
		replyText = ConnectivityErrorText
	} else if strings.TrimSpace(replyText) == "" {
		replyText = EmptyReplyText
	}

	out.Reply = Message{
		ID:        NewID(),
		Role:      RoleAssistant,
		Content:   replyText,
		Timestamp: d.now(),
	}

	// target the session by id; the active pointer may have moved meanwhile
	sess, err = d.sessions.AppendMessage(ctx, sess.ID, out.Reply)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return out, fmt.Errorf("session deleted during dispatch: %w", err)
		}
		out.StoreErr = err
	}
	out.Session = sess
	return out, nil
}
