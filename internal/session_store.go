package internal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"
)

const (
	sessionsKey   = "collection"
	titleMaxRunes = 40
	titleEllipsis = "..."
)

// SessionStore owns the conversation history. The collection is ordered
// newest-first and is replaced and persisted as a whole on every mutation,
// so readers only ever observe complete snapshots.
type SessionStore struct {
	durable *Durable
	now     func() time.Time

	writeMu sync.Mutex // serializes mutate+persist

	mu       sync.RWMutex
	sessions []*Session

	listeners notifier[[]Session]
}

// NewSessionStore creates an empty store backed by durable
func NewSessionStore(durable *Durable) *SessionStore {
	return &SessionStore{
		durable:  durable,
		now:      time.Now,
		sessions: []*Session{},
	}
}

// Load restores the collection from durable storage. Malformed or
// inconsistent data yields an empty collection; Load never fails.
func (s *SessionStore) Load(ctx context.Context) []Session {
	var stored []*Session
	if !s.durable.Load(ctx, NamespaceSessions, sessionsKey, &stored) {
		stored = []*Session{}
	}
	if err := validateCollection(stored); err != nil {
		LogWarn("Discarding stored sessions: %v", &ParseError{Source: NamespaceSessions, Key: sessionsKey, Err: err})
		stored = []*Session{}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.swap(stored)
	LogDebug("Loaded %d session(s)", len(stored))
	return s.Sessions()
}

func validateCollection(sessions []*Session) error {
	seen := make(map[string]struct{}, len(sessions))
	for i, sess := range sessions {
		if sess == nil || sess.ID == "" {
			return fmt.Errorf("session %d has no id", i)
		}
		if _, dup := seen[sess.ID]; dup {
			return fmt.Errorf("duplicate session id %s", sess.ID)
		}
		if len(sess.Messages) == 0 {
			return fmt.Errorf("session %s has no messages", sess.ID)
		}
		seen[sess.ID] = struct{}{}
	}
	return nil
}

// Sessions returns a snapshot of the collection, newest first
func (s *SessionStore) Sessions() []Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, *sess.clone())
	}
	return out
}

// Get returns a copy of the session with the given id
func (s *SessionStore) Get(id string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sess := find(s.sessions, id); sess != nil {
		return *sess.clone(), true
	}
	return Session{}, false
}

// Subscribe registers fn to receive a snapshot after every mutation
func (s *SessionStore) Subscribe(fn func([]Session)) func() {
	return s.listeners.subscribe(fn)
}

// CreateSession starts a new session whose only message is first and
// inserts it at the front of the collection. When persisting fails the
// session is still created in memory and a *StorageError is returned.
func (s *SessionStore) CreateSession(ctx context.Context, first Message) (Session, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current := s.snapshotLocked()
	id := NewID()
	for find(current, id) != nil {
		id = NewID()
	}

	sess := &Session{
		ID:           id,
		Title:        DeriveTitle(first.Content),
		Messages:     []Message{first},
		LastActivity: s.now(),
	}

	next := make([]*Session, 0, len(current)+1)
	next = append(next, sess)
	next = append(next, current...)

	err := s.commit(ctx, next)
	return *sess.clone(), err
}

// AppendMessage appends msg to the session and bumps its last activity.
// Returns ErrSessionNotFound without touching storage for unknown ids.
func (s *SessionStore) AppendMessage(ctx context.Context, sessionID string, msg Message) (Session, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current := s.snapshotLocked()
	idx := indexOf(current, sessionID)
	if idx < 0 {
		return Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	updated := current[idx].clone()
	updated.Messages = append(updated.Messages, msg)
	if now := s.now(); now.After(updated.LastActivity) {
		updated.LastActivity = now
	}

	next := make([]*Session, len(current))
	copy(next, current)
	next[idx] = updated

	err := s.commit(ctx, next)
	return *updated.clone(), err
}

// DeleteSession removes the session and reports whether it existed.
// Deleting an unknown id is a no-op. The caller owns the active-session
// pointer and must clear it when it referenced the deleted session.
func (s *SessionStore) DeleteSession(ctx context.Context, sessionID string) (bool, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current := s.snapshotLocked()
	idx := indexOf(current, sessionID)
	if idx < 0 {
		return false, nil
	}

	next := make([]*Session, 0, len(current)-1)
	next = append(next, current[:idx]...)
	next = append(next, current[idx+1:]...)

	return true, s.commit(ctx, next)
}

// commit persists next and then publishes it. In-memory state is replaced
// even when the write fails; the next successful write reconciles storage.
// Must be called with writeMu held.
func (s *SessionStore) commit(ctx context.Context, next []*Session) error {
	err := s.durable.Save(context.WithoutCancel(ctx), NamespaceSessions, sessionsKey, next)
	var storageErr *StorageError
	if errors.As(err, &storageErr) {
		LogError("Failed to persist sessions: %v", err)
	}
	s.swap(next)
	s.listeners.publish(s.Sessions())
	return err
}

func (s *SessionStore) snapshotLocked() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions
}

func (s *SessionStore) swap(next []*Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = next
}

func find(sessions []*Session, id string) *Session {
	if i := indexOf(sessions, id); i >= 0 {
		return sessions[i]
	}
	return nil
}

func indexOf(sessions []*Session, id string) int {
	for i, sess := range sessions {
		if sess.ID == id {
			return i
		}
	}
	return -1
}

// DeriveTitle builds a session title from the first user message: the
// first 40 characters, with "..." appended when the message is longer.
func DeriveTitle(content string) string {
	if utf8.RuneCountInString(content) <= titleMaxRunes {
		return content
	}
	runes := []rune(content)
	return string(runes[:titleMaxRunes]) + titleEllipsis
}
