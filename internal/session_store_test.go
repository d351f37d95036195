package internal

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/heinsupport/hein-assist/internal/kv"
	"github.com/heinsupport/hein-assist/testutil"
)

func newTestSessionStore(t *testing.T, store kv.Store) (*SessionStore, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	s := NewSessionStore(NewDurable(store))
	s.now = clock.Now
	return s, clock
}

func userMessage(content string) Message {
	return CreateTestMessage(RoleUser, content, time.Now())
}

func TestSessionStore_CreateSession(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemoryStore()
	s, _ := newTestSessionStore(t, mem)

	first, err := s.CreateSession(ctx, userMessage("Oven E3 error code"))
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	second, err := s.CreateSession(ctx, userMessage("Fridge is not cooling"))
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	if first.Title != "Oven E3 error code" {
		t.Errorf("Title = %q, want %q", first.Title, "Oven E3 error code")
	}
	if len(first.Messages) != 1 || first.Messages[0].Content != "Oven E3 error code" {
		t.Errorf("new session messages = %+v, want only the first message", first.Messages)
	}
	if first.ID == second.ID {
		t.Fatalf("two sessions share id %s", first.ID)
	}

	sessions := s.Sessions()
	if len(sessions) != 2 || sessions[0].ID != second.ID || sessions[1].ID != first.ID {
		t.Errorf("collection order = %v, want newest first", sessionIDs(sessions))
	}

	reloaded, _ := newTestSessionStore(t, mem)
	if got := sessionIDs(reloaded.Load(ctx)); strings.Join(got, ",") != second.ID+","+first.ID {
		t.Errorf("persisted collection = %v, want [%s %s]", got, second.ID, first.ID)
	}
}

func TestSessionStore_UniqueIDs(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestSessionStore(t, kv.NewMemoryStore())
	frozen := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		clock.Set(frozen)
		sess, err := s.CreateSession(ctx, userMessage(fmt.Sprintf("question %d", i)))
		if err != nil {
			t.Fatalf("CreateSession() error = %v", err)
		}
		if seen[sess.ID] {
			t.Fatalf("duplicate session id %s", sess.ID)
		}
		seen[sess.ID] = true
	}
}

func TestSessionStore_AppendMessageOrder(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSessionStore(t, kv.NewMemoryStore())

	sess, err := s.CreateSession(ctx, userMessage("message 0"))
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	want := []string{"message 0"}
	for i := 1; i <= 20; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		content := fmt.Sprintf("message %d", i)
		if _, err := s.AppendMessage(ctx, sess.ID, CreateTestMessage(role, content, time.Now())); err != nil {
			t.Fatalf("AppendMessage() error = %v", err)
		}
		want = append(want, content)
	}

	got, ok := s.Get(sess.ID)
	if !ok {
		t.Fatal("session disappeared")
	}
	if len(got.Messages) != len(want) {
		t.Fatalf("got %d messages, want %d", len(got.Messages), len(want))
	}
	for i, msg := range got.Messages {
		if msg.Content != want[i] {
			t.Errorf("message %d = %q, want %q", i, msg.Content, want[i])
		}
	}
}

func TestSessionStore_LastActivityNeverMovesBack(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestSessionStore(t, kv.NewMemoryStore())

	sess, _ := s.CreateSession(ctx, userMessage("hello"))
	before := sess.LastActivity

	clock.Set(before.Add(-time.Hour))
	updated, err := s.AppendMessage(ctx, sess.ID, userMessage("again"))
	if err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}
	if updated.LastActivity.Before(before) {
		t.Errorf("LastActivity moved back from %v to %v", before, updated.LastActivity)
	}

	clock.Set(before.Add(time.Hour))
	updated, _ = s.AppendMessage(ctx, sess.ID, userMessage("later"))
	if !updated.LastActivity.After(before) {
		t.Errorf("LastActivity = %v, want it after %v", updated.LastActivity, before)
	}
}

func TestSessionStore_AppendUnknownSession(t *testing.T) {
	ctx := context.Background()
	store := newFlakyStore()
	s, _ := newTestSessionStore(t, store)

	_, err := s.AppendMessage(ctx, "missing", userMessage("hello"))
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("AppendMessage() error = %v, want ErrSessionNotFound", err)
	}
	if n := store.puts.Load(); n != 0 {
		t.Errorf("AppendMessage() on an unknown session wrote %d time(s)", n)
	}
	if len(s.Sessions()) != 0 {
		t.Error("AppendMessage() on an unknown session changed the collection")
	}
}

func TestSessionStore_DeleteSession(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemoryStore()
	s, _ := newTestSessionStore(t, mem)

	a, _ := s.CreateSession(ctx, userMessage("a"))
	b, _ := s.CreateSession(ctx, userMessage("b"))

	removed, err := s.DeleteSession(ctx, a.ID)
	if err != nil || !removed {
		t.Fatalf("DeleteSession() = %v, %v; want true, nil", removed, err)
	}
	if got := sessionIDs(s.Sessions()); len(got) != 1 || got[0] != b.ID {
		t.Errorf("collection after delete = %v, want [%s]", got, b.ID)
	}

	removed, err = s.DeleteSession(ctx, "does-not-exist")
	if err != nil || removed {
		t.Errorf("DeleteSession(unknown) = %v, %v; want false, nil", removed, err)
	}

	reloaded, _ := newTestSessionStore(t, mem)
	if got := sessionIDs(reloaded.Load(ctx)); len(got) != 1 || got[0] != b.ID {
		t.Errorf("persisted collection after delete = %v, want [%s]", got, b.ID)
	}
}

func TestSessionStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "hein.db")

	store, err := kv.OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	s := NewSessionStore(NewDurable(store))

	first, _ := s.CreateSession(ctx, userMessage("Oven E3 error code"))
	_, _ = s.AppendMessage(ctx, first.ID, CreateTestMessage(RoleAssistant, "Check the door sensor.", time.Now()))
	second, _ := s.CreateSession(ctx, userMessage("Dishwasher error E24"))
	want := s.Sessions()
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	store, err = kv.OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer store.Close()

	got := NewSessionStore(NewDurable(store)).Load(ctx)
	if len(got) != len(want) {
		t.Fatalf("reloaded %d sessions, want %d", len(got), len(want))
	}
	if got[0].ID != second.ID {
		t.Errorf("first reloaded session = %s, want %s", got[0].ID, second.ID)
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].Title != want[i].Title {
			t.Errorf("session %d = %s/%q, want %s/%q", i, got[i].ID, got[i].Title, want[i].ID, want[i].Title)
		}
		if !got[i].LastActivity.Equal(want[i].LastActivity) {
			t.Errorf("session %d LastActivity = %v, want %v", i, got[i].LastActivity, want[i].LastActivity)
		}
		if len(got[i].Messages) != len(want[i].Messages) {
			t.Fatalf("session %d has %d messages, want %d", i, len(got[i].Messages), len(want[i].Messages))
		}
		for j := range want[i].Messages {
			g, w := got[i].Messages[j], want[i].Messages[j]
			if g.ID != w.ID || g.Role != w.Role || g.Content != w.Content || !g.Timestamp.Equal(w.Timestamp) {
				t.Errorf("session %d message %d = %+v, want %+v", i, j, g, w)
			}
		}
	}
}

func TestSessionStore_LoadDegradesToEmpty(t *testing.T) {
	valid := testutil.SessionCollectionJSON(2, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	tests := []struct {
		name   string
		stored string
		want   int
	}{
		{"valid collection", valid, 2},
		{"malformed JSON", `[{"id":"a",`, 0},
		{"wrong shape", `{"id":"a"}`, 0},
		{"session without messages", `[{"id":"a","title":"x","messages":[],"lastTimestamp":"2025-01-01T00:00:00Z"}]`, 0},
		{"duplicate ids", `[{"id":"a","messages":[{"id":"m","role":"user","content":"x","timestamp":"2025-01-01T00:00:00Z"}]},{"id":"a","messages":[{"id":"n","role":"user","content":"y","timestamp":"2025-01-01T00:00:00Z"}]}]`, 0},
		{"bad timestamp", `[{"id":"a","messages":[{"id":"m","role":"user","content":"x","timestamp":"yesterday"}]}]`, 0},
		{"null", `null`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dbPath := filepath.Join(t.TempDir(), "hein.db")
			testutil.CreateKVFixture(t, dbPath, map[string]map[string]string{
				NamespaceSessions: {sessionsKey: tt.stored},
			})

			store, err := kv.OpenSQLite(dbPath)
			if err != nil {
				t.Fatalf("OpenSQLite() error = %v", err)
			}
			defer store.Close()

			s := NewSessionStore(NewDurable(store))
			if got := s.Load(context.Background()); len(got) != tt.want {
				t.Errorf("Load() returned %d sessions, want %d", len(got), tt.want)
			}
		})
	}
}

func TestSessionStore_WriteFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	store := newFlakyStore()
	s, _ := newTestSessionStore(t, store)
	store.failWrites.Store(true)

	sess, err := s.CreateSession(ctx, userMessage("hello"))
	var storageErr *StorageError
	if !errors.As(err, &storageErr) || !errors.Is(err, errDiskFull) {
		t.Fatalf("CreateSession() error = %v, want a *StorageError wrapping errDiskFull", err)
	}
	if _, ok := s.Get(sess.ID); !ok {
		t.Error("session missing from memory after a failed write")
	}

	store.failWrites.Store(false)
	if _, err := s.AppendMessage(ctx, sess.ID, userMessage("again")); err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}
	reloaded, _ := newTestSessionStore(t, store)
	got := reloaded.Load(ctx)
	if len(got) != 1 || len(got[0].Messages) != 2 {
		t.Errorf("the next successful write should persist the whole collection, got %+v", got)
	}
}

func TestSessionStore_Subscribe(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSessionStore(t, kv.NewMemoryStore())

	var snapshots [][]Session
	unsubscribe := s.Subscribe(func(sessions []Session) {
		snapshots = append(snapshots, sessions)
	})

	sess, _ := s.CreateSession(ctx, userMessage("hello"))
	_, _ = s.AppendMessage(ctx, sess.ID, userMessage("again"))
	unsubscribe()
	_, _ = s.DeleteSession(ctx, sess.ID)

	if len(snapshots) != 2 {
		t.Fatalf("got %d notifications, want 2", len(snapshots))
	}
	if n := len(snapshots[1][0].Messages); n != 2 {
		t.Errorf("second snapshot has %d messages, want 2", n)
	}
}

func TestSessionStore_SnapshotsAreCopies(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSessionStore(t, kv.NewMemoryStore())
	sess, _ := s.CreateSession(ctx, userMessage("hello"))

	snapshot := s.Sessions()
	snapshot[0].Messages[0].Content = "tampered"
	snapshot[0].Title = "tampered"

	got, _ := s.Get(sess.ID)
	if got.Messages[0].Content != "hello" || got.Title != "hello" {
		t.Errorf("mutating a snapshot changed the store: %+v", got)
	}
}

func TestDeriveTitle(t *testing.T) {
	exactly40 := strings.Repeat("a", 40)

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"short", "Oven E3 error code", "Oven E3 error code"},
		{"exactly 40", exactly40, exactly40},
		{"41 characters", exactly40 + "b", exactly40 + "..."},
		{"multibyte", strings.Repeat("é", 45), strings.Repeat("é", 40) + "..."},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveTitle(tt.content); got != tt.want {
				t.Errorf("DeriveTitle(%q) = %q, want %q", tt.content, got, tt.want)
			}
		})
	}
}

func sessionIDs(sessions []Session) []string {
	ids := make([]string, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.ID)
	}
	return ids
}
