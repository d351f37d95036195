package internal

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/heinsupport/hein-assist/internal/kv"
)

const languageKey = "language"

// AppState is the transient state owned by the App: which session is being
// extended, the locale and the current chat instance.
type AppState struct {
	ActiveSessionID string
	Language        Language
	ChatToken       string
}

// App is the application state container handed to the presentation layer.
// Each field has a single writer path; readers subscribe for changes.
type App struct {
	durable    *Durable
	sessions   *SessionStore
	documents  *DocumentRepository
	dispatcher *MessageDispatcher
	gate       *AdminGate
	monitor    *ConnectivityMonitor
	hasSender  bool

	mu       sync.RWMutex
	activeID string
	language Language
	chat     *Chat

	listeners notifier[AppState]
}

// AppOption configures an App
type AppOption func(*App)

// WithAssistant sets the remote workflow used for sends
func WithAssistant(a Assistant) AppOption {
	return func(app *App) {
		app.dispatcher = NewMessageDispatcher(app.sessions, a)
		app.hasSender = true
	}
}

// WithAdminGate sets the credential check guarding manual management
func WithAdminGate(g *AdminGate) AppOption {
	return func(app *App) {
		app.gate = g
	}
}

// WithMonitor attaches a connectivity monitor
func WithMonitor(m *ConnectivityMonitor) AppOption {
	return func(app *App) {
		app.monitor = m
	}
}

// NewApp builds an App over store. Call Load before use.
func NewApp(store kv.Store, opts ...AppOption) *App {
	durable := NewDurable(store)
	sessions := NewSessionStore(durable)
	app := &App{
		durable:    durable,
		sessions:   sessions,
		documents:  NewDocumentRepository(durable),
		dispatcher: NewMessageDispatcher(sessions, nil),
		gate:       NewAdminGate("", ""),
		language:   LanguageEN,
	}
	for _, opt := range opts {
		opt(app)
	}
	app.chat = app.dispatcher.NewChat(app.language)
	return app
}

// Load restores sessions, documents and the language preference in
// parallel. fallback is used when no language has been saved. The active
// session always starts empty.
func (a *App) Load(ctx context.Context, fallback Language) error {
	lang := fallback
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.sessions.Load(gctx)
		return nil
	})
	g.Go(func() error {
		a.documents.Load(gctx)
		return nil
	})
	g.Go(func() error {
		var saved string
		if !a.durable.Load(gctx, NamespacePreferences, languageKey, &saved) {
			return nil
		}
		parsed, err := ParseLanguage(saved)
		if err != nil {
			LogWarn("Ignoring saved language: %v", err)
			return nil
		}
		lang = parsed
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	a.mu.Lock()
	a.activeID = ""
	a.language = lang
	a.chat = a.dispatcher.NewChat(lang)
	state := a.stateLocked()
	a.mu.Unlock()

	a.listeners.publish(state)
	return nil
}

// Sessions exposes the session store for reading and subscription
func (a *App) Sessions() *SessionStore {
	return a.sessions
}

// Documents exposes the document repository for reading and subscription
func (a *App) Documents() *DocumentRepository {
	return a.documents
}

// State returns a snapshot of the transient state
func (a *App) State() AppState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stateLocked()
}

func (a *App) stateLocked() AppState {
	return AppState{
		ActiveSessionID: a.activeID,
		Language:        a.language,
		ChatToken:       a.chat.Token(),
	}
}

// Subscribe registers fn to receive the state after every change
func (a *App) Subscribe(fn func(AppState)) func() {
	return a.listeners.subscribe(fn)
}

// ActiveSession returns the session currently being extended
func (a *App) ActiveSession() (Session, bool) {
	a.mu.RLock()
	id := a.activeID
	a.mu.RUnlock()
	if id == "" {
		return Session{}, false
	}
	return a.sessions.Get(id)
}

// Send runs one turn against the active session, creating a session when
// none is active. The new session becomes active before the assistant is
// contacted.
func (a *App) Send(ctx context.Context, text string) (Outcome, error) {
	a.mu.RLock()
	activeID, chat := a.activeID, a.chat
	a.mu.RUnlock()
	return a.send(ctx, chat, activeID, text)
}

// SendTo runs one turn against a specific session without changing the
// active pointer
func (a *App) SendTo(ctx context.Context, sessionID, text string) (Outcome, error) {
	a.mu.RLock()
	chat := a.chat
	a.mu.RUnlock()
	return a.send(ctx, chat, sessionID, text)
}

func (a *App) send(ctx context.Context, chat *Chat, sessionID, text string) (Outcome, error) {
	if !a.hasSender {
		return Outcome{}, ErrNoEndpoint
	}
	return chat.Send(ctx, sessionID, text, WithSessionCallback(func(sess Session) {
		if sessionID != "" {
			return
		}
		a.mu.Lock()
		if a.chat != chat || a.activeID != "" {
			// the user moved on while the session was being created
			a.mu.Unlock()
			return
		}
		a.activeID = sess.ID
		state := a.stateLocked()
		a.mu.Unlock()
		a.listeners.publish(state)
	}))
}

// SelectSession makes id the active session and starts a new chat instance
func (a *App) SelectSession(id string) error {
	if _, ok := a.sessions.Get(id); !ok {
		return ErrSessionNotFound
	}
	a.reset(id, "")
	return nil
}

// StartNewChat clears the active session and starts a new chat instance
func (a *App) StartNewChat() {
	a.reset("", "")
}

// SetLanguage persists the locale and starts a new chat instance in it
func (a *App) SetLanguage(ctx context.Context, lang Language) error {
	if _, err := ParseLanguage(string(lang)); err != nil {
		return err
	}
	err := a.durable.Save(ctx, NamespacePreferences, languageKey, string(lang))
	if err != nil {
		LogError("Failed to persist language: %v", err)
	}
	a.mu.RLock()
	active := a.activeID
	a.mu.RUnlock()
	a.reset(active, lang)
	return err
}

func (a *App) reset(activeID string, lang Language) {
	a.mu.Lock()
	a.activeID = activeID
	if lang != "" {
		a.language = lang
	}
	a.chat = a.dispatcher.NewChat(a.language)
	state := a.stateLocked()
	a.mu.Unlock()
	a.listeners.publish(state)
}

// DeleteSession removes a session and clears the active pointer when it
// referenced it. Unknown ids are a no-op.
func (a *App) DeleteSession(ctx context.Context, id string) (bool, error) {
	removed, err := a.sessions.DeleteSession(ctx, id)
	if !removed {
		return false, err
	}

	a.mu.Lock()
	if a.activeID != id {
		a.mu.Unlock()
		return true, err
	}
	a.activeID = ""
	state := a.stateLocked()
	a.mu.Unlock()
	a.listeners.publish(state)
	return true, err
}

// AuthorizeAdmin checks the admin credentials for this process
func (a *App) AuthorizeAdmin(user, password string) error {
	return a.gate.Authorize(user, password)
}

// AdminAuthorized reports whether manual management is unlocked
func (a *App) AdminAuthorized() bool {
	return a.gate.Authorized()
}

// UploadDocument validates and stores a manual. Requires admin.
func (a *App) UploadDocument(ctx context.Context, u Upload) (Document, error) {
	if !a.gate.Authorized() {
		return Document{}, ErrAdminRequired
	}
	return a.documents.Upload(ctx, u)
}

// DeleteDocument removes a manual. Requires admin.
func (a *App) DeleteDocument(ctx context.Context, id string) error {
	if !a.gate.Authorized() {
		return ErrAdminRequired
	}
	return a.documents.Delete(ctx, id)
}

// Connectivity returns the monitor status, or checking when none is attached
func (a *App) Connectivity() ConnectionStatus {
	if a.monitor == nil {
		return StatusChecking
	}
	return a.monitor.Status()
}

// Monitor returns the attached connectivity monitor, if any
func (a *App) Monitor() *ConnectivityMonitor {
	return a.monitor
}

// Close stops the monitor and closes the durable store
func (a *App) Close() error {
	if a.monitor != nil {
		a.monitor.Stop()
	}
	err := a.durable.Close()
	if errors.Is(err, kv.ErrClosed) {
		return nil
	}
	return err
}
