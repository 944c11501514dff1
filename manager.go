package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/sync/singleflight"
)

var _ SessionSource = &Manager{}

// Manager is the single source of truth for the session: principal, bearer
// token, and status flags. Every state transition funnels through one of
// its operations; consumers read snapshots and subscribe to changes, they
// never mutate. The Manager is also the sole writer of the persisted
// credential record.
type Manager struct {
	api    *Client
	store  CredentialStore
	http   *http.Client
	logger Logger
	sink   EventSink

	onExpired func()

	mu        sync.RWMutex
	principal *Principal
	token     string
	inflight  int
	restored  bool
	lastErr   string

	refreshGroup singleflight.Group

	wmu      sync.Mutex
	watchers map[int]chan State
	nextID   int
}

// New creates a Manager wired to the backend at cfg.GetBaseURL(). The
// shared *http.Client carries the refresh Transport and a cookie jar for
// the backend's http-only refresh credential; fetch it via HTTPClient() so
// every page call runs through the same pipeline.
func New(cfg Config, store CredentialStore) *Manager {
	m := &Manager{
		store:     store,
		logger:    defLogger{},
		sink:      noopEventSink{},
		onExpired: func() {},
		watchers:  map[int]chan State{},
	}

	jar, _ := cookiejar.New(nil)
	m.http = &http.Client{
		Timeout:   cfg.GetHTTPTimeout(),
		Jar:       jar,
		Transport: NewTransport(m),
	}
	m.api = NewClient(cfg.GetBaseURL(), m.http, m.logger)

	return m
}

// WithLogger sets the logger used by the manager, client, and transport.
func (m *Manager) WithLogger(logger Logger) *Manager {
	if logger == nil {
		return m
	}
	m.logger = logger
	m.api.logger = logger
	if t, ok := m.http.Transport.(*Transport); ok {
		t.WithLogger(logger)
	}
	return m
}

// WithEventSink configures an EventSink for session events.
func (m *Manager) WithEventSink(sink EventSink) *Manager {
	m.sink = normalizeEventSink(sink)
	return m
}

// WithOnSessionExpired registers the hook fired after a failed refresh has
// cleared the session. The presentation layer decides what navigation to
// perform; the manager only signals.
func (m *Manager) WithOnSessionExpired(fn func()) *Manager {
	if fn != nil {
		m.onExpired = fn
	}
	return m
}

// HTTPClient returns the shared pipeline client. Requests issued through
// it get bearer attachment and single-shot 401 recovery.
func (m *Manager) HTTPClient() *http.Client {
	return m.http
}

// API returns the backend auth client.
func (m *Manager) API() *Client {
	return m.api
}

// Register creates an account and enters the authenticated state.
func (m *Manager) Register(ctx context.Context, payload RegisterPayload) (*Principal, error) {
	if err := payload.Validate(); err != nil {
		return nil, newValidationError(err.Error())
	}

	m.beginOp()
	res, err := m.api.Register(ctx, payload)
	if err != nil {
		m.endOp(err)
		m.emit(ctx, EventRegisterFailure, "", map[string]any{"email": payload.Email, "error": errorMessage(err)})
		return nil, err
	}

	m.adopt(ctx, res.Principal, res.Token)
	m.endOp(nil)
	m.emit(ctx, EventRegisterSuccess, res.Principal.UserID(), map[string]any{"role": res.Principal.Role})
	return res.Principal, nil
}

// Login exchanges credentials for a session. Failure leaves the session
// as it was; the backend's rejection message is surfaced verbatim.
func (m *Manager) Login(ctx context.Context, payload LoginPayload) (*Principal, error) {
	if err := payload.Validate(); err != nil {
		return nil, newValidationError(err.Error())
	}

	m.beginOp()
	res, err := m.api.Login(ctx, payload)
	if err != nil {
		m.endOp(err)
		m.emit(ctx, EventLoginFailure, "", map[string]any{"email": payload.Email, "error": errorMessage(err)})
		return nil, err
	}

	m.adopt(ctx, res.Principal, res.Token)
	m.endOp(nil)
	m.emit(ctx, EventLoginSuccess, res.Principal.UserID(), map[string]any{"role": res.Principal.Role})
	return res.Principal, nil
}

// Logout signs out. The backend call is best-effort: local sign-out is
// unconditional and the session is never left authenticated, whatever the
// server said.
func (m *Manager) Logout(ctx context.Context) error {
	m.beginOp()
	userID := m.State().Principal.UserID()

	err := m.api.Logout(ctx)
	if err != nil {
		m.logger.Warn("backend logout failed, signing out locally: %v", err)
	}

	m.clear(ctx)
	m.endOp(nil)
	m.emit(ctx, EventLogout, userID, nil)
	return err
}

// Refresh mints a new access token using the server-held refresh
// credential. Concurrent callers coalesce onto a single in-flight refresh;
// all of them observe its outcome. Failure clears the session, wipes the
// stored record, and fires the session-expired hook.
func (m *Manager) Refresh(ctx context.Context) error {
	_, err, _ := m.refreshGroup.Do("refresh", func() (any, error) {
		m.beginOp()
		res, err := m.api.Refresh(ctx)
		if err != nil {
			m.clear(ctx)
			m.endOp(err)
			m.emit(ctx, EventRefreshFailure, "", map[string]any{"error": errorMessage(err)})
			m.emit(ctx, EventExpired, "", nil)
			m.onExpired()
			return nil, authExpired(err)
		}

		m.adopt(ctx, res.Principal, res.Token)
		m.endOp(nil)
		m.emit(ctx, EventRefreshSuccess, res.Principal.UserID(), nil)
		return nil, nil
	})
	return err
}

// CurrentUser re-fetches the principal from the backend. Success replaces
// the principal in place; failure drops the whole in-memory session (the
// stored record is left for the next restore to adjudicate).
func (m *Manager) CurrentUser(ctx context.Context) (*Principal, error) {
	m.beginOp()
	principal, err := m.api.Me(ctx)
	if err != nil {
		m.mu.Lock()
		m.principal = nil
		m.token = ""
		m.mu.Unlock()
		m.endOp(err)
		return nil, err
	}

	m.mu.Lock()
	m.principal = principal
	token := m.token
	m.mu.Unlock()
	m.persist(ctx, principal, token)
	m.endOp(nil)
	return principal, nil
}

// UpdateProfile sends a partial profile change. On success the returned
// principal replaces the current one wholesale; a rotated access token
// replaces the current token, otherwise the token is retained. An
// unrecognized response shape fails typed and leaves the previous
// principal untouched.
func (m *Manager) UpdateProfile(ctx context.Context, update ProfileUpdate) (*Principal, error) {
	m.beginOp()
	res, err := m.api.UpdateProfile(ctx, update)
	if err != nil {
		m.endOp(err)
		return nil, err
	}

	m.mu.Lock()
	m.principal = res.Principal
	if res.Token != "" {
		m.token = res.Token
	}
	token := m.token
	m.mu.Unlock()

	m.persist(ctx, res.Principal, token)
	m.endOp(nil)
	m.emit(ctx, EventProfileUpdated, res.Principal.UserID(), nil)
	return res.Principal, nil
}

// Restore rehydrates the session from the credential store. Either both
// halves of the record parse and the session comes back authenticated, or
// the session ends anonymous and the record is wiped; a half-restored
// state is never left behind. Idempotent.
func (m *Manager) Restore(ctx context.Context) State {
	creds, err := m.store.Read(ctx)
	if err != nil && !errors.Is(err, ErrNoCredentials) {
		m.logger.Warn("credential store read failed: %v", err)
	}

	if err != nil || creds.Empty() {
		m.discardRestore(ctx, false)
		return m.State()
	}

	var principal Principal
	if err := json.Unmarshal(creds.Principal, &principal); err != nil || !principal.Identified() {
		m.logger.Warn("stored principal unusable, discarding credentials")
		m.discardRestore(ctx, true)
		return m.State()
	}

	m.mu.Lock()
	m.principal = &principal
	m.token = creds.Token
	m.restored = true
	m.mu.Unlock()
	m.notify()

	m.emit(ctx, EventRestored, principal.UserID(), nil)
	return m.State()
}

// ClearAuth is the unconditional local sign-out: no backend call, session
// and stored record both dropped.
func (m *Manager) ClearAuth(ctx context.Context) {
	m.mu.Lock()
	m.principal = nil
	m.token = ""
	m.lastErr = ""
	m.mu.Unlock()

	if err := m.store.Wipe(ctx); err != nil {
		m.logger.Warn("credential store wipe failed: %v", err)
	}
	m.notify()
}

// ClearError drops the last recorded operation error.
func (m *Manager) ClearError() {
	m.mu.Lock()
	m.lastErr = ""
	m.mu.Unlock()
	m.notify()
}

// State returns a snapshot of the session.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return State{
		Principal:     m.principal,
		Token:         m.token,
		Authenticated: m.principal != nil && m.token != "",
		Loading:       m.inflight > 0,
		Restored:      m.restored,
		Err:           m.lastErr,
	}
}

// Token returns the current bearer token, empty when anonymous.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// Authenticated reports whether both principal and token are present.
func (m *Manager) Authenticated() bool {
	return m.State().Authenticated
}

// Subscribe registers a watcher that receives a snapshot after every state
// transition. Slow watchers miss intermediate snapshots rather than block
// the session. The returned cancel func unregisters and closes the channel.
func (m *Manager) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 8)

	m.wmu.Lock()
	id := m.nextID
	m.nextID++
	m.watchers[id] = ch
	m.wmu.Unlock()

	cancel := func() {
		m.wmu.Lock()
		if _, ok := m.watchers[id]; ok {
			delete(m.watchers, id)
			close(ch)
		}
		m.wmu.Unlock()
	}
	return ch, cancel
}

// adopt replaces the session wholesale with a fresh {principal, token}
// pair and persists the mirror record.
func (m *Manager) adopt(ctx context.Context, principal *Principal, token string) {
	m.mu.Lock()
	m.principal = principal
	m.token = token
	m.lastErr = ""
	m.mu.Unlock()

	m.persist(ctx, principal, token)
	m.notify()
}

// clear drops the session and wipes the stored record.
func (m *Manager) clear(ctx context.Context) {
	m.mu.Lock()
	m.principal = nil
	m.token = ""
	m.mu.Unlock()

	if err := m.store.Wipe(ctx); err != nil {
		m.logger.Warn("credential store wipe failed: %v", err)
	}
	m.notify()
}

func (m *Manager) discardRestore(ctx context.Context, wipe bool) {
	m.mu.Lock()
	m.principal = nil
	m.token = ""
	m.restored = true
	m.mu.Unlock()

	if err := m.store.Wipe(ctx); err != nil {
		m.logger.Warn("credential store wipe failed: %v", err)
	}
	if wipe {
		m.emit(ctx, EventRestoreRejected, "", nil)
	}
	m.notify()
}

func (m *Manager) persist(ctx context.Context, principal *Principal, token string) {
	record := Credentials{Token: token, Principal: encodePrincipal(principal)}
	if err := m.store.Write(ctx, record); err != nil {
		m.logger.Warn("credential store write failed: %v", err)
	}
}

func (m *Manager) beginOp() {
	m.mu.Lock()
	m.inflight++
	m.lastErr = ""
	m.mu.Unlock()
	m.notify()
}

func (m *Manager) endOp(opErr error) {
	m.mu.Lock()
	if m.inflight > 0 {
		m.inflight--
	}
	if opErr != nil {
		m.lastErr = errorMessage(opErr)
	}
	m.mu.Unlock()
	m.notify()
}

func (m *Manager) notify() {
	st := m.State()
	m.wmu.Lock()
	for _, ch := range m.watchers {
		select {
		case ch <- st:
		default:
		}
	}
	m.wmu.Unlock()
}

func (m *Manager) emit(ctx context.Context, typ EventType, userID string, metadata map[string]any) {
	sink := normalizeEventSink(m.sink)
	event := Event{
		Type:     typ,
		UserID:   userID,
		Metadata: metadata,
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if err := sink.Record(ctx, event); err != nil {
		m.logger.Warn("event sink record error: %v", err)
	}
}

// errorMessage extracts the display message from an error, preferring the
// rich error's message so the backend's wording reaches the UI verbatim.
func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.Message != "" {
		return richErr.Message
	}
	return err.Error()
}
