package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Activ8Auto/ProAutoFill/infrastructure/logger"
)

const storeOpTimeout = 5 * time.Second

// ExpireHook runs after an expired session has been deleted.
type ExpireHook func(Session)

// Manager opens sessions from backend tokens and ends them when the token
// expires. Expiry timers are only armed between Start and Stop; sessions
// opened earlier are picked up by Start.
type Manager struct {
	store  Store
	secret string
	skew   time.Duration
	log    logger.Logger
	now    func() time.Time

	mu      sync.Mutex
	running bool
	timers  map[string]*time.Timer // token -> expiry timer
	byUser  map[string]string      // user id -> token
	hooks   []ExpireHook
	wg      sync.WaitGroup
}

// Option configures a Manager.
type Option func(*Manager)

// WithSecret verifies token signatures with secret.
func WithSecret(secret string) Option {
	return func(m *Manager) { m.secret = secret }
}

// WithExpirySkew ends sessions skew before the token's exp.
func WithExpirySkew(skew time.Duration) Option {
	return func(m *Manager) { m.skew = skew }
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// NewManager creates a stopped manager.
func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		log:    logger.NewNop(),
		now:    time.Now,
		timers: make(map[string]*time.Timer),
		byUser: make(map[string]string),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OnExpire registers a hook. Hooks run in registration order.
func (m *Manager) OnExpire(hook ExpireHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, hook)
}

// Start arms expiry timers for persisted sessions. Calling Start twice is a no-op.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = true
	m.mu.Unlock()

	sessions, err := m.store.List(ctx)
	if err != nil {
		return fmt.Errorf("list persisted sessions: %w", err)
	}

	for _, s := range sessions {
		m.arm(s)
	}

	m.log.Info("Session manager started", logger.Int("restored_sessions", len(sessions)))
	return nil
}

// Stop cancels every timer and waits for running expiry hooks. Sessions stay
// persisted. Calling Stop twice is a no-op.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	for token, t := range m.timers {
		t.Stop()
		delete(m.timers, token)
	}
	m.byUser = make(map[string]string)
	m.mu.Unlock()

	m.wg.Wait()
	m.log.Info("Session manager stopped")
}

// Open validates token and persists a session for it. An already expired
// token is rejected and nothing is stored. Opening a new token for the same
// user replaces that user's previous session.
func (m *Manager) Open(ctx context.Context, token string) (Session, error) {
	claims, err := DecodeToken(token, m.secret)
	if err != nil {
		return Session{}, err
	}

	now := m.now()
	expiresAt := claims.ExpiresAt.Add(-m.skew)
	if claims.ExpiresAt.IsZero() || !expiresAt.After(now) {
		return Session{}, ErrTokenExpired
	}

	s := Session{
		Token:     token,
		UserID:    claims.UserID,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}
	if err := m.store.Save(ctx, s, expiresAt.Sub(now)); err != nil {
		return Session{}, fmt.Errorf("persist session: %w", err)
	}

	if previous := m.arm(s); previous != "" && previous != token {
		if err := m.store.Delete(ctx, previous); err != nil {
			m.log.Warn("Failed to delete replaced session",
				logger.String("user_id", s.UserID),
				logger.Error(err),
			)
		}
	}

	m.log.Info("Session opened",
		logger.String("user_id", s.UserID),
		logger.Time("expires_at", s.ExpiresAt),
	)
	return s, nil
}

// Close ends token's session, as on logout.
func (m *Manager) Close(ctx context.Context, token string) error {
	m.disarm(token)
	if err := m.store.Delete(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Lookup returns the live session for token.
func (m *Manager) Lookup(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrSessionNotFound
	}
	s, err := m.store.Get(ctx, token)
	if err != nil {
		return Session{}, err
	}
	if !s.ExpiresAt.After(m.now()) {
		return Session{}, ErrSessionNotFound
	}
	return s, nil
}

// Active is the number of sessions with an armed expiry timer.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

// arm schedules s's expiry and returns the token it replaced for the same
// user, if any. It does nothing while stopped.
func (m *Manager) arm(s Session) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return ""
	}

	previous := m.byUser[s.UserID]
	if previous != "" {
		if t, ok := m.timers[previous]; ok {
			t.Stop()
			delete(m.timers, previous)
		}
	}
	if t, ok := m.timers[s.Token]; ok {
		t.Stop()
	}

	delay := max(s.ExpiresAt.Sub(m.now()), 0)
	m.timers[s.Token] = time.AfterFunc(delay, func() { m.expire(s) })
	m.byUser[s.UserID] = s.Token
	return previous
}

func (m *Manager) disarm(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t, ok := m.timers[token]; ok {
		t.Stop()
		delete(m.timers, token)
	}
	for user, tok := range m.byUser {
		if tok == token {
			delete(m.byUser, user)
		}
	}
}

func (m *Manager) expire(s Session) {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	if _, armed := m.timers[s.Token]; !armed {
		// Closed or replaced after the timer fired.
		m.mu.Unlock()
		return
	}
	delete(m.timers, s.Token)
	if m.byUser[s.UserID] == s.Token {
		delete(m.byUser, s.UserID)
	}
	hooks := append([]ExpireHook(nil), m.hooks...)
	m.wg.Add(1)
	m.mu.Unlock()
	defer m.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), storeOpTimeout)
	defer cancel()
	if err := m.store.Delete(ctx, s.Token); err != nil && !errors.Is(err, ErrSessionNotFound) {
		m.log.Warn("Failed to delete expired session",
			logger.String("user_id", s.UserID),
			logger.Error(err),
		)
	}

	m.log.Info("Session expired", logger.String("user_id", s.UserID))
	for _, hook := range hooks {
		hook(s)
	}
}
