package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// Session is one logged-in user.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists sessions keyed by token.
type Store interface {
	Save(ctx context.Context, s Session, ttl time.Duration) error
	Get(ctx context.Context, token string) (Session, error)
	Delete(ctx context.Context, token string) error
	List(ctx context.Context) ([]Session, error)
}

// tokenKey keeps raw tokens out of store keys.
func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

type memoryEntry struct {
	session  Session
	deadline time.Time
}

// MemoryStore keeps sessions in process.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

// Save stores s until ttl elapses.
func (m *MemoryStore) Save(_ context.Context, s Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[tokenKey(s.Token)] = memoryEntry{session: s, deadline: m.now().Add(ttl)}
	return nil
}

// Get returns the live session for token.
func (m *MemoryStore) Get(_ context.Context, token string) (Session, error) {
	m.mu.RLock()
	entry, ok := m.entries[tokenKey(token)]
	m.mu.RUnlock()

	if !ok || !m.now().Before(entry.deadline) {
		return Session{}, ErrSessionNotFound
	}
	return entry.session, nil
}

// Delete removes token's session. Deleting an unknown token is not an error.
func (m *MemoryStore) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, tokenKey(token))
	return nil
}

// List returns live sessions and prunes expired ones.
func (m *MemoryStore) List(_ context.Context) ([]Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	out := make([]Session, 0, len(m.entries))
	for key, entry := range m.entries {
		if !now.Before(entry.deadline) {
			delete(m.entries, key)
			continue
		}
		out = append(out, entry.session)
	}
	return out, nil
}
