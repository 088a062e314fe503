package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	infrajwt "github.com/Activ8Auto/ProAutoFill/infrastructure/jwt"
	"github.com/Activ8Auto/ProAutoFill/internal/session"
)

const secret = "test-secret-key-32-chars-minimum"

func signToken(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	token, err := infrajwt.Sign(secret, sub, exp)
	require.NoError(t, err)
	return token
}

// shortLivedSkew makes a one-hour token expire between 0.5s and 1.5s from now.
const shortLivedSkew = time.Hour - 1500*time.Millisecond

func TestDecodeToken(t *testing.T) {
	t.Parallel()

	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signToken(t, "user-1", exp)

	claims, err := session.DecodeToken(token, "")
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.True(t, claims.ExpiresAt.Equal(exp))

	_, err = session.DecodeToken(token, secret)
	require.NoError(t, err)

	_, err = session.DecodeToken(token, "other-secret")
	require.ErrorIs(t, err, session.ErrMalformedToken)

	_, err = session.DecodeToken("garbage", "")
	require.ErrorIs(t, err, session.ErrMalformedToken)

	_, err = session.DecodeToken(signToken(t, "", exp), "")
	require.ErrorIs(t, err, session.ErrMissingSubject)
}

func storeContract(t *testing.T, store session.Store) {
	t.Helper()
	ctx := context.Background()

	s := session.Session{Token: "tok-a", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour).UTC().Truncate(time.Second)}
	require.NoError(t, store.Save(ctx, s, time.Hour))
	require.NoError(t, store.Save(ctx, session.Session{Token: "tok-b", UserID: "u2"}, time.Hour))

	got, err := store.Get(ctx, "tok-a")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.True(t, s.ExpiresAt.Equal(got.ExpiresAt))

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, store.Delete(ctx, "tok-a"))
	_, err = store.Get(ctx, "tok-a")
	require.ErrorIs(t, err, session.ErrSessionNotFound)
	require.NoError(t, store.Delete(ctx, "tok-a"), "deleting twice is fine")

	_, err = store.Get(ctx, "never-saved")
	require.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	storeContract(t, session.NewMemoryStore())
}

func TestMemoryStore_TTL(t *testing.T) {
	t.Parallel()

	store := session.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, session.Session{Token: "t", UserID: "u"}, 20*time.Millisecond))

	assert.Eventually(t, func() bool {
		_, err := store.Get(ctx, "t")
		return err != nil
	}, time.Second, 10*time.Millisecond)

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func newRedisStore(t *testing.T) (*session.RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return session.NewRedisStore(client, "test:session:"), mr
}

func TestRedisStore(t *testing.T) {
	t.Parallel()

	store, _ := newRedisStore(t)
	storeContract(t, store)
}

func TestRedisStore_TTLAndKeys(t *testing.T) {
	t.Parallel()

	store, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, session.Session{Token: "raw-token", UserID: "u"}, time.Minute))

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Contains(t, keys[0], "test:session:")
	assert.NotContains(t, keys[0], "raw-token")
	assert.Equal(t, time.Minute, mr.TTL(keys[0]))

	mr.FastForward(2 * time.Minute)
	_, err := store.Get(ctx, "raw-token")
	require.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestManager_OpenLookupClose(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx := context.Background()
	m := session.NewManager(session.NewMemoryStore(), session.WithSecret(secret))
	require.NoError(t, m.Start(ctx))
	defer m.Stop()

	token := signToken(t, "user-1", time.Now().Add(time.Hour))
	s, err := m.Open(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", s.UserID)
	assert.Equal(t, 1, m.Active())

	got, err := m.Lookup(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)

	require.NoError(t, m.Close(ctx, token))
	_, err = m.Lookup(ctx, token)
	require.ErrorIs(t, err, session.ErrSessionNotFound)
	assert.Zero(t, m.Active())

	_, err = m.Lookup(ctx, "")
	require.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestManager_RejectsExpiredToken(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx := context.Background()
	store := session.NewMemoryStore()
	m := session.NewManager(store)
	require.NoError(t, m.Start(ctx))
	defer m.Stop()

	_, err := m.Open(ctx, signToken(t, "user-1", time.Now().Add(-time.Minute)))
	require.ErrorIs(t, err, session.ErrTokenExpired)

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestManager_ExpiryRunsHooks(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx := context.Background()
	m := session.NewManager(session.NewMemoryStore(), session.WithExpirySkew(shortLivedSkew))

	var (
		mu      sync.Mutex
		expired []string
	)
	m.OnExpire(func(s session.Session) {
		mu.Lock()
		defer mu.Unlock()
		expired = append(expired, s.UserID)
	})

	require.NoError(t, m.Start(ctx))
	defer m.Stop()

	token := signToken(t, "user-1", time.Now().Add(time.Hour))
	_, err := m.Open(ctx, token)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(expired) == 1
	}, 3*time.Second, 20*time.Millisecond)

	_, err = m.Lookup(ctx, token)
	require.ErrorIs(t, err, session.ErrSessionNotFound)
	assert.Zero(t, m.Active())
}

func TestManager_ReopenReplacesTimer(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx := context.Background()
	store := session.NewMemoryStore()
	m := session.NewManager(store)
	require.NoError(t, m.Start(ctx))
	defer m.Stop()

	first := signToken(t, "user-1", time.Now().Add(time.Hour))
	second := signToken(t, "user-1", time.Now().Add(2*time.Hour))

	_, err := m.Open(ctx, first)
	require.NoError(t, err)
	_, err = m.Open(ctx, second)
	require.NoError(t, err)

	assert.Equal(t, 1, m.Active())
	_, err = m.Lookup(ctx, first)
	require.ErrorIs(t, err, session.ErrSessionNotFound)
	_, err = m.Lookup(ctx, second)
	require.NoError(t, err)
}

func TestManager_StartRestoresPersistedSessions(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx := context.Background()
	store := session.NewMemoryStore()

	before := session.NewManager(store)
	_, err := before.Open(ctx, signToken(t, "user-1", time.Now().Add(time.Hour)))
	require.NoError(t, err)
	assert.Zero(t, before.Active(), "timers are not armed until Start")

	m := session.NewManager(store)
	require.NoError(t, m.Start(ctx))
	require.NoError(t, m.Start(ctx), "second Start is a no-op")
	assert.Equal(t, 1, m.Active())

	m.Stop()
	m.Stop()
	assert.Zero(t, m.Active())
}

func TestManager_StopCancelsPendingExpiry(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx := context.Background()
	m := session.NewManager(session.NewMemoryStore(), session.WithExpirySkew(shortLivedSkew))

	fired := make(chan struct{}, 1)
	m.OnExpire(func(session.Session) { fired <- struct{}{} })

	require.NoError(t, m.Start(ctx))
	_, err := m.Open(ctx, signToken(t, "user-1", time.Now().Add(time.Hour)))
	require.NoError(t, err)
	m.Stop()

	select {
	case <-fired:
		t.Fatal("expiry hook ran after Stop")
	case <-time.After(2 * time.Second):
	}
}

func TestManager_WithRedisStore(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	m := session.NewManager(store)
	require.NoError(t, m.Start(ctx))
	defer m.Stop()

	token := signToken(t, "user-9", time.Now().Add(time.Hour))
	_, err := m.Open(ctx, token)
	require.NoError(t, err)

	got, err := m.Lookup(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "user-9", got.UserID)
}
