package redis

import (
	"context"
	"testing"
	"time"

	"portal/config"
	"portal/internal/domain/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, env string) (*miniredis.Miniredis, repository.SessionStore) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := &config.Config{}
	cfg.Env.Env = env

	return mr, NewSessionStore(client, cfg)
}

func TestSessionStore_CreateAndGet(t *testing.T) {
	_, store := newTestStore(t, "test")
	ctx := context.Background()
	userID := uuid.New()

	created, err := store.Create(ctx, userID, "token-a", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, userID, created.UserID)
	assert.Equal(t, "token-a", created.RefreshToken)

	got, err := store.Get(ctx, "token-a")
	require.NoError(t, err)
	assert.Equal(t, userID, got.UserID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), got.ExpiresAt, 5*time.Second)
}

func TestSessionStore_GetUnknownToken(t *testing.T) {
	_, store := newTestStore(t, "test")

	got, err := store.Get(context.Background(), "never-issued")
	assert.Nil(t, got)
	assert.True(t, errors.Is(err, repository.ErrSessionNotFound))
}

func TestSessionStore_GetAfterExpiry(t *testing.T) {
	mr, store := newTestStore(t, "test")
	ctx := context.Background()

	_, err := store.Create(ctx, uuid.New(), "short-lived", time.Minute)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	got, err := store.Get(ctx, "short-lived")
	assert.Nil(t, got)
	assert.True(t, errors.Is(err, repository.ErrSessionNotFound))
}

func TestSessionStore_DeleteIsIdempotent(t *testing.T) {
	_, store := newTestStore(t, "test")
	ctx := context.Background()

	_, err := store.Create(ctx, uuid.New(), "token-b", time.Hour)
	require.NoError(t, err)

	existed, err := store.Delete(ctx, "token-b")
	require.NoError(t, err)
	assert.True(t, existed)

	// Second delete of the same token reports absence, not failure.
	existed, err = store.Delete(ctx, "token-b")
	require.NoError(t, err)
	assert.False(t, existed)

	_, err = store.Get(ctx, "token-b")
	assert.True(t, errors.Is(err, repository.ErrSessionNotFound))
}

func TestSessionStore_RefreshExtendsTTL(t *testing.T) {
	mr, store := newTestStore(t, "test")
	ctx := context.Background()

	_, err := store.Create(ctx, uuid.New(), "token-c", time.Minute)
	require.NoError(t, err)

	refreshed, err := store.Refresh(ctx, "token-c", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "token-c", refreshed.RefreshToken)

	// The old one-minute lifetime would have expired here; the renewed one survives.
	mr.FastForward(30 * time.Minute)

	got, err := store.Get(ctx, "token-c")
	require.NoError(t, err)
	assert.Equal(t, refreshed.UserID, got.UserID)
}

func TestSessionStore_RefreshUnknownToken(t *testing.T) {
	_, store := newTestStore(t, "test")

	refreshed, err := store.Refresh(context.Background(), "never-issued", time.Hour)
	assert.Nil(t, refreshed)
	assert.True(t, errors.Is(err, repository.ErrSessionNotFound))
}

func TestSessionStore_GetAllForUser(t *testing.T) {
	mr, store := newTestStore(t, "test")
	ctx := context.Background()
	userID := uuid.New()
	otherID := uuid.New()

	_, err := store.Create(ctx, userID, "device-1", time.Hour)
	require.NoError(t, err)
	_, err = store.Create(ctx, userID, "device-2", time.Minute)
	require.NoError(t, err)
	_, err = store.Create(ctx, otherID, "other-device", time.Hour)
	require.NoError(t, err)

	tokens, err := store.GetAllForUser(ctx, userID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"device-1", "device-2"}, tokens)

	// Expired sessions drop out of the listing.
	mr.FastForward(2 * time.Minute)

	tokens, err = store.GetAllForUser(ctx, userID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"device-1"}, tokens)
}

func TestSessionStore_DeleteAllForUser(t *testing.T) {
	_, store := newTestStore(t, "test")
	ctx := context.Background()
	userID := uuid.New()
	otherID := uuid.New()

	_, err := store.Create(ctx, userID, "device-1", time.Hour)
	require.NoError(t, err)
	_, err = store.Create(ctx, userID, "device-2", time.Hour)
	require.NoError(t, err)
	_, err = store.Create(ctx, otherID, "other-device", time.Hour)
	require.NoError(t, err)

	count, err := store.DeleteAllForUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = store.Get(ctx, "device-1")
	assert.True(t, errors.Is(err, repository.ErrSessionNotFound))
	_, err = store.Get(ctx, "device-2")
	assert.True(t, errors.Is(err, repository.ErrSessionNotFound))

	// Another user's sessions are untouched.
	got, err := store.Get(ctx, "other-device")
	require.NoError(t, err)
	assert.Equal(t, otherID, got.UserID)
}

func TestSessionStore_DeleteAllOnlyInTestEnv(t *testing.T) {
	_, store := newTestStore(t, "production")
	ctx := context.Background()

	_, err := store.Create(ctx, uuid.New(), "prod-token", time.Hour)
	require.NoError(t, err)

	err = store.DeleteAll(ctx)
	assert.True(t, errors.Is(err, repository.ErrBulkClearForbidden))

	// Nothing was cleared by the refused call.
	_, err = store.Get(ctx, "prod-token")
	assert.NoError(t, err)
}

func TestSessionStore_DeleteAllInTestEnv(t *testing.T) {
	_, store := newTestStore(t, "test")
	ctx := context.Background()

	_, err := store.Create(ctx, uuid.New(), "token-x", time.Hour)
	require.NoError(t, err)
	_, err = store.Create(ctx, uuid.New(), "token-y", time.Hour)
	require.NoError(t, err)

	require.NoError(t, store.DeleteAll(ctx))

	_, err = store.Get(ctx, "token-x")
	assert.True(t, errors.Is(err, repository.ErrSessionNotFound))
	_, err = store.Get(ctx, "token-y")
	assert.True(t, errors.Is(err, repository.ErrSessionNotFound))
}
