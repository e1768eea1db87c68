package redisclient

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*RefreshSessionStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb, err := NewRedisClient(context.Background(), mr.Addr(), "", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	return NewRefreshSessionStore(rdb), mr
}

func TestRefreshSessionStore_SaveSetsTTL(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "jti-1", "user-1", time.Hour))

	got, err := mr.Get(sessionKey("jti-1"))
	require.NoError(t, err)
	assert.Equal(t, "user-1", got)
	assert.Equal(t, time.Hour, mr.TTL(sessionKey("jti-1")))
}

func TestRefreshSessionStore_RotateIsSingleUse(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "old", "user-1", time.Hour))

	require.NoError(t, store.Rotate(ctx, "old", "new", "user-1", time.Hour))
	assert.False(t, mr.Exists(sessionKey("old")))
	assert.True(t, mr.Exists(sessionKey("new")))

	err := store.Rotate(ctx, "old", "newer", "user-1", time.Hour)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.False(t, mr.Exists(sessionKey("newer")))
}

func TestRefreshSessionStore_RotateRejectsOtherUser(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "old", "user-1", time.Hour))

	err := store.Rotate(ctx, "old", "new", "user-2", time.Hour)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.True(t, mr.Exists(sessionKey("old")))
}

func TestRefreshSessionStore_RevokeIsIdempotent(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "jti-1", "user-1", time.Hour))
	require.NoError(t, store.Revoke(ctx, "jti-1"))
	require.NoError(t, store.Revoke(ctx, "jti-1"))
	assert.False(t, mr.Exists(sessionKey("jti-1")))
}

func TestRefreshSessionStore_ExpiredSessionCannotRotate(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "old", "user-1", time.Minute))
	mr.FastForward(2 * time.Minute)

	err := store.Rotate(ctx, "old", "new", "user-1", time.Hour)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
