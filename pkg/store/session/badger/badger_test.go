package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgerSessionStore_ResolvePutDelete(t *testing.T) {
	ctx := context.Background()

	store, err := NewBadgerSessionStore(ctx, t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	_, ok, err := store.Resolve(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, "tok", "alice", time.Hour))

	user, ok, err := store.Resolve(ctx, "tok")
	require.NoError(t, err)
	require.True(t, ok)
	assert.EqualValues(t, "alice", user)

	require.NoError(t, store.Delete(ctx, "tok"))

	_, ok, err = store.Resolve(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBadgerSessionStore_TTL(t *testing.T) {
	ctx := context.Background()

	store, err := NewBadgerSessionStore(ctx, t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Put(ctx, "tok", "alice", 50*time.Millisecond))

	_, ok, err := store.Resolve(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, ok)

	time.Sleep(100 * time.Millisecond)

	_, ok, err = store.Resolve(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, ok, "token past its TTL must not resolve")
}
