package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySessionStore_ResolvePutDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore()

	_, ok, err := store.Resolve(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, "tok", "alice", time.Minute))

	user, ok, err := store.Resolve(ctx, "tok")
	require.NoError(t, err)
	require.True(t, ok)
	assert.EqualValues(t, "alice", user)

	require.NoError(t, store.Delete(ctx, "tok"))

	_, ok, err = store.Resolve(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemorySessionStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore()

	current := time.Now()
	store.now = func() time.Time { return current }

	require.NoError(t, store.Put(ctx, "tok", "alice", time.Minute))

	_, ok, err := store.Resolve(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, ok)

	current = current.Add(2 * time.Minute)

	_, ok, err = store.Resolve(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, ok, "expired token must not resolve")
}
