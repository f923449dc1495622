// Package testing provides a reusable contract test suite for ContentStore
// implementations.
package testing

import (
	"context"
	"testing"

	"github.com/marmos91/dittodrive/pkg/store/content"
	"github.com/marmos91/dittodrive/pkg/store/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// StoreTestSuite is a contract test suite for ContentStore implementations.
type StoreTestSuite struct {
	// NewStore is a factory that creates a fresh store for each test.
	NewStore func(t *testing.T) content.ContentStore
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("RoundTrip", suite.testRoundTrip)
	t.Run("Missing", suite.testMissing)
	t.Run("Overwrite", suite.testOverwrite)
	t.Run("Exists", suite.testExists)
	t.Run("DerivedKeys", suite.testDerivedKeys)
}

func (suite *StoreTestSuite) testRoundTrip(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()
	ctx := context.Background()

	payload := []byte("hello, content store")
	require.NoError(t, store.WriteContent(ctx, "round-trip", payload))

	got, err := store.ReadContent(ctx, "round-trip")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func (suite *StoreTestSuite) testMissing(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()
	ctx := context.Background()

	_, err := store.ReadContent(ctx, "never-written")
	assert.ErrorIs(t, err, content.ErrContentNotFound)
}

func (suite *StoreTestSuite) testOverwrite(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.WriteContent(ctx, "key", []byte("first")))
	require.NoError(t, store.WriteContent(ctx, "key", []byte("second")))

	got, err := store.ReadContent(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}

func (suite *StoreTestSuite) testExists(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()
	ctx := context.Background()

	exists, err := store.ContentExists(ctx, "key")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.WriteContent(ctx, "key", []byte("data")))

	exists, err = store.ContentExists(ctx, "key")
	require.NoError(t, err)
	assert.True(t, exists)
}

func (suite *StoreTestSuite) testDerivedKeys(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()
	ctx := context.Background()

	source := metadata.ContentID("image-ref")
	require.NoError(t, store.WriteContent(ctx, source, []byte("full size")))

	for _, width := range []int{500, 250, 100} {
		id := content.DerivedID(source, width)
		require.NoError(t, store.WriteContent(ctx, id, []byte("thumb")))

		exists, err := store.ContentExists(ctx, id)
		require.NoError(t, err)
		assert.True(t, exists, "derived artifact %s", id)
	}

	// The source stays untouched by derived writes.
	got, err := store.ReadContent(ctx, source)
	require.NoError(t, err)
	assert.Equal(t, []byte("full size"), got)
}
