// Package testing provides a reusable contract test suite for MetadataStore
// implementations. It tests the interface contract, not implementation
// details, so every backend (memory, badger, mongo) can run the same suite.
package testing

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/marmos91/dittodrive/pkg/store/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// StoreTestSuite is a contract test suite for MetadataStore implementations.
type StoreTestSuite struct {
	// NewStore is a factory that creates a fresh store for each test,
	// ensuring test isolation.
	NewStore func(t *testing.T) metadata.MetadataStore
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("InsertAssignsID", suite.testInsertAssignsID)
	t.Run("GetByID", suite.testGetByID)
	t.Run("GetOwnedScoping", suite.testGetOwnedScoping)
	t.Run("ListPagination", suite.testListPagination)
	t.Run("ListInsertionOrder", suite.testListInsertionOrder)
	t.Run("ListScopedToOwnerAndParent", suite.testListScoping)
	t.Run("SetPublic", suite.testSetPublic)
	t.Run("SetPublicConcurrent", suite.testSetPublicConcurrent)
}

// newNode builds a minimal folder node for one owner.
func newNode(owner metadata.UserID, name string) *metadata.Node {
	return &metadata.Node{
		OwnerID:  owner,
		Name:     name,
		Kind:     metadata.KindFolder,
		ParentID: metadata.RootID,
	}
}

func (suite *StoreTestSuite) testInsertAssignsID(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()
	ctx := context.Background()

	node := newNode("alice", "docs")
	require.NoError(t, store.Insert(ctx, node))
	require.NotEmpty(t, node.ID)
	require.False(t, node.CreatedAt.IsZero())

	other := newNode("alice", "music")
	require.NoError(t, store.Insert(ctx, other))
	assert.NotEqual(t, node.ID, other.ID)
}

func (suite *StoreTestSuite) testGetByID(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()
	ctx := context.Background()

	node := newNode("alice", "docs")
	node.IsPublic = true
	require.NoError(t, store.Insert(ctx, node))

	got, err := store.GetByID(ctx, node.ID)
	require.NoError(t, err)
	assert.Equal(t, node.ID, got.ID)
	assert.Equal(t, metadata.UserID("alice"), got.OwnerID)
	assert.Equal(t, "docs", got.Name)
	assert.True(t, got.IsPublic)

	_, err = store.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, metadata.ErrNotFound)
}

func (suite *StoreTestSuite) testGetOwnedScoping(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()
	ctx := context.Background()

	node := newNode("alice", "docs")
	require.NoError(t, store.Insert(ctx, node))

	got, err := store.GetOwned(ctx, node.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, node.ID, got.ID)

	// A different caller must see exactly the same error as for a missing
	// node, so existence does not leak across owners.
	_, err = store.GetOwned(ctx, node.ID, "bob")
	assert.ErrorIs(t, err, metadata.ErrNotFound)

	_, err = store.GetOwned(ctx, "missing", "alice")
	assert.ErrorIs(t, err, metadata.ErrNotFound)
}

func (suite *StoreTestSuite) testListPagination(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()
	ctx := context.Background()

	folder := newNode("alice", "bulk")
	require.NoError(t, store.Insert(ctx, folder))

	for i := 0; i < 45; i++ {
		child := newNode("alice", fmt.Sprintf("file-%02d", i))
		child.Kind = metadata.KindFile
		child.ParentID = folder.ID
		child.ContentRef = metadata.ContentID(fmt.Sprintf("ref-%02d", i))
		require.NoError(t, store.Insert(ctx, child))
	}

	pageSizes := []int{20, 20, 5, 0}
	for page, want := range pageSizes {
		nodes, err := store.List(ctx, "alice", folder.ID, page)
		require.NoError(t, err)
		assert.Len(t, nodes, want, "page %d", page)
	}
}

func (suite *StoreTestSuite) testListInsertionOrder(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()
	ctx := context.Background()

	names := []string{"zeta", "alpha", "mid"}
	for _, name := range names {
		require.NoError(t, store.Insert(ctx, newNode("alice", name)))
	}

	nodes, err := store.List(ctx, "alice", metadata.RootID, 0)
	require.NoError(t, err)
	require.Len(t, nodes, len(names))
	for i, name := range names {
		assert.Equal(t, name, nodes[i].Name)
	}
}

func (suite *StoreTestSuite) testListScoping(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()
	ctx := context.Background()

	folder := newNode("alice", "docs")
	require.NoError(t, store.Insert(ctx, folder))

	inside := newNode("alice", "inside")
	inside.ParentID = folder.ID
	require.NoError(t, store.Insert(ctx, inside))
	require.NoError(t, store.Insert(ctx, newNode("alice", "top-level")))
	require.NoError(t, store.Insert(ctx, newNode("bob", "bobs")))

	nodes, err := store.List(ctx, "alice", folder.ID, 0)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "inside", nodes[0].Name)

	// Roots of different owners stay disjoint.
	nodes, err = store.List(ctx, "bob", metadata.RootID, 0)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "bobs", nodes[0].Name)
}

func (suite *StoreTestSuite) testSetPublic(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()
	ctx := context.Background()

	node := newNode("alice", "docs")
	require.NoError(t, store.Insert(ctx, node))

	updated, err := store.SetPublic(ctx, node.ID, "alice", true)
	require.NoError(t, err)
	assert.True(t, updated.IsPublic)

	// Publishing an already-public node is a no-op success.
	updated, err = store.SetPublic(ctx, node.ID, "alice", true)
	require.NoError(t, err)
	assert.True(t, updated.IsPublic)

	updated, err = store.SetPublic(ctx, node.ID, "alice", false)
	require.NoError(t, err)
	assert.False(t, updated.IsPublic)

	// Non-owners get not-found, never a permission error.
	_, err = store.SetPublic(ctx, node.ID, "bob", true)
	assert.ErrorIs(t, err, metadata.ErrNotFound)

	_, err = store.SetPublic(ctx, "missing", "alice", true)
	assert.ErrorIs(t, err, metadata.ErrNotFound)
}

func (suite *StoreTestSuite) testSetPublicConcurrent(t *testing.T) {
	store := suite.NewStore(t)
	defer store.Close()
	ctx := context.Background()

	node := newNode("alice", "docs")
	require.NoError(t, store.Insert(ctx, node))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(public bool) {
			defer wg.Done()
			_, err := store.SetPublic(ctx, node.ID, "alice", public)
			assert.NoError(t, err)
		}(i%2 == 0)
	}
	wg.Wait()

	// The node converged to one of the two states with no corruption.
	got, err := store.GetByID(ctx, node.ID)
	require.NoError(t, err)
	assert.Equal(t, node.Name, got.Name)
	assert.Equal(t, node.OwnerID, got.OwnerID)
}
