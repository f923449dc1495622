package badger

import (
	"context"
	"testing"

	"github.com/marmos91/dittodrive/pkg/store/metadata"
	metadatatesting "github.com/marmos91/dittodrive/pkg/store/metadata/testing"
	"github.com/stretchr/testify/require"
)

// TestBadgerMetadataStore runs the complete MetadataStore contract suite
// against the BadgerDB implementation, each test on a fresh database.
func TestBadgerMetadataStore(t *testing.T) {
	suite := &metadatatesting.StoreTestSuite{
		NewStore: func(t *testing.T) metadata.MetadataStore {
			store, err := NewBadgerMetadataStore(context.Background(), t.TempDir())
			require.NoError(t, err)
			return store
		},
	}

	suite.Run(t)
}

// TestBadgerMetadataStore_Persistence verifies records survive a close and
// reopen of the same database directory.
func TestBadgerMetadataStore_Persistence(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewBadgerMetadataStore(ctx, dir)
	require.NoError(t, err)

	node := &metadata.Node{
		OwnerID:  "alice",
		Name:     "report.pdf",
		Kind:     metadata.KindFile,
		ParentID: metadata.RootID,

		ContentRef: "ref-1",
	}
	require.NoError(t, store.Insert(ctx, node))
	require.NoError(t, store.Close())

	reopened, err := NewBadgerMetadataStore(ctx, dir)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetByID(ctx, node.ID)
	require.NoError(t, err)
	require.Equal(t, "report.pdf", got.Name)
	require.Equal(t, metadata.ContentID("ref-1"), got.ContentRef)

	nodes, err := reopened.List(ctx, "alice", metadata.RootID, 0)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
}
