package gc

import (
	"context"
	"testing"
	"time"

	"github.com/marmos91/dittodrive/pkg/store/content"
	contentmemory "github.com/marmos91/dittodrive/pkg/store/content/memory"
	"github.com/marmos91/dittodrive/pkg/store/metadata"
	metamemory "github.com/marmos91/dittodrive/pkg/store/metadata/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedNode(t *testing.T, meta *metamemory.MemoryMetadataStore, contents *contentmemory.MemoryContentStore, ref metadata.ContentID) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, contents.WriteContent(ctx, ref, []byte("data")))
	require.NoError(t, meta.Insert(ctx, &metadata.Node{
		OwnerID: "alice", Name: "f.png", Kind: metadata.KindImage,
		ParentID: metadata.RootID, ContentRef: ref,
	}))
}

func TestSweep_RemovesOrphans(t *testing.T) {
	ctx := context.Background()
	meta := metamemory.NewMemoryMetadataStore()
	contents := contentmemory.NewMemoryContentStore()

	seedNode(t, meta, contents, "live")
	require.NoError(t, contents.WriteContent(ctx, "orphan", []byte("leftover")))

	sweeper, err := NewSweeper(meta, contents, Config{Enabled: true})
	require.NoError(t, err)

	stats, err := sweeper.SweepNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.OrphanedCount)
	assert.Equal(t, 1, stats.DeletedCount)

	ok, err := contents.ContentExists(ctx, "live")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = contents.ContentExists(ctx, "orphan")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSweep_KeepsRenditionsOfLiveContent(t *testing.T) {
	ctx := context.Background()
	meta := metamemory.NewMemoryMetadataStore()
	contents := contentmemory.NewMemoryContentStore()

	seedNode(t, meta, contents, "img")
	for _, width := range []int{500, 250, 100} {
		require.NoError(t, contents.WriteContent(ctx, content.DerivedID("img", width), []byte("thumb")))
	}

	// Renditions of a removed record are orphans.
	require.NoError(t, contents.WriteContent(ctx, "gone_500", []byte("thumb")))

	sweeper, err := NewSweeper(meta, contents, Config{Enabled: true})
	require.NoError(t, err)

	stats, err := sweeper.SweepNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DeletedCount)

	for _, width := range []int{500, 250, 100} {
		ok, err := contents.ContentExists(ctx, content.DerivedID("img", width))
		require.NoError(t, err)
		assert.True(t, ok, "rendition at width %d must survive", width)
	}

	ok, err := contents.ContentExists(ctx, "gone_500")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSweep_DryRunDeletesNothing(t *testing.T) {
	ctx := context.Background()
	meta := metamemory.NewMemoryMetadataStore()
	contents := contentmemory.NewMemoryContentStore()

	require.NoError(t, contents.WriteContent(ctx, "orphan", []byte("leftover")))

	sweeper, err := NewSweeper(meta, contents, Config{Enabled: true, DryRun: true})
	require.NoError(t, err)

	stats, err := sweeper.SweepNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.OrphanedCount)
	assert.Zero(t, stats.DeletedCount)

	ok, err := contents.ContentExists(ctx, "orphan")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSweeper_StartStop(t *testing.T) {
	meta := metamemory.NewMemoryMetadataStore()
	contents := contentmemory.NewMemoryContentStore()

	sweeper, err := NewSweeper(meta, contents, Config{Enabled: true, Interval: time.Hour})
	require.NoError(t, err)

	sweeper.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, sweeper.Stop(ctx))
}

func TestIsReferenced(t *testing.T) {
	refs := map[metadata.ContentID]struct{}{"abc": {}}

	assert.True(t, isReferenced("abc", refs))
	assert.True(t, isReferenced("abc_500", refs))
	assert.False(t, isReferenced("abc_", refs))
	assert.False(t, isReferenced("abc_small", refs))
	assert.False(t, isReferenced("xyz_500", refs))
	assert.False(t, isReferenced("xyz", refs))
}
