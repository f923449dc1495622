package drive

import (
	"context"
	"fmt"
	"testing"

	queuememory "github.com/marmos91/dittodrive/pkg/queue/memory"
	contentstore "github.com/marmos91/dittodrive/pkg/store/content"
	contentmemory "github.com/marmos91/dittodrive/pkg/store/content/memory"
	"github.com/marmos91/dittodrive/pkg/store/metadata"
	metamemory "github.com/marmos91/dittodrive/pkg/store/metadata/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testService builds a service over in-memory stores and returns the queue
// so tests can inspect enqueued jobs.
func testService(t *testing.T) (*Service, *queuememory.MemoryQueue, *metamemory.MemoryMetadataStore) {
	t.Helper()

	meta := metamemory.NewMemoryMetadataStore()
	store := contentmemory.NewMemoryContentStore()
	jobs := queuememory.NewMemoryQueue()

	return NewService(meta, store, jobs, nil), jobs, meta
}

func requireCode(t *testing.T, err error, want Code) {
	t.Helper()
	code, ok := CodeOf(err)
	require.True(t, ok, "expected a domain error, got %v", err)
	require.Equal(t, want, code)
}

func TestCreate_Validation(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()

	cases := []struct {
		name    string
		req     CreateRequest
		message string
	}{
		{"missing name", CreateRequest{Kind: "file", Data: []byte("x")}, "Missing name"},
		{"missing type", CreateRequest{Name: "a"}, "Missing type"},
		{"bad type", CreateRequest{Name: "a", Kind: "symlink"}, "Missing type"},
		{"missing data file", CreateRequest{Name: "a", Kind: "file"}, "Missing data"},
		{"missing data image", CreateRequest{Name: "a", Kind: "image"}, "Missing data"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, "alice", tc.req)
			requireCode(t, err, CodeValidation)
			assert.EqualError(t, err, tc.message)
		})
	}
}

func TestCreate_Folder(t *testing.T) {
	svc, _, meta := testService(t)
	ctx := context.Background()

	proj, err := svc.Create(ctx, "alice", CreateRequest{Name: "docs", Kind: "folder"})
	require.NoError(t, err)
	assert.NotEmpty(t, proj.ID)
	assert.EqualValues(t, "alice", proj.OwnerID)
	assert.Equal(t, metadata.KindFolder, proj.Kind)
	assert.Equal(t, "0", proj.ParentID)
	assert.False(t, proj.IsPublic)

	// The folder carries no content reference and is retrievable
	// immediately by its owner.
	stored, err := meta.GetByID(ctx, proj.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.ContentRef)

	got, err := svc.Get(ctx, "alice", proj.ID)
	require.NoError(t, err)
	assert.Equal(t, proj.ID, got.ID)
}

func TestCreate_ParentValidation(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", CreateRequest{
		Name: "orphan", Kind: "folder", ParentID: "no-such-parent",
	})
	requireCode(t, err, CodeValidation)
	assert.EqualError(t, err, "Parent not found")

	// No record was persisted by the failed attempt.
	nodes, err := svc.List(ctx, "alice", metadata.RootID, 0)
	require.NoError(t, err)
	assert.Empty(t, nodes)

	file, err := svc.Create(ctx, "alice", CreateRequest{
		Name: "notes.txt", Kind: "file", Data: []byte("hi"),
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, "alice", CreateRequest{
		Name: "child", Kind: "folder", ParentID: file.ID,
	})
	requireCode(t, err, CodeValidation)
	assert.EqualError(t, err, "Parent is not a folder")

	nodes, err = svc.List(ctx, "alice", metadata.RootID, 0)
	require.NoError(t, err)
	assert.Len(t, nodes, 1, "the failed creation must not persist a record")
}

func TestFetchContent_RoundTrip(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()

	payload := []byte("the quick brown fox")
	proj, err := svc.Create(ctx, "alice", CreateRequest{
		Name: "fox.txt", Kind: "file", Data: payload,
	})
	require.NoError(t, err)

	data, contentType, err := svc.FetchContent(ctx, "alice", proj.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
	assert.Contains(t, contentType, "text/plain")
}

func TestFetchContent_FolderHasNoContent(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()

	proj, err := svc.Create(ctx, "alice", CreateRequest{Name: "docs", Kind: "folder"})
	require.NoError(t, err)

	_, _, err = svc.FetchContent(ctx, "alice", proj.ID, 0)
	requireCode(t, err, CodeInvalidOperation)
	assert.EqualError(t, err, "A folder doesn't have content")
}

func TestFetchContent_DesynchronizedStores(t *testing.T) {
	meta := metamemory.NewMemoryMetadataStore()
	store := contentmemory.NewMemoryContentStore()
	svc := NewService(meta, store, nil, nil)
	ctx := context.Background()

	// A record referencing bytes that were never written.
	node := &metadata.Node{
		OwnerID: "alice", Name: "ghost.txt", Kind: metadata.KindFile,
		ParentID: metadata.RootID, ContentRef: "missing-ref",
	}
	require.NoError(t, meta.Insert(ctx, node))

	_, _, err := svc.FetchContent(ctx, "alice", node.ID, 0)
	requireCode(t, err, CodeNotFound)
}

func TestFetchContent_DerivedRendition(t *testing.T) {
	meta := metamemory.NewMemoryMetadataStore()
	store := contentmemory.NewMemoryContentStore()
	svc := NewService(meta, store, nil, nil)
	ctx := context.Background()

	proj, err := svc.Create(ctx, "alice", CreateRequest{
		Name: "photo.png", Kind: "image", Data: []byte("original"),
	})
	require.NoError(t, err)

	// Before the worker has run, the rendition is simply not there.
	_, _, err = svc.FetchContent(ctx, "alice", proj.ID, 500)
	requireCode(t, err, CodeNotFound)

	node, err := meta.GetByID(ctx, proj.ID)
	require.NoError(t, err)
	derived := contentstore.DerivedID(node.ContentRef, 500)
	require.NoError(t, store.WriteContent(ctx, derived, []byte("small")))

	data, _, err := svc.FetchContent(ctx, "alice", proj.ID, 500)
	require.NoError(t, err)
	assert.Equal(t, []byte("small"), data)
}

func TestVisibility(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()

	proj, err := svc.Create(ctx, "alice", CreateRequest{
		Name: "secret.txt", Kind: "file", Data: []byte("private"),
	})
	require.NoError(t, err)

	// The owner always sees the node; everyone else gets not-found.
	_, err = svc.Get(ctx, "alice", proj.ID)
	require.NoError(t, err)

	_, err = svc.Get(ctx, "bob", proj.ID)
	requireCode(t, err, CodeNotFound)
	_, _, err = svc.FetchContent(ctx, "bob", proj.ID, 0)
	requireCode(t, err, CodeNotFound)
	_, _, err = svc.FetchContent(ctx, Anonymous, proj.ID, 0)
	requireCode(t, err, CodeNotFound)

	// Publishing flips visibility for any caller.
	published, err := svc.Publish(ctx, "alice", proj.ID)
	require.NoError(t, err)
	assert.True(t, published.IsPublic)

	_, err = svc.Get(ctx, "bob", proj.ID)
	require.NoError(t, err)
	data, _, err := svc.FetchContent(ctx, Anonymous, proj.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("private"), data)

	// Publishing an already-public node is a no-op success.
	published, err = svc.Publish(ctx, "alice", proj.ID)
	require.NoError(t, err)
	assert.True(t, published.IsPublic)

	// Unpublish reverts.
	unpublished, err := svc.Unpublish(ctx, "alice", proj.ID)
	require.NoError(t, err)
	assert.False(t, unpublished.IsPublic)

	_, err = svc.Get(ctx, "bob", proj.ID)
	requireCode(t, err, CodeNotFound)
}

func TestPublish_ForeignNodeIsNotFound(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()

	proj, err := svc.Create(ctx, "alice", CreateRequest{Name: "docs", Kind: "folder"})
	require.NoError(t, err)

	// A non-owner toggling visibility gets not-found, never a
	// permission error.
	_, err = svc.Publish(ctx, "bob", proj.ID)
	requireCode(t, err, CodeNotFound)

	_, err = svc.Publish(ctx, "alice", "no-such-node")
	requireCode(t, err, CodeNotFound)
}

func TestList_Pagination(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()

	folder, err := svc.Create(ctx, "alice", CreateRequest{Name: "bulk", Kind: "folder"})
	require.NoError(t, err)

	for i := 0; i < 45; i++ {
		_, err := svc.Create(ctx, "alice", CreateRequest{
			Name:     fmt.Sprintf("file-%02d.txt", i),
			Kind:     "file",
			ParentID: folder.ID,
			Data:     []byte("x"),
		})
		require.NoError(t, err)
	}

	for page, want := range []int{20, 20, 5, 0} {
		nodes, err := svc.List(ctx, "alice", folder.ID, page)
		require.NoError(t, err)
		assert.Len(t, nodes, want, "page %d", page)
	}
}

func TestList_UnresolvableParentIsEmpty(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()

	nodes, err := svc.List(ctx, "alice", "no-such-folder", 0)
	require.NoError(t, err)
	assert.Empty(t, nodes)

	// A parent that exists but is not a folder also lists empty.
	file, err := svc.Create(ctx, "alice", CreateRequest{
		Name: "a.txt", Kind: "file", Data: []byte("x"),
	})
	require.NoError(t, err)

	nodes, err = svc.List(ctx, "alice", file.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestList_OmitsForeignNodes(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", CreateRequest{Name: "mine", Kind: "folder"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "bob", CreateRequest{Name: "theirs", Kind: "folder"})
	require.NoError(t, err)

	nodes, err := svc.List(ctx, "alice", metadata.RootID, 0)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "mine", nodes[0].Name)
}

func TestCreate_ImageEnqueuesExactlyOneJob(t *testing.T) {
	svc, jobs, _ := testService(t)
	ctx := context.Background()

	proj, err := svc.Create(ctx, "alice", CreateRequest{
		Name: "photo.png", Kind: "image", Data: []byte("png-bytes"),
	})
	require.NoError(t, err)

	depth, err := jobs.Depth(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, depth)

	job, err := jobs.Dequeue(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, "alice", job.OwnerID)
	assert.Equal(t, proj.ID, job.FileID)
}

func TestCreate_FileDoesNotEnqueue(t *testing.T) {
	svc, jobs, _ := testService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", CreateRequest{
		Name: "doc.txt", Kind: "file", Data: []byte("text"),
	})
	require.NoError(t, err)

	depth, err := jobs.Depth(ctx)
	require.NoError(t, err)
	assert.Zero(t, depth)
}

func TestProjection_NeverExposesContentRef(t *testing.T) {
	svc, _, meta := testService(t)
	ctx := context.Background()

	proj, err := svc.Create(ctx, "alice", CreateRequest{
		Name: "a.txt", Kind: "file", Data: []byte("x"),
	})
	require.NoError(t, err)

	stored, err := meta.GetByID(ctx, proj.ID)
	require.NoError(t, err)
	require.NotEmpty(t, stored.ContentRef, "files must carry a content reference internally")
}
