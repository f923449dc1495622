package thumbnail

import (
	"context"
	"testing"
	"time"

	"github.com/marmos91/dittodrive/pkg/queue"
	queuememory "github.com/marmos91/dittodrive/pkg/queue/memory"
	"github.com/marmos91/dittodrive/pkg/store/content"
	contentmemory "github.com/marmos91/dittodrive/pkg/store/content/memory"
	"github.com/marmos91/dittodrive/pkg/store/metadata"
	metamemory "github.com/marmos91/dittodrive/pkg/store/metadata/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type workerEnv struct {
	meta     *metamemory.MemoryMetadataStore
	contents *contentmemory.MemoryContentStore
	jobs     *queuememory.MemoryQueue
	pool     *WorkerPool
}

func startWorkerEnv(t *testing.T, workers int) *workerEnv {
	t.Helper()

	env := &workerEnv{
		meta:     metamemory.NewMemoryMetadataStore(),
		contents: contentmemory.NewMemoryContentStore(),
		jobs:     queuememory.NewMemoryQueue(),
	}
	env.pool = NewWorkerPool(env.jobs, env.meta, env.contents, nil, Config{Workers: workers})
	env.pool.Start()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, env.pool.Stop(ctx))
	})

	return env
}

// insertImage stores an encoded PNG and its metadata record, returning the
// node so tests can enqueue jobs against it.
func (e *workerEnv) insertImage(t *testing.T, owner metadata.UserID, data []byte) *metadata.Node {
	t.Helper()
	ctx := context.Background()

	ref := metadata.ContentID("img-" + string(owner))
	require.NoError(t, e.contents.WriteContent(ctx, ref, data))

	node := &metadata.Node{
		OwnerID: owner, Name: "photo.png", Kind: metadata.KindImage,
		ParentID: metadata.RootID, ContentRef: ref,
	}
	require.NoError(t, e.meta.Insert(ctx, node))
	return node
}

func (e *workerEnv) failedJobs(t *testing.T) []queue.FailedJob {
	t.Helper()
	failed, err := e.jobs.Failed(context.Background())
	require.NoError(t, err)
	return failed
}

func TestWorkerPool_GeneratesAllRenditions(t *testing.T) {
	env := startWorkerEnv(t, 2)
	ctx := context.Background()

	node := env.insertImage(t, "alice", encodePNG(t, 800, 600))

	_, err := env.jobs.Enqueue(ctx, node.OwnerID, node.ID)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		for _, width := range Sizes {
			ok, err := env.contents.ContentExists(ctx, content.DerivedID(node.ContentRef, width))
			if err != nil || !ok {
				return false
			}
		}
		return true
	}, 5*time.Second, 20*time.Millisecond)

	// The renditions decode and respect the target widths.
	for _, width := range Sizes {
		data, err := env.contents.ReadContent(ctx, content.DerivedID(node.ContentRef, width))
		require.NoError(t, err)

		w, _ := decodeSize(t, data)
		assert.Equal(t, width, w)
	}

	assert.Empty(t, env.failedJobs(t))
}

func TestWorkerPool_MissingFileFails(t *testing.T) {
	env := startWorkerEnv(t, 1)
	ctx := context.Background()

	_, err := env.jobs.Enqueue(ctx, "alice", "no-such-file")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(env.failedJobs(t)) == 1
	}, 5*time.Second, 20*time.Millisecond)

	failed := env.failedJobs(t)[0]
	assert.Equal(t, "file not found", failed.Reason)
}

func TestWorkerPool_ForeignOwnerFails(t *testing.T) {
	env := startWorkerEnv(t, 1)
	ctx := context.Background()

	node := env.insertImage(t, "alice", encodePNG(t, 200, 200))

	// A job carrying the wrong owner must not produce renditions.
	_, err := env.jobs.Enqueue(ctx, "mallory", node.ID)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(env.failedJobs(t)) == 1
	}, 5*time.Second, 20*time.Millisecond)

	ok, err := env.contents.ContentExists(ctx, content.DerivedID(node.ContentRef, 500))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWorkerPool_UndecodableSourceFails(t *testing.T) {
	env := startWorkerEnv(t, 1)
	ctx := context.Background()

	node := env.insertImage(t, "alice", []byte("corrupt bytes"))

	_, err := env.jobs.Enqueue(ctx, node.OwnerID, node.ID)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(env.failedJobs(t)) == 1
	}, 5*time.Second, 20*time.Millisecond)

	failed := env.failedJobs(t)[0]
	assert.Equal(t, "no renditions could be generated", failed.Reason)
}

func TestWorkerPool_StopIsPrompt(t *testing.T) {
	env := &workerEnv{
		meta:     metamemory.NewMemoryMetadataStore(),
		contents: contentmemory.NewMemoryContentStore(),
		jobs:     queuememory.NewMemoryQueue(),
	}
	env.pool = NewWorkerPool(env.jobs, env.meta, env.contents, nil, Config{Workers: 4})
	env.pool.Start()

	// Workers blocked on an empty queue still shut down quickly.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, env.pool.Stop(ctx))
}
