package badger

import (
	"context"
	"testing"

	"github.com/marmos91/dittodrive/pkg/queue"
	queuetesting "github.com/marmos91/dittodrive/pkg/queue/testing"
	"github.com/stretchr/testify/require"
)

func TestBadgerQueue(t *testing.T) {
	suite := &queuetesting.QueueTestSuite{
		NewQueue: func(t *testing.T) queue.Queue {
			q, err := NewBadgerQueue(context.Background(), t.TempDir())
			require.NoError(t, err)
			return q
		},
	}

	suite.Run(t)
}

// TestBadgerQueue_Durability verifies pending jobs survive a close and
// reopen of the same database directory.
func TestBadgerQueue_Durability(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	q, err := NewBadgerQueue(ctx, dir)
	require.NoError(t, err)

	enqueued, err := q.Enqueue(ctx, "alice", "file-1")
	require.NoError(t, err)
	require.NoError(t, q.Close())

	reopened, err := NewBadgerQueue(ctx, dir)
	require.NoError(t, err)
	defer reopened.Close()

	job, err := reopened.Dequeue(ctx)
	require.NoError(t, err)
	require.Equal(t, enqueued.ID, job.ID)
	require.EqualValues(t, "file-1", job.FileID)
	require.NoError(t, reopened.Complete(ctx, job.ID))
}

// TestBadgerQueue_RedeliversOrphanedClaims verifies that a job claimed but
// never acknowledged before shutdown is delivered again after reopen.
func TestBadgerQueue_RedeliversOrphanedClaims(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	q, err := NewBadgerQueue(ctx, dir)
	require.NoError(t, err)

	_, err = q.Enqueue(ctx, "alice", "file-1")
	require.NoError(t, err)

	// Claim the job and "crash" without completing it.
	claimed, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NoError(t, q.Close())

	reopened, err := NewBadgerQueue(ctx, dir)
	require.NoError(t, err)
	defer reopened.Close()

	depth, err := reopened.Depth(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, depth, "orphaned claim must be requeued")

	redelivered, err := reopened.Dequeue(ctx)
	require.NoError(t, err)
	require.Equal(t, claimed.ID, redelivered.ID)
	require.NoError(t, reopened.Complete(ctx, redelivered.ID))
}

var _ queue.Queue = (*BadgerQueue)(nil)
