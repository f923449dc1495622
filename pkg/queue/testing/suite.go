// Package testing provides a reusable contract test suite for Queue
// implementations.
package testing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/marmos91/dittodrive/pkg/queue"
	"github.com/marmos91/dittodrive/pkg/store/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// QueueTestSuite is a contract test suite for Queue implementations.
type QueueTestSuite struct {
	// NewQueue is a factory that creates a fresh queue for each test.
	NewQueue func(t *testing.T) queue.Queue
}

// Run executes all tests in the suite.
func (suite *QueueTestSuite) Run(t *testing.T) {
	t.Run("EnqueueDequeueOrder", suite.testEnqueueDequeueOrder)
	t.Run("ExclusiveClaim", suite.testExclusiveClaim)
	t.Run("CompleteIsTerminal", suite.testCompleteIsTerminal)
	t.Run("FailRetainsJob", suite.testFailRetainsJob)
	t.Run("Depth", suite.testDepth)
	t.Run("DequeueHonorsContext", suite.testDequeueHonorsContext)
}

func (suite *QueueTestSuite) testEnqueueDequeueOrder(t *testing.T) {
	q := suite.NewQueue(t)
	defer q.Close()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		job, err := q.Enqueue(ctx, "alice", metadata.NodeID(fmt.Sprintf("file-%d", i)))
		require.NoError(t, err)
		require.NotEmpty(t, job.ID)
		assert.EqualValues(t, "alice", job.OwnerID)
	}

	for i := 0; i < 3; i++ {
		job, err := q.Dequeue(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, fmt.Sprintf("file-%d", i), job.FileID)
		require.NoError(t, q.Complete(ctx, job.ID))
	}
}

func (suite *QueueTestSuite) testExclusiveClaim(t *testing.T) {
	q := suite.NewQueue(t)
	defer q.Close()
	ctx := context.Background()

	const jobs = 20
	for i := 0; i < jobs; i++ {
		_, err := q.Enqueue(ctx, "alice", metadata.NodeID(fmt.Sprintf("file-%d", i)))
		require.NoError(t, err)
	}

	// Four concurrent consumers drain the queue; every job must be
	// delivered to exactly one of them.
	var mu sync.Mutex
	seen := make(map[string]int)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < jobs/4; j++ {
				job, err := q.Dequeue(ctx)
				if !assert.NoError(t, err) {
					return
				}

				mu.Lock()
				seen[string(job.FileID)]++
				mu.Unlock()

				assert.NoError(t, q.Complete(ctx, job.ID))
			}
		}()
	}
	wg.Wait()

	require.Len(t, seen, jobs)
	for fileID, count := range seen {
		assert.Equal(t, 1, count, "job for %s delivered more than once", fileID)
	}
}

func (suite *QueueTestSuite) testCompleteIsTerminal(t *testing.T) {
	q := suite.NewQueue(t)
	defer q.Close()
	ctx := context.Background()

	_, err := q.Enqueue(ctx, "alice", "file-1")
	require.NoError(t, err)

	job, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NoError(t, q.Complete(ctx, job.ID))

	// Completing twice fails: the claim no longer exists.
	assert.ErrorIs(t, q.Complete(ctx, job.ID), queue.ErrNoSuchJob)

	depth, err := q.Depth(ctx)
	require.NoError(t, err)
	assert.Zero(t, depth)
}

func (suite *QueueTestSuite) testFailRetainsJob(t *testing.T) {
	q := suite.NewQueue(t)
	defer q.Close()
	ctx := context.Background()

	_, err := q.Enqueue(ctx, "alice", "gone-file")
	require.NoError(t, err)

	job, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NoError(t, q.Fail(ctx, job.ID, errors.New("file not found")))

	failed, err := q.Failed(ctx)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, job.ID, failed[0].ID)
	assert.EqualValues(t, "gone-file", failed[0].FileID)
	assert.Equal(t, "file not found", failed[0].Reason)
	assert.False(t, failed[0].FailedAt.IsZero())

	// A failed job is terminal: it is neither pending nor claimable.
	depth, err := q.Depth(ctx)
	require.NoError(t, err)
	assert.Zero(t, depth)
}

func (suite *QueueTestSuite) testDepth(t *testing.T) {
	q := suite.NewQueue(t)
	defer q.Close()
	ctx := context.Background()

	depth, err := q.Depth(ctx)
	require.NoError(t, err)
	assert.Zero(t, depth)

	_, err = q.Enqueue(ctx, "alice", "file-1")
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, "alice", "file-2")
	require.NoError(t, err)

	depth, err = q.Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, depth)
}

func (suite *QueueTestSuite) testDequeueHonorsContext(t *testing.T) {
	q := suite.NewQueue(t)
	defer q.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := q.Dequeue(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
