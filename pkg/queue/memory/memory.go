// Package memory implements a volatile in-memory work queue for testing and
// development. Jobs do not survive a process restart; production deployments
// use the badger-backed queue.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/dittodrive/pkg/queue"
	"github.com/marmos91/dittodrive/pkg/store/metadata"
)

// MemoryQueue implements queue.Queue using slices and maps under one mutex.
//
// A buffered notify channel wakes one blocked Dequeue per Enqueue; claims
// happen under the mutex, so they are exclusive by construction.
type MemoryQueue struct {
	mu      sync.Mutex
	pending []*queue.Job
	claimed map[string]*queue.Job
	failed  []queue.FailedJob

	notify chan struct{}
}

// NewMemoryQueue creates an empty in-memory queue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		claimed: make(map[string]*queue.Job),
		notify:  make(chan struct{}, 1),
	}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, owner metadata.UserID, fileID metadata.NodeID) (*queue.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	job := &queue.Job{
		ID:         uuid.NewString(),
		OwnerID:    owner,
		FileID:     fileID,
		EnqueuedAt: time.Now(),
	}

	q.mu.Lock()
	q.pending = append(q.pending, job)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}

	copied := *job
	return &copied, nil
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (*queue.Job, error) {
	for {
		if job := q.tryClaim(); job != nil {
			return job, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.notify:
		}
	}
}

// tryClaim pops the oldest pending job, if any, and records the claim.
func (q *MemoryQueue) tryClaim() *queue.Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return nil
	}

	job := q.pending[0]
	q.pending = q.pending[1:]
	q.claimed[job.ID] = job

	// There may be more pending jobs and more blocked consumers.
	if len(q.pending) > 0 {
		select {
		case q.notify <- struct{}{}:
		default:
		}
	}

	copied := *job
	return &copied
}

func (q *MemoryQueue) Complete(ctx context.Context, jobID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.claimed[jobID]; !ok {
		return queue.ErrNoSuchJob
	}
	delete(q.claimed, jobID)
	return nil
}

func (q *MemoryQueue) Fail(ctx context.Context, jobID string, cause error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.claimed[jobID]
	if !ok {
		return queue.ErrNoSuchJob
	}
	delete(q.claimed, jobID)

	q.failed = append(q.failed, queue.FailedJob{
		Job:      *job,
		Reason:   cause.Error(),
		FailedAt: time.Now(),
	})
	return nil
}

func (q *MemoryQueue) Failed(ctx context.Context) ([]queue.FailedJob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]queue.FailedJob, len(q.failed))
	copy(out, q.failed)
	return out, nil
}

func (q *MemoryQueue) Depth(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending), nil
}

func (q *MemoryQueue) Close() error {
	return nil
}
