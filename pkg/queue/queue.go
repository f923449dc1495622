// Package queue defines the derived-work queue contract.
//
// The queue is the system's one asynchronous boundary: image uploads enqueue
// a job after their metadata commit, and a pool of workers (pkg/thumbnail)
// dequeues jobs and produces thumbnail artifacts, independent of the
// request/response cycle.
//
// Delivery semantics are at-least-once: a claimed job that is neither
// completed nor failed (for example because the process crashed) is
// redelivered. Completed jobs are never redelivered. Failed jobs are not
// retried automatically; they are retained with their error so an operator
// can inspect them.
package queue

import (
	"context"
	"errors"
	"time"

	"github.com/marmos91/dittodrive/pkg/store/metadata"
)

// ErrNoSuchJob is returned by Complete and Fail when the job id does not
// name a claimed job.
var ErrNoSuchJob = errors.New("queue: no such job")

// State is the lifecycle state of a job:
// Enqueued → InProgress → Completed | Failed.
type State string

const (
	StateEnqueued   State = "enqueued"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Job is one unit of derived-artifact work tied to one image node.
type Job struct {
	ID         string          `json:"id"`
	OwnerID    metadata.UserID `json:"owner_id"`
	FileID     metadata.NodeID `json:"file_id"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// FailedJob is a terminally failed job retained for operator visibility.
type FailedJob struct {
	Job
	Reason   string    `json:"reason"`
	FailedAt time.Time `json:"failed_at"`
}

// Queue is a durable work queue with exclusive claims.
//
// Implementations must guarantee that a job handed out by Dequeue is not
// handed to any other caller until it is failed back in or redelivered
// after a restart.
type Queue interface {
	// Enqueue appends a job for the given image node and returns it with
	// its assigned id. Enqueue never blocks on consumers.
	Enqueue(ctx context.Context, owner metadata.UserID, fileID metadata.NodeID) (*Job, error)

	// Dequeue claims exactly one job, blocking until one is available or
	// ctx is done. The claim is exclusive: no two callers receive the same
	// job concurrently.
	Dequeue(ctx context.Context) (*Job, error)

	// Complete acknowledges a claimed job. Completion is terminal; the
	// queue will not redeliver a completed job.
	Complete(ctx context.Context, jobID string) error

	// Fail marks a claimed job as terminally failed, retaining the job and
	// cause for inspection.
	Fail(ctx context.Context, jobID string, cause error) error

	// Failed lists the retained failed jobs.
	Failed(ctx context.Context) ([]FailedJob, error)

	// Depth returns the number of jobs waiting to be claimed.
	Depth(ctx context.Context) (int, error)

	// Close releases queue resources.
	Close() error
}
