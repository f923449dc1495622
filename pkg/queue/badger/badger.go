// Package badger implements a durable work queue backed by BadgerDB.
//
// Key namespaces:
//
//	Data Type     Prefix    Key Format        Value
//	=====================================================
//	Pending       "q:p:"    q:p:<seq>         Job (JSON)
//	In Progress   "q:c:"    q:c:<jobID>       Job (JSON)
//	Failed        "q:f:"    q:f:<jobID>       FailedJob (JSON)
//
// Pending keys carry a zero-padded monotonic sequence number so a prefix
// scan yields jobs in enqueue order. A claim moves the job from the pending
// namespace to the in-progress namespace in one transaction; two concurrent
// claims of the same key conflict at commit and one retries on the next
// pending job. Jobs still in the in-progress namespace when the queue is
// reopened were claimed by a process that died, so they are moved back to
// pending (at-least-once delivery).
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/queue"
	"github.com/marmos91/dittodrive/pkg/store/metadata"
)

const (
	prefixPending    = "q:p:"
	prefixInProgress = "q:c:"
	prefixFailed     = "q:f:"

	sequenceBandwidth = 128

	// pollInterval bounds how long a blocked Dequeue waits before rechecking
	// the database. The in-process notify channel makes the common case
	// immediate; polling covers jobs enqueued by other processes sharing
	// the database directory.
	pollInterval = 250 * time.Millisecond
)

// BadgerQueue implements queue.Queue with BadgerDB persistence.
type BadgerQueue struct {
	db     *badger.DB
	seq    *badger.Sequence
	notify chan struct{}
}

// NewBadgerQueue opens (or creates) the queue database at path and requeues
// any jobs orphaned in the in-progress namespace by a previous crash.
func NewBadgerQueue(ctx context.Context, path string) (*BadgerQueue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger queue: %w", err)
	}

	seq, err := db.GetSequence([]byte("job-seq"), sequenceBandwidth)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open job sequence: %w", err)
	}

	q := &BadgerQueue{
		db:     db,
		seq:    seq,
		notify: make(chan struct{}, 1),
	}

	if err := q.requeueOrphans(); err != nil {
		_ = q.Close()
		return nil, err
	}

	return q, nil
}

// requeueOrphans moves in-progress jobs from a dead process back to pending.
func (q *BadgerQueue) requeueOrphans() error {
	var orphans [][]byte

	err := q.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixInProgress)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			orphans = append(orphans, value)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan orphaned jobs: %w", err)
	}

	for _, value := range orphans {
		var job queue.Job
		if err := json.Unmarshal(value, &job); err != nil {
			return fmt.Errorf("failed to decode orphaned job: %w", err)
		}

		seq, err := q.seq.Next()
		if err != nil {
			return fmt.Errorf("failed to allocate sequence number: %w", err)
		}

		err = q.db.Update(func(txn *badger.Txn) error {
			if err := txn.Set(keyPending(seq), value); err != nil {
				return err
			}
			return txn.Delete(keyInProgress(job.ID))
		})
		if err != nil {
			return fmt.Errorf("failed to requeue orphaned job %s: %w", job.ID, err)
		}

		logger.Warn("Requeued orphaned job %s (file %s)", job.ID, job.FileID)
	}

	return nil
}

func keyPending(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", prefixPending, seq))
}

func keyInProgress(jobID string) []byte {
	return []byte(prefixInProgress + jobID)
}

func keyFailed(jobID string) []byte {
	return []byte(prefixFailed + jobID)
}

func (q *BadgerQueue) Enqueue(ctx context.Context, owner metadata.UserID, fileID metadata.NodeID) (*queue.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	job := &queue.Job{
		ID:         uuid.NewString(),
		OwnerID:    owner,
		FileID:     fileID,
		EnqueuedAt: time.Now(),
	}

	value, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to encode job: %w", err)
	}

	seq, err := q.seq.Next()
	if err != nil {
		return nil, fmt.Errorf("failed to allocate sequence number: %w", err)
	}

	err = q.db.Update(func(txn *badger.Txn) error {
		return txn.Set(keyPending(seq), value)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}

	select {
	case q.notify <- struct{}{}:
	default:
	}

	return job, nil
}

func (q *BadgerQueue) Dequeue(ctx context.Context) (*queue.Job, error) {
	for {
		job, err := q.tryClaim()
		if err != nil {
			return nil, err
		}
		if job != nil {
			return job, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.notify:
		case <-time.After(pollInterval):
		}
	}
}

// tryClaim atomically moves the oldest pending job to the in-progress
// namespace. Returns (nil, nil) when the queue is empty. A commit conflict
// means another worker claimed the same key first; the caller simply tries
// again.
func (q *BadgerQueue) tryClaim() (*queue.Job, error) {
	for {
		var job *queue.Job

		err := q.db.Update(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = []byte(prefixPending)
			opts.PrefetchValues = false

			it := txn.NewIterator(opts)
			it.Rewind()
			if !it.Valid() {
				it.Close()
				return nil
			}
			key := it.Item().KeyCopy(nil)
			it.Close()

			// Re-read through the transaction so the claim participates in
			// conflict detection.
			item, err := txn.Get(key)
			if err != nil {
				return err
			}

			var claimed queue.Job
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &claimed)
			}); err != nil {
				return fmt.Errorf("failed to decode job: %w", err)
			}

			value, err := json.Marshal(&claimed)
			if err != nil {
				return fmt.Errorf("failed to encode job: %w", err)
			}

			if err := txn.Delete(key); err != nil {
				return err
			}
			if err := txn.Set(keyInProgress(claimed.ID), value); err != nil {
				return err
			}

			job = &claimed
			return nil
		})
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return job, nil
	}
}

func (q *BadgerQueue) Complete(ctx context.Context, jobID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return q.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(keyInProgress(jobID)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return queue.ErrNoSuchJob
			}
			return err
		}
		return txn.Delete(keyInProgress(jobID))
	})
}

func (q *BadgerQueue) Fail(ctx context.Context, jobID string, cause error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return q.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(keyInProgress(jobID))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return queue.ErrNoSuchJob
			}
			return err
		}

		var job queue.Job
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &job)
		}); err != nil {
			return fmt.Errorf("failed to decode job: %w", err)
		}

		failed := queue.FailedJob{
			Job:      job,
			Reason:   cause.Error(),
			FailedAt: time.Now(),
		}
		value, err := json.Marshal(&failed)
		if err != nil {
			return fmt.Errorf("failed to encode failed job: %w", err)
		}

		if err := txn.Delete(keyInProgress(jobID)); err != nil {
			return err
		}
		return txn.Set(keyFailed(jobID), value)
	})
}

func (q *BadgerQueue) Failed(ctx context.Context) ([]queue.FailedJob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []queue.FailedJob
	err := q.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixFailed)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var failed queue.FailedJob
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &failed)
			}); err != nil {
				return fmt.Errorf("failed to decode failed job: %w", err)
			}
			out = append(out, failed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (q *BadgerQueue) Depth(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	count := 0
	err := q.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixPending)
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Close releases the sequence lease and closes the database.
func (q *BadgerQueue) Close() error {
	var errs []string
	if err := q.seq.Release(); err != nil {
		errs = append(errs, err.Error())
	}
	if err := q.db.Close(); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to close badger queue: %s", strings.Join(errs, "; "))
	}
	return nil
}
