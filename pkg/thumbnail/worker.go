package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/metrics"
	"github.com/marmos91/dittodrive/pkg/queue"
	"github.com/marmos91/dittodrive/pkg/store/content"
	"github.com/marmos91/dittodrive/pkg/store/metadata"
)

// WorkerPool consumes thumbnail jobs from a queue and writes the derived
// renditions alongside the original content.
//
// Thread Safety: Safe for concurrent use.
type WorkerPool struct {
	jobs     queue.Queue
	meta     metadata.MetadataStore
	contents content.ContentStore
	metrics  metrics.Metrics
	config   Config

	stopCh chan struct{}
	doneCh chan struct{}
	wg     sync.WaitGroup
}

// Config contains configuration for the thumbnail worker pool.
type Config struct {
	// Workers is the number of concurrent consumers (default: 2)
	Workers int

	// JobTimeout bounds a single job, decode and all writes included
	// (default: 2m)
	JobTimeout time.Duration
}

// NewWorkerPool creates a new thumbnail worker pool.
//
// The pool is initialized but not started. Call Start() to begin consuming
// jobs. The metrics recorder may be nil.
func NewWorkerPool(
	jobs queue.Queue,
	meta metadata.MetadataStore,
	contents content.ContentStore,
	m metrics.Metrics,
	config Config,
) *WorkerPool {
	if config.Workers <= 0 {
		config.Workers = 2
	}
	if config.JobTimeout == 0 {
		config.JobTimeout = 2 * time.Minute
	}

	return &WorkerPool{
		jobs:     jobs,
		meta:     meta,
		contents: contents,
		metrics:  m,
		config:   config,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the worker goroutines.
func (p *WorkerPool) Start() {
	logger.Info("Starting thumbnail workers: count=%d timeout=%s",
		p.config.Workers, p.config.JobTimeout)

	for i := 0; i < p.config.Workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	go func() {
		p.wg.Wait()
		close(p.doneCh)
	}()
}

// Stop signals the workers to stop and waits for in-flight jobs to finish.
//
// Returns the context error if it expires before shutdown completes. Jobs
// interrupted mid-flight stay claimed and are redelivered when the queue
// reopens.
func (p *WorkerPool) Stop(ctx context.Context) error {
	logger.Info("Stopping thumbnail workers...")
	close(p.stopCh)

	select {
	case <-p.doneCh:
		logger.Info("Thumbnail workers stopped")
		return nil
	case <-ctx.Done():
		logger.Warn("Thumbnail worker shutdown timeout")
		return ctx.Err()
	}
}

// worker is a single consumer loop. It blocks on the queue and dispatches
// each claimed job to process.
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	logger.Debug("Thumbnail worker %d started", id)

	for {
		// A dequeue context cancelled on stop lets the blocking wait
		// return promptly.
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			select {
			case <-p.stopCh:
				cancel()
			case <-ctx.Done():
			}
		}()

		job, err := p.jobs.Dequeue(ctx)
		cancel()

		if err != nil {
			select {
			case <-p.stopCh:
				logger.Debug("Thumbnail worker %d stopping", id)
				return
			default:
			}

			logger.Error("Thumbnail worker %d dequeue failed: %v", id, err)
			continue
		}

		p.process(job)
		p.observeDepth()
	}
}

// process runs a single job to completion, marking it completed or failed
// on the queue.
func (p *WorkerPool) process(job *queue.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.JobTimeout)
	defer cancel()

	if err := p.generate(ctx, job); err != nil {
		logger.Warn("Thumbnail job %s failed: file=%s err=%v", job.ID, job.FileID, err)
		p.record("failed")

		if ferr := p.jobs.Fail(ctx, job.ID, err); ferr != nil {
			logger.Error("Failed to mark job %s as failed: %v", job.ID, ferr)
		}
		return
	}

	logger.Debug("Thumbnail job %s completed: file=%s", job.ID, job.FileID)
	p.record("completed")

	if cerr := p.jobs.Complete(ctx, job.ID); cerr != nil {
		logger.Error("Failed to mark job %s as completed: %v", job.ID, cerr)
	}
}

// generate produces every configured rendition for the job's file.
//
// The source record must still exist and belong to the job's owner. A
// rendition that fails to generate is skipped, but a job where every
// rendition fails is reported as failed.
func (p *WorkerPool) generate(ctx context.Context, job *queue.Job) error {
	if job.FileID == "" {
		return errors.New("missing file id")
	}
	if job.OwnerID == "" {
		return errors.New("missing owner id")
	}

	node, err := p.meta.GetOwned(ctx, job.FileID, job.OwnerID)
	if err != nil {
		if errors.Is(err, metadata.ErrNotFound) {
			return errors.New("file not found")
		}
		return fmt.Errorf("failed to load file record: %w", err)
	}

	if node.Kind != metadata.KindImage {
		return fmt.Errorf("file %s is not an image", node.ID)
	}

	src, err := p.contents.ReadContent(ctx, node.ContentRef)
	if err != nil {
		return fmt.Errorf("failed to read source content: %w", err)
	}

	var generated int

	for _, width := range Sizes {
		rendition, err := Generate(src, width)
		if err != nil {
			logger.Warn("Failed to generate %dpx rendition for %s: %v", width, node.ID, err)
			continue
		}

		derived := content.DerivedID(node.ContentRef, width)
		if err := p.contents.WriteContent(ctx, derived, rendition); err != nil {
			logger.Warn("Failed to store %dpx rendition for %s: %v", width, node.ID, err)
			continue
		}

		generated++
	}

	if generated == 0 {
		return errors.New("no renditions could be generated")
	}

	return nil
}

func (p *WorkerPool) record(result string) {
	if p.metrics != nil {
		p.metrics.RecordJob(result)
	}
}

func (p *WorkerPool) observeDepth() {
	if p.metrics == nil {
		return
	}

	depth, err := p.jobs.Depth(context.Background())
	if err != nil {
		return
	}

	p.metrics.SetQueueDepth(depth)
}
