// Package gc removes orphaned content from the content store.
//
// Orphans are blobs no live metadata record references: leftovers from
// crashes between a content write and the metadata commit, and thumbnail
// renditions whose source record was removed out of band. The sweeper runs
// in the background and periodically deletes them.
package gc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/store/content"
	"github.com/marmos91/dittodrive/pkg/store/metadata"
)

// Sweeper performs periodic orphan collection on a content store.
//
// Thread Safety: Safe for concurrent use.
type Sweeper struct {
	meta     metadata.ContentRefLister
	contents content.SweepableStore
	config   Config
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// Config contains configuration for the orphan sweeper.
type Config struct {
	// Enabled controls whether sweeping is active
	Enabled bool

	// Interval is how often to sweep (default: 24h)
	Interval time.Duration

	// DryRun logs what would be deleted without deleting (default: false)
	DryRun bool
}

// NewSweeper creates a sweeper over the given stores.
//
// Both stores must expose the optional sweep capabilities: the metadata
// store must list live content references and the content store must
// enumerate and delete blobs. Call Start() to begin background sweeping.
func NewSweeper(meta metadata.MetadataStore, contents content.ContentStore, config Config) (*Sweeper, error) {
	lister, ok := meta.(metadata.ContentRefLister)
	if !ok {
		return nil, fmt.Errorf("metadata store does not support listing content references")
	}

	sweepable, ok := contents.(content.SweepableStore)
	if !ok {
		return nil, fmt.Errorf("content store does not support sweeping")
	}

	if config.Interval == 0 {
		config.Interval = 24 * time.Hour
	}

	return &Sweeper{
		meta:     lister,
		contents: sweepable,
		config:   config,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins background sweeping. Safe to call once.
func (s *Sweeper) Start() {
	if !s.config.Enabled {
		logger.Info("Orphan sweeping disabled")
		return
	}

	logger.Info("Starting orphan sweeper: interval=%s dry_run=%v",
		s.config.Interval, s.config.DryRun)

	go s.worker()
}

// Stop stops the sweeper and waits for an in-progress sweep to finish.
// Returns the context error if it expires before shutdown completes.
func (s *Sweeper) Stop(ctx context.Context) error {
	if !s.config.Enabled {
		return nil
	}

	close(s.stopCh)

	select {
	case <-s.doneCh:
		logger.Info("Orphan sweeper stopped")
		return nil
	case <-ctx.Done():
		logger.Warn("Orphan sweeper shutdown timeout")
		return ctx.Err()
	}
}

// SweepNow triggers an immediate sweep, blocking until it completes.
func (s *Sweeper) SweepNow(ctx context.Context) (*Stats, error) {
	return s.sweep(ctx)
}

func (s *Sweeper) worker() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			stats, err := s.sweep(ctx)
			cancel()

			if err != nil {
				logger.Error("Orphan sweep failed: %v", err)
			} else {
				logger.Info("Orphan sweep completed: %s", stats.Summary())
			}

		case <-s.stopCh:
			return
		}
	}
}

// sweep performs a single collection run: list live references, list
// stored content, delete the difference. A rendition is live as long as
// its source reference is.
func (s *Sweeper) sweep(ctx context.Context) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}

	referenced, err := s.meta.GetAllContentRefs(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list content references: %w", err)
	}
	stats.ReferencedCount = len(referenced)

	referencedSet := make(map[metadata.ContentID]struct{}, len(referenced))
	for _, ref := range referenced {
		referencedSet[ref] = struct{}{}
	}

	existing, err := s.contents.ListAllContent(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list stored content: %w", err)
	}
	stats.ExistingCount = len(existing)

	var orphaned []metadata.ContentID
	for _, id := range existing {
		if !isReferenced(id, referencedSet) {
			orphaned = append(orphaned, id)
		}
	}
	stats.OrphanedCount = len(orphaned)

	if len(orphaned) == 0 {
		stats.EndTime = time.Now()
		return stats, nil
	}

	if s.config.DryRun {
		for _, id := range orphaned {
			logger.Info("Sweep (dry run): would delete %s", id)
		}
		stats.EndTime = time.Now()
		return stats, nil
	}

	for _, id := range orphaned {
		if err := ctx.Err(); err != nil {
			stats.EndTime = time.Now()
			return stats, err
		}

		if err := s.contents.DeleteContent(ctx, id); err != nil {
			logger.Warn("Failed to delete orphaned content %s: %v", id, err)
			stats.FailedCount++
			continue
		}
		stats.DeletedCount++
	}

	stats.EndTime = time.Now()
	return stats, nil
}

// isReferenced reports whether id is live: either referenced directly, or
// a "<ref>_<width>" rendition of a referenced blob.
func isReferenced(id metadata.ContentID, refs map[metadata.ContentID]struct{}) bool {
	if _, ok := refs[id]; ok {
		return true
	}

	idx := strings.LastIndexByte(string(id), '_')
	if idx <= 0 {
		return false
	}

	suffix := string(id)[idx+1:]
	if suffix == "" {
		return false
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return false
		}
	}

	_, ok := refs[metadata.ContentID(string(id)[:idx])]
	return ok
}

// Stats contains statistics from a single sweep.
type Stats struct {
	StartTime       time.Time
	EndTime         time.Time
	ReferencedCount int
	ExistingCount   int
	OrphanedCount   int
	DeletedCount    int
	FailedCount     int
}

// Duration returns the total sweep duration.
func (s *Stats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// Summary returns a human-readable summary of the sweep.
func (s *Stats) Summary() string {
	return fmt.Sprintf("referenced=%d existing=%d orphaned=%d deleted=%d failed=%d duration=%s",
		s.ReferencedCount, s.ExistingCount, s.OrphanedCount,
		s.DeletedCount, s.FailedCount, s.Duration())
}
