// Package memory implements an in-memory content store for testing and
// development. All data is lost when the process exits.
package memory

import (
	"context"
	"sync"

	"github.com/marmos91/dittodrive/pkg/store/content"
	"github.com/marmos91/dittodrive/pkg/store/metadata"
)

// MemoryContentStore implements content.ContentStore using a map.
//
// Thread Safety:
// All operations are protected by a sync.RWMutex. Data is copied on read
// and write to prevent races with caller-owned buffers.
type MemoryContentStore struct {
	mu   sync.RWMutex
	data map[metadata.ContentID][]byte
}

// NewMemoryContentStore creates an empty in-memory content store.
func NewMemoryContentStore() *MemoryContentStore {
	return &MemoryContentStore{
		data: make(map[metadata.ContentID][]byte),
	}
}

func (s *MemoryContentStore) WriteContent(ctx context.Context, id metadata.ContentID, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	copied := make([]byte, len(data))
	copy(copied, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = copied
	return nil
}

func (s *MemoryContentStore) ReadContent(ctx context.Context, id metadata.ContentID) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.data[id]
	if !ok {
		return nil, content.ErrContentNotFound
	}

	copied := make([]byte, len(data))
	copy(copied, data)
	return copied, nil
}

func (s *MemoryContentStore) ContentExists(ctx context.Context, id metadata.ContentID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.data[id]
	return ok, nil
}

func (s *MemoryContentStore) ListAllContent(ctx context.Context) ([]metadata.ContentID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]metadata.ContentID, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *MemoryContentStore) DeleteContent(ctx context.Context, id metadata.ContentID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

func (s *MemoryContentStore) Close() error {
	return nil
}

var _ content.SweepableStore = (*MemoryContentStore)(nil)
