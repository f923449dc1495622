// Package memory implements an in-memory metadata store.
//
// This implementation is designed for testing and development. All state is
// lost when the process exits. It is the reference implementation of the
// MetadataStore contract: the shared test suite in pkg/store/metadata/testing
// runs against it first.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/dittodrive/pkg/store/metadata"
)

// MemoryMetadataStore implements metadata.MetadataStore using maps.
//
// Thread Safety:
// All operations are protected by a single read-write mutex. Nodes are
// copied on the way in and out so callers can never alias internal state.
type MemoryMetadataStore struct {
	mu sync.RWMutex

	// nodes holds the records keyed by id
	nodes map[metadata.NodeID]*metadata.Node

	// order preserves insertion order for stable listing
	order []metadata.NodeID
}

// NewMemoryMetadataStore creates an empty in-memory metadata store.
func NewMemoryMetadataStore() *MemoryMetadataStore {
	return &MemoryMetadataStore{
		nodes: make(map[metadata.NodeID]*metadata.Node),
	}
}

// Insert assigns a fresh UUID id and stores a copy of the node.
func (s *MemoryMetadataStore) Insert(ctx context.Context, node *metadata.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	node.ID = metadata.NodeID(uuid.NewString())
	if node.CreatedAt.IsZero() {
		node.CreatedAt = time.Now()
	}

	stored := *node
	s.nodes[stored.ID] = &stored
	s.order = append(s.order, stored.ID)
	return nil
}

// GetByID returns a copy of the node with the given id.
func (s *MemoryMetadataStore) GetByID(ctx context.Context, id metadata.NodeID) (*metadata.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.nodes[id]
	if !ok {
		return nil, metadata.ErrNotFound
	}

	copied := *node
	return &copied, nil
}

// GetOwned returns a copy of the node only when it belongs to owner.
func (s *MemoryMetadataStore) GetOwned(ctx context.Context, id metadata.NodeID, owner metadata.UserID) (*metadata.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.nodes[id]
	if !ok || node.OwnerID != owner {
		// Ownership mismatch is reported exactly like absence.
		return nil, metadata.ErrNotFound
	}

	copied := *node
	return &copied, nil
}

// List walks the insertion-ordered index and applies skip/limit paging.
func (s *MemoryMetadataStore) List(ctx context.Context, owner metadata.UserID, parent metadata.NodeID, page int) ([]*metadata.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	skip := page * metadata.PageSize
	matched := 0
	out := make([]*metadata.Node, 0, metadata.PageSize)

	for _, id := range s.order {
		node := s.nodes[id]
		if node.OwnerID != owner || node.ParentID != parent {
			continue
		}
		if matched >= skip {
			copied := *node
			out = append(out, &copied)
			if len(out) == metadata.PageSize {
				break
			}
		}
		matched++
	}

	return out, nil
}

// SetPublic flips the visibility flag under the store lock. The whole
// read-check-write happens inside one critical section, so concurrent
// toggles serialize and no intermediate state is observable.
func (s *MemoryMetadataStore) SetPublic(ctx context.Context, id metadata.NodeID, owner metadata.UserID, public bool) (*metadata.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[id]
	if !ok || node.OwnerID != owner {
		return nil, metadata.ErrNotFound
	}

	node.IsPublic = public

	copied := *node
	return &copied, nil
}

// GetAllContentRefs returns every content reference held by live records.
func (s *MemoryMetadataStore) GetAllContentRefs(ctx context.Context) ([]metadata.ContentID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	refs := make([]metadata.ContentID, 0, len(s.nodes))
	for _, node := range s.nodes {
		if node.ContentRef != "" {
			refs = append(refs, node.ContentRef)
		}
	}
	return refs, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryMetadataStore) Close() error {
	return nil
}
