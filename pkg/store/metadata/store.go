package metadata

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a lookup does not resolve to a node. Owner
// scoped lookups return it both for absent nodes and for nodes owned by a
// different user, so callers cannot distinguish the two cases.
var ErrNotFound = errors.New("metadata: node not found")

// PageSize is the fixed listing page size.
const PageSize = 20

// MetadataStore persists node records: point lookup by id, filtered
// listing, and atomic field updates. Implementations must be safe for
// concurrent use; correctness of the hierarchy manager relies on
// per-record atomicity of Insert and SetPublic, not on any global lock.
//
// Store selection is configuration-driven (see pkg/config):
//   - memory: volatile, for tests and development
//   - badger: embedded persistent store
//   - mongo:  shared document database
type MetadataStore interface {
	// Insert persists a new node and assigns its ID. The given node's ID
	// field is overwritten. Insertion order must be observable through List.
	Insert(ctx context.Context, node *Node) error

	// GetByID returns the node with the given id regardless of owner.
	// Returns ErrNotFound if no such node exists.
	GetByID(ctx context.Context, id NodeID) (*Node, error)

	// GetOwned returns the node with the given id only if it is owned by
	// owner. Returns ErrNotFound both when the node is absent and when it
	// belongs to someone else.
	GetOwned(ctx context.Context, id NodeID, owner UserID) (*Node, error)

	// List returns the owner's children of parent in insertion order,
	// skipping page*PageSize records and returning at most PageSize.
	// An empty page is not an error.
	List(ctx context.Context, owner UserID, parent NodeID, page int) ([]*Node, error)

	// SetPublic atomically updates the IsPublic field of the node with the
	// given id, scoped to owner, and returns the updated record. The write
	// must be a single atomic field update against the store so that
	// concurrent toggles converge to one of the two states with no
	// intermediate state observable. Returns ErrNotFound when the owner
	// scoped lookup fails.
	SetPublic(ctx context.Context, id NodeID, owner UserID, public bool) (*Node, error)

	// Close releases store resources.
	Close() error
}

// ContentRefLister is an optional capability reporting every content
// reference held by live records. The orphan sweeper requires it to decide
// which content is still needed.
type ContentRefLister interface {
	// GetAllContentRefs returns the ContentRef of every node that has one.
	GetAllContentRefs(ctx context.Context) ([]ContentID, error)
}
