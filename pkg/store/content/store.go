// Package content defines the content store contract.
//
// The content store persists raw file bytes addressed by an opaque
// ContentID, independent of metadata. It manages only the bytes; hierarchy,
// ownership and access control are the metadata layer's concern. The two are
// coordinated by the hierarchy manager, which writes content before
// committing the metadata record so a crash between the two never yields
// metadata referencing unwritten content.
package content

import (
	"context"
	"errors"
	"fmt"

	"github.com/marmos91/dittodrive/pkg/store/metadata"
)

// ErrContentNotFound is returned when no bytes exist under the given id.
// The hierarchy manager reports this to callers as a plain not-found, since
// a metadata record pointing at missing bytes means the stores have
// desynchronized.
var ErrContentNotFound = errors.New("content: not found")

// ContentStore persists raw bytes addressed by ContentID.
//
// Implementations must be safe for concurrent use. Concurrent writes to the
// same ContentID are undefined (the hierarchy manager never reuses an id for
// a different payload, and derived artifacts are written by exactly one
// worker at a time).
type ContentStore interface {
	// WriteContent durably stores data under id, overwriting any previous
	// content for the same id.
	WriteContent(ctx context.Context, id metadata.ContentID, data []byte) error

	// ReadContent returns the bytes stored under id, or ErrContentNotFound.
	ReadContent(ctx context.Context, id metadata.ContentID) ([]byte, error)

	// ContentExists reports whether bytes exist under id. Absence is not an
	// error; errors are reserved for storage access failures.
	ContentExists(ctx context.Context, id metadata.ContentID) (bool, error)

	// Close releases store resources.
	Close() error
}

// SweepableStore is an optional capability for stores that can enumerate
// and delete their content. The orphan sweeper requires it; stores without
// it simply cannot be swept.
type SweepableStore interface {
	ContentStore

	// ListAllContent returns every ContentID the store currently holds,
	// derived artifacts included.
	ListAllContent(ctx context.Context) ([]metadata.ContentID, error)

	// DeleteContent removes the bytes stored under id. Deleting absent
	// content is not an error.
	DeleteContent(ctx context.Context, id metadata.ContentID) error
}

// DerivedID addresses a derived artifact (thumbnail) of the content at id,
// generated at the given pixel width. Derived artifacts live next to their
// source under "<id>_<width>".
func DerivedID(id metadata.ContentID, width int) metadata.ContentID {
	return metadata.ContentID(fmt.Sprintf("%s_%d", id, width))
}
