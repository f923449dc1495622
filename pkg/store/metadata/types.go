package metadata

import "time"

// UserID identifies the owner of a node. It is opaque to this package and
// comes from the session layer; the stores never mint one.
type UserID string

// NodeID is the canonical identifier for a node. Stores assign it at insert
// time (UUID v4). The zero value is the root sentinel: a node whose ParentID
// is RootID lives at the top level of its owner's tree.
type NodeID string

// RootID is the reserved ParentID value meaning "no parent / top level".
const RootID NodeID = ""

// ContentID is an opaque reference used to locate raw bytes in a content
// store. The format is implementation-specific (UUID for filesystem and
// memory, object key suffix for S3) and must be treated as opaque by callers.
// Derived artifacts are addressed as "<ContentID>_<width>".
type ContentID string

// Kind is the node type discriminator. It is immutable after creation.
type Kind string

const (
	KindFolder Kind = "folder"
	KindFile   Kind = "file"
	KindImage  Kind = "image"
)

// ParseKind validates a client-supplied kind string.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindFolder, KindFile, KindImage:
		return Kind(s), true
	}
	return "", false
}

// Node is the persisted metadata record for a file, image or folder.
//
// Invariants enforced by the hierarchy manager (not by stores):
//   - ParentID, when not RootID, references an existing node of KindFolder
//   - folders never carry a ContentRef
//   - files and images always carry one
//
// Stores persist the record as given and only ever mutate IsPublic (via
// SetPublic) after creation.
type Node struct {
	ID        NodeID    `json:"id" bson:"_id"`
	OwnerID   UserID    `json:"owner_id" bson:"owner"`
	Name      string    `json:"name" bson:"name"`
	Kind      Kind      `json:"kind" bson:"kind"`
	ParentID  NodeID    `json:"parent_id" bson:"parent"`
	IsPublic  bool      `json:"is_public" bson:"isPublic"`
	CreatedAt time.Time `json:"created_at" bson:"createdAt"`

	// ContentRef locates the raw bytes in the content store. Never exposed
	// to clients; the hierarchy manager strips it from projections.
	ContentRef ContentID `json:"content_ref,omitempty" bson:"contentRef,omitempty"`
}
