package badger

import (
	"fmt"

	"github.com/marmos91/dittodrive/pkg/store/metadata"
)

// Database Key Namespace Design
// ==============================
//
// BadgerDB is a key-value store, so we use prefixed keys to organize the
// different record types into namespaces:
//
// Data Type        Prefix   Key Format                         Value
// =======================================================================
// Node Data        "n:"     n:<uuid>                           Node (JSON)
// Listing Index    "i:"     i:<owner>:<parent>:<seq>           nodeID (bytes)
//
// Node data gives O(1) point lookups by id. The listing index is
// denormalized, one entry per node, keyed by a zero-padded monotonic
// sequence number so that a prefix scan over "i:<owner>:<parent>:"
// yields the owner's children of a folder in insertion order. The root
// sentinel (empty NodeID) participates in the index like any other parent.
const (
	prefixNode  = "n:"
	prefixIndex = "i:"
)

// keyNode generates the key for node data.
func keyNode(id metadata.NodeID) []byte {
	return []byte(prefixNode + string(id))
}

// keyIndex generates a listing index key for one node.
//
// Format: "i:<owner>:<parent>:<seq>" with seq zero-padded to 20 digits so
// lexicographic key order matches numeric insertion order.
func keyIndex(owner metadata.UserID, parent metadata.NodeID, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%s:%s:%020d", prefixIndex, owner, parent, seq))
}

// keyIndexPrefix generates the prefix for range scanning one folder's
// listing index.
func keyIndexPrefix(owner metadata.UserID, parent metadata.NodeID) []byte {
	return []byte(fmt.Sprintf("%s%s:%s:", prefixIndex, owner, parent))
}
