// Package badger implements a persistent metadata store backed by BadgerDB.
//
// This implementation is suitable for single-node deployments that need
// metadata to survive restarts without running a separate database. Records
// are stored as JSON under namespaced keys (see keys.go).
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/marmos91/dittodrive/pkg/store/metadata"
)

// sequenceBandwidth is how many sequence numbers badger leases at a time.
// Leaked numbers on crash only create gaps in the listing index, which the
// prefix scan tolerates.
const sequenceBandwidth = 128

// BadgerMetadataStore implements metadata.MetadataStore using BadgerDB.
//
// Thread Safety:
// BadgerDB transactions provide the per-record atomicity the hierarchy
// manager relies on. Insert and SetPublic each run in a single read-write
// transaction, so concurrent toggles on the same node serialize at commit
// and converge to one of the two states.
type BadgerMetadataStore struct {
	db  *badger.DB
	seq *badger.Sequence
}

// NewBadgerMetadataStore opens (or creates) the database at path.
func NewBadgerMetadataStore(ctx context.Context, path string) (*BadgerMetadataStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger metadata store: %w", err)
	}

	seq, err := db.GetSequence([]byte("node-seq"), sequenceBandwidth)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open node sequence: %w", err)
	}

	return &BadgerMetadataStore{db: db, seq: seq}, nil
}

// Insert assigns a fresh UUID id and persists the node together with its
// listing index entry in one transaction.
func (s *BadgerMetadataStore) Insert(ctx context.Context, node *metadata.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	node.ID = metadata.NodeID(uuid.NewString())
	if node.CreatedAt.IsZero() {
		node.CreatedAt = time.Now()
	}

	seq, err := s.seq.Next()
	if err != nil {
		return fmt.Errorf("failed to allocate sequence number: %w", err)
	}

	value, err := json.Marshal(node)
	if err != nil {
		return fmt.Errorf("failed to encode node: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(keyNode(node.ID), value); err != nil {
			return err
		}
		return txn.Set(keyIndex(node.OwnerID, node.ParentID, seq), []byte(node.ID))
	})
}

// GetByID returns the node with the given id regardless of owner.
func (s *BadgerMetadataStore) GetByID(ctx context.Context, id metadata.NodeID) (*metadata.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var node *metadata.Node
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		node, err = getNode(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

// GetOwned returns the node only when it belongs to owner. Ownership
// mismatch is reported exactly like absence.
func (s *BadgerMetadataStore) GetOwned(ctx context.Context, id metadata.NodeID, owner metadata.UserID) (*metadata.Node, error) {
	node, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if node.OwnerID != owner {
		return nil, metadata.ErrNotFound
	}
	return node, nil
}

// List scans the folder's listing index in key order, which is insertion
// order, applying skip/limit paging without materializing skipped nodes.
func (s *BadgerMetadataStore) List(ctx context.Context, owner metadata.UserID, parent metadata.NodeID, page int) ([]*metadata.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	skip := page * metadata.PageSize
	out := make([]*metadata.Node, 0, metadata.PageSize)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = keyIndexPrefix(owner, parent)

		it := txn.NewIterator(opts)
		defer it.Close()

		seen := 0
		for it.Rewind(); it.Valid(); it.Next() {
			if seen < skip {
				seen++
				continue
			}
			if len(out) == metadata.PageSize {
				break
			}

			var id metadata.NodeID
			if err := it.Item().Value(func(val []byte) error {
				id = metadata.NodeID(val)
				return nil
			}); err != nil {
				return err
			}

			node, err := getNode(txn, id)
			if err != nil {
				// Index entry without a backing record. Should not happen
				// since both are written in one transaction; skip it.
				if errors.Is(err, metadata.ErrNotFound) {
					continue
				}
				return err
			}
			out = append(out, node)
			seen++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// SetPublic updates the visibility flag in a single read-write transaction.
// Badger aborts conflicting transactions at commit, so the update is atomic
// with respect to concurrent toggles.
func (s *BadgerMetadataStore) SetPublic(ctx context.Context, id metadata.NodeID, owner metadata.UserID, public bool) (*metadata.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var updated *metadata.Node
	for {
		err := s.db.Update(func(txn *badger.Txn) error {
			node, err := getNode(txn, id)
			if err != nil {
				return err
			}
			if node.OwnerID != owner {
				return metadata.ErrNotFound
			}

			node.IsPublic = public

			value, err := json.Marshal(node)
			if err != nil {
				return fmt.Errorf("failed to encode node: %w", err)
			}
			if err := txn.Set(keyNode(id), value); err != nil {
				return err
			}

			updated = node
			return nil
		})
		if errors.Is(err, badger.ErrConflict) {
			// Lost the race against a concurrent toggle; retry on the new
			// committed state. Last writer wins.
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
}

// GetAllContentRefs scans every node record and collects the non-empty
// content references.
func (s *BadgerMetadataStore) GetAllContentRefs(ctx context.Context) ([]metadata.ContentID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var refs []metadata.ContentID
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixNode)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var node metadata.Node
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &node)
			}); err != nil {
				return fmt.Errorf("failed to decode node: %w", err)
			}

			if node.ContentRef != "" {
				refs = append(refs, node.ContentRef)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return refs, nil
}

// Close releases the sequence lease and closes the database.
func (s *BadgerMetadataStore) Close() error {
	if err := s.seq.Release(); err != nil {
		_ = s.db.Close()
		return fmt.Errorf("failed to release node sequence: %w", err)
	}
	return s.db.Close()
}

// getNode loads and decodes one node within a transaction.
func getNode(txn *badger.Txn, id metadata.NodeID) (*metadata.Node, error) {
	item, err := txn.Get(keyNode(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, metadata.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var node metadata.Node
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &node)
	}); err != nil {
		return nil, fmt.Errorf("failed to decode node: %w", err)
	}
	return &node, nil
}
