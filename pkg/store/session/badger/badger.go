// Package badger implements a persistent session store backed by BadgerDB.
//
// Sessions survive process restarts, so authenticated clients are not logged
// out by a redeploy. Expiry uses badger's native entry TTL: expired tokens
// disappear from the database without any sweeper of our own.
package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/marmos91/dittodrive/pkg/store/metadata"
)

// prefixSession namespaces session keys: "t:<token>" → user id bytes.
const prefixSession = "t:"

// BadgerSessionStore implements session.SessionStore using BadgerDB TTL
// entries.
type BadgerSessionStore struct {
	db *badger.DB
}

// NewBadgerSessionStore opens (or creates) the database at path.
func NewBadgerSessionStore(ctx context.Context, path string) (*BadgerSessionStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger session store: %w", err)
	}

	return &BadgerSessionStore{db: db}, nil
}

func keySession(token string) []byte {
	return []byte(prefixSession + token)
}

func (s *BadgerSessionStore) Resolve(ctx context.Context, token string) (metadata.UserID, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	var user metadata.UserID
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keySession(token))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			user = metadata.UserID(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		// Unknown or expired: badger drops TTL-expired entries on read.
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve session: %w", err)
	}
	return user, true, nil
}

func (s *BadgerSessionStore) Put(ctx context.Context, token string, user metadata.UserID, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(keySession(token), []byte(user)).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (s *BadgerSessionStore) Delete(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(keySession(token))
	})
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *BadgerSessionStore) Close() error {
	return s.db.Close()
}
