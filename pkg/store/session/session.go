// Package session defines the session store contract.
//
// The session store maps opaque bearer tokens to user identifiers with an
// expiry. It is the single place caller identity is resolved: the HTTP
// adapter calls Resolve once per request and hands the result to the
// hierarchy manager, which never re-implements the lookup inline. Token
// issuance is not a product surface of this service; Put exists so
// deployments and tests can mint sessions.
package session

import (
	"context"
	"time"

	"github.com/marmos91/dittodrive/pkg/store/metadata"
)

// SessionStore resolves opaque tokens to user identifiers.
//
// Implementations must be safe for concurrent use. An expired or unknown
// token resolves to (“”, false, nil); errors are reserved for storage
// failures.
type SessionStore interface {
	// Resolve returns the user the token belongs to, or ok=false when the
	// token is unknown or expired.
	Resolve(ctx context.Context, token string) (user metadata.UserID, ok bool, err error)

	// Put stores a token for user, expiring after ttl.
	Put(ctx context.Context, token string, user metadata.UserID, ttl time.Duration) error

	// Delete invalidates a token. Deleting an unknown token is not an error.
	Delete(ctx context.Context, token string) error

	// Close releases store resources.
	Close() error
}
