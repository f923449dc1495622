// Package adapter defines the contract protocol adapters implement.
//
// An adapter exposes the drive service over one protocol and owns nothing
// but the transport: listeners, routing, request decoding. All adapters
// share the same service instance, so behavior is identical across
// protocols.
package adapter

import "context"

// Adapter is a protocol-specific server.
//
// Serve starts the server and blocks until the context is cancelled or an
// unrecoverable error occurs. Cancellation triggers graceful shutdown:
// stop accepting work, drain in-flight requests within the adapter's
// shutdown timeout, then return nil.
type Adapter interface {
	Serve(ctx context.Context) error
}
