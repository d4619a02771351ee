// Package store defines the narrow persistence boundary the record-set
// engine reads and writes segment blobs through.
//
// Concrete database back-ends (sqlite3, LMDB, object stores, ...) live
// behind the Adapter interface and are out of scope here; the package
// provides an in-memory reference implementation and decorators that
// compose over the interface.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no blob exists for the key.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`.
var ErrNotFound = errors.New("segment not found")

// Entry is one persisted segment blob for an index value.
type Entry struct {
	Segment uint64
	Data    []byte
}

// Adapter is the external key/value persistence boundary. Blobs are
// keyed by (index value, segment number).
//
// The engine supplies keys in ascending order during a flush but
// tolerates adapters that reorder internally. A flush is bracketed by
// Begin/Commit so it can be treated as all-or-nothing; adapters without
// real transactions may implement the bracket as no-ops at the cost of
// that guarantee. Errors returned by an adapter are propagated to the
// caller unchanged; the engine never retries internally.
type Adapter interface {
	// Get returns the blob for the key, or ErrNotFound.
	Get(ctx context.Context, value string, segnum uint64) ([]byte, error)

	// Put writes the blob for the key, replacing any previous blob.
	Put(ctx context.Context, value string, segnum uint64, data []byte) error

	// Delete removes the blob for the key. Deleting an absent key is
	// not an error.
	Delete(ctx context.Context, value string, segnum uint64) error

	// Scan returns every entry for the value in ascending segment order.
	Scan(ctx context.Context, value string) ([]Entry, error)

	// Begin, Commit and Rollback bracket a transaction.
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
