// Package segset provides record-number-oriented indexing over pluggable
// storage back-ends.
//
// Each indexed value maps to a set of record numbers, represented
// compactly as per-segment existence structures: the record-number space
// is split into fixed-width segments, and each populated segment is
// encoded as a single integer, a sorted offset list, or a dense bitmap,
// whichever is smallest for its record count.
//
// # Quick Start
//
//	adapter := store.NewMemoryAdapter()
//	ix, _ := segset.Open(adapter, segment.DefaultConfig())
//
//	// Query: records where index = "red".
//	rs, _ := ix.RecordSet(ctx, "red")
//	c := rs.Cursor()
//	for rec, ok := c.First(); ok; rec, ok = c.Next() {
//	    // ...
//	}
//
//	// Combine via set algebra.
//	red, _ := ix.RecordSet(ctx, "red")
//	blue, _ := ix.RecordSet(ctx, "blue")
//	both := red.Intersect(blue)
//
// # Bulk Loading
//
// Bulk loads buffer (value, record) associations in memory and merge
// them into the persisted segments in ascending key order, turning
// per-association random I/O into one sequential-ish rewrite per touched
// segment:
//
//	bl := ix.NewBulkLoad()
//	for _, row := range rows {
//	    _ = bl.Add(ctx, row.Color, row.RecordNumber)
//	}
//	err := bl.Close(ctx) // final flush
//
// A flush is bracketed by the adapter's transaction and is idempotent:
// after a storage error the buffers stay intact and the same flush can
// simply be retried.
//
// # Storage
//
// Persistence happens through the narrow store.Adapter interface;
// concrete database back-ends live outside this module. The store
// package ships an in-memory adapter and a compressing decorator.
package segset
