package segset

import (
	"context"
	"time"

	"github.com/hupe1980/segset/deferred"
	"github.com/hupe1980/segset/resource"
)

// BulkLoad is a bulk-load session: it buffers (value, record)
// associations in memory and merges them into the persisted segments on
// flush, in ascending (value, segment) order.
//
// A session exclusively owns its buffers and must not be shared across
// goroutines or sessions. The flush is the unit of durability: a long
// load may only be abandoned between flush boundaries.
type BulkLoad struct {
	ix     *Index
	ctrl   *resource.Controller
	buf    *deferred.Buffer
	closed bool
}

// NewBulkLoad opens a bulk-load session against the index.
func (ix *Index) NewBulkLoad() *BulkLoad {
	ctrl := resource.NewController(ix.opts.resource)
	return &BulkLoad{
		ix:   ix,
		ctrl: ctrl,
		buf:  deferred.NewBuffer(ix.cfg, ctrl),
	}
}

// Add buffers the association (value -> rec). When the buffer memory
// limit is reached it returns ErrResourceExhausted with the buffer left
// intact; flush and retry the operation. With WithFlushEvery configured,
// reaching the checkpoint triggers a flush automatically.
func (bl *BulkLoad) Add(ctx context.Context, value string, rec uint64) error {
	if bl.closed {
		return ErrClosed
	}
	if err := bl.buf.Add(value, rec); err != nil {
		return translateError(err)
	}
	if bl.ix.opts.trackExistence {
		if err := bl.buf.Add(existenceValue, rec); err != nil {
			return translateError(err)
		}
	}
	return bl.checkpoint(ctx)
}

// Remove buffers the dissociation (value -/-> rec). The existence map
// is not touched: removing one index entry does not delete the record.
func (bl *BulkLoad) Remove(ctx context.Context, value string, rec uint64) error {
	if bl.closed {
		return ErrClosed
	}
	if err := bl.buf.Remove(value, rec); err != nil {
		return translateError(err)
	}
	return bl.checkpoint(ctx)
}

func (bl *BulkLoad) checkpoint(ctx context.Context) error {
	if n := bl.ix.opts.flushEvery; n > 0 && bl.buf.Len() >= n {
		return bl.Flush(ctx)
	}
	return nil
}

// Flush merges all buffered operations into the persisted segments
// inside one adapter transaction. On a storage error the buffers stay
// intact and the same flush can be retried; flushing is idempotent.
func (bl *BulkLoad) Flush(ctx context.Context) error {
	if bl.closed {
		return ErrClosed
	}
	ops := bl.buf.Len()
	if ops == 0 {
		return nil
	}
	start := time.Now()
	err := bl.buf.Flush(ctx, bl.ix.adapter)
	bl.ix.opts.metrics.RecordFlush(ops, time.Since(start), err)
	bl.ix.opts.logger.LogFlush(ctx, ops, err)
	return translateError(err)
}

// Buffered returns the number of operations awaiting flush.
func (bl *BulkLoad) Buffered() int { return bl.buf.Len() }

// MemoryUsage returns the bytes reserved for buffered state.
func (bl *BulkLoad) MemoryUsage() int64 { return bl.ctrl.MemoryUsage() }

// Close flushes any remaining buffered operations and ends the session.
// After Close the session is unusable.
func (bl *BulkLoad) Close(ctx context.Context) error {
	if bl.closed {
		return nil
	}
	err := bl.Flush(ctx)
	if err == nil {
		bl.closed = true
	}
	return err
}
