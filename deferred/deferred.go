// Package deferred implements the deferred-update merge pipeline for
// bulk loads.
//
// Applying each (index value, record) association individually against
// persisted segments costs one random read-modify-write per association.
// The pipeline instead accumulates associations in memory, keyed by
// (value, segment number), and merges them into the persisted segments
// in ascending key order on flush: O(insertions) random I/Os become
// O(distinct segments touched) sequential-ish I/Os, with every touched
// segment rewritten exactly once per flush.
package deferred

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/segset/resource"
	"github.com/hupe1980/segset/segment"
	"github.com/hupe1980/segset/store"
)

// ErrBufferFull is returned by Add and Remove when the configured buffer
// memory limit is reached. The caller should flush and retry; already
// buffered operations are unaffected.
var ErrBufferFull = errors.New("deferred-update buffer memory limit reached")

// Accounting charged against the resource controller. Pending offsets
// live in roaring bitmaps whose dense containers are bounded by the
// bitmap representation, so a per-delta reservation of one segment
// bitmap plus a small per-operation cost is a safe upper bound.
const (
	deltaCost = 96 // per touched (value, segment) pair
	opCost    = 2  // per buffered offset
)

// delta holds the pending mutations for one (value, segment) pair.
// An offset is in at most one of the two sets; the most recent of
// Add/Remove for a record wins.
type delta struct {
	adds    *roaring.Bitmap
	removes *roaring.Bitmap
}

// Buffer accumulates index mutations for one bulk-load session.
//
// A Buffer is exclusively owned by the session that created it and is
// not safe for concurrent use. It must not be shared across sessions.
type Buffer struct {
	cfg      segment.Config
	ctrl     *resource.Controller
	values   map[string]map[uint64]*delta
	ops      int
	reserved int64
}

// NewBuffer creates an empty buffer. ctrl may be nil, in which case no
// memory limit is enforced.
func NewBuffer(cfg segment.Config, ctrl *resource.Controller) *Buffer {
	return &Buffer{
		cfg:    cfg,
		ctrl:   ctrl,
		values: make(map[string]map[uint64]*delta),
	}
}

// Len returns the number of buffered operations.
func (b *Buffer) Len() int { return b.ops }

// IsEmpty reports whether the buffer holds no pending operations.
func (b *Buffer) IsEmpty() bool { return b.ops == 0 }

// MemoryEstimate returns the bytes reserved for buffered state.
func (b *Buffer) MemoryEstimate() int64 { return b.reserved }

// Add buffers the association (value -> rec). It returns ErrBufferFull
// when the memory limit is reached, leaving the buffer unchanged.
func (b *Buffer) Add(value string, rec uint64) error {
	return b.buffer(value, rec, true)
}

// Remove buffers the dissociation (value -/-> rec).
func (b *Buffer) Remove(value string, rec uint64) error {
	return b.buffer(value, rec, false)
}

func (b *Buffer) buffer(value string, rec uint64, add bool) error {
	num := rec / uint64(b.cfg.Size)
	off := uint32(rec % uint64(b.cfg.Size))

	segs, ok := b.values[value]
	if !ok {
		segs = make(map[uint64]*delta)
	}
	d, ok := segs[num]

	cost := int64(opCost)
	if !ok {
		cost += deltaCost
	}
	if !b.ctrl.TryAcquireMemory(cost) {
		return fmt.Errorf("%w: %d bytes buffered", ErrBufferFull, b.reserved)
	}
	b.reserved += cost

	if !ok {
		d = &delta{adds: roaring.New(), removes: roaring.New()}
		segs[num] = d
		b.values[value] = segs
	}
	if add {
		d.removes.Remove(off)
		d.adds.Add(off)
	} else {
		d.adds.Remove(off)
		d.removes.Add(off)
	}
	b.ops++
	return nil
}

// Flush merges every buffered mutation into the persisted segments
// through the adapter, inside one Begin/Commit bracket, in ascending
// (value, segment number) order.
//
// On success the buffer is cleared. On any storage error the open
// transaction is rolled back and the buffer is left intact, so a retry
// re-attempts the same flush; re-applying buffered mutations onto an
// already-updated segment is a no-op, making the flush idempotent.
func (b *Buffer) Flush(ctx context.Context, adapter store.Adapter) error {
	if b.ops == 0 {
		return nil
	}
	if err := adapter.Begin(ctx); err != nil {
		return err
	}
	if err := b.flushLocked(ctx, adapter); err != nil {
		// Rollback failures do not mask the original error; the
		// adapter owns recovery of a broken transaction.
		_ = adapter.Rollback(ctx)
		return err
	}
	if err := adapter.Commit(ctx); err != nil {
		return err
	}
	b.clear()
	return nil
}

func (b *Buffer) flushLocked(ctx context.Context, adapter store.Adapter) error {
	for _, value := range slices.Sorted(maps.Keys(b.values)) {
		segs := b.values[value]
		for _, num := range slices.Sorted(maps.Keys(segs)) {
			if err := b.mergeOne(ctx, adapter, value, num, segs[num]); err != nil {
				return err
			}
		}
	}
	return nil
}

// mergeOne read-modify-writes one (value, segment) pair.
func (b *Buffer) mergeOne(ctx context.Context, adapter store.Adapter, value string, num uint64, d *delta) error {
	var seg *segment.Segment
	data, err := adapter.Get(ctx, value, num)
	switch {
	case errors.Is(err, store.ErrNotFound):
		// Absent means empty.
	case err != nil:
		return err
	default:
		if seg, err = segment.Decode(b.cfg, data); err != nil {
			return err
		}
	}

	if seg == nil {
		adds := d.adds.ToArray()
		if len(adds) == 0 {
			return nil
		}
		if seg, err = segment.FromOffsets(b.cfg, adds...); err != nil {
			return err
		}
	} else {
		for it := d.removes.Iterator(); it.HasNext(); {
			empty, err := seg.Remove(it.Next())
			if err != nil {
				return err
			}
			if empty {
				seg = nil
				break
			}
		}
		if seg == nil {
			for it := d.adds.Iterator(); it.HasNext(); {
				off := it.Next()
				if seg == nil {
					if seg, err = segment.FromOffsets(b.cfg, off); err != nil {
						return err
					}
					continue
				}
				if err := seg.Insert(off); err != nil {
					return err
				}
			}
		} else {
			for it := d.adds.Iterator(); it.HasNext(); {
				if err := seg.Insert(it.Next()); err != nil {
					return err
				}
			}
		}
	}

	if seg == nil {
		return adapter.Delete(ctx, value, num)
	}
	encoded := seg.Encode()
	if err := b.ctrl.AcquireIO(ctx, len(encoded)); err != nil {
		return err
	}
	return adapter.Put(ctx, value, num, encoded)
}

// clear drops all buffered state and releases the memory reservation.
func (b *Buffer) clear() {
	b.values = make(map[string]map[uint64]*delta)
	b.ops = 0
	b.ctrl.ReleaseMemory(b.reserved)
	b.reserved = 0
}
