package segset

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/segset/recordset"
	"github.com/hupe1980/segset/segment"
	"github.com/hupe1980/segset/store"
)

// existenceValue is the reserved index value under which bulk loads
// persist the existence map of loaded record numbers. The leading NUL
// keeps it out of any application value namespace.
const existenceValue = "\x00ebm"

// Index is the engine facade: it loads and stores record sets for index
// values through a storage adapter and opens bulk-load sessions.
//
// An Index is safe for concurrent reads if the underlying adapter is;
// record sets returned by it are independent copies owned by the caller.
type Index struct {
	adapter store.Adapter
	cfg     segment.Config
	opts    options
}

// Open creates an Index over the given adapter and segment geometry.
// The geometry must match the one the persisted data was written with.
func Open(adapter store.Adapter, cfg segment.Config, opts ...Option) (*Index, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid segment config: %w", err)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Index{adapter: adapter, cfg: cfg, opts: o}, nil
}

// Config returns the segment geometry of the index.
func (ix *Index) Config() segment.Config { return ix.cfg }

// RecordSet loads the full set of record numbers for one index value.
// An unknown value yields an empty record set.
func (ix *Index) RecordSet(ctx context.Context, value string) (*recordset.RecordSet, error) {
	start := time.Now()
	rs, err := ix.load(ctx, value)
	ix.opts.metrics.RecordLoad(rs.Len(), time.Since(start), err)
	ix.opts.logger.LogLoad(ctx, value, rs.Len(), err)
	if err != nil {
		return nil, translateError(err)
	}
	return rs, nil
}

func (ix *Index) load(ctx context.Context, value string) (*recordset.RecordSet, error) {
	rs := recordset.New(ix.cfg)
	entries, err := ix.adapter.Scan(ctx, value)
	if err != nil {
		return rs, err
	}
	for _, e := range entries {
		seg, err := segment.Decode(ix.cfg, e.Data)
		if err != nil {
			return rs, fmt.Errorf("value %q segment %d: %w", value, e.Segment, err)
		}
		rs.PutSegment(e.Segment, seg)
	}
	return rs, nil
}

// RecordSets loads record sets for several index values concurrently,
// in input order. Concurrency is bounded by WithLoadConcurrency.
func (ix *Index) RecordSets(ctx context.Context, values ...string) ([]*recordset.RecordSet, error) {
	out := make([]*recordset.RecordSet, len(values))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.opts.loadConcurrency)
	for i, value := range values {
		g.Go(func() error {
			rs, err := ix.RecordSet(ctx, value)
			if err != nil {
				return err
			}
			out[i] = rs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Write persists a record set as the complete set for the value,
// removing any previously persisted segments the set no longer holds.
// The write is bracketed by the adapter's transaction.
func (ix *Index) Write(ctx context.Context, value string, rs *recordset.RecordSet) error {
	start := time.Now()
	err := ix.write(ctx, value, rs)
	ix.opts.metrics.RecordWrite(rs.Len(), time.Since(start), err)
	ix.opts.logger.LogWrite(ctx, value, rs.Len(), err)
	return translateError(err)
}

func (ix *Index) write(ctx context.Context, value string, rs *recordset.RecordSet) error {
	if rs.Config() != ix.cfg {
		return fmt.Errorf("record set geometry %+v does not match index geometry %+v", rs.Config(), ix.cfg)
	}
	if err := ix.adapter.Begin(ctx); err != nil {
		return err
	}
	if err := ix.writeLocked(ctx, value, rs); err != nil {
		_ = ix.adapter.Rollback(ctx)
		return err
	}
	return ix.adapter.Commit(ctx)
}

func (ix *Index) writeLocked(ctx context.Context, value string, rs *recordset.RecordSet) error {
	existing, err := ix.adapter.Scan(ctx, value)
	if err != nil {
		return err
	}
	for _, e := range existing {
		if _, ok := rs.Segment(e.Segment); !ok {
			if err := ix.adapter.Delete(ctx, value, e.Segment); err != nil {
				return err
			}
		}
	}
	for num, seg := range rs.Segments() {
		if err := ix.adapter.Put(ctx, value, num, seg.Encode()); err != nil {
			return err
		}
	}
	return nil
}

// DeleteValue removes every persisted segment for the value.
func (ix *Index) DeleteValue(ctx context.Context, value string) error {
	if err := ix.adapter.Begin(ctx); err != nil {
		return err
	}
	entries, err := ix.adapter.Scan(ctx, value)
	if err == nil {
		for _, e := range entries {
			if err = ix.adapter.Delete(ctx, value, e.Segment); err != nil {
				break
			}
		}
	}
	if err != nil {
		_ = ix.adapter.Rollback(ctx)
		return err
	}
	return ix.adapter.Commit(ctx)
}

// Existence returns the existence map: the set of record numbers loaded
// through bulk-load sessions with existence tracking enabled. Its count
// is the universe size expected by RecordSet.Complement.
func (ix *Index) Existence(ctx context.Context) (*recordset.RecordSet, error) {
	return ix.RecordSet(ctx, existenceValue)
}
