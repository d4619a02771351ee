package segset

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/segset/recordset"
	"github.com/hupe1980/segset/resource"
	"github.com/hupe1980/segset/segment"
	"github.com/hupe1980/segset/store"
)

func testConfig(t *testing.T) segment.Config {
	t.Helper()
	cfg := segment.Config{Size: 64, ListLimit: 8}
	require.NoError(t, cfg.Validate())
	return cfg
}

func records(rs *recordset.RecordSet) []uint64 {
	var out []uint64
	for rec := range rs.All() {
		out = append(out, rec)
	}
	return out
}

func TestOpenValidatesConfig(t *testing.T) {
	_, err := Open(store.NewMemoryAdapter(), segment.Config{Size: 7, ListLimit: 1})
	require.Error(t, err)

	ix, err := Open(store.NewMemoryAdapter(), testConfig(t))
	require.NoError(t, err)
	require.Equal(t, testConfig(t), ix.Config())
}

func TestBulkLoadAndQuery(t *testing.T) {
	ctx := context.Background()
	ix, err := Open(store.NewMemoryAdapter(), testConfig(t))
	require.NoError(t, err)

	bl := ix.NewBulkLoad()
	load := map[string][]uint64{
		"red":   {0, 5, 70, 640},
		"blue":  {5, 63, 64},
		"green": {1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
	}
	for value, recs := range load {
		for _, rec := range recs {
			require.NoError(t, bl.Add(ctx, value, rec))
		}
	}
	require.NoError(t, bl.Close(ctx))
	require.NoError(t, bl.Close(ctx)) // idempotent

	for value, want := range load {
		rs, err := ix.RecordSet(ctx, value)
		require.NoError(t, err)
		require.Equal(t, want, records(rs))
	}

	// Unknown values come back empty, not as an error.
	rs, err := ix.RecordSet(ctx, "unknown")
	require.NoError(t, err)
	require.True(t, rs.IsEmpty())

	// Post-close operations are refused.
	require.ErrorIs(t, bl.Add(ctx, "red", 1), ErrClosed)
	require.ErrorIs(t, bl.Flush(ctx), ErrClosed)
}

func TestBulkLoadQueryAlgebra(t *testing.T) {
	ctx := context.Background()
	ix, err := Open(store.NewMemoryAdapter(), testConfig(t))
	require.NoError(t, err)

	// A small catalog: even records are "red", multiples of 3 "blue".
	bl := ix.NewBulkLoad()
	const universe = 200
	for rec := uint64(0); rec < universe; rec++ {
		if rec%2 == 0 {
			require.NoError(t, bl.Add(ctx, "red", rec))
		} else {
			require.NoError(t, bl.Add(ctx, "odd", rec))
		}
		if rec%3 == 0 {
			require.NoError(t, bl.Add(ctx, "blue", rec))
		}
	}
	require.NoError(t, bl.Close(ctx))

	sets, err := ix.RecordSets(ctx, "red", "blue")
	require.NoError(t, err)
	red, blue := sets[0], sets[1]
	require.Equal(t, 100, red.Count())
	require.Equal(t, 67, blue.Count())

	both := red.Intersect(blue)
	require.Equal(t, 34, both.Count()) // multiples of 6
	for rec := range both.All() {
		require.Zero(t, rec%6)
	}

	exist, err := ix.Existence(ctx)
	require.NoError(t, err)
	require.Equal(t, universe, exist.Count())

	// NOT red, evaluated against the existence universe, is the odds.
	notRed := red.Complement(uint64(exist.Count()))
	require.Equal(t, 100, notRed.Count())
	require.True(t, notRed.Intersect(red).IsEmpty())
	odd, err := ix.RecordSet(ctx, "odd")
	require.NoError(t, err)
	require.True(t, notRed.Equal(odd))
}

func TestBulkLoadRemove(t *testing.T) {
	ctx := context.Background()
	ix, err := Open(store.NewMemoryAdapter(), testConfig(t))
	require.NoError(t, err)

	bl := ix.NewBulkLoad()
	for _, rec := range []uint64{3, 9, 40} {
		require.NoError(t, bl.Add(ctx, "v", rec))
	}
	require.NoError(t, bl.Flush(ctx))

	require.NoError(t, bl.Remove(ctx, "v", 9))
	require.NoError(t, bl.Close(ctx))

	rs, err := ix.RecordSet(ctx, "v")
	require.NoError(t, err)
	require.Equal(t, []uint64{3, 40}, records(rs))

	// The existence map keeps the removed record: it still exists, it
	// just no longer carries the value.
	exist, err := ix.Existence(ctx)
	require.NoError(t, err)
	require.True(t, exist.Contains(9))
}

func TestExistenceTrackingDisabled(t *testing.T) {
	ctx := context.Background()
	ix, err := Open(store.NewMemoryAdapter(), testConfig(t), WithExistenceTracking(false))
	require.NoError(t, err)

	bl := ix.NewBulkLoad()
	require.NoError(t, bl.Add(ctx, "v", 5))
	require.NoError(t, bl.Close(ctx))

	exist, err := ix.Existence(ctx)
	require.NoError(t, err)
	require.True(t, exist.IsEmpty())
}

func TestWriteAndDeleteValue(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	ix, err := Open(store.NewMemoryAdapter(), cfg)
	require.NoError(t, err)

	rs := recordset.New(cfg)
	for _, rec := range []uint64{5, 64, 70, 640} {
		rs.Insert(rec)
	}
	require.NoError(t, ix.Write(ctx, "v", rs))

	got, err := ix.RecordSet(ctx, "v")
	require.NoError(t, err)
	require.True(t, got.Equal(rs))

	// Writing a smaller set removes the stale segments.
	rs.Remove(640)
	rs.Remove(64)
	rs.Remove(70)
	require.NoError(t, ix.Write(ctx, "v", rs))
	got, err = ix.RecordSet(ctx, "v")
	require.NoError(t, err)
	require.Equal(t, []uint64{5}, records(got))

	require.NoError(t, ix.DeleteValue(ctx, "v"))
	got, err = ix.RecordSet(ctx, "v")
	require.NoError(t, err)
	require.True(t, got.IsEmpty())
}

func TestWriteRejectsForeignGeometry(t *testing.T) {
	ctx := context.Background()
	ix, err := Open(store.NewMemoryAdapter(), testConfig(t))
	require.NoError(t, err)

	other := segment.Config{Size: 128, ListLimit: 8}
	require.NoError(t, other.Validate())
	require.Error(t, ix.Write(ctx, "v", recordset.New(other)))
}

func TestFlushEveryCheckpoint(t *testing.T) {
	ctx := context.Background()
	metrics := &BasicMetricsCollector{}
	ix, err := Open(store.NewMemoryAdapter(), testConfig(t),
		WithFlushEvery(10),
		WithMetrics(metrics),
		WithExistenceTracking(false))
	require.NoError(t, err)

	bl := ix.NewBulkLoad()
	for rec := uint64(0); rec < 25; rec++ {
		require.NoError(t, bl.Add(ctx, "v", rec))
	}
	// Two checkpoints fired at 10 and 20 ops; 5 remain buffered.
	require.Equal(t, int64(2), metrics.FlushCount.Load())
	require.Equal(t, 5, bl.Buffered())

	require.NoError(t, bl.Close(ctx))
	require.Equal(t, int64(3), metrics.FlushCount.Load())
	require.Equal(t, int64(25), metrics.FlushOps.Load())

	rs, err := ix.RecordSet(ctx, "v")
	require.NoError(t, err)
	require.Equal(t, 25, rs.Count())
}

func TestResourceExhausted(t *testing.T) {
	ctx := context.Background()
	ix, err := Open(store.NewMemoryAdapter(), testConfig(t),
		WithResourceLimits(resource.Config{MemoryLimitBytes: 300}),
		WithExistenceTracking(false))
	require.NoError(t, err)

	bl := ix.NewBulkLoad()
	var rec uint64
	for ; rec < 100_000; rec++ {
		if err := bl.Add(ctx, "v", rec); err != nil {
			require.ErrorIs(t, err, ErrResourceExhausted)
			break
		}
	}
	require.Less(t, rec, uint64(100_000))
	require.Positive(t, bl.MemoryUsage())

	// Flush-and-retry is the documented recovery.
	require.NoError(t, bl.Flush(ctx))
	require.Zero(t, bl.MemoryUsage())
	require.NoError(t, bl.Add(ctx, "v", rec))
	require.NoError(t, bl.Close(ctx))

	rs, err := ix.RecordSet(ctx, "v")
	require.NoError(t, err)
	require.Equal(t, int(rec)+1, rs.Count())
	require.True(t, rs.Contains(rec))
}

func TestIndexOverCompressingAdapter(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	adapter := store.NewCompressingAdapter(store.NewMemoryAdapter(), store.CompressionZSTD,
		store.WithCompressionThreshold(4))
	ix, err := Open(adapter, cfg)
	require.NoError(t, err)

	bl := ix.NewBulkLoad()
	for rec := uint64(0); rec < 500; rec += 3 {
		require.NoError(t, bl.Add(ctx, "v", rec))
	}
	require.NoError(t, bl.Close(ctx))

	rs, err := ix.RecordSet(ctx, "v")
	require.NoError(t, err)
	require.Equal(t, 167, rs.Count())
	require.True(t, rs.Contains(498))
	require.False(t, rs.Contains(499))
}

func TestRecordSetRejectsCorruptBlob(t *testing.T) {
	ctx := context.Background()
	raw := store.NewMemoryAdapter()
	require.NoError(t, raw.Put(ctx, "v", 0, []byte{0x7f, 0x00}))

	ix, err := Open(raw, testConfig(t))
	require.NoError(t, err)

	_, err = ix.RecordSet(ctx, "v")
	var encErr *segment.EncodingError
	require.ErrorAs(t, err, &encErr)
}
