package recordset

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/segset/segment"
)

func TestUnion(t *testing.T) {
	cfg := testConfig(t)

	a := fromRecords(t, cfg, 5, 64, 200)
	b := fromRecords(t, cfg, 5, 70, 300)

	u := a.Union(b)
	require.Equal(t, []uint64{5, 64, 70, 200, 300}, records(u))

	// Commutative, operands unmodified.
	require.True(t, u.Equal(b.Union(a)))
	require.Equal(t, []uint64{5, 64, 200}, records(a))
	require.Equal(t, []uint64{5, 70, 300}, records(b))

	// The empty set is the identity.
	require.True(t, a.Union(New(cfg)).Equal(a))
	require.True(t, New(cfg).Union(a).Equal(a))
}

func TestIntersect(t *testing.T) {
	cfg := testConfig(t)

	a := fromRecords(t, cfg, 5, 64, 70, 200)
	b := fromRecords(t, cfg, 5, 70, 300)

	i := a.Intersect(b)
	require.Equal(t, []uint64{5, 70}, records(i))
	require.True(t, i.Equal(b.Intersect(a)))

	// Disjoint segments and disjoint offsets both vanish.
	c := fromRecords(t, cfg, 6, 65, 1000)
	require.True(t, a.Intersect(c).IsEmpty())
	require.True(t, a.Intersect(New(cfg)).IsEmpty())
}

func TestDifference(t *testing.T) {
	cfg := testConfig(t)

	a := fromRecords(t, cfg, 5, 64, 70, 200)
	b := fromRecords(t, cfg, 64, 300)

	d := a.Difference(b)
	require.Equal(t, []uint64{5, 70, 200}, records(d))

	require.True(t, a.Difference(a).IsEmpty())
	require.True(t, a.Difference(New(cfg)).Equal(a))
	require.True(t, New(cfg).Difference(a).IsEmpty())
}

func TestSymmetricDifference(t *testing.T) {
	cfg := testConfig(t)

	a := fromRecords(t, cfg, 5, 64, 70, 200)
	b := fromRecords(t, cfg, 64, 70, 300)

	// Shared records cancel; one-sided segments survive whole.
	s := a.SymmetricDifference(b)
	require.Equal(t, []uint64{5, 200, 300}, records(s))

	// Commutative; operands unmodified.
	require.True(t, s.Equal(b.SymmetricDifference(a)))
	require.Equal(t, []uint64{5, 64, 70, 200}, records(a))
	require.Equal(t, []uint64{64, 70, 300}, records(b))

	// A ⊕ A is empty, the empty set is the identity.
	require.True(t, a.SymmetricDifference(a).IsEmpty())
	require.True(t, a.SymmetricDifference(New(cfg)).Equal(a))
	require.True(t, New(cfg).SymmetricDifference(a).Equal(a))

	// Segments where every record cancels are dropped, not kept empty.
	c := fromRecords(t, cfg, 64, 70)
	d := b.SymmetricDifference(c)
	require.Equal(t, []uint64{300}, records(d))
	require.Equal(t, 1, d.Len())

	// Equivalent to (A ∪ B) \ (A ∩ B).
	require.True(t, s.Equal(a.Union(b).Difference(a.Intersect(b))))
}

func TestAlgebraLaws(t *testing.T) {
	cfg := testConfig(t)

	a := fromRecords(t, cfg, 1, 5, 64, 70, 200, 201, 202)
	b := fromRecords(t, cfg, 5, 70, 300, 301)
	c := fromRecords(t, cfg, 1, 300, 4000)

	// Associativity.
	require.True(t, a.Union(b).Union(c).Equal(a.Union(b.Union(c))))
	require.True(t, a.Intersect(b).Intersect(c).Equal(a.Intersect(b.Intersect(c))))

	// Absorption: A ∪ (A ∩ B) == A.
	require.True(t, a.Union(a.Intersect(b)).Equal(a))

	// Distribution of difference: (A \ B) ∪ (A ∩ B) == A.
	require.True(t, a.Difference(b).Union(a.Intersect(b)).Equal(a))
}

func TestComplement(t *testing.T) {
	cfg := testConfig(t)

	a := fromRecords(t, cfg, 0, 5, 64, 70, 130)
	const universe = 140

	comp := a.Complement(universe)

	// complement(A, U) ∪ A covers exactly [0, U).
	full := comp.Union(a)
	require.Equal(t, int(universe), full.Count())
	rec, ok := full.Cursor().Last()
	require.True(t, ok)
	require.Equal(t, uint64(universe-1), rec)

	// A ∩ complement(A, U) is empty.
	require.True(t, a.Intersect(comp).IsEmpty())

	for _, rec := range []uint64{1, 63, 65, 129, 139} {
		require.True(t, comp.Contains(rec))
	}
	for _, rec := range []uint64{0, 5, 70, 140, 200} {
		require.False(t, comp.Contains(rec))
	}
}

func TestComplementSynthesizesGaps(t *testing.T) {
	cfg := testConfig(t)

	// Only segment 2 is populated; segments 0, 1 and 3 are gaps.
	a := fromRecords(t, cfg, 130)
	comp := a.Complement(4 * uint64(cfg.Size))

	require.Equal(t, 4, comp.Len())
	require.Equal(t, 4*cfg.Size-1, comp.Count())

	seg, ok := comp.Segment(0)
	require.True(t, ok)
	require.Equal(t, segment.KindBitmap, seg.Kind())
	require.Equal(t, cfg.Size, seg.Count())
}

func TestComplementEdges(t *testing.T) {
	cfg := testConfig(t)

	// Zero universe: nothing to complement against.
	a := fromRecords(t, cfg, 5)
	require.True(t, a.Complement(0).IsEmpty())

	// Complement of the empty set is the full universe.
	comp := New(cfg).Complement(70)
	require.Equal(t, 70, comp.Count())
	require.Equal(t, 2, comp.Len())

	// A set covering its whole universe has an empty complement.
	full := New(cfg).Complement(70)
	require.True(t, full.Complement(70).IsEmpty())

	// Partial last segment is trimmed to the universe bound.
	last, ok := comp.Segment(1)
	require.True(t, ok)
	require.Equal(t, 6, last.Count())
	require.False(t, comp.Contains(70))
}
