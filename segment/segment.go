// Package segment implements the three interchangeable encodings of
// "which records within one fixed-width segment are present": a single
// integer, a sorted offset list, and a dense existence bitmap.
//
// The encoding of a segment is canonical for its record count: one record
// is an integer, up to Config.ListLimit records are a list, and anything
// beyond that is a bitmap. Every mutation re-applies this policy, so two
// segments holding the same records always have the same encoding and
// serialize to the same bytes. Conversions in both directions are eager.
//
// A segment never holds zero records. Operations that would empty a
// segment report that instead, and the owning record set drops the entry.
package segment

import (
	"iter"
	"slices"

	"github.com/hupe1980/segset/bitutil"
)

// Kind identifies the encoding of a segment.
type Kind uint8

const (
	// KindInteger holds exactly one record offset.
	KindInteger Kind = 1
	// KindList holds a sorted, duplicate-free sequence of offsets.
	KindList Kind = 2
	// KindBitmap holds a fixed-width existence bit vector.
	KindBitmap Kind = 3
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindList:
		return "list"
	case KindBitmap:
		return "bitmap"
	default:
		return "unknown"
	}
}

// Segment is one fixed-width slice of the record-number space, holding
// the offsets of the records present in it. The zero value is not usable;
// segments are created by FromOffsets or Decode.
//
// Segments are owned exclusively by their containing record set and are
// not safe for concurrent use.
type Segment struct {
	cfg  Config
	kind Kind
	offs []uint32 // KindInteger (one entry) and KindList (sorted)
	bits []byte   // KindBitmap, cfg.Bytes() long
}

// FromOffsets builds a segment holding the given offsets. Duplicates are
// ignored. It returns nil (and no error) when offs is empty, and a
// RangeError when any offset is outside the segment bounds.
func FromOffsets(cfg Config, offs ...uint32) (*Segment, error) {
	for _, off := range offs {
		if int(off) >= cfg.Size {
			return nil, &RangeError{Offset: off, Size: cfg.Size}
		}
	}
	sorted := slices.Clone(offs)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	return fromSorted(cfg, sorted), nil
}

// fromSorted builds the canonical encoding for a sorted, duplicate-free,
// in-range offset slice. The slice is retained.
func fromSorted(cfg Config, sorted []uint32) *Segment {
	switch {
	case len(sorted) == 0:
		return nil
	case len(sorted) == 1:
		return &Segment{cfg: cfg, kind: KindInteger, offs: sorted}
	case len(sorted) <= cfg.ListLimit:
		return &Segment{cfg: cfg, kind: KindList, offs: sorted}
	default:
		bits := make([]byte, cfg.Bytes())
		for _, off := range sorted {
			bitutil.Set(bits, off)
		}
		return &Segment{cfg: cfg, kind: KindBitmap, bits: bits}
	}
}

// fromBits builds the canonical encoding for an owned bit vector of
// cfg.Bytes() bytes. The slice is retained when the result is a bitmap.
func fromBits(cfg Config, bits []byte) *Segment {
	n := bitutil.Count(bits)
	if n > cfg.ListLimit {
		return &Segment{cfg: cfg, kind: KindBitmap, bits: bits}
	}
	if n == 0 {
		return nil
	}
	offs := make([]uint32, 0, n)
	for off := range bitutil.Ones(bits) {
		offs = append(offs, off)
	}
	return fromSorted(cfg, offs)
}

// Full returns a segment holding every offset in [0, limit). The limit
// must be in [1, cfg.Size]; record sets use it to synthesize complement
// segments against a bounded universe.
func Full(cfg Config, limit int) *Segment {
	bits := make([]byte, cfg.Bytes())
	for i := 0; i < limit/8; i++ {
		bits[i] = 0xff
	}
	if rem := limit % 8; rem != 0 {
		bits[limit/8] = ^(0xff >> rem)
	}
	return fromBits(cfg, bits)
}

// Config returns the geometry the segment was created with.
func (s *Segment) Config() Config { return s.cfg }

// Kind returns the current encoding.
func (s *Segment) Kind() Kind { return s.kind }

// Count returns the number of records in the segment.
func (s *Segment) Count() int {
	if s.kind == KindBitmap {
		return bitutil.Count(s.bits)
	}
	return len(s.offs)
}

// Contains reports whether the offset is present. Out-of-range offsets
// are simply absent.
func (s *Segment) Contains(off uint32) bool {
	if int(off) >= s.cfg.Size {
		return false
	}
	if s.kind == KindBitmap {
		return bitutil.Test(s.bits, off)
	}
	_, found := slices.BinarySearch(s.offs, off)
	return found
}

// Insert adds the offset, converting the encoding when the record count
// crosses the list limit. Inserting a present offset is a no-op. It
// returns a RangeError for offsets outside the segment bounds.
func (s *Segment) Insert(off uint32) error {
	if int(off) >= s.cfg.Size {
		return &RangeError{Offset: off, Size: s.cfg.Size}
	}
	if s.kind == KindBitmap {
		bitutil.Set(s.bits, off)
		return nil
	}
	i, found := slices.BinarySearch(s.offs, off)
	if found {
		return nil
	}
	s.offs = slices.Insert(s.offs, i, off)
	if len(s.offs) > s.cfg.ListLimit {
		bits := make([]byte, s.cfg.Bytes())
		for _, o := range s.offs {
			bitutil.Set(bits, o)
		}
		s.kind, s.bits, s.offs = KindBitmap, bits, nil
		return nil
	}
	s.kind = KindList
	return nil
}

// Remove deletes the offset and reports whether the segment became
// empty; an empty segment must be discarded by the caller. Removing an
// absent offset is a no-op. It returns a RangeError for offsets outside
// the segment bounds.
func (s *Segment) Remove(off uint32) (empty bool, err error) {
	if int(off) >= s.cfg.Size {
		return false, &RangeError{Offset: off, Size: s.cfg.Size}
	}
	if s.kind == KindBitmap {
		if !bitutil.Test(s.bits, off) {
			return false, nil
		}
		bitutil.Clear(s.bits, off)
		n := bitutil.Count(s.bits)
		if n > s.cfg.ListLimit {
			return false, nil
		}
		// Population fell to the list range: downgrade eagerly so the
		// encoding stays canonical for the record count.
		offs := make([]uint32, 0, n)
		for o := range bitutil.Ones(s.bits) {
			offs = append(offs, o)
		}
		s.offs, s.bits = offs, nil
		if n == 1 {
			s.kind = KindInteger
		} else {
			s.kind = KindList
		}
		return n == 0, nil
	}
	i, found := slices.BinarySearch(s.offs, off)
	if !found {
		return false, nil
	}
	s.offs = slices.Delete(s.offs, i, i+1)
	switch len(s.offs) {
	case 0:
		return true, nil
	case 1:
		s.kind = KindInteger
	default:
		s.kind = KindList
	}
	return false, nil
}

// Clone returns a deep copy.
func (s *Segment) Clone() *Segment {
	c := &Segment{cfg: s.cfg, kind: s.kind}
	if s.kind == KindBitmap {
		c.bits = slices.Clone(s.bits)
	} else {
		c.offs = slices.Clone(s.offs)
	}
	return c
}

// Offsets iterates over the present offsets in ascending order.
func (s *Segment) Offsets() iter.Seq[uint32] {
	if s.kind == KindBitmap {
		return bitutil.Ones(s.bits)
	}
	return func(yield func(uint32) bool) {
		for _, off := range s.offs {
			if !yield(off) {
				return
			}
		}
	}
}

// First returns the smallest present offset.
func (s *Segment) First() (uint32, bool) {
	return s.Seek(0)
}

// Last returns the largest present offset.
func (s *Segment) Last() (uint32, bool) {
	if s.kind == KindBitmap {
		return bitutil.PrevSet(s.bits, uint32(s.cfg.Size-1))
	}
	if len(s.offs) == 0 {
		return 0, false
	}
	return s.offs[len(s.offs)-1], true
}

// Seek returns the smallest present offset at or after off.
func (s *Segment) Seek(off uint32) (uint32, bool) {
	if int(off) >= s.cfg.Size {
		return 0, false
	}
	if s.kind == KindBitmap {
		return bitutil.NextSet(s.bits, off)
	}
	i, _ := slices.BinarySearch(s.offs, off)
	if i == len(s.offs) {
		return 0, false
	}
	return s.offs[i], true
}

// SeekBack returns the largest present offset at or before off.
func (s *Segment) SeekBack(off uint32) (uint32, bool) {
	if int(off) >= s.cfg.Size {
		off = uint32(s.cfg.Size - 1)
	}
	if s.kind == KindBitmap {
		return bitutil.PrevSet(s.bits, off)
	}
	i, found := slices.BinarySearch(s.offs, off)
	if found {
		return off, true
	}
	if i == 0 {
		return 0, false
	}
	return s.offs[i-1], true
}

// Rank returns the number of present offsets strictly below off.
func (s *Segment) Rank(off uint32) int {
	if int(off) > s.cfg.Size {
		off = uint32(s.cfg.Size)
	}
	if s.kind == KindBitmap {
		return bitutil.CountRange(s.bits, off)
	}
	i, _ := slices.BinarySearch(s.offs, off)
	return i
}

// At returns the present offset at the given zero-based position.
func (s *Segment) At(pos int) (uint32, bool) {
	if pos < 0 {
		return 0, false
	}
	if s.kind != KindBitmap {
		if pos >= len(s.offs) {
			return 0, false
		}
		return s.offs[pos], true
	}
	for off := range bitutil.Ones(s.bits) {
		if pos == 0 {
			return off, true
		}
		pos--
	}
	return 0, false
}

// toBits returns the segment's records as a freshly allocated bit
// vector, whatever the current encoding.
func (s *Segment) toBits() []byte {
	bits := make([]byte, s.cfg.Bytes())
	if s.kind == KindBitmap {
		copy(bits, s.bits)
		return bits
	}
	for _, off := range s.offs {
		bitutil.Set(bits, off)
	}
	return bits
}

// Or returns a new segment holding the records of s and other. Both
// operands must share the same segment number and Config; neither is
// modified.
func (s *Segment) Or(other *Segment) *Segment {
	if s.kind != KindBitmap && other.kind != KindBitmap {
		return fromSorted(s.cfg, mergeUnion(s.offs, other.offs))
	}
	bits := s.toBits()
	if other.kind == KindBitmap {
		for i, x := range other.bits {
			bits[i] |= x
		}
	} else {
		for _, off := range other.offs {
			bitutil.Set(bits, off)
		}
	}
	return fromBits(s.cfg, bits)
}

// And returns a new segment holding the records present in both s and
// other, or nil when the intersection is empty.
func (s *Segment) And(other *Segment) *Segment {
	if s.kind != KindBitmap && other.kind != KindBitmap {
		return fromSorted(s.cfg, mergeIntersect(s.offs, other.offs))
	}
	if s.kind != KindBitmap {
		return fromSorted(s.cfg, filterOffsets(s.offs, other, true))
	}
	if other.kind != KindBitmap {
		return fromSorted(s.cfg, filterOffsets(other.offs, s, true))
	}
	bits := s.toBits()
	for i, x := range other.bits {
		bits[i] &= x
	}
	return fromBits(s.cfg, bits)
}

// AndNot returns a new segment holding the records of s that are not in
// other, or nil when nothing remains.
func (s *Segment) AndNot(other *Segment) *Segment {
	if s.kind != KindBitmap {
		if other.kind != KindBitmap {
			return fromSorted(s.cfg, mergeDifference(s.offs, other.offs))
		}
		return fromSorted(s.cfg, filterOffsets(s.offs, other, false))
	}
	bits := s.toBits()
	if other.kind == KindBitmap {
		for i, x := range other.bits {
			bits[i] &^= x
		}
	} else {
		for _, off := range other.offs {
			bitutil.Clear(bits, off)
		}
	}
	return fromBits(s.cfg, bits)
}

// Xor returns a new segment holding the records present in exactly one
// of s and other, or nil when none remain.
func (s *Segment) Xor(other *Segment) *Segment {
	if s.kind != KindBitmap && other.kind != KindBitmap {
		return fromSorted(s.cfg, mergeSymmetric(s.offs, other.offs))
	}
	bits := s.toBits()
	if other.kind == KindBitmap {
		for i, x := range other.bits {
			bits[i] ^= x
		}
	} else {
		for _, off := range other.offs {
			if bitutil.Test(bits, off) {
				bitutil.Clear(bits, off)
			} else {
				bitutil.Set(bits, off)
			}
		}
	}
	return fromBits(s.cfg, bits)
}

func mergeUnion(a, b []uint32) []uint32 {
	out := make([]uint32, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i, j = i+1, j+1
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

func mergeIntersect(a, b []uint32) []uint32 {
	var out []uint32
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			out = append(out, a[i])
			i, j = i+1, j+1
		}
	}
	return out
}

func mergeSymmetric(a, b []uint32) []uint32 {
	var out []uint32
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			i, j = i+1, j+1
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

func mergeDifference(a, b []uint32) []uint32 {
	var out []uint32
	i, j := 0, 0
	for i < len(a) {
		for j < len(b) && b[j] < a[i] {
			j++
		}
		if j == len(b) {
			return append(out, a[i:]...)
		}
		if a[i] != b[j] {
			out = append(out, a[i])
		}
		i++
	}
	return out
}

// filterOffsets keeps the offsets whose membership in other matches want.
func filterOffsets(offs []uint32, other *Segment, want bool) []uint32 {
	var out []uint32
	for _, off := range offs {
		if other.Contains(off) == want {
			out = append(out, off)
		}
	}
	return out
}

// Equal reports whether two segments hold the same records. With the
// canonical encoding policy this implies identical kind and bytes.
func (s *Segment) Equal(other *Segment) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.cfg != other.cfg || s.kind != other.kind {
		return false
	}
	if s.kind == KindBitmap {
		return slices.Equal(s.bits, other.bits)
	}
	return slices.Equal(s.offs, other.offs)
}
