// Package recordset implements the full set of matching record numbers
// for one index value, composed of per-segment encodings, together with
// the set algebra and ordered iteration needed to answer queries.
package recordset

import (
	"iter"

	"github.com/hupe1980/segset/segment"
)

// entry pairs a segment number with its records.
type entry struct {
	num uint64
	seg *segment.Segment
}

// RecordSet is an ordered mapping from segment number to segment,
// ascending by segment number. It never holds an empty segment and never
// holds two entries for the same segment number.
//
// A RecordSet is not safe for concurrent use. Once handed to a cursor it
// must not be mutated by another goroutine; callers needing concurrent
// access must synchronize externally or clone.
type RecordSet struct {
	cfg     segment.Config
	entries []entry
}

// New returns an empty record set with the given geometry.
func New(cfg segment.Config) *RecordSet {
	return &RecordSet{cfg: cfg}
}

// Config returns the geometry the record set was created with.
func (rs *RecordSet) Config() segment.Config { return rs.cfg }

// split decomposes a record number into segment number and offset.
func (rs *RecordSet) split(rec uint64) (uint64, uint32) {
	size := uint64(rs.cfg.Size)
	return rec / size, uint32(rec % size)
}

// find returns the index of the entry for num, or the insertion point
// and false.
func (rs *RecordSet) find(num uint64) (int, bool) {
	lo, hi := 0, len(rs.entries)
	for lo < hi {
		mid := (lo + hi) / 2
		if rs.entries[mid].num < num {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo, lo < len(rs.entries) && rs.entries[lo].num == num
}

// Insert adds a record number. Inserting a present record is a no-op.
func (rs *RecordSet) Insert(rec uint64) {
	num, off := rs.split(rec)
	i, found := rs.find(num)
	if found {
		// Offset is in range by construction.
		_ = rs.entries[i].seg.Insert(off)
		return
	}
	seg, _ := segment.FromOffsets(rs.cfg, off)
	rs.entries = append(rs.entries, entry{})
	copy(rs.entries[i+1:], rs.entries[i:])
	rs.entries[i] = entry{num: num, seg: seg}
}

// Remove deletes a record number. Removing an absent record is a no-op.
func (rs *RecordSet) Remove(rec uint64) {
	num, off := rs.split(rec)
	i, found := rs.find(num)
	if !found {
		return
	}
	empty, _ := rs.entries[i].seg.Remove(off)
	if empty {
		rs.deleteAt(i)
	}
}

func (rs *RecordSet) deleteAt(i int) {
	copy(rs.entries[i:], rs.entries[i+1:])
	rs.entries = rs.entries[:len(rs.entries)-1]
}

// Contains reports whether the record number is present.
func (rs *RecordSet) Contains(rec uint64) bool {
	num, off := rs.split(rec)
	i, found := rs.find(num)
	return found && rs.entries[i].seg.Contains(off)
}

// Count returns the number of records in the set.
func (rs *RecordSet) Count() int {
	n := 0
	for _, e := range rs.entries {
		n += e.seg.Count()
	}
	return n
}

// Len returns the number of populated segments.
func (rs *RecordSet) Len() int { return len(rs.entries) }

// IsEmpty reports whether the set holds no records.
func (rs *RecordSet) IsEmpty() bool { return len(rs.entries) == 0 }

// Segment returns the segment for the given segment number.
func (rs *RecordSet) Segment(num uint64) (*segment.Segment, bool) {
	i, found := rs.find(num)
	if !found {
		return nil, false
	}
	return rs.entries[i].seg, true
}

// PutSegment installs a segment under the given segment number,
// replacing any existing entry. A nil or empty segment removes the
// entry instead; empty segments are never stored.
func (rs *RecordSet) PutSegment(num uint64, seg *segment.Segment) {
	i, found := rs.find(num)
	if seg == nil || seg.Count() == 0 {
		if found {
			rs.deleteAt(i)
		}
		return
	}
	if found {
		rs.entries[i].seg = seg
		return
	}
	rs.entries = append(rs.entries, entry{})
	copy(rs.entries[i+1:], rs.entries[i:])
	rs.entries[i] = entry{num: num, seg: seg}
}

// Clone returns a deep copy.
func (rs *RecordSet) Clone() *RecordSet {
	c := &RecordSet{cfg: rs.cfg, entries: make([]entry, len(rs.entries))}
	for i, e := range rs.entries {
		c.entries[i] = entry{num: e.num, seg: e.seg.Clone()}
	}
	return c
}

// Equal reports whether two record sets hold the same records. Segments
// built through this package are canonical for their record count, so
// equality is segment-by-segment, encoding-for-encoding.
func (rs *RecordSet) Equal(other *RecordSet) bool {
	if rs.cfg != other.cfg || len(rs.entries) != len(other.entries) {
		return false
	}
	for i, e := range rs.entries {
		o := other.entries[i]
		if e.num != o.num || !e.seg.Equal(o.seg) {
			return false
		}
	}
	return true
}

// Segments iterates over (segment number, segment) pairs in ascending
// segment-number order.
func (rs *RecordSet) Segments() iter.Seq2[uint64, *segment.Segment] {
	return func(yield func(uint64, *segment.Segment) bool) {
		for _, e := range rs.entries {
			if !yield(e.num, e.seg) {
				return
			}
		}
	}
}

// All iterates over every record number in ascending order.
func (rs *RecordSet) All() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		size := uint64(rs.cfg.Size)
		for _, e := range rs.entries {
			base := e.num * size
			for off := range e.seg.Offsets() {
				if !yield(base + uint64(off)) {
					return
				}
			}
		}
	}
}

// PositionOf returns the number of present records with a record number
// strictly below rec: the position at which rec appears, or would
// appear, in the ascending record sequence.
func (rs *RecordSet) PositionOf(rec uint64) int {
	num, off := rs.split(rec)
	i, found := rs.find(num)
	pos := 0
	for _, e := range rs.entries[:i] {
		pos += e.seg.Count()
	}
	if found {
		pos += rs.entries[i].seg.Rank(off)
	}
	return pos
}

// RecordAt returns the record number at the given position in the
// ascending record sequence. A negative position counts from the end:
// -1 is the last record.
func (rs *RecordSet) RecordAt(pos int) (uint64, bool) {
	if pos < 0 {
		pos += rs.Count()
		if pos < 0 {
			return 0, false
		}
	}
	size := uint64(rs.cfg.Size)
	for _, e := range rs.entries {
		c := e.seg.Count()
		if pos < c {
			off, _ := e.seg.At(pos)
			return e.num*size + uint64(off), true
		}
		pos -= c
	}
	return 0, false
}
