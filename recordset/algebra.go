package recordset

import (
	"github.com/hupe1980/segset/segment"
)

// Set algebra over record sets. All operations are pure: they return a
// new record set and leave both operands unmodified. Operands walk their
// segment-number-ordered entries in a single merge pass; segments with
// equal segment numbers are combined at the bit/offset level and the
// encoding policy is re-applied to every result segment.

// Union returns the records present in rs or other.
func (rs *RecordSet) Union(other *RecordSet) *RecordSet {
	out := New(rs.cfg)
	i, j := 0, 0
	for i < len(rs.entries) && j < len(other.entries) {
		a, b := rs.entries[i], other.entries[j]
		switch {
		case a.num < b.num:
			out.entries = append(out.entries, entry{num: a.num, seg: a.seg.Clone()})
			i++
		case a.num > b.num:
			out.entries = append(out.entries, entry{num: b.num, seg: b.seg.Clone()})
			j++
		default:
			out.entries = append(out.entries, entry{num: a.num, seg: a.seg.Or(b.seg)})
			i, j = i+1, j+1
		}
	}
	for ; i < len(rs.entries); i++ {
		e := rs.entries[i]
		out.entries = append(out.entries, entry{num: e.num, seg: e.seg.Clone()})
	}
	for ; j < len(other.entries); j++ {
		e := other.entries[j]
		out.entries = append(out.entries, entry{num: e.num, seg: e.seg.Clone()})
	}
	return out
}

// Intersect returns the records present in both rs and other.
func (rs *RecordSet) Intersect(other *RecordSet) *RecordSet {
	out := New(rs.cfg)
	i, j := 0, 0
	for i < len(rs.entries) && j < len(other.entries) {
		a, b := rs.entries[i], other.entries[j]
		switch {
		case a.num < b.num:
			i++
		case a.num > b.num:
			j++
		default:
			if seg := a.seg.And(b.seg); seg != nil {
				out.entries = append(out.entries, entry{num: a.num, seg: seg})
			}
			i, j = i+1, j+1
		}
	}
	return out
}

// Difference returns the records present in rs but not in other.
func (rs *RecordSet) Difference(other *RecordSet) *RecordSet {
	out := New(rs.cfg)
	i, j := 0, 0
	for i < len(rs.entries) {
		a := rs.entries[i]
		for j < len(other.entries) && other.entries[j].num < a.num {
			j++
		}
		if j < len(other.entries) && other.entries[j].num == a.num {
			if seg := a.seg.AndNot(other.entries[j].seg); seg != nil {
				out.entries = append(out.entries, entry{num: a.num, seg: seg})
			}
		} else {
			out.entries = append(out.entries, entry{num: a.num, seg: a.seg.Clone()})
		}
		i++
	}
	return out
}

// SymmetricDifference returns the records present in exactly one of rs
// and other.
func (rs *RecordSet) SymmetricDifference(other *RecordSet) *RecordSet {
	out := New(rs.cfg)
	i, j := 0, 0
	for i < len(rs.entries) && j < len(other.entries) {
		a, b := rs.entries[i], other.entries[j]
		switch {
		case a.num < b.num:
			out.entries = append(out.entries, entry{num: a.num, seg: a.seg.Clone()})
			i++
		case a.num > b.num:
			out.entries = append(out.entries, entry{num: b.num, seg: b.seg.Clone()})
			j++
		default:
			if seg := a.seg.Xor(b.seg); seg != nil {
				out.entries = append(out.entries, entry{num: a.num, seg: seg})
			}
			i, j = i+1, j+1
		}
	}
	for ; i < len(rs.entries); i++ {
		e := rs.entries[i]
		out.entries = append(out.entries, entry{num: e.num, seg: e.seg.Clone()})
	}
	for ; j < len(other.entries); j++ {
		e := other.entries[j]
		out.entries = append(out.entries, entry{num: e.num, seg: e.seg.Clone()})
	}
	return out
}

// Complement returns the records absent from rs among the universe of
// record numbers [0, universe). Segments are sparse, so the universe
// must be supplied explicitly; gaps synthesize full bitmap segments and
// the final partial segment is trimmed to the universe bound.
func (rs *RecordSet) Complement(universe uint64) *RecordSet {
	out := New(rs.cfg)
	if universe == 0 {
		return out
	}
	size := uint64(rs.cfg.Size)
	last := (universe - 1) / size
	i := 0
	for num := uint64(0); num <= last; num++ {
		limit := rs.cfg.Size
		if num == last {
			limit = int(universe - num*size)
		}
		full := segment.Full(rs.cfg, limit)
		var seg *segment.Segment
		if i < len(rs.entries) && rs.entries[i].num == num {
			seg = full.AndNot(rs.entries[i].seg)
			i++
		} else {
			seg = full
		}
		if seg != nil {
			out.entries = append(out.entries, entry{num: num, seg: seg})
		}
	}
	return out
}
