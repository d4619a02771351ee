package recordset

// Cursor is a stateful forward/backward iterator over a record set.
//
// A cursor starts before the first record; Next from there is equivalent
// to First. The cursor reads the record set it was created from without
// copying it: mutating the record set while a cursor is open leaves the
// cursor position undefined (no corruption, but no live-update guarantee
// either). Create a fresh cursor, or iterate a Clone, after mutating.
type Cursor struct {
	rs *RecordSet

	// idx indexes rs.entries; -1 is before-first, len(rs.entries) is
	// after-last. off is the current offset and is only meaningful when
	// on is true.
	idx int
	off uint32
	on  bool
}

// Cursor returns a cursor positioned before the first record.
func (rs *RecordSet) Cursor() *Cursor {
	return &Cursor{rs: rs, idx: -1}
}

// Current returns the record number at the cursor position, or false
// when the cursor is before the first or after the last record.
func (c *Cursor) Current() (uint64, bool) {
	if !c.on {
		return 0, false
	}
	e := c.rs.entries[c.idx]
	return e.num*uint64(c.rs.cfg.Size) + uint64(c.off), true
}

// First positions the cursor at the smallest record.
func (c *Cursor) First() (uint64, bool) {
	if len(c.rs.entries) == 0 {
		return c.afterLast()
	}
	c.idx = 0
	c.off, _ = c.rs.entries[0].seg.First()
	c.on = true
	return c.Current()
}

// Last positions the cursor at the largest record.
func (c *Cursor) Last() (uint64, bool) {
	if len(c.rs.entries) == 0 {
		return c.beforeFirst()
	}
	c.idx = len(c.rs.entries) - 1
	c.off, _ = c.rs.entries[c.idx].seg.Last()
	c.on = true
	return c.Current()
}

// Next advances to the following record. From before-first it behaves
// like First; once after-last it stays there.
func (c *Cursor) Next() (uint64, bool) {
	if !c.on {
		if c.idx < 0 {
			return c.First()
		}
		return 0, false // after-last is sticky
	}
	if off, ok := c.rs.entries[c.idx].seg.Seek(c.off + 1); ok {
		c.off = off
		return c.Current()
	}
	return c.nextSegment(c.idx + 1)
}

// Prev steps back to the preceding record. From after-last it behaves
// like Last; once before-first it stays there.
func (c *Cursor) Prev() (uint64, bool) {
	if !c.on {
		if c.idx >= len(c.rs.entries) {
			return c.Last()
		}
		return 0, false // before-first is sticky
	}
	if c.off > 0 {
		if off, ok := c.rs.entries[c.idx].seg.SeekBack(c.off - 1); ok {
			c.off = off
			return c.Current()
		}
	}
	if c.idx > 0 {
		c.idx--
		c.off, _ = c.rs.entries[c.idx].seg.Last()
		c.on = true
		return c.Current()
	}
	return c.beforeFirst()
}

// SetAt positions the cursor at the given record if present, else at
// the next greater record, else after the last record.
func (c *Cursor) SetAt(rec uint64) (uint64, bool) {
	num, off := c.rs.split(rec)
	i, found := c.rs.find(num)
	if found {
		if o, ok := c.rs.entries[i].seg.Seek(off); ok {
			c.idx, c.off, c.on = i, o, true
			return c.Current()
		}
		i++
	}
	return c.nextSegment(i)
}

// nextSegment positions at the first record of the first populated
// segment at or after index i, or after-last when none remains.
func (c *Cursor) nextSegment(i int) (uint64, bool) {
	if i >= len(c.rs.entries) {
		return c.afterLast()
	}
	c.idx = i
	c.off, _ = c.rs.entries[i].seg.First()
	c.on = true
	return c.Current()
}

func (c *Cursor) afterLast() (uint64, bool) {
	c.idx, c.on = len(c.rs.entries), false
	return 0, false
}

func (c *Cursor) beforeFirst() (uint64, bool) {
	c.idx, c.on = -1, false
	return 0, false
}
