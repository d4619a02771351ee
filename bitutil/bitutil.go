// Package bitutil provides fixed-width bit manipulation over byte slices.
//
// Bits are addressed MSB-first within each byte: bit 0 is the most
// significant bit of b[0]. This matches the on-disk existence bitmap
// layout, so a bitmap blob can be operated on in place without any
// reshuffling.
package bitutil

import (
	"encoding/binary"
	"iter"
	"math/bits"
)

// Set sets bit i in b.
func Set(b []byte, i uint32) {
	b[i>>3] |= 0x80 >> (i & 7)
}

// Clear clears bit i in b.
func Clear(b []byte, i uint32) {
	b[i>>3] &^= 0x80 >> (i & 7)
}

// Test reports whether bit i in b is set.
func Test(b []byte, i uint32) bool {
	return b[i>>3]&(0x80>>(i&7)) != 0
}

// Count returns the number of set bits in b.
func Count(b []byte) int {
	n := 0
	for _, x := range b {
		n += bits.OnesCount8(x)
	}
	return n
}

// NextSet returns the index of the first set bit at or after from.
// The second return value is false if no such bit exists.
func NextSet(b []byte, from uint32) (uint32, bool) {
	if from >= uint32(len(b))*8 {
		return 0, false
	}
	// Partial leading byte.
	i := from >> 3
	if x := b[i] & (0xff >> (from & 7)); x != 0 {
		return i<<3 + uint32(bits.LeadingZeros8(x)), true
	}
	for i++; i < uint32(len(b)); i++ {
		if b[i] != 0 {
			return i<<3 + uint32(bits.LeadingZeros8(b[i])), true
		}
	}
	return 0, false
}

// PrevSet returns the index of the last set bit at or before from.
// The second return value is false if no such bit exists.
func PrevSet(b []byte, from uint32) (uint32, bool) {
	if len(b) == 0 {
		return 0, false
	}
	if max := uint32(len(b))*8 - 1; from > max {
		from = max
	}
	// Partial trailing byte.
	i := int(from >> 3)
	if x := b[i] & ^(0x7f >> (from & 7)); x != 0 {
		return uint32(i)<<3 + 7 - uint32(bits.TrailingZeros8(x)), true
	}
	for i--; i >= 0; i-- {
		if b[i] != 0 {
			return uint32(i)<<3 + 7 - uint32(bits.TrailingZeros8(b[i])), true
		}
	}
	return 0, false
}

// CountRange returns the number of set bits in b with index < limit.
func CountRange(b []byte, limit uint32) int {
	full := limit >> 3
	n := 0
	for _, x := range b[:full] {
		n += bits.OnesCount8(x)
	}
	if rem := limit & 7; rem != 0 {
		n += bits.OnesCount8(b[full] & ^(0xff >> rem))
	}
	return n
}

// Ones iterates over the indexes of all set bits in b, ascending.
func Ones(b []byte) iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		for i, x := range b {
			for x != 0 {
				lz := uint32(bits.LeadingZeros8(x))
				if !yield(uint32(i)<<3 + lz) {
					return
				}
				x &^= 0x80 >> lz
			}
		}
	}
}

// AppendUint16 appends v to b as a fixed-width big-endian integer.
func AppendUint16(b []byte, v uint16) []byte {
	return binary.BigEndian.AppendUint16(b, v)
}

// Uint16 reads a fixed-width big-endian integer from b.
func Uint16(b []byte) uint16 {
	return binary.BigEndian.Uint16(b)
}
