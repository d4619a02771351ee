package segment

import (
	"errors"
	"fmt"
)

const (
	// MinSize is the smallest supported segment width in records.
	MinSize = 8
	// MaxSize is the largest supported segment width in records.
	// Offsets are 16-bit on the wire, so a segment can never span more
	// than 65536 records.
	MaxSize = 1 << 16
)

// Config fixes the segment geometry for a dataset: the number of records
// per segment and the list/bitmap crossover threshold.
//
// A Config is immutable. All segments, record sets and deferred-update
// buffers belonging to one dataset must be created with the same Config;
// changing the geometry of existing data requires a migration.
type Config struct {
	// Size is the number of records per segment. Must be a multiple of 8
	// in [MinSize, MaxSize].
	Size int

	// ListLimit is the maximum record count for the list encoding. A
	// segment holding more than ListLimit records is encoded as a bitmap.
	ListLimit int
}

// DefaultConfig returns the default geometry: 32768 records per segment
// (4 KiB bitmaps) with the largest list limit at which a list is still
// strictly smaller than a bitmap.
func DefaultConfig() Config {
	const size = 32768
	return Config{Size: size, ListLimit: DefaultListLimit(size)}
}

// DefaultListLimit returns the largest list length that encodes strictly
// smaller than a bitmap of the given segment size: list entries are two
// bytes each, a bitmap is size/8 bytes.
func DefaultListLimit(size int) int {
	return size/16 - 1
}

// Bytes returns the byte length of a bitmap segment.
func (c Config) Bytes() int {
	return c.Size / 8
}

// Validate checks the geometry.
func (c Config) Validate() error {
	if c.Size < MinSize || c.Size > MaxSize {
		return fmt.Errorf("segment size %d out of range [%d, %d]", c.Size, MinSize, MaxSize)
	}
	if c.Size%8 != 0 {
		return fmt.Errorf("segment size %d is not a multiple of 8", c.Size)
	}
	if c.ListLimit < 1 || c.ListLimit >= c.Size {
		return errors.New("list limit must be in [1, segment size)")
	}
	return nil
}
