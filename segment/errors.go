package segment

import "fmt"

// RangeError indicates an offset outside the configured segment bounds.
// It always signals a logic error in the caller, typically a record
// number computed with the wrong segment size.
type RangeError struct {
	Offset uint32
	Size   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("offset %d out of range for segment size %d", e.Offset, e.Size)
}

// EncodingError indicates malformed bytes on decode, such as a payload
// whose length does not match the declared segment kind.
type EncodingError struct {
	Kind   Kind
	Len    int
	Reason string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("malformed %s segment of %d bytes: %s", e.Kind, e.Len, e.Reason)
}
