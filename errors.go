package segset

import (
	"errors"
	"fmt"

	"github.com/hupe1980/segset/deferred"
)

var (
	// ErrResourceExhausted is returned when the deferred-update buffer
	// memory limit is reached. The bulk-load session should be flushed
	// and the failed operation retried; buffered state is unaffected.
	ErrResourceExhausted = errors.New("resource exhausted")

	// ErrClosed is returned by operations on a closed bulk-load session.
	ErrClosed = errors.New("bulk load session closed")
)

// Range and encoding errors surface as *segment.RangeError and
// *segment.EncodingError. They indicate a logic error upstream, usually
// a caller using the wrong segment geometry, and are never corrected
// silently. Storage errors pass through unchanged from the adapter.

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, deferred.ErrBufferFull) {
		return fmt.Errorf("%w: %w", ErrResourceExhausted, err)
	}
	return err
}
