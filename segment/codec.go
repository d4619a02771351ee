package segment

import (
	"github.com/hupe1980/segset/bitutil"
)

// Wire format: a one-byte kind tag followed by the payload.
//
//   - integer: one big-endian uint16 offset
//   - list:    ascending big-endian uint16 offsets, no separators
//   - bitmap:  exactly Config.Size bits, MSB-first per byte
//
// The tag byte is the Kind value. The payload is bit-exact: two record
// sets holding the same records under the same Config always produce the
// same bytes for every segment.

// Encode serializes the segment.
func (s *Segment) Encode() []byte {
	switch s.kind {
	case KindBitmap:
		buf := make([]byte, 0, 1+len(s.bits))
		buf = append(buf, byte(KindBitmap))
		return append(buf, s.bits...)
	default:
		buf := make([]byte, 0, 1+2*len(s.offs))
		buf = append(buf, byte(s.kind))
		for _, off := range s.offs {
			buf = bitutil.AppendUint16(buf, uint16(off))
		}
		return buf
	}
}

// Decode deserializes a segment encoded by Encode. The declared kind is
// preserved as-is; Decode never re-selects the encoding. Malformed input
// is reported as an EncodingError.
func Decode(cfg Config, data []byte) (*Segment, error) {
	if len(data) < 2 {
		return nil, &EncodingError{Len: len(data), Reason: "short buffer"}
	}
	kind, payload := Kind(data[0]), data[1:]
	switch kind {
	case KindInteger:
		if len(payload) != 2 {
			return nil, &EncodingError{Kind: kind, Len: len(data), Reason: "payload is not one offset"}
		}
		off := uint32(bitutil.Uint16(payload))
		if int(off) >= cfg.Size {
			return nil, &EncodingError{Kind: kind, Len: len(data), Reason: "offset beyond segment size"}
		}
		return &Segment{cfg: cfg, kind: kind, offs: []uint32{off}}, nil

	case KindList:
		if len(payload) == 0 || len(payload)%2 != 0 {
			return nil, &EncodingError{Kind: kind, Len: len(data), Reason: "payload is not a whole number of offsets"}
		}
		n := len(payload) / 2
		if n > cfg.ListLimit {
			return nil, &EncodingError{Kind: kind, Len: len(data), Reason: "list longer than the configured limit"}
		}
		offs := make([]uint32, n)
		for i := range offs {
			offs[i] = uint32(bitutil.Uint16(payload[2*i:]))
			if i > 0 && offs[i] <= offs[i-1] {
				return nil, &EncodingError{Kind: kind, Len: len(data), Reason: "offsets are not strictly ascending"}
			}
		}
		if int(offs[n-1]) >= cfg.Size {
			return nil, &EncodingError{Kind: kind, Len: len(data), Reason: "offset beyond segment size"}
		}
		return &Segment{cfg: cfg, kind: kind, offs: offs}, nil

	case KindBitmap:
		if len(payload) != cfg.Bytes() {
			return nil, &EncodingError{Kind: kind, Len: len(data), Reason: "payload is not one bitmap"}
		}
		bits := make([]byte, len(payload))
		copy(bits, payload)
		if bitutil.Count(bits) == 0 {
			return nil, &EncodingError{Kind: kind, Len: len(data), Reason: "empty segments are never persisted"}
		}
		return &Segment{cfg: cfg, kind: kind, bits: bits}, nil

	default:
		return nil, &EncodingError{Kind: kind, Len: len(data), Reason: "unknown kind tag"}
	}
}
