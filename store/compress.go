package store

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the algorithm used by CompressingAdapter.
type Compression uint8

const (
	// CompressionNone stores blobs uncompressed.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast, good for hot data).
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses ZSTD block compression (better ratio, good for cold data).
	CompressionZSTD Compression = 2
)

// zstd encoder/decoder pools, shared across adapters.
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// CompressingAdapter decorates an Adapter with per-blob compression.
// Bitmap segments are mostly runs of zero or one bits and compress well;
// small list and integer blobs below the threshold are stored raw.
//
// Frame layout: [scheme byte][uint32 uncompressed size][payload] for
// compressed blobs, [scheme byte][payload] for raw ones. Blobs written
// with one scheme remain readable after switching to another.
type CompressingAdapter struct {
	Adapter
	scheme    Compression
	threshold int
}

// CompressingOption configures a CompressingAdapter.
type CompressingOption func(*CompressingAdapter)

// WithCompressionThreshold sets the minimum blob size, in bytes, at
// which compression is attempted. Defaults to 64.
func WithCompressionThreshold(n int) CompressingOption {
	return func(a *CompressingAdapter) {
		a.threshold = n
	}
}

// NewCompressingAdapter wraps inner so that blobs are compressed with
// the given scheme on write and transparently decompressed on read.
func NewCompressingAdapter(inner Adapter, scheme Compression, opts ...CompressingOption) *CompressingAdapter {
	a := &CompressingAdapter{
		Adapter:   inner,
		scheme:    scheme,
		threshold: 64,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Put compresses the blob and writes it to the inner adapter.
func (a *CompressingAdapter) Put(ctx context.Context, value string, segnum uint64, data []byte) error {
	return a.Adapter.Put(ctx, value, segnum, a.seal(data))
}

// Get reads the blob from the inner adapter and decompresses it.
func (a *CompressingAdapter) Get(ctx context.Context, value string, segnum uint64) ([]byte, error) {
	data, err := a.Adapter.Get(ctx, value, segnum)
	if err != nil {
		return nil, err
	}
	return unseal(data)
}

// Scan reads every entry for the value and decompresses the blobs.
func (a *CompressingAdapter) Scan(ctx context.Context, value string) ([]Entry, error) {
	entries, err := a.Adapter.Scan(ctx, value)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Data, err = unseal(entries[i].Data)
		if err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func (a *CompressingAdapter) seal(data []byte) []byte {
	if a.scheme == CompressionNone || len(data) < a.threshold {
		return append([]byte{byte(CompressionNone)}, data...)
	}

	header := make([]byte, 5)
	header[0] = byte(a.scheme)
	binary.LittleEndian.PutUint32(header[1:], uint32(len(data)))

	switch a.scheme {
	case CompressionLZ4:
		var c lz4.Compressor
		dst := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := c.CompressBlock(data, dst)
		if err != nil || n == 0 || n >= len(data) {
			// Incompressible; store raw.
			return append([]byte{byte(CompressionNone)}, data...)
		}
		return append(header, dst[:n]...)

	case CompressionZSTD:
		enc := getZstdEncoder()
		dst := enc.EncodeAll(data, header)
		zstdEncoderPool.Put(enc)
		if len(dst)-len(header) >= len(data) {
			return append([]byte{byte(CompressionNone)}, data...)
		}
		return dst

	default:
		return append([]byte{byte(CompressionNone)}, data...)
	}
}

func unseal(data []byte) ([]byte, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("compressed frame too short: %d bytes", len(data))
	}
	scheme, payload := Compression(data[0]), data[1:]
	if scheme == CompressionNone {
		return payload, nil
	}
	if len(payload) < 4 {
		return nil, fmt.Errorf("compressed frame too short: %d bytes", len(data))
	}
	size := binary.LittleEndian.Uint32(payload)
	payload = payload[4:]

	switch scheme {
	case CompressionLZ4:
		dst := make([]byte, size)
		n, err := lz4.UncompressBlock(payload, dst)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		if uint32(n) != size {
			return nil, fmt.Errorf("lz4 decompress: got %d bytes, frame declares %d", n, size)
		}
		return dst, nil

	case CompressionZSTD:
		dec := getZstdDecoder()
		dst, err := dec.DecodeAll(payload, make([]byte, 0, size))
		zstdDecoderPool.Put(dec)
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if uint32(len(dst)) != size {
			return nil, fmt.Errorf("zstd decompress: got %d bytes, frame declares %d", len(dst), size)
		}
		return dst, nil

	default:
		return nil, fmt.Errorf("unknown compression scheme %d", scheme)
	}
}
