package compress

import (
	"fmt"

	"github.com/golang/snappy"
)

// SnappyCodec provides Snappy compression: very fast in both directions,
// modest compression ratio. Good default for hot values written and read
// frequently where CPU matters more than disk footprint.
type SnappyCodec struct{}

var _ Codec = (*SnappyCodec)(nil)

// NewSnappyCodec creates a new Snappy codec.
func NewSnappyCodec() SnappyCodec {
	return SnappyCodec{}
}

// Compress compresses data using Snappy block compression.
func (c SnappyCodec) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return snappy.Encode(nil, data), nil
}

// Decompress reverses Compress.
func (c SnappyCodec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	out, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("snappy decompression failed: %w", err)
	}

	return out, nil
}
