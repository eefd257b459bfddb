package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// DeflateCodec provides raw DEFLATE compression via klauspost/compress,
// the same algorithm gzip wraps but without gzip's header/trailer
// framing overhead. Prefer this over Gzip when the data never needs to
// leave this store as a standalone .gz file.
type DeflateCodec struct{}

var _ Codec = (*DeflateCodec)(nil)

// NewDeflateCodec creates a new DEFLATE codec with default compression level.
func NewDeflateCodec() DeflateCodec {
	return DeflateCodec{}
}

// Compress compresses data using DEFLATE's default compression level.
func (c DeflateCodec) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, fmt.Errorf("deflate compression failed: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("deflate compression failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("deflate compression failed: %w", err)
	}

	return buf.Bytes(), nil
}

// Decompress reverses Compress.
func (c DeflateCodec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("deflate decompression failed: %w", err)
	}

	return out, nil
}
