package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ulikunitz/xz/lzma"
)

// LZMACodec provides LZMA compression: the slowest but typically most
// space-efficient of the built-in codecs. Suited to cold, rarely-read
// values where storage footprint dominates.
type LZMACodec struct{}

var _ Codec = (*LZMACodec)(nil)

// NewLZMACodec creates a new LZMA codec with default writer settings.
func NewLZMACodec() LZMACodec {
	return LZMACodec{}
}

// Compress compresses data using LZMA's default preset.
func (c LZMACodec) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := lzma.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("lzma compression failed: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("lzma compression failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("lzma compression failed: %w", err)
	}

	return buf.Bytes(), nil
}

// Decompress reverses Compress.
func (c LZMACodec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	r, err := lzma.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("lzma decompression failed: %w", err)
	}

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("lzma decompression failed: %w", err)
	}

	return out, nil
}
