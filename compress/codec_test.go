package compress_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-fskv/fskv/compress"
	"github.com/go-fskv/fskv/format"
)

func allCodecs() map[string]compress.Codec {
	return map[string]compress.Codec{
		"none":    compress.NewNoOpCodec(),
		"gzip":    compress.NewGzipCodec(),
		"deflate": compress.NewDeflateCodec(),
		"brotli":  compress.NewBrotliCodec(),
		"lz4":     compress.NewLZ4Codec(),
		"zstd":    compress.NewZstdCodec(),
		"snappy":  compress.NewSnappyCodec(),
		"lzma":    compress.NewLZMACodec(),
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog "), 200)

	for name, codec := range allCodecs() {
		t.Run(name, func(t *testing.T) {
			compressed, err := codec.Compress(payload)
			require.NoError(t, err)

			decompressed, err := codec.Decompress(compressed)
			require.NoError(t, err)
			assert.Equal(t, payload, decompressed)
		})
	}
}

func TestCodec_EmptyInput(t *testing.T) {
	for name, codec := range allCodecs() {
		t.Run(name, func(t *testing.T) {
			compressed, err := codec.Compress(nil)
			require.NoError(t, err)

			decompressed, err := codec.Decompress(compressed)
			require.NoError(t, err)
			assert.Empty(t, decompressed)
		})
	}
}

func TestCreateCodec(t *testing.T) {
	ids := []format.CompressionType{
		format.CompressionNone,
		format.CompressionGzip,
		format.CompressionDeflate,
		format.CompressionBrotli,
		format.CompressionLZ4,
		format.CompressionZstd,
		format.CompressionSnappy,
		format.CompressionLZMA,
	}

	for _, id := range ids {
		codec, err := compress.CreateCodec(id, "value")
		require.NoError(t, err)
		require.NotNil(t, codec)
	}

	_, err := compress.CreateCodec(format.CompressionType(0xFF), "value")
	require.Error(t, err)
}

func TestGetCodec_Unsupported(t *testing.T) {
	_, err := compress.GetCodec(format.CompressionType(0xFF))
	require.Error(t, err)
}
