// Package compress provides the value-blob compressor codecs fskv selects
// by the one-byte format.CompressionType stored in the file header.
//
// A Codec is a pure bytes-to-bytes transform: no state is kept across
// calls beyond pooled scratch buffers, so the same Codec value is safe for
// concurrent use by multiple goroutines.
package compress

import (
	"fmt"

	"github.com/go-fskv/fskv/format"
)

// Compressor compresses a value blob before it is sealed (if encryption is
// enabled) and appended to the file.
type Compressor interface {
	// Compress compresses data and returns a newly allocated result.
	//
	// Memory management:
	//   - Returned slice is newly allocated and owned by the caller,
	//     except for NoOpCodec, which returns data itself
	//   - Input slice is not modified
	//   - Internal buffers may be reused for efficiency
	Compress(data []byte) ([]byte, error)
}

// Decompressor reverses a Compressor of the same algorithm.
type Decompressor interface {
	// Decompress decompresses data and returns a newly allocated result.
	//
	// Returns an error if data is corrupted or was not produced by the
	// matching Compressor.
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both directions. Every built-in compressor in this
// package implements Codec.
type Codec interface {
	Compressor
	Decompressor
}

// CreateCodec constructs a Codec for the given compression type.
//
// target names the caller for error messages (e.g. "value"), since a
// config validation error is more useful when it says what it was trying
// to build a codec for.
func CreateCodec(compressionType format.CompressionType, target string) (Codec, error) {
	switch compressionType {
	case format.CompressionNone:
		return NewNoOpCodec(), nil
	case format.CompressionGzip:
		return NewGzipCodec(), nil
	case format.CompressionDeflate:
		return NewDeflateCodec(), nil
	case format.CompressionBrotli:
		return NewBrotliCodec(), nil
	case format.CompressionLZ4:
		return NewLZ4Codec(), nil
	case format.CompressionZstd:
		return NewZstdCodec(), nil
	case format.CompressionSnappy:
		return NewSnappyCodec(), nil
	case format.CompressionLZMA:
		return NewLZMACodec(), nil
	default:
		return nil, fmt.Errorf("invalid %s compression: %s", target, compressionType)
	}
}

// builtinCodecs is a stateless registry used by GetCodec, avoiding a fresh
// allocation per lookup for the (common) case of a stateless codec.
var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone:    NewNoOpCodec(),
	format.CompressionGzip:    NewGzipCodec(),
	format.CompressionDeflate: NewDeflateCodec(),
	format.CompressionBrotli:  NewBrotliCodec(),
	format.CompressionLZ4:     NewLZ4Codec(),
	format.CompressionZstd:    NewZstdCodec(),
	format.CompressionSnappy:  NewSnappyCodec(),
	format.CompressionLZMA:    NewLZMACodec(),
}

// GetCodec retrieves the built-in Codec for compressionType.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression type: %s", compressionType)
}
