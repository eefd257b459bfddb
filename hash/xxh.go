package hash

import (
	"encoding/binary"

	"github.com/zeebo/xxh3"

	"lukechampine.com/blake3"
)

// xxh3Hasher computes XXH3-64, the same family spec.md names for the
// value_hash reduction step.
type xxh3Hasher struct{}

// Sum returns the 8-byte little-endian XXH3-64 digest of data.
func (xxh3Hasher) Sum(data []byte) []byte {
	sum := xxh3.Hash(data)
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, sum)

	return out
}

// xxh128Hasher computes XXH128, the 128-bit extension of XXH3.
type xxh128Hasher struct{}

// Sum returns the 16-byte little-endian XXH128 digest of data.
func (xxh128Hasher) Sum(data []byte) []byte {
	sum := xxh3.Hash128(data)
	out := make([]byte, 16)
	binary.LittleEndian.PutUint64(out[:8], sum.Lo)
	binary.LittleEndian.PutUint64(out[8:], sum.Hi)

	return out
}

// blake3Hasher computes BLAKE3 with the library's default 32-byte output.
type blake3Hasher struct{}

// Sum returns the 32-byte BLAKE3 digest of data.
func (blake3Hasher) Sum(data []byte) []byte {
	sum := blake3.Sum256(data)

	return sum[:]
}
