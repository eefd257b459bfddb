// Package hash provides a fast, non-cryptographic hash used internally
// for lock-stripe selection in the primary index (see store.index) and for
// the sealed-index-entry envelope checksum (see store.encodeEntry). It is
// unrelated to the pluggable, cryptographic-or-not hash package used for
// the value_hash field in on-disk index entries.
package hash

import "github.com/cespare/xxhash/v2"

// ID computes the xxHash64 of the given string.
func ID(data string) uint64 {
	return xxhash.Sum64String(data)
}

// StripeIndex maps key to one of numStripes lock stripes.
func StripeIndex(key []byte, numStripes int) int {
	return int(xxhash.Sum64(key) % uint64(numStripes))
}

// Checksum computes the xxHash64 of data. Used for the sealed index
// entry's envelope hash, which must be cheap to verify during a scan
// without involving the AEAD cipher.
func Checksum(data []byte) uint64 {
	return xxhash.Sum64(data)
}
