package hash

import (
	"github.com/zeebo/xxh3"

	"github.com/go-fskv/fskv/format"
)

// ReduceValueHash computes the 8-byte value_hash fskv stores in an index
// entry for processed (the post-compress-and-encrypt bytes actually on
// disk).
//
// Per spec: the stored hash is always 8 bytes. If the configured hash_id
// is already XXH3, this is simply XXH3(processed). Otherwise it is
// XXH3(configuredHasher.Sum(processed)) — a hash-of-hash reduction that
// lets the configured algorithm still participate (its digest is what
// gets reduced) while keeping the stored footprint fixed at 8 bytes.
//
// This deliberately loses the cryptographic properties of hashes like
// SHA-256 or BLAKE3 for the stored integrity check: an attacker able to
// find an XXH3 collision need not find one in the underlying hash. That
// tradeoff favors stored size and check speed over cryptographic
// collision-resistance for tamper detection, which is explicitly out of
// scope (see DESIGN.md Open Question (c)).
func ReduceValueHash(processed []byte, hashType format.HashType, hasher Hasher) uint64 {
	if hashType == format.HashXXH3 {
		return xxh3.Hash(processed)
	}

	digest := hasher.Sum(processed)

	return xxh3.Hash(digest)
}
