// Package hash documents the nine digest algorithms fskv supports for
// value integrity verification.
//
// # Overview
//
// A Hasher computes a digest over the post-pipeline bytes (after
// compress -> encrypt). ReduceValueHash folds that digest down to the
// fixed 8-byte value_hash stored in every index entry.
//
// # Supported algorithms
//
//   - MD5, SHA1, SHA256, SHA384, SHA512: stdlib crypto/*.
//   - SHA3-384: golang.org/x/crypto/sha3.
//   - BLAKE3: lukechampine.com/blake3.
//   - XXH3, XXH128: github.com/zeebo/xxh3.
//
// hash_id is immutable after a file is created, like compression_id and
// encryption_id.
package hash
