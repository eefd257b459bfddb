// Package hash provides the pluggable digest algorithms fskv uses for
// value integrity: MD5, SHA1, SHA256, SHA3-384, SHA384, SHA512, BLAKE3,
// XXH3, and XXH128, selected by the one-byte format.HashType stored in
// the file header.
//
// The digest a Hasher produces is never stored directly; ReduceValueHash
// always folds it down to the 8 bytes recorded as value_hash in an index
// entry (see ReduceValueHash for why).
package hash

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"

	"golang.org/x/crypto/sha3"

	"github.com/go-fskv/fskv/errs"
	"github.com/go-fskv/fskv/format"
)

// Hasher computes a digest over a byte slice. Implementations wrap
// stdlib or third-party hash.Hash constructors; none retain state across
// Sum calls.
type Hasher interface {
	// Sum returns the digest of data.
	Sum(data []byte) []byte
}

// hashFunc adapts a hash.Hash constructor into a Hasher.
type hashFunc func() hash.Hash

func (f hashFunc) Sum(data []byte) []byte {
	h := f()
	h.Write(data) //nolint:errcheck // hash.Hash.Write never returns an error
	return h.Sum(nil)
}

// CreateHasher constructs a Hasher for the given hash type.
func CreateHasher(hashType format.HashType) (Hasher, error) {
	switch hashType {
	case format.HashMD5:
		return hashFunc(md5.New), nil
	case format.HashSHA1:
		return hashFunc(sha1.New), nil
	case format.HashSHA256:
		return hashFunc(sha256.New), nil
	case format.HashSHA3_384:
		return hashFunc(sha3.New384), nil
	case format.HashSHA384:
		return hashFunc(sha512.New384), nil
	case format.HashSHA512:
		return hashFunc(sha512.New), nil
	case format.HashBLAKE3:
		return blake3Hasher{}, nil
	case format.HashXXH3:
		return xxh3Hasher{}, nil
	case format.HashXXH128:
		return xxh128Hasher{}, nil
	default:
		return nil, fmt.Errorf("%w: hash id %d", errs.ErrUnsupportedCodec, hashType)
	}
}
