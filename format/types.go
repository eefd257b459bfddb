// Package format defines the byte-identity constants shared by the codec
// layer (compress, cipher, hash) and the on-disk section layouts
// (section.Header, section.IndexEntry). Keeping these ids in one leaf
// package lets every other package depend on them without depending on
// each other.
package format

// CompressionType identifies the compressor a value blob was written with.
// It is stored verbatim in the file header and is immutable after create.
type CompressionType uint8

const (
	CompressionNone    CompressionType = 0x1
	CompressionGzip    CompressionType = 0x2
	CompressionDeflate CompressionType = 0x3
	CompressionBrotli  CompressionType = 0x4
	CompressionLZ4     CompressionType = 0x5
	CompressionZstd    CompressionType = 0x6
	CompressionSnappy  CompressionType = 0x7
	CompressionLZMA    CompressionType = 0x8
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionGzip:
		return "Gzip"
	case CompressionDeflate:
		return "Deflate"
	case CompressionBrotli:
		return "Brotli"
	case CompressionLZ4:
		return "LZ4"
	case CompressionZstd:
		return "Zstd"
	case CompressionSnappy:
		return "Snappy"
	case CompressionLZMA:
		return "LZMA"
	default:
		return "Unknown"
	}
}

// EncryptionType identifies the AEAD cipher, if any, sealing the header
// and index entries.
type EncryptionType uint8

const (
	EncryptionNone             EncryptionType = 0x1
	EncryptionAES256GCM        EncryptionType = 0x2
	EncryptionChaCha20Poly1305 EncryptionType = 0x3
)

func (e EncryptionType) String() string {
	switch e {
	case EncryptionNone:
		return "None"
	case EncryptionAES256GCM:
		return "AES-256-GCM"
	case EncryptionChaCha20Poly1305:
		return "ChaCha20-Poly1305"
	default:
		return "Unknown"
	}
}

// Enabled reports whether e names an actual cipher (as opposed to None).
func (e EncryptionType) Enabled() bool {
	return e == EncryptionAES256GCM || e == EncryptionChaCha20Poly1305
}

// AEADPad is the per-record overhead of an AEAD envelope: a 12-byte nonce
// plus a 16-byte tag. Both ciphers this store supports use a 96-bit nonce
// and a 128-bit tag, so the pad is constant across cipher choice.
const AEADPad = 28

// HashType identifies the hash algorithm used to compute a value's
// integrity digest before it is reduced to the 8-byte value_hash stored
// in the index entry (see hash.ReduceValueHash).
type HashType uint8

const (
	HashMD5      HashType = 0x1
	HashSHA1     HashType = 0x2
	HashSHA256   HashType = 0x3
	HashSHA3_384 HashType = 0x4
	HashSHA384   HashType = 0x5
	HashSHA512   HashType = 0x6
	HashBLAKE3   HashType = 0x7
	HashXXH3     HashType = 0x8
	HashXXH128   HashType = 0x9
)

func (h HashType) String() string {
	switch h {
	case HashMD5:
		return "MD5"
	case HashSHA1:
		return "SHA1"
	case HashSHA256:
		return "SHA256"
	case HashSHA3_384:
		return "SHA3-384"
	case HashSHA384:
		return "SHA384"
	case HashSHA512:
		return "SHA512"
	case HashBLAKE3:
		return "BLAKE3"
	case HashXXH3:
		return "XXH3"
	case HashXXH128:
		return "XXH128"
	default:
		return "Unknown"
	}
}

// FileUpdateMode selects how Set places a value that already exists on
// disk when a newer value for the same key is written.
type FileUpdateMode uint8

const (
	// FileUpdateAppend always writes the new value at end-of-file.
	FileUpdateAppend FileUpdateMode = iota
	// FileUpdateReplace reuses the existing value's space in place when
	// the new value fits within the old value's stored length.
	FileUpdateReplace
)

func (m FileUpdateMode) String() string {
	if m == FileUpdateReplace {
		return "Replace"
	}
	return "Append"
}
