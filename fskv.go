// Package fskv provides an embedded, single-file, persistent key-value
// store.
//
// An fskv file holds a fixed-size header, a region of value blobs, and a
// region of index entries describing where each key's value lives.
// Values are optionally compressed and optionally AEAD-encrypted before
// being written; compaction reclaims space freed by deletes and
// overwrites by rewriting the file with only live data.
//
// # Basic Usage
//
//	db, err := fskv.Open("data.fskv")
//	if err != nil {
//	    // handle err
//	}
//	defer db.Close()
//
//	if err := db.Set([]byte("user:42"), []byte(`{"name":"ada"}`)); err != nil {
//	    // handle err
//	}
//
//	value, ok, err := db.Get([]byte("user:42"))
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the store
// package, which holds the actual engine implementation. The store,
// format, cipher, compress, and errs packages are available directly for
// advanced configuration.
package fskv

import (
	"github.com/go-fskv/fskv/errs"
	"github.com/go-fskv/fskv/format"
	"github.com/go-fskv/fskv/store"
)

// DB is an open fskv file. See store.Engine for the full method set;
// this alias lets callers write fskv.DB without importing the store
// package directly.
type DB = store.Engine

// Option configures a DB at Open time. See the WithXxx functions in the
// store package.
type Option = store.Option

// Stats is a point-in-time operational snapshot of a DB.
type Stats = store.Stats

// Open opens the fskv file at path, creating it with a fresh header if
// it does not exist. With no options, the file uses no compression, no
// encryption, XXH3 value integrity hashing, and append-mode updates.
//
// Available options (from the store package):
//   - store.WithCompression(format.CompressionZstd|Gzip|...)
//   - store.WithEncryption(format.EncryptionAES256GCM|ChaCha20Poly1305, key)
//   - store.WithHash(format.HashXXH3|SHA256|BLAKE3|...)
//   - store.WithFileUpdateMode(format.FileUpdateReplace)
//   - store.WithAutoCompact(true, thresholdPercent)
//   - store.WithMaxKeyLength(n)
//   - store.WithFlushInterval(seconds)
//
// Example:
//
//	db, err := fskv.Open("data.fskv",
//	    store.WithCompression(format.CompressionZstd),
//	    store.WithEncryption(format.EncryptionAES256GCM, passphrase),
//	)
func Open(path string, opts ...Option) (*DB, error) {
	return store.Open(path, opts...)
}

// Re-exported sentinel errors, so callers can check with errors.Is
// without importing the errs package directly.
var (
	ErrCorruptHeader        = errs.ErrCorruptHeader
	ErrAuthFailure          = errs.ErrAuthFailure
	ErrConfigMismatch       = errs.ErrConfigMismatch
	ErrCorruptEntry         = errs.ErrCorruptEntry
	ErrValidationFailure    = errs.ErrValidationFailure
	ErrCompactVerifyFailure = errs.ErrCompactVerifyFailure
	ErrKeyTooLong           = errs.ErrKeyTooLong
	ErrClosed               = errs.ErrClosed
	ErrInvalidConfig        = errs.ErrInvalidConfig
	ErrUnsupportedCodec     = errs.ErrUnsupportedCodec
)

// Re-exported codec identities, so simple callers need only import fskv.
const (
	CompressionNone = format.CompressionNone
	CompressionGzip = format.CompressionGzip
	CompressionZstd = format.CompressionZstd

	EncryptionNone      = format.EncryptionNone
	EncryptionAES256GCM = format.EncryptionAES256GCM

	HashXXH3   = format.HashXXH3
	HashSHA256 = format.HashSHA256
)
