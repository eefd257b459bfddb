// Package errs defines the sentinel errors returned by fskv's storage
// engine, codec layer, and on-disk format parsers.
//
// Callers should use errors.Is against these sentinels rather than
// comparing error strings, since every return site wraps one of these
// with additional context via fmt.Errorf's %w verb.
package errs

import "errors"

var (
	// ErrCorruptHeader is returned when the file header's magic, version,
	// or checksum does not validate.
	ErrCorruptHeader = errors.New("fskv: corrupt header")

	// ErrAuthFailure is returned when an AEAD seal fails to open, most
	// often because the wrong encryption key was supplied.
	ErrAuthFailure = errors.New("fskv: authentication failure (wrong key?)")

	// ErrConfigMismatch is returned when the codec identities recorded in
	// the file header do not match the config an engine was opened with.
	ErrConfigMismatch = errors.New("fskv: config codec mismatch")

	// ErrCorruptEntry is returned when an index entry fails to parse:
	// bad magic, bounds violation, or (encrypted mode) envelope hash
	// mismatch. Scan and compact log and skip; reads surface it as a
	// missing value.
	ErrCorruptEntry = errors.New("fskv: corrupt index entry")

	// ErrValidationFailure is returned by Set when update_validation_enabled
	// is on and the post-write read-back does not match the written value.
	ErrValidationFailure = errors.New("fskv: write validation failed")

	// ErrCompactVerifyFailure is returned when the freshly written
	// compaction header fails to round-trip.
	ErrCompactVerifyFailure = errors.New("fskv: compaction verification failed")

	// ErrKeyTooLong is returned when a key exceeds the configured
	// max_key_length.
	ErrKeyTooLong = errors.New("fskv: key exceeds max_key_length")

	// ErrClosed is returned by Set, Get, Delete, SetBatch, DeleteBatch,
	// Clear, Flush and Compact when invoked after Close.
	ErrClosed = errors.New("fskv: engine is closed")

	// ErrInvalidConfig is returned when an option rejects its input at
	// apply time (e.g. an unknown codec id, an encryption key that is
	// too short).
	ErrInvalidConfig = errors.New("fskv: invalid config")

	// ErrUnsupportedCodec is returned by a codec registry lookup for an
	// id it does not recognize.
	ErrUnsupportedCodec = errors.New("fskv: unsupported codec")
)
