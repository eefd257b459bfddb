package section

import (
	"fmt"

	"github.com/go-fskv/fskv/endian"
	"github.com/go-fskv/fskv/errs"
)

// IndexEntry is the plaintext on-disk form of one key's index record: a
// 40-byte fixed header followed by the inline key bytes. It also doubles
// as the in-memory representation, with IsUpdated and KeyPosition added
// for fields that only make sense while an engine is running.
type IndexEntry struct {
	Key []byte

	IsDeleted      bool
	ValuePosition  int64 // file-absolute; UnassignedPosition if not yet written
	ValueLength    uint32
	ValueHash      uint64 // 8-byte reduced hash over the processed value
	TimestampMs    int64

	// IsUpdated marks an entry dirty since the last successful flush.
	// Not stored on disk.
	IsUpdated bool
	// KeyPosition is the file-absolute offset of this entry's fixed
	// header within the index region, or UnassignedPosition if the entry
	// has never been persisted. Not stored on disk.
	KeyPosition int64
}

// Bytes serializes e's fixed 40-byte header and inline key into a new
// slice. Only the on-disk fields are encoded; IsUpdated and KeyPosition
// are in-memory bookkeeping.
func (e *IndexEntry) Bytes() []byte {
	b := make([]byte, IndexEntrySize+len(e.Key))
	engine := endian.GetLittleEndianEngine()

	copy(b[0:4], MagicIndexEntry[:])
	if e.IsDeleted {
		b[4] = 1
	}
	engine.PutUint32(b[5:9], uint32(len(e.Key)))
	engine.PutUint64(b[9:17], uint64(e.ValuePosition))
	engine.PutUint32(b[17:21], e.ValueLength)
	engine.PutUint64(b[21:29], e.ValueHash)
	engine.PutUint64(b[29:37], uint64(e.TimestampMs))
	// b[37:40] reserved.
	copy(b[IndexEntrySize:], e.Key)

	return b
}

// Parse decodes a plaintext IndexEntry from data, which must hold at
// least the fixed 40-byte header. The key is copied out of data starting
// at IndexEntrySize; the caller must ensure data is long enough to cover
// key_length bytes beyond the header, e.g. by re-slicing a scan buffer
// once key_length is known.
func (e *IndexEntry) Parse(data []byte) error {
	if len(data) < IndexEntrySize {
		return fmt.Errorf("section: index entry shorter than %d bytes: %w", IndexEntrySize, errs.ErrCorruptEntry)
	}

	if [4]byte(data[0:4]) != MagicIndexEntry {
		return fmt.Errorf("section: bad index entry magic: %w", errs.ErrCorruptEntry)
	}

	engine := endian.GetLittleEndianEngine()

	e.IsDeleted = data[4] != 0
	keyLength := engine.Uint32(data[5:9])
	e.ValuePosition = int64(engine.Uint64(data[9:17]))
	e.ValueLength = engine.Uint32(data[17:21])
	e.ValueHash = engine.Uint64(data[21:29])
	e.TimestampMs = int64(engine.Uint64(data[29:37]))

	if len(data) < IndexEntrySize+int(keyLength) {
		return fmt.Errorf("section: index entry key_length %d exceeds available bytes: %w", keyLength, errs.ErrCorruptEntry)
	}

	e.Key = append([]byte(nil), data[IndexEntrySize:IndexEntrySize+int(keyLength)]...)

	return nil
}

// Size returns the total on-disk size of e, fixed header plus key.
func (e *IndexEntry) Size() int {
	return IndexEntrySize + len(e.Key)
}

// SealedIndexEntry is the encrypted-mode on-disk form: a small plaintext
// envelope (magic, deletion flag, envelope hash, sealed payload length)
// followed by an AEAD-sealed IndexEntry. The envelope lets a scan locate
// and validate entries, and lets tombstone patches flip IsDeleted, without
// decrypting the payload.
type SealedIndexEntry struct {
	IsDeleted      bool
	EnvelopeHash   uint64 // hash over the sealed payload, for scan resync
	SealedPayload  []byte // AEAD-sealed IndexEntry.Bytes()

	KeyPosition int64 // in-memory only
}

// Bytes serializes the envelope header and the (already-sealed) payload.
func (e *SealedIndexEntry) Bytes() []byte {
	b := make([]byte, SealedIndexEntryHeaderSize+len(e.SealedPayload))
	engine := endian.GetLittleEndianEngine()

	copy(b[0:4], MagicIndexEntry[:])
	if e.IsDeleted {
		b[4] = 1
	}
	engine.PutUint64(b[5:13], e.EnvelopeHash)
	engine.PutUint32(b[13:17], uint32(len(e.SealedPayload)))
	// b[17:20] reserved.
	copy(b[SealedIndexEntryHeaderSize:], e.SealedPayload)

	return b
}

// Parse decodes a sealed envelope from data, which must hold at least the
// fixed 20-byte envelope plus the sealed payload it describes. The caller
// is responsible for verifying EnvelopeHash and opening SealedPayload with
// the configured AEAD cipher.
func (e *SealedIndexEntry) Parse(data []byte) error {
	if len(data) < SealedIndexEntryHeaderSize {
		return fmt.Errorf("section: sealed index entry shorter than %d bytes: %w", SealedIndexEntryHeaderSize, errs.ErrCorruptEntry)
	}

	if [4]byte(data[0:4]) != MagicIndexEntry {
		return fmt.Errorf("section: bad index entry magic: %w", errs.ErrCorruptEntry)
	}

	engine := endian.GetLittleEndianEngine()

	e.IsDeleted = data[4] != 0
	e.EnvelopeHash = engine.Uint64(data[5:13])
	payloadLength := engine.Uint32(data[13:17])

	if len(data) < SealedIndexEntryHeaderSize+int(payloadLength) {
		return fmt.Errorf("section: sealed index entry payload length %d exceeds available bytes: %w", payloadLength, errs.ErrCorruptEntry)
	}

	e.SealedPayload = append([]byte(nil), data[SealedIndexEntryHeaderSize:SealedIndexEntryHeaderSize+int(payloadLength)]...)

	return nil
}

// Size returns the total on-disk size of e, envelope plus sealed payload.
func (e *SealedIndexEntry) Size() int {
	return SealedIndexEntryHeaderSize + len(e.SealedPayload)
}
