// Package section implements the two fixed-size binary records that make
// up an fskv file's control structures: the file Header and the
// IndexEntry/SealedIndexEntry pair that make up the index region. Both
// follow the reference codebase's Parse/Bytes/Create convention: a struct
// holding the decoded fields, a Bytes method producing the canonical
// on-disk encoding, and a Parse method doing the reverse with strict
// validation.
package section

import (
	"fmt"
	"hash/fnv"

	"github.com/go-fskv/fskv/endian"
	"github.com/go-fskv/fskv/errs"
	"github.com/go-fskv/fskv/format"
)

// Header is the 64-byte record at offset 0 of an fskv file. It is
// optionally AEAD-sealed by the caller (store package); Header itself only
// knows the plaintext encoding.
type Header struct {
	Version       uint8
	CompressionID format.CompressionType
	EncryptionID  format.EncryptionType
	HashID        format.HashType

	CreatedEpochMs    int64
	LastUpdateEpochMs int64

	IndexStart uint64
	IndexUsed  uint32
	IndexSpace uint32
	IndexCount uint32
}

// Create stamps a new Header for a freshly created file: magic, version,
// and the three codec ids are fixed for the life of the file; the index
// fields start at zero since there are no entries yet.
func Create(compressionID format.CompressionType, encryptionID format.EncryptionType, hashID format.HashType, nowEpochMs int64) *Header {
	return &Header{
		Version:           CurrentVersion,
		CompressionID:     compressionID,
		EncryptionID:      encryptionID,
		HashID:            hashID,
		CreatedEpochMs:    nowEpochMs,
		LastUpdateEpochMs: nowEpochMs,
	}
}

// Bytes serializes h into its canonical 64-byte little-endian encoding,
// including a freshly computed checksum.
func (h *Header) Bytes() []byte {
	b := make([]byte, HeaderSize)
	engine := endian.GetLittleEndianEngine()

	copy(b[0:4], MagicHeader[:])
	b[4] = h.Version
	b[5] = byte(h.CompressionID)
	b[6] = byte(h.EncryptionID)
	b[7] = byte(h.HashID)
	engine.PutUint64(b[8:16], uint64(h.CreatedEpochMs))
	engine.PutUint64(b[16:24], uint64(h.LastUpdateEpochMs))
	engine.PutUint64(b[24:32], h.IndexStart)
	engine.PutUint32(b[32:36], h.IndexUsed)
	engine.PutUint32(b[36:40], h.IndexSpace)
	engine.PutUint32(b[40:44], h.IndexCount)
	// b[44:60] is reserved padding, left zero.

	engine.PutUint32(b[headerChecksumField:headerChecksumField+4], checksum(b))

	return b
}

// Parse decodes a Header from exactly HeaderSize bytes, validating magic,
// version, and checksum. It returns ErrCorruptHeader on any mismatch.
func (h *Header) Parse(data []byte) error {
	if len(data) != HeaderSize {
		return fmt.Errorf("section: header must be %d bytes, got %d: %w", HeaderSize, len(data), errs.ErrCorruptHeader)
	}

	if [4]byte(data[0:4]) != MagicHeader {
		return fmt.Errorf("section: bad header magic: %w", errs.ErrCorruptHeader)
	}

	wantChecksum := checksum(data)
	engine := endian.GetLittleEndianEngine()
	gotChecksum := engine.Uint32(data[headerChecksumField : headerChecksumField+4])
	if wantChecksum != gotChecksum {
		return fmt.Errorf("section: header checksum mismatch: %w", errs.ErrCorruptHeader)
	}

	version := data[4]
	if version > CurrentVersion {
		return fmt.Errorf("section: header version %d newer than supported %d: %w", version, CurrentVersion, errs.ErrCorruptHeader)
	}

	h.Version = version
	h.CompressionID = format.CompressionType(data[5])
	h.EncryptionID = format.EncryptionType(data[6])
	h.HashID = format.HashType(data[7])
	h.CreatedEpochMs = int64(engine.Uint64(data[8:16]))
	h.LastUpdateEpochMs = int64(engine.Uint64(data[16:24]))
	h.IndexStart = engine.Uint64(data[24:32])
	h.IndexUsed = engine.Uint32(data[32:36])
	h.IndexSpace = engine.Uint32(data[36:40])
	h.IndexCount = engine.Uint32(data[40:44])

	return nil
}

// Parse reads data as a new Header, validating as Parse does.
func Parse(data []byte) (*Header, error) {
	h := &Header{}
	if err := h.Parse(data); err != nil {
		return nil, err
	}

	return h, nil
}

// ValidateCompatibility reports ErrConfigMismatch if the header's codec
// identities differ from the ones the caller opened the file with. Codec
// identities are immutable after create, so any difference means the
// caller's config does not match this file.
func (h *Header) ValidateCompatibility(compressionID format.CompressionType, encryptionID format.EncryptionType, hashID format.HashType) error {
	if h.CompressionID != compressionID || h.EncryptionID != encryptionID || h.HashID != hashID {
		return fmt.Errorf(
			"section: header has (compression=%s encryption=%s hash=%s), config wants (compression=%s encryption=%s hash=%s): %w",
			h.CompressionID, h.EncryptionID, h.HashID, compressionID, encryptionID, hashID, errs.ErrConfigMismatch,
		)
	}

	return nil
}

// checksum computes the FNV-1a 32-bit checksum fskv stores at
// headerChecksumField. It is taken over the meaningful header fields
// (magic through index_count); the checksum field itself and the reserved
// padding are excluded so that zero-filled reserved bytes never affect a
// file's validity.
func checksum(b []byte) uint32 {
	h := fnv.New32a()
	h.Write(b[0:44])

	return h.Sum32()
}
