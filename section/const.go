package section

// Magic numbers identifying the two on-disk record kinds: the file header
// and an index entry. Both are checked on every parse to resynchronize
// during index scanning and to reject foreign files early.
var (
	MagicHeader     = [4]byte{'F', 'S', 'K', 'V'}
	MagicIndexEntry = [4]byte{'I', 'D', 'X', 'E'}
)

// CurrentVersion is the on-disk format version this package writes. Header
// reads accept any version <= CurrentVersion.
const CurrentVersion uint8 = 1

const (
	// HeaderSize is the fixed plaintext size of the file header, in bytes.
	HeaderSize = 64

	// headerChecksumField is the byte offset of the checksum.
	headerChecksumField = 60

	// IndexEntrySize is the fixed portion of a plaintext index entry,
	// excluding the inline key bytes that follow it.
	IndexEntrySize = 40

	// SealedIndexEntryHeaderSize is the fixed size of an encrypted-mode
	// index entry's envelope, which precedes the AEAD-sealed payload.
	SealedIndexEntryHeaderSize = 20
)

// UnassignedPosition is the sentinel value_position / key_position stored
// for an entry that has not yet been placed on disk.
const UnassignedPosition int64 = -1
