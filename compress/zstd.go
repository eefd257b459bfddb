package compress

// ZstdCodec provides Zstandard compression: a strong compression ratio at
// moderate speed.
//
// Good for cold values that are written once and read rarely: archival
// records, large blobs, long-term retention.
type ZstdCodec struct{}

var _ Codec = (*ZstdCodec)(nil)

// NewZstdCodec creates a new Zstd codec with default encoder/decoder settings.
func NewZstdCodec() ZstdCodec {
	return ZstdCodec{}
}
