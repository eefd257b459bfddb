package section_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-fskv/fskv/format"
	"github.com/go-fskv/fskv/section"
)

func TestHeader_RoundTrip(t *testing.T) {
	h := section.Create(format.CompressionZstd, format.EncryptionAES256GCM, format.HashXXH3, 1_700_000_000_000)
	h.IndexStart = section.HeaderSize
	h.IndexUsed = 120
	h.IndexSpace = 256
	h.IndexCount = 3

	encoded := h.Bytes()
	require.Len(t, encoded, section.HeaderSize)

	got, err := section.Parse(encoded)
	require.NoError(t, err)

	assert.Equal(t, h.Version, got.Version)
	assert.Equal(t, h.CompressionID, got.CompressionID)
	assert.Equal(t, h.EncryptionID, got.EncryptionID)
	assert.Equal(t, h.HashID, got.HashID)
	assert.Equal(t, h.CreatedEpochMs, got.CreatedEpochMs)
	assert.Equal(t, h.IndexStart, got.IndexStart)
	assert.Equal(t, h.IndexUsed, got.IndexUsed)
	assert.Equal(t, h.IndexSpace, got.IndexSpace)
	assert.Equal(t, h.IndexCount, got.IndexCount)
}

func TestHeader_Parse_WrongSize(t *testing.T) {
	_, err := section.Parse(make([]byte, 10))
	require.Error(t, err)
}

func TestHeader_Parse_BadMagic(t *testing.T) {
	h := section.Create(format.CompressionNone, format.EncryptionNone, format.HashXXH3, 0)
	encoded := h.Bytes()
	encoded[0] = 'X'

	_, err := section.Parse(encoded)
	require.Error(t, err)
}

func TestHeader_Parse_CorruptedChecksum(t *testing.T) {
	h := section.Create(format.CompressionNone, format.EncryptionNone, format.HashXXH3, 0)
	encoded := h.Bytes()
	encoded[10] ^= 0xFF // flip a byte inside the checksummed range

	_, err := section.Parse(encoded)
	require.Error(t, err)
}

func TestHeader_ValidateCompatibility(t *testing.T) {
	h := section.Create(format.CompressionZstd, format.EncryptionNone, format.HashXXH3, 0)

	require.NoError(t, h.ValidateCompatibility(format.CompressionZstd, format.EncryptionNone, format.HashXXH3))
	require.Error(t, h.ValidateCompatibility(format.CompressionGzip, format.EncryptionNone, format.HashXXH3))
}

func TestHeader_Parse_RejectsNewerVersion(t *testing.T) {
	h := section.Create(format.CompressionNone, format.EncryptionNone, format.HashXXH3, 0)
	encoded := h.Bytes()
	encoded[4] = section.CurrentVersion + 1

	_, err := section.Parse(encoded)
	require.Error(t, err)
}
