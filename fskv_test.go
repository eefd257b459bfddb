package fskv_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-fskv/fskv"
	"github.com/go-fskv/fskv/store"
)

func TestOpen_SetGetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.fskv")

	db, err := fskv.Open(path)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Set([]byte("user:42"), []byte(`{"name":"ada"}`)))

	value, ok, err := db.Get([]byte("user:42"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte(`{"name":"ada"}`), value)
}

func TestOpen_WithCompressionOption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.fskv")

	db, err := fskv.Open(path, store.WithCompression(fskv.CompressionZstd))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Set([]byte("k"), []byte("a reasonably compressible value value value")))

	value, ok, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("a reasonably compressible value value value"), value)
}

func TestOpen_MissingKeyReturnsNotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.fskv")

	db, err := fskv.Open(path)
	require.NoError(t, err)
	defer db.Close()

	_, ok, err := db.Get([]byte("missing"))
	require.NoError(t, err)
	require.False(t, ok)
}
