// Package cipher provides the AEAD ciphers fskv uses to seal the file
// header and (optionally) index entries.
//
// Every built-in cipher uses a 12-byte random nonce and a 16-byte
// authentication tag, for a constant format.AEADPad of 28 bytes
// regardless of which cipher is selected. The sealed wire layout is
// always `nonce || Seal(plaintext)`, where Seal's output already appends
// the tag — this matches the stdlib cipher.AEAD convention directly.
package cipher

import (
	"crypto/rand"
	"fmt"

	"github.com/go-fskv/fskv/errs"
	"github.com/go-fskv/fskv/format"
)

// NonceSize is the random nonce length prefixed to every sealed blob.
const NonceSize = 12

// TagSize is the authentication tag length appended by every built-in AEAD.
const TagSize = 16

// AEAD seals and opens byte blobs. Implementations must be safe for
// concurrent use: the engine calls Seal/Open from whichever goroutine is
// running Set/Get at the time, with no cipher-specific locking of its own.
type AEAD interface {
	// Seal encrypts plaintext and returns nonce || ciphertext || tag.
	Seal(plaintext []byte) ([]byte, error)

	// Open reverses Seal. Returns errs.ErrAuthFailure if the tag does not
	// verify (wrong key, or corrupted/truncated input).
	Open(sealed []byte) ([]byte, error)
}

// CreateAEAD constructs an AEAD for the given cipher id and key.
//
// key must already be the cipher's native key length; see DeriveKey to
// stretch an arbitrary-length passphrase to 32 bytes.
func CreateAEAD(encryptionType format.EncryptionType, key []byte) (AEAD, error) {
	switch encryptionType {
	case format.EncryptionNone:
		return NewNoOpAEAD(), nil
	case format.EncryptionAES256GCM:
		return NewAESGCM(key)
	case format.EncryptionChaCha20Poly1305:
		return NewChaCha20Poly1305(key)
	default:
		return nil, fmt.Errorf("%w: encryption id %d", errs.ErrUnsupportedCodec, encryptionType)
	}
}

func randomNonce() ([]byte, error) {
	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("fskv: failed to generate nonce: %w", err)
	}

	return nonce, nil
}
