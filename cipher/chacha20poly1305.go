package cipher

import (
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/go-fskv/fskv/errs"
)

// ChaCha20Poly1305 provides the ChaCha20-Poly1305 AEAD, a software-friendly
// alternative to AES-GCM with no dependence on hardware AES acceleration.
//
// Grounded on the NasServer streaming-encryption example in the retrieval
// pack, which builds a chunked AEAD format on the same golang.org/x/crypto
// primitive.
type ChaCha20Poly1305 struct {
	aead cipherAEAD
}

// cipherAEAD is the subset of crypto/cipher.AEAD this package needs,
// satisfied by the value chacha20poly1305.New returns.
type cipherAEAD interface {
	Seal(dst, nonce, plaintext, additionalData []byte) []byte
	Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
}

var _ AEAD = (*ChaCha20Poly1305)(nil)

// NewChaCha20Poly1305 creates a ChaCha20-Poly1305 AEAD from a 32-byte key.
func NewChaCha20Poly1305(key []byte) (*ChaCha20Poly1305, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("%w: ChaCha20-Poly1305 requires a %d-byte key, got %d",
			errs.ErrInvalidConfig, chacha20poly1305.KeySize, len(key))
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("fskv: failed to create ChaCha20-Poly1305 AEAD: %w", err)
	}

	return &ChaCha20Poly1305{aead: aead}, nil
}

// Seal encrypts plaintext with a fresh random nonce, returning
// nonce || ciphertext || tag.
func (c *ChaCha20Poly1305) Seal(plaintext []byte) ([]byte, error) {
	nonce, err := randomNonce()
	if err != nil {
		return nil, err
	}

	sealed := c.aead.Seal(nonce, nonce, plaintext, nil)

	return sealed, nil
}

// Open reverses Seal. Returns errs.ErrAuthFailure if the tag does not
// verify.
func (c *ChaCha20Poly1305) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < NonceSize+TagSize {
		return nil, errs.ErrAuthFailure
	}

	nonce := sealed[:NonceSize]
	ciphertext := sealed[NonceSize:]

	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errs.ErrAuthFailure
	}

	return plaintext, nil
}
