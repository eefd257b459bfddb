package cipher

import (
	stdaes "crypto/aes"
	stdcipher "crypto/cipher"
	"fmt"

	"github.com/go-fskv/fskv/errs"
)

// AESGCM provides AES-256-GCM: the most widely deployed AEAD, hardware
// accelerated on virtually every modern CPU via AES-NI.
//
// This wraps the standard library's crypto/aes and crypto/cipher; no
// third-party AEAD implementation in the reference pack offers anything
// AES-256-GCM doesn't already get from stdlib (see DESIGN.md).
type AESGCM struct {
	aead stdcipher.AEAD
}

var _ AEAD = (*AESGCM)(nil)

// NewAESGCM creates an AES-256-GCM AEAD from a 32-byte key.
func NewAESGCM(key []byte) (*AESGCM, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("%w: AES-256-GCM requires a 32-byte key, got %d", errs.ErrInvalidConfig, len(key))
	}

	block, err := stdaes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("fskv: failed to create AES cipher: %w", err)
	}

	aead, err := stdcipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("fskv: failed to create GCM AEAD: %w", err)
	}

	return &AESGCM{aead: aead}, nil
}

// Seal encrypts plaintext with a fresh random nonce, returning
// nonce || ciphertext || tag.
func (c *AESGCM) Seal(plaintext []byte) ([]byte, error) {
	nonce, err := randomNonce()
	if err != nil {
		return nil, err
	}

	sealed := c.aead.Seal(nonce, nonce, plaintext, nil)

	return sealed, nil
}

// Open reverses Seal. Returns errs.ErrAuthFailure if the tag does not
// verify.
func (c *AESGCM) Open(sealed []byte) ([]byte, error) {
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
