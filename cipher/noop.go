package cipher

// NoOpAEAD provides no encryption: Seal and Open are identity functions.
// Selected when format.EncryptionNone is configured.
type NoOpAEAD struct{}

var _ AEAD = (*NoOpAEAD)(nil)

// NewNoOpAEAD creates a no-op AEAD.
func NewNoOpAEAD() NoOpAEAD {
	return NoOpAEAD{}
}

// Seal returns plaintext unchanged.
func (NoOpAEAD) Seal(plaintext []byte) ([]byte, error) {
	return plaintext, nil
}

// Open returns sealed unchanged.
func (NoOpAEAD) Open(sealed []byte) ([]byte, error) {
	return sealed, nil
}
