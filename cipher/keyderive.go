package cipher

import (
	"fmt"

	"golang.org/x/crypto/argon2"

	"github.com/go-fskv/fskv/errs"
)

// MinPassphraseLength is the shortest encryption_key fskv will stretch
// into a cipher key, per spec: "Key >= 16 chars".
const MinPassphraseLength = 16

// derivationSalt is a fixed, non-secret salt. Argon2id here is a key
// stretching step, not a password store: the salt only needs to separate
// this derivation from other uses of the same passphrase, not to defeat
// rainbow tables across independently-salted installs.
var derivationSalt = []byte("fskv-v1-key-derivation-salt-16b!")

// DeriveKey stretches an arbitrary-length passphrase into a 32-byte key
// suitable for AES-256-GCM or ChaCha20-Poly1305, using Argon2id.
//
// Returns errs.ErrInvalidConfig if passphrase is shorter than
// MinPassphraseLength.
func DeriveKey(passphrase []byte) ([]byte, error) {
	if len(passphrase) < MinPassphraseLength {
		return nil, fmt.Errorf("%w: encryption key must be at least %d bytes, got %d",
			errs.ErrInvalidConfig, MinPassphraseLength, len(passphrase))
	}

	// time=1, memory=64MB, parallelism=4: the NasServer reference uses
	// the same profile for interactive key derivation.
	key := argon2.IDKey(passphrase, derivationSalt, 1, 64*1024, 4, 32)

	return key, nil
}
