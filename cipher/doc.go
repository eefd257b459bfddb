// Package cipher documents the AEAD ciphers fskv supports for sealing the
// file header and (in encrypted mode) index entries.
//
// # Overview
//
// Encryption is optional (EncryptionNone) and, like compression, fixed for
// the life of a file once created. The configured encryption_key is
// stretched to a 32-byte key via DeriveKey before use; callers supply a
// passphrase of at least MinPassphraseLength bytes, not a raw key.
//
// # Supported ciphers
//
//   - None: no encryption.
//   - AES-256-GCM: hardware-accelerated on most modern CPUs.
//   - ChaCha20-Poly1305: fast in software, no AES-NI dependency.
//
// Both ciphers use a 12-byte random nonce and a 16-byte tag
// (format.AEADPad = 28), with the wire layout nonce || ciphertext || tag.
package cipher
