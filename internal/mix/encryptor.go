package mix

import "io"

// Encryptor protects registry exports. Share codes contain blob keys, so an
// export is never written to a vault in plaintext.
//
// Encryption needs only the public key. Decryption needs the passphrase that
// protects the private key, which Unlock turns into a DecryptionContext.
type Encryptor interface {
	// Setup generates a key pair and protects the private key with
	// passphrase.
	Setup(passphrase string) error

	// Encrypt reads plaintext from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock returns a DecryptionContext, or an error if the passphrase is
	// wrong.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured reports whether keys exist.
	IsConfigured() bool
}

// DecryptionContext holds an unlocked private key in memory.
type DecryptionContext interface {
	Decrypt(r io.Reader, w io.Writer) error
}
