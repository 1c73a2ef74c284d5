package encryption

import (
	"bytes"
	"fmt"
	"io"

	"mixshare/internal/mix"
)

// testMagic is prepended to data by TestEncryptor so sealed output differs
// from plaintext while staying deterministic and reversible.
const testMagic = "MIXENC\x00\x01"

var testHeader = []byte(testMagic)

// TestEncryptor is a simple, deterministic encryptor for testing. It starts
// out configured and accepts any passphrase; after Setup only the
// passphrase given to Setup unlocks it.
type TestEncryptor struct {
	passphrase   string
	unconfigured bool
}

var _ mix.Encryptor = (*TestEncryptor)(nil)

// NewTestEncryptor creates a new TestEncryptor.
func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{}
}

// NewUnconfiguredTestEncryptor creates a TestEncryptor that reports no keys
// until Setup is called.
func NewUnconfiguredTestEncryptor() *TestEncryptor {
	return &TestEncryptor{unconfigured: true}
}

func (e *TestEncryptor) Setup(passphrase string) error {
	if passphrase == "" {
		return ErrEmptyPassphrase
	}
	e.passphrase = passphrase
	e.unconfigured = false
	return nil
}

func (e *TestEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := io.Copy(w, io.MultiReader(bytes.NewReader(testHeader), r)); err != nil {
		return fmt.Errorf("sealing test data: %w", err)
	}
	return nil
}

func (e *TestEncryptor) Unlock(passphrase string) (mix.DecryptionContext, error) {
	if e.passphrase != "" && passphrase != e.passphrase {
		return nil, ErrWrongPassphrase
	}
	return &TestDecryptionContext{}, nil
}

func (e *TestEncryptor) IsConfigured() bool {
	return !e.unconfigured
}

// TestDecryptionContext strips the test header added by TestEncryptor.
type TestDecryptionContext struct{}

var _ mix.DecryptionContext = (*TestDecryptionContext)(nil)

func (c *TestDecryptionContext) Decrypt(r io.Reader, w io.Writer) error {
	var header [len(testMagic)]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return fmt.Errorf("%w: short test header: %v", ErrCorrupt, err)
	}
	if !bytes.Equal(header[:], testHeader) {
		return fmt.Errorf("%w: not sealed by TestEncryptor", ErrCorrupt)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("opening test data: %w", err)
	}
	return nil
}
