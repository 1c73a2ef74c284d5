package encryption

import "errors"

var (
	// ErrWrongPassphrase is returned by Unlock when the passphrase does not
	// open the private key.
	ErrWrongPassphrase = errors.New("wrong passphrase")
	// ErrAlreadyConfigured is returned by Setup when keys already exist.
	// Replacing them would make existing exports unreadable.
	ErrAlreadyConfigured = errors.New("encryption keys already exist")
	// ErrEmptyPassphrase is returned by Setup for a blank passphrase.
	ErrEmptyPassphrase = errors.New("passphrase must not be empty")
	// ErrCorrupt is returned by Decrypt for input that is not a sealed export.
	ErrCorrupt = errors.New("not a valid sealed export")
)
