package mix

import "io"

// Vault stores registry exports away from the local database. Exports are
// stored as named metadata items per host, each with a version so a host can
// tell whether the vault holds something newer than its local registry.
type Vault interface {
	// PutMetadata stores a named item for hostID. size is the number of
	// bytes that will be read from r.
	PutMetadata(hostID string, name string, r io.Reader, size int64, version int64) error

	// GetMetadata writes the named item for hostID to w.
	GetMetadata(hostID string, name string, w io.Writer) error

	// GetMetadataVersion returns the stored version, or 0 if nothing has
	// been stored for hostID/name.
	GetMetadataVersion(hostID string, name string) (int64, error)

	// ValidateSetup verifies that the vault is reachable and writable.
	ValidateSetup() error
}
