package vault

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"mixshare/internal/mix"
)

// FileSystemVault keeps exported items in a local directory tree, typically a
// mounted backup disk or a synced folder:
//
//	<root>/
//	  metadata/
//	    <hostID>/
//	      <name>          (item data)
//	      <name>.version  (decimal version)
type FileSystemVault struct {
	name        string
	root        string
	metadataDir string
}

// NewFileSystemVault creates a new filesystem vault rooted at the given path.
func NewFileSystemVault(name, root string) (*FileSystemVault, error) {
	metadataDir := filepath.Join(root, "metadata")
	if err := os.MkdirAll(metadataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create metadata directory: %w", err)
	}

	return &FileSystemVault{
		name:        name,
		root:        root,
		metadataDir: metadataDir,
	}, nil
}

// PutMetadata stores a named item for a specific host along with a version marker.
// The data is written before the version so a reader never sees a version
// newer than the data it describes.
func (v *FileSystemVault) PutMetadata(hostID string, name string, r io.Reader, size int64, version int64) error {
	if err := validateKey(hostID, name); err != nil {
		return err
	}
	hostDir := filepath.Join(v.metadataDir, hostID)
	if err := os.MkdirAll(hostDir, 0755); err != nil {
		return fmt.Errorf("failed to create host directory: %w", err)
	}

	if err := v.writeFile(filepath.Join(hostDir, name), r, size); err != nil {
		return err
	}

	versionData := strconv.FormatInt(version, 10)
	return v.writeFile(filepath.Join(hostDir, name+".version"), strings.NewReader(versionData), int64(len(versionData)))
}

// GetMetadataVersion returns the version of a named item.
// Returns 0 if no version file exists.
func (v *FileSystemVault) GetMetadataVersion(hostID string, name string) (int64, error) {
	if err := validateKey(hostID, name); err != nil {
		return 0, err
	}
	data, err := os.ReadFile(filepath.Join(v.metadataDir, hostID, name+".version"))
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading version file: %w", err)
	}

	version, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing version: %w", err)
	}
	return version, nil
}

// GetMetadata retrieves a named item for a specific host and writes it to w.
func (v *FileSystemVault) GetMetadata(hostID string, name string, w io.Writer) error {
	if err := validateKey(hostID, name); err != nil {
		return err
	}
	srcPath := filepath.Join(v.metadataDir, hostID, name)
	return v.readFile(srcPath, w, fmt.Sprintf("metadata %q not found for host: %s", name, hostID))
}

// ValidateSetup verifies that the vault directories are accessible.
func (v *FileSystemVault) ValidateSetup() error {
	for _, dir := range []string{v.root, v.metadataDir} {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("vault directory not accessible: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("vault path is not a directory: %s", dir)
		}
	}

	// Probe writability.
	probe, err := os.CreateTemp(v.metadataDir, ".probe-*")
	if err != nil {
		return fmt.Errorf("vault is not writable: %w", err)
	}
	probe.Close()
	return os.Remove(probe.Name())
}

// writeFile replaces destPath with exactly want bytes from r. The content is
// staged in a sibling temp file so destPath is never seen half written.
func (v *FileSystemVault) writeFile(destPath string, r io.Reader, want int64) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()

	n, copyErr := io.Copy(tmp, r)
	closeErr := tmp.Close()
	switch {
	case copyErr != nil:
		return fmt.Errorf("failed to write data: %w", copyErr)
	case closeErr != nil:
		return fmt.Errorf("failed to close temp file: %w", closeErr)
	case n != want:
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", want, n)
	}

	if err := os.Rename(tmp.Name(), destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// readFile copies the item at srcPath to w.
func (v *FileSystemVault) readFile(srcPath string, w io.Writer, notFoundMsg string) error {
	f, err := os.Open(srcPath)
	if errors.Is(err, fs.ErrNotExist) {
		return errors.New(notFoundMsg)
	}
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	return nil
}

var _ mix.Vault = (*FileSystemVault)(nil)
