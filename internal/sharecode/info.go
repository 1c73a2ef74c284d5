package sharecode

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// ShareInfo identifies a stored blob on a remote host: where it lives, the
// secret needed to read it, and its declared length. Values are immutable.
type ShareInfo struct {
	URL      string
	Key      string
	FileSize uint64
}

// Identity is the part of a ShareInfo that decides whether two share codes
// reference the same blob. Size is not part of it.
type Identity struct {
	URL string
	Key string
}

// Identity returns the comparable (URL, Key) pair.
func (i ShareInfo) Identity() Identity {
	return Identity{URL: i.URL, Key: i.Key}
}

// SameBlob reports whether i and other reference the same stored blob.
func (i ShareInfo) SameBlob(other ShareInfo) bool {
	return i.Identity() == other.Identity()
}

// Valid reports whether i carries the fields every decoded ShareInfo has.
func (i ShareInfo) Valid() bool {
	return i.URL != "" && i.Key != ""
}

// String returns the long-form share code. The result contains the key.
func (i ShareInfo) String() string {
	return EncodeLong(i)
}

// Fingerprint returns a stable hex digest of the long-form code. Players and
// thumbnail caches key on it so the secret never appears in cache paths.
func (i ShareInfo) Fingerprint() string {
	sum := keyedHash(fingerprintDomainKey, []byte(EncodeLong(i)))
	return hex.EncodeToString(sum[:])
}

// domainKey is a 32-byte BLAKE3 key separating the hash domains used by
// this package. The key is the ASCII domain name, zero padded.
type domainKey [32]byte

func newDomainKey(name string) domainKey {
	var key domainKey
	copy(key[:], name)
	return key
}

var (
	shortDomainKey       = newDomainKey("mixshare.sharecode.short")
	fingerprintDomainKey = newDomainKey("mixshare.sharecode.fingerprint")
)

func keyedHash(key domainKey, data []byte) [32]byte {
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		// NewKeyed only fails for keys that are not 32 bytes.
		panic("sharecode: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var sum [32]byte
	copy(sum[:], hasher.Sum(nil))
	return sum
}
