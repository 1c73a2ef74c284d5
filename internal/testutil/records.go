package testutil

import (
	"fmt"

	"mixshare/internal/registry"
	"mixshare/internal/sharecode"
)

// ShareInfo returns a distinct, valid ShareInfo for n.
func ShareInfo(n int) sharecode.ShareInfo {
	return sharecode.ShareInfo{
		URL:      fmt.Sprintf("https://blobs.example/%d", n),
		Key:      fmt.Sprintf("key-%d", n),
		FileSize: uint64(n) * 1024,
	}
}

// Record returns a FileRecord named name whose long share code is derived
// from n. Records built from the same n reference the same blob.
func Record(name string, n int) registry.FileRecord {
	return registry.FileRecord{
		Name:      name,
		ShareCode: sharecode.EncodeLong(ShareInfo(n)),
	}
}
