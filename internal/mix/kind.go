package mix

import (
	"path/filepath"
	"strings"
)

// Reserved name suffixes for manifests.
const (
	FileListSuffix = ".mix_list"
	VFSSuffix      = ".mix_dav"
)

// Kind says which collaborator a record is routed to when opened. It is
// decided once, from the record's name, when the record is resolved.
type Kind int

const (
	// KindPlain is an ordinary file.
	KindPlain Kind = iota
	// KindFileList is a manifest enumerating further records, handed to
	// the file-list importer.
	KindFileList
	// KindVFS is a virtual-filesystem manifest, handed to the previewer.
	KindVFS
)

// KindOf classifies a file name.
func KindOf(name string) Kind {
	switch {
	case strings.HasSuffix(name, FileListSuffix):
		return KindFileList
	case strings.HasSuffix(name, VFSSuffix):
		return KindVFS
	default:
		return KindPlain
	}
}

func (k Kind) String() string {
	switch k {
	case KindFileList:
		return "file-list"
	case KindVFS:
		return "vfs"
	default:
		return "plain"
	}
}

// Media is the preview type of a plain file.
type Media int

const (
	MediaNone Media = iota
	MediaVideo
	MediaImage
)

var (
	videoExtensions = map[string]bool{
		".mp4": true, ".mkv": true, ".webm": true, ".mov": true, ".avi": true,
		".m4v": true, ".flv": true, ".3gp": true, ".ts": true, ".wmv": true,
	}
	imageExtensions = map[string]bool{
		".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
		".bmp": true, ".svg": true, ".heic": true, ".avif": true,
	}
)

// MediaOf classifies a file name by extension, case-insensitively.
func MediaOf(name string) Media {
	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case videoExtensions[ext]:
		return MediaVideo
	case imageExtensions[ext]:
		return MediaImage
	default:
		return MediaNone
	}
}

func (m Media) String() string {
	switch m {
	case MediaVideo:
		return "video"
	case MediaImage:
		return "image"
	default:
		return "none"
	}
}
