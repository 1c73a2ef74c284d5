package manifest

import (
	"io"
	"time"

	"mixshare/internal/registry"
)

// FileList is the body of a ".mix_list" manifest.
type FileList struct {
	Version int             `json:"version"`
	Name    string          `json:"name,omitempty"`
	Created time.Time       `json:"created,omitzero"`
	Files   []FileListEntry `json:"files"`
}

// FileListEntry is one shared file in a list.
type FileListEntry struct {
	Name      string `json:"name"`
	Size      int64  `json:"size,omitempty"`
	Category  string `json:"category,omitempty"`
	ShareCode string `json:"share_code"`
}

// DecodeFileList reads a file list and returns its entries as records.
// Entries are returned as listed; decoding their share codes is left to
// the caller.
func DecodeFileList(r io.Reader) ([]registry.FileRecord, error) {
	var list FileList
	if err := decode(r, &list); err != nil {
		return nil, err
	}
	if err := checkVersion(list.Version); err != nil {
		return nil, err
	}

	records := make([]registry.FileRecord, 0, len(list.Files))
	for _, f := range list.Files {
		records = append(records, registry.FileRecord{
			Name:      f.Name,
			Size:      f.Size,
			Category:  f.Category,
			ShareCode: f.ShareCode,
		})
	}
	return records, nil
}

// EncodeFileList writes records as a gzip-compressed file list.
func EncodeFileList(w io.Writer, name string, created time.Time, records []registry.FileRecord) error {
	list := FileList{
		Version: formatVersion,
		Name:    name,
		Created: created.UTC(),
		Files:   make([]FileListEntry, 0, len(records)),
	}
	for _, r := range records {
		list.Files = append(list.Files, FileListEntry{
			Name:      r.Name,
			Size:      r.Size,
			Category:  r.Category,
			ShareCode: r.ShareCode,
		})
	}
	return encode(w, list)
}
