package mix

import "mixshare/internal/registry"

// DownloadTask is what a downloader needs to start a transfer.
type DownloadTask struct {
	ID   string
	Name string
	Size int64
	URL  string
}

// Downloader starts transfers. Progress and completion are its own business.
type Downloader interface {
	Start(task DownloadTask) error
}

// FileListImporter fetches and parses a file-list manifest.
type FileListImporter interface {
	LoadFileList(url string) ([]registry.FileRecord, error)
}

// VFSPreviewer presents a virtual-filesystem manifest.
type VFSPreviewer interface {
	PreviewVFS(name, url string) error
}
