package testutil

import (
	"sync"

	"mixshare/internal/mix"
	"mixshare/internal/registry"
)

// RecordingDownloader records started tasks. Err, when set, is returned by
// Start instead.
type RecordingDownloader struct {
	mu    sync.Mutex
	Tasks []mix.DownloadTask
	Err   error
}

func (d *RecordingDownloader) Start(task mix.DownloadTask) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}
	d.Tasks = append(d.Tasks, task)
	return nil
}

// StubImporter serves a fixed file list and records the URLs it was asked for.
type StubImporter struct {
	Records []registry.FileRecord
	Err     error
	URLs    []string
}

func (i *StubImporter) LoadFileList(url string) ([]registry.FileRecord, error) {
	i.URLs = append(i.URLs, url)
	return i.Records, i.Err
}

// StubPreviewer records the manifests it was asked to preview.
type StubPreviewer struct {
	Names []string
	URLs  []string
	Err   error
}

func (p *StubPreviewer) PreviewVFS(name, url string) error {
	p.Names = append(p.Names, name)
	p.URLs = append(p.URLs, url)
	return p.Err
}

var (
	_ mix.Downloader       = (*RecordingDownloader)(nil)
	_ mix.FileListImporter = (*StubImporter)(nil)
	_ mix.VFSPreviewer     = (*StubPreviewer)(nil)
)
