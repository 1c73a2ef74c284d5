package manifest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"mixshare/internal/mix"
	"mixshare/internal/registry"
)

const fetchTimeout = time.Minute

// HTTPImporter fetches file lists from the share server.
type HTTPImporter struct {
	client *http.Client
}

// NewHTTPImporter creates an importer. A nil client uses http.DefaultClient.
func NewHTTPImporter(client *http.Client) *HTTPImporter {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPImporter{client: client}
}

// LoadFileList fetches and decodes the file list at url.
func (i *HTTPImporter) LoadFileList(url string) ([]registry.FileRecord, error) {
	var records []registry.FileRecord
	err := fetch(i.client, url, func(r io.Reader) error {
		var err error
		records, err = DecodeFileList(r)
		return err
	})
	return records, err
}

// Previewer fetches vfs manifests and draws them to a writer.
type Previewer struct {
	client *http.Client
	out    io.Writer
}

// NewPreviewer creates a previewer writing to out. A nil client uses
// http.DefaultClient.
func NewPreviewer(client *http.Client, out io.Writer) *Previewer {
	if client == nil {
		client = http.DefaultClient
	}
	return &Previewer{client: client, out: out}
}

// PreviewVFS fetches the manifest at url and renders it under name.
func (p *Previewer) PreviewVFS(name, url string) error {
	return fetch(p.client, url, func(r io.Reader) error {
		v, err := DecodeVFS(r)
		if err != nil {
			return err
		}
		title := v.Name
		if title == "" {
			title = name
		}
		return RenderTree(p.out, title, v)
	})
}

func fetch(client *http.Client, url string, read func(io.Reader) error) error {
	if url == "" {
		return fmt.Errorf("no manifest url")
	}
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching manifest: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching manifest: unexpected status %s", resp.Status)
	}
	return read(resp.Body)
}

var (
	_ mix.FileListImporter = (*HTTPImporter)(nil)
	_ mix.VFSPreviewer     = (*Previewer)(nil)
)
