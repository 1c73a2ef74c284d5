// Package download fetches shared files from the local share server into a
// download directory.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mixshare/internal/mix"
)

// ErrSizeMismatch is returned when the body length differs from the
// size the share code declares.
var ErrSizeMismatch = errors.New("downloaded size does not match declared size")

// HTTPDownloader implements mix.Downloader. Start blocks until the file is
// complete. Files are written to a temp file in the download directory and
// renamed into place, so a partial download never has the final name.
type HTTPDownloader struct {
	dir     string
	client  *http.Client
	logger  mix.Logger
	timeout time.Duration
}

// NewHTTPDownloader creates a downloader writing into dir. A nil client
// uses http.DefaultClient.
func NewHTTPDownloader(dir string, client *http.Client, logger mix.Logger) *HTTPDownloader {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = mix.NewNopLogger()
	}
	return &HTTPDownloader{dir: dir, client: client, logger: logger, timeout: time.Hour}
}

// Start downloads task and returns once the file is in place.
func (d *HTTPDownloader) Start(task mix.DownloadTask) error {
	_, err := d.Fetch(context.Background(), task)
	return err
}

// Fetch downloads task and returns the path of the finished file.
func (d *HTTPDownloader) Fetch(ctx context.Context, task mix.DownloadTask) (string, error) {
	if task.URL == "" {
		return "", fmt.Errorf("download %q has no url", task.Name)
	}
	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return "", fmt.Errorf("creating download directory: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, task.URL, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("requesting %s: %w", task.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("requesting %s: unexpected status %s", task.Name, resp.Status)
	}

	tmp, err := os.CreateTemp(d.dir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	// Read one byte past the declared size so an oversized body is caught
	// without reading all of it.
	var body io.Reader = resp.Body
	if task.Size > 0 {
		body = io.LimitReader(resp.Body, task.Size+1)
	}
	written, err := io.Copy(tmp, body)
	if err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing %s: %w", task.Name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing temp file: %w", err)
	}
	if task.Size > 0 && written != task.Size {
		return "", fmt.Errorf("%s: %w (declared %d, got %d)", task.Name, ErrSizeMismatch, task.Size, written)
	}

	dest, err := availablePath(d.dir, SafeName(task.Name))
	if err != nil {
		return "", err
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return "", fmt.Errorf("moving download into place: %w", err)
	}
	success = true

	d.logger.Info("download complete", "id", task.ID, "name", task.Name, "path", dest, "bytes", written)
	return dest, nil
}

// SafeName reduces a display name to a single path element.
func SafeName(name string) string {
	name = strings.TrimSpace(filepath.Base(filepath.Clean("/" + strings.ReplaceAll(name, `\`, "/"))))
	if name == "" || name == "/" || name == "." {
		return "download"
	}
	return name
}

// availablePath returns dir/name, or dir/"name (n).ext" for the first n
// that does not exist yet.
func availablePath(dir, name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 0; n < 1000; n++ {
		candidate := name
		if n > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, n, ext)
		}
		path := filepath.Join(dir, candidate)
		if _, err := os.Lstat(path); errors.Is(err, os.ErrNotExist) {
			return path, nil
		} else if err != nil {
			return "", fmt.Errorf("checking %s: %w", path, err)
		}
	}
	return "", fmt.Errorf("no free file name for %s in %s", name, dir)
}

var _ mix.Downloader = (*HTTPDownloader)(nil)
