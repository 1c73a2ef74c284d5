package download

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"mixshare/internal/mix"
)

func serve(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("s") == "" {
			http.Error(w, "missing share code", http.StatusBadRequest)
			return
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPDownloader_Fetch(t *testing.T) {
	t.Run("writes the file", func(t *testing.T) {
		srv := serve(t, "hello mix", http.StatusOK)
		dir := t.TempDir()
		d := NewHTTPDownloader(dir, srv.Client(), nil)

		path, err := d.Fetch(context.Background(), mix.DownloadTask{Name: "song.txt", Size: 9, URL: srv.URL + "/api/download/song.txt?s=x"})
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if path != filepath.Join(dir, "song.txt") {
			t.Errorf("path = %q", path)
		}
		data, err := os.ReadFile(path)
		if err != nil || string(data) != "hello mix" {
			t.Errorf("file = %q, %v", data, err)
		}
	})

	t.Run("does not overwrite", func(t *testing.T) {
		srv := serve(t, "abc", http.StatusOK)
		dir := t.TempDir()
		d := NewHTTPDownloader(dir, srv.Client(), nil)
		task := mix.DownloadTask{Name: "a.txt", Size: 3, URL: srv.URL + "/?s=x"}

		for _, want := range []string{"a.txt", "a (1).txt", "a (2).txt"} {
			path, err := d.Fetch(context.Background(), task)
			if err != nil {
				t.Fatalf("Fetch() error = %v", err)
			}
			if filepath.Base(path) != want {
				t.Errorf("path = %q, want %s", filepath.Base(path), want)
			}
		}
	})

	t.Run("size mismatch leaves nothing behind", func(t *testing.T) {
		for _, body := range []string{"short", "this body is far too long"} {
			srv := serve(t, body, http.StatusOK)
			dir := t.TempDir()
			d := NewHTTPDownloader(dir, srv.Client(), nil)

			_, err := d.Fetch(context.Background(), mix.DownloadTask{Name: "a.txt", Size: 10, URL: srv.URL + "/?s=x"})
			if !errors.Is(err, ErrSizeMismatch) {
				t.Errorf("Fetch(%q) error = %v, want ErrSizeMismatch", body, err)
			}
			entries, _ := os.ReadDir(dir)
			if len(entries) != 0 {
				t.Errorf("download dir not empty: %v", entries)
			}
		}
	})

	t.Run("http error", func(t *testing.T) {
		srv := serve(t, "gone", http.StatusNotFound)
		d := NewHTTPDownloader(t.TempDir(), srv.Client(), nil)

		if err := d.Start(mix.DownloadTask{Name: "a", URL: srv.URL + "/?s=x"}); err == nil {
			t.Error("Start() expected error for 404")
		}
	})

	t.Run("no url", func(t *testing.T) {
		d := NewHTTPDownloader(t.TempDir(), nil, nil)
		if err := d.Start(mix.DownloadTask{Name: "a"}); err == nil {
			t.Error("Start() expected error without url")
		}
	})
}

func TestSafeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"song.mp3", "song.mp3"},
		{"../../etc/passwd", "passwd"},
		{`..\..\boot.ini`, "boot.ini"},
		{"dir/file.txt", "file.txt"},
		{"", "download"},
		{"..", "download"},
		{"  spaced.txt  ", "spaced.txt"},
	}
	for _, tt := range tests {
		if got := SafeName(tt.in); got != tt.want {
			t.Errorf("SafeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
