// Package manifest reads and writes the two manifest kinds a share can
// carry: file lists (".mix_list"), which enumerate further shared files,
// and vfs manifests (".mix_dav"), which describe a directory tree of them.
//
// Both are JSON, optionally gzip-compressed. Hand-written manifests may use
// comments and trailing commas.
package manifest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/tidwall/jsonc"
)

// MaxManifestSize bounds how much decompressed manifest data is read.
const MaxManifestSize = 32 << 20

// formatVersion is written into every manifest and is the only version
// accepted on read. Zero is accepted for hand-written manifests.
const formatVersion = 1

// ErrTooLarge is returned for manifests over MaxManifestSize.
var ErrTooLarge = errors.New("manifest too large")

var gzipMagic = []byte{0x1f, 0x8b}

// readBody returns the JSON bytes of a manifest, decompressing gzip and
// stripping comments.
func readBody(r io.Reader) ([]byte, error) {
	br := bufio.NewReader(r)
	magic, _ := br.Peek(len(gzipMagic))

	var src io.Reader = br
	if bytes.Equal(magic, gzipMagic) {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		defer zr.Close()
		src = zr
	}

	data, err := io.ReadAll(io.LimitReader(src, MaxManifestSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	if len(data) > MaxManifestSize {
		return nil, ErrTooLarge
	}
	return jsonc.ToJSON(data), nil
}

func decode(r io.Reader, v any) error {
	data, err := readBody(r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing manifest: %w", err)
	}
	return nil
}

// encode writes v as gzip-compressed JSON.
func encode(w io.Writer, v any) error {
	zw := gzip.NewWriter(w)
	enc := json.NewEncoder(zw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		zw.Close()
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("compressing manifest: %w", err)
	}
	return nil
}

func checkVersion(v int) error {
	if v != 0 && v != formatVersion {
		return fmt.Errorf("unsupported manifest version %d", v)
	}
	return nil
}
