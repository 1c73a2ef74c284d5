package vault

import (
	"bytes"
	"strings"
	"testing"

	"mixshare/internal/mix"
)

// testVaultContract exercises the behavior every backend shares.
func testVaultContract(t *testing.T, v mix.Vault) {
	t.Helper()

	t.Run("missing item has version zero", func(t *testing.T) {
		got, err := v.GetMetadataVersion("host-missing", "favorites")
		if err != nil {
			t.Fatalf("GetMetadataVersion() error = %v", err)
		}
		if got != 0 {
			t.Errorf("GetMetadataVersion() = %d, want 0", got)
		}
	})

	t.Run("missing item cannot be read", func(t *testing.T) {
		var buf bytes.Buffer
		if err := v.GetMetadata("host-missing", "favorites", &buf); err == nil {
			t.Error("GetMetadata() expected error for missing item")
		}
	})

	t.Run("put then get", func(t *testing.T) {
		data := "sealed export bytes"
		if err := v.PutMetadata("host-a", "favorites", strings.NewReader(data), int64(len(data)), 3); err != nil {
			t.Fatalf("PutMetadata() error = %v", err)
		}

		var buf bytes.Buffer
		if err := v.GetMetadata("host-a", "favorites", &buf); err != nil {
			t.Fatalf("GetMetadata() error = %v", err)
		}
		if buf.String() != data {
			t.Errorf("GetMetadata() = %q, want %q", buf.String(), data)
		}

		version, err := v.GetMetadataVersion("host-a", "favorites")
		if err != nil {
			t.Fatalf("GetMetadataVersion() error = %v", err)
		}
		if version != 3 {
			t.Errorf("GetMetadataVersion() = %d, want 3", version)
		}
	})

	t.Run("overwrite replaces data and version", func(t *testing.T) {
		for i, data := range []string{"first", "second version"} {
			if err := v.PutMetadata("host-b", "favorites", strings.NewReader(data), int64(len(data)), int64(i+1)); err != nil {
				t.Fatalf("PutMetadata() #%d error = %v", i+1, err)
			}
		}
		var buf bytes.Buffer
		if err := v.GetMetadata("host-b", "favorites", &buf); err != nil {
			t.Fatalf("GetMetadata() error = %v", err)
		}
		if buf.String() != "second version" {
			t.Errorf("GetMetadata() = %q, want %q", buf.String(), "second version")
		}
		version, _ := v.GetMetadataVersion("host-b", "favorites")
		if version != 2 {
			t.Errorf("GetMetadataVersion() = %d, want 2", version)
		}
	})

	t.Run("hosts are isolated", func(t *testing.T) {
		if err := v.PutMetadata("host-c", "favorites", strings.NewReader("c"), 1, 1); err != nil {
			t.Fatalf("PutMetadata() error = %v", err)
		}
		version, err := v.GetMetadataVersion("host-d", "favorites")
		if err != nil || version != 0 {
			t.Errorf("GetMetadataVersion(host-d) = %d, %v; want 0, nil", version, err)
		}
	})

	t.Run("size mismatch", func(t *testing.T) {
		err := v.PutMetadata("host-e", "favorites", strings.NewReader("short"), 100, 1)
		if err == nil {
			t.Fatal("PutMetadata() expected size mismatch error")
		}
		if version, _ := v.GetMetadataVersion("host-e", "favorites"); version != 0 {
			t.Errorf("failed put left version %d", version)
		}
	})

	t.Run("rejects unsafe keys", func(t *testing.T) {
		for _, tc := range []struct{ host, name string }{
			{"", "favorites"},
			{"host", ""},
			{"..", "favorites"},
			{"host", "../escape"},
			{`host\x`, "favorites"},
		} {
			if err := v.PutMetadata(tc.host, tc.name, strings.NewReader("x"), 1, 1); err == nil {
				t.Errorf("PutMetadata(%q, %q) expected error", tc.host, tc.name)
			}
		}
	})
}
