package mix_test

import (
	"testing"

	"mixshare/internal/mix"
	"mixshare/internal/testutil"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		want mix.Kind
	}{
		{"set.mix_list", mix.KindFileList},
		{"tree.mix_dav", mix.KindVFS},
		{"song.mp3", mix.KindPlain},
		{"mix_list", mix.KindPlain},
		{"set.mix_list.bak", mix.KindPlain},
		{"", mix.KindPlain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mix.KindOf(tt.name); got != tt.want {
				t.Errorf("KindOf(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestMediaOf(t *testing.T) {
	tests := []struct {
		name string
		want mix.Media
	}{
		{"clip.MP4", mix.MediaVideo},
		{"clip.mkv", mix.MediaVideo},
		{"photo.JPeG", mix.MediaImage},
		{"icon.png", mix.MediaImage},
		{"notes.txt", mix.MediaNone},
		{"noext", mix.MediaNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mix.MediaOf(tt.name); got != tt.want {
				t.Errorf("MediaOf(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestLinks(t *testing.T) {
	info := testutil.ShareInfo(1)

	t.Run("trailing slash on base", func(t *testing.T) {
		l := mix.Links{LocalBase: "http://localhost:1/"}
		got := l.DownloadURL(info, "a.txt")
		if got[:len("http://localhost:1/api/download/a.txt?s=")] != "http://localhost:1/api/download/a.txt?s=" {
			t.Errorf("DownloadURL() = %q", got)
		}
	})

	t.Run("no lan base", func(t *testing.T) {
		l := mix.Links{LocalBase: "http://localhost:1"}
		if got := l.LANURL(info, "a.txt"); got != "" {
			t.Errorf("LANURL() = %q, want empty", got)
		}
	})

	t.Run("escapes names", func(t *testing.T) {
		l := mix.Links{LocalBase: "http://h"}
		got := l.DownloadURL(info, "a/b?c.txt")
		want := "http://h/api/download/a%2Fb%3Fc.txt?s="
		if len(got) < len(want) || got[:len(want)] != want {
			t.Errorf("DownloadURL() = %q, want prefix %q", got, want)
		}
	})
}
