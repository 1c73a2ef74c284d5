package mix

import (
	"net/url"
	"strings"

	"mixshare/internal/sharecode"
)

// Links derives the URLs a resolved file is reachable at through the local
// share server: one for this device and one for other devices on the LAN.
type Links struct {
	LocalBase string // e.g. http://127.0.0.1:4719
	LANBase   string // e.g. http://192.168.1.20:4719; empty when not serving the LAN
}

// DownloadURL returns the local download URL for info under name.
func (l Links) DownloadURL(info sharecode.ShareInfo, name string) string {
	return buildDownloadURL(l.LocalBase, info, name)
}

// LANURL returns the LAN download URL, or "" when no LAN base is set.
func (l Links) LANURL(info sharecode.ShareInfo, name string) string {
	return buildDownloadURL(l.LANBase, info, name)
}

func buildDownloadURL(base string, info sharecode.ShareInfo, name string) string {
	if base == "" {
		return ""
	}
	q := url.Values{}
	q.Set("s", sharecode.EncodeLong(info))
	return strings.TrimRight(base, "/") + "/api/download/" + url.PathEscape(name) + "?" + q.Encode()
}
