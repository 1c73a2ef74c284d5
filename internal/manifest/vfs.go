package manifest

import (
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"mixshare/internal/registry"

	"github.com/charmbracelet/lipgloss"
)

// VFS is the body of a ".mix_dav" manifest: a flat list of files with
// slash-separated paths, presented as a tree.
type VFS struct {
	Version int        `json:"version"`
	Name    string     `json:"name,omitempty"`
	Entries []VFSEntry `json:"entries"`
}

// VFSEntry is one file in a virtual filesystem.
type VFSEntry struct {
	Path      string `json:"path"`
	Size      int64  `json:"size,omitempty"`
	ShareCode string `json:"share_code"`
}

// DecodeVFS reads a vfs manifest. Paths are cleaned and made relative.
// Empty paths, and a path that names both a file and a directory (a and
// a/b.txt), are rejected.
func DecodeVFS(r io.Reader) (*VFS, error) {
	var v VFS
	if err := decode(r, &v); err != nil {
		return nil, err
	}
	if err := checkVersion(v.Version); err != nil {
		return nil, err
	}
	for i, e := range v.Entries {
		clean := path.Clean("/" + strings.TrimSpace(e.Path))
		if clean == "/" {
			return nil, fmt.Errorf("entry %d has an empty path", i)
		}
		v.Entries[i].Path = strings.TrimPrefix(clean, "/")
	}
	if err := checkPaths(v.Entries); err != nil {
		return nil, err
	}
	return &v, nil
}

// EncodeVFS writes v as a gzip-compressed vfs manifest. It refuses trees
// DecodeVFS would reject.
func EncodeVFS(w io.Writer, v *VFS) error {
	if err := checkPaths(v.Entries); err != nil {
		return err
	}
	out := *v
	out.Version = formatVersion
	return encode(w, out)
}

func checkPaths(entries []VFSEntry) error {
	files := make(map[string]bool, len(entries))
	for _, e := range entries {
		files[e.Path] = true
	}
	for _, e := range entries {
		for dir := path.Dir(e.Path); dir != "." && dir != "/"; dir = path.Dir(dir) {
			if files[dir] {
				return fmt.Errorf("%q is both a file and the parent of %q", dir, e.Path)
			}
		}
	}
	return nil
}

// VFSFromRecords lays records out as a tree with one directory per
// category. Slashes in record names are replaced so every record stays a
// single file.
func VFSFromRecords(name string, records []registry.FileRecord) *VFS {
	v := &VFS{Version: formatVersion, Name: name, Entries: make([]VFSEntry, 0, len(records))}
	for _, r := range records {
		v.Entries = append(v.Entries, VFSEntry{
			Path:      segment(r.CategoryName(), registry.Uncategorized) + "/" + segment(r.Name, "unnamed"),
			Size:      r.Size,
			ShareCode: r.ShareCode,
		})
	}
	return v
}

// segment turns s into a single path element, or fallback when nothing
// usable is left.
func segment(s, fallback string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), "/", "_")
	if s == "" || s == "." || s == ".." {
		return fallback
	}
	return s
}

type vfsNode struct {
	name     string
	size     int64
	dir      bool
	children map[string]*vfsNode
}

// child returns the file or directory called name below n, creating it.
// A file and a directory may share a name; both are kept.
func (n *vfsNode) child(name string, dir bool) *vfsNode {
	if n.children == nil {
		n.children = make(map[string]*vfsNode)
	}
	key := name
	if dir {
		key += "/"
	}
	c, ok := n.children[key]
	if !ok {
		c = &vfsNode{name: name, dir: dir}
		n.children[key] = c
	}
	return c
}

// sorted returns directories first, then files, each by name.
func (n *vfsNode) sorted() []*vfsNode {
	out := make([]*vfsNode, 0, len(n.children))
	for _, c := range n.children {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].dir != out[j].dir {
			return out[i].dir
		}
		return out[i].name < out[j].name
	})
	return out
}

var (
	dirStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	sizeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// RenderTree draws v as an indented tree with file sizes.
func RenderTree(w io.Writer, title string, v *VFS) error {
	root := &vfsNode{name: title, dir: true}
	var total int64
	for _, e := range v.Entries {
		parts := strings.Split(e.Path, "/")
		n := root
		for _, p := range parts[:len(parts)-1] {
			n = n.child(p, true)
		}
		leaf := n.child(parts[len(parts)-1], false)
		leaf.size = e.Size
		total += e.Size
	}

	var b strings.Builder
	b.WriteString(dirStyle.Render(title))
	b.WriteString(" " + sizeStyle.Render(fmt.Sprintf("(%d files, %s)", len(v.Entries), FormatSize(total))))
	b.WriteByte('\n')
	renderChildren(&b, root, "")

	_, err := io.WriteString(w, b.String())
	return err
}

func renderChildren(b *strings.Builder, n *vfsNode, prefix string) {
	children := n.sorted()
	for i, c := range children {
		last := i == len(children)-1
		branch, next := "├── ", "│   "
		if last {
			branch, next = "└── ", "    "
		}
		b.WriteString(prefix + branch)
		if c.dir {
			b.WriteString(dirStyle.Render(c.name + "/"))
		} else {
			b.WriteString(c.name + "  " + sizeStyle.Render(FormatSize(c.size)))
		}
		b.WriteByte('\n')
		if c.dir {
			renderChildren(b, c, prefix+next)
		}
	}
}

// FormatSize renders a byte count with a binary unit.
func FormatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
