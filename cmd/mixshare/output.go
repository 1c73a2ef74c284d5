package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"mixshare/internal/manifest"
	"mixshare/internal/mix"
	"mixshare/internal/model"
	"mixshare/internal/registry"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

var (
	labelStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// favoriteOutput is the json/yaml shape of a listed favorite.
type favoriteOutput struct {
	Name      string    `json:"name" yaml:"name"`
	Size      int64     `json:"size" yaml:"size"`
	Category  string    `json:"category" yaml:"category"`
	ShareCode string    `json:"share_code" yaml:"share_code"`
	AddedAt   time.Time `json:"added_at" yaml:"added_at"`
}

func writeFavorites(w io.Writer, records []registry.FileRecord, format string) error {
	out := make([]favoriteOutput, 0, len(records))
	for _, r := range records {
		out = append(out, favoriteOutput{
			Name:      r.Name,
			Size:      r.Size,
			Category:  r.CategoryName(),
			ShareCode: r.ShareCode,
			AddedAt:   r.AddedAt,
		})
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return err
		}
		return enc.Close()
	case "text", "":
		width := 0
		for _, f := range out {
			width = max(width, lipgloss.Width(f.Name))
		}
		for _, f := range out {
			pad := width - lipgloss.Width(f.Name)
			fmt.Fprintf(w, "%s%*s  %10s  %s\n", f.Name, pad, "",
				manifest.FormatSize(f.Size), dimStyle.Render(f.Category))
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func printView(w io.Writer, v *mix.FileView) {
	row := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-12s", label+":")), value)
	}

	row("Name", v.Record.Name)
	row("Size", manifest.FormatSize(v.Record.Size))
	row("Kind", v.Kind.String())
	if v.Media != mix.MediaNone {
		row("Media", v.Media.String())
	}
	if v.Favorite {
		row("Favorite", "yes ("+v.Record.CategoryName()+")")
	} else {
		row("Favorite", "no")
	}
	row("Fingerprint", v.Fingerprint)
	row("Download", v.DownloadURL)
	row("LAN", v.LANURL)
}

func printHistory(w io.Writer, ops []*model.Operation) {
	for _, op := range ops {
		duration := ""
		if op.FinishedAt != nil {
			duration = op.Duration().Truncate(time.Millisecond).String()
		}
		status := op.Status
		if status == "" {
			status = "running"
		}
		fmt.Fprintf(w, "#%d  %-15s  %s  %-10s  %s  %s\n",
			op.ID,
			op.Operation,
			op.StartedAt.Format("2006-01-02 15:04:05"),
			status,
			duration,
			dimStyle.Render(op.Parameters),
		)
	}
}
