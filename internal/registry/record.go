package registry

import (
	"strings"
	"time"
)

// Uncategorized is the category name shown for records without one.
const Uncategorized = "uncategorized"

// FileRecord is a shared file as the user sees it: a display name, a declared
// size, an optional category, and the share code that identifies the blob.
// The share code is the source of truth for identity; everything else is
// display metadata.
type FileRecord struct {
	Name      string    `json:"name" yaml:"name"`
	Size      int64     `json:"size" yaml:"size"`
	Category  string    `json:"category,omitempty" yaml:"category,omitempty"`
	ShareCode string    `json:"share_code" yaml:"share_code"`
	AddedAt   time.Time `json:"added_at" yaml:"added_at"`
}

// CategoryName returns the record's category, or Uncategorized.
func (r FileRecord) CategoryName() string {
	if r.Category == "" {
		return Uncategorized
	}
	return r.Category
}

// WithName returns a copy of r renamed to name.
func (r FileRecord) WithName(name string) FileRecord {
	r.Name = name
	return r
}

// WithCategory returns a copy of r in category. Blank names and the
// Uncategorized sentinel both clear the category.
func (r FileRecord) WithCategory(category string) FileRecord {
	category = strings.TrimSpace(category)
	if category == Uncategorized {
		category = ""
	}
	r.Category = category
	return r
}
