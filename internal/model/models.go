package model

import "time"

// Operation records one CLI invocation that changed the registry.
type Operation struct {
	ID         int64  // auto-increment, assigned by the database
	Operation  string // e.g. "AddFavorite", "Restore"
	Parameters string
	Status     string // "success" or "error"; empty while running
	StartedAt  time.Time
	FinishedAt *time.Time
}

// Duration returns how long the operation ran, or 0 if it has not finished.
func (o *Operation) Duration() time.Duration {
	if o.FinishedAt == nil {
		return 0
	}
	return o.FinishedAt.Sub(o.StartedAt)
}

// ShortCode maps a short share code to the long code it abbreviates.
type ShortCode struct {
	Ref       string // "mfs.<hex>"
	LongCode  string
	CreatedAt time.Time
}
