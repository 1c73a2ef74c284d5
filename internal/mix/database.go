package mix

import (
	"mixshare/internal/model"
	"mixshare/internal/registry"
)

// Database is the persistence collaborator behind the registry. The registry
// itself lives in memory; the database is loaded once at startup and
// rewritten after every published change.
type Database interface {
	// Favorites

	// LoadFavorites returns the stored registry version and records in
	// display order.
	LoadFavorites() (uint64, []registry.FileRecord, error)

	// SaveFavorites replaces the stored registry. Implementations ignore
	// versions older than the one already stored.
	SaveFavorites(version uint64, records []registry.FileRecord) error

	// Short codes

	// PutShortCode records the long code a short code expands to.
	PutShortCode(ref, longCode string) error

	// ExpandShortCode returns the long code for ref, or "" if unknown.
	ExpandShortCode(ref string) (string, error)

	// Operation tracking

	// CreateOperation records the start of a registry-changing command.
	CreateOperation(operation string, parameters string) (*model.Operation, error)

	// FinishOperation marks an operation finished with the given status.
	FinishOperation(id int64, status string) error

	// ListOperations returns the most recent operations, newest first.
	ListOperations(limit int) ([]*model.Operation, error)

	// Close closes the database connection.
	Close() error
}
