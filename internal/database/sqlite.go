package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mixshare/internal/database/migrations"
	"mixshare/internal/mix"
	"mixshare/internal/model"
	"mixshare/internal/registry"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase implements mix.Database on top of SQLite.
type SQLiteDatabase struct {
	db   *sql.DB
	path string
}

// NewSQLiteDatabase opens the database at path. path can be a file path or
// ":memory:". The schema is not touched; call Migrate.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	return &SQLiteDatabase{db: db, path: path}, nil
}

// OpenConnection opens a SQLite connection with the PRAGMAs mixshare relies on.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if path == ":memory:" {
		// Each pooled connection to :memory: would get its own empty database.
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	return db, nil
}

// Favorites

// LoadFavorites returns the persisted registry version and records in
// display order. An empty store yields version 0 and no records.
func (s *SQLiteDatabase) LoadFavorites() (uint64, []registry.FileRecord, error) {
	ctx := context.Background()

	var version uint64
	err := s.db.QueryRowContext(ctx, "SELECT version FROM registry_state WHERE id = 1").Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, nil, fmt.Errorf("reading registry version: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT name, size, category, share_code, added_at FROM favorites ORDER BY position")
	if err != nil {
		return 0, nil, fmt.Errorf("querying favorites: %w", err)
	}
	defer rows.Close()

	var records []registry.FileRecord
	for rows.Next() {
		var r registry.FileRecord
		if err := rows.Scan(&r.Name, &r.Size, &r.Category, &r.ShareCode, &r.AddedAt); err != nil {
			return 0, nil, fmt.Errorf("scanning favorite: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return 0, nil, fmt.Errorf("iterating favorites: %w", err)
	}
	return version, records, nil
}

// SaveFavorites replaces the stored registry with records at version, in a
// single transaction. Saving a version older than the stored one is ignored
// so a slow writer cannot roll the store back.
func (s *SQLiteDatabase) SaveFavorites(version uint64, records []registry.FileRecord) error {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	var stored uint64
	err = tx.QueryRowContext(ctx, "SELECT version FROM registry_state WHERE id = 1").Scan(&stored)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("reading registry version: %w", err)
	case version < stored:
		return nil
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM favorites"); err != nil {
		return fmt.Errorf("clearing favorites: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO favorites (position, name, size, category, share_code, added_at) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.ExecContext(ctx, i, r.Name, r.Size, r.Category, r.ShareCode, r.AddedAt); err != nil {
			return fmt.Errorf("inserting favorite %q: %w", r.Name, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO registry_state (id, version) VALUES (1, ?) ON CONFLICT(id) DO UPDATE SET version = excluded.version",
		version)
	if err != nil {
		return fmt.Errorf("writing registry version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Short codes

// PutShortCode records the expansion of a short code. Re-recording the same
// pair is a no-op.
func (s *SQLiteDatabase) PutShortCode(ref, longCode string) error {
	_, err := s.db.ExecContext(context.Background(),
		"INSERT INTO short_codes (ref, long_code, created_at) VALUES (?, ?, ?) ON CONFLICT(ref) DO NOTHING",
		ref, longCode, time.Now())
	if err != nil {
		return fmt.Errorf("storing short code: %w", err)
	}
	return nil
}

// ExpandShortCode returns the long code for ref, or "" if ref is unknown.
func (s *SQLiteDatabase) ExpandShortCode(ref string) (string, error) {
	var long string
	err := s.db.QueryRowContext(context.Background(),
		"SELECT long_code FROM short_codes WHERE ref = ?", ref).Scan(&long)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil // Not found
		}
		return "", fmt.Errorf("expanding short code: %w", err)
	}
	return long, nil
}

// FindShortCode returns the stored short code row, or nil if ref is unknown.
func (s *SQLiteDatabase) FindShortCode(ref string) (*model.ShortCode, error) {
	var sc model.ShortCode
	err := s.db.QueryRowContext(context.Background(),
		"SELECT ref, long_code, created_at FROM short_codes WHERE ref = ?", ref).
		Scan(&sc.Ref, &sc.LongCode, &sc.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding short code: %w", err)
	}
	return &sc, nil
}

// Operation tracking

func (s *SQLiteDatabase) CreateOperation(operation string, parameters string) (*model.Operation, error) {
	now := time.Now()
	res, err := s.db.ExecContext(context.Background(),
		"INSERT INTO operations (operation, parameters, started_at) VALUES (?, ?, ?)",
		operation, parameters, now)
	if err != nil {
		return nil, fmt.Errorf("creating operation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading operation id: %w", err)
	}
	return &model.Operation{ID: id, Operation: operation, Parameters: parameters, StartedAt: now}, nil
}

func (s *SQLiteDatabase) FinishOperation(id int64, status string) error {
	_, err := s.db.ExecContext(context.Background(),
		"UPDATE operations SET finished_at = ?, status = ? WHERE id = ?",
		time.Now(), status, id)
	if err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	return nil
}

// ListOperations returns the most recent operations, newest first.
func (s *SQLiteDatabase) ListOperations(limit int) ([]*model.Operation, error) {
	rows, err := s.db.QueryContext(context.Background(),
		"SELECT id, operation, parameters, status, started_at, finished_at FROM operations ORDER BY id DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	defer rows.Close()

	var ops []*model.Operation
	for rows.Next() {
		var op model.Operation
		var finished sql.NullTime
		if err := rows.Scan(&op.ID, &op.Operation, &op.Parameters, &op.Status, &op.StartedAt, &finished); err != nil {
			return nil, fmt.Errorf("scanning operation: %w", err)
		}
		if finished.Valid {
			t := finished.Time
			op.FinishedAt = &t
		}
		ops = append(ops, &op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating operations: %w", err)
	}
	return ops, nil
}

// Path returns the database file path (or ":memory:").
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// Migrate brings the schema up to date.
func (s *SQLiteDatabase) Migrate() error {
	return migrations.MigrateUp(s.db)
}

// CheckMigrations verifies the schema is up to date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// BackupTo writes a complete copy of the database to destPath.
func (s *SQLiteDatabase) BackupTo(destPath string) error {
	if _, err := s.db.Exec("VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteDatabase implements mix.Database.
var _ mix.Database = (*SQLiteDatabase)(nil)
