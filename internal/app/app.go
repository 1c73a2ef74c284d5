package app

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mixshare/internal/config"
	"mixshare/internal/database"
	"mixshare/internal/download"
	"mixshare/internal/encryption"
	"mixshare/internal/manifest"
	"mixshare/internal/mix"
	"mixshare/internal/model"
	"mixshare/internal/registry"
	"mixshare/internal/sharecode"
	"mixshare/internal/vault"
)

// MixApp is the application layer between the CLI and mix.Service.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw share codes, and manages the DB lifecycle on Close.
type MixApp struct {
	cfg       *config.Config
	db        *database.SQLiteDatabase
	vault     mix.Vault // nil when no vault is configured
	encryptor mix.Encryptor
	service   *mix.Service
	logger    *slog.Logger
	op        *Operation
	logFile   *os.File
}

// NewMixApp creates a fully wired MixApp from the given config.
// operation identifies the CLI command being run (e.g. "AddFavorite", "Restore").
// logLevel is the minimum level logged ("debug", "info", "warn", "error").
// The caller must call Close when done.
func NewMixApp(cfg *config.Config, operation, logLevel string) (*MixApp, error) {
	level, err := parseLevel(logLevel)
	if err != nil {
		return nil, err
	}
	return newMixApp(cfg, operation, os.Stdout, level)
}

// newMixApp is NewMixApp with the writer vfs previews are drawn to.
func newMixApp(cfg *config.Config, operation string, out io.Writer, level slog.Level) (*MixApp, error) {
	var v mix.Vault
	if len(cfg.Vaults) > 0 {
		var err error
		v, err = vault.NewVaultFromConfig(cfg.Vaults[0])
		if err != nil {
			return nil, fmt.Errorf("creating vault: %w", err)
		}
	}

	db, err := database.NewDatabaseFromConfig(cfg.Database, cfg.HostID)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if err := db.CheckMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	opID := time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, opID, level)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	adapter := &slogAdapter{l: logger}

	client := &http.Client{}
	svc, err := mix.NewService(mix.Options{
		Database: db,
		Codec:    sharecode.NewCodec(db),
		Links: mix.Links{
			LocalBase: cfg.Server.LocalURL,
			LANBase:   cfg.Server.LANURL,
		},
		Vault:      v,
		Encryptor:  enc,
		Downloader: download.NewHTTPDownloader(cfg.Download.Dir, client, adapter),
		Importer:   manifest.NewHTTPImporter(client),
		Previewer:  manifest.NewPreviewer(client, out),
		Logger:     adapter,
		Clock:      mix.RealClock{},
		IDGen:      mix.UUIDGenerator{},
	})
	if err != nil {
		logFile.Close()
		db.Close()
		return nil, fmt.Errorf("creating service: %w", err)
	}

	a := &MixApp{
		cfg:       cfg,
		db:        db,
		vault:     v,
		encryptor: enc,
		service:   svc,
		logger:    logger,
		op:        NewOperation(operation, ""),
		logFile:   logFile,
	}

	if err := a.checkRemoteVersion(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// checkRemoteVersion warns when the vault holds an export newer than the
// local registry. Restore brings the registry up to date.
func (a *MixApp) checkRemoteVersion() error {
	if a.vault == nil {
		return nil
	}
	remote, err := a.service.RemoteVersion(a.cfg.HostID)
	if err != nil {
		return fmt.Errorf("checking remote export version: %w", err)
	}
	local := a.service.Snapshot().Version()
	if remote > local {
		a.logger.Warn("vault export is newer than the local registry; run restore",
			"local", local, "remote", remote)
	}
	return nil
}

// persistOperation saves the operation to the database, giving it an auto-increment ID.
// This should only be called for registry-changing commands.
func (a *MixApp) persistOperation(parameters string) error {
	if a.op.Persisted() {
		return nil // already persisted
	}
	a.op.Parameters = parameters
	dbOp, err := a.db.CreateOperation(a.op.Operation, a.op.Parameters)
	if err != nil {
		return fmt.Errorf("persisting operation: %w", err)
	}
	a.op.ID = dbOp.ID
	return nil
}

func rawRecord(code, name string) registry.FileRecord {
	return registry.FileRecord{ShareCode: strings.TrimSpace(code), Name: name}
}

// Show resolves a share code into a file view.
func (a *MixApp) Show(code, name string) (*mix.FileView, error) {
	return a.service.Resolve(rawRecord(code, name))
}

// AddFavorite adds the file behind code as a favorite named name in
// category. It reports false when the file was already a favorite.
func (a *MixApp) AddFavorite(code, name, category string) (bool, error) {
	if err := a.persistOperation(name); err != nil {
		return false, err
	}
	rec := rawRecord(code, name)
	rec.Category = category
	added, err := a.service.AddFavorite(rec)
	return added, a.op.Fail(err)
}

// RemoveFavorite removes the favorite for code.
func (a *MixApp) RemoveFavorite(code string) (bool, error) {
	if err := a.persistOperation(code); err != nil {
		return false, err
	}
	removed, err := a.service.RemoveFavorite(rawRecord(code, ""))
	return removed, a.op.Fail(err)
}

// Rename sets the display name of the favorite for code.
func (a *MixApp) Rename(code, name string) (bool, error) {
	if err := a.persistOperation(name); err != nil {
		return false, err
	}
	changed, err := a.service.Rename(rawRecord(code, ""), name)
	return changed, a.op.Fail(err)
}

// SetCategory moves the favorite for code into category.
func (a *MixApp) SetCategory(code, category string) (bool, error) {
	if err := a.persistOperation(category); err != nil {
		return false, err
	}
	changed, err := a.service.SetCategory(rawRecord(code, ""), category)
	return changed, a.op.Fail(err)
}

// Favorites returns the favorites in category, or all of them.
func (a *MixApp) Favorites(category string) []registry.FileRecord {
	return a.service.Favorites(category)
}

// Categories returns the category names in use.
func (a *MixApp) Categories() []string {
	return a.service.Categories()
}

// ShareCode renders code in long or short form.
func (a *MixApp) ShareCode(code string, short bool) (string, error) {
	return a.service.ShareCode(rawRecord(code, ""), short)
}

// DefaultShort reports whether short codes are handed out by default.
func (a *MixApp) DefaultShort() bool {
	return a.cfg.ShortCodes
}

// Download fetches the file behind code into the download directory.
func (a *MixApp) Download(code, name string) (mix.DownloadTask, error) {
	return a.service.Download(rawRecord(code, name))
}

// Open dispatches a manifest: file lists are imported as favorites, vfs
// manifests are previewed.
func (a *MixApp) Open(code, name string) (*mix.OpenResult, error) {
	rec := rawRecord(code, name)
	view, err := a.service.Resolve(rec)
	if err != nil {
		return nil, err
	}
	if view.Kind == mix.KindFileList {
		if err := a.persistOperation(view.Record.Name); err != nil {
			return nil, err
		}
	}
	res, err := a.service.Open(rec)
	return res, a.op.Fail(err)
}

// ShareResult reports a written share manifest.
type ShareResult struct {
	Path    string
	Written int
	// Skipped counts favorites whose short code could not be expanded.
	Skipped int
}

// ShareList writes the favorites in category (all of them when empty) to
// a file list at path. The file-list suffix is appended when missing.
func (a *MixApp) ShareList(category, path string) (*ShareResult, error) {
	records, skipped := a.service.Shareable(category)
	path, err := writeManifest(path, mix.FileListSuffix, func(w io.Writer, name string) error {
		return manifest.EncodeFileList(w, name, time.Now(), records)
	})
	if err != nil {
		return nil, err
	}
	return &ShareResult{Path: path, Written: len(records), Skipped: skipped}, nil
}

// ShareTree writes the favorites in category as a vfs manifest with one
// directory per category.
func (a *MixApp) ShareTree(category, path string) (*ShareResult, error) {
	records, skipped := a.service.Shareable(category)
	path, err := writeManifest(path, mix.VFSSuffix, func(w io.Writer, name string) error {
		return manifest.EncodeVFS(w, manifest.VFSFromRecords(name, records))
	})
	if err != nil {
		return nil, err
	}
	return &ShareResult{Path: path, Written: len(records), Skipped: skipped}, nil
}

// writeManifest stages a manifest next to path and renames it into place.
// suffix is appended to path when missing; encode receives the manifest name.
func writeManifest(path, suffix string, encode func(w io.Writer, name string) error) (string, error) {
	if !strings.HasSuffix(path, suffix) {
		path += suffix
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".mix-share-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := encode(tmp, strings.TrimSuffix(filepath.Base(path), suffix)); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// ShortCodeInfo returns what this host recorded about the short form of
// code, which may be given in either form. It returns nil when the short
// code was never issued or learned here.
func (a *MixApp) ShortCodeInfo(code string) (*model.ShortCode, error) {
	ref := strings.ToLower(strings.TrimSpace(code))
	if !sharecode.IsShort(ref) {
		info, err := sharecode.ParseLong(code)
		if err != nil {
			return nil, err
		}
		ref = sharecode.ShortRef(info.String())
	}
	return a.db.FindShortCode(ref)
}

// BackupDatabase writes a consistent copy of the local database to dest.
func (a *MixApp) BackupDatabase(dest string) error {
	if _, err := os.Stat(dest); err == nil {
		return fmt.Errorf("backup target %s already exists", dest)
	}
	if err := a.db.BackupTo(dest); err != nil {
		return err
	}
	a.logger.Info("database backed up", "path", dest)
	return nil
}

// Export writes the registry to the vault.
func (a *MixApp) Export() (*mix.ExportResult, error) {
	return a.service.Export(a.cfg.HostID)
}

// Restore replaces the registry with the vault export.
func (a *MixApp) Restore(passphrase string) (*mix.ExportResult, error) {
	if err := a.persistOperation(""); err != nil {
		return nil, err
	}
	res, err := a.service.Restore(a.cfg.HostID, passphrase)
	return res, a.op.Fail(err)
}

// History returns the most recent registry-changing operations.
func (a *MixApp) History(limit int) ([]*model.Operation, error) {
	return a.service.History(limit)
}

// SetupKeys generates the encryption key pair protected by passphrase.
func (a *MixApp) SetupKeys(passphrase string) error {
	return a.encryptor.Setup(passphrase)
}

// Close finalizes the operation and closes all resources.
// For persisted operations: finishes the operation record and, when a vault
// is configured and keys exist, exports the registry.
// For non-persisted operations: just closes the database.
func (a *MixApp) Close() error {
	var firstErr error

	if a.op.Persisted() {
		if err := a.db.FinishOperation(a.op.ID, a.op.Status); err != nil {
			firstErr = fmt.Errorf("finishing operation: %w", err)
		}

		if a.vault != nil && a.encryptor.IsConfigured() {
			if _, err := a.service.Export(a.cfg.HostID); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("exporting registry: %w", err)
			}
		}
	}

	if err := a.db.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
