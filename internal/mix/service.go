package mix

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"mixshare/internal/registry"
	"mixshare/internal/sharecode"
)

var (
	// ErrEmptyName is returned by Rename for a blank name.
	ErrEmptyName = errors.New("name must not be empty")
	// ErrNotManifest is returned by Open for plain files.
	ErrNotManifest = errors.New("not a file list or vfs manifest")
	// ErrNoCollaborator is returned when the operation needs a collaborator
	// that was not configured.
	ErrNoCollaborator = errors.New("collaborator not configured")
)

// Options holds the dependencies of a Service. Database and Codec are
// required; the rest are optional and the operations needing them fail
// with ErrNoCollaborator when they are absent.
type Options struct {
	Database   Database
	Codec      *sharecode.Codec
	Links      Links
	Vault      Vault
	Encryptor  Encryptor
	Downloader Downloader
	Importer   FileListImporter
	Previewer  VFSPreviewer
	Logger     Logger
	Clock      Clock
	IDGen      IDGenerator
}

// Service resolves share codes into file views and maintains the favorites
// registry. Every change to the registry is written through to the database.
type Service struct {
	database   Database
	codec      *sharecode.Codec
	links      Links
	vault      Vault
	encryptor  Encryptor
	downloader Downloader
	importer   FileListImporter
	previewer  VFSPreviewer
	logger     Logger
	clock      Clock
	idgen      IDGenerator

	registry *registry.Registry

	flushMu sync.Mutex
	flushed uint64
}

// NewService loads the favorites from the database and returns a ready
// Service.
func NewService(opts Options) (*Service, error) {
	if opts.Database == nil {
		return nil, errors.New("database is required")
	}
	if opts.Codec == nil {
		return nil, errors.New("codec is required")
	}
	if opts.Logger == nil {
		opts.Logger = NewNopLogger()
	}
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	if opts.IDGen == nil {
		opts.IDGen = UUIDGenerator{}
	}

	version, records, err := opts.Database.LoadFavorites()
	if err != nil {
		return nil, fmt.Errorf("loading favorites: %w", err)
	}
	snap := registry.NewSnapshot(opts.Codec, version, records)
	if snap.Len() != len(records) {
		opts.Logger.Warn("dropped duplicate favorites on load", "stored", len(records), "kept", snap.Len())
	}

	return &Service{
		database:   opts.Database,
		codec:      opts.Codec,
		links:      opts.Links,
		vault:      opts.Vault,
		encryptor:  opts.Encryptor,
		downloader: opts.Downloader,
		importer:   opts.Importer,
		previewer:  opts.Previewer,
		logger:     opts.Logger,
		clock:      opts.Clock,
		idgen:      opts.IDGen,
		registry:   registry.New(snap),
		flushed:    version,
	}, nil
}

// FileView is everything a detail view shows for a resolved record.
type FileView struct {
	// Record is the canonical favorite when Favorite is true, otherwise the
	// record that was resolved with defaults filled in.
	Record      registry.FileRecord
	Favorite    bool
	Info        sharecode.ShareInfo
	Kind        Kind
	Media       Media
	DownloadURL string
	LANURL      string
	Fingerprint string
}

// Resolve decodes rec's share code and resolves it against the registry.
// A share code that does not decode is an error: no view is produced.
func (s *Service) Resolve(rec registry.FileRecord) (*FileView, error) {
	info, err := s.codec.Decode(rec.ShareCode)
	if err != nil {
		return nil, err
	}

	canonical, favorite := s.registry.Current().FindSimilar(rec)
	if !favorite {
		canonical = s.withDefaults(rec, info)
	} else if favInfo, err := s.codec.Decode(canonical.ShareCode); err == nil {
		info = favInfo
	}

	return &FileView{
		Record:      canonical,
		Favorite:    favorite,
		Info:        info,
		Kind:        KindOf(canonical.Name),
		Media:       MediaOf(canonical.Name),
		DownloadURL: s.links.DownloadURL(info, canonical.Name),
		LANURL:      s.links.LANURL(info, canonical.Name),
		Fingerprint: info.Fingerprint(),
	}, nil
}

// Lookup returns a memo that re-resolves rec whenever the registry changes.
func (s *Service) Lookup(rec registry.FileRecord) *registry.Memo[registry.Match] {
	return registry.Lookup(s.registry, rec)
}

// Snapshot returns the current registry snapshot.
func (s *Service) Snapshot() *registry.Snapshot {
	return s.registry.Current()
}

// Favorites returns the favorites in category, or all of them when category
// is empty.
func (s *Service) Favorites(category string) []registry.FileRecord {
	return s.registry.Current().InCategory(strings.TrimSpace(category))
}

// Categories returns the distinct category names in first-seen order.
func (s *Service) Categories() []string {
	return s.registry.Current().Categories()
}

// AddFavorite adds rec to the registry. It reports false when a record for
// the same blob is already a favorite.
func (s *Service) AddFavorite(rec registry.FileRecord) (bool, error) {
	info, err := s.codec.Decode(rec.ShareCode)
	if err != nil {
		return false, err
	}
	rec = s.withDefaults(rec, info)

	snap, changed := s.registry.Add(rec)
	if !changed {
		s.logger.Debug("already a favorite", "name", rec.Name)
		return false, nil
	}
	if err := s.flush(); err != nil {
		return true, err
	}
	s.logger.Info("favorite added", "name", rec.Name, "version", snap.Version())
	return true, nil
}

// RemoveFavorite removes the favorite similar to rec. It reports false when
// there was none.
func (s *Service) RemoveFavorite(rec registry.FileRecord) (bool, error) {
	if _, err := s.codec.Decode(rec.ShareCode); err != nil {
		return false, err
	}

	snap, changed := s.registry.Remove(rec)
	if !changed {
		s.logger.Debug("not a favorite", "name", rec.Name)
		return false, nil
	}
	if err := s.flush(); err != nil {
		return true, err
	}
	s.logger.Info("favorite removed", "name", rec.Name, "version", snap.Version())
	return true, nil
}

// Rename sets the display name of the favorite similar to rec. Renaming a
// record that is not a favorite changes nothing.
func (s *Service) Rename(rec registry.FileRecord, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, ErrEmptyName
	}
	return s.update(rec, "renamed", func(r registry.FileRecord) registry.FileRecord {
		return r.WithName(name)
	})
}

// SetCategory moves the favorite similar to rec into category. A blank
// category or the uncategorized sentinel clears it.
func (s *Service) SetCategory(rec registry.FileRecord, category string) (bool, error) {
	return s.update(rec, "recategorized", func(r registry.FileRecord) registry.FileRecord {
		return r.WithCategory(category)
	})
}

func (s *Service) update(rec registry.FileRecord, what string, transform func(registry.FileRecord) registry.FileRecord) (bool, error) {
	if _, err := s.codec.Decode(rec.ShareCode); err != nil {
		return false, err
	}

	snap, changed := s.registry.Update(rec, transform)
	if !changed {
		s.logger.Debug("favorite unchanged", "name", rec.Name)
		return false, nil
	}
	if err := s.flush(); err != nil {
		return true, err
	}
	s.logger.Info("favorite "+what, "name", rec.Name, "version", snap.Version())
	return true, nil
}

// ShareCode renders rec's share code in the requested form. Short codes are
// recorded in the database so they can be expanded later.
func (s *Service) ShareCode(rec registry.FileRecord, short bool) (string, error) {
	info, err := s.codec.Decode(rec.ShareCode)
	if err != nil {
		return "", err
	}
	code := s.codec.Encode(info, short)
	if short {
		if err := s.database.PutShortCode(sharecode.ShortRef(info.String()), info.String()); err != nil {
			return "", fmt.Errorf("recording short code: %w", err)
		}
	}
	return code, nil
}

// DownloadTask returns the name, size and URL a downloader needs for rec.
func (s *Service) DownloadTask(rec registry.FileRecord) (DownloadTask, error) {
	view, err := s.Resolve(rec)
	if err != nil {
		return DownloadTask{}, err
	}
	if view.DownloadURL == "" {
		return DownloadTask{}, errors.New("no local server URL configured")
	}
	return DownloadTask{
		ID:   s.idgen.New(),
		Name: view.Record.Name,
		Size: view.Record.Size,
		URL:  view.DownloadURL,
	}, nil
}

// Download hands rec to the downloader.
func (s *Service) Download(rec registry.FileRecord) (DownloadTask, error) {
	if s.downloader == nil {
		return DownloadTask{}, fmt.Errorf("download: %w", ErrNoCollaborator)
	}
	task, err := s.DownloadTask(rec)
	if err != nil {
		return DownloadTask{}, err
	}
	if err := s.downloader.Start(task); err != nil {
		return task, fmt.Errorf("starting download of %s: %w", task.Name, err)
	}
	s.logger.Info("download started", "id", task.ID, "name", task.Name, "size", task.Size)
	return task, nil
}

// OpenResult describes what Open did.
type OpenResult struct {
	Kind   Kind
	Import ImportResult // set for file lists
}

// Open routes a manifest to its collaborator: file lists are fetched and
// their records added as favorites, vfs manifests go to the previewer.
// Plain files return ErrNotManifest.
func (s *Service) Open(rec registry.FileRecord) (*OpenResult, error) {
	view, err := s.Resolve(rec)
	if err != nil {
		return nil, err
	}

	switch view.Kind {
	case KindFileList:
		if s.importer == nil {
			return nil, fmt.Errorf("file list: %w", ErrNoCollaborator)
		}
		records, err := s.importer.LoadFileList(view.DownloadURL)
		if err != nil {
			return nil, fmt.Errorf("loading file list %s: %w", view.Record.Name, err)
		}
		res, err := s.ImportRecords(records)
		return &OpenResult{Kind: view.Kind, Import: res}, err
	case KindVFS:
		if s.previewer == nil {
			return nil, fmt.Errorf("vfs: %w", ErrNoCollaborator)
		}
		if err := s.previewer.PreviewVFS(view.Record.Name, view.DownloadURL); err != nil {
			return nil, fmt.Errorf("previewing %s: %w", view.Record.Name, err)
		}
		return &OpenResult{Kind: view.Kind}, nil
	default:
		return nil, ErrNotManifest
	}
}

// ImportResult counts what ImportRecords did with each record.
type ImportResult struct {
	Added      int
	Duplicates int
	Invalid    int
}

// ImportRecords adds records as favorites in a single publish. Records
// whose share codes do not decode are counted and skipped.
func (s *Service) ImportRecords(records []registry.FileRecord) (ImportResult, error) {
	var res ImportResult
	valid := make([]registry.FileRecord, 0, len(records))
	for _, rec := range records {
		info, err := s.codec.Decode(rec.ShareCode)
		if err != nil {
			s.logger.Warn("skipping record with invalid share code", "name", rec.Name, "error", err)
			res.Invalid++
			continue
		}
		valid = append(valid, s.withDefaults(rec, info))
	}

	var added int
	snap, changed := s.registry.Publish(func(cur *registry.Snapshot) *registry.Snapshot {
		added = 0
		next := cur
		for _, rec := range valid {
			n := next.Add(rec)
			if n != next {
				added++
			}
			next = n
		}
		return next
	})
	res.Added = added
	res.Duplicates = len(valid) - added

	if changed {
		if err := s.flush(); err != nil {
			return res, err
		}
	}
	s.logger.Info("imported records", "added", res.Added, "duplicates", res.Duplicates,
		"invalid", res.Invalid, "version", snap.Version())
	return res, nil
}

// withDefaults fills what a record needs to be stored: a name, the size the
// share code declares and the time it was added.
func (s *Service) withDefaults(rec registry.FileRecord, info sharecode.ShareInfo) registry.FileRecord {
	rec.Name = strings.TrimSpace(rec.Name)
	if rec.Name == "" {
		rec.Name = "unnamed-" + info.Fingerprint()[:8]
	}
	if rec.Size <= 0 && info.FileSize <= math.MaxInt64 {
		rec.Size = int64(info.FileSize)
	}
	if rec.AddedAt.IsZero() {
		rec.AddedAt = s.clock.Now().UTC()
	}
	return rec.WithCategory(rec.Category)
}

// flush writes the current snapshot to the database if it has not been
// written yet. Writing the current snapshot rather than the caller's keeps a
// slow flush from overwriting a newer one.
func (s *Service) flush() error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	cur := s.registry.Current()
	if cur.Version() == s.flushed {
		return nil
	}
	if err := s.database.SaveFavorites(cur.Version(), cur.Entries()); err != nil {
		return fmt.Errorf("saving favorites: %w", err)
	}
	s.flushed = cur.Version()
	return nil
}
