package mix

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"mixshare/internal/codec"
	"mixshare/internal/registry"
	"mixshare/internal/sharecode"

	"github.com/pierrec/lz4/v4"
)

// ExportName is the vault metadata item registry exports are stored under.
const ExportName = "favorites"

const exportFormat = 1

// exportDocument is the CBOR body of an export, before compression and
// encryption.
type exportDocument struct {
	Format     int            `cbor:"format"`
	HostID     string         `cbor:"host_id"`
	Version    uint64         `cbor:"version"`
	ExportedAt int64          `cbor:"exported_at"`
	Records    []exportRecord `cbor:"records"`
}

type exportRecord struct {
	Name      string `cbor:"name"`
	Size      int64  `cbor:"size"`
	Category  string `cbor:"category,omitempty"`
	ShareCode string `cbor:"share_code"`
	// LongCode carries the expansion of a short ShareCode so the export
	// restores on a host whose database has never seen it.
	LongCode string `cbor:"long_code,omitempty"`
	AddedAt  int64  `cbor:"added_at"`
}

// ExportResult describes a completed export.
type ExportResult struct {
	Version uint64
	Records int
	Bytes   int64
}

// Export writes the current registry to the vault as an encrypted item for
// hostID. The item's version is the registry version.
func (s *Service) Export(hostID string) (*ExportResult, error) {
	if s.vault == nil || s.encryptor == nil {
		return nil, fmt.Errorf("export: %w", ErrNoCollaborator)
	}
	if !s.encryptor.IsConfigured() {
		return nil, fmt.Errorf("export: encryption keys not set up")
	}

	snap := s.registry.Current()
	doc := exportDocument{
		Format:     exportFormat,
		HostID:     hostID,
		Version:    snap.Version(),
		ExportedAt: s.clock.Now().Unix(),
		Records:    make([]exportRecord, 0, snap.Len()),
	}
	for _, rec := range snap.Entries() {
		er := exportRecord{
			Name:      rec.Name,
			Size:      rec.Size,
			Category:  rec.Category,
			ShareCode: rec.ShareCode,
			AddedAt:   rec.AddedAt.UnixNano(),
		}
		if sharecode.IsShort(rec.ShareCode) {
			if info, err := s.codec.Decode(rec.ShareCode); err == nil {
				er.LongCode = info.String()
			} else {
				s.logger.Warn("exporting short code that does not expand", "name", rec.Name, "error", err)
			}
		}
		doc.Records = append(doc.Records, er)
	}

	var plain bytes.Buffer
	zw := lz4.NewWriter(&plain)
	if err := codec.NewEncoder(zw).Encode(doc); err != nil {
		return nil, fmt.Errorf("encoding export: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compressing export: %w", err)
	}

	var sealed bytes.Buffer
	if err := s.encryptor.Encrypt(&plain, &sealed); err != nil {
		return nil, fmt.Errorf("encrypting export: %w", err)
	}

	size := int64(sealed.Len())
	if err := s.vault.PutMetadata(hostID, ExportName, &sealed, size, int64(snap.Version())); err != nil {
		return nil, fmt.Errorf("storing export: %w", err)
	}

	s.logger.Info("exported favorites", "host", hostID, "version", snap.Version(),
		"records", len(doc.Records), "bytes", size)
	return &ExportResult{Version: snap.Version(), Records: len(doc.Records), Bytes: size}, nil
}

// RemoteVersion returns the version of the export stored for hostID, or 0.
func (s *Service) RemoteVersion(hostID string) (uint64, error) {
	if s.vault == nil {
		return 0, fmt.Errorf("remote version: %w", ErrNoCollaborator)
	}
	v, err := s.vault.GetMetadataVersion(hostID, ExportName)
	if err != nil {
		return 0, fmt.Errorf("reading export version: %w", err)
	}
	if v < 0 {
		return 0, nil
	}
	return uint64(v), nil
}

// Restore replaces the registry with the export stored for hostID. The
// restored registry's version is at least the export's.
func (s *Service) Restore(hostID, passphrase string) (*ExportResult, error) {
	if s.vault == nil || s.encryptor == nil {
		return nil, fmt.Errorf("restore: %w", ErrNoCollaborator)
	}

	dctx, err := s.encryptor.Unlock(passphrase)
	if err != nil {
		return nil, fmt.Errorf("unlocking keys: %w", err)
	}

	var sealed bytes.Buffer
	if err := s.vault.GetMetadata(hostID, ExportName, &sealed); err != nil {
		return nil, fmt.Errorf("fetching export: %w", err)
	}
	size := int64(sealed.Len())
	var plain bytes.Buffer
	if err := dctx.Decrypt(&sealed, &plain); err != nil {
		return nil, fmt.Errorf("decrypting export: %w", err)
	}

	var doc exportDocument
	if err := codec.NewDecoder(lz4.NewReader(&plain)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding export: %w", err)
	}
	if doc.Format != exportFormat {
		return nil, fmt.Errorf("unsupported export format %d", doc.Format)
	}

	records := make([]registry.FileRecord, 0, len(doc.Records))
	var learned []string
	for _, er := range doc.Records {
		if er.LongCode != "" && s.learnShortCode(er.ShareCode, er.LongCode) {
			learned = append(learned, er.LongCode)
		}
		records = append(records, registry.FileRecord{
			Name:      er.Name,
			Size:      er.Size,
			Category:  er.Category,
			ShareCode: er.ShareCode,
			AddedAt:   time.Unix(0, er.AddedAt).UTC(),
		})
	}

	snap, _ := s.registry.Publish(func(cur *registry.Snapshot) *registry.Snapshot {
		return cur.Replace(doc.Version, records)
	})
	if err := s.flush(); err != nil {
		return nil, err
	}
	for _, long := range learned {
		if err := s.database.PutShortCode(sharecode.ShortRef(long), long); err != nil {
			return nil, fmt.Errorf("recording short code: %w", err)
		}
	}

	s.logger.Info("restored favorites", "host", hostID, "export_version", doc.Version,
		"version", snap.Version(), "records", snap.Len())
	return &ExportResult{Version: snap.Version(), Records: snap.Len(), Bytes: size}, nil
}

// learnShortCode teaches the codec the expansion of a short code carried by
// an export, after checking that it really is the expansion. The caller
// persists learned codes once the restored registry is published.
func (s *Service) learnShortCode(short, long string) bool {
	if sharecode.ShortRef(long) != strings.ToLower(strings.TrimSpace(short)) {
		s.logger.Warn("ignoring short code expansion that does not match", "code", short)
		return false
	}
	s.codec.Index().Add(long)
	return true
}
