package mix

import (
	"mixshare/internal/registry"
	"mixshare/internal/sharecode"
)

// Shareable returns the favorites in category (all of them when empty) with
// every share code in long form, ready to be published to another host.
// Short codes are only meaningful to the host that issued them, so each one
// is expanded; a favorite whose code no longer decodes is skipped and
// counted in the second return value.
func (s *Service) Shareable(category string) ([]registry.FileRecord, int) {
	favorites := s.Favorites(category)
	out := make([]registry.FileRecord, 0, len(favorites))
	var skipped int
	for _, rec := range favorites {
		if sharecode.IsShort(rec.ShareCode) {
			info, err := s.codec.Decode(rec.ShareCode)
			if err != nil {
				s.logger.Warn("not sharing favorite with unknown short code", "name", rec.Name, "error", err)
				skipped++
				continue
			}
			rec.ShareCode = info.String()
		}
		out = append(out, rec)
	}
	return out, skipped
}
