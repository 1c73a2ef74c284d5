package mix

import (
	"fmt"

	"mixshare/internal/model"
)

// History returns the most recent registry-changing operations, newest
// first.
func (s *Service) History(limit int) ([]*model.Operation, error) {
	if limit <= 0 {
		limit = 20
	}
	ops, err := s.database.ListOperations(limit)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}
