package store

import (
	"context"

	"github.com/nao1215/pageaudit/internal/model"
	"github.com/nao1215/pageaudit/internal/scoring"
)

// Report rebuilds the composite report of a stored record.
func (s *Store) Report(ctx context.Context, recordID string, expected scoring.Expected) (*model.CompositeReport, error) {
	record, err := s.GetRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	audits, err := s.LoadAudits(ctx, recordID)
	if err != nil {
		return nil, err
	}
	return scoring.Composite(record, audits, expected), nil
}
