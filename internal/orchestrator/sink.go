package orchestrator

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/nao1215/pageaudit/internal/model"
)

// AuditSink persists finished audits and reads them back for reporting.
type AuditSink interface {
	// SaveAudit stores audit under the record and returns its id.
	SaveAudit(ctx context.Context, recordID string, audit *model.Audit) (string, error)

	// LoadAudits returns every audit stored under the record.
	LoadAudits(ctx context.Context, recordID string) ([]*model.Audit, error)
}

// MemorySink keeps audits in memory, keyed by record id.
type MemorySink struct {
	mu     sync.Mutex
	audits map[string][]*model.Audit
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{audits: make(map[string][]*model.Audit)}
}

// SaveAudit implements AuditSink.
func (s *MemorySink) SaveAudit(_ context.Context, recordID string, audit *model.Audit) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if audit.ID == "" {
		audit.ID = uuid.NewString()
	}
	s.audits[recordID] = append(s.audits[recordID], audit)
	return audit.ID, nil
}

// LoadAudits implements AuditSink.
func (s *MemorySink) LoadAudits(_ context.Context, recordID string) ([]*model.Audit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.audits[recordID]), nil
}
