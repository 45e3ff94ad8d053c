package model

import (
	"encoding/json"
	"slices"
	"sync"
	"time"
)

// AuditRecord accumulates the results of every check run against one snapshot.
// It is safe for concurrent use. Completed names are only ever added, which
// makes a run resumable: checks already named here are skipped.
type AuditRecord struct {
	ID         string
	SnapshotID string
	URL        string
	CreatedAt  time.Time
	UpdatedAt  time.Time

	mu        sync.Mutex
	completed map[AuditName]struct{}
	inFlight  map[AuditName]struct{}
	auditIDs  []string
}

// NewAuditRecord creates an empty record for the given snapshot.
func NewAuditRecord(id, snapshotID, url string) *AuditRecord {
	now := time.Now().UTC()
	return &AuditRecord{
		ID:         id,
		SnapshotID: snapshotID,
		URL:        url,
		CreatedAt:  now,
		UpdatedAt:  now,
		completed:  make(map[AuditName]struct{}),
		inFlight:   make(map[AuditName]struct{}),
	}
}

// RestoreAuditRecord rebuilds a record from persisted state.
func RestoreAuditRecord(id, snapshotID, url string, completed []AuditName, auditIDs []string, createdAt, updatedAt time.Time) *AuditRecord {
	r := NewAuditRecord(id, snapshotID, url)
	r.CreatedAt = createdAt
	r.UpdatedAt = updatedAt
	for _, name := range completed {
		r.completed[name] = struct{}{}
	}
	r.auditIDs = append(r.auditIDs, auditIDs...)
	return r
}

// IsCompleted reports whether an audit with this name already finished.
func (r *AuditRecord) IsCompleted(name AuditName) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.completed[name]
	return ok
}

// Claim atomically tests whether name is neither completed nor being run
// and, if so, marks it in flight. A false return means the caller must skip
// the check. Every successful Claim must be followed by Complete or Release.
func (r *AuditRecord) Claim(name AuditName) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lazyInit()
	if _, ok := r.completed[name]; ok {
		return false
	}
	if _, ok := r.inFlight[name]; ok {
		return false
	}
	r.inFlight[name] = struct{}{}
	return true
}

// Complete marks a claimed name as done and appends the audit id.
func (r *AuditRecord) Complete(name AuditName, auditID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lazyInit()
	delete(r.inFlight, name)
	r.completed[name] = struct{}{}
	if auditID != "" {
		r.auditIDs = append(r.auditIDs, auditID)
	}
	r.UpdatedAt = time.Now().UTC()
}

// Release drops a claim without completing it, so a later run retries the check.
func (r *AuditRecord) Release(name AuditName) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inFlight, name)
}

// CompletedNames returns the completed audit names in enumeration order.
func (r *AuditRecord) CompletedNames() []AuditName {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]AuditName, 0, len(r.completed))
	for name := range r.completed {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// AuditIDs returns the ids of completed audits in completion order.
func (r *AuditRecord) AuditIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.auditIDs)
}

func (r *AuditRecord) lazyInit() {
	if r.completed == nil {
		r.completed = make(map[AuditName]struct{})
	}
	if r.inFlight == nil {
		r.inFlight = make(map[AuditName]struct{})
	}
}

type auditRecordJSON struct {
	ID             string      `json:"id"`
	SnapshotID     string      `json:"snapshot_id"`
	URL            string      `json:"url"`
	CompletedNames []AuditName `json:"completed_names"`
	AuditIDs       []string    `json:"audit_ids"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// MarshalJSON implements json.Marshaler.
func (r *AuditRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(auditRecordJSON{
		ID:             r.ID,
		SnapshotID:     r.SnapshotID,
		URL:            r.URL,
		CompletedNames: r.CompletedNames(),
		AuditIDs:       r.AuditIDs(),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *AuditRecord) UnmarshalJSON(data []byte) error {
	var v auditRecordJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	restored := RestoreAuditRecord(v.ID, v.SnapshotID, v.URL, v.CompletedNames, v.AuditIDs, v.CreatedAt, v.UpdatedAt)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ID = restored.ID
	r.SnapshotID = restored.SnapshotID
	r.URL = restored.URL
	r.CreatedAt = restored.CreatedAt
	r.UpdatedAt = restored.UpdatedAt
	r.completed = restored.completed
	r.inFlight = restored.inFlight
	r.auditIDs = restored.auditIDs
	return nil
}
