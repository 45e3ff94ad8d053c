package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nao1215/pageaudit/internal/model"
)

// SaveRecord inserts or updates an audit record.
func (s *Store) SaveRecord(ctx context.Context, record *model.AuditRecord) error {
	completed, err := json.Marshal(record.CompletedNames())
	if err != nil {
		return fmt.Errorf("failed to serialize completed names: %w", err)
	}
	auditIDs, err := json.Marshal(record.AuditIDs())
	if err != nil {
		return fmt.Errorf("failed to serialize audit ids: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
	INSERT INTO records (id, snapshot_id, url, completed, audit_ids, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		completed = excluded.completed,
		audit_ids = excluded.audit_ids,
		updated_at = excluded.updated_at
	`,
		record.ID,
		record.SnapshotID,
		record.URL,
		string(completed),
		string(auditIDs),
		formatTimestamp(record.CreatedAt),
		formatTimestamp(record.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	return nil
}

// GetRecord retrieves an audit record. It returns ErrNotFound if no record
// has the id.
func (s *Store) GetRecord(ctx context.Context, id string) (*model.AuditRecord, error) {
	var (
		recordID, snapshotID, url string
		completedJSON, idsJSON    string
		createdAt, updatedAt      string
	)
	err := s.db.QueryRowContext(ctx, `
	SELECT id, snapshot_id, url, completed, audit_ids, created_at, updated_at
	FROM records WHERE id = ?
	`, id).Scan(&recordID, &snapshotID, &url, &completedJSON, &idsJSON, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("record %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	var completed []model.AuditName
	if err := json.Unmarshal([]byte(completedJSON), &completed); err != nil {
		return nil, fmt.Errorf("failed to parse completed names: %w", err)
	}
	var auditIDs []string
	if err := json.Unmarshal([]byte(idsJSON), &auditIDs); err != nil {
		return nil, fmt.Errorf("failed to parse audit ids: %w", err)
	}

	return model.RestoreAuditRecord(recordID, snapshotID, url, completed, auditIDs,
		parseTimestamp(createdAt), parseTimestamp(updatedAt)), nil
}

// RecordSummary describes a stored record without loading its audits.
type RecordSummary struct {
	ID         string
	SnapshotID string
	URL        string
	Completed  int
	UpdatedAt  time.Time
}

// ListRecords returns every record, most recently updated first.
func (s *Store) ListRecords(ctx context.Context) ([]RecordSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, snapshot_id, url, completed, updated_at FROM records
	ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var results []RecordSummary
	for rows.Next() {
		var (
			summary       RecordSummary
			completedJSON string
			updatedAt     string
		)
		if err := rows.Scan(&summary.ID, &summary.SnapshotID, &summary.URL, &completedJSON, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		var completed []model.AuditName
		if err := json.Unmarshal([]byte(completedJSON), &completed); err == nil {
			summary.Completed = len(completed)
		}
		summary.UpdatedAt = parseTimestamp(updatedAt)
		results = append(results, summary)
	}
	return results, rows.Err()
}
