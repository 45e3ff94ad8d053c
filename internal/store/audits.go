package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/nao1215/pageaudit/internal/model"
)

// SaveAudit persists a finished audit and its issues under a record and
// returns the audit id. Saving the same audit name twice for a record
// replaces the earlier copy, so a retried check never leaves duplicates.
func (s *Store) SaveAudit(ctx context.Context, recordID string, audit *model.Audit) (string, error) {
	if audit == nil {
		return "", model.ErrInvalidInput
	}
	if audit.ID == "" {
		audit.ID = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM audits WHERE record_id = ? AND name = ?`,
		recordID, audit.Name.String()); err != nil {
		return "", fmt.Errorf("failed to replace audit: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
	INSERT INTO audits (id, record_id, name, category, subcategory, points_awarded, points_max, url, rationale, scored, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		audit.ID,
		recordID,
		audit.Name.String(),
		audit.Category.String(),
		audit.Subcategory.String(),
		audit.PointsAwarded,
		audit.PointsMax,
		audit.URL,
		audit.Rationale,
		audit.Scored,
		formatTimestamp(audit.CreatedAt),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert audit: %w", err)
	}

	for i := range audit.Issues {
		issue := &audit.Issues[i]
		if issue.ID == "" {
			issue.ID = uuid.NewString()
		}
		labels, err := json.Marshal(issue.Labels)
		if err != nil {
			return "", fmt.Errorf("failed to serialize labels: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
		INSERT INTO issues (id, audit_id, position, priority, title, description, recommendation,
			category, labels, compliance_ref, selector, points_awarded, points_max)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			issue.ID,
			audit.ID,
			i,
			issue.Priority.String(),
			issue.Title,
			issue.Description,
			issue.Recommendation,
			issue.Category.String(),
			string(labels),
			issue.ComplianceRef,
			issue.Selector,
			issue.PointsAwarded,
			issue.PointsMax,
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert issue: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit audit: %w", err)
	}
	return audit.ID, nil
}

// LoadAudits returns every audit saved under a record in save order, each
// with its issues in their original order.
func (s *Store) LoadAudits(ctx context.Context, recordID string) ([]*model.Audit, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, name, category, subcategory, points_awarded, points_max, url, rationale, scored, created_at
	FROM audits WHERE record_id = ?
	ORDER BY created_at, rowid
	`, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audits: %w", err)
	}

	var audits []*model.Audit
	for rows.Next() {
		var (
			audit                           model.Audit
			name, category, sub, createdAt string
		)
		if err := rows.Scan(&audit.ID, &name, &category, &sub, &audit.PointsAwarded, &audit.PointsMax,
			&audit.URL, &audit.Rationale, &audit.Scored, &createdAt); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan audit: %w", err)
		}
		audit.Name = model.ParseAuditName(name)
		audit.Category = model.ParseCategory(category)
		audit.Subcategory = model.ParseSubcategory(sub)
		audit.CreatedAt = parseTimestamp(createdAt)
		audits = append(audits, &audit)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	// Issues are loaded after the audit cursor is closed: the pool holds a
	// single connection.
	for _, audit := range audits {
		issues, err := s.loadIssues(ctx, audit.ID)
		if err != nil {
			return nil, err
		}
		audit.Issues = issues
	}
	return audits, nil
}

func (s *Store) loadIssues(ctx context.Context, auditID string) ([]model.Issue, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, priority, title, description, recommendation, category, labels, compliance_ref,
		selector, points_awarded, points_max
	FROM issues WHERE audit_id = ? ORDER BY position
	`, auditID)
	if err != nil {
		return nil, fmt.Errorf("failed to query issues: %w", err)
	}
	defer rows.Close()

	issues := []model.Issue{}
	for rows.Next() {
		var (
			issue                      model.Issue
			priority, category, labels string
		)
		if err := rows.Scan(&issue.ID, &priority, &issue.Title, &issue.Description, &issue.Recommendation,
			&category, &labels, &issue.ComplianceRef, &issue.Selector,
			&issue.PointsAwarded, &issue.PointsMax); err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		p, err := model.ParsePriority(priority)
		if err != nil {
			return nil, fmt.Errorf("issue %s: %w", issue.ID, err)
		}
		issue.Priority = p
		issue.Category = model.ParseCategory(category)
		if err := json.Unmarshal([]byte(labels), &issue.Labels); err != nil {
			return nil, fmt.Errorf("failed to parse labels: %w", err)
		}
		issues = append(issues, issue)
	}
	return issues, rows.Err()
}
