package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/pageaudit/internal/model"
)

// SaveSnapshot stores a snapshot and its assets and returns its id.
// Snapshots are deduplicated by digest: saving identical content twice
// returns the id of the first copy. A snapshot without an id gets one.
func (s *Store) SaveSnapshot(ctx context.Context, snapshot *model.Snapshot) (string, error) {
	if err := snapshot.Validate(); err != nil {
		return "", err
	}
	if snapshot.ID == "" {
		snapshot.ID = uuid.NewString()
	}
	if snapshot.CapturedAt.IsZero() {
		snapshot.CapturedAt = time.Now().UTC()
	}

	elements, err := json.Marshal(snapshot.Elements)
	if err != nil {
		return "", fmt.Errorf("failed to serialize element records: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	digest := snapshot.Digest()
	var existing string
	err = tx.QueryRowContext(ctx, `SELECT id FROM snapshots WHERE digest = ?`, digest).Scan(&existing)
	switch {
	case err == nil:
		snapshot.ID = existing
		return existing, nil
	case !errors.Is(err, sql.ErrNoRows):
		return "", fmt.Errorf("failed to look up snapshot digest: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
	INSERT INTO snapshots (id, url, digest, markup, elements, captured_at)
	VALUES (?, ?, ?, ?, ?, ?)
	`,
		snapshot.ID,
		snapshot.URL,
		digest,
		snapshot.Markup,
		string(elements),
		formatTimestamp(snapshot.CapturedAt),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert snapshot: %w", err)
	}

	for src, data := range snapshot.Assets {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO snapshot_assets (snapshot_id, src, data) VALUES (?, ?, ?)
		ON CONFLICT(snapshot_id, src) DO UPDATE SET data = excluded.data
		`, snapshot.ID, src, data)
		if err != nil {
			return "", fmt.Errorf("failed to insert asset %s: %w", src, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return snapshot.ID, nil
}

// GetSnapshot retrieves a snapshot with its assets. It returns ErrNotFound
// if no snapshot has the id.
func (s *Store) GetSnapshot(ctx context.Context, id string) (*model.Snapshot, error) {
	var (
		snapshot   model.Snapshot
		elements   string
		capturedAt string
	)
	err := s.db.QueryRowContext(ctx, `
	SELECT id, url, markup, elements, captured_at FROM snapshots WHERE id = ?
	`, id).Scan(&snapshot.ID, &snapshot.URL, &snapshot.Markup, &elements, &capturedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("snapshot %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	snapshot.CapturedAt = parseTimestamp(capturedAt)

	if err := json.Unmarshal([]byte(elements), &snapshot.Elements); err != nil {
		return nil, fmt.Errorf("failed to parse element records: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT src, data FROM snapshot_assets WHERE snapshot_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			src  string
			data []byte
		)
		if err := rows.Scan(&src, &data); err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		if snapshot.Assets == nil {
			snapshot.Assets = make(map[string][]byte)
		}
		snapshot.Assets[src] = data
	}

	return &snapshot, rows.Err()
}
