package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// FileName is the database file created inside the data directory.
const FileName = "pageaudit.db"

// ErrNotFound is returned when a snapshot or record does not exist.
var ErrNotFound = errors.New("not found")

// Store provides SQLite-based storage for snapshots, records and audits.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the store in dbDir.
func Open(dbDir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s: %w", dbPath, ErrNotFound)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := dbPath + "?mode=rw&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		digest TEXT NOT NULL UNIQUE,
		markup TEXT NOT NULL,
		elements TEXT NOT NULL DEFAULT '{}',
		captured_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS snapshot_assets (
		snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
		src TEXT NOT NULL,
		data BLOB NOT NULL,
		PRIMARY KEY (snapshot_id, src)
	);

	CREATE TABLE IF NOT EXISTS records (
		id TEXT PRIMARY KEY,
		snapshot_id TEXT NOT NULL,
		url TEXT NOT NULL,
		completed TEXT NOT NULL DEFAULT '[]',
		audit_ids TEXT NOT NULL DEFAULT '[]',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_records_snapshot ON records(snapshot_id);

	CREATE TABLE IF NOT EXISTS audits (
		id TEXT PRIMARY KEY,
		record_id TEXT NOT NULL,
		name TEXT NOT NULL,
		category TEXT NOT NULL,
		subcategory TEXT NOT NULL,
		points_awarded INTEGER NOT NULL,
		points_max INTEGER NOT NULL,
		url TEXT NOT NULL,
		rationale TEXT NOT NULL,
		scored INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE(record_id, name)
	);

	CREATE INDEX IF NOT EXISTS idx_audits_record ON audits(record_id);

	CREATE TABLE IF NOT EXISTS issues (
		id TEXT PRIMARY KEY,
		audit_id TEXT NOT NULL REFERENCES audits(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		priority TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		recommendation TEXT NOT NULL,
		category TEXT NOT NULL,
		labels TEXT NOT NULL DEFAULT '[]',
		compliance_ref TEXT NOT NULL,
		selector TEXT NOT NULL,
		points_awarded INTEGER NOT NULL,
		points_max INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_issues_audit ON issues(audit_id);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// timestampFormats contains the timestamp formats that SQLite may return.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp parses a stored timestamp, returning zero time if no
// format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
