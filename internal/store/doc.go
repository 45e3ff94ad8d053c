// Package store provides SQLite-based persistence for pageaudit.
//
// The store holds captured snapshots (with their element records and image
// assets), audit records, audits and the issues of each audit. It
// implements orchestrator.AuditSink, so a run persists every finished audit
// as soon as its check completes.
//
// The database is a single file opened through modernc.org/sqlite, which is
// CGO-free, with WAL journaling so report readers do not block a running
// worker.
package store
