package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/pageaudit/internal/model"
	"github.com/nao1215/pageaudit/internal/store"
)

// mockRunner completes one audit name per run and counts calls.
type mockRunner struct {
	calls atomic.Int32
	name  model.AuditName
	err   error
}

func (m *mockRunner) Run(_ context.Context, snapshot *model.Snapshot, record *model.AuditRecord) (*model.CompositeReport, error) {
	m.calls.Add(1)
	if record.Claim(m.name) {
		record.Complete(m.name, "audit-"+m.name.String())
	}
	if m.err != nil {
		return nil, m.err
	}
	return &model.CompositeReport{RecordID: record.ID, URL: snapshot.URL, Status: model.StatusComplete}, nil
}

// slowRunner runs one check slowly and counts how often it executes.
type slowRunner struct {
	executions atomic.Int32
	name       model.AuditName
	delay      time.Duration
}

func (r *slowRunner) Run(_ context.Context, snapshot *model.Snapshot, record *model.AuditRecord) (*model.CompositeReport, error) {
	if record.Claim(r.name) {
		r.executions.Add(1)
		time.Sleep(r.delay)
		record.Complete(r.name, "audit-"+r.name.String())
	}
	return &model.CompositeReport{RecordID: record.ID, URL: snapshot.URL}, nil
}

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.Open(t.TempDir(), store.DefaultOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func saveSnapshot(t *testing.T, s *store.Store) string {
	t.Helper()

	id, err := s.SaveSnapshot(context.Background(), &model.Snapshot{
		URL:    "https://example.com",
		Markup: "<html><body><h1>hi</h1></body></html>",
	})
	require.NoError(t, err)
	return id
}

func TestProcessor_Process(t *testing.T) {
	t.Parallel()

	t.Run("creates missing record and saves progress", func(t *testing.T) {
		t.Parallel()

		s := setupTestStore(t)
		snapshotID := saveSnapshot(t, s)
		runner := &mockRunner{name: model.AuditNameLinks}
		p := NewProcessor(s, runner, nil)

		report, err := p.Process(context.Background(), Trigger{RecordID: "rec-1", SnapshotID: snapshotID})
		require.NoError(t, err)
		assert.Equal(t, "rec-1", report.RecordID)
		assert.Equal(t, "https://example.com", report.URL)

		record, err := s.GetRecord(context.Background(), "rec-1")
		require.NoError(t, err)
		assert.True(t, record.IsCompleted(model.AuditNameLinks))
		assert.Equal(t, snapshotID, record.SnapshotID)
	})

	t.Run("continues an existing record", func(t *testing.T) {
		t.Parallel()

		s := setupTestStore(t)
		snapshotID := saveSnapshot(t, s)
		existing := model.NewAuditRecord("rec-2", snapshotID, "https://example.com")
		existing.Claim(model.AuditNameTitles)
		existing.Complete(model.AuditNameTitles, "audit-titles")
		require.NoError(t, s.SaveRecord(context.Background(), existing))

		p := NewProcessor(s, &mockRunner{name: model.AuditNameLinks}, nil)
		_, err := p.Process(context.Background(), Trigger{RecordID: "rec-2", SnapshotID: snapshotID})
		require.NoError(t, err)

		record, err := s.GetRecord(context.Background(), "rec-2")
		require.NoError(t, err)
		assert.True(t, record.IsCompleted(model.AuditNameTitles))
		assert.True(t, record.IsCompleted(model.AuditNameLinks))
		assert.Len(t, record.AuditIDs(), 2)
	})

	t.Run("missing snapshot is a run failure", func(t *testing.T) {
		t.Parallel()

		s := setupTestStore(t)
		runner := &mockRunner{name: model.AuditNameLinks}
		p := NewProcessor(s, runner, nil)

		_, err := p.Process(context.Background(), Trigger{RecordID: "rec-3", SnapshotID: "missing"})
		require.ErrorIs(t, err, store.ErrNotFound)
		assert.Equal(t, int32(0), runner.calls.Load())
	})

	t.Run("record of another snapshot is rejected", func(t *testing.T) {
		t.Parallel()

		s := setupTestStore(t)
		snapshotID := saveSnapshot(t, s)
		require.NoError(t, s.SaveRecord(context.Background(), model.NewAuditRecord("rec-6", "other-snapshot", "https://example.org")))

		runner := &mockRunner{name: model.AuditNameLinks}
		_, err := NewProcessor(s, runner, nil).Process(context.Background(), Trigger{RecordID: "rec-6", SnapshotID: snapshotID})
		require.ErrorIs(t, err, model.ErrInvalidInput)
		assert.Equal(t, int32(0), runner.calls.Load())
	})

	t.Run("concurrent triggers for one record run each check once", func(t *testing.T) {
		t.Parallel()

		s := setupTestStore(t)
		snapshotID := saveSnapshot(t, s)
		runner := &slowRunner{name: model.AuditNameLinks, delay: 100 * time.Millisecond}
		p := NewProcessor(s, runner, nil)

		var wg sync.WaitGroup
		errs := make(chan error, 2)
		for range 2 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := p.Process(context.Background(), Trigger{RecordID: "rec-7", SnapshotID: snapshotID})
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		assert.Equal(t, int32(1), runner.executions.Load())
		record, err := s.GetRecord(context.Background(), "rec-7")
		require.NoError(t, err)
		assert.Len(t, record.AuditIDs(), 1)
		assert.Empty(t, p.locks)
	})

	t.Run("waiting for a busy record honors cancellation", func(t *testing.T) {
		t.Parallel()

		p := NewProcessor(setupTestStore(t), &mockRunner{}, nil)
		unlock, err := p.lock(context.Background(), "rec-8")
		require.NoError(t, err)
		defer unlock()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = p.Process(ctx, Trigger{RecordID: "rec-8", SnapshotID: "snap"})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("invalid trigger", func(t *testing.T) {
		t.Parallel()

		p := NewProcessor(setupTestStore(t), &mockRunner{}, nil)
		_, err := p.Process(context.Background(), Trigger{})
		assert.ErrorIs(t, err, model.ErrInvalidInput)
	})

	t.Run("run error still saves completed checks", func(t *testing.T) {
		t.Parallel()

		s := setupTestStore(t)
		snapshotID := saveSnapshot(t, s)
		runErr := errors.New("load audits failed")
		p := NewProcessor(s, &mockRunner{name: model.AuditNameMetadata, err: runErr}, nil)

		_, err := p.Process(context.Background(), Trigger{RecordID: "rec-4", SnapshotID: snapshotID})
		require.ErrorIs(t, err, runErr)

		record, err := s.GetRecord(context.Background(), "rec-4")
		require.NoError(t, err)
		assert.True(t, record.IsCompleted(model.AuditNameMetadata))
	})

	t.Run("RunnerFunc adapts a function", func(t *testing.T) {
		t.Parallel()

		s := setupTestStore(t)
		snapshotID := saveSnapshot(t, s)
		var called atomic.Bool
		runner := RunnerFunc(func(_ context.Context, _ *model.Snapshot, record *model.AuditRecord) (*model.CompositeReport, error) {
			called.Store(true)
			return &model.CompositeReport{RecordID: record.ID, GeneratedAt: time.Now()}, nil
		})

		_, err := NewProcessor(s, runner, nil).Process(context.Background(), Trigger{RecordID: "rec-5", SnapshotID: snapshotID})
		require.NoError(t, err)
		assert.True(t, called.Load())
	})
}
