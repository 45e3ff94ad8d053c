package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nao1215/pageaudit/internal/model"
	"github.com/nao1215/pageaudit/internal/store"
)

// Repository loads the inputs of a run and saves the updated record.
// *store.Store implements it.
type Repository interface {
	GetSnapshot(ctx context.Context, id string) (*model.Snapshot, error)
	GetRecord(ctx context.Context, id string) (*model.AuditRecord, error)
	SaveRecord(ctx context.Context, record *model.AuditRecord) error
}

// Runner performs one run of every check against a snapshot.
// *orchestrator.Orchestrator implements it.
type Runner interface {
	Run(ctx context.Context, snapshot *model.Snapshot, record *model.AuditRecord) (*model.CompositeReport, error)
}

// RunnerFunc adapts a function to Runner, e.g. Orchestrator.RunConcurrent.
type RunnerFunc func(ctx context.Context, snapshot *model.Snapshot, record *model.AuditRecord) (*model.CompositeReport, error)

// Run implements Runner.
func (f RunnerFunc) Run(ctx context.Context, snapshot *model.Snapshot, record *model.AuditRecord) (*model.CompositeReport, error) {
	return f(ctx, snapshot, record)
}

// Processor turns a trigger into exactly one run. Triggers for the same
// record are processed one at a time.
type Processor struct {
	repo   Repository
	runner Runner
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*recordLock
}

// recordLock serializes runs of one record. refs counts holders and waiters.
type recordLock struct {
	ch   chan struct{}
	refs int
}

// lock waits until no other run of recordID is in progress. The returned
// function releases the lock.
func (p *Processor) lock(ctx context.Context, recordID string) (func(), error) {
	p.mu.Lock()
	if p.locks == nil {
		p.locks = make(map[string]*recordLock)
	}
	l, ok := p.locks[recordID]
	if !ok {
		l = &recordLock{ch: make(chan struct{}, 1)}
		p.locks[recordID] = l
	}
	l.refs++
	p.mu.Unlock()

	unref := func() {
		p.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(p.locks, recordID)
		}
		p.mu.Unlock()
	}

	select {
	case l.ch <- struct{}{}:
	case <-ctx.Done():
		unref()
		return nil, ctx.Err()
	}
	return func() {
		<-l.ch
		unref()
	}, nil
}

// NewProcessor creates a Processor. A nil logger uses slog.Default().
func NewProcessor(repo Repository, runner Runner, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{repo: repo, runner: runner, logger: logger}
}

// Process loads the trigger's snapshot and record, runs the checks and
// saves the record. A missing record is created. Check failures do not
// fail the run; only an invalid trigger, a missing snapshot or a storage
// error does. A second trigger for a record waits for the first to be saved
// and then skips the checks it completed.
func (p *Processor) Process(ctx context.Context, trigger Trigger) (*model.CompositeReport, error) {
	if err := trigger.Validate(); err != nil {
		return nil, err
	}

	unlock, err := p.lock(ctx, trigger.RecordID)
	if err != nil {
		return nil, fmt.Errorf("failed to wait for record %s: %w", trigger.RecordID, err)
	}
	defer unlock()

	snapshot, err := p.repo.GetSnapshot(ctx, trigger.SnapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	record, err := p.repo.GetRecord(ctx, trigger.RecordID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		record = model.NewAuditRecord(trigger.RecordID, snapshot.ID, snapshot.URL)
		p.logger.Debug("created record", "record_id", record.ID, "snapshot_id", snapshot.ID)
	case err != nil:
		return nil, fmt.Errorf("failed to load record: %w", err)
	case record.SnapshotID != snapshot.ID:
		return nil, fmt.Errorf("%w: record %s audits snapshot %s, not %s",
			model.ErrInvalidInput, record.ID, record.SnapshotID, snapshot.ID)
	}

	report, runErr := p.runner.Run(ctx, snapshot, record)

	// Completed checks are kept even when the run ended early.
	if err := p.repo.SaveRecord(ctx, record); err != nil {
		return nil, errors.Join(runErr, fmt.Errorf("failed to save record: %w", err))
	}
	if runErr != nil {
		return nil, runErr
	}
	return report, nil
}
