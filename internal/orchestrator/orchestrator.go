package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/nao1215/pageaudit/internal/checks"
	"github.com/nao1215/pageaudit/internal/model"
	"github.com/nao1215/pageaudit/internal/scoring"
)

// CheckFailure is a recoverable failure of one check.
type CheckFailure struct {
	Name     model.AuditName
	Category model.Category
	Kind     model.ErrorKind
	Err      error
}

// Error implements error.
func (f *CheckFailure) Error() string {
	return fmt.Sprintf("%s %s: %v", f.Name, f.Kind, f.Err)
}

// Unwrap returns the underlying error.
func (f *CheckFailure) Unwrap() error {
	return f.Err
}

// Orchestrator runs a fixed, ordered list of checks against snapshots.
type Orchestrator struct {
	checks   []checks.Check
	expected scoring.Expected

	logger       *slog.Logger
	publisher    Publisher
	sink         AuditSink
	concurrency  int
	checkTimeout time.Duration
}

// Option is a function that configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithPublisher sets where progress and failure events are sent.
// Events are discarded if no publisher is set.
func WithPublisher(publisher Publisher) Option {
	return func(o *Orchestrator) {
		o.publisher = publisher
	}
}

// WithSink sets where finished audits are persisted. Audits are kept in
// memory if no sink is set.
func WithSink(sink AuditSink) Option {
	return func(o *Orchestrator) {
		o.sink = sink
	}
}

// WithConcurrency sets how many checks RunConcurrent executes at once.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithCheckTimeout bounds the context handed to each check. Zero means no bound.
func WithCheckTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.checkTimeout = d
	}
}

// New creates an Orchestrator over list. The list is copied; its order is
// the order checks run in and report progress.
func New(list []checks.Check, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		checks:      append([]checks.Check(nil), list...),
		expected:    checks.Expected(list),
		concurrency: 4,
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.publisher == nil {
		o.publisher = discardPublisher{}
	}
	if o.sink == nil {
		o.sink = NewMemorySink()
	}

	return o
}

// CheckCount returns the number of checks.
func (o *Orchestrator) CheckCount() int {
	return len(o.checks)
}

// CheckNames returns the check names in run order.
func (o *Orchestrator) CheckNames() []model.AuditName {
	names := make([]model.AuditName, len(o.checks))
	for i, c := range o.checks {
		names[i] = c.Name()
	}
	return names
}

// Expected returns the scored check names expected per category.
func (o *Orchestrator) Expected() scoring.Expected {
	return o.expected
}

// Run executes every check not yet completed on record, one at a time in
// list order, and returns the composite report. Check failures never fail
// the run; the only errors returned are for a nil snapshot or record.
//
// Once started, a run attempts every remaining check even if ctx is
// cancelled; checks receive ctx and decide for themselves how to honor it.
func (o *Orchestrator) Run(ctx context.Context, snapshot *model.Snapshot, record *model.AuditRecord) (*model.CompositeReport, error) {
	if err := validate(snapshot, record); err != nil {
		return nil, err
	}

	total := len(o.checks)
	for i, c := range o.checks {
		if !record.Claim(c.Name()) {
			o.logger.Debug("check skipped",
				"check", c.Name(),
				"record", record.ID,
			)
			continue
		}
		failure := o.attempt(ctx, c, snapshot, record)
		o.emit(ctx, record, c, scoring.Ratio(i+1, total), failure)
	}

	return o.finish(ctx, record)
}

func validate(snapshot *model.Snapshot, record *model.AuditRecord) error {
	if snapshot == nil {
		return fmt.Errorf("%w: nil snapshot", model.ErrInvalidInput)
	}
	if record == nil {
		return fmt.Errorf("%w: nil record", model.ErrInvalidInput)
	}
	return nil
}

// attempt executes one claimed check, persists its audit and settles the
// claim. It returns nil on success.
func (o *Orchestrator) attempt(ctx context.Context, c checks.Check, snapshot *model.Snapshot, record *model.AuditRecord) *CheckFailure {
	o.logger.Info("executing check",
		"check", c.Name(),
		"record", record.ID,
	)

	audit, failure := o.execute(ctx, c, snapshot, record)
	if failure == nil {
		id, err := o.sink.SaveAudit(ctx, record.ID, audit)
		if err != nil {
			failure = &CheckFailure{Name: c.Name(), Category: c.Category(), Kind: model.ErrorKindPersist, Err: err}
		} else {
			record.Complete(c.Name(), id)
		}
	}

	if failure != nil {
		record.Release(c.Name())
		o.logger.Error("check failed",
			"check", c.Name(),
			"record", record.ID,
			"kind", failure.Kind,
			"error", failure.Err,
		)
		return failure
	}

	o.logger.Debug("check completed",
		"check", c.Name(),
		"record", record.ID,
		"points_awarded", audit.PointsAwarded,
		"points_max", audit.PointsMax,
	)
	return nil
}

// execute runs the check inside a failure boundary that turns errors and
// panics into a CheckFailure.
func (o *Orchestrator) execute(ctx context.Context, c checks.Check, snapshot *model.Snapshot, record *model.AuditRecord) (audit *model.Audit, failure *CheckFailure) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Debug("check panicked", "check", c.Name(), "stack", string(debug.Stack()))
			audit = nil
			failure = &CheckFailure{
				Name:     c.Name(),
				Category: c.Category(),
				Kind:     model.ErrorKindPanic,
				Err:      fmt.Errorf("panic: %v", r),
			}
		}
	}()

	if o.checkTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.checkTimeout)
		defer cancel()
	}

	audit, err := c.Execute(ctx, snapshot, record)
	if err == nil && audit == nil {
		err = errors.New("check returned no audit")
	}
	if err != nil {
		return nil, &CheckFailure{Name: c.Name(), Category: c.Category(), Kind: model.ErrorKindCheck, Err: err}
	}
	return audit, nil
}

// emit publishes the failure event, if any, and the progress event for one
// attempted check.
func (o *Orchestrator) emit(ctx context.Context, record *model.AuditRecord, c checks.Check, progress float64, failure *CheckFailure) {
	status := StatusCheckCompleted
	if failure != nil {
		status = StatusCheckFailed
		event := model.FailureEvent{
			Message:      model.NewMessage(),
			RecordID:     record.ID,
			AuditName:    c.Name(),
			Category:     c.Category(),
			Progress:     progress,
			ErrorKind:    failure.Kind,
			ErrorMessage: failure.Err.Error(),
		}
		if err := o.publisher.PublishFailure(ctx, event); err != nil {
			o.logger.Warn("failed to publish failure event", "check", c.Name(), "error", err)
		}
	}

	o.publishProgress(ctx, model.ProgressEvent{
		Message:   model.NewMessage(),
		RecordID:  record.ID,
		Category:  c.Category(),
		AuditName: c.Name(),
		Progress:  progress,
		Status:    status,
		Level:     model.LevelPage,
	})
}

func (o *Orchestrator) publishProgress(ctx context.Context, event model.ProgressEvent) {
	if err := o.publisher.PublishProgress(ctx, event); err != nil {
		o.logger.Warn("failed to publish progress event", "record", event.RecordID, "error", err)
	}
}

// finish publishes the closing progress event and builds the composite
// report from every audit stored for the record.
func (o *Orchestrator) finish(ctx context.Context, record *model.AuditRecord) (*model.CompositeReport, error) {
	o.publishProgress(ctx, model.ProgressEvent{
		Message:  model.NewMessage(),
		RecordID: record.ID,
		Progress: 1.0,
		Status:   StatusRunComplete,
		Level:    model.LevelPage,
	})

	audits, err := o.sink.LoadAudits(ctx, record.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load audits of record %s: %w", record.ID, err)
	}

	report := scoring.Composite(record, audits, o.expected)
	o.logger.Info("run complete",
		"record", record.ID,
		"status", report.Status,
		"audits", len(audits),
	)
	return report, nil
}
