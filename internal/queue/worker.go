package queue

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nao1215/pageaudit/internal/model"
)

// Source yields triggers. *RedisClient implements it.
type Source interface {
	PopTrigger(ctx context.Context, timeout time.Duration) (*Trigger, error)
}

// Worker consumes triggers until its context is cancelled.
type Worker struct {
	source    Source
	processor *Processor
	logger    *slog.Logger
	poll      time.Duration
	onReport  func(*model.CompositeReport)
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithWorkerLogger sets the worker's logger.
func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithPollTimeout sets how long one BRPOP waits before the worker checks
// for cancellation again.
func WithPollTimeout(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.poll = d
		}
	}
}

// WithReportHandler registers a callback invoked after every successful run.
func WithReportHandler(fn func(*model.CompositeReport)) WorkerOption {
	return func(w *Worker) {
		w.onReport = fn
	}
}

// NewWorker creates a Worker.
func NewWorker(source Source, processor *Processor, opts ...WorkerOption) *Worker {
	w := &Worker{
		source:    source,
		processor: processor,
		logger:    slog.Default(),
		poll:      time.Second,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run processes triggers one at a time. It returns nil when ctx is
// cancelled and an error only when the source fails.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("worker started")
	defer w.logger.Info("worker stopped")

	for {
		if ctx.Err() != nil {
			return nil
		}

		trigger, err := w.source.PopTrigger(ctx, w.poll)
		switch {
		case errors.Is(err, ErrNoMessage):
			continue
		case errors.Is(err, ErrMalformedTrigger):
			w.logger.Warn("dropping malformed trigger", "error", err)
			continue
		case ctx.Err() != nil:
			return nil
		case err != nil:
			return err
		}

		w.handle(ctx, *trigger)
	}
}

func (w *Worker) handle(ctx context.Context, trigger Trigger) {
	logger := w.logger.With("record_id", trigger.RecordID, "snapshot_id", trigger.SnapshotID)
	logger.Info("trigger received")

	report, err := w.processor.Process(ctx, trigger)
	if err != nil {
		logger.Error("run failed", "error", err)
		return
	}

	logger.Info("run finished", "status", report.Status)
	if w.onReport != nil {
		w.onReport(report)
	}
}
