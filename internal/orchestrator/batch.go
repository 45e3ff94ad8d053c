package orchestrator

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/pageaudit/internal/model"
)

// Job is one snapshot to audit under a record.
type Job struct {
	Snapshot *model.Snapshot
	Record   *model.AuditRecord
}

// BatchResult is the outcome of one job.
type BatchResult struct {
	Job    Job
	Report *model.CompositeReport
	Err    error
}

// RunBatch audits several snapshots, up to the configured concurrency at a
// time, with checks inside each job running sequentially. Results keep the
// order of jobs. A failed job does not stop the others; its error is kept
// in its result.
func (o *Orchestrator) RunBatch(ctx context.Context, jobs []Job) []BatchResult {
	o.logger.Info("starting batch",
		"jobs", len(jobs),
		"concurrency", o.concurrency,
	)
	startTime := time.Now()

	results := make([]BatchResult, len(jobs))

	var g errgroup.Group
	g.SetLimit(o.concurrency)

	for i, job := range jobs {
		g.Go(func() error {
			report, err := o.Run(ctx, job.Snapshot, job.Record)
			results[i] = BatchResult{Job: job, Report: report, Err: err}
			if err != nil {
				o.logger.Warn("batch job failed", "index", i, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // goroutines never return errors

	o.logger.Info("batch complete",
		"jobs", len(jobs),
		"elapsed", time.Since(startTime),
	)
	return results
}
