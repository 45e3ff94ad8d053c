package orchestrator

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/pageaudit/internal/model"
	"github.com/nao1215/pageaudit/internal/scoring"
)

// RunConcurrent behaves like Run but executes up to the configured number
// of checks at once. Claims on the record keep each check to a single
// execution, and progress is emitted under a lock from a shared count of
// attempted checks so the published fraction never decreases.
func (o *Orchestrator) RunConcurrent(ctx context.Context, snapshot *model.Snapshot, record *model.AuditRecord) (*model.CompositeReport, error) {
	if err := validate(snapshot, record); err != nil {
		return nil, err
	}

	var (
		mu        sync.Mutex
		attempted int
		total     = len(o.checks)
	)

	// A plain group: one check failing must not cancel its siblings.
	var g errgroup.Group
	g.SetLimit(o.concurrency)

	for _, c := range o.checks {
		if !record.Claim(c.Name()) {
			o.logger.Debug("check skipped",
				"check", c.Name(),
				"record", record.ID,
			)
			continue
		}
		g.Go(func() error {
			failure := o.attempt(ctx, c, snapshot, record)

			mu.Lock()
			defer mu.Unlock()
			attempted++
			o.emit(ctx, record, c, scoring.Ratio(attempted, total), failure)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // goroutines never return errors

	return o.finish(ctx, record)
}
