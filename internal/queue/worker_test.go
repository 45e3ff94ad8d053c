package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/pageaudit/internal/model"
)

// errSource fails every pop.
type errSource struct{ err error }

func (s errSource) PopTrigger(context.Context, time.Duration) (*Trigger, error) {
	return nil, s.err
}

func TestWorker_Run(t *testing.T) {
	t.Run("processes queued triggers until cancelled", func(t *testing.T) {
		client, mr := setupTestClient(t)
		s := setupTestStore(t)
		snapshotID := saveSnapshot(t, s)
		runner := &mockRunner{name: model.AuditNameLinks}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		reports := make(chan *model.CompositeReport, 4)
		w := NewWorker(client, NewProcessor(s, runner, nil),
			WithPollTimeout(100*time.Millisecond),
			WithReportHandler(func(r *model.CompositeReport) { reports <- r }),
		)

		require.NoError(t, client.PushTrigger(ctx, Trigger{RecordID: "rec-1", SnapshotID: snapshotID}))
		_, err := mr.Lpush(DefaultQueue, "garbage")
		require.NoError(t, err)
		require.NoError(t, client.PushTrigger(ctx, Trigger{RecordID: "rec-2", SnapshotID: "missing"}))
		require.NoError(t, client.PushTrigger(ctx, Trigger{RecordID: "rec-3", SnapshotID: snapshotID}))

		done := make(chan error, 1)
		go func() { done <- w.Run(ctx) }()

		for _, want := range []string{"rec-1", "rec-3"} {
			select {
			case report := <-reports:
				assert.Equal(t, want, report.RecordID)
			case <-time.After(5 * time.Second):
				t.Fatalf("timeout waiting for report %s", want)
			}
		}

		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("worker did not stop")
		}
		assert.Equal(t, int32(2), runner.calls.Load())
	})

	t.Run("source error stops the worker", func(t *testing.T) {
		sourceErr := errors.New("connection reset")
		w := NewWorker(errSource{err: sourceErr}, NewProcessor(setupTestStore(t), &mockRunner{}, nil))

		err := w.Run(context.Background())
		assert.ErrorIs(t, err, sourceErr)
	})

	t.Run("cancelled context returns nil", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		w := NewWorker(errSource{err: ErrNoMessage}, NewProcessor(setupTestStore(t), &mockRunner{}, nil))
		assert.NoError(t, w.Run(ctx))
	})
}
