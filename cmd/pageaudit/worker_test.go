package main

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/pageaudit/internal/queue"
)

func TestNewWorkerCmd(t *testing.T) {
	t.Parallel()

	cmd := NewWorkerCmd()
	for _, name := range []string{"redis-url", "queue", "channel", "poll-timeout", "concurrency"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "expected %s flag", name)
	}
}

func TestRunWorker(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.RedisURL = "redis://" + mr.Addr()
	cfg.Concurrency = 2

	st := setupTestStore(t)
	snapshot := saveTestSnapshot(t, st)

	rc, err := newRedisClient(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := rc.Subscribe(ctx)
	require.NoError(t, err)
	require.NoError(t, rc.PushTrigger(ctx, queue.Trigger{RecordID: "rec-worker", SnapshotID: snapshot.ID}))

	done := make(chan error, 1)
	go func() {
		done <- runWorker(ctx, cfg, st, rc, nil, 50*time.Millisecond, discardLogger())
	}()

	followCtx, cancelFollow := context.WithTimeout(ctx, 10*time.Second)
	defer cancelFollow()
	require.NoError(t, followEvents(followCtx, io.Discard, events, map[string]bool{"rec-worker": true}))

	require.Eventually(t, func() bool {
		record, err := st.GetRecord(context.Background(), "rec-worker")
		return err == nil && len(record.CompletedNames()) > 0
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
}
