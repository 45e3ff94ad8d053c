package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/pageaudit/internal/config"
	"github.com/nao1215/pageaudit/internal/model"
	"github.com/nao1215/pageaudit/internal/queue"
	"github.com/nao1215/pageaudit/internal/store"
)

// NewWorkerCmd creates the worker command.
func NewWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run audits from a Redis trigger queue",
		Long: `Worker pops triggers ({"record_id": ..., "snapshot_id": ...}) from a Redis
list and runs the checks of each against the stored snapshot. Progress and
failure events are published on a Redis channel.

The worker stops on SIGINT or SIGTERM after the current run.

Examples:
  # Consume the default queue on a local Redis
  pageaudit worker

  # Use a remote Redis and run checks sequentially
  pageaudit worker --redis-url redis://:secret@redis:6379/0 -n 1`,
		Args: cobra.NoArgs,
		RunE: runWorkerCmd,
	}

	addRunFlags(cmd)
	addRedisFlags(cmd)
	cmd.Flags().Duration("poll-timeout", time.Second, "How long one BRPOP waits for a trigger before checking for shutdown")

	return cmd
}

func runWorkerCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildServiceConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	pollTimeout, err := cmd.Flags().GetDuration("poll-timeout")
	if err != nil {
		return err
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose, true)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.DBDir, store.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()

	rc, err := newRedisClient(cfg)
	if err != nil {
		return err
	}
	defer rc.Close()

	base, err := newBaseFetcher(cfg, logger)
	if err != nil {
		return err
	}
	defer base.Close()

	return runWorker(ctx, cfg, st, rc, base.Client(), pollTimeout, logger)
}

// buildServiceConfig reads the flags shared by the long-running commands.
func buildServiceConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadBaseConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := readRunFlags(cmd, cfg); err != nil {
		return nil, err
	}
	if err := readRedisFlags(cmd, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runWorker(ctx context.Context, cfg *config.Config, st *store.Store, rc *queue.RedisClient, client *http.Client, pollTimeout time.Duration, logger *slog.Logger) error {
	if !cfg.ProbeLinks {
		client = nil
	}
	processor := queueProcessor(runnerConfig{
		cfg:       cfg,
		client:    client,
		publisher: rc,
		sink:      st,
		logger:    logger,
	}, st)

	worker := queue.NewWorker(rc, processor,
		queue.WithWorkerLogger(logger),
		queue.WithPollTimeout(pollTimeout),
		queue.WithReportHandler(func(r *model.CompositeReport) {
			logger.Info("record updated",
				"record_id", r.RecordID,
				"url", r.URL,
				"status", r.Status,
			)
		}),
	)

	if n, err := rc.QueueLength(ctx); err == nil {
		logger.Info("worker starting", "queue", cfg.Queue, "pending", n)
	}
	return worker.Run(ctx)
}
