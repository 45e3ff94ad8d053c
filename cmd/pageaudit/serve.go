package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/pageaudit/internal/config"
	"github.com/nao1215/pageaudit/internal/model"
	"github.com/nao1215/pageaudit/internal/server"
	"github.com/nao1215/pageaudit/internal/store"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run audits from HTTP push triggers",
		Long: `Serve starts an HTTP endpoint that runs one audit per request.

Routes:
  POST /                      run a trigger; accepts a bare trigger JSON or a
                              push envelope {"message":{"data":"<base64>"}}
  GET  /records/{id}/report   the composite report of a record
  GET  /healthz               liveness probe

Examples:
  # Listen on the default address
  pageaudit serve

  # Publish progress events to Redis while serving
  pageaudit serve --listen :9000 --publish-events`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	addRunFlags(cmd)
	addRedisFlags(cmd)
	cmd.Flags().StringP("listen", "l", config.DefaultListenAddr, "Address the HTTP endpoint listens on")
	cmd.Flags().Bool("publish-events", false, "Publish progress and failure events to Redis")

	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildServiceConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.ListenAddr, err = cmd.Flags().GetString("listen"); err != nil {
		return err
	}
	publish, err := cmd.Flags().GetBool("publish-events")
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
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

	base, err := newBaseFetcher(cfg, logger)
	if err != nil {
		return err
	}
	defer base.Close()

	rc := runnerConfig{cfg: cfg, sink: st, logger: logger}
	if cfg.ProbeLinks {
		rc.client = base.Client()
	}
	if publish {
		redisClient, err := newRedisClient(cfg)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		rc.publisher = redisClient
	}

	return newServer(rc, st).ListenAndServe(ctx, cfg.ListenAddr)
}

// newServer wires the HTTP endpoint to the store and a per-snapshot runner.
func newServer(rc runnerConfig, st *store.Store) *server.Server {
	processor := queueProcessor(rc, st)
	reporter := server.ReporterFunc(func(ctx context.Context, recordID string) (*model.CompositeReport, error) {
		return storedReport(ctx, rc.cfg, st, recordID)
	})
	return server.New(processor, reporter, rc.logger)
}

// storedReport derives a record's composite report from the store.
func storedReport(ctx context.Context, cfg *config.Config, st *store.Store, recordID string) (*model.CompositeReport, error) {
	record, err := st.GetRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	expected, err := expectedFor(cfg, record.URL)
	if err != nil {
		return nil, err
	}
	return st.Report(ctx, recordID, expected)
}
