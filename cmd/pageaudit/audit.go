package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nao1215/pageaudit/internal/config"
	"github.com/nao1215/pageaudit/internal/fetch"
	"github.com/nao1215/pageaudit/internal/model"
	"github.com/nao1215/pageaudit/internal/orchestrator"
	"github.com/nao1215/pageaudit/internal/queue"
	"github.com/nao1215/pageaudit/internal/report"
	"github.com/nao1215/pageaudit/internal/store"
)

var (
	// errRecordWithManyTargets is returned when --record is combined with
	// more than one target.
	errRecordWithManyTargets = errors.New("--record can be used with at most one target")

	// errFollowWithoutEnqueue is returned when --follow is set without --enqueue.
	errFollowWithoutEnqueue = errors.New("--follow requires --enqueue")
)

// NewAuditCmd creates the audit command.
func NewAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit [url|file.html]...",
		Short: "Capture and audit web pages",
		Long: `Audit captures each target page, stores the snapshot and runs every check
against it. Targets are http(s) URLs, file:// URLs or paths to HTML files.

A record accumulates the results of a snapshot. Checks already completed on
the record are skipped, so an interrupted audit can be resumed with --record.

Examples:
  # Audit a page
  pageaudit audit https://example.com

  # Audit a local file and write a Markdown report
  pageaudit audit ./index.html --markdown -o report.md

  # Audit several pages, three at a time
  pageaudit audit -n 3 https://example.com https://example.org

  # Resume an interrupted record
  pageaudit audit --record 6f1c...

  # Capture the page and leave the run to a worker
  pageaudit audit --enqueue --follow https://example.com

Configuration file (.pageaudit) example:
  defaults:
    probeLinks: true
  sites:
    example.com:
      cookie: "session_id=abc123"
      headers:
        Authorization: "Bearer token"
      disabledChecks: [IMAGE_COPYRIGHT]`,
		Args: cobra.ArbitraryArgs,
		RunE: runAuditCmd,
	}

	addRunFlags(cmd)
	addOutputFlags(cmd)
	addRedisFlags(cmd)
	cmd.Flags().StringP("record", "r", "", "Continue an existing record instead of starting a new one")
	cmd.Flags().Bool("enqueue", false, "Capture and store the page, then queue the run for a worker")
	cmd.Flags().Bool("follow", false, "With --enqueue, print progress events until the runs complete")

	return cmd
}

// auditOptions are audit flags that do not belong in config.Config.
type auditOptions struct {
	enqueue bool
	follow  bool
}

func runAuditCmd(cmd *cobra.Command, args []string) error {
	cfg, opts, err := buildAuditConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := validateAuditConfig(cfg, opts); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose, false)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.DBDir, store.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()
	logger.Info("database opened", "path", st.Path())

	if opts.enqueue {
		return runEnqueue(ctx, cmd.OutOrStdout(), cfg, opts, st, logger)
	}
	return runAudit(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, st, logger)
}

func buildAuditConfig(cmd *cobra.Command, args []string) (*config.Config, auditOptions, error) {
	var opts auditOptions

	cfg, err := loadBaseConfig(cmd)
	if err != nil {
		return nil, opts, err
	}
	if err := readRunFlags(cmd, cfg); err != nil {
		return nil, opts, err
	}
	if err := readOutputFlags(cmd, cfg); err != nil {
		return nil, opts, err
	}
	if err := readRedisFlags(cmd, cfg); err != nil {
		return nil, opts, err
	}
	if cfg.RecordID, err = cmd.Flags().GetString("record"); err != nil {
		return nil, opts, err
	}
	if opts.enqueue, err = cmd.Flags().GetBool("enqueue"); err != nil {
		return nil, opts, err
	}
	if opts.follow, err = cmd.Flags().GetBool("follow"); err != nil {
		return nil, opts, err
	}

	cfg.Targets = args
	return cfg, opts, nil
}

func validateAuditConfig(cfg *config.Config, opts auditOptions) error {
	if cfg.RecordID != "" {
		if len(cfg.Targets) > 1 {
			return errRecordWithManyTargets
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
	} else if err := cfg.ValidateAudit(); err != nil {
		return err
	}
	if opts.follow && !opts.enqueue {
		return errFollowWithoutEnqueue
	}
	return nil
}

// runAudit captures every target and runs the checks in this process.
func runAudit(ctx context.Context, stdout, status io.Writer, cfg *config.Config, st *store.Store, logger *slog.Logger) error {
	base, err := newBaseFetcher(cfg, logger)
	if err != nil {
		return err
	}
	defer base.Close()

	var client *http.Client
	if cfg.ProbeLinks {
		client = base.Client()
	}
	processor := queueProcessor(runnerConfig{
		cfg:    cfg,
		client: client,
		sink:   st,
		logger: logger,
	}, st)

	output, closeOutput, err := openOutput(cfg, stdout)
	if err != nil {
		return err
	}
	defer closeOutput() //nolint:errcheck // report errors surface through Write
	writer, err := report.New(reportFormat(cfg), output)
	if err != nil {
		return err
	}

	if cfg.RecordID != "" && len(cfg.Targets) == 0 {
		return resumeRecord(ctx, status, st, processor, writer, cfg.RecordID)
	}

	if len(cfg.Targets) > 1 && cfg.Concurrency > 1 {
		return runBatchAudit(ctx, status, cfg, st, base, writer, logger)
	}

	var errs []error
	for _, target := range cfg.Targets {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		fmt.Fprintf(status, "Auditing %s...\n", target)
		startTime := time.Now()

		snapshot, err := capture(ctx, cfg, st, base.Client(), target, logger)
		if err != nil {
			logger.Error("capture failed", "target", target, "error", err)
			errs = append(errs, fmt.Errorf("failed to capture %s: %w", target, err))
			continue
		}

		recordID := cfg.RecordID
		if recordID == "" {
			recordID = uuid.NewString()
		}
		result, err := processor.Process(ctx, queue.Trigger{RecordID: recordID, SnapshotID: snapshot.ID})
		if err != nil {
			logger.Error("audit failed", "target", target, "error", err)
			errs = append(errs, fmt.Errorf("failed to audit %s: %w", target, err))
			continue
		}
		fmt.Fprintf(status, "Audit completed in %s (record %s)\n\n", time.Since(startTime).Round(time.Millisecond), recordID)

		if _, err := writer.Write(result); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}
	return errors.Join(errs...)
}

// resumeRecord continues a stored record against its own snapshot.
func resumeRecord(ctx context.Context, status io.Writer, st *store.Store, processor *queue.Processor, writer report.Writer, recordID string) error {
	record, err := st.GetRecord(ctx, recordID)
	if err != nil {
		return fmt.Errorf("failed to load record %s: %w", recordID, err)
	}

	fmt.Fprintf(status, "Resuming record %s (%s)...\n", record.ID, record.URL)
	result, err := processor.Process(ctx, queue.Trigger{RecordID: record.ID, SnapshotID: record.SnapshotID})
	if err != nil {
		return err
	}
	_, err = writer.Write(result)
	return err
}

// runBatchAudit captures every target, then audits the snapshots
// concurrently with checks inside each job running sequentially. Batch
// runs share one check list built from the default site settings.
func runBatchAudit(ctx context.Context, status io.Writer, cfg *config.Config, st *store.Store, base *fetch.Fetcher, writer report.Writer, logger *slog.Logger) error {
	if hasSiteCheckSettings(cfg.SiteConfigs) {
		logger.Warn("batch audits use default site settings; per-site disabled checks and link probing are ignored",
			"siteCount", len(cfg.SiteConfigs.Sites))
		fmt.Fprintf(status, "Warning: per-site check settings are ignored in batch mode. Use --concurrency 1 to apply them.\n\n")
	}

	var client *http.Client
	if cfg.ProbeLinks {
		client = base.Client()
	}
	list, err := checkList(cfg, cfg.SiteConfigs.ForHost(""), client)
	if err != nil {
		return err
	}
	orch := newOrchestrator(runnerConfig{cfg: cfg, sink: st, logger: logger}, list)

	var errs []error
	jobs := make([]orchestrator.Job, 0, len(cfg.Targets))
	for _, target := range cfg.Targets {
		snapshot, err := capture(ctx, cfg, st, base.Client(), target, logger)
		if err != nil {
			logger.Error("capture failed", "target", target, "error", err)
			errs = append(errs, fmt.Errorf("failed to capture %s: %w", target, err))
			continue
		}
		jobs = append(jobs, orchestrator.Job{
			Snapshot: snapshot,
			Record:   model.NewAuditRecord(uuid.NewString(), snapshot.ID, snapshot.URL),
		})
	}

	fmt.Fprintf(status, "Starting batch audit of %d pages (concurrency: %d)...\n\n", len(jobs), cfg.Concurrency)
	startTime := time.Now()

	for i, result := range orch.RunBatch(ctx, jobs) {
		record := result.Job.Record
		if err := st.SaveRecord(ctx, record); err != nil {
			errs = append(errs, fmt.Errorf("failed to save record %s: %w", record.ID, err))
		}
		if result.Err != nil {
			errs = append(errs, fmt.Errorf("audit of %s failed: %w", record.URL, result.Err))
			continue
		}

		fmt.Fprintf(status, "[%d/%d] Audit completed: %s (record %s)\n", i+1, len(jobs), record.URL, record.ID)
		if _, err := writer.Write(result.Report); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}

	fmt.Fprintf(status, "\nBatch audit completed in %s\n", time.Since(startTime).Round(time.Millisecond))
	return errors.Join(errs...)
}

func hasSiteCheckSettings(cf *config.File) bool {
	if cf == nil {
		return false
	}
	for _, site := range cf.Sites {
		if len(site.DisabledChecks) > 0 || site.ProbeLinks != nil {
			return true
		}
	}
	return false
}

// capture fetches target with the settings of its host and stores the snapshot.
func capture(ctx context.Context, cfg *config.Config, st *store.Store, client *http.Client, target string, logger *slog.Logger) (*model.Snapshot, error) {
	site := cfg.SiteConfigs.ForHost(hostOf(target))
	snapshot, err := newSiteFetcher(cfg, client, site, logger).Fetch(ctx, target)
	if err != nil {
		return nil, err
	}
	if _, err := st.SaveSnapshot(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}
	logger.Info("snapshot captured",
		"url", snapshot.URL,
		"snapshot_id", snapshot.ID,
		"elements", len(snapshot.Elements),
		"assets", len(snapshot.Assets),
	)
	return snapshot, nil
}

// runEnqueue captures every target and pushes a trigger per snapshot for a
// worker to run. With follow set it prints the workers' events until every
// queued run reports completion.
func runEnqueue(ctx context.Context, stdout io.Writer, cfg *config.Config, opts auditOptions, st *store.Store, logger *slog.Logger) error {
	base, err := newBaseFetcher(cfg, logger)
	if err != nil {
		return err
	}
	defer base.Close()

	rc, err := newRedisClient(cfg)
	if err != nil {
		return err
	}
	defer rc.Close()

	var events <-chan queue.Event
	if opts.follow {
		// Subscribe before pushing so no event is missed.
		followCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if events, err = rc.Subscribe(followCtx); err != nil {
			return err
		}
	}

	pending := make(map[string]bool)
	enqueue := func(trigger queue.Trigger, url string) error {
		if err := rc.PushTrigger(ctx, trigger); err != nil {
			return err
		}
		pending[trigger.RecordID] = true
		fmt.Fprintf(stdout, "Queued %s (record %s, snapshot %s)\n", url, trigger.RecordID, trigger.SnapshotID)
		return nil
	}

	if cfg.RecordID != "" && len(cfg.Targets) == 0 {
		record, err := st.GetRecord(ctx, cfg.RecordID)
		if err != nil {
			return fmt.Errorf("failed to load record %s: %w", cfg.RecordID, err)
		}
		if err := enqueue(queue.Trigger{RecordID: record.ID, SnapshotID: record.SnapshotID}, record.URL); err != nil {
			return err
		}
	}

	for _, target := range cfg.Targets {
		snapshot, err := capture(ctx, cfg, st, base.Client(), target, logger)
		if err != nil {
			return err
		}
		recordID := cfg.RecordID
		if recordID == "" {
			recordID = uuid.NewString()
		}
		if err := enqueue(queue.Trigger{RecordID: recordID, SnapshotID: snapshot.ID}, snapshot.URL); err != nil {
			return err
		}
	}

	if events == nil {
		return nil
	}
	return followEvents(ctx, stdout, events, pending)
}

// followEvents prints events of the pending records until each has
// reported completion.
func followEvents(ctx context.Context, stdout io.Writer, events <-chan queue.Event, pending map[string]bool) error {
	for len(pending) > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				return ctx.Err()
			}
			switch {
			case event.Progress != nil && pending[event.Progress.RecordID]:
				p := event.Progress
				fmt.Fprintf(stdout, "%s %3.0f%% %s %s\n", p.RecordID, p.Progress*100, p.AuditName, p.Status)
				if p.Status == orchestrator.StatusRunComplete {
					delete(pending, p.RecordID)
				}
			case event.Failure != nil && pending[event.Failure.RecordID]:
				f := event.Failure
				fmt.Fprintf(stdout, "%s %3.0f%% %s failed (%s): %s\n", f.RecordID, f.Progress*100, f.AuditName, f.ErrorKind, f.ErrorMessage)
			}
		}
	}
	return nil
}
