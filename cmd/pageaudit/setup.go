package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/pageaudit/internal/checks"
	"github.com/nao1215/pageaudit/internal/config"
	"github.com/nao1215/pageaudit/internal/fetch"
	pagelog "github.com/nao1215/pageaudit/internal/log"
	"github.com/nao1215/pageaudit/internal/model"
	"github.com/nao1215/pageaudit/internal/orchestrator"
	"github.com/nao1215/pageaudit/internal/queue"
	"github.com/nao1215/pageaudit/internal/report"
	"github.com/nao1215/pageaudit/internal/scoring"
	"github.com/nao1215/pageaudit/internal/store"
)

// commandContext returns the command's context, or Background when the
// command was not started through Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates the process logger. Long-running commands log JSON.
func setupLogger(w io.Writer, verbose, jsonFormat bool) *slog.Logger {
	if jsonFormat {
		return pagelog.NewSecureJSONLogger(w, verbose)
	}
	return pagelog.NewSecureLogger(w, verbose)
}

// loadBaseConfig fills the settings shared by every command from the
// persistent flags and the configuration file.
func loadBaseConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	var err error
	if cfg.ConfigFilePath, err = cmd.Flags().GetString("config"); err != nil {
		return nil, err
	}
	if cfg.DBDir, err = cmd.Flags().GetString("db-dir"); err != nil {
		return nil, err
	}

	cfg.SiteConfigs, err = loadSiteConfigs(cfg.ConfigFilePath)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadSiteConfigs loads the configuration file. A missing file is an error
// only when its path was given explicitly.
func loadSiteConfigs(explicitPath string) (*config.File, error) {
	path := config.FindConfigFile(explicitPath)
	if path == "" {
		if explicitPath != "" {
			return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, explicitPath)
		}
		return &config.File{Sites: make(map[string]config.SiteConfig)}, nil
	}

	cf, err := config.LoadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	return cf, nil
}

// hostOf returns the host name of target, or "" for files and unparsable input.
func hostOf(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// newBaseFetcher creates the fetcher whose HTTP client every request of the
// process shares, routed through the SOCKS5 proxy when one is configured.
func newBaseFetcher(cfg *config.Config, logger *slog.Logger) (*fetch.Fetcher, error) {
	opts := []fetch.Option{
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithMaxAssets(cfg.MaxAssets),
		fetch.WithLogger(logger),
	}
	if cfg.ProxyAddress == "" {
		return fetch.NewFetcher(cfg.Timeout, opts...), nil
	}
	f, err := fetch.NewProxyFetcher(cfg.ProxyAddress, cfg.Timeout, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create proxy fetcher: %w", err)
	}
	logger.Info("fetching through proxy", "address", cfg.ProxyAddress)
	return f, nil
}

// newSiteFetcher creates a fetcher carrying the cookie and headers of one
// site over the shared client.
func newSiteFetcher(cfg *config.Config, client *http.Client, site config.SiteConfig, logger *slog.Logger) *fetch.Fetcher {
	return fetch.NewFetcher(cfg.Timeout,
		fetch.WithHTTPClient(client),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithMaxAssets(cfg.MaxAssets),
		fetch.WithHeaders(site.Headers),
		fetch.WithCookie(site.Cookie),
		fetch.WithLogger(logger),
	)
}

// checkList builds the check list for a site. A nil client disables link
// probing.
func checkList(cfg *config.Config, site config.SiteConfig, client *http.Client) ([]checks.Check, error) {
	disabled, err := config.ParseCheckNames(append(append([]string(nil), cfg.DisabledChecks...), site.DisabledChecks...))
	if err != nil {
		return nil, err
	}

	probe := cfg.ProbeLinks && client != nil
	if site.ProbeLinks != nil && !*site.ProbeLinks {
		probe = false
	}

	return checks.Default(func(o *checks.Options) {
		o.Disabled = disabled
		if probe {
			o.Prober = fetch.NewHTTPProber(client, cfg.LinkTimeout)
		}
	}), nil
}

// expectedFor returns the scored checks a record of pageURL is measured against.
func expectedFor(cfg *config.Config, pageURL string) (scoring.Expected, error) {
	list, err := checkList(cfg, cfg.SiteConfigs.ForHost(hostOf(pageURL)), nil)
	if err != nil {
		return nil, err
	}
	return checks.Expected(list), nil
}

// runnerConfig carries the collaborators every run shares.
type runnerConfig struct {
	cfg       *config.Config
	client    *http.Client
	publisher orchestrator.Publisher
	sink      orchestrator.AuditSink
	logger    *slog.Logger
}

// newRunner returns a runner that builds a fresh orchestrator for each
// snapshot, so site settings of the snapshot's host apply and link probe
// results are not shared between runs.
func newRunner(rc runnerConfig) queue.RunnerFunc {
	return func(ctx context.Context, snapshot *model.Snapshot, record *model.AuditRecord) (*model.CompositeReport, error) {
		if snapshot == nil {
			return nil, model.ErrInvalidInput
		}
		list, err := checkList(rc.cfg, rc.cfg.SiteConfigs.ForHost(hostOf(snapshot.URL)), rc.client)
		if err != nil {
			return nil, err
		}
		orch := newOrchestrator(rc, list)
		if rc.cfg.Concurrency > 1 {
			return orch.RunConcurrent(ctx, snapshot, record)
		}
		return orch.Run(ctx, snapshot, record)
	}
}

// queueProcessor returns a processor that loads runs from st and saves them back.
func queueProcessor(rc runnerConfig, st *store.Store) *queue.Processor {
	return queue.NewProcessor(st, newRunner(rc), rc.logger)
}

func newOrchestrator(rc runnerConfig, list []checks.Check) *orchestrator.Orchestrator {
	opts := []orchestrator.Option{
		orchestrator.WithLogger(rc.logger),
		orchestrator.WithConcurrency(rc.cfg.Concurrency),
		orchestrator.WithCheckTimeout(rc.cfg.CheckTimeout),
	}
	if rc.publisher != nil {
		opts = append(opts, orchestrator.WithPublisher(rc.publisher))
	}
	if rc.sink != nil {
		opts = append(opts, orchestrator.WithSink(rc.sink))
	}
	return orchestrator.New(list, opts...)
}

// reportFormat maps the output flags to a report format.
func reportFormat(cfg *config.Config) report.Format {
	switch {
	case cfg.JSONReport:
		return report.FormatJSON
	case cfg.MarkdownReport:
		return report.FormatMarkdown
	default:
		return report.FormatText
	}
}

// openOutput returns cfg.ReportFile opened for writing, creating parent
// directories, or stdout when no file is set. The returned function closes
// the file.
func openOutput(cfg *config.Config, stdout io.Writer) (io.Writer, func() error, error) {
	if cfg.ReportFile == "" {
		return stdout, func() error { return nil }, nil
	}

	if dir := filepath.Dir(cfg.ReportFile); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	// Reports may name authenticated URLs, so keep them owner-readable.
	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// addOutputFlags registers the report format flags shared by audit and report.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false, "Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false, "Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "", "Write report to specified file path (creates directories if needed)")
}

func readOutputFlags(cmd *cobra.Command, cfg *config.Config) error {
	var err error
	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return err
	}
	if cfg.ReportFile, err = cmd.Flags().GetString("output"); err != nil {
		return err
	}
	return nil
}

// addRunFlags registers the flags that shape a run, shared by audit,
// worker and serve.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout, "Fetch timeout for a page and its images")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency, "Number of checks run at once, or pages when auditing several targets (1 runs sequentially)")
	cmd.Flags().Duration("check-timeout", config.DefaultCheckTimeout, "Time limit for a single check (0 disables)")
	cmd.Flags().Bool("no-probe-links", false, "Do not probe link destinations")
	cmd.Flags().Duration("link-timeout", config.DefaultLinkTimeout, "Time limit for one link probe")
	cmd.Flags().StringSlice("disable", nil, "Checks to skip, e.g. --disable IMAGE_COPYRIGHT,LINKS")
	cmd.Flags().StringP("proxy", "x", "", "Fetch through a SOCKS5 proxy at host:port")
	cmd.Flags().String("user-agent", config.DefaultUserAgent, "User-Agent header sent with requests")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize, "Maximum bytes read from a page or image")
	cmd.Flags().Int("max-assets", config.DefaultMaxAssets, "Maximum images captured per page (0 disables)")
}

func readRunFlags(cmd *cobra.Command, cfg *config.Config) error {
	var err error
	if cfg.Timeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
		return err
	}
	if cfg.Concurrency, err = cmd.Flags().GetInt("concurrency"); err != nil {
		return err
	}
	if cfg.CheckTimeout, err = cmd.Flags().GetDuration("check-timeout"); err != nil {
		return err
	}
	noProbe, err := cmd.Flags().GetBool("no-probe-links")
	if err != nil {
		return err
	}
	cfg.ProbeLinks = !noProbe
	if cfg.LinkTimeout, err = cmd.Flags().GetDuration("link-timeout"); err != nil {
		return err
	}
	if cfg.DisabledChecks, err = cmd.Flags().GetStringSlice("disable"); err != nil {
		return err
	}
	if cfg.ProxyAddress, err = cmd.Flags().GetString("proxy"); err != nil {
		return err
	}
	if cfg.UserAgent, err = cmd.Flags().GetString("user-agent"); err != nil {
		return err
	}
	if cfg.MaxBodySize, err = cmd.Flags().GetInt64("max-body-size"); err != nil {
		return err
	}
	if cfg.MaxAssets, err = cmd.Flags().GetInt("max-assets"); err != nil {
		return err
	}
	return nil
}

// addRedisFlags registers the Redis connection flags.
func addRedisFlags(cmd *cobra.Command) {
	cmd.Flags().String("redis-url", config.DefaultRedisURL, "Redis server URL")
	cmd.Flags().String("queue", queue.DefaultQueue, "Redis list triggers are read from")
	cmd.Flags().String("channel", queue.DefaultChannel, "Redis channel progress and failure events are published on")
}

func readRedisFlags(cmd *cobra.Command, cfg *config.Config) error {
	var err error
	if cfg.RedisURL, err = cmd.Flags().GetString("redis-url"); err != nil {
		return err
	}
	if cfg.Queue, err = cmd.Flags().GetString("queue"); err != nil {
		return err
	}
	if cfg.Channel, err = cmd.Flags().GetString("channel"); err != nil {
		return err
	}
	return nil
}

func newRedisClient(cfg *config.Config) (*queue.RedisClient, error) {
	client, err := queue.NewRedisClient(queue.RedisOptions{
		URL:     cfg.RedisURL,
		Queue:   cfg.Queue,
		Channel: cfg.Channel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", pagelog.Redact(cfg.RedisURL), err)
	}
	return client, nil
}
