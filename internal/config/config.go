package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "pageaudit"

	// DefaultTimeout bounds fetching one page.
	DefaultTimeout = 30 * time.Second

	// DefaultConcurrency is how many checks run at once in concurrent mode.
	DefaultConcurrency = 4

	// DefaultCheckTimeout bounds a single check. Only the links check does
	// I/O, so the limit mostly applies to link probing.
	DefaultCheckTimeout = 2 * time.Minute

	// DefaultLinkTimeout bounds one link probe attempt.
	DefaultLinkTimeout = 10 * time.Second

	// DefaultRedisURL is the Redis server used by the worker.
	DefaultRedisURL = "redis://localhost:6379"

	// DefaultListenAddr is the address the HTTP trigger endpoint binds to.
	DefaultListenAddr = ":8080"

	// DefaultUserAgent identifies pageaudit in HTTP requests.
	DefaultUserAgent = "pageaudit/1.0 (+https://github.com/nao1215/pageaudit)"

	// DefaultMaxBodySize limits the bytes read from a page or image.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultMaxAssets limits the images downloaded per page.
	DefaultMaxAssets = 20
)

// Config holds all configuration options for pageaudit. It is populated
// from CLI flags and passed down explicitly.
type Config struct {
	// Targets are the URLs or HTML files to audit.
	Targets []string

	// Timeout is the fetch timeout for a page and its images.
	Timeout time.Duration

	// Concurrency is the number of checks run at once. 1 runs checks
	// sequentially.
	Concurrency int

	// CheckTimeout bounds each check. Zero means no limit.
	CheckTimeout time.Duration

	// ProbeLinks enables reachability probing of link destinations.
	ProbeLinks bool

	// LinkTimeout bounds each link probe attempt.
	LinkTimeout time.Duration

	// DisabledChecks are audit names (e.g. "IMAGE_COPYRIGHT") to skip.
	DisabledChecks []string

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the path to the configuration file. If empty, the
	// tool searches for .pageaudit in the current and home directories.
	ConfigFilePath string

	// SiteConfigs holds per-host settings loaded from the config file.
	SiteConfigs *File

	// JSONReport selects JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile writes the report to a file instead of stdout.
	ReportFile string

	// RecordID continues an existing record instead of starting a new one.
	RecordID string

	// DBDir is the directory of the SQLite database.
	// Defaults to the XDG data directory (~/.local/share/pageaudit on Linux).
	DBDir string

	// RedisURL is the Redis server used by the worker.
	RedisURL string

	// Queue is the Redis list triggers are read from.
	Queue string

	// Channel is the Redis pub/sub channel events are published on.
	Channel string

	// ListenAddr is the address of the HTTP trigger endpoint.
	ListenAddr string

	// ProxyAddress routes page fetches through a SOCKS5 proxy ("host:port").
	ProxyAddress string

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes.
	MaxBodySize int64

	// MaxAssets is the maximum number of images captured per page.
	MaxAssets int
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:      DefaultTimeout,
		Concurrency:  DefaultConcurrency,
		CheckTimeout: DefaultCheckTimeout,
		ProbeLinks:   true,
		LinkTimeout:  DefaultLinkTimeout,
		DBDir:        XDGDataDir(),
		RedisURL:     DefaultRedisURL,
		ListenAddr:   DefaultListenAddr,
		UserAgent:    DefaultUserAgent,
		MaxBodySize:  DefaultMaxBodySize,
		MaxAssets:    DefaultMaxAssets,
	}
}

// XDGDataDir returns the XDG data directory for pageaudit.
// On Linux: ~/.local/share/pageaudit
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for pageaudit.
// On Linux: ~/.config/pageaudit
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the settings shared by every command and returns the
// first problem found.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.CheckTimeout < 0 {
		return ErrInvalidCheckTimeout
	}
	if c.ProbeLinks && c.LinkTimeout <= 0 {
		return ErrInvalidLinkTimeout
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.MaxAssets < 0 {
		return ErrInvalidMaxAssets
	}
	if _, err := ParseCheckNames(c.DisabledChecks); err != nil {
		return err
	}
	return nil
}

// ValidateAudit validates the settings and additionally requires a target.
func (c *Config) ValidateAudit() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	return c.Validate()
}
