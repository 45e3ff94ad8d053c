package config

import "errors"

// Configuration validation errors returned by Config.Validate. Callers
// match them with errors.Is.
var (
	// ErrNoTarget is returned when the audit command gets no URL or file.
	ErrNoTarget = errors.New("no target specified: provide a URL or an HTML file")

	// ErrInvalidTimeout is returned when the page fetch timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidCheckTimeout is returned when the per-check timeout is negative.
	ErrInvalidCheckTimeout = errors.New("invalid check timeout: must be non-negative")

	// ErrInvalidLinkTimeout is returned when the link probe timeout is not positive.
	ErrInvalidLinkTimeout = errors.New("invalid link timeout: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidMaxAssets is returned when the asset limit is negative.
	ErrInvalidMaxAssets = errors.New("invalid max assets: must be non-negative")

	// ErrUnknownCheck is returned when a disabled check name is not a known audit.
	ErrUnknownCheck = errors.New("unknown check name")
)
