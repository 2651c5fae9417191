package config

import "errors"

// Configuration validation errors returned by Config.Validate and
// Config.RequireTargets. Callers can match them with errors.Is.
var (
	// ErrNoTarget is returned when no URL is specified.
	ErrNoTarget = errors.New("no target specified: provide a URL or use --list")

	// ErrEmptyUserID is returned when reports would have no owner.
	ErrEmptyUserID = errors.New("invalid user: must not be empty")

	// ErrInvalidTimeout is returned when the page timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidResourceTimeout is returned when the resource timeout is not positive.
	ErrInvalidResourceTimeout = errors.New("invalid resource timeout: must be positive")

	// ErrInvalidConcurrency is returned when the sizing concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidRateLimit is returned when the rate limit is negative.
	// Use 0 to disable the limit.
	ErrInvalidRateLimit = errors.New("invalid rate limit: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")
)
