package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "pagecarbon"

	// DefaultTimeout bounds the fetch of the analysed page.
	DefaultTimeout = 30 * time.Second

	// DefaultResourceTimeout bounds each resource HEAD request. A resource
	// that does not answer in time is sized as zero.
	DefaultResourceTimeout = 10 * time.Second

	// DefaultConcurrency is the number of resources sized at once per page.
	DefaultConcurrency = 8

	// DefaultBatchSize is the number of pages analysed at once.
	DefaultBatchSize = 4

	// DefaultRateLimit is the number of resource requests per second.
	// Zero disables the limit.
	DefaultRateLimit = 0

	// DefaultUserAgent identifies pagecarbon in HTTP requests.
	DefaultUserAgent = "pagecarbon/1.0 (+https://github.com/nao1215/pagecarbon)"

	// DefaultMaxBodySize limits the page body read for analysis.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultUserID owns reports created from the command line.
	DefaultUserID = "local"

	// DefaultListenAddr is the address the API server binds to.
	DefaultListenAddr = "127.0.0.1:8080"

	// DefaultAPIRateLimit is the number of analyses per second allowed for
	// each API user.
	DefaultAPIRateLimit = 1.0

	// DefaultAPIBurst is the burst size of the API rate limit.
	DefaultAPIBurst = 5
)

// Config holds all configuration options for pagecarbon.
// It is populated from CLI flags and the optional config file, and passed
// through the application rather than kept in global state.
type Config struct {
	// Targets is the list of URLs to analyse.
	Targets []string

	// UserID owns the reports created by this run.
	UserID string

	// Timeout is the fetch timeout for the analysed page.
	Timeout time.Duration

	// ResourceTimeout is the timeout for each resource HEAD request.
	ResourceTimeout time.Duration

	// Concurrency is the number of resources sized in parallel per page.
	Concurrency int

	// BatchSize is the number of pages analysed in parallel.
	BatchSize int

	// RateLimit caps resource requests per second. Zero means unlimited.
	RateLimit float64

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" form.
	ProxyAddress string

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum page body size in bytes to read.
	// Set to 0 to use the default.
	MaxBodySize int64

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .pagecarbon in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds the configuration file contents, if one was loaded.
	SiteConfigs *File

	// JSONReport selects JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// DBDir is the directory holding the SQLite database.
	// Defaults to the XDG data directory (~/.local/share/pagecarbon on Linux).
	DBDir string

	// SaveToDB indicates whether reports are persisted.
	SaveToDB bool

	// ListenAddr is the API server address.
	ListenAddr string

	// APIRateLimit is the per-user analysis rate of the API server.
	APIRateLimit float64

	// APIBurst is the burst size of the per-user API rate limit.
	APIBurst int
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		UserID:          DefaultUserID,
		Timeout:         DefaultTimeout,
		ResourceTimeout: DefaultResourceTimeout,
		Concurrency:     DefaultConcurrency,
		BatchSize:       DefaultBatchSize,
		RateLimit:       DefaultRateLimit,
		UserAgent:       DefaultUserAgent,
		MaxBodySize:     DefaultMaxBodySize,
		DBDir:           XDGDataDir(),
		SaveToDB:        true,
		ListenAddr:      DefaultListenAddr,
		APIRateLimit:    DefaultAPIRateLimit,
		APIBurst:        DefaultAPIBurst,
	}
}

// XDGDataDir returns the XDG data directory for pagecarbon.
// On Linux: ~/.local/share/pagecarbon
// On macOS: ~/Library/Application Support/pagecarbon
// On Windows: %LOCALAPPDATA%\pagecarbon
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for pagecarbon.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found. Targets are not checked here because
// only the analyze command needs them; see RequireTargets.
func (c *Config) Validate() error {
	if c.UserID == "" {
		return ErrEmptyUserID
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.ResourceTimeout <= 0 {
		return ErrInvalidResourceTimeout
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.RateLimit < 0 {
		return ErrInvalidRateLimit
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	return nil
}

// RequireTargets returns ErrNoTarget when no URL was given.
func (c *Config) RequireTargets() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	return nil
}
