package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/jsprobe/internal/fetcher"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "jsprobe"

	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = fetcher.DefaultTimeout

	// DefaultRequestDelay is the minimum spacing between two requests.
	// One second keeps the tool polite towards the analyzed site.
	DefaultRequestDelay = 1 * time.Second

	// DefaultPacingPolicy waits between requests but not before the first.
	DefaultPacingPolicy = "between"

	// DefaultBatchSize analyzes targets one at a time.
	DefaultBatchSize = 1

	// DefaultUserAgent identifies jsprobe in HTTP requests.
	DefaultUserAgent = fetcher.DefaultUserAgent

	// DefaultMaxBodySize limits the response body size to read.
	DefaultMaxBodySize = fetcher.DefaultMaxBodySize

	// DefaultPreviewLength is the number of characters shown per JSON
	// finding in the text report.
	DefaultPreviewLength = 200
)

// Format selects the report output format.
type Format string

const (
	// FormatText is the plain text listing (default).
	FormatText Format = "text"

	// FormatJSON is structured JSON output.
	FormatJSON Format = "json"

	// FormatMarkdown is a Markdown document.
	FormatMarkdown Format = "markdown"
)

// Config holds all configuration options for jsprobe.
// This struct is populated from CLI flags and passed through the
// application rather than kept in global state.
type Config struct {
	// Timeout is the timeout of a single HTTP request.
	Timeout time.Duration

	// RequestDelay is the minimum time between the starts of two requests.
	// Zero disables pacing.
	RequestDelay time.Duration

	// PacingPolicy is "between" or "leading". With "leading" the delay is
	// also waited before the first request.
	PacingPolicy string

	// BatchSize is the number of targets analyzed concurrently.
	// All workers still share one pacing gate.
	BatchSize int

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Set to 0 to use the default (5MB).
	MaxBodySize int64

	// ProxyURL routes requests through a proxy, for example
	// socks5://127.0.0.1:9050. Empty means a direct connection.
	ProxyURL string

	// BaseURL is used to resolve relative endpoint references.
	// When empty, the scheme and host of the first target are used.
	BaseURL string

	// Lenient also accepts JavaScript object literals in variable
	// assignments (unquoted keys, single quotes, trailing commas).
	Lenient bool

	// Format is the report format.
	Format Format

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	// Directories are created automatically if they don't exist.
	ReportFile string

	// PreviewLength is the number of characters shown per finding in the
	// text report. Zero shows findings in full.
	PreviewLength int

	// Summary prints a summary table after the report.
	Summary bool

	// ShowResources lists external scripts and stylesheets in the text report.
	ShowResources bool

	// Quiet suppresses status output on stderr.
	Quiet bool

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// LogJSON switches log output to JSON.
	LogJSON bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, FindConfigFile searches the default locations.
	ConfigFilePath string

	// SiteConfigs holds site-specific configurations loaded from the config file.
	SiteConfigs *File

	// Targets is the list of page URLs to analyze.
	Targets []string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:       DefaultTimeout,
		RequestDelay:  DefaultRequestDelay,
		PacingPolicy:  DefaultPacingPolicy,
		BatchSize:     DefaultBatchSize,
		UserAgent:     DefaultUserAgent,
		MaxBodySize:   DefaultMaxBodySize,
		Format:        FormatText,
		PreviewLength: DefaultPreviewLength,
	}
}

// XDGConfigDir returns the XDG config directory for jsprobe.
// On Linux: ~/.config/jsprobe
// On macOS: ~/Library/Application Support/jsprobe
// On Windows: %APPDATA%\jsprobe
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	for _, target := range c.Targets {
		if !isHTTPURL(target) {
			return fmt.Errorf("%w: %q", ErrInvalidTarget, target)
		}
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.RequestDelay < 0 {
		return ErrInvalidDelay
	}

	if _, err := fetcher.ParsePacingPolicy(c.PacingPolicy); err != nil {
		return err
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.PreviewLength < 0 {
		return ErrInvalidPreviewLength
	}

	switch c.Format {
	case FormatText, FormatJSON, FormatMarkdown:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.Format)
	}

	return nil
}

// SiteBaseURL returns the base URL used to resolve relative references:
// BaseURL when set, otherwise the scheme and host of the first target.
func (c *Config) SiteBaseURL() (string, error) {
	if c.BaseURL != "" {
		return c.BaseURL, nil
	}
	if len(c.Targets) == 0 {
		return "", ErrNoTarget
	}

	u, err := url.Parse(c.Targets[0])
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidTarget, c.Targets[0])
	}
	return (&url.URL{Scheme: u.Scheme, Host: u.Host}).String(), nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
