package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "privacylens"

	// DefaultObservationWindow is how long page scripts may run before the
	// runtime signals are snapshotted. Most trackers fingerprint within the
	// first second after load.
	DefaultObservationWindow = 2 * time.Second

	// DefaultTimeout bounds fetching and rendering one page.
	DefaultTimeout = 30 * time.Second

	// DefaultBatchSize is the number of pages analyzed concurrently.
	// Each page gets its own JavaScript runtime, or its own browser tab
	// with the chrome renderer.
	DefaultBatchSize = 4

	// DefaultRenderer executes page scripts in the embedded runtime and
	// needs no browser installation.
	DefaultRenderer = "sandbox"

	// DefaultDomainMode groups hostnames by their last two labels.
	DefaultDomainMode = "heuristic"

	// DefaultStoreBackend keeps reports in memory for the lifetime of the
	// native messaging host.
	DefaultStoreBackend = "memory"

	// DefaultUserAgent is sent with every page request and reported by
	// navigator.userAgent in the sandbox.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36 privacylens/1.0"

	// DefaultMaxBodySize limits the size of a fetched HTML document.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultTorStartupTimeout is the maximum time to wait for the embedded
	// Tor daemon to bootstrap.
	DefaultTorStartupTimeout = 3 * time.Minute
)

// Renderer names.
const (
	RendererSandbox = "sandbox"
	RendererChrome  = "chrome"
)

// Store backend names.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config holds all configuration options for privacylens.
// It is populated from CLI flags and passed through the application
// rather than kept in global state.
type Config struct {
	// Targets is the list of page URLs to analyze.
	Targets []string

	// HTMLFile is a local HTML document to analyze instead of a URL.
	// Only the sandbox renderer can analyze local documents.
	HTMLFile string

	// BaseURL is the page address HTMLFile is treated as being served
	// from. Relative resource URLs resolve against it and it decides
	// which hosts are third-party.
	BaseURL string

	// Renderer selects how pages are loaded: "sandbox" or "chrome".
	Renderer string

	// ObservationWindow is how long page scripts may run, including
	// timers, before the runtime signals are snapshotted.
	ObservationWindow time.Duration

	// Timeout bounds fetching and rendering a single page.
	Timeout time.Duration

	// DomainMode selects root domain grouping: "heuristic" keeps the last
	// two labels, "publicsuffix" uses the public suffix list.
	DomainMode string

	// LogAllInvalidURLs logs unparseable resource URLs for every resource
	// category. By default only script URLs are logged.
	LogAllInvalidURLs bool

	// BatchSize is the number of pages analyzed concurrently.
	BatchSize int

	// Verbose enables debug logging.
	Verbose bool

	// JSONReport writes the report as JSON. Mutually exclusive with
	// MarkdownReport.
	JSONReport bool

	// MarkdownReport writes the report as Markdown.
	MarkdownReport bool

	// ReportFile is the output file path for the report. Reports go to
	// stdout when empty.
	ReportFile string

	// ExportDir, when set, receives one privacy-report-<host>-<ms>.json
	// file per analyzed page.
	ExportDir string

	// ProxyAddress is a SOCKS5 proxy in "host:port" format used for page
	// requests. Mutually exclusive with UseTor.
	ProxyAddress string

	// UseTor starts an embedded Tor daemon and routes page requests
	// through it.
	UseTor bool

	// TorStartupTimeout is the maximum time to wait for the embedded Tor
	// daemon to bootstrap.
	TorStartupTimeout time.Duration

	// UserAgent is the User-Agent header sent with page requests.
	UserAgent string

	// MaxBodySize is the maximum HTML document size in bytes.
	MaxBodySize int64

	// ChromePath is the Chrome or Chromium binary used by the chrome
	// renderer. The binary is looked up in PATH when empty.
	ChromePath string

	// Headless runs Chrome without a window.
	Headless bool

	// StoreBackend selects where the native messaging host keeps
	// reports: "memory" or "sqlite".
	StoreBackend string

	// DBDir is the directory of the SQLite store.
	// Defaults to the XDG data directory.
	DBDir string

	// ConfigFilePath is the path to the configuration file. When empty,
	// the file is searched for as described in FindConfigFile.
	ConfigFilePath string

	// SiteConfigs holds site-specific settings loaded from the config file.
	SiteConfigs *File
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Renderer:          DefaultRenderer,
		ObservationWindow: DefaultObservationWindow,
		Timeout:           DefaultTimeout,
		DomainMode:        DefaultDomainMode,
		BatchSize:         DefaultBatchSize,
		TorStartupTimeout: DefaultTorStartupTimeout,
		UserAgent:         DefaultUserAgent,
		MaxBodySize:       DefaultMaxBodySize,
		Headless:          true,
		StoreBackend:      DefaultStoreBackend,
	}
}

// XDGDataDir returns the XDG data directory for privacylens.
// On Linux: ~/.local/share/privacylens
// On macOS: ~/Library/Application Support/privacylens
// On Windows: %LOCALAPPDATA%\privacylens
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for privacylens.
// On Linux: ~/.config/privacylens
// On macOS: ~/Library/Application Support/privacylens
// On Windows: %APPDATA%\privacylens
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid for analyzing pages.
// It returns the first problem found.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 && c.HTMLFile == "" {
		return ErrNoTarget
	}
	if c.HTMLFile != "" {
		if len(c.Targets) > 0 {
			return ErrConflictingTargets
		}
		if c.BaseURL == "" {
			return ErrMissingBaseURL
		}
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.ObservationWindow <= 0 {
		return ErrInvalidWindow
	}
	if c.ObservationWindow >= c.Timeout {
		return ErrWindowExceedsTimeout
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.Renderer != RendererSandbox && c.Renderer != RendererChrome {
		return ErrUnknownRenderer
	}
	if c.DomainMode != "heuristic" && c.DomainMode != "publicsuffix" {
		return ErrUnknownDomainMode
	}
	if c.UseTor && c.ProxyAddress != "" {
		return ErrConflictingProxy
	}
	return nil
}

// ValidateHost checks if the configuration is valid for running the
// native messaging host.
func (c *Config) ValidateHost() error {
	switch c.StoreBackend {
	case StoreMemory, StoreSQLite:
	default:
		return ErrUnknownStore
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.ObservationWindow <= 0 {
		return ErrInvalidWindow
	}
	return nil
}

// DatabaseDir returns DBDir, or the XDG data directory when it is empty.
func (c *Config) DatabaseDir() string {
	if c.DBDir != "" {
		return c.DBDir
	}
	return XDGDataDir()
}

// Site returns the site settings for a page URL with the global
// observation window applied when the file does not override it.
func (c *Config) Site(pageURL string) SiteConfig {
	var site SiteConfig
	if c.SiteConfigs != nil {
		site = c.SiteConfigs.GetSiteConfig(pageURL)
	}
	if site.ObservationWindow <= 0 {
		site.ObservationWindow = c.ObservationWindow
	}
	return site
}
