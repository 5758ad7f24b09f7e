package config

import (
	"net/url"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Mode selects the traversal topology.
type Mode string

const (
	// ModeHTML crawls an arbitrary hyperlink graph.
	ModeHTML Mode = "html"

	// ModeWiki performs random walks over an encyclopedia article graph.
	ModeWiki Mode = "wiki"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "linkgraph"

	// DefaultDepth is the maximum traversal depth. Depth 1 records the
	// seed's direct links without fetching them.
	DefaultDepth = 1

	// DefaultThreads is the number of fetches allowed in flight at once.
	DefaultThreads = 1

	// DefaultGephiEndpoint is the graph streaming workspace of a local Gephi.
	DefaultGephiEndpoint = "http://localhost:8088/workspace1"

	// DefaultWikiAmount is the number of independent random walks in wiki mode.
	DefaultWikiAmount = 10

	// DefaultTimeout bounds a single HTTP request.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent is sent with every page fetch.
	DefaultUserAgent = "Mozilla/5.0 (compatible; Crawler/1.0)"

	// DefaultMaxBodySize limits how much of a response body is parsed.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultReportConcurrency is the number of Gephi requests in flight at once.
	DefaultReportConcurrency = 8

	// DefaultTorStartupTimeout is the maximum time to wait for the embedded
	// Tor daemon to bootstrap.
	DefaultTorStartupTimeout = 3 * time.Minute

	// DefaultFormat is the export format written after a successful run.
	DefaultFormat = FormatCSV
)

// Export formats.
const (
	FormatCSV      = "csv"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// Config holds every option of a single crawl run.
// It is built once from flags and the config file and is read-only afterwards.
type Config struct {
	// SeedURL is where the traversal starts. In wiki mode only its scheme
	// and host are used, as the site root.
	SeedURL string

	// MaxDepth is the deepest level that may be recorded.
	MaxDepth int

	// StripQuery drops the query string before filtering and dedup.
	StripQuery bool

	// Filters are substrings of which a URL must contain at least one.
	// Empty means every URL passes.
	Filters []string

	// Ignore are substrings that reject a URL. Ignore wins over Filters.
	Ignore []string

	// Threads is the worker budget: the number of fetches in flight at once.
	Threads int

	// GephiEndpoint is the Gephi graph streaming workspace URL.
	// Empty disables edge reporting.
	GephiEndpoint string

	// Mode is the traversal topology.
	Mode Mode

	// WikiAmount is the number of random walks started in wiki mode.
	WikiAmount int

	// WikiLinkIndex, when non-nil, makes every wiki page follow only the
	// link at this position.
	WikiLinkIndex *int

	// ContinueOnError turns a failed fetch into a per-branch failure.
	// When false, the first failed fetch aborts the run.
	ContinueOnError bool

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// UserAgent is the User-Agent header sent with page fetches.
	UserAgent string

	// MaxBodySize is the maximum number of body bytes read per page.
	MaxBodySize int64

	// ReportConcurrency limits concurrent requests to Gephi.
	ReportConcurrency int

	// OutputPath is where the export is written. Empty means stdout.
	OutputPath string

	// Format is one of FormatCSV, FormatJSON or FormatMarkdown.
	Format string

	// ProxyAddress is an external SOCKS5 proxy in "host:port" form.
	ProxyAddress string

	// UseTor starts an embedded Tor daemon and routes fetches through it.
	UseTor bool

	// TorStartupTimeout bounds the embedded Tor bootstrap.
	TorStartupTimeout time.Duration

	// MetricsAddr, when set, serves Prometheus metrics on this address.
	MetricsAddr string

	// Archive stores the finished run in the SQLite database under DBDir.
	Archive bool

	// DBDir is the directory holding the archive database.
	DBDir string

	// ConfigFilePath is the explicit config file path, if any.
	ConfigFilePath string

	// Sites holds the per-host overrides loaded from the config file.
	Sites *File

	// Verbose enables debug logging.
	Verbose bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		MaxDepth:          DefaultDepth,
		Threads:           DefaultThreads,
		GephiEndpoint:     DefaultGephiEndpoint,
		Mode:              ModeHTML,
		WikiAmount:        DefaultWikiAmount,
		Timeout:           DefaultTimeout,
		UserAgent:         DefaultUserAgent,
		MaxBodySize:       DefaultMaxBodySize,
		ReportConcurrency: DefaultReportConcurrency,
		Format:            DefaultFormat,
		TorStartupTimeout: DefaultTorStartupTimeout,
		Archive:           true,
		DBDir:             XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for linkgraph.
// On Linux: ~/.local/share/linkgraph
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for linkgraph.
// On Linux: ~/.config/linkgraph
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SeedURL) == "" {
		return ErrNoSeedURL
	}

	u, err := url.Parse(c.SeedURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrInvalidSeedURL
	}

	if c.MaxDepth < 0 {
		return ErrInvalidDepth
	}

	if c.Threads <= 0 {
		return ErrInvalidThreads
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.ReportConcurrency <= 0 {
		return ErrInvalidReportConcurrency
	}

	switch c.Mode {
	case ModeHTML:
	case ModeWiki:
		if c.WikiAmount <= 0 {
			return ErrInvalidWikiAmount
		}
		if c.WikiLinkIndex != nil && *c.WikiLinkIndex < 0 {
			return ErrInvalidWikiLink
		}
	default:
		return ErrUnknownMode
	}

	if !slices.Contains([]string{FormatCSV, FormatJSON, FormatMarkdown}, c.Format) {
		return ErrUnknownFormat
	}

	if c.GephiEndpoint != "" {
		g, err := url.Parse(c.GephiEndpoint)
		if err != nil || g.Host == "" {
			return ErrInvalidGephiEndpoint
		}
	}

	if c.UseTor && c.ProxyAddress != "" {
		return ErrConflictingProxies
	}

	if strings.HasSuffix(strings.ToLower(u.Hostname()), ".onion") && !c.UseTor && c.ProxyAddress == "" {
		return ErrOnionNeedsTor
	}

	return nil
}

// SiteFor returns the effective site settings for a host.
func (c *Config) SiteFor(host string) SiteConfig {
	if c.Sites == nil {
		return SiteConfig{}
	}
	return c.Sites.GetSiteConfig(host)
}
