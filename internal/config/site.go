package config

import (
	"strings"
	"time"
)

// SiteConfig holds request settings for a single host.
type SiteConfig struct {
	// Cookie is sent as the Cookie header.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are extra HTTP headers sent with every fetch to the host.
	Headers map[string]string `yaml:"headers,omitempty"`
}

// Defaults holds the crawl settings a config file may provide.
// Zero values mean "not set"; command line flags always win.
type Defaults struct {
	SiteConfig `yaml:",inline"`

	Depth     int           `yaml:"depth,omitempty"`
	Threads   int           `yaml:"threads,omitempty"`
	Gephi     *string       `yaml:"gephi,omitempty"`
	UserAgent string        `yaml:"userAgent,omitempty"`
	Timeout   time.Duration `yaml:"timeout,omitempty"`
	Filters   []string      `yaml:"filters,omitempty"`
	Ignore    []string      `yaml:"ignore,omitempty"`
	Format    string        `yaml:"format,omitempty"`
}

// File represents the structure of the linkgraph configuration file.
type File struct {
	// Defaults apply to every run and every host.
	Defaults Defaults `yaml:"defaults,omitempty"`

	// Sites maps a host name to its request settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`
}

// GetSiteConfig returns the request settings for host, merging the
// host entry over the defaults.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := SiteConfig{Cookie: cf.Defaults.Cookie}
	if len(cf.Defaults.Headers) > 0 {
		result.Headers = make(map[string]string, len(cf.Defaults.Headers))
		for k, v := range cf.Defaults.Headers {
			result.Headers[k] = v
		}
	}

	site, ok := cf.Sites[strings.ToLower(host)]
	if !ok {
		return result
	}
	if site.Cookie != "" {
		result.Cookie = site.Cookie
	}
	if len(site.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(site.Headers))
		}
		for k, v := range site.Headers {
			result.Headers[k] = v
		}
	}
	return result
}

// ApplyTo copies the file defaults into c for every option the caller
// did not set explicitly. isSet reports whether the named flag was given.
func (cf *File) ApplyTo(c *Config, isSet func(name string) bool) {
	d := cf.Defaults

	if d.Depth > 0 && !isSet("depth") {
		c.MaxDepth = d.Depth
	}
	if d.Threads > 0 && !isSet("threads") {
		c.Threads = d.Threads
	}
	if d.Gephi != nil && !isSet("gephi") {
		c.GephiEndpoint = *d.Gephi
	}
	if d.UserAgent != "" && !isSet("user-agent") {
		c.UserAgent = d.UserAgent
	}
	if d.Timeout > 0 && !isSet("timeout") {
		c.Timeout = d.Timeout
	}
	if len(d.Filters) > 0 && !isSet("f") {
		c.Filters = d.Filters
	}
	if len(d.Ignore) > 0 && !isSet("ignore") {
		c.Ignore = d.Ignore
	}
	if d.Format != "" && !isSet("format") {
		c.Format = d.Format
	}
}
