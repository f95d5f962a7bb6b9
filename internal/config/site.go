package config

import (
	"maps"
	"time"

	"dario.cat/mergo"
)

// SiteConfig holds configuration for a single host.
// This allows sending cookies or headers a site expects, and slowing down
// requests for sites that need it.
type SiteConfig struct {
	// Cookie is an HTTP cookie to send to this site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Delay overrides the request delay when this site is the base site.
	// If zero, the global delay is used.
	Delay time.Duration `yaml:"delay,omitempty"`

	// UserAgent overrides the User-Agent header for this site.
	UserAgent string `yaml:"userAgent,omitempty"`
}

// File represents the structure of the .jsprobe configuration file.
type File struct {
	// Sites maps host names to their site-specific configurations.
	// Keys are host names without scheme or port (e.g., "example.com").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains default site configuration applied to all sites
	// unless overridden in the site-specific configuration.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for host: the defaults with
// every non-empty site-specific field layered on top. Header maps are
// merged key by key. The defaults are never modified.
func (cf *File) GetSiteConfig(host string) (SiteConfig, error) {
	result := cf.Defaults
	result.Headers = maps.Clone(cf.Defaults.Headers)

	site, ok := cf.Sites[host]
	if !ok {
		return result, nil
	}

	if err := mergo.Merge(&result, site, mergo.WithOverride); err != nil {
		return SiteConfig{}, err
	}
	return result, nil
}

// RequestHeaders returns the headers to send to host, including the cookie
// and User-Agent overrides. It returns nil when nothing is configured.
func (cf *File) RequestHeaders(host string) map[string]string {
	if cf == nil {
		return nil
	}

	sc, err := cf.GetSiteConfig(host)
	if err != nil {
		return nil
	}

	headers := make(map[string]string, len(sc.Headers)+2)
	maps.Copy(headers, sc.Headers)
	if sc.Cookie != "" {
		headers["Cookie"] = sc.Cookie
	}
	if sc.UserAgent != "" {
		headers["User-Agent"] = sc.UserAgent
	}

	if len(headers) == 0 {
		return nil
	}
	return headers
}
