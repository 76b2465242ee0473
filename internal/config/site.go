package config

import (
	"maps"
	"net/url"
	"strings"
	"time"
)

// SiteConfig holds settings applied to the pages of one site.
type SiteConfig struct {
	// Cookie is sent with page requests and seeds document.cookie.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in page requests.
	Headers map[string]string `yaml:"headers,omitempty"`

	// ObservationWindow overrides the global observation window.
	ObservationWindow time.Duration `yaml:"observationWindow,omitempty"`
}

// File represents the structure of the .privacylens configuration file.
type File struct {
	// Sites maps hostnames to their site-specific settings.
	// Keys are hostnames without scheme or port (e.g., "www.example.com").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults apply to every site unless overridden.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the settings for a page. target may be a URL or a
// bare hostname. Site settings are merged over the defaults; headers are
// merged key by key.
func (cf *File) GetSiteConfig(target string) SiteConfig {
	result := cf.Defaults
	if cf.Defaults.Headers != nil {
		result.Headers = maps.Clone(cf.Defaults.Headers)
	}

	siteConfig, ok := cf.Sites[siteKey(target)]
	if !ok {
		return result
	}
	if siteConfig.Cookie != "" {
		result.Cookie = siteConfig.Cookie
	}
	if siteConfig.ObservationWindow > 0 {
		result.ObservationWindow = siteConfig.ObservationWindow
	}
	if len(siteConfig.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		maps.Copy(result.Headers, siteConfig.Headers)
	}
	return result
}

// siteKey returns the lower-cased hostname of target.
func siteKey(target string) string {
	if strings.Contains(target, "://") {
		if u, err := url.Parse(target); err == nil {
			return strings.ToLower(u.Hostname())
		}
	}
	return strings.ToLower(target)
}
