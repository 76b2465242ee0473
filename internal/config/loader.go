package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".privacylens"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile reads the site configuration file at path. A missing file
// is reported as ErrConfigNotFound so callers can ignore it unless the path
// was given explicitly. Site keys are normalized to lower-case hostnames.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the user on purpose
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrConfigNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cf := &File{}
	if err := yaml.Unmarshal(data, cf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cf.normalize(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	return cf, nil
}

// normalize rekeys Sites by siteKey and rejects negative windows. A zero
// window means "not set".
func (cf *File) normalize() error {
	if cf.Defaults.ObservationWindow < 0 {
		return fmt.Errorf("defaults: %w", ErrInvalidWindow)
	}
	sites := make(map[string]SiteConfig, len(cf.Sites))
	for host, site := range cf.Sites {
		if site.ObservationWindow < 0 {
			return fmt.Errorf("site %s: %w", host, ErrInvalidWindow)
		}
		sites[siteKey(strings.TrimSpace(host))] = site
	}
	cf.Sites = sites
	return nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .privacylens in the current directory
// 3. Look for .privacylens in the user's home directory
// 4. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), "config.yaml"))

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}
