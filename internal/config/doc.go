// Package config holds the runtime configuration of privacylens and loads
// the optional .privacylens file with per-site settings.
package config
