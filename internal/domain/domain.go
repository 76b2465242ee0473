package domain

import (
	"fmt"
	"strings"

	"github.com/Motmedel/utils_go/pkg/net/domain_breakdown"
)

// Mode selects how a hostname is reduced to its root domain.
type Mode string

const (
	// ModeHeuristic keeps the last two labels of the hostname.
	ModeHeuristic Mode = "heuristic"

	// ModePublicSuffix uses the registrable domain from the public suffix list.
	// Hosts the list cannot break down (IP literals, single labels) fall back
	// to the heuristic.
	ModePublicSuffix Mode = "publicsuffix"
)

// ParseMode converts a user supplied string into a Mode.
// An empty string selects ModeHeuristic.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeHeuristic:
		return ModeHeuristic, nil
	case ModePublicSuffix:
		return ModePublicSuffix, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// RootDomain returns the last two dot-separated labels of hostname joined by
// a dot. A hostname with fewer than two labels is returned unchanged.
func RootDomain(hostname string) string {
	parts := strings.Split(hostname, ".")
	if len(parts) >= 2 {
		return strings.Join(parts[len(parts)-2:], ".")
	}
	return hostname
}

// Classifier reduces hostnames to root domains using a fixed Mode.
// A Classifier is safe for concurrent use.
type Classifier struct {
	mode Mode
}

// NewClassifier returns a Classifier for mode. Unknown modes behave like
// ModeHeuristic.
func NewClassifier(mode Mode) *Classifier {
	if mode != ModePublicSuffix {
		mode = ModeHeuristic
	}
	return &Classifier{mode: mode}
}

// Mode reports the mode the classifier was built with.
func (c *Classifier) Mode() Mode {
	return c.mode
}

// Root returns the root domain of hostname.
func (c *Classifier) Root(hostname string) string {
	if c.mode == ModePublicSuffix {
		if breakdown := domain_breakdown.GetDomainBreakdown(hostname); breakdown != nil && breakdown.RegisteredDomain != "" {
			return breakdown.RegisteredDomain
		}
	}
	return RootDomain(hostname)
}

// IsThirdParty classifies hostname against the page root domain.
// It returns the hostname's root and whether that root differs from pageRoot.
func (c *Classifier) IsThirdParty(pageRoot, hostname string) (string, bool) {
	root := c.Root(hostname)
	return root, root != pageRoot
}
