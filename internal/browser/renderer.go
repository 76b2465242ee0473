package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/nao1215/privacylens/internal/model"
)

// DefaultWindow is the observation window used when neither the renderer
// nor the target sets one.
const DefaultWindow = 2 * time.Second

// Kind names a renderer implementation.
type Kind string

const (
	// KindSandbox runs inline scripts in the embedded JavaScript VM.
	KindSandbox Kind = "sandbox"
	// KindChrome drives a headless Chrome instance.
	KindChrome Kind = "chrome"
)

// ParseKind converts a renderer name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindSandbox, KindChrome:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRenderer, s)
	}
}

// Target is a page to analyze.
type Target struct {
	// URL is the page address. For HTML targets it is the base URL used to
	// resolve relative references and classify first-party resources.
	URL string

	// HTML, when set, is analyzed instead of fetching URL.
	HTML string

	// Window overrides the renderer's observation window when positive.
	Window time.Duration
}

// Renderer loads a target, lets its scripts run for the observation window
// and returns the resulting page.
type Renderer interface {
	Render(ctx context.Context, target Target) (*model.Page, error)
	Kind() Kind
}

// Fetcher retrieves the document for a URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*model.Page, error)
}

func windowFor(target Target, fallback time.Duration) time.Duration {
	if target.Window > 0 {
		return target.Window
	}
	if fallback > 0 {
		return fallback
	}
	return DefaultWindow
}
