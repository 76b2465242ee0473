package browser

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/nao1215/privacylens/internal/intercept"
	"github.com/nao1215/privacylens/internal/model"
	"github.com/nao1215/privacylens/internal/scanner"
)

// SandboxRenderer renders pages in the embedded JavaScript sandbox.
type SandboxRenderer struct {
	fetcher    Fetcher
	window     time.Duration
	hookPoints []intercept.HookPoint
	userAgent  string
	logger     *slog.Logger
}

// SandboxOption configures a SandboxRenderer.
type SandboxOption func(*SandboxRenderer)

// WithSandboxWindow sets the default observation window.
func WithSandboxWindow(d time.Duration) SandboxOption {
	return func(r *SandboxRenderer) {
		r.window = d
	}
}

// WithSandboxHookPoints replaces the default hook catalog.
func WithSandboxHookPoints(points []intercept.HookPoint) SandboxOption {
	return func(r *SandboxRenderer) {
		r.hookPoints = points
	}
}

// WithSandboxUserAgent sets navigator.userAgent inside the sandbox.
func WithSandboxUserAgent(ua string) SandboxOption {
	return func(r *SandboxRenderer) {
		r.userAgent = ua
	}
}

// WithSandboxLogger sets the logger.
func WithSandboxLogger(logger *slog.Logger) SandboxOption {
	return func(r *SandboxRenderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewSandboxRenderer creates a sandbox renderer. fetcher may be nil when
// only HTML targets are rendered.
func NewSandboxRenderer(fetcher Fetcher, opts ...SandboxOption) *SandboxRenderer {
	r := &SandboxRenderer{
		fetcher:    fetcher,
		window:     DefaultWindow,
		hookPoints: intercept.DefaultHookPoints(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Kind returns KindSandbox.
func (r *SandboxRenderer) Kind() Kind {
	return KindSandbox
}

// Render loads the target document and runs its inline scripts with the
// hooks installed. Script errors do not fail the render. Resource elements
// that scripts attached during the window and left attached are appended to
// the returned HTML.
func (r *SandboxRenderer) Render(ctx context.Context, target Target) (*model.Page, error) {
	page, err := r.load(ctx, target)
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(page.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page URL %q: %w", page.URL, err)
	}
	doc, err := scanner.ParseDocument(strings.NewReader(page.HTML))
	if err != nil {
		return nil, err
	}

	interceptor := intercept.New(
		intercept.WithHookPoints(r.hookPoints),
		intercept.WithLogger(r.logger.With(slog.String("url", page.URL))),
	)
	opts := []intercept.SandboxOption{
		intercept.WithCookies(page.Cookie),
		intercept.WithSandboxLogger(r.logger),
	}
	if r.userAgent != "" {
		opts = append(opts, intercept.WithUserAgent(r.userAgent))
	}
	sb, err := intercept.NewSandbox(base, interceptor, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sandbox: %w", err)
	}

	window := windowFor(target, r.window)
	res := sb.Run(ctx, scanner.Scripts(doc, base), window)
	r.logger.DebugContext(ctx, "page scripts executed",
		slog.String("url", page.URL),
		slog.Int("executed", res.Executed),
		slog.Int("failed", res.Failed),
		slog.Int("timers", res.TimersFired),
		slog.Bool("interrupted", res.Interrupted),
		slog.Duration("window", window),
	)

	attached, err := sb.Attached()
	if err != nil {
		r.logger.DebugContext(ctx, "script-attached elements unavailable",
			slog.String("url", page.URL),
			slog.Any("error", err),
		)
	} else if len(attached) > 0 {
		rendered, err := appendElements(doc, attached)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize %s: %w", page.URL, err)
		}
		page.HTML = rendered
		r.logger.DebugContext(ctx, "script-attached elements added",
			slog.String("url", page.URL),
			slog.Int("elements", len(attached)),
		)
	}

	page.Cookie = sb.Cookie()
	page.Signals = sb.Signals()
	return page, nil
}

// appendElements adds elements to the end of the head or body of doc, in
// order, and returns the serialized document.
func appendElements(doc *goquery.Document, elements []intercept.Element) (string, error) {
	head := doc.Find("head").First()
	body := doc.Find("body").First()
	for _, el := range elements {
		node := &html.Node{
			Type:     html.ElementNode,
			Data:     el.Tag,
			DataAtom: atom.Lookup([]byte(el.Tag)),
		}
		for _, k := range slices.Sorted(maps.Keys(el.Attrs)) {
			node.Attr = append(node.Attr, html.Attribute{Key: k, Val: el.Attrs[k]})
		}
		if el.InHead {
			head.AppendNodes(node)
		} else {
			body.AppendNodes(node)
		}
	}
	return doc.Html()
}

func (r *SandboxRenderer) load(ctx context.Context, target Target) (*model.Page, error) {
	if target.URL == "" {
		return nil, ErrNoTarget
	}
	if target.HTML != "" {
		return &model.Page{URL: target.URL, HTML: target.HTML}, nil
	}
	if r.fetcher == nil {
		return nil, fmt.Errorf("no fetcher configured for %s", target.URL)
	}
	return r.fetcher.Fetch(ctx, target.URL)
}
