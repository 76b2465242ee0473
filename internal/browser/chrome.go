package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/nao1215/privacylens/internal/intercept"
	"github.com/nao1215/privacylens/internal/model"
)

// DefaultChromeTimeout bounds one Chrome render, including browser start.
const DefaultChromeTimeout = 60 * time.Second

// ChromeRenderer renders pages in headless Chrome.
type ChromeRenderer struct {
	execPath   string
	headless   bool
	proxy      string
	userAgent  string
	cookie     string
	headers    map[string]string
	window     time.Duration
	timeout    time.Duration
	hookPoints []intercept.HookPoint
	logger     *slog.Logger
}

// ChromeOption configures a ChromeRenderer.
type ChromeOption func(*ChromeRenderer)

// WithExecPath sets the Chrome binary. Empty means chromedp's lookup.
func WithExecPath(path string) ChromeOption {
	return func(r *ChromeRenderer) {
		r.execPath = path
	}
}

// WithHeadless toggles headless mode.
func WithHeadless(headless bool) ChromeOption {
	return func(r *ChromeRenderer) {
		r.headless = headless
	}
}

// WithChromeProxy routes browser traffic through a SOCKS5 proxy.
func WithChromeProxy(address string) ChromeOption {
	return func(r *ChromeRenderer) {
		r.proxy = address
	}
}

// WithChromeUserAgent overrides the browser user agent.
func WithChromeUserAgent(ua string) ChromeOption {
	return func(r *ChromeRenderer) {
		r.userAgent = ua
	}
}

// WithChromeCookie sets cookies for the page URL before navigation.
func WithChromeCookie(cookie string) ChromeOption {
	return func(r *ChromeRenderer) {
		r.cookie = cookie
	}
}

// WithChromeHeaders sends extra headers with every request.
func WithChromeHeaders(headers map[string]string) ChromeOption {
	return func(r *ChromeRenderer) {
		r.headers = headers
	}
}

// WithChromeWindow sets the default observation window.
func WithChromeWindow(d time.Duration) ChromeOption {
	return func(r *ChromeRenderer) {
		r.window = d
	}
}

// WithChromeTimeout bounds a single render.
func WithChromeTimeout(d time.Duration) ChromeOption {
	return func(r *ChromeRenderer) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithChromeHookPoints replaces the default hook catalog.
func WithChromeHookPoints(points []intercept.HookPoint) ChromeOption {
	return func(r *ChromeRenderer) {
		r.hookPoints = points
	}
}

// WithChromeLogger sets the logger.
func WithChromeLogger(logger *slog.Logger) ChromeOption {
	return func(r *ChromeRenderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewChromeRenderer creates a Chrome renderer. The browser is started per
// render and shut down afterwards.
func NewChromeRenderer(opts ...ChromeOption) *ChromeRenderer {
	r := &ChromeRenderer{
		headless:   true,
		window:     DefaultWindow,
		timeout:    DefaultChromeTimeout,
		hookPoints: intercept.DefaultHookPoints(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Kind returns KindChrome.
func (r *ChromeRenderer) Kind() Kind {
	return KindChrome
}

// Render navigates to the target with the hook script registered for every
// new document, waits the observation window and reads back the document,
// document.cookie and the latched signals.
func (r *ChromeRenderer) Render(ctx context.Context, target Target) (*model.Page, error) {
	if target.URL == "" {
		return nil, ErrNoTarget
	}
	if target.HTML != "" {
		return nil, ErrHTMLUnsupported
	}

	script, err := intercept.InjectionScript(r.hookPoints)
	if err != nil {
		return nil, err
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, r.allocatorOptions()...)
	defer cancelAlloc()
	taskCtx, cancelTask := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(r.logf(slog.LevelDebug)),
		chromedp.WithErrorf(r.logf(slog.LevelWarn)),
	)
	defer cancelTask()
	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, r.timeout)
	defer cancelTimeout()

	var (
		html        string
		cookie      string
		signalsJSON string
		location    string
	)
	window := windowFor(target, r.window)
	tasks := chromedp.Tasks{
		network.Enable(),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(script).Do(ctx)
			return err
		}),
		r.prepareRequests(target.URL),
		chromedp.Navigate(target.URL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(window),
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Evaluate(`document.cookie`, &cookie),
		chromedp.Evaluate(intercept.SignalsExpression(), &signalsJSON),
	}
	if err := chromedp.Run(taskCtx, tasks); err != nil {
		return nil, fmt.Errorf("failed to render %s in chrome: %w", target.URL, err)
	}

	var signals model.RuntimeSignals
	if err := json.Unmarshal([]byte(signalsJSON), &signals); err != nil {
		return nil, fmt.Errorf("failed to decode runtime signals: %w", err)
	}
	r.logger.DebugContext(ctx, "page rendered in chrome",
		slog.String("url", location),
		slog.Duration("window", window),
		slog.Bool("canvas", signals.Canvas),
		slog.Bool("webgl", signals.WebGL),
		slog.Bool("localStorage", signals.LocalStorage),
	)

	return &model.Page{
		URL:     location,
		HTML:    html,
		Cookie:  cookie,
		Signals: signals,
	}, nil
}

func (r *ChromeRenderer) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", r.headless),
		chromedp.Flag("disable-gpu", r.headless),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("no-first-run", true),
	)
	if r.execPath != "" {
		opts = append(opts, chromedp.ExecPath(r.execPath))
	}
	if r.proxy != "" {
		opts = append(opts, chromedp.ProxyServer("socks5://"+r.proxy))
	}
	if r.userAgent != "" {
		opts = append(opts, chromedp.UserAgent(r.userAgent))
	}
	return opts
}

// prepareRequests sets the configured headers and cookies before the first
// navigation.
func (r *ChromeRenderer) prepareRequests(pageURL string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if len(r.headers) > 0 {
			headers := make(network.Headers, len(r.headers))
			for k, v := range r.headers {
				headers[k] = v
			}
			if err := network.SetExtraHTTPHeaders(headers).Do(ctx); err != nil {
				return fmt.Errorf("failed to set extra headers: %w", err)
			}
		}
		for _, pair := range strings.Split(r.cookie, ";") {
			name, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
			if !ok || name == "" {
				continue
			}
			if err := network.SetCookie(name, value).WithURL(pageURL).Do(ctx); err != nil {
				return fmt.Errorf("failed to set cookie %s: %w", name, err)
			}
		}
		return nil
	})
}

func (r *ChromeRenderer) logf(level slog.Level) func(string, ...any) {
	return func(format string, args ...any) {
		r.logger.Log(context.Background(), level, "chrome", slog.String("message", fmt.Sprintf(format, args...)))
	}
}
