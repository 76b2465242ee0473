package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"

	"github.com/nao1215/privacylens/internal/browser"
	"github.com/nao1215/privacylens/internal/config"
	"github.com/nao1215/privacylens/internal/domain"
	"github.com/nao1215/privacylens/internal/fetch"
	"github.com/nao1215/privacylens/internal/model"
	"github.com/nao1215/privacylens/internal/pipeline"
	"github.com/nao1215/privacylens/internal/scanner"
)

// network decides how page requests leave the machine: directly, through a
// SOCKS5 proxy or through an embedded Tor daemon.
type network struct {
	proxyAddress string
	tor          *fetch.EmbeddedTor
	logger       *slog.Logger
}

// setupNetwork verifies the configured proxy or starts the embedded Tor
// daemon. Progress messages for the Tor bootstrap are written to out.
func setupNetwork(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) (*network, error) {
	n := &network{logger: logger}

	switch {
	case cfg.UseTor:
		embeddedTor, err := startEmbeddedTor(ctx, cfg, out, logger)
		if err != nil {
			return nil, err
		}
		n.tor = embeddedTor
		n.proxyAddress = embeddedTor.SocksAddr()
	case cfg.ProxyAddress != "":
		status := fetch.CheckProxy(ctx, cfg.ProxyAddress)
		if status != fetch.ProxyStatusOK {
			return nil, fmt.Errorf("proxy check failed: %s (make sure a SOCKS5 proxy is running at %s): %w",
				status, cfg.ProxyAddress, status.Error())
		}
		logger.Info("proxy connection verified", slog.String("address", cfg.ProxyAddress))
		n.proxyAddress = cfg.ProxyAddress
	}
	return n, nil
}

// close stops the embedded Tor daemon, if one was started.
func (n *network) close() {
	if n == nil || n.tor == nil {
		return
	}
	n.logger.Info("stopping embedded Tor daemon...")
	if err := n.tor.Stop(); err != nil {
		n.logger.Error("failed to stop embedded Tor", slog.Any("error", err))
	}
}

// newClient creates a page client for one site.
func (n *network) newClient(opts ...fetch.Option) (*fetch.Client, error) {
	if n.tor != nil {
		return n.tor.NewClient(opts...)
	}
	if n.proxyAddress != "" {
		opts = append(opts, fetch.WithProxy(n.proxyAddress))
	}
	return fetch.New(opts...)
}

// startEmbeddedTor starts an embedded Tor daemon and verifies its SOCKS
// port answers.
func startEmbeddedTor(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) (*fetch.EmbeddedTor, error) {
	fmt.Fprintln(out, "Starting embedded Tor daemon...")
	fmt.Fprintf(out, "This may take 1-3 minutes while Tor bootstraps and connects to the network.\n\n")

	embeddedTor := fetch.NewEmbeddedTor(
		fetch.WithStartupTimeout(cfg.TorStartupTimeout),
	)
	if err := embeddedTor.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start embedded Tor: %w", err)
	}

	logger.Info("embedded Tor daemon started",
		slog.String("socksAddr", embeddedTor.SocksAddr()),
		slog.String("controlAddr", embeddedTor.ControlAddr()),
	)

	if status := fetch.CheckProxy(ctx, embeddedTor.SocksAddr()); status != fetch.ProxyStatusOK {
		_ = embeddedTor.Stop() //nolint:errcheck // Best effort cleanup
		return nil, fmt.Errorf("embedded Tor proxy check failed: %s", status)
	}

	fmt.Fprintf(out, "Embedded Tor daemon started. SOCKS proxy: %s\n\n", embeddedTor.SocksAddr())
	return embeddedTor, nil
}

// siteAnalyzer builds an aggregator per target so each site gets its own
// cookie, headers and observation window.
type siteAnalyzer struct {
	cfg     *config.Config
	network *network
	scanner *scanner.Scanner
	logger  *slog.Logger
}

// newSiteAnalyzer creates a siteAnalyzer. The scanner is shared by every
// target.
func newSiteAnalyzer(cfg *config.Config, n *network, logger *slog.Logger) (*siteAnalyzer, error) {
	mode, err := domain.ParseMode(cfg.DomainMode)
	if err != nil {
		return nil, err
	}
	if n == nil {
		n = &network{logger: logger}
	}
	return &siteAnalyzer{
		cfg:     cfg,
		network: n,
		scanner: scanner.New(
			scanner.WithClassifier(domain.NewClassifier(mode)),
			scanner.WithLogger(logger),
			scanner.WithLogAllInvalidURLs(cfg.LogAllInvalidURLs),
		),
		logger: logger,
	}, nil
}

// target applies the site's observation window to t.
func (s *siteAnalyzer) target(t browser.Target) browser.Target {
	if t.Window <= 0 {
		t.Window = s.cfg.Site(t.URL).ObservationWindow
	}
	return t
}

// Aggregator returns the aggregator for t. Renderer construction failures
// are reported by the aggregator when it renders.
func (s *siteAnalyzer) Aggregator(t browser.Target) *pipeline.Aggregator {
	renderer, err := s.renderer(t)
	if err != nil {
		renderer = failedRenderer{err: err}
	}
	return pipeline.NewAggregator(renderer,
		pipeline.WithScanner(s.scanner),
		pipeline.WithAggregatorLogger(s.logger),
	)
}

// Analyze renders and analyzes one target with its site settings.
func (s *siteAnalyzer) Analyze(ctx context.Context, t browser.Target) (*model.AnalysisReport, error) {
	t = s.target(t)
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	return s.Aggregator(t).Analyze(ctx, t)
}

func (s *siteAnalyzer) renderer(t browser.Target) (browser.Renderer, error) {
	site := s.cfg.Site(t.URL)

	if s.cfg.Renderer == config.RendererChrome {
		return browser.NewChromeRenderer(
			browser.WithExecPath(s.cfg.ChromePath),
			browser.WithHeadless(s.cfg.Headless),
			browser.WithChromeProxy(s.network.proxyAddress),
			browser.WithChromeUserAgent(s.cfg.UserAgent),
			browser.WithChromeCookie(site.Cookie),
			browser.WithChromeHeaders(site.Headers),
			browser.WithChromeWindow(site.ObservationWindow),
			browser.WithChromeTimeout(s.cfg.Timeout),
			browser.WithChromeLogger(s.logger),
		), nil
	}

	client, err := s.network.newClient(
		fetch.WithTimeout(s.cfg.Timeout),
		fetch.WithUserAgent(s.cfg.UserAgent),
		fetch.WithCookie(site.Cookie),
		fetch.WithHeaders(site.Headers),
		fetch.WithMaxBodySize(s.cfg.MaxBodySize),
		fetch.WithLogger(s.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create page client: %w", err)
	}
	return browser.NewSandboxRenderer(client,
		browser.WithSandboxWindow(site.ObservationWindow),
		browser.WithSandboxUserAgent(s.cfg.UserAgent),
		browser.WithSandboxLogger(s.logger),
	), nil
}

// failedRenderer reports a renderer construction error for every render.
type failedRenderer struct {
	err error
}

func (r failedRenderer) Render(context.Context, browser.Target) (*model.Page, error) {
	return nil, r.err
}

func (failedRenderer) Kind() browser.Kind {
	return browser.KindSandbox
}

// siteSecrets returns the cookie and header values from the site
// configuration so the logger can mask them wherever they show up.
func siteSecrets(cfg *config.Config) []string {
	if cfg.SiteConfigs == nil {
		return nil
	}
	sites := append([]config.SiteConfig{cfg.SiteConfigs.Defaults}, slices.Collect(maps.Values(cfg.SiteConfigs.Sites))...)

	var secrets []string
	for _, site := range sites {
		if site.Cookie != "" {
			secrets = append(secrets, site.Cookie)
		}
		for _, v := range site.Headers {
			secrets = append(secrets, v)
		}
	}
	slices.Sort(secrets)
	return slices.Compact(secrets)
}
