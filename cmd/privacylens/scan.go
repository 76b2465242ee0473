package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/privacylens/internal/browser"
	"github.com/nao1215/privacylens/internal/config"
	"github.com/nao1215/privacylens/internal/log"
	"github.com/nao1215/privacylens/internal/pipeline"
	"github.com/nao1215/privacylens/internal/report"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [url...]",
		Short: "Analyze web pages for privacy risks",
		Long: `Scan loads web pages, lets their scripts run for an observation window
and reports what they do to your privacy:
- Third-party domains (scripts, iframes, images, links)
- Dangerous dynamic code (eval, new Function, string timers, document.write)
- Fingerprinting APIs referenced by page scripts
- Canvas, WebGL and font fingerprinting observed at runtime
- Cookies and local storage use

Examples:
  # Analyze a single page
  privacylens scan https://www.example.com/

  # Analyze several pages, 8 at a time
  privacylens scan --batch 8 https://a.example/ https://b.example/

  # Analyze a saved HTML document as if served from a URL
  privacylens scan --file page.html --base-url https://www.example.com/

  # Run the page in headless Chrome and wait 5 seconds
  privacylens scan --renderer chrome --window 5s https://www.example.com/

  # Route page requests through Tor
  privacylens scan --tor https://www.example.com/

  # Save a JSON export per page
  privacylens scan --export-dir ./reports https://www.example.com/

Configuration file (.privacylens) example:
  defaults:
    observationWindow: 3s
  sites:
    www.example.com:
      cookie: "session_id=abc123"
      headers:
        Authorization: "Bearer token"`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	// Page loading flags
	cmd.Flags().StringP("renderer", "r", config.DefaultRenderer,
		"Page renderer: sandbox or chrome")
	cmd.Flags().StringP("file", "F", "",
		"Analyze a local HTML file instead of fetching a URL (requires --base-url)")
	cmd.Flags().String("base-url", "",
		"URL the --file document is treated as being served from")
	cmd.Flags().DurationP("window", "w", config.DefaultObservationWindow,
		"How long page scripts may run before runtime signals are read")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for loading and analyzing each page")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent sent with page requests")
	cmd.Flags().String("chrome-path", "",
		"Chrome or Chromium binary for the chrome renderer (default: search PATH)")

	// Analysis flags
	cmd.Flags().String("domain-mode", config.DefaultDomainMode,
		"Root domain grouping: heuristic or publicsuffix")
	cmd.Flags().Bool("log-all-invalid-urls", false,
		"Log unparseable URLs of every resource type, not only scripts")

	// Network flags
	cmd.Flags().StringP("proxy", "x", "",
		"Route page requests through a SOCKS5 proxy (e.g., 127.0.0.1:9050)")
	cmd.Flags().Bool("tor", false,
		"Route page requests through an embedded Tor daemon")
	cmd.Flags().DurationP("tor-timeout", "T", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")

	// Batch flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of pages analyzed concurrently")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .privacylens in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().StringP("export-dir", "e", "",
		"Also write a privacy-report-<host>-<ms>.json file per page to this directory")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose, log.WithSecrets(siteSecrets(cfg)...))
	slog.SetDefault(logger)

	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	return runScan(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error

	if cfg.Renderer, err = flags.GetString("renderer"); err != nil {
		return nil, err
	}
	if cfg.HTMLFile, err = flags.GetString("file"); err != nil {
		return nil, err
	}
	if cfg.BaseURL, err = flags.GetString("base-url"); err != nil {
		return nil, err
	}
	if cfg.ObservationWindow, err = flags.GetDuration("window"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.ChromePath, err = flags.GetString("chrome-path"); err != nil {
		return nil, err
	}
	if cfg.DomainMode, err = flags.GetString("domain-mode"); err != nil {
		return nil, err
	}
	if cfg.LogAllInvalidURLs, err = flags.GetBool("log-all-invalid-urls"); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.UseTor, err = flags.GetBool("tor"); err != nil {
		return nil, err
	}
	if cfg.TorStartupTimeout, err = flags.GetDuration("tor-timeout"); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.ExportDir, err = flags.GetString("export-dir"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	if cfg.SiteConfigs, err = loadSiteConfigs(cfg.ConfigFilePath); err != nil {
		return nil, err
	}

	cfg.Targets = args
	return cfg, nil
}

// loadSiteConfigs loads site-specific settings. A missing file is only an
// error when its path was given explicitly.
func loadSiteConfigs(explicitPath string) (*config.File, error) {
	configPath := config.FindConfigFile(explicitPath)
	switch {
	case configPath != "":
		return config.LoadConfigFile(configPath)
	case explicitPath != "":
		return nil, fmt.Errorf("configuration file not found: %s", explicitPath)
	default:
		return &config.File{Sites: make(map[string]config.SiteConfig)}, nil
	}
}

// buildTargets converts the configured URLs or HTML file into targets.
func buildTargets(cfg *config.Config) ([]browser.Target, error) {
	if cfg.HTMLFile != "" {
		content, err := os.ReadFile(cfg.HTMLFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read HTML file: %w", err)
		}
		return []browser.Target{{URL: cfg.BaseURL, HTML: string(content)}}, nil
	}

	targets := make([]browser.Target, 0, len(cfg.Targets))
	for _, u := range cfg.Targets {
		targets = append(targets, browser.Target{URL: u})
	}
	return targets, nil
}

// runScan analyzes every target and writes the reports to out, or to the
// report file. Progress messages go to status.
func runScan(ctx context.Context, cfg *config.Config, out, status io.Writer, logger *slog.Logger) error {
	if cfg.HTMLFile != "" && cfg.Renderer != config.RendererSandbox {
		logger.Warn("local HTML files are analyzed with the sandbox renderer",
			slog.String("renderer", cfg.Renderer))
		cfg.Renderer = config.RendererSandbox
	}

	targets, err := buildTargets(cfg)
	if err != nil {
		return err
	}

	if cfg.ReportFile != "" {
		f, err := createReportFile(cfg.ReportFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	writer := newReportWriter(cfg, out)

	logger.Info("starting analysis",
		slog.Int("targets", len(targets)),
		slog.String("renderer", cfg.Renderer),
		slog.Duration("window", cfg.ObservationWindow),
		slog.Int("batchSize", cfg.BatchSize),
	)

	n, err := setupNetwork(ctx, cfg, status, logger)
	if err != nil {
		return err
	}
	defer n.close()

	analyzer, err := newSiteAnalyzer(cfg, n, logger)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	for i := range targets {
		targets[i] = analyzer.target(targets[i])
	}

	bp := pipeline.NewBatchProcessor(analyzer.Aggregator,
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	start := time.Now()
	var (
		mu     sync.Mutex
		failed int
	)
	err = bp.ProcessBatchWithCallback(ctx, targets, func(r pipeline.Result, index int) {
		mu.Lock()
		defer mu.Unlock()

		if r.Err != nil {
			failed++
			fmt.Fprintf(status, "Analysis error for %s: %v\n", r.Target.URL, r.Err)
			return
		}
		if len(targets) > 1 {
			fmt.Fprintf(status, "[%d/%d] Analysis completed: %s\n", index+1, len(targets), r.Target.URL)
		}
		if _, err := writer.Write(r.Report); err != nil {
			logger.Error("report failed", slog.String("url", r.Target.URL), slog.Any("error", err))
		}
		if cfg.ExportDir != "" {
			path, err := report.Export(cfg.ExportDir, r.Report, time.Now())
			if err != nil {
				logger.Error("export failed", slog.String("url", r.Target.URL), slog.Any("error", err))
				return
			}
			fmt.Fprintf(status, "Exported report: %s\n", path)
		}
	})

	logger.Info("analysis finished",
		slog.Duration("elapsed", time.Since(start)),
		slog.Int("failed", failed),
	)
	if err != nil {
		return err
	}
	if failed == len(targets) {
		return fmt.Errorf("all %d page analyses failed", failed)
	}
	return nil
}

// createReportFile creates or truncates the report file and its parent
// directories. Reports hold page cookies, so only the owner may read them.
func createReportFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// newReportWriter returns the writer for the requested report format.
func newReportWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}
}
