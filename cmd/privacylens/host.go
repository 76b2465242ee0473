package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nao1215/privacylens/internal/bridge"
	"github.com/nao1215/privacylens/internal/config"
	"github.com/nao1215/privacylens/internal/database"
	"github.com/nao1215/privacylens/internal/log"
)

// NewHostCmd creates the host command.
func NewHostCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "host [origin]",
		Short: "Run as the browser extension's native messaging host",
		Long: `Host speaks the browser native messaging protocol on stdin and stdout.

The extension sends the report of every analyzed tab, the popup asks for the
report of the active tab, and tab activation, window focus and tab removal
events keep the active tab and the stored reports in sync.

Browsers start the host themselves and pass the caller's origin as an
argument, which is ignored. Logs go to stderr because stdout carries the
protocol.

Examples:
  # Keep reports in memory (default)
  privacylens host

  # Keep reports in SQLite under the XDG data directory
  privacylens host --store sqlite

  # Also accept ANALYZE requests and analyze pages in the host
  privacylens host --analyze --renderer chrome`,
		Args: cobra.ArbitraryArgs,
		RunE: runHostCmd,
	}

	cmd.Flags().StringP("store", "s", config.DefaultStoreBackend,
		"Report store: memory or sqlite")
	cmd.Flags().String("db-dir", "",
		"Directory of the SQLite store (default: XDG data directory)")
	cmd.Flags().Bool("analyze", false,
		"Accept ANALYZE requests and analyze pages in the host")
	cmd.Flags().StringP("renderer", "r", config.DefaultRenderer,
		"Page renderer for ANALYZE: sandbox or chrome")
	cmd.Flags().DurationP("window", "w", config.DefaultObservationWindow,
		"How long page scripts may run before runtime signals are read")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for loading and analyzing each page")
	cmd.Flags().String("domain-mode", config.DefaultDomainMode,
		"Root domain grouping: heuristic or publicsuffix")
	cmd.Flags().String("chrome-path", "",
		"Chrome or Chromium binary for the chrome renderer (default: search PATH)")
	cmd.Flags().StringP("proxy", "x", "",
		"Route page requests through a SOCKS5 proxy (e.g., 127.0.0.1:9050)")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .privacylens in current or home directory)")

	return cmd
}

// hostOptions are the host command settings that are not part of Config.
type hostOptions struct {
	analyze bool
}

// runHostCmd executes the host command.
func runHostCmd(cmd *cobra.Command, _ []string) error {
	cfg, opts, err := buildHostConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.ValidateHost(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose, log.WithSecrets(siteSecrets(cfg)...))
	slog.SetDefault(logger)

	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	return runHost(ctx, cfg, opts, cmd.InOrStdin(), cmd.OutOrStdout(), logger)
}

// buildHostConfig creates a Config from the host command flags.
func buildHostConfig(cmd *cobra.Command) (*config.Config, hostOptions, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var (
		opts hostOptions
		err  error
	)

	if cfg.StoreBackend, err = flags.GetString("store"); err != nil {
		return nil, opts, err
	}
	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, opts, err
	}
	if opts.analyze, err = flags.GetBool("analyze"); err != nil {
		return nil, opts, err
	}
	if cfg.Renderer, err = flags.GetString("renderer"); err != nil {
		return nil, opts, err
	}
	if cfg.ObservationWindow, err = flags.GetDuration("window"); err != nil {
		return nil, opts, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, opts, err
	}
	if cfg.DomainMode, err = flags.GetString("domain-mode"); err != nil {
		return nil, opts, err
	}
	if cfg.ChromePath, err = flags.GetString("chrome-path"); err != nil {
		return nil, opts, err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, opts, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, opts, err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	if cfg.SiteConfigs, err = loadSiteConfigs(cfg.ConfigFilePath); err != nil {
		return nil, opts, err
	}
	return cfg, opts, nil
}

// runHost serves the native messaging protocol on in and out until in is
// closed or ctx is cancelled.
func runHost(ctx context.Context, cfg *config.Config, opts hostOptions, in io.Reader, out io.Writer, logger *slog.Logger) error {
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	hostOpts := []bridge.HostOption{bridge.WithHostLogger(logger)}
	if opts.analyze {
		n, err := setupNetwork(ctx, cfg, io.Discard, logger)
		if err != nil {
			return err
		}
		defer n.close()

		analyzer, err := newSiteAnalyzer(cfg, n, logger)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
		hostOpts = append(hostOpts, bridge.WithAnalyzer(analyzer))
	}

	logger.Info("native messaging host started",
		slog.String("store", cfg.StoreBackend),
		slog.Bool("analyze", opts.analyze),
	)
	err = bridge.NewHost(store, hostOpts...).Serve(ctx, in, out)
	logger.Info("native messaging host stopped")
	return err
}

// openStore opens the configured report store. Tab ids do not survive a
// browser restart, so a SQLite store is cleared on open.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (bridge.Store, func(), error) {
	if cfg.StoreBackend != config.StoreSQLite {
		return bridge.NewMemoryStore(), func() {}, nil
	}

	db, err := database.Open(cfg.DatabaseDir(), database.DefaultOptions())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Clear(ctx); err != nil {
		_ = db.Close() //nolint:errcheck // Best effort cleanup
		return nil, nil, err
	}
	logger.Info("database opened", slog.String("path", db.Path()))

	return db, func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}, nil
}
