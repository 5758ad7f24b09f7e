package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/nao1215/linkgraph/internal/config"
	"github.com/nao1215/linkgraph/internal/crawler"
	"github.com/nao1215/linkgraph/internal/database"
	"github.com/nao1215/linkgraph/internal/gephi"
	"github.com/nao1215/linkgraph/internal/log"
	"github.com/nao1215/linkgraph/internal/metrics"
	"github.com/nao1215/linkgraph/internal/pipeline"
	"github.com/nao1215/linkgraph/internal/report"
	"github.com/nao1215/linkgraph/internal/tor"
	"github.com/spf13/cobra"
)

// addCrawlFlags registers the flags shared by the html and wiki commands.
func addCrawlFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	// Traversal
	flags.String("url", "", "Seed URL to start crawling from")
	flags.Int("depth", config.DefaultDepth, "Maximum traversal depth (the seed is depth 0)")
	flags.Bool("ignore-query", false, "Strip the query string before comparing URLs")
	flags.StringArray("f", nil, "Only follow URLs containing this substring (repeatable)")
	flags.StringArray("ignore", nil, "Never follow URLs containing this substring (repeatable)")
	flags.Int("threads", config.DefaultThreads, "Number of page fetches in flight at once")
	flags.Bool("continue-on-error", false, "Log failed fetches and keep crawling instead of aborting")

	// Requests
	flags.Duration("timeout", config.DefaultTimeout, "Timeout for each request")
	flags.String("user-agent", config.DefaultUserAgent, "User agent sent with every page fetch")
	flags.String("proxy", "", "Crawl through an external SOCKS5 proxy at this address (e.g., 127.0.0.1:9050)")
	flags.Bool("tor", false, "Start an embedded Tor daemon and crawl through it")
	flags.Duration("tor-timeout", config.DefaultTorStartupTimeout, "Timeout for embedded Tor startup")

	// Outputs
	flags.String("gephi", config.DefaultGephiEndpoint, "Gephi workspace endpoint; empty disables streaming")
	flags.StringP("output", "o", "", "Write the export to this file instead of stdout (creates directories if needed)")
	flags.String("format", config.DefaultFormat, "Export format: csv, json or markdown")
	flags.String("metrics-addr", "", "Serve Prometheus metrics on this address while crawling (e.g., :9090)")
	flags.Bool("no-archive", false, "Do not record the run in the local archive")
	flags.String("db-dir", config.XDGDataDir(), "Directory holding the run archive")

	flags.StringP("config", "c", "",
		"Configuration file path (default: .linkgraph.yaml in current or home directory)")
}

// runCrawlCmd executes a crawl in the given mode.
func runCrawlCmd(cmd *cobra.Command, mode config.Mode) error {
	cfg, err := buildConfig(cmd, mode)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cmd, cfg, logger)
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

// buildConfig creates a Config from the command flags and the config file.
func buildConfig(cmd *cobra.Command, mode config.Mode) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Mode = mode
	cfg.Verbose = getVerboseFlag(cmd)

	flags := cmd.Flags()
	var err error

	if cfg.SeedURL, err = flags.GetString("url"); err != nil {
		return nil, err
	}
	if cfg.MaxDepth, err = flags.GetInt("depth"); err != nil {
		return nil, err
	}
	if cfg.StripQuery, err = flags.GetBool("ignore-query"); err != nil {
		return nil, err
	}
	if cfg.Filters, err = flags.GetStringArray("f"); err != nil {
		return nil, err
	}
	if cfg.Ignore, err = flags.GetStringArray("ignore"); err != nil {
		return nil, err
	}
	if cfg.Threads, err = flags.GetInt("threads"); err != nil {
		return nil, err
	}
	if cfg.ContinueOnError, err = flags.GetBool("continue-on-error"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
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
	if cfg.GephiEndpoint, err = flags.GetString("gephi"); err != nil {
		return nil, err
	}
	if cfg.OutputPath, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.Format, err = flags.GetString("format"); err != nil {
		return nil, err
	}
	if cfg.MetricsAddr, err = flags.GetString("metrics-addr"); err != nil {
		return nil, err
	}
	noArchive, err := flags.GetBool("no-archive")
	if err != nil {
		return nil, err
	}
	cfg.Archive = !noArchive
	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}

	if mode == config.ModeWiki {
		if cfg.WikiAmount, err = flags.GetInt("amount"); err != nil {
			return nil, err
		}
		if flags.Changed("link") {
			link, err := flags.GetInt("link")
			if err != nil {
				return nil, err
			}
			cfg.WikiLinkIndex = &link
		}
	}

	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}

	// An explicit --config must exist; the default lookup may find nothing.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cf, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cf.ApplyTo(cfg, flags.Changed)
		cfg.Sites = cf
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	return cfg, nil
}

// runCrawl wires the transport, sinks and archive around one engine run.
func runCrawl(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting crawl",
		"url", cfg.SeedURL,
		"mode", string(cfg.Mode),
		"depth", cfg.MaxDepth,
		"threads", cfg.Threads,
	)

	var archive *database.Archive
	if cfg.Archive {
		var err error
		archive, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open archive: %w", err)
		}
		defer archive.Close()
		logger.Debug("archive opened", "path", archive.Path())
	}

	httpClient, cleanup, err := newHTTPClient(ctx, cmd.ErrOrStderr(), cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	collector := metrics.New()
	if cfg.MetricsAddr != "" {
		srv, err := metrics.Listen(cfg.MetricsAddr, collector, logger)
		if err != nil {
			return fmt.Errorf("failed to start metrics listener: %w", err)
		}
		go srv.Serve()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("failed to stop metrics listener", "error", err)
			}
		}()
	}

	engineOpts := []crawler.Option{
		crawler.WithFetcher(crawler.NewHTTPFetcher(httpClient,
			crawler.WithUserAgent(cfg.UserAgent),
			crawler.WithMaxBodySize(cfg.MaxBodySize),
			crawler.WithSiteConfig(cfg.SiteFor),
		)),
		crawler.WithMetrics(collector),
		crawler.WithLogger(logger),
	}

	if cfg.GephiEndpoint != "" {
		// Gephi runs next to the user, never through the crawl proxy:
		// a SOCKS5 exit cannot reach localhost, and graph events must not
		// leave the machine when crawling over Tor.
		g, err := gephi.NewClient(cfg.GephiEndpoint,
			gephi.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
		if err != nil {
			return fmt.Errorf("failed to create gephi client: %w", err)
		}
		engineOpts = append(engineOpts, crawler.WithReporter(g))
	}

	engine, err := crawler.NewEngine(cfg, engineOpts...)
	if err != nil {
		return err
	}

	result, runErr := engine.Run(ctx)

	var output io.Writer = cmd.OutOrStdout()
	if cfg.OutputPath != "" && runErr == nil {
		f, err := createOutputFile(cfg.OutputPath)
		if err != nil {
			return err
		}
		defer f.Close()
		output = f
	}

	exportWriter, err := report.New(cfg.Format, output, getVersion())
	if err != nil {
		return err
	}

	p := pipeline.New(
		pipeline.WithLogger(logger),
		pipeline.WithContinueOnError(true),
	)
	if archive != nil {
		p.AddStep(pipeline.NewArchiveStep(archive, logger))
	}
	p.AddStep(pipeline.NewExportStep(cfg.Format, exportWriter, pipeline.WithExportLogger(logger)))
	if cfg.OutputPath != "" || runErr != nil {
		p.AddStep(pipeline.NewExportStep("summary",
			report.NewSummaryWriter(cmd.ErrOrStderr(), report.WithVerbose(cfg.Verbose)),
			pipeline.WithExportOnFailure(true),
			pipeline.WithExportLogger(logger),
		))
	}

	// Post-processing must run even after an interrupt.
	pipeErr := p.Execute(context.WithoutCancel(ctx), result)

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			return fmt.Errorf("crawl interrupted: %w", runErr)
		}
		return fmt.Errorf("crawl failed: %w", runErr)
	}
	if pipeErr != nil {
		return fmt.Errorf("failed to write results: %w", pipeErr)
	}
	return nil
}

// newHTTPClient returns the client page fetches go through, and a cleanup
// function that releases whatever was started for it.
func newHTTPClient(ctx context.Context, status io.Writer, cfg *config.Config, logger *slog.Logger) (*http.Client, func(), error) {
	switch {
	case cfg.UseTor:
		client, embeddedTor, err := startEmbeddedTor(ctx, status, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return client.NewHTTPClient(), func() {
			logger.Info("stopping embedded Tor daemon...")
			if err := embeddedTor.Stop(); err != nil {
				logger.Error("failed to stop embedded Tor", "error", err)
			}
		}, nil

	case cfg.ProxyAddress != "":
		client, err := tor.NewClient(cfg.ProxyAddress, cfg.Timeout, tor.WithMaxConnsPerHost(cfg.Threads))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create proxy client: %w", err)
		}
		if err := client.CheckConnection(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("proxy check failed: %w (make sure a SOCKS5 proxy is running at %s)",
				err, cfg.ProxyAddress)
		}
		logger.Info("proxy connection verified", "address", cfg.ProxyAddress)
		return client.NewHTTPClient(), func() {}, nil

	default:
		return &http.Client{Timeout: cfg.Timeout}, func() {}, nil
	}
}

// startEmbeddedTor starts an embedded Tor daemon using tornago.
func startEmbeddedTor(ctx context.Context, status io.Writer, cfg *config.Config, logger *slog.Logger) (*tor.Client, *tor.EmbeddedTor, error) {
	fmt.Fprintln(status, "Starting embedded Tor daemon...")
	fmt.Fprintf(status, "This may take 1-3 minutes while Tor bootstraps and connects to the network.\n\n")

	embeddedTor := tor.NewEmbeddedTor(
		tor.WithStartupTimeout(cfg.TorStartupTimeout),
	)
	if err := embeddedTor.Start(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to start embedded Tor: %w", err)
	}

	logger.Info("embedded Tor daemon started", "socksAddr", embeddedTor.SocksAddr())
	fmt.Fprintf(status, "SOCKS proxy: %s\n\n", embeddedTor.SocksAddr())

	client, err := embeddedTor.NewClient(cfg.Timeout, tor.WithMaxConnsPerHost(cfg.Threads))
	if err != nil {
		_ = embeddedTor.Stop() //nolint:errcheck // Best effort cleanup
		return nil, nil, fmt.Errorf("failed to create Tor client: %w", err)
	}
	return client, embeddedTor, nil
}

// createOutputFile creates or truncates the export file.
// The export lists every visited URL, so it is readable by the owner only.
func createOutputFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}
