// Command availsync builds the consolidated availability snapshot from the
// configured calendar feeds and writes it as availability.json (plus an
// optional per-property ICS export). With sync.schedule set it stays
// resident and rebuilds on the cron schedule.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/komohaven/availsync/internal/logging"
	"github.com/komohaven/availsync/pkg/availability"
	"github.com/komohaven/availsync/pkg/config"
	"github.com/komohaven/availsync/pkg/feed"
)

const defaultConfigPath = "config.yaml"

var (
	configPath = flag.String("config", defaultConfigPath, "Path to configuration file")
	envPath    = flag.String("env", ".env", "Path to optional .env file with feed URL secrets")
	version    = flag.Bool("version", false, "Print version information")
	debug      = flag.Bool("debug", false, "Enable debug logging")
	once       = flag.Bool("once", false, "Run a single build even when a schedule is configured")
)

// Version information - can be set at build time
var (
	Version   = "dev"
	GitCommit = "unknown"
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("availsync %s (%s)\n", Version, GitCommit)
		os.Exit(0)
	}

	// Feed URLs are secrets; they come from the environment, optionally
	// seeded from a .env file next to the config.
	if err := godotenv.Load(*envPath); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Failed to load env file %s: %v\n", *envPath, err)
		os.Exit(1)
	}

	app, err := newApp(*configPath, *debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if app.cfg.Sync.Schedule == "" || *once {
		if err := app.runBuild(ctx); err != nil {
			app.logger.Error("Build failed", "error", err)
			os.Exit(1)
		}
		return
	}

	app.runScheduled(ctx, cancel)
}

type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	aggregator *availability.Aggregator
	sources    []availability.Source
}

func newApp(configPath string, debugMode bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.Setup(cfg.Logging, debugMode)
	logger.Info("Starting availability sync",
		"version", Version,
		"config_path", configPath,
		"properties", len(cfg.Properties),
		"horizon_days", cfg.Sync.HorizonDays)

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	fetcher := feed.NewHTTPFetcher(cfg.Sync.FetchTimeout.Std(), logger)
	aggregator := availability.NewAggregator(fetcher, availability.AggregatorConfig{
		HorizonDays: cfg.Sync.HorizonDays,
		Workers:     cfg.Sync.Workers,
	}, loc, logger)

	return &app{
		cfg:        cfg,
		logger:     logger,
		aggregator: aggregator,
		sources:    feedSources(cfg),
	}, nil
}

// feedSources flattens the configured properties into aggregator sources.
func feedSources(cfg *config.Config) []availability.Source {
	var sources []availability.Source
	for _, prop := range cfg.Properties {
		slug := config.Slugify(prop.Name)
		for _, f := range prop.Feeds {
			sources = append(sources, availability.Source{
				Property: slug,
				Label:    f.Source,
				URL:      f.URL,
			})
		}
	}
	return sources
}

func (a *app) runBuild(ctx context.Context) error {
	started := time.Now()

	snapshot, warnings := a.aggregator.Build(ctx, a.sources)
	for _, w := range warnings {
		a.logger.Warn("Source contributed no ranges",
			"property", w.Property,
			"source", w.Label,
			"error", w.Err)
	}

	if err := availability.WriteJSON(a.cfg.Sync.Output, snapshot); err != nil {
		return err
	}
	a.logger.Info("Wrote availability snapshot",
		"path", a.cfg.Sync.Output,
		"properties", len(snapshot.Properties),
		"warnings", len(warnings),
		"elapsed", time.Since(started).Round(time.Millisecond))

	if a.cfg.Sync.ICSExportDir != "" {
		if err := availability.WriteICS(a.cfg.Sync.ICSExportDir, snapshot); err != nil {
			return err
		}
		a.logger.Info("Wrote ICS export", "dir", a.cfg.Sync.ICSExportDir)
	}

	return nil
}

// runScheduled runs one build immediately, then on the configured cron
// schedule until interrupted.
func (a *app) runScheduled(ctx context.Context, cancel context.CancelFunc) {
	if err := a.runBuild(ctx); err != nil {
		a.logger.Error("Initial build failed", "error", err)
	}

	c := cron.New()
	_, err := c.AddFunc(a.cfg.Sync.Schedule, func() {
		if err := a.runBuild(ctx); err != nil {
			a.logger.Error("Scheduled build failed", "error", err)
		}
	})
	if err != nil {
		a.logger.Error("Invalid sync schedule", "schedule", a.cfg.Sync.Schedule, "error", err)
		os.Exit(1)
	}
	c.Start()
	a.logger.Info("Scheduler started", "schedule", a.cfg.Sync.Schedule)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	a.logger.Info("Received shutdown signal", "signal", sig)

	cancel()
	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		a.logger.Warn("Timed out waiting for running build to finish")
	}
	a.logger.Info("Availability sync stopped")
}
