// Command availverify compares a freshly synced view of the calendar
// feeds (or a previously written availability.json) against the remote
// KV-backed availability store and reports any divergence. It is
// read-only: nothing is repaired, only reported.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/komohaven/availsync/internal/logging"
	"github.com/komohaven/availsync/internal/models"
	"github.com/komohaven/availsync/pkg/availability"
	"github.com/komohaven/availsync/pkg/config"
	"github.com/komohaven/availsync/pkg/feed"
	natspub "github.com/komohaven/availsync/pkg/nats"
	"github.com/komohaven/availsync/pkg/reconcile"
)

var (
	configPath  = flag.String("config", "config.yaml", "Path to configuration file")
	envPath     = flag.String("env", ".env", "Path to optional .env file with feed URL secrets")
	days        = flag.Int("days", 0, "Lookahead window in days (0 = config default)")
	property    = flag.String("property", "", "Check a single property slug (default: all)")
	savePath    = flag.String("save", "", "Save report to file (default: print to stdout)")
	refDateFlag = flag.String("reference-date", "", "Reference date YYYY-MM-DD for the window (default: today)")
	compareJSON = flag.Bool("compare-json", false, "Compare the written availability.json instead of live feeds")
	dryRun      = flag.Bool("dry-run", false, "Do not publish the verdict to NATS")
	debug       = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(*envPath); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Failed to load env file %s: %v\n", *envPath, err)
		os.Exit(1)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.Setup(cfg.Logging, *debug)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	windowDays := cfg.Verify.WindowDays
	if *days > 0 {
		windowDays = *days
	}

	referenceDate := models.DateOf(time.Now().In(loc))
	if *refDateFlag != "" {
		referenceDate, err = models.ParseDate(*refDateFlag)
		if err != nil {
			return err
		}
	}

	properties := cfg.Slugs()
	if *property != "" {
		properties = []string{*property}
	}

	ctx := context.Background()

	reference, sourceName, err := referenceRanges(ctx, cfg, loc, logger)
	if err != nil {
		return err
	}

	logger.Info("Fetching KV availability", "base_url", cfg.KV.BaseURL, "properties", len(properties))
	kvClient := reconcile.NewKVClient(cfg.KV.BaseURL, cfg.KV.Timeout.Std(), logger)
	candidate, unavailable := kvClient.BookedAll(ctx, properties)

	records := reconcile.Compare(reference, candidate, properties, referenceDate, windowDays)
	for i := range records {
		for _, slug := range unavailable {
			if records[i].Property == slug {
				records[i].KVUnavailable = true
			}
		}
	}
	allMatch := reconcile.AllMatch(records)

	report := reconcile.FormatReport(records, referenceDate, windowDays, sourceName, time.Now())
	if *savePath != "" {
		if err := os.WriteFile(*savePath, []byte(report), 0o644); err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
		logger.Info("Report saved", "path", *savePath)
	} else {
		fmt.Print(report)
	}

	if cfg.NATS.URL != "" && !*dryRun {
		if err := publishVerdict(ctx, cfg, logger, records, allMatch); err != nil {
			logger.Error("Failed to publish sync report", "error", err)
		}
	}

	if !allMatch {
		logger.Warn("Sync divergence detected")
		os.Exit(1)
	}
	logger.Info("Sync verified")
	return nil
}

// referenceRanges produces the ground-truth side of the comparison:
// either a fresh fetch-parse-merge of the live feeds (no horizon cutoff,
// matching the unbounded view the remote store holds) or the previously
// written snapshot artifact.
func referenceRanges(ctx context.Context, cfg *config.Config, loc *time.Location, logger *slog.Logger) (map[string][]models.Range, string, error) {
	var snapshot *models.Snapshot

	if *compareJSON {
		var err error
		snapshot, err = availability.ReadJSON(cfg.Sync.Output)
		if err != nil {
			return nil, "", err
		}
		logger.Info("Loaded snapshot artifact", "path", cfg.Sync.Output)
		return snapshotRanges(snapshot, cfg), "Static JSON", nil
	}

	fetcher := feed.NewHTTPFetcher(cfg.Sync.FetchTimeout.Std(), logger)
	aggregator := availability.NewAggregator(fetcher, availability.AggregatorConfig{
		HorizonDays: 0, // unbounded: compare the same view the store keeps
		Workers:     cfg.Sync.Workers,
	}, loc, logger)

	var sources []availability.Source
	for _, prop := range cfg.Properties {
		slug := config.Slugify(prop.Name)
		for _, f := range prop.Feeds {
			sources = append(sources, availability.Source{Property: slug, Label: f.Source, URL: f.URL})
		}
	}

	logger.Info("Fetching live feeds", "sources", len(sources))
	snapshot, warnings := aggregator.Build(ctx, sources)
	for _, w := range warnings {
		logger.Warn("Feed unavailable for comparison",
			"property", w.Property,
			"source", w.Label,
			"error", w.Err)
	}

	return snapshotRanges(snapshot, cfg), "Live feeds", nil
}

func snapshotRanges(snapshot *models.Snapshot, cfg *config.Config) map[string][]models.Range {
	out := make(map[string][]models.Range, len(cfg.Properties))
	for _, slug := range cfg.Slugs() {
		out[slug] = snapshot.Ranges(slug)
	}
	return out
}

func publishVerdict(ctx context.Context, cfg *config.Config, logger *slog.Logger, records []reconcile.Record, allMatch bool) error {
	publisher, err := natspub.NewPublisher(&natspub.Config{
		URL:     cfg.NATS.URL,
		Subject: cfg.NATS.Subject,
	}, logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	return publisher.PublishReport(ctx, &natspub.SyncReport{
		Timestamp: time.Now().UTC(),
		AllMatch:  allMatch,
		Records:   records,
	})
}
