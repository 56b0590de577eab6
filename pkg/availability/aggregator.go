package availability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/komohaven/availsync/internal/models"
	"github.com/komohaven/availsync/pkg/feed"
)

// Source is one calendar feed attached to a property. A property usually
// has several (one per booking channel).
type Source struct {
	Property string // property slug
	Label    string // channel label, e.g. "airbnb", "booking"
	URL      string
}

// Warning records a source that contributed nothing to a build, and why.
type Warning struct {
	Property string
	Label    string
	URL      string
	Err      error
}

// AggregatorConfig holds the knobs for a snapshot build.
type AggregatorConfig struct {
	// HorizonDays bounds how far ahead bookings are kept. Ranges starting
	// on or after now+HorizonDays are dropped; ranges crossing the cutoff
	// are clipped to it. Zero or negative disables the horizon entirely,
	// which the verification path relies on: it must see the same
	// unbounded view the remote store holds.
	HorizonDays int
	// Workers bounds concurrent feed fetches. Zero or negative means
	// fetch sources one at a time.
	Workers int
}

// Aggregator builds a merged availability snapshot from a set of feed
// sources. Per-source failures degrade to warnings; a build never fails
// outright because one channel is down.
type Aggregator struct {
	fetcher feed.Fetcher
	config  AggregatorConfig
	loc     *time.Location
	logger  *slog.Logger
	now     func() time.Time
}

// NewAggregator creates an aggregator. loc is the target zone all feed
// timestamps are normalized into.
func NewAggregator(fetcher feed.Fetcher, config AggregatorConfig, loc *time.Location, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		fetcher: fetcher,
		config:  config,
		loc:     loc,
		logger:  logger,
		now:     time.Now,
	}
}

type sourceResult struct {
	source Source
	ranges []models.Range
	err    error
}

// Build fetches, parses, and merges every source into a snapshot. Sources
// are fetched concurrently up to the configured worker bound; ordering
// across sources never matters because the per-property merge sorts.
func (a *Aggregator) Build(ctx context.Context, sources []Source) (*models.Snapshot, []Warning) {
	var cutoff models.Date
	if a.config.HorizonDays > 0 {
		cutoff = models.DateOf(a.now().In(a.loc)).AddDays(a.config.HorizonDays)
	}

	results := make([]sourceResult, len(sources))

	workers := a.config.Workers
	if workers <= 0 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, src := range sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = a.fetchSource(ctx, src)
		}(i, src)
	}
	wg.Wait()

	byProperty := make(map[string][]models.Range)
	var warnings []Warning

	for _, res := range results {
		if _, seen := byProperty[res.source.Property]; !seen {
			byProperty[res.source.Property] = nil
		}
		if res.err != nil {
			a.logger.Warn("Failed to ingest feed",
				"property", res.source.Property,
				"source", res.source.Label,
				"error", res.err)
			warnings = append(warnings, Warning{
				Property: res.source.Property,
				Label:    res.source.Label,
				URL:      res.source.URL,
				Err:      res.err,
			})
			continue
		}
		byProperty[res.source.Property] = append(byProperty[res.source.Property], a.clipToHorizon(res.ranges, cutoff)...)
	}

	snapshot := &models.Snapshot{
		Updated:    a.now().UTC(),
		Properties: make(map[string]models.PropertyAvailability, len(byProperty)),
	}
	for slug, ranges := range byProperty {
		merged := MergeRanges(ranges)
		snapshot.Properties[slug] = models.PropertyAvailability{Booked: merged}
		a.logger.Info("Merged property bookings",
			"property", slug,
			"raw_ranges", len(ranges),
			"merged_ranges", len(merged))
	}

	return snapshot, warnings
}

func (a *Aggregator) fetchSource(ctx context.Context, src Source) sourceResult {
	text, err := a.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		return sourceResult{source: src, err: err}
	}
	ranges := feed.ParseEvents(text, a.loc)
	a.logger.Debug("Parsed feed",
		"property", src.Property,
		"source", src.Label,
		"event_count", len(ranges))
	return sourceResult{source: src, ranges: ranges}
}

// clipToHorizon drops ranges starting on or after the cutoff and clips
// range ends down to it, never below the range's own start. A zero cutoff
// keeps everything.
func (a *Aggregator) clipToHorizon(ranges []models.Range, cutoff models.Date) []models.Range {
	if cutoff.IsZero() {
		return ranges
	}
	var kept []models.Range
	for _, r := range ranges {
		if !r.Start.Before(cutoff) {
			continue
		}
		if r.End.After(cutoff) {
			r.End = cutoff
		}
		if r.Valid() {
			kept = append(kept, r)
		}
	}
	return kept
}
