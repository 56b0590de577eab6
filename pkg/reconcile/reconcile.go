// Package reconcile verifies that the remote KV copy of the availability
// data agrees with a freshly computed snapshot. It is read-only and
// diagnostic: divergences are reported, never repaired.
package reconcile

import (
	"github.com/komohaven/availsync/internal/models"
)

// Record is the comparison outcome for one property: both range sequences
// restricted to the lookahead window, their counts, and whether they are
// element-wise equal.
type Record struct {
	Property      string         `json:"property"`
	WindowDays    int            `json:"window_days"`
	SourceCount   int            `json:"source_count"`
	KVCount       int            `json:"kv_count"`
	SourceRanges  []models.Range `json:"source_ranges"`
	KVRanges      []models.Range `json:"kv_ranges"`
	Match         bool           `json:"match"`
	KVUnavailable bool           `json:"kv_unavailable,omitempty"`
}

// Compare checks the candidate (KV) ranges against the reference (freshly
// synced) ranges for each property. Both sequences are restricted to
// ranges starting strictly before referenceDate+windowDays; ends are not
// re-clipped, so a range extending past the window still counts in full.
// Both inputs are expected pre-sorted, so element order stands in for
// start-date order.
func Compare(reference, candidate map[string][]models.Range, properties []string, referenceDate models.Date, windowDays int) []Record {
	cutoff := referenceDate.AddDays(windowDays)

	records := make([]Record, 0, len(properties))
	for _, prop := range properties {
		src := restrictToWindow(reference[prop], cutoff)
		kv := restrictToWindow(candidate[prop], cutoff)

		records = append(records, Record{
			Property:     prop,
			WindowDays:   windowDays,
			SourceCount:  len(src),
			KVCount:      len(kv),
			SourceRanges: src,
			KVRanges:     kv,
			Match:        rangesEqual(src, kv),
		})
	}
	return records
}

// AllMatch is the overall verdict: the AND of every per-property flag.
func AllMatch(records []Record) bool {
	for _, r := range records {
		if !r.Match {
			return false
		}
	}
	return true
}

func restrictToWindow(ranges []models.Range, cutoff models.Date) []models.Range {
	var kept []models.Range
	for _, r := range ranges {
		if r.Start.Before(cutoff) {
			kept = append(kept, r)
		}
	}
	return kept
}

func rangesEqual(a, b []models.Range) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
