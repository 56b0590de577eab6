package reconcile

import (
	"fmt"
	"strings"
	"time"

	"github.com/komohaven/availsync/internal/models"
)

const ruleWidth = 80

// FormatReport renders comparison records as the operator-facing text
// report: per-property counts and aligned range rows, then a summary
// verdict block.
func FormatReport(records []Record, referenceDate models.Date, windowDays int, sourceName string, now time.Time) string {
	cutoff := referenceDate.AddDays(windowDays)

	var b strings.Builder
	rule := strings.Repeat("=", ruleWidth)
	thin := strings.Repeat("-", ruleWidth)

	fmt.Fprintf(&b, "%s\n", rule)
	fmt.Fprintf(&b, "AVAILABILITY SYNC MONITOR - %s\n", now.Format(time.RFC3339))
	fmt.Fprintf(&b, "%s\n\n", rule)
	fmt.Fprintf(&b, "Reference date: %s\n", referenceDate)
	fmt.Fprintf(&b, "Window:         %s -> %s (%d days)\n", referenceDate, cutoff, windowDays)
	fmt.Fprintf(&b, "Source:         %s\n\n", sourceName)

	for _, rec := range records {
		fmt.Fprintf(&b, "%s\n", thin)
		fmt.Fprintf(&b, "PROPERTY: %s\n", strings.ToUpper(rec.Property))
		fmt.Fprintf(&b, "%s\n\n", thin)
		fmt.Fprintf(&b, "%d-DAY BOOKING WINDOW:\n", rec.WindowDays)
		fmt.Fprintf(&b, "  %-10s %d bookings\n", sourceName+":", rec.SourceCount)
		fmt.Fprintf(&b, "  KV state:  %d bookings", rec.KVCount)
		if rec.KVUnavailable {
			b.WriteString(" (unavailable, treated as empty)")
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, "  Status:    %s\n", matchLabel(rec.Match))

		if rec.SourceCount > 0 || rec.KVCount > 0 {
			fmt.Fprintf(&b, "\n  %-26s | %-26s | Match\n", sourceName, "KV")
			fmt.Fprintf(&b, "  %s-+-%s-+------\n", strings.Repeat("-", 26), strings.Repeat("-", 26))

			rows := rec.SourceCount
			if rec.KVCount > rows {
				rows = rec.KVCount
			}
			for i := 0; i < rows; i++ {
				srcCell := "-"
				kvCell := "-"
				pair := "x"
				if i < rec.SourceCount {
					srcCell = rec.SourceRanges[i].String()
				}
				if i < rec.KVCount {
					kvCell = rec.KVRanges[i].String()
				}
				if i < rec.SourceCount && i < rec.KVCount && rec.SourceRanges[i] == rec.KVRanges[i] {
					pair = "ok"
				}
				fmt.Fprintf(&b, "  %-26s | %-26s | %s\n", srcCell, kvCell, pair)
			}
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "%s\nSUMMARY\n%s\n\n", rule, rule)
	for _, rec := range records {
		fmt.Fprintf(&b, "%-20s %d-day match: %s\n", rec.Property, rec.WindowDays, matchLabel(rec.Match))
	}

	b.WriteString("\n")
	if AllMatch(records) {
		b.WriteString("STATUS: SYNC VERIFIED\n")
		b.WriteString("  All bookings match between source and KV storage.\n")
	} else {
		b.WriteString("STATUS: SYNC DIVERGENCE\n")
		b.WriteString("  Mismatch between source and KV. Check worker logs and feed URLs.\n")
	}
	fmt.Fprintf(&b, "%s\n", rule)

	return b.String()
}

func matchLabel(match bool) string {
	if match {
		return "MATCH"
	}
	return "DIVERGE"
}
