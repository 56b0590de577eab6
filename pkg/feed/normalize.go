package feed

import (
	"strings"
	"time"

	"github.com/komohaven/availsync/internal/models"
)

// Timestamp layouts seen across the upstream booking platforms.
const (
	layoutDateOnly   = "20060102"
	layoutUTCInstant = "20060102T150405Z"
	layoutNaiveLocal = "20060102T150405"
)

// NormalizeDate converts a raw DTSTART/DTEND value into a calendar date in
// the target zone. It recognizes, in priority order: a bare YYYYMMDD date
// (taken as already being in the target zone), a UTC instant with Z suffix
// (converted to the target zone, so the date can roll across midnight), a
// zone-less local date-time (the target zone is assigned, never converted),
// and finally any RFC3339-style timestamp. The assign-vs-convert split for
// the middle two forms matches how the different booking platforms encode
// all-day events and must not be unified.
//
// Inputs matching none of the forms produce ok=false; a malformed field is
// never an error for the feed as a whole.
func NormalizeDate(value string, loc *time.Location) (models.Date, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return models.Date{}, false
	}

	if len(value) == 8 && allDigits(value) {
		t, err := time.Parse(layoutDateOnly, value)
		if err != nil {
			return models.Date{}, false
		}
		return models.DateOf(t), true
	}

	if strings.HasSuffix(value, "Z") {
		t, err := time.Parse(layoutUTCInstant, value)
		if err != nil {
			return models.Date{}, false
		}
		return models.DateOf(t.In(loc)), true
	}

	if strings.Contains(value, "T") && len(value) >= 15 {
		t, err := time.ParseInLocation(layoutNaiveLocal, value, loc)
		if err != nil {
			return models.Date{}, false
		}
		return models.DateOf(t), true
	}

	// Defensive fallback for unexpected but valid timestamp dialects.
	// Anything with a T and 15+ characters was already claimed above, so
	// only extended date and space-separated forms can land here. Zoned
	// values convert to the target zone; zoneless ones are assigned it.
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05Z07:00"} {
		if t, err := time.Parse(layout, value); err == nil {
			return models.DateOf(t.In(loc)), true
		}
	}
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return models.DateOf(t), true
		}
	}

	return models.Date{}, false
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
