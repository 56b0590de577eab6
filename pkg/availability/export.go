package availability

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/komohaven/availsync/internal/models"
)

// WriteJSON writes the snapshot as the availability.json artifact consumed
// by the booking widget.
func WriteJSON(path string, snapshot *models.Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// ReadJSON loads a previously written snapshot artifact.
func ReadJSON(path string) (*models.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	var snapshot models.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return &snapshot, nil
}

// ExportICS renders one property's merged bookings as a combined calendar
// feed: one all-day "Booked" event per merged range, half-open end dates
// kept as-is (DTEND is exclusive for all-day events).
func ExportICS(slug string, ranges []models.Range, updated time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//komohaven//availsync//EN")

	for _, r := range ranges {
		uid := fmt.Sprintf("%s-%s@availsync", slug, r.Start)
		ev := cal.AddEvent(uid)
		ev.SetSummary("Booked")
		ev.SetAllDayStartAt(r.Start.Time())
		ev.SetAllDayEndAt(r.End.Time())
		ev.SetDtStampTime(updated.UTC())
	}

	return cal.Serialize()
}

// WriteICS writes one <slug>.ics file per property into dir.
func WriteICS(dir string, snapshot *models.Snapshot) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export dir: %w", err)
	}
	for slug, avail := range snapshot.Properties {
		body := ExportICS(slug, avail.Booked, snapshot.Updated)
		path := filepath.Join(dir, slug+".ics")
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return nil
}
