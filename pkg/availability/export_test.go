package availability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/komohaven/availsync/internal/models"
)

func testSnapshot(t *testing.T) *models.Snapshot {
	t.Helper()
	return &models.Snapshot{
		Updated: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Properties: map[string]models.PropertyAvailability{
			"blue-dream": {Booked: []models.Range{
				mustRange(t, "2025-03-10", "2025-03-15"),
				mustRange(t, "2025-04-01", "2025-04-05"),
			}},
			"studio-9": {Booked: nil},
		},
	}
}

func TestWriteReadJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "availability.json")
	snapshot := testSnapshot(t)

	if err := WriteJSON(path, snapshot); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading artifact: %v", err)
	}
	for _, want := range []string{`"properties"`, `"blue-dream"`, `"booked"`, `"2025-03-10"`, `"updated"`} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("artifact missing %s:\n%s", want, raw)
		}
	}

	back, err := ReadJSON(path)
	if err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	ranges := back.Ranges("blue-dream")
	if len(ranges) != 2 {
		t.Fatalf("expected 2 ranges after round trip, got %d", len(ranges))
	}
	if ranges[0] != mustRange(t, "2025-03-10", "2025-03-15") {
		t.Errorf("first range = %v", ranges[0])
	}
}

func TestReadJSONMissingFile(t *testing.T) {
	if _, err := ReadJSON(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error for missing artifact")
	}
}

func TestExportICS(t *testing.T) {
	snapshot := testSnapshot(t)
	body := ExportICS("blue-dream", snapshot.Properties["blue-dream"].Booked, snapshot.Updated)

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"END:VCALENDAR",
		"METHOD:PUBLISH",
		"SUMMARY:Booked",
		"20250310",
		"20250315",
		"blue-dream-2025-03-10@availsync",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("ICS export missing %q:\n%s", want, body)
		}
	}

	if got := strings.Count(body, "BEGIN:VEVENT"); got != 2 {
		t.Errorf("expected 2 events, found %d", got)
	}
}

func TestWriteICS(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ics")
	if err := WriteICS(dir, testSnapshot(t)); err != nil {
		t.Fatalf("WriteICS failed: %v", err)
	}

	for _, name := range []string{"blue-dream.ics", "studio-9.ics"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s to exist: %v", name, err)
		}
	}
}
