package reconcile

import (
	"strings"
	"testing"
	"time"

	"github.com/komohaven/availsync/internal/models"
)

func mustRange(t *testing.T, start, end string) models.Range {
	t.Helper()
	s, err := models.ParseDate(start)
	if err != nil {
		t.Fatal(err)
	}
	e, err := models.ParseDate(end)
	if err != nil {
		t.Fatal(err)
	}
	return models.Range{Start: s, End: e}
}

func mustDate(t *testing.T, s string) models.Date {
	t.Helper()
	d, err := models.ParseDate(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestCompareMatchingProperty(t *testing.T) {
	ranges := []models.Range{mustRange(t, "2025-01-01", "2025-01-05")}
	reference := map[string][]models.Range{"p1": ranges}
	candidate := map[string][]models.Range{"p1": {mustRange(t, "2025-01-01", "2025-01-05")}}

	records := Compare(reference, candidate, []string{"p1"}, mustDate(t, "2024-12-20"), 30)

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if !rec.Match {
		t.Error("expected match")
	}
	if rec.SourceCount != 1 || rec.KVCount != 1 {
		t.Errorf("counts = %d/%d, want 1/1", rec.SourceCount, rec.KVCount)
	}
	if !AllMatch(records) {
		t.Error("expected overall verdict to pass")
	}
}

func TestCompareDivergentEndDate(t *testing.T) {
	reference := map[string][]models.Range{"p1": {mustRange(t, "2025-01-01", "2025-01-05")}}
	candidate := map[string][]models.Range{"p1": {mustRange(t, "2025-01-01", "2025-01-06")}}

	records := Compare(reference, candidate, []string{"p1"}, mustDate(t, "2024-12-20"), 30)

	rec := records[0]
	if rec.Match {
		t.Error("expected divergence")
	}
	if rec.SourceCount != 1 || rec.KVCount != 1 {
		t.Errorf("counts = %d/%d, want 1/1", rec.SourceCount, rec.KVCount)
	}
	if rec.SourceRanges[0] == rec.KVRanges[0] {
		t.Error("diff did not surface the mismatched pair")
	}
	if AllMatch(records) {
		t.Error("expected overall verdict to fail")
	}
}

func TestCompareWindowRestriction(t *testing.T) {
	// Window: 2024-12-20 + 30 days = 2025-01-19. Ranges starting on or
	// after the cutoff are excluded; a range starting inside but ending
	// beyond it still counts in full.
	reference := map[string][]models.Range{"p1": {
		mustRange(t, "2025-01-01", "2025-01-05"),
		mustRange(t, "2025-01-18", "2025-02-10"), // starts inside, extends past
		mustRange(t, "2025-01-19", "2025-01-25"), // starts on cutoff: excluded
		mustRange(t, "2025-03-01", "2025-03-05"), // far future: excluded
	}}
	candidate := map[string][]models.Range{"p1": {
		mustRange(t, "2025-01-01", "2025-01-05"),
		mustRange(t, "2025-01-18", "2025-02-10"),
		mustRange(t, "2025-06-01", "2025-06-05"), // outside window on this side too
	}}

	records := Compare(reference, candidate, []string{"p1"}, mustDate(t, "2024-12-20"), 30)

	rec := records[0]
	if rec.SourceCount != 2 || rec.KVCount != 2 {
		t.Fatalf("counts = %d/%d, want 2/2", rec.SourceCount, rec.KVCount)
	}
	if !rec.Match {
		t.Errorf("expected match after window restriction, got %+v", rec)
	}
	if rec.SourceRanges[1].End != mustDate(t, "2025-02-10") {
		t.Errorf("range end was re-clipped: %v", rec.SourceRanges[1])
	}
}

func TestCompareOrderMatters(t *testing.T) {
	a := mustRange(t, "2025-01-01", "2025-01-05")
	b := mustRange(t, "2025-02-01", "2025-02-05")
	reference := map[string][]models.Range{"p1": {a, b}}
	candidate := map[string][]models.Range{"p1": {b, a}}

	records := Compare(reference, candidate, []string{"p1"}, mustDate(t, "2024-12-20"), 90)
	if records[0].Match {
		t.Error("sequence comparison must be order-sensitive")
	}
}

func TestCompareMissingProperty(t *testing.T) {
	reference := map[string][]models.Range{"p1": {mustRange(t, "2025-01-01", "2025-01-05")}}
	candidate := map[string][]models.Range{}

	records := Compare(reference, candidate, []string{"p1", "p2"}, mustDate(t, "2024-12-20"), 30)

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Match {
		t.Error("p1: populated reference vs absent candidate must diverge")
	}
	if !records[1].Match {
		t.Error("p2: empty vs empty must match")
	}
}

func TestCompareEmptyBothSides(t *testing.T) {
	records := Compare(nil, nil, []string{"p1"}, mustDate(t, "2024-12-20"), 30)
	if !records[0].Match || records[0].SourceCount != 0 || records[0].KVCount != 0 {
		t.Errorf("empty comparison should trivially match: %+v", records[0])
	}
}

func TestFormatReport(t *testing.T) {
	reference := map[string][]models.Range{
		"blue-dream": {mustRange(t, "2025-01-01", "2025-01-05")},
		"studio-9":   {mustRange(t, "2025-01-10", "2025-01-12")},
	}
	candidate := map[string][]models.Range{
		"blue-dream": {mustRange(t, "2025-01-01", "2025-01-05")},
		"studio-9":   {mustRange(t, "2025-01-10", "2025-01-13")},
	}

	records := Compare(reference, candidate, []string{"blue-dream", "studio-9"}, mustDate(t, "2024-12-20"), 210)

	report := FormatReport(records, mustDate(t, "2024-12-20"), 210, "Live feeds", time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC))

	for _, want := range []string{
		"PROPERTY: BLUE-DREAM",
		"PROPERTY: STUDIO-9",
		"MATCH",
		"DIVERGE",
		"SYNC DIVERGENCE",
		"2025-01-10 - 2025-01-12",
		"2025-01-10 - 2025-01-13",
		"210-DAY BOOKING WINDOW",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q", want)
		}
	}
	if strings.Contains(report, "SYNC VERIFIED") {
		t.Error("diverging run must not report SYNC VERIFIED")
	}
}

func TestFormatReportAllMatch(t *testing.T) {
	reference := map[string][]models.Range{"blue-dream": {mustRange(t, "2025-01-01", "2025-01-05")}}
	records := Compare(reference, reference, []string{"blue-dream"}, mustDate(t, "2024-12-20"), 30)

	report := FormatReport(records, mustDate(t, "2024-12-20"), 30, "Static JSON", time.Now())
	if !strings.Contains(report, "SYNC VERIFIED") {
		t.Error("matching run must report SYNC VERIFIED")
	}
}
