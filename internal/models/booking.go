package models

import (
	"fmt"
	"time"
)

// Date is a calendar date in the configured target zone, with no
// time-of-day component. The zero value is not a valid date.
type Date struct {
	Year  int        `json:"-"`
	Month time.Month `json:"-"`
	Day   int        `json:"-"`
}

// DateOf reads the calendar date off an instant, in the instant's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses an ISO-8601 date (2006-01-02).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Time returns the date as midnight UTC, for arithmetic only.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the date n days later (or earlier for negative n).
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

func (d Date) Before(other Date) bool {
	return d.Time().Before(other.Time())
}

func (d Date) After(other Date) bool {
	return other.Before(d)
}

func (d Date) Equal(other Date) bool {
	return d == other
}

func (d Date) IsZero() bool {
	return d == Date{}
}

// String formats the date as ISO-8601 (2006-01-02).
func (d Date) String() string {
	return d.Time().Format("2006-01-02")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid date JSON: %s", data)
	}
	parsed, err := ParseDate(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Range is a half-open booked interval [Start, End): the checkout day End
// is not itself booked. A Range is valid only when End is after Start.
type Range struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// Valid reports whether the range satisfies End > Start.
func (r Range) Valid() bool {
	return r.Start.Before(r.End)
}

func (r Range) String() string {
	return r.Start.String() + " - " + r.End.String()
}

// PropertyAvailability is the per-property view served to consumers:
// a sorted, non-overlapping list of booked ranges.
type PropertyAvailability struct {
	Booked []Range `json:"booked"`
}

// Snapshot is the canonical merged view of all known bookings at a point
// in time, keyed by property slug.
type Snapshot struct {
	Updated    time.Time                       `json:"updated"`
	Properties map[string]PropertyAvailability `json:"properties"`
}

// Ranges returns the booked ranges for a property slug, or nil if the
// snapshot has no entry for it.
func (s *Snapshot) Ranges(slug string) []Range {
	if s == nil || s.Properties == nil {
		return nil
	}
	return s.Properties[slug].Booked
}
