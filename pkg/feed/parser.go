package feed

import (
	"strings"
	"time"

	"github.com/komohaven/availsync/internal/models"
)

const (
	blockBegin = "BEGIN:VEVENT"
	blockEnd   = "END:VEVENT"
)

// Unfold joins RFC5545 folded lines back into logical lines: a physical
// line starting with a space or tab continues the previous line, with the
// single leading whitespace character stripped. Field values may be split
// mid-token, so this must run before any field parsing. Line endings are
// stripped before the continuation check so a CRLF feed folded across
// several physical lines cannot leak a carriage return into the value.
func Unfold(text string) []string {
	var out []string
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimRight(raw, "\r")
		if len(line) > 0 && (line[0] == ' ' || line[0] == '\t') && len(out) > 0 {
			out[len(out)-1] += line[1:]
		} else {
			out = append(out, line)
		}
	}
	return out
}

// ParseEvents extracts the (start, end) date pair of every well-formed
// VEVENT block in a feed. A block is kept only when both DTSTART and DTEND
// are present, both normalize to a date in loc, and end is after start;
// anything else drops the block silently so one bad block never poisons
// the rest of the feed.
func ParseEvents(text string, loc *time.Location) []models.Range {
	lines := Unfold(text)

	var events []models.Range
	var fields []rawField
	inBlock := false

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		switch {
		case line == blockBegin:
			inBlock = true
			fields = fields[:0]
		case line == blockEnd:
			if inBlock {
				start, startOK := extractDate(fields, "DTSTART", loc)
				end, endOK := extractDate(fields, "DTEND", loc)
				if startOK && endOK && end.After(start) {
					events = append(events, models.Range{Start: start, End: end})
				}
			}
			inBlock = false
		default:
			if !inBlock {
				continue
			}
			if name, value, ok := strings.Cut(line, ":"); ok {
				fields = append(fields, rawField{name: name, value: value})
			}
		}
	}

	return events
}

// rawField is one block field in feed order. Order matters: when a block
// carries a base field and a parameterized variant of it, the first one in
// the feed wins.
type rawField struct {
	name  string
	value string
}

// extractDate returns the first field whose name matches key, ignoring any
// ;PARAM suffixes on the stored name (e.g. DTSTART;VALUE=DATE), with its
// value normalized.
func extractDate(fields []rawField, key string, loc *time.Location) (models.Date, bool) {
	for _, f := range fields {
		name, _, _ := strings.Cut(f.name, ";")
		if name == key {
			return NormalizeDate(f.value, loc)
		}
	}
	return models.Date{}, false
}
