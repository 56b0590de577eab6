package availability

import (
	"sort"

	"github.com/komohaven/availsync/internal/models"
)

// MergeRanges reduces an unordered collection of booked ranges for one
// property into the canonical sorted, non-overlapping sequence.
//
// Ranges are half-open, so two ranges where one's end equals the other's
// start do NOT merge: a checkout and a same-day checkin are distinct stays
// with a one-day changeover. Only a genuine overlap (next start strictly
// before the current end) extends the open range.
func MergeRanges(ranges []models.Range) []models.Range {
	if len(ranges) == 0 {
		return nil
	}

	ordered := make([]models.Range, len(ranges))
	copy(ordered, ranges)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Start.Before(ordered[j].Start)
	})

	merged := make([]models.Range, 0, len(ordered))
	cur := ordered[0]

	for _, r := range ordered[1:] {
		if r.Start.Before(cur.End) {
			if r.End.After(cur.End) {
				cur.End = r.End
			}
		} else {
			merged = append(merged, cur)
			cur = r
		}
	}

	return append(merged, cur)
}
