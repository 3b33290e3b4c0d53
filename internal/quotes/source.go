package quotes

import (
	"github.com/gagordon1/mm/internal/model"
)

// Source merges per-venue, timestamp-sorted quote sequences into a single
// stream ordered by timestamp ascending across all venues. Equal timestamps
// break ties by venue list order, so a fixed input always yields the same
// event sequence.
type Source struct {
	venues   []string
	perVenue [][]model.QuoteEvent
	cursors  []int
}

// NewSource builds a Source over already-loaded per-venue event slices. Each
// slice must be non-decreasing in timestamp; a violation is reported as an
// OutOfOrderError rather than repaired.
func NewSource(venues []string, perVenue map[string][]model.QuoteEvent) (*Source, error) {
	s := &Source{
		venues:   venues,
		perVenue: make([][]model.QuoteEvent, len(venues)),
		cursors:  make([]int, len(venues)),
	}
	for i, venue := range venues {
		events := perVenue[venue]
		for j := 1; j < len(events); j++ {
			if events[j].TsNs < events[j-1].TsNs {
				return nil, &OutOfOrderError{
					Venue:  venue,
					Row:    j,
					PrevNs: events[j-1].TsNs,
					TsNs:   events[j].TsNs,
				}
			}
		}
		s.perVenue[i] = events
	}
	return s, nil
}

// Next returns the next event in global timestamp order and advances the
// cursor. ok is false once every venue sequence is exhausted.
func (s *Source) Next() (ev model.QuoteEvent, ok bool) {
	best := -1
	for i := range s.perVenue {
		if s.cursors[i] >= len(s.perVenue[i]) {
			continue
		}
		head := s.perVenue[i][s.cursors[i]]
		// Strict < keeps the earliest venue on timestamp ties.
		if best == -1 || head.TsNs < s.perVenue[best][s.cursors[best]].TsNs {
			best = i
		}
	}
	if best == -1 {
		return ev, false
	}
	ev = s.perVenue[best][s.cursors[best]]
	s.cursors[best]++
	return ev, true
}

// Reset rewinds the source to the first event so a fresh run can replay the
// same stream.
func (s *Source) Reset() {
	for i := range s.cursors {
		s.cursors[i] = 0
	}
}

// Len reports the total number of events across all venues.
func (s *Source) Len() int {
	n := 0
	for _, events := range s.perVenue {
		n += len(events)
	}
	return n
}
