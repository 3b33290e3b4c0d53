package book

import (
	"github.com/gagordon1/mm/internal/model"
)

// Quote is one side of a venue's top-of-book.
type Quote struct {
	Price float64
	Size  float64
}

// Book is the current top-of-book for one venue. A nil side is unknown: either
// no quote has been seen yet, or a simulated fill consumed the displayed level.
type Book struct {
	Bid      *Quote
	Ask      *Quote
	LastTsNs int64
}

// Books maps venue to its current top-of-book. It is owned by the single
// simulation loop: the only writers are Apply (next quote event for a venue)
// and ClearSide (book impact after a simulated fill), so no locking is needed.
type Books struct {
	venues map[string]*Book
}

// New creates empty books for the given venues.
func New(venues []string) *Books {
	b := &Books{venues: make(map[string]*Book, len(venues))}
	for _, venue := range venues {
		b.venues[venue] = &Book{}
	}
	return b
}

// Apply updates the book for the event's venue. A side carried by the event
// overwrites the prior value for that side; a nil side means known-unchanged
// and the previous value persists. The timestamp advances unconditionally.
func (b *Books) Apply(ev model.QuoteEvent) {
	bk := b.venues[ev.Venue]
	if bk == nil {
		bk = &Book{}
		b.venues[ev.Venue] = bk
	}
	if ev.Bid != nil {
		q := &Quote{Price: *ev.Bid}
		if ev.BidSize != nil {
			q.Size = *ev.BidSize
		}
		bk.Bid = q
	}
	if ev.Ask != nil {
		q := &Quote{Price: *ev.Ask}
		if ev.AskSize != nil {
			q.Size = *ev.AskSize
		}
		bk.Ask = q
	}
	bk.LastTsNs = ev.TsNs
}

// ClearSide marks one side of a venue's book unknown. Called only by the
// execution simulator after a fill consumed the displayed level; the side
// stays unknown until the next real quote event for that venue arrives.
func (b *Books) ClearSide(venue string, side model.Side) {
	bk := b.venues[venue]
	if bk == nil {
		return
	}
	switch side {
	case model.Bid:
		bk.Bid = nil
	case model.Ask:
		bk.Ask = nil
	}
}

// Venue returns the current book for a venue, or nil if the venue is unknown.
func (b *Books) Venue(venue string) *Book {
	return b.venues[venue]
}
