package arbitrage

import (
	"sort"

	"github.com/gagordon1/mm/internal/book"
)

// Opportunity describes a profitable cross-venue trade at one instant: buy at
// BuyVenue's ask, sell at SellVenue's bid. UnitProfit is per-unit profit net of
// both legs' maker fees. Computed fresh at each evaluation, never stored.
type Opportunity struct {
	BuyVenue   string
	SellVenue  string
	BuyPrice   float64
	SellPrice  float64
	MaxSize    float64
	UnitProfit float64
}

// Detect evaluates every ordered pair of distinct venues in the snapshot and
// returns the opportunity with the greatest post-fee per-unit profit, or nil
// when no pair is profitable (the common case). A venue participates only when
// both of its sides are known with positive size. Ties on per-unit profit go to
// the lexically lower venue pair, so detection is deterministic regardless of
// configuration order. Detect never mutates the books.
func Detect(books *book.Books, venues []string, fees map[string]float64) *Opportunity {
	ordered := make([]string, len(venues))
	copy(ordered, venues)
	sort.Strings(ordered)

	var best *Opportunity
	for _, buyVenue := range ordered {
		buy := books.Venue(buyVenue)
		if !quotable(buy) {
			continue
		}
		for _, sellVenue := range ordered {
			if sellVenue == buyVenue {
				continue
			}
			sell := books.Venue(sellVenue)
			if !quotable(sell) {
				continue
			}
			unit := sell.Bid.Price*(1-fees[sellVenue]) - buy.Ask.Price*(1+fees[buyVenue])
			if unit <= 0 {
				continue
			}
			if best != nil && unit <= best.UnitProfit {
				continue
			}
			best = &Opportunity{
				BuyVenue:   buyVenue,
				SellVenue:  sellVenue,
				BuyPrice:   buy.Ask.Price,
				SellPrice:  sell.Bid.Price,
				MaxSize:    min(buy.Ask.Size, sell.Bid.Size),
				UnitProfit: unit,
			}
		}
	}
	return best
}

// quotable reports whether a venue's book is complete enough to trade against.
func quotable(bk *book.Book) bool {
	return bk != nil && bk.Bid != nil && bk.Ask != nil && bk.Bid.Size > 0 && bk.Ask.Size > 0
}
