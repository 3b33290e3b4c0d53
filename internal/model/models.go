package model

// Side identifies one side of a venue's top-of-book.
type Side string

const (
	Bid Side = "bid"
	Ask Side = "ask"
)

// QuoteEvent represents a single best-bid/offer update observed on a venue.
// A nil price means that side of the book is unknown as of this event; the
// previously known value for that side still stands ("known-unchanged").
type QuoteEvent struct {
	Venue   string
	Pair    string
	TsNs    int64
	Bid     *float64
	BidSize *float64
	Ask     *float64
	AskSize *float64
}

// Trade represents a completed simulated arbitrage trade.
type Trade struct {
	TsNs      int64   `db:"ts_ns"`
	Pair      string  `db:"pair"`
	BuyVenue  string  `db:"buy_venue"`
	SellVenue string  `db:"sell_venue"`
	BuyPrice  float64 `db:"buy_price"`
	SellPrice float64 `db:"sell_price"`
	Size      float64 `db:"size"`
	BuyFee    float64 `db:"buy_fee"`
	SellFee   float64 `db:"sell_fee"`
	PnL       float64 `db:"pnl"`
}

// PnLPoint is one point of the cumulative-PnL series, keyed by trade timestamp.
type PnLPoint struct {
	TsNs   int64
	CumPnL float64
}

// RunSummary holds the summary scalars of a finished backtest run.
type RunSummary struct {
	RunID      string  `db:"run_id"`
	Pair       string  `db:"pair"`
	Events     int     `db:"events"`
	TradeCount int     `db:"trade_count"`
	TotalPnL   float64 `db:"total_pnl"`
}

// Float returns a pointer to v. Convenience for building QuoteEvents.
func Float(v float64) *float64 { return &v }
