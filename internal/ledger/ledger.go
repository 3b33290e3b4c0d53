package ledger

import (
	"github.com/gagordon1/mm/internal/model"
)

// Ledger is the append-only audit log of a backtest run: trades in time order
// plus the cumulative-PnL series keyed by trade timestamp. Past entries are
// never recomputed or mutated.
type Ledger struct {
	trades []model.Trade
	series []model.PnLPoint
	cumPnL float64
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{}
}

// Append records an executed trade and extends the cumulative-PnL series.
func (l *Ledger) Append(t model.Trade) {
	l.trades = append(l.trades, t)
	l.cumPnL += t.PnL
	l.series = append(l.series, model.PnLPoint{TsNs: t.TsNs, CumPnL: l.cumPnL})
}

// Count returns the number of trades executed so far.
func (l *Ledger) Count() int {
	return len(l.trades)
}

// TotalPnL returns the sum of all trade PnLs so far.
func (l *Ledger) TotalPnL() float64 {
	return l.cumPnL
}

// Trades returns the recorded trades in execution order. The returned slice is
// the ledger's backing store; callers must not modify it.
func (l *Ledger) Trades() []model.Trade {
	return l.trades
}

// Series returns the cumulative-PnL time series, one point per trade, for
// downstream plotting or export.
func (l *Ledger) Series() []model.PnLPoint {
	return l.series
}
