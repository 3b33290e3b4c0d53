package arbitrage

import (
	"log/slog"

	"github.com/gagordon1/mm/internal/book"
	"github.com/gagordon1/mm/internal/model"
)

// TradeSink receives executed trades in time order. *ledger.Ledger is the
// canonical implementation.
type TradeSink interface {
	Append(model.Trade)
}

// Observer is notified after each executed trade. Presentation concerns
// (console lines, persistence, live feeds) hang off this hook rather than
// living inside the simulator.
type Observer interface {
	OnTrade(model.Trade)
}

// Simulator turns detected opportunities into ledger trades, applying the
// conservative book-impact model: a fill consumes the entire displayed level
// on both venues.
type Simulator struct {
	pair      string
	fees      map[string]float64
	observers []Observer
}

// NewSimulator creates a Simulator for the given pair and per-venue maker-fee
// rates.
func NewSimulator(pair string, fees map[string]float64, observers ...Observer) *Simulator {
	return &Simulator{pair: pair, fees: fees, observers: observers}
}

// AddObserver registers a further observer. Must not be called once execution
// has started.
func (s *Simulator) AddObserver(o Observer) {
	s.observers = append(s.observers, o)
}

// Execute fills the full top-of-book size of the opportunity, appends the
// resulting trade to the sink, and clears the consumed sides (buy venue's
// ask, sell venue's bid) to unknown. Execution never fails: detection already
// guaranteed profitability and a positive size.
func (s *Simulator) Execute(opp *Opportunity, tsNs int64, books *book.Books, sink TradeSink) model.Trade {
	size := opp.MaxSize
	buyFee := opp.BuyPrice * size * s.fees[opp.BuyVenue]
	sellFee := opp.SellPrice * size * s.fees[opp.SellVenue]

	trade := model.Trade{
		TsNs:      tsNs,
		Pair:      s.pair,
		BuyVenue:  opp.BuyVenue,
		SellVenue: opp.SellVenue,
		BuyPrice:  opp.BuyPrice,
		SellPrice: opp.SellPrice,
		Size:      size,
		BuyFee:    buyFee,
		SellFee:   sellFee,
		PnL:       (opp.SellPrice-opp.BuyPrice)*size - buyFee - sellFee,
	}

	// Book impact: the fill consumed both displayed levels; nothing more is
	// known about those sides until the next real quote arrives.
	books.ClearSide(opp.BuyVenue, model.Ask)
	books.ClearSide(opp.SellVenue, model.Bid)

	sink.Append(trade)
	for _, o := range s.observers {
		o.OnTrade(trade)
	}
	return trade
}

// LogObserver writes one structured line per executed trade.
type LogObserver struct {
	logger *slog.Logger
}

// NewLogObserver creates an observer logging trades through logger.
func NewLogObserver(logger *slog.Logger) *LogObserver {
	return &LogObserver{logger: logger.With(slog.String("component", "trades"))}
}

func (l *LogObserver) OnTrade(t model.Trade) {
	l.logger.Info("executed arbitrage trade",
		slog.Int64("ts_ns", t.TsNs),
		slog.String("buy_venue", t.BuyVenue),
		slog.String("sell_venue", t.SellVenue),
		slog.Float64("buy_price", t.BuyPrice),
		slog.Float64("sell_price", t.SellPrice),
		slog.Float64("size", t.Size),
		slog.Float64("buy_fee", t.BuyFee),
		slog.Float64("sell_fee", t.SellFee),
		slog.Float64("pnl", t.PnL),
	)
}
