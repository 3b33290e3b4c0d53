package backtest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gagordon1/mm/internal/arbitrage"
	"github.com/gagordon1/mm/internal/book"
	"github.com/gagordon1/mm/internal/ledger"
	"github.com/gagordon1/mm/internal/model"
)

// EventSource yields quote events in global timestamp order, one per call.
// *quotes.Source is the canonical implementation.
type EventSource interface {
	Next() (model.QuoteEvent, bool)
}

// State is the run-level state of a backtest.
type State int

const (
	StateLoading State = iota // source opened, no events consumed
	StateRunning              // events being consumed one at a time
	StateDrained              // terminal; report may be queried
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateRunning:
		return "running"
	case StateDrained:
		return "drained"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrAlreadyRun is returned by Run on any state but loading. A new run
	// requires fresh component instances.
	ErrAlreadyRun = errors.New("backtest: already run")
	// ErrNotDrained is returned by Report before the event stream is exhausted.
	ErrNotDrained = errors.New("backtest: event stream not drained")
)

// Backtest drives one deterministic simulation: each event updates the per-
// venue books, the detector re-evaluates the snapshot, and any opportunity is
// executed against the ledger. Single-threaded and synchronous throughout;
// the books and ledger have no other writer.
type Backtest struct {
	runID  string
	pair   string
	venues []string
	fees   map[string]float64
	logger *slog.Logger

	src    EventSource
	books  *book.Books
	sim    *arbitrage.Simulator
	ledger *ledger.Ledger

	state  State
	events int
}

// New assembles a backtest over src for the given pair, venues and per-venue
// maker-fee rates. Observers are notified after each executed trade.
func New(logger *slog.Logger, src EventSource, pair string, venues []string, fees map[string]float64, observers ...arbitrage.Observer) *Backtest {
	return &Backtest{
		runID:  uuid.NewString(),
		pair:   pair,
		venues: venues,
		fees:   fees,
		logger: logger.With(slog.String("component", "backtest")),
		src:    src,
		books:  book.New(venues),
		sim:    arbitrage.NewSimulator(pair, fees, observers...),
		ledger: ledger.New(),
	}
}

// RunID identifies this run, e.g. as the key for persisted trades.
func (b *Backtest) RunID() string { return b.runID }

// AddObserver registers a further per-trade observer, typically one that needs
// the run ID and so cannot be passed to New. Must be called before Run.
func (b *Backtest) AddObserver(o arbitrage.Observer) {
	b.sim.AddObserver(o)
}

// State reports the current run state.
func (b *Backtest) State() State { return b.state }

// Run consumes the event stream to exhaustion. It returns an error if the
// stream hands back an event older than one already processed; the merged
// source never does, so a failure here means a broken EventSource, and the run
// produces no partial result the caller should trust.
func (b *Backtest) Run(ctx context.Context) error {
	if b.state != StateLoading {
		return ErrAlreadyRun
	}
	b.state = StateRunning
	b.logger.Info("backtest started",
		slog.String("run_id", b.runID),
		slog.String("pair", b.pair),
		slog.Int("venues", len(b.venues)),
	)

	lastTs := int64(0)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ev, ok := b.src.Next()
		if !ok {
			break
		}
		if ev.TsNs < lastTs {
			return fmt.Errorf("backtest: event stream regressed from %d to %d on venue %s", lastTs, ev.TsNs, ev.Venue)
		}
		lastTs = ev.TsNs
		b.events++

		b.books.Apply(ev)
		if opp := arbitrage.Detect(b.books, b.venues, b.fees); opp != nil {
			b.sim.Execute(opp, ev.TsNs, b.books, b.ledger)
		}
	}

	b.state = StateDrained
	b.logger.Info("backtest drained",
		slog.String("run_id", b.runID),
		slog.Int("events", b.events),
		slog.Int("trades", b.ledger.Count()),
		slog.Float64("total_pnl", b.ledger.TotalPnL()),
	)
	return nil
}

// Ledger exposes the run's trade ledger.
func (b *Backtest) Ledger() *ledger.Ledger { return b.ledger }

// Report returns the run summary. Only valid once the stream is drained.
func (b *Backtest) Report() (model.RunSummary, error) {
	if b.state != StateDrained {
		return model.RunSummary{}, ErrNotDrained
	}
	return model.RunSummary{
		RunID:      b.runID,
		Pair:       b.pair,
		Events:     b.events,
		TradeCount: b.ledger.Count(),
		TotalPnL:   b.ledger.TotalPnL(),
	}, nil
}
