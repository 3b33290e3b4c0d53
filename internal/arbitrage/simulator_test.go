package arbitrage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gagordon1/mm/internal/book"
	"github.com/gagordon1/mm/internal/ledger"
	"github.com/gagordon1/mm/internal/model"
)

type captureObserver struct {
	trades []model.Trade
}

func (c *captureObserver) OnTrade(t model.Trade) { c.trades = append(c.trades, t) }

func TestSimulator_ExecuteFeesAndPnL(t *testing.T) {
	venues := []string{"a", "b"}
	fees := map[string]float64{"a": 0.0, "b": 0.001}
	b := book.New(venues)
	quote(t, b, "a", 1, 100, 1, 101, 1)
	quote(t, b, "b", 2, 102, 1, 103, 1)

	led := ledger.New()
	sim := NewSimulator("BTC/USD", fees)
	opp := Detect(b, venues, fees)
	require.NotNil(t, opp)

	trade := sim.Execute(opp, 2, b, led)
	assert.Equal(t, int64(2), trade.TsNs)
	assert.Equal(t, "BTC/USD", trade.Pair)
	assert.Equal(t, "a", trade.BuyVenue)
	assert.Equal(t, "b", trade.SellVenue)
	assert.Equal(t, 1.0, trade.Size)
	assert.Equal(t, 0.0, trade.BuyFee)
	assert.InDelta(t, 0.102, trade.SellFee, 1e-9)
	assert.InDelta(t, 0.898, trade.PnL, 1e-9)

	require.Equal(t, 1, led.Count())
	assert.Equal(t, trade, led.Trades()[0])
}

func TestSimulator_PnLMatchesLegArithmetic(t *testing.T) {
	venues := []string{"a", "b"}
	fees := map[string]float64{"a": 0.002, "b": 0.0005}
	b := book.New(venues)
	quote(t, b, "a", 1, 99, 4, 100, 3)
	quote(t, b, "b", 2, 102, 2, 103, 2)

	led := ledger.New()
	sim := NewSimulator("ETH/USD", fees)
	opp := Detect(b, venues, fees)
	require.NotNil(t, opp)

	trade := sim.Execute(opp, 2, b, led)
	assert.Equal(t, 2.0, trade.Size)
	assert.InDelta(t, 100*2*0.002, trade.BuyFee, 1e-12)
	assert.InDelta(t, 102*2*0.0005, trade.SellFee, 1e-12)
	assert.InDelta(t, (102-100)*2.0-trade.BuyFee-trade.SellFee, trade.PnL, 1e-12)
	assert.Greater(t, trade.PnL, 0.0)
}

func TestSimulator_BookImpactClearsConsumedSides(t *testing.T) {
	venues := []string{"a", "b"}
	fees := map[string]float64{"a": 0, "b": 0}
	b := book.New(venues)
	quote(t, b, "a", 1, 100, 1, 101, 1)
	quote(t, b, "b", 2, 105, 1, 106, 1)

	sim := NewSimulator("BTC/USD", fees)
	opp := Detect(b, venues, fees)
	require.NotNil(t, opp)
	sim.Execute(opp, 2, b, ledger.New())

	// Buy venue's ask and sell venue's bid are consumed; the other sides stay.
	assert.Nil(t, b.Venue("a").Ask)
	assert.Nil(t, b.Venue("b").Bid)
	assert.NotNil(t, b.Venue("a").Bid)
	assert.NotNil(t, b.Venue("b").Ask)

	// With both consumed sides unknown, the same opportunity cannot re-fire.
	assert.Nil(t, Detect(b, venues, fees))
}

func TestSimulator_NotifiesObservers(t *testing.T) {
	venues := []string{"a", "b"}
	fees := map[string]float64{"a": 0, "b": 0}
	b := book.New(venues)
	quote(t, b, "a", 1, 100, 1, 101, 1)
	quote(t, b, "b", 2, 105, 1, 106, 1)

	first := &captureObserver{}
	second := &captureObserver{}
	sim := NewSimulator("BTC/USD", fees, first)
	sim.AddObserver(second)

	opp := Detect(b, venues, fees)
	require.NotNil(t, opp)
	trade := sim.Execute(opp, 2, b, ledger.New())

	require.Len(t, first.trades, 1)
	require.Len(t, second.trades, 1)
	assert.Equal(t, trade, first.trades[0])
	assert.Equal(t, trade, second.trades[0])
}
