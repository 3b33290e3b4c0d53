package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gagordon1/mm/internal/model"
)

func TestLedger_Empty(t *testing.T) {
	l := New()
	assert.Equal(t, 0, l.Count())
	assert.Equal(t, 0.0, l.TotalPnL())
	assert.Empty(t, l.Trades())
	assert.Empty(t, l.Series())
}

func TestLedger_CumulativeSeries(t *testing.T) {
	l := New()
	l.Append(model.Trade{TsNs: 10, PnL: 0.5})
	l.Append(model.Trade{TsNs: 20, PnL: 0.25})
	l.Append(model.Trade{TsNs: 30, PnL: 1.0})

	assert.Equal(t, 3, l.Count())
	assert.InDelta(t, 1.75, l.TotalPnL(), 1e-12)

	series := l.Series()
	require.Len(t, series, 3)
	assert.Equal(t, model.PnLPoint{TsNs: 10, CumPnL: 0.5}, series[0])
	assert.Equal(t, model.PnLPoint{TsNs: 20, CumPnL: 0.75}, series[1])
	assert.Equal(t, model.PnLPoint{TsNs: 30, CumPnL: 1.75}, series[2])
}

func TestLedger_PreservesAppendOrder(t *testing.T) {
	l := New()
	trades := []model.Trade{
		{TsNs: 1, BuyVenue: "a", SellVenue: "b", PnL: 0.1},
		{TsNs: 2, BuyVenue: "b", SellVenue: "c", PnL: 0.2},
	}
	for _, tr := range trades {
		l.Append(tr)
	}
	assert.Equal(t, trades, l.Trades())
}
