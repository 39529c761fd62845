package indicator

import (
	"testing"
	"time"

	"stock-insight/internal/engine"
	"stock-insight/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rampBars returns n bars closing at 1, 2, ... n with a 1-point spread to
// both sides.
func rampBars(n int) []model.Bar {
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]model.Bar, n)
	for i := 0; i < n; i++ {
		c := decimal.NewFromInt(int64(i + 1))
		bars[i] = model.Bar{
			Symbol:    "600519",
			Open:      c,
			High:      c.Add(decimal.NewFromInt(1)),
			Low:       c.Sub(decimal.NewFromInt(1)),
			Close:     c,
			Volume:    1000,
			Timestamp: base.AddDate(0, 0, i),
		}
	}
	return bars
}

func TestEnrich_EmptyInput(t *testing.T) {
	_, err := Enrich(nil)
	var dataErr *engine.DataError
	assert.ErrorAs(t, err, &dataErr)
}

func TestEnrich_ShortInputLeavesColumnsUndefined(t *testing.T) {
	f, err := Enrich(rampBars(5))
	require.NoError(t, err)

	for i := 0; i < f.Len(); i++ {
		for _, col := range []string{
			engine.ColMACD, engine.ColMACDSignal,
			engine.ColBollUpper, engine.ColBollMid, engine.ColBollLower,
			engine.ColK, engine.ColD, engine.ColJ,
			engine.ColMA20, engine.ColRSI,
		} {
			assert.False(t, f.Defined(i, col), "col %s at bar %d", col, i)
		}
	}
}

func TestEnrich_WarmupBoundaries(t *testing.T) {
	f, err := Enrich(rampBars(60))
	require.NoError(t, err)

	cases := []struct {
		col      string
		lookback int
	}{
		{engine.ColMA20, 19},
		{engine.ColBollUpper, 19},
		{engine.ColBollMid, 19},
		{engine.ColBollLower, 19},
		{engine.ColMACD, 25},
		{engine.ColMACDSignal, 33},
		{engine.ColK, 10},
		{engine.ColD, 12},
		{engine.ColJ, 12},
		{engine.ColRSI, 14},
	}

	for _, tc := range cases {
		t.Run(tc.col, func(t *testing.T) {
			assert.False(t, f.Defined(tc.lookback-1, tc.col), "one before the lookback must be masked")
			assert.True(t, f.Defined(tc.lookback, tc.col), "first sample past the lookback must be defined")
			assert.True(t, f.Defined(f.Len()-1, tc.col), "latest bar must be defined")
		})
	}
}

func TestEnrich_MovingAverageValues(t *testing.T) {
	f, err := Enrich(rampBars(60))
	require.NoError(t, err)

	// First full window is closes 1..20, mean 10.5. MA20 and the Bollinger
	// mid band share it.
	ind := f.Indicators(19)
	assert.InDelta(t, 10.5, ind.MA20.Decimal.InexactFloat64(), 1e-9)
	assert.InDelta(t, 10.5, ind.BollMid.Decimal.InexactFloat64(), 1e-9)

	// Bands bracket the mid band symmetrically.
	assert.True(t, ind.BollUpper.Decimal.GreaterThan(ind.BollMid.Decimal))
	assert.True(t, ind.BollLower.Decimal.LessThan(ind.BollMid.Decimal))
	spread := ind.BollUpper.Decimal.Sub(ind.BollMid.Decimal)
	assert.InDelta(t, spread.InexactFloat64(), ind.BollMid.Decimal.Sub(ind.BollLower.Decimal).InexactFloat64(), 1e-9)
}

func TestEnrich_RampCharacteristics(t *testing.T) {
	f, err := Enrich(rampBars(60))
	require.NoError(t, err)
	last := f.Indicators(f.Len() - 1)

	// A strict uptrend pins RSI at 100 and keeps MACD above its signal.
	assert.InDelta(t, 100, last.RSI.Decimal.InexactFloat64(), 1e-9)
	assert.True(t, last.MACD.Decimal.GreaterThan(decimal.Zero))
	assert.True(t, last.MACD.Decimal.GreaterThan(last.MACDSignal.Decimal))

	// Slope 1 with a 1-point spread gives a stationary stochastic:
	// raw K = 9/10 of the range, unchanged by smoothing.
	assert.InDelta(t, 90, last.K.Decimal.InexactFloat64(), 1e-6)
	assert.InDelta(t, 90, last.D.Decimal.InexactFloat64(), 1e-6)
}

func TestEnrich_JIdentity(t *testing.T) {
	f, err := Enrich(rampBars(60))
	require.NoError(t, err)

	three := decimal.NewFromInt(3)
	two := decimal.NewFromInt(2)
	for i := 0; i < f.Len(); i++ {
		ind := f.Indicators(i)
		if !ind.J.Valid {
			continue
		}
		require.True(t, ind.K.Valid)
		require.True(t, ind.D.Valid)
		want := ind.K.Decimal.Mul(three).Sub(ind.D.Decimal.Mul(two))
		assert.True(t, ind.J.Decimal.Equal(want), "J at bar %d", i)
	}
}
