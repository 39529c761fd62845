package engine

import (
	"testing"

	"stock-insight/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// breakoutFrame is 25 bars: flat at 100 through bar 20, a band breakout at
// bar 21 (close 110 > BBU 108, MACD 0.5), then configurable closes for the
// tail. BBM sits at 90 so the exit only fires when a tail bar closes below
// it.
func breakoutFrame(t *testing.T, tail ...float64) *Frame {
	t.Helper()

	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 100
	}
	closes[21] = 110
	for i, c := range tail {
		closes[22+i] = c
	}

	bars := makeBars(closes)
	cols := make([]Indicators, len(bars))
	for i := 20; i < len(cols); i++ {
		cols[i].BollUpper = val(108)
		cols[i].BollMid = val(90)
		cols[i].BollLower = val(80)
		cols[i].MACD = val(0.5)
	}

	f, err := NewFrame(bars, cols)
	require.NoError(t, err)
	return f
}

func TestBacktester_BreakoutBuy(t *testing.T) {
	f := breakoutFrame(t, 110, 110, 110)

	tester, err := NewBacktester(DefaultConfig(decimal.NewFromInt(100000)))
	require.NoError(t, err)

	report, err := tester.Run(f)
	require.NoError(t, err)

	// floor(100000/110/100)*100 = 900 shares, fee 900*110*0.0003 = 29.7
	require.Equal(t, 1, report.TotalTrades)
	trade := report.TradesLog[0]
	assert.Equal(t, model.ActionBuy, trade.Action)
	assert.Equal(t, int64(900), trade.Quantity)
	assert.True(t, trade.Price.Equal(decimal.NewFromInt(110)))
	assert.True(t, trade.Fee.Equal(decimal.RequireFromString("29.7")), "fee = %s", trade.Fee)

	// Buy marker sits at close*0.98, on the breakout bar only.
	assert.True(t, report.Points[21].BuyMark.Valid)
	assert.True(t, report.Points[21].BuyMark.Decimal.Equal(decimal.RequireFromString("107.8")))
	assert.False(t, report.Points[20].BuyMark.Valid)
	assert.False(t, report.Points[22].BuyMark.Valid)

	// Run ends still long, marked to market: 970.3 cash + 900*110.
	final := decimal.RequireFromString("99970.3")
	assert.True(t, report.FinalEquity.Equal(final), "final equity = %s", report.FinalEquity)
	assert.True(t, report.TotalReturnPct.Equal(decimal.RequireFromString("-0.0297")), "return = %s", report.TotalReturnPct)
}

func TestBacktester_ExitBelowMidBand(t *testing.T) {
	f := breakoutFrame(t, 110, 85, 90)

	tester, err := NewBacktester(DefaultConfig(decimal.NewFromInt(100000)))
	require.NoError(t, err)

	report, err := tester.Run(f)
	require.NoError(t, err)

	require.Equal(t, 2, report.TotalTrades)
	sell := report.TradesLog[1]
	assert.Equal(t, model.ActionSell, sell.Action)
	assert.Equal(t, int64(900), sell.Quantity)
	assert.True(t, sell.Price.Equal(decimal.NewFromInt(85)))
	// fee = 900*85*0.0003 = 22.95
	assert.True(t, sell.Fee.Equal(decimal.RequireFromString("22.95")))

	// Sell marker at close*1.02 on the exit bar.
	assert.True(t, report.Points[23].SellMark.Valid)
	assert.True(t, report.Points[23].SellMark.Decimal.Equal(decimal.RequireFromString("86.7")))

	// cash = 970.3 + 76500 - 22.95 = 77447.35, flat through the last bar.
	final := decimal.RequireFromString("77447.35")
	assert.True(t, report.FinalEquity.Equal(final), "final equity = %s", report.FinalEquity)
	assert.True(t, report.Points[24].Equity.Equal(final))
}

func TestBacktester_WarmupOnlyProducesNoTrades(t *testing.T) {
	bars := makeBars([]float64{100, 101, 102, 103, 104, 105, 106, 107, 108, 109})
	f, err := NewFrame(bars, nil)
	require.NoError(t, err)

	capital := decimal.NewFromInt(50000)
	tester, err := NewBacktester(DefaultConfig(capital))
	require.NoError(t, err)

	report, err := tester.Run(f)
	require.NoError(t, err)

	assert.Equal(t, 0, report.TotalTrades)
	assert.Len(t, report.Points, 10)
	for _, p := range report.Points {
		assert.True(t, p.Equity.Equal(capital), "warm-up equity must stay at initial capital")
		assert.False(t, p.BuyMark.Valid)
		assert.False(t, p.SellMark.Valid)
	}
	assert.True(t, report.TotalReturnPct.IsZero())
}

func TestBacktester_InsufficientCashForOneLot(t *testing.T) {
	f := breakoutFrame(t, 110, 110, 110)

	// One lot at 110 costs 11000; 5000 cannot buy, so no trade ever fires.
	tester, err := NewBacktester(DefaultConfig(decimal.NewFromInt(5000)))
	require.NoError(t, err)

	report, err := tester.Run(f)
	require.NoError(t, err)

	assert.Equal(t, 0, report.TotalTrades)
	assert.False(t, report.Points[21].BuyMark.Valid)
	assert.True(t, report.FinalEquity.Equal(decimal.NewFromInt(5000)))
}

func TestBacktester_UndefinedIndicatorsHold(t *testing.T) {
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 120 // above any band, but no bands are defined
	}
	bars := makeBars(closes)
	f, err := NewFrame(bars, nil)
	require.NoError(t, err)

	tester, err := NewBacktester(DefaultConfig(decimal.NewFromInt(100000)))
	require.NoError(t, err)

	report, err := tester.Run(f)
	require.NoError(t, err)
	assert.Equal(t, 0, report.TotalTrades)
}

func TestBacktester_LotAlignment(t *testing.T) {
	f := breakoutFrame(t, 110, 110, 110)

	cfg := DefaultConfig(decimal.NewFromInt(100000))
	cfg.LotSize = 300
	tester, err := NewBacktester(cfg)
	require.NoError(t, err)

	report, err := tester.Run(f)
	require.NoError(t, err)

	require.Equal(t, 1, report.TotalTrades)
	assert.Equal(t, int64(900), report.TradesLog[0].Quantity)
	assert.Zero(t, report.TradesLog[0].Quantity%300)
}

func TestBacktester_Deterministic(t *testing.T) {
	f := breakoutFrame(t, 110, 85, 90)

	run := func() *model.BacktestReport {
		tester, err := NewBacktester(DefaultConfig(decimal.NewFromInt(100000)))
		require.NoError(t, err)
		report, err := tester.Run(f)
		require.NoError(t, err)
		return report
	}

	assert.Equal(t, run(), run())
}

func TestNewBacktester_ConfigValidation(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"zero capital", DefaultConfig(decimal.Zero)},
		{"negative capital", DefaultConfig(decimal.NewFromInt(-1))},
		{"commission at one", func() Config {
			c := DefaultConfig(decimal.NewFromInt(1000))
			c.CommissionRate = decimal.NewFromInt(1)
			return c
		}()},
		{"negative commission", func() Config {
			c := DefaultConfig(decimal.NewFromInt(1000))
			c.CommissionRate = decimal.NewFromFloat(-0.1)
			return c
		}()},
		{"zero lot", func() Config {
			c := DefaultConfig(decimal.NewFromInt(1000))
			c.LotSize = 0
			return c
		}()},
		{"negative warmup", func() Config {
			c := DefaultConfig(decimal.NewFromInt(1000))
			c.Warmup = -1
			return c
		}()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewBacktester(tc.cfg)
			var cfgErr *ConfigError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestBacktester_EmptyFrame(t *testing.T) {
	tester, err := NewBacktester(DefaultConfig(decimal.NewFromInt(1000)))
	require.NoError(t, err)

	_, err = tester.Run(nil)
	var dataErr *DataError
	assert.ErrorAs(t, err, &dataErr)
}
