// Package indicator turns raw daily bars into an engine.Frame with the
// indicator columns the strategy and scorer consume. Computation is
// delegated to go-talib; this package only fixes the parameters and decides
// where each column's warm-up window ends.
package indicator

import (
	"math"

	"stock-insight/internal/engine"
	"stock-insight/internal/model"

	talib "github.com/markcheno/go-talib"
	"github.com/shopspring/decimal"
)

// Indicator parameters. These match the production strategy and must not
// drift per-call: the backtester and scorer both assume them.
const (
	macdFast   = 12
	macdSlow   = 26
	macdSmooth = 9

	bollPeriod = 20
	bollStdDev = 2.0

	kdjFastK  = 9
	kdjSmooth = 3

	maPeriod  = 20
	rsiPeriod = 14
)

// Per-column warm-up lengths: the first index at which the column is
// trusted. talib emits numbers earlier than these, seeded from partial
// windows; we mask them out so a warm-up sample can never leak into a
// trading decision.
const (
	bollLookback       = bollPeriod - 1
	maLookback         = maPeriod - 1
	rsiLookback        = rsiPeriod
	macdLookback       = macdSlow - 1
	macdSignalLookback = macdSlow + macdSmooth - 2
	kdjKLookback       = kdjFastK + kdjSmooth - 2
	kdjDLookback       = kdjKLookback + kdjSmooth - 1
)

// Enrich computes all indicator columns for bars and wraps the result in a
// validated Frame. Sequences shorter than a column's lookback simply leave
// that column undefined everywhere; only an empty or unordered input fails.
func Enrich(bars []model.Bar) (*engine.Frame, error) {
	n := len(bars)
	if n == 0 {
		return nil, &engine.DataError{Reason: "empty bar sequence"}
	}

	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	for i, b := range bars {
		closes[i], _ = b.Close.Float64()
		highs[i], _ = b.High.Float64()
		lows[i], _ = b.Low.Float64()
	}

	cols := make([]engine.Indicators, n)

	if n > macdSignalLookback {
		macdLine, signalLine, hist := talib.Macd(closes, macdFast, macdSlow, macdSmooth)
		fill(cols, macdLine, macdLookback, func(ix *engine.Indicators, v decimal.NullDecimal) { ix.MACD = v })
		fill(cols, signalLine, macdSignalLookback, func(ix *engine.Indicators, v decimal.NullDecimal) { ix.MACDSignal = v })
		fill(cols, hist, macdSignalLookback, func(ix *engine.Indicators, v decimal.NullDecimal) { ix.MACDHist = v })
	}

	if n > bollLookback {
		upper, mid, lower := talib.BBands(closes, bollPeriod, bollStdDev, bollStdDev, talib.SMA)
		fill(cols, upper, bollLookback, func(ix *engine.Indicators, v decimal.NullDecimal) { ix.BollUpper = v })
		fill(cols, mid, bollLookback, func(ix *engine.Indicators, v decimal.NullDecimal) { ix.BollMid = v })
		fill(cols, lower, bollLookback, func(ix *engine.Indicators, v decimal.NullDecimal) { ix.BollLower = v })
	}

	if n > kdjDLookback {
		k, d := talib.Stoch(highs, lows, closes, kdjFastK, kdjSmooth, talib.SMA, kdjSmooth, talib.SMA)
		fill(cols, k, kdjKLookback, func(ix *engine.Indicators, v decimal.NullDecimal) { ix.K = v })
		fill(cols, d, kdjDLookback, func(ix *engine.Indicators, v decimal.NullDecimal) { ix.D = v })
		for i := kdjDLookback; i < n; i++ {
			// J = 3K - 2D, defined once both smoothed lines are.
			if cols[i].K.Valid && cols[i].D.Valid {
				j := cols[i].K.Decimal.Mul(decimal.NewFromInt(3)).Sub(cols[i].D.Decimal.Mul(decimal.NewFromInt(2)))
				cols[i].J = decimal.NullDecimal{Decimal: j, Valid: true}
			}
		}
	}

	if n > maLookback {
		ma := talib.Sma(closes, maPeriod)
		fill(cols, ma, maLookback, func(ix *engine.Indicators, v decimal.NullDecimal) { ix.MA20 = v })
	}

	if n > rsiLookback {
		rsi := talib.Rsi(closes, rsiPeriod)
		fill(cols, rsi, rsiLookback, func(ix *engine.Indicators, v decimal.NullDecimal) { ix.RSI = v })
	}

	return engine.NewFrame(bars, cols)
}

func fill(cols []engine.Indicators, vals []float64, lookback int, set func(*engine.Indicators, decimal.NullDecimal)) {
	for i := lookback; i < len(vals); i++ {
		if math.IsNaN(vals[i]) || math.IsInf(vals[i], 0) {
			continue
		}
		set(&cols[i], decimal.NullDecimal{Decimal: decimal.NewFromFloat(vals[i]), Valid: true})
	}
}
