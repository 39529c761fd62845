package engine

import (
	"stock-insight/internal/model"

	"github.com/shopspring/decimal"
)

// Default simulation parameters. Commission is the flat A-share 万三 rate;
// lots are 100 shares; warm-up matches the longest indicator lookback (20).
var DefaultCommissionRate = decimal.NewFromFloat(0.0003)

const (
	DefaultLotSize = 100
	DefaultWarmup  = 20
)

var (
	buyMarkRatio  = decimal.NewFromFloat(0.98)
	sellMarkRatio = decimal.NewFromFloat(1.02)
)

// Config are the parameters for one backtest run.
type Config struct {
	InitialCapital decimal.Decimal
	CommissionRate decimal.Decimal // in [0, 1)
	LotSize        int64
	Warmup         int
}

// DefaultConfig returns a Config with the production defaults and the given
// starting capital.
func DefaultConfig(initialCapital decimal.Decimal) Config {
	return Config{
		InitialCapital: initialCapital,
		CommissionRate: DefaultCommissionRate,
		LotSize:        DefaultLotSize,
		Warmup:         DefaultWarmup,
	}
}

type positionState int

const (
	stateFlat positionState = iota
	stateLong
)

// Backtester simulates the Bollinger breakout strategy over one frame:
// enter long when the close breaks the upper band with MACD positive, exit
// when the close falls below the mid band. Long-only, one position at a
// time, full-cash entries aligned to the lot size.
//
// A Backtester is single-use: create one per run.
type Backtester struct {
	cfg    Config
	cash   decimal.Decimal
	shares int64
	state  positionState
	trades []model.SimulatedTrade
	points []model.BacktestPoint
}

// NewBacktester validates cfg and prepares a run. Invalid parameters fail
// here with a ConfigError, before any bar is touched.
func NewBacktester(cfg Config) (*Backtester, error) {
	if cfg.InitialCapital.LessThanOrEqual(decimal.Zero) {
		return nil, &ConfigError{Reason: "initial capital must be positive"}
	}
	if cfg.CommissionRate.IsNegative() || cfg.CommissionRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, &ConfigError{Reason: "commission rate must be in [0, 1)"}
	}
	if cfg.LotSize <= 0 {
		return nil, &ConfigError{Reason: "lot size must be positive"}
	}
	if cfg.Warmup < 0 {
		return nil, &ConfigError{Reason: "warmup must be non-negative"}
	}
	return &Backtester{
		cfg:    cfg,
		cash:   cfg.InitialCapital,
		state:  stateFlat,
		trades: make([]model.SimulatedTrade, 0),
		points: make([]model.BacktestPoint, 0),
	}, nil
}

// Run walks the frame in order and returns the augmented report. Bars inside
// the warm-up window, or bars whose required indicators are undefined, are
// holds: they contribute an equity point and nothing else. The run may end
// still long; the final point is marked to market, not liquidated.
func (b *Backtester) Run(f *Frame) (*model.BacktestReport, error) {
	if f == nil || f.Len() == 0 {
		return nil, &DataError{Reason: "empty frame"}
	}

	for i := 0; i < f.Len(); i++ {
		bar := f.Bar(i)
		ind := f.Indicators(i)

		var buyMark, sellMark decimal.NullDecimal
		if i >= b.cfg.Warmup {
			switch b.state {
			case stateFlat:
				if ind.BollUpper.Valid && ind.MACD.Valid &&
					bar.Close.GreaterThan(ind.BollUpper.Decimal) &&
					ind.MACD.Decimal.GreaterThan(decimal.Zero) {
					if b.buy(bar) {
						buyMark = decimal.NullDecimal{Decimal: bar.Close.Mul(buyMarkRatio), Valid: true}
					}
				}
			case stateLong:
				if ind.BollMid.Valid && bar.Close.LessThan(ind.BollMid.Decimal) {
					b.sell(bar)
					sellMark = decimal.NullDecimal{Decimal: bar.Close.Mul(sellMarkRatio), Valid: true}
				}
			}
		}

		equity := b.cash.Add(decimal.NewFromInt(b.shares).Mul(bar.Close))
		b.points = append(b.points, model.BacktestPoint{
			Time:     bar.Timestamp,
			Close:    bar.Close,
			Equity:   equity,
			BuyMark:  buyMark,
			SellMark: sellMark,
		})
	}

	final := b.points[len(b.points)-1].Equity
	returnPct := final.Sub(b.cfg.InitialCapital).
		Div(b.cfg.InitialCapital).
		Mul(decimal.NewFromInt(100))

	return &model.BacktestReport{
		Symbol:         f.Bar(0).Symbol,
		InitialCapital: b.cfg.InitialCapital,
		FinalEquity:    final,
		TotalReturnPct: returnPct,
		TotalTrades:    len(b.trades),
		Points:         b.points,
		TradesLog:      b.trades,
	}, nil
}

// buy opens a full-cash position rounded down to whole lots. Returns false
// when cash does not cover a single lot; the state stays flat.
func (b *Backtester) buy(bar model.Bar) bool {
	lot := decimal.NewFromInt(b.cfg.LotSize)
	qty := b.cash.Div(bar.Close).Div(lot).Floor().Mul(lot)
	if !qty.IsPositive() {
		return false
	}

	cost := qty.Mul(bar.Close)
	fee := cost.Mul(b.cfg.CommissionRate)
	b.cash = b.cash.Sub(cost).Sub(fee)
	b.shares = qty.IntPart()
	b.state = stateLong

	b.trades = append(b.trades, model.SimulatedTrade{
		Time:     bar.Timestamp,
		Symbol:   bar.Symbol,
		Action:   model.ActionBuy,
		Price:    bar.Close,
		Quantity: b.shares,
		Fee:      fee,
	})
	return true
}

func (b *Backtester) sell(bar model.Bar) {
	qty := decimal.NewFromInt(b.shares)
	revenue := qty.Mul(bar.Close)
	fee := revenue.Mul(b.cfg.CommissionRate)
	b.cash = b.cash.Add(revenue).Sub(fee)

	b.trades = append(b.trades, model.SimulatedTrade{
		Time:     bar.Timestamp,
		Symbol:   bar.Symbol,
		Action:   model.ActionSell,
		Price:    bar.Close,
		Quantity: b.shares,
		Fee:      fee,
	})

	b.shares = 0
	b.state = stateFlat
}
