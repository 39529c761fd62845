package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TradeAction string

const (
	ActionBuy  TradeAction = "BUY"
	ActionSell TradeAction = "SELL"
)

// SimulatedTrade 回测中的单笔交易记录
type SimulatedTrade struct {
	Time     time.Time       `json:"time"`
	Symbol   string          `json:"symbol"`
	Action   TradeAction     `json:"action"`
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity"`
	Fee      decimal.Decimal `json:"fee"`
}

// BacktestPoint is the per-bar output of a simulation run: the marked-to-market
// equity plus optional chart markers. A marker price is a plot offset
// (close*0.98 / close*1.02), not a fill price.
type BacktestPoint struct {
	Time     time.Time           `json:"time"`
	Close    decimal.Decimal     `json:"close"`
	Equity   decimal.Decimal     `json:"equity"`
	BuyMark  decimal.NullDecimal `json:"buy_mark"`
	SellMark decimal.NullDecimal `json:"sell_mark"`
}

// BacktestReport 回测结果报告
type BacktestReport struct {
	Symbol         string           `json:"symbol"`
	InitialCapital decimal.Decimal  `json:"initial_capital"`
	FinalEquity    decimal.Decimal  `json:"final_equity"`
	TotalReturnPct decimal.Decimal  `json:"total_return_pct"`
	TotalTrades    int              `json:"total_trades"`
	Points         []BacktestPoint  `json:"points"`
	TradesLog      []SimulatedTrade `json:"trades_log"`
}
