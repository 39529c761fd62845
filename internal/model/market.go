package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bar 代表一根日K线 (前复权)
type Bar struct {
	Symbol    string          `json:"symbol" db:"symbol"`
	Open      decimal.Decimal `json:"o" db:"open"`
	High      decimal.Decimal `json:"h" db:"high"`
	Low       decimal.Decimal `json:"l" db:"low"`
	Close     decimal.Decimal `json:"c" db:"close"`
	Volume    int64           `json:"v" db:"volume"`
	Timestamp time.Time       `json:"t" db:"time"`
}

// Quote 最新行情快照
type Quote struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
	Time   time.Time       `json:"time"`
}

// WatchItem is one watchlist row for a user.
type WatchItem struct {
	Symbol    string    `json:"symbol" db:"symbol"`
	StockName string    `json:"stock_name" db:"stock_name"`
	AddedAt   time.Time `json:"added_at" db:"added_at"`
}
