package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Direction string

const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
)

type PredictionStatus string

const (
	StatusPending   PredictionStatus = "PENDING"
	StatusCorrect   PredictionStatus = "CORRECT"
	StatusIncorrect PredictionStatus = "INCORRECT"
)

// Prediction is a user's directional call on a symbol, priced at creation
// time. InitialPrice never changes after the row is created; status moves
// PENDING -> CORRECT/INCORRECT exactly once.
type Prediction struct {
	ID           int64            `json:"id" db:"id"`
	UserID       int64            `json:"user_id" db:"user_id"`
	Symbol       string           `json:"symbol" db:"symbol"`
	StockName    string           `json:"stock_name" db:"stock_name"`
	Direction    Direction        `json:"direction" db:"direction"`
	InitialPrice decimal.Decimal  `json:"initial_price" db:"initial_price"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
	Status       PredictionStatus `json:"status" db:"status"`
}

// PredictionOutcome reports one resolved prediction. Predictions that stay
// PENDING are never reported.
type PredictionOutcome struct {
	PredictionID int64            `json:"prediction_id"`
	Symbol       string           `json:"symbol"`
	Status       PredictionStatus `json:"status"`
	Message      string           `json:"message"`
}

// PredictionStats 用户预测战绩
type PredictionStats struct {
	Total     int64 `json:"total"`
	Correct   int64 `json:"correct"`
	Incorrect int64 `json:"incorrect"`
}
