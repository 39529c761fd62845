// Package prediction resolves users' directional calls against observed
// prices.
package prediction

import (
	"fmt"

	"stock-insight/internal/model"

	"github.com/shopspring/decimal"
)

// Thresholds are the price ratios that settle a prediction. They are
// deliberately asymmetric: a 1% move in the called direction wins, but the
// adverse move must reach 2% before the call is declared wrong.
type Thresholds struct {
	UpCorrect     decimal.Decimal
	UpIncorrect   decimal.Decimal
	DownCorrect   decimal.Decimal
	DownIncorrect decimal.Decimal
}

// DefaultThresholds returns the production ratios.
func DefaultThresholds() Thresholds {
	return Thresholds{
		UpCorrect:     decimal.NewFromFloat(1.01),
		UpIncorrect:   decimal.NewFromFloat(0.98),
		DownCorrect:   decimal.NewFromFloat(0.99),
		DownIncorrect: decimal.NewFromFloat(1.02),
	}
}

// Evaluate applies the default thresholds. See EvaluateWith.
func Evaluate(pending []model.Prediction, prices map[string]decimal.Decimal) []model.PredictionOutcome {
	return EvaluateWith(DefaultThresholds(), pending, prices)
}

// EvaluateWith settles every pending prediction whose outcome is decidable
// under the given prices. Predictions for symbols missing from prices, and
// predictions whose price sits between the two thresholds, are left alone
// and not reported. Pure: no input is mutated.
func EvaluateWith(th Thresholds, pending []model.Prediction, prices map[string]decimal.Decimal) []model.PredictionOutcome {
	outcomes := make([]model.PredictionOutcome, 0)
	for _, p := range pending {
		if p.Status != model.StatusPending {
			continue
		}
		price, ok := prices[p.Symbol]
		if !ok {
			continue
		}
		status := resolve(th, p, price)
		if status == model.StatusPending {
			continue
		}
		outcomes = append(outcomes, model.PredictionOutcome{
			PredictionID: p.ID,
			Symbol:       p.Symbol,
			Status:       status,
			Message:      outcomeMessage(p, status),
		})
	}
	return outcomes
}

// resolve applies the threshold rules. Both boundaries are inclusive: a
// price sitting exactly on a threshold settles the prediction.
func resolve(th Thresholds, p model.Prediction, price decimal.Decimal) model.PredictionStatus {
	switch p.Direction {
	case model.DirectionUp:
		if price.GreaterThanOrEqual(p.InitialPrice.Mul(th.UpCorrect)) {
			return model.StatusCorrect
		}
		if price.LessThanOrEqual(p.InitialPrice.Mul(th.UpIncorrect)) {
			return model.StatusIncorrect
		}
	case model.DirectionDown:
		if price.LessThanOrEqual(p.InitialPrice.Mul(th.DownCorrect)) {
			return model.StatusCorrect
		}
		if price.GreaterThanOrEqual(p.InitialPrice.Mul(th.DownIncorrect)) {
			return model.StatusIncorrect
		}
	}
	return model.StatusPending
}

func outcomeMessage(p model.Prediction, status model.PredictionStatus) string {
	name := p.StockName
	if name == "" {
		name = p.Symbol
	}
	direction := "bullish"
	if p.Direction == model.DirectionDown {
		direction = "bearish"
	}
	if status == model.StatusCorrect {
		return fmt.Sprintf("Your %s call on %s (%s) was correct.", direction, name, p.Symbol)
	}
	return fmt.Sprintf("Your %s call on %s (%s) missed the mark.", direction, name, p.Symbol)
}
