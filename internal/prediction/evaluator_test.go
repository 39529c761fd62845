package prediction

import (
	"testing"

	"stock-insight/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingPrediction(id int64, symbol string, dir model.Direction, initial float64) model.Prediction {
	return model.Prediction{
		ID:           id,
		UserID:       1,
		Symbol:       symbol,
		StockName:    "贵州茅台",
		Direction:    dir,
		InitialPrice: decimal.NewFromFloat(initial),
		Status:       model.StatusPending,
	}
}

func prices(pairs map[string]float64) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(pairs))
	for k, v := range pairs {
		out[k] = decimal.NewFromFloat(v)
	}
	return out
}

func TestEvaluate_UpDirection(t *testing.T) {
	cases := []struct {
		name    string
		current float64
		want    model.PredictionStatus // StatusPending means "not reported"
	}{
		{"win above threshold", 102, model.StatusCorrect},
		{"win exactly at threshold", 101, model.StatusCorrect},
		{"loss below threshold", 97, model.StatusIncorrect},
		{"loss exactly at threshold", 98, model.StatusIncorrect},
		{"undecided in the dead zone", 100.5, model.StatusPending},
		{"undecided just under win", 100.99, model.StatusPending},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pending := []model.Prediction{pendingPrediction(1, "600519", model.DirectionUp, 100)}
			outcomes := Evaluate(pending, prices(map[string]float64{"600519": tc.current}))

			if tc.want == model.StatusPending {
				assert.Empty(t, outcomes)
				return
			}
			require.Len(t, outcomes, 1)
			assert.Equal(t, int64(1), outcomes[0].PredictionID)
			assert.Equal(t, tc.want, outcomes[0].Status)
		})
	}
}

func TestEvaluate_DownDirection(t *testing.T) {
	cases := []struct {
		name    string
		current float64
		want    model.PredictionStatus
	}{
		{"win below threshold", 98, model.StatusCorrect},
		{"win exactly at threshold", 99, model.StatusCorrect},
		{"loss above threshold", 103, model.StatusIncorrect},
		{"loss exactly at threshold", 102, model.StatusIncorrect},
		{"undecided in the dead zone", 100, model.StatusPending},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pending := []model.Prediction{pendingPrediction(2, "000001", model.DirectionDown, 100)}
			outcomes := Evaluate(pending, prices(map[string]float64{"000001": tc.current}))

			if tc.want == model.StatusPending {
				assert.Empty(t, outcomes)
				return
			}
			require.Len(t, outcomes, 1)
			assert.Equal(t, tc.want, outcomes[0].Status)
		})
	}
}

func TestEvaluate_MissingPriceSkipped(t *testing.T) {
	pending := []model.Prediction{
		pendingPrediction(1, "600519", model.DirectionUp, 100),
		pendingPrediction(2, "000001", model.DirectionUp, 100),
	}
	outcomes := Evaluate(pending, prices(map[string]float64{"600519": 105}))

	require.Len(t, outcomes, 1)
	assert.Equal(t, int64(1), outcomes[0].PredictionID)
}

func TestEvaluate_NonPendingIgnored(t *testing.T) {
	resolved := pendingPrediction(3, "600519", model.DirectionUp, 100)
	resolved.Status = model.StatusCorrect

	outcomes := Evaluate([]model.Prediction{resolved}, prices(map[string]float64{"600519": 90}))
	assert.Empty(t, outcomes)
}

func TestEvaluate_Messages(t *testing.T) {
	up := pendingPrediction(1, "600519", model.DirectionUp, 100)
	down := pendingPrediction(2, "000001", model.DirectionDown, 100)
	down.StockName = ""

	outcomes := Evaluate([]model.Prediction{up, down}, prices(map[string]float64{
		"600519": 105,
		"000001": 105,
	}))

	require.Len(t, outcomes, 2)
	assert.Equal(t, "Your bullish call on 贵州茅台 (600519) was correct.", outcomes[0].Message)
	assert.Equal(t, "Your bearish call on 000001 (000001) missed the mark.", outcomes[1].Message)
}

func TestEvaluate_DoesNotMutateInput(t *testing.T) {
	pending := []model.Prediction{pendingPrediction(1, "600519", model.DirectionUp, 100)}
	Evaluate(pending, prices(map[string]float64{"600519": 105}))

	assert.Equal(t, model.StatusPending, pending[0].Status)
}
