package prediction

import (
	"context"
	"encoding/json"
	"fmt"

	"stock-insight/internal/infrastructure"
	"stock-insight/internal/model"

	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Store is the slice of the prediction repository the checker needs.
type Store interface {
	UsersWithPending(ctx context.Context) ([]int64, error)
	ListPending(ctx context.Context, userID int64) ([]model.Prediction, error)
	Resolve(ctx context.Context, id int64, status model.PredictionStatus) error
}

// Quotes supplies the latest trade price per symbol.
type Quotes interface {
	Quote(ctx context.Context, symbol string) (model.Quote, error)
}

// Checker loads pending predictions, settles the decidable ones and pushes
// one alert message per settled prediction to NATS.
type Checker struct {
	store  Store
	quotes Quotes
	js     nats.JetStreamContext
	logger *zap.Logger
	th     Thresholds
}

func NewChecker(store Store, quotes Quotes, js nats.JetStreamContext, logger *zap.Logger) *Checker {
	return &Checker{
		store:  store,
		quotes: quotes,
		js:     js,
		logger: logger,
		th:     DefaultThresholds(),
	}
}

// CheckAll runs one settlement pass over every user that has pending
// predictions. A failing user does not stop the pass.
func (c *Checker) CheckAll(ctx context.Context) error {
	users, err := c.store.UsersWithPending(ctx)
	if err != nil {
		return fmt.Errorf("list users with pending predictions: %w", err)
	}
	for _, userID := range users {
		if _, err := c.CheckUser(ctx, userID); err != nil {
			c.logger.Warn("prediction check failed for user",
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
		}
	}
	return nil
}

// CheckUser settles one user's pending predictions and returns the outcomes.
// Symbols whose quote cannot be fetched are skipped and stay pending.
func (c *Checker) CheckUser(ctx context.Context, userID int64) ([]model.PredictionOutcome, error) {
	pending, err := c.store.ListPending(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list pending predictions: %w", err)
	}
	if len(pending) == 0 {
		return nil, nil
	}

	prices := make(map[string]decimal.Decimal, len(pending))
	for _, p := range pending {
		if _, ok := prices[p.Symbol]; ok {
			continue
		}
		quote, err := c.quotes.Quote(ctx, p.Symbol)
		if err != nil {
			c.logger.Warn("quote unavailable, prediction stays pending",
				zap.String("symbol", p.Symbol),
				zap.Error(err),
			)
			continue
		}
		prices[p.Symbol] = quote.Price
	}

	outcomes := EvaluateWith(c.th, pending, prices)
	for _, o := range outcomes {
		if err := c.store.Resolve(ctx, o.PredictionID, o.Status); err != nil {
			return nil, fmt.Errorf("resolve prediction %d: %w", o.PredictionID, err)
		}
		infrastructure.PredictionResolutions.WithLabelValues(string(o.Status)).Inc()
		c.publishAlert(userID, o)
	}
	return outcomes, nil
}

func (c *Checker) publishAlert(userID int64, o model.PredictionOutcome) {
	if c.js == nil {
		return
	}
	subject := fmt.Sprintf("analysis.alert.%d", userID)
	data, err := json.Marshal(o)
	if err != nil {
		c.logger.Error("failed to marshal outcome", zap.Error(err))
		return
	}
	if _, err := c.js.Publish(subject, data); err != nil {
		c.logger.Error("failed to publish alert",
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}
