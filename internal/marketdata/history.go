package marketdata

import (
	"context"
	"time"

	"stock-insight/internal/model"

	"go.uber.org/zap"
)

// BarStore is the slice of the bar repository History needs.
type BarStore interface {
	Load(ctx context.Context, symbol string, start, end time.Time) ([]model.Bar, error)
	SaveBatch(ctx context.Context, bars []model.Bar) error
}

// History layers the local bar store over the remote provider: reads hit
// the store first and fall back to the provider, writing fetched bars back
// so the next read is local.
type History struct {
	client *Client
	store  BarStore
	logger *zap.Logger
}

func NewHistory(client *Client, store BarStore, logger *zap.Logger) *History {
	return &History{client: client, store: store, logger: logger}
}

// Bars returns the daily bars for symbol within [start, end], oldest first.
// An empty result with a nil error means neither source has data.
func (h *History) Bars(ctx context.Context, symbol string, start, end time.Time) ([]model.Bar, error) {
	bars, err := h.store.Load(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	if len(bars) > 0 {
		return bars, nil
	}

	bars, err = h.client.DailyBars(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	if len(bars) > 0 {
		if err := h.store.SaveBatch(ctx, bars); err != nil {
			// The fetched bars are still good; only the cache write failed.
			h.logger.Warn("failed to persist fetched bars",
				zap.String("symbol", symbol),
				zap.Error(err),
			)
		}
	}
	return bars, nil
}
