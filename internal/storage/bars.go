package storage

import (
	"context"
	"fmt"
	"time"

	"stock-insight/internal/infrastructure"
	"stock-insight/internal/model"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"go.uber.org/zap"
)

// BarRepo persists daily bars fetched from the market data provider so a
// backtest over the same range does not refetch them.
type BarRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewBarRepo(pool *pgxpool.Pool, logger *zap.Logger) *BarRepo {
	return &BarRepo{pool: pool, logger: logger}
}

// Load returns the stored bars for symbol within [start, end], ascending.
func (r *BarRepo) Load(ctx context.Context, symbol string, start, end time.Time) ([]model.Bar, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT symbol, open, high, low, close, volume, time
		FROM daily_bars
		WHERE symbol = $1 AND time >= $2 AND time <= $3
		ORDER BY time ASC`,
		symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("query daily bars: %w", err)
	}
	defer rows.Close()

	var bars []model.Bar
	for rows.Next() {
		var b model.Bar
		if err := rows.Scan(&b.Symbol, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.Timestamp); err != nil {
			return nil, fmt.Errorf("scan daily bar: %w", err)
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// SaveBatch upserts bars in a single round trip. Re-fetched days are
// skipped, not rewritten: a settled daily bar never changes.
func (r *BarRepo) SaveBatch(ctx context.Context, bars []model.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, b := range bars {
		batch.Queue(`
			INSERT INTO daily_bars (symbol, open, high, low, close, volume, time)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (symbol, time) DO NOTHING`,
			b.Symbol, b.Open, b.High, b.Low, b.Close, b.Volume, b.Timestamp)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range bars {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert daily bar: %w", err)
		}
	}

	infrastructure.DBInsertRate.WithLabelValues("daily_bars").Add(float64(len(bars)))
	r.logger.Debug("saved daily bars",
		zap.String("symbol", bars[0].Symbol),
		zap.Int("count", len(bars)),
	)
	return nil
}
