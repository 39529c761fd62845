package storage

import (
	"context"
	"errors"
	"fmt"

	"stock-insight/internal/model"

	"github.com/jackc/pgx/v4/pgxpool"
)

// ErrAlreadyWatched is returned when the symbol is already on the user's
// watchlist.
var ErrAlreadyWatched = errors.New("symbol already on the watchlist")

type WatchlistRepo struct {
	pool *pgxpool.Pool
}

func NewWatchlistRepo(pool *pgxpool.Pool) *WatchlistRepo {
	return &WatchlistRepo{pool: pool}
}

func (r *WatchlistRepo) Add(ctx context.Context, userID int64, symbol, name string) error {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO watchlist (user_id, symbol, stock_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, symbol) DO NOTHING`,
		userID, symbol, name)
	if err != nil {
		return fmt.Errorf("insert watchlist entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyWatched
	}
	return nil
}

func (r *WatchlistRepo) Remove(ctx context.Context, userID int64, symbol string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM watchlist WHERE user_id = $1 AND symbol = $2`,
		userID, symbol)
	if err != nil {
		return fmt.Errorf("delete watchlist entry: %w", err)
	}
	return nil
}

func (r *WatchlistRepo) List(ctx context.Context, userID int64) ([]model.WatchItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT symbol, COALESCE(stock_name, ''), added_at
		FROM watchlist
		WHERE user_id = $1
		ORDER BY added_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("query watchlist: %w", err)
	}
	defer rows.Close()

	items := make([]model.WatchItem, 0)
	for rows.Next() {
		var it model.WatchItem
		if err := rows.Scan(&it.Symbol, &it.StockName, &it.AddedAt); err != nil {
			return nil, fmt.Errorf("scan watchlist entry: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Symbols returns every distinct watched symbol across all users, for the
// scheduled signal scan.
func (r *WatchlistRepo) Symbols(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT symbol FROM watchlist`)
	if err != nil {
		return nil, fmt.Errorf("query watched symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		symbols = append(symbols, s)
	}
	return symbols, rows.Err()
}
