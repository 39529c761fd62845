package storage

import (
	"context"
	"errors"
	"fmt"

	"stock-insight/internal/model"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ErrDuplicatePending is returned when a user already holds an open
// prediction for the symbol. The existing row is left untouched.
var ErrDuplicatePending = errors.New("an open prediction already exists for this symbol")

type PredictionRepo struct {
	pool *pgxpool.Pool
}

func NewPredictionRepo(pool *pgxpool.Pool) *PredictionRepo {
	return &PredictionRepo{pool: pool}
}

// Create inserts a new PENDING prediction. The guarded insert (plus the
// partial unique index in init.sql) enforces at most one PENDING row per
// (user, symbol).
func (r *PredictionRepo) Create(ctx context.Context, p model.Prediction) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO predictions (user_id, symbol, stock_name, direction, initial_price)
		SELECT $1, $2, $3, $4, $5
		WHERE NOT EXISTS (
			SELECT 1 FROM predictions
			WHERE user_id = $1 AND symbol = $2 AND status = 'PENDING'
		)
		RETURNING id`,
		p.UserID, p.Symbol, p.StockName, string(p.Direction), p.InitialPrice).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrDuplicatePending
	}
	if err != nil {
		return 0, fmt.Errorf("insert prediction: %w", err)
	}
	return id, nil
}

// Resolve moves a prediction to its terminal status. A row that is no
// longer PENDING is not touched; the transition is one-way.
func (r *PredictionRepo) Resolve(ctx context.Context, id int64, status model.PredictionStatus) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE predictions
		SET status = $2, resolved_at = now()
		WHERE id = $1 AND status = 'PENDING'`,
		id, string(status))
	if err != nil {
		return fmt.Errorf("resolve prediction: %w", err)
	}
	return nil
}

func (r *PredictionRepo) ListPending(ctx context.Context, userID int64) ([]model.Prediction, error) {
	return r.list(ctx, `
		SELECT id, user_id, symbol, stock_name, direction, initial_price, created_at, status
		FROM predictions
		WHERE user_id = $1 AND status = 'PENDING'
		ORDER BY created_at ASC`, userID)
}

func (r *PredictionRepo) List(ctx context.Context, userID int64) ([]model.Prediction, error) {
	return r.list(ctx, `
		SELECT id, user_id, symbol, stock_name, direction, initial_price, created_at, status
		FROM predictions
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
}

func (r *PredictionRepo) list(ctx context.Context, query string, userID int64) ([]model.Prediction, error) {
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query predictions: %w", err)
	}
	defer rows.Close()

	var out []model.Prediction
	for rows.Next() {
		var p model.Prediction
		var direction, status string
		if err := rows.Scan(&p.ID, &p.UserID, &p.Symbol, &p.StockName, &direction, &p.InitialPrice, &p.CreatedAt, &status); err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		p.Direction = model.Direction(direction)
		p.Status = model.PredictionStatus(status)
		out = append(out, p)
	}
	return out, rows.Err()
}

// UsersWithPending returns the users that have at least one open prediction.
func (r *PredictionRepo) UsersWithPending(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT user_id FROM predictions WHERE status = 'PENDING'`)
	if err != nil {
		return nil, fmt.Errorf("query users with pending predictions: %w", err)
	}
	defer rows.Close()

	var users []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		users = append(users, id)
	}
	return users, rows.Err()
}

// Stats 获取用户预测战绩 (settled predictions only)
func (r *PredictionRepo) Stats(ctx context.Context, userID int64) (model.PredictionStats, error) {
	var s model.PredictionStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'CORRECT'),
			COUNT(*) FILTER (WHERE status = 'INCORRECT')
		FROM predictions
		WHERE user_id = $1 AND status != 'PENDING'`,
		userID).Scan(&s.Total, &s.Correct, &s.Incorrect)
	if err != nil {
		return model.PredictionStats{}, fmt.Errorf("query prediction stats: %w", err)
	}
	return s, nil
}
