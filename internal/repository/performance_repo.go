package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"eduvoice-backend/internal/performance"
)

// PerformanceRepo stores review outcomes in Postgres. Rows are never
// updated, so the insertion id doubles as log order.
type PerformanceRepo struct {
	pool *pgxpool.Pool
}

func NewPerformanceRepo(pool *pgxpool.Pool) *PerformanceRepo {
	return &PerformanceRepo{pool: pool}
}

func (r *PerformanceRepo) Load(ctx context.Context, userID string) ([]performance.Record, error) {
	query := `SELECT recorded_at, question, card_type, difficulty, correct, response_time
		FROM performance_records WHERE user_id = $1 ORDER BY id ASC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query performance records: %w", err)
	}
	defer rows.Close()

	var records []performance.Record
	for rows.Next() {
		var rec performance.Record
		if err := rows.Scan(&rec.Timestamp, &rec.Question, &rec.Type, &rec.Difficulty, &rec.Correct, &rec.ResponseTime); err != nil {
			return nil, fmt.Errorf("failed to scan performance record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *PerformanceRepo) Append(ctx context.Context, userID string, rec performance.Record) (performance.AppendResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return performance.AppendResult{}, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `INSERT INTO performance_records
		(user_id, recorded_at, question, card_type, difficulty, correct, response_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		userID, rec.Timestamp, rec.Question, rec.Type, rec.Difficulty, rec.Correct, rec.ResponseTime,
	)
	if err != nil {
		return performance.AppendResult{}, fmt.Errorf("failed to insert performance record: %w", err)
	}

	var total int
	if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM performance_records WHERE user_id = $1", userID).Scan(&total); err != nil {
		return performance.AppendResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return performance.AppendResult{}, err
	}
	return performance.AppendResult{Total: total}, nil
}
