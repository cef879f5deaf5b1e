package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rpattn/regwatch/internal/domain"
)

// changeRepository implements ChangeRepository over Postgres.
type changeRepository struct {
	pool *pgxpool.Pool
}

// NewChangeRepository creates a Postgres-backed change repository.
func NewChangeRepository(pool *pgxpool.Pool) ChangeRepository {
	return &changeRepository{pool: pool}
}

// ReplaceForDate swaps the stored rows for a detection date. The delete runs
// even for an empty row set, so a rerun whose diff came up empty clears the
// stale rows instead of leaving them behind.
func (r *changeRepository) ReplaceForDate(ctx context.Context, date string, rows []domain.LogRow) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM changes WHERE date = $1`, date); err != nil {
		return fmt.Errorf("failed to clear changes for %s: %w", date, err)
	}

	if len(rows) == 0 {
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit change rows: %w", err)
		}
		return nil
	}

	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(`
			INSERT INTO changes (cin, company_name, change_type, field_changed,
				old_value, new_value, date, state, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			row.CIN, row.CompanyName, row.ChangeType, row.FieldChanged,
			row.OldValue, row.NewValue, row.Date, row.State, row.Status)
	}

	results := tx.SendBatch(ctx, batch)
	defer func() { _ = results.Close() }()
	for range rows {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert change row: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to flush change batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit change rows: %w", err)
	}
	return nil
}

func (r *changeRepository) ListByDate(ctx context.Context, date string) ([]domain.LogRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT cin, company_name, change_type, field_changed, old_value,
			new_value, date, state, status
		FROM changes WHERE date = $1 ORDER BY id`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list changes: %w", err)
	}
	defer rows.Close()

	var out []domain.LogRow
	for rows.Next() {
		var row domain.LogRow
		if err := rows.Scan(&row.CIN, &row.CompanyName, &row.ChangeType,
			&row.FieldChanged, &row.OldValue, &row.NewValue, &row.Date,
			&row.State, &row.Status); err != nil {
			return nil, fmt.Errorf("failed to scan change row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read changes: %w", err)
	}
	return out, nil
}

func (r *changeRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM changes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count changes: %w", err)
	}
	return count, nil
}
