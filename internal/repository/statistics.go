package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// statisticsReader implements StatisticsReader over Postgres.
type statisticsReader struct {
	pool *pgxpool.Pool
}

// NewStatisticsReader creates a Postgres-backed statistics reader.
func NewStatisticsReader(pool *pgxpool.Pool) StatisticsReader {
	return &statisticsReader{pool: pool}
}

func (r *statisticsReader) Statistics(ctx context.Context) (Statistics, error) {
	var stats Statistics
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM companies),
			(SELECT COUNT(*) FROM companies WHERE company_status = 'ACTIVE'),
			(SELECT COUNT(DISTINCT state) FROM companies WHERE state <> ''),
			(SELECT COUNT(*) FROM changes),
			(SELECT COUNT(*) FROM enriched_data)`).Scan(
		&stats.TotalCompanies, &stats.ActiveCompanies, &stats.StatesCovered,
		&stats.TotalChanges, &stats.EnrichedCount)
	if err != nil {
		return Statistics{}, fmt.Errorf("failed to read statistics: %w", err)
	}
	return stats, nil
}
