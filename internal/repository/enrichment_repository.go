package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rpattn/regwatch/internal/domain"
)

// enrichmentRepository implements EnrichmentRepository over Postgres.
type enrichmentRepository struct {
	pool *pgxpool.Pool
}

// NewEnrichmentRepository creates a Postgres-backed enrichment repository.
func NewEnrichmentRepository(pool *pgxpool.Pool) EnrichmentRepository {
	return &enrichmentRepository{pool: pool}
}

func (r *enrichmentRepository) Upsert(ctx context.Context, records []domain.EnrichedRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, record := range records {
		batch.Queue(`
			INSERT INTO enriched_data (cin, industry, sector, directors,
				listing_status, compliance_status, gstin, source, source_url, enrichment_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (cin) DO UPDATE SET
				industry = EXCLUDED.industry,
				sector = EXCLUDED.sector,
				directors = EXCLUDED.directors,
				listing_status = EXCLUDED.listing_status,
				compliance_status = EXCLUDED.compliance_status,
				gstin = EXCLUDED.gstin,
				source = EXCLUDED.source,
				source_url = EXCLUDED.source_url,
				enrichment_date = EXCLUDED.enrichment_date`,
			record.CIN, record.Industry, record.Sector,
			strings.Join(record.Directors, "; "), record.ListingStatus,
			record.ComplianceStatus, record.GSTIN, record.Source,
			record.SourceURL, record.EnrichedAt)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer func() { _ = results.Close() }()
	for range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to upsert enriched record: %w", err)
		}
	}
	return nil
}

func (r *enrichmentRepository) GetByCIN(ctx context.Context, cin string) (domain.EnrichedRecord, error) {
	var record domain.EnrichedRecord
	var directors string
	err := r.pool.QueryRow(ctx, `
		SELECT cin, industry, sector, directors, listing_status,
			compliance_status, gstin, source, source_url, enrichment_date
		FROM enriched_data WHERE cin = $1`, cin).Scan(
		&record.CIN, &record.Industry, &record.Sector, &directors,
		&record.ListingStatus, &record.ComplianceStatus, &record.GSTIN,
		&record.Source, &record.SourceURL, &record.EnrichedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.EnrichedRecord{}, fmt.Errorf("enrichment %s: %w", cin, ErrNotFound)
	}
	if err != nil {
		return domain.EnrichedRecord{}, fmt.Errorf("failed to get enriched record: %w", err)
	}
	if directors != "" {
		record.Directors = strings.Split(directors, "; ")
	}
	return record, nil
}

func (r *enrichmentRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM enriched_data`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count enriched records: %w", err)
	}
	return count, nil
}
