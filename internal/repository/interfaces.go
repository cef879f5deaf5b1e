package repository

import (
	"context"

	"github.com/rpattn/regwatch/internal/domain"
)

// CompanyRepository defines the relational sink for the current master
// dataset. ReplaceAll mirrors snapshot loads: the companies table always
// holds the latest cleaned snapshot.
type CompanyRepository interface {
	ReplaceAll(ctx context.Context, snapshot domain.Snapshot) error
	Upsert(ctx context.Context, records []domain.CompanyRecord) error
	GetByCIN(ctx context.Context, cin string) (domain.CompanyRecord, error)
	Search(ctx context.Context, query string, limit int) ([]domain.CompanyRecord, error)
	ListByState(ctx context.Context, state string) ([]domain.CompanyRecord, error)
	ListByStatus(ctx context.Context, status string) ([]domain.CompanyRecord, error)
	ListByMinCapital(ctx context.Context, minCapital float64, limit int) ([]domain.CompanyRecord, error)
	ListByActivity(ctx context.Context, keyword string, limit int) ([]domain.CompanyRecord, error)
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
}

// ChangeRepository mirrors change-log artifacts into the database, one row
// set per detection date, and reads them back.
type ChangeRepository interface {
	// ReplaceForDate swaps the stored rows for a detection date. An empty
	// row set clears the date, matching a rerun whose diff came up empty.
	ReplaceForDate(ctx context.Context, date string, rows []domain.LogRow) error
	ListByDate(ctx context.Context, date string) ([]domain.LogRow, error)
	Count(ctx context.Context) (int64, error)
}

// EnrichmentRepository stores supplementary attributes keyed by CIN.
type EnrichmentRepository interface {
	Upsert(ctx context.Context, records []domain.EnrichedRecord) error
	GetByCIN(ctx context.Context, cin string) (domain.EnrichedRecord, error)
	Count(ctx context.Context) (int64, error)
}

// Statistics aggregates headline counts for the dashboard.
type Statistics struct {
	TotalCompanies  int64 `json:"total_companies"`
	ActiveCompanies int64 `json:"active_companies"`
	StatesCovered   int64 `json:"states_covered"`
	TotalChanges    int64 `json:"total_changes"`
	EnrichedCount   int64 `json:"enriched_count"`
}

// StatisticsReader produces the headline counts in one round trip per table.
type StatisticsReader interface {
	Statistics(ctx context.Context) (Statistics, error)
}
