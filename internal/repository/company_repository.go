package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rpattn/regwatch/internal/domain"
)

// ErrNotFound is returned when a keyed lookup matches nothing.
var ErrNotFound = errors.New("not found")

const companyColumns = `cin, company_name, company_class, company_category,
	company_sub_category, date_of_incorporation, authorized_capital,
	paidup_capital, company_status, principal_business_activity,
	registered_office_address, roc_code, state, data_quality_score, last_updated`

// companyRepository implements CompanyRepository over Postgres.
type companyRepository struct {
	pool *pgxpool.Pool
}

// NewCompanyRepository creates a Postgres-backed company repository.
func NewCompanyRepository(pool *pgxpool.Pool) CompanyRepository {
	return &companyRepository{pool: pool}
}

// ReplaceAll swaps the companies table for the snapshot's records in one
// transaction, matching the semantics of a full snapshot load.
func (r *companyRepository) ReplaceAll(ctx context.Context, snapshot domain.Snapshot) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM companies`); err != nil {
		return fmt.Errorf("failed to clear companies: %w", err)
	}

	if err := upsertCompanies(ctx, tx, snapshot.Records()); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit snapshot load: %w", err)
	}
	return nil
}

// Upsert inserts or updates records keyed by CIN.
func (r *companyRepository) Upsert(ctx context.Context, records []domain.CompanyRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := upsertCompanies(ctx, tx, records); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit upsert: %w", err)
	}
	return nil
}

func upsertCompanies(ctx context.Context, tx pgx.Tx, records []domain.CompanyRecord) error {
	batch := &pgx.Batch{}
	for _, record := range records {
		batch.Queue(`
			INSERT INTO companies (`+companyColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			ON CONFLICT (cin) DO UPDATE SET
				company_name = EXCLUDED.company_name,
				company_class = EXCLUDED.company_class,
				company_category = EXCLUDED.company_category,
				company_sub_category = EXCLUDED.company_sub_category,
				date_of_incorporation = EXCLUDED.date_of_incorporation,
				authorized_capital = EXCLUDED.authorized_capital,
				paidup_capital = EXCLUDED.paidup_capital,
				company_status = EXCLUDED.company_status,
				principal_business_activity = EXCLUDED.principal_business_activity,
				registered_office_address = EXCLUDED.registered_office_address,
				roc_code = EXCLUDED.roc_code,
				state = EXCLUDED.state,
				data_quality_score = EXCLUDED.data_quality_score,
				last_updated = EXCLUDED.last_updated`,
			record.CIN,
			record.Attribute(domain.FieldCompanyName),
			record.Attribute(domain.FieldCompanyClass),
			record.Attribute(domain.FieldCompanyCategory),
			record.Attribute(domain.FieldCompanySubCat),
			record.Attribute(domain.FieldDateOfInc),
			record.Attribute(domain.FieldAuthorizedCapital),
			record.Attribute(domain.FieldPaidupCapital),
			record.Attribute(domain.FieldCompanyStatus),
			record.Attribute(domain.FieldBusinessActivity),
			record.Attribute(domain.FieldOfficeAddress),
			record.Attribute(domain.FieldROCCode),
			record.Attribute(domain.FieldState),
			record.CompletenessScore,
			record.LastUpdated,
		)
	}

	results := tx.SendBatch(ctx, batch)
	defer func() { _ = results.Close() }()
	for range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to upsert company: %w", err)
		}
	}
	return nil
}

func (r *companyRepository) GetByCIN(ctx context.Context, cin string) (domain.CompanyRecord, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE cin = $1`, cin)
	record, err := scanCompany(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.CompanyRecord{}, fmt.Errorf("company %s: %w", cin, ErrNotFound)
	}
	return record, err
}

func (r *companyRepository) Search(ctx context.Context, query string, limit int) ([]domain.CompanyRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	pattern := "%" + query + "%"
	rows, err := r.pool.Query(ctx, `
		SELECT `+companyColumns+` FROM companies
		WHERE cin ILIKE $1 OR company_name ILIKE $1
		ORDER BY cin LIMIT $2`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search companies: %w", err)
	}
	return collectCompanies(rows)
}

func (r *companyRepository) ListByState(ctx context.Context, state string) ([]domain.CompanyRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+companyColumns+` FROM companies WHERE state = UPPER($1) ORDER BY cin`, state)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies by state: %w", err)
	}
	return collectCompanies(rows)
}

func (r *companyRepository) ListByStatus(ctx context.Context, status string) ([]domain.CompanyRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+companyColumns+` FROM companies WHERE company_status = UPPER($1) ORDER BY cin`, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies by status: %w", err)
	}
	return collectCompanies(rows)
}

func (r *companyRepository) ListByMinCapital(ctx context.Context, minCapital float64, limit int) ([]domain.CompanyRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+companyColumns+` FROM companies
		WHERE NULLIF(authorized_capital, '')::numeric > $1
		ORDER BY NULLIF(authorized_capital, '')::numeric DESC
		LIMIT $2`, minCapital, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies by capital: %w", err)
	}
	return collectCompanies(rows)
}

func (r *companyRepository) ListByActivity(ctx context.Context, keyword string, limit int) ([]domain.CompanyRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	pattern := "%" + keyword + "%"
	rows, err := r.pool.Query(ctx, `
		SELECT `+companyColumns+` FROM companies
		WHERE principal_business_activity ILIKE $1
		ORDER BY cin LIMIT $2`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies by activity: %w", err)
	}
	return collectCompanies(rows)
}

func (r *companyRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM companies`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count companies: %w", err)
	}
	return count, nil
}

func (r *companyRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM companies WHERE company_status = UPPER($1)`, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count companies by status: %w", err)
	}
	return count, nil
}

func collectCompanies(rows pgx.Rows) ([]domain.CompanyRecord, error) {
	defer rows.Close()
	var records []domain.CompanyRecord
	for rows.Next() {
		record, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read companies: %w", err)
	}
	return records, nil
}

func scanCompany(row pgx.Row) (domain.CompanyRecord, error) {
	var (
		cin, name, class, category, subCategory   string
		incDate, authCapital, paidCapital, status string
		activity, address, rocCode, state         string
		score                                     float64
		lastUpdated                               time.Time
	)
	err := row.Scan(&cin, &name, &class, &category, &subCategory, &incDate,
		&authCapital, &paidCapital, &status, &activity, &address, &rocCode,
		&state, &score, &lastUpdated)
	if err != nil {
		return domain.CompanyRecord{}, err
	}

	attrs := map[string]string{
		domain.FieldCIN:               cin,
		domain.FieldCompanyName:       name,
		domain.FieldCompanyClass:      class,
		domain.FieldCompanyCategory:   category,
		domain.FieldCompanySubCat:     subCategory,
		domain.FieldDateOfInc:         incDate,
		domain.FieldAuthorizedCapital: authCapital,
		domain.FieldPaidupCapital:     paidCapital,
		domain.FieldCompanyStatus:     status,
		domain.FieldBusinessActivity:  activity,
		domain.FieldOfficeAddress:     address,
		domain.FieldROCCode:           rocCode,
		domain.FieldState:             state,
	}
	return domain.NewCompanyRecord(cin, attrs, score, lastUpdated), nil
}

// AuthorizedCapital parses a record's authorized capital, reporting whether
// a value is present.
func AuthorizedCapital(record domain.CompanyRecord) (float64, bool) {
	raw := record.Attribute(domain.FieldAuthorizedCapital)
	if raw == domain.MissingValue {
		return 0, false
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
