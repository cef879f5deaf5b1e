package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rpattn/regwatch/internal/changelog"
	"github.com/rpattn/regwatch/internal/config"
	"github.com/rpattn/regwatch/internal/db"
	"github.com/rpattn/regwatch/internal/domain"
	"github.com/rpattn/regwatch/internal/ingestion"
	"github.com/rpattn/regwatch/internal/logger"
	"github.com/rpattn/regwatch/internal/pipeline"
	"github.com/rpattn/regwatch/internal/repository"
	"github.com/rpattn/regwatch/internal/snapshot"
	"github.com/rpattn/regwatch/internal/summary"
)

// app bundles the wired components a subcommand needs. Database-backed
// fields are nil in file-only mode.
type app struct {
	cfg       *config.Config
	log       *zap.SugaredLogger
	snapshots *snapshot.Store
	logs      *changelog.Writer
	summaries *summary.Reporter
	ingest    *ingestion.Service
	pipeline  *pipeline.Pipeline

	conn       *db.Connection
	companies  repository.CompanyRepository
	changes    repository.ChangeRepository
	enrichRepo repository.EnrichmentRepository
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log}

	if !dbDisabled {
		conn, err := db.NewConnection(ctx, cfg.Database)
		if err != nil {
			log.Warnw("database unavailable, running file-only", "error", err)
		} else {
			if err := db.RunMigrations(ctx, conn.Pool, "./migrations"); err != nil {
				conn.Close()
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
			a.conn = conn
			a.companies = repository.NewCompanyRepository(conn.Pool)
			a.changes = repository.NewChangeRepository(conn.Pool)
			a.enrichRepo = repository.NewEnrichmentRepository(conn.Pool)
		}
	}

	a.snapshots, err = snapshot.NewStore(cfg.Data.SnapshotsDir)
	if err != nil {
		a.close()
		return nil, err
	}
	a.logs, err = changelog.NewWriter(cfg.Data.ChangeLogsDir)
	if err != nil {
		a.close()
		return nil, err
	}
	a.summaries, err = summary.NewReporter(cfg.Data.SummariesDir)
	if err != nil {
		a.close()
		return nil, err
	}

	aliases, err := domain.DefaultAliasTable()
	if err != nil {
		a.close()
		return nil, err
	}

	a.ingest = ingestion.NewService(
		ingestion.NewNormalizer(aliases),
		ingestion.NewCleaner(nil),
		a.snapshots,
		a.companies,
		log,
	)
	a.pipeline = pipeline.New(a.snapshots, a.logs, a.summaries, a.changes, cfg.TrackedFields, log)
	return a, nil
}

func (a *app) close() {
	if a.conn != nil {
		a.conn.Close()
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}
