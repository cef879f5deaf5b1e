package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/rpattn/regwatch/internal/api"
	"github.com/rpattn/regwatch/internal/changelog"
	"github.com/rpattn/regwatch/internal/config"
	"github.com/rpattn/regwatch/internal/db"
	"github.com/rpattn/regwatch/internal/domain"
	"github.com/rpattn/regwatch/internal/ingestion"
	"github.com/rpattn/regwatch/internal/insights"
	"github.com/rpattn/regwatch/internal/logger"
	"github.com/rpattn/regwatch/internal/middleware"
	"github.com/rpattn/regwatch/internal/pipeline"
	"github.com/rpattn/regwatch/internal/repository"
	"github.com/rpattn/regwatch/internal/snapshot"
	"github.com/rpattn/regwatch/internal/summary"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zlog.Sync()

	// The database is optional. Without it the service still ingests,
	// detects and summarizes against the file artifacts; the search,
	// statistics and query endpoints answer 503.
	var (
		companies repository.CompanyRepository
		changes   repository.ChangeRepository
		stats     repository.StatisticsReader
		responder *insights.Responder
	)
	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		zlog.Warnw("database unavailable, running file-only", "error", err)
	} else {
		defer conn.Close()
		if err := db.RunMigrations(ctx, conn.Pool, "./migrations"); err != nil {
			zlog.Fatalw("failed to run migrations", "error", err)
		}
		companies = repository.NewCompanyRepository(conn.Pool)
		changes = repository.NewChangeRepository(conn.Pool)
		stats = repository.NewStatisticsReader(conn.Pool)
	}

	snapshots, err := snapshot.NewStore(cfg.Data.SnapshotsDir)
	if err != nil {
		zlog.Fatalw("failed to open snapshot store", "error", err)
	}
	logs, err := changelog.NewWriter(cfg.Data.ChangeLogsDir)
	if err != nil {
		zlog.Fatalw("failed to open change log writer", "error", err)
	}
	summaries, err := summary.NewReporter(cfg.Data.SummariesDir)
	if err != nil {
		zlog.Fatalw("failed to open summary reporter", "error", err)
	}

	aliases, err := domain.DefaultAliasTable()
	if err != nil {
		zlog.Fatalw("invalid alias table", "error", err)
	}

	ingestService := ingestion.NewService(
		ingestion.NewNormalizer(aliases),
		ingestion.NewCleaner(nil),
		snapshots,
		companies,
		zlog,
	)
	pl := pipeline.New(snapshots, logs, summaries, changes, cfg.TrackedFields, zlog)
	if companies != nil {
		responder = insights.NewResponder(companies, changes, summaries)
	}

	server := api.New(
		ingestion.NewHTTPHandler(ingestService),
		pl, logs, summaries, companies, stats, responder,
	)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      corsHandler.Handler(middleware.Logging(zlog)(server.Routes())),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zlog.Infow("starting server", "addr", cfg.Server.Addr())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zlog.Fatalw("forced shutdown", "error", err)
	}
	zlog.Info("server exited")
}
