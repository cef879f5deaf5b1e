package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rpattn/regwatch/internal/domain"
	"github.com/rpattn/regwatch/internal/repository"
)

// SnapshotSaver persists a cleaned snapshot under its date label.
type SnapshotSaver interface {
	Save(snapshot domain.Snapshot) error
}

// Service ingests raw registry extracts: parse, normalize, clean, persist.
type Service struct {
	normalizer Normalizer
	cleaner    Cleaner
	store      SnapshotSaver
	companies  repository.CompanyRepository
	log        *zap.SugaredLogger
}

// NewService creates an ingestion service. The company repository is
// optional; when nil the cleaned snapshot is only written to the snapshot
// store.
func NewService(normalizer Normalizer, cleaner Cleaner, store SnapshotSaver, companies repository.CompanyRepository, log *zap.SugaredLogger) *Service {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Service{
		normalizer: normalizer,
		cleaner:    cleaner,
		store:      store,
		companies:  companies,
		log:        log,
	}
}

// Request describes one ingestion input.
type Request struct {
	Label    string
	FileName string
	Data     io.Reader
}

// Result reports what one ingestion run did.
type Result struct {
	RunID       uuid.UUID `json:"run_id"`
	Label       string    `json:"label"`
	FileName    string    `json:"file_name"`
	TotalRows   int       `json:"total_rows"`
	Kept        int       `json:"kept"`
	InvalidKeys int       `json:"invalid_keys"`
	Duplicates  int       `json:"duplicates"`
}

// Ingest reads the raw extract and persists the cleaned snapshot under the
// request's date label. Malformed rows are dropped and counted; a source
// with no identity key column fails the whole load with ErrSchema.
func (s *Service) Ingest(ctx context.Context, req Request) (Result, error) {
	result := Result{RunID: uuid.New(), Label: req.Label, FileName: req.FileName}

	if strings.TrimSpace(req.Label) == "" {
		return result, errors.New("snapshot label is required")
	}
	if req.Data == nil {
		return result, errors.New("data reader is required")
	}

	payload, err := io.ReadAll(req.Data)
	if err != nil {
		return result, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(payload) == 0 {
		return result, errors.New("file is empty")
	}

	table, err := ParseFile(req.FileName, payload)
	if err != nil {
		return result, err
	}

	normalized, err := s.normalizer.Normalize(table)
	if err != nil {
		return result, err
	}

	snapshot, stats := s.cleaner.Clean(normalized, req.Label)
	result.TotalRows = stats.InputRows
	result.Kept = stats.Kept
	result.InvalidKeys = stats.InvalidKeys
	result.Duplicates = stats.Duplicates

	if stats.InvalidKeys > 0 {
		s.log.Warnw("dropped rows with malformed identity keys",
			"label", req.Label, "file", req.FileName, "dropped", stats.InvalidKeys)
	}

	if err := s.store.Save(snapshot); err != nil {
		return result, fmt.Errorf("failed to save snapshot %s: %w", req.Label, err)
	}

	if s.companies != nil {
		if err := s.companies.ReplaceAll(ctx, snapshot); err != nil {
			return result, fmt.Errorf("failed to sink snapshot %s: %w", req.Label, err)
		}
	}

	s.log.Infow("snapshot ingested",
		"run_id", result.RunID, "label", req.Label, "kept", stats.Kept,
		"invalid_keys", stats.InvalidKeys, "duplicates", stats.Duplicates)

	return result, nil
}
