package snapshot

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rpattn/regwatch/internal/domain"
)

// ErrNotFound is returned when no snapshot exists for a requested label.
// Callers decide the fallback; a missing snapshot is recoverable, not fatal.
var ErrNotFound = errors.New("snapshot not found")

const (
	filePrefix = "snapshot_"
	fileSuffix = ".csv"

	colCompleteness = "COMPLETENESS_SCORE"
	colLastUpdated  = "LAST_UPDATED"
)

// Store persists cleaned snapshots as one CSV file per date label. Labels
// are opaque date strings; the store does not validate continuity.
type Store struct {
	dir string
}

// NewStore creates a snapshot store rooted at dir.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Path returns the file path for a label.
func (s *Store) Path(label string) string {
	return filepath.Join(s.dir, filePrefix+label+fileSuffix)
}

// Save writes the snapshot in full, then promotes it into place; a partial
// file is never visible under the final name. Saving the same label twice
// overwrites.
func (s *Store) Save(snapshot domain.Snapshot) error {
	if strings.TrimSpace(snapshot.Label) == "" {
		return errors.New("snapshot label is required")
	}

	tempFile, err := os.CreateTemp(s.dir, filePrefix+"*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot file: %w", err)
	}
	tempPath := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = tempFile.Close()
			_ = os.Remove(tempPath)
		}
	}()

	writer := csv.NewWriter(tempFile)
	header := append(domain.CanonicalFieldNames(), colCompleteness, colLastUpdated)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write snapshot header: %w", err)
	}

	for _, record := range snapshot.Records() {
		row := make([]string, 0, len(header))
		for _, field := range domain.CanonicalFieldNames() {
			row = append(row, record.Attribute(field))
		}
		row = append(row,
			strconv.FormatFloat(record.CompletenessScore, 'f', -1, 64),
			record.LastUpdated.UTC().Format(time.RFC3339))
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write snapshot row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush snapshot: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync snapshot: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot: %w", err)
	}

	if err := os.Rename(tempPath, s.Path(snapshot.Label)); err != nil {
		return fmt.Errorf("failed to promote snapshot: %w", err)
	}
	cleanup = false
	return nil
}

// Load reads the snapshot for a label. A missing label returns ErrNotFound,
// never an empty snapshot.
func (s *Store) Load(label string) (domain.Snapshot, error) {
	f, err := os.Open(s.Path(label))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Snapshot{}, fmt.Errorf("label %s: %w", label, ErrNotFound)
		}
		return domain.Snapshot{}, fmt.Errorf("failed to open snapshot %s: %w", label, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to read snapshot %s: %w", label, err)
	}
	if len(rows) == 0 {
		return domain.Snapshot{}, fmt.Errorf("snapshot %s has no header", label)
	}

	colIndex := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		colIndex[name] = i
	}

	cell := func(row []string, name string) string {
		idx, ok := colIndex[name]
		if !ok || idx >= len(row) {
			return domain.MissingValue
		}
		return row[idx]
	}

	fields := domain.CanonicalFieldNames()
	records := make([]domain.CompanyRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		attrs := make(map[string]string, len(fields))
		present := 0
		for _, field := range fields {
			value := cell(row, field)
			attrs[field] = value
			if value != domain.MissingValue {
				present++
			}
		}

		score := float64(present) / float64(len(fields))
		if raw := cell(row, colCompleteness); raw != "" {
			if parsed, err := strconv.ParseFloat(raw, 64); err == nil {
				score = parsed
			}
		}

		var updated time.Time
		if raw := cell(row, colLastUpdated); raw != "" {
			if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
				updated = parsed
			}
		}

		records = append(records, domain.NewCompanyRecord(attrs[domain.FieldCIN], attrs, score, updated))
	}

	snap, err := domain.NewSnapshot(label, records)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("snapshot %s: %w", label, err)
	}
	return snap, nil
}

// Labels returns the stored snapshot labels in chronological (lexical)
// order; date labels sort chronologically by construction.
func (s *Store) Labels() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot directory: %w", err)
	}

	var labels []string
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		labels = append(labels, strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix))
	}
	sort.Strings(labels)
	return labels, nil
}
