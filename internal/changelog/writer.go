// Package changelog persists detection results as paired CSV and JSON
// artifacts, one pair per detection date.
package changelog

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/rpattn/regwatch/internal/domain"
)

// ErrNotFound is returned when no change log exists for a requested date.
var ErrNotFound = errors.New("change log not found")

const (
	filePrefix = "change_log_"
	csvSuffix  = ".csv"
	jsonSuffix = ".json"
	xlsxSuffix = ".xlsx"

	xlsxSheet = "Changes"
)

// Artifacts names the files produced for one detection date.
type Artifacts struct {
	CSVPath  string `json:"csv_path"`
	JSONPath string `json:"json_path"`
}

// Writer persists change logs under a single directory. Writing the same
// detection date twice overwrites both artifacts.
type Writer struct {
	dir string
}

// NewWriter creates a change-log writer rooted at dir.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create change log directory: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// CSVPath returns the CSV artifact path for a detection date.
func (w *Writer) CSVPath(date string) string {
	return filepath.Join(w.dir, filePrefix+date+csvSuffix)
}

// JSONPath returns the JSON artifact path for a detection date.
func (w *Writer) JSONPath(date string) string {
	return filepath.Join(w.dir, filePrefix+date+jsonSuffix)
}

// Write persists the log as CSV and record-oriented JSON. An empty log still
// produces both artifacts: a header-only CSV and an empty JSON array. Each
// file is written in full before being promoted into place.
func (w *Writer) Write(log domain.ChangeLog) (Artifacts, error) {
	if strings.TrimSpace(log.DetectionDate) == "" {
		return Artifacts{}, errors.New("change log detection date is required")
	}

	rows := log.Rows()
	if err := w.writeCSV(log.DetectionDate, rows); err != nil {
		return Artifacts{}, err
	}
	if err := w.writeJSON(log.DetectionDate, rows); err != nil {
		return Artifacts{}, err
	}
	return Artifacts{CSVPath: w.CSVPath(log.DetectionDate), JSONPath: w.JSONPath(log.DetectionDate)}, nil
}

func (w *Writer) writeCSV(date string, rows []domain.LogRow) error {
	tempFile, err := os.CreateTemp(w.dir, filePrefix+"*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp change log file: %w", err)
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
	if err := writer.Write(domain.LogColumns()); err != nil {
		return fmt.Errorf("failed to write change log header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(rowCells(row)); err != nil {
			return fmt.Errorf("failed to write change log row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush change log: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync change log: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close change log: %w", err)
	}

	if err := os.Rename(tempPath, w.CSVPath(date)); err != nil {
		return fmt.Errorf("failed to promote change log: %w", err)
	}
	cleanup = false
	return nil
}

func (w *Writer) writeJSON(date string, rows []domain.LogRow) error {
	// json.Marshal encodes a nil slice as null; the artifact is always an
	// array.
	if rows == nil {
		rows = []domain.LogRow{}
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode change log: %w", err)
	}

	tempFile, err := os.CreateTemp(w.dir, filePrefix+"*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp change log file: %w", err)
	}
	tempPath := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = tempFile.Close()
			_ = os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		return fmt.Errorf("failed to write change log: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync change log: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close change log: %w", err)
	}

	if err := os.Rename(tempPath, w.JSONPath(date)); err != nil {
		return fmt.Errorf("failed to promote change log: %w", err)
	}
	cleanup = false
	return nil
}

// Load reads the JSON artifact for a detection date and rebuilds the log.
// A missing date returns ErrNotFound.
func (w *Writer) Load(date string) (domain.ChangeLog, error) {
	data, err := os.ReadFile(w.JSONPath(date))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.ChangeLog{}, fmt.Errorf("date %s: %w", date, ErrNotFound)
		}
		return domain.ChangeLog{}, fmt.Errorf("failed to read change log %s: %w", date, err)
	}

	var rows []domain.LogRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return domain.ChangeLog{}, fmt.Errorf("failed to decode change log %s: %w", date, err)
	}
	return domain.ChangeLogFromRows(date, rows), nil
}

// ExportXLSX renders the log as a spreadsheet and returns the file path.
func (w *Writer) ExportXLSX(log domain.ChangeLog) (string, error) {
	if strings.TrimSpace(log.DetectionDate) == "" {
		return "", errors.New("change log detection date is required")
	}

	book := excelize.NewFile()
	defer book.Close()

	if err := book.SetSheetName(book.GetSheetName(0), xlsxSheet); err != nil {
		return "", fmt.Errorf("failed to name export sheet: %w", err)
	}

	header := make([]interface{}, 0, len(domain.LogColumns()))
	for _, column := range domain.LogColumns() {
		header = append(header, column)
	}
	if err := book.SetSheetRow(xlsxSheet, "A1", &header); err != nil {
		return "", fmt.Errorf("failed to write export header: %w", err)
	}

	for i, row := range log.Rows() {
		cells := rowCells(row)
		values := make([]interface{}, len(cells))
		for j, cell := range cells {
			values[j] = cell
		}
		anchor, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return "", fmt.Errorf("failed to address export row: %w", err)
		}
		if err := book.SetSheetRow(xlsxSheet, anchor, &values); err != nil {
			return "", fmt.Errorf("failed to write export row: %w", err)
		}
	}

	path := filepath.Join(w.dir, filePrefix+log.DetectionDate+xlsxSuffix)
	if err := book.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save export: %w", err)
	}
	return path, nil
}

// Dates returns the detection dates with stored logs, in chronological
// (lexical) order.
func (w *Writer) Dates() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read change log directory: %w", err)
	}

	var dates []string
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, jsonSuffix) {
			continue
		}
		dates = append(dates, strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), jsonSuffix))
	}
	sort.Strings(dates)
	return dates, nil
}

func rowCells(row domain.LogRow) []string {
	return []string{
		row.CIN, row.CompanyName, row.ChangeType, row.FieldChanged,
		row.OldValue, row.NewValue, row.Date, row.State, row.Status,
	}
}
