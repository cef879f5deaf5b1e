// Package summary reduces change logs into daily summary records and
// renders them as JSON and plain-text reports.
package summary

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rpattn/regwatch/internal/domain"
)

// ErrNotFound is returned when no summary exists for a requested date.
var ErrNotFound = errors.New("summary not found")

const (
	filePrefix = "daily_summary_"
	jsonSuffix = ".json"
	textSuffix = ".txt"
)

// Summarize reduces one change log to its summary record. AffectedStates is
// sorted; the both-state-missing case contributes nothing to it.
func Summarize(log domain.ChangeLog) domain.Summary {
	summary := domain.Summary{
		Date:             log.DetectionDate,
		TotalChanges:     len(log.Events),
		Additions:        len(log.Additions()),
		Removals:         len(log.Removals()),
		Updates:          len(log.FieldUpdates()),
		AffectedEntities: len(log.AffectedKeys()),
		FieldBreakdown:   map[string]int{},
	}

	states := make(map[string]struct{})
	for _, event := range log.Events {
		if event.State != domain.MissingValue {
			states[event.State] = struct{}{}
		}
		if event.Kind == domain.ChangeFieldUpdate {
			summary.FieldBreakdown[event.Field]++
		}
	}
	summary.AffectedStates = make([]string, 0, len(states))
	for state := range states {
		summary.AffectedStates = append(summary.AffectedStates, state)
	}
	sort.Strings(summary.AffectedStates)
	return summary
}

// SummarizeMany reduces each log in order.
func SummarizeMany(logs []domain.ChangeLog) []domain.Summary {
	summaries := make([]domain.Summary, len(logs))
	for i, log := range logs {
		summaries[i] = Summarize(log)
	}
	return summaries
}

// Reporter persists summaries under a single directory, one JSON record and
// one rendered text report per date.
type Reporter struct {
	dir string
}

// NewReporter creates a summary reporter rooted at dir.
func NewReporter(dir string) (*Reporter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create summary directory: %w", err)
	}
	return &Reporter{dir: dir}, nil
}

// JSONPath returns the JSON artifact path for a date.
func (r *Reporter) JSONPath(date string) string {
	return filepath.Join(r.dir, filePrefix+date+jsonSuffix)
}

// TextPath returns the text report path for a date.
func (r *Reporter) TextPath(date string) string {
	return filepath.Join(r.dir, filePrefix+date+textSuffix)
}

// Write persists the summary as JSON plus a rendered text report. Writing
// the same date twice overwrites both.
func (r *Reporter) Write(summary domain.Summary) error {
	if strings.TrimSpace(summary.Date) == "" {
		return errors.New("summary date is required")
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	if err := r.writeFile(r.JSONPath(summary.Date), data); err != nil {
		return err
	}
	return r.writeFile(r.TextPath(summary.Date), []byte(Render(summary)))
}

func (r *Reporter) writeFile(path string, data []byte) error {
	tempFile, err := os.CreateTemp(r.dir, filePrefix+"*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp summary file: %w", err)
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
		return fmt.Errorf("failed to write summary: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync summary: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close summary: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to promote summary: %w", err)
	}
	cleanup = false
	return nil
}

// Load reads the summary record for a date. A missing date returns
// ErrNotFound.
func (r *Reporter) Load(date string) (domain.Summary, error) {
	data, err := os.ReadFile(r.JSONPath(date))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Summary{}, fmt.Errorf("date %s: %w", date, ErrNotFound)
		}
		return domain.Summary{}, fmt.Errorf("failed to read summary %s: %w", date, err)
	}

	var summary domain.Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return domain.Summary{}, fmt.Errorf("failed to decode summary %s: %w", date, err)
	}
	return summary, nil
}

// LoadAll reads every stored summary in chronological (lexical) order.
func (r *Reporter) LoadAll() ([]domain.Summary, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read summary directory: %w", err)
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

	summaries := make([]domain.Summary, 0, len(dates))
	for _, date := range dates {
		summary, err := r.Load(date)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// Render formats the summary as the daily text report.
func Render(summary domain.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Daily Change Summary - %s\n", summary.Date)
	fmt.Fprintf(&b, "%s\n\n", strings.Repeat("=", 40))
	fmt.Fprintf(&b, "Total changes:       %d\n", summary.TotalChanges)
	fmt.Fprintf(&b, "New incorporations:  %d\n", summary.Additions)
	fmt.Fprintf(&b, "Deregistrations:     %d\n", summary.Removals)
	fmt.Fprintf(&b, "Field updates:       %d\n", summary.Updates)
	fmt.Fprintf(&b, "Affected companies:  %d\n", summary.AffectedEntities)

	if len(summary.AffectedStates) > 0 {
		fmt.Fprintf(&b, "\nAffected states: %s\n", strings.Join(summary.AffectedStates, ", "))
	}
	if len(summary.FieldBreakdown) > 0 {
		fields := make([]string, 0, len(summary.FieldBreakdown))
		for field := range summary.FieldBreakdown {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		b.WriteString("\nField change breakdown:\n")
		for _, field := range fields {
			fmt.Fprintf(&b, "  %-32s %d\n", field, summary.FieldBreakdown[field])
		}
	}
	return b.String()
}
