package enrichment

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rpattn/regwatch/internal/domain"
)

const reportFileName = "enrichment_report.txt"

// RenderReport formats a batch of enriched records as a text report with
// sector and listing breakdowns.
func RenderReport(records []domain.EnrichedRecord, generatedAt time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Enrichment Report - %s\n", generatedAt.UTC().Format("2006-01-02"))
	fmt.Fprintf(&b, "%s\n\n", strings.Repeat("=", 40))
	fmt.Fprintf(&b, "Companies enriched:  %d\n", len(records))

	var listed, withGSTIN int
	sectors := make(map[string]int)
	for _, record := range records {
		if record.ListingStatus == "Listed" {
			listed++
		}
		if record.GSTIN != "" {
			withGSTIN++
		}
		if record.Sector != "" {
			sectors[record.Sector]++
		}
	}
	fmt.Fprintf(&b, "Listed companies:    %d\n", listed)
	fmt.Fprintf(&b, "GSTIN registrations: %d\n", withGSTIN)

	if len(sectors) > 0 {
		names := make([]string, 0, len(sectors))
		for name := range sectors {
			names = append(names, name)
		}
		sort.Strings(names)
		b.WriteString("\nSector breakdown:\n")
		for _, name := range names {
			fmt.Fprintf(&b, "  %-28s %d\n", name, sectors[name])
		}
	}

	if len(records) > 0 {
		b.WriteString("\nCompanies:\n")
		for _, record := range records {
			fmt.Fprintf(&b, "  %s  %-24s %s\n", record.CIN, record.Sector, record.GSTIN)
		}
	}
	return b.String()
}

// WriteReport renders the report and promotes it into dir, replacing any
// earlier report.
func WriteReport(dir string, records []domain.EnrichedRecord, generatedAt time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create enrichment directory: %w", err)
	}
	path := filepath.Join(dir, reportFileName)

	tempFile, err := os.CreateTemp(dir, "enrichment_report_*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp report file: %w", err)
	}
	tempPath := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = tempFile.Close()
			_ = os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.WriteString(RenderReport(records, generatedAt)); err != nil {
		return "", fmt.Errorf("failed to write enrichment report: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return "", fmt.Errorf("failed to sync enrichment report: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return "", fmt.Errorf("failed to close enrichment report: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return "", fmt.Errorf("failed to promote enrichment report: %w", err)
	}
	cleanup = false
	return path, nil
}
