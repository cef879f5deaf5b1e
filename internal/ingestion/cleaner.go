package ingestion

import (
	"strconv"
	"strings"
	"time"

	"github.com/rpattn/regwatch/internal/domain"
)

// Date layouts tried in order. Day-first layouts come first so ambiguous
// numeric dates resolve day-first, matching the registry's extracts.
var dateLayouts = []string{
	"02-01-2006",
	"02/01/2006",
	"2006-01-02",
	"2006/01/02",
	"02 Jan 2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// Fields upper-cased and trimmed for consistent matching downstream.
var textFields = []string{
	domain.FieldCompanyName,
	domain.FieldCompanyClass,
	domain.FieldCompanyCategory,
	domain.FieldCompanySubCat,
	domain.FieldCompanyStatus,
	domain.FieldBusinessActivity,
	domain.FieldState,
}

// CleanStats reports what cleaning kept and dropped.
type CleanStats struct {
	InputRows   int `json:"input_rows"`
	Kept        int `json:"kept"`
	InvalidKeys int `json:"invalid_keys"`
	Duplicates  int `json:"duplicates"`
}

// Cleaner turns a normalized table into a snapshot: dedupe by identity key,
// reject malformed keys, parse typed fields, score completeness.
type Cleaner struct {
	now func() time.Time
}

// NewCleaner creates a cleaner. The clock is injectable for tests.
func NewCleaner(now func() time.Time) Cleaner {
	if now == nil {
		now = time.Now
	}
	return Cleaner{now: now}
}

// Clean builds a snapshot from a normalized table. Rows with malformed
// identity keys are dropped, not failed; duplicates keep the last occurrence
// in source order. Unparseable dates and numbers become missing values.
// Clean is pure with respect to its input.
func (c Cleaner) Clean(table Table, label string) (domain.Snapshot, CleanStats) {
	stats := CleanStats{InputRows: len(table.Rows)}
	fields := domain.CanonicalFields()
	cleanedAt := c.now()

	colIndex := make(map[string]int, len(table.Headers))
	for i, header := range table.Headers {
		colIndex[header] = i
	}

	cinCol, hasCIN := colIndex[domain.FieldCIN]

	// Last occurrence per key wins: later rows are assumed fresher within a
	// single extract.
	type keyed struct {
		cin string
		row []string
	}
	var valid []keyed
	for _, row := range table.Rows {
		cin := ""
		if hasCIN && cinCol < len(row) {
			cin = strings.TrimSpace(row[cinCol])
		}
		if !domain.ValidCIN(cin) {
			stats.InvalidKeys++
			continue
		}
		valid = append(valid, keyed{cin: cin, row: row})
	}

	lastIndex := make(map[string]int, len(valid))
	for i, item := range valid {
		lastIndex[item.cin] = i
	}

	var records []domain.CompanyRecord
	for i, item := range valid {
		if lastIndex[item.cin] != i {
			stats.Duplicates++
			continue
		}
		records = append(records, c.cleanRow(fields, colIndex, item.cin, item.row, cleanedAt))
	}

	stats.Kept = len(records)

	// Keys are unique by construction above, so this cannot fail.
	snap, _ := domain.NewSnapshot(label, records)
	return snap, stats
}

func (c Cleaner) cleanRow(fields []domain.FieldDefinition, colIndex map[string]int, cin string, row []string, cleanedAt time.Time) domain.CompanyRecord {
	attrs := make(map[string]string, len(fields))
	present := 0

	for _, field := range fields {
		raw := domain.MissingValue
		if idx, ok := colIndex[field.Name]; ok && idx < len(row) {
			raw = strings.TrimSpace(row[idx])
		}
		if field.Name == domain.FieldCIN {
			raw = cin
		}

		value := domain.MissingValue
		switch field.Type {
		case domain.FieldTypeDate:
			value = parseDate(raw)
		case domain.FieldTypeDecimal:
			value = parseDecimal(raw)
		default:
			value = raw
		}

		if value != domain.MissingValue && isTextField(field.Name) {
			value = strings.ToUpper(value)
		}

		attrs[field.Name] = value
		if value != domain.MissingValue {
			present++
		}
	}

	score := float64(present) / float64(len(fields))
	return domain.NewCompanyRecord(cin, attrs, score, cleanedAt)
}

func isTextField(name string) bool {
	for _, field := range textFields {
		if field == name {
			return true
		}
	}
	return false
}

// parseDate normalizes dates to 2006-01-02, or missing when unparseable.
func parseDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.MissingValue
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.Format("2006-01-02")
		}
	}
	return domain.MissingValue
}

// parseDecimal normalizes capital figures to their shortest exact float
// representation, or missing when not numeric. Grouping commas and a leading
// currency marker are tolerated.
func parseDecimal(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.MissingValue
	}
	raw = strings.ReplaceAll(raw, ",", "")
	raw = strings.TrimPrefix(raw, "₹")
	raw = strings.TrimSpace(raw)
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return domain.MissingValue
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
