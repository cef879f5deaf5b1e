// Package seed generates sample registry extracts for local development
// and demos. Output uses the source headers the ingestion aliases resolve,
// so seeded files exercise the same path as real extracts.
package seed

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

// Source-shaped headers, deliberately using the registry's long-form names.
var headers = []string{
	"CORPORATE_IDENTIFICATION_NUMBER",
	"COMPANY_NAME",
	"COMPANY_CLASS",
	"COMPANY_CATEGORY",
	"COMPANY_SUB_CATEGORY",
	"DATE_OF_REGISTRATION",
	"AUTHORIZED_CAPITAL",
	"PAIDUP_CAPITAL",
	"COMPANY_STATUS",
	"PRINCIPAL_BUSINESS_ACTIVITY",
	"REGISTERED_OFFICE_ADDRESS",
	"ROC_CODE",
	"STATE",
}

type stateInfo struct {
	name string
	code string
	roc  string
}

var states = []stateInfo{
	{"Maharashtra", "MH", "ROC-MUMBAI"},
	{"Gujarat", "GJ", "ROC-AHMEDABAD"},
	{"Delhi", "DL", "ROC-DELHI"},
	{"Tamil Nadu", "TN", "ROC-CHENNAI"},
	{"Karnataka", "KA", "ROC-BANGALORE"},
}

var companyTypes = []string{"PTC", "PLC", "OPC"}
var companyClasses = []string{"Private", "Public", "One Person Company"}
var companyCategories = []string{
	"Company limited by shares",
	"Company limited by guarantee",
	"Unlimited Company",
}
var companyStatuses = []string{"Active", "Strike Off", "Amalgamated", "Under Liquidation", "Dissolved"}

var businessActivities = []string{
	"MANUFACTURING (FOOD PRODUCTS)",
	"MANUFACTURING (TEXTILES)",
	"MANUFACTURING (CHEMICALS)",
	"WHOLESALE TRADE",
	"RETAIL TRADE",
	"COMPUTER PROGRAMMING",
	"INFORMATION SERVICE ACTIVITIES",
	"FINANCIAL SERVICE ACTIVITIES",
	"REAL ESTATE ACTIVITIES",
	"PROFESSIONAL, SCIENTIFIC AND TECHNICAL ACTIVITIES",
	"CONSTRUCTION",
	"EDUCATION",
}

var nameWords = []string{
	"TECH", "SOLUTIONS", "INDUSTRIES", "ENTERPRISES", "SYSTEMS",
	"GLOBAL", "INTERNATIONAL", "INDIA", "SERVICES", "TRADING",
	"INNOVATIONS", "VENTURES", "TECHNOLOGIES", "CONSULTANCY",
	"EXPORTS", "DEVELOPERS", "FOODS", "TEXTILES", "PHARMA", "REALTY",
}
var nameSuffixes = []string{"PRIVATE LIMITED", "LIMITED", "OPC PRIVATE LIMITED"}

// Generator produces deterministic sample extracts for a given seed.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator; the same seed yields the same data.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Headers returns the column order of generated rows.
func Headers() []string {
	out := make([]string, len(headers))
	copy(out, headers)
	return out
}

// Baseline generates count companies spread across the sample states.
func (g *Generator) Baseline(count int) [][]string {
	rows := make([][]string, 0, count)
	for i := 0; i < count; i++ {
		rows = append(rows, g.company(states[i%len(states)]))
	}
	return rows
}

// NextDay applies one simulated day of churn to a copy of the rows: a few
// incorporations, a few strike-offs and a few capital revisions. The input
// is not modified.
func (g *Generator) NextDay(rows [][]string, day int) [][]string {
	next := make([][]string, len(rows))
	for i, row := range rows {
		cloned := make([]string, len(row))
		copy(cloned, row)
		next[i] = cloned
	}

	// New incorporations.
	for i, n := 0, 5+g.rng.Intn(6); i < n; i++ {
		state := states[g.rng.Intn(len(states))]
		row := g.company(state)
		row[1] = fmt.Sprintf("TEST COMPANY %d_%d PRIVATE LIMITED", day, i)
		row[8] = "Active"
		next = append(next, row)
	}

	// Status transitions away from Active.
	for i, n := 0, 2+g.rng.Intn(4); i < n && len(next) > 0; i++ {
		row := next[g.rng.Intn(len(next))]
		if row[8] == "Active" {
			row[8] = []string{"Strike Off", "Under Liquidation"}[g.rng.Intn(2)]
		}
	}

	// Capital revisions.
	for i, n := 0, 3+g.rng.Intn(5); i < n && len(next) > 0; i++ {
		row := next[g.rng.Intn(len(next))]
		row[6] = fmt.Sprintf("%d", 100_000+g.rng.Intn(50_000_000))
	}

	return next
}

// WriteCSV writes header plus rows to path.
func WriteCSV(path string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create seed directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create seed file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write seed header: %w", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write seed rows: %w", err)
	}
	writer.Flush()
	return writer.Error()
}

func (g *Generator) company(state stateInfo) []string {
	year := 2000 + g.rng.Intn(25)
	incorporated := time.Date(year, time.Month(1+g.rng.Intn(12)), 1+g.rng.Intn(28), 0, 0, 0, 0, time.UTC)

	return []string{
		g.cin(state.code, year),
		g.companyName(),
		companyClasses[g.rng.Intn(len(companyClasses))],
		companyCategories[g.rng.Intn(len(companyCategories))],
		[]string{"Non-govt company", "State Govt company"}[g.rng.Intn(2)],
		incorporated.Format("02/01/2006"),
		fmt.Sprintf("%d", 100_000+g.rng.Intn(50_000_000)),
		fmt.Sprintf("%d", 50_000+g.rng.Intn(25_000_000)),
		g.status(),
		businessActivities[g.rng.Intn(len(businessActivities))],
		g.address(state.name),
		state.roc,
		state.name,
	}
}

func (g *Generator) cin(stateCode string, year int) string {
	listing := "U"
	if g.rng.Intn(10) == 0 {
		listing = "L"
	}
	return fmt.Sprintf("%s%05d%s%d%s%06d",
		listing,
		10_000+g.rng.Intn(90_000),
		stateCode,
		year,
		companyTypes[g.rng.Intn(len(companyTypes))],
		100_000+g.rng.Intn(900_000))
}

func (g *Generator) companyName() string {
	words := 1 + g.rng.Intn(3)
	name := ""
	for i := 0; i < words; i++ {
		if i > 0 {
			name += " "
		}
		name += nameWords[g.rng.Intn(len(nameWords))]
	}
	return name + " " + nameSuffixes[g.rng.Intn(len(nameSuffixes))]
}

// status skews toward Active the way real registries do.
func (g *Generator) status() string {
	if g.rng.Intn(10) < 7 {
		return "Active"
	}
	return companyStatuses[1+g.rng.Intn(len(companyStatuses)-1)]
}

func (g *Generator) address(state string) string {
	buildings := []string{"A-101", "B-202", "C-303", "D-404", "E-505"}
	streets := []string{"MG Road", "Park Street", "Anna Salai", "Brigade Road", "Link Road"}
	areas := []string{"Andheri", "Borivali", "Whitefield", "Adyar", "Satellite"}
	return fmt.Sprintf("%s, %s, %s, %s - %d",
		buildings[g.rng.Intn(len(buildings))],
		streets[g.rng.Intn(len(streets))],
		areas[g.rng.Intn(len(areas))],
		state,
		400_001+g.rng.Intn(160_098))
}
