package insights

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rpattn/regwatch/internal/domain"
	"github.com/rpattn/regwatch/internal/repository"
)

const sampleLimit = 10

// Registration statuses reported in the breakdown, most common first.
var knownStatuses = []string{
	"ACTIVE", "STRIKE OFF", "AMALGAMATED", "UNDER LIQUIDATION", "DISSOLVED",
}

// ChangeReader is the slice of change history the responder needs.
type ChangeReader interface {
	ListByDate(ctx context.Context, date string) ([]domain.LogRow, error)
	Count(ctx context.Context) (int64, error)
}

// SummarySource yields the stored daily summaries in chronological order.
type SummarySource interface {
	LoadAll() ([]domain.Summary, error)
}

// Response is one answered query.
type Response struct {
	Query  string `json:"query"`
	Intent string `json:"intent"`
	Answer string `json:"answer"`
}

// Responder answers classified queries against the master dataset and the
// change history.
type Responder struct {
	companies repository.CompanyRepository
	changes   ChangeReader
	summaries SummarySource
}

// NewResponder wires a responder.
func NewResponder(companies repository.CompanyRepository, changes ChangeReader, summaries SummarySource) *Responder {
	return &Responder{companies: companies, changes: changes, summaries: summaries}
}

// Answer classifies and answers a query.
func (r *Responder) Answer(ctx context.Context, query string) (Response, error) {
	intent := Classify(query)
	answer, err := r.dispatch(ctx, intent)
	if err != nil {
		return Response{}, err
	}
	return Response{Query: query, Intent: intent.Name(), Answer: answer}, nil
}

func (r *Responder) dispatch(ctx context.Context, intent Intent) (string, error) {
	switch it := intent.(type) {
	case NewIncorporations:
		return r.answerChangeKind(ctx, domain.ChangeAddition, it.State)
	case Deregistrations:
		return r.answerChangeKind(ctx, domain.ChangeRemoval, it.State)
	case CapitalThreshold:
		return r.answerCapital(ctx, it)
	case SectorFilter:
		return r.answerSector(ctx, it.Sector)
	case StateFilter:
		return r.answerState(ctx, it.State)
	case StatusBreakdown:
		return r.answerStatusBreakdown(ctx)
	case CountQuery:
		return r.answerCount(ctx, it.Subject)
	default:
		return r.answerGeneric(ctx)
	}
}

// latestDate returns the most recent detection date with a stored summary.
func (r *Responder) latestDate() (string, error) {
	summaries, err := r.summaries.LoadAll()
	if err != nil {
		return "", err
	}
	if len(summaries) == 0 {
		return "", nil
	}
	return summaries[len(summaries)-1].Date, nil
}

func (r *Responder) answerChangeKind(ctx context.Context, kind domain.ChangeKind, state string) (string, error) {
	date, err := r.latestDate()
	if err != nil {
		return "", err
	}

	var matched []domain.LogRow
	if date != "" {
		rows, err := r.changes.ListByDate(ctx, date)
		if err != nil {
			return "", err
		}
		for _, row := range rows {
			if row.ChangeType != string(kind) {
				continue
			}
			if state != "" && !strings.EqualFold(row.State, state) {
				continue
			}
			matched = append(matched, row)
		}
	}

	noun := "new incorporations"
	if kind == domain.ChangeRemoval {
		noun = "deregistrations"
	}
	scope := ""
	if state != "" {
		scope = " in " + state
	}
	if len(matched) == 0 {
		// The change history has nothing; deregistration queries fall back
		// to the struck-off companies in the master dataset.
		if kind == domain.ChangeRemoval {
			return r.answerStruckOff(ctx, state)
		}
		if date == "" {
			return "No change data available.", nil
		}
		return fmt.Sprintf("No %s found%s on %s.", noun, scope, date), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d %s%s on %s.\n", len(matched), noun, scope, date)
	for i, row := range matched {
		if i == sampleLimit {
			fmt.Fprintf(&b, "... and %d more\n", len(matched)-sampleLimit)
			break
		}
		fmt.Fprintf(&b, "- %s (CIN: %s)\n", row.CompanyName, row.CIN)
	}
	return b.String(), nil
}

// answerStruckOff reports registry-wide struck-off companies when the change
// history has no deregistration rows to list.
func (r *Responder) answerStruckOff(ctx context.Context, state string) (string, error) {
	records, err := r.companies.ListByStatus(ctx, "STRIKE OFF")
	if err != nil {
		return "", err
	}
	if state != "" {
		var filtered []domain.CompanyRecord
		for _, record := range records {
			if strings.EqualFold(record.Attribute(domain.FieldState), state) {
				filtered = append(filtered, record)
			}
		}
		records = filtered
	}

	scope := ""
	if state != "" {
		scope = " in " + state
	}
	if len(records) == 0 {
		return fmt.Sprintf("No deregistrations found%s.", scope), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "No recent deregistrations%s; the registry lists %d struck off companies.\n", scope, len(records))
	for i, record := range records {
		if i == sampleLimit {
			fmt.Fprintf(&b, "... and %d more\n", len(records)-sampleLimit)
			break
		}
		fmt.Fprintf(&b, "- %s (CIN: %s)\n", record.Attribute(domain.FieldCompanyName), record.CIN)
	}
	return b.String(), nil
}

func (r *Responder) answerCapital(ctx context.Context, it CapitalThreshold) (string, error) {
	records, err := r.companies.ListByMinCapital(ctx, it.AmountINR, 0)
	if err != nil {
		return "", err
	}
	if it.Sector != "" {
		var filtered []domain.CompanyRecord
		for _, record := range records {
			activity := record.Attribute(domain.FieldBusinessActivity)
			if strings.Contains(strings.ToUpper(activity), it.Sector) {
				filtered = append(filtered, record)
			}
		}
		records = filtered
	}

	if len(records) == 0 {
		return fmt.Sprintf("No companies found with authorized capital above ₹%.0f.", it.AmountINR), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d companies with authorized capital above ₹%.0f.\n", len(records), it.AmountINR)
	for i, record := range records {
		if i == sampleLimit {
			break
		}
		capital, ok := repository.AuthorizedCapital(record)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "- %s: ₹%.0f\n", record.Attribute(domain.FieldCompanyName), capital)
	}
	return b.String(), nil
}

func (r *Responder) answerSector(ctx context.Context, sector string) (string, error) {
	records, err := r.companies.ListByActivity(ctx, sector, 0)
	if err != nil {
		return "", err
	}

	active := 0
	for _, record := range records {
		if record.Attribute(domain.FieldCompanyStatus) == "ACTIVE" {
			active++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s sector analysis:\n", titleCase(sector))
	fmt.Fprintf(&b, "- Total companies: %d\n", len(records))
	fmt.Fprintf(&b, "- Active companies: %d\n", active)
	return b.String(), nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

func (r *Responder) answerState(ctx context.Context, state string) (string, error) {
	records, err := r.companies.ListByState(ctx, state)
	if err != nil {
		return "", err
	}

	byStatus := map[string]int{}
	for _, record := range records {
		if status := record.Attribute(domain.FieldCompanyStatus); status != domain.MissingValue {
			byStatus[status]++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Companies in %s: %d\n", state, len(records))
	if len(byStatus) > 0 {
		statuses := make([]string, 0, len(byStatus))
		for status := range byStatus {
			statuses = append(statuses, status)
		}
		sort.Strings(statuses)
		b.WriteString("By status:\n")
		for _, status := range statuses {
			fmt.Fprintf(&b, "- %s: %d\n", status, byStatus[status])
		}
	}
	return b.String(), nil
}

func (r *Responder) answerStatusBreakdown(ctx context.Context) (string, error) {
	total, err := r.companies.Count(ctx)
	if err != nil {
		return "", err
	}
	if total == 0 {
		return "No companies in the database.", nil
	}

	var b strings.Builder
	b.WriteString("Company status distribution:\n")
	for _, status := range knownStatuses {
		count, err := r.companies.CountByStatus(ctx, status)
		if err != nil {
			return "", err
		}
		if count == 0 {
			continue
		}
		fmt.Fprintf(&b, "- %s: %d (%.1f%%)\n", status, count, float64(count)/float64(total)*100)
	}
	return b.String(), nil
}

func (r *Responder) answerCount(ctx context.Context, subject string) (string, error) {
	switch subject {
	case "active":
		count, err := r.companies.CountByStatus(ctx, "ACTIVE")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Total active companies: %d", count), nil
	case "changes":
		count, err := r.changes.Count(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Total changes recorded: %d", count), nil
	default:
		count, err := r.companies.Count(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Total companies in database: %d", count), nil
	}
}

func (r *Responder) answerGeneric(ctx context.Context) (string, error) {
	total, err := r.companies.Count(ctx)
	if err != nil {
		return "", err
	}
	changes, err := r.changes.Count(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Registry overview:\n")
	fmt.Fprintf(&b, "- Total companies: %d\n", total)
	fmt.Fprintf(&b, "- Recorded changes: %d\n", changes)
	b.WriteString("\nYou can ask:\n")
	b.WriteString("- 'Show new incorporations in Maharashtra'\n")
	b.WriteString("- 'How many companies were struck off?'\n")
	b.WriteString("- 'List companies with capital above 10 lakh'\n")
	b.WriteString("- 'What is the total number of active companies?'\n")
	return b.String(), nil
}
