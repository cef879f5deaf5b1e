package insights

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rpattn/regwatch/internal/domain"
)

type stubCompanies struct {
	byState      map[string][]domain.CompanyRecord
	byCapital    []domain.CompanyRecord
	byActivity   []domain.CompanyRecord
	byStatusList map[string][]domain.CompanyRecord
	total        int64
	byStatus     map[string]int64
	err          error
}

func (s *stubCompanies) ReplaceAll(ctx context.Context, snapshot domain.Snapshot) error { return nil }
func (s *stubCompanies) Upsert(ctx context.Context, records []domain.CompanyRecord) error {
	return nil
}
func (s *stubCompanies) GetByCIN(ctx context.Context, cin string) (domain.CompanyRecord, error) {
	return domain.CompanyRecord{}, errors.New("not implemented")
}
func (s *stubCompanies) Search(ctx context.Context, query string, limit int) ([]domain.CompanyRecord, error) {
	return nil, errors.New("not implemented")
}
func (s *stubCompanies) ListByState(ctx context.Context, state string) ([]domain.CompanyRecord, error) {
	return s.byState[state], s.err
}
func (s *stubCompanies) ListByStatus(ctx context.Context, status string) ([]domain.CompanyRecord, error) {
	return s.byStatusList[status], s.err
}
func (s *stubCompanies) ListByMinCapital(ctx context.Context, minCapital float64, limit int) ([]domain.CompanyRecord, error) {
	return s.byCapital, s.err
}
func (s *stubCompanies) ListByActivity(ctx context.Context, keyword string, limit int) ([]domain.CompanyRecord, error) {
	return s.byActivity, s.err
}
func (s *stubCompanies) Count(ctx context.Context) (int64, error) { return s.total, s.err }
func (s *stubCompanies) CountByStatus(ctx context.Context, status string) (int64, error) {
	return s.byStatus[status], s.err
}

type stubChanges struct {
	rows  map[string][]domain.LogRow
	total int64
	err   error
}

func (s *stubChanges) ListByDate(ctx context.Context, date string) ([]domain.LogRow, error) {
	return s.rows[date], s.err
}
func (s *stubChanges) Count(ctx context.Context) (int64, error) { return s.total, s.err }

type stubSummaries struct {
	summaries []domain.Summary
	err       error
}

func (s *stubSummaries) LoadAll() ([]domain.Summary, error) { return s.summaries, s.err }

func company(name string, attrs map[string]string) domain.CompanyRecord {
	if attrs == nil {
		attrs = map[string]string{}
	}
	attrs[domain.FieldCompanyName] = name
	return domain.NewCompanyRecord("U72200MH2020PTC100001", attrs, 0, time.Time{})
}

func TestAnswerNewIncorporations(t *testing.T) {
	changes := &stubChanges{rows: map[string][]domain.LogRow{
		"2024-06-02": {
			{CIN: "U72200MH2020PTC100001", CompanyName: "ALPHA LTD", ChangeType: "ADDITION", State: "MAHARASHTRA"},
			{CIN: "U72200GJ2019PTC100002", CompanyName: "BETA LTD", ChangeType: "ADDITION", State: "GUJARAT"},
			{CIN: "U72200DL2018PTC100003", CompanyName: "GAMMA LTD", ChangeType: "REMOVAL", State: "MAHARASHTRA"},
		},
	}}
	summaries := &stubSummaries{summaries: []domain.Summary{{Date: "2024-06-01"}, {Date: "2024-06-02"}}}
	responder := NewResponder(&stubCompanies{}, changes, summaries)

	resp, err := responder.Answer(context.Background(), "show new incorporations in maharashtra")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if resp.Intent != "NEW_INCORPORATIONS" {
		t.Errorf("intent = %s", resp.Intent)
	}
	if !strings.Contains(resp.Answer, "Found 1 new incorporations in MAHARASHTRA on 2024-06-02") {
		t.Errorf("answer = %q", resp.Answer)
	}
	if !strings.Contains(resp.Answer, "ALPHA LTD") || strings.Contains(resp.Answer, "BETA LTD") {
		t.Errorf("answer lists wrong companies: %q", resp.Answer)
	}
}

func TestAnswerDeregistrationsNoData(t *testing.T) {
	responder := NewResponder(&stubCompanies{}, &stubChanges{}, &stubSummaries{})

	resp, err := responder.Answer(context.Background(), "which companies were struck off?")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if resp.Answer != "No deregistrations found." {
		t.Errorf("answer = %q", resp.Answer)
	}
}

func TestAnswerDeregistrationsFallsBackToMasterData(t *testing.T) {
	companies := &stubCompanies{byStatusList: map[string][]domain.CompanyRecord{
		"STRIKE OFF": {
			company("OLD MILLS LTD", map[string]string{domain.FieldState: "MAHARASHTRA"}),
			company("CLOSED TRADERS LTD", map[string]string{domain.FieldState: "GUJARAT"}),
		},
	}}
	responder := NewResponder(companies, &stubChanges{}, &stubSummaries{})

	resp, err := responder.Answer(context.Background(), "which companies were struck off?")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if !strings.Contains(resp.Answer, "the registry lists 2 struck off companies") {
		t.Errorf("answer = %q", resp.Answer)
	}
	if !strings.Contains(resp.Answer, "OLD MILLS LTD") || !strings.Contains(resp.Answer, "CLOSED TRADERS LTD") {
		t.Errorf("answer = %q", resp.Answer)
	}

	resp, err = responder.Answer(context.Background(), "struck off companies in gujarat")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if !strings.Contains(resp.Answer, "lists 1 struck off companies") {
		t.Errorf("answer = %q", resp.Answer)
	}
	if strings.Contains(resp.Answer, "OLD MILLS LTD") {
		t.Errorf("state filter not applied: %q", resp.Answer)
	}
}

func TestAnswerChangeKindSampleCap(t *testing.T) {
	var rows []domain.LogRow
	for i := 0; i < 15; i++ {
		rows = append(rows, domain.LogRow{
			CIN:         fmt.Sprintf("U72200MH2020PTC1%05d", i),
			CompanyName: fmt.Sprintf("COMPANY %d", i),
			ChangeType:  "ADDITION",
		})
	}
	changes := &stubChanges{rows: map[string][]domain.LogRow{"2024-06-02": rows}}
	summaries := &stubSummaries{summaries: []domain.Summary{{Date: "2024-06-02"}}}
	responder := NewResponder(&stubCompanies{}, changes, summaries)

	resp, err := responder.Answer(context.Background(), "new incorporations")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if !strings.Contains(resp.Answer, "Found 15 new incorporations") {
		t.Errorf("answer = %q", resp.Answer)
	}
	if !strings.Contains(resp.Answer, "... and 5 more") {
		t.Errorf("answer missing overflow marker: %q", resp.Answer)
	}
}

func TestAnswerCapitalThreshold(t *testing.T) {
	companies := &stubCompanies{byCapital: []domain.CompanyRecord{
		company("STEEL WORKS LTD", map[string]string{
			domain.FieldAuthorizedCapital: "5000000",
			domain.FieldBusinessActivity:  "MANUFACTURING",
		}),
		company("TRADING HOUSE LTD", map[string]string{
			domain.FieldAuthorizedCapital: "2000000",
			domain.FieldBusinessActivity:  "TRADING",
		}),
	}}
	responder := NewResponder(companies, &stubChanges{}, &stubSummaries{})

	resp, err := responder.Answer(context.Background(), "manufacturing companies with capital above 10 lakh")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if resp.Intent != "CAPITAL_THRESHOLD" {
		t.Errorf("intent = %s", resp.Intent)
	}
	if !strings.Contains(resp.Answer, "Found 1 companies") {
		t.Errorf("answer = %q", resp.Answer)
	}
	if !strings.Contains(resp.Answer, "STEEL WORKS LTD") || strings.Contains(resp.Answer, "TRADING HOUSE LTD") {
		t.Errorf("sector filter not applied: %q", resp.Answer)
	}
}

func TestAnswerSector(t *testing.T) {
	companies := &stubCompanies{byActivity: []domain.CompanyRecord{
		company("A", map[string]string{domain.FieldCompanyStatus: "ACTIVE"}),
		company("B", map[string]string{domain.FieldCompanyStatus: "STRIKE OFF"}),
		company("C", map[string]string{domain.FieldCompanyStatus: "ACTIVE"}),
	}}
	responder := NewResponder(companies, &stubChanges{}, &stubSummaries{})

	resp, err := responder.Answer(context.Background(), "show manufacturing companies")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if !strings.Contains(resp.Answer, "Manufacturing sector analysis") {
		t.Errorf("answer = %q", resp.Answer)
	}
	if !strings.Contains(resp.Answer, "Total companies: 3") || !strings.Contains(resp.Answer, "Active companies: 2") {
		t.Errorf("answer = %q", resp.Answer)
	}
}

func TestAnswerState(t *testing.T) {
	companies := &stubCompanies{byState: map[string][]domain.CompanyRecord{
		"GUJARAT": {
			company("A", map[string]string{domain.FieldCompanyStatus: "ACTIVE"}),
			company("B", map[string]string{domain.FieldCompanyStatus: "ACTIVE"}),
			company("C", map[string]string{domain.FieldCompanyStatus: "DISSOLVED"}),
		},
	}}
	responder := NewResponder(companies, &stubChanges{}, &stubSummaries{})

	resp, err := responder.Answer(context.Background(), "companies in gujarat")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if !strings.Contains(resp.Answer, "Companies in GUJARAT: 3") {
		t.Errorf("answer = %q", resp.Answer)
	}
	if !strings.Contains(resp.Answer, "- ACTIVE: 2") || !strings.Contains(resp.Answer, "- DISSOLVED: 1") {
		t.Errorf("status breakdown missing: %q", resp.Answer)
	}
}

func TestAnswerStatusBreakdown(t *testing.T) {
	companies := &stubCompanies{
		total:    10,
		byStatus: map[string]int64{"ACTIVE": 7, "STRIKE OFF": 3},
	}
	responder := NewResponder(companies, &stubChanges{}, &stubSummaries{})

	resp, err := responder.Answer(context.Background(), "what is the status breakdown?")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if !strings.Contains(resp.Answer, "- ACTIVE: 7 (70.0%)") {
		t.Errorf("answer = %q", resp.Answer)
	}
	if !strings.Contains(resp.Answer, "- STRIKE OFF: 3 (30.0%)") {
		t.Errorf("answer = %q", resp.Answer)
	}
	if strings.Contains(resp.Answer, "DISSOLVED") {
		t.Errorf("zero-count status reported: %q", resp.Answer)
	}
}

func TestAnswerCounts(t *testing.T) {
	companies := &stubCompanies{total: 42, byStatus: map[string]int64{"ACTIVE": 30}}
	changes := &stubChanges{total: 7}
	responder := NewResponder(companies, changes, &stubSummaries{})

	cases := []struct {
		query string
		want  string
	}{
		{"how many active companies are there?", "Total active companies: 30"},
		{"total changes today", "Total changes recorded: 7"},
		{"how many companies do you track?", "Total companies in database: 42"},
	}
	for _, tc := range cases {
		resp, err := responder.Answer(context.Background(), tc.query)
		if err != nil {
			t.Fatalf("Answer(%q): %v", tc.query, err)
		}
		if resp.Answer != tc.want {
			t.Errorf("Answer(%q) = %q, want %q", tc.query, resp.Answer, tc.want)
		}
	}
}

func TestAnswerGeneric(t *testing.T) {
	responder := NewResponder(&stubCompanies{total: 42}, &stubChanges{total: 7}, &stubSummaries{})

	resp, err := responder.Answer(context.Background(), "tell me something interesting")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if resp.Intent != "GENERIC" {
		t.Errorf("intent = %s", resp.Intent)
	}
	if !strings.Contains(resp.Answer, "Total companies: 42") || !strings.Contains(resp.Answer, "Recorded changes: 7") {
		t.Errorf("answer = %q", resp.Answer)
	}
}

func TestAnswerPropagatesErrors(t *testing.T) {
	wantErr := errors.New("database down")
	responder := NewResponder(&stubCompanies{err: wantErr}, &stubChanges{}, &stubSummaries{})

	if _, err := responder.Answer(context.Background(), "how many companies?"); !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}
