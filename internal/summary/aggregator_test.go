package summary

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/rpattn/regwatch/internal/domain"
)

func testLog(date string) domain.ChangeLog {
	return domain.ChangeLog{
		DetectionDate: date,
		Events: []domain.ChangeEvent{
			{
				Kind:        domain.ChangeAddition,
				CIN:         "U72200DL2018PTC100003",
				CompanyName: "GAMMA TECH PRIVATE LIMITED",
				State:       "DELHI",
				Status:      "ACTIVE",
			},
			{
				Kind:        domain.ChangeRemoval,
				CIN:         "U72200GJ2019PTC100002",
				CompanyName: "BETA INDUSTRIES LIMITED",
				OldValue:    "STRIKE OFF",
				State:       "GUJARAT",
				Status:      "STRIKE OFF",
			},
			{
				Kind:        domain.ChangeFieldUpdate,
				CIN:         "U72200MH2020PTC100001",
				CompanyName: "ALPHA SOFTWARE PRIVATE LIMITED",
				Field:       domain.FieldAuthorizedCapital,
				OldValue:    "1000000",
				NewValue:    "2500000",
				State:       "MAHARASHTRA",
				Status:      "ACTIVE",
			},
			{
				Kind:        domain.ChangeFieldUpdate,
				CIN:         "U72200MH2020PTC100001",
				CompanyName: "ALPHA SOFTWARE PRIVATE LIMITED",
				Field:       domain.FieldCompanyStatus,
				OldValue:    "ACTIVE",
				NewValue:    "UNDER LIQUIDATION",
				State:       "MAHARASHTRA",
				Status:      "UNDER LIQUIDATION",
			},
		},
	}
}

func TestSummarizeCounts(t *testing.T) {
	got := Summarize(testLog("2024-06-02"))

	if got.Date != "2024-06-02" {
		t.Errorf("date = %s", got.Date)
	}
	if got.TotalChanges != 4 || got.Additions != 1 || got.Removals != 1 || got.Updates != 2 {
		t.Errorf("counts = %d/%d/%d/%d", got.TotalChanges, got.Additions, got.Removals, got.Updates)
	}
	// Two updates share a CIN, so three distinct companies are affected.
	if got.AffectedEntities != 3 {
		t.Errorf("affected entities = %d, want 3", got.AffectedEntities)
	}

	wantStates := []string{"DELHI", "GUJARAT", "MAHARASHTRA"}
	if !reflect.DeepEqual(got.AffectedStates, wantStates) {
		t.Errorf("affected states = %v, want %v", got.AffectedStates, wantStates)
	}

	wantBreakdown := map[string]int{
		domain.FieldAuthorizedCapital: 1,
		domain.FieldCompanyStatus:     1,
	}
	if !reflect.DeepEqual(got.FieldBreakdown, wantBreakdown) {
		t.Errorf("field breakdown = %v, want %v", got.FieldBreakdown, wantBreakdown)
	}
}

func TestSummarizeEmptyLog(t *testing.T) {
	got := Summarize(domain.ChangeLog{DetectionDate: "2024-06-02"})

	if got.TotalChanges != 0 || got.AffectedEntities != 0 {
		t.Errorf("empty log summary = %+v", got)
	}
	if got.FieldBreakdown == nil || len(got.FieldBreakdown) != 0 {
		t.Errorf("field breakdown = %v, want empty map", got.FieldBreakdown)
	}
	if len(got.AffectedStates) != 0 {
		t.Errorf("affected states = %v", got.AffectedStates)
	}
}

func TestSummarizeSkipsMissingState(t *testing.T) {
	log := domain.ChangeLog{
		DetectionDate: "2024-06-02",
		Events: []domain.ChangeEvent{
			{Kind: domain.ChangeAddition, CIN: "U72200MH2020PTC100001", State: domain.MissingValue},
			{Kind: domain.ChangeAddition, CIN: "U72200GJ2019PTC100002", State: "GUJARAT"},
		},
	}
	got := Summarize(log)
	if !reflect.DeepEqual(got.AffectedStates, []string{"GUJARAT"}) {
		t.Errorf("affected states = %v, want [GUJARAT]", got.AffectedStates)
	}
}

func TestSummarizeMany(t *testing.T) {
	logs := []domain.ChangeLog{testLog("2024-06-01"), testLog("2024-06-02")}
	summaries := SummarizeMany(logs)
	if len(summaries) != 2 {
		t.Fatalf("got %d summaries", len(summaries))
	}
	if summaries[0].Date != "2024-06-01" || summaries[1].Date != "2024-06-02" {
		t.Errorf("dates = %s, %s", summaries[0].Date, summaries[1].Date)
	}
}

func TestReporterWriteLoadRoundTrip(t *testing.T) {
	reporter, err := NewReporter(t.TempDir())
	if err != nil {
		t.Fatalf("NewReporter: %v", err)
	}

	original := Summarize(testLog("2024-06-02"))
	if err := reporter.Write(original); err != nil {
		t.Fatalf("Write: %v", err)
	}

	loaded, err := reporter.Load("2024-06-02")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(loaded, original) {
		t.Errorf("summary after reload:\ngot  %+v\nwant %+v", loaded, original)
	}
}

func TestReporterRejectsMissingDate(t *testing.T) {
	reporter, err := NewReporter(t.TempDir())
	if err != nil {
		t.Fatalf("NewReporter: %v", err)
	}
	if err := reporter.Write(domain.Summary{}); err == nil {
		t.Fatal("expected error for missing date")
	}
}

func TestReporterLoadMissingDate(t *testing.T) {
	reporter, err := NewReporter(t.TempDir())
	if err != nil {
		t.Fatalf("NewReporter: %v", err)
	}
	if _, err := reporter.Load("2030-01-01"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestReporterLoadAllSorted(t *testing.T) {
	reporter, err := NewReporter(t.TempDir())
	if err != nil {
		t.Fatalf("NewReporter: %v", err)
	}

	for _, date := range []string{"2024-06-03", "2024-06-01", "2024-06-02"} {
		if err := reporter.Write(Summarize(testLog(date))); err != nil {
			t.Fatalf("Write(%s): %v", date, err)
		}
	}

	summaries, err := reporter.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	var dates []string
	for _, s := range summaries {
		dates = append(dates, s.Date)
	}
	want := []string{"2024-06-01", "2024-06-02", "2024-06-03"}
	if !reflect.DeepEqual(dates, want) {
		t.Fatalf("dates = %v, want %v", dates, want)
	}
}

func TestRender(t *testing.T) {
	text := Render(Summarize(testLog("2024-06-02")))

	for _, want := range []string{
		"Daily Change Summary - 2024-06-02",
		"Total changes:       4",
		"New incorporations:  1",
		"Deregistrations:     1",
		"Field updates:       2",
		"Affected companies:  3",
		"Affected states: DELHI, GUJARAT, MAHARASHTRA",
		domain.FieldAuthorizedCapital,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("report missing %q:\n%s", want, text)
		}
	}
}

func TestRenderEmptySummaryOmitsSections(t *testing.T) {
	text := Render(Summarize(domain.ChangeLog{DetectionDate: "2024-06-02"}))
	if strings.Contains(text, "Affected states") || strings.Contains(text, "Field change breakdown") {
		t.Errorf("empty summary report has optional sections:\n%s", text)
	}
}
