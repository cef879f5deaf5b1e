package enrichment

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rpattn/regwatch/internal/domain"
)

const (
	listedCIN   = "L72200MH2020PLC100001"
	unlistedCIN = "U74999DL2015PTC200002"
)

func fixedClock() time.Time {
	return time.Date(2024, 6, 2, 12, 0, 0, 0, time.UTC)
}

func masterRecord(cin, name string) domain.CompanyRecord {
	return domain.NewCompanyRecord(cin, map[string]string{
		domain.FieldCIN:         cin,
		domain.FieldCompanyName: name,
	}, 0, time.Time{})
}

func TestParseCIN(t *testing.T) {
	info, err := ParseCIN(unlistedCIN)
	if err != nil {
		t.Fatalf("ParseCIN: %v", err)
	}

	want := CINInfo{
		ListingStatus: "Unlisted",
		IndustryCode:  "74999",
		StateCode:     "DL",
		Year:          "2015",
		CompanyType:   "PTC",
	}
	if info != want {
		t.Errorf("info = %+v, want %+v", info, want)
	}
}

func TestParseCINListed(t *testing.T) {
	info, err := ParseCIN(listedCIN)
	if err != nil {
		t.Fatalf("ParseCIN: %v", err)
	}
	if info.ListingStatus != "Listed" {
		t.Errorf("listing status = %s", info.ListingStatus)
	}
}

func TestParseCINRejectsWrongLength(t *testing.T) {
	for _, cin := range []string{"", "U72200MH2020PTC10000", "U72200MH2020PTC1000011"} {
		if _, err := ParseCIN(cin); err == nil {
			t.Errorf("ParseCIN(%q) accepted a %d-character key", cin, len(cin))
		}
	}
}

func TestStructuralFetcher(t *testing.T) {
	fetcher := NewStructuralFetcher(fixedClock)

	got, err := fetcher.Fetch(masterRecord(unlistedCIN, "ALPHA SOFTWARE PRIVATE LIMITED"))
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if got.CIN != unlistedCIN {
		t.Errorf("cin = %s", got.CIN)
	}
	if got.Industry != "Professional, Scientific and Technical Activities" {
		t.Errorf("industry = %s", got.Industry)
	}
	if got.Sector != "Professional Services" {
		t.Errorf("sector = %s", got.Sector)
	}
	if got.ListingStatus != "Unlisted" || got.ComplianceStatus != "Compliant" || got.Source != "ZaubaCorp" {
		t.Errorf("record = %+v", got)
	}
	if got.SourceURL != "https://www.zaubacorp.com/company/"+unlistedCIN {
		t.Errorf("source url = %s", got.SourceURL)
	}
	if !got.EnrichedAt.Equal(fixedClock()) {
		t.Errorf("enriched at = %v", got.EnrichedAt)
	}
	// Private companies get two directors.
	if len(got.Directors) != 2 {
		t.Errorf("directors = %v, want 2", got.Directors)
	}
}

func TestStructuralFetcherPublicCompanyDirectors(t *testing.T) {
	fetcher := NewStructuralFetcher(fixedClock)
	got, err := fetcher.Fetch(masterRecord(listedCIN, "MEGA STEEL LIMITED"))
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got.Directors) != 3 {
		t.Errorf("directors = %v, want 3", got.Directors)
	}
}

func TestStructuralFetcherUnknownIndustry(t *testing.T) {
	fetcher := NewStructuralFetcher(fixedClock)
	got, err := fetcher.Fetch(masterRecord("U99999MH2020PTC300003", "MYSTERY VENTURES LIMITED"))
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got.Industry != "Other Business Activities" || got.Sector != "Other Services" {
		t.Errorf("fallbacks = %s / %s", got.Industry, got.Sector)
	}
}

func TestStructuralFetcherDeterministic(t *testing.T) {
	fetcher := NewStructuralFetcher(fixedClock)
	record := masterRecord(unlistedCIN, "ALPHA SOFTWARE PRIVATE LIMITED")

	first, err := fetcher.Fetch(record)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	second, err := fetcher.Fetch(record)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated fetches differ:\n%+v\n%+v", first, second)
	}
}

func TestCacheLifecycle(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewCache(dir)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}

	// Loading with no file is not an error.
	if err := cache.Load(); err != nil {
		t.Fatalf("Load empty: %v", err)
	}
	if cache.Len() != 0 {
		t.Fatalf("fresh cache has %d records", cache.Len())
	}

	record := domain.EnrichedRecord{CIN: unlistedCIN, Sector: "Professional Services", EnrichedAt: fixedClock()}
	cache.Put(record)
	if err := cache.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reopened, err := NewCache(dir)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	if err := reopened.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, ok := reopened.Get(unlistedCIN)
	if !ok {
		t.Fatal("record missing after reload")
	}
	if got.Sector != record.Sector || !got.EnrichedAt.Equal(record.EnrichedAt) {
		t.Errorf("reloaded record = %+v", got)
	}
}

type countingFetcher struct {
	inner Fetcher
	calls atomic.Int64
}

func (f *countingFetcher) Fetch(record domain.CompanyRecord) (domain.EnrichedRecord, error) {
	f.calls.Add(1)
	return f.inner.Fetch(record)
}

type failingFetcher struct{ err error }

func (f failingFetcher) Fetch(domain.CompanyRecord) (domain.EnrichedRecord, error) {
	return domain.EnrichedRecord{}, f.err
}

func TestServiceEnrichBatch(t *testing.T) {
	cache, err := NewCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	fetcher := &countingFetcher{inner: NewStructuralFetcher(fixedClock)}
	service := NewService(fetcher, cache, nil, 2, nil)

	records := []domain.CompanyRecord{
		masterRecord(unlistedCIN, "ALPHA SOFTWARE PRIVATE LIMITED"),
		masterRecord(listedCIN, "MEGA STEEL LIMITED"),
	}
	enriched, err := service.EnrichBatch(context.Background(), records)
	if err != nil {
		t.Fatalf("EnrichBatch: %v", err)
	}
	if len(enriched) != 2 {
		t.Fatalf("got %d enriched records", len(enriched))
	}
	// Sorted by CIN: the listed L-prefix key sorts first.
	if enriched[0].CIN != listedCIN || enriched[1].CIN != unlistedCIN {
		t.Errorf("order = %s, %s", enriched[0].CIN, enriched[1].CIN)
	}
	if fetcher.calls.Load() != 2 {
		t.Errorf("fetch calls = %d, want 2", fetcher.calls.Load())
	}

	// A second batch over the same companies is served from the persisted
	// cache without new fetches.
	again, err := service.EnrichBatch(context.Background(), records)
	if err != nil {
		t.Fatalf("EnrichBatch: %v", err)
	}
	if len(again) != 2 {
		t.Fatalf("got %d enriched records", len(again))
	}
	if fetcher.calls.Load() != 2 {
		t.Errorf("fetch calls after cached batch = %d, want 2", fetcher.calls.Load())
	}
}

type slowFetcher struct {
	inner Fetcher
}

func (f slowFetcher) Fetch(record domain.CompanyRecord) (domain.EnrichedRecord, error) {
	time.Sleep(time.Millisecond)
	return f.inner.Fetch(record)
}

func TestServiceEnrichBatchInterleavesHitsAndFetches(t *testing.T) {
	cache, err := NewCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}

	var records []domain.CompanyRecord
	cached := 0
	for i := 0; i < 80; i++ {
		cin := fmt.Sprintf("U72200MH2020PTC%06d", i)
		records = append(records, masterRecord(cin, "ALPHA SOFTWARE PRIVATE LIMITED"))
		if i%2 == 0 {
			cache.Put(domain.EnrichedRecord{CIN: cin, Sector: "Technology", EnrichedAt: fixedClock()})
			cached++
		}
	}
	if err := cache.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	service := NewService(slowFetcher{inner: NewStructuralFetcher(fixedClock)}, cache, nil, 4, nil)
	enriched, err := service.EnrichBatch(context.Background(), records)
	if err != nil {
		t.Fatalf("EnrichBatch: %v", err)
	}

	if len(enriched) != len(records) {
		t.Fatalf("got %d enriched records, want %d", len(enriched), len(records))
	}
	seen := make(map[string]bool, len(enriched))
	for _, record := range enriched {
		if seen[record.CIN] {
			t.Errorf("duplicate result for %s", record.CIN)
		}
		seen[record.CIN] = true
	}
	if cache.Len() != len(records) {
		t.Errorf("cache has %d entries, want %d", cache.Len(), len(records))
	}
}

func TestServiceEnrichBatchFetchError(t *testing.T) {
	cache, err := NewCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	wantErr := errors.New("portal unavailable")
	service := NewService(failingFetcher{err: wantErr}, cache, nil, 0, nil)

	_, err = service.EnrichBatch(context.Background(), []domain.CompanyRecord{
		masterRecord(unlistedCIN, "ALPHA SOFTWARE PRIVATE LIMITED"),
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}

func TestTaxRegistryFetcher(t *testing.T) {
	fetcher := NewTaxRegistryFetcher(fixedClock)

	result, err := fetcher.Fetch(masterRecord(listedCIN, "ALPHA SOFTWARE LIMITED"))
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(result.GSTIN) != 15 {
		t.Fatalf("gstin %q is %d characters, want 15", result.GSTIN, len(result.GSTIN))
	}
	if !strings.HasPrefix(result.GSTIN, "27AAPLC0001F1Z") {
		t.Errorf("gstin = %q", result.GSTIN)
	}
	if result.ComplianceStatus != "GST Registered" {
		t.Errorf("compliance status = %s", result.ComplianceStatus)
	}
	if result.Source != "GST Portal" {
		t.Errorf("source = %s", result.Source)
	}
	if !strings.Contains(result.SourceURL, result.GSTIN) {
		t.Errorf("source url = %s", result.SourceURL)
	}
	if result.Industry != "" || result.Sector != "" || len(result.Directors) != 0 {
		t.Errorf("tax registry filled registry-only fields: %+v", result)
	}

	again, err := fetcher.Fetch(masterRecord(listedCIN, "ALPHA SOFTWARE LIMITED"))
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if again.GSTIN != result.GSTIN {
		t.Errorf("gstin changed between fetches: %q vs %q", again.GSTIN, result.GSTIN)
	}
}

func TestTaxRegistryFetcherUnknownState(t *testing.T) {
	fetcher := NewTaxRegistryFetcher(fixedClock)

	result, err := fetcher.Fetch(masterRecord("U74999XX2015PTC200002", "REMOTE HOLDINGS PRIVATE LIMITED"))
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !strings.HasPrefix(result.GSTIN, "97") {
		t.Errorf("gstin = %q, want Other Territory prefix", result.GSTIN)
	}
}

func TestMultiFetcherMergesSources(t *testing.T) {
	fetcher := NewMultiFetcher(
		NewStructuralFetcher(fixedClock),
		NewTaxRegistryFetcher(fixedClock),
	)

	result, err := fetcher.Fetch(masterRecord(listedCIN, "ALPHA SOFTWARE LIMITED"))
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if result.Industry != "Computer Programming and Consultancy" {
		t.Errorf("industry = %s", result.Industry)
	}
	if result.GSTIN == "" {
		t.Error("gstin not merged from tax registry")
	}
	if result.Source != "ZaubaCorp + GST Portal" {
		t.Errorf("source = %s", result.Source)
	}
	if result.ComplianceStatus != "Compliant" {
		t.Errorf("base compliance status overwritten: %s", result.ComplianceStatus)
	}
	if !strings.Contains(result.SourceURL, "zaubacorp.com") {
		t.Errorf("source url = %s", result.SourceURL)
	}
}

func TestMultiFetcherBaseFieldsWin(t *testing.T) {
	fetcher := NewMultiFetcher(
		NewTaxRegistryFetcher(fixedClock),
		NewStructuralFetcher(fixedClock),
	)

	result, err := fetcher.Fetch(masterRecord(listedCIN, "ALPHA SOFTWARE LIMITED"))
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if result.ComplianceStatus != "GST Registered" {
		t.Errorf("compliance status = %s", result.ComplianceStatus)
	}
	if result.Industry != "Computer Programming and Consultancy" {
		t.Errorf("industry not filled by second source: %s", result.Industry)
	}
	if result.Source != "GST Portal + ZaubaCorp" {
		t.Errorf("source = %s", result.Source)
	}
}

func TestMultiFetcherPropagatesError(t *testing.T) {
	fetcher := NewMultiFetcher(
		NewStructuralFetcher(fixedClock),
		NewTaxRegistryFetcher(fixedClock),
	)

	if _, err := fetcher.Fetch(masterRecord("SHORT", "BROKEN LTD")); err == nil {
		t.Fatal("expected error for malformed cin")
	}
}

func TestRenderReport(t *testing.T) {
	records := []domain.EnrichedRecord{
		{CIN: listedCIN, Sector: "Technology", ListingStatus: "Listed", GSTIN: "27AAPLC0001F1ZX"},
		{CIN: unlistedCIN, Sector: "Professional Services", ListingStatus: "Unlisted", GSTIN: "07AAPTC0002F1ZD"},
	}

	report := RenderReport(records, fixedClock())
	if !strings.Contains(report, "Enrichment Report - 2024-06-02") {
		t.Errorf("report = %q", report)
	}
	if !strings.Contains(report, "Companies enriched:  2") {
		t.Errorf("report = %q", report)
	}
	if !strings.Contains(report, "Listed companies:    1") {
		t.Errorf("report = %q", report)
	}
	if !strings.Contains(report, "GSTIN registrations: 2") {
		t.Errorf("report = %q", report)
	}
	if !strings.Contains(report, "Technology") || !strings.Contains(report, "Professional Services") {
		t.Errorf("sector breakdown missing: %q", report)
	}
	if !strings.Contains(report, listedCIN) {
		t.Errorf("company listing missing: %q", report)
	}
}

func TestWriteReportReplacesEarlierReport(t *testing.T) {
	dir := t.TempDir()

	first, err := WriteReport(dir, []domain.EnrichedRecord{
		{CIN: listedCIN, Sector: "Technology"},
	}, fixedClock())
	if err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	if filepath.Base(first) != "enrichment_report.txt" {
		t.Errorf("report path = %s", first)
	}

	second, err := WriteReport(dir, nil, fixedClock())
	if err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	data, err := os.ReadFile(second)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "Companies enriched:  0") {
		t.Errorf("report not replaced: %q", data)
	}
	if strings.Contains(string(data), listedCIN) {
		t.Errorf("stale report content: %q", data)
	}
}
