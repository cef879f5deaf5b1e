package enrichment

import (
	"strings"

	"github.com/rpattn/regwatch/internal/domain"
)

// MultiFetcher queries several sources for one company and merges the
// results. The first fetcher is the base; later fetchers only fill fields
// the earlier ones left empty. Sources are recorded joined with " + ".
type MultiFetcher struct {
	fetchers []Fetcher
}

// NewMultiFetcher combines fetchers in priority order.
func NewMultiFetcher(fetchers ...Fetcher) *MultiFetcher {
	return &MultiFetcher{fetchers: fetchers}
}

// Fetch merges the enriched records from every source. A source error fails
// the whole fetch; the sources here are offline and deterministic, so a
// failure means a malformed CIN rather than a flaky portal.
func (m *MultiFetcher) Fetch(record domain.CompanyRecord) (domain.EnrichedRecord, error) {
	var merged domain.EnrichedRecord
	var sources []string
	for i, fetcher := range m.fetchers {
		result, err := fetcher.Fetch(record)
		if err != nil {
			return domain.EnrichedRecord{}, err
		}
		if result.Source != "" {
			sources = append(sources, result.Source)
		}
		if i == 0 {
			merged = result
			continue
		}
		fillEmpty(&merged, result)
	}
	merged.Source = strings.Join(sources, " + ")
	return merged, nil
}

// fillEmpty copies fields from next that base does not already have.
func fillEmpty(base *domain.EnrichedRecord, next domain.EnrichedRecord) {
	if base.Industry == "" {
		base.Industry = next.Industry
	}
	if base.Sector == "" {
		base.Sector = next.Sector
	}
	if len(base.Directors) == 0 {
		base.Directors = next.Directors
	}
	if base.ListingStatus == "" {
		base.ListingStatus = next.ListingStatus
	}
	if base.ComplianceStatus == "" {
		base.ComplianceStatus = next.ComplianceStatus
	}
	if base.GSTIN == "" {
		base.GSTIN = next.GSTIN
	}
	if base.SourceURL == "" {
		base.SourceURL = next.SourceURL
	}
}
