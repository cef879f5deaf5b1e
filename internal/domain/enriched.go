package domain

import (
	"time"
)

// EnrichedRecord carries supplementary attributes for one company, keyed by
// CIN. Enrichment is produced outside the detection core and merged
// downstream of it; the core never reads these.
type EnrichedRecord struct {
	CIN              string    `json:"cin"`
	Industry         string    `json:"industry"`
	Sector           string    `json:"sector"`
	Directors        []string  `json:"directors"`
	ListingStatus    string    `json:"listing_status"`
	ComplianceStatus string    `json:"compliance_status"`
	GSTIN            string    `json:"gstin"`
	Source           string    `json:"source"`
	SourceURL        string    `json:"source_url"`
	EnrichedAt       time.Time `json:"enriched_at"`
}
