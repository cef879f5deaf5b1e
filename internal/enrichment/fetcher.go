package enrichment

import (
	"strings"
	"time"

	"github.com/rpattn/regwatch/internal/domain"
)

// Fetcher derives enrichment attributes for a company. The stock fetcher is
// deterministic and offline; it stands in for the registry and corporate
// data portals the production deployment would call.
type Fetcher interface {
	Fetch(record domain.CompanyRecord) (domain.EnrichedRecord, error)
}

const registrySource = "ZaubaCorp"

// Industry classification keyed by the first two digits of the CIN industry
// code, matching NIC section prefixes.
var industryByPrefix = map[string]string{
	"74": "Professional, Scientific and Technical Activities",
	"72": "Computer Programming and Consultancy",
	"62": "Information Service Activities",
	"64": "Financial Service Activities",
	"68": "Real Estate Activities",
	"46": "Wholesale Trade",
	"47": "Retail Trade",
}

var sectorByPrefix = map[string]string{
	"72": "Technology",
	"74": "Professional Services",
	"62": "Information Technology",
	"64": "Financial Services",
	"68": "Real Estate",
	"46": "Trading",
	"47": "Retail",
	"10": "Manufacturing",
	"35": "Power & Energy",
}

var directorFirstNames = []string{"Rajesh", "Priya", "Amit", "Sunita", "Vikram", "Anita"}
var directorLastNames = []string{"Kumar", "Sharma", "Patel", "Singh", "Gupta", "Mehta"}

// StructuralFetcher derives every attribute from the CIN itself, so repeated
// runs over the same snapshot produce identical enrichment.
type StructuralFetcher struct {
	now func() time.Time
}

// NewStructuralFetcher creates a fetcher; a nil clock uses time.Now.
func NewStructuralFetcher(now func() time.Time) *StructuralFetcher {
	if now == nil {
		now = time.Now
	}
	return &StructuralFetcher{now: now}
}

// Fetch derives the enriched record for a company.
func (f *StructuralFetcher) Fetch(record domain.CompanyRecord) (domain.EnrichedRecord, error) {
	info, err := ParseCIN(record.CIN)
	if err != nil {
		return domain.EnrichedRecord{}, err
	}

	prefix := info.IndustryCode[:2]
	industry, ok := industryByPrefix[prefix]
	if !ok {
		industry = "Other Business Activities"
	}
	sector, ok := sectorByPrefix[prefix]
	if !ok {
		sector = "Other Services"
	}

	return domain.EnrichedRecord{
		CIN:              record.CIN,
		Industry:         industry,
		Sector:           sector,
		Directors:        mockDirectors(record.Attribute(domain.FieldCompanyName)),
		ListingStatus:    info.ListingStatus,
		ComplianceStatus: "Compliant",
		Source:           registrySource,
		SourceURL:        "https://www.zaubacorp.com/company/" + record.CIN,
		EnrichedAt:       f.now().UTC(),
	}, nil
}

// mockDirectors fabricates a plausible board. Private companies get two
// directors, everything else three.
func mockDirectors(companyName string) []string {
	count := 3
	if strings.Contains(strings.ToUpper(companyName), "PRIVATE") {
		count = 2
	}
	directors := make([]string, 0, count)
	for i := 0; i < count; i++ {
		directors = append(directors,
			directorFirstNames[i%len(directorFirstNames)]+" "+directorLastNames[i%len(directorLastNames)])
	}
	return directors
}
