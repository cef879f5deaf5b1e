package enrichment

import (
	"time"

	"github.com/rpattn/regwatch/internal/domain"
)

const taxSource = "GST Portal"

// GST numeric state codes keyed by the two-letter CIN state code. States
// outside the map fall back to 97, the Other Territory jurisdiction.
var gstStateCodes = map[string]string{
	"MH": "27",
	"GJ": "24",
	"DL": "07",
	"TN": "33",
	"KA": "29",
	"WB": "19",
	"UP": "09",
	"RJ": "08",
	"AP": "37",
	"TG": "36",
	"HR": "06",
	"PB": "03",
	"KL": "32",
}

// TaxRegistryFetcher derives a tax registration for a company from its CIN.
// Like the registry fetcher it is deterministic and offline; it stands in
// for the GST portal lookup.
type TaxRegistryFetcher struct {
	now func() time.Time
}

// NewTaxRegistryFetcher creates a fetcher; a nil clock uses time.Now.
func NewTaxRegistryFetcher(now func() time.Time) *TaxRegistryFetcher {
	if now == nil {
		now = time.Now
	}
	return &TaxRegistryFetcher{now: now}
}

// Fetch derives the GSTIN attributes for a company. Fields the tax registry
// does not know about are left empty for another source to fill.
func (f *TaxRegistryFetcher) Fetch(record domain.CompanyRecord) (domain.EnrichedRecord, error) {
	info, err := ParseCIN(record.CIN)
	if err != nil {
		return domain.EnrichedRecord{}, err
	}

	gstin := mockGSTIN(info, record.CIN)
	return domain.EnrichedRecord{
		CIN:              record.CIN,
		ComplianceStatus: "GST Registered",
		GSTIN:            gstin,
		Source:           taxSource,
		SourceURL:        "https://services.gst.gov.in/services/searchtp?gstin=" + gstin,
		EnrichedAt:       f.now().UTC(),
	}, nil
}

// mockGSTIN builds a 15-character GSTIN: two-digit state code, a ten
// character PAN segment, entity number 1, the literal Z and a check
// character. The PAN segment reuses the CIN company type and registration
// digits so the same CIN always yields the same GSTIN.
func mockGSTIN(info CINInfo, cin string) string {
	state, ok := gstStateCodes[info.StateCode]
	if !ok {
		state = "97"
	}
	pan := "AA" + info.CompanyType + cin[len(cin)-4:] + "F"
	return state + pan + "1Z" + checkCharacter(cin)
}

// checkCharacter folds the CIN bytes into a single base-36 character.
func checkCharacter(cin string) string {
	sum := 0
	for i := 0; i < len(cin); i++ {
		sum += int(cin[i])
	}
	const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	return string(alphabet[sum%len(alphabet)])
}
