// Package enrichment derives supplementary company attributes from the CIN
// structure and caches them alongside the detection artifacts.
package enrichment

import (
	"fmt"

	"github.com/rpattn/regwatch/internal/domain"
)

// CINInfo is the structural decomposition of a 21-character CIN: listing
// marker, five-digit industry code, two-letter state code, four-digit
// incorporation year and three-letter company type.
type CINInfo struct {
	ListingStatus string
	IndustryCode  string
	StateCode     string
	Year          string
	CompanyType   string
}

// ParseCIN decomposes a CIN into its structural segments. Only the length
// is validated here; segment plausibility is the source registry's problem.
func ParseCIN(cin string) (CINInfo, error) {
	if len(cin) != domain.CINLength {
		return CINInfo{}, fmt.Errorf("cin %q is not %d characters", cin, domain.CINLength)
	}

	info := CINInfo{
		ListingStatus: "Unlisted",
		IndustryCode:  cin[1:6],
		StateCode:     cin[6:8],
		Year:          cin[8:12],
		CompanyType:   cin[12:15],
	}
	if cin[0] == 'L' {
		info.ListingStatus = "Listed"
	}
	return info, nil
}
