package insights

import (
	"regexp"
	"strconv"
	"strings"
)

// Recognized state names, lowercase query token to canonical form.
var stateNames = map[string]string{
	"maharashtra": "MAHARASHTRA",
	"gujarat":     "GUJARAT",
	"delhi":       "DELHI",
	"tamil nadu":  "TAMIL NADU",
	"karnataka":   "KARNATAKA",
}

var capitalAmountPattern = regexp.MustCompile(`(\d+)\s*(lakh|crore)`)

const (
	rupeesPerLakh  = 100_000
	rupeesPerCrore = 10_000_000
)

// Classify maps a free-text query to an intent. Rules are checked in a
// fixed order, so a query matching several patterns always resolves the
// same way; a mentioned state narrows whichever intent wins.
func Classify(query string) Intent {
	q := strings.ToLower(query)
	state := extractState(q)

	switch {
	case strings.Contains(q, "incorporation") || strings.Contains(q, "incorporated"):
		return NewIncorporations{State: state}

	case strings.Contains(q, "struck off") || strings.Contains(q, "deregist"):
		return Deregistrations{State: state}

	case strings.Contains(q, "capital") && hasComparator(q):
		if amount, ok := extractCapital(q); ok {
			return CapitalThreshold{AmountINR: amount, Sector: extractSector(q)}
		}
		return Generic{}

	case extractSector(q) != "":
		return SectorFilter{Sector: extractSector(q)}

	case state != "":
		return StateFilter{State: state}

	case strings.Contains(q, "status"):
		return StatusBreakdown{}

	case strings.Contains(q, "total") || strings.Contains(q, "how many") || strings.Contains(q, "count"):
		return CountQuery{Subject: countSubject(q)}

	default:
		return Generic{}
	}
}

func extractState(q string) string {
	for token, state := range stateNames {
		if strings.Contains(q, token) {
			return state
		}
	}
	return ""
}

func hasComparator(q string) bool {
	return strings.Contains(q, "above") || strings.Contains(q, "greater") || strings.Contains(q, "more than")
}

// extractCapital parses "10 lakh" or "1 crore" into rupees.
func extractCapital(q string) (float64, bool) {
	match := capitalAmountPattern.FindStringSubmatch(q)
	if match == nil {
		return 0, false
	}
	amount, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}
	switch match[2] {
	case "lakh":
		return amount * rupeesPerLakh, true
	case "crore":
		return amount * rupeesPerCrore, true
	}
	return 0, false
}

// extractSector recognizes business activity keywords. Only manufacturing
// has a dedicated strategy; the master data stores activities as free text.
func extractSector(q string) string {
	if strings.Contains(q, "manufacturing") {
		return "MANUFACTURING"
	}
	return ""
}

func countSubject(q string) string {
	switch {
	case strings.Contains(q, "active"):
		return "active"
	case strings.Contains(q, "change"):
		return "changes"
	default:
		return "companies"
	}
}
