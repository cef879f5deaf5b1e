package domain

import (
	"time"
)

// CompanyRecord is one company registration at a point in time. Attribute
// values are stored in their canonical stringified form (dates as 2006-01-02,
// decimals as their shortest exact representation) so that downstream diffing
// compares the same text the change log serializes.
type CompanyRecord struct {
	CIN               string            `json:"cin"`
	Attributes        map[string]string `json:"attributes"`
	CompletenessScore float64           `json:"completeness_score"`
	LastUpdated       time.Time         `json:"last_updated"`
}

// NewCompanyRecord creates a record with a defensive copy of attributes.
func NewCompanyRecord(cin string, attributes map[string]string, score float64, updated time.Time) CompanyRecord {
	return CompanyRecord{
		CIN:               cin,
		Attributes:        copyAttributes(attributes),
		CompletenessScore: score,
		LastUpdated:       updated,
	}
}

// Attribute returns the stringified value of a canonical field, or the
// missing sentinel when the field is absent.
func (r CompanyRecord) Attribute(name string) string {
	if r.Attributes == nil {
		return MissingValue
	}
	return r.Attributes[name]
}

// Missing reports whether a canonical field has no value on this record.
func (r CompanyRecord) Missing(name string) bool {
	return r.Attribute(name) == MissingValue
}

// WithAttribute returns a copy of the record with one attribute replaced.
func (r CompanyRecord) WithAttribute(name, value string) CompanyRecord {
	attrs := copyAttributes(r.Attributes)
	attrs[name] = value
	return CompanyRecord{
		CIN:               r.CIN,
		Attributes:        attrs,
		CompletenessScore: r.CompletenessScore,
		LastUpdated:       r.LastUpdated,
	}
}

// ValidCIN reports whether an identity key satisfies the fixed-format
// constraint: exact length, alphanumeric, no embedded whitespace.
func ValidCIN(cin string) bool {
	if len(cin) != CINLength {
		return false
	}
	for _, c := range cin {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'A' && c <= 'Z':
		case c >= 'a' && c <= 'z':
		default:
			return false
		}
	}
	return true
}

func copyAttributes(input map[string]string) map[string]string {
	out := make(map[string]string, len(input))
	for key, value := range input {
		out[key] = value
	}
	return out
}
