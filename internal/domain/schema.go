package domain

import (
	"fmt"
	"strings"
)

// FieldType represents the type of a canonical registry field
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeDate    FieldType = "date"
	FieldTypeDecimal FieldType = "decimal"
)

// FieldDefinition represents one field of the canonical company schema
type FieldDefinition struct {
	Name string    `json:"name"`
	Type FieldType `json:"type"`
}

// Canonical field names. FieldCIN is the identity key joining records across
// snapshots; it is fixed-length (21 characters in MCA extracts).
const (
	FieldCIN               = "CIN"
	FieldCompanyName       = "COMPANY_NAME"
	FieldCompanyClass      = "COMPANY_CLASS"
	FieldCompanyCategory   = "COMPANY_CATEGORY"
	FieldCompanySubCat     = "COMPANY_SUB_CATEGORY"
	FieldDateOfInc         = "DATE_OF_INCORPORATION"
	FieldAuthorizedCapital = "AUTHORIZED_CAPITAL"
	FieldPaidupCapital     = "PAIDUP_CAPITAL"
	FieldCompanyStatus     = "COMPANY_STATUS"
	FieldBusinessActivity  = "PRINCIPAL_BUSINESS_ACTIVITY"
	FieldOfficeAddress     = "REGISTERED_OFFICE_ADDRESS"
	FieldROCCode           = "ROC_CODE"
	FieldState             = "STATE"
)

// CINLength is the exact identity key length accepted by the cleaner.
const CINLength = 21

// MissingValue is the sentinel for an absent field value. It propagates
// silently through cleaning and diffing; a both-missing pair is not a change.
const MissingValue = ""

// CanonicalFields returns the canonical field set in canonical order.
// Normalized tables always carry exactly these columns.
func CanonicalFields() []FieldDefinition {
	return []FieldDefinition{
		{Name: FieldCIN, Type: FieldTypeString},
		{Name: FieldCompanyName, Type: FieldTypeString},
		{Name: FieldCompanyClass, Type: FieldTypeString},
		{Name: FieldCompanyCategory, Type: FieldTypeString},
		{Name: FieldCompanySubCat, Type: FieldTypeString},
		{Name: FieldDateOfInc, Type: FieldTypeDate},
		{Name: FieldAuthorizedCapital, Type: FieldTypeDecimal},
		{Name: FieldPaidupCapital, Type: FieldTypeDecimal},
		{Name: FieldCompanyStatus, Type: FieldTypeString},
		{Name: FieldBusinessActivity, Type: FieldTypeString},
		{Name: FieldOfficeAddress, Type: FieldTypeString},
		{Name: FieldROCCode, Type: FieldTypeString},
		{Name: FieldState, Type: FieldTypeString},
	}
}

// CanonicalFieldNames returns the canonical column names in canonical order.
func CanonicalFieldNames() []string {
	fields := CanonicalFields()
	names := make([]string, len(fields))
	for i, field := range fields {
		names[i] = field.Name
	}
	return names
}

// AliasTable maps source column labels onto canonical fields. It is built
// once at startup from a statically declared alias set and rejects aliases
// that would remap to more than one canonical target.
type AliasTable struct {
	fields  []FieldDefinition
	aliases map[string]string
}

// NewAliasTable builds an alias table for the given canonical fields.
// Every canonical name is an alias for itself; the extra alias sets map
// legacy or source-specific labels onto canonical names.
func NewAliasTable(fields []FieldDefinition, aliasSets map[string][]string) (AliasTable, error) {
	table := AliasTable{
		fields:  append([]FieldDefinition(nil), fields...),
		aliases: make(map[string]string, len(fields)+len(aliasSets)),
	}

	known := make(map[string]bool, len(fields))
	for _, field := range fields {
		key := normalizeLabel(field.Name)
		if table.aliases[key] != "" {
			return AliasTable{}, fmt.Errorf("duplicate canonical field %s", field.Name)
		}
		table.aliases[key] = field.Name
		known[field.Name] = true
	}

	for canonical, aliases := range aliasSets {
		if !known[canonical] {
			return AliasTable{}, fmt.Errorf("alias target %s is not a canonical field", canonical)
		}
		for _, alias := range aliases {
			key := normalizeLabel(alias)
			if existing, ok := table.aliases[key]; ok && existing != canonical {
				return AliasTable{}, fmt.Errorf("alias %s maps to both %s and %s", alias, existing, canonical)
			}
			table.aliases[key] = canonical
		}
	}

	return table, nil
}

// DefaultAliasTable returns the alias table for MCA-style extracts.
func DefaultAliasTable() (AliasTable, error) {
	return NewAliasTable(CanonicalFields(), map[string][]string{
		FieldCIN:       {"CORPORATE_IDENTIFICATION_NUMBER"},
		FieldDateOfInc: {"DATE_OF_REGISTRATION"},
	})
}

// Resolve maps a raw column label to its canonical field name. The label is
// case- and whitespace-normalized before lookup.
func (t AliasTable) Resolve(label string) (string, bool) {
	canonical, ok := t.aliases[normalizeLabel(label)]
	return canonical, ok
}

// Fields returns the canonical field definitions in canonical order.
func (t AliasTable) Fields() []FieldDefinition {
	return append([]FieldDefinition(nil), t.fields...)
}

func normalizeLabel(label string) string {
	label = strings.ToUpper(strings.TrimSpace(label))
	label = strings.Join(strings.Fields(label), "_")
	label = strings.ReplaceAll(label, "-", "_")
	label = strings.ReplaceAll(label, ".", "_")
	return strings.Trim(label, "_")
}
