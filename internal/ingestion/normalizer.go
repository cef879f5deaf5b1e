package ingestion

import (
	"errors"
	"fmt"

	"github.com/rpattn/regwatch/internal/domain"
)

// ErrSchema is returned when a source extract carries no column resolving to
// the identity key; without it records cannot be identified at all. Every
// other canonical column may be absent and is tolerated as missing data.
var ErrSchema = errors.New("no identity key column in source")

// Normalizer maps heterogeneous source columns onto the canonical schema.
type Normalizer struct {
	aliases domain.AliasTable
}

// NewNormalizer creates a normalizer over a validated alias table.
func NewNormalizer(aliases domain.AliasTable) Normalizer {
	return Normalizer{aliases: aliases}
}

// Normalize remaps source columns through the alias table and projects rows
// onto the canonical field set in canonical order. Canonical fields absent
// from the source become all-missing columns. When two source columns
// resolve to the same canonical field the first occurrence wins.
func (n Normalizer) Normalize(table Table) (Table, error) {
	canonical := domain.CanonicalFieldNames()

	// canonical field -> source column index
	sourceIndex := make(map[string]int, len(canonical))
	for idx, header := range table.Headers {
		name, ok := n.aliases.Resolve(header)
		if !ok {
			continue
		}
		if _, taken := sourceIndex[name]; taken {
			continue
		}
		sourceIndex[name] = idx
	}

	if _, ok := sourceIndex[domain.FieldCIN]; !ok {
		return Table{}, fmt.Errorf("%w (columns: %v)", ErrSchema, table.Headers)
	}

	rows := make([][]string, len(table.Rows))
	for i, row := range table.Rows {
		out := make([]string, len(canonical))
		for j, field := range canonical {
			idx, ok := sourceIndex[field]
			if !ok || idx >= len(row) {
				out[j] = domain.MissingValue
				continue
			}
			out[j] = row[idx]
		}
		rows[i] = out
	}

	return Table{Headers: canonical, Rows: rows}, nil
}
