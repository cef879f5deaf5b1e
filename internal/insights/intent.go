// Package insights answers natural-language questions over the master
// dataset and the accumulated change history. Classification is rule based;
// each recognized intent maps to one query strategy.
package insights

// Intent is a classified query. The Name identifies the strategy used to
// answer it.
type Intent interface {
	Name() string
}

// NewIncorporations asks for recently added companies, optionally limited
// to one state.
type NewIncorporations struct {
	State string
}

func (NewIncorporations) Name() string { return "NEW_INCORPORATIONS" }

// Deregistrations asks for recently removed companies, optionally limited
// to one state.
type Deregistrations struct {
	State string
}

func (Deregistrations) Name() string { return "DEREGISTRATIONS" }

// CapitalThreshold asks for companies whose authorized capital exceeds a
// rupee amount, optionally limited to a business activity keyword.
type CapitalThreshold struct {
	AmountINR float64
	Sector    string
}

func (CapitalThreshold) Name() string { return "CAPITAL_THRESHOLD" }

// SectorFilter asks for companies in one business activity.
type SectorFilter struct {
	Sector string
}

func (SectorFilter) Name() string { return "SECTOR_FILTER" }

// StateFilter asks for the companies registered in one state.
type StateFilter struct {
	State string
}

func (StateFilter) Name() string { return "STATE_FILTER" }

// StatusBreakdown asks for the company count per registration status.
type StatusBreakdown struct{}

func (StatusBreakdown) Name() string { return "STATUS_BREAKDOWN" }

// CountQuery asks for a headline count. Subject is one of "companies",
// "active" or "changes".
type CountQuery struct {
	Subject string
}

func (CountQuery) Name() string { return "COUNT" }

// Generic is the fallback for unrecognized queries.
type Generic struct{}

func (Generic) Name() string { return "GENERIC" }
