package domain

// Summary reduces one change log into counts and breakdowns. It is the
// record consumed by the dashboard and the query responder, so that neither
// has to re-read raw logs.
type Summary struct {
	Date             string         `json:"date"`
	TotalChanges     int            `json:"total_changes"`
	Additions        int            `json:"new_incorporations"`
	Removals         int            `json:"deregistrations"`
	Updates          int            `json:"field_updates"`
	AffectedEntities int            `json:"affected_entities"`
	AffectedStates   []string       `json:"affected_states"`
	FieldBreakdown   map[string]int `json:"field_change_breakdown"`
}
