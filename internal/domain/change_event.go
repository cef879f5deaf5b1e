package domain

// ChangeKind classifies a detected difference between two snapshots.
type ChangeKind string

const (
	ChangeAddition    ChangeKind = "ADDITION"
	ChangeRemoval     ChangeKind = "REMOVAL"
	ChangeFieldUpdate ChangeKind = "FIELD_UPDATE"
)

// Sentinel values used by the tabular change-log encoding.
const (
	FieldChangedAll   = "ALL"
	ValueIncorporated = "INCORPORATED"
	ValueDeregistered = "DEREGISTERED"
)

// ChangeEvent is one detected difference. ADDITION and REMOVAL events carry
// the full record (new state for additions, last-known state for removals);
// FIELD_UPDATE events carry the changed field with its old and new values.
// CompanyName, State and Status are denormalized onto the event so they
// survive serialization without the full record.
type ChangeEvent struct {
	Kind        ChangeKind
	CIN         string
	CompanyName string
	Field       string
	OldValue    string
	NewValue    string
	State       string
	Status      string
	Record      *CompanyRecord
}

// ChangeLog is the immutable sequence of change events for one detection
// run, tagged with the detection date of the newer snapshot.
type ChangeLog struct {
	DetectionDate string
	Events        []ChangeEvent
}

// Additions returns the ADDITION events.
func (l ChangeLog) Additions() []ChangeEvent { return l.byKind(ChangeAddition) }

// Removals returns the REMOVAL events.
func (l ChangeLog) Removals() []ChangeEvent { return l.byKind(ChangeRemoval) }

// FieldUpdates returns the FIELD_UPDATE events.
func (l ChangeLog) FieldUpdates() []ChangeEvent { return l.byKind(ChangeFieldUpdate) }

func (l ChangeLog) byKind(kind ChangeKind) []ChangeEvent {
	var events []ChangeEvent
	for _, event := range l.Events {
		if event.Kind == kind {
			events = append(events, event)
		}
	}
	return events
}

// AffectedKeys returns the distinct identity keys across all events, in
// first-seen order.
func (l ChangeLog) AffectedKeys() []string {
	seen := make(map[string]struct{}, len(l.Events))
	var keys []string
	for _, event := range l.Events {
		if _, ok := seen[event.CIN]; ok {
			continue
		}
		seen[event.CIN] = struct{}{}
		keys = append(keys, event.CIN)
	}
	return keys
}

// LogRow is the tabular encoding of one change event. Column names match the
// change-log file header; the record-oriented JSON form serializes the same
// fields.
type LogRow struct {
	CIN          string `json:"CIN"`
	CompanyName  string `json:"COMPANY_NAME"`
	ChangeType   string `json:"CHANGE_TYPE"`
	FieldChanged string `json:"FIELD_CHANGED"`
	OldValue     string `json:"OLD_VALUE"`
	NewValue     string `json:"NEW_VALUE"`
	Date         string `json:"DATE"`
	State        string `json:"STATE"`
	Status       string `json:"STATUS"`
}

// LogColumns is the change-log file header, in order.
func LogColumns() []string {
	return []string{
		"CIN", "COMPANY_NAME", "CHANGE_TYPE", "FIELD_CHANGED",
		"OLD_VALUE", "NEW_VALUE", "DATE", "STATE", "STATUS",
	}
}

// Row encodes the event for the change-log files. Additions report ALL
// fields changed with an INCORPORATED marker; removals report the status
// field moving to DEREGISTERED from its last known value.
func (e ChangeEvent) Row(detectionDate string) LogRow {
	row := LogRow{
		CIN:         e.CIN,
		CompanyName: e.CompanyName,
		ChangeType:  string(e.Kind),
		Date:        detectionDate,
		State:       e.State,
		Status:      e.Status,
	}
	switch e.Kind {
	case ChangeAddition:
		row.FieldChanged = FieldChangedAll
		row.NewValue = ValueIncorporated
	case ChangeRemoval:
		row.FieldChanged = FieldCompanyStatus
		row.OldValue = e.OldValue
		row.NewValue = ValueDeregistered
		row.Status = ValueDeregistered
	case ChangeFieldUpdate:
		row.FieldChanged = e.Field
		row.OldValue = e.OldValue
		row.NewValue = e.NewValue
	}
	return row
}

// Rows encodes the full log in event order.
func (l ChangeLog) Rows() []LogRow {
	rows := make([]LogRow, len(l.Events))
	for i, event := range l.Events {
		rows[i] = event.Row(l.DetectionDate)
	}
	return rows
}

// ChangeLogFromRows rebuilds a change log from its serialized rows. Full
// records are not recoverable from rows; reloaded ADDITION and REMOVAL
// events carry only what the row encodes, which is sufficient for
// aggregation.
func ChangeLogFromRows(detectionDate string, rows []LogRow) ChangeLog {
	log := ChangeLog{DetectionDate: detectionDate}
	for _, row := range rows {
		event := ChangeEvent{
			Kind:        ChangeKind(row.ChangeType),
			CIN:         row.CIN,
			CompanyName: row.CompanyName,
			State:       row.State,
			Status:      row.Status,
		}
		switch event.Kind {
		case ChangeRemoval:
			event.OldValue = row.OldValue
		case ChangeFieldUpdate:
			event.Field = row.FieldChanged
			event.OldValue = row.OldValue
			event.NewValue = row.NewValue
		}
		log.Events = append(log.Events, event)
	}
	return log
}
