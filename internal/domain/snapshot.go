package domain

import (
	"fmt"
)

// Snapshot is a complete, point-in-time collection of company records,
// unique by CIN, tagged with an opaque date label. Ordering between
// snapshots is the caller's responsibility; the engine never infers
// chronology from content.
type Snapshot struct {
	Label   string
	records []CompanyRecord
	index   map[string]int
}

// NewSnapshot builds a snapshot from records, rejecting duplicate identity
// keys. Record order is preserved as iteration order.
func NewSnapshot(label string, records []CompanyRecord) (Snapshot, error) {
	snap := Snapshot{
		Label:   label,
		records: append([]CompanyRecord(nil), records...),
		index:   make(map[string]int, len(records)),
	}
	for i, record := range snap.records {
		if record.CIN == "" {
			continue
		}
		if _, ok := snap.index[record.CIN]; ok {
			return Snapshot{}, fmt.Errorf("duplicate identity key %s in snapshot %s", record.CIN, label)
		}
		snap.index[record.CIN] = i
	}
	return snap, nil
}

// Len returns the number of records in the snapshot.
func (s Snapshot) Len() int {
	return len(s.records)
}

// Records returns the records in iteration order.
func (s Snapshot) Records() []CompanyRecord {
	return append([]CompanyRecord(nil), s.records...)
}

// Record returns the record for an identity key, if present.
func (s Snapshot) Record(cin string) (CompanyRecord, bool) {
	i, ok := s.index[cin]
	if !ok {
		return CompanyRecord{}, false
	}
	return s.records[i], true
}

// Keys returns the identity keys in iteration order.
func (s Snapshot) Keys() []string {
	keys := make([]string, 0, len(s.index))
	for _, record := range s.records {
		if record.CIN != "" {
			keys = append(keys, record.CIN)
		}
	}
	return keys
}

// KeySet returns the identity keys as a set.
func (s Snapshot) KeySet() map[string]struct{} {
	set := make(map[string]struct{}, len(s.index))
	for key := range s.index {
		set[key] = struct{}{}
	}
	return set
}

// HasIdentityKeys reports whether every record in the snapshot carries an
// identity key. A snapshot that fails this check cannot be diffed.
func (s Snapshot) HasIdentityKeys() bool {
	for _, record := range s.records {
		if record.CIN == "" {
			return false
		}
	}
	return true
}
