package detector

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rpattn/regwatch/internal/domain"
)

// ErrInput is returned when a snapshot cannot be diffed because it lacks
// identity keys. Missing optional fields never fail a run; they compare as
// missing values.
var ErrInput = errors.New("snapshot lacks identity keys")

// DefaultTrackedFields returns the canonical fields monitored for change
// detection. Fields outside this set are ignored by the diff even when
// their values differ.
func DefaultTrackedFields() []string {
	return []string{
		domain.FieldCompanyName,
		domain.FieldCompanyClass,
		domain.FieldCompanyStatus,
		domain.FieldAuthorizedCapital,
		domain.FieldPaidupCapital,
		domain.FieldBusinessActivity,
		domain.FieldOfficeAddress,
	}
}

// Detect computes the change log between two chronologically ordered
// snapshots. Keys only in new become ADDITION events carrying the new
// record; keys only in old become REMOVAL events carrying the last known
// record; keys in both are scanned per tracked field, emitting one
// FIELD_UPDATE per changed field per key.
//
// Comparison is exact string equality over the stringified values. That is
// deliberate: values are canonicalized at cleaning time, and a
// formatting-only difference that survives cleaning is reported as a change
// rather than guessed away. A pair where both sides are missing is not a
// change.
//
// Detect only reads its inputs and never raises for missing optional
// fields; it fails with ErrInput when either snapshot carries records
// without identity keys.
func Detect(oldSnap, newSnap domain.Snapshot, trackedFields []string, detectionDate string) (domain.ChangeLog, error) {
	if !oldSnap.HasIdentityKeys() {
		return domain.ChangeLog{}, fmt.Errorf("old snapshot %s: %w", oldSnap.Label, ErrInput)
	}
	if !newSnap.HasIdentityKeys() {
		return domain.ChangeLog{}, fmt.Errorf("new snapshot %s: %w", newSnap.Label, ErrInput)
	}

	log := domain.ChangeLog{DetectionDate: detectionDate}

	oldKeys := oldSnap.KeySet()
	newKeys := newSnap.KeySet()

	// added = new − old, removed = old − new. A key lands in at most one of
	// the two, and common keys are excluded from both before the field scan,
	// so the event sets are disjoint by construction.
	var added, removed []string
	for key := range newKeys {
		if _, ok := oldKeys[key]; !ok {
			added = append(added, key)
		}
	}
	for key := range oldKeys {
		if _, ok := newKeys[key]; !ok {
			removed = append(removed, key)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)

	for _, key := range added {
		record, _ := newSnap.Record(key)
		log.Events = append(log.Events, additionEvent(record))
	}
	for _, key := range removed {
		record, _ := oldSnap.Record(key)
		log.Events = append(log.Events, removalEvent(record))
	}

	// Common keys in new-snapshot iteration order.
	for _, key := range newSnap.Keys() {
		if _, ok := oldKeys[key]; !ok {
			continue
		}
		oldRecord, _ := oldSnap.Record(key)
		newRecord, _ := newSnap.Record(key)

		for _, field := range trackedFields {
			oldValue := oldRecord.Attribute(field)
			newValue := newRecord.Attribute(field)
			if oldValue == newValue {
				continue
			}
			if oldValue == domain.MissingValue && newValue == domain.MissingValue {
				continue
			}
			log.Events = append(log.Events, domain.ChangeEvent{
				Kind:        domain.ChangeFieldUpdate,
				CIN:         key,
				CompanyName: newRecord.Attribute(domain.FieldCompanyName),
				Field:       field,
				OldValue:    oldValue,
				NewValue:    newValue,
				State:       newRecord.Attribute(domain.FieldState),
				Status:      newRecord.Attribute(domain.FieldCompanyStatus),
			})
		}
	}

	return log, nil
}

func additionEvent(record domain.CompanyRecord) domain.ChangeEvent {
	rec := record
	return domain.ChangeEvent{
		Kind:        domain.ChangeAddition,
		CIN:         record.CIN,
		CompanyName: record.Attribute(domain.FieldCompanyName),
		State:       record.Attribute(domain.FieldState),
		Status:      record.Attribute(domain.FieldCompanyStatus),
		Record:      &rec,
	}
}

func removalEvent(record domain.CompanyRecord) domain.ChangeEvent {
	rec := record
	return domain.ChangeEvent{
		Kind:        domain.ChangeRemoval,
		CIN:         record.CIN,
		CompanyName: record.Attribute(domain.FieldCompanyName),
		OldValue:    record.Attribute(domain.FieldCompanyStatus),
		State:       record.Attribute(domain.FieldState),
		Status:      domain.ValueDeregistered,
		Record:      &rec,
	}
}
