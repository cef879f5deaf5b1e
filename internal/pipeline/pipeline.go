// Package pipeline orchestrates the detection run: load two snapshots,
// diff them, persist the change log and its daily summary, and mirror the
// rows into the database when one is configured.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rpattn/regwatch/internal/changelog"
	"github.com/rpattn/regwatch/internal/detector"
	"github.com/rpattn/regwatch/internal/domain"
	"github.com/rpattn/regwatch/internal/repository"
	"github.com/rpattn/regwatch/internal/snapshot"
	"github.com/rpattn/regwatch/internal/summary"
)

// ErrNotEnoughSnapshots is returned by DetectLatest when fewer than two
// snapshots are stored.
var ErrNotEnoughSnapshots = errors.New("need at least two snapshots")

// Result describes one completed detection run.
type Result struct {
	OldLabel  string              `json:"old_label"`
	NewLabel  string              `json:"new_label"`
	Summary   domain.Summary      `json:"summary"`
	Artifacts changelog.Artifacts `json:"artifacts"`
}

// Pipeline wires the detection stages together. changes may be nil when no
// database is configured.
type Pipeline struct {
	snapshots     *snapshot.Store
	writer        *changelog.Writer
	reporter      *summary.Reporter
	changes       repository.ChangeRepository
	trackedFields []string
	log           *zap.SugaredLogger
}

// New wires a pipeline. Empty trackedFields means the default set.
func New(snapshots *snapshot.Store, writer *changelog.Writer, reporter *summary.Reporter,
	changes repository.ChangeRepository, trackedFields []string, log *zap.SugaredLogger) *Pipeline {
	if len(trackedFields) == 0 {
		trackedFields = detector.DefaultTrackedFields()
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Pipeline{
		snapshots:     snapshots,
		writer:        writer,
		reporter:      reporter,
		changes:       changes,
		trackedFields: trackedFields,
		log:           log,
	}
}

// DetectBetween runs detection for one snapshot pair. The newer snapshot's
// label is the detection date. Re-running a pair overwrites the previous
// artifacts and database rows for that date.
func (p *Pipeline) DetectBetween(ctx context.Context, oldLabel, newLabel string) (Result, error) {
	oldSnap, err := p.snapshots.Load(oldLabel)
	if err != nil {
		return Result{}, err
	}
	newSnap, err := p.snapshots.Load(newLabel)
	if err != nil {
		return Result{}, err
	}

	log, err := detector.Detect(oldSnap, newSnap, p.trackedFields, newLabel)
	if err != nil {
		return Result{}, err
	}

	artifacts, err := p.writer.Write(log)
	if err != nil {
		return Result{}, err
	}

	sum := summary.Summarize(log)
	if err := p.reporter.Write(sum); err != nil {
		return Result{}, err
	}

	if p.changes != nil {
		if err := p.changes.ReplaceForDate(ctx, log.DetectionDate, log.Rows()); err != nil {
			return Result{}, fmt.Errorf("failed to sink change rows: %w", err)
		}
	}

	p.log.Infow("detection run complete",
		"old", oldLabel,
		"new", newLabel,
		"additions", sum.Additions,
		"removals", sum.Removals,
		"field_updates", sum.Updates)

	return Result{OldLabel: oldLabel, NewLabel: newLabel, Summary: sum, Artifacts: artifacts}, nil
}

// DetectLatest diffs the two most recent snapshots.
func (p *Pipeline) DetectLatest(ctx context.Context) (Result, error) {
	labels, err := p.snapshots.Labels()
	if err != nil {
		return Result{}, err
	}
	if len(labels) < 2 {
		return Result{}, ErrNotEnoughSnapshots
	}
	return p.DetectBetween(ctx, labels[len(labels)-2], labels[len(labels)-1])
}

// SummarizeAll re-runs detection over every adjacent snapshot pair in
// chronological order, rebuilding the full change history.
func (p *Pipeline) SummarizeAll(ctx context.Context) ([]Result, error) {
	labels, err := p.snapshots.Labels()
	if err != nil {
		return nil, err
	}
	if len(labels) < 2 {
		return nil, ErrNotEnoughSnapshots
	}

	results := make([]Result, 0, len(labels)-1)
	for i := 1; i < len(labels); i++ {
		result, err := p.DetectBetween(ctx, labels[i-1], labels[i])
		if err != nil {
			return nil, fmt.Errorf("pair %s -> %s: %w", labels[i-1], labels[i], err)
		}
		results = append(results, result)
	}
	return results, nil
}
