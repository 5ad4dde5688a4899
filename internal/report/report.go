// Package report builds the catalog status and run-history views shown by
// the CLI.
package report

import (
	"context"
	"fmt"

	"reelsync/internal/catalog"
	"reelsync/internal/reconcile"
	"reelsync/internal/store"
)

// RelationProgress is the staging and linking state of one relation.
type RelationProgress struct {
	Kind      catalog.RelationKind
	Staged    int64
	Processed int64
	Linked    int64
}

// Snapshot is a point-in-time view of the whole catalog.
type Snapshot struct {
	SourceRows int64
	Titles     int64
	Entities   map[catalog.EntityKind]int64
	Relations  []RelationProgress
	LatestRuns []*store.Run
}

// Reporter reads reporting views from the store.
type Reporter struct {
	store *store.Store
}

// New constructs a Reporter.
func New(st *store.Store) *Reporter {
	return &Reporter{store: st}
}

// Snapshot gathers counts across the source, entity, and junction tables
// plus the latest run per known subject.
func (r *Reporter) Snapshot(ctx context.Context) (*Snapshot, error) {
	snapshot := &Snapshot{
		Entities: make(map[catalog.EntityKind]int64),
	}

	var err error
	if snapshot.SourceRows, err = r.store.SourceCount(ctx); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	if snapshot.Titles, err = r.store.TitleCount(ctx); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	for _, kind := range []catalog.EntityKind{
		catalog.KindPerson,
		catalog.KindCategory,
		catalog.KindCountry,
		catalog.KindRating,
		catalog.KindTitleType,
	} {
		count, err := r.store.EntityCount(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", kind, err)
		}
		snapshot.Entities[kind] = count
	}

	for _, rel := range catalog.Relations() {
		total, processed, err := r.store.StagingCounts(ctx, rel.Kind)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", rel.Kind, err)
		}
		linked, err := r.store.RelationshipCount(ctx, rel)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", rel.Kind, err)
		}
		snapshot.Relations = append(snapshot.Relations, RelationProgress{
			Kind:      rel.Kind,
			Staged:    total,
			Processed: processed,
			Linked:    linked,
		})
	}

	for _, subject := range subjects() {
		run, err := r.store.LatestRun(ctx, subject)
		if err != nil {
			return nil, fmt.Errorf("snapshot runs: %w", err)
		}
		if run != nil {
			snapshot.LatestRuns = append(snapshot.LatestRuns, run)
		}
	}

	return snapshot, nil
}

// Summary returns the per-subject run aggregation for the dashboard.
func (r *Reporter) Summary(ctx context.Context) ([]store.SubjectSummary, error) {
	return r.store.RunSummary(ctx)
}

// Runs returns run history, newest first, optionally filtered by subject.
func (r *Reporter) Runs(ctx context.Context, subject string, limit int) ([]*store.Run, error) {
	return r.store.RecentRuns(ctx, subject, limit)
}

// subjects lists every run subject in display order: the junction relations,
// their staging passes, then the non-relation operations.
func subjects() []string {
	var names []string
	for _, rel := range catalog.Relations() {
		names = append(names, string(rel.Kind))
	}
	for _, rel := range catalog.Relations() {
		names = append(names, reconcile.StageSubject(rel.Kind))
	}
	return append(names, "titles", "directors_backfill", "source_titles")
}
