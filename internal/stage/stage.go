// Package stage explodes multi-valued source columns into staging candidates.
package stage

import (
	"context"
	"fmt"
	"log/slog"

	"reelsync/internal/catalog"
	"reelsync/internal/logging"
	"reelsync/internal/store"
)

// Stager writes one staging candidate per (source row, value token) for a
// relation. Staging is generational: re-running replaces the relation's rows.
type Stager struct {
	store  *store.Store
	logger *slog.Logger
}

// New builds a Stager.
func New(st *store.Store, logger *slog.Logger) *Stager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Stager{
		store:  st,
		logger: logging.WithComponent(logger, "stager"),
	}
}

// Stage pulls the relation's source column, splits each comma-joined value
// into trimmed tokens, and replaces the relation's staging rows with the
// result. Returns the number of candidates staged.
func (s *Stager) Stage(ctx context.Context, rel catalog.Relation) (int, error) {
	values, err := s.store.SourceValues(ctx, rel)
	if err != nil {
		return 0, fmt.Errorf("stage %s: %w", rel.Kind, err)
	}

	var candidates []store.Candidate
	for _, value := range values {
		for _, token := range catalog.SplitMultiValue(value.Raw) {
			candidates = append(candidates, store.Candidate{
				SourceKey: value.ShowID,
				RawValue:  token,
			})
		}
	}

	if err := s.store.ReplaceCandidates(ctx, rel.Kind, candidates); err != nil {
		return 0, fmt.Errorf("stage %s: %w", rel.Kind, err)
	}

	s.logger.Info("staged candidates",
		slog.String(logging.FieldRelation, string(rel.Kind)),
		slog.Int("source_rows", len(values)),
		slog.Int("candidates", len(candidates)))
	return len(candidates), nil
}

// StageAll stages every known relation and returns per-relation counts.
func (s *Stager) StageAll(ctx context.Context) (map[catalog.RelationKind]int, error) {
	counts := make(map[catalog.RelationKind]int)
	for _, rel := range catalog.Relations() {
		count, err := s.Stage(ctx, rel)
		if err != nil {
			return counts, err
		}
		counts[rel.Kind] = count
	}
	return counts, nil
}
