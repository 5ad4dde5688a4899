package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"reelsync/internal/catalog"
	"reelsync/internal/config"
	"reelsync/internal/logging"
	"reelsync/internal/resolve"
	"reelsync/internal/store"
)

// Builder drains staged candidates for one relation into its junction table.
// It pages through unprocessed rows by ascending id, so a killed run resumes
// exactly where it stopped and a "retry" failure policy cannot loop forever.
type Builder struct {
	store     *store.Store
	batchSize int
	policy    string
	logger    *slog.Logger
}

// NewBuilder constructs a Builder using the reconcile tuning from cfg.
func NewBuilder(st *store.Store, cfg *config.Config, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Builder{
		store:     st,
		batchSize: cfg.Reconcile.BatchSize,
		policy:    cfg.Reconcile.FailurePolicy,
		logger:    logging.WithComponent(logger, "builder"),
	}
}

// Drain processes every unprocessed candidate for the relation. Each
// candidate resolves its title by source key and its entity through the
// resolver; misses are skipped, successful links are created. onPage, when
// non-nil, is invoked with cumulative counts after every page so the caller
// can checkpoint progress.
//
// The keyset cursor only moves forward: a candidate flipped back to
// unprocessed behind the cursor (by an external fix, or by the retry policy)
// is picked up by the next run, not within the current one.
func (b *Builder) Drain(ctx context.Context, rel catalog.Relation, resolver *resolve.Resolver, onPage func(Counts) error) (Counts, error) {
	var totals Counts

	titleIndex, err := b.store.TitleCodeIndex(ctx)
	if err != nil {
		return totals, fmt.Errorf("drain %s: %w", rel.Kind, err)
	}

	var afterID int64
	for {
		if err := ctx.Err(); err != nil {
			return totals, err
		}

		page, err := b.store.CandidatePage(ctx, rel.Kind, afterID, b.batchSize)
		if err != nil {
			return totals, fmt.Errorf("drain %s: %w", rel.Kind, err)
		}
		if len(page) == 0 {
			break
		}

		for _, candidate := range page {
			afterID = candidate.ID
			outcome, err := b.processCandidate(ctx, rel, resolver, candidate, titleIndex)
			if err != nil {
				return totals, err
			}
			totals.Add(outcome)
		}

		if onPage != nil {
			if err := onPage(totals); err != nil {
				return totals, err
			}
		}
	}

	return totals, nil
}

// processCandidate disposes of one candidate and returns its outcome. A
// returned error aborts the run; recoverable per-candidate failures are
// absorbed according to the failure policy instead.
func (b *Builder) processCandidate(ctx context.Context, rel catalog.Relation, resolver *resolve.Resolver, candidate store.Candidate, titleIndex map[string]int64) (Counts, error) {
	titleID, ok := titleIndex[candidate.SourceKey]
	if !ok {
		b.logger.Warn("no title for candidate",
			slog.String(logging.FieldRelation, string(rel.Kind)),
			slog.String("source_key", candidate.SourceKey))
		return b.skip(ctx, candidate)
	}

	entityID, err := resolver.Resolve(ctx, candidate.RawValue)
	if errors.Is(err, resolve.ErrEmptyValue) {
		return b.skip(ctx, candidate)
	}
	if err != nil {
		return b.absorb(ctx, rel, candidate, err)
	}

	created, err := b.store.LinkCandidate(ctx, rel, candidate.ID, entityID, titleID)
	if err != nil {
		return b.absorb(ctx, rel, candidate, err)
	}

	if created {
		return Counts{Processed: 1, Created: 1}, nil
	}
	return Counts{Processed: 1, Skipped: 1}, nil
}

// skip marks the candidate processed without writing a junction row.
func (b *Builder) skip(ctx context.Context, candidate store.Candidate) (Counts, error) {
	if err := b.store.MarkCandidateProcessed(ctx, candidate.ID); err != nil {
		return Counts{}, err
	}
	return Counts{Processed: 1, Skipped: 1}, nil
}

// absorb applies the failure policy to a per-candidate error. Under "skip"
// the candidate is marked processed so the run always moves forward; under
// "retry" it stays unprocessed for a later run and counts as nothing.
func (b *Builder) absorb(ctx context.Context, rel catalog.Relation, candidate store.Candidate, cause error) (Counts, error) {
	b.logger.Warn("candidate failed",
		slog.String(logging.FieldRelation, string(rel.Kind)),
		slog.Int64("candidate_id", candidate.ID),
		slog.String("value", candidate.RawValue),
		slog.String("policy", b.policy),
		logging.Error(cause))

	if b.policy == config.PolicyRetry {
		return Counts{}, nil
	}
	return b.skip(ctx, candidate)
}
