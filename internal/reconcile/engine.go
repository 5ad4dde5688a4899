// Package reconcile drives the checkpointed normalization pipeline: staged
// candidates are drained into junction tables, titles are materialized from
// source rows, and every operation is tracked as a resumable run.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"reelsync/internal/catalog"
	"reelsync/internal/config"
	"reelsync/internal/logging"
	"reelsync/internal/resolve"
	"reelsync/internal/stage"
	"reelsync/internal/store"
)

// Subjects for tracked runs that are not junction relations.
const (
	SubjectTitles   = "titles"
	SubjectBackfill = "directors_backfill"
	SubjectSource   = "source_titles"
)

// StageSubject names the tracked-run subject for one relation's staging
// pass, keeping it distinct from the drain runs recorded under the bare
// relation kind.
func StageSubject(kind catalog.RelationKind) string {
	return "stage_" + string(kind)
}

// ErrRecentlyCompleted is returned when a subject's latest run completed
// within the staleness window and force was not requested.
var ErrRecentlyCompleted = errors.New("subject recently completed")

// Engine ties the builders together and wraps each operation in a tracked
// run. It is the only layer that opens and closes run records.
type Engine struct {
	store   *store.Store
	cfg     *config.Config
	tracker *Tracker
	parser  resolve.NameParser
	finder  DirectorFinder
	logger  *slog.Logger
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithNameParser wires a name parser into person resolution.
func WithNameParser(parser resolve.NameParser) EngineOption {
	return func(e *Engine) {
		e.parser = parser
	}
}

// WithDirectorFinder wires a director finder into the backfill operation.
func WithDirectorFinder(finder DirectorFinder) EngineOption {
	return func(e *Engine) {
		e.finder = finder
	}
}

// NewEngine constructs an Engine.
func NewEngine(st *store.Store, cfg *config.Config, logger *slog.Logger, opts ...EngineOption) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	engine := &Engine{
		store:   st,
		cfg:     cfg,
		tracker: NewTracker(st, logger),
		logger:  logging.WithComponent(logger, "engine"),
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// Tracker exposes run bookkeeping for the reporting layer.
func (e *Engine) Tracker() *Tracker {
	return e.tracker
}

// Reconcile drains one relation's staged candidates as a tracked run. With
// force false, a subject completed within the staleness window returns
// ErrRecentlyCompleted without starting a run.
func (e *Engine) Reconcile(ctx context.Context, rel catalog.Relation, force bool) (Counts, error) {
	subject := string(rel.Kind)
	if err := e.checkFreshness(ctx, subject, force); err != nil {
		return Counts{}, err
	}

	run, err := e.tracker.Start(ctx, subject, fmt.Sprintf("drain staged %s candidates", rel.Kind))
	if err != nil {
		return Counts{}, err
	}

	resolverOpts := []resolve.Option{resolve.WithLogger(e.logger)}
	if rel.Entity == catalog.KindPerson && e.parser != nil {
		resolverOpts = append(resolverOpts, resolve.WithNameParser(e.parser))
	}
	resolver := resolve.New(e.store, rel.Entity, resolverOpts...)

	builder := NewBuilder(e.store, e.cfg, e.logger)
	counts, err := builder.Drain(ctx, rel, resolver, func(progress Counts) error {
		return e.tracker.Tick(ctx, run, progress)
	})
	return e.close(ctx, run, counts, err)
}

// StageRelation explodes one relation's source column into staging
// candidates as a tracked run, so a failed staging pass leaves a failed run
// record like every other pipeline step.
func (e *Engine) StageRelation(ctx context.Context, rel catalog.Relation) (Counts, error) {
	run, err := e.tracker.Start(ctx, StageSubject(rel.Kind),
		fmt.Sprintf("explode %s into staging candidates", rel.SourceColumn))
	if err != nil {
		return Counts{}, err
	}

	staged, err := stage.New(e.store, e.logger).Stage(ctx, rel)
	var counts Counts
	if err == nil {
		counts = Counts{Processed: int64(staged), Created: int64(staged)}
	}
	return e.close(ctx, run, counts, err)
}

// BuildTitles materializes title rows from the ingested source as a tracked
// run, honoring the same freshness gate as Reconcile.
func (e *Engine) BuildTitles(ctx context.Context, force bool) (Counts, error) {
	if err := e.checkFreshness(ctx, SubjectTitles, force); err != nil {
		return Counts{}, err
	}

	run, err := e.tracker.Start(ctx, SubjectTitles, "materialize titles from source rows")
	if err != nil {
		return Counts{}, err
	}

	counts, err := NewTitlesBuilder(e.store, e.logger).Build(ctx, func(progress Counts) error {
		return e.tracker.Tick(ctx, run, progress)
	})
	return e.close(ctx, run, counts, err)
}

// BackfillDirectors runs the director backfill as a tracked run. It requires
// a configured director finder.
func (e *Engine) BackfillDirectors(ctx context.Context, limit int) (Counts, error) {
	if e.finder == nil {
		return Counts{}, errors.New("director backfill requires the disambiguation service")
	}

	run, err := e.tracker.Start(ctx, SubjectBackfill, "infer missing directors")
	if err != nil {
		return Counts{}, err
	}

	counts, err := NewBackfiller(e.store, e.finder, e.logger).Run(ctx, limit)
	return e.close(ctx, run, counts, err)
}

// TrackRun wraps an arbitrary operation in a run record. The ingest layer
// uses it so bulk loads show up in the same dashboard as reconcile runs.
func (e *Engine) TrackRun(ctx context.Context, subject, description string, op func(ctx context.Context) (Counts, error)) (Counts, error) {
	run, err := e.tracker.Start(ctx, subject, description)
	if err != nil {
		return Counts{}, err
	}
	counts, err := op(ctx)
	return e.close(ctx, run, counts, err)
}

func (e *Engine) checkFreshness(ctx context.Context, subject string, force bool) error {
	if force {
		return nil
	}
	window := time.Duration(e.cfg.Reconcile.StaleAfterHours) * time.Hour
	if window <= 0 {
		return nil
	}
	fresh, err := e.tracker.RecentlyCompleted(ctx, subject, window)
	if err != nil {
		return err
	}
	if fresh {
		return fmt.Errorf("%w: %s", ErrRecentlyCompleted, subject)
	}
	return nil
}

// close finishes the run, preferring the operation's error over bookkeeping
// errors so the caller always sees the real cause.
func (e *Engine) close(ctx context.Context, run *store.Run, counts Counts, opErr error) (Counts, error) {
	if opErr != nil {
		if failErr := e.tracker.Fail(context.WithoutCancel(ctx), run, counts, opErr); failErr != nil {
			e.logger.Error("failed to record run failure", logging.Error(failErr))
		}
		return counts, opErr
	}
	if err := e.tracker.Complete(ctx, run, counts); err != nil {
		return counts, err
	}
	return counts, nil
}
