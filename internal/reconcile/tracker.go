package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"reelsync/internal/logging"
	"reelsync/internal/store"
)

// Counts aggregates candidate outcomes for one run. Processed counts every
// candidate the run disposed of, created and skipped partition the processed
// ones by whether a row was written.
type Counts struct {
	Processed int64
	Created   int64
	Skipped   int64
}

// Add merges another set of counts into this one.
func (c *Counts) Add(other Counts) {
	c.Processed += other.Processed
	c.Created += other.Created
	c.Skipped += other.Skipped
}

// Tracker owns run lifecycle bookkeeping. Every engine operation starts a
// run, ticks it with progress, and closes it exactly once.
type Tracker struct {
	store  *store.Store
	logger *slog.Logger
}

// NewTracker builds a Tracker.
func NewTracker(st *store.Store, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Tracker{
		store:  st,
		logger: logging.WithComponent(logger, "tracker"),
	}
}

// Start creates a run record for the subject.
func (t *Tracker) Start(ctx context.Context, subject, description string) (*store.Run, error) {
	run, err := t.store.CreateRun(ctx, subject, description)
	if err != nil {
		return nil, fmt.Errorf("start run: %w", err)
	}
	t.logger.Info("run started",
		slog.String(logging.FieldRunID, run.ID),
		slog.String(logging.FieldSubject, subject))
	return run, nil
}

// Tick records in-flight progress without closing the run.
func (t *Tracker) Tick(ctx context.Context, run *store.Run, counts Counts) error {
	run.Status = store.RunProcessing
	applyCounts(run, counts)
	if err := t.store.UpdateRun(ctx, run); err != nil {
		return fmt.Errorf("tick run: %w", err)
	}
	return nil
}

// Complete closes the run successfully with its final counters.
func (t *Tracker) Complete(ctx context.Context, run *store.Run, counts Counts) error {
	run.Status = store.RunCompleted
	applyCounts(run, counts)
	if err := t.store.UpdateRun(ctx, run); err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	t.logger.Info("run completed",
		slog.String(logging.FieldRunID, run.ID),
		slog.String(logging.FieldSubject, run.Subject),
		slog.Int64("processed", counts.Processed),
		slog.Int64("created", counts.Created),
		slog.Int64("skipped", counts.Skipped))
	return nil
}

// Fail closes the run with the causing error recorded. The counters reflect
// whatever progress the run made before failing.
func (t *Tracker) Fail(ctx context.Context, run *store.Run, counts Counts, cause error) error {
	run.Status = store.RunFailed
	run.ErrorMessage = cause.Error()
	applyCounts(run, counts)
	if err := t.store.UpdateRun(ctx, run); err != nil {
		return fmt.Errorf("fail run: %w", err)
	}
	t.logger.Error("run failed",
		slog.String(logging.FieldRunID, run.ID),
		slog.String(logging.FieldSubject, run.Subject),
		logging.Error(cause))
	return nil
}

// RecentlyCompleted reports whether the subject's latest run completed within
// the given window. Failed or in-flight runs never count as fresh.
func (t *Tracker) RecentlyCompleted(ctx context.Context, subject string, within time.Duration) (bool, error) {
	latest, err := t.store.LatestRun(ctx, subject)
	if err != nil {
		return false, err
	}
	if latest == nil || latest.Status != store.RunCompleted || latest.EndTime == nil {
		return false, nil
	}
	return time.Since(*latest.EndTime) < within, nil
}

func applyCounts(run *store.Run, counts Counts) {
	run.RecordsProcessed = counts.Processed
	run.RecordsCreated = counts.Created
	run.RecordsSkipped = counts.Skipped
}
