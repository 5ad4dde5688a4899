package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle of a processing run.
type RunStatus string

const (
	RunStarted    RunStatus = "started"
	RunProcessing RunStatus = "processing"
	RunCompleted  RunStatus = "completed"
	RunFailed     RunStatus = "failed"
)

// IsTerminal reports whether a run can no longer change.
func (s RunStatus) IsTerminal() bool {
	return s == RunCompleted || s == RunFailed
}

// Run is one checkpoint record. A run is created once, updated only by its
// owning tracker, and immutable once completed or failed.
type Run struct {
	ID               string
	Subject          string
	Description      string
	Status           RunStatus
	RecordsProcessed int64
	RecordsCreated   int64
	RecordsSkipped   int64
	StartTime        time.Time
	EndTime          *time.Time
	ErrorMessage     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

const runColumns = `run_id, subject, description, status, records_processed,
    records_created, records_skipped, start_time, end_time, error_message,
    created_at, updated_at`

// CreateRun inserts a new run record in the started state.
func (s *Store) CreateRun(ctx context.Context, subject, description string) (*Run, error) {
	if subject == "" {
		return nil, errors.New("run subject required")
	}
	now := time.Now().UTC()
	run := &Run{
		ID:          uuid.NewString(),
		Subject:     subject,
		Description: description,
		Status:      RunStarted,
		StartTime:   now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (
            run_id, subject, description, status, start_time, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Subject,
		run.Description,
		run.Status,
		timestamp(run.StartTime),
		timestamp(run.CreatedAt),
		timestamp(run.UpdatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	return run, nil
}

// UpdateRun persists a status transition with the current counters. Terminal
// statuses also record the end time. Transitions away from a terminal status
// are rejected.
func (s *Store) UpdateRun(ctx context.Context, run *Run) error {
	if run == nil {
		return errors.New("run is nil")
	}

	current, err := s.RunByID(ctx, run.ID)
	if err != nil {
		return err
	}
	if current == nil {
		return fmt.Errorf("run %s not found", run.ID)
	}
	if current.Status.IsTerminal() {
		return fmt.Errorf("run %s already %s", run.ID, current.Status)
	}

	run.UpdatedAt = time.Now().UTC()
	var endTime any
	if run.Status.IsTerminal() {
		end := run.UpdatedAt
		run.EndTime = &end
		endTime = timestamp(end)
	}

	_, err = s.db.ExecContext(
		ctx,
		`UPDATE runs
         SET status = ?, records_processed = ?, records_created = ?, records_skipped = ?,
             error_message = ?, end_time = ?, updated_at = ?
         WHERE run_id = ?`,
		run.Status,
		run.RecordsProcessed,
		run.RecordsCreated,
		run.RecordsSkipped,
		nullableString(run.ErrorMessage),
		endTime,
		timestamp(run.UpdatedAt),
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

// RunByID fetches a run record. Returns nil when absent.
func (s *Store) RunByID(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// LatestRun returns the most recent run for a subject, or nil.
func (s *Store) LatestRun(ctx context.Context, subject string) (*Run, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+runColumns+` FROM runs WHERE subject = ? ORDER BY created_at DESC LIMIT 1`,
		subject,
	)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	return run, nil
}

// RecentRuns returns runs ordered newest first, filtered by subject when it
// is non-empty.
func (s *Store) RecentRuns(ctx context.Context, subject string, limit int) ([]*Run, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if subject == "" {
		rows, err = s.db.QueryContext(
			ctx,
			`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC LIMIT ?`,
			limit,
		)
	} else {
		rows, err = s.db.QueryContext(
			ctx,
			`SELECT `+runColumns+` FROM runs WHERE subject = ? ORDER BY created_at DESC LIMIT ?`,
			subject,
			limit,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// SubjectSummary aggregates run history per subject for the dashboard.
type SubjectSummary struct {
	Subject          string
	TotalRuns        int64
	CompletedRuns    int64
	FailedRuns       int64
	RecordsProcessed int64
	RecordsCreated   int64
	LastRunTime      time.Time
}

// RunSummary aggregates run history grouped by subject, newest first.
func (s *Store) RunSummary(ctx context.Context) ([]SubjectSummary, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT subject,
                COUNT(1),
                SUM(CASE WHEN status = ? THEN 1 ELSE 0 END),
                SUM(CASE WHEN status = ? THEN 1 ELSE 0 END),
                SUM(records_processed),
                SUM(records_created),
                MAX(created_at)
         FROM runs
         GROUP BY subject
         ORDER BY MAX(created_at) DESC`,
		RunCompleted,
		RunFailed,
	)
	if err != nil {
		return nil, fmt.Errorf("run summary: %w", err)
	}
	defer rows.Close()

	var summaries []SubjectSummary
	for rows.Next() {
		var (
			summary SubjectSummary
			lastRaw string
		)
		if err := rows.Scan(
			&summary.Subject,
			&summary.TotalRuns,
			&summary.CompletedRuns,
			&summary.FailedRuns,
			&summary.RecordsProcessed,
			&summary.RecordsCreated,
			&lastRaw,
		); err != nil {
			return nil, fmt.Errorf("scan run summary: %w", err)
		}
		if last, err := parseTimeString(lastRaw); err == nil {
			summary.LastRunTime = last
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run          Run
		statusStr    string
		description  sql.NullString
		endRaw       sql.NullString
		errorMessage sql.NullString
		startRaw     string
		createdRaw   string
		updatedRaw   string
	)
	if err := scanner.Scan(
		&run.ID,
		&run.Subject,
		&description,
		&statusStr,
		&run.RecordsProcessed,
		&run.RecordsCreated,
		&run.RecordsSkipped,
		&startRaw,
		&endRaw,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	run.Status = RunStatus(statusStr)
	run.Description = description.String
	run.ErrorMessage = errorMessage.String

	if start, err := parseTimeString(startRaw); err == nil {
		run.StartTime = start
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		run.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		run.UpdatedAt = updated
	}
	if endRaw.Valid {
		if end, err := parseTimeString(endRaw.String); err == nil {
			run.EndTime = &end
		}
	}
	return &run, nil
}
