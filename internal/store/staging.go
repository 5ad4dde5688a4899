package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"reelsync/internal/catalog"
)

// Candidate is one staged (source_key, raw_value) pair awaiting
// reconciliation. Rows are written once by the stager and only ever mutated
// by flipping Processed.
type Candidate struct {
	ID        int64
	Kind      catalog.RelationKind
	SourceKey string
	RawValue  string
	Processed bool
	CreatedAt time.Time
}

// ReplaceCandidates swaps the staging rows for one relation wholesale. The
// delete and all inserts share a transaction, so the builder either sees the
// previous generation or the new one, never a half-written table.
func (s *Store) ReplaceCandidates(ctx context.Context, kind catalog.RelationKind, candidates []Candidate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin staging tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM staging_candidates WHERE kind = ?`, kind); err != nil {
		return fmt.Errorf("clear staging rows: %w", err)
	}

	stmt, err := tx.PrepareContext(
		ctx,
		`INSERT INTO staging_candidates (kind, source_key, raw_value, processed, created_at) VALUES (?, ?, ?, 0, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare staging insert: %w", err)
	}
	defer stmt.Close()

	now := timestamp(time.Now())
	for _, candidate := range candidates {
		if _, err := stmt.ExecContext(ctx, kind, candidate.SourceKey, candidate.RawValue, now); err != nil {
			return fmt.Errorf("insert staging row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit staging rows: %w", err)
	}
	return nil
}

// UnprocessedCount reports how many staged candidates remain for a relation.
// The builder re-checks this on every page so externally fixed rows are
// picked up mid-run.
func (s *Store) UnprocessedCount(ctx context.Context, kind catalog.RelationKind) (int64, error) {
	var count int64
	row := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM staging_candidates WHERE kind = ? AND processed = 0`,
		kind,
	)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count unprocessed: %w", err)
	}
	return count, nil
}

// StagingCounts returns (total, processed) staging rows for a relation.
func (s *Store) StagingCounts(ctx context.Context, kind catalog.RelationKind) (total, processed int64, err error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1), COALESCE(SUM(processed), 0) FROM staging_candidates WHERE kind = ?`,
		kind,
	)
	if err := row.Scan(&total, &processed); err != nil {
		return 0, 0, fmt.Errorf("staging counts: %w", err)
	}
	return total, processed, nil
}

// CandidatePage returns up to limit unprocessed candidates with id greater
// than afterID, ordered by ascending id. Keyset pagination keeps the drain
// loop correct whichever failure policy leaves rows unprocessed.
func (s *Store) CandidatePage(ctx context.Context, kind catalog.RelationKind, afterID int64, limit int) ([]Candidate, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, kind, source_key, raw_value, processed, created_at
         FROM staging_candidates
         WHERE kind = ? AND processed = 0 AND id > ?
         ORDER BY id
         LIMIT ?`,
		kind,
		afterID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query candidate page: %w", err)
	}
	defer rows.Close()

	var candidates []Candidate
	for rows.Next() {
		candidate, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, candidate)
	}
	return candidates, rows.Err()
}

// MarkCandidateProcessed flips the processed flag outside any relationship
// transaction. Used for skip outcomes that write nothing else.
func (s *Store) MarkCandidateProcessed(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE staging_candidates SET processed = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark candidate processed: %w", err)
	}
	return nil
}

func scanCandidate(rows *sql.Rows) (Candidate, error) {
	var (
		candidate  Candidate
		kind       string
		processed  int64
		createdRaw string
	)
	if err := rows.Scan(&candidate.ID, &kind, &candidate.SourceKey, &candidate.RawValue, &processed, &createdRaw); err != nil {
		return Candidate{}, fmt.Errorf("scan candidate: %w", err)
	}
	candidate.Kind = catalog.RelationKind(kind)
	candidate.Processed = processed != 0
	if created, err := parseTimeString(createdRaw); err == nil {
		candidate.CreatedAt = created
	}
	return candidate, nil
}
