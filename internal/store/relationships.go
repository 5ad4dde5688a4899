package store

import (
	"context"
	"fmt"

	"reelsync/internal/catalog"
)

// LinkCandidate applies one resolved candidate atomically: it checks the
// junction table for (entityID, titleID), inserts the row when absent, and
// marks the candidate processed, all inside a single transaction. The
// returned created flag is false when the pair already existed.
//
// Entity creation is deliberately outside this transaction — the resolver
// commits new entities through its own statements, so a failed link never
// rolls back an entity another candidate may already rely on.
func (s *Store) LinkCandidate(ctx context.Context, rel catalog.Relation, candidateID, entityID, titleID int64) (created bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin link tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var count int64
	row := tx.QueryRowContext(
		ctx,
		fmt.Sprintf(`SELECT COUNT(1) FROM %s WHERE %s = ? AND title_id = ?`, rel.Table, rel.EntityColumn),
		entityID,
		titleID,
	)
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("check existing relationship: %w", err)
	}

	if count == 0 {
		if _, err := tx.ExecContext(
			ctx,
			fmt.Sprintf(`INSERT INTO %s (%s, title_id) VALUES (?, ?)`, rel.Table, rel.EntityColumn),
			entityID,
			titleID,
		); err != nil {
			return false, fmt.Errorf("insert relationship: %w", err)
		}
		created = true
	}

	if _, err := tx.ExecContext(ctx, `UPDATE staging_candidates SET processed = 1 WHERE id = ?`, candidateID); err != nil {
		return false, fmt.Errorf("mark candidate processed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit link: %w", err)
	}
	return created, nil
}

// RelationshipExists reports whether the junction row is present.
func (s *Store) RelationshipExists(ctx context.Context, rel catalog.Relation, entityID, titleID int64) (bool, error) {
	var count int64
	row := s.db.QueryRowContext(
		ctx,
		fmt.Sprintf(`SELECT COUNT(1) FROM %s WHERE %s = ? AND title_id = ?`, rel.Table, rel.EntityColumn),
		entityID,
		titleID,
	)
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("check relationship: %w", err)
	}
	return count > 0, nil
}

// RelationshipCount returns the number of junction rows for a relation.
func (s *Store) RelationshipCount(ctx context.Context, rel catalog.Relation) (int64, error) {
	var count int64
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(1) FROM %s`, rel.Table))
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count relationships: %w", err)
	}
	return count, nil
}
