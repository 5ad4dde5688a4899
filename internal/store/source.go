package store

import (
	"context"
	"fmt"

	"reelsync/internal/catalog"
)

// SourceTitle is one denormalized row from the ingested dataset. The
// multi-valued fields (Director, CastMembers, Country, ListedIn) hold
// comma-joined values exactly as ingested.
type SourceTitle struct {
	ShowID      string
	Type        string
	Title       string
	Director    string
	CastMembers string
	Country     string
	DateAdded   string
	ReleaseYear int
	Rating      string
	Duration    string
	ListedIn    string
	Description string
}

// ReplaceSourceTitles swaps the source table wholesale inside one
// transaction. Re-running the loader is idempotent by construction.
func (s *Store) ReplaceSourceTitles(ctx context.Context, rows []SourceTitle) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin source tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM source_titles`); err != nil {
		return fmt.Errorf("clear source titles: %w", err)
	}

	stmt, err := tx.PrepareContext(
		ctx,
		`INSERT INTO source_titles (
            show_id, type, title, director, cast_members, country,
            date_added, release_year, rating, duration, listed_in, description
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare source insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(
			ctx,
			row.ShowID, row.Type, row.Title, row.Director, row.CastMembers, row.Country,
			row.DateAdded, row.ReleaseYear, row.Rating, row.Duration, row.ListedIn, row.Description,
		); err != nil {
			return fmt.Errorf("insert source title %s: %w", row.ShowID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit source titles: %w", err)
	}
	return nil
}

// SourceValue is one (show_id, raw multi-value) pair pulled for staging.
type SourceValue struct {
	ShowID string
	Raw    string
}

// SourceValues returns the non-blank, non-sentinel values of one
// multi-valued column, ordered by show id. The column comes from relation
// metadata, never from user input.
func (s *Store) SourceValues(ctx context.Context, rel catalog.Relation) ([]SourceValue, error) {
	query := fmt.Sprintf(
		`SELECT show_id, %[1]s FROM source_titles
         WHERE %[1]s != '' AND TRIM(%[1]s) != '' AND LOWER(%[1]s) != ?
         ORDER BY show_id`,
		rel.SourceColumn,
	)
	rows, err := s.db.QueryContext(ctx, query, catalog.UnknownSentinel)
	if err != nil {
		return nil, fmt.Errorf("query source values: %w", err)
	}
	defer rows.Close()

	var values []SourceValue
	for rows.Next() {
		var value SourceValue
		if err := rows.Scan(&value.ShowID, &value.Raw); err != nil {
			return nil, fmt.Errorf("scan source value: %w", err)
		}
		values = append(values, value)
	}
	return values, rows.Err()
}

// SourceTitles returns every ingested source row ordered by show id.
func (s *Store) SourceTitles(ctx context.Context) ([]SourceTitle, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT show_id, type, title, director, cast_members, country,
                date_added, release_year, rating, duration, listed_in, description
         FROM source_titles ORDER BY show_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query source titles: %w", err)
	}
	defer rows.Close()

	var titles []SourceTitle
	for rows.Next() {
		var row SourceTitle
		if err := rows.Scan(
			&row.ShowID, &row.Type, &row.Title, &row.Director, &row.CastMembers, &row.Country,
			&row.DateAdded, &row.ReleaseYear, &row.Rating, &row.Duration, &row.ListedIn, &row.Description,
		); err != nil {
			return nil, fmt.Errorf("scan source title: %w", err)
		}
		titles = append(titles, row)
	}
	return titles, rows.Err()
}

// MissingDirectorTitles returns source rows whose director field is blank,
// capped at limit. These are the backfill collaborator's work queue.
func (s *Store) MissingDirectorTitles(ctx context.Context, limit int) ([]SourceTitle, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT show_id, type, title, director, cast_members, country,
                date_added, release_year, rating, duration, listed_in, description
         FROM source_titles
         WHERE TRIM(director) = '' OR LOWER(director) = ?
         ORDER BY show_id LIMIT ?`,
		catalog.UnknownSentinel,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query missing directors: %w", err)
	}
	defer rows.Close()

	var titles []SourceTitle
	for rows.Next() {
		var row SourceTitle
		if err := rows.Scan(
			&row.ShowID, &row.Type, &row.Title, &row.Director, &row.CastMembers, &row.Country,
			&row.DateAdded, &row.ReleaseYear, &row.Rating, &row.Duration, &row.ListedIn, &row.Description,
		); err != nil {
			return nil, fmt.Errorf("scan missing director row: %w", err)
		}
		titles = append(titles, row)
	}
	return titles, rows.Err()
}

// UpdateSourceDirector writes a backfilled director value onto a source row.
func (s *Store) UpdateSourceDirector(ctx context.Context, showID, director string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE source_titles SET director = ? WHERE show_id = ?`, director, showID)
	if err != nil {
		return fmt.Errorf("update source director: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("source title %s not found", showID)
	}
	return nil
}

// SourceCount returns the number of ingested source rows.
func (s *Store) SourceCount(ctx context.Context) (int64, error) {
	var count int64
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM source_titles`)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count source titles: %w", err)
	}
	return count, nil
}
