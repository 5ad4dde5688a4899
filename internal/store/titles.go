package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Title is one normalized catalog title. Code is the source dataset's show
// identifier and maps staging candidates back to their title.
type Title struct {
	ID              int64
	Code            string
	Name            string
	TitleTypeID     int64
	RatingID        int64
	ReleaseYear     int
	DateAdded       string
	Duration        string
	DurationMinutes int
	TotalSeasons    int
	Description     string
}

// InsertTitle creates a title row. Codes are unique; callers look up first.
func (s *Store) InsertTitle(ctx context.Context, title Title) (int64, error) {
	if title.Code == "" {
		return 0, errors.New("title code required")
	}
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO titles (
            code, title, title_type_id, rating_id, release_year,
            date_added, duration, duration_minutes, total_seasons, description
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		title.Code,
		title.Name,
		nullableID(title.TitleTypeID),
		nullableID(title.RatingID),
		title.ReleaseYear,
		title.DateAdded,
		title.Duration,
		title.DurationMinutes,
		title.TotalSeasons,
		title.Description,
	)
	if err != nil {
		return 0, fmt.Errorf("insert title: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// TitleIDByCode resolves a source show identifier to a title id. Returns
// (0, nil) when no title exists.
func (s *Store) TitleIDByCode(ctx context.Context, code string) (int64, error) {
	var id int64
	row := s.db.QueryRowContext(ctx, `SELECT title_id FROM titles WHERE code = ?`, code)
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("title by code: %w", err)
	}
	return id, nil
}

// TitleCodeIndex loads the full code -> title_id mapping. The builder uses
// it as its per-run title cache so candidate resolution stays O(1).
func (s *Store) TitleCodeIndex(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT code, title_id FROM titles`)
	if err != nil {
		return nil, fmt.Errorf("load title index: %w", err)
	}
	defer rows.Close()

	index := make(map[string]int64)
	for rows.Next() {
		var (
			code string
			id   int64
		)
		if err := rows.Scan(&code, &id); err != nil {
			return nil, fmt.Errorf("scan title index: %w", err)
		}
		index[code] = id
	}
	return index, rows.Err()
}

// TitleCount returns the number of title rows.
func (s *Store) TitleCount(ctx context.Context) (int64, error) {
	var count int64
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM titles`)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count titles: %w", err)
	}
	return count, nil
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
