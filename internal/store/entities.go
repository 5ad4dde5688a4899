package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"reelsync/internal/catalog"
)

// Entity is one canonical row of any entity kind. For people, Display is
// the joined name components.
type Entity struct {
	ID         int64
	NaturalKey string
	Display    string
}

// kindSpec maps an entity kind onto its table layout. People are handled
// separately because they carry split name columns.
type kindSpec struct {
	table         string
	idColumn      string
	displayColumn string
}

var simpleKinds = map[catalog.EntityKind]kindSpec{
	catalog.KindCategory:  {table: "categories", idColumn: "category_id", displayColumn: "name"},
	catalog.KindCountry:   {table: "countries", idColumn: "country_id", displayColumn: "name"},
	catalog.KindRating:    {table: "ratings", idColumn: "rating_id", displayColumn: "name"},
	catalog.KindTitleType: {table: "title_types", idColumn: "title_type_id", displayColumn: "name"},
}

// ErrUnknownEntityKind is returned for kinds the schema has no table for.
var ErrUnknownEntityKind = errors.New("unknown entity kind")

func specFor(kind catalog.EntityKind) (kindSpec, error) {
	if kind == catalog.KindPerson {
		return kindSpec{table: "people", idColumn: "person_id"}, nil
	}
	spec, ok := simpleKinds[kind]
	if !ok {
		return kindSpec{}, fmt.Errorf("%w: %q", ErrUnknownEntityKind, kind)
	}
	return spec, nil
}

const personColumns = "person_id, natural_key, first_name, middle_name, last_name"

// EntityByNaturalKey fetches a canonical entity by its deduplication key.
// Returns nil when no entity exists.
func (s *Store) EntityByNaturalKey(ctx context.Context, kind catalog.EntityKind, naturalKey string) (*Entity, error) {
	if kind == catalog.KindPerson {
		entity, err := scanPerson(s.db.QueryRowContext(
			ctx,
			`SELECT `+personColumns+` FROM people WHERE natural_key = ?`,
			naturalKey,
		))
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("person by natural key: %w", err)
		}
		return entity, nil
	}

	spec, err := specFor(kind)
	if err != nil {
		return nil, err
	}
	entity, err := scanSimpleEntity(s.db.QueryRowContext(
		ctx,
		fmt.Sprintf(`SELECT %s, natural_key, %s FROM %s WHERE natural_key = ?`,
			spec.idColumn, spec.displayColumn, spec.table),
		naturalKey,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("entity by natural key: %w", err)
	}
	return entity, nil
}

// PersonByFirstName returns the oldest person whose first name matches,
// case-insensitively. Used as the resolver's first-token fallback lookup.
func (s *Store) PersonByFirstName(ctx context.Context, firstName string) (*Entity, error) {
	entity, err := scanPerson(s.db.QueryRowContext(
		ctx,
		`SELECT `+personColumns+` FROM people WHERE LOWER(first_name) = LOWER(?) ORDER BY person_id LIMIT 1`,
		firstName,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("person by first name: %w", err)
	}
	return entity, nil
}

// CreateEntity inserts a canonical row for a simple string entity kind.
// The natural key is expected to be unused; a UNIQUE violation surfaces as
// an error rather than being swallowed.
func (s *Store) CreateEntity(ctx context.Context, kind catalog.EntityKind, naturalKey, display string) (int64, error) {
	if kind == catalog.KindPerson {
		return 0, errors.New("use CreatePerson for person entities")
	}
	spec, err := specFor(kind)
	if err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(
		ctx,
		fmt.Sprintf(`INSERT INTO %s (%s, natural_key) VALUES (?, ?)`, spec.table, spec.displayColumn),
		display,
		naturalKey,
	)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", kind, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// CreatePerson inserts a person with split name components.
func (s *Store) CreatePerson(ctx context.Context, name catalog.PersonName, naturalKey string) (int64, error) {
	if name.First == "" {
		return 0, errors.New("person first name required")
	}
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO people (first_name, middle_name, last_name, natural_key) VALUES (?, ?, ?, ?)`,
		name.First,
		nullableString(name.Middle),
		nullableString(name.Last),
		naturalKey,
	)
	if err != nil {
		return 0, fmt.Errorf("create person: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// PersonName returns the split name components for a person id.
func (s *Store) PersonName(ctx context.Context, id int64) (catalog.PersonName, error) {
	var (
		first        string
		middle, last sql.NullString
	)
	row := s.db.QueryRowContext(ctx, `SELECT first_name, middle_name, last_name FROM people WHERE person_id = ?`, id)
	if err := row.Scan(&first, &middle, &last); err != nil {
		return catalog.PersonName{}, fmt.Errorf("person name: %w", err)
	}
	return catalog.PersonName{First: first, Middle: middle.String, Last: last.String}, nil
}

// EntityCount returns the number of canonical rows for a kind.
func (s *Store) EntityCount(ctx context.Context, kind catalog.EntityKind) (int64, error) {
	spec, err := specFor(kind)
	if err != nil {
		return 0, err
	}
	var count int64
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(1) FROM %s`, spec.table))
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s: %w", kind, err)
	}
	return count, nil
}

func scanPerson(row *sql.Row) (*Entity, error) {
	var (
		entity       Entity
		first        string
		middle, last sql.NullString
	)
	if err := row.Scan(&entity.ID, &entity.NaturalKey, &first, &middle, &last); err != nil {
		return nil, err
	}
	entity.Display = catalog.PersonName{First: first, Middle: middle.String, Last: last.String}.Display()
	return &entity, nil
}

func scanSimpleEntity(row *sql.Row) (*Entity, error) {
	var entity Entity
	if err := row.Scan(&entity.ID, &entity.NaturalKey, &entity.Display); err != nil {
		return nil, err
	}
	return &entity, nil
}
