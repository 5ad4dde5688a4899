// Package resolve maps raw source values onto canonical catalog entities.
//
// A Resolver is scoped to one entity kind and one run. It memoizes every
// lookup and creation in an in-memory cache keyed by natural key, so a run
// that sees the same actor ten thousand times touches the database once.
// People additionally get a first-token cache entry, matching the flexible
// lookup the junction builder relies on for partially credited names.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"reelsync/internal/catalog"
	"reelsync/internal/logging"
	"reelsync/internal/store"
)

// ErrEmptyValue is returned when a raw value normalizes to nothing usable,
// including the "unknown" placeholder the source dataset uses for gaps.
var ErrEmptyValue = errors.New("resolve: empty value")

// NameParser splits a person's display name into components. The
// disambiguation service implements it; when absent the resolver falls back
// to the deterministic word-count rule.
type NameParser interface {
	ParseFullName(ctx context.Context, fullName string) (catalog.PersonName, error)
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithNameParser sets the parser used when creating people.
func WithNameParser(parser NameParser) Option {
	return func(r *Resolver) {
		r.parser = parser
	}
}

// WithLogger sets the resolver's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Resolver performs get-or-create resolution for one entity kind.
type Resolver struct {
	store  *store.Store
	kind   catalog.EntityKind
	parser NameParser
	cache  map[string]int64
	logger *slog.Logger
}

// New builds a Resolver for the given entity kind with an empty cache.
func New(st *store.Store, kind catalog.EntityKind, opts ...Option) *Resolver {
	r := &Resolver{
		store:  st,
		kind:   kind,
		cache:  make(map[string]int64),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Kind returns the entity kind this resolver is scoped to.
func (r *Resolver) Kind() catalog.EntityKind {
	return r.kind
}

// CacheSize reports how many keys the run cache currently holds.
func (r *Resolver) CacheSize() int {
	return len(r.cache)
}

// Resolve returns the entity id for a raw source value, creating the entity
// when it does not exist yet. Values that normalize identically always
// resolve to the same id within and across runs.
func (r *Resolver) Resolve(ctx context.Context, raw string) (int64, error) {
	key := catalog.NaturalKey(raw)
	if key == "" || key == catalog.UnknownSentinel {
		return 0, ErrEmptyValue
	}
	if id, ok := r.cache[key]; ok {
		return id, nil
	}

	if r.kind == catalog.KindPerson {
		return r.resolvePerson(ctx, key, catalog.DisplayValue(raw))
	}
	return r.resolveSimple(ctx, key, catalog.DisplayValue(raw))
}

func (r *Resolver) resolveSimple(ctx context.Context, key, display string) (int64, error) {
	entity, err := r.store.EntityByNaturalKey(ctx, r.kind, key)
	if err != nil {
		return 0, err
	}
	if entity != nil {
		r.cache[key] = entity.ID
		return entity.ID, nil
	}

	id, err := r.store.CreateEntity(ctx, r.kind, key, display)
	if err != nil {
		return 0, fmt.Errorf("create %s %q: %w", r.kind, display, err)
	}
	r.cache[key] = id
	r.logger.Debug("created entity",
		slog.String("kind", string(r.kind)),
		slog.String("value", display),
		slog.Int64("id", id))
	return id, nil
}

func (r *Resolver) resolvePerson(ctx context.Context, key, display string) (int64, error) {
	entity, err := r.store.EntityByNaturalKey(ctx, catalog.KindPerson, key)
	if err != nil {
		return 0, err
	}
	if entity != nil {
		r.cachePerson(key, entity.ID)
		return entity.ID, nil
	}

	// A bare single-token credit ("Cher") may refer to someone already
	// stored with a full name. Only then is a first-name match safe; for
	// multi-token names a shared first name must not collapse two people.
	if firstToken := catalog.FirstToken(key); firstToken == key {
		match, err := r.store.PersonByFirstName(ctx, firstToken)
		if err != nil {
			return 0, err
		}
		if match != nil {
			r.cachePerson(key, match.ID)
			return match.ID, nil
		}
	}

	name := r.parseName(ctx, display)
	id, err := r.store.CreatePerson(ctx, name, key)
	if err != nil {
		return 0, fmt.Errorf("create person %q: %w", display, err)
	}
	r.cachePerson(key, id)
	r.logger.Debug("created person",
		slog.String("value", display),
		slog.Int64("id", id))
	return id, nil
}

// parseName asks the configured parser first and falls back to the
// word-count rule on error or when no parser is set. A result with no first
// name uses the whole display value as the first name so the person is still
// representable.
func (r *Resolver) parseName(ctx context.Context, display string) catalog.PersonName {
	var name catalog.PersonName
	if r.parser != nil {
		parsed, err := r.parser.ParseFullName(ctx, display)
		if err != nil {
			r.logger.Warn("name parser failed, using word-count rule",
				slog.String("value", display),
				logging.Error(err))
		} else {
			name = parsed
		}
	}
	if name.IsZero() {
		name = catalog.SplitPersonName(display)
	}
	if name.First == "" {
		name = catalog.PersonName{First: display}
	}
	return name
}

func (r *Resolver) cachePerson(key string, id int64) {
	r.cache[key] = id
	if first := catalog.FirstToken(key); first != "" {
		r.cache[first] = id
	}
}
