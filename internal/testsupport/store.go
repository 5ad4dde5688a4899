package testsupport

import (
	"context"
	"testing"

	"reelsync/internal/config"
	"reelsync/internal/store"
)

// MustOpenStore opens a catalog store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// SeedSourceTitles loads the given rows into the source table, failing the
// test on error.
func SeedSourceTitles(t testing.TB, st *store.Store, rows []store.SourceTitle) {
	t.Helper()

	if err := st.ReplaceSourceTitles(context.Background(), rows); err != nil {
		t.Fatalf("ReplaceSourceTitles: %v", err)
	}
}

// SourceTitleFixture returns a source row with sensible defaults that tests
// override field by field.
func SourceTitleFixture(showID string) store.SourceTitle {
	return store.SourceTitle{
		ShowID:      showID,
		Type:        "Movie",
		Title:       "Fixture Title " + showID,
		Director:    "Ada Lovelace",
		CastMembers: "Grace Hopper, Alan Turing",
		Country:     "United States",
		DateAdded:   "September 9, 2021",
		ReleaseYear: 2021,
		Rating:      "PG-13",
		Duration:    "90 min",
		ListedIn:    "Documentaries",
		Description: "A fixture row for tests.",
	}
}
