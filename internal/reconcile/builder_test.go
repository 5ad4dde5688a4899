package reconcile_test

import (
	"context"
	"testing"

	"reelsync/internal/catalog"
	"reelsync/internal/config"
	"reelsync/internal/reconcile"
	"reelsync/internal/resolve"
	"reelsync/internal/store"
	"reelsync/internal/testsupport"
)

type fixture struct {
	cfg   *config.Config
	store *store.Store
	rel   catalog.Relation
}

func newFixture(t *testing.T, opts ...testsupport.ConfigOption) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	st := testsupport.MustOpenStore(t, cfg)
	rel, ok := catalog.RelationByKind(catalog.RelationActors)
	if !ok {
		t.Fatal("actors relation missing")
	}
	return &fixture{cfg: cfg, store: st, rel: rel}
}

func (f *fixture) seedTitles(t *testing.T, codes ...string) {
	t.Helper()
	for _, code := range codes {
		if _, err := f.store.InsertTitle(context.Background(), store.Title{Code: code, Name: "Title " + code}); err != nil {
			t.Fatalf("InsertTitle(%s): %v", code, err)
		}
	}
}

func (f *fixture) seedCandidates(t *testing.T, pairs [][2]string) {
	t.Helper()
	candidates := make([]store.Candidate, 0, len(pairs))
	for _, pair := range pairs {
		candidates = append(candidates, store.Candidate{SourceKey: pair[0], RawValue: pair[1]})
	}
	if err := f.store.ReplaceCandidates(context.Background(), f.rel.Kind, candidates); err != nil {
		t.Fatalf("ReplaceCandidates: %v", err)
	}
}

func (f *fixture) drain(t *testing.T) reconcile.Counts {
	t.Helper()
	builder := reconcile.NewBuilder(f.store, f.cfg, nil)
	resolver := resolve.New(f.store, f.rel.Entity)
	counts, err := builder.Drain(context.Background(), f.rel, resolver, nil)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	return counts
}

func TestDrainScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedTitles(t, "t1", "t2")
	f.seedCandidates(t, [][2]string{
		{"t1", "Anna Lee"},
		{"t1", "Anna Lee"},
		{"t2", "Bob Chen"},
	})

	counts := f.drain(t)
	if counts.Created != 2 || counts.Skipped != 1 || counts.Processed != 3 {
		t.Fatalf("counts = %+v, want created=2 skipped=1 processed=3", counts)
	}

	people, err := f.store.EntityCount(ctx, catalog.KindPerson)
	if err != nil {
		t.Fatalf("EntityCount: %v", err)
	}
	if people != 2 {
		t.Fatalf("person rows = %d, want 2", people)
	}

	links, err := f.store.RelationshipCount(ctx, f.rel)
	if err != nil {
		t.Fatalf("RelationshipCount: %v", err)
	}
	if links != 2 {
		t.Fatalf("relationship rows = %d, want 2", links)
	}

	titleID, err := f.store.TitleIDByCode(ctx, "t1")
	if err != nil {
		t.Fatalf("TitleIDByCode: %v", err)
	}
	anna, err := f.store.EntityByNaturalKey(ctx, catalog.KindPerson, catalog.NaturalKey("Anna Lee"))
	if err != nil || anna == nil {
		t.Fatalf("EntityByNaturalKey(anna) = %v, %v", anna, err)
	}
	linked, err := f.store.RelationshipExists(ctx, f.rel, anna.ID, titleID)
	if err != nil {
		t.Fatalf("RelationshipExists: %v", err)
	}
	if !linked {
		t.Fatal("expected Anna Lee linked to t1")
	}
}

func TestDrainIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedTitles(t, "t1")
	f.seedCandidates(t, [][2]string{{"t1", "Anna Lee"}})
	f.drain(t)

	before, err := f.store.RelationshipCount(ctx, f.rel)
	if err != nil {
		t.Fatalf("RelationshipCount: %v", err)
	}

	// A fully processed staging table yields an empty second drain.
	counts := f.drain(t)
	if counts.Processed != 0 {
		t.Fatalf("second drain processed %d, want 0", counts.Processed)
	}

	after, err := f.store.RelationshipCount(ctx, f.rel)
	if err != nil {
		t.Fatalf("RelationshipCount: %v", err)
	}
	if after != before {
		t.Fatalf("relationship rows changed %d -> %d", before, after)
	}
}

func TestDrainResumesAfterInterruption(t *testing.T) {
	f := newFixture(t, testsupport.WithBatchSize(1))
	ctx := context.Background()

	f.seedTitles(t, "t1", "t2", "t3")
	f.seedCandidates(t, [][2]string{
		{"t1", "Anna Lee"},
		{"t2", "Bob Chen"},
		{"t3", "Carol Diaz"},
	})

	// Cancel after the first page to simulate a killed run.
	interruptCtx, cancel := context.WithCancel(ctx)
	builder := reconcile.NewBuilder(f.store, f.cfg, nil)
	resolver := resolve.New(f.store, f.rel.Entity)
	partial, err := builder.Drain(interruptCtx, f.rel, resolver, func(reconcile.Counts) error {
		cancel()
		return nil
	})
	if err == nil {
		t.Fatal("expected interrupted drain to return an error")
	}
	if partial.Processed == 0 {
		t.Fatal("expected some progress before interruption")
	}

	resumed := f.drain(t)
	if total := partial.Processed + resumed.Processed; total != 3 {
		t.Fatalf("combined processed = %d, want 3", total)
	}
	if total := partial.Created + resumed.Created; total != 3 {
		t.Fatalf("combined created = %d, want 3", total)
	}

	remaining, err := f.store.UnprocessedCount(ctx, f.rel.Kind)
	if err != nil {
		t.Fatalf("UnprocessedCount: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("unprocessed after resume = %d, want 0", remaining)
	}
}

func TestDrainFailurePolicies(t *testing.T) {
	seed := func(f *fixture) {
		f.seedTitles(t, "t1")
		f.seedCandidates(t, [][2]string{
			{"t1", "Anna Lee"},
			{"t1", "Bob Chen"},
		})
	}
	// A resolver scoped to a kind the schema has no table for fails every
	// candidate, standing in for a persistently erroring resolution step.
	failingResolver := func(f *fixture) *resolve.Resolver {
		return resolve.New(f.store, catalog.EntityKind("nonexistent"))
	}

	t.Run("skip marks failed candidates processed", func(t *testing.T) {
		f := newFixture(t)
		seed(f)

		builder := reconcile.NewBuilder(f.store, f.cfg, nil)
		counts, err := builder.Drain(context.Background(), f.rel, failingResolver(f), nil)
		if err != nil {
			t.Fatalf("Drain: %v", err)
		}
		if counts.Processed != 2 || counts.Skipped != 2 || counts.Created != 0 {
			t.Fatalf("counts = %+v, want processed=2 skipped=2 created=0", counts)
		}

		remaining, err := f.store.UnprocessedCount(context.Background(), f.rel.Kind)
		if err != nil {
			t.Fatalf("UnprocessedCount: %v", err)
		}
		if remaining != 0 {
			t.Fatalf("unprocessed = %d, want 0 under skip policy", remaining)
		}
	})

	t.Run("retry leaves failed candidates for the next run", func(t *testing.T) {
		f := newFixture(t, testsupport.WithFailurePolicy(config.PolicyRetry))
		seed(f)

		builder := reconcile.NewBuilder(f.store, f.cfg, nil)
		counts, err := builder.Drain(context.Background(), f.rel, failingResolver(f), nil)
		if err != nil {
			t.Fatalf("Drain: %v", err)
		}
		if counts.Processed != 0 {
			t.Fatalf("processed = %d, want 0 under retry policy", counts.Processed)
		}

		remaining, err := f.store.UnprocessedCount(context.Background(), f.rel.Kind)
		if err != nil {
			t.Fatalf("UnprocessedCount: %v", err)
		}
		if remaining != 2 {
			t.Fatalf("unprocessed = %d, want 2 under retry policy", remaining)
		}

		// A later drain with a working resolver picks the rows back up.
		resumed := f.drain(t)
		if resumed.Processed != 2 || resumed.Created != 2 {
			t.Fatalf("resumed counts = %+v, want processed=2 created=2", resumed)
		}
	})
}

func TestDrainSkipsCandidatesWithoutTitle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedTitles(t, "t1")
	f.seedCandidates(t, [][2]string{
		{"t1", "Anna Lee"},
		{"missing", "Bob Chen"},
	})

	counts := f.drain(t)
	if counts.Created != 1 || counts.Skipped != 1 || counts.Processed != 2 {
		t.Fatalf("counts = %+v, want created=1 skipped=1 processed=2", counts)
	}

	// The skipped candidate must not create an orphaned person.
	people, err := f.store.EntityCount(ctx, catalog.KindPerson)
	if err != nil {
		t.Fatalf("EntityCount: %v", err)
	}
	if people != 1 {
		t.Fatalf("person rows = %d, want 1", people)
	}
}

func TestDrainNormalizationDeterminism(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedTitles(t, "t1", "t2", "t3")
	f.seedCandidates(t, [][2]string{
		{"t1", "José  García"},
		{"t2", " jose garcia "},
		{"t3", "JOSE GARCIA"},
	})

	counts := f.drain(t)
	if counts.Created != 3 {
		t.Fatalf("created = %d, want 3 (one per title)", counts.Created)
	}

	people, err := f.store.EntityCount(ctx, catalog.KindPerson)
	if err != nil {
		t.Fatalf("EntityCount: %v", err)
	}
	if people != 1 {
		t.Fatalf("person rows = %d, want 1 shared entity", people)
	}
}

func TestDrainReportsProgressPerPage(t *testing.T) {
	f := newFixture(t, testsupport.WithBatchSize(2))

	f.seedTitles(t, "t1")
	f.seedCandidates(t, [][2]string{
		{"t1", "Anna Lee"},
		{"t1", "Bob Chen"},
		{"t1", "Carol Diaz"},
	})

	var ticks []reconcile.Counts
	builder := reconcile.NewBuilder(f.store, f.cfg, nil)
	resolver := resolve.New(f.store, f.rel.Entity)
	if _, err := builder.Drain(context.Background(), f.rel, resolver, func(progress reconcile.Counts) error {
		ticks = append(ticks, progress)
		return nil
	}); err != nil {
		t.Fatalf("Drain: %v", err)
	}

	if len(ticks) != 2 {
		t.Fatalf("ticks = %d, want 2 pages", len(ticks))
	}
	if ticks[len(ticks)-1].Processed != 3 {
		t.Fatalf("final tick processed = %d, want 3", ticks[len(ticks)-1].Processed)
	}
}
