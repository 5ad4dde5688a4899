package reconcile_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"reelsync/internal/catalog"
	"reelsync/internal/reconcile"
	"reelsync/internal/services/gemini"
	"reelsync/internal/store"
	"reelsync/internal/testsupport"
)

func TestReconcileTracksRun(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	engine := reconcile.NewEngine(f.store, f.cfg, nil)

	f.seedTitles(t, "t1")
	f.seedCandidates(t, [][2]string{
		{"t1", "Anna Lee"},
		{"t1", "Bob Chen"},
	})

	counts, err := engine.Reconcile(ctx, f.rel, true)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if counts.Created != 2 {
		t.Fatalf("created = %d, want 2", counts.Created)
	}

	run, err := f.store.LatestRun(ctx, string(f.rel.Kind))
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if run == nil {
		t.Fatal("expected a tracked run")
	}
	if run.Status != store.RunCompleted {
		t.Fatalf("run status = %s, want completed", run.Status)
	}
	if run.RecordsProcessed != 2 || run.RecordsCreated != 2 {
		t.Fatalf("run counters = (%d, %d)", run.RecordsProcessed, run.RecordsCreated)
	}
	if run.EndTime == nil {
		t.Fatal("expected end time on completed run")
	}
}

func TestReconcileHonorsFreshnessGate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	engine := reconcile.NewEngine(f.store, f.cfg, nil)

	f.seedTitles(t, "t1")
	f.seedCandidates(t, [][2]string{{"t1", "Anna Lee"}})

	if _, err := engine.Reconcile(ctx, f.rel, false); err != nil {
		t.Fatalf("first Reconcile: %v", err)
	}

	// Default staleness window is hours; the just-completed run is fresh.
	_, err := engine.Reconcile(ctx, f.rel, false)
	if !errors.Is(err, reconcile.ErrRecentlyCompleted) {
		t.Fatalf("err = %v, want ErrRecentlyCompleted", err)
	}

	// Force bypasses the gate.
	if _, err := engine.Reconcile(ctx, f.rel, true); err != nil {
		t.Fatalf("forced Reconcile: %v", err)
	}
}

func TestStageRelationTracksRun(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	engine := reconcile.NewEngine(f.store, f.cfg, nil)

	// The fixture row carries two cast members.
	testsupport.SeedSourceTitles(t, f.store, []store.SourceTitle{
		testsupport.SourceTitleFixture("s1"),
	})

	counts, err := engine.StageRelation(ctx, f.rel)
	if err != nil {
		t.Fatalf("StageRelation: %v", err)
	}
	if counts.Created != 2 {
		t.Fatalf("created = %d, want 2", counts.Created)
	}

	run, err := f.store.LatestRun(ctx, reconcile.StageSubject(f.rel.Kind))
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if run == nil {
		t.Fatal("expected a tracked staging run")
	}
	if run.Status != store.RunCompleted {
		t.Fatalf("run status = %s, want completed", run.Status)
	}
	if run.RecordsCreated != 2 {
		t.Fatalf("run created = %d, want 2", run.RecordsCreated)
	}
}

func TestStageRelationRecordsFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	engine := reconcile.NewEngine(f.store, f.cfg, nil)

	// A relation pointing at a column the source table does not have makes
	// the staging query fail after the run has started.
	broken := f.rel
	broken.SourceColumn = "no_such_column"

	if _, err := engine.StageRelation(ctx, broken); err == nil {
		t.Fatal("expected staging failure")
	}

	run, err := f.store.LatestRun(ctx, reconcile.StageSubject(broken.Kind))
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if run == nil {
		t.Fatal("expected a tracked staging run")
	}
	if run.Status != store.RunFailed {
		t.Fatalf("run status = %s, want failed", run.Status)
	}
	if run.ErrorMessage == "" {
		t.Fatal("expected the causing error on the failed run")
	}
	if run.EndTime == nil {
		t.Fatal("expected end time on failed run")
	}
}

func TestReconcileUsesConfiguredNameParser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		response := map[string]any{
			"candidates": []map[string]any{
				{
					"content": map[string]any{
						"parts": []map[string]any{
							{"text": `{"first_name": "Ada", "middle_name": "King", "last_name": "Lovelace"}`},
						},
					},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	t.Cleanup(server.Close)

	cfg := testsupport.NewConfig(t, testsupport.WithGemini(server.URL))
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	rel, ok := catalog.RelationByKind(catalog.RelationDirectors)
	if !ok {
		t.Fatal("directors relation missing")
	}
	if _, err := st.InsertTitle(ctx, store.Title{Code: "t1", Name: "Title t1"}); err != nil {
		t.Fatalf("InsertTitle: %v", err)
	}
	if err := st.ReplaceCandidates(ctx, rel.Kind, []store.Candidate{{SourceKey: "t1", RawValue: "Ada King Lovelace"}}); err != nil {
		t.Fatalf("ReplaceCandidates: %v", err)
	}

	client := gemini.NewClient(cfg.Gemini.APIKey, gemini.WithBaseURL(cfg.Gemini.BaseURL))
	engine := reconcile.NewEngine(st, cfg, nil, reconcile.WithNameParser(client))

	counts, err := engine.Reconcile(ctx, rel, true)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if counts.Created != 1 {
		t.Fatalf("created = %d, want 1", counts.Created)
	}

	person, err := st.EntityByNaturalKey(ctx, catalog.KindPerson, catalog.NaturalKey("Ada King Lovelace"))
	if err != nil || person == nil {
		t.Fatalf("EntityByNaturalKey = %v, %v", person, err)
	}
	name, err := st.PersonName(ctx, person.ID)
	if err != nil {
		t.Fatalf("PersonName: %v", err)
	}
	want := catalog.PersonName{First: "Ada", Middle: "King", Last: "Lovelace"}
	if name != want {
		t.Fatalf("name = %+v, want parser components %+v", name, want)
	}
}

func TestBuildTitlesMaterializesSourceRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	engine := reconcile.NewEngine(f.store, f.cfg, nil)

	rows := []store.SourceTitle{
		testsupport.SourceTitleFixture("s1"),
		testsupport.SourceTitleFixture("s2"),
	}
	rows[0].Duration = "90 min"
	rows[1].Type = "TV Show"
	rows[1].Duration = "2 Seasons"
	testsupport.SeedSourceTitles(t, f.store, rows)

	counts, err := engine.BuildTitles(ctx, true)
	if err != nil {
		t.Fatalf("BuildTitles: %v", err)
	}
	if counts.Created != 2 {
		t.Fatalf("created = %d, want 2", counts.Created)
	}

	total, err := f.store.TitleCount(ctx)
	if err != nil {
		t.Fatalf("TitleCount: %v", err)
	}
	if total != 2 {
		t.Fatalf("title rows = %d, want 2", total)
	}

	// Ratings and types resolve through get-or-create: both fixture rows
	// share one rating, types differ.
	ratings, err := f.store.EntityCount(ctx, catalog.KindRating)
	if err != nil {
		t.Fatalf("EntityCount ratings: %v", err)
	}
	if ratings != 1 {
		t.Fatalf("rating rows = %d, want 1", ratings)
	}
	types, err := f.store.EntityCount(ctx, catalog.KindTitleType)
	if err != nil {
		t.Fatalf("EntityCount types: %v", err)
	}
	if types != 2 {
		t.Fatalf("title type rows = %d, want 2", types)
	}

	// Re-running skips every existing code.
	again, err := engine.BuildTitles(ctx, true)
	if err != nil {
		t.Fatalf("BuildTitles rerun: %v", err)
	}
	if again.Created != 0 || again.Skipped != 2 {
		t.Fatalf("rerun counts = %+v, want created=0 skipped=2", again)
	}
}
