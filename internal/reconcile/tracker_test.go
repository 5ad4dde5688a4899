package reconcile_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"reelsync/internal/reconcile"
	"reelsync/internal/store"
	"reelsync/internal/testsupport"
)

func TestTrackerLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	tracker := reconcile.NewTracker(st, nil)

	run, err := tracker.Start(ctx, "actors_titles", "test run")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := tracker.Tick(ctx, run, reconcile.Counts{Processed: 5, Created: 3, Skipped: 2}); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	mid, err := st.RunByID(ctx, run.ID)
	if err != nil {
		t.Fatalf("RunByID: %v", err)
	}
	if mid.Status != store.RunProcessing || mid.RecordsProcessed != 5 {
		t.Fatalf("mid-run state = %+v", mid)
	}

	if err := tracker.Complete(ctx, run, reconcile.Counts{Processed: 10, Created: 6, Skipped: 4}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	final, err := st.RunByID(ctx, run.ID)
	if err != nil {
		t.Fatalf("RunByID: %v", err)
	}
	if final.Status != store.RunCompleted || final.RecordsCreated != 6 {
		t.Fatalf("final state = %+v", final)
	}
}

func TestTrackerFailRecordsCause(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	tracker := reconcile.NewTracker(st, nil)

	run, err := tracker.Start(ctx, "titles", "")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := tracker.Fail(ctx, run, reconcile.Counts{Processed: 2}, errors.New("disk full")); err != nil {
		t.Fatalf("Fail: %v", err)
	}

	failed, err := st.RunByID(ctx, run.ID)
	if err != nil {
		t.Fatalf("RunByID: %v", err)
	}
	if failed.Status != store.RunFailed || failed.ErrorMessage != "disk full" {
		t.Fatalf("failed run = %+v", failed)
	}
}

func TestRecentlyCompleted(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	tracker := reconcile.NewTracker(st, nil)

	fresh, err := tracker.RecentlyCompleted(ctx, "actors_titles", time.Hour)
	if err != nil {
		t.Fatalf("RecentlyCompleted: %v", err)
	}
	if fresh {
		t.Fatal("no runs yet, subject must not be fresh")
	}

	run, err := tracker.Start(ctx, "actors_titles", "")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	// In-flight runs do not count as fresh.
	fresh, err = tracker.RecentlyCompleted(ctx, "actors_titles", time.Hour)
	if err != nil {
		t.Fatalf("RecentlyCompleted: %v", err)
	}
	if fresh {
		t.Fatal("in-flight run must not count as fresh")
	}

	if err := tracker.Complete(ctx, run, reconcile.Counts{}); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	fresh, err = tracker.RecentlyCompleted(ctx, "actors_titles", time.Hour)
	if err != nil {
		t.Fatalf("RecentlyCompleted: %v", err)
	}
	if !fresh {
		t.Fatal("just-completed run must be fresh within the window")
	}

	// A zero-width window means everything is stale.
	fresh, err = tracker.RecentlyCompleted(ctx, "actors_titles", 0)
	if err != nil {
		t.Fatalf("RecentlyCompleted: %v", err)
	}
	if fresh {
		t.Fatal("zero window must report stale")
	}

	// Failed runs never count.
	failedRun, err := tracker.Start(ctx, "titles", "")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := tracker.Fail(ctx, failedRun, reconcile.Counts{}, errors.New("boom")); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	fresh, err = tracker.RecentlyCompleted(ctx, "titles", time.Hour)
	if err != nil {
		t.Fatalf("RecentlyCompleted: %v", err)
	}
	if fresh {
		t.Fatal("failed run must not count as fresh")
	}
}
