package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSweepOnlyCollectedJobs(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)
	sweeper := NewSweeper(store, DefaultRetentionWindow, time.Hour)
	ctx := context.Background()

	submitted := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return submitted })

	inProgress, err := svc.Submit(ctx, student, testUploads("a.pdf"), defaultPrefs())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	ready, err := svc.Submit(ctx, student, testUploads("b.pdf"), defaultPrefs())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := svc.Advance(ctx, staff, ready.ID, StatusReady); err != nil {
		t.Fatalf("advance failed: %v", err)
	}

	// Way past the window, but neither job is collected.
	removed, err := sweeper.Sweep(ctx, submitted.Add(10*DefaultRetentionWindow))
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("sweep removed %d uncollected jobs, want 0", removed)
	}

	for _, id := range []string{inProgress.ID, ready.ID} {
		if _, err := svc.Get(ctx, staff, id); err != nil {
			t.Errorf("job %s should survive the sweep: %v", id, err)
		}
	}
	if store.count() != 2 {
		t.Errorf("blob store holds %d blobs, want 2", store.count())
	}
}

func TestSweepIdempotent(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)
	sweeper := NewSweeper(store, DefaultRetentionWindow, time.Hour)
	ctx := context.Background()

	submitted := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return submitted })

	job, err := svc.Submit(ctx, student, testUploads("a.pdf"), defaultPrefs())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := svc.Advance(ctx, staff, job.ID, StatusReady); err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if _, err := svc.Advance(ctx, student, job.ID, StatusCollected); err != nil {
		t.Fatalf("collect failed: %v", err)
	}

	at := submitted.Add(DefaultRetentionWindow + time.Minute)
	removed, err := sweeper.Sweep(ctx, at)
	if err != nil {
		t.Fatalf("first sweep failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("first sweep removed %d, want 1", removed)
	}

	removed, err = sweeper.Sweep(ctx, at)
	if err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("second sweep removed %d, want 0", removed)
	}
}

func TestSweepMissingBlobStillRemovesJob(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)
	sweeper := NewSweeper(store, DefaultRetentionWindow, time.Hour)
	ctx := context.Background()

	submitted := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return submitted })

	job, err := svc.Submit(ctx, student, testUploads("a.pdf"), defaultPrefs())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := svc.Advance(ctx, staff, job.ID, StatusReady); err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if _, err := svc.Advance(ctx, student, job.ID, StatusCollected); err != nil {
		t.Fatalf("collect failed: %v", err)
	}

	// Drop the blob out from under the sweeper.
	if err := store.Delete(ctx, job.Files[0].Path); err != nil {
		t.Fatalf("delete blob: %v", err)
	}

	removed, err := sweeper.Sweep(ctx, submitted.Add(DefaultRetentionWindow+time.Minute))
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("sweep removed %d, want 1", removed)
	}
	if _, err := svc.Get(ctx, staff, job.ID); err == nil {
		t.Error("job record should be gone despite the missing blob")
	}
}

func TestSweeperRestartsAfterStop(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)
	sweeper := NewSweeper(store, DefaultRetentionWindow, 10*time.Millisecond)
	ctx := context.Background()

	sweeper.Start()
	sweeper.Start() // second start is a no-op
	sweeper.Stop()
	sweeper.Stop()

	// An expired collected job created while the sweeper was stopped.
	submitted := time.Now().Add(-2 * DefaultRetentionWindow)
	svc.SetClock(func() time.Time { return submitted })
	job, err := svc.Submit(ctx, student, testUploads("a.pdf"), defaultPrefs())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, err := svc.Advance(ctx, staff, job.ID, StatusReady); err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if _, err := svc.Advance(ctx, student, job.ID, StatusCollected); err != nil {
		t.Fatalf("collect failed: %v", err)
	}

	sweeper.Start()
	defer sweeper.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := svc.Get(ctx, staff, job.ID); errors.Is(err, ErrNotFound) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("restarted sweeper never removed the expired job")
}
