package core

import (
	"context"
	"sync"
	"testing"
)

func TestFormatSlotID(t *testing.T) {
	pool := DefaultSlotPool()

	cases := []struct {
		index int
		want  string
	}{
		{0, "A-01"},
		{9, "A-10"},
		{10, "B-01"},
		{49, "E-10"},
	}

	for _, tc := range cases {
		if got := pool.FormatSlotID(tc.index); got != tc.want {
			t.Errorf("FormatSlotID(%d) = %s, want %s", tc.index, got, tc.want)
		}
	}
}

func TestSlotIDs(t *testing.T) {
	pool := DefaultSlotPool()

	ids := pool.SlotIDs()
	if len(ids) != 50 {
		t.Fatalf("expected 50 slot ids, got %d", len(ids))
	}
	if ids[0] != "A-01" || ids[49] != "E-10" {
		t.Errorf("unexpected boundaries: %s .. %s", ids[0], ids[49])
	}
}

func TestAssignSequence(t *testing.T) {
	initTestDB(t)
	pool := DefaultSlotPool()
	allocator := NewAllocator(pool, 3)
	ctx := context.Background()

	for i := 0; i < pool.MaxSlots; i++ {
		got, err := allocator.Assign(ctx)
		if err != nil {
			t.Fatalf("assign %d: %v", i, err)
		}
		if want := pool.FormatSlotID(i); got != want {
			t.Errorf("assign %d = %s, want %s", i, got, want)
		}
	}
}

func TestAssignCyclesAroundPool(t *testing.T) {
	initTestDB(t)
	pool := DefaultSlotPool()
	allocator := NewAllocator(pool, 3)
	ctx := context.Background()

	first := make([]string, pool.MaxSlots)
	for i := range first {
		id, err := allocator.Assign(ctx)
		if err != nil {
			t.Fatalf("assign: %v", err)
		}
		first[i] = id
	}

	// The pool is exhausted; the next assignments wrap to the start.
	for k := 0; k < 3; k++ {
		id, err := allocator.Assign(ctx)
		if err != nil {
			t.Fatalf("assign after wrap: %v", err)
		}
		if id != first[k] {
			t.Errorf("wrap %d = %s, want %s", k, id, first[k])
		}
	}
}

func TestAssignConcurrentDistinct(t *testing.T) {
	initTestDB(t)
	pool := DefaultSlotPool()
	allocator := NewAllocator(pool, 5)

	var wg sync.WaitGroup
	results := make(chan string, pool.MaxSlots)
	errs := make(chan error, pool.MaxSlots)

	for i := 0; i < pool.MaxSlots; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := allocator.Assign(context.Background())
			if err != nil {
				errs <- err
				return
			}
			results <- id
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent assign: %v", err)
	}

	seen := make(map[string]bool)
	for id := range results {
		if seen[id] {
			t.Errorf("slot id %s assigned twice", id)
		}
		seen[id] = true
	}
	if len(seen) != pool.MaxSlots {
		t.Errorf("expected %d distinct ids, got %d", pool.MaxSlots, len(seen))
	}
}

func TestCapacityGate(t *testing.T) {
	initTestDB(t)
	gate := NewCapacityGate(2)
	blobs := newMemStore()
	service := NewService(SlotPool{MaxSlots: 2, SlotsPerGroup: 2}, blobs, 3)
	ctx := context.Background()

	if err := gate.CheckAdmission(ctx); err != nil {
		t.Fatalf("empty pool should admit: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := service.Submit(ctx, student, testUploads("a.pdf"), defaultPrefs()); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}

	if err := gate.CheckAdmission(ctx); err != ErrPoolSaturated {
		t.Errorf("full pool: got %v, want ErrPoolSaturated", err)
	}
}
