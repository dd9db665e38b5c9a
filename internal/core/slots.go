package core

import (
	"context"
	"fmt"
	"time"

	"github.com/SujalTiwari1/dtrepo/internal/db"
)

const (
	DefaultMaxSlots      = 50
	DefaultSlotsPerGroup = 10
	DefaultAssignRetries = 3

	slotCounterKey = "print_slot_cursor"
)

// SlotPool describes the fixed space of physical pickup slots. Slot ids
// are derived from an index in [0, MaxSlots): groups of SlotsPerGroup
// slots share a letter, numbers are 1-based within the group.
type SlotPool struct {
	MaxSlots      int
	SlotsPerGroup int
}

func DefaultSlotPool() SlotPool {
	return SlotPool{MaxSlots: DefaultMaxSlots, SlotsPerGroup: DefaultSlotsPerGroup}
}

// FormatSlotID turns index 0 into "A-01", 9 into "A-10", 10 into "B-01".
func (p SlotPool) FormatSlotID(index int) string {
	group := index / p.SlotsPerGroup
	number := index%p.SlotsPerGroup + 1
	return fmt.Sprintf("%c-%02d", rune('A'+group), number)
}

// SlotIDs lists every slot id in index order.
func (p SlotPool) SlotIDs() []string {
	ids := make([]string, p.MaxSlots)
	for i := 0; i < p.MaxSlots; i++ {
		ids[i] = p.FormatSlotID(i)
	}
	return ids
}

// Allocator hands out the next slot id by advancing the persistent
// counter. The counter lives in the database, never in process memory,
// so multiple server instances stay consistent.
type Allocator struct {
	pool    SlotPool
	retries int
}

func NewAllocator(pool SlotPool, retries int) *Allocator {
	if retries < 1 {
		retries = DefaultAssignRetries
	}
	return &Allocator{pool: pool, retries: retries}
}

// Assign advances the counter in one transaction and returns the slot id
// for the index the transaction observed. Slot ids cycle: uniqueness among
// live jobs holds only while the capacity gate bounds active jobs to the
// pool size.
func (a *Allocator) Assign(ctx context.Context) (string, error) {
	var lastErr error
	for attempt := 0; attempt < a.retries; attempt++ {
		index, err := db.Counters.ReadModifyWrite(ctx, slotCounterKey, func(current int64) (int64, error) {
			return (current + 1) % int64(a.pool.MaxSlots), nil
		})
		if err == nil {
			return a.pool.FormatSlotID(int(index)), nil
		}
		if !db.IsConflict(err) {
			return "", fmt.Errorf("slot assignment: %w", err)
		}
		lastErr = fmt.Errorf("%w: %v", ErrAllocationConflict, err)
		time.Sleep(time.Duration(attempt+1) * 10 * time.Millisecond)
	}
	return "", fmt.Errorf("%w after %d attempts: %v", ErrAllocationFailed, a.retries, lastErr)
}

// CapacityGate admits or rejects new submissions against the pool limit.
type CapacityGate struct {
	maxSlots int
}

func NewCapacityGate(maxSlots int) *CapacityGate {
	if maxSlots < 1 {
		maxSlots = DefaultMaxSlots
	}
	return &CapacityGate{maxSlots: maxSlots}
}

func (g *CapacityGate) ActiveCount(ctx context.Context) (int, error) {
	statuses := make([]string, len(ActiveStatuses))
	for i, s := range ActiveStatuses {
		statuses[i] = string(s)
	}
	return db.Jobs.CountJobsByStatuses(ctx, statuses)
}

// CheckAdmission rejects with ErrPoolSaturated when active jobs have
// reached the pool limit. The check and the later job insert are separate
// transactions: a concurrent burst right at the limit can overshoot by a
// few jobs. Known slack, kept to avoid serialising every submission on
// the capacity count.
func (g *CapacityGate) CheckAdmission(ctx context.Context) error {
	count, err := g.ActiveCount(ctx)
	if err != nil {
		return fmt.Errorf("admission check: %w", err)
	}
	if count >= g.maxSlots {
		return ErrPoolSaturated
	}
	return nil
}
