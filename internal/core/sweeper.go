package core

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/SujalTiwari1/dtrepo/internal/db"
	"github.com/SujalTiwari1/dtrepo/internal/storage"
)

const DefaultRetentionWindow = 24 * time.Hour

// Sweeper reclaims collected jobs older than the retention window,
// removing their blobs and records. It runs opportunistically before
// staff queue fetches and optionally on a background ticker.
type Sweeper struct {
	blobs    storage.Store
	window   time.Duration
	interval time.Duration
	stopCh   chan struct{}
	mu       sync.Mutex
	running  bool
}

func NewSweeper(blobs storage.Store, window, interval time.Duration) *Sweeper {
	if window <= 0 {
		window = DefaultRetentionWindow
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{
		blobs:    blobs,
		window:   window,
		interval: interval,
	}
}

// Sweep removes every collected job whose submission time is older than
// the retention window at now, deleting its blobs first. Per-job failures
// are logged and skipped; the returned count covers jobs fully removed.
// Idempotent: a second run finds nothing left to remove.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (int, error) {
	records, err := db.Jobs.ListJobs(ctx, db.JobFilter{
		Statuses: []string{string(StatusCollected)},
		OrderAsc: true,
	})
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, record := range records {
		if now.Sub(record.SubmittedAt) <= s.window {
			continue
		}

		job, err := jobFromRecord(record)
		if err != nil {
			log.Printf("sweep: skipping job %s: %v", record.ID, err)
			continue
		}

		for _, f := range job.Files {
			if err := s.blobs.Delete(ctx, f.Path); err != nil {
				log.Printf("sweep: failed to remove blob %s for job %s: %v", f.Path, job.ID, err)
			}
		}

		if err := db.Jobs.DeleteJob(ctx, job.ID); err != nil {
			log.Printf("sweep: failed to delete job %s: %v", job.ID, err)
			continue
		}
		removed++
	}

	return removed, nil
}

// Start launches the background sweep loop. A stopped sweeper can be
// started again.
func (s *Sweeper) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	go s.run(stopCh)
}

func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
}

func (s *Sweeper) run(stopCh <-chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if count, err := s.Sweep(context.Background(), time.Now()); err != nil {
				log.Printf("sweep: %v", err)
			} else if count > 0 {
				log.Printf("sweep: removed %d expired jobs", count)
			}
		}
	}
}
