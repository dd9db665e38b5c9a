package core

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/SujalTiwari1/dtrepo/internal/db"
	"github.com/SujalTiwari1/dtrepo/internal/storage"
)

// FileUpload is one document handed in with a submission.
type FileUpload struct {
	Name    string
	Content io.Reader
}

// Service runs the print-job lifecycle: admission, slot assignment,
// persistence and the role-gated status transitions.
type Service struct {
	pool      SlotPool
	allocator *Allocator
	gate      *CapacityGate
	blobs     storage.Store
	now       func() time.Time
}

func NewService(pool SlotPool, blobs storage.Store, assignRetries int) *Service {
	return &Service{
		pool:      pool,
		allocator: NewAllocator(pool, assignRetries),
		gate:      NewCapacityGate(pool.MaxSlots),
		blobs:     blobs,
		now:       time.Now,
	}
}

// SetClock overrides the service clock. Intended for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) Pool() SlotPool {
	return s.pool
}

// Submit validates the request, admits it against pool capacity, assigns
// a slot, uploads every file and creates the job record in one pass.
// Files upload sequentially; the first failure aborts the submission so
// no job record ever references a file that failed to upload.
func (s *Service) Submit(ctx context.Context, actor Actor, files []FileUpload, prefs Preferences) (*Job, error) {
	if !CanPerform(actor, OpSubmit, nil) {
		return nil, ErrForbidden
	}

	if len(files) == 0 {
		return nil, validationf("at least one file is required")
	}
	for _, f := range files {
		if !AllowedFileType(f.Name) {
			return nil, validationf("file type not allowed: %s", f.Name)
		}
	}
	if prefs.Copies < 1 {
		return nil, validationf("copies must be at least 1")
	}
	switch prefs.ColorMode {
	case ColorBW, ColorColor:
	default:
		return nil, validationf("invalid color mode: %s", prefs.ColorMode)
	}
	switch prefs.Sided {
	case SidedSingle, SidedDouble:
	default:
		return nil, validationf("invalid sided option: %s", prefs.Sided)
	}

	if err := s.gate.CheckAdmission(ctx); err != nil {
		return nil, err
	}

	slotID, err := s.allocator.Assign(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	stored := make([]File, 0, len(files))
	for _, f := range files {
		path := blobPath(now, f.Name)
		url, err := s.blobs.Put(ctx, path, f.Content)
		if err != nil {
			s.discardBlobs(ctx, stored)
			return nil, &StorageError{Op: "put", Path: path, Err: err}
		}
		stored = append(stored, File{Name: f.Name, URL: url, Path: path})
	}

	job := &Job{
		ID:             uuid.New().String(),
		SubmitterID:    actor.ID,
		SubmitterEmail: actor.Email,
		SubmitterRole:  actor.Role,
		SlotID:         slotID,
		Files:          stored,
		Preferences:    prefs,
		Status:         StatusInProgress,
		SubmittedAt:    now,
	}

	record, err := jobToRecord(job)
	if err != nil {
		s.discardBlobs(ctx, stored)
		return nil, err
	}
	if err := db.Jobs.CreateJob(ctx, record); err != nil {
		// The uploads already succeeded; their blobs are now orphaned.
		log.Printf("CRITICAL: job record create failed after upload, orphaned blobs %v: %v", blobPaths(stored), err)
		return nil, fmt.Errorf("create job record: %w", err)
	}

	return job, nil
}

// Advance moves a job to target per the transition table and persists
// the new status only.
func (s *Service) Advance(ctx context.Context, actor Actor, jobID string, target Status) (*Job, error) {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if err := CheckTransition(actor, job, target); err != nil {
		return nil, err
	}

	if err := db.Jobs.UpdateJobStatus(ctx, jobID, string(target)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("advance job %s: %w", jobID, err)
	}

	job.Status = target
	return job, nil
}

// Delete removes the job record and every attached blob. Blob deletion is
// best effort: a missing file is logged and does not block record cleanup.
func (s *Service) Delete(ctx context.Context, actor Actor, jobID string) error {
	if !CanPerform(actor, OpDelete, nil) {
		return ErrForbidden
	}

	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return err
	}

	for _, f := range job.Files {
		if err := s.blobs.Delete(ctx, f.Path); err != nil {
			log.Printf("delete job %s: failed to remove blob %s: %v", jobID, f.Path, err)
		}
	}

	if err := db.Jobs.DeleteJob(ctx, jobID); err != nil {
		return fmt.Errorf("delete job %s: %w", jobID, err)
	}
	return nil
}

// Get returns one job; staff see all, submitters see their own.
func (s *Service) Get(ctx context.Context, actor Actor, jobID string) (*Job, error) {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !CanPerform(actor, OpView, job) {
		return nil, ErrForbidden
	}
	return job, nil
}

// ListActive returns the staff queue: jobs occupying a slot, oldest first.
func (s *Service) ListActive(ctx context.Context, actor Actor) ([]*Job, error) {
	if !CanPerform(actor, OpViewQueue, nil) {
		return nil, ErrForbidden
	}
	statuses := make([]string, len(ActiveStatuses))
	for i, st := range ActiveStatuses {
		statuses[i] = string(st)
	}
	return s.listJobs(ctx, db.JobFilter{Statuses: statuses, OrderAsc: true})
}

// ListByStatus returns jobs in a single status, oldest first.
func (s *Service) ListByStatus(ctx context.Context, actor Actor, status Status) ([]*Job, error) {
	if !CanPerform(actor, OpViewQueue, nil) {
		return nil, ErrForbidden
	}
	return s.listJobs(ctx, db.JobFilter{Statuses: []string{string(status)}, OrderAsc: true})
}

// ListOwn returns the caller's submissions, newest first.
func (s *Service) ListOwn(ctx context.Context, actor Actor) ([]*Job, error) {
	return s.listJobs(ctx, db.JobFilter{SubmitterID: actor.ID, OrderAsc: false})
}

// SlotState is one entry of the slot dashboard.
type SlotState struct {
	ID     string `json:"id"`
	Group  string `json:"group"`
	Active bool   `json:"active"`
	Status Status `json:"status,omitempty"`
	Job    *Job   `json:"job,omitempty"`
}

// SlotMap reports every slot in the pool with the active job occupying
// it, if any.
func (s *Service) SlotMap(ctx context.Context, actor Actor) ([]SlotState, error) {
	active, err := s.ListActive(ctx, actor)
	if err != nil {
		return nil, err
	}

	bySlot := make(map[string]*Job, len(active))
	for _, job := range active {
		bySlot[job.SlotID] = job
	}

	states := make([]SlotState, 0, s.pool.MaxSlots)
	for i := 0; i < s.pool.MaxSlots; i++ {
		id := s.pool.FormatSlotID(i)
		state := SlotState{ID: id, Group: id[:1]}
		if job, ok := bySlot[id]; ok {
			state.Active = true
			state.Status = job.Status
			state.Job = job
		}
		states = append(states, state)
	}
	return states, nil
}

func (s *Service) getJob(ctx context.Context, jobID string) (*Job, error) {
	record, err := db.Jobs.GetJobByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get job %s: %w", jobID, err)
	}
	return jobFromRecord(record)
}

func (s *Service) listJobs(ctx context.Context, filter db.JobFilter) ([]*Job, error) {
	records, err := db.Jobs.ListJobs(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	jobs := make([]*Job, 0, len(records))
	for _, record := range records {
		job, err := jobFromRecord(record)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (s *Service) discardBlobs(ctx context.Context, stored []File) {
	for _, f := range stored {
		if err := s.blobs.Delete(ctx, f.Path); err != nil {
			log.Printf("failed to discard blob %s after aborted submission: %v", f.Path, err)
		}
	}
}

// blobPath derives the storage path for an uploaded file. The timestamp
// prefix keys the path to the submission; the uuid keeps two same-named
// files in one job from colliding.
func blobPath(now time.Time, fileName string) string {
	return fmt.Sprintf("print-jobs/%d_%s_%s", now.UnixMilli(), uuid.New().String(), filepath.Base(fileName))
}

func blobPaths(files []File) []string {
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths
}

func jobToRecord(job *Job) (*db.PrintJob, error) {
	filesJSON, err := json.Marshal(job.Files)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize files: %w", err)
	}
	return &db.PrintJob{
		ID:             job.ID,
		SubmitterID:    job.SubmitterID,
		SubmitterEmail: job.SubmitterEmail,
		SubmitterRole:  string(job.SubmitterRole),
		SlotID:         job.SlotID,
		FilesJSON:      string(filesJSON),
		Copies:         job.Preferences.Copies,
		ColorMode:      string(job.Preferences.ColorMode),
		Sided:          string(job.Preferences.Sided),
		Stapled:        job.Preferences.Stapled,
		Instructions:   job.Preferences.Instructions,
		Status:         string(job.Status),
		SubmittedAt:    job.SubmittedAt,
	}, nil
}

func jobFromRecord(record *db.PrintJob) (*Job, error) {
	var files []File
	if record.FilesJSON != "" {
		if err := json.Unmarshal([]byte(record.FilesJSON), &files); err != nil {
			return nil, fmt.Errorf("failed to parse files for job %s: %w", record.ID, err)
		}
	}
	return &Job{
		ID:             record.ID,
		SubmitterID:    record.SubmitterID,
		SubmitterEmail: record.SubmitterEmail,
		SubmitterRole:  Role(record.SubmitterRole),
		SlotID:         record.SlotID,
		Files:          files,
		Preferences: Preferences{
			Copies:       record.Copies,
			ColorMode:    ColorMode(record.ColorMode),
			Sided:        Sided(record.Sided),
			Stapled:      record.Stapled,
			Instructions: record.Instructions,
		},
		Status:      Status(record.Status),
		SubmittedAt: record.SubmittedAt,
	}, nil
}
