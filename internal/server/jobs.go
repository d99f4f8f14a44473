package server

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/canvasmith/canvasmith/pkg/refine"
)

// ErrJobNotFound is returned by [JobStore.Get] for unknown job IDs.
var ErrJobNotFound = errors.New("job not found")

// JobStatus is a generation job's lifecycle state.
type JobStatus string

const (
	JobPending JobStatus = "pending"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	// JobPartial means the refinement loop was exhausted but produced a
	// renderable candidate.
	JobPartial JobStatus = "partial"
	JobFailed  JobStatus = "failed"
)

// Job is one generation request and its outcome.
type Job struct {
	ID        string    `json:"id" bson:"_id"`
	Status    JobStatus `json:"status" bson:"status"`
	Prompt    string    `json:"prompt,omitempty" bson:"prompt,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`

	Result *refine.Result `json:"result,omitempty" bson:"result,omitempty"`
	Error  string         `json:"error,omitempty" bson:"error,omitempty"`
}

// NewJob creates a pending job with a fresh ID.
func NewJob(prompt string) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:        uuid.NewString(),
		Status:    JobPending,
		Prompt:    prompt,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// JobStore persists generation jobs.
type JobStore interface {
	// Create inserts a new job.
	Create(ctx context.Context, job *Job) error

	// Update replaces an existing job record.
	Update(ctx context.Context, job *Job) error

	// Get returns a job by ID, or ErrJobNotFound.
	Get(ctx context.Context, id string) (*Job, error)

	// List returns jobs newest first, up to limit.
	List(ctx context.Context, limit int) ([]*Job, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// MemoryJobStore keeps jobs in process memory. It is the default backend
// for single-instance deployments and tests.
type MemoryJobStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewMemoryJobStore creates an empty in-memory store.
func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{jobs: make(map[string]*Job)}
}

// Create inserts a new job.
func (s *MemoryJobStore) Create(_ context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *job
	s.jobs[job.ID] = &copied
	return nil
}

// Update replaces an existing job record.
func (s *MemoryJobStore) Update(_ context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; !ok {
		return ErrJobNotFound
	}
	job.UpdatedAt = time.Now().UTC()
	copied := *job
	s.jobs[job.ID] = &copied
	return nil
}

// Get returns a job by ID.
func (s *MemoryJobStore) Get(_ context.Context, id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	copied := *job
	return &copied, nil
}

// List returns jobs newest first.
func (s *MemoryJobStore) List(_ context.Context, limit int) ([]*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		copied := *job
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close does nothing for the memory store.
func (s *MemoryJobStore) Close(context.Context) error { return nil }

// Ensure MemoryJobStore implements JobStore.
var _ JobStore = (*MemoryJobStore)(nil)
