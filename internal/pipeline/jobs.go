package pipeline

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// JobStatus represents the state of a harvest job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusFetching   JobStatus = "fetching"
	StatusParsing    JobStatus = "parsing"
	StatusExtracting JobStatus = "extracting"
	StatusMatching   JobStatus = "matching"
	StatusExporting  JobStatus = "exporting"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusPartial    JobStatus = "partial"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewJobID returns a fresh ULID string.
func NewJobID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Now(), entropy).String()
}

// Job tracks the state of one article harvest.
type Job struct {
	mu sync.Mutex

	ID    string `json:"job_id"`
	PMCID string `json:"pmcid"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`
	Title  string    `json:"title"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	errors []string
}

// Progress tracks harvest progress counters.
type Progress struct {
	Sections        int      `json:"sections"`
	FiguresTotal    int      `json:"figures_total"`
	FiguresMatched  int      `json:"figures_matched"`
	FiguresExported int      `json:"figures_exported"`
	Errors          []string `json:"errors"`
}

// NewJob creates a queued job for one PMCID.
func NewJob(pmcid string) *Job {
	now := time.Now()
	return &Job{
		ID:        NewJobID(),
		PMCID:     pmcid,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetTitle records the parsed article title.
func (j *Job) SetTitle(title string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Title = title
	j.UpdatedAt = time.Now()
}

// SetCounts records section/figure totals after parsing and matching.
func (j *Job) SetCounts(sections, figuresTotal, figuresMatched int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Sections = sections
	j.Progress.FiguresTotal = figuresTotal
	j.Progress.FiguresMatched = figuresMatched
	j.UpdatedAt = time.Now()
}

// SetExported records how many figures were written out.
func (j *Job) SetExported(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.FiguresExported = n
	j.UpdatedAt = time.Now()
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID       string    `json:"job_id"`
	PMCID    string    `json:"pmcid"`
	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Title    string    `json:"title,omitempty"`
	Progress Progress  `json:"progress"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:     j.ID,
		PMCID:  j.PMCID,
		Status: j.Status,
		Phase:  j.Phase,
		Title:  j.Title,
		Progress: Progress{
			Sections:        j.Progress.Sections,
			FiguresTotal:    j.Progress.FiguresTotal,
			FiguresMatched:  j.Progress.FiguresMatched,
			FiguresExported: j.Progress.FiguresExported,
			Errors:          errs,
		},
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
}
