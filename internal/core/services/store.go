package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/marketscout/marketscout/internal/core/domain"
)

// mirrorRecord is the on-disk shape of a job, one JSON file per job under
// <root>/jobs/<id>.json. The in-memory map is authoritative; the mirror
// survives restarts and feeds the retention sweep.
type mirrorRecord struct {
	JobID     domain.JobID     `json:"job_id"`
	Target    string           `json:"target"`
	CreatedAt time.Time        `json:"created_at"`
	Status    domain.JobStatus `json:"status"`
	Result    *domain.Result   `json:"result,omitempty"`
	Error     *string          `json:"error,omitempty"`
}

type JobStore struct {
	logger *slog.Logger
	dir    string
	mu     sync.RWMutex
	jobs   map[domain.JobID]*domain.Job
}

// NewJobStore creates the store rooted at dir, creating <dir>/jobs if
// needed.
func NewJobStore(logger *slog.Logger, dir string) (*JobStore, error) {
	jobsDir := filepath.Join(dir, "jobs")
	if err := os.MkdirAll(jobsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &JobStore{
		logger: logger,
		dir:    jobsDir,
		jobs:   make(map[domain.JobID]*domain.Job),
	}, nil
}

func (s *JobStore) Create(job *domain.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *job
	s.jobs[job.ID] = &copied
}

// Get returns a copy of the job. On a memory miss it falls back to the
// disk mirror and repopulates the map, so completed jobs survive restarts.
func (s *JobStore) Get(id domain.JobID) (*domain.Job, error) {
	s.mu.RLock()
	job, ok := s.jobs[id]
	if ok {
		copied := *job
		s.mu.RUnlock()
		return &copied, nil
	}
	s.mu.RUnlock()

	job, err := s.loadMirror(id)
	if err != nil {
		return nil, domain.ErrJobNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.jobs[id]; ok {
		copied := *existing
		return &copied, nil
	}
	s.jobs[id] = job
	copied := *job
	return &copied, nil
}

// Update applies mutate to the in-memory record under the write lock and
// reports whether the job was present. Disk is untouched; callers persist
// terminal states explicitly via SaveMirror.
func (s *JobStore) Update(id domain.JobID, mutate func(*domain.Job)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return false
	}
	mutate(job)
	return true
}

// Count returns the number of jobs currently held in memory.
func (s *JobStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// List returns all known jobs, newest first. Disk mirrors not present in
// memory are included; the in-memory record wins on conflict.
func (s *JobStore) List() []*domain.Job {
	s.mu.RLock()
	out := make([]*domain.Job, 0, len(s.jobs))
	seen := make(map[domain.JobID]bool, len(s.jobs))
	for id, job := range s.jobs {
		copied := *job
		out = append(out, &copied)
		seen[id] = true
	}
	s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("failed to read storage directory", "error", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		id := domain.JobID(strings.TrimSuffix(name, ".json"))
		if seen[id] {
			continue
		}
		job, err := s.loadMirror(id)
		if err != nil {
			s.logger.Warn("skipping unreadable job mirror", "file", name, "error", err)
			continue
		}
		out = append(out, job)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Delete removes the job from memory and its mirror from disk.
func (s *JobStore) Delete(id domain.JobID) error {
	s.mu.Lock()
	_, inMemory := s.jobs[id]
	delete(s.jobs, id)
	s.mu.Unlock()

	err := os.Remove(s.mirrorPath(id))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete job mirror: %w", err)
	}
	if !inMemory && os.IsNotExist(err) {
		return domain.ErrJobNotFound
	}
	return nil
}

// SaveMirror writes the job's mirror file. Called on terminal transitions.
func (s *JobStore) SaveMirror(job *domain.Job) error {
	record := mirrorRecord{
		JobID:     job.ID,
		Target:    job.Target,
		CreatedAt: job.CreatedAt,
		Status:    job.Status,
		Result:    job.Result,
		Error:     job.Error,
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal job mirror: %w", err)
	}
	if err := os.WriteFile(s.mirrorPath(job.ID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write job mirror: %w", err)
	}
	return nil
}

// Sweep deletes mirror files older than maxAge, using the recorded
// created_at and falling back to the file's mtime. Non-positive maxAge
// disables the sweep.
func (s *JobStore) Sweep(maxAge time.Duration) int {
	if maxAge <= 0 {
		return 0
	}
	cutoff := time.Now().Add(-maxAge)

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("retention sweep failed to read storage directory", "error", err)
		return 0
	}

	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		id := domain.JobID(strings.TrimSuffix(name, ".json"))

		createdAt := time.Time{}
		if job, err := s.loadMirror(id); err == nil {
			createdAt = job.CreatedAt
		} else if info, err := entry.Info(); err == nil {
			createdAt = info.ModTime()
		}
		if createdAt.IsZero() || createdAt.After(cutoff) {
			continue
		}

		if err := os.Remove(s.mirrorPath(id)); err != nil {
			s.logger.Warn("retention sweep failed to remove mirror", "job_id", id, "error", err)
			continue
		}
		s.mu.Lock()
		delete(s.jobs, id)
		s.mu.Unlock()
		removed++
	}
	if removed > 0 {
		s.logger.Info("retention sweep removed old jobs", "count", removed, "max_age", maxAge)
	}
	return removed
}

func (s *JobStore) mirrorPath(id domain.JobID) string {
	return filepath.Join(s.dir, string(id)+".json")
}

func (s *JobStore) loadMirror(id domain.JobID) (*domain.Job, error) {
	data, err := os.ReadFile(s.mirrorPath(id))
	if err != nil {
		return nil, err
	}
	var record mirrorRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse job mirror: %w", err)
	}

	job := &domain.Job{
		ID:        record.JobID,
		Target:    record.Target,
		CreatedAt: record.CreatedAt,
		Status:    record.Status,
		Result:    record.Result,
		Error:     record.Error,
	}
	if job.ID == "" {
		job.ID = id
	}
	return job, nil
}
