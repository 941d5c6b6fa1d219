package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/marketscout/marketscout/internal/analysis"
	"github.com/marketscout/marketscout/internal/core/domain"
	"github.com/marketscout/marketscout/internal/report"
)

// Runner executes analysis jobs in the background, one goroutine per job,
// bounded by a weighted semaphore. Finished workers signal a done channel
// consumed by a supervisor goroutine that removes them from the active
// registry.
type Runner struct {
	logger   *slog.Logger
	store    *JobStore
	bus      *EventBus
	platform domain.AgentPlatform
	sem      *semaphore.Weighted

	mu     sync.Mutex
	active map[domain.JobID]context.CancelFunc
	done   chan domain.JobID

	baseCtx context.Context
}

func NewRunner(logger *slog.Logger, store *JobStore, bus *EventBus, platform domain.AgentPlatform, maxConcurrent int) *Runner {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Runner{
		logger:   logger,
		store:    store,
		bus:      bus,
		platform: platform,
		sem:      semaphore.NewWeighted(int64(maxConcurrent)),
		active:   make(map[domain.JobID]context.CancelFunc),
		done:     make(chan domain.JobID, 100),
	}
}

// Start launches the supervisor. Workers inherit ctx, so cancelling it
// stops all in-flight jobs.
func (r *Runner) Start(ctx context.Context) {
	r.baseCtx = ctx
	go r.supervise(ctx)
}

func (r *Runner) supervise(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-r.done:
			r.mu.Lock()
			delete(r.active, id)
			r.mu.Unlock()
		}
	}
}

// ActiveCount returns the number of jobs currently registered as running.
func (r *Runner) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

// Submit registers a new job in the starting state and launches its
// worker. The returned job is the record as created.
func (r *Runner) Submit(target string, mode domain.Mode, apiKey string) *domain.Job {
	now := time.Now().UTC()
	job := &domain.Job{
		ID:        domain.NewJobID(target, now),
		Target:    target,
		Mode:      mode,
		Status:    domain.JobStatusStarting,
		CreatedAt: now,
		Progress:  domain.Progress{Stage: domain.StageStarting},
	}
	r.store.Create(job)

	jobCtx, cancel := context.WithCancel(r.baseCtx)
	r.mu.Lock()
	r.active[job.ID] = cancel
	r.mu.Unlock()

	go r.work(jobCtx, job.ID, domain.AnalysisRequest{
		Target: target,
		Mode:   mode,
		APIKey: apiKey,
	})

	r.logger.Info("job submitted", "job_id", job.ID, "target", target, "mode", mode)
	return job
}

// Cancel stops a running job's worker if one is registered.
func (r *Runner) Cancel(id domain.JobID) {
	r.mu.Lock()
	cancel, ok := r.active[id]
	r.mu.Unlock()
	if ok {
		cancel()
	}
}

func (r *Runner) work(ctx context.Context, id domain.JobID, req domain.AnalysisRequest) {
	defer func() { r.done <- id }()

	if err := r.sem.Acquire(ctx, 1); err != nil {
		r.failJob(id, err)
		return
	}
	defer r.sem.Release(1)

	r.setStage(id, domain.JobStatusRunning, domain.StageCreatingAgents)
	req.OnProgress = func(stage string) {
		r.setStage(id, domain.JobStatusRunning, stage)
	}

	raw, err := r.platform.RunAnalysis(ctx, req)
	if err != nil {
		r.failJob(id, err)
		return
	}

	clean := analysis.Normalize(raw)
	result := analysis.Extract(clean, req.Target)
	result.HTML = report.RenderHTML(clean)

	now := time.Now().UTC()
	updated := r.store.Update(id, func(job *domain.Job) {
		job.Status = domain.JobStatusCompleted
		job.CompletedAt = &now
		job.Result = &result
		job.Progress.Stage = domain.StageCompleted
		job.Progress.AnalysisCompleted = true
	})
	if !updated {
		// Job was deleted mid-run; the result is dropped.
		r.logger.Info("discarding result for deleted job", "job_id", id)
		return
	}

	if job, err := r.store.Get(id); err == nil {
		if err := r.store.SaveMirror(job); err != nil {
			r.logger.Error("failed to persist job mirror", "job_id", id, "error", err)
		}
	}

	r.bus.Publish(Event{
		JobID:     id,
		Type:      EventTypeStatus,
		Status:    domain.JobStatusCompleted,
		Stage:     domain.StageCompleted,
		Timestamp: now,
	})
	r.logger.Info("job completed", "job_id", id, "citations", len(result.Citations))
}

func (r *Runner) setStage(id domain.JobID, status domain.JobStatus, stage string) {
	updated := r.store.Update(id, func(job *domain.Job) {
		job.Status = status
		job.Progress.Stage = stage
		switch stage {
		case domain.StageRunningAnalysis:
			job.Progress.AgentsReady = true
			job.Progress.AnalysisStarted = true
		}
	})
	if !updated {
		return
	}
	r.bus.Publish(Event{
		JobID:     id,
		Type:      EventTypeProgress,
		Status:    status,
		Stage:     stage,
		Timestamp: time.Now().UTC(),
	})
}

// failJob marks the job failed, storing the error message verbatim. There
// is no retry; the client resubmits if it wants another attempt.
func (r *Runner) failJob(id domain.JobID, cause error) {
	msg := cause.Error()
	now := time.Now().UTC()
	updated := r.store.Update(id, func(job *domain.Job) {
		job.Status = domain.JobStatusFailed
		job.CompletedAt = &now
		job.Error = &msg
		job.Progress.Stage = domain.StageFailed
	})
	if !updated {
		return
	}

	if job, err := r.store.Get(id); err == nil {
		if err := r.store.SaveMirror(job); err != nil {
			r.logger.Error("failed to persist job mirror", "job_id", id, "error", err)
		}
	}

	r.bus.Publish(Event{
		JobID:     id,
		Type:      EventTypeStatus,
		Status:    domain.JobStatusFailed,
		Stage:     domain.StageFailed,
		Timestamp: now,
	})
	r.logger.Error("job failed", "job_id", id, "error", msg)
}
