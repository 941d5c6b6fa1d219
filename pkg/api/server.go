// Package api exposes the market research service over REST. Handlers are
// thin: validation and response shaping here, everything else in the
// services layer.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/marketscout/marketscout/internal/agents"
	"github.com/marketscout/marketscout/internal/analysis"
	"github.com/marketscout/marketscout/internal/core/domain"
	"github.com/marketscout/marketscout/internal/core/services"
	"github.com/marketscout/marketscout/internal/report"
)

const serviceVersion = "1.0.0"

type Server struct {
	logger   *slog.Logger
	store    *services.JobStore
	runner   *services.Runner
	eventBus *services.EventBus
}

func NewServer(logger *slog.Logger, store *services.JobStore, runner *services.Runner, eventBus *services.EventBus) *Server {
	return &Server{
		logger:   logger,
		store:    store,
		runner:   runner,
		eventBus: eventBus,
	}
}

// Handler returns the http.Handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /run-agent", s.handleRunAgent)
	mux.HandleFunc("GET /results/{job_id}", s.handleResults)
	mux.HandleFunc("GET /download/{file}", s.handleDownload)
	mux.HandleFunc("GET /download/{job_id}/citations.json", s.handleDownloadCitations)
	mux.HandleFunc("GET /jobs", s.handleListJobs)
	mux.HandleFunc("DELETE /jobs/{job_id}", s.handleDeleteJob)
	mux.HandleFunc("GET /jobs/{job_id}/events", s.handleJobEvents)

	return s.withRecovery(mux)
}

// withRecovery turns handler panics into a logged 500 with the uniform
// error body, instead of net/http dropping the connection.
func (s *Server) withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.Error("panic in handler", "method", r.Method, "path", r.URL.Path, "panic", rec)
				s.writeError(w, http.StatusInternalServerError, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// writeError emits the service's uniform error body.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error":       msg,
		"status_code": status,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// handleRoot returns service metadata.
// GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"service":       "Market Research Multi-Agent API",
		"version":       serviceVersion,
		"status":        "operational",
		"active_jobs":   s.store.Count(),
		"running_tasks": s.runner.ActiveCount(),
		"endpoints": map[string]string{
			"run_agent": "POST /run-agent",
			"results":   "GET /results/{job_id}",
			"download":  "GET /download/{job_id}.md|.pdf",
			"citations": "GET /download/{job_id}/citations.json",
			"jobs":      "GET /jobs",
			"events":    "GET /jobs/{job_id}/events",
			"health":    "GET /health",
		},
	})
}

// handleHealth reports liveness and the number of in-flight jobs.
// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":        "healthy",
		"version":       serviceVersion,
		"active_jobs":   s.store.Count(),
		"running_tasks": s.runner.ActiveCount(),
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	})
}

// handleRunAgent starts a background analysis job.
// POST /run-agent
func (s *Server) handleRunAgent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Target string `json:"target"`
		Mode   string `json:"mode"`
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	req.Target = strings.TrimSpace(req.Target)
	if req.Target == "" {
		s.writeError(w, http.StatusBadRequest, "target is required")
		return
	}
	mode, err := domain.ParseMode(req.Mode)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.APIKey == "" {
		s.writeError(w, http.StatusBadRequest, "api_key is required")
		return
	}

	job := s.runner.Submit(req.Target, mode, req.APIKey)

	s.writeJSON(w, http.StatusOK, map[string]any{
		"job_id":               job.ID,
		"status":               "started",
		"message":              fmt.Sprintf("Market research analysis started for '%s'", req.Target),
		"estimated_completion": agents.EstimatedCompletion(mode),
	})
}

// handleResults returns the full job record, including the result once
// the job completes.
// GET /results/{job_id}
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	id := domain.JobID(r.PathValue("job_id"))
	job, err := s.store.Get(id)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "Job not found")
		return
	}
	s.writeJSON(w, http.StatusOK, job)
}

// handleDownload serves the rendered report as a markdown or PDF
// attachment. The path segment is <job_id>.md or <job_id>.pdf.
// GET /download/{job_id}.md
// GET /download/{job_id}.pdf
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	file := r.PathValue("file")

	var id domain.JobID
	var format string
	switch {
	case strings.HasSuffix(file, ".md"):
		id, format = domain.JobID(strings.TrimSuffix(file, ".md")), "md"
	case strings.HasSuffix(file, ".pdf"):
		id, format = domain.JobID(strings.TrimSuffix(file, ".pdf")), "pdf"
	default:
		s.writeError(w, http.StatusBadRequest, "unsupported download format")
		return
	}

	job, err := s.store.Get(id)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "Job not found")
		return
	}
	if job.Status != domain.JobStatusCompleted {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("Job is not completed yet. Current status: %s", job.Status))
		return
	}

	completedAt := job.CreatedAt
	if job.CompletedAt != nil {
		completedAt = *job.CompletedAt
	}
	markdown := report.RenderMarkdown(job.Result, completedAt)
	name := attachmentName("analysis", job, format)

	switch format {
	case "md":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, markdown)
	case "pdf":
		pdf, err := report.RenderPDF(markdown, job.Target, completedAt)
		if err != nil {
			s.logger.Error("pdf generation failed", "job_id", job.ID, "error", err)
			s.writeError(w, http.StatusInternalServerError, "Failed to generate PDF report")
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
		w.WriteHeader(http.StatusOK)
		w.Write(pdf)
	}
}

// handleDownloadCitations serves the structured citation list.
// GET /download/{job_id}/citations.json
func (s *Server) handleDownloadCitations(w http.ResponseWriter, r *http.Request) {
	id := domain.JobID(r.PathValue("job_id"))
	job, err := s.store.Get(id)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "Job not found")
		return
	}
	if job.Status != domain.JobStatusCompleted {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("Job is not completed yet. Current status: %s", job.Status))
		return
	}

	var raws []string
	if job.Result != nil {
		raws = job.Result.Citations
	}
	type citationEntry struct {
		ID        int    `json:"id"`
		Raw       string `json:"raw"`
		URL       string `json:"url"`
		Title     string `json:"title"`
		Formatted string `json:"formatted"`
	}
	citations := make([]citationEntry, 0, len(raws))
	for i, raw := range raws {
		url, title := analysis.DescribeCitation(raw)
		formatted := raw
		if !strings.HasPrefix(raw, "[") {
			formatted = fmt.Sprintf("[%d] %s", i+1, raw)
		}
		citations = append(citations, citationEntry{
			ID:        i + 1,
			Raw:       raw,
			URL:       url,
			Title:     title,
			Formatted: formatted,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+attachmentName("citations", job, "json")+`"`)
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":          job.ID,
		"target":          job.Target,
		"generated_at":    time.Now().UTC().Format(time.RFC3339),
		"citations":       citations,
		"total_citations": len(citations),
	})
}

// handleListJobs returns all jobs, newest first.
// GET /jobs
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.store.List()
	if jobs == nil {
		jobs = []*domain.Job{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"jobs":  jobs,
		"total": len(jobs),
	})
}

// handleDeleteJob cancels any running work and removes the record and its
// stored file.
// DELETE /jobs/{job_id}
func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	id := domain.JobID(r.PathValue("job_id"))
	if _, err := s.store.Get(id); err != nil {
		s.writeError(w, http.StatusNotFound, "Job not found")
		return
	}

	s.runner.Cancel(id)
	if err := s.store.Delete(id); err != nil && err != domain.ErrJobNotFound {
		s.logger.Error("failed to delete job", "job_id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to delete job")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Job %s deleted", id),
	})
}

// handleJobEvents streams job progress over SSE until the job reaches a
// terminal state or the client disconnects.
// GET /jobs/{job_id}/events
func (s *Server) handleJobEvents(w http.ResponseWriter, r *http.Request) {
	id := domain.JobID(r.PathValue("job_id"))
	job, err := s.store.Get(id)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "Job not found")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	eventCh, unsub := s.eventBus.Subscribe(id)
	defer unsub()

	// A job can finish between the first read and Subscribe, with its
	// terminal event published to nobody. Re-read so the initial frame
	// carries the post-subscription state.
	if cur, err := s.store.Get(id); err == nil {
		job = cur
	}

	// Initial frame carries the state at subscription time, so late
	// subscribers to a finished job still get a terminal event.
	s.writeSSE(w, services.Event{
		JobID:     id,
		Type:      services.EventTypeStatus,
		Status:    job.Status,
		Stage:     job.Progress.Stage,
		Timestamp: time.Now().UTC(),
	})
	flusher.Flush()
	if job.Status.Terminal() {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-eventCh:
			if !ok {
				return
			}
			s.writeSSE(w, event)
			flusher.Flush()
			if event.Status.Terminal() {
				return
			}
		}
	}
}

func (s *Server) writeSSE(w http.ResponseWriter, event services.Event) {
	payload, err := json.Marshal(map[string]any{
		"job_id":    event.JobID,
		"status":    event.Status,
		"stage":     event.Stage,
		"timestamp": event.Timestamp.Format(time.RFC3339),
	})
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload)
}

// attachmentName builds download filenames like
// analysis_<target>_<id8>.pdf, keeping them filesystem safe.
func attachmentName(prefix string, job *domain.Job, ext string) string {
	target := domain.SanitizeTarget(job.Target)
	if target == "" {
		target = "report"
	}
	id8 := string(job.ID)
	if len(id8) > 8 {
		id8 = id8[:8]
	}
	return fmt.Sprintf("%s_%s_%s.%s", prefix, target, id8, ext)
}
