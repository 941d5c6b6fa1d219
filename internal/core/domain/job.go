package domain

import (
	"crypto/md5"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

type JobID string

type JobStatus string

const (
	JobStatusStarting  JobStatus = "starting"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

type Mode string

const (
	ModeQuick    Mode = "quick"
	ModeDetailed Mode = "detailed"
)

// ParseMode validates a client-supplied mode string. Empty defaults to quick.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", string(ModeQuick):
		return ModeQuick, nil
	case string(ModeDetailed):
		return ModeDetailed, nil
	default:
		return "", fmt.Errorf("mode must be 'quick' or 'detailed'")
	}
}

const (
	StageStarting        = "starting"
	StageCreatingAgents  = "creating_agents"
	StageRunningAnalysis = "running_analysis"
	StageCompleted       = "completed"
	StageFailed          = "failed"
)

// Progress carries free-form stage markers for a running analysis.
type Progress struct {
	Stage             string `json:"stage"`
	AgentsReady       bool   `json:"agents_ready"`
	AnalysisStarted   bool   `json:"analysis_started"`
	AnalysisCompleted bool   `json:"analysis_completed"`
}

// Job is one research request and its lifecycle record.
type Job struct {
	ID          JobID      `json:"job_id"`
	Target      string     `json:"target"`
	Mode        Mode       `json:"mode"`
	Status      JobStatus  `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Progress    Progress   `json:"progress"`
	Result      *Result    `json:"result,omitempty"`
	Error       *string    `json:"error,omitempty"`
}

var ErrJobNotFound = errors.New("job not found")

var (
	invalidFileChars = regexp.MustCompile(`[<>:"/\\|?*\s]+`)
	repeatUnderscore = regexp.MustCompile(`_+`)
)

// SanitizeTarget turns a free-text target into a filesystem-safe token.
func SanitizeTarget(target string) string {
	s := invalidFileChars.ReplaceAllString(strings.ToLower(target), "_")
	s = repeatUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_. ")
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

// NewJobID derives an identifier from the target, the current time and a
// short hash of (target, timestamp, pid). Not globally unique across
// processes, but collisions are negligible within operational scope.
func NewJobID(target string, now time.Time) JobID {
	ts := now.Format("20060102_150405")
	sanitized := SanitizeTarget(target)
	if sanitized == "" {
		sanitized = uuid.NewString()[:8]
	}
	sum := md5.Sum(fmt.Appendf(nil, "%s%s%d", target, ts, os.Getpid()))
	return JobID(fmt.Sprintf("%s_%s_%x", sanitized, ts, sum[:4]))
}
