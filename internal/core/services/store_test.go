package services

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketscout/marketscout/internal/core/domain"
)

func newTestStore(t *testing.T) *JobStore {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	store, err := NewJobStore(logger, t.TempDir())
	require.NoError(t, err)
	return store
}

func testJob(id string, createdAt time.Time) *domain.Job {
	return &domain.Job{
		ID:        domain.JobID(id),
		Target:    "Slack",
		Mode:      domain.ModeQuick,
		Status:    domain.JobStatusStarting,
		CreatedAt: createdAt,
		Progress:  domain.Progress{Stage: domain.StageStarting},
	}
}

func TestJobStoreCreateAndGet(t *testing.T) {
	store := newTestStore(t)
	job := testJob("slack_20250314_090000_abcd1234", time.Now().UTC())
	store.Create(job)

	got, err := store.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, "Slack", got.Target)
	assert.Equal(t, domain.JobStatusStarting, got.Status)
}

func TestJobStoreGetUnknown(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Get("missing")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestJobStoreUpdate(t *testing.T) {
	store := newTestStore(t)
	job := testJob("job-1", time.Now().UTC())
	store.Create(job)

	ok := store.Update(job.ID, func(j *domain.Job) {
		j.Status = domain.JobStatusRunning
		j.Progress.Stage = domain.StageRunningAnalysis
	})
	assert.True(t, ok)

	got, err := store.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusRunning, got.Status)
	assert.Equal(t, domain.StageRunningAnalysis, got.Progress.Stage)
}

func TestJobStoreUpdateMissingIsNoop(t *testing.T) {
	store := newTestStore(t)
	assert.False(t, store.Update("missing", func(j *domain.Job) {
		j.Status = domain.JobStatusCompleted
	}))
}

func TestJobStoreMirrorRoundTrip(t *testing.T) {
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	store, err := NewJobStore(logger, dir)
	require.NoError(t, err)

	job := testJob("job-1", time.Now().UTC().Truncate(time.Second))
	job.Status = domain.JobStatusCompleted
	job.Result = &domain.Result{
		Summary:   "Slack leads team chat.",
		Sentiment: domain.DefaultSentiment(),
		Citations: []string{"https://slack.com"},
	}
	store.Create(job)
	require.NoError(t, store.SaveMirror(job))

	// A fresh store over the same directory sees only the mirror.
	reopened, err := NewJobStore(logger, dir)
	require.NoError(t, err)

	got, err := reopened.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, "Slack", got.Target)
	assert.Equal(t, domain.JobStatusCompleted, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, "Slack leads team chat.", got.Result.Summary)
	assert.Equal(t, []string{"https://slack.com"}, got.Result.Citations)
}

func TestJobStoreListNewestFirst(t *testing.T) {
	store := newTestStore(t)
	base := time.Now().UTC()
	store.Create(testJob("old", base.Add(-2*time.Hour)))
	store.Create(testJob("mid", base.Add(-time.Hour)))
	store.Create(testJob("new", base))

	jobs := store.List()
	require.Len(t, jobs, 3)
	assert.Equal(t, domain.JobID("new"), jobs[0].ID)
	assert.Equal(t, domain.JobID("old"), jobs[2].ID)
}

func TestJobStoreListMergesDiskMemoryWins(t *testing.T) {
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	store, err := NewJobStore(logger, dir)
	require.NoError(t, err)

	diskOnly := testJob("disk-only", time.Now().UTC().Add(-time.Hour))
	diskOnly.Status = domain.JobStatusCompleted
	require.NoError(t, store.SaveMirror(diskOnly))

	shared := testJob("shared", time.Now().UTC())
	shared.Status = domain.JobStatusCompleted
	require.NoError(t, store.SaveMirror(shared))
	shared.Status = domain.JobStatusRunning // memory record diverges
	store.Create(shared)

	jobs := store.List()
	require.Len(t, jobs, 2)
	assert.Equal(t, domain.JobID("shared"), jobs[0].ID)
	assert.Equal(t, domain.JobStatusRunning, jobs[0].Status)
	assert.Equal(t, domain.JobID("disk-only"), jobs[1].ID)
}

func TestJobStoreDelete(t *testing.T) {
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	store, err := NewJobStore(logger, dir)
	require.NoError(t, err)

	job := testJob("job-1", time.Now().UTC())
	store.Create(job)
	require.NoError(t, store.SaveMirror(job))

	require.NoError(t, store.Delete(job.ID))

	_, err = store.Get(job.ID)
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
	_, err = os.Stat(filepath.Join(dir, "jobs", string(job.ID)+".json"))
	assert.True(t, os.IsNotExist(err))

	assert.ErrorIs(t, store.Delete("missing"), domain.ErrJobNotFound)
}

func TestJobStoreSweep(t *testing.T) {
	store := newTestStore(t)

	old := testJob("old", time.Now().UTC().Add(-10*24*time.Hour))
	old.Status = domain.JobStatusCompleted
	require.NoError(t, store.SaveMirror(old))

	fresh := testJob("fresh", time.Now().UTC())
	fresh.Status = domain.JobStatusCompleted
	require.NoError(t, store.SaveMirror(fresh))

	removed := store.Sweep(7 * 24 * time.Hour)
	assert.Equal(t, 1, removed)

	_, err := store.Get("old")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
	_, err = store.Get("fresh")
	assert.NoError(t, err)

	assert.Zero(t, store.Sweep(0))
}
