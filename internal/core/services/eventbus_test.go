package services

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketscout/marketscout/internal/core/domain"
)

func newTestBus() *EventBus {
	return NewEventBus(slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

func TestEventBusPublishSubscribe(t *testing.T) {
	bus := newTestBus()

	ch, unsub := bus.Subscribe("job-1")
	defer unsub()

	sent := Event{
		JobID:     "job-1",
		Type:      EventTypeProgress,
		Status:    domain.JobStatusRunning,
		Stage:     domain.StageRunningAnalysis,
		Timestamp: time.Now().UTC(),
	}
	bus.Publish(sent)

	select {
	case got := <-ch:
		assert.Equal(t, sent.JobID, got.JobID)
		assert.Equal(t, sent.Stage, got.Stage)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestEventBusIsolatesJobs(t *testing.T) {
	bus := newTestBus()

	ch, unsub := bus.Subscribe("job-1")
	defer unsub()

	bus.Publish(Event{JobID: "job-2", Type: EventTypeStatus, Status: domain.JobStatusCompleted})

	select {
	case e := <-ch:
		t.Fatalf("unexpected event for other job: %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEventBusUnsubscribeClosesChannel(t *testing.T) {
	bus := newTestBus()

	ch, unsub := bus.Subscribe("job-1")
	unsub()

	_, open := <-ch
	require.False(t, open)

	// Publishing after the last unsubscribe is a no-op.
	bus.Publish(Event{JobID: "job-1", Type: EventTypeStatus})
}

func TestEventBusDropsWhenFull(t *testing.T) {
	bus := newTestBus()

	ch, unsub := bus.Subscribe("job-1")
	defer unsub()

	for i := 0; i < 150; i++ {
		bus.Publish(Event{JobID: "job-1", Type: EventTypeProgress})
	}

	// Buffer holds 100; the rest were dropped without blocking.
	assert.Equal(t, 100, len(ch))
}
