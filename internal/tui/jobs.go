package tui

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/promptune/internal/logger"
)

type jobKind string

type jobStatus string

const (
	jobKindRewrite jobKind = "rewrite"
	jobKindChat    jobKind = "chat"
	jobKindArchive jobKind = "archive"
	jobKindCopy    jobKind = "copy"
)

const (
	jobStatusRunning   jobStatus = "running"
	jobStatusSucceeded jobStatus = "succeeded"
	jobStatusFailed    jobStatus = "failed"
)

type jobSnapshot struct {
	ID          string
	Kind        jobKind
	Status      jobStatus
	StartedAt   time.Time
	CompletedAt time.Time
	Err         string
	Duration    time.Duration
}

type jobSignalMsg struct {
	Snapshot jobSnapshot
}

type jobResultEnvelope struct {
	Snapshot jobSnapshot
	Payload  tea.Msg
}

type jobRunner func(context.Context) (tea.Msg, error)

// jobBus wraps background work so the model sees a start signal and a
// result envelope for every job, and every outcome lands in the log.
type jobBus struct {
	counter int64
}

func newJobBus() *jobBus {
	return &jobBus{}
}

func (b *jobBus) nextID(kind jobKind) string {
	idx := atomic.AddInt64(&b.counter, 1)
	return fmt.Sprintf("%s-%d", kind, idx)
}

func (b *jobBus) Start(kind jobKind, runner jobRunner) tea.Cmd {
	id := b.nextID(kind)
	started := time.Now()
	startSnapshot := jobSnapshot{ID: id, Kind: kind, Status: jobStatusRunning, StartedAt: started}
	startCmd := func() tea.Msg {
		return jobSignalMsg{Snapshot: startSnapshot}
	}

	runCmd := func() tea.Msg {
		payload, err := runner(context.Background())
		snapshot := jobSnapshot{
			ID:          id,
			Kind:        kind,
			StartedAt:   started,
			CompletedAt: time.Now(),
		}
		if err != nil {
			snapshot.Status = jobStatusFailed
			snapshot.Err = err.Error()
		} else {
			snapshot.Status = jobStatusSucceeded
		}
		snapshot.Duration = snapshot.CompletedAt.Sub(started)
		entry := logger.Named("jobs").WithFields(logger.Fields{
			"job":      id,
			"status":   snapshot.Status,
			"duration": snapshot.Duration.Round(time.Millisecond),
		})
		if err != nil {
			entry.WithError(err).Warn("job finished")
		} else {
			entry.Debug("job finished")
		}
		return jobResultEnvelope{Snapshot: snapshot, Payload: payload}
	}

	return tea.Sequence(startCmd, runCmd)
}

// jobTracker counts running jobs per kind for the session meter.
type jobTracker struct {
	running map[jobKind]int
	last    *jobSnapshot
}

func newJobTracker() jobTracker {
	return jobTracker{running: map[jobKind]int{}}
}

func (t *jobTracker) started(s jobSnapshot) {
	t.running[s.Kind]++
}

func (t *jobTracker) finished(s jobSnapshot) {
	if t.running[s.Kind] > 0 {
		t.running[s.Kind]--
	}
	snap := s
	t.last = &snap
}

func (t *jobTracker) Running(kind jobKind) int {
	return t.running[kind]
}
