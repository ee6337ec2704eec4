package tui

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type jobKind string

type jobStatus string

const (
	jobKindOpen   jobKind = "open"
	jobKindSubmit jobKind = "submit"
	jobKindReply  jobKind = "reply"
	jobKindDelete jobKind = "delete"
	jobKindExport jobKind = "export"
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

// jobBus runs store and API calls off the update loop. Every job reports
// twice: once when it starts and once with its payload.
type jobBus struct {
	counter int64
	ctx     context.Context
	timeout time.Duration
}

func newJobBus(ctx context.Context, timeout time.Duration) *jobBus {
	if ctx == nil {
		ctx = context.Background()
	}
	return &jobBus{ctx: ctx, timeout: timeout}
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
		return b.run(startSnapshot, runner)
	}

	return tea.Sequence(startCmd, runCmd)
}

func (b *jobBus) run(start jobSnapshot, runner jobRunner) jobResultEnvelope {
	ctx := b.ctx
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	payload, err := runner(ctx)
	snapshot := start
	snapshot.CompletedAt = time.Now()
	if err != nil {
		snapshot.Status = jobStatusFailed
		snapshot.Err = err.Error()
	} else {
		snapshot.Status = jobStatusSucceeded
	}
	snapshot.Duration = snapshot.CompletedAt.Sub(start.StartedAt)
	log.Printf("[jobs] %s %s (duration=%s, err=%v)", start.ID, snapshot.Status, snapshot.Duration, err)
	return jobResultEnvelope{Snapshot: snapshot, Payload: payload}
}
