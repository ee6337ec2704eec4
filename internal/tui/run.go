package tui

import (
	"context"
	"log"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/scihive/internal/bus"
	"github.com/csheth/scihive/internal/highlight"
)

// notificationBacklog bounds the notifications waiting for the update loop.
const notificationBacklog = 16

// Run mounts the reader and blocks until the user quits or ctx is done.
// Store changes, including those applied by the live connection, and
// notifications reach the update loop through Program.Send from a forwarding
// goroutine, so a store mutation made inside Update never waits on the loop.
func Run(ctx context.Context, cfg Config, notifications *bus.Bus[highlight.Notification], opts ...tea.ProgramOption) error {
	if cfg.Context == nil {
		cfg.Context = ctx
	}
	program := tea.NewProgram(New(cfg), opts...)

	done := make(chan struct{})
	snapshots := newSnapshotBox()
	stopSnapshots := cfg.Session.Store().Subscribe(snapshots.put)
	notes := make(chan highlight.Notification, notificationBacklog)
	stopNotes := func() {}
	if notifications != nil {
		stopNotes = notifications.Subscribe(func(n highlight.Notification) {
			select {
			case notes <- n:
			default:
				log.Printf("[tui] dropping notification %q: backlog full", n.Message)
			}
		})
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-snapshots.ready:
				if s, ok := snapshots.take(); ok {
					program.Send(snapshotMsg{Snapshot: s})
				}
			case n := <-notes:
				program.Send(notificationMsg{Notification: n})
			case <-ctx.Done():
				program.Quit()
				return
			case <-done:
				return
			}
		}
	}()

	_, err := program.Run()
	stopSnapshots()
	stopNotes()
	close(done)
	wg.Wait()
	return err
}

// snapshotBox holds the newest snapshot not yet handed to the program.
// Older snapshots that arrive late are discarded.
type snapshotBox struct {
	mu     sync.Mutex
	latest highlight.Snapshot
	full   bool
	ready  chan struct{}
}

func newSnapshotBox() *snapshotBox {
	return &snapshotBox{ready: make(chan struct{}, 1)}
}

func (b *snapshotBox) put(s highlight.Snapshot) {
	b.mu.Lock()
	if !b.full || s.Seq > b.latest.Seq {
		b.latest = s
		b.full = true
	}
	b.mu.Unlock()
	select {
	case b.ready <- struct{}{}:
	default:
	}
}

func (b *snapshotBox) take() (highlight.Snapshot, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.latest, b.full
	b.latest, b.full = highlight.Snapshot{}, false
	return s, ok
}
