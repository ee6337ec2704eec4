package tui

import (
	"context"
	"io"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/scihive/internal/highlight"
)

func TestRunTogglesVisibilityAndQuits(t *testing.T) {
	t.Parallel()
	m, _ := newTestModel(t, highlight.Paper{
		URL:        "p1.pdf",
		Highlights: []highlight.Highlight{onSelectedLine("a", highlight.VisibilityPublic, false)},
	}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in, keys := io.Pipe()
	defer keys.Close()
	result := make(chan error, 1)
	go func() {
		result <- Run(ctx, m.config, nil, tea.WithInput(in), tea.WithOutput(io.Discard), tea.WithoutRenderer())
	}()

	// "v" is ignored until the paper has opened, so it is resent until the
	// toggle lands.
	deadline := time.Now().Add(5 * time.Second)
	for !m.store.Hidden() {
		if time.Now().After(deadline) {
			t.Fatal("visibility never toggled")
		}
		if _, err := keys.Write([]byte("v")); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		waitUntil(500*time.Millisecond, m.store.Hidden)
	}

	if _, err := keys.Write([]byte("q")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	select {
	case err := <-result:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after q")
	}
}

func waitUntil(d time.Duration, cond func() bool) {
	deadline := time.Now().Add(d)
	for !cond() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
}
