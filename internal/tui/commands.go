package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/scihive/internal/highlight"
	"github.com/csheth/scihive/internal/notes"
	"github.com/csheth/scihive/internal/session"
)

type openResultMsg struct {
	paperID string
	err     error
}

type submitResultMsg struct {
	highlight highlight.Highlight
	err       error
}

type replyResultMsg struct {
	highlight highlight.Highlight
	err       error
}

type deleteResultMsg struct {
	id  string
	err error
}

type exportResultMsg struct {
	path  string
	count int
	err   error
}

func openPaperJob(sess *session.Session, paperID string) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		err := sess.Open(ctx, paperID)
		return openResultMsg{paperID: paperID, err: err}, err
	}
}

func submitJob(store *highlight.Store, draft highlight.Draft) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		h, err := store.Submit(ctx, draft)
		return submitResultMsg{highlight: h, err: err}, err
	}
}

func replyJob(store *highlight.Store, id, text string) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		h, err := store.Reply(ctx, id, text)
		return replyResultMsg{highlight: h, err: err}, err
	}
}

func deleteJob(store *highlight.Store, id string) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		err := store.Remove(ctx, id)
		return deleteResultMsg{id: id, err: err}, err
	}
}

func exportJob(path string, store *highlight.Store) jobRunner {
	meta := store.Metadata()
	sections, _, _ := store.Sections()
	paper := notes.Paper{
		ID:       store.PaperID(),
		Title:    meta.Title,
		URL:      store.PaperURL(),
		Sections: sections,
	}
	highlights := store.All()
	return func(context.Context) (tea.Msg, error) {
		if path == "" {
			err := errors.New("no knowledge base configured")
			return exportResultMsg{err: err}, err
		}
		entry, err := notes.ExportHighlights(path, paper, highlights)
		if err != nil {
			return exportResultMsg{path: path, err: err}, err
		}
		return exportResultMsg{path: path, count: len(entry.Highlights)}, nil
	}
}
