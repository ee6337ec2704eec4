package notes

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/csheth/scihive/internal/highlight"
	"github.com/csheth/scihive/internal/toc"
)

// ExportedHighlight is the knowledge-base form of a highlight.
type ExportedHighlight struct {
	ID         string    `json:"id"`
	Page       int       `json:"page"`
	Text       string    `json:"text"`
	Comment    string    `json:"comment,omitempty"`
	Visibility string    `json:"visibility,omitempty"`
	Author     string    `json:"author,omitempty"`
	Replies    []string  `json:"replies,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	// FirstExported survives re-exports of the same highlight.
	FirstExported time.Time `json:"firstExported"`
}

// PaperExport is the entry kept for one paper.
type PaperExport struct {
	EntryType  string              `json:"entryType"`
	PaperID    string              `json:"paperId"`
	Title      string              `json:"title"`
	URL        string              `json:"url,omitempty"`
	Sections   []string            `json:"sections,omitempty"`
	ExportedAt time.Time           `json:"exportedAt"`
	Highlights []ExportedHighlight `json:"highlights"`
}

// Paper describes the paper being exported.
type Paper struct {
	ID       string
	Title    string
	URL      string
	Sections []toc.Section
}

// ExportHighlights writes the highlights of a paper into the knowledge base
// at path. An existing entry for the paper is replaced; highlights that were
// exported before keep their first export time.
func ExportHighlights(path string, paper Paper, highlights []highlight.Highlight) (PaperExport, error) {
	if path == "" || paper.ID == "" {
		return PaperExport{}, fmt.Errorf("export highlights: path and paper id are required")
	}
	entries, err := loadEntries(path)
	if err != nil {
		return PaperExport{}, err
	}

	now := time.Now().UTC()
	idx := -1
	var previous PaperExport
	for i, raw := range entries {
		kind, err := entryType(raw)
		if err != nil {
			return PaperExport{}, fmt.Errorf("entry %d: %w", i, err)
		}
		if kind != entryTypeHighlights {
			continue
		}
		var e PaperExport
		if err := json.Unmarshal(raw, &e); err != nil {
			return PaperExport{}, fmt.Errorf("entry %d: %w", i, err)
		}
		if e.PaperID == paper.ID {
			idx, previous = i, e
			break
		}
	}

	firstSeen := make(map[string]time.Time, len(previous.Highlights))
	for _, h := range previous.Highlights {
		firstSeen[h.ID] = h.FirstExported
	}

	export := PaperExport{
		EntryType:  entryTypeHighlights,
		PaperID:    paper.ID,
		Title:      paper.Title,
		URL:        paper.URL,
		ExportedAt: now,
		Highlights: make([]ExportedHighlight, 0, len(highlights)),
	}
	for _, s := range paper.Sections {
		export.Sections = append(export.Sections, s.Label+" "+s.Title)
	}
	for _, h := range highlights {
		eh := ExportedHighlight{
			ID:            h.ID,
			Page:          h.Position.PageNumber,
			Text:          h.HighlightedText,
			Comment:       h.Comment.Text,
			Visibility:    string(h.Visibility.Type),
			Author:        h.User.Username,
			CreatedAt:     h.CreatedAt,
			FirstExported: now,
		}
		if t, ok := firstSeen[h.ID]; ok && !t.IsZero() {
			eh.FirstExported = t
		}
		for _, r := range h.Replies {
			eh.Replies = append(eh.Replies, r.Text)
		}
		export.Highlights = append(export.Highlights, eh)
	}

	raw, err := json.Marshal(export)
	if err != nil {
		return PaperExport{}, err
	}
	if idx >= 0 {
		entries[idx] = raw
	} else {
		entries = append(entries, raw)
	}
	if err := writeEntries(path, entries); err != nil {
		return PaperExport{}, err
	}
	return export, nil
}

// LoadExports returns every paper export stored at path.
func LoadExports(path string) ([]PaperExport, error) {
	entries, err := loadEntries(path)
	if err != nil {
		return nil, err
	}
	var out []PaperExport
	for _, raw := range entries {
		kind, err := entryType(raw)
		if err != nil {
			return nil, err
		}
		if kind != entryTypeHighlights {
			continue
		}
		var e PaperExport
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
