// Package session wires the pieces of one open paper together: the highlight
// store, its live room, the page viewports and the table of contents.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"unicode/utf8"

	"github.com/csheth/scihive/internal/anchor"
	"github.com/csheth/scihive/internal/geometry"
	"github.com/csheth/scihive/internal/highlight"
	"github.com/csheth/scihive/internal/jump"
	"github.com/csheth/scihive/internal/pdftext"
	"github.com/csheth/scihive/internal/selection"
	"github.com/csheth/scihive/internal/toc"
)

// ErrNoDocument is returned by operations that need the PDF text layer.
var ErrNoDocument = errors.New("session: no document loaded")

// Rooms is the part of the live client a session uses.
type Rooms interface {
	Join(room string) error
	Leave(room string) error
}

// Fetcher resolves a document URL to a local file; *pdftext.Cache does this.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Config holds the collaborators of a Session. Store is required.
type Config struct {
	Store   *highlight.Store
	Rooms   Rooms
	Fetcher Fetcher
	// OpenDocument reads a local PDF; defaults to pdftext.Open.
	OpenDocument func(path string) (*pdftext.Document, error)
	// Scale is the initial zoom factor of page viewports; defaults to 1.
	Scale float64
}

// Session is the paper view. Open replaces the current paper.
type Session struct {
	store     *highlight.Store
	rooms     Rooms
	fetcher   Fetcher
	open      func(string) (*pdftext.Document, error)
	gate      *anchor.Gate
	collector *toc.Collector

	mu      sync.Mutex
	paperID string
	doc     *pdftext.Document
	scale   float64
}

// New returns a session with nothing open.
func New(cfg Config) *Session {
	open := cfg.OpenDocument
	if open == nil {
		open = pdftext.Open
	}
	scale := cfg.Scale
	if scale <= 0 {
		scale = 1
	}
	return &Session{
		store:     cfg.Store,
		rooms:     cfg.Rooms,
		fetcher:   cfg.Fetcher,
		open:      open,
		gate:      anchor.NewGate(0),
		collector: toc.NewCollector(0),
		scale:     scale,
	}
}

// Store returns the highlight store.
func (s *Session) Store() *highlight.Store { return s.store }

// Gate returns the viewport gate of the open document.
func (s *Session) Gate() *anchor.Gate { return s.gate }

// PaperID returns the id of the open paper.
func (s *Session) PaperID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paperID
}

// Document returns the text layer of the open paper, if it was loaded.
func (s *Session) Document() *pdftext.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Open loads paperID, joins its live room and prepares its document. A
// missing or unreadable PDF does not fail the call: the paper stays viewable
// and the table of contents reports that extraction failed.
func (s *Session) Open(ctx context.Context, paperID string) error {
	s.Close()

	s.mu.Lock()
	s.paperID = paperID
	s.mu.Unlock()

	// The room is joined before the fetch so that no change made while the
	// paper loads is missed.
	var join func() error
	if s.rooms != nil {
		join = func() error { return s.rooms.Join(paperID) }
	}
	if err := s.store.LoadSubscribed(ctx, paperID, join); err != nil {
		return err
	}
	if s.PaperID() != paperID || s.store.PaperID() != paperID {
		// Another Open or Close won the race.
		return nil
	}

	doc, err := s.loadDocument(ctx)
	if err != nil {
		log.Printf("[session] document for %s unavailable: %v", paperID, err)
		s.store.SetSections(toc.Result{Failed: true})
		return nil
	}

	s.mu.Lock()
	if s.paperID != paperID {
		s.mu.Unlock()
		return nil
	}
	s.doc = doc
	scale := s.scale
	s.mu.Unlock()

	s.gate.Reset(doc.PageCount())
	s.collector.Reset(doc.PageCount())
	if doc.PageCount() == 0 {
		s.store.SetSections(toc.Result{Failed: true})
	}
	for _, p := range doc.Pages {
		s.PageReady(p.Number, p.Viewport.Zoom(scale), p.Runs)
	}
	s.gate.MarkDocumentReady()
	log.Printf("[session] opened %s (%d pages)", paperID, doc.PageCount())
	return nil
}

func (s *Session) loadDocument(ctx context.Context) (*pdftext.Document, error) {
	url := s.store.PaperURL()
	if url == "" {
		return nil, errors.New("paper has no document url")
	}
	if s.fetcher == nil {
		return nil, errors.New("no document fetcher configured")
	}
	path, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}
	return s.open(path)
}

// PageReady records that a page's text layer and viewport are available.
// The table of contents is extracted once every page reported in.
func (s *Session) PageReady(pageNumber int, vp geometry.Viewport, runs []toc.Run) {
	if !s.gate.SetPage(pageNumber, vp) {
		return
	}
	if res, done := s.collector.AddPage(pageNumber, runs); done {
		if res.Failed {
			log.Printf("[toc] no headings found")
		}
		s.store.SetSections(res)
	}
}

// Zoom rescales every page viewport. Anchors are re-projected on demand, so
// nothing else changes.
func (s *Session) Zoom(scale float64) {
	if scale <= 0 {
		return
	}
	s.mu.Lock()
	s.scale = scale
	doc := s.doc
	s.mu.Unlock()
	if doc == nil {
		return
	}
	for _, p := range doc.Pages {
		s.gate.SetPage(p.Number, p.Viewport.Zoom(scale))
	}
}

// Close leaves the live room and forgets the paper.
func (s *Session) Close() {
	s.mu.Lock()
	paperID := s.paperID
	s.paperID = ""
	s.doc = nil
	s.mu.Unlock()

	if paperID != "" && s.rooms != nil {
		if err := s.rooms.Leave(paperID); err != nil {
			log.Printf("[session] leave room %s: %v", paperID, err)
		}
	}
	s.store.Reset()
	s.gate.Reset(0)
	s.collector.Reset(0)
}

// Select turns text runs of one page into the temp highlight, as if the
// user had selected them with the mouse.
func (s *Session) Select(pageNumber int, runs []toc.Run) (highlight.TempHighlight, bool, error) {
	vp, ok := s.gate.Viewport(pageNumber)
	if !ok {
		return highlight.TempHighlight{}, false, ErrNoDocument
	}
	w, h := vp.Size()
	rects := make([]geometry.Rect, 0, len(runs))
	text := ""
	for _, r := range runs {
		rects = append(rects, runRect(r, vp))
		if text != "" {
			text += " "
		}
		text += r.Str
	}
	pos, ok := selection.Extract(pageNumber, rects, selection.Frame{Width: w, Height: h}, selection.Options{Optimize: true})
	if !ok {
		return highlight.TempHighlight{}, false, nil
	}
	scaled, err := geometry.ToScaledPosition(pos, vp)
	if err != nil {
		return highlight.TempHighlight{}, false, err
	}
	temp := highlight.TempHighlight{
		Position:        scaled,
		HighlightedText: text,
		Size: highlight.Size{
			Left:   pos.BoundingRect.Left,
			Top:    pos.BoundingRect.Top,
			Bottom: pos.BoundingRect.Bottom(),
		},
	}
	s.store.SetTemp(temp)
	return temp, true, nil
}

// runRect is the viewport box of a run. Runs from fonts without width
// tables report no width; half an em per character stands in for it.
func runRect(r toc.Run, vp geometry.Viewport) geometry.Rect {
	width := r.Width
	if width <= 0 {
		width = 0.5 * r.Height * float64(utf8.RuneCountInString(r.Str))
	}
	x1, y1 := vp.ConvertToViewportPoint(r.X, r.Y+r.Height)
	x2, y2 := vp.ConvertToViewportPoint(r.X+width, r.Y)
	return geometry.Rect{
		Left:   math.Min(x1, x2),
		Top:    math.Min(y1, y2),
		Width:  math.Abs(x2 - x1),
		Height: math.Abs(y2 - y1),
	}
}

// Coordinator returns a jump coordinator bound to this session.
func (s *Session) Coordinator(scroller jump.Scroller, margin float64) *jump.Coordinator {
	return &jump.Coordinator{
		Sections: func() []toc.Section {
			sections, _, _ := s.store.Sections()
			return sections
		},
		Highlights: s.store,
		Gate:       s.gate,
		Scroller:   scroller,
		Margin:     margin,
	}
}
