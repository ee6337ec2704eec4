// Package anchor re-projects stored highlight anchors onto the live page
// viewports. Projection holds no state; it is recomputed on every zoom change
// and page render.
package anchor

import (
	"sync"

	"github.com/csheth/scihive/internal/geometry"
)

// Project maps a stored position onto vp.
func Project(pos geometry.ScaledPosition, vp geometry.Viewport) geometry.Position {
	return geometry.ToPosition(pos, vp)
}

// ProjectRect maps a single anchor rectangle onto vp.
func ProjectRect(r geometry.ScaledRect, vp geometry.Viewport, usePDF bool) geometry.Rect {
	return geometry.ToViewport(r, vp, usePDF)
}

// Gate records which page viewports the renderer has made available. Anchors
// are only projected once their page is ready.
type Gate struct {
	mu        sync.RWMutex
	docReady  bool
	pageCount int
	viewports map[int]geometry.Viewport
}

// NewGate returns a gate for a document with pageCount pages.
func NewGate(pageCount int) *Gate {
	return &Gate{pageCount: pageCount, viewports: map[int]geometry.Viewport{}}
}

// Reset forgets all state; used when a new document loads.
func (g *Gate) Reset(pageCount int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.docReady = false
	g.pageCount = pageCount
	g.viewports = map[int]geometry.Viewport{}
}

// MarkDocumentReady is called once the initial layout is done.
func (g *Gate) MarkDocumentReady() {
	g.mu.Lock()
	g.docReady = true
	g.mu.Unlock()
}

// DocumentReady reports whether MarkDocumentReady was called since the last Reset.
func (g *Gate) DocumentReady() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.docReady
}

// SetPage stores the current viewport of a page. It is called when the
// page's text layer becomes ready and again on every zoom change. Pages
// outside the document are ignored.
func (g *Gate) SetPage(pageNumber int, vp geometry.Viewport) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if pageNumber < 1 || (g.pageCount > 0 && pageNumber > g.pageCount) {
		return false
	}
	g.viewports[pageNumber] = vp
	return true
}

// PageCount returns the number of pages of the loaded document.
func (g *Gate) PageCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.pageCount
}

// Viewport returns the live viewport of a ready page.
func (g *Gate) Viewport(pageNumber int) (geometry.Viewport, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if !g.docReady {
		return nil, false
	}
	vp, ok := g.viewports[pageNumber]
	return vp, ok
}

// Project projects pos onto its page. ok is false while the page is not ready.
func (g *Gate) Project(pos geometry.ScaledPosition) (geometry.Position, bool) {
	vp, ok := g.Viewport(pos.PageNumber)
	if !ok {
		return geometry.Position{}, false
	}
	return Project(pos, vp), true
}
