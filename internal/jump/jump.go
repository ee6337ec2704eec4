// Package jump resolves navigation targets (a table-of-contents entry or a
// highlight) to a page and an offset within it, and scrolls there.
package jump

import (
	"github.com/csheth/scihive/internal/anchor"
	"github.com/csheth/scihive/internal/bus"
	"github.com/csheth/scihive/internal/highlight"
	"github.com/csheth/scihive/internal/toc"
)

// Kind distinguishes the two kinds of jump targets.
type Kind int

const (
	SectionTarget Kind = iota
	HighlightTarget
)

// Target is a place the reader can be sent to.
type Target struct {
	Kind  Kind
	Index int
	ID    string
}

// Section targets the i-th entry of the table of contents.
func Section(i int) Target { return Target{Kind: SectionTarget, Index: i} }

// Highlight targets a confirmed highlight.
func Highlight(id string) Target { return Target{Kind: HighlightTarget, ID: id} }

// Destination is a resolved target: a 1-based page and a pixel offset from
// the top of that page in its current viewport.
type Destination struct {
	PageNumber int
	Offset     float64
}

// Scroller performs the actual scroll. It is called once per jump.
type Scroller interface {
	ScrollTo(d Destination)
}

// ScrollerFunc adapts a function to Scroller.
type ScrollerFunc func(Destination)

// ScrollTo implements Scroller.
func (f ScrollerFunc) ScrollTo(d Destination) { f(d) }

// Finder looks up displayed highlights; *highlight.Store satisfies it.
type Finder interface {
	Find(id string) (highlight.Highlight, bool)
}

// Coordinator resolves targets against the current state each time, so
// repeated jumps to one target land on the same spot.
type Coordinator struct {
	Sections   func() []toc.Section
	Highlights Finder
	Gate       *anchor.Gate
	Scroller   Scroller
	// Margin leaves some room above the target.
	Margin float64
}

// Resolve computes where t is. ok is false for unknown sections, highlights
// that are not displayed, and pages without a viewport yet.
func (c *Coordinator) Resolve(t Target) (Destination, bool) {
	if c.Gate == nil {
		return Destination{}, false
	}
	switch t.Kind {
	case SectionTarget:
		if c.Sections == nil {
			return Destination{}, false
		}
		sections := c.Sections()
		if t.Index < 0 || t.Index >= len(sections) {
			return Destination{}, false
		}
		s := sections[t.Index]
		vp, ok := c.Gate.Viewport(s.Page)
		if !ok {
			return Destination{}, false
		}
		// Run coordinates are in PDF user space; Y is the baseline.
		_, top := vp.ConvertToViewportPoint(s.X, s.Y+s.Height)
		return c.destination(s.Page, top), true
	case HighlightTarget:
		if c.Highlights == nil {
			return Destination{}, false
		}
		h, ok := c.Highlights.Find(t.ID)
		if !ok {
			return Destination{}, false
		}
		pos, ok := c.Gate.Project(h.Position)
		if !ok {
			return Destination{}, false
		}
		return c.destination(pos.PageNumber, pos.BoundingRect.Top), true
	}
	return Destination{}, false
}

func (c *Coordinator) destination(page int, top float64) Destination {
	off := top - c.Margin
	if off < 0 {
		off = 0
	}
	return Destination{PageNumber: page, Offset: off}
}

// JumpTo scrolls to t. Unresolvable targets are ignored.
func (c *Coordinator) JumpTo(t Target) bool {
	d, ok := c.Resolve(t)
	if !ok || c.Scroller == nil {
		return false
	}
	c.Scroller.ScrollTo(d)
	return true
}

// Listen makes the coordinator follow jump requests published on b.
func (c *Coordinator) Listen(b *bus.Bus[Target]) (cancel func()) {
	return b.Subscribe(func(t Target) { c.JumpTo(t) })
}

// PageLayout maps destinations to an absolute scroll position for pages
// stacked vertically with Gap pixels between them.
type PageLayout struct {
	Gate *anchor.Gate
	Gap  float64
}

// ScrollTop returns the absolute scroll offset of d. ok is false when a
// page before d has no viewport yet.
func (l PageLayout) ScrollTop(d Destination) (float64, bool) {
	top := 0.0
	for p := 1; p < d.PageNumber; p++ {
		vp, ok := l.Gate.Viewport(p)
		if !ok {
			return 0, false
		}
		_, h := vp.Size()
		top += h + l.Gap
	}
	return top + d.Offset, true
}
