// Package selection turns the client rectangles of a text or area selection
// into a page-local highlight position.
package selection

import (
	"math"
	"sort"

	"github.com/csheth/scihive/internal/geometry"
)

// DefaultEdgeThreshold is the distance in pixels from a page edge under which a
// rectangle is treated as a ghost left behind by cross-element selections.
const DefaultEdgeThreshold = 1.0

const (
	lineMargin  = 5.0
	gapMargin   = 10.0
	mergePasses = 3
)

// Frame is the on-screen geometry of the page container the selection was
// made in, in the same client coordinates as the selection rectangles.
type Frame struct {
	Left       float64
	Top        float64
	Width      float64
	Height     float64
	ScrollLeft float64
	ScrollTop  float64
}

// Options tunes Extract.
type Options struct {
	// Optimize merges the rectangles of one line into a minimal covering set.
	Optimize bool
	// EdgeThreshold overrides DefaultEdgeThreshold when positive.
	EdgeThreshold float64
}

// Extract converts client rectangles into a page-local Position. ok is false
// when no rectangle survives filtering; callers treat that as no selection.
func Extract(pageNumber int, clientRects []geometry.Rect, frame Frame, opts Options) (geometry.Position, bool) {
	threshold := opts.EdgeThreshold
	if threshold <= 0 {
		threshold = DefaultEdgeThreshold
	}

	rects := make([]geometry.Rect, 0, len(clientRects))
	for _, cr := range clientRects {
		if cr.Empty() || !insideFrame(cr, frame) {
			continue
		}
		local := geometry.Rect{
			Left:   cr.Left + frame.ScrollLeft - frame.Left,
			Top:    cr.Top + frame.ScrollTop - frame.Top,
			Width:  cr.Width,
			Height: cr.Height,
		}
		if isGhost(local, frame.Width, threshold) {
			continue
		}
		rects = append(rects, local)
	}
	if opts.Optimize {
		rects = Optimize(rects)
	}

	bounds, ok := geometry.BoundingRect(rects)
	if !ok {
		return geometry.Position{}, false
	}
	return geometry.Position{PageNumber: pageNumber, BoundingRect: bounds, Rects: rects}, true
}

func insideFrame(r geometry.Rect, f Frame) bool {
	if r.Width >= f.Width || r.Height >= f.Height {
		return false
	}
	return r.Top >= f.Top && r.Bottom() <= f.Top+f.Height &&
		r.Left >= f.Left && r.Right() <= f.Left+f.Width
}

func isGhost(r geometry.Rect, pageWidth, threshold float64) bool {
	return math.Abs(r.Left) < threshold || math.Abs(pageWidth-r.Left) < threshold
}

// Optimize drops rectangles strictly inside another one and merges rectangles
// of the same line that overlap or nearly touch. The result covers the same
// extent as the input.
func Optimize(rects []geometry.Rect) []geometry.Rect {
	sorted := append([]geometry.Rect(nil), rects...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Top == sorted[j].Top {
			return sorted[i].Left < sorted[j].Left
		}
		return sorted[i].Top < sorted[j].Top
	})

	kept := make([]geometry.Rect, 0, len(sorted))
	for i, r := range sorted {
		inner := r.Bounds()
		contained := false
		for j, other := range sorted {
			if i != j && other.Bounds().InteriorContains(inner) {
				contained = true
				break
			}
		}
		if !contained {
			kept = append(kept, r)
		}
	}

	removed := make([]bool, len(kept))
	for pass := 0; pass < mergePasses; pass++ {
		for a := range kept {
			for b := range kept {
				if a == b || removed[a] || removed[b] {
					continue
				}
				if !sameLine(kept[a], kept[b]) {
					continue
				}
				if overlaps(kept[a], kept[b]) {
					extendWidth(&kept[a], kept[b])
					kept[a].Height = math.Max(kept[a].Height, kept[b].Height)
					removed[b] = true
					continue
				}
				if nextTo(kept[a], kept[b]) {
					extendWidth(&kept[a], kept[b])
					removed[b] = true
				}
			}
		}
	}

	out := make([]geometry.Rect, 0, len(kept))
	for i, r := range kept {
		if !removed[i] {
			out = append(out, r)
		}
	}
	return out
}

func sameLine(a, b geometry.Rect) bool {
	return math.Abs(a.Top-b.Top) < lineMargin && math.Abs(a.Height-b.Height) < lineMargin
}

func overlaps(a, b geometry.Rect) bool {
	return a.Left <= b.Left && b.Left <= a.Right()
}

func nextTo(a, b geometry.Rect) bool {
	return a.Left <= b.Left && a.Right() <= b.Right() && b.Left-a.Right() <= gapMargin
}

func extendWidth(a *geometry.Rect, b geometry.Rect) {
	a.Width = math.Max(b.Right()-a.Left, a.Width)
}
