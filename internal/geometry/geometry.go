// Package geometry converts highlight rectangles between the live, zoom-dependent
// viewport of a rendered page and the zoom-independent anchor form that is stored
// on the server and sent over the wire.
package geometry

import (
	"errors"
	"math"

	"github.com/golang/geo/r2"
)

// ErrDegenerateViewport is returned when an anchor would be built against a
// viewport without area. Such an anchor could never be projected again.
var ErrDegenerateViewport = errors.New("geometry: viewport has zero width or height")

// Rect is a page-local rectangle in current-zoom pixels.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.Left + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Bounds returns r as an r2 rectangle (Y grows downwards).
func (r Rect) Bounds() r2.Rect {
	return r2.RectFromPoints(
		r2.Point{X: r.Left, Y: r.Top},
		r2.Point{X: r.Right(), Y: r.Bottom()},
	)
}

// RectFromBounds converts an r2 rectangle back into a Rect.
func RectFromBounds(b r2.Rect) Rect {
	lo, hi := b.Lo(), b.Hi()
	return Rect{Left: lo.X, Top: lo.Y, Width: hi.X - lo.X, Height: hi.Y - lo.Y}
}

// ScaledRect is a rectangle expressed against a reference viewport of size
// Width x Height. It can be re-derived for any other viewport by ratio.
type ScaledRect struct {
	X1     float64 `json:"x1"`
	Y1     float64 `json:"y1"`
	X2     float64 `json:"x2"`
	Y2     float64 `json:"y2"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Valid reports whether the anchor can be projected.
func (s ScaledRect) Valid() bool {
	return s.Width > 0 && s.Height > 0 && s.X2 >= s.X1 && s.Y2 >= s.Y1
}

// RelativeTop returns Y1 as a fraction of the reference height, which makes
// anchors recorded at different zoom levels comparable.
func (s ScaledRect) RelativeTop() float64 {
	if s.Height <= 0 {
		return s.Y1
	}
	return s.Y1 / s.Height
}

// Position is a highlight location in viewport space.
type Position struct {
	PageNumber   int    `json:"pageNumber"`
	BoundingRect Rect   `json:"boundingRect"`
	Rects        []Rect `json:"rects"`
}

// ScaledPosition is the persisted, zoom-independent form of a Position.
type ScaledPosition struct {
	PageNumber   int          `json:"pageNumber"`
	BoundingRect ScaledRect   `json:"boundingRect"`
	Rects        []ScaledRect `json:"rects"`
	// UsePDFCoordinates marks anchors recorded in PDF user space, whose origin
	// is the bottom-left corner of the page.
	UsePDFCoordinates bool `json:"usePdfCoordinates,omitempty"`
}

// Viewport is the live coordinate frame of one rendered page.
type Viewport interface {
	// Size returns the viewport dimensions in pixels.
	Size() (width, height float64)
	// ConvertToViewportPoint maps a point in PDF user space to viewport pixels.
	ConvertToViewportPoint(x, y float64) (float64, float64)
}

// PageViewport is the viewport of an unrotated PDF page rendered at Scale.
type PageViewport struct {
	PageWidth  float64
	PageHeight float64
	Scale      float64
}

// Size implements Viewport.
func (v PageViewport) Size() (float64, float64) {
	return v.PageWidth * v.Scale, v.PageHeight * v.Scale
}

// ConvertToViewportPoint implements Viewport. PDF user space has its origin in
// the bottom-left corner, the viewport in the top-left one.
func (v PageViewport) ConvertToViewportPoint(x, y float64) (float64, float64) {
	return x * v.Scale, (v.PageHeight - y) * v.Scale
}

// Zoom returns the same page at Scale*k.
func (v PageViewport) Zoom(k float64) PageViewport {
	v.Scale *= k
	return v
}

// ToAnchor maps a viewport rectangle to its anchor form, using the viewport's
// own size as the normalization basis.
func ToAnchor(r Rect, vp Viewport) (ScaledRect, error) {
	w, h := vp.Size()
	if !(w > 0) || !(h > 0) {
		return ScaledRect{}, ErrDegenerateViewport
	}
	return ScaledRect{
		X1:     r.Left,
		Y1:     r.Top,
		X2:     r.Left + r.Width,
		Y2:     r.Top + r.Height,
		Width:  w,
		Height: h,
	}, nil
}

// ToViewport is the inverse of ToAnchor. When usePDF is set the anchor holds
// PDF user-space coordinates and is converted point by point instead.
func ToViewport(s ScaledRect, vp Viewport, usePDF bool) Rect {
	if usePDF {
		return pdfToViewport(s, vp)
	}
	w, h := vp.Size()
	x1 := w * s.X1 / s.Width
	y1 := h * s.Y1 / s.Height
	x2 := w * s.X2 / s.Width
	y2 := h * s.Y2 / s.Height
	return Rect{Left: x1, Top: y1, Width: x2 - x1, Height: y2 - y1}
}

func pdfToViewport(s ScaledRect, vp Viewport) Rect {
	x1, y1 := vp.ConvertToViewportPoint(s.X1, s.Y1)
	x2, y2 := vp.ConvertToViewportPoint(s.X2, s.Y2)
	return Rect{
		Left:   math.Min(x1, x2),
		Top:    math.Min(y1, y2),
		Width:  math.Abs(x2 - x1),
		Height: math.Abs(y2 - y1),
	}
}

// ToScaledPosition converts every rectangle of pos against vp.
func ToScaledPosition(pos Position, vp Viewport) (ScaledPosition, error) {
	bounds, err := ToAnchor(pos.BoundingRect, vp)
	if err != nil {
		return ScaledPosition{}, err
	}
	rects := make([]ScaledRect, 0, len(pos.Rects))
	for _, r := range pos.Rects {
		s, err := ToAnchor(r, vp)
		if err != nil {
			return ScaledPosition{}, err
		}
		rects = append(rects, s)
	}
	return ScaledPosition{PageNumber: pos.PageNumber, BoundingRect: bounds, Rects: rects}, nil
}

// ToPosition projects a stored position onto vp.
func ToPosition(pos ScaledPosition, vp Viewport) Position {
	rects := make([]Rect, 0, len(pos.Rects))
	for _, s := range pos.Rects {
		rects = append(rects, ToViewport(s, vp, pos.UsePDFCoordinates))
	}
	return Position{
		PageNumber:   pos.PageNumber,
		BoundingRect: ToViewport(pos.BoundingRect, vp, pos.UsePDFCoordinates),
		Rects:        rects,
	}
}

// BoundingRect returns the min/max envelope of rects. ok is false for an
// empty input.
func BoundingRect(rects []Rect) (Rect, bool) {
	if len(rects) == 0 {
		return Rect{}, false
	}
	env := rects[0].Bounds()
	for _, r := range rects[1:] {
		env = env.Union(r.Bounds())
	}
	return RectFromBounds(env), true
}
