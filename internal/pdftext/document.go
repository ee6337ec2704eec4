// Package pdftext reads the text layer and page geometry of PDF files for
// table-of-contents extraction and anchor projection.
package pdftext

import (
	"fmt"
	"log"
	"math"

	"github.com/ledongthuc/pdf"

	"github.com/csheth/scihive/internal/geometry"
	"github.com/csheth/scihive/internal/toc"
)

// US Letter, used when a page carries no MediaBox.
const (
	defaultPageWidth  = 612
	defaultPageHeight = 792
)

// glyphGap is the largest horizontal gap, relative to the font size, between
// two glyphs that still belong to the same run.
const glyphGap = 0.3

// Page is one page of a document.
type Page struct {
	Number   int
	Viewport geometry.PageViewport
	Runs     []toc.Run
}

// Document is the text layer of a whole PDF.
type Document struct {
	Path  string
	Pages []Page
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int { return len(d.Pages) }

// Runs returns the runs of every page, in page order.
func (d *Document) Runs() [][]toc.Run {
	out := make([][]toc.Run, len(d.Pages))
	for i, p := range d.Pages {
		out[i] = p.Runs
	}
	return out
}

// Open reads every page of the PDF at path. Pages whose content cannot be
// parsed, or that the page tree does not resolve, are kept with an empty
// text layer so page numbers stay contiguous.
func Open(path string) (*Document, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer file.Close()

	n := reader.NumPage()
	doc := &Document{Path: path, Pages: make([]Page, 0, n)}
	for i := 1; i <= n; i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			log.Printf("[pdftext] page %d of %s is missing from the page tree", i, path)
			doc.Pages = append(doc.Pages, Page{
				Number:   i,
				Viewport: geometry.PageViewport{PageWidth: defaultPageWidth, PageHeight: defaultPageHeight, Scale: 1},
			})
			continue
		}
		page := Page{Number: i}
		var x0, y0 float64
		page.Viewport, x0, y0 = viewport(p)
		runs, err := pageRuns(p)
		if err != nil {
			log.Printf("[pdftext] page %d of %s: %v", i, path, err)
		}
		for j := range runs {
			runs[j].Page = i
			runs[j].X -= x0
			runs[j].Y -= y0
		}
		page.Runs = runs
		doc.Pages = append(doc.Pages, page)
	}
	return doc, nil
}

// viewport derives the unscaled page viewport from the (possibly inherited)
// MediaBox and returns its origin.
func viewport(p pdf.Page) (geometry.PageViewport, float64, float64) {
	box := inherited(p.V, "MediaBox")
	if box.Len() != 4 {
		return geometry.PageViewport{PageWidth: defaultPageWidth, PageHeight: defaultPageHeight, Scale: 1}, 0, 0
	}
	x0, y0 := box.Index(0).Float64(), box.Index(1).Float64()
	x1, y1 := box.Index(2).Float64(), box.Index(3).Float64()
	return geometry.PageViewport{
		PageWidth:  math.Abs(x1 - x0),
		PageHeight: math.Abs(y1 - y0),
		Scale:      1,
	}, math.Min(x0, x1), math.Min(y0, y1)
}

func inherited(v pdf.Value, key string) pdf.Value {
	for ; !v.IsNull(); v = v.Key("Parent") {
		if r := v.Key(key); !r.IsNull() {
			return r
		}
	}
	return pdf.Value{}
}

// pageRuns groups the page's glyphs into runs. The pdf package panics on
// malformed content streams.
func pageRuns(p pdf.Page) (runs []toc.Run, err error) {
	defer func() {
		if r := recover(); r != nil {
			runs, err = nil, fmt.Errorf("read content: %v", r)
		}
	}()
	return groupGlyphs(p.Content().Text), nil
}

// groupGlyphs joins consecutive glyphs drawn with the same font on the same
// baseline into runs, the way a PDF renderer reports text items.
func groupGlyphs(glyphs []pdf.Text) []toc.Run {
	var runs []toc.Run
	var cur *toc.Run
	var end float64
	for _, g := range glyphs {
		if cur != nil && sameRun(*cur, end, g) {
			cur.Str += g.S
			if e := g.X + g.W; e > end {
				end = e
			}
			cur.Width = end - cur.X
			continue
		}
		runs = append(runs, toc.Run{
			Str:      g.S,
			Height:   g.FontSize,
			FontName: g.Font,
			X:        g.X,
			Y:        g.Y,
			Width:    g.W,
		})
		cur = &runs[len(runs)-1]
		end = g.X + g.W
	}
	return runs
}

func sameRun(r toc.Run, end float64, g pdf.Text) bool {
	if g.Font != r.FontName || g.FontSize != r.Height || math.Abs(g.Y-r.Y) > 0.01 {
		return false
	}
	gap := g.X - end
	return gap <= glyphGap*r.Height && gap >= -r.Height
}
