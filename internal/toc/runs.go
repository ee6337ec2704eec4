// Package toc infers a table of contents from raw, unlabeled PDF text runs
// using font-size statistics and hierarchical numbering.
package toc

import (
	"math"
	"sort"
	"strings"
)

const baselineTolerance = 0.01

// Run is one text run as reported by the PDF text extractor.
type Run struct {
	Str      string  `json:"str"`
	Page     int     `json:"page"`
	Height   float64 `json:"height"`
	FontName string  `json:"fontName"`
	// X and Y are the baseline origin of the run in PDF user space (the e and
	// f components of the text transform).
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Width float64 `json:"width"`
}

// MergeLines joins consecutive runs of the same page that share a baseline
// into one logical run. A space is inserted only when the horizontal gap
// between the two runs exceeds half the run height, so kerned glyphs stay
// together while word gaps are kept. Runs are stamped with their 1-based page.
func MergeLines(pages [][]Run) []Run {
	var merged []Run
	for i, page := range pages {
		pageNumber := i + 1
		var cur *Run
		for _, r := range page {
			r.Page = pageNumber
			if cur != nil && math.Abs(cur.Y-r.Y) <= baselineTolerance {
				gap := r.X - (cur.X + cur.Width)
				if gap > cur.Height/2 && !strings.HasSuffix(cur.Str, " ") && !strings.HasPrefix(r.Str, " ") {
					cur.Str += " "
				}
				cur.Str += r.Str
				if end := r.X + r.Width; end > cur.X+cur.Width {
					cur.Width = end - cur.X
				}
				continue
			}
			if cur != nil {
				merged = append(merged, *cur)
			}
			run := r
			cur = &run
		}
		if cur != nil {
			merged = append(merged, *cur)
		}
	}
	return merged
}

// Quantile returns the q-quantile of values using linear interpolation
// between the closest ranks: index (n-1)*q of the sorted values.
func Quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	pos := float64(len(sorted)-1) * q
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo < 0 {
		lo = 0
	}
	if hi >= len(sorted) {
		hi = len(sorted) - 1
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}

// Stats summarizes the typography of a whole document.
type Stats struct {
	HeightThreshold float64
	HeightMedian    float64
	MostPopularFont string
}

// ComputeStats collects run heights and font frequencies. Ties between fonts
// go to the font seen first.
func ComputeStats(runs []Run) Stats {
	heights := make([]float64, 0, len(runs))
	counts := map[string]int{}
	var order []string
	for _, r := range runs {
		heights = append(heights, r.Height)
		if _, seen := counts[r.FontName]; !seen {
			order = append(order, r.FontName)
		}
		counts[r.FontName]++
	}
	stats := Stats{
		HeightThreshold: Quantile(heights, 0.95),
		HeightMedian:    Quantile(heights, 0.5),
	}
	best := 0
	for _, font := range order {
		if counts[font] > best {
			best = counts[font]
			stats.MostPopularFont = font
		}
	}
	return stats
}
