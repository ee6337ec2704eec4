package toc

import (
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
)

// maxLevelsUp is how many levels a heading may climb back up in one step,
// e.g. from 1.2.3.4.5 straight to 2.
const maxLevelsUp = 4

var (
	numberedHeadingRe = regexp.MustCompile(`^(\d+\.?)+\s+.{0,60}$`)
	numberingPrefixRe = regexp.MustCompile(`^((?:\d+\.?)+)\s+(.*)$`)
	nonDigitRunRe     = regexp.MustCompile(`\D{3}`)
	romanHeadingRe    = regexp.MustCompile(`^(IX|IV|VI{0,3}|I{1,3})\.\s+(.{0,60})$`)
)

var romanValues = map[string]int{
	"I": 1, "II": 2, "III": 3, "IV": 4, "V": 5,
	"VI": 6, "VII": 7, "VIII": 8, "IX": 9,
}

// Section is a text run accepted as a heading.
type Section struct {
	Run
	// Label is the numbering as printed, without a trailing dot ("2.1", "IV").
	Label     string `json:"label"`
	Title     string `json:"title"`
	Numbering []int  `json:"numbering"`
}

// Depth is the nesting level of the heading, 1 for top-level sections.
func (s Section) Depth() int {
	if len(s.Numbering) == 0 {
		return 1
	}
	return len(s.Numbering)
}

// Result is the outcome of one extraction pass.
type Result struct {
	Sections []Section `json:"sections"`
	// Failed is set when no heading could be identified; the reader shows a
	// "failed to extract" state instead of a table of contents.
	Failed bool `json:"failed"`
}

// Extract runs the full heading detection over the text runs of a document,
// one slice of runs per page.
func Extract(pages [][]Run) Result {
	runs := MergeLines(pages)
	if len(runs) == 0 {
		return Result{Failed: true}
	}
	stats := ComputeStats(runs)

	var candidates []Run
	for _, r := range runs {
		if isCandidate(r, stats) {
			candidates = append(candidates, r)
		}
	}

	sections := validateHierarchy(candidates)
	if len(sections) == 0 {
		sections = romanFallback(runs)
	}
	return Result{Sections: sections, Failed: len(sections) == 0}
}

func isCandidate(r Run, stats Stats) bool {
	text := strings.TrimSpace(r.Str)
	if !numberedHeadingRe.MatchString(text) || !nonDigitRunRe.MatchString(text) {
		return false
	}
	if r.Height > stats.HeightThreshold {
		return true
	}
	return r.Height >= stats.HeightMedian && r.FontName != stats.MostPopularFont
}

func validateHierarchy(candidates []Run) []Section {
	var sections []Section
	var prev []int
	for _, r := range candidates {
		label, title, numbering, err := parseNumbering(r.Str)
		if err != nil {
			log.Printf("[toc] skipping heading candidate %q on page %d: %v", r.Str, r.Page, err)
			continue
		}
		if !validSuccessor(prev, numbering) {
			continue
		}
		sections = append(sections, Section{Run: r, Label: label, Title: title, Numbering: numbering})
		prev = numbering
	}
	return sections
}

func parseNumbering(s string) (label, title string, numbering []int, err error) {
	m := numberingPrefixRe.FindStringSubmatch(strings.TrimSpace(s))
	if len(m) != 3 {
		return "", "", nil, fmt.Errorf("no numbering prefix")
	}
	label = strings.TrimSuffix(m[1], ".")
	for _, part := range strings.Split(label, ".") {
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return "", "", nil, fmt.Errorf("parse numbering %q: %w", m[1], err)
		}
		numbering = append(numbering, n)
	}
	if len(numbering) == 0 {
		return "", "", nil, fmt.Errorf("empty numbering %q", m[1])
	}
	return label, strings.TrimSpace(m[2]), numbering, nil
}

// validSuccessor reports whether next may follow prev in a numbered outline:
// open a deeper level at 1, continue the same level, or climb back up to
// maxLevelsUp levels while incrementing the ancestor at that level.
func validSuccessor(prev, next []int) bool {
	if len(next) == 0 {
		return false
	}
	if len(prev) == 0 {
		return next[0] == 1
	}
	last := len(next) - 1
	switch {
	case len(next) == len(prev)+1:
		return next[last] == 1
	case len(next) == len(prev):
		return next[last] == prev[last]+1
	case len(next) < len(prev) && len(prev)-len(next) <= maxLevelsUp:
		return next[last] == prev[last]+1
	}
	return false
}

func romanFallback(runs []Run) []Section {
	var sections []Section
	for _, r := range runs {
		m := romanHeadingRe.FindStringSubmatch(strings.TrimSpace(r.Str))
		if len(m) != 3 {
			continue
		}
		sections = append(sections, Section{
			Run:       r,
			Label:     m[1],
			Title:     strings.TrimSpace(m[2]),
			Numbering: []int{romanValues[m[1]]},
		})
	}
	return sections
}
