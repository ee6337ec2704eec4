package toc

import "sync"

// Collector gathers per-page text runs as the renderer reports each page's text
// layer ready, and extracts the table of contents once every page is in.
type Collector struct {
	mu        sync.Mutex
	pages     [][]Run
	seen      []bool
	remaining int
	result    *Result
}

// NewCollector prepares a collector for a document with pageCount pages.
func NewCollector(pageCount int) *Collector {
	c := &Collector{}
	c.Reset(pageCount)
	return c
}

// Reset discards everything collected so far; used when a new document loads.
func (c *Collector) Reset(pageCount int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pageCount < 0 {
		pageCount = 0
	}
	c.pages = make([][]Run, pageCount)
	c.seen = make([]bool, pageCount)
	c.remaining = pageCount
	c.result = nil
	if pageCount == 0 {
		c.result = &Result{Failed: true}
	}
}

// AddPage records the runs of a 1-based page. It returns the extraction
// result when this page completed the document. Repeated notifications for
// a page replace its runs and do not trigger a second extraction.
func (c *Collector) AddPage(pageNumber int, runs []Run) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := pageNumber - 1
	if idx < 0 || idx >= len(c.pages) || c.result != nil {
		return Result{}, false
	}
	c.pages[idx] = append([]Run(nil), runs...)
	if !c.seen[idx] {
		c.seen[idx] = true
		c.remaining--
	}
	if c.remaining > 0 {
		return Result{}, false
	}
	res := Extract(c.pages)
	c.result = &res
	return res, true
}

// Result returns the extraction result once all pages were collected.
func (c *Collector) Result() (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result == nil {
		return Result{}, false
	}
	return *c.result, true
}
