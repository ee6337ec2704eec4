package tui

import (
	"github.com/csheth/scihive/internal/api"
	"github.com/csheth/scihive/internal/highlight"
	"github.com/csheth/scihive/internal/toc"
)

type stage int

const (
	stageLoading stage = iota
	stageReading
	stageComment
	stageReply
)

type pane int

const (
	paneReader pane = iota
	paneTOC
	paneHighlights
)

var paneSequence = []pane{paneReader, paneTOC, paneHighlights}

func (p pane) String() string {
	switch p {
	case paneTOC:
		return "contents"
	case paneHighlights:
		return "highlights"
	default:
		return "reader"
	}
}

const heroTagline = "Read together. Highlight anything."

const (
	minSidebarWidth = 24
	maxSidebarWidth = 48
	minReaderWidth  = 30
	paneGap         = 2
	layoutChrome    = 5
	minBodyHeight   = 8
)

const (
	minZoom  = 0.5
	maxZoom  = 3
	zoomStep = 0.25
)

// filterCycle is the order in which f steps through visibility filters.
var filterCycle = []highlight.VisibilityType{
	"",
	highlight.VisibilityPublic,
	highlight.VisibilityPrivate,
	highlight.VisibilityAnonymous,
	highlight.VisibilityGroup,
}

// snapshotMsg carries a store change into the update loop.
type snapshotMsg struct {
	Snapshot highlight.Snapshot
}

// notificationMsg carries a store notification into the update loop.
type notificationMsg struct {
	Notification highlight.Notification
}

// contactsMsg is the answer to an @mention lookup. Lookups overtaken by a
// newer one arrive with current unset and are dropped.
type contactsMsg struct {
	query    string
	contacts []api.Contact
	current  bool
	err      error
}

type tocLine struct {
	index   int
	depth   int
	section toc.Section
}

// readerLine is one merged text line of the document.
type readerLine struct {
	run toc.Run
	row int
}

type markKind int

const (
	markNone markKind = iota
	markHighlight
	markTemp
)
