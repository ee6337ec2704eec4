package tui

// pageLayout splits the window into the reader on the left and the
// contents and highlights panes stacked on the right.
type pageLayout struct {
	windowWidth  int
	windowHeight int
	readerWidth  int
	sidebarWidth int
	bodyHeight   int
	tocHeight    int
	listHeight   int
}

func newPageLayout() pageLayout {
	return pageLayout{
		readerWidth:  52,
		sidebarWidth: 26,
		bodyHeight:   19,
		tocHeight:    8,
		listHeight:   9,
	}
}

func (l *pageLayout) Update(width, height int) {
	l.windowWidth = width
	l.windowHeight = height

	sidebar := width / 3
	if sidebar < minSidebarWidth {
		sidebar = minSidebarWidth
	}
	if sidebar > maxSidebarWidth {
		sidebar = maxSidebarWidth
	}
	l.sidebarWidth = sidebar

	reader := width - sidebar - paneGap
	if reader < minReaderWidth {
		reader = minReaderWidth
	}
	l.readerWidth = reader

	body := height - layoutChrome
	if body < minBodyHeight {
		body = minBodyHeight
	}
	l.bodyHeight = body

	// Each sidebar pane has a one-line header.
	panes := body - 2
	l.tocHeight = panes / 2
	l.listHeight = panes - l.tocHeight
}
