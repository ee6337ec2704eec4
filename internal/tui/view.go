package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/scihive/internal/highlight"
)

func (m *model) View() string {
	body := lipgloss.JoinHorizontal(
		lipgloss.Top,
		lipgloss.NewStyle().Width(m.layout.readerWidth).MarginRight(paneGap).Render(m.readerView()),
		lipgloss.NewStyle().Width(m.layout.sidebarWidth).Render(m.sidebarView()),
	)
	parts := []string{m.heroView(), body}
	switch m.stage {
	case stageComment, stageReply:
		parts = append(parts, m.composerView())
	default:
		if m.focus == paneHighlights {
			parts = append(parts, m.detailView())
		}
	}
	parts = append(parts, m.messageView(), m.statusBarView())
	if m.helpVisible {
		parts = append(parts, m.keyLegendView())
	}
	return joinNonEmpty(parts)
}

func (m *model) heroView() string {
	title := m.snapshot.Metadata.Title
	if title == "" {
		title = m.config.PaperID
	}
	if title == "" {
		return taglineStyle.Render(heroTagline)
	}
	lines := []string{heroTitleStyle.Render(truncate.StringWithTail(title, uint(m.windowWidth()), "…"))}
	if authors := m.snapshot.Metadata.Authors; len(authors) > 0 {
		lines = append(lines, helperStyle.Render(shortenList(authors, 3)))
	}
	return strings.Join(lines, "\n")
}

func (m *model) readerView() string {
	if m.stage == stageLoading {
		return helperStyle.Render(fmt.Sprintf("%s Loading paper…", m.spinner.View()))
	}
	header := sectionHeaderStyle
	if m.focus == paneReader {
		header = focusedHeaderStyle
	}
	return header.Render("Paper") + "\n" + m.reader.View()
}

// renderReader rebuilds the reader content: one row per text line, a
// header per page, and a gutter mark on highlighted lines.
func (m *model) renderReader() {
	if len(m.lines) == 0 {
		m.reader.SetContent(helperStyle.Render(m.emptyReaderText()))
		return
	}
	marks := m.lineMarks()
	lo, hi, selecting := m.selectionRange()
	width := maxInt(10, m.reader.Width-2)

	var b strings.Builder
	row, page := 0, 0
	for i := range m.lines {
		line := &m.lines[i]
		if line.run.Page != page {
			if row > 0 {
				b.WriteRune('\n')
				row++
			}
			page = line.run.Page
			b.WriteString(sectionHeaderStyle.Render(fmt.Sprintf("Page %d", page)))
			b.WriteRune('\n')
			row++
		}
		line.row = row

		gutter := "  "
		switch marks[i] {
		case markHighlight:
			gutter = highlightMarkStyle.Render("▌ ")
		case markTemp:
			gutter = tempMarkStyle.Render("▌ ")
		}
		text := truncate.StringWithTail(line.run.Str, uint(width), "…")
		switch {
		case i == m.lineCursor:
			text = currentLineStyle.Render(text)
		case selecting && i >= lo && i <= hi:
			text = selectionLineStyle.Render(text)
		}
		b.WriteString(gutter)
		b.WriteString(text)
		if i < len(m.lines)-1 {
			b.WriteRune('\n')
		}
		row++
	}
	m.reader.SetContent(b.String())
}

func (m *model) emptyReaderText() string {
	switch {
	case m.stage == stageLoading:
		return "Loading paper…"
	case m.store.State() != highlight.StateLoaded:
		return "No paper loaded."
	default:
		return "PDF text not available; comments are on the right."
	}
}

func (m *model) sidebarView() string {
	return m.tocView() + "\n" + m.highlightsView()
}

func (m *model) tocView() string {
	header := sectionHeaderStyle
	if m.focus == paneTOC {
		header = focusedHeaderStyle
	}
	lines := []string{header.Render("Contents")}
	width := uint(m.layout.sidebarWidth)
	switch {
	case m.snapshot.TOCFailed:
		lines = append(lines, errorStyle.Render("Failed to extract table of contents"))
	case len(m.tocLines) == 0 && m.stage == stageLoading:
		lines = append(lines, helperStyle.Render("Extracting…"))
	case len(m.tocLines) == 0:
		lines = append(lines, helperStyle.Render("No contents."))
	default:
		rows := make([]string, 0, len(m.tocLines))
		for i, t := range m.tocLines {
			label := strings.Repeat("  ", t.depth) + strings.TrimSpace(t.section.Label+" "+t.section.Title)
			label = truncate.StringWithTail(label, width, "…")
			if m.focus == paneTOC && i == m.tocCursor {
				label = currentLineStyle.Render(label)
			}
			rows = append(rows, label)
		}
		lines = append(lines, windowRows(rows, m.tocCursor, m.layout.tocHeight)...)
	}
	return strings.Join(lines, "\n")
}

func (m *model) highlightsView() string {
	header := sectionHeaderStyle
	if m.focus == paneHighlights {
		header = focusedHeaderStyle
	}
	title := fmt.Sprintf("Highlights (%d)", len(m.snapshot.Highlights))
	if m.snapshot.Hidden {
		title = "Highlights (hidden)"
	}
	lines := []string{header.Render(title)}
	if len(m.snapshot.Highlights) == 0 {
		lines = append(lines, helperStyle.Render("No highlights yet."))
		return strings.Join(lines, "\n")
	}

	width := uint(m.layout.sidebarWidth)
	var rows []string
	cursorRow, page := 0, 0
	for i, h := range m.snapshot.Highlights {
		if p := h.Position.PageNumber; p != page {
			page = p
			rows = append(rows, helperStyle.Render(fmt.Sprintf("Page %d", page)))
		}
		label := highlightLabel(h)
		label = truncate.StringWithTail(label, width, "…")
		if m.focus == paneHighlights && i == m.itemCursor {
			label = currentLineStyle.Render(label)
			cursorRow = len(rows)
		}
		rows = append(rows, label)
	}
	lines = append(lines, windowRows(rows, cursorRow, m.layout.listHeight)...)
	return strings.Join(lines, "\n")
}

func highlightLabel(h highlight.Highlight) string {
	text := previewText(h.Comment.Text, 0)
	if text == "" {
		text = "“" + previewText(h.HighlightedText, 0) + "”"
	}
	label := fmt.Sprintf("%s: %s", displayName(h.User), text)
	if n := len(h.Replies); n > 0 {
		label += fmt.Sprintf(" (%d)", n)
	}
	return label
}

func (m *model) detailView() string {
	h, ok := m.currentHighlight()
	if !ok {
		return ""
	}
	wrap := maxInt(20, m.windowWidth()-6)
	lines := []string{
		authorStyle.Render(displayName(h.User)) + helperStyle.Render(fmt.Sprintf(" · %s · page %d", h.Visibility.Type, h.Position.PageNumber)),
		helperStyle.Render(wordwrap.String("“"+previewText(h.HighlightedText, 0)+"”", wrap)),
	}
	if text := strings.TrimSpace(h.Comment.Text); text != "" {
		lines = append(lines, wordwrap.String(text, wrap))
	}
	for _, r := range h.Replies {
		lines = append(lines, authorStyle.Render("↳ "+displayName(r.User))+" "+wordwrap.String(r.Text, wrap))
	}
	return detailBoxStyle.Render(strings.Join(lines, "\n"))
}

func (m *model) composerView() string {
	label := "New comment"
	if m.stage == stageReply {
		label = "Reply"
	}
	lines := []string{sectionHeaderStyle.Render(label)}
	if m.stage == stageComment && m.snapshot.Temp != nil {
		wrap := maxInt(20, m.windowWidth()-4)
		lines = append(lines, helperStyle.Render(wordwrap.String("“"+previewText(m.snapshot.Temp.HighlightedText, 280)+"”", wrap)))
	}
	lines = append(lines, m.input.View())
	if len(m.suggestions) > 0 {
		names := make([]string, 0, len(m.suggestions))
		for _, c := range m.suggestions {
			names = append(names, c.Name)
		}
		lines = append(lines, helperStyle.Render("tab completes @"+shortenList(names, 3)))
	} else if m.stage == stageComment {
		lines = append(lines, helperStyle.Render(fmt.Sprintf("Visibility %s · tab to change", m.draftVis.Type)))
	}
	return strings.Join(lines, "\n")
}

func (m *model) messageView() string {
	if m.errorMessage != "" {
		return errorStyle.Render(m.errorMessage)
	}
	if m.infoMessage == "" {
		return ""
	}
	if m.busy > 0 || m.stage == stageLoading {
		return helperStyle.Render(fmt.Sprintf("%s %s", m.spinner.View(), m.infoMessage))
	}
	return helperStyle.Render(m.infoMessage)
}

func (m *model) statusBarView() string {
	stats := []string{
		fmt.Sprintf("Focus %s", m.focus),
		fmt.Sprintf("Zoom %d%%", int(math.Round(m.scale*100))),
	}
	if vis := filterCycle[m.filterIdx]; vis != "" {
		stats = append(stats, fmt.Sprintf("Filter %s", vis))
	}
	if m.snapshot.Hidden {
		stats = append(stats, "Hidden")
	}
	if m.selectAnchor >= 0 {
		stats = append(stats, "Selecting")
	}
	if m.busy > 0 {
		stats = append(stats, fmt.Sprintf("Jobs %d", m.busy))
	}
	stats = append(stats, "? for keys")
	return statusBarStyle.Render(strings.Join(stats, " · "))
}

type keyHint struct {
	Key         string
	Description string
}

func (m *model) keyLegendView() string {
	hints := []keyHint{
		{"tab", "Switch pane"},
		{"j/k", "Move"},
		{"enter", "Jump to entry"},
		{"s", "Start selection"},
		{"c", "Comment selection"},
		{"r", "Reply"},
		{"d d", "Delete comment"},
		{"v", "Hide/show highlights"},
		{"f", "Filter visibility"},
		{"+/-", "Zoom"},
		{"e", "Export to knowledge base"},
		{"q", "Quit"},
	}
	rows := []string{sectionHeaderStyle.Render("Keys")}
	const columns = 3
	for i := 0; i < len(hints); i += columns {
		end := i + columns
		if end > len(hints) {
			end = len(hints)
		}
		var cells []string
		for _, hint := range hints[i:end] {
			key := keyStyle.Render(hint.Key)
			desc := keyDescStyle.Render(" " + hint.Description + "  ")
			cells = append(cells, lipgloss.JoinHorizontal(lipgloss.Top, key, desc))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return legendBoxStyle.Render(strings.Join(rows, "\n"))
}

func (m *model) windowWidth() int {
	if m.layout.windowWidth > 0 {
		return m.layout.windowWidth
	}
	return m.layout.readerWidth + m.layout.sidebarWidth + paneGap
}

// windowRows returns at most height rows, scrolled so cursor stays visible.
func windowRows(rows []string, cursor, height int) []string {
	if height <= 0 || len(rows) <= height {
		return rows
	}
	start := cursor - height/2
	if start < 0 {
		start = 0
	}
	if start+height > len(rows) {
		start = len(rows) - height
	}
	return rows[start : start+height]
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n\n")
}

func shortenList(items []string, limit int) string {
	if len(items) <= limit {
		return strings.Join(items, ", ")
	}
	return fmt.Sprintf("%s…", strings.Join(items[:limit], ", "))
}

func previewText(value string, limit int) string {
	value = strings.Join(strings.Fields(value), " ")
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return strings.TrimSpace(string(runes[:limit])) + "…"
}
