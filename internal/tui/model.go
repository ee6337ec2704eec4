package tui

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/csheth/scihive/internal/api"
	"github.com/csheth/scihive/internal/bus"
	"github.com/csheth/scihive/internal/geometry"
	"github.com/csheth/scihive/internal/highlight"
	"github.com/csheth/scihive/internal/jump"
	"github.com/csheth/scihive/internal/lookup"
	"github.com/csheth/scihive/internal/selection"
	"github.com/csheth/scihive/internal/session"
	"github.com/csheth/scihive/internal/toc"
)

// Config wires runtime options into the reader.
type Config struct {
	Session           *session.Session
	PaperID           string
	KnowledgeBasePath string
	// Visibility applies to new comments; the zero value means public.
	Visibility highlight.Visibility
	// Context bounds background jobs.
	Context    context.Context
	JobTimeout time.Duration
	// JumpMargin is the room left above a jump destination, in pixels.
	JumpMargin float64
	// Contacts completes @mentions in the composer; optional.
	Contacts ContactSearcher
}

// ContactSearcher looks up collaborators by name or email prefix.
type ContactSearcher interface {
	SearchContacts(ctx context.Context, prefix string) ([]api.Contact, error)
}

type model struct {
	config  Config
	sess    *session.Session
	store   *highlight.Store
	jobs    *jobBus
	jumps   bus.Bus[jump.Target]
	coord   *jump.Coordinator
	release func()
	layout  pageLayout

	stage   stage
	focus   pane
	spinner spinner.Model
	reader  viewport.Model
	input   textinput.Model
	busy    int

	snapshot   highlight.Snapshot
	tocLines   []tocLine
	tocCursor  int
	itemCursor int

	lines        []readerLine
	lineCursor   int
	selectAnchor int
	throttle     selection.Throttle
	now          func() time.Time

	scale       float64
	filterIdx   int
	lastTarget  jump.Target
	hasTarget   bool
	jumpPending bool
	lastJump    jump.Destination

	replyTo       string
	draftVis      highlight.Visibility
	contacts      lookup.Latest[[]api.Contact]
	mentionQuery  string
	suggestions   []api.Contact
	pendingDelete string
	infoMessage   string
	errorMessage  string
	helpVisible   bool
}

// New returns a tea.Model ready to be mounted into a Program.
func New(config Config) tea.Model {
	if config.Visibility.Type == "" {
		config.Visibility.Type = highlight.VisibilityPublic
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = 45 * time.Second
	}

	input := textinput.New()
	input.CharLimit = 500
	input.Width = 60

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	layout := newPageLayout()
	vp := viewport.New(layout.readerWidth, layout.bodyHeight)
	vp.MouseWheelEnabled = true

	m := &model{
		config:       config,
		sess:         config.Session,
		store:        config.Session.Store(),
		jobs:         newJobBus(config.Context, config.JobTimeout),
		layout:       layout,
		stage:        stageLoading,
		focus:        paneReader,
		spinner:      spin,
		reader:       vp,
		input:        input,
		selectAnchor: -1,
		now:          time.Now,
		scale:        1,
	}
	m.coord = m.sess.Coordinator(jump.ScrollerFunc(m.scrollTo), config.JumpMargin)
	m.release = m.coord.Listen(&m.jumps)
	if config.PaperID == "" {
		m.stage = stageReading
		m.infoMessage = "No paper selected."
	}
	m.renderReader()
	return m
}

func (m *model) Init() tea.Cmd {
	if m.config.PaperID == "" {
		return nil
	}
	m.infoMessage = fmt.Sprintf("Opening %s…", m.config.PaperID)
	return tea.Batch(m.spinner.Tick, m.jobs.Start(jobKindOpen, openPaperJob(m.sess, m.config.PaperID)))
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout.Update(msg.Width, msg.Height)
		m.reader.Width = m.layout.readerWidth
		m.reader.Height = m.layout.bodyHeight
		m.input.Width = maxInt(20, msg.Width-12)
		m.renderReader()
		return m, nil
	case spinner.TickMsg:
		if m.stage != stageLoading && m.busy == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case snapshotMsg:
		m.applySnapshot(msg.Snapshot)
		return m, nil
	case notificationMsg:
		if msg.Notification.Level == highlight.LevelError {
			m.errorMessage = msg.Notification.Message
		} else {
			m.errorMessage = ""
			m.infoMessage = msg.Notification.Message
		}
		return m, nil
	case contactsMsg:
		m.applyContacts(msg)
		return m, nil
	case jobSignalMsg:
		m.busy++
		if m.busy == 1 && m.stage != stageLoading {
			return m, m.spinner.Tick
		}
		return m, nil
	case jobResultEnvelope:
		if m.busy > 0 {
			m.busy--
		}
		return m.handleJobResult(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.reader, cmd = m.reader.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *model) handleJobResult(env jobResultEnvelope) (tea.Model, tea.Cmd) {
	switch payload := env.Payload.(type) {
	case openResultMsg:
		m.stage = stageReading
		if payload.err != nil {
			m.infoMessage = ""
			m.errorMessage = fmt.Sprintf("Failed to open %s: %v", payload.paperID, payload.err)
			return m, nil
		}
		m.errorMessage = ""
		m.infoMessage = ""
		m.buildLines()
		m.applySnapshot(m.store.Snapshot())
		if m.sess.Document() == nil {
			m.infoMessage = "PDF unavailable; showing comments only."
		}
	case submitResultMsg:
		if payload.err != nil {
			m.errorMessage = fmt.Sprintf("Failed to save comment: %v", payload.err)
			return m, nil
		}
		m.selectAnchor = -1
		m.errorMessage = ""
		m.infoMessage = "Comment saved."
		m.applySnapshot(m.store.Snapshot())
	case replyResultMsg:
		if payload.err != nil {
			m.errorMessage = fmt.Sprintf("Failed to reply: %v", payload.err)
			return m, nil
		}
		m.errorMessage = ""
		m.infoMessage = fmt.Sprintf("Reply posted (%d in thread).", len(payload.highlight.Replies))
		m.applySnapshot(m.store.Snapshot())
	case deleteResultMsg:
		if payload.err != nil {
			m.errorMessage = fmt.Sprintf("Failed to delete comment: %v", payload.err)
			return m, nil
		}
		m.errorMessage = ""
		m.infoMessage = "Comment deleted."
		m.applySnapshot(m.store.Snapshot())
	case exportResultMsg:
		if payload.err != nil {
			m.errorMessage = fmt.Sprintf("Export failed: %v", payload.err)
			return m, nil
		}
		m.errorMessage = ""
		m.infoMessage = fmt.Sprintf("Exported %d highlights to %s.", payload.count, payload.path)
	}
	return m, nil
}

func (m *model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Type == tea.KeyCtrlC {
		return m, m.quit()
	}
	switch m.stage {
	case stageComment, stageReply:
		return m.handleComposerKey(key)
	case stageLoading:
		if key.String() == "q" {
			return m, m.quit()
		}
		return m, nil
	default:
		return m.handleReadingKey(key)
	}
}

func (m *model) quit() tea.Cmd {
	if m.release != nil {
		m.release()
		m.release = nil
	}
	return tea.Quit
}

func (m *model) handleComposerKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyEsc:
		if m.stage == stageComment {
			m.clearSelection()
			m.infoMessage = "Comment discarded."
		}
		m.closeComposer()
		return m, nil
	case tea.KeyTab:
		if len(m.suggestions) > 0 {
			m.completeMention(m.suggestions[0])
			return m, nil
		}
		if m.stage == stageComment {
			m.draftVis = highlight.Visibility{Type: nextVisibility(m.draftVis.Type)}
		}
		return m, nil
	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		if m.stage == stageReply {
			if value == "" {
				m.errorMessage = "Reply cannot be empty."
				return m, nil
			}
			id := m.replyTo
			m.closeComposer()
			return m, m.jobs.Start(jobKindReply, replyJob(m.store, id, value))
		}
		draft := highlight.Draft{Comment: value, Visibility: m.draftVis}
		m.closeComposer()
		return m, m.jobs.Start(jobKindSubmit, submitJob(m.store, draft))
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(key)
	return m, tea.Batch(cmd, m.refreshMention())
}

// refreshMention starts a contact lookup when the word under the cursor
// became a different @mention.
func (m *model) refreshMention() tea.Cmd {
	query := mentionQuery(m.input.Value())
	if query == m.mentionQuery {
		return nil
	}
	m.mentionQuery = query
	m.suggestions = nil
	if query == "" || m.config.Contacts == nil {
		return nil
	}
	searcher := m.config.Contacts
	ctx := m.jobs.ctx
	latest := &m.contacts
	return func() tea.Msg {
		contacts, current, err := latest.Do(ctx, func(ctx context.Context) ([]api.Contact, error) {
			return searcher.SearchContacts(ctx, query)
		})
		return contactsMsg{query: query, contacts: contacts, current: current, err: err}
	}
}

func (m *model) applyContacts(msg contactsMsg) {
	if !msg.current || msg.query != m.mentionQuery {
		return
	}
	if msg.err != nil {
		log.Printf("[tui] contact lookup %q: %v", msg.query, msg.err)
		return
	}
	m.suggestions = msg.contacts
}

func (m *model) completeMention(c api.Contact) {
	value := m.input.Value()
	start := strings.LastIndexAny(value, " \n") + 1
	m.input.SetValue(value[:start] + "@" + c.Name + " ")
	m.input.CursorEnd()
	m.mentionQuery = ""
	m.suggestions = nil
}

// mentionQuery returns the prefix of a trailing @mention, if any.
func mentionQuery(value string) string {
	word := value[strings.LastIndexAny(value, " \n")+1:]
	if len(word) < 2 || word[0] != '@' {
		return ""
	}
	return word[1:]
}

func nextVisibility(v highlight.VisibilityType) highlight.VisibilityType {
	order := []highlight.VisibilityType{highlight.VisibilityPublic, highlight.VisibilityPrivate, highlight.VisibilityAnonymous}
	for i, t := range order {
		if t == v {
			return order[(i+1)%len(order)]
		}
	}
	return order[0]
}

func (m *model) openComposer(s stage, placeholder string) tea.Cmd {
	m.stage = s
	m.errorMessage = ""
	m.input.SetValue("")
	m.input.Placeholder = placeholder
	m.input.Focus()
	m.draftVis = m.config.Visibility
	m.mentionQuery = ""
	m.suggestions = nil
	return textinput.Blink
}

func (m *model) closeComposer() {
	m.stage = stageReading
	m.replyTo = ""
	m.mentionQuery = ""
	m.suggestions = nil
	m.input.SetValue("")
	m.input.Blur()
}

func (m *model) handleReadingKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "q":
		return m, m.quit()
	case "tab":
		m.cycleFocus(1)
		return m, nil
	case "shift+tab":
		m.cycleFocus(-1)
		return m, nil
	case "?":
		m.helpVisible = !m.helpVisible
		return m, nil
	case "v":
		m.store.ToggleVisibility()
		m.applySnapshot(m.store.Snapshot())
		if m.snapshot.Hidden {
			m.infoMessage = "Highlights hidden."
		} else {
			m.infoMessage = "Highlights shown."
		}
		return m, nil
	case "f":
		m.cycleFilter()
		return m, nil
	case "e":
		if m.config.KnowledgeBasePath == "" {
			m.errorMessage = "Set --kb or SCIHIVE_KB to export highlights."
			return m, nil
		}
		if m.store.State() != highlight.StateLoaded {
			m.errorMessage = "Nothing to export yet."
			return m, nil
		}
		m.infoMessage = "Exporting highlights…"
		return m, m.jobs.Start(jobKindExport, exportJob(m.config.KnowledgeBasePath, m.store))
	case "+", "=":
		m.zoom(zoomStep)
		return m, nil
	case "-":
		m.zoom(-zoomStep)
		return m, nil
	case "esc":
		m.pendingDelete = ""
		m.clearSelection()
		return m, nil
	}

	switch m.focus {
	case paneTOC:
		return m.handleTOCKey(key)
	case paneHighlights:
		return m.handleHighlightsKey(key)
	default:
		return m.handleReaderKey(key)
	}
}

func (m *model) handleReaderKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "up", "k":
		m.moveLine(-1)
	case "down", "j":
		m.moveLine(1)
	case "ctrl+u":
		m.moveLine(-m.reader.Height / 2)
	case "ctrl+d":
		m.moveLine(m.reader.Height / 2)
	case "g":
		m.moveLine(-len(m.lines))
	case "G":
		m.moveLine(len(m.lines))
	case "s":
		if len(m.lines) == 0 {
			return m, nil
		}
		if m.selectAnchor >= 0 {
			m.clearSelection()
			return m, nil
		}
		m.selectAnchor = m.lineCursor
		m.throttle.Reset()
		m.previewSelection(true)
		m.infoMessage = "Selecting; move to extend, c to comment."
	case "c":
		if len(m.lines) == 0 {
			m.errorMessage = "No text to highlight."
			return m, nil
		}
		if m.selectAnchor < 0 {
			m.selectAnchor = m.lineCursor
		}
		m.throttle.Reset()
		if !m.previewSelection(true) {
			return m, nil
		}
		return m, m.openComposer(stageComment, "Comment on the selection (enter to save, esc to cancel)")
	}
	return m, nil
}

func (m *model) handleTOCKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "up", "k":
		m.tocCursor = clampIndex(m.tocCursor-1, len(m.tocLines))
	case "down", "j":
		m.tocCursor = clampIndex(m.tocCursor+1, len(m.tocLines))
	case "enter":
		if len(m.tocLines) == 0 {
			return m, nil
		}
		m.requestJump(jump.Section(m.tocLines[m.tocCursor].index))
	}
	return m, nil
}

func (m *model) handleHighlightsKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.snapshot.Highlights
	switch key.String() {
	case "up", "k":
		m.itemCursor = clampIndex(m.itemCursor-1, len(items))
		m.pendingDelete = ""
		return m, nil
	case "down", "j":
		m.itemCursor = clampIndex(m.itemCursor+1, len(items))
		m.pendingDelete = ""
		return m, nil
	}
	if len(items) == 0 {
		return m, nil
	}
	current := items[m.itemCursor]
	switch key.String() {
	case "enter":
		m.requestJump(jump.Highlight(current.ID))
	case "r":
		m.replyTo = current.ID
		return m, m.openComposer(stageReply, fmt.Sprintf("Reply to %s", displayName(current.User)))
	case "d":
		if !current.CanEdit {
			m.errorMessage = "You can only delete your own comments."
			return m, nil
		}
		if m.pendingDelete != current.ID {
			m.pendingDelete = current.ID
			m.infoMessage = "Press d again to delete this comment."
			return m, nil
		}
		m.pendingDelete = ""
		return m, m.jobs.Start(jobKindDelete, deleteJob(m.store, current.ID))
	}
	return m, nil
}

func (m *model) cycleFocus(step int) {
	idx := 0
	for i, p := range paneSequence {
		if p == m.focus {
			idx = i
		}
	}
	idx = (idx + step + len(paneSequence)) % len(paneSequence)
	m.focus = paneSequence[idx]
	m.pendingDelete = ""
	m.renderReader()
}

func (m *model) cycleFilter() {
	m.filterIdx = (m.filterIdx + 1) % len(filterCycle)
	vis := filterCycle[m.filterIdx]
	m.store.SetFilter(highlight.Filter{Visibility: vis})
	m.applySnapshot(m.store.Snapshot())
	if vis == "" {
		m.infoMessage = "Showing all highlights."
		return
	}
	m.infoMessage = fmt.Sprintf("Showing %s highlights.", vis)
}

func (m *model) zoom(delta float64) {
	scale := math.Max(minZoom, math.Min(maxZoom, m.scale+delta))
	if scale == m.scale {
		return
	}
	m.scale = scale
	m.sess.Zoom(scale)
	m.infoMessage = fmt.Sprintf("Zoom %d%%", int(math.Round(scale*100)))
	if m.hasTarget {
		m.jumps.Publish(m.lastTarget)
	}
	m.renderReader()
}

// requestJump publishes t; the coordinator scrolls synchronously when the
// target resolves.
func (m *model) requestJump(t jump.Target) {
	m.lastTarget = t
	m.hasTarget = true
	m.jumpPending = true
	m.jumps.Publish(t)
	if m.jumpPending {
		m.jumpPending = false
		m.infoMessage = "That spot is not available yet."
	}
}

// scrollTo moves the reader to the line closest to where d's target sits.
func (m *model) scrollTo(d jump.Destination) {
	m.jumpPending = false
	m.lastJump = d
	vp, ok := m.sess.Gate().Viewport(d.PageNumber)
	if !ok {
		return
	}
	want := d.Offset + m.config.JumpMargin
	target := -1
	best := math.Inf(1)
	for i, l := range m.lines {
		if l.run.Page != d.PageNumber {
			continue
		}
		top, _ := lineSpan(l.run, vp)
		if dist := math.Abs(top - want); dist < best {
			best = dist
			target = i
		}
	}
	if target < 0 {
		return
	}
	m.lineCursor = target
	m.renderReader()
	m.reader.SetYOffset(maxInt(0, m.lines[target].row-1))
	m.infoMessage = fmt.Sprintf("Page %d", d.PageNumber)
}

func (m *model) moveLine(delta int) {
	if len(m.lines) == 0 {
		return
	}
	m.lineCursor = clampIndex(m.lineCursor+delta, len(m.lines))
	if m.selectAnchor >= 0 {
		m.previewSelection(false)
	}
	m.renderReader()
	row := m.lines[m.lineCursor].row
	switch {
	case row < m.reader.YOffset:
		m.reader.SetYOffset(row)
	case row >= m.reader.YOffset+m.reader.Height:
		m.reader.SetYOffset(row - m.reader.Height + 1)
	}
}

// previewSelection turns the selected lines into the temp highlight.
// Intermediate moves are throttled; final ones never are.
func (m *model) previewSelection(final bool) bool {
	lo, hi, ok := m.selectionRange()
	if !ok {
		return false
	}
	if !final && !m.throttle.Allow(m.now()) {
		return true
	}
	page := m.lines[lo].run.Page
	runs := make([]toc.Run, 0, hi-lo+1)
	for _, l := range m.lines[lo : hi+1] {
		runs = append(runs, l.run)
	}
	if _, ok, err := m.sess.Select(page, runs); err != nil {
		m.errorMessage = fmt.Sprintf("Selection failed: %v", err)
		return false
	} else if !ok {
		m.errorMessage = "Nothing selectable there."
		return false
	}
	m.errorMessage = ""
	m.applySnapshot(m.store.Snapshot())
	return true
}

// selectionRange returns the selected line span, limited to the page the
// selection started on.
func (m *model) selectionRange() (lo, hi int, ok bool) {
	if m.selectAnchor < 0 || m.selectAnchor >= len(m.lines) {
		return 0, 0, false
	}
	lo, hi = m.selectAnchor, m.lineCursor
	if lo > hi {
		lo, hi = hi, lo
	}
	page := m.lines[m.selectAnchor].run.Page
	for lo < m.selectAnchor && m.lines[lo].run.Page != page {
		lo++
	}
	for hi > m.selectAnchor && m.lines[hi].run.Page != page {
		hi--
	}
	return lo, hi, true
}

func (m *model) clearSelection() {
	m.selectAnchor = -1
	m.throttle.Reset()
	m.store.ClearTemp()
	m.applySnapshot(m.store.Snapshot())
}

func (m *model) buildLines() {
	m.lines = nil
	m.lineCursor = 0
	doc := m.sess.Document()
	if doc == nil {
		m.renderReader()
		return
	}
	for _, run := range toc.MergeLines(doc.Runs()) {
		if strings.TrimSpace(run.Str) == "" {
			continue
		}
		m.lines = append(m.lines, readerLine{run: run})
	}
	m.renderReader()
}

func (m *model) applySnapshot(s highlight.Snapshot) {
	if s.Seq < m.snapshot.Seq {
		return
	}
	m.snapshot = s
	m.tocLines = flattenTOC(s.Sections)
	m.tocCursor = clampIndex(m.tocCursor, len(m.tocLines))
	m.itemCursor = clampIndex(m.itemCursor, len(s.Highlights))
	m.renderReader()
}

func (m *model) currentHighlight() (highlight.Highlight, bool) {
	if len(m.snapshot.Highlights) == 0 {
		return highlight.Highlight{}, false
	}
	return m.snapshot.Highlights[m.itemCursor], true
}

// lineMarks maps reader lines to the highlight covering them.
func (m *model) lineMarks() map[int]markKind {
	marks := map[int]markKind{}
	gate := m.sess.Gate()
	mark := func(pos geometry.ScaledPosition, kind markKind) {
		projected, ok := gate.Project(pos)
		if !ok {
			return
		}
		vp, ok := gate.Viewport(projected.PageNumber)
		if !ok {
			return
		}
		rects := projected.Rects
		if len(rects) == 0 {
			rects = []geometry.Rect{projected.BoundingRect}
		}
		for i, l := range m.lines {
			if l.run.Page != projected.PageNumber {
				continue
			}
			top, bottom := lineSpan(l.run, vp)
			for _, r := range rects {
				if r.Top < bottom && top < r.Bottom() {
					marks[i] = kind
					break
				}
			}
		}
	}
	for _, h := range m.snapshot.Highlights {
		mark(h.Position, markHighlight)
	}
	if m.snapshot.Temp != nil {
		mark(m.snapshot.Temp.Position, markTemp)
	}
	return marks
}

// lineSpan is the vertical extent of a run in viewport pixels.
func lineSpan(r toc.Run, vp geometry.Viewport) (top, bottom float64) {
	_, y1 := vp.ConvertToViewportPoint(r.X, r.Y+r.Height)
	_, y2 := vp.ConvertToViewportPoint(r.X, r.Y)
	return math.Min(y1, y2), math.Max(y1, y2)
}

func flattenTOC(sections []toc.Section) []tocLine {
	var out []tocLine
	var walk func(nodes []toc.Node, depth int)
	walk = func(nodes []toc.Node, depth int) {
		for _, n := range nodes {
			out = append(out, tocLine{index: len(out), depth: depth, section: n.Section})
			walk(n.Children, depth+1)
		}
	}
	walk(toc.Tree(sections), 0)
	return out
}

func displayName(u highlight.User) string {
	if u.Username == "" {
		return "anonymous"
	}
	return u.Username
}

func clampIndex(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

var (
	sectionHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helperStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	authorStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("110"))

	heroAccentColor        = lipgloss.Color("#ff8c00")
	heroSecondaryTextColor = lipgloss.Color("#ffb347")

	heroTitleStyle     = lipgloss.NewStyle().Bold(true).Foreground(heroAccentColor)
	taglineStyle       = lipgloss.NewStyle().Foreground(heroSecondaryTextColor).Italic(true)
	statusBarStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6")).Padding(0, 1)
	keyStyle           = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#ffd166")).Padding(0, 1)
	keyDescStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0def4"))
	legendBoxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#56526e")).Padding(1, 2)
	detailBoxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(heroAccentColor).Padding(0, 1)
	currentLineStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6"))
	selectionLineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#bde0fe"))
	highlightMarkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffd166"))
	tempMarkStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef476f"))
	focusedHeaderStyle = sectionHeaderStyle.Copy().Underline(true)
)
