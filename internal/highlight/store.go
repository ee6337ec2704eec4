package highlight

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/csheth/scihive/internal/bus"
	"github.com/csheth/scihive/internal/lookup"
	"github.com/csheth/scihive/internal/toc"
)

var (
	// ErrNoTempHighlight is returned by Submit when nothing is selected.
	ErrNoTempHighlight = errors.New("highlight: no temp highlight to submit")
	// ErrNotLoaded is returned by mutations issued before a paper is loaded.
	ErrNotLoaded = errors.New("highlight: no paper loaded")
	// ErrUnknownHighlight is returned when a mutation names a highlight that
	// is not in the confirmed set.
	ErrUnknownHighlight = errors.New("highlight: unknown highlight")
)

// State is the loading state of the store.
type State int

const (
	StateEmpty State = iota
	StateLoading
	StateLoaded
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	default:
		return "empty"
	}
}

// Filter narrows which confirmed highlights are shown. The zero value shows
// everything.
type Filter struct {
	Visibility VisibilityType
	User       string
}

func (f Filter) match(h Highlight) bool {
	if f.Visibility != "" && h.Visibility.Type != f.Visibility {
		return false
	}
	if f.User != "" && h.User.Username != f.User {
		return false
	}
	return true
}

// Snapshot is a copy of the store state handed to subscribers.
type Snapshot struct {
	// Seq increases with every snapshot taken; a subscriber that receives
	// snapshots out of order keeps the one with the highest Seq.
	Seq        uint64
	State      State
	PaperID    string
	Metadata   Metadata
	Highlights []Highlight
	Temp       *TempHighlight
	Hidden     bool
	Sections   []toc.Section
	TOCFailed  bool
}

// Store owns the highlights of the currently open paper. It is safe for
// concurrent use; the live connection applies events from its own goroutine.
type Store struct {
	api      API
	notifier Notifier
	loads    lookup.Tracker
	changes  bus.Bus[Snapshot]

	mu       sync.Mutex
	state    State
	paperID  string
	paperURL string
	metadata Metadata
	// shown and stashed swap on ToggleVisibility; the confirmed set is
	// whichever of them currently holds the highlights.
	shown    []Highlight
	stashed  []Highlight
	hidden   bool
	filter   Filter
	temp     *TempHighlight
	sections []toc.Section
	tocKnown bool
	tocFail  bool
	// pending holds live events received while loading; they are replayed
	// over the fetched set.
	pending  []LiveEvent
	seq      uint64
}

// NewStore returns an empty store. A nil notifier logs notifications.
func NewStore(api API, notifier Notifier) *Store {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Store{api: api, notifier: notifier}
}

// Subscribe registers fn for state changes.
func (s *Store) Subscribe(fn func(Snapshot)) (cancel func()) {
	return s.changes.Subscribe(fn)
}

// Load fetches paperID and replaces the store contents with it. A response
// that arrives after a newer Load or Reset is dropped without error.
func (s *Store) Load(ctx context.Context, paperID string) error {
	return s.LoadSubscribed(ctx, paperID, nil)
}

// LoadSubscribed is Load with a hook that runs once the store is loading
// paperID and before the fetch starts, typically joining the paper's live
// room. Live events applied from then on survive the fetch.
func (s *Store) LoadSubscribed(ctx context.Context, paperID string, subscribe func() error) error {
	id := s.loads.Next()

	s.mu.Lock()
	s.clearLocked()
	s.state = StateLoading
	s.paperID = paperID
	s.mu.Unlock()
	s.publish()

	if subscribe != nil {
		if err := subscribe(); err != nil {
			log.Printf("[store] subscribe to %s: %v", paperID, err)
		}
	}

	paper, err := s.api.FetchPaper(ctx, paperID)
	if !s.loads.IsLatest(id) {
		log.Printf("[store] dropping stale response for paper %s", paperID)
		return nil
	}
	if err != nil {
		s.mu.Lock()
		s.state = StateEmpty
		s.pending = nil
		s.mu.Unlock()
		s.publish()
		s.notifyError("Failed to load paper")
		return fmt.Errorf("load paper %s: %w", paperID, err)
	}

	highlights := make([]Highlight, 0, len(paper.Highlights))
	for _, h := range paper.Highlights {
		if !validAnchor(h) {
			log.Printf("[store] skipping highlight %s with invalid anchor %+v", h.ID, h.Position.BoundingRect)
			continue
		}
		highlights = append(highlights, h)
	}
	sortHighlights(highlights)

	s.mu.Lock()
	if s.paperID != paperID {
		s.mu.Unlock()
		return nil
	}
	s.state = StateLoaded
	s.paperURL = paper.URL
	s.metadata = paper.Metadata
	*s.confirmedLocked() = highlights
	if len(paper.Sections) > 0 {
		s.sections = append([]toc.Section(nil), paper.Sections...)
		s.tocKnown = true
	}
	pending := s.pending
	s.pending = nil
	for _, ev := range pending {
		s.applyEventLocked(ev)
	}
	count := len(*s.confirmedLocked())
	s.mu.Unlock()
	if len(pending) > 0 {
		log.Printf("[store] replayed %d live events received while loading %s", len(pending), paperID)
	}
	log.Printf("[store] loaded paper %s with %d highlights", paperID, count)
	s.publish()
	return nil
}

// Reset clears all paper state and supersedes any in-flight Load.
func (s *Store) Reset() {
	s.loads.Invalidate()
	s.mu.Lock()
	s.clearLocked()
	s.mu.Unlock()
	s.publish()
}

func (s *Store) clearLocked() {
	s.state = StateEmpty
	s.paperID = ""
	s.paperURL = ""
	s.metadata = Metadata{}
	s.shown = nil
	s.stashed = nil
	s.hidden = false
	s.temp = nil
	s.sections = nil
	s.tocKnown = false
	s.tocFail = false
	s.pending = nil
}

// State returns the loading state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PaperID returns the id of the loaded (or loading) paper.
func (s *Store) PaperID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paperID
}

// PaperURL returns the document URL of the loaded paper.
func (s *Store) PaperURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paperURL
}

// Metadata returns the paper metadata.
func (s *Store) Metadata() Metadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metadata
}

// SetTemp replaces the temp highlight; there is at most one.
func (s *Store) SetTemp(t TempHighlight) {
	s.mu.Lock()
	s.temp = &t
	s.mu.Unlock()
	s.publish()
}

// ClearTemp drops the temp highlight, e.g. when the composer is dismissed.
func (s *Store) ClearTemp() {
	s.mu.Lock()
	s.temp = nil
	s.mu.Unlock()
	s.publish()
}

// Temp returns the current temp highlight.
func (s *Store) Temp() (TempHighlight, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.temp == nil {
		return TempHighlight{}, false
	}
	return *s.temp, true
}

// Submit creates a comment for the temp highlight. On success the confirmed
// highlight joins the set and the temp highlight is cleared; on failure the
// temp highlight is kept so the user can retry.
func (s *Store) Submit(ctx context.Context, d Draft) (Highlight, error) {
	s.mu.Lock()
	if s.state != StateLoaded {
		s.mu.Unlock()
		return Highlight{}, ErrNotLoaded
	}
	temp := s.temp
	paperID := s.paperID
	s.mu.Unlock()
	if temp == nil {
		return Highlight{}, ErrNoTempHighlight
	}

	h, err := s.api.CreateComment(ctx, paperID, NewComment{
		Position:        temp.Position,
		HighlightedText: temp.HighlightedText,
		Comment:         Comment{Text: d.Comment},
		Visibility:      d.Visibility,
	})
	if err != nil {
		s.notifyError("Failed to submit comment")
		return Highlight{}, fmt.Errorf("create comment: %w", err)
	}

	s.mu.Lock()
	if s.paperID == paperID {
		s.upsertLocked(h)
		// A new selection made during the request stays.
		if s.temp == temp {
			s.temp = nil
		}
	}
	s.mu.Unlock()
	s.publish()
	return h, nil
}

// Update edits the comment of a confirmed highlight.
func (s *Store) Update(ctx context.Context, id string, u CommentUpdate) (Highlight, error) {
	paperID, err := s.loadedHighlight(id)
	if err != nil {
		return Highlight{}, err
	}
	h, err := s.api.UpdateComment(ctx, paperID, id, u)
	if err != nil {
		s.notifyError("Failed to update comment")
		return Highlight{}, fmt.Errorf("update comment %s: %w", id, err)
	}
	s.apply(paperID, func() { s.upsertLocked(h) })
	return h, nil
}

// Reply appends a reply to a highlight's thread.
func (s *Store) Reply(ctx context.Context, id, text string) (Highlight, error) {
	paperID, err := s.loadedHighlight(id)
	if err != nil {
		return Highlight{}, err
	}
	h, err := s.api.ReplyToComment(ctx, paperID, id, text)
	if err != nil {
		s.notifyError("Failed to reply")
		return Highlight{}, fmt.Errorf("reply to comment %s: %w", id, err)
	}
	s.apply(paperID, func() { s.upsertLocked(h) })
	return h, nil
}

// Remove deletes a confirmed highlight.
func (s *Store) Remove(ctx context.Context, id string) error {
	paperID, err := s.loadedHighlight(id)
	if err != nil {
		return err
	}
	if err := s.api.DeleteComment(ctx, paperID, id); err != nil {
		s.notifyError("Failed to delete comment")
		return fmt.Errorf("delete comment %s: %w", id, err)
	}
	s.apply(paperID, func() { s.removeLocked(id) })
	return nil
}

func (s *Store) loadedPaper() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateLoaded {
		return "", ErrNotLoaded
	}
	return s.paperID, nil
}

// loadedHighlight is loadedPaper for mutations of an existing highlight.
func (s *Store) loadedHighlight(id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateLoaded {
		return "", ErrNotLoaded
	}
	for _, h := range *s.confirmedLocked() {
		if h.ID == id {
			return s.paperID, nil
		}
	}
	return "", ErrUnknownHighlight
}

// apply runs fn under the lock unless the paper changed meanwhile.
func (s *Store) apply(paperID string, fn func()) {
	s.mu.Lock()
	if s.paperID != paperID {
		s.mu.Unlock()
		return
	}
	fn()
	s.mu.Unlock()
	s.publish()
}

// ApplyLiveEvent merges a server-pushed change. Events are applied in
// arrival order whatever the loading state; new and update both upsert by id
// so replays are idempotent, and deleting an unknown id is a no-op. Events
// that arrive while loading are replayed over the fetched set. Events
// addressed to another paper's room are dropped.
func (s *Store) ApplyLiveEvent(ev LiveEvent) {
	s.mu.Lock()
	if ev.Room != "" && ev.Room != s.paperID {
		s.mu.Unlock()
		log.Printf("[store] dropping %s event for room %s", ev.Type, ev.Room)
		return
	}
	changed := s.applyEventLocked(ev)
	if changed && s.state == StateLoading {
		s.pending = append(s.pending, ev)
	}
	s.mu.Unlock()
	if changed {
		s.publish()
	}
}

// applyEventLocked reports whether ev was usable.
func (s *Store) applyEventLocked(ev LiveEvent) bool {
	switch ev.Type {
	case EventNew, EventUpdate:
		if ev.Highlight == nil || ev.Highlight.ID == "" {
			log.Printf("[store] ignoring %s event without highlight", ev.Type)
			return false
		}
		if !validAnchor(*ev.Highlight) {
			log.Printf("[store] ignoring %s event for %s with invalid anchor", ev.Type, ev.Highlight.ID)
			return false
		}
		s.upsertLocked(*ev.Highlight)
	case EventDelete:
		s.removeLocked(ev.ID)
	case EventMetadata:
		if ev.Metadata == nil {
			return false
		}
		s.metadata = *ev.Metadata
	default:
		log.Printf("[store] ignoring unknown live event %q", ev.Type)
		return false
	}
	return true
}

// validAnchor reports whether a highlight can be projected onto its page.
func validAnchor(h Highlight) bool {
	if h.Position.PageNumber < 1 || !h.Position.BoundingRect.Valid() {
		return false
	}
	for _, r := range h.Position.Rects {
		if !r.Valid() {
			return false
		}
	}
	return true
}

func (s *Store) confirmedLocked() *[]Highlight {
	if s.hidden {
		return &s.stashed
	}
	return &s.shown
}

func (s *Store) upsertLocked(h Highlight) {
	set := s.confirmedLocked()
	for i := range *set {
		if (*set)[i].ID == h.ID {
			(*set)[i] = h
			sortHighlights(*set)
			return
		}
	}
	*set = insertSorted(*set, h)
}

func (s *Store) removeLocked(id string) {
	set := s.confirmedLocked()
	for i := range *set {
		if (*set)[i].ID == id {
			*set = append((*set)[:i:i], (*set)[i+1:]...)
			return
		}
	}
}

// ToggleVisibility moves the whole confirmed set out of or back into view.
func (s *Store) ToggleVisibility() {
	s.mu.Lock()
	s.shown, s.stashed = s.stashed, s.shown
	s.hidden = !s.hidden
	s.mu.Unlock()
	s.publish()
}

// Hidden reports whether highlights are currently toggled off.
func (s *Store) Hidden() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hidden
}

// SetFilter changes which highlights Visible and Find report.
func (s *Store) SetFilter(f Filter) {
	s.mu.Lock()
	s.filter = f
	s.mu.Unlock()
	s.publish()
}

// Visible returns the displayed highlights, sorted by page and then by
// relative top within the page.
func (s *Store) Visible() []Highlight {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visibleLocked()
}

func (s *Store) visibleLocked() []Highlight {
	out := make([]Highlight, 0, len(s.shown))
	for _, h := range s.shown {
		if s.filter.match(h) {
			out = append(out, h)
		}
	}
	return out
}

// All returns every confirmed highlight whether or not it is displayed.
func (s *Store) All() []Highlight {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Highlight(nil), *s.confirmedLocked()...)
}

// Find looks up a displayed highlight by id.
func (s *Store) Find(id string) (Highlight, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.shown {
		if h.ID == id && s.filter.match(h) {
			return h, true
		}
	}
	return Highlight{}, false
}

// SetSections records a locally extracted table of contents. Sections shipped
// with the paper take precedence.
func (s *Store) SetSections(res toc.Result) {
	s.mu.Lock()
	if s.tocKnown && len(s.sections) > 0 {
		s.mu.Unlock()
		return
	}
	s.sections = append([]toc.Section(nil), res.Sections...)
	s.tocKnown = true
	s.tocFail = res.Failed
	s.mu.Unlock()
	s.publish()
}

// Sections returns the table of contents. ok is false while it is unknown.
func (s *Store) Sections() (sections []toc.Section, failed bool, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]toc.Section(nil), s.sections...), s.tocFail, s.tocKnown
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	snap := Snapshot{
		Seq:        s.seq,
		State:      s.state,
		PaperID:    s.paperID,
		Metadata:   s.metadata,
		Highlights: s.visibleLocked(),
		Hidden:     s.hidden,
		Sections:   append([]toc.Section(nil), s.sections...),
		TOCFailed:  s.tocFail,
	}
	if s.temp != nil {
		t := *s.temp
		snap.Temp = &t
	}
	return snap
}

func (s *Store) publish() {
	if s.changes.Len() == 0 {
		return
	}
	s.changes.Publish(s.Snapshot())
}

func (s *Store) notifyError(msg string) {
	log.Printf("[store] %s", msg)
	s.notifier.Notify(Notification{Level: LevelError, Message: msg})
}

func less(a, b Highlight) bool {
	if a.Position.PageNumber != b.Position.PageNumber {
		return a.Position.PageNumber < b.Position.PageNumber
	}
	return a.Position.BoundingRect.RelativeTop() < b.Position.BoundingRect.RelativeTop()
}

func sortHighlights(hs []Highlight) {
	sort.SliceStable(hs, func(i, j int) bool { return less(hs[i], hs[j]) })
}

// insertSorted places h after every highlight that does not sort after it,
// so equal keys keep arrival order.
func insertSorted(hs []Highlight, h Highlight) []Highlight {
	i := sort.Search(len(hs), func(i int) bool { return less(h, hs[i]) })
	hs = append(hs, Highlight{})
	copy(hs[i+1:], hs[i:])
	hs[i] = h
	return hs
}
