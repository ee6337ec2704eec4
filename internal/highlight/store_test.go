package highlight

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/csheth/scihive/internal/geometry"
	"github.com/csheth/scihive/internal/toc"
)

type fakeAPI struct {
	mu       sync.Mutex
	papers   map[string]Paper
	fetchErr error
	// block, when set, holds FetchPaper until it is closed.
	block     chan struct{}
	createErr error
	created   []NewComment
	nextID    int
	deleted   []string
}

func (f *fakeAPI) FetchPaper(ctx context.Context, paperID string) (Paper, error) {
	f.mu.Lock()
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return Paper{}, f.fetchErr
	}
	p, ok := f.papers[paperID]
	if !ok {
		return Paper{}, errors.New("not found")
	}
	return p, nil
}

func (f *fakeAPI) CreateComment(ctx context.Context, paperID string, c NewComment) (Highlight, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return Highlight{}, f.createErr
	}
	f.created = append(f.created, c)
	f.nextID++
	return Highlight{
		ID:              "new-" + string(rune('0'+f.nextID)),
		Position:        c.Position,
		HighlightedText: c.HighlightedText,
		Comment:         c.Comment,
		Visibility:      c.Visibility,
		CanEdit:         true,
	}, nil
}

func (f *fakeAPI) UpdateComment(ctx context.Context, paperID, id string, u CommentUpdate) (Highlight, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, h := range f.papers[paperID].Highlights {
		if h.ID == id {
			h.Comment = u.Comment
			h.Visibility = u.Visibility
			return h, nil
		}
	}
	return Highlight{}, errors.New("not found")
}

func (f *fakeAPI) DeleteComment(ctx context.Context, paperID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeAPI) ReplyToComment(ctx context.Context, paperID, id, text string) (Highlight, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, h := range f.papers[paperID].Highlights {
		if h.ID == id {
			h.Replies = append(h.Replies, Reply{ID: "r1", Text: text})
			return h, nil
		}
	}
	return Highlight{}, errors.New("not found")
}

func hl(id string, page int, y1 float64) Highlight {
	return Highlight{
		ID: id,
		Position: geometry.ScaledPosition{
			PageNumber:   page,
			BoundingRect: geometry.ScaledRect{X1: 10, Y1: y1, X2: 100, Y2: y1 + 10, Width: 600, Height: 800},
		},
		HighlightedText: "text " + id,
	}
}

func ids(hs []Highlight) []string {
	out := make([]string, len(hs))
	for i, h := range hs {
		out[i] = h.ID
	}
	return out
}

func loadedStore(t *testing.T, highlights ...Highlight) (*Store, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{papers: map[string]Paper{"p1": {ID: "p1", Highlights: highlights}}}
	s := NewStore(api, NotifierFunc(func(Notification) {}))
	if err := s.Load(context.Background(), "p1"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s, api
}

func TestLoadSortsByPageThenTop(t *testing.T) {
	t.Parallel()

	s, _ := loadedStore(t, hl("c", 2, 50), hl("b", 1, 400), hl("a", 1, 100))
	if s.State() != StateLoaded {
		t.Fatalf("expected loaded, got %v", s.State())
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, ids(s.Visible())); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
}

func TestLoadFailureNotifies(t *testing.T) {
	t.Parallel()

	var notes []Notification
	api := &fakeAPI{fetchErr: errors.New("boom")}
	s := NewStore(api, NotifierFunc(func(n Notification) { notes = append(notes, n) }))
	if err := s.Load(context.Background(), "p1"); err == nil {
		t.Fatalf("expected error")
	}
	if s.State() != StateEmpty {
		t.Fatalf("expected empty state after failure, got %v", s.State())
	}
	if len(notes) != 1 || notes[0].Level != LevelError {
		t.Fatalf("expected one error notification, got %+v", notes)
	}
}

func TestLoadDropsStaleResponse(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		papers: map[string]Paper{"p1": {ID: "p1", Highlights: []Highlight{hl("old", 1, 10)}}},
		block:  make(chan struct{}),
	}
	s := NewStore(api, NotifierFunc(func(Notification) {}))

	done := make(chan error, 1)
	go func() { done <- s.Load(context.Background(), "p1") }()

	// Wait for the first load to reach the loading state, then supersede it.
	for s.State() != StateLoading {
	}
	s.Reset()
	close(api.block)
	if err := <-done; err != nil {
		t.Fatalf("stale load returned error: %v", err)
	}
	if s.State() != StateEmpty {
		t.Fatalf("stale response was applied: state %v", s.State())
	}
	if len(s.Visible()) != 0 {
		t.Fatalf("stale highlights were applied")
	}
}

func TestSubmitConfirmsTempHighlight(t *testing.T) {
	t.Parallel()

	s, api := loadedStore(t, hl("a", 1, 100))
	if _, err := s.Submit(context.Background(), Draft{Comment: "x"}); !errors.Is(err, ErrNoTempHighlight) {
		t.Fatalf("expected ErrNoTempHighlight, got %v", err)
	}

	temp := TempHighlight{Position: hl("", 1, 300).Position, HighlightedText: "selected"}
	s.SetTemp(temp)
	h, err := s.Submit(context.Background(), Draft{Comment: "nice", Visibility: Visibility{Type: VisibilityPublic}})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, ok := s.Temp(); ok {
		t.Fatalf("temp highlight should be cleared after submit")
	}
	if diff := cmp.Diff([]string{"a", h.ID}, ids(s.Visible())); diff != "" {
		t.Fatalf("unexpected highlights (-want +got):\n%s", diff)
	}
	if len(api.created) != 1 || api.created[0].Comment.Text != "nice" || api.created[0].HighlightedText != "selected" {
		t.Fatalf("unexpected create request %+v", api.created)
	}
}

func TestSubmitFailureKeepsTemp(t *testing.T) {
	t.Parallel()

	s, api := loadedStore(t)
	api.createErr = errors.New("offline")
	s.SetTemp(TempHighlight{HighlightedText: "keep me"})
	if _, err := s.Submit(context.Background(), Draft{Comment: "x"}); err == nil {
		t.Fatalf("expected error")
	}
	temp, ok := s.Temp()
	if !ok || temp.HighlightedText != "keep me" {
		t.Fatalf("temp highlight lost after failed submit")
	}
	if len(s.Visible()) != 0 {
		t.Fatalf("failed submit added a highlight")
	}
}

func TestSubmitBeforeLoad(t *testing.T) {
	t.Parallel()

	s := NewStore(&fakeAPI{}, nil)
	s.SetTemp(TempHighlight{})
	if _, err := s.Submit(context.Background(), Draft{}); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
}

func TestSetTempReplaces(t *testing.T) {
	t.Parallel()

	s := NewStore(&fakeAPI{}, nil)
	s.SetTemp(TempHighlight{HighlightedText: "one"})
	s.SetTemp(TempHighlight{HighlightedText: "two"})
	temp, ok := s.Temp()
	if !ok || temp.HighlightedText != "two" {
		t.Fatalf("expected the second temp highlight, got %+v", temp)
	}
	s.ClearTemp()
	if _, ok := s.Temp(); ok {
		t.Fatalf("ClearTemp left a temp highlight")
	}
}

func TestLiveEventsAreIdempotent(t *testing.T) {
	t.Parallel()

	s, _ := loadedStore(t, hl("a", 1, 100))
	b := hl("b", 1, 50)
	s.ApplyLiveEvent(LiveEvent{Type: EventNew, Highlight: &b})
	s.ApplyLiveEvent(LiveEvent{Type: EventNew, Highlight: &b})
	if diff := cmp.Diff([]string{"b", "a"}, ids(s.Visible())); diff != "" {
		t.Fatalf("duplicate new event changed the set (-want +got):\n%s", diff)
	}

	b.Comment.Text = "edited"
	s.ApplyLiveEvent(LiveEvent{Type: EventUpdate, Highlight: &b})
	s.ApplyLiveEvent(LiveEvent{Type: EventUpdate, Highlight: &b})
	got, ok := s.Find("b")
	if !ok || got.Comment.Text != "edited" {
		t.Fatalf("update not applied: %+v", got)
	}
	if len(s.Visible()) != 2 {
		t.Fatalf("update changed the set size")
	}

	s.ApplyLiveEvent(LiveEvent{Type: EventDelete, ID: "b"})
	s.ApplyLiveEvent(LiveEvent{Type: EventDelete, ID: "b"})
	s.ApplyLiveEvent(LiveEvent{Type: EventDelete, ID: "missing"})
	if diff := cmp.Diff([]string{"a"}, ids(s.Visible())); diff != "" {
		t.Fatalf("unexpected set after deletes (-want +got):\n%s", diff)
	}
}

func TestLiveUpdateForUnknownIDInserts(t *testing.T) {
	t.Parallel()

	s, _ := loadedStore(t)
	x := hl("x", 3, 10)
	s.ApplyLiveEvent(LiveEvent{Type: EventUpdate, Highlight: &x})
	if _, ok := s.Find("x"); !ok {
		t.Fatalf("update for an unknown id should insert it")
	}
}

func TestLiveMetadataEvent(t *testing.T) {
	t.Parallel()

	s, _ := loadedStore(t)
	s.ApplyLiveEvent(LiveEvent{Type: EventMetadata, Metadata: &Metadata{Title: "Renamed"}})
	if got := s.Metadata().Title; got != "Renamed" {
		t.Fatalf("metadata not applied, title %q", got)
	}
}

func TestToggleVisibilityTwiceRestores(t *testing.T) {
	t.Parallel()

	s, _ := loadedStore(t, hl("a", 1, 100), hl("b", 2, 100))
	before := ids(s.Visible())

	s.ToggleVisibility()
	if !s.Hidden() || len(s.Visible()) != 0 {
		t.Fatalf("toggle should hide every highlight")
	}
	if _, ok := s.Find("a"); ok {
		t.Fatalf("hidden highlight still found")
	}

	c := hl("c", 1, 500)
	s.ApplyLiveEvent(LiveEvent{Type: EventNew, Highlight: &c})
	if len(s.Visible()) != 0 {
		t.Fatalf("live event leaked into the hidden view")
	}

	s.ToggleVisibility()
	if s.Hidden() {
		t.Fatalf("second toggle should show highlights")
	}
	want := append(before[:1:1], "c", before[1])
	if diff := cmp.Diff(want, ids(s.Visible())); diff != "" {
		t.Fatalf("set after two toggles (-want +got):\n%s", diff)
	}
}

func TestFilter(t *testing.T) {
	t.Parallel()

	a := hl("a", 1, 100)
	a.Visibility = Visibility{Type: VisibilityPrivate}
	b := hl("b", 1, 200)
	b.Visibility = Visibility{Type: VisibilityPublic}
	s, _ := loadedStore(t, a, b)

	s.SetFilter(Filter{Visibility: VisibilityPublic})
	if diff := cmp.Diff([]string{"b"}, ids(s.Visible())); diff != "" {
		t.Fatalf("unexpected filtered set (-want +got):\n%s", diff)
	}
	if _, ok := s.Find("a"); ok {
		t.Fatalf("filtered highlight should not be found")
	}
	if len(s.All()) != 2 {
		t.Fatalf("All should ignore the filter")
	}
}

func TestUpdateReplyRemove(t *testing.T) {
	t.Parallel()

	s, api := loadedStore(t, hl("a", 1, 100))
	ctx := context.Background()

	if _, err := s.Update(ctx, "a", CommentUpdate{Comment: Comment{Text: "changed"}}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if h, _ := s.Find("a"); h.Comment.Text != "changed" {
		t.Fatalf("update not stored: %+v", h)
	}
	if _, err := s.Reply(ctx, "a", "agreed"); err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if h, _ := s.Find("a"); len(h.Replies) != 1 || h.Replies[0].Text != "agreed" {
		t.Fatalf("reply not stored: %+v", h)
	}
	if err := s.Remove(ctx, "a"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(s.Visible()) != 0 || len(api.deleted) != 1 {
		t.Fatalf("remove not applied")
	}
}

func TestMutationsOfUnknownHighlightSkipAPI(t *testing.T) {
	t.Parallel()

	s, api := loadedStore(t, hl("a", 1, 100))
	ctx := context.Background()

	if _, err := s.Reply(ctx, "missing", "hi"); !errors.Is(err, ErrUnknownHighlight) {
		t.Fatalf("Reply err = %v, want ErrUnknownHighlight", err)
	}
	if err := s.Remove(ctx, "missing"); !errors.Is(err, ErrUnknownHighlight) {
		t.Fatalf("Remove err = %v, want ErrUnknownHighlight", err)
	}
	if len(api.deleted) != 0 {
		t.Fatalf("api called for unknown id: %v", api.deleted)
	}
}

func TestSectionsFromPaperTakePrecedence(t *testing.T) {
	t.Parallel()

	server := []toc.Section{{Label: "1", Title: "Intro", Numbering: []int{1}}}
	api := &fakeAPI{papers: map[string]Paper{"p1": {ID: "p1", Sections: server}}}
	s := NewStore(api, nil)
	if err := s.Load(context.Background(), "p1"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	s.SetSections(toc.Result{Failed: true})
	sections, failed, ok := s.Sections()
	if !ok || failed || len(sections) != 1 || sections[0].Title != "Intro" {
		t.Fatalf("unexpected sections %+v failed=%v ok=%v", sections, failed, ok)
	}
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	t.Parallel()

	s, _ := loadedStore(t)
	var got []Snapshot
	cancel := s.Subscribe(func(snap Snapshot) { got = append(got, snap) })
	s.SetTemp(TempHighlight{HighlightedText: "t"})
	cancel()
	s.ClearTemp()
	if len(got) != 1 || got[0].Temp == nil || got[0].Temp.HighlightedText != "t" {
		t.Fatalf("unexpected snapshots %+v", got)
	}
}

func TestLiveEventsDuringLoadSurviveFetch(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		papers: map[string]Paper{"p1": {ID: "p1", Highlights: []Highlight{hl("a", 1, 100), hl("gone", 1, 200)}}},
		block:  make(chan struct{}),
	}
	s := NewStore(api, NotifierFunc(func(Notification) {}))

	subscribed := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- s.LoadSubscribed(context.Background(), "p1", func() error {
			close(subscribed)
			return nil
		})
	}()
	<-subscribed

	b := hl("b", 2, 10)
	s.ApplyLiveEvent(LiveEvent{Type: EventNew, Room: "p1", Highlight: &b})
	s.ApplyLiveEvent(LiveEvent{Type: EventDelete, Room: "p1", ID: "gone"})
	s.ApplyLiveEvent(LiveEvent{Type: EventMetadata, Metadata: &Metadata{Title: "Live title"}})
	close(api.block)
	if err := <-done; err != nil {
		t.Fatalf("LoadSubscribed() error = %v", err)
	}

	if diff := cmp.Diff([]string{"a", "b"}, ids(s.Visible())); diff != "" {
		t.Fatalf("highlights after load (-want +got):\n%s", diff)
	}
	if got := s.Metadata().Title; got != "Live title" {
		t.Fatalf("metadata title = %q, want the live update", got)
	}

	// Replayed events are consumed; the next load starts clean.
	api.mu.Lock()
	api.block = nil
	api.mu.Unlock()
	if err := s.Load(context.Background(), "p1"); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff([]string{"a", "gone"}, ids(s.Visible())); diff != "" {
		t.Fatalf("highlights after reload (-want +got):\n%s", diff)
	}
}

func TestLiveEventsForOtherRoomsAreDropped(t *testing.T) {
	t.Parallel()

	s, _ := loadedStore(t, hl("a", 1, 100))
	x := hl("x", 1, 300)
	s.ApplyLiveEvent(LiveEvent{Type: EventNew, Room: "previous", Highlight: &x})
	s.ApplyLiveEvent(LiveEvent{Type: EventDelete, Room: "previous", ID: "a"})
	if diff := cmp.Diff([]string{"a"}, ids(s.Visible())); diff != "" {
		t.Fatalf("foreign room events were applied (-want +got):\n%s", diff)
	}
	s.ApplyLiveEvent(LiveEvent{Type: EventNew, Room: "p1", Highlight: &x})
	if _, ok := s.Find("x"); !ok {
		t.Fatalf("event for the open paper was dropped")
	}
}

func TestInvalidAnchorsAreSkipped(t *testing.T) {
	t.Parallel()

	noSize := hl("no-size", 1, 100)
	noSize.Position.BoundingRect.Width = 0
	inverted := hl("inverted", 1, 100)
	inverted.Position.BoundingRect.Y2 = inverted.Position.BoundingRect.Y1 - 5
	badRect := hl("bad-rect", 1, 100)
	badRect.Position.Rects = []geometry.ScaledRect{{X1: 1, Y1: 1, X2: 2, Y2: 2, Width: 600, Height: -1}}

	s, _ := loadedStore(t, hl("ok", 1, 100), noSize, inverted, badRect)
	if diff := cmp.Diff([]string{"ok"}, ids(s.Visible())); diff != "" {
		t.Fatalf("loaded set (-want +got):\n%s", diff)
	}

	s.ApplyLiveEvent(LiveEvent{Type: EventNew, Highlight: &noSize})
	s.ApplyLiveEvent(LiveEvent{Type: EventUpdate, Highlight: &inverted})
	if diff := cmp.Diff([]string{"ok"}, ids(s.Visible())); diff != "" {
		t.Fatalf("set after invalid live events (-want +got):\n%s", diff)
	}
}

func TestSnapshotsAreSequenced(t *testing.T) {
	t.Parallel()

	s, _ := loadedStore(t)
	var seqs []uint64
	cancel := s.Subscribe(func(snap Snapshot) { seqs = append(seqs, snap.Seq) })
	defer cancel()
	s.SetTemp(TempHighlight{HighlightedText: "t"})
	s.ToggleVisibility()
	s.ClearTemp()
	if len(seqs) != 3 {
		t.Fatalf("got %d snapshots, want 3", len(seqs))
	}
	for i := 1; i < len(seqs); i++ {
		if seqs[i] <= seqs[i-1] {
			t.Fatalf("snapshot sequence not increasing: %v", seqs)
		}
	}
	if latest := s.Snapshot().Seq; latest <= seqs[2] {
		t.Fatalf("Snapshot().Seq = %d, want > %d", latest, seqs[2])
	}
}
