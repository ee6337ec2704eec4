package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/csheth/scihive/internal/geometry"
	"github.com/csheth/scihive/internal/highlight"
	"github.com/csheth/scihive/internal/jump"
	"github.com/csheth/scihive/internal/pdftext"
	"github.com/csheth/scihive/internal/toc"
)

type fakeAPI struct {
	paper highlight.Paper
	// beforeFetch runs at the start of FetchPaper.
	beforeFetch func()
}

func (f *fakeAPI) FetchPaper(ctx context.Context, paperID string) (highlight.Paper, error) {
	if f.beforeFetch != nil {
		f.beforeFetch()
	}
	p := f.paper
	p.ID = paperID
	return p, nil
}

func (f *fakeAPI) CreateComment(ctx context.Context, paperID string, c highlight.NewComment) (highlight.Highlight, error) {
	return highlight.Highlight{ID: "srv-42", Position: c.Position, HighlightedText: c.HighlightedText, Comment: c.Comment}, nil
}

func (f *fakeAPI) UpdateComment(ctx context.Context, paperID, id string, u highlight.CommentUpdate) (highlight.Highlight, error) {
	return highlight.Highlight{}, errors.New("not implemented")
}

func (f *fakeAPI) DeleteComment(ctx context.Context, paperID, id string) error {
	return errors.New("not implemented")
}

func (f *fakeAPI) ReplyToComment(ctx context.Context, paperID, id, text string) (highlight.Highlight, error) {
	return highlight.Highlight{}, errors.New("not implemented")
}

type fakeRooms struct {
	mu  sync.Mutex
	log []string
}

func (r *fakeRooms) Join(room string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = append(r.log, "join "+room)
	return nil
}

func (r *fakeRooms) Leave(room string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = append(r.log, "leave "+room)
	return nil
}

type fetcherFunc func(ctx context.Context, url string) (string, error)

func (f fetcherFunc) Fetch(ctx context.Context, url string) (string, error) { return f(ctx, url) }

func threePageDocument() *pdftext.Document {
	vp := geometry.PageViewport{PageWidth: 600, PageHeight: 800, Scale: 1}
	page1 := []toc.Run{{Str: "1. Introduction", X: 72, Y: 760, Height: 14, FontName: "Heading"}}
	for i := 0; i < 50; i++ {
		page1 = append(page1, toc.Run{Str: "Some body text", X: 72, Y: float64(740 - i*12), Height: 10, FontName: "Body"})
	}
	page2 := []toc.Run{
		{Str: "2. Method", X: 72, Y: 760, Height: 14, FontName: "Heading"},
		{Str: "selected words", X: 10, Y: 688, Height: 12, Width: 50, FontName: "Body"},
		{Str: "2.1 Setup", X: 72, Y: 600, Height: 12, FontName: "Heading"},
	}
	return &pdftext.Document{Pages: []pdftext.Page{
		{Number: 1, Viewport: vp, Runs: page1},
		{Number: 2, Viewport: vp, Runs: page2},
		{Number: 3, Viewport: vp},
	}}
}

func scaled(page int, y1 float64) geometry.ScaledPosition {
	return geometry.ScaledPosition{
		PageNumber:   page,
		BoundingRect: geometry.ScaledRect{X1: 10, Y1: y1, X2: 60, Y2: y1 + 12, Width: 600, Height: 800},
	}
}

func openSession(t *testing.T, paper highlight.Paper, fetchErr error) (*Session, *fakeRooms) {
	t.Helper()
	rooms := &fakeRooms{}
	store := highlight.NewStore(&fakeAPI{paper: paper}, highlight.NotifierFunc(func(highlight.Notification) {}))
	s := New(Config{
		Store: store,
		Rooms: rooms,
		Fetcher: fetcherFunc(func(ctx context.Context, url string) (string, error) {
			if fetchErr != nil {
				return "", fetchErr
			}
			return "/tmp/" + url, nil
		}),
		OpenDocument: func(string) (*pdftext.Document, error) { return threePageDocument(), nil },
	})
	if err := s.Open(context.Background(), "p1"); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return s, rooms
}

func TestOpenSelectSubmit(t *testing.T) {
	t.Parallel()

	paper := highlight.Paper{
		URL: "p1.pdf",
		Highlights: []highlight.Highlight{
			{ID: "late", Position: scaled(3, 10)},
			{ID: "early", Position: scaled(1, 500)},
		},
	}
	s, rooms := openSession(t, paper, nil)
	if !s.Gate().DocumentReady() || s.Gate().PageCount() != 3 {
		t.Fatalf("document not ready after Open")
	}

	page2 := s.Document().Pages[1].Runs
	temp, ok, err := s.Select(2, page2[1:2])
	if err != nil || !ok {
		t.Fatalf("Select() = %v, %v", ok, err)
	}
	want := geometry.ScaledRect{X1: 10, Y1: 100, X2: 60, Y2: 112, Width: 600, Height: 800}
	if diff := cmp.Diff(want, temp.Position.BoundingRect); diff != "" {
		t.Fatalf("bounding rect mismatch (-want +got):\n%s", diff)
	}

	h, err := s.Store().Submit(context.Background(), highlight.Draft{Comment: "key result"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if h.ID != "srv-42" {
		t.Fatalf("expected server id, got %q", h.ID)
	}
	if _, ok := s.Store().Temp(); ok {
		t.Fatalf("temp highlight survived submit")
	}
	var got []string
	for _, v := range s.Store().Visible() {
		got = append(got, v.ID)
	}
	if diff := cmp.Diff([]string{"early", "srv-42", "late"}, got); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}

	s.Close()
	if diff := cmp.Diff([]string{"join p1", "leave p1"}, rooms.log); diff != "" {
		t.Fatalf("room log mismatch (-want +got):\n%s", diff)
	}
	if s.Store().State() != highlight.StateEmpty {
		t.Fatalf("store not reset on close")
	}
}

func TestOpenExtractsTableOfContents(t *testing.T) {
	t.Parallel()

	s, _ := openSession(t, highlight.Paper{URL: "p1.pdf"}, nil)
	sections, failed, ok := s.Store().Sections()
	if !ok || failed {
		t.Fatalf("Sections() ok=%v failed=%v", ok, failed)
	}
	var labels []string
	for _, sec := range sections {
		labels = append(labels, sec.Label)
	}
	if diff := cmp.Diff([]string{"1", "2", "2.1"}, labels); diff != "" {
		t.Fatalf("labels mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenWithoutDocumentDegrades(t *testing.T) {
	t.Parallel()

	s, rooms := openSession(t, highlight.Paper{URL: "p1.pdf"}, errors.New("offline"))
	if s.Store().State() != highlight.StateLoaded {
		t.Fatalf("paper should stay viewable, state %v", s.Store().State())
	}
	if _, failed, ok := s.Store().Sections(); !ok || !failed {
		t.Fatalf("expected failed table of contents")
	}
	if len(rooms.log) != 1 {
		t.Fatalf("expected room to be joined, log %v", rooms.log)
	}
	if _, _, err := s.Select(1, nil); !errors.Is(err, ErrNoDocument) {
		t.Fatalf("Select() error = %v, want ErrNoDocument", err)
	}
}

func TestReopenLeavesPreviousRoom(t *testing.T) {
	t.Parallel()

	s, rooms := openSession(t, highlight.Paper{URL: "p1.pdf"}, nil)
	if err := s.Open(context.Background(), "p2"); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	want := []string{"join p1", "leave p1", "join p2"}
	if diff := cmp.Diff(want, rooms.log); diff != "" {
		t.Fatalf("room log mismatch (-want +got):\n%s", diff)
	}
}

func TestCoordinatorFollowsZoom(t *testing.T) {
	t.Parallel()

	paper := highlight.Paper{URL: "p1.pdf", Highlights: []highlight.Highlight{{ID: "h", Position: scaled(2, 100)}}}
	s, _ := openSession(t, paper, nil)
	var got []jump.Destination
	c := s.Coordinator(jump.ScrollerFunc(func(d jump.Destination) { got = append(got, d) }), 0)

	c.JumpTo(jump.Highlight("h"))
	s.Zoom(2)
	c.JumpTo(jump.Highlight("h"))
	want := []jump.Destination{{PageNumber: 2, Offset: 100}, {PageNumber: 2, Offset: 200}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("destinations mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenJoinsRoomBeforeFetching(t *testing.T) {
	t.Parallel()

	rooms := &fakeRooms{}
	api := &fakeAPI{paper: highlight.Paper{Highlights: []highlight.Highlight{{ID: "a", Position: scaled(1, 100)}}}}
	store := highlight.NewStore(api, highlight.NotifierFunc(func(highlight.Notification) {}))
	api.beforeFetch = func() {
		rooms.mu.Lock()
		joined := len(rooms.log) == 1 && rooms.log[0] == "join p1"
		rooms.mu.Unlock()
		if !joined {
			t.Errorf("fetch started before joining the room, log %v", rooms.log)
		}
		// A collaborator comments while the paper is being fetched.
		late := highlight.Highlight{ID: "b", Position: scaled(2, 100)}
		store.ApplyLiveEvent(highlight.LiveEvent{Type: highlight.EventNew, Room: "p1", Highlight: &late})
	}
	s := New(Config{Store: store, Rooms: rooms})
	if err := s.Open(context.Background(), "p1"); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	var got []string
	for _, h := range store.Visible() {
		got = append(got, h.ID)
	}
	if diff := cmp.Diff([]string{"a", "b"}, got); diff != "" {
		t.Fatalf("highlights after open (-want +got):\n%s", diff)
	}
}
