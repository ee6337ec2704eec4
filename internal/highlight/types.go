// Package highlight holds the client-side state of the open paper: confirmed
// highlights and comments, the single in-progress temp highlight, and the
// merging of server-pushed live events into that state.
package highlight

import (
	"context"
	"time"

	"github.com/csheth/scihive/internal/geometry"
	"github.com/csheth/scihive/internal/toc"
)

// VisibilityType names who can see a comment.
type VisibilityType string

const (
	VisibilityPublic    VisibilityType = "public"
	VisibilityPrivate   VisibilityType = "private"
	VisibilityAnonymous VisibilityType = "anonymous"
	VisibilityGroup     VisibilityType = "group"
)

// Visibility scopes a comment; ID carries the group id for group comments.
type Visibility struct {
	Type VisibilityType `json:"type"`
	ID   string         `json:"id,omitempty"`
}

// Comment is the text attached to a highlight.
type Comment struct {
	Text string `json:"text"`
}

// User identifies the author of a comment or reply.
type User struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username"`
}

// Reply is a response in a highlight's thread.
type Reply struct {
	ID        string    `json:"id"`
	User      User      `json:"user"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Highlight is a confirmed, server-assigned highlight with its comment thread.
type Highlight struct {
	ID              string                  `json:"id"`
	Position        geometry.ScaledPosition `json:"position"`
	HighlightedText string                  `json:"highlighted_text"`
	Comment         Comment                 `json:"comment"`
	Visibility      Visibility              `json:"visibility"`
	User            User                    `json:"user"`
	CreatedAt       time.Time               `json:"createdAt"`
	Replies         []Reply                 `json:"replies"`
	CanEdit         bool                    `json:"canEdit"`
}

// Size is the on-screen extent of a temp highlight, used to place the
// comment composer next to it.
type Size struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// TempHighlight is an in-progress selection that was not submitted yet.
type TempHighlight struct {
	Position        geometry.ScaledPosition `json:"position"`
	HighlightedText string                  `json:"highlighted_text"`
	Size            Size                    `json:"size"`
}

// Draft is what the user typed for a temp highlight.
type Draft struct {
	Comment    string
	Visibility Visibility
}

// NewComment is the create-comment request body.
type NewComment struct {
	Position        geometry.ScaledPosition `json:"position"`
	HighlightedText string                  `json:"highlighted_text"`
	Comment         Comment                 `json:"comment"`
	Visibility      Visibility              `json:"visibility"`
}

// CommentUpdate is the edit-comment request body.
type CommentUpdate struct {
	Comment    Comment    `json:"comment"`
	Visibility Visibility `json:"visibility"`
}

// Metadata is the paper-level information that live events may update.
type Metadata struct {
	Title    string   `json:"title"`
	Authors  []string `json:"authors,omitempty"`
	Abstract string   `json:"abstract,omitempty"`
}

// Paper is the result of fetching a paper.
type Paper struct {
	ID         string        `json:"id"`
	URL        string        `json:"url"`
	Metadata   Metadata      `json:"metadata"`
	Highlights []Highlight   `json:"highlights"`
	Sections   []toc.Section `json:"sections,omitempty"`
}

// EventType enumerates live event kinds.
type EventType string

const (
	EventNew      EventType = "new"
	EventUpdate   EventType = "update"
	EventDelete   EventType = "delete"
	EventMetadata EventType = "metadata"
)

// LiveEvent is a server-pushed change made by any collaborator.
type LiveEvent struct {
	Type      EventType
	// Room is the paper the event belongs to; empty when the server did not
	// say.
	Room      string
	Highlight *Highlight
	ID        string
	Metadata  *Metadata
}

// API is the part of the HTTP API the store needs.
type API interface {
	FetchPaper(ctx context.Context, paperID string) (Paper, error)
	CreateComment(ctx context.Context, paperID string, c NewComment) (Highlight, error)
	UpdateComment(ctx context.Context, paperID, commentID string, u CommentUpdate) (Highlight, error)
	DeleteComment(ctx context.Context, paperID, commentID string) error
	ReplyToComment(ctx context.Context, paperID, commentID, text string) (Highlight, error)
}
