// Package api talks to the annotation server's HTTP API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/csheth/scihive/internal/highlight"
	"github.com/csheth/scihive/internal/toc"
)

const (
	// DefaultBaseURL is used when Config.BaseURL is empty.
	DefaultBaseURL = "http://localhost:5000/api"
	defaultTimeout = 15 * time.Second
	maxErrorBody   = 512
)

// ErrNotFound matches StatusError values for 404 responses.
var ErrNotFound = errors.New("api: not found")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: api error %d %s (%s)", e.Op, e.Status, http.StatusText(e.Status), e.Body)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// Client is a typed wrapper around the HTTP API. It implements highlight.API.
type Client struct {
	base   string
	token  string
	client *http.Client
}

var _ highlight.API = (*Client)(nil)

// New returns a client for cfg.
func New(cfg Config) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{base: base, token: cfg.Token, client: client}
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.base }

type paperResponse struct {
	URL      string        `json:"url"`
	Title    string        `json:"title"`
	Authors  []string      `json:"authors"`
	Abstract string        `json:"abstract"`
	Sections []toc.Section `json:"sections"`
}

// FetchPaper loads a paper and its comments.
func (c *Client) FetchPaper(ctx context.Context, paperID string) (highlight.Paper, error) {
	var meta paperResponse
	if err := c.do(ctx, "fetch paper", http.MethodGet, paperPath(paperID), nil, &meta); err != nil {
		return highlight.Paper{}, err
	}
	var comments []highlight.Highlight
	if err := c.do(ctx, "fetch comments", http.MethodGet, paperPath(paperID, "comments"), nil, &comments); err != nil {
		return highlight.Paper{}, err
	}
	return highlight.Paper{
		ID:  paperID,
		URL: meta.URL,
		Metadata: highlight.Metadata{
			Title:    meta.Title,
			Authors:  meta.Authors,
			Abstract: meta.Abstract,
		},
		Highlights: comments,
		Sections:   meta.Sections,
	}, nil
}

// CreateComment posts a new highlight with its comment.
func (c *Client) CreateComment(ctx context.Context, paperID string, nc highlight.NewComment) (highlight.Highlight, error) {
	var h highlight.Highlight
	err := c.do(ctx, "create comment", http.MethodPost, paperPath(paperID, "new_comment"), nc, &h)
	return h, err
}

// UpdateComment edits an existing comment.
func (c *Client) UpdateComment(ctx context.Context, paperID, commentID string, u highlight.CommentUpdate) (highlight.Highlight, error) {
	var h highlight.Highlight
	err := c.do(ctx, "update comment", http.MethodPatch, paperPath(paperID, "comment", commentID), u, &h)
	return h, err
}

// DeleteComment removes a comment.
func (c *Client) DeleteComment(ctx context.Context, paperID, commentID string) error {
	return c.do(ctx, "delete comment", http.MethodDelete, paperPath(paperID, "comment", commentID), nil, nil)
}

// ReplyToComment adds a reply and returns the updated highlight.
func (c *Client) ReplyToComment(ctx context.Context, paperID, commentID, text string) (highlight.Highlight, error) {
	var h highlight.Highlight
	body := map[string]string{"text": text}
	err := c.do(ctx, "reply to comment", http.MethodPost, paperPath(paperID, "comment", commentID, "reply"), body, &h)
	return h, err
}

// Contact is an entry of the share autocomplete.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SearchContacts lists contacts whose name or email starts with prefix.
func (c *Client) SearchContacts(ctx context.Context, prefix string) ([]Contact, error) {
	var contacts []Contact
	path := "/user/contacts?q=" + url.QueryEscape(prefix)
	if err := c.do(ctx, "search contacts", http.MethodGet, path, nil, &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

func paperPath(paperID string, parts ...string) string {
	var b strings.Builder
	b.WriteString("/paper/")
	b.WriteString(url.PathEscape(paperID))
	for _, p := range parts {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(p))
	}
	return b.String()
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
