// Package live keeps a websocket connection to the annotation server and
// relays room-scoped comment events for open papers.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/csheth/scihive/internal/highlight"
)

// ErrClosed is returned by calls made after Close.
var ErrClosed = errors.New("live: client closed")

const (
	defaultMinBackoff = 500 * time.Millisecond
	defaultMaxBackoff = 30 * time.Second
	writeTimeout      = 10 * time.Second
)

// Config configures a Client.
type Config struct {
	URL    string
	Token  string
	Dialer *websocket.Dialer
	// MinBackoff and MaxBackoff bound the reconnect delay, which doubles
	// after each failed attempt.
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

// Handler receives events in the order the server sent them, always from
// the same goroutine.
type Handler func(highlight.LiveEvent)

// Client is a reconnecting room subscription.
type Client struct {
	cfg     Config
	handler Handler

	mu     sync.Mutex
	rooms  map[string]struct{}
	conn   *websocket.Conn
	closed bool

	// gorilla connections allow one concurrent writer.
	writeMu sync.Mutex
}

// New returns a client; call Run to connect.
func New(cfg Config, h Handler) *Client {
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	if cfg.MinBackoff <= 0 {
		cfg.MinBackoff = defaultMinBackoff
	}
	if cfg.MaxBackoff < cfg.MinBackoff {
		cfg.MaxBackoff = defaultMaxBackoff
	}
	if h == nil {
		h = func(highlight.LiveEvent) {}
	}
	return &Client{cfg: cfg, handler: h, rooms: map[string]struct{}{}}
}

type roomMessage struct {
	Type string `json:"type"`
	Room string `json:"room"`
}

// Join subscribes to a room. The subscription survives reconnects.
func (c *Client) Join(room string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.rooms[room] = struct{}{}
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	return c.send(conn, roomMessage{Type: "join", Room: room})
}

// Leave unsubscribes from a room.
func (c *Client) Leave(room string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	delete(c.rooms, room)
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	return c.send(conn, roomMessage{Type: "leave", Room: room})
}

// Rooms lists the joined rooms.
func (c *Client) Rooms() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.rooms))
	for r := range c.rooms {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// Connected reports whether a connection is currently up.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

func (c *Client) send(conn *websocket.Conn, msg roomMessage) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("send %s %s: %w", msg.Type, msg.Room, err)
	}
	return nil
}

// Run connects and reads events until ctx is done or Close is called,
// reconnecting with exponential backoff. Every connection re-joins all rooms.
func (c *Client) Run(ctx context.Context) error {
	backoff := c.cfg.MinBackoff
	for {
		if c.isClosed() {
			return ErrClosed
		}
		conn, err := c.dial(ctx)
		if err == nil {
			backoff = c.cfg.MinBackoff
			err = c.serve(ctx, conn)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if c.isClosed() {
			return ErrClosed
		}
		log.Printf("[live] connection lost: %v; retrying in %s", err, backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > c.cfg.MaxBackoff {
			backoff = c.cfg.MaxBackoff
		}
	}
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if c.cfg.Token != "" {
		header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
	conn, _, err := c.cfg.Dialer.DialContext(ctx, c.cfg.URL, header)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.cfg.URL, err)
	}
	return conn, nil
}

func (c *Client) serve(ctx context.Context, conn *websocket.Conn) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return ErrClosed
	}
	c.conn = conn
	rooms := make([]string, 0, len(c.rooms))
	for r := range c.rooms {
		rooms = append(rooms, r)
	}
	c.mu.Unlock()
	sort.Strings(rooms)

	defer func() {
		c.mu.Lock()
		if c.conn == conn {
			c.conn = nil
		}
		c.mu.Unlock()
		conn.Close()
	}()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for _, r := range rooms {
		if err := c.send(conn, roomMessage{Type: "join", Room: r}); err != nil {
			return err
		}
	}
	log.Printf("[live] connected to %s, joined %d rooms", c.cfg.URL, len(rooms))

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		ev, err := Decode(data)
		if err != nil {
			log.Printf("[live] skipping message: %v", err)
			continue
		}
		if ev.Room != "" && !c.joined(ev.Room) {
			log.Printf("[live] skipping %s event for left room %s", ev.Type, ev.Room)
			continue
		}
		c.handler(ev)
	}
}

func (c *Client) joined(room string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.rooms[room]
	return ok
}

// Close drops the connection and stops Run.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	conn := c.conn
	c.mu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type wireEvent struct {
	Type string          `json:"type"`
	Room string          `json:"room"`
	Data json.RawMessage `json:"data"`
	ID   string          `json:"id"`
}

// Decode parses one server message.
func Decode(data []byte) (highlight.LiveEvent, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return highlight.LiveEvent{}, fmt.Errorf("decode event: %w", err)
	}
	ev := highlight.LiveEvent{Type: highlight.EventType(w.Type), Room: w.Room, ID: w.ID}
	switch ev.Type {
	case highlight.EventNew, highlight.EventUpdate:
		var h highlight.Highlight
		if err := json.Unmarshal(w.Data, &h); err != nil {
			return highlight.LiveEvent{}, fmt.Errorf("decode %s event: %w", w.Type, err)
		}
		ev.Highlight = &h
	case highlight.EventDelete:
		if ev.ID == "" {
			return highlight.LiveEvent{}, errors.New("delete event without id")
		}
	case highlight.EventMetadata:
		var m highlight.Metadata
		if err := json.Unmarshal(w.Data, &m); err != nil {
			return highlight.LiveEvent{}, fmt.Errorf("decode metadata event: %w", err)
		}
		ev.Metadata = &m
	default:
		return highlight.LiveEvent{}, fmt.Errorf("unknown event type %q", w.Type)
	}
	return ev, nil
}
