package main

import (
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/csheth/scihive/internal/api"
	"github.com/csheth/scihive/internal/highlight"
	"github.com/csheth/scihive/internal/pdftext"
)

type config struct {
	APIURL        string
	LiveURL       string
	Token         string
	KnowledgeBase string
	CacheDir      string
}

func loadConfig() *config {
	return &config{
		APIURL:        envOrDefault("SCIHIVE_API_URL", api.DefaultBaseURL),
		LiveURL:       os.Getenv("SCIHIVE_LIVE_URL"),
		Token:         os.Getenv("SCIHIVE_TOKEN"),
		KnowledgeBase: envOrDefault("SCIHIVE_KB", filepath.Join(".", "zettelkasten.json")),
		CacheDir:      os.Getenv(pdftext.CacheEnvVar),
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// liveURL returns the websocket endpoint, derived from the API root when it
// was not configured: http://host/api becomes ws://host/live.
func (c *config) liveURL() (string, error) {
	if c.LiveURL != "" {
		return c.LiveURL, nil
	}
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return "", fmt.Errorf("parse api url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("api url %q: unsupported scheme %q", c.APIURL, u.Scheme)
	}
	base := strings.TrimSuffix(strings.TrimRight(u.Path, "/"), "/api")
	u.Path = base + "/live"
	u.RawQuery = ""
	return u.String(), nil
}

func parseVisibility(value string) (highlight.Visibility, error) {
	kind, id, _ := strings.Cut(strings.TrimSpace(value), ":")
	switch vis := highlight.VisibilityType(strings.ToLower(kind)); vis {
	case "", highlight.VisibilityPublic:
		return highlight.Visibility{Type: highlight.VisibilityPublic}, nil
	case highlight.VisibilityPrivate, highlight.VisibilityAnonymous:
		return highlight.Visibility{Type: vis}, nil
	case highlight.VisibilityGroup:
		if id == "" {
			return highlight.Visibility{}, fmt.Errorf("group visibility needs an id, eg. group:42")
		}
		return highlight.Visibility{Type: vis, ID: id}, nil
	default:
		return highlight.Visibility{}, fmt.Errorf("unknown visibility %q", value)
	}
}

// redirectLog sends the standard logger to path so it does not draw over
// the terminal UI. An empty path discards log output.
func redirectLog(path string) (func(), error) {
	if path == "" {
		log.SetOutput(io.Discard)
		return func() { log.SetOutput(os.Stderr) }, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(f)
	return func() {
		log.SetOutput(os.Stderr)
		_ = f.Close()
	}, nil
}

func defaultLogFile() string {
	base, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "scihive", "scihive.log")
}
