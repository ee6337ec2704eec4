package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/csheth/scihive/internal/highlight"
	"github.com/csheth/scihive/internal/notes"
)

func TestLiveURLDerivedFromAPI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     config
		want    string
		wantErr bool
	}{
		{name: "http api root", cfg: config{APIURL: "http://localhost:5000/api"}, want: "ws://localhost:5000/live"},
		{name: "https with trailing slash", cfg: config{APIURL: "https://scihive.example/api/"}, want: "wss://scihive.example/live"},
		{name: "prefixed deployment", cfg: config{APIURL: "https://example.org/hive/api?x=1"}, want: "wss://example.org/hive/live"},
		{name: "explicit wins", cfg: config{APIURL: "http://a/api", LiveURL: "ws://b/socket"}, want: "ws://b/socket"},
		{name: "unsupported scheme", cfg: config{APIURL: "ftp://a/api"}, wantErr: true},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := tc.cfg.liveURL()
			if tc.wantErr {
				if err == nil {
					t.Fatalf("liveURL() = %q, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("liveURL() error = %v", err)
			}
			if got != tc.want {
				t.Fatalf("liveURL() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestParseVisibility(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    highlight.Visibility
		wantErr bool
	}{
		{in: "", want: highlight.Visibility{Type: highlight.VisibilityPublic}},
		{in: "Private", want: highlight.Visibility{Type: highlight.VisibilityPrivate}},
		{in: "anonymous", want: highlight.Visibility{Type: highlight.VisibilityAnonymous}},
		{in: "group:42", want: highlight.Visibility{Type: highlight.VisibilityGroup, ID: "42"}},
		{in: "group", wantErr: true},
		{in: "everyone", wantErr: true},
	}
	for _, tc := range tests {
		got, err := parseVisibility(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseVisibility(%q) = %+v, want error", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseVisibility(%q) error = %v", tc.in, err)
			continue
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("parseVisibility(%q) mismatch (-want +got):\n%s", tc.in, diff)
		}
	}
}

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("SCIHIVE_TEST_VALUE", "")
	if got := envOrDefault("SCIHIVE_TEST_VALUE", "fallback"); got != "fallback" {
		t.Fatalf("envOrDefault() = %q, want fallback", got)
	}
	t.Setenv("SCIHIVE_TEST_VALUE", "set")
	if got := envOrDefault("SCIHIVE_TEST_VALUE", "fallback"); got != "set" {
		t.Fatalf("envOrDefault() = %q, want set", got)
	}
}

func TestLoadConfigReadsEnvironment(t *testing.T) {
	t.Setenv("SCIHIVE_API_URL", "https://hive.test/api")
	t.Setenv("SCIHIVE_LIVE_URL", "")
	t.Setenv("SCIHIVE_TOKEN", "tok")
	t.Setenv("SCIHIVE_KB", "/tmp/kb.json")
	t.Setenv("SCIHIVE_CACHE_DIR", "/tmp/pdfs")

	want := &config{
		APIURL:        "https://hive.test/api",
		Token:         "tok",
		KnowledgeBase: "/tmp/kb.json",
		CacheDir:      "/tmp/pdfs",
	}
	if diff := cmp.Diff(want, loadConfig()); diff != "" {
		t.Fatalf("loadConfig() mismatch (-want +got):\n%s", diff)
	}
}

func TestTocCommandReportsUnreadablePDF(t *testing.T) {
	t.Parallel()

	root := rootCmd(&config{})
	root.SetArgs([]string{"toc", filepath.Join(t.TempDir(), "missing.pdf")})
	root.SetOut(&bytes.Buffer{})
	if err := root.ExecuteContext(context.Background()); err == nil {
		t.Fatalf("toc on a missing file should fail")
	}
}

func TestExportCommandWritesKnowledgeBase(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/paper/p1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"url":"","title":"Attention"}`))
	})
	mux.HandleFunc("/paper/p1/comments", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"c1","highlighted_text":"hello","position":{"pageNumber":2,"boundingRect":{"x1":10,"y1":100,"x2":60,"y2":112,"width":600,"height":800},"rects":[]},"comment":{"text":"nice"},"visibility":{"type":"public"},"user":{"username":"ada"},"replies":[{"id":"r1","text":"agreed"}]}]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	kb := filepath.Join(t.TempDir(), "kb.json")
	var out bytes.Buffer
	root := rootCmd(&config{APIURL: srv.URL, KnowledgeBase: kb})
	root.SetArgs([]string{"export", "p1", "--no-pdf"})
	root.SetOut(&out)
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out.String(), `Exported 1 highlights of "Attention"`) {
		t.Fatalf("unexpected output %q", out.String())
	}

	exports, err := notes.LoadExports(kb)
	if err != nil {
		t.Fatalf("LoadExports() error = %v", err)
	}
	if len(exports) != 1 || exports[0].PaperID != "p1" {
		t.Fatalf("unexpected exports %+v", exports)
	}
	got := exports[0].Highlights[0]
	if got.Text != "hello" || got.Comment != "nice" || got.Author != "ada" || len(got.Replies) != 1 {
		t.Fatalf("unexpected highlight %+v", got)
	}
}
