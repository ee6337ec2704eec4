package pdftext

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"
)

func TestCacheServesFreshCopyWithoutRequest(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Etag", `"v1"`)
		_, _ = w.Write([]byte("%PDF-1.4\nHello"))
	}))
	t.Cleanup(server.Close)

	cache, err := NewCache(CacheConfig{Dir: t.TempDir(), HTTPClient: server.Client()})
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	ctx := context.Background()

	path, err := cache.Fetch(ctx, server.URL+"/papers/p1.pdf")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("cached file missing: %v", err)
	}
	path2, err := cache.Fetch(ctx, server.URL+"/papers/p1.pdf")
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if path != path2 {
		t.Fatalf("paths differ: %s vs %s", path, path2)
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("expected a single download, got %d", got)
	}
}

func TestCacheRevalidatesStaleCopy(t *testing.T) {
	t.Parallel()

	var conditional atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"v2"` {
			conditional.Store(true)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Etag", `"v2"`)
		_, _ = w.Write([]byte("%PDF-1.4\nUpdated"))
	}))
	t.Cleanup(server.Close)

	cache, err := NewCache(CacheConfig{Dir: t.TempDir(), HTTPClient: server.Client()})
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	ctx := context.Background()

	path, err := cache.Fetch(ctx, server.URL+"/papers/p2.pdf")
	if err != nil {
		t.Fatalf("initial fetch: %v", err)
	}
	old := time.Now().Add(-(defaultCacheTTL + time.Hour))
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	if _, err := cache.Fetch(ctx, server.URL+"/papers/p2.pdf"); err != nil {
		t.Fatalf("conditional fetch: %v", err)
	}
	if !conditional.Load() {
		t.Fatalf("expected a conditional request for the stale copy")
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if time.Since(info.ModTime()) > time.Hour {
		t.Fatalf("revalidated copy should be fresh again")
	}
}

func TestCacheServesStaleCopyWhenRefreshFails(t *testing.T) {
	t.Parallel()

	var fail atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("%PDF-1.4\nv1"))
	}))
	t.Cleanup(server.Close)

	cache, err := NewCache(CacheConfig{Dir: t.TempDir(), TTL: time.Nanosecond, HTTPClient: server.Client()})
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	ctx := context.Background()
	path, err := cache.Fetch(ctx, server.URL+"/p.pdf")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	fail.Store(true)
	stale, err := cache.Fetch(ctx, server.URL+"/p.pdf")
	if err != nil || stale != path {
		t.Fatalf("expected stale copy %s, got %s, %v", path, stale, err)
	}
}

func TestCacheResumesPartialDownload(t *testing.T) {
	t.Parallel()

	rangeHeader := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rangeHeader <- r.Header.Get("Range")
		w.Header().Set("Etag", `"resume"`)
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write([]byte("world"))
	}))
	t.Cleanup(server.Close)

	cache, err := NewCache(CacheConfig{Dir: t.TempDir(), HTTPClient: server.Client()})
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	url := server.URL + "/papers/p3.pdf"
	files := cache.files(url)
	if err := os.WriteFile(files.partial, []byte("hello "), 0o644); err != nil {
		t.Fatalf("write partial: %v", err)
	}
	if err := writeEntry(files.meta, cacheEntry{ETag: `"resume"`}); err != nil {
		t.Fatalf("write meta: %v", err)
	}

	path, err := cache.Fetch(context.Background(), url)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if path != files.pdf {
		t.Fatalf("unexpected path: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read cached pdf: %v", err)
	}
	if string(data) != "hello world" {
		t.Fatalf("resume failed, got %q", string(data))
	}
	if got := <-rangeHeader; got != fmt.Sprintf("bytes=%d-", len("hello ")) {
		t.Fatalf("expected range header, got %q", got)
	}
	if _, err := os.Stat(files.partial); !os.IsNotExist(err) {
		t.Fatalf("partial file should be gone, err=%v", err)
	}
}

func TestNewCacheUsesEnvDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(CacheEnvVar, dir)

	cache, err := NewCache(CacheConfig{})
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	if cache.Dir() != dir {
		t.Fatalf("Dir() = %q, want %q", cache.Dir(), dir)
	}
}

func TestCacheKeyIsPathSafe(t *testing.T) {
	t.Parallel()

	a, b := cacheKey("https://example.com/a.pdf"), cacheKey("https://example.com/b.pdf")
	if a == b || len(a) != 40 {
		t.Fatalf("unexpected keys %q %q", a, b)
	}
}
