package pdftext

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const (
	// CacheEnvVar overrides the cache directory.
	CacheEnvVar = "SCIHIVE_CACHE_DIR"

	cacheSubdir     = "scihive/pdfs"
	defaultCacheTTL = 24 * time.Hour
	downloadTimeout = 90 * time.Second
)

// CacheConfig configures a Cache. Zero values fall back to defaults.
type CacheConfig struct {
	Dir        string
	TTL        time.Duration
	HTTPClient *http.Client
}

// Cache keeps downloaded paper PDFs on disk. Fresh files are served without
// a request; stale ones are revalidated with ETag/Last-Modified, and an
// interrupted download resumes from its partial file.
type Cache struct {
	dir    string
	ttl    time.Duration
	client *http.Client
}

type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"lastModified"`
	CachedAt     time.Time `json:"cachedAt"`
	Size         int64     `json:"size"`
}

// cacheFiles are the on-disk paths belonging to one URL.
type cacheFiles struct {
	pdf, meta, partial string
}

// NewCache creates the cache directory if needed.
func NewCache(cfg CacheConfig) (*Cache, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = os.Getenv(CacheEnvVar)
	}
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = filepath.Join(os.TempDir(), "scihive-cache")
		}
		dir = filepath.Join(base, cacheSubdir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: downloadTimeout}
	}
	return &Cache{dir: dir, ttl: ttl, client: client}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string { return c.dir }

// Fetch returns the local path of the PDF at url, downloading it when the
// cached copy is missing or stale. A stale copy is still returned when the
// refresh fails.
func (c *Cache) Fetch(ctx context.Context, url string) (string, error) {
	files := c.files(url)
	info, statErr := os.Stat(files.pdf)
	if statErr == nil && info.Size() > 0 && time.Since(info.ModTime()) < c.ttl {
		return files.pdf, nil
	}
	if statErr != nil || info.Size() == 0 {
		info = nil
	}

	entry, _ := readEntry(files.meta)
	path, err := c.download(ctx, url, files, entry, info != nil)
	if err == nil {
		return path, nil
	}
	if info != nil {
		log.Printf("[cache] refresh of %s failed, serving stale copy: %v", url, err)
		return files.pdf, nil
	}
	return "", err
}

func (c *Cache) download(ctx context.Context, url string, files cacheFiles, entry cacheEntry, haveCopy bool) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	if haveCopy {
		if entry.ETag != "" {
			req.Header.Set("If-None-Match", entry.ETag)
		}
		if entry.LastModified != "" {
			req.Header.Set("If-Modified-Since", entry.LastModified)
		}
	}
	var resumeFrom int64
	if info, err := os.Stat(files.partial); err == nil && info.Size() > 0 {
		resumeFrom = info.Size()
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", resumeFrom))
		if validator := firstNonEmpty(entry.ETag, entry.LastModified); validator != "" {
			req.Header.Set("If-Range", validator)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified:
		if !haveCopy {
			// Nothing to keep; ask again without validators.
			return c.download(ctx, url, files, cacheEntry{}, false)
		}
		entry.CachedAt = time.Now().UTC()
		now := time.Now()
		_ = os.Chtimes(files.pdf, now, now)
		if err := writeEntry(files.meta, entry); err != nil {
			return "", err
		}
		return files.pdf, nil
	case http.StatusOK:
		return c.store(resp, files, false)
	case http.StatusPartialContent:
		return c.store(resp, files, resumeFrom > 0)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("download %s: %s (%s)", url, resp.Status, string(body))
	}
}

// store writes the body to the partial file and moves it into place once
// complete.
func (c *Cache) store(resp *http.Response, files cacheFiles, appendPartial bool) (string, error) {
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendPartial {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(files.partial, flags, 0o644)
	if err != nil {
		return "", err
	}
	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("write %s: %w", files.partial, err)
	}
	if err := os.Rename(files.partial, files.pdf); err != nil {
		return "", err
	}
	log.Printf("[cache] stored %s (%d bytes)", resp.Request.URL, n)

	entry := cacheEntry{
		URL:          resp.Request.URL.String(),
		ETag:         resp.Header.Get("Etag"),
		LastModified: resp.Header.Get("Last-Modified"),
		CachedAt:     time.Now().UTC(),
	}
	if info, err := os.Stat(files.pdf); err == nil {
		entry.Size = info.Size()
	}
	if err := writeEntry(files.meta, entry); err != nil {
		return "", err
	}
	return files.pdf, nil
}

func (c *Cache) files(url string) cacheFiles {
	base := filepath.Join(c.dir, cacheKey(url))
	return cacheFiles{pdf: base + ".pdf", meta: base + ".meta", partial: base + ".part"}
}

func cacheKey(url string) string {
	sum := sha1.Sum([]byte(url))
	return hex.EncodeToString(sum[:])
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func readEntry(path string) (cacheEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cacheEntry{}, err
	}
	var e cacheEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return cacheEntry{}, err
	}
	return e, nil
}

func writeEntry(path string, e cacheEntry) error {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
