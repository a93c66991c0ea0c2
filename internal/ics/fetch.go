package ics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	appLog "calview/internal/log"
)

const (
	defaultFetchTimeout     = 15 * time.Second
	defaultFetchConcurrency = 4
)

// Source is one subscribed ICS feed.
type Source struct {
	ID  string
	URL string
}

// FetchResult is the body obtained for one source.
type FetchResult struct {
	Source    Source
	Body      []byte
	FromCache bool // body was served from the disk cache (304 or fallback)
}

// cacheEntry holds HTTP validators for one feed URL.
type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fetcher downloads ICS feeds with conditional requests and keeps the last
// good body per URL on disk, so a failing feed still shows its last events.
type Fetcher struct {
	client      *http.Client
	cacheDir    string
	concurrency int
}

// NewFetcher creates a Fetcher caching under cacheDir. A nil client gets a
// default one with a 15s timeout.
func NewFetcher(cacheDir string, client *http.Client) *Fetcher {
	if cacheDir == "" {
		cacheDir = "./var/ics-cache"
	}
	if client == nil {
		client = &http.Client{Timeout: defaultFetchTimeout}
	}
	return &Fetcher{
		client:      client,
		cacheDir:    cacheDir,
		concurrency: defaultFetchConcurrency,
	}
}

// FetchAll fetches sources concurrently. Results keep the order of sources
// and only include feeds that produced a body; failures are joined into the
// returned error.
func (f *Fetcher) FetchAll(ctx context.Context, sources []Source) ([]FetchResult, error) {
	slots := make([]*FetchResult, len(sources))

	var (
		mu   sync.Mutex
		errs []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for i, src := range sources {
		g.Go(func() error {
			res, err := f.FetchOne(gctx, src)
			if err != nil {
				appLog.Error("ics fetch failed", err, "id", src.ID, "url", redactURL(src.URL))
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", src.ID, err))
				mu.Unlock()
				return nil
			}
			slots[i] = &res
			return nil
		})
	}
	_ = g.Wait()

	results := make([]FetchResult, 0, len(sources))
	for _, r := range slots {
		if r != nil {
			results = append(results, *r)
		}
	}
	return results, errors.Join(errs...)
}

// FetchOne fetches a single source, honoring ETag and Last-Modified.
func (f *Fetcher) FetchOne(ctx context.Context, src Source) (FetchResult, error) {
	if src.URL == "" {
		return FetchResult{}, errors.New("source URL is empty")
	}

	cachePath := f.cachePathForURL(src.URL)
	if err := os.MkdirAll(cachePath, 0o700); err != nil {
		return FetchResult{}, err
	}

	meta, _ := loadCacheMeta(cachePath)
	cachedBody, _ := loadCacheBody(cachePath)
	cached := func() FetchResult {
		return FetchResult{Source: src, Body: cachedBody, FromCache: true}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return FetchResult{}, err
	}
	if meta.ETag != "" {
		req.Header.Set("If-None-Match", meta.ETag)
	}
	if meta.LastModified != "" {
		req.Header.Set("If-Modified-Since", meta.LastModified)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if len(cachedBody) > 0 {
			appLog.Error("ics fetch network error, using cached body", err, "id", src.ID, "url", redactURL(src.URL))
			return cached(), nil
		}
		return FetchResult{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return FetchResult{}, err
		}
		newMeta := cacheEntry{
			URL:          src.URL,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}
		if err := saveCache(cachePath, newMeta, body); err != nil {
			appLog.Error("ics cache save failed", err, "id", src.ID, "url", redactURL(src.URL))
		}
		appLog.Info("ics fetch success", "id", src.ID, "url", redactURL(src.URL), "bytes", len(body))
		return FetchResult{Source: src, Body: body}, nil

	case http.StatusNotModified:
		if len(cachedBody) == 0 {
			return FetchResult{}, errors.New("received 304 Not Modified but no cached body available")
		}
		appLog.Debug("ics fetch not modified; using cache", "id", src.ID, "url", redactURL(src.URL))
		return cached(), nil

	default:
		if len(cachedBody) > 0 {
			appLog.Error("ics fetch non-OK, using cached body", errors.New(resp.Status), "id", src.ID, "url", redactURL(src.URL))
			return cached(), nil
		}
		return FetchResult{}, errors.New(resp.Status)
	}
}

func (f *Fetcher) cachePathForURL(u string) string {
	sum := sha256.Sum256([]byte(u))
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8]))
}

func loadCacheMeta(cachePath string) (cacheEntry, error) {
	var meta cacheEntry
	data, err := os.ReadFile(filepath.Join(cachePath, "meta.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheEntry{}, err
	}
	return meta, nil
}

func loadCacheBody(cachePath string) ([]byte, error) {
	return os.ReadFile(filepath.Join(cachePath, "body.ics"))
}

func saveCache(cachePath string, meta cacheEntry, body []byte) error {
	// Body first so meta never points at a missing body.
	if err := os.WriteFile(filepath.Join(cachePath, "body.ics"), body, 0o600); err != nil {
		return err
	}
	meta.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cachePath, "meta.json"), data, 0o600)
}

// redactURL keeps only scheme and host; feed paths and queries often carry
// private tokens.
func redactURL(u string) string {
	parsed, err := url.Parse(u)
	if err != nil || parsed.Host == "" {
		return "ics://...(redacted)"
	}
	return parsed.Scheme + "://" + parsed.Host + "/...(redacted)"
}
