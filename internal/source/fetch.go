package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	appLog "monthcal/internal/log"
)

// Fetcher downloads a remote event source, sending If-None-Match /
// If-Modified-Since so an unchanged feed costs a 304. The last good body
// is kept in memory and reused on 304 or when the server is unreachable.
type Fetcher struct {
	client *http.Client

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	etag         string
	lastModified string
	body         []byte
}

// NewFetcher returns a Fetcher with a 15s request timeout.
func NewFetcher() *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		cache: make(map[string]cacheEntry),
	}
}

// Fetch returns the body at url and whether it came from the cache.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, bool, error) {
	if url == "" {
		return nil, false, errors.New("source URL is empty")
	}

	f.mu.Lock()
	cached, hasCache := f.cache[url]
	f.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}
	if cached.etag != "" {
		req.Header.Set("If-None-Match", cached.etag)
	}
	if cached.lastModified != "" {
		req.Header.Set("If-Modified-Since", cached.lastModified)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if hasCache {
			appLog.Error("source fetch network error, using cached body", err, "url", redactURL(url))
			return cached.body, true, nil
		}
		return nil, false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, false, readErr
		}
		f.mu.Lock()
		f.cache[url] = cacheEntry{
			etag:         resp.Header.Get("ETag"),
			lastModified: resp.Header.Get("Last-Modified"),
			body:         body,
		}
		f.mu.Unlock()
		appLog.Debug("source fetch success", "url", redactURL(url), "bytes", len(body))
		return body, false, nil

	case http.StatusNotModified:
		if !hasCache {
			return nil, false, errors.New("received 304 Not Modified but no cached body available")
		}
		return cached.body, true, nil

	default:
		if hasCache {
			appLog.Error("source fetch non-OK, using cached body", errors.New(resp.Status), "url", redactURL(url))
			return cached.body, true, nil
		}
		return nil, false, fmt.Errorf("fetch %s: %s", redactURL(url), resp.Status)
	}
}

// redactURL keeps scheme and host only; feed URLs often embed tokens.
func redactURL(u string) string {
	const redactedSuffix = "/...(redacted)"

	i := -1
	for idx := 0; idx+2 < len(u); idx++ {
		if u[idx:idx+3] == "://" {
			i = idx + 3
			break
		}
	}
	if i == -1 {
		return "source://...(redacted)"
	}

	j := i
	for j < len(u) && u[j] != '/' && u[j] != '?' {
		j++
	}
	return u[:j] + redactedSuffix
}
