package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/sync/singleflight"
)

// maxRobotsBytes bounds how much of a robots.txt file is read.
const maxRobotsBytes = 512 << 10

// cachedRobots stores parsed robots.txt data with fetch timestamp.
// A nil data field means allow-all (missing file, server error, fetch error).
type cachedRobots struct {
	data      *robotstxt.RobotsData
	fetchedAt time.Time
}

// RobotsChecker fetches and caches robots.txt rules per scheme and host.
// Concurrent lookups for the same host share a single fetch.
type RobotsChecker struct {
	client   *http.Client
	cacheTTL time.Duration

	mu    sync.RWMutex
	cache map[string]cachedRobots
	group singleflight.Group
}

// NewRobotsChecker creates a RobotsChecker with the given HTTP client.
func NewRobotsChecker(client *http.Client) *RobotsChecker {
	return &RobotsChecker{
		client:   client,
		cacheTTL: time.Hour,
		cache:    make(map[string]cachedRobots),
	}
}

// Allowed checks if the given URL may be crawled by the user agent.
// Errors (network, parsing) result in allow-all behavior and are returned
// alongside true for diagnostics.
func (r *RobotsChecker) Allowed(ctx context.Context, rawURL, userAgent string) (bool, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return true, fmt.Errorf("parse URL: %w", err)
	}
	if parsedURL.Host == "" {
		return true, nil
	}

	key := parsedURL.Scheme + "://" + parsedURL.Host
	entry, ok := r.lookup(key)
	if !ok {
		var fetchErr error
		entry, fetchErr = r.fetch(ctx, key)
		if fetchErr != nil {
			return true, fetchErr
		}
	}

	if entry.data == nil {
		return true, nil
	}
	path := parsedURL.EscapedPath()
	if path == "" {
		path = "/"
	}
	if parsedURL.RawQuery != "" {
		path += "?" + parsedURL.RawQuery
	}
	return entry.data.TestAgent(path, userAgent), nil
}

func (r *RobotsChecker) lookup(key string) (cachedRobots, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[key]
	if !ok || time.Since(entry.fetchedAt) >= r.cacheTTL {
		return cachedRobots{}, false
	}
	return entry, true
}

func (r *RobotsChecker) store(key string, data *robotstxt.RobotsData) cachedRobots {
	entry := cachedRobots{data: data, fetchedAt: time.Now()}
	r.mu.Lock()
	r.cache[key] = entry
	r.mu.Unlock()
	return entry
}

// fetch downloads and parses robots.txt for key ("scheme://host"). Failures
// cache an allow-all entry so the host is not hammered.
func (r *RobotsChecker) fetch(ctx context.Context, key string) (cachedRobots, error) {
	v, err, _ := r.group.Do(key, func() (any, error) {
		data, err := r.download(ctx, key)
		return r.store(key, data), err
	})
	entry, _ := v.(cachedRobots)
	return entry, err
}

func (r *RobotsChecker) download(ctx context.Context, key string) (*robotstxt.RobotsData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, key+"/robots.txt", nil)
	if err != nil {
		return nil, fmt.Errorf("create robots.txt request for %s: %w", key, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt for %s: %w", key, err)
	}
	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBytes))
	closeErr := resp.Body.Close()
	if readErr != nil {
		return nil, fmt.Errorf("read robots.txt body for %s: %w", key, readErr)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("close robots.txt response body for %s: %w", key, closeErr)
	}

	// 404 means no rules; 5xx is treated as allow-all (fail open).
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode >= 500 {
		return nil, nil
	}

	robots, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt for %s: %w", key, err)
	}
	return robots, nil
}

// ClearCache removes all cached robots.txt entries.
func (r *RobotsChecker) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]cachedRobots)
}
