// Package feeds imports article keys from RSS and Atom feeds.
package feeds

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"
)

const (
	httpTimeout    = 30 * time.Second
	maxConcurrent  = 10
	rateLimitDelay = 1 * time.Second
)

// ImportOptions limits what is taken from each feed.
type ImportOptions struct {
	// MaxItems caps the number of items taken per feed. Zero means no cap.
	MaxItems int

	// LookbackDays skips items published more than N days ago. Items
	// without a publication date are always taken. Zero disables the filter.
	LookbackDays int
}

// FailedFeed records a feed that could not be fetched.
type FailedFeed struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// ImportResult holds the article keys found and any feed failures. Keys keep
// the order of the requested feeds and appear once.
type ImportResult struct {
	Keys   []string     `json:"keys"`
	Failed []FailedFeed `json:"failed_feeds"`
}

// Fetcher fetches feeds with per-domain rate limiting and bounded
// concurrency.
type Fetcher struct {
	client      *http.Client
	delay       time.Duration
	rateLimiter map[string]time.Time // per-domain last request time
	mu          sync.Mutex           // protects rateLimiter
}

// NewFetcher creates a Fetcher with a 30-second HTTP timeout.
func NewFetcher() *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: httpTimeout,
			Transport: &userAgentTransport{
				base: http.DefaultTransport,
			},
		},
		delay:       rateLimitDelay,
		rateLimiter: make(map[string]time.Time),
	}
}

// userAgentTransport wraps an http.RoundTripper to inject a User-Agent
// header on every request.
type userAgentTransport struct {
	base http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", "bookshelf/1.0 (+reading lists)")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")
	return t.base.RoundTrip(req)
}

// Import fetches every feed concurrently, at most 10 at a time, and collects
// the article links of their items. A failing feed is recorded in
// ImportResult.Failed and does not fail the batch.
func (f *Fetcher) Import(ctx context.Context, feedURLs []string, opts ImportOptions) (*ImportResult, error) {
	var (
		perFeed = make([][]string, len(feedURLs))
		result  ImportResult
		mu      sync.Mutex
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	for i, feedURL := range feedURLs {
		i, feedURL := i, feedURL
		g.Go(func() error {
			keys, err := f.fetchSingleFeed(ctx, feedURL, opts)
			if err != nil {
				slog.Warn("failed to fetch feed", "url", feedURL, "error", err)

				mu.Lock()
				result.Failed = append(result.Failed, FailedFeed{URL: feedURL, Error: err.Error()})
				mu.Unlock()
				return nil
			}

			perFeed[i] = keys
			slog.Info("fetched feed", "url", feedURL, "items", len(keys))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetching feeds: %w", err)
	}

	seen := make(map[string]struct{})
	for _, keys := range perFeed {
		for _, key := range keys {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			result.Keys = append(result.Keys, key)
		}
	}
	return &result, nil
}

func (f *Fetcher) fetchSingleFeed(ctx context.Context, feedURL string, opts ImportOptions) ([]string, error) {
	u, err := url.Parse(feedURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid feed URL %q", feedURL)
	}

	f.waitForRateLimit(u.Hostname())

	fp := gofeed.NewParser()
	fp.Client = f.client

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing feed %q: %w", feedURL, err)
	}
	return itemKeys(feed, opts, time.Now()), nil
}

// waitForRateLimit enforces a minimum delay between requests to the same
// domain. It blocks until the delay has elapsed.
func (f *Fetcher) waitForRateLimit(domain string) {
	f.mu.Lock()
	lastReq, ok := f.rateLimiter[domain]
	if ok {
		elapsed := time.Since(lastReq)
		if elapsed < f.delay {
			f.mu.Unlock()
			time.Sleep(f.delay - elapsed)
			f.mu.Lock()
		}
	}
	f.rateLimiter[domain] = time.Now()
	f.mu.Unlock()
}
