// Package crawler provides a concurrent, domain-constrained web crawler that
// harvests business contact details. It implements priority-aware BFS
// crawling with robots.txt compliance, jittered politeness delays, and
// progress event streaming.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lukemcguire/leadcrawl/result"
	"github.com/lukemcguire/leadcrawl/urlutil"
)

// ErrAlreadyStarted is returned when Run is called more than once.
var ErrAlreadyStarted = errors.New("crawler: already started")

// ParseError reports a page whose HTML could not be processed.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse %s: %v", e.URL, e.Err) }

func (e *ParseError) Unwrap() error { return e.Err }

// Option customizes a Crawler.
type Option func(*Crawler)

// WithLogger sets the logger used for crawl diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Crawler) { c.logger = logger }
}

// WithHTTPClient sets the client used for page and robots.txt requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Crawler) { c.client = client }
}

// WithMetrics records crawl activity on m.
func WithMetrics(m *Metrics) Option {
	return func(c *Crawler) { c.metrics = m }
}

// Crawler coordinates a bounded worker pool over a Frontier.
type Crawler struct {
	cfg        Config
	seedURL    string
	client     *http.Client
	logger     zerolog.Logger
	metrics    *Metrics
	progressCh chan<- CrawlEvent

	polite    *Politeness
	fetcher   *Fetcher
	extractor *Extractor
	frontier  *Frontier
	links     *LinkDiscoverer
	robots    *RobotsChecker
	state     *crawlState

	reserved atomic.Int64 // dispatched entries not yet marked visited

	mu       sync.Mutex
	status   result.State
	stopCh   chan struct{}
	stopOnce sync.Once
}

// New validates cfg and creates a Crawler. Invalid configuration is reported
// as a *ConfigurationError before any request is made.
// The progressCh parameter is optional; pass nil to disable progress events.
// When set, it must be drained by the caller and is closed when Run returns.
func New(cfg Config, progressCh chan<- CrawlEvent, opts ...Option) (*Crawler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.clone()

	seedURL, err := urlutil.Normalize(cfg.TargetURL)
	if err != nil {
		return nil, configErr("TargetURL", "cannot be normalized: %v", err)
	}

	c := &Crawler{
		cfg:        cfg,
		seedURL:    seedURL,
		client:     &http.Client{},
		logger:     zerolog.Nop(),
		progressCh: progressCh,
		status:     result.StateIdle,
		stopCh:     make(chan struct{}),
		state:      newCrawlState(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.polite = NewPoliteness(cfg.RequestDelay, cfg.RateLimit)
	c.fetcher = NewFetcher(c.client, cfg, c.polite)
	c.extractor = NewExtractor(cfg)
	c.frontier = NewFrontier(Scope{
		SeedHost:         urlutil.Hostname(seedURL),
		StayWithinDomain: cfg.StayWithinDomain,
		FollowSubdomains: cfg.FollowSubdomains,
		ExcludePaths:     cfg.ExcludePaths,
	})
	if cfg.FollowRobotsTxt {
		// Separate client for robots.txt with shorter timeout
		c.robots = NewRobotsChecker(&http.Client{
			Timeout:   5 * time.Second,
			Transport: c.client.Transport,
		})
	}
	c.links = NewLinkDiscoverer(c.frontier, cfg, c.robots)
	return c, nil
}

// State returns the crawl's lifecycle state.
func (c *Crawler) State() result.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Crawler) setState(s result.State) {
	c.mu.Lock()
	c.status = s
	c.mu.Unlock()
}

// Stop asks a running crawl to stop dispatching new fetches. In-flight
// fetches finish; Run then returns the results gathered so far.
// Stop is safe to call more than once and from any goroutine.
func (c *Crawler) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

// Run executes the crawl starting from cfg.TargetURL and returns the
// aggregated contact data. Per-page failures never abort the crawl; the only
// error is ErrAlreadyStarted. Cancelling ctx has the same effect as Stop.
func (c *Crawler) Run(ctx context.Context) (*result.CrawlResult, error) {
	c.mu.Lock()
	if c.status != result.StateIdle {
		c.mu.Unlock()
		return nil, ErrAlreadyStarted
	}
	c.status = result.StateRunning
	c.mu.Unlock()

	if c.progressCh != nil {
		defer close(c.progressCh)
	}

	start := time.Now()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-c.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	c.logger.Info().
		Str("target", c.seedURL).
		Int("max_depth", c.cfg.MaxDepth).
		Int("max_pages", c.cfg.MaxPages).
		Int("concurrency", c.cfg.Concurrency).
		Msg("Starting crawl")

	c.seed(ctx)

	done := make(chan struct{}, c.cfg.Concurrency)
	var group errgroup.Group
	group.SetLimit(c.cfg.Concurrency)
	inflight := 0

	for ctx.Err() == nil {
		// Reserved slots count against the page ceiling until their task
		// either issues its request or is abandoned.
		for inflight < c.cfg.Concurrency && c.frontier.VisitedCount()+int(c.reserved.Load()) < c.cfg.MaxPages {
			entry, ok := c.frontier.Take()
			if !ok {
				break
			}
			c.reserved.Add(1)
			inflight++
			group.Go(func() error {
				defer func() { done <- struct{}{} }()
				c.process(ctx, entry)
				return nil
			})
		}

		if inflight == 0 {
			break
		}
		select {
		case <-done:
			inflight--
		case <-ctx.Done():
		}
	}

	final := result.StateCompleted
	if ctx.Err() != nil {
		final = result.StateStopped
	}
	// Group.Wait only returns once every dispatched task has signalled done.
	_ = group.Wait()

	c.setState(final)
	res := c.state.snapshot(c.frontier.Visited(), final, time.Since(start))

	c.logger.Info().
		Str("target", c.seedURL).
		Str("state", string(final)).
		Int("visited", len(res.Visited)).
		Int("emails", len(res.Emails)).
		Int("phones", len(res.Phones)).
		Int("failures", res.Stats.Failures).
		Dur("duration", res.Stats.Duration).
		Msg("Crawl finished")

	return res, nil
}

// seed enqueues the target URL at depth 0 and each priority path, appended
// to the target URL, as a priority entry at depth 0.
func (c *Crawler) seed(ctx context.Context) {
	if c.allowedByRobots(ctx, c.seedURL) {
		c.frontier.Offer(c.seedURL, 0, false)
	}

	base, err := url.Parse(c.seedURL)
	if err != nil {
		return
	}
	base.RawQuery = ""
	basePath := strings.TrimRight(base.Path, "/")
	for _, p := range c.cfg.PriorityPaths {
		p = strings.TrimLeft(strings.TrimSpace(p), "/")
		if p == "" {
			continue
		}
		priorityURL := base.Scheme + "://" + base.Host + basePath + "/" + p
		if c.allowedByRobots(ctx, priorityURL) {
			c.frontier.Offer(priorityURL, 0, true)
		}
	}
}

func (c *Crawler) allowedByRobots(ctx context.Context, rawURL string) bool {
	if c.robots == nil {
		return true
	}
	allowed, err := c.robots.Allowed(ctx, rawURL, c.cfg.UserAgent)
	if err != nil {
		c.logger.Debug().Err(err).Str("url", rawURL).Msg("robots.txt unavailable, allowing")
	}
	if !allowed {
		c.logger.Warn().Str("url", rawURL).Msg("Start URL disallowed by robots.txt, not seeding")
		c.state.recordFailure(result.CategoryRobots)
	}
	return allowed
}

// process runs fetch -> extract -> discover for one entry. Every failure is
// absorbed here. The entry becomes visited once its request is issued; an
// entry abandoned before that, during a politeness delay of a stopping
// crawl, is released without being visited.
func (c *Crawler) process(ctx context.Context, entry Entry) {
	evt := CrawlEvent{URL: entry.URL, Depth: entry.Depth, Priority: entry.Priority}
	logger := c.logger.With().Str("url", entry.URL).Int("depth", entry.Depth).Logger()

	var visitOnce sync.Once
	visit := func() {
		visitOnce.Do(func() {
			c.frontier.MarkVisited(entry.URL)
			c.reserved.Add(-1)
		})
	}
	abandoned := false

	defer func() {
		if r := recover(); r != nil {
			err := &ParseError{URL: entry.URL, Err: fmt.Errorf("panic: %v", r)}
			logger.Error().Err(err).Msg("Page processing panicked")
			c.fail(&evt, result.CategoryParse, err)
		}
		if abandoned {
			visitOnce.Do(func() { c.reserved.Add(-1) })
			return
		}
		visit()
		c.emit(ctx, evt)
	}()

	page, err := c.fetcher.fetchWithRetry(ctx, entry.URL, visit)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			logger.Debug().Msg("Fetch abandoned, crawl stopping")
			abandoned = true
			return
		}
		category := result.CategoryUnknown
		var fetchErr *FetchError
		if errors.As(err, &fetchErr) {
			category = fetchErr.Category
		}
		if errors.Is(err, ErrNotHTML) {
			logger.Debug().Err(err).Msg("Skipping non-HTML response")
		} else {
			logger.Warn().Err(err).Str("category", string(category)).Msg("Fetch failed")
		}
		c.fail(&evt, category, err)
		return
	}
	c.metrics.pageFetched()

	doc, err := ParseHTML(page.Body)
	if err != nil {
		parseErr := &ParseError{URL: entry.URL, Err: err}
		logger.Error().Err(parseErr).Msg("Parse failed")
		c.fail(&evt, result.CategoryParse, parseErr)
		return
	}

	data := c.extractor.Extract(entry.URL, doc, c.state.hasEmail)
	added, newPhones := c.state.merge(data)
	c.metrics.recorded(len(added), newPhones)
	evt.NewEmails = added
	if len(added) > 0 {
		logger.Debug().Strs("emails", added).Msg("Recorded emails")
	}

	if entry.Depth < c.cfg.MaxDepth {
		priority, regular := c.links.Discover(ctx, doc, page.FinalURL, entry.Depth+1)
		c.metrics.linksOffered(priority, regular)
		logger.Debug().Int("priority_links", priority).Int("regular_links", regular).Msg("Discovered links")
	}
}

func (c *Crawler) fail(evt *CrawlEvent, category result.ErrorCategory, err error) {
	c.state.recordFailure(category)
	c.metrics.fetchFailed(category)
	evt.Error = err.Error()
	evt.ErrorCategory = category
}

func (c *Crawler) emit(ctx context.Context, evt CrawlEvent) {
	if c.progressCh == nil {
		return
	}
	evt.Visited = c.frontier.VisitedCount()
	evt.Emails, evt.Phones = c.state.counts()
	select {
	case c.progressCh <- evt:
	case <-ctx.Done():
	}
}
