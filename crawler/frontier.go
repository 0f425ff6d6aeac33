package crawler

import (
	"slices"
	"sync"

	"github.com/lukemcguire/leadcrawl/urlutil"
)

// Entry is a unit of crawl work.
type Entry struct {
	URL      string // Normalized URL
	Depth    int    // Link hops from the target URL
	Priority bool   // Likely to contain contact information
}

type urlState uint8

const (
	stateQueued urlState = iota + 1
	stateVisited
	stateRejected
)

// Scope decides which URLs the Frontier admits.
type Scope struct {
	SeedHost         string
	StayWithinDomain bool
	FollowSubdomains bool
	ExcludePaths     []string
}

// admits reports whether a normalized URL is inside the crawl scope.
func (s Scope) admits(normalized string) bool {
	if s.StayWithinDomain && !urlutil.IsSameSite(normalized, s.SeedHost, s.FollowSubdomains) {
		return false
	}
	return !urlutil.IsExcluded(normalized, s.ExcludePaths)
}

// Frontier is the pending-work queue of a crawl. Each URL moves through
// unseen -> queued -> visited, or unseen -> rejected; no URL is ever queued
// twice. Priority entries are drawn before regular entries, FIFO within each
// class. All methods are safe for concurrent use.
type Frontier struct {
	scope Scope

	mu       sync.Mutex
	priority []Entry
	regular  []Entry
	states   map[string]urlState
	visited  []string
}

// NewFrontier creates an empty Frontier that admits URLs inside scope.
func NewFrontier(scope Scope) *Frontier {
	scope.ExcludePaths = slices.Clone(scope.ExcludePaths)
	return &Frontier{
		scope:  scope,
		states: make(map[string]urlState),
	}
}

// Offer normalizes rawURL and enqueues it. It returns false without side
// effects on the queue if the URL cannot be normalized, has already been
// seen, or falls outside the scope (in which case it is remembered as
// rejected).
func (f *Frontier) Offer(rawURL string, depth int, priority bool) bool {
	normalized, err := urlutil.Normalize(rawURL)
	if err != nil {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, seen := f.states[normalized]; seen {
		return false
	}
	if !f.scope.admits(normalized) {
		f.states[normalized] = stateRejected
		return false
	}

	f.states[normalized] = stateQueued
	entry := Entry{URL: normalized, Depth: depth, Priority: priority}
	if priority {
		f.priority = append(f.priority, entry)
	} else {
		f.regular = append(f.regular, entry)
	}
	return true
}

// InScope reports whether rawURL would pass the Frontier's scope checks. It
// does not change any state.
func (f *Frontier) InScope(rawURL string) bool {
	normalized, err := urlutil.Normalize(rawURL)
	if err != nil {
		return false
	}
	return f.scope.admits(normalized)
}

// Take removes and returns the next entry, priority entries first.
func (f *Frontier) Take() (Entry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var entry Entry
	switch {
	case len(f.priority) > 0:
		entry = f.priority[0]
		f.priority[0] = Entry{}
		f.priority = f.priority[1:]
	case len(f.regular) > 0:
		entry = f.regular[0]
		f.regular[0] = Entry{}
		f.regular = f.regular[1:]
	default:
		return Entry{}, false
	}
	return entry, true
}

// MarkVisited moves a URL to the visited state. It is idempotent, and a
// rejected URL stays rejected.
func (f *Frontier) MarkVisited(normalizedURL string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.states[normalizedURL] {
	case stateVisited, stateRejected:
		return
	}
	f.states[normalizedURL] = stateVisited
	f.visited = append(f.visited, normalizedURL)
}

// Len returns the number of queued entries.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.priority) + len(f.regular)
}

// VisitedCount returns the number of visited URLs.
func (f *Frontier) VisitedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}

// Visited returns the visited URLs in the order they were marked.
func (f *Frontier) Visited() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.visited)
}

// IsQueued reports whether a normalized URL is waiting in the queue.
func (f *Frontier) IsQueued(normalizedURL string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.states[normalizedURL] == stateQueued
}
