package crawler

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/lukemcguire/leadcrawl/result"
)

// crawlState is the contact data shared by all workers of one crawl.
// The Crawler owns it; workers only touch it through these methods.
type crawlState struct {
	mu       sync.Mutex
	emails   map[string]result.EmailRecord
	phones   map[string]struct{}
	failures map[result.ErrorCategory]int
}

func newCrawlState() *crawlState {
	return &crawlState{
		emails:   make(map[string]result.EmailRecord),
		phones:   make(map[string]struct{}),
		failures: make(map[result.ErrorCategory]int),
	}
}

func (s *crawlState) hasEmail(email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.emails[email]
	return ok
}

// merge records a page's extraction. An email already present keeps its
// original record: the first writer wins.
func (s *crawlState) merge(data ExtractedData) (added []string, newPhones int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range data.Emails {
		if _, exists := s.emails[rec.Email]; exists {
			continue
		}
		s.emails[rec.Email] = rec
		added = append(added, rec.Email)
	}
	for _, phone := range data.Phones {
		if _, exists := s.phones[phone]; exists {
			continue
		}
		s.phones[phone] = struct{}{}
		newPhones++
	}
	return added, newPhones
}

func (s *crawlState) recordFailure(category result.ErrorCategory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[category]++
}

func (s *crawlState) counts() (emails, phones int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.emails), len(s.phones)
}

// snapshot copies the state into an immutable CrawlResult.
func (s *crawlState) snapshot(visited []string, state result.State, duration time.Duration) *result.CrawlResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	failed := 0
	for _, n := range s.failures {
		failed += n
	}

	visited = slices.Clone(visited)
	slices.Sort(visited)

	return &result.CrawlResult{
		Emails:  maps.Clone(s.emails),
		Phones:  slices.Sorted(maps.Keys(s.phones)),
		Visited: visited,
		Stats: result.CrawlStats{
			State:              state,
			PagesVisited:       len(visited),
			Failures:           failed,
			FailuresByCategory: maps.Clone(s.failures),
			Duration:           duration,
		},
	}
}
