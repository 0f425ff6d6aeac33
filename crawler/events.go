package crawler

import "github.com/lukemcguire/leadcrawl/result"

// CrawlEvent reports progress for a single processed URL.
type CrawlEvent struct {
	URL           string
	Depth         int
	Priority      bool
	Error         string
	ErrorCategory result.ErrorCategory
	NewEmails     []string // Emails first recorded on this page
	Visited       int      // Pages dispatched so far
	Emails        int      // Distinct emails so far
	Phones        int      // Distinct phones so far
}
