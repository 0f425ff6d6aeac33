package result

import (
	"slices"
	"strings"
	"time"
)

// State is the lifecycle state of a crawl.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateStopped   State = "stopped"
)

// EmailRecord describes where a business email address was first found.
type EmailRecord struct {
	Email     string `json:"email"`
	SourceURL string `json:"source_url"`
	PageTitle string `json:"page_title,omitempty"`
	Name      string `json:"name,omitempty"`
	JobTitle  string `json:"job_title,omitempty"`
}

// CrawlStats contains diagnostic statistics for a crawl. They are a side
// channel: callers should not depend on them to interpret the contact data.
type CrawlStats struct {
	State              State                 `json:"state"`
	PagesVisited       int                   `json:"pages_visited"`
	Failures           int                   `json:"failures"`
	FailuresByCategory map[ErrorCategory]int `json:"failures_by_category,omitempty"`
	Duration           time.Duration         `json:"duration_ns"`
}

// CrawlResult is the read-only snapshot handed to callers when a crawl ends.
type CrawlResult struct {
	// Emails maps each email address, as written on the page, to the record
	// of its first extraction.
	Emails  map[string]EmailRecord `json:"emails"`
	Phones  []string               `json:"phones"`
	Visited []string               `json:"visited"`
	Stats   CrawlStats             `json:"stats"`
}

// SortedEmails returns the email records ordered by address.
func (r *CrawlResult) SortedEmails() []EmailRecord {
	records := make([]EmailRecord, 0, len(r.Emails))
	for _, rec := range r.Emails {
		records = append(records, rec)
	}
	slices.SortFunc(records, func(a, b EmailRecord) int {
		return strings.Compare(a.Email, b.Email)
	})
	return records
}
