package crawler

import (
	"fmt"
	"net/url"
	"slices"
	"time"
)

const (
	minDepth       = 1
	maxDepth       = 5
	minPages       = 1
	maxPages       = 500
	minConcurrency = 1
	maxConcurrency = 20
	minDelay       = 500 * time.Millisecond
	maxRetries     = 5

	// DefaultUserAgent is sent when Config.UserAgent is empty.
	DefaultUserAgent = "Mozilla/5.0 (compatible; CompanyBot/1.0)"

	defaultMaxBodyBytes = 5 << 20
)

// Config holds crawler configuration. It is copied by New and never
// mutated afterwards.
type Config struct {
	TargetURL        string        // The starting URL for the crawl
	MaxDepth         int           // Link hops followed from the target (1-5)
	MaxPages         int           // Ceiling on fetched pages (1-500)
	StayWithinDomain bool          // Only follow links on the target's site
	FollowSubdomains bool          // Treat subdomains of the target as the same site
	PriorityPaths    []string      // Paths appended to the target and crawled first
	ExcludePaths     []string      // URL fragments that are never crawled
	TargetKeywords   []string      // Anchor text / URL keywords marking priority links
	ExtractNames     bool          // Derive names near each email
	ExtractJobTitles bool          // Derive job titles near each email
	ExtractPhones    bool          // Collect phone numbers from page text
	RequestDelay     time.Duration // Base politeness delay, jittered 0.5x-1.5x (>= 0.5s)
	Concurrency      int           // Number of concurrent workers (1-20)
	RequestTimeout   time.Duration // Per-request timeout
	FollowRobotsTxt  bool          // Skip URLs disallowed by robots.txt
	UserAgent        string        // User-Agent header for every request
	RetryPolicy      RetryPolicy   // Retries for transient fetch failures (default none)
	RateLimit        float64       // Optional crawl-wide requests per second; 0 disables
	MaxBodyBytes     int64         // Response bodies are truncated to this size
}

// DefaultConfig returns a Config for targetURL with the defaults used by the
// lead finder.
func DefaultConfig(targetURL string) Config {
	return Config{
		TargetURL:        targetURL,
		MaxDepth:         2,
		MaxPages:         100,
		StayWithinDomain: true,
		FollowSubdomains: true,
		ExtractNames:     true,
		ExtractJobTitles: true,
		ExtractPhones:    true,
		RequestDelay:     time.Second,
		Concurrency:      5,
		RequestTimeout:   30 * time.Second,
		FollowRobotsTxt:  true,
		UserAgent:        DefaultUserAgent,
		MaxBodyBytes:     defaultMaxBodyBytes,
	}
}

// ConfigurationError reports an invalid configuration value. It is the only
// error that prevents a crawl from starting.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid crawl configuration: %s %s", e.Field, e.Reason)
}

func configErr(field, format string, a ...any) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, a...)}
}

// Validate checks every field against its allowed range.
func (c Config) Validate() error {
	if c.TargetURL == "" {
		return configErr("TargetURL", "is required")
	}
	parsed, err := url.Parse(c.TargetURL)
	if err != nil {
		return configErr("TargetURL", "cannot be parsed: %v", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return configErr("TargetURL", "must start with http:// or https://")
	}
	if parsed.Host == "" {
		return configErr("TargetURL", "must include a host")
	}

	if c.MaxDepth < minDepth || c.MaxDepth > maxDepth {
		return configErr("MaxDepth", "must be between %d and %d, got %d", minDepth, maxDepth, c.MaxDepth)
	}
	if c.MaxPages < minPages || c.MaxPages > maxPages {
		return configErr("MaxPages", "must be between %d and %d, got %d", minPages, maxPages, c.MaxPages)
	}
	if c.Concurrency < minConcurrency || c.Concurrency > maxConcurrency {
		return configErr("Concurrency", "must be between %d and %d, got %d", minConcurrency, maxConcurrency, c.Concurrency)
	}
	if c.RequestDelay < minDelay {
		return configErr("RequestDelay", "must be at least %s, got %s", minDelay, c.RequestDelay)
	}
	if c.RequestTimeout <= 0 {
		return configErr("RequestTimeout", "must be positive, got %s", c.RequestTimeout)
	}
	if c.RetryPolicy.MaxRetries < 0 || c.RetryPolicy.MaxRetries > maxRetries {
		return configErr("RetryPolicy.MaxRetries", "must be between 0 and %d, got %d", maxRetries, c.RetryPolicy.MaxRetries)
	}
	if c.RateLimit < 0 {
		return configErr("RateLimit", "must not be negative, got %g", c.RateLimit)
	}
	if c.MaxBodyBytes < 0 {
		return configErr("MaxBodyBytes", "must not be negative, got %d", c.MaxBodyBytes)
	}
	return nil
}

// clone returns a deep copy with defaults filled for optional fields.
func (c Config) clone() Config {
	c.PriorityPaths = slices.Clone(c.PriorityPaths)
	c.ExcludePaths = slices.Clone(c.ExcludePaths)
	c.TargetKeywords = slices.Clone(c.TargetKeywords)
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = defaultMaxBodyBytes
	}
	if c.RetryPolicy.MaxRetries > 0 && c.RetryPolicy.BaseDelay <= 0 {
		c.RetryPolicy = DefaultRetryPolicy().withRetries(c.RetryPolicy.MaxRetries)
	}
	return c
}
