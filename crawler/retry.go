package crawler

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

// RetryPolicy configures retry behavior for failed page fetches.
type RetryPolicy struct {
	MaxRetries int           // Maximum number of retries (0 = single attempt)
	BaseDelay  time.Duration // Initial backoff delay
	MaxDelay   time.Duration // Maximum backoff cap
}

// DefaultRetryPolicy returns the backoff used when retries are enabled:
// 2 retries (3 attempts), 1s base delay, 30s max delay.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 2,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
	}
}

func (p RetryPolicy) withRetries(n int) RetryPolicy {
	p.MaxRetries = n
	return p
}

// fetchWithRetry retries transient failures with exponential backoff. The
// backoff doubles after each attempt up to MaxDelay and is abandoned as soon
// as ctx is done.
func (f *Fetcher) fetchWithRetry(ctx context.Context, rawURL string, issued func()) (*Page, error) {
	delay := f.retry.BaseDelay
	maxAttempts := f.retry.MaxRetries + 1

	attempt := 1
	page, err := f.fetchOnce(ctx, rawURL, issued)
	for err != nil && attempt < maxAttempts && shouldRetry(err) {
		if sleepContext(ctx, delay) != nil {
			break
		}
		delay = min(delay*2, f.retry.MaxDelay)
		attempt++
		page, err = f.fetchOnce(ctx, rawURL, issued)
	}
	if err == nil {
		return page, nil
	}

	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		fetchErr.Attempts = attempt
	}
	return nil, err
}

// shouldRetry reports whether a failed fetch is worth another attempt. Rate
// limiting and 5xx responses are retried, as are transport timeouts and
// network errors. Everything else is final.
func shouldRetry(err error) bool {
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		return false
	}

	switch code := fetchErr.StatusCode; {
	case code == http.StatusTooManyRequests, code >= 500:
		return true
	case code >= 400, errors.Is(fetchErr, ErrNotHTML):
		return false
	}
	return isTransient(fetchErr.Err)
}

func isTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var opErr *net.OpError
	var dnsErr *net.DNSError
	return errors.As(err, &opErr) || errors.As(err, &dnsErr)
}
