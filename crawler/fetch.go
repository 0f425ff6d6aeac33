package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/lukemcguire/leadcrawl/result"
)

// ErrNotHTML signals that a response was skipped because its content type is
// not text/html.
var ErrNotHTML = errors.New("skip: non-HTML response")

// FetchError reports a failed fetch of a single URL. It is never fatal to
// the crawl.
type FetchError struct {
	URL        string
	StatusCode int                  // HTTP status, 0 if no response arrived
	Category   result.ErrorCategory // Classification for diagnostics
	Attempts   int                  // Attempts made, including retries
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 && e.Err == nil {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Page is a fetched HTML document.
type Page struct {
	URL         string // URL as requested
	FinalURL    string // URL after redirects, used to resolve relative links
	StatusCode  int
	ContentType string
	Body        []byte
}

// Fetcher issues polite, timeout-bounded GET requests for HTML pages.
type Fetcher struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	maxBody   int64
	polite    *Politeness
	retry     RetryPolicy
}

// NewFetcher creates a Fetcher from the crawl configuration. A nil client
// uses a fresh http.Client.
func NewFetcher(client *http.Client, cfg Config, polite *Politeness) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	return &Fetcher{
		client:    client,
		userAgent: cfg.UserAgent,
		timeout:   cfg.RequestTimeout,
		maxBody:   cfg.MaxBodyBytes,
		polite:    polite,
		retry:     cfg.RetryPolicy,
	}
}

// Fetch waits out the politeness delay and retrieves rawURL.
// Cancelling ctx aborts pending delays and retries; a request already on the
// wire is allowed to finish within the request timeout.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	return f.fetchWithRetry(ctx, rawURL, nil)
}

// fetchOnce makes one attempt. issued, when set, runs after the politeness
// wait and immediately before the request is sent.
func (f *Fetcher) fetchOnce(ctx context.Context, rawURL string, issued func()) (page *Page, err error) {
	if f.polite != nil {
		if waitErr := f.polite.Wait(ctx); waitErr != nil {
			return nil, &FetchError{URL: rawURL, Category: result.CategoryUnknown, Attempts: 1, Err: waitErr}
		}
	}

	// In-flight requests outlive crawl cancellation; only the timeout bounds them.
	reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Category: result.CategoryUnknown, Attempts: 1, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	if issued != nil {
		issued()
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{
			URL:      rawURL,
			Category: result.Classify(err, 0),
			Attempts: 1,
			Err:      err,
		}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			page = nil
			err = &FetchError{URL: rawURL, Category: result.CategoryUnknown, Attempts: 1,
				Err: fmt.Errorf("close response body: %w", closeErr)}
		}
	}()

	if resp.StatusCode >= 400 {
		return nil, &FetchError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Category:   result.Classify(nil, resp.StatusCode),
			Attempts:   1,
		}
	}

	contentType := resp.Header.Get("Content-Type")
	if !isHTMLContentType(contentType) {
		return nil, &FetchError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Category:   result.CategoryNonHTML,
			Attempts:   1,
			Err:        fmt.Errorf("%w (%s)", ErrNotHTML, contentType),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		return nil, &FetchError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Category:   result.Classify(err, 0),
			Attempts:   1,
			Err:        fmt.Errorf("read body: %w", err),
		}
	}

	return &Page{
		URL:         rawURL,
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Body:        body,
	}, nil
}

// isHTMLContentType reports whether a Content-Type header denotes text/html.
func isHTMLContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(strings.ToLower(contentType), "text/html")
	}
	return mediaType == "text/html"
}
