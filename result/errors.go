package result

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"
)

// ErrorCategory classifies why a page contributed nothing to the result.
type ErrorCategory string

const (
	CategoryTimeout           ErrorCategory = "timeout"
	CategoryDNSFailure        ErrorCategory = "dns_failure"
	CategoryConnectionRefused ErrorCategory = "connection_refused"
	Category4xx               ErrorCategory = "4xx"
	Category5xx               ErrorCategory = "5xx"
	CategoryRedirectLoop      ErrorCategory = "redirect_loop"
	CategoryNonHTML           ErrorCategory = "non_html"
	CategoryRobots            ErrorCategory = "robots_disallowed"
	CategoryParse             ErrorCategory = "parse"
	CategoryUnknown           ErrorCategory = "unknown"
)

// Categories lists every category, most actionable first.
var Categories = []ErrorCategory{
	Category4xx,
	Category5xx,
	CategoryTimeout,
	CategoryDNSFailure,
	CategoryConnectionRefused,
	CategoryRedirectLoop,
	CategoryRobots,
	CategoryNonHTML,
	CategoryParse,
	CategoryUnknown,
}

var categoryLabels = map[ErrorCategory]string{
	CategoryTimeout:           "Timeouts",
	CategoryDNSFailure:        "DNS Failures",
	CategoryConnectionRefused: "Connection Refused",
	Category4xx:               "Client Errors (4xx)",
	Category5xx:               "Server Errors (5xx)",
	CategoryRedirectLoop:      "Redirect Loops",
	CategoryNonHTML:           "Non-HTML Responses",
	CategoryRobots:            "Blocked by robots.txt",
	CategoryParse:             "Unparseable Pages",
}

// Classify maps a failed fetch to a category. statusCode is 0 when no
// response arrived; an HTTP status takes precedence over a transport error
// unless the client gave up following redirects.
func Classify(err error, statusCode int) ErrorCategory {
	switch {
	case IsRedirectLoop(err):
		return CategoryRedirectLoop
	case statusCode >= 500:
		return Category5xx
	case statusCode >= 400:
		return Category4xx
	case err == nil:
		return CategoryUnknown
	case isTimeout(err):
		return CategoryTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return CategoryDNSFailure
	}
	if errors.Is(err, syscall.ECONNREFUSED) || strings.Contains(err.Error(), "connection refused") {
		return CategoryConnectionRefused
	}
	return CategoryUnknown
}

// IsRedirectLoop reports whether err is net/http's redirect ceiling error.
func IsRedirectLoop(err error) bool {
	return err != nil && strings.Contains(err.Error(), "stopped after 10 redirects")
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// FormatCategory returns a human-readable label for an error category.
func FormatCategory(cat ErrorCategory) string {
	if label, ok := categoryLabels[cat]; ok {
		return label
	}
	return "Other Errors"
}
