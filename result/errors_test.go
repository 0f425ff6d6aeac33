package result

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"syscall"
	"testing"
)

type timeoutErr struct{}

func (timeoutErr) Error() string { return "i/o timeout" }
func (timeoutErr) Timeout() bool { return true }

func TestClassify(t *testing.T) {
	redirectErr := &url.Error{Op: "Get", URL: "https://acme.com/a", Err: errors.New("stopped after 10 redirects")}

	tests := []struct {
		name       string
		err        error
		statusCode int
		want       ErrorCategory
	}{
		{"redirect loop", redirectErr, 0, CategoryRedirectLoop},
		{"404", nil, 404, Category4xx},
		{"429 is a client error", nil, 429, Category4xx},
		{"503", nil, 503, Category5xx},
		{"3xx status is unknown", nil, 301, CategoryUnknown},
		{"no error no status", nil, 0, CategoryUnknown},
		{"deadline", context.DeadlineExceeded, 0, CategoryTimeout},
		{"wrapped deadline", fmt.Errorf("get: %w", context.DeadlineExceeded), 0, CategoryTimeout},
		{"net timeout", &url.Error{Op: "Get", URL: "https://acme.com", Err: timeoutErr{}}, 0, CategoryTimeout},
		{"dns", &net.DNSError{Err: "no such host", Name: "nope.invalid", IsNotFound: true}, 0, CategoryDNSFailure},
		{
			"connection refused",
			&net.OpError{Op: "dial", Net: "tcp", Err: &net.AddrError{Err: "connect: connection refused"}},
			0,
			CategoryConnectionRefused,
		},
		{"refused errno", &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}, 0, CategoryConnectionRefused},
		{"other", errors.New("tls: handshake failure"), 0, CategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err, tt.statusCode); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsRedirectLoop(t *testing.T) {
	if IsRedirectLoop(nil) {
		t.Error("nil error is not a redirect loop")
	}
	if !IsRedirectLoop(errors.New(`Get "https://acme.com": stopped after 10 redirects`)) {
		t.Error("redirect ceiling error not detected")
	}
}

func TestFormatCategory(t *testing.T) {
	for _, cat := range Categories {
		if cat == CategoryUnknown {
			continue
		}
		if got := FormatCategory(cat); got == "Other Errors" || got == "" {
			t.Errorf("FormatCategory(%v) has no label", cat)
		}
	}

	tests := []struct {
		cat  ErrorCategory
		want string
	}{
		{Category4xx, "Client Errors (4xx)"},
		{CategoryRobots, "Blocked by robots.txt"},
		{CategoryNonHTML, "Non-HTML Responses"},
		{CategoryUnknown, "Other Errors"},
		{ErrorCategory("made_up"), "Other Errors"},
	}
	for _, tt := range tests {
		if got := FormatCategory(tt.cat); got != tt.want {
			t.Errorf("FormatCategory(%v) = %q, want %q", tt.cat, got, tt.want)
		}
	}
}
