package urlutil

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{
			name:     "fragment stripping",
			input:    "https://example.com/page#section",
			expected: "https://example.com/page",
			wantErr:  false,
		},
		{
			name:     "trailing slash stripping",
			input:    "https://example.com/about/",
			expected: "https://example.com/about",
			wantErr:  false,
		},
		{
			name:     "root path collapses",
			input:    "https://example.com/",
			expected: "https://example.com",
			wantErr:  false,
		},
		{
			name:     "repeated trailing slashes",
			input:    "https://example.com/team//",
			expected: "https://example.com/team",
			wantErr:  false,
		},
		{
			name:     "fragment on root",
			input:    "https://example.com/#top",
			expected: "https://example.com",
			wantErr:  false,
		},
		{
			name:     "query params preserved",
			input:    "https://example.com/search?q=foo",
			expected: "https://example.com/search?q=foo",
			wantErr:  false,
		},
		{
			name:     "scheme lowercased",
			input:    "HTTPS://Example.Com/Page",
			expected: "https://example.com/Page",
			wantErr:  false,
		},
		{
			name:     "already normalized URL passes through",
			input:    "https://example.com/path",
			expected: "https://example.com/path",
			wantErr:  false,
		},
		{
			name:     "empty string returns error",
			input:    "",
			expected: "",
			wantErr:  true,
		},
		{
			name:     "invalid URL returns error",
			input:    "://invalid",
			expected: "",
			wantErr:  true,
		},
		{
			name:     "mailto is not crawlable",
			input:    "mailto:sales@example.com",
			expected: "",
			wantErr:  true,
		},
		{
			name:     "tel is not crawlable",
			input:    "tel:+15551234567",
			expected: "",
			wantErr:  true,
		},
		{
			name:     "javascript is not crawlable",
			input:    "javascript:void(0)",
			expected: "",
			wantErr:  true,
		},
		{
			name:     "relative path has no host",
			input:    "/contact",
			expected: "",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("Normalize() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.expected {
				t.Errorf("Normalize() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestNormalize_NotCrawlableSentinel(t *testing.T) {
	_, err := Normalize("mailto:jane@example.com")
	if !errors.Is(err, ErrNotCrawlable) {
		t.Errorf("Normalize(mailto) error = %v, want ErrNotCrawlable", err)
	}
}

func TestNormalizeReference(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		ref      string
		expected string
		wantErr  bool
	}{
		{"relative page", "https://example.com/about/", "team/", "https://example.com/about/team", false},
		{"root relative with fragment", "https://example.com/a/b", "/contact#form", "https://example.com/contact", false},
		{"absolute other host", "https://example.com", "HTTPS://Other.COM/x", "https://other.com/x", false},
		{"mailto rejected", "https://example.com", "mailto:a@example.com", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeReference(tt.base, tt.ref)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeReference() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("NormalizeReference(%q, %q) = %q, want %q", tt.base, tt.ref, got, tt.expected)
			}
		})
	}
}
