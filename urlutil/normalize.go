package urlutil

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrNotCrawlable is returned for URLs that parse but can never be fetched,
// such as mailto:, tel: or javascript: links.
var ErrNotCrawlable = errors.New("not a crawlable URL")

// Normalize takes a raw URL string and returns its canonical form.
// Normalization includes:
// - Lowercasing the scheme and host
// - Stripping fragments (#section)
// - Stripping trailing slashes, including the root path, so that
//   "https://example.com/" and "https://example.com" compare equal
// - Preserving query parameters
//
// Returns an error if the input is empty, cannot be parsed, has no host,
// or uses a scheme other than http or https.
func Normalize(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", errors.New("cannot normalize empty URL")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("normalize URL %q: %w", rawURL, err)
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("normalize URL %q: %w", rawURL, ErrNotCrawlable)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("normalize URL %q: missing host", rawURL)
	}

	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Fragment = ""
	parsed.RawFragment = ""
	parsed.Path = strings.TrimRight(parsed.Path, "/")
	parsed.RawPath = strings.TrimRight(parsed.RawPath, "/")

	return parsed.String(), nil
}

// NormalizeReference resolves ref against base and normalizes the result.
func NormalizeReference(base, ref string) (string, error) {
	resolved, err := ResolveReference(base, ref)
	if err != nil {
		return "", err
	}
	return Normalize(resolved)
}
