package urlutil

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// RegistrableDomain returns the public-suffix-aware registrable domain of host
// (eTLD+1), e.g. "shop.example.co.uk" -> "example.co.uk".
// Hosts without a registrable part (IP addresses, "localhost", bare suffixes)
// are returned lowercased as-is.
func RegistrableDomain(host string) string {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "" || net.ParseIP(host) != nil {
		return host
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}

// Hostname extracts the lowercased hostname (without port) from a URL string.
// It returns "" when the URL cannot be parsed.
func Hostname(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}

// IsSameSite checks if targetURL belongs to the site rooted at seedHost.
//
// With followSubdomains the registrable domains must match, so
// blog.example.com is part of www.example.com's site. Without it the hosts
// must match exactly, ignoring a leading "www.".
func IsSameSite(targetURL string, seedHost string, followSubdomains bool) bool {
	host := Hostname(targetURL)
	if host == "" {
		return false
	}
	seedHost = strings.ToLower(seedHost)

	if followSubdomains {
		return RegistrableDomain(host) == RegistrableDomain(seedHost)
	}
	return strings.TrimPrefix(host, "www.") == strings.TrimPrefix(seedHost, "www.")
}

// IsExcluded reports whether rawURL contains any of the given fragments.
// Empty fragments never match.
func IsExcluded(rawURL string, fragments []string) bool {
	for _, fragment := range fragments {
		if fragment != "" && strings.Contains(rawURL, fragment) {
			return true
		}
	}
	return false
}

// ResolveReference resolves a possibly-relative ref URL against a base URL.
// If ref is absolute, it is returned as-is. Otherwise it is resolved
// relative to base using net/url.URL.ResolveReference.
func ResolveReference(base string, ref string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base URL %q: %w", base, err)
	}

	refURL, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", fmt.Errorf("parse ref URL %q: %w", ref, err)
	}

	resolved := baseURL.ResolveReference(refURL)
	return resolved.String(), nil
}
