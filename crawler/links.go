package crawler

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/lukemcguire/leadcrawl/urlutil"
)

// skippedSchemes are href prefixes that never lead to a crawlable page.
var skippedSchemes = []string{"javascript:", "mailto:", "tel:"}

// Link is an anchor found on a page, resolved to an absolute URL.
type Link struct {
	URL      string
	Priority bool
}

// LinkDiscoverer feeds links found on a page back into the Frontier.
type LinkDiscoverer struct {
	frontier  *Frontier
	keywords  []string
	robots    *RobotsChecker // nil when robots.txt is ignored
	userAgent string
}

// NewLinkDiscoverer creates a discoverer that offers links to frontier.
// A nil robots checker disables robots.txt filtering.
func NewLinkDiscoverer(frontier *Frontier, cfg Config, robots *RobotsChecker) *LinkDiscoverer {
	keywords := make([]string, 0, len(cfg.TargetKeywords))
	for _, kw := range cfg.TargetKeywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return &LinkDiscoverer{
		frontier:  frontier,
		keywords:  keywords,
		robots:    robots,
		userAgent: cfg.UserAgent,
	}
}

// ExtractLinks returns the http(s) anchors of a page in document order,
// resolved against baseURL, normalized, and classified priority or regular
// by the target keywords.
func (d *LinkDiscoverer) ExtractLinks(doc *goquery.Document, baseURL string) []Link {
	var links []Link
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" || hasSkippedScheme(href) {
			return
		}

		resolved, err := urlutil.NormalizeReference(baseURL, href)
		if err != nil {
			return
		}

		links = append(links, Link{
			URL:      resolved,
			Priority: d.isPriority(s.Text(), resolved),
		})
	})
	return links
}

// Discover offers every link on the page at depth, priority links first.
// It returns how many links of each class the Frontier accepted.
func (d *LinkDiscoverer) Discover(ctx context.Context, doc *goquery.Document, baseURL string, depth int) (priority, regular int) {
	links := d.ExtractLinks(doc, baseURL)

	for _, wantPriority := range []bool{true, false} {
		for _, link := range links {
			if link.Priority != wantPriority || !d.allowed(ctx, link.URL) {
				continue
			}
			if !d.frontier.Offer(link.URL, depth, link.Priority) {
				continue
			}
			if link.Priority {
				priority++
			} else {
				regular++
			}
		}
	}
	return priority, regular
}

func (d *LinkDiscoverer) isPriority(anchorText, resolvedURL string) bool {
	text := strings.ToLower(anchorText)
	target := strings.ToLower(resolvedURL)
	for _, kw := range d.keywords {
		if strings.Contains(text, kw) || strings.Contains(target, kw) {
			return true
		}
	}
	return false
}

// allowed consults robots.txt for in-scope links; out-of-scope links are
// left for the Frontier to reject without a robots.txt lookup. Lookup errors
// fail open.
func (d *LinkDiscoverer) allowed(ctx context.Context, rawURL string) bool {
	if d.robots == nil || !d.frontier.InScope(rawURL) {
		return true
	}
	ok, _ := d.robots.Allowed(ctx, rawURL, d.userAgent)
	return ok
}

func hasSkippedScheme(href string) bool {
	lower := strings.ToLower(href)
	for _, scheme := range skippedSchemes {
		if strings.HasPrefix(lower, scheme) {
			return true
		}
	}
	return false
}
