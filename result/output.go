package result

import (
	"encoding/json"
	"fmt"
	"io"
)

// WriteJSON writes the crawl result as formatted JSON to the writer.
// Emails are keyed by address; phones and visited URLs are sorted arrays.
func WriteJSON(w io.Writer, res *CrawlResult) error {
	if res == nil {
		res = &CrawlResult{}
	}
	out := *res
	if out.Emails == nil {
		out.Emails = map[string]EmailRecord{}
	}
	if out.Phones == nil {
		out.Phones = []string{}
	}
	if out.Visited == nil {
		out.Visited = []string{}
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("write json output: %w", err)
	}
	return nil
}
