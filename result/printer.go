package result

import (
	"fmt"
	"io"
)

// PrintResults writes extracted contacts and a summary to w.
func PrintResults(w io.Writer, res *CrawlResult) {
	writef := func(format string, a ...any) { _, _ = fmt.Fprintf(w, format, a...) }

	if len(res.Emails) == 0 {
		writef("No business emails found.\n")
	} else {
		writef("Emails:\n")
		records := res.SortedEmails()
		for i, rec := range records {
			writef("  Email: %s\n", rec.Email)
			if rec.Name != "" {
				writef("  Name: %s\n", rec.Name)
			}
			if rec.JobTitle != "" {
				writef("  Title: %s\n", rec.JobTitle)
			}
			writef("  Found on: %s\n", rec.SourceURL)
			if i < len(records)-1 {
				writef("\n")
			}
		}
	}

	if len(res.Phones) > 0 {
		writef("Phones:\n")
		for _, phone := range res.Phones {
			writef("  %s\n", phone)
		}
	}

	if res.Stats.Failures > 0 {
		writef("Failures:\n")
		for _, cat := range Categories {
			if n := res.Stats.FailuresByCategory[cat]; n > 0 {
				writef("  %s: %d\n", FormatCategory(cat), n)
			}
		}
	}

	writef("Visited %d pages, found %d emails and %d phone numbers (%s)\n",
		len(res.Visited), len(res.Emails), len(res.Phones), res.Stats.State)
}
