package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/lukemcguire/leadcrawl/result"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	warnStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	categoryStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	dimStyle      = lipgloss.NewStyle().Faint(true)
	cellStyle     = lipgloss.NewStyle()
	emailStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// RenderSummary produces a Lip Gloss styled summary of crawl results.
func RenderSummary(res *result.CrawlResult) string {
	if res == nil {
		return errorStyle.Render("No results available.")
	}

	var builder strings.Builder

	if res.Stats.State == result.StateStopped {
		builder.WriteString(warnStyle.Render("Crawl stopped early; showing partial results."))
		builder.WriteString("\n\n")
	}

	if len(res.Emails) == 0 {
		builder.WriteString(warnStyle.Render("No business emails found."))
		builder.WriteString("\n")
	} else {
		builder.WriteString(categoryStyle.Render(fmt.Sprintf("## Emails (%d)", len(res.Emails))))
		builder.WriteString("\n")

		records := res.SortedEmails()
		rows := make([][]string, 0, len(records))
		for _, rec := range records {
			rows = append(rows, []string{rec.Email, rec.Name, rec.JobTitle, rec.SourceURL})
		}
		emailTable := table.New().
			Border(lipgloss.RoundedBorder()).
			Headers("Email", "Name", "Title", "Found On").
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				if col == 0 {
					return emailStyle
				}
				return cellStyle
			}).
			Rows(rows...)
		builder.WriteString(emailTable.Render())
		builder.WriteString("\n")
	}

	if len(res.Phones) > 0 {
		builder.WriteString("\n")
		builder.WriteString(categoryStyle.Render(fmt.Sprintf("## Phones (%d)", len(res.Phones))))
		builder.WriteString("\n")
		for _, phone := range res.Phones {
			builder.WriteString("  " + phone + "\n")
		}
	}

	if res.Stats.Failures > 0 {
		builder.WriteString("\n")
		builder.WriteString(dimStyle.Render(fmt.Sprintf("%d pages could not be processed:", res.Stats.Failures)))
		builder.WriteString("\n")
		for _, cat := range result.Categories {
			if n := res.Stats.FailuresByCategory[cat]; n > 0 {
				builder.WriteString(dimStyle.Render(fmt.Sprintf("  %s: %d", result.FormatCategory(cat), n)))
				builder.WriteString("\n")
			}
		}
	}

	builder.WriteString("\n")
	builder.WriteString(titleStyle.Render(fmt.Sprintf(
		"Visited %d pages, found %d emails and %d phone numbers (%s)",
		len(res.Visited),
		len(res.Emails),
		len(res.Phones),
		res.Stats.Duration.Round(1_000_000), // round to ms
	)))
	builder.WriteString("\n")

	return builder.String()
}
