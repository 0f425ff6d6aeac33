package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lukemcguire/leadcrawl/crawler"
	"github.com/lukemcguire/leadcrawl/result"
)

// CrawlProgressMsg reports progress for a single processed URL.
type CrawlProgressMsg struct {
	Visited int
	Emails  int
	Phones  int
	URL     string
	Failed  bool
}

// CrawlDoneMsg signals the crawl has finished, completed or stopped.
type CrawlDoneMsg struct {
	Result *result.CrawlResult
	Err    error
}

// progressDrainedMsg is sent when the progress channel closes. The result
// itself arrives separately from startCrawl.
type progressDrainedMsg struct{}

// waitForProgress returns a tea.Cmd that reads one event from the progress
// channel.
func waitForProgress(ch <-chan crawler.CrawlEvent) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-ch
		if !ok {
			return progressDrainedMsg{}
		}
		return CrawlProgressMsg{
			Visited: evt.Visited,
			Emails:  evt.Emails,
			Phones:  evt.Phones,
			URL:     evt.URL,
			Failed:  evt.Error != "",
		}
	}
}
