// Package tui provides the Bubble Tea terminal UI for leadcrawl,
// displaying live crawl progress and a styled summary of found contacts.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lukemcguire/leadcrawl/crawler"
	"github.com/lukemcguire/leadcrawl/result"
)

// Model is the Bubble Tea model for the crawl TUI.
type Model struct {
	ctx             context.Context
	cancel          context.CancelFunc
	crawlerInstance *crawler.Crawler
	spinner         spinner.Model
	progressCh      <-chan crawler.CrawlEvent

	visited  int
	emails   int
	phones   int
	failed   int
	current  string
	stopping bool
	quitting bool
	done     bool
	result   *result.CrawlResult
	err      error
	width    int
}

// NewModel creates a TUI model wired to the given crawler and progress channel.
func NewModel(ctx context.Context, cancel context.CancelFunc, crawlerInst *crawler.Crawler, progressCh <-chan crawler.CrawlEvent) Model {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return Model{
		ctx:             ctx,
		cancel:          cancel,
		crawlerInstance: crawlerInst,
		spinner:         spin,
		progressCh:      progressCh,
	}
}

// Init starts the spinner, crawl, and progress listener concurrently.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startCrawl(), waitForProgress(m.progressCh))
}

// startCrawl returns a tea.Cmd that runs the crawler and sends CrawlDoneMsg.
func (m Model) startCrawl() tea.Cmd {
	return func() tea.Msg {
		res, err := m.crawlerInstance.Run(m.ctx)
		if err != nil {
			err = fmt.Errorf("crawl: %w", err)
		}
		return CrawlDoneMsg{Result: res, Err: err}
	}
}

// Update handles messages from the Bubble Tea runtime.
// The first ctrl+c or q stops the crawl and waits for partial results; a
// second one quits immediately.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.stopping || m.crawlerInstance == nil {
				m.quitting = true
				if m.cancel != nil {
					m.cancel()
				}
				return m, tea.Quit
			}
			m.stopping = true
			m.crawlerInstance.Stop()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case CrawlProgressMsg:
		m.visited = msg.Visited
		m.emails = msg.Emails
		m.phones = msg.Phones
		m.current = msg.URL
		if msg.Failed {
			m.failed++
		}
		return m, waitForProgress(m.progressCh)

	case progressDrainedMsg:
		return m, nil

	case CrawlDoneMsg:
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the current TUI state.
func (m Model) View() string {
	if m.done && m.result != nil {
		return RenderSummary(m.result)
	}
	if m.done && m.err != nil {
		return errorStyle.Render("Error: "+m.err.Error()) + "\n"
	}
	status := "Crawling..."
	if m.stopping {
		status = "Stopping, waiting for in-flight pages..."
	}
	return fmt.Sprintf("%s %s visited %d, emails %d, phones %d, failed %d\n%s\n",
		m.spinner.View(), status, m.visited, m.emails, m.phones, m.failed,
		dimStyle.Render("  "+m.current))
}

// Quitting reports whether the user abandoned the crawl before it finished.
func (m Model) Quitting() bool {
	return m.quitting
}

// GetResult returns the crawl result for output formatting.
func (m Model) GetResult() *result.CrawlResult {
	return m.result
}

// Err returns the error the crawl finished with, if any.
func (m Model) Err() error {
	return m.err
}
