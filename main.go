// Package main provides the leadcrawl CLI entrypoint.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/lukemcguire/leadcrawl/contacts"
	"github.com/lukemcguire/leadcrawl/crawler"
	"github.com/lukemcguire/leadcrawl/result"
	"github.com/lukemcguire/leadcrawl/tui"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitConfigError = 2
)

// options is everything parsed from the command line and environment.
type options struct {
	cfg         crawler.Config
	jsonOutput  bool
	noTUI       bool
	dbPath      string
	company     string
	logLevel    string
	logFile     string
	showMetrics bool
}

func main() {
	_ = godotenv.Load()
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitConfigError
	}

	interactive := !opts.noTUI && !opts.jsonOutput
	logger, closeLog, err := setupLogging(opts, interactive, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitConfigError
	}
	defer closeLog()

	reg := prometheus.NewRegistry()
	metrics, err := crawler.NewMetrics(reg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}

	progressCh := make(chan crawler.CrawlEvent, 100)
	c, err := crawler.New(opts.cfg, progressCh,
		crawler.WithLogger(logger),
		crawler.WithMetrics(metrics),
	)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitConfigError
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var res *result.CrawlResult
	if interactive {
		res, err = runTUI(ctx, c, progressCh)
	} else {
		res, err = runHeadless(ctx, c, progressCh, logger)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	if res == nil {
		return exitOK
	}

	switch {
	case opts.jsonOutput:
		if err := result.WriteJSON(stdout, res); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitFailure
		}
	case !interactive:
		result.PrintResults(stdout, res)
	}

	if opts.showMetrics {
		logMetrics(logger, reg)
	}

	if opts.dbPath != "" {
		if err := saveContacts(context.Background(), opts, res, logger); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitFailure
		}
	}
	return exitOK
}

func parseArgs(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("leadcrawl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: leadcrawl [flags] <url>")
		fmt.Fprintln(stderr, "Flags:")
		fs.PrintDefaults()
	}

	defaults := crawler.DefaultConfig("")
	var (
		opts           options
		priorityPaths  string
		excludePaths   string
		keywords       string
		noNames        bool
		noTitles       bool
		noPhones       bool
		ignoreRobots   bool
		allowOffsite   bool
		noSubdomains   bool
		retryBaseDelay time.Duration
	)

	depth := fs.Int("depth", defaults.MaxDepth, "maximum link depth from the target URL (1-5)")
	pages := fs.Int("pages", defaults.MaxPages, "maximum number of pages to fetch (1-500)")
	concurrency := fs.Int("concurrency", defaults.Concurrency, "number of concurrent workers (1-20)")
	delay := fs.Duration("delay", defaults.RequestDelay, "base delay before each request, jittered 0.5x-1.5x")
	timeout := fs.Duration("timeout", defaults.RequestTimeout, "per-request timeout")
	retries := fs.Int("retries", 0, "retries for transient fetch errors (0-5)")
	rateLimit := fs.Float64("rate-limit", 0, "crawl-wide requests per second (0 disables)")
	userAgent := fs.String("user-agent", envOr("LEADCRAWL_USER_AGENT", defaults.UserAgent), "user agent string")
	fs.BoolVar(&allowOffsite, "allow-offsite", false, "follow links to other sites")
	fs.BoolVar(&noSubdomains, "no-subdomains", false, "treat subdomains of the target as other sites")
	fs.StringVar(&priorityPaths, "priority-paths", "", "comma-separated paths crawled first, e.g. /contact,/about")
	fs.StringVar(&excludePaths, "exclude", "", "comma-separated URL fragments to skip")
	fs.StringVar(&keywords, "keywords", "", "comma-separated link keywords that mark priority pages")
	fs.BoolVar(&noNames, "no-names", false, "do not derive names near emails")
	fs.BoolVar(&noTitles, "no-titles", false, "do not derive job titles near emails")
	fs.BoolVar(&noPhones, "no-phones", false, "do not collect phone numbers")
	fs.BoolVar(&ignoreRobots, "ignore-robots", false, "do not consult robots.txt")
	fs.DurationVar(&retryBaseDelay, "retry-delay", time.Second, "base delay between retries")
	fs.BoolVar(&opts.jsonOutput, "json", false, "write the result as JSON to stdout")
	fs.BoolVar(&opts.noTUI, "no-tui", false, "print plain progress logs instead of the interactive view")
	fs.StringVar(&opts.dbPath, "db", os.Getenv("LEADCRAWL_DB"), "SQLite database to save contacts into")
	fs.StringVar(&opts.company, "company", "", "company name attached to saved contacts")
	fs.StringVar(&opts.logLevel, "log-level", envOr("LEADCRAWL_LOG_LEVEL", "warn"), "log level (debug, info, warn, error)")
	fs.StringVar(&opts.logFile, "log-file", "", "write logs to this file")
	fs.BoolVar(&opts.showMetrics, "metrics", false, "log crawl counters when finished")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return options{}, errors.New("missing target URL")
	}

	rawURL := fs.Arg(0)
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return options{}, fmt.Errorf("invalid URL %q: must start with http:// or https://", rawURL)
	}

	cfg := crawler.DefaultConfig(rawURL)
	cfg.MaxDepth = *depth
	cfg.MaxPages = *pages
	cfg.Concurrency = *concurrency
	cfg.RequestDelay = *delay
	cfg.RequestTimeout = *timeout
	cfg.RateLimit = *rateLimit
	cfg.UserAgent = *userAgent
	cfg.StayWithinDomain = !allowOffsite
	cfg.FollowSubdomains = !noSubdomains
	cfg.PriorityPaths = splitList(priorityPaths)
	cfg.ExcludePaths = splitList(excludePaths)
	cfg.TargetKeywords = splitList(keywords)
	cfg.ExtractNames = !noNames
	cfg.ExtractJobTitles = !noTitles
	cfg.ExtractPhones = !noPhones
	cfg.FollowRobotsTxt = !ignoreRobots
	if *retries > 0 {
		cfg.RetryPolicy = crawler.DefaultRetryPolicy()
		cfg.RetryPolicy.MaxRetries = *retries
		cfg.RetryPolicy.BaseDelay = retryBaseDelay
	}

	if err := cfg.Validate(); err != nil {
		return options{}, err
	}
	opts.cfg = cfg
	return opts, nil
}

// setupLogging builds the logger. The interactive view owns the terminal, so
// logs only go to a file there.
func setupLogging(opts options, interactive bool, stderr io.Writer) (zerolog.Logger, func(), error) {
	level, err := zerolog.ParseLevel(opts.logLevel)
	if err != nil {
		level = zerolog.WarnLevel
	}

	if opts.logFile != "" {
		f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), func() {}, fmt.Errorf("open log file: %w", err)
		}
		logger := zerolog.New(f).Level(level).With().Timestamp().Logger()
		return logger, func() { f.Close() }, nil
	}
	if interactive {
		return zerolog.Nop(), func() {}, nil
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().
		Timestamp().
		Logger()
	return logger, func() {}, nil
}

func runTUI(ctx context.Context, c *crawler.Crawler, progressCh <-chan crawler.CrawlEvent) (*result.CrawlResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(tui.NewModel(ctx, cancel, c, progressCh))
	finalModel, err := program.Run()
	if err != nil {
		return nil, err
	}

	m := finalModel.(tui.Model)
	if m.Err() != nil {
		return nil, m.Err()
	}
	// The final frame already shows the summary.
	return m.GetResult(), nil
}

func runHeadless(ctx context.Context, c *crawler.Crawler, progressCh <-chan crawler.CrawlEvent, logger zerolog.Logger) (*result.CrawlResult, error) {
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for evt := range progressCh {
			e := logger.Info()
			if evt.Error != "" {
				e = logger.Warn().Str("error", evt.Error)
			}
			e.Str("url", evt.URL).
				Int("visited", evt.Visited).
				Int("emails", evt.Emails).
				Int("phones", evt.Phones).
				Msg("Page processed")
		}
	}()

	res, err := c.Run(ctx)
	<-drained
	if err != nil {
		return nil, fmt.Errorf("crawl: %w", err)
	}
	return res, nil
}

func saveContacts(ctx context.Context, opts options, res *result.CrawlResult, logger zerolog.Logger) error {
	store, err := contacts.OpenSQLite(ctx, opts.dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	company := contacts.Company{Name: opts.company}
	if company.Name != "" {
		company.ID = uuid.NewString()
	}

	ids, err := contacts.Materialize(ctx, store, res, company, contacts.Options{Logger: logger})
	if err != nil {
		return fmt.Errorf("save contacts: %w", err)
	}
	logger.Info().Int("contacts", len(ids)).Str("db", opts.dbPath).Msg("Saved contacts")
	return nil
}

func logMetrics(logger zerolog.Logger, reg *prometheus.Registry) {
	families, err := reg.Gather()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to gather metrics")
		return
	}
	for _, mf := range families {
		var total float64
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		logger.Info().Str("metric", mf.GetName()).Float64("value", total).Msg("Crawl metric")
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
