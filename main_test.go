package main

import (
	"bytes"
	"errors"
	"flag"
	"slices"
	"testing"
	"time"

	"github.com/lukemcguire/leadcrawl/crawler"
)

func TestParseArgs_Defaults(t *testing.T) {
	t.Setenv("LEADCRAWL_USER_AGENT", "")
	t.Setenv("LEADCRAWL_DB", "")
	t.Setenv("LEADCRAWL_LOG_LEVEL", "")

	opts, err := parseArgs([]string{"https://acme.com"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}

	want := crawler.DefaultConfig("https://acme.com")
	cfg := opts.cfg
	if cfg.MaxDepth != want.MaxDepth || cfg.MaxPages != want.MaxPages || cfg.Concurrency != want.Concurrency {
		t.Errorf("limits = %d/%d/%d, want %d/%d/%d",
			cfg.MaxDepth, cfg.MaxPages, cfg.Concurrency, want.MaxDepth, want.MaxPages, want.Concurrency)
	}
	if !cfg.StayWithinDomain || !cfg.FollowSubdomains || !cfg.FollowRobotsTxt {
		t.Error("scope and robots defaults should be enabled")
	}
	if cfg.RetryPolicy.MaxRetries != 0 {
		t.Errorf("MaxRetries = %d, want 0", cfg.RetryPolicy.MaxRetries)
	}
	if cfg.UserAgent != crawler.DefaultUserAgent {
		t.Errorf("UserAgent = %q", cfg.UserAgent)
	}
	if opts.logLevel != "warn" || opts.dbPath != "" {
		t.Errorf("logLevel = %q, dbPath = %q", opts.logLevel, opts.dbPath)
	}
}

func TestParseArgs_Flags(t *testing.T) {
	args := []string{
		"-depth", "3",
		"-pages", "50",
		"-concurrency", "4",
		"-delay", "2s",
		"-retries", "2",
		"-priority-paths", "/contact, /about,",
		"-exclude", "/blog",
		"-keywords", "team,careers",
		"-no-phones",
		"-ignore-robots",
		"-no-subdomains",
		"-json",
		"-db", "leads.db",
		"-company", "Acme",
		"https://acme.com/",
	}
	opts, err := parseArgs(args, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}

	cfg := opts.cfg
	if cfg.MaxDepth != 3 || cfg.MaxPages != 50 || cfg.Concurrency != 4 {
		t.Errorf("limits = %d/%d/%d", cfg.MaxDepth, cfg.MaxPages, cfg.Concurrency)
	}
	if cfg.RequestDelay != 2*time.Second {
		t.Errorf("RequestDelay = %s", cfg.RequestDelay)
	}
	if cfg.RetryPolicy.MaxRetries != 2 || cfg.RetryPolicy.BaseDelay != time.Second {
		t.Errorf("RetryPolicy = %+v", cfg.RetryPolicy)
	}
	if !slices.Equal(cfg.PriorityPaths, []string{"/contact", "/about"}) {
		t.Errorf("PriorityPaths = %v", cfg.PriorityPaths)
	}
	if !slices.Equal(cfg.ExcludePaths, []string{"/blog"}) {
		t.Errorf("ExcludePaths = %v", cfg.ExcludePaths)
	}
	if !slices.Equal(cfg.TargetKeywords, []string{"team", "careers"}) {
		t.Errorf("TargetKeywords = %v", cfg.TargetKeywords)
	}
	if cfg.ExtractPhones || cfg.FollowRobotsTxt || cfg.FollowSubdomains {
		t.Error("disabled toggles should be false")
	}
	if !cfg.ExtractNames || !cfg.ExtractJobTitles {
		t.Error("name and title extraction should stay enabled")
	}
	if !opts.jsonOutput || opts.dbPath != "leads.db" || opts.company != "Acme" {
		t.Errorf("opts = %+v", opts)
	}
}

func TestParseArgs_EnvFallbacks(t *testing.T) {
	t.Setenv("LEADCRAWL_USER_AGENT", "AcmeBot/2.0")
	t.Setenv("LEADCRAWL_DB", "/tmp/leads.db")
	t.Setenv("LEADCRAWL_LOG_LEVEL", "debug")

	opts, err := parseArgs([]string{"https://acme.com"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if opts.cfg.UserAgent != "AcmeBot/2.0" {
		t.Errorf("UserAgent = %q", opts.cfg.UserAgent)
	}
	if opts.dbPath != "/tmp/leads.db" || opts.logLevel != "debug" {
		t.Errorf("dbPath = %q, logLevel = %q", opts.dbPath, opts.logLevel)
	}
}

func TestParseArgs_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing url", nil},
		{"bad scheme", []string{"ftp://acme.com"}},
		{"depth out of range", []string{"-depth", "9", "https://acme.com"}},
		{"delay too short", []string{"-delay", "100ms", "https://acme.com"}},
		{"too many retries", []string{"-retries", "8", "https://acme.com"}},
		{"unknown flag", []string{"-bogus", "https://acme.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseArgs(tt.args, &bytes.Buffer{}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRun_ExitCodes(t *testing.T) {
	var stdout, stderr bytes.Buffer

	if code := run([]string{"-depth", "0", "https://acme.com"}, &stdout, &stderr); code != exitConfigError {
		t.Errorf("invalid config exit code = %d, want %d", code, exitConfigError)
	}
	if code := run([]string{"-h"}, &stdout, &stderr); code != exitOK {
		t.Errorf("help exit code = %d, want %d", code, exitOK)
	}
}

func TestParseArgs_Help(t *testing.T) {
	var stderr bytes.Buffer
	_, err := parseArgs([]string{"-h"}, &stderr)
	if !errors.Is(err, flag.ErrHelp) {
		t.Errorf("err = %v, want flag.ErrHelp", err)
	}
	if !bytes.Contains(stderr.Bytes(), []byte("Usage: leadcrawl")) {
		t.Errorf("usage not printed: %q", stderr.String())
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{" a , b ,, c ", []string{"a", "b", "c"}},
		{",,", nil},
	}
	for _, tt := range tests {
		if got := splitList(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("splitList(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
