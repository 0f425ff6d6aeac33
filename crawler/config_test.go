package crawler

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("https://example.com")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() error: %v", err)
	}
	if cfg.MaxDepth != 2 || cfg.MaxPages != 100 || cfg.Concurrency != 5 {
		t.Errorf("unexpected bounds: depth=%d pages=%d concurrency=%d", cfg.MaxDepth, cfg.MaxPages, cfg.Concurrency)
	}
	if cfg.RequestDelay != time.Second || cfg.RequestTimeout != 30*time.Second {
		t.Errorf("unexpected timing: delay=%s timeout=%s", cfg.RequestDelay, cfg.RequestTimeout)
	}
	if !cfg.StayWithinDomain || !cfg.FollowSubdomains || !cfg.FollowRobotsTxt {
		t.Error("expected domain containment and robots.txt enabled by default")
	}
	if cfg.RetryPolicy.MaxRetries != 0 {
		t.Errorf("expected no retries by default, got %d", cfg.RetryPolicy.MaxRetries)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing target", mutate: func(c *Config) { c.TargetURL = "" }, wantField: "TargetURL"},
		{name: "ftp target", mutate: func(c *Config) { c.TargetURL = "ftp://example.com" }, wantField: "TargetURL"},
		{name: "no host", mutate: func(c *Config) { c.TargetURL = "https://" }, wantField: "TargetURL"},
		{name: "depth zero", mutate: func(c *Config) { c.MaxDepth = 0 }, wantField: "MaxDepth"},
		{name: "depth six", mutate: func(c *Config) { c.MaxDepth = 6 }, wantField: "MaxDepth"},
		{name: "depth five", mutate: func(c *Config) { c.MaxDepth = 5 }},
		{name: "pages zero", mutate: func(c *Config) { c.MaxPages = 0 }, wantField: "MaxPages"},
		{name: "pages over limit", mutate: func(c *Config) { c.MaxPages = 501 }, wantField: "MaxPages"},
		{name: "concurrency zero", mutate: func(c *Config) { c.Concurrency = 0 }, wantField: "Concurrency"},
		{name: "concurrency 21", mutate: func(c *Config) { c.Concurrency = 21 }, wantField: "Concurrency"},
		{name: "delay too short", mutate: func(c *Config) { c.RequestDelay = 499 * time.Millisecond }, wantField: "RequestDelay"},
		{name: "delay minimum", mutate: func(c *Config) { c.RequestDelay = 500 * time.Millisecond }},
		{name: "timeout zero", mutate: func(c *Config) { c.RequestTimeout = 0 }, wantField: "RequestTimeout"},
		{name: "retries negative", mutate: func(c *Config) { c.RetryPolicy.MaxRetries = -1 }, wantField: "RetryPolicy.MaxRetries"},
		{name: "rate negative", mutate: func(c *Config) { c.RateLimit = -1 }, wantField: "RateLimit"},
		{name: "body negative", mutate: func(c *Config) { c.MaxBodyBytes = -1 }, wantField: "MaxBodyBytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig("https://example.com")
			tt.mutate(&cfg)
			err := cfg.Validate()

			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error: %v", err)
				}
				return
			}
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Validate() = %v, want *ConfigurationError", err)
			}
			if cfgErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.wantField)
			}
		})
	}
}

func TestConfigClone(t *testing.T) {
	cfg := DefaultConfig("https://example.com")
	cfg.UserAgent = ""
	cfg.MaxBodyBytes = 0
	cfg.PriorityPaths = []string{"/contact"}
	cfg.RetryPolicy.MaxRetries = 3

	cloned := cfg.clone()
	cfg.PriorityPaths[0] = "/changed"

	if cloned.PriorityPaths[0] != "/contact" {
		t.Error("clone shares PriorityPaths with the original")
	}
	if cloned.UserAgent != DefaultUserAgent {
		t.Errorf("UserAgent = %q, want default", cloned.UserAgent)
	}
	if cloned.MaxBodyBytes != defaultMaxBodyBytes {
		t.Errorf("MaxBodyBytes = %d, want %d", cloned.MaxBodyBytes, defaultMaxBodyBytes)
	}
	if cloned.RetryPolicy.MaxRetries != 3 || cloned.RetryPolicy.BaseDelay != time.Second {
		t.Errorf("RetryPolicy = %+v", cloned.RetryPolicy)
	}
}
