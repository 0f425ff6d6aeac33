package crawler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestPoliteness_DelayJitterRange(t *testing.T) {
	tests := []struct {
		name string
		base time.Duration
	}{
		{name: "default delay", base: time.Second},
		{name: "minimum delay", base: 500 * time.Millisecond},
		{name: "long delay", base: 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPoliteness(tt.base, 0)
			lo := tt.base / 2
			hi := tt.base * 3 / 2
			for range 200 {
				d := p.Delay()
				if d < lo || d >= hi {
					t.Fatalf("Delay() = %s, want in [%s, %s)", d, lo, hi)
				}
			}
		})
	}
}

func TestPoliteness_ZeroBase(t *testing.T) {
	p := NewPoliteness(0, 0)
	if d := p.Delay(); d != 0 {
		t.Errorf("Delay() = %s, want 0", d)
	}
	if err := p.Wait(context.Background()); err != nil {
		t.Errorf("Wait() error: %v", err)
	}
}

func TestPoliteness_WaitUsesJitteredDelay(t *testing.T) {
	p := NewPoliteness(time.Second, 0)
	var (
		mu    sync.Mutex
		slept []time.Duration
	)
	p.sleep = func(_ context.Context, d time.Duration) error {
		mu.Lock()
		slept = append(slept, d)
		mu.Unlock()
		return nil
	}

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.Wait(context.Background()); err != nil {
				t.Errorf("Wait() error: %v", err)
			}
		}()
	}
	wg.Wait()

	if len(slept) != 10 {
		t.Fatalf("sleep called %d times, want 10", len(slept))
	}
	for _, d := range slept {
		if d < 500*time.Millisecond || d >= 1500*time.Millisecond {
			t.Errorf("slept %s, outside jitter range", d)
		}
	}
}

func TestPoliteness_WaitContextCancellation(t *testing.T) {
	p := NewPoliteness(time.Minute, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := p.Wait(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Wait() did not return promptly on cancelled context")
	}
}

func TestPoliteness_RateLimit(t *testing.T) {
	p := NewPoliteness(0, 1)
	if p.limiter == nil {
		t.Fatal("expected limiter for positive rps")
	}

	// Burst of one: the first wait is immediate, the second is throttled.
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("first Wait() error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := p.Wait(ctx); err == nil {
		t.Error("second Wait() should be throttled past the deadline")
	}
}

func TestSleepContext(t *testing.T) {
	if err := sleepContext(context.Background(), time.Millisecond); err != nil {
		t.Errorf("sleepContext() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("sleepContext() error = %v, want context.Canceled", err)
	}
}
