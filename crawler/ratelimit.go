package crawler

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Politeness spaces out requests to the target server. Every request first
// sleeps a jittered delay of base * [0.5, 1.5) so concurrent workers do not
// fire in lockstep, then waits on an optional crawl-wide token bucket.
type Politeness struct {
	base    time.Duration
	limiter *rate.Limiter

	mu  sync.Mutex
	rng *rand.Rand

	// sleep is replaced in tests to avoid real delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPoliteness creates a Politeness with the given base delay. A positive
// rps additionally caps the crawl-wide request rate.
func NewPoliteness(base time.Duration, rps float64) *Politeness {
	p := &Politeness{
		base:  base,
		rng:   rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15)),
		sleep: sleepContext,
	}
	if rps > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return p
}

// Delay returns the next jittered delay.
func (p *Politeness) Delay() time.Duration {
	if p.base <= 0 {
		return 0
	}
	p.mu.Lock()
	factor := 0.5 + p.rng.Float64()
	p.mu.Unlock()
	return time.Duration(float64(p.base) * factor)
}

// Wait blocks for the jittered delay and the rate limiter, or until ctx is done.
// It is safe to call Wait from multiple goroutines concurrently.
func (p *Politeness) Wait(ctx context.Context) error {
	if err := p.sleep(ctx, p.Delay()); err != nil {
		return err
	}
	if p.limiter != nil {
		return p.limiter.Wait(ctx)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
