package crawler

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterSettings configures token-bucket rate limiting per host on
// top of the fixed inter-request delay.
type RateLimiterSettings struct {
	Requests int
	Window   time.Duration
}

// PolitenessGate enforces the crawl's global politeness budget. It is
// shared by all workers, so total request rate is bounded regardless of
// worker count.
type PolitenessGate struct {
	delay       time.Duration
	rate        RateLimiterSettings
	rateEnabled bool

	mu       sync.Mutex
	last     map[string]time.Time
	limiters map[string]*rate.Limiter
}

// NewPolitenessGate creates a gate with a minimum inter-request delay and
// an optional token bucket.
func NewPolitenessGate(delay time.Duration, rateCfg RateLimiterSettings) *PolitenessGate {
	gate := &PolitenessGate{delay: delay}
	if delay > 0 {
		gate.last = make(map[string]time.Time)
	}
	if rateCfg.Requests > 0 && rateCfg.Window > 0 {
		gate.rateEnabled = true
		gate.rate = rateCfg
		gate.limiters = make(map[string]*rate.Limiter)
	}
	return gate
}

// Wait blocks until the politeness constraints for the host are satisfied
// or the context is cancelled.
func (g *PolitenessGate) Wait(ctx context.Context, host string) error {
	if g == nil || host == "" {
		return nil
	}
	if g.delay <= 0 && !g.rateEnabled {
		return nil
	}
	host = strings.ToLower(host)

	var sleep time.Duration
	var limiter *rate.Limiter
	now := time.Now()

	g.mu.Lock()
	if g.delay > 0 {
		if last, ok := g.last[host]; ok {
			rest := last.Add(g.delay).Sub(now)
			if rest > 0 {
				sleep = rest
			}
		}
		// Claim the slot before sleeping so concurrent workers stack their
		// delays instead of releasing together.
		g.last[host] = now.Add(sleep)
	}
	if g.rateEnabled {
		limiter = g.ensureLimiterLocked(host)
	}
	g.mu.Unlock()

	if sleep > 0 {
		timer := time.NewTimer(sleep)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (g *PolitenessGate) ensureLimiterLocked(host string) *rate.Limiter {
	limiter, ok := g.limiters[host]
	if ok {
		return limiter
	}
	interval := g.rate.Window / time.Duration(g.rate.Requests)
	if interval <= 0 {
		interval = time.Millisecond
	}
	limiter = rate.NewLimiter(rate.Every(interval), 1)
	g.limiters[host] = limiter
	return limiter
}
