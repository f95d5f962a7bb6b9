package fetcher

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// PacingPolicy selects where the politeness delay is applied.
type PacingPolicy int

const (
	// PaceBetween spaces requests apart: the first request starts
	// immediately, and N sequential fetches take at least (N-1)*delay.
	PaceBetween PacingPolicy = iota

	// PaceLeading delays every request, the first one included:
	// N sequential fetches take at least N*delay.
	PaceLeading
)

// String returns the policy name used in configuration files and flags.
func (p PacingPolicy) String() string {
	switch p {
	case PaceBetween:
		return "between"
	case PaceLeading:
		return "leading"
	default:
		return "unknown"
	}
}

// ParsePacingPolicy converts a policy name into a PacingPolicy.
// The empty string selects PaceBetween.
func ParsePacingPolicy(name string) (PacingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "between":
		return PaceBetween, nil
	case "leading":
		return PaceLeading, nil
	default:
		return PaceBetween, fmt.Errorf("%w: %q", ErrInvalidPacingPolicy, name)
	}
}

// Pacer is the gate every fetch passes through before it starts.
// No two Wait calls on the same Pacer return closer together than the
// configured delay, regardless of how many goroutines share it.
//
// A Pacer is safe for concurrent use.
type Pacer struct {
	limiter *rate.Limiter
	policy  PacingPolicy
	delay   time.Duration

	// prime drains the initial token on first use under PaceLeading, so the
	// first request also waits a full delay.
	prime sync.Once
}

// NewPacer creates a pacing gate. A zero delay disables pacing.
func NewPacer(delay time.Duration, policy PacingPolicy) *Pacer {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Pacer{
		limiter: rate.NewLimiter(limit, 1),
		policy:  policy,
		delay:   delay,
	}
}

// Wait blocks until the next request may start or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.delay <= 0 {
		return ctx.Err()
	}
	if p.policy == PaceLeading {
		p.prime.Do(func() {
			p.limiter.Allow()
		})
	}
	return p.limiter.Wait(ctx)
}

// Delay returns the minimum spacing between request starts.
func (p *Pacer) Delay() time.Duration {
	if p == nil {
		return 0
	}
	return p.delay
}

// Policy returns the pacing policy.
func (p *Pacer) Policy() PacingPolicy {
	if p == nil {
		return PaceBetween
	}
	return p.policy
}
