package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"legalyzer/internal/logger"
	"legalyzer/internal/port"
)

// BreakerConfig controls when a provider's circuit opens.
type BreakerConfig struct {
	FailureThreshold int
	Recovery         time.Duration
}

// circuitState tracks consecutive failures and backoff for a single provider.
type circuitState struct {
	mu       sync.Mutex
	failures int
	resetAt  time.Time // zero value = closed (healthy)
}

func (c *circuitState) isOpenWithReset(now time.Time) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resetAt, !c.resetAt.IsZero() && now.Before(c.resetAt)
}

func (c *circuitState) open(resetAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetAt = resetAt
}

// recordFailure opens the circuit once the threshold is reached.
func (c *circuitState) recordFailure(now time.Time, cfg BreakerConfig) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures++
	if cfg.FailureThreshold > 0 && c.failures >= cfg.FailureThreshold {
		c.resetAt = now.Add(cfg.Recovery)
		return true
	}
	return false
}

func (c *circuitState) recordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = 0
	c.resetAt = time.Time{}
}

// FallbackProvider tries providers in order, skipping those with open circuits.
// It never retries the same provider within one call.
type FallbackProvider struct {
	providers []port.LLMProvider
	circuits  []*circuitState
	names     []string
	cfg       BreakerConfig
	log       zerolog.Logger
}

// NewFallbackProvider creates a FallbackProvider from an ordered list of providers and their names.
func NewFallbackProvider(providers []port.LLMProvider, names []string, cfg BreakerConfig) *FallbackProvider {
	circuits := make([]*circuitState, len(providers))
	for i := range circuits {
		circuits[i] = &circuitState{}
	}
	return &FallbackProvider{
		providers: providers,
		circuits:  circuits,
		names:     names,
		cfg:       cfg,
		log:       logger.WithComponent("analysis-fallback"),
	}
}

// Complete implements port.LLMProvider.
func (f *FallbackProvider) Complete(ctx context.Context, input port.CompletionInput) (*port.CompletionOutput, error) {
	now := time.Now()
	var lastErr error
	var earliestReset time.Time

	for i, p := range f.providers {
		if resetAt, open := f.circuits[i].isOpenWithReset(now); open {
			f.log.Warn().Str("provider", f.names[i]).Time("reset_at", resetAt).Msg("skipping provider, circuit open")
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
			}
			continue
		}

		out, err := p.Complete(ctx, input)
		if err == nil {
			f.circuits[i].recordSuccess()
			return out, nil
		}

		f.log.Warn().Err(err).Str("provider", f.names[i]).Msg("provider failed")
		lastErr = err

		var rlErr *RateLimitError
		if errors.As(err, &rlErr) {
			f.circuits[i].open(now.Add(rlErr.RetryAfter))
		} else if f.circuits[i].recordFailure(now, f.cfg) {
			f.log.Warn().Str("provider", f.names[i]).Dur("recovery", f.cfg.Recovery).Msg("circuit opened")
		}

		if ctx.Err() != nil {
			break
		}
	}

	if lastErr == nil {
		retryAfter := earliestReset.Sub(now)
		if retryAfter < time.Second {
			retryAfter = time.Second
		}
		return nil, NewRateLimitError("all", ErrCircuitOpen, int(retryAfter.Seconds()))
	}
	return nil, fmt.Errorf("all providers failed: %w", lastErr)
}

func secondsOr(secs, fallback int) time.Duration {
	if secs <= 0 {
		secs = fallback
	}
	return time.Duration(secs) * time.Second
}
