// Sightline - Detection Geolocation and Street-Level Imagery Enrichment
// Copyright 2026 Sightline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sightlinehq/sightline

package outbound

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/sightlinehq/sightline/internal/logging"
	"github.com/sightlinehq/sightline/internal/metrics"
	"github.com/sightlinehq/sightline/internal/ratelimit"
)

// ErrUpstreamUnavailable indicates that all attempts against an upstream
// provider failed. The wrapped cause is the last attempt's error.
var ErrUpstreamUnavailable = errors.New("outbound: upstream unavailable")

const (
	// DefaultTimeout is the per-attempt connect/read timeout.
	DefaultTimeout = 2500 * time.Millisecond

	// DefaultMaxRetries bounds retries after the first attempt.
	DefaultMaxRetries = 2

	// DefaultBackoff is the base for exponential backoff between attempts.
	DefaultBackoff = 500 * time.Millisecond

	// maxResponseBytes caps upstream response bodies.
	maxResponseBytes = 10 * 1024 * 1024
)

// Config configures the outbound HTTP client.
type Config struct {
	// Timeout is the per-attempt connect/read timeout.
	Timeout time.Duration `koanf:"timeout"`

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int `koanf:"max_retries"`

	// Backoff is the base backoff; attempt n sleeps Backoff * 2^n.
	Backoff time.Duration `koanf:"backoff"`

	// UserAgent is sent on every request.
	UserAgent string `koanf:"user_agent"`

	// BreakerThreshold is the consecutive-failure count that opens a
	// provider's circuit. 0 disables the breaker.
	BreakerThreshold uint32 `koanf:"breaker_threshold"`

	// BreakerCooldown is how long an open circuit stays open before
	// allowing a probe request.
	BreakerCooldown time.Duration `koanf:"breaker_cooldown"`
}

// DefaultConfig returns sensible defaults for the client.
func DefaultConfig() Config {
	return Config{
		Timeout:          DefaultTimeout,
		MaxRetries:       DefaultMaxRetries,
		Backoff:          DefaultBackoff,
		UserAgent:        "Sightline/1.0",
		BreakerThreshold: 5,
		BreakerCooldown:  30 * time.Second,
	}
}

// Client wraps outbound GETs with rate limiting, retry/backoff, and a
// per-provider circuit breaker. Construct one at startup and share it;
// it owns the process-wide connection pool.
type Client struct {
	config  Config
	limiter *ratelimit.KeyedLimiter

	// The pool is built on first use. The sync.Once guard means a race
	// between concurrent first callers constructs it exactly once.
	poolOnce sync.Once
	pool     *http.Client

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[[]byte]
}

// NewClient creates an outbound client using the given limiter for
// per-provider token accounting.
func NewClient(cfg Config, limiter *ratelimit.KeyedLimiter) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	return &Client{
		config:   cfg,
		limiter:  limiter,
		breakers: make(map[string]*gobreaker.CircuitBreaker[[]byte]),
	}
}

// attemptResult is the explicit outcome of one HTTP attempt. The retry
// loop branches on Retryable instead of unwinding errors, so the policy
// reads as data flow.
type attemptResult struct {
	Payload   []byte
	Err       error
	Retryable bool
}

// Get performs a rate-limited GET with retries and returns the response
// body. rateKey selects both the token bucket and the circuit breaker for
// the upstream provider. Exhausted retries or an open circuit surface as
// ErrUpstreamUnavailable.
func (c *Client) Get(ctx context.Context, rawURL string, params url.Values, headers map[string]string, rateKey string) ([]byte, error) {
	body, err := c.breaker(rateKey).Execute(func() ([]byte, error) {
		return c.getWithRetry(ctx, rawURL, params, headers, rateKey)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordUpstreamBreakerRejection(rateKey)
			return nil, fmt.Errorf("%w: %s circuit open", ErrUpstreamUnavailable, rateKey)
		}
		return nil, err
	}
	return body, nil
}

func (c *Client) getWithRetry(ctx context.Context, rawURL string, params url.Values, headers map[string]string, rateKey string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.config.Backoff * (1 << (attempt - 1))
			logging.Debug().
				Str("provider", rateKey).
				Int("attempt", attempt).
				Dur("delay", delay).
				Msg("retrying upstream request")
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, ctx.Err())
			case <-time.After(delay):
			}
		}

		// Every attempt, retries included, pays the provider's token.
		if err := c.limiter.Acquire(ctx, rateKey, 1); err != nil {
			if errors.Is(err, ratelimit.ErrTokensExceedCapacity) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
		}

		res := c.attempt(ctx, rawURL, params, headers)
		if res.Err == nil {
			metrics.RecordUpstreamRequest(rateKey, attempt, true)
			return res.Payload, nil
		}

		lastErr = res.Err
		metrics.RecordUpstreamRequest(rateKey, attempt, false)
		if !res.Retryable {
			break
		}
	}

	return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, lastErr)
}

// attempt performs a single GET and classifies the outcome. Timeouts,
// transport errors, and non-2xx statuses are retryable; a malformed URL or
// a canceled context is fatal.
func (c *Client) attempt(ctx context.Context, rawURL string, params url.Values, headers map[string]string) attemptResult {
	attemptCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	target := rawURL
	if len(params) > 0 {
		target = rawURL + "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return attemptResult{Err: fmt.Errorf("build request: %w", err), Retryable: false}
	}

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		if ctx.Err() != nil {
			// The caller's context expired, not the per-attempt timeout.
			return attemptResult{Err: ctx.Err(), Retryable: false}
		}
		return attemptResult{Err: fmt.Errorf("request failed: %w", err), Retryable: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return attemptResult{
			Err:       fmt.Errorf("unexpected status code: %d", resp.StatusCode),
			Retryable: true,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return attemptResult{Err: fmt.Errorf("read response: %w", err), Retryable: true}
	}

	return attemptResult{Payload: body}
}

// httpClient returns the shared connection pool, constructing it on first
// use. The pool carries no timeout of its own; each attempt's context
// enforces the deadline.
func (c *Client) httpClient() *http.Client {
	c.poolOnce.Do(func() {
		c.pool = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        32,
				MaxIdleConnsPerHost: 8,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	})
	return c.pool
}

func (c *Client) breaker(key string) *gobreaker.CircuitBreaker[[]byte] {
	c.mu.Lock()
	defer c.mu.Unlock()

	cb, ok := c.breakers[key]
	if !ok {
		threshold := c.config.BreakerThreshold
		if threshold == 0 {
			// Effectively never trips.
			threshold = ^uint32(0)
		}
		cb = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:    key,
			Timeout: c.config.BreakerCooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logging.Warn().
					Str("provider", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("upstream circuit state changed")
			},
		})
		c.breakers[key] = cb
	}
	return cb
}
