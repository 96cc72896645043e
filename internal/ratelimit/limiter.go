// Sightline - Detection Geolocation and Street-Level Imagery Enrichment
// Copyright 2026 Sightline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sightlinehq/sightline

// Package ratelimit provides a process-wide token bucket limiter keyed by
// upstream provider. Every key gets its own bucket with the shared
// rate/capacity configuration, so one saturated provider never delays
// requests to another.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrTokensExceedCapacity is returned when a caller requests more tokens
// than a bucket can ever hold. This is a caller/config defect and is never
// retried.
var ErrTokensExceedCapacity = fmt.Errorf("ratelimit: requested tokens exceed bucket capacity")

// KeyedLimiter is a token bucket limiter with one bucket per string key.
// Buckets are created on first use, start full, and refill continuously at
// the configured rate. Safe for concurrent use; a waiting key does not
// block acquisition on other keys.
type KeyedLimiter struct {
	ratePerSec float64
	capacity   int

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

// NewKeyedLimiter creates a limiter where every key refills at ratePerSec
// tokens per second up to capacity tokens.
func NewKeyedLimiter(ratePerSec float64, capacity int) *KeyedLimiter {
	return &KeyedLimiter{
		ratePerSec: ratePerSec,
		capacity:   capacity,
		buckets:    make(map[string]*rate.Limiter),
	}
}

// Acquire blocks until n tokens are available for key, then debits them.
// It fails immediately with ErrTokensExceedCapacity when n exceeds the
// bucket capacity, and with the context error when ctx is canceled or its
// deadline passes before the tokens accumulate.
func (l *KeyedLimiter) Acquire(ctx context.Context, key string, n int) error {
	if n > l.capacity {
		return fmt.Errorf("%w: requested %d, capacity %d", ErrTokensExceedCapacity, n, l.capacity)
	}

	// Only the bucket lookup is serialized; the wait itself happens on the
	// per-key limiter so other keys proceed unimpeded.
	if err := l.bucket(key).WaitN(ctx, n); err != nil {
		return fmt.Errorf("ratelimit: acquire %d for %q: %w", n, key, err)
	}
	return nil
}

// Allow reports whether n tokens are immediately available for key,
// debiting them if so. It never blocks.
func (l *KeyedLimiter) Allow(key string, n int) bool {
	if n > l.capacity {
		return false
	}
	return l.bucket(key).AllowN(time.Now(), n)
}

func (l *KeyedLimiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(rate.Limit(l.ratePerSec), l.capacity)
		l.buckets[key] = b
	}
	return b
}

// Tokens returns the number of tokens currently available for key.
// A key that has never been used reports full capacity.
func (l *KeyedLimiter) Tokens(key string) float64 {
	return l.bucket(key).Tokens()
}
