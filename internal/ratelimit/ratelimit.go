// Package ratelimit provides a keyed token-bucket limiter. Outbound calls to
// the transcription backend use the blocking Wait; the HTTP API uses the
// non-blocking Allow per client address.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Keyed hands out an independent token bucket per key.
type Keyed struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// New creates a keyed limiter allowing rps requests per second per key with
// the given burst.
func New(rps float64, burst int) *Keyed {
	return &Keyed{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(rps),
		burst:    burst,
	}
}

// Allow reports whether a request for key may proceed right now.
func (k *Keyed) Allow(key string) bool {
	return k.limiter(key).Allow()
}

// Wait blocks until a request for key may proceed or ctx is canceled.
func (k *Keyed) Wait(ctx context.Context, key string) error {
	return k.limiter(key).Wait(ctx)
}

func (k *Keyed) limiter(key string) *rate.Limiter {
	k.mu.RLock()
	l, ok := k.limiters[key]
	k.mu.RUnlock()
	if ok {
		return l
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if l, ok = k.limiters[key]; ok {
		return l
	}
	l = rate.NewLimiter(k.limit, k.burst)
	k.limiters[key] = l
	return l
}
