package host

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig bounds RPC calls per caller. Zero RPS disables the limit.
type RateLimitConfig struct {
	RPS     float64
	Burst   int
	IdleTTL time.Duration
}

// callerLimiter applies a token bucket per caller and periodically evicts
// idle entries.
type callerLimiter struct {
	limit   rate.Limit
	burst   int
	mu      sync.Mutex
	byKey   map[string]*limiterEntry
	hits    uint64
	idleTTL time.Duration
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newCallerLimiter returns nil when cfg disables limiting.
func newCallerLimiter(cfg RateLimitConfig) *callerLimiter {
	if cfg.RPS <= 0 {
		return nil
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(cfg.RPS)
		if cfg.Burst < 1 {
			cfg.Burst = 1
		}
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	return &callerLimiter{
		limit:   rate.Limit(cfg.RPS),
		burst:   cfg.Burst,
		byKey:   make(map[string]*limiterEntry),
		idleTTL: cfg.IdleTTL,
	}
}

func (l *callerLimiter) Allow(caller string, now time.Time) bool {
	if l == nil {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.byKey[caller]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.byKey[caller] = e
	}
	e.lastSeen = now
	allowed := e.limiter.AllowN(now, 1)

	l.hits++
	if l.hits%512 == 0 {
		cutoff := now.Add(-l.idleTTL)
		for k, v := range l.byKey {
			if v.lastSeen.Before(cutoff) {
				delete(l.byKey, k)
			}
		}
	}

	return allowed
}
