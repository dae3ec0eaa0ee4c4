package rate

import (
	"context"
	"sync"
	"time"

	"github.com/padelhub/storefront/pkg/cache"
)

// Config defines rate limiting parameters per key. A RequestsPerSecond of 0
// disables limiting.
type Config struct {
	RequestsPerSecond int
	Burst             int
	// Cooldown blocks the key for this long after a request is refused.
	Cooldown time.Duration
}

// Limiter implements a token bucket rate limiter.
type Limiter struct {
	mu        sync.Mutex
	tokens    float64
	last      time.Time
	rate      float64
	burst     float64
	cooldown  time.Duration
	lastBlock time.Time
	now       func() time.Time
}

// New creates a new limiter.
func New(cfg Config) *Limiter {
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		tokens:   float64(burst),
		last:     time.Now(),
		rate:     float64(cfg.RequestsPerSecond),
		burst:    float64(burst),
		cooldown: cfg.Cooldown,
		now:      time.Now,
	}
}

// Allow takes a token if one is available.
func (l *Limiter) Allow() bool {
	if l.rate <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	elapsed := now.Sub(l.last).Seconds()
	l.last = now

	l.tokens += elapsed * l.rate
	if l.tokens > l.burst {
		l.tokens = l.burst
	}

	if l.cooldown > 0 && !l.lastBlock.IsZero() && now.Sub(l.lastBlock) < l.cooldown {
		return false
	}

	if l.tokens >= 1 {
		l.tokens -= 1
		return true
	}

	if l.cooldown > 0 {
		l.lastBlock = now
	}
	return false
}

// Wait blocks until a token becomes available or context is canceled.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		if l.Allow() {
			return nil
		}
		select {
		case <-time.After(50 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// DefaultIdleTTL is how long a key's limiter survives without traffic.
const DefaultIdleTTL = 10 * time.Minute

// Manager holds one limiter per key (per signed-in user for backend calls).
// Limiters idle for longer than the idle TTL are dropped, so a key that comes
// back starts from a full bucket.
type Manager struct {
	mu       sync.Mutex
	limiters *cache.Cache[*Limiter]
	idleTTL  time.Duration
	defaults Config
}

func NewManager(defaults Config) *Manager {
	return NewManagerWithTTL(defaults, DefaultIdleTTL)
}

// NewManagerWithTTL is NewManager with an explicit idle TTL.
func NewManagerWithTTL(defaults Config, idleTTL time.Duration) *Manager {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	return &Manager{
		limiters: cache.New[*Limiter](idleTTL),
		idleTTL:  idleTTL,
		defaults: defaults,
	}
}

// GetLimiter returns the key's limiter, creating it on first use. Every call
// pushes the key's expiry out by the idle TTL.
func (m *Manager) GetLimiter(key string) *Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()
	lim, ok := m.limiters.Get(key)
	if !ok {
		lim = New(m.defaults)
	}
	m.limiters.PutTTL(key, lim, m.idleTTL)
	return lim
}

// Wait ensures rate limit compliance for a given key.
func (m *Manager) Wait(ctx context.Context, key string) error {
	return m.GetLimiter(key).Wait(ctx)
}

// Len reports how many keys currently hold a limiter.
func (m *Manager) Len() int {
	return m.limiters.Len()
}

// StartCleaner drops idle limiters every interval until stop is closed.
func (m *Manager) StartCleaner(interval time.Duration, stop <-chan struct{}) {
	m.limiters.StartCleaner(interval, stop)
}
