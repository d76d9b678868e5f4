package mw

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/MrSnakeDoc/disposable/internal/utils"
)

// RateLimitConfig configures the per-client token bucket.
type RateLimitConfig struct {
	Burst         int           // bucket capacity
	PerMinute     int           // tokens refilled per minute
	MaxClients    int           // sweep early once this many clients are tracked, 0 = unbounded
	SweepInterval time.Duration // idle bucket sweep period
	IdleTTL       time.Duration // buckets untouched for this long are dropped
	TrustProxy    bool          // resolve the client from proxy headers
	Now           func() time.Time
	OnReject      func(r *http.Request)
}

type client struct {
	lim  *rate.Limiter
	seen time.Time // last request
}

// Limiter keeps one rate.Limiter per client key. Safe for concurrent use.
type Limiter struct {
	cfg     RateLimitConfig
	limit   rate.Limit
	mu      sync.Mutex
	clients map[string]*client
	swept   time.Time
}

func NewLimiter(cfg RateLimitConfig) *Limiter {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 15 * time.Minute
	}
	cfg.Burst = max(cfg.Burst, 1)
	cfg.PerMinute = max(cfg.PerMinute, 1)
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Limiter{
		cfg:     cfg,
		limit:   rate.Limit(float64(cfg.PerMinute) / 60),
		clients: make(map[string]*client, 1024),
		swept:   cfg.Now(),
	}
}

// Take consumes one token for key. On an empty bucket it returns the wait
// until the next token.
func (l *Limiter) Take(key string) (remaining int, wait time.Duration, ok bool) {
	now := l.cfg.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.swept) >= l.cfg.SweepInterval ||
		(l.cfg.MaxClients > 0 && len(l.clients) >= l.cfg.MaxClients) {
		l.sweep(now)
	}

	c, seen := l.clients[key]
	if !seen {
		c = &client{lim: rate.NewLimiter(l.limit, l.cfg.Burst)}
		l.clients[key] = c
	}
	c.seen = now

	if c.lim.AllowN(now, 1) {
		return max(0, int(c.lim.TokensAt(now))), 0, true
	}
	// A reservation reports the delay; cancelling it gives the token back.
	r := c.lim.ReserveN(now, 1)
	wait = r.DelayFrom(now)
	r.CancelAt(now)
	return 0, wait, false
}

// Len returns the number of tracked clients.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func (l *Limiter) sweep(now time.Time) {
	for key, c := range l.clients {
		if now.Sub(c.seen) > l.cfg.IdleTTL {
			delete(l.clients, key)
		}
	}
	l.swept = now
}

// RateLimit limits requests per client IP. Rejected requests get 429 with
// Retry-After in whole seconds.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	l := NewLimiter(cfg)
	limit := strconv.Itoa(l.cfg.Burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			remaining, wait, ok := l.Take(utils.ClientIP(r, l.cfg.TrustProxy))

			h := w.Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !ok {
				h.Set("Retry-After", strconv.Itoa(max(1, int(math.Ceil(wait.Seconds())))))
				if l.cfg.OnReject != nil {
					l.cfg.OnReject(r)
				}
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
