package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/account-api/internal/api/shared"
	"github.com/phrazzld/account-api/internal/platform/metrics"
	"golang.org/x/time/rate"
)

// RateLimiterConfig configures a per-client token bucket.
type RateLimiterConfig struct {
	RequestsPerMinute int
	Burst             int
	CleanupInterval   time.Duration
}

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter limits requests per client IP. Idle clients are forgotten by a
// background goroutine that runs until Stop.
type RateLimiter struct {
	limit    rate.Limit
	burst    int
	interval time.Duration
	metrics  metrics.Recorder
	now      func() time.Time

	mu      sync.Mutex
	clients map[string]*clientLimiter

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewRateLimiter creates a RateLimiter and starts its cleanup loop.
func NewRateLimiter(cfg RateLimiterConfig, recorder metrics.Recorder) *RateLimiter {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}

	rl := &RateLimiter{
		limit:    ratePerMinute(cfg.RequestsPerMinute),
		burst:    cfg.Burst,
		interval: cfg.CleanupInterval,
		metrics:  recorder,
		now:      time.Now,
		clients:  make(map[string]*clientLimiter),
		stopCh:   make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Middleware rejects requests over the limit with 429 and a Retry-After header.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.limiterFor(clientKey(r)).Allow() {
			rl.metrics.RecordRateLimited(routePattern(r))
			w.Header().Set("Retry-After", strconv.Itoa(rl.retryAfterSeconds()))
			shared.RespondWithError(w, r, http.StatusTooManyRequests, "Too many requests. Please try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientCount reports how many clients are currently tracked.
func (rl *RateLimiter) ClientCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if client, ok := rl.clients[key]; ok {
		client.lastAccess = now
		return client.limiter
	}

	limiter := rate.NewLimiter(rl.limit, rl.burst)
	rl.clients[key] = &clientLimiter{limiter: limiter, lastAccess: now}
	return limiter
}

func ratePerMinute(n int) rate.Limit {
	return rate.Limit(float64(n) / 60.0)
}

func (rl *RateLimiter) retryAfterSeconds() int {
	if rl.limit <= 0 {
		return 60
	}
	seconds := int(math.Ceil(1.0 / float64(rl.limit)))
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup drops clients idle for more than two cleanup intervals.
func (rl *RateLimiter) cleanup() {
	ttl := 2 * rl.interval
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, client := range rl.clients {
		if now.Sub(client.lastAccess) > ttl {
			delete(rl.clients, key)
		}
	}
}

// clientKey uses RemoteAddr, which chi's RealIP middleware has already
// rewritten when the request came through a proxy.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}
