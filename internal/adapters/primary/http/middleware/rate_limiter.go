package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gamemod/support-desk/internal/config"
	"github.com/gamemod/support-desk/internal/infrastructure/metrics"
	"golang.org/x/time/rate"
)

// RateLimiter provides IP-based rate limiting
type RateLimiter struct {
	name     string
	visitors map[string]*visitor
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
	done     chan struct{}
	stopOnce sync.Once
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiterConfig holds rate limiter configuration
type RateLimiterConfig struct {
	Name              string        // Label used in metrics
	RequestsPerSecond float64       // Requests allowed per second
	BurstSize         int           // Maximum burst size
	CleanupInterval   time.Duration // How often to clean up old visitors
	TTL               time.Duration // How long to keep inactive visitors
}

// GeneralRateLimiterConfig returns the limiter applied to every API route
func GeneralRateLimiterConfig(cfg config.RateLimitConfig) RateLimiterConfig {
	return RateLimiterConfig{
		Name:              "general",
		RequestsPerSecond: cfg.RequestsPerSecond,
		BurstSize:         cfg.BurstSize,
		CleanupInterval:   time.Minute,
		TTL:               3 * time.Minute,
	}
}

// AdminRateLimiterConfig returns a stricter config for admin-gated and session endpoints
func AdminRateLimiterConfig(cfg config.RateLimitConfig) RateLimiterConfig {
	return RateLimiterConfig{
		Name:              "admin",
		RequestsPerSecond: cfg.AdminRPS,
		BurstSize:         cfg.AdminBurst,
		CleanupInterval:   time.Minute,
		TTL:               5 * time.Minute,
	}
}

// NewRateLimiter creates a new rate limiter with the given configuration
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		name:     cfg.Name,
		visitors: make(map[string]*visitor),
		rate:     rate.Limit(cfg.RequestsPerSecond),
		burst:    cfg.BurstSize,
		done:     make(chan struct{}),
	}

	go rl.cleanupVisitors(cfg.CleanupInterval, cfg.TTL)

	return rl
}

// Stop ends the background cleanup goroutine.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// getVisitor returns the rate limiter for the given IP, creating one if necessary
func (rl *RateLimiter) getVisitor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		limiter := rate.NewLimiter(rl.rate, rl.burst)
		rl.visitors[ip] = &visitor{limiter: limiter, lastSeen: time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

// cleanupVisitors removes old visitors that haven't been seen recently
func (rl *RateLimiter) cleanupVisitors(interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.mu.Lock()
			for ip, v := range rl.visitors {
				if time.Since(v.lastSeen) > ttl {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Allow checks if a request from the given IP is allowed
func (rl *RateLimiter) Allow(ip string) bool {
	return rl.getVisitor(ip).Allow()
}

// Middleware returns an HTTP middleware that rate limits requests
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(getClientIP(r)) {
			metrics.APIRateLimitHits.WithLabelValues(rl.name).Inc()
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"Too many requests. Please try again later.","code":"RATE_LIMITED"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// getClientIP returns the host part of RemoteAddr. Forwarding headers are
// honoured only when the router mounts chi's RealIP, which rewrites
// RemoteAddr behind a trusted proxy.
func getClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
