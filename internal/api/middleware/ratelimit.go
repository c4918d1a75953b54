package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"phishguard/internal/config"
)

// RateLimitStore checks and increments a windowed request counter.
// Satisfied by cache.RedisCache.
type RateLimitStore interface {
	CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, time.Time, error)
}

// RateLimiter returns middleware enforcing the per-minute and per-hour
// request limits per client. A zero limit disables that window.
func RateLimiter(store RateLimitStore, cfg config.RateLimitConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip rate limiting for OPTIONS
			if r.Method == "OPTIONS" {
				next.ServeHTTP(w, r)
				return
			}

			clientID := getClientID(r)

			if cfg.RequestsPerMinute > 0 {
				allowed, remaining, resetTime, err := store.CheckRateLimit(
					r.Context(),
					clientID+":minute",
					int64(cfg.RequestsPerMinute),
					time.Minute,
				)
				if err != nil {
					// On error, allow the request
					next.ServeHTTP(w, r)
					return
				}

				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.RequestsPerMinute))
				w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

				if !allowed {
					reject(w, resetTime)
					return
				}
			}

			if cfg.RequestsPerHour > 0 {
				allowed, _, resetTime, err := store.CheckRateLimit(
					r.Context(),
					clientID+":hour",
					int64(cfg.RequestsPerHour),
					time.Hour,
				)
				if err == nil && !allowed {
					reject(w, resetTime)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func reject(w http.ResponseWriter, resetTime time.Time) {
	w.Header().Set("Retry-After", strconv.FormatInt(int64(time.Until(resetTime).Seconds()), 10))
	http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
}

// getClientID returns a unique identifier for the client
func getClientID(r *http.Request) string {
	ip := r.Header.Get("X-Forwarded-For")
	if ip == "" {
		ip = r.Header.Get("X-Real-IP")
	}
	if ip == "" {
		ip = r.RemoteAddr
	}

	return fmt.Sprintf("ip:%s", ip)
}
