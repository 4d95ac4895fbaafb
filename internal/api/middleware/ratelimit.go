package middleware

import (
	"fmt"
	"net/http"

	"github.com/phrazzld/madlib-comics/internal/api/shared"
	"golang.org/x/time/rate"
)

// RateLimit rejects requests with 429 once the limiter runs out of tokens.
// The limiter is shared by every caller, so it caps total throughput rather
// than per-client rate. A nil limiter disables the check.
func RateLimit(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", fmt.Sprintf("%.0f", retryAfterSeconds(limiter)))
				shared.RespondWithError(w, r, http.StatusTooManyRequests, "Too many requests, slow down")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NewLimiter builds a limiter from a requests-per-second rate and burst size.
// A non-positive rps yields nil.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

func retryAfterSeconds(limiter *rate.Limiter) float64 {
	secs := 1 / float64(limiter.Limit())
	if secs < 1 {
		return 1
	}
	return secs
}
