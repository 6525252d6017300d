package middleware

import (
	"net/http"

	"github.com/phrazzld/json-bucket/internal/api/shared"
	"github.com/phrazzld/json-bucket/internal/domain"
	"golang.org/x/time/rate"
)

// NewLimiter returns a token bucket allowing perSecond requests per second
// with the given burst, or nil when perSecond is not positive.
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// RateLimit rejects requests with 429 once the shared limiter is exhausted.
// A nil limiter disables the check.
func RateLimit(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				shared.RespondWithErrorAndLog(w, r, http.StatusTooManyRequests,
					domain.ErrRateLimited.Error(), domain.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
