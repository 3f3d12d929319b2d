package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

func limitExceeded(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", "60")
	w.WriteHeader(http.StatusTooManyRequests)
	w.Write([]byte(`{"error":"rate limit exceeded","retry_after":60}`))
}

// RateLimit limits requests per tenant, falling back to client IP for
// unauthenticated requests.
func RateLimit(requestLimit int, windowLength time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		requestLimit,
		windowLength,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			if tenantID := GetTenantID(r.Context()); tenantID != "" {
				return "tenant:" + tenantID, nil
			}
			return "ip:" + r.RemoteAddr, nil
		}),
		httprate.WithLimitHandler(limitExceeded),
	)
}

// AnalysisRateLimit applies a tighter per-user limit for analysis and
// report endpoints, which are more expensive than CRUD operations.
func AnalysisRateLimit(requestLimit int, windowLength time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		requestLimit,
		windowLength,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			if userID := GetUserID(r.Context()); userID != "" {
				return "user:" + userID, nil
			}
			return "ip:" + r.RemoteAddr, nil
		}),
		httprate.WithLimitHandler(limitExceeded),
	)
}
