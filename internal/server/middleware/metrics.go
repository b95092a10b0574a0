package middleware

import (
	"net/http"
	"time"

	"github.com/leslieo2/go-fullstack-starter/internal/observability"
)

// MetricsMiddleware records request count, latency and response size.
// endpoint maps a request to a bounded label value.
func MetricsMiddleware(metrics *observability.Metrics, endpoint func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			metrics.InFlightRequests.Inc()
			defer metrics.InFlightRequests.Dec()

			wrapped := NewResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			metrics.RecordRequest(r.Method, endpoint(r), wrapped.StatusCode(), time.Since(start), wrapped.BytesWritten())
		})
	}
}
