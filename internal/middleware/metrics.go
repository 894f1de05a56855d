package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/web3-frozen/near-dashboard/internal/metrics"
)

// Metrics records request count, latency and in-flight gauge, labelled by
// chi route pattern so /api/pages/{page} stays a single series.
func Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			metrics.HTTPRequestsInFlight.Inc()
			defer metrics.HTTPRequestsInFlight.Dec()

			start := time.Now()
			rec := newRecorder(w)
			next.ServeHTTP(rec, r)

			route := routePattern(r)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}
