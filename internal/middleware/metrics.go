package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// RequestObserver receives per-request measurements. *metrics.Metrics
// implements it.
type RequestObserver interface {
	RequestStarted() (done func())
	ObserveRequest(method, route string, status int, d time.Duration)
}

// Metrics records request counts and latency labelled by the chi route
// pattern ("/injuries/{id}"), never the raw path, so ids do not blow up
// label cardinality.
func Metrics(obs RequestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			done := obs.RequestStarted()
			defer done()

			wrapped := wrap(w)
			next.ServeHTTP(wrapped, r)

			// The pattern is only complete once routing has finished.
			route := ""
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				route = rctx.RoutePattern()
			}
			obs.ObserveRequest(r.Method, route, wrapped.statusCode, time.Since(start))
		})
	}
}
