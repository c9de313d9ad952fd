package middleware

import (
	"net/http"
	"time"
)

// HTTPObserver records one finished request.
type HTTPObserver interface {
	Observe(method, route string, status int, elapsed time.Duration)
}

// Metrics reports each request against its chi route pattern so ids in the
// path do not explode label cardinality.
func Metrics(observer HTTPObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if observer == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(rec, r)
			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			observer.Observe(r.Method, routePattern(r), status, time.Since(start))
		})
	}
}
