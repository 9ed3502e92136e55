package metrics

import (
	"net/http"
	"strings"
	"time"
)

// unmatchedRoute labels requests no mux pattern claimed
const unmatchedRoute = "unmatched"

// responseWriter records the status code written by the handler
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// HTTPMiddleware records request counts and latency per route. Routes are the
// ServeMux patterns, so /api/v1/scans/{id} is one series no matter how many
// jobs are polled.
func HTTPMiddleware(reg *Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reg.InFlightInc()
			defer reg.InFlightDec()

			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r)

			reg.RecordRequest(r.Method, routeLabel(r), rw.statusCode, time.Since(start).Seconds())
		})
	}
}

// routeLabel returns the matched pattern without its method prefix.
// ServeMux fills r.Pattern in place while dispatching.
func routeLabel(r *http.Request) string {
	pattern := r.Pattern
	if pattern == "" {
		return unmatchedRoute
	}
	if _, path, ok := strings.Cut(pattern, " "); ok {
		return path
	}
	return pattern
}
