package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/albapepper/sideline/internal/api/handler"
	"github.com/albapepper/sideline/internal/api/respond"
	"github.com/albapepper/sideline/internal/metrics"
	"github.com/albapepper/sideline/internal/ratelimit"
)

// --------------------------------------------------------------------------
// Request timing middleware
// --------------------------------------------------------------------------

// TimingMiddleware adds X-Process-Time header to all responses.
func TimingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		tw := &timingWriter{ResponseWriter: w, start: start}
		next.ServeHTTP(tw, r)
	})
}

// timingWriter stamps X-Process-Time right before headers go out.
type timingWriter struct {
	http.ResponseWriter
	start       time.Time
	wroteHeader bool
}

func (t *timingWriter) WriteHeader(code int) {
	if !t.wroteHeader {
		t.wroteHeader = true
		elapsed := time.Since(t.start)
		t.Header().Set("X-Process-Time", fmt.Sprintf("%.2fms", float64(elapsed.Microseconds())/1000.0))
	}
	t.ResponseWriter.WriteHeader(code)
}

func (t *timingWriter) Write(b []byte) (int, error) {
	if !t.wroteHeader {
		t.WriteHeader(http.StatusOK)
	}
	return t.ResponseWriter.Write(b)
}

// --------------------------------------------------------------------------
// Rate limiting middleware (per-caller sliding window)
// --------------------------------------------------------------------------

// RateLimitMiddleware rejects callers that exceed the limiter's window. The
// caller is the sniffer header when present, else the client IP.
func RateLimitMiddleware(limiter *ratelimit.SlidingWindow, window time.Duration) func(http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(window.Seconds()))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, now := handler.CallerKey(r), time.Now()
			if !limiter.Allow(key, now) {
				metrics.RateLimitRejections.WithLabelValues("route").Inc()
				w.Header().Set("Retry-After", retryAfter)
				respond.WriteError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests")
				return
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(limiter.Remaining(key, now)))
			next.ServeHTTP(w, r)
		})
	}
}
