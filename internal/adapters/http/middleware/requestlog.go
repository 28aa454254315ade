package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"innercircle/internal/adapters/http/perf"
)

// DefaultSlowRequest applies when RequestLog gets a non-positive threshold.
const DefaultSlowRequest = 500 * time.Millisecond

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// responseRecorder remembers the status and body size written through it.
type responseRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rr *responseRecorder) WriteHeader(code int) {
	if rr.status == 0 {
		rr.status = code
	}
	rr.ResponseWriter.WriteHeader(code)
}

func (rr *responseRecorder) Write(b []byte) (int, error) {
	if rr.status == 0 {
		rr.status = http.StatusOK
	}
	n, err := rr.ResponseWriter.Write(b)
	rr.bytes += n
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rr *responseRecorder) Unwrap() http.ResponseWriter {
	return rr.ResponseWriter
}

// requestID keeps a sane inbound id or mints a new one.
func requestID(r *http.Request) string {
	id := r.Header.Get(RequestIDHeader)
	if id == "" || len(id) > 64 || strings.ContainsAny(id, " \t\r\n") {
		return uuid.NewString()
	}
	return id
}

// RequestLog times every non-static request. It echoes a request id header,
// logs at debug (warn at or above slow) and feeds collector when non-nil.
// The sample is recorded even when the handler panics.
func RequestLog(collector *perf.Collector, slow time.Duration) func(http.Handler) http.Handler {
	if slow <= 0 {
		slow = DefaultSlowRequest
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/static/") {
				next.ServeHTTP(w, r)
				return
			}
			id := requestID(r)
			w.Header().Set(RequestIDHeader, id)
			rec := &responseRecorder{ResponseWriter: w}
			start := time.Now()

			defer func() {
				elapsed := time.Since(start)
				status := rec.status
				if status == 0 {
					status = http.StatusOK
				}
				level := slog.LevelDebug
				if elapsed >= slow {
					level = slog.LevelWarn
				}
				slog.Log(r.Context(), level, "request",
					"request_id", id,
					"method", r.Method,
					"path", r.URL.Path,
					"status", status,
					"bytes", rec.bytes,
					"duration_ms", elapsed.Milliseconds(),
					"slow", elapsed >= slow,
				)
				if collector != nil {
					collector.Observe(perf.Sample{
						Kind:     perf.KindRequest,
						Label:    perf.RouteLabel(r.Method, r.URL.Path),
						Status:   status,
						Duration: elapsed,
						At:       start,
					})
				}
			}()
			next.ServeHTTP(rec, r)
		})
	}
}
