package observability

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	traceHeader   = "X-Trace-ID"
	maxTraceIDLen = 64
)

// routeLabel collapses a request path onto its route name. The table
// and column listings embed database and table names in the path, so
// labeling metrics by raw path would grow a series per table.
func routeLabel(path string) string {
	switch {
	case path == "/v1/health":
		return "health"
	case path == "/v1/ready":
		return "ready"
	case path == "/v1/metrics":
		return "metrics"
	case strings.HasPrefix(path, "/list_databases"):
		return "list_databases"
	case strings.HasPrefix(path, "/list_tables"):
		return "list_tables"
	case strings.HasPrefix(path, "/list_columns"):
		return "list_columns"
	case strings.HasPrefix(path, "/generate_sql"):
		return "generate_sql"
	case strings.HasPrefix(path, "/execute_sql"):
		return "execute_sql"
	default:
		return "ui"
	}
}

// probeRoute reports routes hit by load balancers and scrapers, which
// would drown out the request log at info level.
func probeRoute(route string) bool {
	return route == "health" || route == "ready" || route == "metrics"
}

func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := strings.TrimSpace(r.Header.Get(traceHeader))
		if traceID == "" || len(traceID) > maxTraceIDLen {
			traceID = newTraceID()
		}
		ctx := ContextWithTraceID(r.Context(), traceID)
		w.Header().Set(traceHeader, traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func LoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)

			route := routeLabel(r.URL.Path)
			attrs := []any{
				slog.String("trace_id", TraceIDFromContext(r.Context())),
				slog.String("method", r.Method),
				slog.String("route", route),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr),
				slog.Int("status", recorder.status),
				slog.String("duration", time.Since(start).String()),
				slog.Int("bytes", recorder.bytes),
			}
			if probeRoute(route) {
				logger.DebugContext(r.Context(), "http_request", attrs...)
				return
			}
			logger.InfoContext(r.Context(), "http_request", attrs...)
		})
	}
}

func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		route := routeLabel(r.URL.Path)
		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(recorder.status)).Inc()
		httpRequestDurationSeconds.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(body []byte) (int, error) {
	n, err := r.ResponseWriter.Write(body)
	r.bytes += n
	return n, err
}

func newTraceID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "trace-unavailable"
	}
	return hex.EncodeToString(buf)
}
