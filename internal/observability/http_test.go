package observability

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/querysmith/querysmith/internal/config"
)

func TestRouteLabel(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"/v1/health", "health"},
		{"/v1/ready", "ready"},
		{"/v1/metrics", "metrics"},
		{"/list_databases/", "list_databases"},
		{"/list_tables/shop", "list_tables"},
		{"/list_columns/shop/customers", "list_columns"},
		{"/generate_sql/", "generate_sql"},
		{"/execute_sql/", "execute_sql"},
		{"/", "ui"},
		{"/index.html", "ui"},
	}
	for _, tc := range cases {
		if got := routeLabel(tc.path); got != tc.want {
			t.Fatalf("routeLabel(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestTraceMiddlewareGeneratesID(t *testing.T) {
	var observed string
	handler := TraceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		observed = TraceIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/generate_sql/", nil))
	if observed == "" {
		t.Fatal("expected generated trace id in context")
	}
	if rec.Header().Get("X-Trace-ID") != observed {
		t.Fatalf("response header = %q, context = %q", rec.Header().Get("X-Trace-ID"), observed)
	}
}

func TestTraceMiddlewarePropagatesInboundID(t *testing.T) {
	var observed string
	handler := TraceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		observed = TraceIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/list_databases/", nil)
	req.Header.Set("X-Trace-ID", "client-trace-42")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if observed != "client-trace-42" {
		t.Fatalf("trace id = %q, want client-trace-42", observed)
	}
}

func TestTraceMiddlewareReplacesOversizedID(t *testing.T) {
	var observed string
	handler := TraceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		observed = TraceIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/list_databases/", nil)
	req.Header.Set("X-Trace-ID", strings.Repeat("x", 200))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if observed == "" || len(observed) > maxTraceIDLen {
		t.Fatalf("trace id = %q, want freshly generated id", observed)
	}
}

func newTestLogger(buf *bytes.Buffer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: level}))
}

func TestLoggingMiddlewareRecordsRoute(t *testing.T) {
	var buf bytes.Buffer
	handler := LoggingMiddleware(newTestLogger(&buf, slog.LevelInfo))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"syntax error"}`))
		}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/execute_sql/", nil))

	line := buf.String()
	for _, want := range []string{`"route":"execute_sql"`, `"status":400`, `"method":"POST"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("log line missing %s: %s", want, line)
		}
	}
}

func TestLoggingMiddlewareQuietsProbeRoutes(t *testing.T) {
	var buf bytes.Buffer
	handler := LoggingMiddleware(newTestLogger(&buf, slog.LevelInfo))(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/health", nil))
	if buf.Len() != 0 {
		t.Fatalf("health request should log at debug only, got: %s", buf.String())
	}

	var debugBuf bytes.Buffer
	handler = LoggingMiddleware(newTestLogger(&debugBuf, slog.LevelDebug))(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/health", nil))
	if !strings.Contains(debugBuf.String(), `"route":"health"`) {
		t.Fatalf("expected debug log for health route, got: %s", debugBuf.String())
	}
}

func TestComponentLogger(t *testing.T) {
	cfg, err := config.Load("querysmith-api", func(key string) (string, bool) {
		if key == "QUERYSMITH_PROFILE" {
			return "test", true
		}
		return "", false
	})
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}

	var buf bytes.Buffer
	logger := NewLogger(cfg, &buf)
	ComponentLogger(logger, "translator").Warn("model attempt failed")

	line := buf.String()
	for _, want := range []string{`"component":"translator"`, `"service":"querysmith-api"`, `"profile":"test"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("log line missing %s: %s", want, line)
		}
	}
}
