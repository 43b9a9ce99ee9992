package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	applog "fintrack/internal/log"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := applog.New(applog.Config{Level: slog.LevelInfo, Output: &buf, Component: applog.ComponentHTTP})
	m := NewMiddleware(logger, func(*http.Request) string { return "198.51.100.1" })

	var seen string
	var ctxLogger *applog.Logger
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		ctxLogger = applog.FromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/summary?currency=USD", nil))

	if !strings.HasPrefix(seen, "req_") || rec.Header().Get(HeaderRequestID) != seen {
		t.Fatalf("request id %q not propagated (header %q)", seen, rec.Header().Get(HeaderRequestID))
	}
	if ctxLogger == nil || ctxLogger.Component() != applog.ComponentHTTP {
		t.Fatal("expected request-scoped logger in context")
	}

	out := buf.String()
	for _, want := range []string{"HTTP request completed", "status_code=418", "client_ip=198.51.100.1", "request_id=" + seen, "level=WARN"} {
		if !strings.Contains(out, want) {
			t.Errorf("access log missing %q: %s", want, out)
		}
	}

	if got := m.GetMetrics().TotalRequests; got != 1 {
		t.Fatalf("TotalRequests = %d", got)
	}
}

func TestMiddlewareKeepsUpstreamRequestID(t *testing.T) {
	m := NewMiddleware(applog.New(applog.Config{Output: &bytes.Buffer{}}), nil)
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "edge-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get(HeaderRequestID) != "edge-123" {
		t.Fatalf("upstream id not kept: %q", rec.Header().Get(HeaderRequestID))
	}
	if m.GetMetrics().ServerErrors != 1 {
		t.Fatal("server error not counted")
	}

	req.Header.Set(HeaderRequestID, "bad id with spaces")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if !strings.HasPrefix(rec.Header().Get(HeaderRequestID), "req_") {
		t.Fatalf("invalid upstream id should be replaced, got %q", rec.Header().Get(HeaderRequestID))
	}
}

func TestGenerateRequestID(t *testing.T) {
	a, b := GenerateRequestID(), GenerateRequestID()
	if a == b || len(a) != len("req_")+16 {
		t.Fatalf("unexpected ids %q %q", a, b)
	}
}
