package observability

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danmuck/cmdclient/internal/testutil/testlog"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRouterServesMetricsThroughMiddleware(t *testing.T) {
	testlog.Start(t)
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	r := NewRouter(NewLogger(&buf, "cmdclient-test"), "net-http")
	before := testutil.ToFloat64(httpRequests.WithLabelValues("net-http", "GET", "/metrics", "200"))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "go_goroutines") {
		t.Fatalf("metrics output missing default registry")
	}
	if got := testutil.ToFloat64(httpRequests.WithLabelValues("net-http", "GET", "/metrics", "200")); got != before+1 {
		t.Fatalf("unexpected request count: %v", got)
	}
	out := buf.String()
	if !strings.Contains(out, "http.request") || !strings.Contains(out, "/metrics") {
		t.Fatalf("request not logged: %q", out)
	}
}

func TestRouterHealthAndUnmatchedPaths(t *testing.T) {
	testlog.Start(t)
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	r := NewRouter(NewLogger(&buf, "cmdclient-test"), "net-health")

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"network":"net-health"`) {
		t.Fatalf("unexpected health response: %d %s", rr.Code, rr.Body.String())
	}

	before := testutil.ToFloat64(httpRequests.WithLabelValues("net-health", "GET", "unmatched", "404"))
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	if got := testutil.ToFloat64(httpRequests.WithLabelValues("net-health", "GET", "unmatched", "404")); got != before+1 {
		t.Fatalf("unexpected unmatched count: %v", got)
	}
	if !strings.Contains(buf.String(), "WRN") {
		t.Fatalf("404 not logged at warn: %q", buf.String())
	}
}
