package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRoutesLiveness(t *testing.T) {
	rec := httptest.NewRecorder()
	Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("liveness returned %d", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("liveness body = %q", rec.Body.String())
	}
}

func TestRoutesHealthReport(t *testing.T) {
	InitHealthChecker()

	rec := httptest.NewRecorder()
	Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("health returned %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("health content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), `"status"`) {
		t.Errorf("health body missing status field: %s", rec.Body.String())
	}
}

func TestRoutesMetrics(t *testing.T) {
	InitMetrics()

	rec := httptest.NewRecorder()
	Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("metrics returned %d", rec.Code)
	}
}
