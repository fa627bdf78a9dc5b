package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInstrument_CountsRequests(t *testing.T) {
	m := New()
	h := m.Instrument(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil)
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	got := testutil.ToFloat64(m.requests.WithLabelValues("/api/v1/runs", "GET", "200"))
	if got != 3 {
		t.Errorf("counter: got %v, want 3", got)
	}
}

func TestInstrument_RecordsStatusCode(t *testing.T) {
	m := New()
	h := m.Instrument(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/ghost", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	got := testutil.ToFloat64(m.requests.WithLabelValues("/api/v1/runs/{id}", "GET", "404"))
	if got != 1 {
		t.Errorf("counter: got %v, want 1", got)
	}
}

func TestRouteLabel(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"/", "/"},
		{"/api/v1/runs", "/api/v1/runs"},
		{"/api/v1/runs/", "/api/v1/runs/"},
		{"/api/v1/runs/byford-r16", "/api/v1/runs/{id}"},
		{"/api/v1/tools", "/api/v1/tools"},
		{"/api/v1/analytics", "/api/v1/analytics"},
		{"/api/v1/health", "/api/v1/health"},
		{"/metrics", "/metrics"},
		{"/favicon.ico", "other"},
	}
	for _, tc := range cases {
		if got := routeLabel(tc.path); got != tc.want {
			t.Errorf("routeLabel(%q): got %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestHandler_ExposesMetrics(t *testing.T) {
	m := New()
	h := m.Instrument(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "welltegra_http_requests_total") {
		t.Error("exposition missing welltegra_http_requests_total")
	}
}
