package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/welltegra/welltegra-api/internal/api"
	"github.com/welltegra/welltegra-api/internal/dataset"
	"github.com/welltegra/welltegra-api/internal/store"
	"github.com/welltegra/welltegra-api/internal/toolstring"
)

func fixture() dataset.Dataset {
	return dataset.Dataset{Runs: []dataset.Run{
		{
			RunID:    "r1",
			RunName:  "Byford Dolphin R16",
			WellName: "Anonymized",
			Tools: []dataset.Tool{
				{Position: 1, ToolName: "Packer", OD: 7.0, NeckOD: 4.2, Length: 4.2, Category: "completion"},
				{Position: 2, ToolName: "Jars", OD: 4.75, NeckOD: 3.0, Length: 3.0, Category: "fishing"},
			},
		},
		{
			RunID:   "r2",
			RunName: "Byford Dolphin R17",
			Tools: []dataset.Tool{
				{Position: 1, ToolName: "Jars", OD: 4.5, NeckOD: 2.8, Length: 2.8, Category: "fishing"},
			},
		},
	}}
}

func newHandler(t *testing.T) http.Handler {
	t.Helper()
	st := store.MemoryFromDataset(fixture())
	agg := toolstring.NewAggregator(st, toolstring.Limits{})
	return api.New(agg, st, "test")
}

// get performs a GET against h and returns the recorded response.
func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// decode unmarshals the recorded body into v.
func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type: got %q, want application/json", ct)
	}
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
}

// envelope mirrors the wire shape of the response wrapper.
type envelope struct {
	Status  string          `json:"status"`
	Count   *int            `json:"count"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// --- /api/v1/runs -----------------------------------------------------------

func TestListRuns(t *testing.T) {
	h := newHandler(t)

	w := get(t, h, "/api/v1/runs")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}
	var env envelope
	decode(t, w, &env)
	if env.Status != "success" {
		t.Errorf("status field: got %q", env.Status)
	}
	if env.Count == nil || *env.Count != 2 {
		t.Fatalf("count: got %v, want 2", env.Count)
	}

	var runs []toolstring.RunSummary
	if err := json.Unmarshal(env.Data, &runs); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if runs[0].ID != "r1" || runs[1].ID != "r2" {
		t.Errorf("default order: got %q, %q, want r1, r2", runs[0].ID, runs[1].ID)
	}
	if runs[0].ToolCount != 2 || runs[0].MaxOD != 7.0 {
		t.Errorf("r1 stats: got %+v", runs[0].RunStats)
	}
}

func TestListRuns_SortAndLimit(t *testing.T) {
	h := newHandler(t)

	w := get(t, h, "/api/v1/runs?sort_by=max_od&order=desc&limit=1")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}
	var env envelope
	decode(t, w, &env)
	if env.Count == nil || *env.Count != 1 {
		t.Fatalf("count: got %v, want 1", env.Count)
	}
	var runs []toolstring.RunSummary
	if err := json.Unmarshal(env.Data, &runs); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if runs[0].ID != "r1" {
		t.Errorf("top run by max_od: got %q, want r1", runs[0].ID)
	}
}

func TestListRuns_BadLimit(t *testing.T) {
	h := newHandler(t)
	for _, path := range []string{
		"/api/v1/runs?limit=abc",
		"/api/v1/runs?limit=0",
		"/api/v1/runs?limit=-5",
		"/api/v1/runs?limit=100000",
	} {
		w := get(t, h, path)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: got %d, want 400", path, w.Code)
			continue
		}
		var env envelope
		decode(t, w, &env)
		if env.Status != "error" || env.Message == "" {
			t.Errorf("%s: envelope %+v", path, env)
		}
	}
}

// --- /api/v1/runs/{id} ------------------------------------------------------

func TestGetRun(t *testing.T) {
	h := newHandler(t)

	w := get(t, h, "/api/v1/runs/r1")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}
	var env envelope
	decode(t, w, &env)
	if env.Count != nil {
		t.Error("single-run response must not carry a count")
	}

	var detail toolstring.RunDetail
	if err := json.Unmarshal(env.Data, &detail); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if detail.ID != "r1" || len(detail.Tools) != 2 {
		t.Fatalf("detail: got %+v", detail)
	}
	if detail.Tools[0].Position != 1 || detail.Tools[1].Position != 2 {
		t.Errorf("tools not ordered by position: %+v", detail.Tools)
	}
	if d := detail.Stats.TotalLength - 7.2; d > 1e-9 || d < -1e-9 {
		t.Errorf("total_length: got %v, want 7.2", detail.Stats.TotalLength)
	}
}

func TestGetRun_NotFound(t *testing.T) {
	h := newHandler(t)

	w := get(t, h, "/api/v1/runs/ghost")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", w.Code)
	}
	var env envelope
	decode(t, w, &env)
	if env.Status != "error" || !strings.Contains(env.Message, "ghost") {
		t.Errorf("envelope: %+v", env)
	}
}

func TestGetRun_TrailingSlashListsRuns(t *testing.T) {
	h := newHandler(t)

	w := get(t, h, "/api/v1/runs/")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}
	var env envelope
	decode(t, w, &env)
	if env.Count == nil || *env.Count != 2 {
		t.Errorf("bare subtree path should list runs, count: got %v", env.Count)
	}
}

// --- /api/v1/tools ----------------------------------------------------------

func TestListToolStats(t *testing.T) {
	h := newHandler(t)

	w := get(t, h, "/api/v1/tools")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}
	var env envelope
	decode(t, w, &env)
	if env.Count == nil || *env.Count != 2 {
		t.Fatalf("count: got %v, want 2", env.Count)
	}

	var stats []toolstring.ToolUsageStat
	if err := json.Unmarshal(env.Data, &stats); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	// Jars appears in both runs and sorts first on usage.
	if stats[0].ToolName != "Jars" || stats[0].UsageCount != 2 {
		t.Errorf("stats[0]: got %+v", stats[0])
	}
	if stats[0].AvgOD != 4.625 {
		t.Errorf("avg_od: got %v, want 4.625", stats[0].AvgOD)
	}
}

func TestListToolStats_CategoryFilter(t *testing.T) {
	h := newHandler(t)

	w := get(t, h, "/api/v1/tools?category=completion")
	var env envelope
	decode(t, w, &env)
	if env.Count == nil || *env.Count != 1 {
		t.Fatalf("count: got %v, want 1", env.Count)
	}

	// Unknown category is not an error: empty collection, count 0.
	w = get(t, h, "/api/v1/tools?category=imaginary")
	if w.Code != http.StatusOK {
		t.Fatalf("unknown category status: got %d, want 200", w.Code)
	}
	decode(t, w, &env)
	if env.Count == nil || *env.Count != 0 {
		t.Errorf("unknown category count: got %v, want 0", env.Count)
	}
	if string(env.Data) != "[]" {
		t.Errorf("unknown category data: got %s, want []", env.Data)
	}
}

func TestListToolStats_MinUsage(t *testing.T) {
	h := newHandler(t)

	w := get(t, h, "/api/v1/tools?min_usage=2")
	var env envelope
	decode(t, w, &env)
	if env.Count == nil || *env.Count != 1 {
		t.Fatalf("count: got %v, want 1 (only Jars used twice)", env.Count)
	}

	w = get(t, h, "/api/v1/tools?min_usage=zero")
	if w.Code != http.StatusBadRequest {
		t.Errorf("non-integer min_usage: got %d, want 400", w.Code)
	}
}

// --- /api/v1/analytics ------------------------------------------------------

func TestAnalytics(t *testing.T) {
	h := newHandler(t)

	w := get(t, h, "/api/v1/analytics")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}
	var env envelope
	decode(t, w, &env)
	if env.Count != nil {
		t.Error("analytics response must not carry a count")
	}

	var report toolstring.AnalyticsReport
	if err := json.Unmarshal(env.Data, &report); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if report.Summary.TotalRuns != 2 || report.Summary.TotalTools != 3 {
		t.Errorf("summary: got %+v", report.Summary)
	}
	if len(report.ByCategory) != 2 || report.ByCategory[0].Category != toolstring.CategoryFishing {
		t.Errorf("by_category: got %+v", report.ByCategory)
	}
}

// --- /api/v1/health ---------------------------------------------------------

func TestHealth(t *testing.T) {
	h := newHandler(t)

	w := get(t, h, "/api/v1/health")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}
	var hr api.HealthResponse
	decode(t, w, &hr)
	if hr.Status != "healthy" || hr.Store != "connected" {
		t.Errorf("health: got %+v", hr)
	}
	if hr.RunsCount != 2 {
		t.Errorf("runs_count: got %d, want 2", hr.RunsCount)
	}
	if hr.Timestamp == "" {
		t.Error("timestamp missing")
	}
}

// brokenStore fails every operation, standing in for an unreachable backend.
type brokenStore struct{ err error }

func (b brokenStore) FetchRuns(context.Context) ([]toolstring.Run, error) { return nil, b.err }
func (b brokenStore) FetchRun(context.Context, string) (toolstring.Run, bool, error) {
	return toolstring.Run{}, false, b.err
}
func (b brokenStore) FetchPlacements(context.Context, string) ([]toolstring.Placement, error) {
	return nil, b.err
}
func (b brokenStore) CountRuns(context.Context) (int, error) { return 0, b.err }
func (b brokenStore) Ping(context.Context) error             { return b.err }

func TestHealth_Unhealthy(t *testing.T) {
	st := brokenStore{err: errors.Join(toolstring.ErrUnavailable, errors.New("connection refused"))}
	h := api.New(toolstring.NewAggregator(st, toolstring.Limits{}), st, "test")

	w := get(t, h, "/api/v1/health")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d, want 503", w.Code)
	}
	var hr api.HealthResponse
	decode(t, w, &hr)
	if hr.Status != "unhealthy" || hr.Store != "unavailable" {
		t.Errorf("health: got %+v", hr)
	}
}

func TestStoreUnavailable(t *testing.T) {
	st := brokenStore{err: errors.Join(toolstring.ErrUnavailable, errors.New("connection refused"))}
	h := api.New(toolstring.NewAggregator(st, toolstring.Limits{}), st, "test")

	for _, path := range []string{"/api/v1/runs", "/api/v1/runs/r1", "/api/v1/tools", "/api/v1/analytics"} {
		w := get(t, h, path)
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: got %d, want 503", path, w.Code)
			continue
		}
		var env envelope
		decode(t, w, &env)
		if env.Status != "error" || env.Message != "record store unavailable" {
			t.Errorf("%s: envelope %+v", path, env)
		}
	}
}

// --- index and method handling ----------------------------------------------

func TestIndex(t *testing.T) {
	h := newHandler(t)

	w := get(t, h, "/")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}
	var idx api.IndexResponse
	decode(t, w, &idx)
	if idx.Version != "test" || len(idx.Endpoints) == 0 {
		t.Errorf("index: got %+v", idx)
	}
}

func TestIndex_UnknownPath(t *testing.T) {
	h := newHandler(t)

	w := get(t, h, "/nope")
	if w.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", w.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := newHandler(t)
	for _, path := range []string{"/", "/api/v1/health", "/api/v1/runs", "/api/v1/runs/r1", "/api/v1/tools", "/api/v1/analytics"} {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("POST %s: got %d, want 405", path, w.Code)
		}
	}
}
