package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/welltegra/welltegra-api/internal/toolstring"
)

// Handler is the HTTP handler for the service. It translates query
// parameters into aggregator calls and aggregator errors into response
// envelopes.
type Handler struct {
	agg     *toolstring.Aggregator
	store   toolstring.Store
	version string
	mux     *http.ServeMux
}

// New creates a Handler wired to the given aggregator and record store and
// registers all routes. The store is consulted directly only by the health
// endpoint; everything else goes through the aggregator.
func New(agg *toolstring.Aggregator, st toolstring.Store, version string) http.Handler {
	h := &Handler{agg: agg, store: st, version: version, mux: http.NewServeMux()}

	h.mux.HandleFunc("/", h.index)
	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/runs", h.listRuns)
	h.mux.HandleFunc("/api/v1/runs/", h.getRun) // subtree — extracts {id}
	h.mux.HandleFunc("/api/v1/tools", h.listToolStats)
	h.mux.HandleFunc("/api/v1/analytics", h.analytics)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// index returns GET / — the service self-description.
func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		jsonErr(w, http.StatusNotFound, "endpoint not found")
		return
	}
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, IndexResponse{
		Name:        "WellTegra Historical Toolstring API",
		Version:     h.version,
		Description: "Read-only API for historical toolstring runs and tool usage statistics",
		Endpoints: map[string]string{
			"GET /api/v1/runs":      "All historical toolstring runs with derived stats",
			"GET /api/v1/runs/{id}": "Single run with its ordered tool placements",
			"GET /api/v1/tools":     "Tool usage statistics across all runs",
			"GET /api/v1/analytics": "Dataset summary and per-category breakdown",
			"GET /api/v1/health":    "Health check",
			"GET /metrics":          "Prometheus metrics",
		},
	})
}

// health returns GET /api/v1/health — store connectivity and run count.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if err := h.store.Ping(r.Context()); err != nil {
		slog.Error("health: store ping failed", "err", err)
		jsonResp(w, http.StatusServiceUnavailable, HealthResponse{
			Status:    "unhealthy",
			Store:     "unavailable",
			Timestamp: now,
			Message:   err.Error(),
		})
		return
	}
	count, err := h.store.CountRuns(r.Context())
	if err != nil {
		slog.Error("health: count runs failed", "err", err)
		jsonResp(w, http.StatusServiceUnavailable, HealthResponse{
			Status:    "unhealthy",
			Store:     "unavailable",
			Timestamp: now,
			Message:   err.Error(),
		})
		return
	}
	jsonResp(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Store:     "connected",
		RunsCount: count,
		Timestamp: now,
	})
}

// listRuns returns GET /api/v1/runs — all runs with derived stats.
// Query parameters: limit, sort_by, order.
func (h *Handler) listRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit, err := intParam(r, "limit")
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}

	runs, err := h.agg.ListRuns(r.Context(), toolstring.ListRunsOptions{
		SortBy: r.URL.Query().Get("sort_by"),
		Order:  r.URL.Query().Get("order"),
		Limit:  limit,
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	jsonList(w, runs, len(runs))
}

// getRun returns GET /api/v1/runs/{id} — a single run with its tools.
func (h *Handler) getRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/v1/runs/")
	if id == "" {
		// Redirect bare /api/v1/runs/ to the list handler.
		h.listRuns(w, r)
		return
	}

	detail, err := h.agg.GetRun(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	jsonSuccess(w, detail)
}

// listToolStats returns GET /api/v1/tools — per-name usage statistics.
// Query parameters: category, limit, min_usage.
func (h *Handler) listToolStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit, err := intParam(r, "limit")
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}
	minUsage, err := intParam(r, "min_usage")
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := h.agg.ListToolStats(r.Context(), toolstring.ToolStatsOptions{
		Category: r.URL.Query().Get("category"),
		Limit:    limit,
		MinUsage: minUsage,
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	jsonList(w, stats, len(stats))
}

// analytics returns GET /api/v1/analytics — the dataset-wide roll-up.
func (h *Handler) analytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	report, err := h.agg.Analytics(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	jsonSuccess(w, report)
}

// --- helpers ----------------------------------------------------------------

// fail maps an aggregator error to the boundary status code and error
// envelope. Unknown errors are logged and reported as internal.
func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, toolstring.ErrInvalidArgument):
		jsonErr(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, toolstring.ErrNotFound):
		jsonErr(w, http.StatusNotFound, err.Error())
	case errors.Is(err, toolstring.ErrUnavailable):
		slog.Error("record store unavailable", "err", err)
		jsonErr(w, http.StatusServiceUnavailable, "record store unavailable")
	default:
		slog.Error("request failed", "err", err)
		jsonErr(w, http.StatusInternalServerError, "internal server error")
	}
}

// intParam reads an optional positive integer query parameter. Absent
// means 0 (use the default); present-but-invalid is an error.
func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	if n < 1 {
		return 0, fmt.Errorf("%s must be positive", name)
	}
	return n, nil
}

func jsonResp(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// jsonSuccess writes a single-result success envelope (no count).
func jsonSuccess(w http.ResponseWriter, data any) {
	jsonResp(w, http.StatusOK, envelope{Status: "success", Data: data})
}

// jsonList writes a collection success envelope with its count.
func jsonList(w http.ResponseWriter, data any, count int) {
	jsonResp(w, http.StatusOK, envelope{Status: "success", Count: &count, Data: data})
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, envelope{Status: "error", Message: msg})
}
