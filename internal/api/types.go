package api

// envelope is the uniform response wrapper. Count is present only for
// collection results; Message only for failures.
type envelope struct {
	Status  string `json:"status"`
	Count   *int   `json:"count,omitempty"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is the payload for GET /api/v1/health. It is not
// enveloped: monitoring probes read it flat.
type HealthResponse struct {
	Status    string `json:"status"`
	Store     string `json:"store"`
	RunsCount int    `json:"runs_count"`
	Timestamp string `json:"timestamp"` // RFC3339
	Message   string `json:"message,omitempty"`
}

// IndexResponse is the payload for GET /.
type IndexResponse struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Description string            `json:"description"`
	Endpoints   map[string]string `json:"endpoints"`
}
