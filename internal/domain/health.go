package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual service.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	Detail      string `json:"detail,omitempty"`
	LastChecked string `json:"lastChecked"`
}

// RotessaMetrics is returned by GET /v1/metrics/rotessa.
type RotessaMetrics struct {
	TotalCalls     int64            `json:"totalCalls"`
	APIErrors      int64            `json:"apiErrors"`
	RequestErrors  int64            `json:"requestErrors"`
	Unexpected     int64            `json:"unexpectedResponses"`
	Timeouts       int64            `json:"timeouts"`
	ErrorRate      float64          `json:"errorRate"`
	CallsByOutcome map[string]int64 `json:"callsByOutcome"`
	Period         string           `json:"period"`
}

// ============================================================
// Generic API Response wrappers
// ============================================================

// ListResponse wraps list results.
type ListResponse[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
	Page  int `json:"page,omitempty"`
}

// ErrorResponse is the gateway's error body.
type ErrorResponse struct {
	Error    string        `json:"error"`
	Kind     string        `json:"kind,omitempty"`
	Upstream int           `json:"upstreamStatus,omitempty"`
	Details  []ErrorDetail `json:"details,omitempty"`
	CallID   string        `json:"callId,omitempty"`
}

// CustomerBatch is returned by GET /v1/customers/batch. Ids the provider does
// not know are listed in Missing.
type CustomerBatch struct {
	Customers []CustomerDetail `json:"customers"`
	Missing   []int64          `json:"missing,omitempty"`
}
