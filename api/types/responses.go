package types

// Status constants for API responses
const (
	StatusOK        = "ok"
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// ErrorResponse is the JSON error envelope of every failed request
type ErrorResponse struct {
	Error   string      `json:"error" example:"Study not found"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse acknowledges a write
type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
}

// ComponentStatus reports the state of one backing component
type ComponentStatus struct {
	Status string `json:"status" example:"healthy"`
	Error  string `json:"error,omitempty"`
}

// HealthResponse for health check endpoint
type HealthResponse struct {
	Status    string          `json:"status" example:"ok"`
	Timestamp string          `json:"timestamp" example:"2026-01-01T00:00:00Z"`
	Storage   ComponentStatus `json:"storage"`
	Database  ComponentStatus `json:"database"`
}

// VersionResponse for the version endpoint
type VersionResponse struct {
	Name        string `json:"name" example:"Study Sync API"`
	Version     string `json:"version" example:"1.0.0"`
	Description string `json:"description"`
	Status      string `json:"status" example:"running"`
}
