package dto

// HealthyStatusCode is the status_code value reported by a healthy service.
const HealthyStatusCode = 200

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	StatusCode int    `json:"status_code"`
	Datetime   string `json:"datetime"`
}
