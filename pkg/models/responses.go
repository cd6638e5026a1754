package models

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// HealthResponse reports the state of the service dependencies
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}
