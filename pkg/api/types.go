package api

const (
	StatusSuccess = "success"
	StatusFailure = "failure"

	HealthHealthy   = "healthy"
	HealthUnhealthy = "unhealthy"
)

// GenerationRequest is the body of a document generation call.
type GenerationRequest struct {
	TemplatePath      string         `json:"template_path" binding:"required"`
	GenerationContext map[string]any `json:"generation_context" binding:"required"`
	DestinationPath   string         `json:"destination_path" binding:"required"`
}

// GenerationResponse reports the outcome of a generation call.
type GenerationResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HealthResponse is the payload of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

// TemplateList is the payload of the template catalogue endpoint.
type TemplateList struct {
	Templates []string `json:"templates"`
}
