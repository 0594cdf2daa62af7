package errors

// represents a standardized error response
type ErrorResponse struct {
	Error     string `json:"error"`                // error code (e.g., "unauthorized", "session_not_ready")
	Message   string `json:"message"`              // user-friendly message
	Details   string `json:"details,omitempty"`    // optional details (sanitized in production)
	ConfigURL string `json:"config_url,omitempty"` // admin-only link to the plugin settings
}

type ErrorInfo struct {
	category  string
	sanitized string
}
