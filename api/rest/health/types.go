package health

type Response struct {
	Status            string `json:"status"`
	Service           string `json:"service"`
	Version           string `json:"version,omitempty"`
	SessionStore      string `json:"session_store"`
	BackendConfigured bool   `json:"backend_configured"`
}

type PingResponse struct {
	Message string `json:"message"`
}
