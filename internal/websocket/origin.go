package websocket

import (
	"net/http"
	"slices"

	"codeberg.org/tutoria/server/internal/logger"
)

// builds an upgrader origin check; outside production every origin is accepted
func CheckOrigin(production bool, allowedOrigins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		if !production {
			return true
		}

		origin := r.Header.Get("Origin")
		if origin == "" {
			// non-browser clients (the terminal drawer) send no origin
			return true
		}

		if len(allowedOrigins) == 0 {
			logger.Warn("websocket origin rejected - CORS_ALLOWED_ORIGINS not configured",
				"origin", origin,
			)
			return false
		}

		if slices.Contains(allowedOrigins, origin) {
			return true
		}

		logger.Warn("websocket origin rejected - not in allowed origins",
			"origin", origin,
			"allowed_origins", allowedOrigins,
		)

		return false
	}
}
