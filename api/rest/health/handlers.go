package health

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const version = "1.0.0"

// Handler godoc
// @Summary Health check
// @Description Reports service status and which session store is in use
// @Tags health
// @Produce json
// @Success 200 {object} Response
// @Router /health [get]
func Handler(sessionStore string, backendConfigured bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, Response{
			Status:            "healthy",
			Service:           "tutoria",
			Version:           version,
			SessionStore:      sessionStore,
			BackendConfigured: backendConfigured,
		})
	}
}

// PingHandler godoc
// @Summary Ping
// @Tags health
// @Produce json
// @Success 200 {object} PingResponse
// @Router /api/v1/ping [get]
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, PingResponse{
		Message: "pong",
	})
}
