package main

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/swaggo/swag"

	"codeberg.org/tutoria/server/api/docs"
	"codeberg.org/tutoria/server/api/rest/chat"
	"codeberg.org/tutoria/server/api/rest/health"
	"codeberg.org/tutoria/server/api/websocket"
	"codeberg.org/tutoria/server/internal/auth"
	"codeberg.org/tutoria/server/internal/errors"
	"codeberg.org/tutoria/server/internal/logger"
	ws "codeberg.org/tutoria/server/internal/websocket"
)

// sets up all API routes and middleware
func RegisterRoutes(router *gin.Engine, server *Server) {
	router.Use(RequestIDMiddleware())
	router.Use(CORSMiddleware(server.config.CORSAllowedOrigins))
	router.Use(server.limiter.Middleware())

	router.GET("/health", health.Handler(string(server.config.SessionStore), server.services.Tutoria.Configured()))
	router.GET("/swagger/doc.json", SwaggerHandler)

	v1 := router.Group("/api/v1")

	{
		v1.GET("/ping", health.PingHandler)

		protected := v1.Group("")
		protected.Use(auth.AuthMiddleware())

		chat.RegisterRoutes(protected, server.services.Chat)
		websocket.RegisterRoutes(protected, server.services.Chat, server.services.Opener,
			ws.CheckOrigin(server.config.IsProduction(), server.config.CORSAllowedOrigins))
	}
}

// allows the configured LMS origins; everything in development
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}

	if len(allowedOrigins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowedOrigins
		cfg.AllowCredentials = true
	}

	return cors.New(cfg)
}

// tags each request with an id and a logger carrying it
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		reqLogger := logger.With("request_id", requestID)
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), reqLogger))

		start := time.Now()
		c.Next()

		reqLogger.Debug("request handled",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// serves the registered swagger document
func SwaggerHandler(c *gin.Context) {
	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		errors.InternalError(c, "failed to read API docs", err)
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(doc))
}
