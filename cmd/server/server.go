package main

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/tutoria/server/internal/config"
	"codeberg.org/tutoria/server/internal/logger"
	"codeberg.org/tutoria/server/internal/ratelimit"
	"github.com/gin-gonic/gin"
)

// how often expired rows are removed from the postgres session store
const storePurgeInterval = 15 * time.Minute

// creates and configures a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	ctx := context.Background()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	services, err := InitializeServices(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	rateConfig := ratelimit.DefaultConfig()
	rateConfig.Rate = cfg.RateLimit

	// shares the session store's redis connection when there is one
	limiter, err := ratelimit.New(rateConfig, services.Redis)
	if err != nil {
		services.Close()
		return nil, fmt.Errorf("failed to initialize rate limiter: %w", err)
	}

	logger.Info("services initialized",
		"session_store", cfg.SessionStore,
		"backend_configured", services.Tutoria.Configured(),
		"tutor_enabled", cfg.TutoriaEnabled,
		"rate_limit", rateConfig.Rate,
	)

	router := gin.New()
	router.Use(gin.Recovery())

	server := &Server{
		config:   cfg,
		services: services,
		limiter:  limiter,
		router:   router,
	}

	RegisterRoutes(router, server)

	return server, nil
}

// periodically purges expired postgres rows; memory and redis expire on their own
func (s *Server) StartStoreJanitor(ctx context.Context) {
	if s.services.Postgres == nil {
		return
	}

	go func() {
		ticker := time.NewTicker(storePurgeInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				purged, err := s.services.Postgres.PurgeExpired(ctx)
				if err != nil {
					logger.ErrorErr(err, "failed to purge expired sessions")
					continue
				}

				if purged > 0 {
					logger.Debug("purged expired sessions", "count", purged)
				}
			}
		}
	}()
}

func logClose(what string, err error) {
	logger.Warn("failed to close "+what, "error", err)
}
