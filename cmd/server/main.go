package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/tutoria/server/internal/config"
	"codeberg.org/tutoria/server/internal/logger"
)

//go:generate swag init -g main.go -d ./,../../api,../../internal -o ../../api/docs

// @title Tutor-IA chat API
// @version 1.0
// @description Host service between course pages and the Tutor-IA backend.
// @description
// @description Features:
// @description - One backend session per course, cached until shortly before it expires
// @description - Replies streamed over server-sent events or a websocket relay
// @description - Paged conversation history

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT issued by the LMS. Format: Bearer {token}

func main() {
	logger.Info("starting tutoria server")

	// load configuration from environment
	cfg, err := config.LoadEnvironmentVariables()
	if err != nil {
		logger.Fatal("failed to load configuration", "error", err)
	}

	if !cfg.BackendConfigured() {
		logger.Warn("TUTORIA_API_URL or TUTORIA_API_TOKEN not set, chat requests will be refused")
	}

	srv, err := NewServer(cfg)
	if err != nil {
		logger.Fatal("failed to create server", "error", err)
	}

	httpServer := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     srv.router,
		ReadTimeout: 15 * time.Second,
		// no write timeout, the websocket relay holds the connection for a whole reply
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed to start", "error", err)
		}
	}()

	janitorCtx, janitorCancel := context.WithCancel(context.Background())
	srv.StartStoreJanitor(janitorCtx)

	// wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	janitorCancel()

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	srv.services.Close()

	logger.Info("server stopped")
}
