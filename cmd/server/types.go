package main

import (
	"codeberg.org/tutoria/server/internal/chat"
	"codeberg.org/tutoria/server/internal/config"
	"codeberg.org/tutoria/server/internal/ratelimit"
	"codeberg.org/tutoria/server/internal/sessions"
	"codeberg.org/tutoria/server/internal/stream"
	"codeberg.org/tutoria/server/internal/tutoria"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// holds all dependencies and state for the API server
type Server struct {
	config   *config.Config
	services *Services
	limiter  *ratelimit.Limiter
	router   *gin.Engine
}

// holds the backend client, the session layer and the stores behind it
type Services struct {
	Tutoria  *tutoria.Client
	Sessions *sessions.Manager
	Chat     *chat.Service
	Opener   stream.Opener

	Store sessions.Store

	// set when the matching store is selected
	Redis    *redis.Client
	DB       *pgxpool.Pool
	Postgres *sessions.PostgresStore
}
