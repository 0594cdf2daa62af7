package main

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/tutoria/server/internal/chat"
	"codeberg.org/tutoria/server/internal/config"
	"codeberg.org/tutoria/server/internal/sessions"
	"codeberg.org/tutoria/server/internal/stream"
	"codeberg.org/tutoria/server/internal/tutoria"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// creates the tutor backend client, the session store and the chat service
func InitializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{
		Tutoria: tutoria.NewClient(tutoria.Config{
			BaseURL: cfg.TutoriaAPIURL,
			Token:   cfg.TutoriaAPIToken,
		}),
		// no client timeout, a stream lives as long as the reply
		Opener: stream.NewHTTPOpener(nil),
	}

	if err := services.initStore(ctx, cfg); err != nil {
		return nil, err
	}

	services.Sessions = sessions.NewManager(services.Tutoria, services.Store)
	services.Chat = chat.NewService(chat.Config{
		Enabled:            cfg.TutoriaEnabled,
		AdminConfigURL:     cfg.AdminConfigURL,
		OffTopicDetection:  cfg.OffTopicDetection,
		OffTopicStrictness: cfg.OffTopicStrictness,
		CustomPrompt:       cfg.CustomPrompt,
	}, services.Sessions, services.Tutoria)

	return services, nil
}

func (s *Services) initStore(ctx context.Context, cfg *config.Config) error {
	switch cfg.SessionStore {
	case config.StoreRedis:
		store, err := sessions.NewRedisStoreFromURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to initialize redis session store: %w", err)
		}

		s.Store = store
		s.Redis = store.Client()

	case config.StorePostgres:
		db, err := newPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}

		store := sessions.NewPostgresStore(db)
		if err := store.Initialize(ctx); err != nil {
			db.Close()
			return fmt.Errorf("failed to initialize postgres session store: %w", err)
		}

		s.Store = store
		s.DB = db
		s.Postgres = store

	default:
		s.Store = sessions.NewMemoryStore()
	}

	return nil
}

func newPool(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// the store does a handful of single-row queries per chat message
	poolConfig.MaxConns = 5
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	// pgBouncer in transaction mode doesn't support prepared statements
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	db, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// releases the store and its connections
func (s *Services) Close() {
	if err := s.Store.Close(); err != nil {
		logClose("session store", err)
	}

	if s.DB != nil {
		s.DB.Close()
	}
}
