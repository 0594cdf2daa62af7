package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	createTableSQL = `
		CREATE TABLE IF NOT EXISTS tutoria_sessions (
			cache_key TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			ready BOOLEAN NOT NULL DEFAULT FALSE,
			ttl_seconds BIGINT NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_tutoria_sessions_session_id ON tutoria_sessions(session_id);
	`

	upsertSQL = `
		INSERT INTO tutoria_sessions (cache_key, session_id, ready, ttl_seconds, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (cache_key) DO UPDATE SET
			session_id = EXCLUDED.session_id,
			ready = EXCLUDED.ready,
			ttl_seconds = EXCLUDED.ttl_seconds,
			created_at = EXCLUDED.created_at
	`

	getSQL = `
		SELECT session_id, ready, ttl_seconds, created_at
		FROM tutoria_sessions
		WHERE cache_key = $1
	`

	deleteSQL = `DELETE FROM tutoria_sessions WHERE cache_key = $1`

	purgeExpiredSQL = `
		DELETE FROM tutoria_sessions
		WHERE created_at + make_interval(secs => ttl_seconds) <= NOW()
	`
)

// implements Store using PostgreSQL, for hosts running several replicas without Redis
type PostgresStore struct {
	db *pgxpool.Pool
}

// creates a new PostgreSQL session store
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// creates the required tables if they don't exist
func (s *PostgresStore) Initialize(ctx context.Context) error {
	_, err := s.db.Exec(ctx, createTableSQL)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, key string) (*Session, error) {
	var session Session
	var ttlSeconds int64

	err := s.db.QueryRow(ctx, getSQL, key).Scan(
		&session.ID, &session.Ready, &ttlSeconds, &session.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	session.TTL = time.Duration(ttlSeconds) * time.Second

	return &session, nil
}

func (s *PostgresStore) Set(ctx context.Context, key string, session *Session) error {
	_, err := s.db.Exec(ctx, upsertSQL,
		key,
		session.ID,
		session.Ready,
		int64(session.TTL/time.Second),
		session.CreatedAt,
	)
	return err
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.Exec(ctx, deleteSQL, key)
	return err
}

// removes rows whose backend session has expired, returns the count
func (s *PostgresStore) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, purgeExpiredSQL)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

// the pool is owned by the caller
func (s *PostgresStore) Close() error {
	return nil
}
