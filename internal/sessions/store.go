package sessions

import "context"

// persists sessions by cache key; Get returns nil, nil when nothing is stored
type Store interface {
	Get(ctx context.Context, key string) (*Session, error)
	Set(ctx context.Context, key string, session *Session) error
	Delete(ctx context.Context, key string) error
	Close() error
}
