package sessions

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"codeberg.org/tutoria/server/internal/chaterr"
	"codeberg.org/tutoria/server/internal/logger"
	"codeberg.org/tutoria/server/internal/tutoria"
)

// the subset of the Tutor-IA client the manager calls
type Backend interface {
	StartSession(ctx context.Context, courseID, cmID int64) (*tutoria.StartSessionResponse, error)
	SendMessage(ctx context.Context, req tutoria.SendMessageRequest) (*tutoria.SendMessageResponse, error)
}

// a user message bound for an existing session
type Message struct {
	SessionID string
	Text      string
	Meta      map[string]any
	UserID    string
	CMID      int64
}

// obtains, caches and reuses backend chat sessions per course context,
// separately for every owner set with WithOwner
type Manager struct {
	backend Backend
	store   Store
	now     func() time.Time
	starts  singleflight.Group
}

// returns a new session manager
func NewManager(backend Backend, store Store) *Manager {
	return &Manager{
		backend: backend,
		store:   store,
		now:     time.Now,
	}
}

// replaces the clock, used by tests to move past the expiry margin
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// returns a reusable session for the course context, starting a new one
// on the backend when the cached entry is missing or about to expire
func (m *Manager) EnsureSession(ctx context.Context, courseID, cmID int64) (*Session, error) {
	if m.backend == nil {
		return nil, ErrNilBackend
	}

	if m.store == nil {
		return nil, ErrNilStore
	}

	key := scopedKey(ctx, courseID, cmID)

	cached, err := m.store.Get(ctx, key)
	if err != nil {
		// a broken cache must not block chatting, fall through to the backend
		logger.Warn("session cache read failed", "key", key, "error", err)
	}

	if cached.ValidAt(m.now()) {
		return cached, nil
	}

	// concurrent requests for the same owner and course share one backend start
	result, err, _ := m.starts.Do(key, func() (any, error) {
		return m.start(ctx, key, courseID, cmID)
	})
	if err != nil {
		return nil, err
	}

	return result.(*Session), nil
}

func (m *Manager) start(ctx context.Context, key string, courseID, cmID int64) (*Session, error) {
	resp, err := m.backend.StartSession(ctx, courseID, cmID)
	if err != nil {
		kind := chaterr.Classify(err.Error())
		if kind == chaterr.UnknownError {
			kind = chaterr.SessionNotReady
		}

		return nil, chaterr.Wrap(kind, err)
	}

	if !resp.Ready || resp.SessionID == "" {
		return nil, chaterr.New(chaterr.SessionNotReady, fmt.Sprintf("session %q not ready", resp.SessionID))
	}

	session := &Session{
		ID:        resp.SessionID,
		Ready:     resp.Ready,
		TTL:       resp.TTL(),
		CreatedAt: m.now(),
	}

	if err := m.store.Set(ctx, key, session); err != nil {
		logger.Warn("session cache write failed", "key", key, "error", err)
	}

	logger.Debug("session started",
		"key", key,
		"session_id", session.ID,
		"ttl", session.TTL,
	)

	return session, nil
}

// forwards a message to the backend and returns the stream address to
// read the reply from
func (m *Manager) SendMessage(ctx context.Context, msg Message) (string, error) {
	if m.backend == nil {
		return "", ErrNilBackend
	}

	req := tutoria.SendMessageRequest{
		SessionID: msg.SessionID,
		Content:   msg.Text,
		Meta:      msg.Meta,
		UserID:    msg.UserID,
	}

	if msg.CMID > 0 {
		cmID := msg.CMID
		req.CMID = &cmID
	}

	resp, err := m.backend.SendMessage(ctx, req)
	if err != nil {
		if chaterr.KindOf(err) != chaterr.UnknownError {
			return "", err
		}

		return "", chaterr.Wrap(chaterr.Classify(err.Error()), err)
	}

	return resp.StreamURL, nil
}

// returns the cached session for a course context without starting one,
// nil when nothing is cached or the backend has already expired it
func (m *Manager) Lookup(ctx context.Context, courseID, cmID int64) (*Session, error) {
	if m.store == nil {
		return nil, ErrNilStore
	}

	cached, err := m.store.Get(ctx, scopedKey(ctx, courseID, cmID))
	if err != nil {
		return nil, fmt.Errorf("failed to read session cache: %w", err)
	}

	if cached == nil || cached.ID == "" || !m.now().Before(cached.ExpiresAt()) {
		return nil, nil
	}

	return cached, nil
}

// drops the cached session for a course context
func (m *Manager) Invalidate(ctx context.Context, courseID, cmID int64) error {
	if m.store == nil {
		return ErrNilStore
	}

	return m.store.Delete(ctx, scopedKey(ctx, courseID, cmID))
}
