// Package chat holds the host-side chat operations: creating a message,
// reading history and deleting a session for a course.
package chat

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"codeberg.org/tutoria/server/internal/chaterr"
	"codeberg.org/tutoria/server/internal/history"
	"codeberg.org/tutoria/server/internal/logger"
	"codeberg.org/tutoria/server/internal/pagecontext"
	"codeberg.org/tutoria/server/internal/sessions"
	"codeberg.org/tutoria/server/internal/tutoria"
)

// backend calls the service makes outside the session manager
type Backend interface {
	Configured() bool
	History(ctx context.Context, sessionID string, limit, offset int) (*tutoria.HistoryResponse, error)
	DeleteSession(ctx context.Context, sessionID string) (*tutoria.DeleteSessionResponse, error)
	StreamURL(sessionID string) string
}

var (
	ErrUnknownSession   = errors.New("session does not belong to this course")
	ErrNotCourseContext = errors.New("chat is only available inside a course")
)

type Service struct {
	cfg      Config
	sessions *sessions.Manager
	backend  Backend
	now      func() time.Time
}

func NewService(cfg Config, mgr *sessions.Manager, backend Backend) *Service {
	if cfg.OffTopicStrictness == "" {
		cfg.OffTopicStrictness = defaultStrictness
	}

	return &Service{
		cfg:      cfg,
		sessions: mgr,
		backend:  backend,
		now:      time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// checks the enabled flag and backend configuration
func (s *Service) available(ctx context.Context) error {
	if err := s.enabled(); err != nil {
		return err
	}

	if s.backend == nil || !s.backend.Configured() {
		err := chaterr.New(chaterr.BackendUnconfigured, "backend credentials missing")
		if IdentityFrom(ctx).IsAdmin {
			err.ConfigURL = s.cfg.AdminConfigURL
		}

		return err
	}

	return nil
}

func (s *Service) enabled() error {
	if !s.cfg.Enabled {
		return chaterr.New(chaterr.BackendUnconfigured, "tutor disabled")
	}

	return nil
}

// scopes ctx to the caller's own sessions for a real course
func scoped(ctx context.Context, courseID int64) (context.Context, error) {
	if !pagecontext.IsCourseContext(pagecontext.Page{CourseID: courseID}) {
		return ctx, ErrNotCourseContext
	}

	return sessions.WithOwner(ctx, IdentityFrom(ctx).UserID), nil
}

// validates a message, opens or reuses the course session, forwards the
// message and returns where to read the reply from
func (s *Service) CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	if err := s.available(ctx); err != nil {
		return nil, err
	}

	ctx, err := scoped(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}

	text, err := ValidateMessage(req.Message)
	if err != nil {
		return nil, err
	}

	meta := s.buildMeta(ctx, req.Meta)

	// the session is per user and course; the module travels with the message
	session, err := s.sessions.EnsureSession(ctx, req.CourseID, 0)
	if err != nil {
		return nil, err
	}

	streamURL, err := s.sessions.SendMessage(ctx, sessions.Message{
		SessionID: session.ID,
		Text:      text,
		Meta:      meta,
		UserID:    IdentityFrom(ctx).UserID,
		CMID:      req.CMID,
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("chat message sent",
		"course_id", req.CourseID,
		"cmid", req.CMID,
		"session_id", session.ID,
	)

	return &MessageResponse{
		SessionID: session.ID,
		StreamURL: streamURL,
		ExpiresAt: s.now().Add(session.TTL).Unix(),
	}, nil
}

func (s *Service) buildMeta(ctx context.Context, in map[string]any) map[string]any {
	meta := make(map[string]any, len(in)+4)
	for k, v := range in {
		meta[k] = v
	}

	meta["userid"] = IdentityFrom(ctx).UserID
	meta["off_topic_detection_enabled"] = s.cfg.OffTopicDetection
	meta["off_topic_strictness"] = s.cfg.OffTopicStrictness

	if s.cfg.CustomPrompt != "" {
		meta["custom_prompt"] = s.cfg.CustomPrompt
	}

	return meta
}

// returns one page of the course session history
func (s *Service) History(ctx context.Context, req HistoryRequest) (*HistoryResponse, error) {
	if err := s.enabled(); err != nil {
		return nil, err
	}

	ctx, err := scoped(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}

	limit, offset := history.Clamp(req.Limit, req.Offset)

	session, err := s.sessions.EnsureSession(ctx, req.CourseID, 0)
	if err != nil {
		return nil, err
	}

	resp, err := s.backend.History(ctx, session.ID, limit, offset)
	if err != nil {
		return nil, chaterr.Wrap(chaterr.HistoryFetchFailure, err)
	}

	return &HistoryResponse{
		Success:       resp.Success,
		SessionID:     resp.SessionID,
		TotalMessages: resp.TotalMessages,
		Messages:      resp.Messages,
		Pagination:    resp.Pagination,
	}, nil
}

// resolves the backend stream address for the course session, refusing
// session ids the course is not currently using
func (s *Service) StreamURL(ctx context.Context, courseID int64, sessionID string) (string, error) {
	if err := s.available(ctx); err != nil {
		return "", err
	}

	ctx, err := scoped(ctx, courseID)
	if err != nil {
		return "", err
	}

	session, err := s.sessions.EnsureSession(ctx, courseID, 0)
	if err != nil {
		return "", err
	}

	if session.ID != sessionID {
		return "", ErrUnknownSession
	}

	return s.backend.StreamURL(sessionID), nil
}

// deletes the caller's course session; only the cached session id of the
// course is accepted and backend failures are logged and reported as not deleted
func (s *Service) DeleteSession(ctx context.Context, req DeleteRequest) (*DeleteResponse, error) {
	if err := s.enabled(); err != nil {
		return nil, err
	}

	ctx, err := scoped(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}

	current, err := s.sessions.Lookup(ctx, req.CourseID, 0)
	if err != nil {
		return nil, err
	}

	if current == nil || current.ID != req.SessionID {
		return nil, ErrUnknownSession
	}

	resp, err := s.backend.DeleteSession(ctx, req.SessionID)
	if err != nil {
		logger.Warn("failed to delete tutor session",
			"session_id", req.SessionID,
			"error", err,
		)

		return &DeleteResponse{Deleted: false}, nil
	}

	if resp.Deleted {
		if err := s.sessions.Invalidate(ctx, req.CourseID, 0); err != nil {
			logger.Warn("failed to evict session cache", "course_id", req.CourseID, "error", err)
		}
	}

	return &DeleteResponse{Deleted: resp.Deleted}, nil
}

// trims, checks and sanitizes user input; the same rules run in the widget
// before anything is sent
func ValidateMessage(raw string) (string, error) {
	text := strings.TrimSpace(raw)

	if text == "" || text == "." {
		return "", chaterr.New(chaterr.EmptyOrInvalidMessage, "")
	}

	if utf8.RuneCountInString(text) > MaxMessageLength {
		return "", chaterr.New(chaterr.MessageTooLong, "")
	}

	return Sanitize(text), nil
}

// strips angle brackets from user text
func Sanitize(text string) string {
	return strings.NewReplacer("<", "", ">", "").Replace(text)
}
