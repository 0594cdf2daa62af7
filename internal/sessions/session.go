package sessions

import (
	"fmt"
	"time"
)

// sessions are treated as stale this long before the backend expires them
const ExpiryMargin = time.Hour

// a backend chat session as cached per course
type Session struct {
	ID        string        `json:"session_id"`
	Ready     bool          `json:"ready"`
	TTL       time.Duration `json:"ttl"`
	CreatedAt time.Time     `json:"created_at"`
}

// when the backend will drop the session
func (s *Session) ExpiresAt() time.Time {
	return s.CreatedAt.Add(s.TTL)
}

// reports whether the session can still be reused at now
func (s *Session) ValidAt(now time.Time) bool {
	if s == nil || s.ID == "" || s.TTL <= 0 || s.CreatedAt.IsZero() {
		return false
	}

	return now.Sub(s.CreatedAt) < s.TTL-ExpiryMargin
}

// cache key for a course and optional course module
func Key(courseID, cmID int64) string {
	if cmID > 0 {
		return fmt.Sprintf("session_%d_%d", courseID, cmID)
	}

	return fmt.Sprintf("session_%d", courseID)
}
