package tutoria

import (
	"fmt"
	"time"
)

const (
	// used when the backend omits session_ttl_seconds
	DefaultSessionTTL = 7 * 24 * time.Hour

	defaultTimeout           = 30 * time.Second
	defaultRequestsPerSecond = 20
	defaultBurst             = 10
)

type Config struct {
	BaseURL string
	Token   string

	// optional, zero values fall back to defaults
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

type startSessionRequest struct {
	CourseID string `json:"course_id"`
	CMID     string `json:"cmid,omitempty"`
}

// backend answer to POST /chat/start
type StartSessionResponse struct {
	SessionID         string `json:"session_id"`
	Ready             bool   `json:"ready"`
	SessionTTLSeconds int64  `json:"session_ttl_seconds"`
}

// advertised lifetime, defaulting to seven days
func (r StartSessionResponse) TTL() time.Duration {
	if r.SessionTTLSeconds <= 0 {
		return DefaultSessionTTL
	}

	return time.Duration(r.SessionTTLSeconds) * time.Second
}

type SendMessageRequest struct {
	SessionID string         `json:"session_id"`
	Content   string         `json:"content"`
	Meta      map[string]any `json:"meta"`
	UserID    string         `json:"user_id"`
	CMID      *int64         `json:"cmid,omitempty"`
}

type SendMessageResponse struct {
	StreamURL string `json:"stream_url,omitempty"`
}

type HistoryMessage struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// backend answer to GET /chat/history, messages newest-first
type HistoryResponse struct {
	Success       bool             `json:"success"`
	SessionID     string           `json:"session_id"`
	TotalMessages int              `json:"total_messages"`
	Messages      []HistoryMessage `json:"messages"`
	Pagination    Pagination       `json:"pagination"`
}

type DeleteSessionResponse struct {
	Deleted bool `json:"deleted"`
}

// non-2xx answer from the backend
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tutoria API request failed with status %d: %s", e.StatusCode, e.Message)
}
