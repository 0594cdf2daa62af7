package chat

import (
	"time"

	"codeberg.org/tutoria/server/internal/history"
	"codeberg.org/tutoria/server/internal/pagecontext"
	"codeberg.org/tutoria/server/internal/tutoria"
)

// longest message accepted, in characters
const MaxMessageLength = 4000

const defaultStrictness = "permissive"

type Config struct {
	Enabled bool

	// shown to administrators when the backend is not configured
	AdminConfigURL string

	OffTopicDetection  bool
	OffTopicStrictness string
	CustomPrompt       string
}

// the caller as established by the host
type Identity struct {
	UserID  string
	IsAdmin bool
	Role    pagecontext.Role
}

type MessageRequest struct {
	CourseID int64          `json:"course_id" binding:"required,min=1"`
	CMID     int64          `json:"cmid,omitempty"`
	Message  string         `json:"message"`
	Meta     map[string]any `json:"meta,omitempty"`
}

type MessageResponse struct {
	SessionID string `json:"session_id"`
	StreamURL string `json:"stream_url"`
	ExpiresAt int64  `json:"expires_at"`
}

type HistoryRequest struct {
	CourseID int64 `form:"course_id" binding:"required,min=1"`
	Limit    int   `form:"limit"`
	Offset   int   `form:"offset"`
}

type HistoryResponse struct {
	Success       bool                     `json:"success"`
	SessionID     string                   `json:"session_id"`
	TotalMessages int                      `json:"total_messages"`
	Messages      []tutoria.HistoryMessage `json:"messages"`
	Pagination    tutoria.Pagination       `json:"pagination"`
}

// converts the response into a pager page
func (r *HistoryResponse) Page() *history.Page {
	page := &history.Page{
		HasMore: r.Pagination.HasMore,
		Offset:  r.Pagination.Offset,
		Limit:   r.Pagination.Limit,
	}

	for _, msg := range r.Messages {
		page.Messages = append(page.Messages, history.Message{
			ID:        msg.ID,
			Role:      history.Role(msg.Role),
			Content:   msg.Content,
			Timestamp: time.Unix(msg.Timestamp, 0),
		})
	}

	return page
}

type DeleteRequest struct {
	CourseID  int64  `json:"course_id"`
	SessionID string `json:"session_id"`
}

type DeleteResponse struct {
	Deleted bool `json:"deleted"`
}
