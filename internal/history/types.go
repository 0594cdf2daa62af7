package history

import (
	"context"
	"time"

	"codeberg.org/tutoria/server/internal/chaterr"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100

	// distance from the top of the message list, in view units, that
	// counts as near the top
	DefaultNearTopThreshold = 100
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// a rendered message in the conversation
type Message struct {
	ID        string    `json:"id,omitempty"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// one page of history, messages newest-first as the backend returns them
type Page struct {
	Messages []Message `json:"messages"`
	HasMore  bool      `json:"has_more"`
	Offset   int       `json:"offset"`
	Limit    int       `json:"limit"`
}

// loads a page of history for the widget's current session
type Fetcher interface {
	FetchHistory(ctx context.Context, limit, offset int) (*Page, error)
}

// the scrollable message list the pager renders into
type View interface {
	ContentHeight() int
	ScrollTop() int
	SetScrollTop(top int)
	Append(msg Message)
	// inserts msg directly above the oldest message currently shown
	InsertBeforeOldest(msg Message)
	ShowError(err *chaterr.Error)
}

// applies the default and bounds to history paging parameters
func Clamp(limit, offset int) (int, int) {
	if limit < 1 {
		limit = DefaultLimit
	}

	if limit > MaxLimit {
		limit = MaxLimit
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
