package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"

	"codeberg.org/tutoria/server/internal/chaterr"
	"codeberg.org/tutoria/server/internal/history"
	"codeberg.org/tutoria/server/internal/stream"
	"codeberg.org/tutoria/server/internal/widget"
)

type Options struct {
	Widget    widget.Options
	Transport widget.Transport
	Opener    stream.Opener

	// shown as the assistant label
	TutorName string

	// glamour style for assistant replies, "dark" when empty
	MarkdownStyle string
}

// one line item in the drawer
type entry struct {
	id        string
	role      history.Role
	content   string
	at        time.Time
	notice    bool
	streaming bool

	// glamour output cache
	rendered      string
	renderedWidth int
}

// the terminal chat drawer; it is the widget's Surface
type Model struct {
	ctx    context.Context
	widget *widget.Widget
	opts   Options

	width  int
	height int
	ready  bool

	// a spinner tick is in flight
	ticking bool

	open         bool
	entries      []entry
	welcome      string
	quickOptions []widget.QuickOption
	showQuick    bool
	typing       bool
	inputEnabled bool
	banner       *chaterr.Error

	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer
}

// the outcome of sending a message
type replyMsg widget.Reply

// one event, or the end, of a reply stream
type streamMsg struct {
	conn stream.Conn
	ev   stream.Event
	ok   bool
}

// a loaded history page
type historyMsg struct {
	load widget.HistoryLoad
	page *history.Page
	err  error
}

// the outcome of a session deletion
type deleteMsg struct {
	deleted bool
}
