// Package widget is one mounted chat: it validates input, sends messages
// through a Transport, streams replies into a Surface and pages history.
//
// A Widget is owned by a single event loop. Methods that touch the network
// (RequestMessage, FetchHistory, DeleteSession) only read configuration and
// may run off the loop; everything else must be called from it.
package widget

import (
	"context"
	"errors"
	"time"

	"codeberg.org/tutoria/server/internal/chat"
	"codeberg.org/tutoria/server/internal/chaterr"
	"codeberg.org/tutoria/server/internal/history"
	"codeberg.org/tutoria/server/internal/logger"
	"codeberg.org/tutoria/server/internal/pagecontext"
	"codeberg.org/tutoria/server/internal/stream"
)

var ErrBusy = errors.New("a reply is still streaming")

// how the widget reaches the host
type Transport interface {
	CreateMessage(ctx context.Context, req chat.MessageRequest) (*chat.MessageResponse, error)
	History(ctx context.Context, req chat.HistoryRequest) (*chat.HistoryResponse, error)
	DeleteSession(ctx context.Context, req chat.DeleteRequest) (*chat.DeleteResponse, error)
}

// everything the widget draws on
type Surface interface {
	stream.Sink
	history.View

	SetOpen(open bool)
	ShowWelcome(text string)
	ShowQuickOptions(options []QuickOption)
	HideQuickOptions()
	AddUserMessage(msg history.Message)
	// an inline assistant-styled notice, used for local validation errors
	AddNotice(text string)
	ShowTyping()
	SetInput(text string)
	ClearInput()
	ClearMessages()
}

type Options struct {
	CourseID     int64
	CMID         int64
	Page         pagecontext.Page
	Role         pagecontext.Role
	Welcome      string
	Placeholders Placeholders
	QuickOptions []QuickOption
	HistoryLimit int
}

type Widget struct {
	opts      Options
	transport Transport
	opener    stream.Opener
	surface   Surface

	handler *stream.Handler
	pager   *history.Pager
	page    pagecontext.Context

	open      bool
	started   bool
	locked    bool
	sessionID string
	selection string
	now       func() time.Time

	// bumped whenever the view is cleared, so loads started before are dropped
	historyEpoch uint64
}

func New(opts Options, transport Transport, opener stream.Opener, surface Surface) *Widget {
	limit := opts.HistoryLimit
	if limit == 0 {
		limit = history.DefaultLimit
	}

	return &Widget{
		opts:      opts,
		transport: transport,
		opener:    opener,
		surface:   surface,
		handler:   stream.NewHandler(surface),
		pager:     history.NewPager(surface, limit),
		page:      pagecontext.Detect(opts.Page),
		now:       time.Now,
	}
}

// replaces the clock used for message timestamps
func (w *Widget) WithClock(now func() time.Time) *Widget {
	w.now = now
	w.handler.WithClock(now)
	return w
}

func (w *Widget) IsOpen() bool {
	return w.open
}

func (w *Widget) Streaming() bool {
	return w.handler.Active()
}

// reports whether a fatal error has disabled input
func (w *Widget) Locked() bool {
	return w.locked || w.handler.InputLocked()
}

func (w *Widget) SessionID() string {
	return w.sessionID
}

func (w *Widget) PageContext() pagecontext.Context {
	return w.page
}

func (w *Widget) Pager() *history.Pager {
	return w.pager
}

// shows the drawer; returns true when history still has to be loaded
func (w *Widget) Open() bool {
	if w.open {
		return false
	}

	w.open = true
	w.surface.SetOpen(true)

	if !w.started {
		w.surface.ShowWelcome(w.opts.Placeholders.Replace(w.opts.Welcome))
		if len(w.opts.QuickOptions) > 0 {
			w.surface.ShowQuickOptions(w.opts.QuickOptions)
		}
	}

	return !w.pager.Loaded()
}

// hides the drawer, releases the stream and clears the conversation view;
// the next Open reloads history from the first page
func (w *Widget) Close() {
	if !w.open {
		return
	}

	streaming := w.handler.Active()
	w.handler.Close()

	if streaming {
		w.surface.SetInputEnabled(!w.Locked())
	}

	w.open = false
	w.started = false
	w.historyEpoch++
	w.pager.Reset()
	w.surface.ClearMessages()
	w.surface.SetOpen(false)
}

// toggles the drawer, returning true when history has to be loaded
func (w *Widget) Toggle() bool {
	if w.open {
		w.Close()
		return false
	}

	return w.Open()
}

// remembers text selected on the page; it goes out with the next message
func (w *Widget) SetSelection(text string) {
	w.selection = text
}

// pre-fills the input with the option's prompt
func (w *Widget) SelectQuickOption(index int) bool {
	if w.handler.Active() || index < 0 || index >= len(w.opts.QuickOptions) {
		return false
	}

	w.surface.SetInput(w.opts.QuickOptions[index].Prompt)
	return true
}

// a validated message waiting to be sent
type Pending struct {
	Seq     uint64
	Request chat.MessageRequest
}

// the outcome of RequestMessage
type Reply struct {
	Seq      uint64
	Response *chat.MessageResponse
	Conn     stream.Conn
	// the host refused or failed the message
	Err error
	// the message went out but its stream could not be opened
	OpenErr error
}

// validates text and moves the UI into the sending state; nothing touches
// the network until RequestMessage runs
func (w *Widget) BeginSend(text string) (*Pending, error) {
	if w.Locked() {
		return nil, chaterr.New(chaterr.InsufficientCredits, "")
	}

	if w.handler.Active() {
		return nil, ErrBusy
	}

	clean, err := chat.ValidateMessage(text)
	if err != nil {
		w.surface.AddNotice("[Error] " + chaterr.From(err).Message())
		return nil, err
	}

	now := w.now()
	seq := w.handler.Begin()

	if !w.started {
		w.started = true
		w.surface.HideQuickOptions()
	}

	w.surface.SetInputEnabled(false)
	w.surface.AddUserMessage(history.Message{
		Role:      history.RoleUser,
		Content:   clean,
		Timestamp: now,
	})
	w.surface.ClearInput()
	w.surface.ShowTyping()

	return &Pending{
		Seq: seq,
		Request: chat.MessageRequest{
			CourseID: w.opts.CourseID,
			CMID:     w.opts.CMID,
			Message:  clean,
			Meta:     w.metadata(now),
		},
	}, nil
}

func (w *Widget) metadata(now time.Time) map[string]any {
	meta := map[string]any{
		"user_role": w.opts.Role.Display(),
		"timestamp": now.Unix(),
	}

	w.page.Apply(meta)

	if w.opts.CMID > 0 {
		meta["cmid"] = w.opts.CMID
	}

	if w.selection != "" {
		meta["selected_text"] = w.selection
	}

	return meta
}

// sends the message and opens its stream; safe to run off the event loop
func (w *Widget) RequestMessage(ctx context.Context, p *Pending) Reply {
	reply := Reply{Seq: p.Seq}

	resp, err := w.transport.CreateMessage(ctx, p.Request)
	if err != nil {
		reply.Err = err
		return reply
	}

	if resp.StreamURL == "" {
		reply.Err = chaterr.New(chaterr.UnknownError, "stream URL missing in response")
		return reply
	}

	reply.Response = resp

	conn, err := w.opener.Open(ctx, resp.StreamURL)
	if err != nil {
		reply.OpenErr = err
		return reply
	}

	reply.Conn = conn

	return reply
}

// applies a Reply on the event loop; returns true when a stream is now
// attached and its events should be pumped into HandleEvent
func (w *Widget) AttachStream(reply Reply) bool {
	if reply.Err != nil {
		if !w.handler.Current(reply.Seq) {
			// the reply was abandoned, a newer send owns the handler
			logger.Debug("dropping stale chat message error", "seq", reply.Seq, "error", reply.Err)
			return false
		}

		chatErr := chaterr.From(reply.Err)
		logger.Warn("chat message failed", "kind", chatErr.Kind, "error", reply.Err)

		if chatErr.Kind.Fatal() {
			w.locked = true
		}

		w.handler.Close()
		w.surface.ShowError(chatErr)
		w.surface.SetInputEnabled(!w.Locked())

		return false
	}

	if reply.Response != nil {
		w.sessionID = reply.Response.SessionID
	}

	if reply.OpenErr != nil {
		w.handler.Fail(reply.Seq, reply.OpenErr)
		return false
	}

	w.handler.Attach(reply.Seq, reply.Conn)

	return w.handler.Conn() == reply.Conn
}

// feeds one stream event to the handler
func (w *Widget) HandleEvent(conn stream.Conn, ev stream.Event) {
	w.handler.Handle(conn, ev)
}

// validates, sends and streams the reply to completion
func (w *Widget) Send(ctx context.Context, text string) error {
	pending, err := w.BeginSend(text)
	if err != nil {
		return err
	}

	reply := w.RequestMessage(ctx, pending)
	if !w.AttachStream(reply) {
		if reply.Err != nil {
			return reply.Err
		}

		return chaterr.Wrap(chaterr.StreamConnectFailure, reply.OpenErr)
	}

	w.handler.Run(ctx, reply.Seq, reply.Conn)

	return nil
}

// one history page request, tied to the view it was started for
type HistoryLoad struct {
	Request chat.HistoryRequest
	epoch   uint64
}

// claims the history load slot; ok is false when a load is in flight or
// nothing is left
func (w *Widget) BeginHistory() (HistoryLoad, bool) {
	limit, offset, ok := w.pager.Begin()
	if !ok {
		return HistoryLoad{}, false
	}

	return HistoryLoad{
		Request: chat.HistoryRequest{CourseID: w.opts.CourseID, Limit: limit, Offset: offset},
		epoch:   w.historyEpoch,
	}, true
}

// loads one page; safe to run off the event loop
func (w *Widget) FetchHistory(ctx context.Context, load HistoryLoad) (*history.Page, error) {
	resp, err := w.transport.History(ctx, load.Request)
	if err != nil {
		return nil, err
	}

	return resp.Page(), nil
}

// renders a loaded page; pages for a view that has since been cleared are
// dropped
func (w *Widget) FinishHistory(load HistoryLoad, page *history.Page, err error) {
	if load.epoch != w.historyEpoch {
		return
	}

	w.pager.Finish(page, err)
}

// reports whether a scroll position should trigger the next page
func (w *Widget) Scrolled(scrollTop int) bool {
	return w.pager.NearTop(scrollTop)
}

// loads the next page synchronously
func (w *Widget) LoadHistory(ctx context.Context) bool {
	load, ok := w.BeginHistory()
	if !ok {
		return false
	}

	page, err := w.FetchHistory(ctx, load)
	w.FinishHistory(load, page, err)

	return true
}

// the request that deletes the current session, ok is false without one
func (w *Widget) DeleteRequest() (chat.DeleteRequest, bool) {
	if w.sessionID == "" {
		return chat.DeleteRequest{}, false
	}

	return chat.DeleteRequest{CourseID: w.opts.CourseID, SessionID: w.sessionID}, true
}

// deletes a session; safe to run off the event loop
func (w *Widget) DeleteSession(ctx context.Context, req chat.DeleteRequest) bool {
	resp, err := w.transport.DeleteSession(ctx, req)
	if err != nil {
		logger.Warn("failed to delete session", "session_id", req.SessionID, "error", err)
		return false
	}

	return resp.Deleted
}

// starts over after a deletion: clears messages and paging state
func (w *Widget) FinishDelete(deleted bool) {
	if !deleted {
		return
	}

	w.handler.Close()
	w.sessionID = ""
	w.started = false
	w.historyEpoch++
	w.pager.Reset()
	w.surface.ClearMessages()
	w.surface.SetInputEnabled(!w.Locked())

	if w.open {
		w.surface.ShowWelcome(w.opts.Placeholders.Replace(w.opts.Welcome))
		if len(w.opts.QuickOptions) > 0 {
			w.surface.ShowQuickOptions(w.opts.QuickOptions)
		}
	}
}
