package stream

import (
	"context"
	"time"
	"unicode/utf8"

	"codeberg.org/tutoria/server/internal/chaterr"
	"codeberg.org/tutoria/server/internal/logger"
)

const (
	// cap on a rendered assistant message, in characters
	MaxMessageLength = 10000

	truncationMarker  = "..."
	interruptedNotice = "\n[Connection interrupted]"
)

type State int

const (
	StateIdle State = iota
	StateConnecting
	StateStreaming
	StateCompleted
	StateInterrupted
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateInterrupted:
		return "interrupted"
	default:
		return "idle"
	}
}

// the surface a handler renders into
type Sink interface {
	HideTyping()
	// replaces the typing indicator with an empty assistant message
	StartAssistant()
	UpdateAssistant(content string)
	FinishAssistant(at time.Time)
	ShowError(err *chaterr.Error)
	SetInputEnabled(enabled bool)
}

// drives one assistant reply at a time from stream events into a Sink.
// not safe for concurrent use; the owning event loop serializes calls
type Handler struct {
	sink Sink
	now  func() time.Time

	state     State
	seq       uint64
	conn      Conn
	content   []byte
	length    int
	started   bool
	truncated bool
	finished  bool
	locked    bool
}

func NewHandler(sink Sink) *Handler {
	return &Handler{sink: sink, now: time.Now}
}

// replaces the clock used to timestamp finished messages
func (h *Handler) WithClock(now func() time.Time) *Handler {
	h.now = now
	return h
}

func (h *Handler) State() State {
	return h.state
}

// reports whether a reply is in flight
func (h *Handler) Active() bool {
	return h.state == StateConnecting || h.state == StateStreaming
}

// reports whether a fatal error has disabled input for good
func (h *Handler) InputLocked() bool {
	return h.locked
}

// reports whether seq is the reply still waiting for its stream
func (h *Handler) Current(seq uint64) bool {
	return seq == h.seq && h.state == StateConnecting
}

// text rendered so far for the current reply
func (h *Handler) Content() string {
	return string(h.content)
}

// the stream currently owned by the handler, nil when idle
func (h *Handler) Conn() Conn {
	return h.conn
}

// starts a new reply, closing whatever stream was still open; the returned
// sequence number ties the pending open to this reply
func (h *Handler) Begin() uint64 {
	h.Close()

	h.seq++
	h.state = StateConnecting
	h.content = h.content[:0]
	h.length = 0
	h.started = false
	h.truncated = false
	h.finished = false

	return h.seq
}

// hands the opened stream to the handler
func (h *Handler) Attach(seq uint64, conn Conn) {
	if conn == h.conn {
		return
	}

	if seq != h.seq || h.state != StateConnecting || h.conn != nil {
		// the reply was abandoned while the stream was opening
		_ = conn.Close()
		return
	}

	h.conn = conn
}

// reports a stream that could not be opened
func (h *Handler) Fail(seq uint64, err error) {
	if seq != h.seq || h.state != StateConnecting {
		return
	}

	logger.Warn("stream connect failed", "error", err)

	h.sink.HideTyping()
	h.sink.ShowError(chaterr.Wrap(chaterr.StreamConnectFailure, err))
	h.finish(StateInterrupted)
}

// applies one event from conn; events from a stream the handler no longer
// owns are dropped
func (h *Handler) Handle(conn Conn, ev Event) {
	if conn != h.conn || h.finished || h.conn == nil {
		return
	}

	switch ev.Type {
	case EventToken:
		h.ensureStarted()
		h.append(ev.Text)
	case EventDone, EventMessageCompleted:
		h.finish(StateCompleted)
	case EventError:
		h.handleError(ev)
	}
}

// reads conn until the reply finishes, the stream ends or ctx is done
func (h *Handler) Run(ctx context.Context, seq uint64, conn Conn) {
	h.Attach(seq, conn)

	for h.Active() && h.conn == conn {
		select {
		case ev, ok := <-conn.Events():
			if !ok {
				h.Handle(conn, Event{Type: EventError, Err: ErrStreamClosed})
				continue
			}

			h.Handle(conn, ev)
		case <-ctx.Done():
			h.Handle(conn, Event{Type: EventError, Err: ctx.Err()})
		}
	}
}

// closes the current stream without finalizing, used before a new send and
// when the drawer goes away
func (h *Handler) Close() {
	if h.conn != nil {
		if err := h.conn.Close(); err != nil {
			logger.Warn("failed to close stream", "error", err)
		}

		h.conn = nil
	}

	if h.Active() {
		h.sink.HideTyping()
	}

	h.state = StateIdle
}

func (h *Handler) handleError(ev Event) {
	if ev.HasPayload() {
		kind := chaterr.Classify(ev.Data)
		logger.Warn("stream error event", "kind", kind, "payload", ev.Data)

		h.sink.HideTyping()
		h.sink.ShowError(chaterr.New(kind, ev.Data))

		if kind.Fatal() {
			h.locked = true
		}

		h.finish(StateInterrupted)
		return
	}

	logger.Warn("stream interrupted", "error", ev.Err)

	h.ensureStarted()
	h.append(interruptedNotice)
	h.finish(StateInterrupted)
}

func (h *Handler) ensureStarted() {
	if h.started {
		return
	}

	h.started = true
	if h.state == StateConnecting {
		h.state = StateStreaming
	}

	h.sink.HideTyping()
	h.sink.StartAssistant()
}

// appends text up to the cap; the overflow is cut and marked once, later
// text for the same message is dropped
func (h *Handler) append(text string) {
	if h.truncated || text == "" {
		return
	}

	n := utf8.RuneCountInString(text)
	if h.length+n > MaxMessageLength {
		h.content = append(h.content, truncateRunes(text, MaxMessageLength-h.length)...)
		h.content = append(h.content, truncationMarker...)
		h.length = MaxMessageLength + len(truncationMarker)
		h.truncated = true
	} else {
		h.content = append(h.content, text...)
		h.length += n
	}

	h.sink.UpdateAssistant(string(h.content))
}

// the completion latch: runs cleanup exactly once per reply
func (h *Handler) finish(state State) {
	if h.finished {
		return
	}

	h.finished = true

	if h.conn != nil {
		if err := h.conn.Close(); err != nil {
			logger.Warn("failed to close stream", "error", err)
		}

		h.conn = nil
	}

	if h.started {
		h.sink.FinishAssistant(h.now())
	}

	h.state = state

	h.sink.SetInputEnabled(!h.locked)
}

// caps a whole message at MaxMessageLength characters, marking the cut
func Truncate(text string) string {
	if utf8.RuneCountInString(text) <= MaxMessageLength {
		return text
	}

	return truncateRunes(text, MaxMessageLength) + truncationMarker
}

// first n characters of s
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}

	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}

	return s
}
