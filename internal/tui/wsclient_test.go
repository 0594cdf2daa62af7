package tui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/tutoria/server/internal/stream"
	ws "codeberg.org/tutoria/server/internal/websocket"
)

type chanConn struct {
	events chan stream.Event
	closed chan struct{}
}

// a finished upstream: the events followed by a closed channel
func newChanConn(events ...stream.Event) *chanConn {
	c := &chanConn{events: make(chan stream.Event, len(events)), closed: make(chan struct{})}
	for _, ev := range events {
		c.events <- ev
	}
	close(c.events)

	return c
}

func (c *chanConn) Events() <-chan stream.Event { return c.events }

func (c *chanConn) Close() error {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}

	return nil
}

func collect(t *testing.T, conn stream.Conn) []stream.Event {
	t.Helper()

	var events []stream.Event

	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-conn.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatal("timed out waiting for events")
		}
	}
}

func TestWSOpener_RelayURL(t *testing.T) {
	opener := NewWSOpener("https://host.example/base/", "jwt", 7)

	got, err := opener.relayURL("https://backend/chat/stream?session_id=s%2F1&token=backend")
	require.NoError(t, err)

	parsed, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "wss", parsed.Scheme)
	assert.Equal(t, "/base/api/v1/chat/sessions/s%2F1/ws", parsed.EscapedPath())
	assert.Equal(t, "7", parsed.Query().Get("course_id"))
	assert.Equal(t, "jwt", parsed.Query().Get("token"))

	_, err = opener.relayURL("https://backend/chat/stream")
	assert.Error(t, err)
}

func TestWSOpener_ReadsRelayedReply(t *testing.T) {
	upstream := newChanConn(
		stream.Event{Type: stream.EventToken, Text: "Hello"},
		stream.Event{Type: stream.EventToken, Text: " world"},
		stream.Event{Type: stream.EventDone},
	)

	upgrader := websocket.Upgrader{CheckOrigin: ws.CheckOrigin(false, nil)}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/chat/sessions/s-1/ws", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("course_id"))

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		_ = ws.NewRelay(conn, upstream, "s-1").Run(context.Background())
	}))
	t.Cleanup(server.Close)

	opener := NewWSOpener(server.URL, "jwt", 3)
	conn, err := opener.Open(context.Background(), "http://backend/chat/stream?session_id=s-1")
	require.NoError(t, err)
	defer conn.Close() //nolint:errcheck

	events := collect(t, conn)

	require.Len(t, events, 3)
	assert.Equal(t, "Hello", events[0].Text)
	assert.Equal(t, " world", events[1].Text)
	assert.True(t, events[2].Completes())
}

func TestWSOpener_EarlyCloseIsAnError(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = conn.Close()
	}))
	t.Cleanup(server.Close)

	conn, err := NewWSOpener(server.URL, "", 3).Open(context.Background(), "http://backend/chat/stream?session_id=s-1")
	require.NoError(t, err)
	defer conn.Close() //nolint:errcheck

	events := collect(t, conn)

	require.Len(t, events, 1)
	assert.Equal(t, stream.EventError, events[0].Type)
	assert.ErrorIs(t, events[0].Err, stream.ErrStreamClosed)
}

func TestWSOpener_RejectedUpgrade(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	_, err := NewWSOpener(server.URL, "", 3).Open(context.Background(), "http://backend/chat/stream?session_id=s-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
