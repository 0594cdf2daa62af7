package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/tutoria/server/internal/stream"
)

type chanConn struct {
	events chan stream.Event
	closed chan struct{}
}

func newChanConn(events ...stream.Event) *chanConn {
	c := &chanConn{events: make(chan stream.Event, len(events)+1), closed: make(chan struct{})}
	for _, ev := range events {
		c.events <- ev
	}

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

func serveRelay(t *testing.T, upstream stream.Conn) (*websocket.Conn, chan error) {
	t.Helper()

	done := make(chan error, 1)
	upgrader := websocket.Upgrader{CheckOrigin: CheckOrigin(false, nil)}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			done <- err
			return
		}

		done <- NewRelay(conn, upstream, "s-1").Run(context.Background())
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client, done
}

func readFrames(t *testing.T, client *websocket.Conn) []Frame {
	t.Helper()

	var frames []Frame

	for {
		client.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck

		var frame Frame
		if err := client.ReadJSON(&frame); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected read error: %v", err)
			return frames
		}

		frames = append(frames, frame)
	}
}

func TestRelay_ForwardsUntilDone(t *testing.T) {
	upstream := newChanConn(
		stream.Event{Type: stream.EventToken, Text: "Hel"},
		stream.Event{Type: stream.EventToken, Text: "lo"},
		stream.Event{Type: stream.EventDone},
		stream.Event{Type: stream.EventToken, Text: "late"},
	)

	client, done := serveRelay(t, upstream)
	frames := readFrames(t, client)

	require.Len(t, frames, 3)
	assert.Equal(t, "token", frames[0].Event)
	assert.Equal(t, "done", frames[2].Event)

	ev, ok := frames[1].ToEvent()
	require.True(t, ok)
	assert.Equal(t, "lo", ev.Text)

	require.NoError(t, <-done)

	select {
	case <-upstream.closed:
	default:
		t.Fatal("upstream was not closed")
	}
}

func TestRelay_UpstreamFailure(t *testing.T) {
	upstream := newChanConn(stream.Event{Type: stream.EventError, Err: stream.ErrStreamClosed})

	client, done := serveRelay(t, upstream)
	frames := readFrames(t, client)

	require.Len(t, frames, 1)
	assert.Equal(t, "error", frames[0].Event)
	assert.Equal(t, stream.ErrStreamClosed.Error(), frames[0].Reason)

	ev, ok := frames[0].ToEvent()
	require.True(t, ok)
	assert.Error(t, ev.Err)
	assert.False(t, ev.HasPayload())
	require.NoError(t, <-done)
}

func TestRelay_PeerLeaves(t *testing.T) {
	upstream := newChanConn()

	client, done := serveRelay(t, upstream)
	require.NoError(t, client.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, ErrPeerGone))
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop")
	}
}

func TestFrame_ErrorPayload(t *testing.T) {
	frame := FrameFromEvent(stream.Event{Type: stream.EventError, Data: `{"detail":"Insufficient tokens"}`})

	assert.Empty(t, frame.Reason)

	ev, ok := frame.ToEvent()
	require.True(t, ok)
	assert.True(t, ev.HasPayload())
	assert.NoError(t, ev.Err)

	_, ok = Frame{Event: "heartbeat"}.ToEvent()
	assert.False(t, ok)
}

func TestCheckOrigin(t *testing.T) {
	check := CheckOrigin(true, []string{"https://lms.example"})

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://lms.example")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(req))

	assert.False(t, CheckOrigin(true, nil)(req))
	assert.True(t, CheckOrigin(false, nil)(req))
}
