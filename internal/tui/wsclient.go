package tui

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"codeberg.org/tutoria/server/internal/stream"
	ws "codeberg.org/tutoria/server/internal/websocket"
)

const (
	pongWait      = 60 * time.Second
	dialTimeout   = 10 * time.Second
	eventsBufSize = 64
)

// opens reply streams through the host websocket relay instead of reading
// the backend stream directly; implements stream.Opener
type WSOpener struct {
	endpoint string
	token    string
	courseID int64
	dialer   *websocket.Dialer
}

// creates a relay opener; endpoint is the host base URL (http or https)
func NewWSOpener(endpoint, token string, courseID int64) *WSOpener {
	return &WSOpener{
		endpoint: strings.TrimRight(endpoint, "/"),
		token:    token,
		courseID: courseID,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: dialTimeout,
		},
	}
}

// streamURL is the backend address returned with the message; only its
// session_id is used
func (o *WSOpener) Open(ctx context.Context, streamURL string) (stream.Conn, error) {
	relayURL, err := o.relayURL(streamURL)
	if err != nil {
		return nil, err
	}

	conn, resp, err := o.dialer.DialContext(ctx, relayURL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close() //nolint:errcheck
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("relay returned status %d: %w", resp.StatusCode, err)
		}

		return nil, fmt.Errorf("failed to connect to relay: %w", err)
	}

	c := &wsConn{
		conn:   conn,
		events: make(chan stream.Event, eventsBufSize),
		done:   make(chan struct{}),
	}

	c.wg.Add(1)
	go c.readPump()

	return c, nil
}

func (o *WSOpener) relayURL(streamURL string) (string, error) {
	parsed, err := url.Parse(streamURL)
	if err != nil {
		return "", fmt.Errorf("invalid stream URL: %w", err)
	}

	sessionID := parsed.Query().Get("session_id")
	if sessionID == "" {
		return "", fmt.Errorf("stream URL has no session_id")
	}

	base, err := url.Parse(o.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid host endpoint: %w", err)
	}

	switch base.Scheme {
	case "https":
		base.Scheme = "wss"
	case "http":
		base.Scheme = "ws"
	}

	// JoinPath takes escaped segments
	base = base.JoinPath("api/v1/chat/sessions", url.PathEscape(sessionID), "ws")

	query := url.Values{}
	query.Set("course_id", strconv.FormatInt(o.courseID, 10))
	if o.token != "" {
		query.Set("token", o.token)
	}
	base.RawQuery = query.Encode()

	return base.String(), nil
}

// one relayed reply
type wsConn struct {
	conn   *websocket.Conn
	events chan stream.Event
	done   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

func (c *wsConn) Events() <-chan stream.Event {
	return c.events
}

func (c *wsConn) Close() error {
	var err error

	c.once.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})

	c.wg.Wait()

	return err
}

func (c *wsConn) readPump() {
	defer c.wg.Done()
	defer close(c.events)

	c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck,gosec // G104: websocket setup
	c.conn.SetPingHandler(func(data string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck,gosec // G104: ping handler
		return c.conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})

	for {
		var frame ws.Frame
		if err := c.conn.ReadJSON(&frame); err != nil {
			c.finish(err)
			return
		}

		ev, ok := frame.ToEvent()
		if !ok {
			continue
		}

		if !c.emit(ev) {
			return
		}

		if ev.Completes() || ev.Type == stream.EventError {
			return
		}
	}
}

// reports a connection that ended before the reply did, unless we closed it
func (c *wsConn) finish(err error) {
	select {
	case <-c.done:
		return
	default:
	}

	if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		err = stream.ErrStreamClosed
	}

	c.emit(stream.Event{Type: stream.EventError, Err: err})
}

func (c *wsConn) emit(ev stream.Event) bool {
	select {
	case c.events <- ev:
		return true
	case <-c.done:
		return false
	}
}
