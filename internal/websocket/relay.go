package websocket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"codeberg.org/tutoria/server/internal/logger"
	"codeberg.org/tutoria/server/internal/stream"
)

// forwards one upstream stream to one websocket peer
type Relay struct {
	ID        string
	SessionID string

	conn     *websocket.Conn
	upstream stream.Conn
	peerGone chan struct{}
}

func NewRelay(conn *websocket.Conn, upstream stream.Conn, sessionID string) *Relay {
	return &Relay{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		conn:      conn,
		upstream:  upstream,
		peerGone:  make(chan struct{}),
	}
}

// forwards events until the message completes, the upstream ends, the peer
// leaves or ctx is done; both connections are closed on return
func (r *Relay) Run(ctx context.Context) error {
	defer func() {
		r.upstream.Close() //nolint:errcheck,gosec // G104: defer cleanup
		r.conn.Close()     //nolint:errcheck,gosec // G104: defer cleanup
	}()

	go r.readPump()

	return r.writePump(ctx)
}

// drains control frames so pongs and closes are seen
func (r *Relay) readPump() {
	defer close(r.peerGone)

	r.conn.SetReadLimit(maxMessageSize)
	r.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck,gosec // G104: websocket setup
	r.conn.SetPongHandler(func(string) error {
		r.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck,gosec // G104: pong handler
		return nil
	})

	for {
		if _, _, err := r.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("websocket error",
					"relay_id", r.ID,
					"session_id", r.SessionID,
					"error", err,
				)
			}

			return
		}
	}
}

func (r *Relay) writePump(ctx context.Context) error {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	events := r.upstream.Events()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				r.closeNormal()
				return nil
			}

			if err := r.write(FrameFromEvent(ev)); err != nil {
				return err
			}

			// one relay carries one reply
			if ev.Completes() || ev.Type == stream.EventError {
				r.closeNormal()
				return nil
			}

		case <-ticker.C:
			r.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck,gosec // G104: websocket ping timing

			if err := r.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}

		case <-r.peerGone:
			return ErrPeerGone

		case <-ctx.Done():
			r.closeNormal()
			return ctx.Err()
		}
	}
}

func (r *Relay) write(frame Frame) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	r.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck,gosec // G104: websocket timing

	return r.conn.WriteMessage(websocket.TextMessage, payload)
}

func (r *Relay) closeNormal() {
	r.conn.SetWriteDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck,gosec
	r.conn.WriteMessage( //nolint:errcheck,gosec // G104: close message
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
}
