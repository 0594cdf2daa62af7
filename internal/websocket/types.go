// Package websocket relays a Tutor-IA push stream to a websocket peer,
// one JSON frame per stream event.
package websocket

import (
	"errors"
	"time"

	"codeberg.org/tutoria/server/internal/stream"
)

const (
	// time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// the peer only sends control frames
	maxMessageSize = 512
)

var ErrPeerGone = errors.New("websocket peer went away")

// one stream event on the wire
type Frame struct {
	// token, done, message_completed or error
	Event string `json:"event"`

	// the event payload, as sent by the backend
	Data string `json:"data,omitempty"`

	// set on error frames when the upstream connection failed
	Reason string `json:"reason,omitempty"`
}

// wraps a stream event into a frame
func FrameFromEvent(ev stream.Event) Frame {
	name, data := stream.EncodeEvent(ev)
	frame := Frame{Event: name, Data: data}

	if ev.Type == stream.EventError && ev.Err != nil {
		frame.Reason = ev.Err.Error()
	}

	return frame
}

// unwraps a frame; ok is false for unknown events
func (f Frame) ToEvent() (stream.Event, bool) {
	ev, ok := stream.ParseEvent(f.Event, f.Data)
	if !ok {
		return stream.Event{}, false
	}

	if ev.Type == stream.EventError && f.Reason != "" {
		ev.Err = errors.New(f.Reason)
	}

	return ev, true
}
