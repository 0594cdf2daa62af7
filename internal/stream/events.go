// Package stream reads the Tutor-IA push stream and renders it into the
// current assistant message.
package stream

import (
	"encoding/json"
	"strings"
)

type EventType int

const (
	EventToken EventType = iota
	EventDone
	EventMessageCompleted
	EventError
)

// wire names of the named events
const (
	nameToken            = "token"
	nameDone             = "done"
	nameMessageCompleted = "message_completed"
	nameError            = "error"
)

func (t EventType) String() string {
	switch t {
	case EventToken:
		return nameToken
	case EventDone:
		return nameDone
	case EventMessageCompleted:
		return nameMessageCompleted
	default:
		return nameError
	}
}

// one decoded stream event
type Event struct {
	Type EventType `json:"type"`

	// token text
	Text string `json:"text,omitempty"`

	// raw payload of a server-sent error event
	Data string `json:"data,omitempty"`

	// set when the connection itself failed or closed early
	Err error `json:"-"`
}

// reports whether the event ends the message successfully
func (e Event) Completes() bool {
	return e.Type == EventDone || e.Type == EventMessageCompleted
}

// reports whether an error event carries a structured payload
func (e Event) HasPayload() bool {
	data := strings.TrimSpace(e.Data)
	return e.Type == EventError && data != "" && json.Valid([]byte(data))
}

type tokenPayload struct {
	T       string `json:"t"`
	Content string `json:"content"`
}

// decodes a named wire event, ok is false for unknown names or bad tokens
func ParseEvent(name, data string) (Event, bool) {
	switch name {
	case nameToken:
		var payload tokenPayload
		if err := json.Unmarshal([]byte(data), &payload); err != nil {
			return Event{}, false
		}

		text := payload.T
		if text == "" {
			text = payload.Content
		}

		return Event{Type: EventToken, Text: text}, true
	case nameDone:
		return Event{Type: EventDone}, true
	case nameMessageCompleted:
		return Event{Type: EventMessageCompleted}, true
	case nameError:
		return Event{Type: EventError, Data: data}, true
	default:
		return Event{}, false
	}
}

// encodes an event back into its wire name and payload, used by relays
func EncodeEvent(ev Event) (string, string) {
	switch ev.Type {
	case EventToken:
		data, _ := json.Marshal(tokenPayload{T: ev.Text})
		return nameToken, string(data)
	case EventError:
		return nameError, ev.Data
	default:
		return ev.Type.String(), "{}"
	}
}
