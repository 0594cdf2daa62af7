// Package chaterr defines the error kinds a chat widget has to branch on.
//
// Backend failures arrive as free text, so Classify falls back to a
// case-insensitive substring match on a small vocabulary. That match is
// fragile; peers that can send a structured code (our own host service)
// should go through KindFromCode instead.
package chaterr

import (
	"errors"
	"fmt"
	"strings"
)

type Kind int

const (
	UnknownError Kind = iota
	SessionNotReady
	BackendUnconfigured
	EmptyOrInvalidMessage
	MessageTooLong
	StreamConnectFailure
	StreamInterrupted
	InsufficientCredits
	LicenseNotAllowed
	HistoryFetchFailure
)

var kindCodes = map[Kind]string{
	UnknownError:          "unknown_error",
	SessionNotReady:       "session_not_ready",
	BackendUnconfigured:   "backend_unconfigured",
	EmptyOrInvalidMessage: "empty_message",
	MessageTooLong:        "message_too_long",
	StreamConnectFailure:  "stream_connect_failure",
	StreamInterrupted:     "stream_interrupted",
	InsufficientCredits:   "insufficient_credits",
	LicenseNotAllowed:     "license_not_allowed",
	HistoryFetchFailure:   "history_fetch_failure",
}

// stable wire code for the kind
func (k Kind) Code() string {
	if code, ok := kindCodes[k]; ok {
		return code
	}

	return kindCodes[UnknownError]
}

func (k Kind) String() string {
	return k.Code()
}

// reports whether the kind blocks further input until an external change
func (k Kind) Fatal() bool {
	return k == InsufficientCredits
}

// maps a wire code back to its kind, false for unknown codes
func KindFromCode(code string) (Kind, bool) {
	for kind, c := range kindCodes {
		if c == code {
			return kind, true
		}
	}

	return UnknownError, false
}

// default user-facing text per kind
var kindMessages = map[Kind]string{
	UnknownError:          "Something went wrong. Please try again.",
	SessionNotReady:       "The Tutor-AI session is not ready. Please try again.",
	BackendUnconfigured:   "The AI tutor is not available right now. Please contact your site administrator.",
	EmptyOrInvalidMessage: "Please type a message before sending.",
	MessageTooLong:        "Message is too long. Maximum 4000 characters.",
	StreamConnectFailure:  "Could not establish SSE connection",
	StreamInterrupted:     "Connection interrupted",
	InsufficientCredits:   "There are not enough AI credits to answer right now. Please contact your site administrator.",
	LicenseNotAllowed:     "Your license does not allow using the AI tutor. Please contact your site administrator.",
	HistoryFetchFailure:   "Could not load previous messages.",
}

// tagged chat error with optional detail and admin configuration link
type Error struct {
	Kind      Kind
	Detail    string
	ConfigURL string
	Err       error
}

func (e *Error) Error() string {
	msg := e.Message()
	if e.Detail != "" && e.Detail != msg {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}

	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}

	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// human-readable text for presentation
func (e *Error) Message() string {
	return kindMessages[e.Kind]
}

// matches any *Error with the same kind, so errors.Is(err, chaterr.New(chaterr.MessageTooLong, "")) works
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}

	return other.Kind == e.Kind
}

func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

func Wrap(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// returns the kind carried by err, UnknownError when err is not a chat error
func KindOf(err error) Kind {
	var chatErr *Error
	if errors.As(err, &chatErr) {
		return chatErr.Kind
	}

	return UnknownError
}

// vocabulary for the substring classifier, checked in order
var phrases = []struct {
	kind    Kind
	phrases []string
}{
	{LicenseNotAllowed, []string{"license not allowed", "license_not_allowed"}},
	{InsufficientCredits, []string{"insufficient tokens", "insufficient credits", "insufficient_tokens"}},
}

// classifies free text from the backend by case-insensitive substring match
func Classify(text string) Kind {
	lower := strings.ToLower(text)

	for _, entry := range phrases {
		for _, phrase := range entry.phrases {
			if strings.Contains(lower, phrase) {
				return entry.kind
			}
		}
	}

	return UnknownError
}

// converts any error into a chat error, keeping kinds already assigned
func From(err error) *Error {
	if err == nil {
		return nil
	}

	var chatErr *Error
	if errors.As(err, &chatErr) {
		return chatErr
	}

	return &Error{Kind: Classify(err.Error()), Err: err}
}
