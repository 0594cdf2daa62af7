package sessions

import "errors"

var (
	ErrNilStore   = errors.New("sessions: store is nil")
	ErrNilBackend = errors.New("sessions: backend is nil")
)
