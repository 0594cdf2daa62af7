package sessions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "session_42", Key(42, 0))
	assert.Equal(t, "session_42_7", Key(42, 7))
	assert.Equal(t, "session_42", Key(42, -1))
}

func TestValidAt(t *testing.T) {
	created := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	session := &Session{ID: "s-1", Ready: true, TTL: 7 * 24 * time.Hour, CreatedAt: created}

	assert.True(t, session.ValidAt(created))
	assert.True(t, session.ValidAt(created.Add(6*24*time.Hour+22*time.Hour)))
	assert.False(t, session.ValidAt(created.Add(6*24*time.Hour+23*time.Hour)))

	var missing *Session
	assert.False(t, missing.ValidAt(created))
	assert.False(t, (&Session{ID: "s-1", CreatedAt: created}).ValidAt(created))
}
