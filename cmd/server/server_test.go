package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/tutoria/server/internal/config"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	t.Setenv("JWT_SECRET", "test-secret-key-for-testing")

	srv, err := NewServer(&config.Config{
		Environment:     "development",
		Port:            "0",
		TutoriaAPIURL:   "http://tutor.invalid",
		TutoriaAPIToken: "tok",
		TutoriaEnabled:  true,
		JWTSecret:       "test-secret-key-for-testing",
		SessionStore:    config.StoreMemory,
		RateLimit:       "100-M",
	})
	require.NoError(t, err)
	t.Cleanup(srv.services.Close)

	return srv
}

func get(srv *Server, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))

	return w
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	w := get(srv, "/health")

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "memory", body["session_store"])
	assert.Equal(t, true, body["backend_configured"])
}

func TestPingAndDocs(t *testing.T) {
	srv := newTestServer(t)

	assert.Equal(t, http.StatusOK, get(srv, "/api/v1/ping").Code)

	w := get(srv, "/swagger/doc.json")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/v1/chat/messages")
}

func TestChatRoutesRequireAuth(t *testing.T) {
	srv := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, get(srv, "/api/v1/chat/history?course_id=42").Code)
	assert.Equal(t, http.StatusUnauthorized, get(srv, "/api/v1/chat/sessions/s-1/ws?course_id=42").Code)
}

func TestRequestIDIsEchoed(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	req.Header.Set("X-Request-ID", "req-123")

	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
}
