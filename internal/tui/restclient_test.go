package tui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/tutoria/server/internal/chat"
	"codeberg.org/tutoria/server/internal/chaterr"
)

func newTestRESTClient(t *testing.T, handler http.HandlerFunc) *RESTClient {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewRESTClient(server.URL+"/", "jwt-token", 0)
}

func TestRESTClient_CreateMessage(t *testing.T) {
	var got chat.MessageRequest

	client := newTestRESTClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/chat/messages", r.URL.Path)
		assert.Equal(t, "Bearer jwt-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_, _ = w.Write([]byte(`{"session_id":"s-1","stream_url":"http://backend/chat/stream?session_id=s-1","expires_at":1700000000}`))
	})

	resp, err := client.CreateMessage(context.Background(), chat.MessageRequest{CourseID: 4, Message: "hello"})

	require.NoError(t, err)
	assert.Equal(t, "s-1", resp.SessionID)
	assert.Equal(t, int64(4), got.CourseID)
	assert.Equal(t, "hello", got.Message)
}

func TestRESTClient_HistoryAndDelete(t *testing.T) {
	client := newTestRESTClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			assert.Equal(t, "/api/v1/chat/history", r.URL.Path)
			assert.Equal(t, "4", r.URL.Query().Get("course_id"))
			assert.Equal(t, "20", r.URL.Query().Get("limit"))
			assert.Equal(t, "20", r.URL.Query().Get("offset"))
			_, _ = w.Write([]byte(`{"success":true,"messages":[{"id":"m1","role":"user","content":"hi","timestamp":1}],"pagination":{"limit":20,"offset":20,"has_more":true}}`))
		case http.MethodDelete:
			assert.Equal(t, "/api/v1/chat/sessions/s-1", r.URL.Path)
			assert.Equal(t, "4", r.URL.Query().Get("course_id"))
			_, _ = w.Write([]byte(`{"deleted":true}`))
		}
	})

	hist, err := client.History(context.Background(), chat.HistoryRequest{CourseID: 4, Limit: 20, Offset: 20})
	require.NoError(t, err)
	require.Len(t, hist.Messages, 1)
	assert.True(t, hist.Pagination.HasMore)

	del, err := client.DeleteSession(context.Background(), chat.DeleteRequest{CourseID: 4, SessionID: "s-1"})
	require.NoError(t, err)
	assert.True(t, del.Deleted)
}

func TestRESTClient_DecodesChatErrors(t *testing.T) {
	client := newTestRESTClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":"insufficient_credits","message":"no credits","details":"Insufficient tokens","config_url":"https://lms.example/admin"}`))
	})

	_, err := client.CreateMessage(context.Background(), chat.MessageRequest{CourseID: 4, Message: "hello"})

	require.Error(t, err)
	chatErr := chaterr.From(err)
	assert.Equal(t, chaterr.InsufficientCredits, chatErr.Kind)
	assert.Equal(t, "https://lms.example/admin", chatErr.ConfigURL)
	assert.Equal(t, "Insufficient tokens", chatErr.Detail)
}

func TestDecodeError_Fallbacks(t *testing.T) {
	err := decodeError(http.StatusBadGateway, []byte("upstream down"))
	assert.Contains(t, err.Error(), "status 502")
	assert.Contains(t, err.Error(), "upstream down")

	err = decodeError(http.StatusUnauthorized, []byte(`{"error":"unauthorized","message":"invalid token"}`))
	assert.Equal(t, "unauthorized: invalid token", err.Error())
}
