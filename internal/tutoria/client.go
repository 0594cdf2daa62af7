package tutoria

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// HTTP client for the Tutor-IA chat API
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = defaultRequestsPerSecond
	}

	if cfg.Burst == 0 {
		cfg.Burst = defaultBurst
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}
}

// reports whether a base URL and token are set
func (c *Client) Configured() bool {
	return c.baseURL != "" && c.token != ""
}

// starts (or resumes, backend-side) a chat session for a course
func (c *Client) StartSession(ctx context.Context, courseID, cmID int64) (*StartSessionResponse, error) {
	req := startSessionRequest{CourseID: strconv.FormatInt(courseID, 10)}
	if cmID > 0 {
		req.CMID = strconv.FormatInt(cmID, 10)
	}

	var resp StartSessionResponse
	if err := c.do(ctx, http.MethodPost, "/chat/start", req, &resp); err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	return &resp, nil
}

// enqueues a user message; the reply is delivered on the session stream
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) (*SendMessageResponse, error) {
	if req.Meta == nil {
		req.Meta = map[string]any{}
	}

	var resp SendMessageResponse
	if err := c.do(ctx, http.MethodPost, "/chat/message", req, &resp); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	if resp.StreamURL == "" {
		resp.StreamURL = c.StreamURL(req.SessionID)
	}

	return &resp, nil
}

// fetches one page of history, newest-first
func (c *Client) History(ctx context.Context, sessionID string, limit, offset int) (*HistoryResponse, error) {
	query := url.Values{}
	query.Set("session_id", sessionID)
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))

	var resp HistoryResponse
	if err := c.do(ctx, http.MethodGet, "/chat/history?"+query.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}

	return &resp, nil
}

func (c *Client) DeleteSession(ctx context.Context, sessionID string) (*DeleteSessionResponse, error) {
	var resp DeleteSessionResponse
	if err := c.do(ctx, http.MethodDelete, "/chat/session/"+url.PathEscape(sessionID), nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to delete session: %w", err)
	}

	return &resp, nil
}

// builds the push-stream address for a session; the token travels as a
// query parameter because browser EventSource cannot set headers
func (c *Client) StreamURL(sessionID string) string {
	query := url.Values{}
	query.Set("session_id", sessionID)

	if c.token != "" {
		query.Set("token", c.token)
	}

	return c.baseURL + "/chat/stream?" + query.Encode()
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader

	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}

		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	// rate limiting
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter error: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}

// extracts a readable message from the backend error body; it comes as
// {"detail": "..."}, {"detail": {"status": ..., "detail": "..."}} or
// {"error": "...", "message": "..."}
func errorMessage(body []byte) string {
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Error   string          `json:"error"`
		Message string          `json:"message"`
	}

	if err := json.Unmarshal(body, &payload); err != nil {
		return strings.TrimSpace(string(body))
	}

	if detail := DetailText(payload.Detail); detail != "" {
		return detail
	}

	if payload.Message != "" {
		return payload.Message
	}

	if payload.Error != "" {
		return payload.Error
	}

	return strings.TrimSpace(string(body))
}

// flattens a detail field that is either a string or a nested
// {status, detail} object into a single string
func DetailText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}

	var nested struct {
		Status any             `json:"status"`
		Detail json.RawMessage `json:"detail"`
	}

	if err := json.Unmarshal(raw, &nested); err != nil {
		return strings.TrimSpace(string(raw))
	}

	inner := DetailText(nested.Detail)
	if nested.Status == nil {
		return inner
	}

	if inner == "" {
		return fmt.Sprint(nested.Status)
	}

	return fmt.Sprintf("%v: %s", nested.Status, inner)
}
