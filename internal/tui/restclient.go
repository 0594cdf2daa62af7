package tui

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

	"codeberg.org/tutoria/server/internal/chat"
	"codeberg.org/tutoria/server/internal/chaterr"
	"codeberg.org/tutoria/server/internal/errors"
)

// timeout for host requests; streams are not covered
const defaultRequestTimeout = 30 * time.Second

// calls the host chat API; implements widget.Transport
type RESTClient struct {
	endpoint   string
	token      string
	httpClient *http.Client
}

// creates a new host REST client
func NewRESTClient(endpoint, token string, timeout time.Duration) *RESTClient {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	return &RESTClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		token:    token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *RESTClient) CreateMessage(ctx context.Context, req chat.MessageRequest) (*chat.MessageResponse, error) {
	var resp chat.MessageResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/chat/messages", req, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

func (c *RESTClient) History(ctx context.Context, req chat.HistoryRequest) (*chat.HistoryResponse, error) {
	query := url.Values{}
	query.Set("course_id", strconv.FormatInt(req.CourseID, 10))
	query.Set("limit", strconv.Itoa(req.Limit))
	query.Set("offset", strconv.Itoa(req.Offset))

	var resp chat.HistoryResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/chat/history?"+query.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

func (c *RESTClient) DeleteSession(ctx context.Context, req chat.DeleteRequest) (*chat.DeleteResponse, error) {
	path := fmt.Sprintf("/api/v1/chat/sessions/%s?course_id=%d", url.PathEscape(req.SessionID), req.CourseID)

	var resp chat.DeleteResponse
	if err := c.do(ctx, http.MethodDelete, path, nil, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

func (c *RESTClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}

		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
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

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp.StatusCode, respBody)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}

// turns a host error body back into a chat error when it carries a chat code
func decodeError(status int, body []byte) error {
	var errResp errors.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		return fmt.Errorf("request failed with status %d: %s", status, strings.TrimSpace(string(body)))
	}

	if kind, ok := chaterr.KindFromCode(errResp.Error); ok {
		return &chaterr.Error{
			Kind:      kind,
			Detail:    errResp.Details,
			ConfigURL: errResp.ConfigURL,
		}
	}

	return fmt.Errorf("%s: %s", errResp.Error, errResp.Message)
}
