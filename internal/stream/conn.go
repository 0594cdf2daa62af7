package stream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
)

var ErrStreamClosed = errors.New("stream closed by server")

// opens a push stream for a message
type Opener interface {
	Open(ctx context.Context, url string) (Conn, error)
}

// an open push stream; Events is closed after the last event and Close
// blocks until the reader has stopped
type Conn interface {
	Events() <-chan Event
	Close() error
}

// opens streams over plain HTTP server-sent events
type HTTPOpener struct {
	client *http.Client
}

func NewHTTPOpener(client *http.Client) *HTTPOpener {
	if client == nil {
		// no client timeout, the stream lives as long as the reply
		client = &http.Client{}
	}

	return &HTTPOpener{client: client}
}

func (o *HTTPOpener) Open(ctx context.Context, url string) (Conn, error) {
	ctx, cancel := context.WithCancel(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create stream request: %w", err)
	}

	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := o.client.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open stream: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close() //nolint:errcheck
		cancel()
		return nil, fmt.Errorf("stream returned status %d", resp.StatusCode)
	}

	conn := &httpConn{
		events: make(chan Event, 64),
		cancel: cancel,
	}

	conn.wg.Add(1)
	go conn.readLoop(ctx, resp)

	return conn, nil
}

type httpConn struct {
	events chan Event
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

func (c *httpConn) Events() <-chan Event {
	return c.events
}

func (c *httpConn) Close() error {
	c.once.Do(func() {
		c.cancel()
	})

	c.wg.Wait()
	return nil
}

func (c *httpConn) readLoop(ctx context.Context, resp *http.Response) {
	defer c.wg.Done()
	defer close(c.events)
	defer resp.Body.Close() //nolint:errcheck

	send := func(ev Event) bool {
		select {
		case c.events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	err := Decode(resp.Body, send)

	// closed by us, nothing to report
	if ctx.Err() != nil {
		return
	}

	if err == nil {
		err = ErrStreamClosed
	}

	send(Event{Type: EventError, Err: err})
}
