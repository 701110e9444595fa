// Package httpclient talks to the performance store over HTTP.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/crease/pkg/logger"
	"github.com/okian/crease/pkg/metrics"
)

// Store resources.
const (
	PathPlayerData = "/player-data"
	PathAlerts     = "/alerts"
)

const (
	outcomeOK    = "ok"
	outcomeError = "error"
)

var errNotJSON = errors.New("response body is not valid JSON")

// Response is a decoded-as-raw JSON reply.
type Response struct {
	StatusCode int
	Body       json.RawMessage
}

// OK reports a 2xx status.
func (r Response) OK() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

// Client performs JSON requests against a base URL. It never retries.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	log     logger.Logger
}

// New creates a client for the store at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetJSON fetches path and returns the raw JSON body. Network failures,
// non-2xx statuses and non-JSON bodies all yield a *TransportError.
func (c *Client) GetJSON(ctx context.Context, path string) (json.RawMessage, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, &TransportError{
			Method:     http.MethodGet,
			Path:       path,
			StatusCode: resp.StatusCode,
			Status:     statusText(resp.StatusCode),
		}
	}
	return resp.Body, nil
}

// PostJSON sends body as JSON and returns the reply whatever its status.
// Only network failures and non-JSON replies yield a *TransportError.
func (c *Client) PostJSON(ctx context.Context, path string, body any) (Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return Response{}, fmt.Errorf("marshal request body: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, payload)
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) (Response, error) {
	start := time.Now()
	resource := strings.Trim(path, "/")

	resp, err := c.roundTrip(ctx, method, path, payload)
	outcome := outcomeOK
	if err != nil || !resp.OK() {
		outcome = outcomeError
	}
	metrics.RecordFetchDuration(resource, method, outcome, float64(time.Since(start).Milliseconds()))

	if err != nil {
		c.log.Warn(ctx, "store request failed",
			logger.String("method", method),
			logger.String("path", path),
			logger.Error(err),
		)
		return Response{}, err
	}
	c.log.Debug(ctx, "store request done",
		logger.String("method", method),
		logger.String("path", path),
		logger.Int("status", resp.StatusCode),
	)
	return resp, nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, payload []byte) (Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return Response{}, &TransportError{Method: method, Path: path, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return Response{}, &TransportError{Method: method, Path: path, Err: err}
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return Response{}, &TransportError{Method: method, Path: path, StatusCode: res.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	out := Response{StatusCode: res.StatusCode, Body: raw}
	// A failed GET is reported by status alone; its body is never inspected.
	if method == http.MethodGet && !out.OK() {
		return out, nil
	}
	if !json.Valid(raw) {
		return Response{}, &TransportError{Method: method, Path: path, StatusCode: res.StatusCode, Err: errNotJSON}
	}
	return out, nil
}

func statusText(code int) string {
	if t := http.StatusText(code); t != "" {
		return t
	}
	return "Unknown Status"
}
