// Package client calls a formulas calculation service over HTTP.
package client

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

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zephyrtronium/formulas"
)

// ErrStatus is wrapped by errors for responses with an unexpected status and
// no calculation result in the body.
var ErrStatus = errors.New("unexpected response status")

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 1 << 20

// Client sends calculations to a service.
type Client struct {
	base    string
	http    *http.Client
	logger  *zap.Logger
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the logger for request tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTimeout bounds each call. Zero means no bound beyond the context's.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// New creates a client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base:   strings.TrimRight(baseURL, "/"),
		http:   http.DefaultClient,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service address the client sends to.
func (c *Client) BaseURL() string {
	return c.base
}

// Calculate asks the service to evaluate req. A calculation that fails on
// the service, such as a division by zero, is an error Result with a nil
// error; the error return is for failures to get any result at all.
func (c *Client) Calculate(ctx context.Context, req formulas.Request) (formulas.Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return formulas.Result{}, fmt.Errorf("failed to encode request: %w", err)
	}
	status, data, err := c.do(ctx, http.MethodPost, "/calculate", body)
	if err != nil {
		return formulas.Result{}, err
	}
	var env struct {
		Result json.RawMessage `json:"result"`
		Error  json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		if !ok(status) {
			return formulas.Result{}, fmt.Errorf("%w: %d %s", ErrStatus, status, http.StatusText(status))
		}
		return formulas.Result{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if !ok(status) && env.Result == nil && env.Error == nil {
		return formulas.Result{}, fmt.Errorf("%w: %d %s", ErrStatus, status, http.StatusText(status))
	}
	var r formulas.Result
	if err := json.Unmarshal(data, &r); err != nil {
		return formulas.Result{}, fmt.Errorf("failed to decode response: %w", err)
	}
	return r, nil
}

// Templates fetches the formula gallery from the service.
func (c *Client) Templates(ctx context.Context) ([]formulas.Template, error) {
	status, data, err := c.do(ctx, http.MethodGet, "/templates", nil)
	if err != nil {
		return nil, err
	}
	if !ok(status) {
		return nil, fmt.Errorf("%w: %d %s", ErrStatus, status, http.StatusText(status))
	}
	var t []formulas.Template
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to decode templates: %w", err)
	}
	return t, nil
}

// do sends one request and reads the whole response body.
func (c *Client) do(ctx context.Context, method, path string, body []byte) (int, []byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	id := uuid.NewString()
	req.Header.Set("X-Request-ID", id)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed", zap.String("request_id", id), zap.String("path", path), zap.Error(err))
		return 0, nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	c.logger.Debug("received response",
		zap.String("request_id", id),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))
	return resp.StatusCode, data, nil
}

func ok(status int) bool {
	return status >= 200 && status < 300
}
