package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// maxErrorBody bounds how much of a failed response is kept for the error message
const maxErrorBody = 512

// Option configures a service client
type Option func(*client)

// WithHTTPClient replaces the default http.Client. Timeouts, TLS and pooling
// belong to the transport passed here.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger used for request tracing
func WithLogger(logger *zap.Logger) Option {
	return func(c *client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// client holds the immutable plumbing shared by the services
type client struct {
	backend *Backend
	http    *http.Client
	logger  *zap.Logger
}

func newClient(b *Backend, opts ...Option) client {
	c := client{
		backend: b,
		http:    http.DefaultClient,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// getJSON issues a GET with the given query and decodes the body into out
func (c client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u, err := c.backend.Resolve(path)
	if err != nil {
		return err
	}
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return &RequestError{Method: http.MethodGet, URL: u.String(), Err: err}
	}
	return c.do(req, out)
}

// postJSON issues a POST with body encoded as JSON and decodes the response into out
func (c client) postJSON(ctx context.Context, path string, body any, out any) error {
	u, err := c.backend.Resolve(path)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request for %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(payload))
	if err != nil {
		return &RequestError{Method: http.MethodPost, URL: u.String(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	target := req.URL.String()
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("catalog request failed",
			zap.String("method", req.Method),
			zap.String("url", target),
			zap.Error(err))
		return &RequestError{Method: req.Method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("catalog request",
		zap.String("method", req.Method),
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &RequestError{
			Method:     req.Method,
			URL:        target,
			StatusCode: resp.StatusCode,
			Body:       string(bytes.TrimSpace(b)),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RequestError{Method: req.Method, URL: target, Err: fmt.Errorf("read body: %w", err)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &DecodeError{URL: target, Err: err}
	}
	return nil
}
