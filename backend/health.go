package backend

import (
	"context"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// Ping issues a GET against the catalog root and reports whether it answered
// with a 2xx status. The body is discarded; the catalog root is not part of
// the API contract.
func Ping(ctx context.Context, b *Backend, opts ...Option) error {
	c := newClient(b, opts...)
	target := b.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return &RequestError{Method: http.MethodGet, URL: target, Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &RequestError{Method: http.MethodGet, URL: target, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))

	c.logger.Debug("catalog ping", zap.String("url", target), zap.Int("status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RequestError{Method: http.MethodGet, URL: target, StatusCode: resp.StatusCode}
	}
	return nil
}
