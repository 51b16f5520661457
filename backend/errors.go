package backend

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidURL is returned when the backend address or an API path is malformed
	ErrInvalidURL = errors.New("invalid backend URL")
	// ErrRequestFailed is returned for network failures and non-success HTTP statuses
	ErrRequestFailed = errors.New("request failed")
	// ErrDecodeFailed is returned when a response body does not match the expected shape
	ErrDecodeFailed = errors.New("decode failed")
)

// RequestError describes a failed exchange with the catalog.
// StatusCode is zero when no response was received.
type RequestError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		if e.Body != "" {
			return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
		}
		return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

// Unwrap exposes both ErrRequestFailed and the underlying cause
func (e *RequestError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrRequestFailed}
	}
	return []error{ErrRequestFailed, e.Err}
}

// NotFound reports whether the catalog answered 404
func (e *RequestError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// DecodeError describes a response body that could not be decoded
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response from %s: %v", e.URL, e.Err)
}

// Unwrap exposes both ErrDecodeFailed and the underlying cause
func (e *DecodeError) Unwrap() []error {
	return []error{ErrDecodeFailed, e.Err}
}

// IsNotFound reports whether err is a RequestError for a 404 response
func IsNotFound(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr) && reqErr.NotFound()
}
