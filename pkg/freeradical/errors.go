package freeradical

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Sentinels for errors.Is. An *APIError matches the one for its status class.
var (
	ErrBadRequest   = errors.New("freeradical: bad request")
	ErrUnauthorized = errors.New("freeradical: unauthorized")
	ErrForbidden    = errors.New("freeradical: forbidden")
	ErrNotFound     = errors.New("freeradical: not found")
	ErrConflict     = errors.New("freeradical: conflict")
	ErrServer       = errors.New("freeradical: server error")
	ErrTimeout      = errors.New("freeradical: request timed out")
)

const maxRawMessage = 512

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Message string
	Details json.RawMessage
}

func (e *APIError) Error() string {
	return fmt.Sprintf("freeradical: %d %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrBadRequest:
		return e.Status == http.StatusBadRequest || e.Status == http.StatusUnprocessableEntity
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrConflict:
		return e.Status == http.StatusConflict
	case ErrServer:
		return e.Status >= http.StatusInternalServerError
	}
	return false
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}
	trimmed := strings.TrimSpace(string(body))
	if trimmed != "" {
		var envelope struct {
			Message string          `json:"message"`
			Error   json.RawMessage `json:"error"`
			Details json.RawMessage `json:"details"`
		}
		var text string
		switch {
		case json.Unmarshal([]byte(trimmed), &envelope) == nil:
			apiErr.Message = envelope.Message
			if apiErr.Message == "" && len(envelope.Error) > 0 {
				if json.Unmarshal(envelope.Error, &text) == nil {
					apiErr.Message = text
				}
			}
			if len(envelope.Details) > 0 && string(envelope.Details) != "null" {
				apiErr.Details = envelope.Details
			}
		case json.Unmarshal([]byte(trimmed), &text) == nil:
			apiErr.Message = text
		default:
			if len(trimmed) > maxRawMessage {
				trimmed = trimmed[:maxRawMessage]
			}
			apiErr.Message = trimmed
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

// TransportError is a request that never produced an HTTP response: DNS,
// connection and TLS failures, timeouts and cancellation.
type TransportError struct {
	Method  string
	Path    string
	Timeout bool
	Err     error
}

func (e *TransportError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("freeradical: %s %s: timed out: %v", e.Method, e.Path, e.Err)
	}
	return fmt.Sprintf("freeradical: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTimeout && e.Timeout
}

func newTransportError(method, path string, err error) *TransportError {
	var netErr net.Error
	timeout := errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout())
	return &TransportError{Method: method, Path: path, Timeout: timeout, Err: err}
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// StatusOf returns the HTTP status carried by err, or 0 when err is not an
// *APIError.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
