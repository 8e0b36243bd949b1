package services

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrGeneration is the parent of every generation service failure.
	ErrGeneration = errors.New("generation failed")
	// ErrAuth means the service rejected the credentials.
	ErrAuth = fmt.Errorf("%w: authentication", ErrGeneration)
	// ErrTransport covers network failures, timeouts and server errors.
	ErrTransport = fmt.Errorf("%w: transport", ErrGeneration)
	// ErrBadRequest means the service refused the request itself.
	ErrBadRequest = fmt.Errorf("%w: bad request", ErrGeneration)

	// ErrSchemaViolation means a reply did not match the requested schema.
	ErrSchemaViolation = errors.New("response does not match schema")
)

// Error describes a failed call to a generation provider.
type Error struct {
	Kind       error // ErrAuth, ErrTransport or ErrBadRequest
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Provider, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// ClassifyStatus maps a non-2xx HTTP status to the error family.
func ClassifyStatus(provider string, code int, body string) *Error {
	kind := ErrTransport
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = ErrAuth
	case http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity:
		kind = ErrBadRequest
	}
	return &Error{Kind: kind, Provider: provider, StatusCode: code, Message: truncate(body, 500)}
}

// transportError wraps a failure to reach the provider.
func transportError(provider string, err error) *Error {
	return &Error{Kind: ErrTransport, Provider: provider, Err: err}
}

// badResponse reports an unusable 2xx reply.
func badResponse(provider, msg string) *Error {
	return &Error{Kind: ErrTransport, Provider: provider, Message: msg}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
