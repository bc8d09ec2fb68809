package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized is returned when the backend answers 401. The session has
// already been cleared by the time the caller sees it.
var ErrUnauthorized = errors.New("session expired")

// RequestError is a non-2xx response (other than a 401 for the current token),
// a malformed success response, or a transport failure.
// Status is 0 when no response was received.
type RequestError struct {
	Method   string
	Endpoint string
	Status   int
	Message  string
	Err      error
}

func (e *RequestError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %v", e.Method, e.Endpoint, e.Err)
	}
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// errorMessage extracts a human-readable message from an error body:
// "message" first, then a string "detail", then "HTTP <status>".
func errorMessage(status int, body []byte) string {
	var env struct {
		Message string          `json:"message"`
		Detail  json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		if env.Message != "" {
			return env.Message
		}
		var detail string
		if len(env.Detail) > 0 && json.Unmarshal(env.Detail, &detail) == nil && detail != "" {
			return detail
		}
	}
	return fmt.Sprintf("HTTP %d", status)
}

// IsStatus reports whether err is a RequestError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var re *RequestError
	return errors.As(err, &re) && re.Status == status
}

// IsForbidden reports a 403 from the backend's permission checks.
func IsForbidden(err error) bool {
	return IsStatus(err, http.StatusForbidden)
}
