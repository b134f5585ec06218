package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors.
var (
	// ErrEmptyQuestion is returned before any request is made when the
	// question is blank.
	ErrEmptyQuestion = errors.New("question cannot be empty")

	// ErrRejected marks responses that must not be retried (4xx).
	ErrRejected = errors.New("request rejected by backend")

	// ErrUnavailable marks transport failures.
	ErrUnavailable = errors.New("backend unavailable")
)

// StatusError is a non-2xx response from the backend.
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend returned status %d", e.Code)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Code, e.Detail)
}

// Unwrap lets errors.Is(err, ErrRejected) match client errors.
func (e *StatusError) Unwrap() error {
	if e.Code >= 400 && e.Code < 500 {
		return ErrRejected
	}
	return nil
}

// Retryable reports whether the request may succeed if repeated.
func (e *StatusError) Retryable() bool {
	return e.Code >= 500
}

// newStatusError reads the {"detail": ...} envelope, falling back to the raw
// body text.
func newStatusError(code int, body []byte) *StatusError {
	var env struct {
		Detail json.RawMessage `json:"detail"`
	}
	se := &StatusError{Code: code}
	if err := json.Unmarshal(body, &env); err == nil && len(env.Detail) > 0 {
		var s string
		if json.Unmarshal(env.Detail, &s) == nil {
			se.Detail = s
		} else {
			se.Detail = string(env.Detail)
		}
		return se
	}
	se.Detail = strings.TrimSpace(string(body))
	return se
}
