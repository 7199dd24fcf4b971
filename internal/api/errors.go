package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrAuthenticationMissing is returned before any bytes hit the wire
// when a protected call is attempted without a stored token.
var ErrAuthenticationMissing = errors.New("not logged in")

// StatusError is a non-2xx reply from the server, as opposed to a
// transport failure. The distinction matters: only explicit server
// rejections may end a session.
type StatusError struct {
	Code    int
	Message string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("server returned %d", e.Code)
}

// StatusCode returns the HTTP status carried by the error.
func (e *StatusError) StatusCode() int {
	return e.Code
}

// statusError drains the response body and builds a StatusError,
// picking up the server's error/message field when present.
func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		msg = payload.Error
		if msg == "" {
			msg = payload.Message
		}
	}

	return &StatusError{Code: resp.StatusCode, Message: msg}
}
