package services

import (
	"fmt"
	"net/http"

	"github.com/desertthunder/spx/internal/shared"
	"github.com/tidwall/gjson"
)

// APIError is a non-2xx response from the Spotify Web API.
//
// It matches [shared.ErrAPIRequest] and, depending on status, [shared.ErrTokenExpired],
// [shared.ErrNotFound] (404 and 403) or [shared.ErrServiceUnavailable].
type APIError struct {
	StatusCode int
	Message    string
}

// newAPIError reads the {"error": {"status", "message"}} body Spotify returns, falling back to the status text.
func newAPIError(status int, body []byte) *APIError {
	msg := gjson.GetBytes(body, "error.message").String()
	if msg == "" {
		// token endpoint errors use a flat shape
		msg = gjson.GetBytes(body, "error_description").String()
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{StatusCode: status, Message: msg}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("spotify API error: status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case shared.ErrAPIRequest:
		return true
	case shared.ErrTokenExpired:
		return e.StatusCode == http.StatusUnauthorized
	case shared.ErrNotFound:
		// Spotify answers 403 for resources the user cannot reach, e.g. someone else's playlist.
		return e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusForbidden
	case shared.ErrServiceUnavailable:
		return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
	}
	return false
}
