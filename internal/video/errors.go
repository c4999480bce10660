package video

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound means the referenced remote resource no longer exists.
	ErrNotFound = errors.New("video platform resource not found")

	// ErrUnauthorized means the platform rejected the access token.
	ErrUnauthorized = errors.New("video platform token rejected")

	// ErrReauthRequired means the stored credential cannot produce a new
	// token. An operator has to sign the sniffer in again; callers must not
	// retry.
	ErrReauthRequired = errors.New("re-authentication required")
)

// APIError is a non-2xx response from the video platform.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("video platform %s %s returned %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Unwrap maps auth and not-found statuses onto the package sentinels.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}
