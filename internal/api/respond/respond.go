// Package respond provides shared JSON response utilities for API handlers.
package respond

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/albapepper/sideline/internal/gateway"
	"github.com/albapepper/sideline/internal/ratelimit"
	"github.com/albapepper/sideline/internal/store"
	"github.com/albapepper/sideline/internal/video"
)

// ErrorResponse is the standard error shape for all API errors.
type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Detail  string `json:"detail,omitempty"`
	} `json:"error"`
}

// WriteBytes writes an opaque body with cache and ETag headers.
func WriteBytes(w http.ResponseWriter, contentType string, data []byte, etag string, ttl time.Duration) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(ttl.Seconds())))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// WriteNotModified sends a 304 with the matching ETag.
func WriteNotModified(w http.ResponseWriter, etag string) {
	w.Header().Set("ETag", etag)
	w.WriteHeader(http.StatusNotModified)
}

// WriteError sends a structured JSON error response.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteErrorDetail(w, status, code, message, "")
}

// WriteErrorDetail sends a structured error with additional detail.
func WriteErrorDetail(w http.ResponseWriter, status int, code, message, detail string) {
	resp := ErrorResponse{}
	resp.Error.Code = code
	resp.Error.Message = message
	resp.Error.Detail = detail
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// WriteJSONObject marshals a Go value to JSON and writes it.
func WriteJSONObject(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteFailure maps a domain error onto the error envelope.
func WriteFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ratelimit.ErrRateLimited):
		WriteError(w, http.StatusTooManyRequests, "RATE_LIMITED", err.Error())
	case errors.Is(err, gateway.ErrQuotaExceeded):
		WriteError(w, http.StatusTooManyRequests, "QUOTA_EXCEEDED", err.Error())
	case errors.Is(err, video.ErrReauthRequired):
		WriteError(w, http.StatusUnauthorized, "REAUTH_REQUIRED", err.Error())
	case errors.Is(err, store.ErrNotFound), errors.Is(err, video.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	default:
		WriteErrorDetail(w, http.StatusBadGateway, "UPSTREAM_ERROR", "Request failed", err.Error())
	}
}
