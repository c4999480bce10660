package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/albapepper/sideline/internal/api/respond"
	"github.com/albapepper/sideline/internal/cache"
)

// PutThumbnail stores a pre-composited matchup image for a game. Scheduled
// lives created while it is cached carry it as their thumbnail.
func (h *Handler) PutThumbnail(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameID")

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, cache.MaxThumbnailBytes))
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		respond.WriteError(w, http.StatusRequestEntityTooLarge, "THUMBNAIL_TOO_LARGE", "Thumbnail exceeds 2MB")
		return
	case err != nil:
		respond.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "Could not read thumbnail")
		return
	case len(data) == 0:
		respond.WriteError(w, http.StatusBadRequest, "EMPTY_THUMBNAIL", "Thumbnail body is empty")
		return
	}

	etag := h.Cache.Set(gameID, data)
	w.Header().Set("ETag", etag)
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"game_id": gameID,
		"bytes":   len(data),
		"etag":    etag,
	})
}

// GetThumbnail serves a cached thumbnail with ETag revalidation.
func (h *Handler) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameID")

	data, etag, ok := h.Cache.Get(gameID)
	if !ok {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "No thumbnail cached for game "+gameID)
		return
	}
	if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
		respond.WriteNotModified(w, etag)
		return
	}
	respond.WriteBytes(w, http.DetectContentType(data), data, etag, h.Cache.TTL())
}
