package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/albapepper/sideline/internal/api/respond"
	"github.com/albapepper/sideline/internal/model"
	"github.com/albapepper/sideline/internal/store"
)

// --------------------------------------------------------------------------
// Team mapping and schedule
// --------------------------------------------------------------------------

// MappingRequest is the body of PUT /api/v1/teams/{teamID}/mapping.
type MappingRequest struct {
	ChannelID     string   `json:"channel_id" validate:"required"`
	ChannelHandle string   `json:"channel_handle"`
	SnifferID     string   `json:"sniffer_id" validate:"required"`
	Tags          []string `json:"tags" validate:"max=10,dive,max=30"`
	Privacy       int      `json:"privacy" validate:"min=0,max=5"`
}

// PutMapping binds a team to a channel. Recorded playlists and the
// permanent live survive a rebind.
func (h *Handler) PutMapping(w http.ResponseWriter, r *http.Request) {
	teamID := chi.URLParam(r, "teamID")
	var req MappingRequest
	if !h.decode(w, r, &req) {
		return
	}

	m, err := h.Store.GetMapping(r.Context(), teamID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		m = &model.TeamMapping{TeamID: teamID}
	case err != nil:
		respond.WriteFailure(w, err)
		return
	}
	m.ChannelID = req.ChannelID
	m.ChannelHandle = req.ChannelHandle
	m.SnifferID = req.SnifferID
	m.Tags = req.Tags
	m.Privacy = req.Privacy

	if err := h.Store.PutMapping(r.Context(), m); err != nil {
		respond.WriteFailure(w, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, m)
}

// GetSchedule returns a team's cached schedule.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	sched, err := h.Store.GetSchedule(r.Context(), chi.URLParam(r, "teamID"))
	if err != nil {
		respond.WriteFailure(w, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, sched)
}

// RefreshTeam re-scrapes a team's schedule through the gateway, charged to
// the calling sniffer.
func (h *Handler) RefreshTeam(w http.ResponseWriter, r *http.Request) {
	sched, err := h.Refresher.RefreshTeam(r.Context(), CallerKey(r), chi.URLParam(r, "teamID"))
	if err != nil {
		respond.WriteFailure(w, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, sched)
}

// EnsurePermanentLive creates (or verifies) a team's permanent live.
func (h *Handler) EnsurePermanentLive(w http.ResponseWriter, r *http.Request) {
	live, err := h.Permanent.Ensure(r.Context(), chi.URLParam(r, "teamID"))
	if err != nil {
		respond.WriteFailure(w, err)
		return
	}
	status := http.StatusOK
	if live.Created {
		status = http.StatusCreated
	}
	respond.WriteJSONObject(w, status, live)
}

// --------------------------------------------------------------------------
// Sniffer cameras
// --------------------------------------------------------------------------

// CameraBinding is one camera in PUT /api/v1/sniffers/{snifferID}/cameras.
type CameraBinding struct {
	CameraID string `json:"camera_id" validate:"required"`
	Path     string `json:"path"`
	TeamID   string `json:"team_id"`
}

// CamerasRequest replaces a sniffer's camera bindings.
type CamerasRequest struct {
	Cameras []CameraBinding `json:"cameras" validate:"dive"`
}

// PutCameras replaces a sniffer's camera list. A camera bound to a team
// that already has a permanent live inherits its id.
func (h *Handler) PutCameras(w http.ResponseWriter, r *http.Request) {
	snifferID := chi.URLParam(r, "snifferID")
	var req CamerasRequest
	if !h.decode(w, r, &req) {
		return
	}

	cams := make([]model.CameraAssignment, 0, len(req.Cameras))
	for _, b := range req.Cameras {
		cam := model.CameraAssignment{CameraID: b.CameraID, Path: b.Path, TeamID: b.TeamID}
		if b.TeamID != "" {
			m, err := h.Store.GetMapping(r.Context(), b.TeamID)
			switch {
			case err == nil:
				cam.PermanentLiveID = m.PermanentLiveID
			case !errors.Is(err, store.ErrNotFound):
				respond.WriteFailure(w, err)
				return
			}
		}
		cams = append(cams, cam)
	}

	if err := h.Store.PutCameras(r.Context(), snifferID, cams); err != nil {
		respond.WriteFailure(w, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"sniffer_id": snifferID,
		"cameras":    cams,
	})
}

// --------------------------------------------------------------------------
// Reconciliation
// --------------------------------------------------------------------------

// ReconcileLives runs the scheduled-live reconciler, for every mapped team
// or only ?team=.
func (h *Handler) ReconcileLives(w http.ResponseWriter, r *http.Request) {
	if teamID := r.URL.Query().Get("team"); teamID != "" {
		t, err := h.Lives.RunTeam(r.Context(), teamID)
		if err != nil {
			respond.WriteFailure(w, err)
			return
		}
		respond.WriteJSONObject(w, http.StatusOK, t)
		return
	}

	res, err := h.Lives.Run(r.Context())
	if err != nil {
		respond.WriteFailure(w, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"summary": res.Summary(),
		"result":  res,
	})
}

// ReconcileReplays runs the replay reconciler over every mapped team.
func (h *Handler) ReconcileReplays(w http.ResponseWriter, r *http.Request) {
	res, err := h.Replays.Run(r.Context())
	if err != nil {
		respond.WriteFailure(w, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"summary": res.Summary(),
		"result":  res,
	})
}
