package handler

import (
	"net/http"
	"time"

	"github.com/albapepper/sideline/internal/api/respond"
)

// MatchRequest is the body of POST /api/v1/recordings/match.
type MatchRequest struct {
	CameraID  string    `json:"camera_id" validate:"required"`
	StartTime time.Time `json:"start_time" validate:"required"`
}

// MatchResponse reports the matched game, or why nothing matched.
type MatchResponse struct {
	Matched      bool     `json:"matched"`
	TeamID       string   `json:"team_id,omitempty"`
	GameID       string   `json:"game_id,omitempty"`
	Title        string   `json:"title,omitempty"`
	GameStart    string   `json:"game_start,omitempty"`
	DeltaSeconds float64  `json:"delta_seconds,omitempty"`
	Fallback     bool     `json:"fallback"`
	Refreshed    []string `json:"refreshed,omitempty"`
	OutOfSeason  []string `json:"out_of_season,omitempty"`
	Errors       []string `json:"errors,omitempty"`
	Reason       string   `json:"reason,omitempty"`
}

// MatchRecording resolves a recording start to a cached game, re-scraping
// the camera's in-season teams once on a miss.
func (h *Handler) MatchRecording(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.Matcher.MatchRecording(r.Context(), CallerKey(r), req.CameraID, req.StartTime)
	if err != nil {
		respond.WriteFailure(w, err)
		return
	}

	out := MatchResponse{
		Matched:     res.Matched(),
		Fallback:    res.Fallback,
		Refreshed:   res.Refreshed,
		OutOfSeason: res.OutOfSeason,
		Errors:      res.Errors,
		Reason:      res.Reason,
	}
	if res.Hit != nil {
		out.TeamID = res.Hit.TeamID
		out.GameID = res.Hit.Game.ID
		out.Title = res.Hit.Game.Title
		out.GameStart = res.Hit.Game.StartTime.UTC().Format(time.RFC3339)
		out.DeltaSeconds = res.Hit.Delta.Seconds()
	}
	respond.WriteJSONObject(w, http.StatusOK, out)
}
