package server

import (
	"net/http"

	"GeminiStream/core/player"
	"GeminiStream/logger"
	"GeminiStream/model"
)

// PlayerHandler exposes the playback controller over HTTP.
type PlayerHandler struct {
	controller *player.Controller
}

// NewPlayerHandler creates the transport handler.
func NewPlayerHandler(controller *player.Controller) *PlayerHandler {
	return &PlayerHandler{controller: controller}
}

// PlayRequest is the body of POST /api/play. Song wins over SongID; SongID is looked up in
// Context and then in the current queue.
type PlayRequest struct {
	SongID  string       `json:"songId"`
	Song    *model.Song  `json:"song,omitempty"`
	Context []model.Song `json:"context,omitempty"`
}

type seekRequest struct {
	Position float64 `json:"position"`
}

type expandRequest struct {
	Expanded bool `json:"expanded"`
}

func (h *PlayerHandler) StateHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.controller.State())
}

func (h *PlayerHandler) QueueHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.controller.Queue())
}

func (h *PlayerHandler) PlayHandler(w http.ResponseWriter, r *http.Request) {
	var req PlayRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var err error
	if song, ok := h.resolveSong(req); ok {
		err = h.controller.Play(r.Context(), song, req.Context)
	} else {
		err = h.controller.PlayQueue(r.Context())
	}
	if err != nil {
		writeControllerError(w, "Play", err)
		return
	}
	writeJSON(w, http.StatusOK, h.controller.State())
}

func (h *PlayerHandler) resolveSong(req PlayRequest) (model.Song, bool) {
	if req.Song != nil {
		return *req.Song, true
	}
	if req.SongID == "" {
		return model.Song{}, false
	}
	if i := model.FindSong(req.Context, req.SongID); i >= 0 {
		return req.Context[i], true
	}
	if q := h.controller.Queue(); model.FindSong(q, req.SongID) >= 0 {
		return q[model.FindSong(q, req.SongID)], true
	}
	return model.Song{ID: req.SongID}, true
}

func (h *PlayerHandler) ToggleHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.TogglePlayPause(r.Context()); err != nil {
		writeControllerError(w, "Toggle", err)
		return
	}
	writeJSON(w, http.StatusOK, h.controller.State())
}

func (h *PlayerHandler) NextHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.Next(r.Context()); err != nil {
		writeControllerError(w, "Next", err)
		return
	}
	writeJSON(w, http.StatusOK, h.controller.State())
}

func (h *PlayerHandler) PreviousHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.Previous(r.Context()); err != nil {
		writeControllerError(w, "Previous", err)
		return
	}
	writeJSON(w, http.StatusOK, h.controller.State())
}

func (h *PlayerHandler) SeekHandler(w http.ResponseWriter, r *http.Request) {
	var req seekRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.controller.Seek(r.Context(), req.Position); err != nil {
		writeControllerError(w, "Seek", err)
		return
	}
	writeJSON(w, http.StatusOK, h.controller.State())
}

func (h *PlayerHandler) ExpandHandler(w http.ResponseWriter, r *http.Request) {
	var req expandRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.controller.SetExpanded(req.Expanded)
	writeJSON(w, http.StatusOK, h.controller.State())
}

// CastHandler runs the picker and load steps synchronously so the caller
// learns the outcome. Local state is returned unchanged either way.
func (h *PlayerHandler) CastHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.RequestCast(r.Context()); err != nil {
		writeControllerError(w, "Cast", err)
		return
	}
	logger.Info("[Server/Cast] Cast requested")
	writeJSON(w, http.StatusOK, h.controller.State())
}

func (h *PlayerHandler) LyricsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.controller.Lyrics())
}
