package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"GeminiStream/core/player"
	"GeminiStream/logger"
	"GeminiStream/model"
)

// apiResponse is the JSON envelope of every API reply.
type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(apiResponse{Success: status < 400, Data: data}); err != nil {
		logger.Warn("[Server/writeJSON] Failed to encode response", logger.ErrorField(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiResponse{Success: false, Error: msg})
}

// statusForError maps controller errors onto HTTP statuses.
func statusForError(err error) int {
	var srcErr *player.SourceResolutionError
	var rejErr *player.CastSessionRejectedError
	switch {
	case errors.As(err, &srcErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, player.ErrCastUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &rejErr):
		return http.StatusBadGateway
	case errors.Is(err, player.ErrEmptyQueue), errors.Is(err, player.ErrNoSong):
		return http.StatusConflict
	case errors.Is(err, model.ErrInvalidCredentials):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeControllerError(w http.ResponseWriter, op string, err error) {
	status := statusForError(err)
	if status >= 500 {
		logger.Error("[Server/"+op+"] Request failed", logger.ErrorField(err))
	} else {
		logger.Warn("[Server/"+op+"] Request rejected", logger.Int("status", status), logger.ErrorField(err))
	}
	writeError(w, status, err.Error())
}

func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(v)
}
