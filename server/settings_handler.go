package server

import (
	"net/http"

	"GeminiStream/core/player"
	"GeminiStream/logger"
	"GeminiStream/model"
	"GeminiStream/repository"
)

const redactedPassword = "********"

// SettingsHandler reads and writes the server credentials.
type SettingsHandler struct {
	repo       repository.SettingsRepository
	controller *player.Controller
	catalog    Catalog
	hub        *Hub
}

// NewSettingsHandler creates the settings handler. hub may be nil.
func NewSettingsHandler(repo repository.SettingsRepository, controller *player.Controller, catalog Catalog, hub *Hub) *SettingsHandler {
	return &SettingsHandler{repo: repo, controller: controller, catalog: catalog, hub: hub}
}

func (h *SettingsHandler) GetSettingsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.controller.Credentials().Redacted())
}

// PutSettingsHandler validates, persists and applies new credentials.
// Sending back the redacted password keeps the stored one.
func (h *SettingsHandler) PutSettingsHandler(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if err := decodeBody(r, &creds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if creds.Password == redactedPassword {
		creds.Password = h.controller.Credentials().Password
	}
	if err := creds.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.repo.Save(r.Context(), creds); err != nil {
		writeControllerError(w, "PutSettings", err)
		return
	}
	h.controller.SetCredentials(creds)

	// a failed ping is reported but does not undo the save
	reachable := true
	if err := h.catalog.Ping(r.Context(), creds); err != nil {
		reachable = false
		logger.Warn("[Server/PutSettings] Server not reachable with new settings", logger.ErrorField(err))
	}
	if h.hub != nil {
		_ = h.hub.Broadcast(MsgTypeSettings, creds.Redacted())
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"settings":  creds.Redacted(),
		"reachable": reachable,
	})
}
