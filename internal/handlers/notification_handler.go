package handlers

import (
	"net/http"

	"clairenest/internal/models"
	"clairenest/internal/service"
)

// NotificationHandler serves the notification preference endpoints
type NotificationHandler struct {
	notificationService *service.NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// Preferences handles GET /notifications/preferences. Types without a stored
// row are enabled by default and omitted here.
func (h *NotificationHandler) Preferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.notificationService.Preferences(userID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	views := make(map[string]bool, len(prefs))
	for _, p := range prefs {
		views[string(p.Type)] = p.Enabled
	}
	respondJSON(w, http.StatusOK, views)
}

// SetPreference handles PUT /notifications/preferences
func (h *NotificationHandler) SetPreference(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Type    string `json:"type"`
		Enabled bool   `json:"enabled"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	notifType, err := models.ParseNotificationType(body.Type)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.notificationService.SetPreference(userID(r), notifType, body.Enabled); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
