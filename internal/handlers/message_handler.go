package handlers

import (
	"net/http"

	"clairenest/internal/service"
)

// MessageHandler serves the per-request message thread endpoints
type MessageHandler struct {
	messageService *service.MessageService
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messageService *service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// Send handles POST /requests/{id}/messages
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Body string `json:"body"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, err := h.messageService.Send(r.Context(), r.PathValue("id"), userID(r), body.Body)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, messageView{
		ID:        msg.ID,
		SenderID:  msg.SenderID,
		Body:      msg.Body,
		Read:      msg.Read,
		CreatedAt: msg.CreatedAt,
	})
}

// Thread handles GET /requests/{id}/messages. Reading marks the other
// party's messages as read.
func (h *MessageHandler) Thread(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.messageService.Thread(r.Context(), r.PathValue("id"), userID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toMessageViews(msgs))
}

// Unread handles GET /requests/{id}/messages/unread
func (h *MessageHandler) Unread(w http.ResponseWriter, r *http.Request) {
	count, err := h.messageService.UnreadCount(r.Context(), r.PathValue("id"), userID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"unread": count})
}
