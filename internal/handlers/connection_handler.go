package handlers

import (
	"net/http"

	"clairenest/internal/models"
	"clairenest/internal/service"
)

// ConnectionHandler serves the family connection endpoints
type ConnectionHandler struct {
	connectionService *service.ConnectionService
}

// NewConnectionHandler creates a new connection handler
func NewConnectionHandler(connectionService *service.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{connectionService: connectionService}
}

// Invite handles POST /connections/invite. Accepts either a user id or an
// email to resolve.
func (h *ConnectionHandler) Invite(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID string `json:"userId"`
		Email  string `json:"email"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var err error
	switch {
	case body.UserID != "":
		err = h.connectionService.SendInvite(r.Context(), userID(r), body.UserID)
	case body.Email != "":
		err = h.connectionService.InviteByEmail(r.Context(), userID(r), body.Email)
	default:
		respondError(w, http.StatusBadRequest, "userId or email is required")
		return
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, nil)
}

// Redeem handles POST /connections/redeem, turning a stored invite code into the
// pending connection after sign-in
func (h *ConnectionHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(r, &body); err != nil || body.Code == "" {
		respondError(w, http.StatusBadRequest, "invite code is required")
		return
	}

	if err := h.connectionService.RedeemInvite(r.Context(), userID(r), body.Code); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, nil)
}

// Approve handles POST /connections/{counterpartId}/approve
func (h *ConnectionHandler) Approve(w http.ResponseWriter, r *http.Request) {
	if err := h.connectionService.Approve(r.Context(), userID(r), r.PathValue("counterpartId")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// Reject handles POST /connections/{counterpartId}/reject
func (h *ConnectionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	if err := h.connectionService.Reject(r.Context(), userID(r), r.PathValue("counterpartId")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// Pending handles GET /connections/pending
func (h *ConnectionHandler) Pending(w http.ResponseWriter, r *http.Request) {
	conns, err := h.connectionService.ListPending(r.Context(), userID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toConnectionViews(conns))
}

// Families handles GET /connections/families
func (h *ConnectionHandler) Families(w http.ResponseWriter, r *http.Request) {
	families, err := h.connectionService.ListApprovedFamilies(r.Context(), userID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if families == nil {
		families = []models.ApprovedFamily{}
	}
	respondJSON(w, http.StatusOK, families)
}
