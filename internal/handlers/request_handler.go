package handlers

import (
	"net/http"
	"time"

	"clairenest/internal/models"
	"clairenest/internal/service"
	"clairenest/internal/sync"
)

// RequestHandler serves the help request lifecycle and feed endpoints
type RequestHandler struct {
	requestService    *service.RequestService
	connectionService *service.ConnectionService
	syncService       *sync.Service
}

// NewRequestHandler creates a new request handler
func NewRequestHandler(requestService *service.RequestService,
	connectionService *service.ConnectionService, syncService *sync.Service) *RequestHandler {
	return &RequestHandler{
		requestService:    requestService,
		connectionService: connectionService,
		syncService:       syncService,
	}
}

type requestBody struct {
	Title   string     `json:"title"`
	Type    string     `json:"type"`
	Notes   string     `json:"notes"`
	Urgency string     `json:"urgency"`
	StartAt time.Time  `json:"startAt"`
	EndAt   *time.Time `json:"endAt"`
}

// Create handles POST /requests (parent only)
func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body requestBody
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reqType, err := models.ParseRequestType(body.Type)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	urgency, err := models.ParseUrgency(body.Urgency)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.requestService.Create(r.Context(), userID(r), service.CreateRequestInput{
		Title:   body.Title,
		Type:    reqType,
		Notes:   body.Notes,
		Urgency: urgency,
		StartAt: body.StartAt,
		EndAt:   body.EndAt,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toRequestView(created, time.Now()))
}

// ParentFeed handles GET /requests/mine?target=2026-08-15 (parent only). The
// target date defaults to today and drives the fetch window.
func (h *RequestHandler) ParentFeed(w http.ResponseWriter, r *http.Request) {
	target, err := parseTargetDate(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	reqs, err := h.syncService.RequestsForParent(r.Context(), userID(r), target)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toRequestViews(reqs, time.Now()))
}

// SupporterFeed handles GET /feed?target=2026-08-15 (supporter only).
// Aggregates open and claimed requests across the supporter's approved
// families.
func (h *RequestHandler) SupporterFeed(w http.ResponseWriter, r *http.Request) {
	target, err := parseTargetDate(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	supporterID := userID(r)
	parentIDs, err := h.connectionService.ApprovedParentIDs(r.Context(), supporterID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	reqs, err := h.syncService.RequestsForSupporter(r.Context(), supporterID, parentIDs, target)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toRequestViews(reqs, time.Now()))
}

func parseTargetDate(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("target")
	if raw == "" {
		return time.Now(), nil
	}
	return time.Parse("2006-01-02", raw)
}

// Get handles GET /requests/{id}
func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	req, err := h.requestService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toRequestView(req, time.Now()))
}

// History handles GET /requests/{id}/history
func (h *RequestHandler) History(w http.ResponseWriter, r *http.Request) {
	updates, err := h.requestService.History(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toUpdateViews(updates))
}

// Claim handles POST /requests/{id}/claim (supporter only)
func (h *RequestHandler) Claim(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id, actor string) (*models.HelpRequest, error) {
		return h.requestService.Claim(r.Context(), id, actor)
	})
}

// Abandon handles POST /requests/{id}/abandon (supporter only)
func (h *RequestHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id, actor string) (*models.HelpRequest, error) {
		return h.requestService.Abandon(r.Context(), id, actor)
	})
}

// Complete handles POST /requests/{id}/complete
func (h *RequestHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id, actor string) (*models.HelpRequest, error) {
		return h.requestService.Complete(r.Context(), id, actor)
	})
}

// Cancel handles POST /requests/{id}/cancel (parent only)
func (h *RequestHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id, actor string) (*models.HelpRequest, error) {
		return h.requestService.Cancel(r.Context(), id, actor)
	})
}

func (h *RequestHandler) transition(w http.ResponseWriter, r *http.Request,
	op func(id, actor string) (*models.HelpRequest, error)) {
	updated, err := op(r.PathValue("id"), userID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toRequestView(updated, time.Now()))
}

// Edit handles PATCH /requests/{id} (parent only). Absent fields are left
// untouched; clearEndAt drops the end time.
func (h *RequestHandler) Edit(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title      *string    `json:"title"`
		Type       *string    `json:"type"`
		Notes      *string    `json:"notes"`
		Urgency    *string    `json:"urgency"`
		StartAt    *time.Time `json:"startAt"`
		EndAt      *time.Time `json:"endAt"`
		ClearEndAt bool       `json:"clearEndAt"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	patch := service.EditRequestPatch{
		Title:   body.Title,
		Notes:   body.Notes,
		StartAt: body.StartAt,
	}
	if body.ClearEndAt {
		var cleared *time.Time
		patch.EndAt = &cleared
	} else if body.EndAt != nil {
		patch.EndAt = &body.EndAt
	}
	if body.Type != nil {
		reqType, err := models.ParseRequestType(*body.Type)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		patch.Type = &reqType
	}
	if body.Urgency != nil {
		urgency, err := models.ParseUrgency(*body.Urgency)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		patch.Urgency = &urgency
	}

	updated, err := h.requestService.Edit(r.Context(), r.PathValue("id"), userID(r), patch)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toRequestView(updated, time.Now()))
}
