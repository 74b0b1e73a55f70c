package handlers

import (
	"net/http"
	"time"

	"clairenest/internal/models"
	"clairenest/internal/service"
)

// ChildHandler serves the child profile endpoints (parent only)
type ChildHandler struct {
	childService *service.ChildService
}

// NewChildHandler creates a new child handler
func NewChildHandler(childService *service.ChildService) *ChildHandler {
	return &ChildHandler{childService: childService}
}

type childBody struct {
	Name       string             `json:"name"`
	Birthdate  time.Time          `json:"birthdate"`
	HeightCm   *float64           `json:"heightCm"`
	WeightKg   *float64           `json:"weightKg"`
	Milestones []models.Milestone `json:"milestones"`
}

func (b childBody) toInput() service.ChildInput {
	return service.ChildInput{
		Name:       b.Name,
		Birthdate:  b.Birthdate,
		HeightCm:   b.HeightCm,
		WeightKg:   b.WeightKg,
		Milestones: b.Milestones,
	}
}

// Create handles POST /children
func (h *ChildHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body childBody
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	child, err := h.childService.Create(r.Context(), userID(r), body.toInput())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toChildView(child, time.Now()))
}

// List handles GET /children
func (h *ChildHandler) List(w http.ResponseWriter, r *http.Request) {
	children, err := h.childService.List(r.Context(), userID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	now := time.Now()
	views := make([]childView, 0, len(children))
	for i := range children {
		views = append(views, toChildView(&children[i], now))
	}
	respondJSON(w, http.StatusOK, views)
}

// Update handles PUT /children/{id}
func (h *ChildHandler) Update(w http.ResponseWriter, r *http.Request) {
	var body childBody
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	child, err := h.childService.Update(r.Context(), userID(r), r.PathValue("id"), body.toInput())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toChildView(child, time.Now()))
}

// Delete handles DELETE /children/{id}
func (h *ChildHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.childService.Delete(r.Context(), userID(r), r.PathValue("id")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
