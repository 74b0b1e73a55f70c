package handlers

import (
	"fmt"
	"net/http"
	"net/url"

	"clairenest/internal/models"
	"clairenest/internal/repository"
)

// InviteHandler serves the public invite deep link. It is the only
// unauthenticated surface besides registration and sign-in.
type InviteHandler struct {
	users      *repository.UserRepository
	appBaseURL string
}

// NewInviteHandler creates a new invite handler
func NewInviteHandler(users *repository.UserRepository, appBaseURL string) *InviteHandler {
	return &InviteHandler{users: users, appBaseURL: appBaseURL}
}

// Open handles GET /invite/{code}. A valid code redirects into the app's
// sign-in flow carrying the code; the app redeems it after auth.
func (h *InviteHandler) Open(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	inviter, err := h.users.GetUserByID(code)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if inviter == nil || inviter.Role != models.RoleParent {
		respondError(w, http.StatusNotFound, "invite not found")
		return
	}

	target := fmt.Sprintf("%s/signin?%s", h.appBaseURL,
		url.Values{"invite": []string{code}}.Encode())
	http.Redirect(w, r, target, http.StatusFound)
}
