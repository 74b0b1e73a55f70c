package handlers

import (
	"net/http"

	"clairenest/internal/models"
	"clairenest/internal/service"
)

// AuthHandler serves account registration, sign-in and profile endpoints
type AuthHandler struct {
	authService *service.AuthService
	oauth       *OAuthVerifier
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, oauth *OAuthVerifier) *AuthHandler {
	return &AuthHandler{authService: authService, oauth: oauth}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.authService.Register(r.Context(), body.Email, body.Password, body.Name)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, authView{User: toUserView(result.User), Token: result.Token})
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.authService.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, authView{User: toUserView(result.User), Token: result.Token})
}

// OAuthLogin handles POST /auth/oauth/{provider}. The app sends the token it
// obtained natively; the backend verifies it with the provider before
// trusting the identity.
func (h *AuthHandler) OAuthLogin(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")
	var body struct {
		AccessToken string `json:"accessToken,omitempty"`
		IDToken     string `json:"idToken,omitempty"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	identity, err := h.oauth.Verify(r.Context(), provider, body.AccessToken, body.IDToken)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	result, err := h.authService.OAuthLogin(r.Context(), provider, identity.Subject, identity.Email, identity.Name)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, authView{User: toUserView(result.User), Token: result.Token})
}

// ChooseRole handles POST /auth/role
func (h *AuthHandler) ChooseRole(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Role string `json:"role"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	role, err := models.ParseRole(body.Role)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.authService.ChooseRole(r.Context(), userID(r), role)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, authView{User: toUserView(result.User), Token: result.Token})
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.GetUser(r.Context(), userID(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toUserView(user))
}

// UpdateProfile handles PUT /auth/profile
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		PhotoURL string `json:"photoUrl"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.authService.UpdateProfile(r.Context(), userID(r), body.Name, body.PhotoURL); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// ChangePassword handles PUT /auth/password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.authService.ChangePassword(r.Context(), userID(r), body.CurrentPassword, body.NewPassword); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// RegisterPushToken handles POST /auth/push-token
func (h *AuthHandler) RegisterPushToken(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.authService.RegisterPushToken(r.Context(), userID(r), body.Token); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// SignOut handles POST /auth/signout
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.SignOut(r.Context(), userID(r)); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
