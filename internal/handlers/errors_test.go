package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"clairenest/internal/service"
	"clairenest/internal/sync"
	"clairenest/internal/validation"
)

func TestRespondErrorWritesStatusAndBody(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondError(recorder, http.StatusTeapot, "teapot")

	if recorder.Code != http.StatusTeapot {
		t.Fatalf("expected status 418, got %d", recorder.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected JSON body, got %q", recorder.Body.String())
	}
	if body["error"] != "teapot" {
		t.Fatalf("expected error 'teapot', got %q", body["error"])
	}
}

func TestRespondServiceErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation error", validation.ValidationError{Field: "title", Message: "required"}, http.StatusBadRequest},
		{"not found", fmt.Errorf("%w: request abc", service.ErrNotFound), http.StatusNotFound},
		{"unauthorized", fmt.Errorf("%w: not the owner", service.ErrUnauthorized), http.StatusForbidden},
		{"invalid transition", fmt.Errorf("%w: completed to claimed", service.ErrInvalidTransition), http.StatusConflict},
		{"already connected", service.ErrAlreadyConnected, http.StatusConflict},
		{"email taken", service.ErrEmailTaken, http.StatusConflict},
		{"invalid credentials", service.ErrInvalidCredentials, http.StatusUnauthorized},
		{"remote failure", errors.Join(sync.ErrRemoteFailure, errors.New("connection refused")), http.StatusBadGateway},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()

			respondServiceError(recorder, tt.err)

			if recorder.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, recorder.Code)
			}
		})
	}
}

func TestRespondServiceErrorHidesInternalDetails(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondServiceError(recorder, errors.New("pq: column does not exist"))

	var body map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected JSON body, got %q", recorder.Body.String())
	}
	if body["error"] != "internal error" {
		t.Fatalf("expected opaque message, got %q", body["error"])
	}
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	r := httptest.NewRequest("POST", "/", jsonBody(t, map[string]any{
		"email":   "a@example.com",
		"unknown": true,
	}))

	var dst struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &dst); err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
}
