package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clairenest/internal/security"
)

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Failed to marshal body: %v", err)
	}
	return bytes.NewReader(data)
}

func testMiddleware(t *testing.T) (*Middleware, *security.TokenIssuer) {
	t.Helper()
	tokens := security.NewTokenIssuer("test-secret", time.Hour)
	limiter := security.NewRateLimiter(100, time.Minute)
	return NewMiddleware(tokens, limiter), tokens
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	m, _ := testMiddleware(t)

	recorder := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/auth/me", nil)

	m.RequireAuth(okHandler)(recorder, r)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", recorder.Code)
	}
}

func TestRequireAuthRejectsMalformedHeader(t *testing.T) {
	m, tokens := testMiddleware(t)

	token, err := tokens.Issue("user-1", "parent")
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}

	recorder := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/auth/me", nil)
	r.Header.Set("Authorization", token) // missing Bearer prefix

	m.RequireAuth(okHandler)(recorder, r)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", recorder.Code)
	}
}

func TestRequireAuthPutsClaimsInContext(t *testing.T) {
	m, tokens := testMiddleware(t)

	token, err := tokens.Issue("user-1", "parent")
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}

	var gotUserID string
	handler := m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = userID(r)
		w.WriteHeader(http.StatusOK)
	})

	recorder := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/auth/me", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	handler(recorder, r)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	if gotUserID != "user-1" {
		t.Fatalf("expected user id 'user-1', got %q", gotUserID)
	}
}

func TestRequireParentRejectsSupporter(t *testing.T) {
	m, tokens := testMiddleware(t)

	token, err := tokens.Issue("user-2", "supporter")
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}

	recorder := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/requests", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	m.RequireParent(okHandler)(recorder, r)

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", recorder.Code)
	}
}

func TestRequireSupporterRejectsUnsetRole(t *testing.T) {
	m, tokens := testMiddleware(t)

	// Fresh accounts have no role until they choose one
	token, err := tokens.Issue("user-3", "")
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}

	recorder := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/feed", nil)
	r.Header.Set("Authorization", "Bearer "+token)

	m.RequireSupporter(okHandler)(recorder, r)

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", recorder.Code)
	}
}

func TestRateLimitRejectsAfterBudget(t *testing.T) {
	tokens := security.NewTokenIssuer("test-secret", time.Hour)
	limiter := security.NewRateLimiter(2, time.Minute)
	m := NewMiddleware(tokens, limiter)

	handler := m.RateLimit(okHandler)

	for i := 0; i < 2; i++ {
		recorder := httptest.NewRecorder()
		r := httptest.NewRequest("POST", "/auth/login", nil)
		r.RemoteAddr = "192.0.2.1:1234"
		handler(recorder, r)
		if recorder.Code != http.StatusOK {
			t.Fatalf("request %d: expected status 200, got %d", i+1, recorder.Code)
		}
	}

	recorder := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/auth/login", nil)
	r.RemoteAddr = "192.0.2.1:1234"
	handler(recorder, r)

	if recorder.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", recorder.Code)
	}
}
