package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"clairenest/internal/database"
	"clairenest/internal/models"
	"clairenest/internal/repository"
	"clairenest/internal/security"
	"clairenest/internal/service"
)

type familiesFixture struct {
	mux       *http.ServeMux
	tokens    *security.TokenIssuer
	parent    *models.User
	supporter *models.User
}

func newFamiliesFixture(t *testing.T) *familiesFixture {
	t.Helper()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	users := repository.NewUserRepository(db)
	connections := repository.NewConnectionRepository(db)

	parent, err := users.CreateUser("parent@example.com", "hash", "Claire")
	if err != nil {
		t.Fatalf("Failed to create parent: %v", err)
	}
	if err := users.SetRole(parent.ID, models.RoleParent); err != nil {
		t.Fatalf("Failed to set parent role: %v", err)
	}
	supporter, err := users.CreateUser("supporter@example.com", "hash", "Sam")
	if err != nil {
		t.Fatalf("Failed to create supporter: %v", err)
	}
	if err := users.SetRole(supporter.ID, models.RoleSupporter); err != nil {
		t.Fatalf("Failed to set supporter role: %v", err)
	}

	if err := connections.CreatePair(parent.ID, supporter.ID); err != nil {
		t.Fatalf("Failed to create connection pair: %v", err)
	}
	if err := connections.UpdateStatusPair(parent.ID, supporter.ID, models.ConnectionApproved); err != nil {
		t.Fatalf("Failed to approve connection: %v", err)
	}

	email, err := service.NewEmailService("eu-west-1", "", "ClaireNest", "http://localhost:8080", false)
	if err != nil {
		t.Fatalf("Failed to create email service: %v", err)
	}
	connectionService := service.NewConnectionService(connections, users, email)
	handler := NewConnectionHandler(connectionService)

	tokens := security.NewTokenIssuer("test-secret", time.Hour)
	m := NewMiddleware(tokens, security.NewRateLimiter(100, time.Minute))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /connections/families", m.RequireAuth(handler.Families))

	return &familiesFixture{mux: mux, tokens: tokens, parent: parent, supporter: supporter}
}

func (f *familiesFixture) listFamilies(t *testing.T, user *models.User) *httptest.ResponseRecorder {
	t.Helper()
	token, err := f.tokens.Issue(user.ID, string(user.Role))
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}

	recorder := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/connections/families", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	f.mux.ServeHTTP(recorder, r)
	return recorder
}

// Both sides of an approved connection can list their families; the listing
// is not a supporter-only view.
func TestFamiliesVisibleToBothRoles(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	f := newFamiliesFixture(t)

	tests := []struct {
		name            string
		caller          *models.User
		wantCounterpart string
	}{
		{"parent", f.parent, f.supporter.ID},
		{"supporter", f.supporter, f.parent.ID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := f.listFamilies(t, tt.caller)
			if recorder.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d (%s)", recorder.Code, recorder.Body.String())
			}

			var families []models.ApprovedFamily
			if err := json.Unmarshal(recorder.Body.Bytes(), &families); err != nil {
				t.Fatalf("expected JSON body, got %q", recorder.Body.String())
			}
			if len(families) != 1 || families[0].Counterpart.ID != tt.wantCounterpart {
				t.Errorf("expected counterpart %s, got %v", tt.wantCounterpart, families)
			}
		})
	}
}
