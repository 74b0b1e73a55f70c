package repository

import (
	"path/filepath"
	"testing"
	"time"

	"clairenest/internal/database"
	"clairenest/internal/models"
)

// openTestDB creates a migrated SQLite database in a temp directory
func openTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

func createTestUser(t *testing.T, users *UserRepository, email string) *models.User {
	t.Helper()
	user, err := users.CreateUser(email, "hash", "Test User")
	if err != nil {
		t.Fatalf("Failed to create user %s: %v", email, err)
	}
	return user
}

func TestConnectionPairLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)
	users := NewUserRepository(db)
	connections := NewConnectionRepository(db)

	parent := createTestUser(t, users, "parent@example.com")
	supporter := createTestUser(t, users, "supporter@example.com")

	if err := connections.CreatePair(parent.ID, supporter.ID); err != nil {
		t.Fatalf("Failed to create connection pair: %v", err)
	}

	// Both directions exist and start pending
	for _, pair := range [][2]string{{parent.ID, supporter.ID}, {supporter.ID, parent.ID}} {
		conn, err := connections.GetByOwnerAndCounterpart(pair[0], pair[1])
		if err != nil {
			t.Fatalf("Failed to get connection: %v", err)
		}
		if conn == nil {
			t.Fatalf("Expected connection %s -> %s, got none", pair[0], pair[1])
		}
		if conn.Status != models.ConnectionPending {
			t.Errorf("Expected pending status, got %s", conn.Status)
		}
	}

	// Approval updates both rows
	if err := connections.UpdateStatusPair(parent.ID, supporter.ID, models.ConnectionApproved); err != nil {
		t.Fatalf("Failed to approve connection: %v", err)
	}

	conn, err := connections.GetByOwnerAndCounterpart(supporter.ID, parent.ID)
	if err != nil {
		t.Fatalf("Failed to get reverse connection: %v", err)
	}
	if conn.Status != models.ConnectionApproved {
		t.Errorf("Expected reverse row approved, got %s", conn.Status)
	}

	ids, err := connections.ListApprovedCounterpartIDs(supporter.ID)
	if err != nil {
		t.Fatalf("Failed to list approved counterparts: %v", err)
	}
	if len(ids) != 1 || ids[0] != parent.ID {
		t.Errorf("Expected approved counterpart %s, got %v", parent.ID, ids)
	}

	// Resolved pairs do not change again
	if err := connections.UpdateStatusPair(parent.ID, supporter.ID, models.ConnectionRejected); err != nil {
		t.Fatalf("UpdateStatusPair on resolved pair failed: %v", err)
	}
	conn, err = connections.GetByOwnerAndCounterpart(parent.ID, supporter.ID)
	if err != nil {
		t.Fatalf("Failed to re-get connection: %v", err)
	}
	if conn.Status != models.ConnectionApproved {
		t.Errorf("Expected approved to stick, got %s", conn.Status)
	}
}

func TestRequestRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)
	users := NewUserRepository(db)
	requests := NewRequestRepository(db)

	parent := createTestUser(t, users, "parent@example.com")
	supporter := createTestUser(t, users, "supporter@example.com")

	startAt := time.Date(2026, 9, 10, 18, 0, 0, 0, time.UTC)
	endAt := startAt.Add(3 * time.Hour)
	created, err := requests.CreateRequest(&models.HelpRequest{
		ParentID: parent.ID,
		Title:    "Babysitter for Friday",
		Type:     models.TypeBabysitting,
		Notes:    "Two kids, bedtime at 8",
		Urgency:  models.UrgencyHigh,
		StartAt:  startAt,
		EndAt:    &endAt,
	})
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	if created.Status != models.RequestOpen {
		t.Errorf("Expected new request open, got %s", created.Status)
	}

	got, err := requests.GetRequestByID(created.ID)
	if err != nil {
		t.Fatalf("Failed to get request: %v", err)
	}
	if got == nil {
		t.Fatal("Expected request, got none")
	}
	if got.Title != created.Title || got.Type != models.TypeBabysitting {
		t.Errorf("Round trip mismatch: %+v", got)
	}
	if got.EndAt == nil || !got.EndAt.Equal(endAt) {
		t.Errorf("Expected end time %v, got %v", endAt, got.EndAt)
	}

	// Range query uses a half-open window on the start time
	inWindow, err := requests.QueryByParentAndRange(parent.ID,
		startAt.AddDate(0, 0, -1), startAt.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("Failed to query range: %v", err)
	}
	if len(inWindow) != 1 {
		t.Errorf("Expected 1 request in window, got %d", len(inWindow))
	}

	atBoundary, err := requests.QueryByParentAndRange(parent.ID,
		startAt.AddDate(0, 0, -2), startAt)
	if err != nil {
		t.Fatalf("Failed to query boundary range: %v", err)
	}
	if len(atBoundary) != 0 {
		t.Errorf("Expected start time excluded from [from, to), got %d results", len(atBoundary))
	}

	// Claim and read back
	if err := requests.UpdateStatus(created.ID, models.RequestClaimed, &supporter.ID); err != nil {
		t.Fatalf("Failed to update status: %v", err)
	}
	claimed, err := requests.ListClaimedBy(supporter.ID)
	if err != nil {
		t.Fatalf("Failed to list claimed: %v", err)
	}
	if len(claimed) != 1 || claimed[0].ID != created.ID {
		t.Errorf("Expected claimed request %s, got %v", created.ID, claimed)
	}
}

func TestRequestUpdateHistoryOrdering(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)
	users := NewUserRepository(db)
	requests := NewRequestRepository(db)

	parent := createTestUser(t, users, "parent@example.com")
	req, err := requests.CreateRequest(&models.HelpRequest{
		ParentID: parent.ID,
		Title:    "School run",
		Type:     models.TypeChildcare,
		Urgency:  models.UrgencyMedium,
		StartAt:  time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	for _, updateType := range []models.UpdateType{
		models.UpdateCreated, models.UpdateClaimed, models.UpdateCompleted,
	} {
		if _, err := requests.AppendUpdate(&models.RequestUpdate{
			RequestID: req.ID,
			ActorID:   parent.ID,
			Type:      updateType,
		}); err != nil {
			t.Fatalf("Failed to append %s update: %v", updateType, err)
		}
	}

	updates, err := requests.ListUpdates(req.ID)
	if err != nil {
		t.Fatalf("Failed to list updates: %v", err)
	}
	if len(updates) != 3 {
		t.Fatalf("Expected 3 updates, got %d", len(updates))
	}
	if updates[0].Type != models.UpdateCreated || updates[2].Type != models.UpdateCompleted {
		t.Errorf("Expected chronological order, got %v, %v, %v",
			updates[0].Type, updates[1].Type, updates[2].Type)
	}
}
