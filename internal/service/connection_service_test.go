package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"clairenest/internal/database"
	"clairenest/internal/models"
	"clairenest/internal/repository"
)

// openServiceDB creates a migrated SQLite database in a temp directory
func openServiceDB(t *testing.T) *database.DB {
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

// disabledEmailService builds an email service that logs instead of sending
func disabledEmailService(t *testing.T) *EmailService {
	t.Helper()
	email, err := NewEmailService("eu-west-1", "", "ClaireNest", "http://localhost:8080", false)
	if err != nil {
		t.Fatalf("Failed to create email service: %v", err)
	}
	return email
}

type connectionFixture struct {
	svc         *ConnectionService
	users       *repository.UserRepository
	connections *repository.ConnectionRepository
	parent      *models.User
	supporter   *models.User
}

func newConnectionFixture(t *testing.T) *connectionFixture {
	t.Helper()

	db := openServiceDB(t)
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

	return &connectionFixture{
		svc:         NewConnectionService(connections, users, disabledEmailService(t)),
		users:       users,
		connections: connections,
		parent:      parent,
		supporter:   supporter,
	}
}

func TestSendInviteCreatesPendingBothSides(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	f := newConnectionFixture(t)
	ctx := context.Background()

	if err := f.svc.SendInvite(ctx, f.parent.ID, f.supporter.ID); err != nil {
		t.Fatalf("SendInvite failed: %v", err)
	}

	for _, pair := range [][2]string{{f.parent.ID, f.supporter.ID}, {f.supporter.ID, f.parent.ID}} {
		conn, err := f.connections.GetByOwnerAndCounterpart(pair[0], pair[1])
		if err != nil {
			t.Fatalf("Failed to get connection: %v", err)
		}
		if conn == nil || conn.Status != models.ConnectionPending {
			t.Errorf("Expected pending connection %s -> %s, got %+v", pair[0], pair[1], conn)
		}
	}
}

func TestSendInviteRejectsSelf(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	f := newConnectionFixture(t)

	err := f.svc.SendInvite(context.Background(), f.parent.ID, f.parent.ID)
	if !errors.Is(err, ErrAlreadyConnected) {
		t.Fatalf("Expected ErrAlreadyConnected for self-invite, got %v", err)
	}
}

func TestSendInviteUnknownCounterpart(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	f := newConnectionFixture(t)

	err := f.svc.SendInvite(context.Background(), f.parent.ID, "no-such-user")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for unknown counterpart, got %v", err)
	}
}

func TestSendInviteDuplicateRejected(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tests := []struct {
		name    string
		resolve func(f *connectionFixture) error
	}{
		{"pending", func(f *connectionFixture) error { return nil }},
		{"approved", func(f *connectionFixture) error {
			return f.svc.Approve(context.Background(), f.supporter.ID, f.parent.ID)
		}},
		{"rejected", func(f *connectionFixture) error {
			return f.svc.Reject(context.Background(), f.supporter.ID, f.parent.ID)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newConnectionFixture(t)
			ctx := context.Background()

			if err := f.svc.SendInvite(ctx, f.parent.ID, f.supporter.ID); err != nil {
				t.Fatalf("First invite failed: %v", err)
			}
			if err := tt.resolve(f); err != nil {
				t.Fatalf("Failed to resolve connection: %v", err)
			}

			err := f.svc.SendInvite(ctx, f.parent.ID, f.supporter.ID)
			if !errors.Is(err, ErrAlreadyConnected) {
				t.Errorf("Expected ErrAlreadyConnected re-inviting a %s connection, got %v", tt.name, err)
			}

			// the mirrored row blocks the counterpart's direction too
			err = f.svc.SendInvite(ctx, f.supporter.ID, f.parent.ID)
			if !errors.Is(err, ErrAlreadyConnected) {
				t.Errorf("Expected ErrAlreadyConnected from the other side, got %v", err)
			}
		})
	}
}

func TestApproveFlipsBothSides(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	f := newConnectionFixture(t)
	ctx := context.Background()

	if err := f.svc.SendInvite(ctx, f.parent.ID, f.supporter.ID); err != nil {
		t.Fatalf("SendInvite failed: %v", err)
	}
	if err := f.svc.Approve(ctx, f.supporter.ID, f.parent.ID); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	ids, err := f.svc.ApprovedParentIDs(ctx, f.supporter.ID)
	if err != nil {
		t.Fatalf("ApprovedParentIDs failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != f.parent.ID {
		t.Errorf("Expected approved parent %s, got %v", f.parent.ID, ids)
	}

	families, err := f.svc.ListApprovedFamilies(ctx, f.parent.ID)
	if err != nil {
		t.Fatalf("ListApprovedFamilies failed: %v", err)
	}
	if len(families) != 1 || families[0].Counterpart.ID != f.supporter.ID {
		t.Errorf("Expected supporter in parent's families, got %v", families)
	}
}

func TestResolveWithoutPendingConnectionNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	f := newConnectionFixture(t)
	ctx := context.Background()

	// no connection at all
	if err := f.svc.Approve(ctx, f.supporter.ID, f.parent.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound with no connection, got %v", err)
	}

	if err := f.svc.SendInvite(ctx, f.parent.ID, f.supporter.ID); err != nil {
		t.Fatalf("SendInvite failed: %v", err)
	}
	if err := f.svc.Reject(ctx, f.supporter.ID, f.parent.ID); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}

	// a resolved connection is no longer pending, so there is nothing to act on
	if err := f.svc.Approve(ctx, f.supporter.ID, f.parent.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound approving a rejected connection, got %v", err)
	}
	if err := f.svc.Reject(ctx, f.supporter.ID, f.parent.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound rejecting twice, got %v", err)
	}
}

func TestRedeemInviteRequiresParentCode(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	f := newConnectionFixture(t)
	ctx := context.Background()

	err := f.svc.RedeemInvite(ctx, f.parent.ID, f.supporter.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for a non-parent code, got %v", err)
	}

	if err := f.svc.RedeemInvite(ctx, f.supporter.ID, f.parent.ID); err != nil {
		t.Fatalf("RedeemInvite failed: %v", err)
	}
	conn, err := f.connections.GetByOwnerAndCounterpart(f.supporter.ID, f.parent.ID)
	if err != nil {
		t.Fatalf("Failed to get connection: %v", err)
	}
	if conn == nil || conn.Status != models.ConnectionPending {
		t.Errorf("Expected pending connection after redeem, got %+v", conn)
	}
}
