package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"clairenest/internal/models"
	"clairenest/internal/repository"
	"clairenest/internal/security"
	"clairenest/internal/sync"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()

	db := openServiceDB(t)
	users := repository.NewUserRepository(db)
	tokens := security.NewTokenIssuer("test-secret", time.Hour)
	syncer := sync.NewService(nil, sync.NewWindowCache(), sync.NewEntityStore())
	return NewAuthService(users, tokens, disabledEmailService(t), syncer)
}

func TestChangePassword(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	svc := newAuthService(t)
	ctx := context.Background()

	result, err := svc.Register(ctx, "claire@example.com", "original-pass-1", "Claire")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	userID := result.User.ID

	err = svc.ChangePassword(ctx, userID, "wrong-pass", "replacement-pass-1")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Expected ErrInvalidCredentials for wrong current password, got %v", err)
	}

	if err := svc.ChangePassword(ctx, userID, "original-pass-1", "replacement-pass-1"); err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}

	if _, err := svc.Login(ctx, "claire@example.com", "original-pass-1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected old password rejected, got %v", err)
	}
	if _, err := svc.Login(ctx, "claire@example.com", "replacement-pass-1"); err != nil {
		t.Errorf("Login with new password failed: %v", err)
	}
}

func TestChangePasswordRejectsWeakReplacement(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	svc := newAuthService(t)
	ctx := context.Background()

	result, err := svc.Register(ctx, "claire@example.com", "original-pass-1", "Claire")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if err := svc.ChangePassword(ctx, result.User.ID, "original-pass-1", "x"); err == nil {
		t.Fatal("Expected validation error for weak password, got nil")
	}

	// the stored password is untouched
	if _, err := svc.Login(ctx, "claire@example.com", "original-pass-1"); err != nil {
		t.Errorf("Login with original password failed: %v", err)
	}
}

func TestChangePasswordOAuthOnlyAccount(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	svc := newAuthService(t)
	ctx := context.Background()

	result, err := svc.OAuthLogin(ctx, "google", "subject-1", "claire@example.com", "Claire")
	if err != nil {
		t.Fatalf("OAuthLogin failed: %v", err)
	}

	err = svc.ChangePassword(ctx, result.User.ID, "", "replacement-pass-1")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Expected ErrInvalidCredentials for an account without a password, got %v", err)
	}
}

func TestRoleIsImmutableOnceSet(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	svc := newAuthService(t)
	ctx := context.Background()

	result, err := svc.Register(ctx, "claire@example.com", "original-pass-1", "Claire")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, err := svc.ChooseRole(ctx, result.User.ID, models.RoleParent); err != nil {
		t.Fatalf("ChooseRole failed: %v", err)
	}
	if _, err := svc.ChooseRole(ctx, result.User.ID, models.RoleSupporter); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Expected ErrInvalidTransition changing role, got %v", err)
	}
	// re-choosing the same role is a no-op, not an error
	if _, err := svc.ChooseRole(ctx, result.User.ID, models.RoleParent); err != nil {
		t.Errorf("Re-choosing the same role failed: %v", err)
	}
}
