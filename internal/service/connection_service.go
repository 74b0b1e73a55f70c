package service

import (
	"context"
	"fmt"
	"log"

	"clairenest/internal/models"
	"clairenest/internal/repository"
)

// ConnectionService manages the approval workflow between parents and
// supporters. A connection is mirrored on both sides so either user can list
// their families without caring about who invited whom.
type ConnectionService struct {
	connections *repository.ConnectionRepository
	users       *repository.UserRepository
	email       *EmailService
}

// NewConnectionService creates a new connection service
func NewConnectionService(connections *repository.ConnectionRepository,
	users *repository.UserRepository, email *EmailService) *ConnectionService {
	return &ConnectionService{connections: connections, users: users, email: email}
}

// SendInvite creates a pending connection between the inviter and the
// counterpart and emails the counterpart a deep link. Rejected connections
// block re-invites; the counterpart chose not to connect.
func (s *ConnectionService) SendInvite(ctx context.Context, ownerID, counterpartID string) error {
	if ownerID == counterpartID {
		return fmt.Errorf("%w: cannot invite yourself", ErrAlreadyConnected)
	}

	counterpart, err := s.users.GetUserByID(counterpartID)
	if err != nil {
		return err
	}
	if counterpart == nil {
		return fmt.Errorf("%w: user %s", ErrNotFound, counterpartID)
	}

	existing, err := s.connections.GetByOwnerAndCounterpart(ownerID, counterpartID)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%w: connection is %s", ErrAlreadyConnected, existing.Status)
	}

	if err := s.connections.CreatePair(ownerID, counterpartID); err != nil {
		return err
	}

	owner, err := s.users.GetUserByID(ownerID)
	if err != nil || owner == nil {
		log.Printf("Invite created but inviter %s could not be resolved for email: %v", ownerID, err)
		return nil
	}
	// the invite code is the inviting parent's id; the app redeems it after
	// sign-in. a failed email never rolls back the connection
	if err := s.email.SendInviteEmail(ctx, counterpart.Email, owner.Name, owner.ID); err != nil {
		log.Printf("Failed to send invite email to %s: %v", counterpart.Email, err)
	}
	return nil
}

// InviteByEmail resolves an email address to a user and sends an invite
func (s *ConnectionService) InviteByEmail(ctx context.Context, ownerID, email string) error {
	counterpart, err := s.users.GetUserByEmail(email)
	if err != nil {
		return err
	}
	if counterpart == nil {
		return fmt.Errorf("%w: no account for %s", ErrNotFound, email)
	}
	return s.SendInvite(ctx, ownerID, counterpart.ID)
}

// RedeemInvite creates the pending connection for an invite code opened by a
// freshly signed-in user. The code is the inviting parent's id.
func (s *ConnectionService) RedeemInvite(ctx context.Context, userID, code string) error {
	inviter, err := s.users.GetUserByID(code)
	if err != nil {
		return err
	}
	if inviter == nil || inviter.Role != models.RoleParent {
		return fmt.Errorf("%w: invalid invite code", ErrNotFound)
	}
	return s.SendInvite(ctx, userID, inviter.ID)
}

// Approve flips a pending connection to approved on both sides
func (s *ConnectionService) Approve(ctx context.Context, ownerID, counterpartID string) error {
	return s.resolve(ownerID, counterpartID, models.ConnectionApproved)
}

// Reject flips a pending connection to rejected on both sides. Rejected rows
// are kept so the same counterpart cannot spam re-invites.
func (s *ConnectionService) Reject(ctx context.Context, ownerID, counterpartID string) error {
	return s.resolve(ownerID, counterpartID, models.ConnectionRejected)
}

func (s *ConnectionService) resolve(ownerID, counterpartID string, status models.ConnectionStatus) error {
	conn, err := s.connections.GetByOwnerAndCounterpart(ownerID, counterpartID)
	if err != nil {
		return err
	}
	if conn == nil || !conn.CanTransitionTo(status) {
		return fmt.Errorf("%w: no pending connection with %s", ErrNotFound, counterpartID)
	}
	return s.connections.UpdateStatusPair(ownerID, counterpartID, status)
}

// ListPending returns the user's connections awaiting a decision
func (s *ConnectionService) ListPending(ctx context.Context, userID string) ([]models.FamilyConnection, error) {
	all, err := s.connections.ListByOwner(userID)
	if err != nil {
		return nil, err
	}
	var pending []models.FamilyConnection
	for _, conn := range all {
		if conn.Status == models.ConnectionPending {
			pending = append(pending, conn)
		}
	}
	return pending, nil
}

// ListApprovedFamilies returns the user's approved connections resolved to
// public profile fields only. Full profiles are never exposed pre-approval.
func (s *ConnectionService) ListApprovedFamilies(ctx context.Context, userID string) ([]models.ApprovedFamily, error) {
	return s.connections.ListApprovedFamilies(userID)
}

// ApprovedParentIDs returns the parent ids a supporter may see requests from
func (s *ConnectionService) ApprovedParentIDs(ctx context.Context, supporterID string) ([]string, error) {
	return s.connections.ListApprovedCounterpartIDs(supporterID)
}
