package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"clairenest/internal/models"
	"clairenest/internal/repository"
	"clairenest/internal/security"
	"clairenest/internal/sync"
	"clairenest/internal/validation"
)

// ErrInvalidCredentials covers both unknown emails and wrong passwords so
// responses never reveal which one it was
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrEmailTaken means an account already exists for the address
var ErrEmailTaken = errors.New("email already registered")

// AuthService handles account registration, sign-in and the profile fields
// tied to the account itself (role, push token).
type AuthService struct {
	users  *repository.UserRepository
	tokens *security.TokenIssuer
	email  *EmailService
	syncer *sync.Service
}

// NewAuthService creates a new auth service
func NewAuthService(users *repository.UserRepository, tokens *security.TokenIssuer,
	email *EmailService, syncer *sync.Service) *AuthService {
	return &AuthService{users: users, tokens: tokens, email: email, syncer: syncer}
}

// AuthResult is a signed-in user and their bearer token
type AuthResult struct {
	User  *models.User
	Token string
}

// Register creates an account with an email and password. The role starts
// unset; the app asks for it on first sign-in and it is immutable after.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*AuthResult, error) {
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}
	if err := validation.ValidateName(name); err != nil {
		return nil, err
	}

	existing, err := s.users.GetUserByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.CreateUser(email, hash, name)
	if err != nil {
		return nil, err
	}

	if err := s.email.SendWelcomeEmail(ctx, user.Email, user.Name); err != nil {
		log.Printf("Failed to send welcome email to %s: %v", user.Email, err)
	}

	return s.issueFor(user)
}

// Login checks an email/password pair and issues a bearer token
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetUserByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil || !security.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return s.issueFor(user)
}

// OAuthLogin signs a user in from a verified OAuth identity, creating the
// account on first sight and linking the provider to an existing account
// with the same email otherwise
func (s *AuthService) OAuthLogin(ctx context.Context, provider, subject, email, name string) (*AuthResult, error) {
	user, err := s.users.GetUserByOAuth(provider, subject)
	if err != nil {
		return nil, err
	}

	if user == nil {
		user, err = s.users.GetUserByEmail(email)
		if err != nil {
			return nil, err
		}
		if user == nil {
			user, err = s.users.CreateUser(email, "", name)
			if err != nil {
				return nil, err
			}
			if err := s.email.SendWelcomeEmail(ctx, user.Email, user.Name); err != nil {
				log.Printf("Failed to send welcome email to %s: %v", user.Email, err)
			}
		}
		if err := s.users.LinkOAuthProvider(user.ID, provider, subject); err != nil {
			return nil, err
		}
		// the provider vouched for the address
		if !user.EmailVerified {
			if err := s.users.MarkEmailVerified(user.ID); err != nil {
				return nil, err
			}
			user.EmailVerified = true
		}
	}

	return s.issueFor(user)
}

func (s *AuthService) issueFor(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID, string(user.Role))
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

// ChooseRole sets the account's role once. A role is part of the account's
// identity; changing it would orphan connections and requests.
func (s *AuthService) ChooseRole(ctx context.Context, userID string, role models.Role) (*AuthResult, error) {
	if role != models.RoleParent && role != models.RoleSupporter {
		return nil, fmt.Errorf("invalid role %q", role)
	}

	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	if user.Role != models.RoleUnset && user.Role != role {
		return nil, fmt.Errorf("%w: role is already %s", ErrInvalidTransition, user.Role)
	}

	if err := s.users.SetRole(userID, role); err != nil {
		return nil, err
	}
	user.Role = role

	// re-issue so the token carries the role for the middleware checks
	return s.issueFor(user)
}

// ChangePassword replaces a user's password after checking the current one.
// OAuth-only accounts have no password and cannot set one here.
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound
	}
	if user.PasswordHash == "" || !security.CheckPassword(current, user.PasswordHash) {
		return ErrInvalidCredentials
	}
	if err := validation.ValidatePassword(next); err != nil {
		return err
	}

	hash, err := security.HashPassword(next)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.users.UpdatePassword(userID, hash)
}

// RegisterPushToken stores the device's Expo push token
func (s *AuthService) RegisterPushToken(ctx context.Context, userID, token string) error {
	return s.users.UpdatePushToken(userID, token)
}

// UpdateProfile changes the account's display name and photo
func (s *AuthService) UpdateProfile(ctx context.Context, userID, name, photoURL string) error {
	if err := validation.ValidateName(name); err != nil {
		return err
	}
	return s.users.UpdateProfile(userID, name, photoURL)
}

// GetUser returns a user by id
func (s *AuthService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// SignOut clears the push token and drops the user's cached window and
// entities. The bearer token simply expires; there is no server-side session.
func (s *AuthService) SignOut(ctx context.Context, userID string) error {
	if err := s.users.UpdatePushToken(userID, ""); err != nil {
		return err
	}
	s.syncer.SignOut(userID)
	return nil
}
