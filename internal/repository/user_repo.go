package repository

import (
	"database/sql"
	"fmt"
	"time"

	"clairenest/internal/database"
	"clairenest/internal/models"

	"github.com/google/uuid"
)

// UserRepository handles database operations for user accounts
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, password_hash, name, photo_url, email_verified, role,
	push_token, oauth_provider, oauth_subject, created_at, updated_at`

// CreateUser inserts a new user and returns it with a generated id
func (r *UserRepository) CreateUser(email, passwordHash, name string) (*models.User, error) {
	id := uuid.New().String()
	now := time.Now()

	query := `
		INSERT INTO users (id, email, password_hash, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := r.db.Exec(query, id, email, passwordHash, name, now, now); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &models.User{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (r *UserRepository) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var role string
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.PhotoURL,
		&user.EmailVerified,
		&role,
		&user.PushToken,
		&user.OAuthProvider,
		&user.OAuthSubject,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.Role, err = models.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("corrupt user record %s: %w", user.ID, err)
	}

	return user, nil
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(id string) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE id = ?"
	return r.scanUser(r.db.QueryRow(query, id))
}

// GetUserByEmail retrieves a user by email address
func (r *UserRepository) GetUserByEmail(email string) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE email = ?"
	return r.scanUser(r.db.QueryRow(query, email))
}

// GetUserByOAuth retrieves a user by OAuth provider and subject
func (r *UserRepository) GetUserByOAuth(provider, subject string) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE oauth_provider = ? AND oauth_subject = ?"
	return r.scanUser(r.db.QueryRow(query, provider, subject))
}

// LinkOAuthProvider attaches an OAuth identity to an existing account
func (r *UserRepository) LinkOAuthProvider(userID, provider, subject string) error {
	query := "UPDATE users SET oauth_provider = ?, oauth_subject = ?, updated_at = ? WHERE id = ?"
	if _, err := r.db.Exec(query, provider, subject, time.Now(), userID); err != nil {
		return fmt.Errorf("failed to link oauth provider: %w", err)
	}
	return nil
}

// SetRole records a user's chosen role
func (r *UserRepository) SetRole(userID string, role models.Role) error {
	query := "UPDATE users SET role = ?, updated_at = ? WHERE id = ?"
	if _, err := r.db.Exec(query, string(role), time.Now(), userID); err != nil {
		return fmt.Errorf("failed to set role: %w", err)
	}
	return nil
}

// UpdatePushToken stores the device push token for a user
func (r *UserRepository) UpdatePushToken(userID, token string) error {
	query := "UPDATE users SET push_token = ?, updated_at = ? WHERE id = ?"
	if _, err := r.db.Exec(query, token, time.Now(), userID); err != nil {
		return fmt.Errorf("failed to update push token: %w", err)
	}
	return nil
}

// UpdateProfile updates a user's display name and photo
func (r *UserRepository) UpdateProfile(userID, name, photoURL string) error {
	query := "UPDATE users SET name = ?, photo_url = ?, updated_at = ? WHERE id = ?"
	if _, err := r.db.Exec(query, name, photoURL, time.Now(), userID); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

// MarkEmailVerified flags a user's email address as verified
func (r *UserRepository) MarkEmailVerified(userID string) error {
	query := "UPDATE users SET email_verified = ?, updated_at = ? WHERE id = ?"
	if _, err := r.db.Exec(query, true, time.Now(), userID); err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}
	return nil
}

// UpdatePassword replaces a user's password hash
func (r *UserRepository) UpdatePassword(userID, passwordHash string) error {
	query := "UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?"
	if _, err := r.db.Exec(query, passwordHash, time.Now(), userID); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}
