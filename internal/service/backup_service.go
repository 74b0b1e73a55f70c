package service

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"clairenest/internal/database"
)

// BackupData represents the complete database backup structure
type BackupData struct {
	Version       string               `json:"version"`
	ExportedAt    time.Time            `json:"exported_at"`
	Users         []UserBackup         `json:"users"`
	Connections   []ConnectionBackup   `json:"connections"`
	Requests      []RequestBackup      `json:"requests"`
	Updates       []UpdateBackup       `json:"updates"`
	Children      []ChildBackup        `json:"children"`
	Messages      []MessageBackup      `json:"messages"`
	Notifications []NotificationBackup `json:"notifications"`
	Preferences   []PreferenceBackup   `json:"preferences"`
}

// UserBackup represents a user record for backup
type UserBackup struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"password_hash"`
	Name          string    `json:"name"`
	PhotoURL      string    `json:"photo_url"`
	EmailVerified bool      `json:"email_verified"`
	Role          string    `json:"role"`
	PushToken     string    `json:"push_token"`
	OAuthProvider string    `json:"oauth_provider"`
	OAuthSubject  string    `json:"oauth_subject"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ConnectionBackup represents a family connection record for backup
type ConnectionBackup struct {
	OwnerID       string    `json:"owner_id"`
	CounterpartID string    `json:"counterpart_id"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RequestBackup represents a help request record for backup
type RequestBackup struct {
	ID              string     `json:"id"`
	ParentID        string     `json:"parent_id"`
	Title           string     `json:"title"`
	Type            string     `json:"type"`
	Notes           string     `json:"notes"`
	Status          string     `json:"status"`
	Urgency         string     `json:"urgency"`
	ClaimedBy       *string    `json:"claimed_by"`
	StartAt         time.Time  `json:"start_at"`
	EndAt           *time.Time `json:"end_at"`
	NotificationIDs string     `json:"notification_ids"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// UpdateBackup represents a request history entry for backup
type UpdateBackup struct {
	RequestID string    `json:"request_id"`
	Type      string    `json:"type"`
	ActorID   string    `json:"actor_id"`
	Diffs     string    `json:"diffs"`
	CreatedAt time.Time `json:"created_at"`
}

// ChildBackup represents a child profile record for backup
type ChildBackup struct {
	ID         string    `json:"id"`
	ParentID   string    `json:"parent_id"`
	Name       string    `json:"name"`
	Birthdate  time.Time `json:"birthdate"`
	HeightCm   *float64  `json:"height_cm"`
	WeightKg   *float64  `json:"weight_kg"`
	Milestones string    `json:"milestones"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// MessageBackup represents a thread message record for backup
type MessageBackup struct {
	ID        string    `json:"id"`
	RequestID string    `json:"request_id"`
	SenderID  string    `json:"sender_id"`
	ClaimerID string    `json:"claimer_id"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationBackup represents a scheduled notification record for backup
type NotificationBackup struct {
	ID        string    `json:"id"`
	RequestID string    `json:"request_id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	TriggerAt time.Time `json:"trigger_at"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// PreferenceBackup represents a notification preference record for backup
type PreferenceBackup struct {
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Enabled   bool      `json:"enabled"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Export creates a complete backup of the database to a file
func (s *BackupService) Export(outputPath string) error {
	log.Println("Starting database export...")

	backup := &BackupData{
		Version:    "1.0",
		ExportedAt: time.Now(),
	}

	steps := []struct {
		name string
		fn   func(*BackupData) error
	}{
		{"users", s.exportUsers},
		{"connections", s.exportConnections},
		{"requests", s.exportRequests},
		{"updates", s.exportUpdates},
		{"children", s.exportChildren},
		{"messages", s.exportMessages},
		{"notifications", s.exportNotifications},
		{"preferences", s.exportPreferences},
	}
	for _, step := range steps {
		if err := step.fn(backup); err != nil {
			return fmt.Errorf("failed to export %s: %w", step.name, err)
		}
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	log.Printf("Database exported successfully to %s", outputPath)
	log.Printf("Exported: %d users, %d connections, %d requests, %d updates, %d children, %d messages",
		len(backup.Users), len(backup.Connections), len(backup.Requests),
		len(backup.Updates), len(backup.Children), len(backup.Messages))
	return nil
}

// Import restores a database from a backup file
func (s *BackupService) Import(inputPath string) error {
	log.Printf("Starting database import from %s...", inputPath)

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(file)
}

// ImportFromReader restores a database from a backup reader
func (s *BackupService) ImportFromReader(reader io.Reader) error {
	var backup BackupData
	if err := json.NewDecoder(reader).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}

	log.Printf("Backup version: %s, exported at: %s", backup.Version, backup.ExportedAt)

	// import in dependency order so foreign keys resolve
	if err := s.importUsers(backup.Users); err != nil {
		return fmt.Errorf("failed to import users: %w", err)
	}
	if err := s.importConnections(backup.Connections); err != nil {
		return fmt.Errorf("failed to import connections: %w", err)
	}
	if err := s.importRequests(backup.Requests); err != nil {
		return fmt.Errorf("failed to import requests: %w", err)
	}
	if err := s.importUpdates(backup.Updates); err != nil {
		return fmt.Errorf("failed to import updates: %w", err)
	}
	if err := s.importChildren(backup.Children); err != nil {
		return fmt.Errorf("failed to import children: %w", err)
	}
	if err := s.importMessages(backup.Messages); err != nil {
		return fmt.Errorf("failed to import messages: %w", err)
	}
	if err := s.importNotifications(backup.Notifications); err != nil {
		return fmt.Errorf("failed to import notifications: %w", err)
	}
	if err := s.importPreferences(backup.Preferences); err != nil {
		return fmt.Errorf("failed to import preferences: %w", err)
	}

	log.Println("Database import completed successfully")
	return nil
}

// ClearAll deletes every row in reverse dependency order. Used by the import
// command's -clear flag.
func (s *BackupService) ClearAll() error {
	tables := []string{
		"notification_preferences", "scheduled_notifications", "messages",
		"child_profiles", "request_updates", "help_requests",
		"family_connections", "users",
	}
	for _, table := range tables {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

func (s *BackupService) exportUsers(backup *BackupData) error {
	query := `SELECT id, email, password_hash, name, photo_url, email_verified, role,
		push_token, oauth_provider, oauth_subject, created_at, updated_at FROM users ORDER BY id`
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var u UserBackup
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.PhotoURL,
			&u.EmailVerified, &u.Role, &u.PushToken, &u.OAuthProvider, &u.OAuthSubject,
			&u.CreatedAt, &u.UpdatedAt); err != nil {
			return err
		}
		backup.Users = append(backup.Users, u)
	}
	return rows.Err()
}

func (s *BackupService) importUsers(users []UserBackup) error {
	query := `INSERT INTO users (id, email, password_hash, name, photo_url, email_verified,
		role, push_token, oauth_provider, oauth_subject, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, u := range users {
		if _, err := s.db.Exec(query, u.ID, u.Email, u.PasswordHash, u.Name, u.PhotoURL,
			u.EmailVerified, u.Role, u.PushToken, u.OAuthProvider, u.OAuthSubject,
			u.CreatedAt, u.UpdatedAt); err != nil {
			return err
		}
	}
	return nil
}

func (s *BackupService) exportConnections(backup *BackupData) error {
	query := `SELECT owner_id, counterpart_id, status, created_at, updated_at
		FROM family_connections ORDER BY id`
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var c ConnectionBackup
		if err := rows.Scan(&c.OwnerID, &c.CounterpartID, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return err
		}
		backup.Connections = append(backup.Connections, c)
	}
	return rows.Err()
}

func (s *BackupService) importConnections(conns []ConnectionBackup) error {
	query := `INSERT INTO family_connections (owner_id, counterpart_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`
	for _, c := range conns {
		if _, err := s.db.Exec(query, c.OwnerID, c.CounterpartID, c.Status, c.CreatedAt, c.UpdatedAt); err != nil {
			return err
		}
	}
	return nil
}

func (s *BackupService) exportRequests(backup *BackupData) error {
	query := `SELECT id, parent_id, title, type, notes, status, urgency, claimed_by,
		start_at, end_at, notification_ids, created_at, updated_at FROM help_requests ORDER BY id`
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var r RequestBackup
		var claimedBy sql.NullString
		var endAt sql.NullTime
		if err := rows.Scan(&r.ID, &r.ParentID, &r.Title, &r.Type, &r.Notes, &r.Status,
			&r.Urgency, &claimedBy, &r.StartAt, &endAt, &r.NotificationIDs,
			&r.CreatedAt, &r.UpdatedAt); err != nil {
			return err
		}
		if claimedBy.Valid {
			r.ClaimedBy = &claimedBy.String
		}
		if endAt.Valid {
			t := endAt.Time
			r.EndAt = &t
		}
		backup.Requests = append(backup.Requests, r)
	}
	return rows.Err()
}

func (s *BackupService) importRequests(reqs []RequestBackup) error {
	query := `INSERT INTO help_requests (id, parent_id, title, type, notes, status, urgency,
		claimed_by, start_at, end_at, notification_ids, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, r := range reqs {
		var claimedBy sql.NullString
		if r.ClaimedBy != nil {
			claimedBy = sql.NullString{String: *r.ClaimedBy, Valid: true}
		}
		var endAt sql.NullTime
		if r.EndAt != nil {
			endAt = sql.NullTime{Time: *r.EndAt, Valid: true}
		}
		if _, err := s.db.Exec(query, r.ID, r.ParentID, r.Title, r.Type, r.Notes, r.Status,
			r.Urgency, claimedBy, r.StartAt, endAt, r.NotificationIDs,
			r.CreatedAt, r.UpdatedAt); err != nil {
			return err
		}
	}
	return nil
}

func (s *BackupService) exportUpdates(backup *BackupData) error {
	query := `SELECT request_id, type, actor_id, diffs, created_at FROM request_updates ORDER BY id`
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var u UpdateBackup
		if err := rows.Scan(&u.RequestID, &u.Type, &u.ActorID, &u.Diffs, &u.CreatedAt); err != nil {
			return err
		}
		backup.Updates = append(backup.Updates, u)
	}
	return rows.Err()
}

func (s *BackupService) importUpdates(updates []UpdateBackup) error {
	query := `INSERT INTO request_updates (request_id, type, actor_id, diffs, created_at)
		VALUES (?, ?, ?, ?, ?)`
	for _, u := range updates {
		if _, err := s.db.Exec(query, u.RequestID, u.Type, u.ActorID, u.Diffs, u.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

func (s *BackupService) exportChildren(backup *BackupData) error {
	query := `SELECT id, parent_id, name, birthdate, height_cm, weight_kg, milestones,
		created_at, updated_at FROM child_profiles ORDER BY id`
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var c ChildBackup
		var height, weight sql.NullFloat64
		if err := rows.Scan(&c.ID, &c.ParentID, &c.Name, &c.Birthdate, &height, &weight,
			&c.Milestones, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return err
		}
		if height.Valid {
			c.HeightCm = &height.Float64
		}
		if weight.Valid {
			c.WeightKg = &weight.Float64
		}
		backup.Children = append(backup.Children, c)
	}
	return rows.Err()
}

func (s *BackupService) importChildren(children []ChildBackup) error {
	query := `INSERT INTO child_profiles (id, parent_id, name, birthdate, height_cm, weight_kg,
		milestones, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, c := range children {
		var height, weight sql.NullFloat64
		if c.HeightCm != nil {
			height = sql.NullFloat64{Float64: *c.HeightCm, Valid: true}
		}
		if c.WeightKg != nil {
			weight = sql.NullFloat64{Float64: *c.WeightKg, Valid: true}
		}
		if _, err := s.db.Exec(query, c.ID, c.ParentID, c.Name, c.Birthdate, height, weight,
			c.Milestones, c.CreatedAt, c.UpdatedAt); err != nil {
			return err
		}
	}
	return nil
}

func (s *BackupService) exportMessages(backup *BackupData) error {
	query := `SELECT id, request_id, sender_id, claimer_id, body, is_read, created_at
		FROM messages ORDER BY id`
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var m MessageBackup
		if err := rows.Scan(&m.ID, &m.RequestID, &m.SenderID, &m.ClaimerID, &m.Body,
			&m.Read, &m.CreatedAt); err != nil {
			return err
		}
		backup.Messages = append(backup.Messages, m)
	}
	return rows.Err()
}

func (s *BackupService) importMessages(msgs []MessageBackup) error {
	query := `INSERT INTO messages (id, request_id, sender_id, claimer_id, body, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	for _, m := range msgs {
		if _, err := s.db.Exec(query, m.ID, m.RequestID, m.SenderID, m.ClaimerID, m.Body,
			m.Read, m.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

func (s *BackupService) exportNotifications(backup *BackupData) error {
	query := `SELECT id, request_id, user_id, type, trigger_at, status, created_at
		FROM scheduled_notifications ORDER BY id`
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var n NotificationBackup
		if err := rows.Scan(&n.ID, &n.RequestID, &n.UserID, &n.Type, &n.TriggerAt,
			&n.Status, &n.CreatedAt); err != nil {
			return err
		}
		backup.Notifications = append(backup.Notifications, n)
	}
	return rows.Err()
}

func (s *BackupService) importNotifications(notifs []NotificationBackup) error {
	query := `INSERT INTO scheduled_notifications (id, request_id, user_id, type, trigger_at, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	for _, n := range notifs {
		if _, err := s.db.Exec(query, n.ID, n.RequestID, n.UserID, n.Type, n.TriggerAt,
			n.Status, n.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

func (s *BackupService) exportPreferences(backup *BackupData) error {
	query := `SELECT user_id, type, enabled, updated_at FROM notification_preferences ORDER BY user_id`
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var p PreferenceBackup
		if err := rows.Scan(&p.UserID, &p.Type, &p.Enabled, &p.UpdatedAt); err != nil {
			return err
		}
		backup.Preferences = append(backup.Preferences, p)
	}
	return rows.Err()
}

func (s *BackupService) importPreferences(prefs []PreferenceBackup) error {
	query := `INSERT INTO notification_preferences (user_id, type, enabled, updated_at)
		VALUES (?, ?, ?, ?)`
	for _, p := range prefs {
		if _, err := s.db.Exec(query, p.UserID, p.Type, p.Enabled, p.UpdatedAt); err != nil {
			return err
		}
	}
	return nil
}
