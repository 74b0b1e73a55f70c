package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"clairenest/internal/database"
	"clairenest/internal/models"
)

// NotificationRepository handles database operations for scheduled
// notifications and per-user delivery preferences.
type NotificationRepository struct {
	db database.DBTX
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db database.DBTX) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// CreateNotification queues a notification for delivery at triggerAt
func (r *NotificationRepository) CreateNotification(requestID, userID string,
	notifType models.NotificationType, triggerAt time.Time) (*models.ScheduledNotification, error) {
	notif := &models.ScheduledNotification{
		ID:        uuid.New().String(),
		RequestID: requestID,
		UserID:    userID,
		Type:      notifType,
		TriggerAt: triggerAt,
		Status:    models.NotificationPending,
		CreatedAt: time.Now(),
	}

	query := `
		INSERT INTO scheduled_notifications (id, request_id, user_id, type, trigger_at, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, notif.ID, notif.RequestID, notif.UserID,
		string(notif.Type), notif.TriggerAt, string(notif.Status), notif.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	return notif, nil
}

// CancelNotification marks a single pending notification as canceled
func (r *NotificationRepository) CancelNotification(id string) error {
	query := `UPDATE scheduled_notifications SET status = ? WHERE id = ? AND status = ?`
	_, err := r.db.Exec(query, string(models.NotificationCanceled), id, string(models.NotificationPending))
	if err != nil {
		return fmt.Errorf("failed to cancel notification: %w", err)
	}
	return nil
}

// CancelPendingByRequest cancels every pending notification for a request
func (r *NotificationRepository) CancelPendingByRequest(requestID string) error {
	query := `UPDATE scheduled_notifications SET status = ? WHERE request_id = ? AND status = ?`
	_, err := r.db.Exec(query, string(models.NotificationCanceled), requestID, string(models.NotificationPending))
	if err != nil {
		return fmt.Errorf("failed to cancel request notifications: %w", err)
	}
	return nil
}

// ListDue retrieves pending notifications whose trigger time has passed
func (r *NotificationRepository) ListDue(now time.Time) ([]models.ScheduledNotification, error) {
	query := `
		SELECT id, request_id, user_id, type, trigger_at, status, created_at
		FROM scheduled_notifications
		WHERE status = ? AND trigger_at <= ?
		ORDER BY trigger_at ASC
	`
	rows, err := r.db.Query(query, string(models.NotificationPending), now)
	if err != nil {
		return nil, fmt.Errorf("failed to query due notifications: %w", err)
	}
	defer rows.Close()

	var notifs []models.ScheduledNotification
	for rows.Next() {
		var n models.ScheduledNotification
		var notifType, status string
		if err := rows.Scan(&n.ID, &n.RequestID, &n.UserID, &notifType, &n.TriggerAt, &status, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		if n.Type, err = models.ParseNotificationType(notifType); err != nil {
			return nil, fmt.Errorf("corrupt notification record %s: %w", n.ID, err)
		}
		n.Status = models.NotificationStatus(status)
		notifs = append(notifs, n)
	}
	return notifs, rows.Err()
}

// MarkSent records that a notification has been delivered
func (r *NotificationRepository) MarkSent(id string) error {
	query := `UPDATE scheduled_notifications SET status = ? WHERE id = ?`
	if _, err := r.db.Exec(query, string(models.NotificationSent), id); err != nil {
		return fmt.Errorf("failed to mark notification sent: %w", err)
	}
	return nil
}

// GetPreference reports whether a notification type is enabled for a user.
// Types without a stored preference default to enabled.
func (r *NotificationRepository) GetPreference(userID string, notifType models.NotificationType) (bool, error) {
	query := `SELECT enabled FROM notification_preferences WHERE user_id = ? AND type = ?`
	var enabled bool
	err := r.db.QueryRow(query, userID, string(notifType)).Scan(&enabled)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get notification preference: %w", err)
	}
	return enabled, nil
}

// SetPreference stores a user's delivery preference for one notification type
func (r *NotificationRepository) SetPreference(userID string, notifType models.NotificationType, enabled bool) error {
	now := time.Now()
	query := `UPDATE notification_preferences SET enabled = ?, updated_at = ? WHERE user_id = ? AND type = ?`
	res, err := r.db.Exec(query, enabled, now, userID, string(notifType))
	if err != nil {
		return fmt.Errorf("failed to update notification preference: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update notification preference: %w", err)
	}
	if affected > 0 {
		return nil
	}

	insert := `INSERT INTO notification_preferences (user_id, type, enabled, updated_at) VALUES (?, ?, ?, ?)`
	if _, err := r.db.Exec(insert, userID, string(notifType), enabled, now); err != nil {
		return fmt.Errorf("failed to insert notification preference: %w", err)
	}
	return nil
}

// ListPreferences retrieves every stored preference for a user
func (r *NotificationRepository) ListPreferences(userID string) ([]models.NotificationPreference, error) {
	query := `SELECT user_id, type, enabled, updated_at FROM notification_preferences WHERE user_id = ?`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notification preferences: %w", err)
	}
	defer rows.Close()

	var prefs []models.NotificationPreference
	for rows.Next() {
		var p models.NotificationPreference
		var notifType string
		if err := rows.Scan(&p.UserID, &notifType, &p.Enabled, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification preference: %w", err)
		}
		if p.Type, err = models.ParseNotificationType(notifType); err != nil {
			return nil, fmt.Errorf("corrupt preference record for %s: %w", p.UserID, err)
		}
		prefs = append(prefs, p)
	}
	return prefs, rows.Err()
}
