package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"clairenest/internal/models"
	"clairenest/internal/repository"
)

// Reminder offsets before a request's start time
const (
	ReminderLongOffset  = 24 * time.Hour
	ReminderShortOffset = time.Hour
)

// NotificationService schedules reminders against absolute trigger times and
// runs the background loop that delivers due ones.
type NotificationService struct {
	notifications *repository.NotificationRepository
	requests      *repository.RequestRepository
	users         *repository.UserRepository
	notifier      Notifier
}

// NewNotificationService creates a new notification service
func NewNotificationService(notifications *repository.NotificationRepository,
	requests *repository.RequestRepository, users *repository.UserRepository,
	notifier Notifier) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		requests:      requests,
		users:         users,
		notifier:      notifier,
	}
}

// ScheduleReminders queues the 24h and 1h reminders for a request. Offsets
// that already lie in the past are skipped, never fired immediately. Returns
// the ids of the notifications actually scheduled.
func (s *NotificationService) ScheduleReminders(req *models.HelpRequest, now time.Time) ([]string, error) {
	offsets := []struct {
		offset    time.Duration
		notifType models.NotificationType
	}{
		{ReminderLongOffset, models.NotifReminder24h},
		{ReminderShortOffset, models.NotifReminder1h},
	}

	var ids []string
	for _, o := range offsets {
		triggerAt := req.StartAt.Add(-o.offset)
		if !triggerAt.After(now) {
			continue
		}
		notif, err := s.notifications.CreateNotification(req.ID, req.ParentID, o.notifType, triggerAt)
		if err != nil {
			return ids, fmt.Errorf("failed to schedule reminder: %w", err)
		}
		ids = append(ids, notif.ID)
	}
	return ids, nil
}

// CancelForRequest cancels every pending notification attached to a request.
// Called when a request reaches a terminal state or its start time changes.
func (s *NotificationService) CancelForRequest(requestID string) error {
	return s.notifications.CancelPendingByRequest(requestID)
}

// NotifyNow delivers an immediate event push (claim, cancel, new message) to
// one user, honoring their per-type preference. Delivery failures are logged,
// not propagated; a lost push never fails the operation that caused it.
func (s *NotificationService) NotifyNow(ctx context.Context, userID string,
	notifType models.NotificationType, title, body string, data map[string]string) {
	enabled, err := s.notifications.GetPreference(userID, notifType)
	if err != nil {
		log.Printf("Failed to read notification preference for %s: %v", userID, err)
		return
	}
	if !enabled {
		return
	}

	user, err := s.users.GetUserByID(userID)
	if err != nil || user == nil {
		log.Printf("Failed to resolve notification recipient %s: %v", userID, err)
		return
	}

	if err := s.notifier.Notify(ctx, user.PushToken, title, body, data); err != nil {
		log.Printf("Failed to deliver push to %s: %v", userID, err)
	}
}

// DispatchDue delivers every due scheduled notification and marks it sent.
// Rows are marked sent even when delivery fails so a bad token cannot wedge
// the queue; rows whose request is gone or already terminal are canceled
// instead. Returns the number of rows processed.
func (s *NotificationService) DispatchDue(ctx context.Context, now time.Time) (int, error) {
	due, err := s.notifications.ListDue(now)
	if err != nil {
		return 0, fmt.Errorf("failed to list due notifications: %w", err)
	}

	for _, notif := range due {
		if !s.deliver(ctx, &notif) {
			if err := s.notifications.CancelNotification(notif.ID); err != nil {
				return 0, fmt.Errorf("failed to cancel stale notification: %w", err)
			}
			continue
		}
		if err := s.notifications.MarkSent(notif.ID); err != nil {
			return 0, fmt.Errorf("failed to mark notification sent: %w", err)
		}
	}
	return len(due), nil
}

// deliver reports whether the notification still applied; stale ones are not
// pushed
func (s *NotificationService) deliver(ctx context.Context, notif *models.ScheduledNotification) bool {
	req, err := s.requests.GetRequestByID(notif.RequestID)
	if err != nil || req == nil {
		log.Printf("Skipping notification %s: request %s gone", notif.ID, notif.RequestID)
		return false
	}
	// a request that ended between scheduling and dispatch needs no reminder
	if req.Status.IsTerminal() {
		return false
	}

	var title, body string
	switch notif.Type {
	case models.NotifReminder24h:
		title = "Coming up tomorrow"
		body = fmt.Sprintf("%q starts %s", req.Title, req.StartAt.Format("Mon 3:04 PM"))
	case models.NotifReminder1h:
		title = "Starting soon"
		body = fmt.Sprintf("%q starts in an hour", req.Title)
	default:
		title = "ClaireNest"
		body = req.Title
	}

	s.NotifyNow(ctx, notif.UserID, notif.Type, title, body, NotificationData(req, notif.Type))
	return true
}

// RunDispatchLoop polls for due notifications until the context is canceled
func (s *NotificationService) RunDispatchLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("Notification dispatch loop started (interval %s)", interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("Notification dispatch loop stopped")
			return
		case now := <-ticker.C:
			if n, err := s.DispatchDue(ctx, now); err != nil {
				log.Printf("Notification dispatch failed: %v", err)
			} else if n > 0 {
				log.Printf("Dispatched %d notifications", n)
			}
		}
	}
}

// SetPreference stores a user's delivery preference for one notification type
func (s *NotificationService) SetPreference(userID string, notifType models.NotificationType, enabled bool) error {
	return s.notifications.SetPreference(userID, notifType, enabled)
}

// Preferences returns the user's stored preferences
func (s *NotificationService) Preferences(userID string) ([]models.NotificationPreference, error) {
	return s.notifications.ListPreferences(userID)
}
