package service

import (
	"context"
	"testing"
	"time"

	"clairenest/internal/database"
	"clairenest/internal/models"
	"clairenest/internal/repository"
)

type recordingNotifier struct {
	titles []string
	data   []map[string]string
}

func (n *recordingNotifier) Notify(ctx context.Context, pushToken, title, body string,
	data map[string]string) error {
	n.titles = append(n.titles, title)
	n.data = append(n.data, data)
	return nil
}

type notificationFixture struct {
	db            *database.DB
	svc           *NotificationService
	notifications *repository.NotificationRepository
	requests      *repository.RequestRepository
	notifier      *recordingNotifier
	parent        *models.User
}

func newNotificationFixture(t *testing.T) *notificationFixture {
	t.Helper()

	db := openServiceDB(t)
	users := repository.NewUserRepository(db)
	requests := repository.NewRequestRepository(db)
	notifications := repository.NewNotificationRepository(db)

	parent, err := users.CreateUser("parent@example.com", "hash", "Claire")
	if err != nil {
		t.Fatalf("Failed to create parent: %v", err)
	}
	if err := users.UpdatePushToken(parent.ID, "ExponentPushToken[test]"); err != nil {
		t.Fatalf("Failed to set push token: %v", err)
	}

	notifier := &recordingNotifier{}
	return &notificationFixture{
		db:            db,
		svc:           NewNotificationService(notifications, requests, users, notifier),
		notifications: notifications,
		requests:      requests,
		notifier:      notifier,
		parent:        parent,
	}
}

func (f *notificationFixture) createRequest(t *testing.T, startAt time.Time) *models.HelpRequest {
	t.Helper()
	req, err := f.requests.CreateRequest(&models.HelpRequest{
		ParentID: f.parent.ID,
		Title:    "School run",
		Type:     models.TypeChildcare,
		Urgency:  models.UrgencyMedium,
		StartAt:  startAt,
	})
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	return req
}

func (f *notificationFixture) notificationStatus(t *testing.T, id string) string {
	t.Helper()
	var status string
	query := "SELECT status FROM scheduled_notifications WHERE id = ?"
	if err := f.db.QueryRow(query, id).Scan(&status); err != nil {
		t.Fatalf("Failed to read notification status: %v", err)
	}
	return status
}

func TestDispatchDueDeliversAndMarksSent(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	f := newNotificationFixture(t)
	now := time.Now()

	req := f.createRequest(t, now.Add(time.Hour))
	notif, err := f.notifications.CreateNotification(req.ID, f.parent.ID,
		models.NotifReminder1h, now.Add(-time.Minute))
	if err != nil {
		t.Fatalf("Failed to queue notification: %v", err)
	}

	n, err := f.svc.DispatchDue(context.Background(), now)
	if err != nil {
		t.Fatalf("DispatchDue failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("Expected 1 notification processed, got %d", n)
	}
	if len(f.notifier.titles) != 1 || f.notifier.titles[0] != "Starting soon" {
		t.Errorf("Expected a 'Starting soon' push, got %v", f.notifier.titles)
	}
	if got := f.notifier.data[0]["requestId"]; got != req.ID {
		t.Errorf("Expected push data to carry request id %s, got %q", req.ID, got)
	}
	if got := f.notificationStatus(t, notif.ID); got != string(models.NotificationSent) {
		t.Errorf("Expected notification marked sent, got %s", got)
	}
}

func TestDispatchDueCancelsStaleReminders(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	f := newNotificationFixture(t)
	now := time.Now()

	req := f.createRequest(t, now.Add(time.Hour))
	notif, err := f.notifications.CreateNotification(req.ID, f.parent.ID,
		models.NotifReminder1h, now.Add(-time.Minute))
	if err != nil {
		t.Fatalf("Failed to queue notification: %v", err)
	}

	// the request ended between scheduling and dispatch
	if err := f.requests.UpdateStatus(req.ID, models.RequestCanceled, nil); err != nil {
		t.Fatalf("Failed to cancel request: %v", err)
	}

	if _, err := f.svc.DispatchDue(context.Background(), now); err != nil {
		t.Fatalf("DispatchDue failed: %v", err)
	}
	if len(f.notifier.titles) != 0 {
		t.Errorf("Expected no push for a canceled request, got %v", f.notifier.titles)
	}
	if got := f.notificationStatus(t, notif.ID); got != string(models.NotificationCanceled) {
		t.Errorf("Expected stale notification canceled, got %s", got)
	}
}

func TestNotifyNowHonorsDisabledPreference(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	f := newNotificationFixture(t)

	if err := f.svc.SetPreference(f.parent.ID, models.NotifNewMessage, false); err != nil {
		t.Fatalf("SetPreference failed: %v", err)
	}

	f.svc.NotifyNow(context.Background(), f.parent.ID, models.NotifNewMessage,
		"New message", "body", nil)
	if len(f.notifier.titles) != 0 {
		t.Errorf("Expected disabled preference to suppress the push, got %v", f.notifier.titles)
	}

	// other types stay on their enabled default
	f.svc.NotifyNow(context.Background(), f.parent.ID, models.NotifRequestClaimed,
		"Request claimed", "body", nil)
	if len(f.notifier.titles) != 1 {
		t.Errorf("Expected default-enabled type delivered, got %v", f.notifier.titles)
	}
}
