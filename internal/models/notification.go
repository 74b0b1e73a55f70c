package models

import (
	"fmt"
	"time"
)

// NotificationType labels a scheduled or delivered request notification.
type NotificationType string

const (
	NotifReminder24h     NotificationType = "reminder_24h"
	NotifReminder1h      NotificationType = "reminder_1h"
	NotifRequestClaimed  NotificationType = "request_claimed"
	NotifRequestCanceled NotificationType = "request_canceled"
	NotifNewMessage      NotificationType = "new_message"
)

// ParseNotificationType validates a notification type value.
func ParseNotificationType(s string) (NotificationType, error) {
	switch NotificationType(s) {
	case NotifReminder24h, NotifReminder1h, NotifRequestClaimed,
		NotifRequestCanceled, NotifNewMessage:
		return NotificationType(s), nil
	}
	return "", fmt.Errorf("unknown notification type %q", s)
}

// NotificationStatus is the delivery state of a scheduled notification.
type NotificationStatus string

const (
	NotificationPending  NotificationStatus = "pending"
	NotificationSent     NotificationStatus = "sent"
	NotificationCanceled NotificationStatus = "canceled"
)

// ScheduledNotification is a notification queued for delivery at an absolute
// time. Reminders for a request are canceled when the request reaches a
// terminal state or its start time is edited.
type ScheduledNotification struct {
	ID        string
	RequestID string
	UserID    string
	Type      NotificationType
	TriggerAt time.Time
	Status    NotificationStatus
	CreatedAt time.Time
}

// IsDue reports whether a pending notification should be delivered.
func (n *ScheduledNotification) IsDue(now time.Time) bool {
	return n.Status == NotificationPending && !n.TriggerAt.After(now)
}

// NotificationPreference gates delivery of one notification type for a user.
type NotificationPreference struct {
	UserID    string
	Type      NotificationType
	Enabled   bool
	UpdatedAt time.Time
}
