package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"clairenest/internal/models"
)

// Notifier delivers a notification to one user's device. Satisfied by
// PushService; tests substitute a recorder.
type Notifier interface {
	Notify(ctx context.Context, pushToken, title, body string, data map[string]string) error
}

// PushService sends push notifications through the Expo push API. Users
// without a registered push token are skipped silently.
type PushService struct {
	client  *http.Client
	pushURL string
	debug   bool
}

// expoPushMessage is the request body the Expo push endpoint accepts
type expoPushMessage struct {
	To    string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
	Sound string            `json:"sound"`
}

// NewPushService creates a new push service
func NewPushService(pushURL string, debug bool) *PushService {
	return &PushService{
		client:  &http.Client{Timeout: 10 * time.Second},
		pushURL: pushURL,
		debug:   debug,
	}
}

// Notify sends one push message. An empty token is a no-op, not an error.
func (s *PushService) Notify(ctx context.Context, pushToken, title, body string, data map[string]string) error {
	if pushToken == "" {
		if s.debug {
			log.Printf("[DEBUG] Skipping push: no token registered")
		}
		return nil
	}

	msg := expoPushMessage{
		To:    pushToken,
		Title: title,
		Body:  body,
		Data:  data,
		Sound: "default",
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode push message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.pushURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("push endpoint returned %d: %s", resp.StatusCode, respBody)
	}

	log.Printf("Push sent: title=%q", title)
	return nil
}

// NotificationData builds the data payload attached to request pushes. It
// carries the request fields the app needs to render the notification screen
// without a fetch.
func NotificationData(req *models.HelpRequest, notifType models.NotificationType) map[string]string {
	return map[string]string{
		"type":        string(notifType),
		"requestId":   req.ID,
		"requestType": string(req.Type),
		"title":       req.Title,
		"status":      string(req.Status),
		"urgency":     string(req.Urgency),
		"startAt":     req.StartAt.Format(time.RFC3339),
	}
}
