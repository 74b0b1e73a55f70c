package service

import (
	"context"
	"fmt"

	"clairenest/internal/models"
	"clairenest/internal/repository"
	"clairenest/internal/sync"
	"clairenest/internal/validation"
)

// MessageService handles the thread attached to a claimed request. Only the
// owning parent and the claiming supporter may read or write it.
type MessageService struct {
	messages  *repository.MessageRepository
	gateway   sync.Gateway
	reminders reminderScheduler
}

// NewMessageService creates a new message service
func NewMessageService(messages *repository.MessageRepository, gateway sync.Gateway,
	reminders reminderScheduler) *MessageService {
	return &MessageService{messages: messages, gateway: gateway, reminders: reminders}
}

// Send posts a message to a claimed request's thread and pushes a
// notification to the other party
func (s *MessageService) Send(ctx context.Context, requestID, senderID, body string) (*models.Message, error) {
	if err := validation.ValidateMessageBody(body); err != nil {
		return nil, err
	}

	req, err := s.participant(ctx, requestID, senderID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.RequestClaimed {
		return nil, fmt.Errorf("%w: thread is only open while the request is claimed", ErrInvalidTransition)
	}

	msg, err := s.messages.CreateMessage(requestID, senderID, *req.ClaimedBy, body)
	if err != nil {
		return nil, err
	}

	recipient := req.ParentID
	if senderID == req.ParentID {
		recipient = *req.ClaimedBy
	}
	s.reminders.NotifyNow(ctx, recipient, models.NotifNewMessage,
		"New message", fmt.Sprintf("New message about %q", req.Title),
		NotificationData(req, models.NotifNewMessage))

	return msg, nil
}

// Thread returns a request's messages and marks the ones addressed to the
// reader as read
func (s *MessageService) Thread(ctx context.Context, requestID, readerID string) ([]models.Message, error) {
	if _, err := s.participant(ctx, requestID, readerID); err != nil {
		return nil, err
	}

	msgs, err := s.messages.ListByRequest(requestID)
	if err != nil {
		return nil, err
	}
	if err := s.messages.MarkThreadRead(requestID, readerID); err != nil {
		return nil, err
	}
	return msgs, nil
}

// UnreadCount counts messages awaiting the reader in one thread
func (s *MessageService) UnreadCount(ctx context.Context, requestID, readerID string) (int, error) {
	if _, err := s.participant(ctx, requestID, readerID); err != nil {
		return 0, err
	}
	return s.messages.CountUnread(requestID, readerID)
}

// participant loads the request and checks the user is one of the two
// thread parties
func (s *MessageService) participant(ctx context.Context, requestID, userID string) (*models.HelpRequest, error) {
	req, err := s.gateway.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrNotFound
	}
	if userID != req.ParentID && (req.ClaimedBy == nil || *req.ClaimedBy != userID) {
		return nil, fmt.Errorf("%w: not a participant in this thread", ErrUnauthorized)
	}
	return req, nil
}
