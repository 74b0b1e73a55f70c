package repository

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"clairenest/internal/database"
	"clairenest/internal/models"
)

// MessageRepository handles database operations for per-request message threads
type MessageRepository struct {
	db database.DBTX
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db database.DBTX) *MessageRepository {
	return &MessageRepository{db: db}
}

// CreateMessage inserts a new message into a request's thread
func (r *MessageRepository) CreateMessage(requestID, senderID, claimerID, body string) (*models.Message, error) {
	msg := &models.Message{
		ID:        uuid.New().String(),
		RequestID: requestID,
		SenderID:  senderID,
		ClaimerID: claimerID,
		Body:      body,
		CreatedAt: time.Now(),
	}

	query := `
		INSERT INTO messages (id, request_id, sender_id, claimer_id, body, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, msg.ID, msg.RequestID, msg.SenderID, msg.ClaimerID,
		msg.Body, msg.Read, msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	return msg, nil
}

// ListByRequest retrieves a request's messages, oldest first
func (r *MessageRepository) ListByRequest(requestID string) ([]models.Message, error) {
	query := `
		SELECT id, request_id, sender_id, claimer_id, body, is_read, created_at
		FROM messages
		WHERE request_id = ?
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var msgs []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.RequestID, &m.SenderID, &m.ClaimerID, &m.Body, &m.Read, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// MarkThreadRead marks every message in a request's thread that was NOT sent
// by the given user as read
func (r *MessageRepository) MarkThreadRead(requestID, readerID string) error {
	query := `UPDATE messages SET is_read = ? WHERE request_id = ? AND sender_id <> ?`
	if _, err := r.db.Exec(query, true, requestID, readerID); err != nil {
		return fmt.Errorf("failed to mark messages read: %w", err)
	}
	return nil
}

// CountUnread counts messages addressed to the user that are still unread
func (r *MessageRepository) CountUnread(requestID, readerID string) (int, error) {
	query := `SELECT COUNT(*) FROM messages WHERE request_id = ? AND sender_id <> ? AND is_read = ?`
	var n int
	if err := r.db.QueryRow(query, requestID, readerID, false).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return n, nil
}
