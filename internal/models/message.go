package models

import "time"

// Message belongs to exactly one help request thread. Messages are immutable
// once sent except for the read flag.
type Message struct {
	ID        string
	RequestID string
	SenderID  string
	ClaimerID string
	Body      string
	Read      bool
	CreatedAt time.Time
}
