package models

import (
	"fmt"
	"time"
)

// ConnectionStatus is the approval state of a family connection.
// The only legal transitions are pending -> approved and pending -> rejected.
type ConnectionStatus string

const (
	ConnectionPending  ConnectionStatus = "pending"
	ConnectionApproved ConnectionStatus = "approved"
	ConnectionRejected ConnectionStatus = "rejected"
)

// ParseConnectionStatus validates a status value read from storage.
func ParseConnectionStatus(s string) (ConnectionStatus, error) {
	switch ConnectionStatus(s) {
	case ConnectionPending, ConnectionApproved, ConnectionRejected:
		return ConnectionStatus(s), nil
	}
	return "", fmt.Errorf("unknown connection status %q", s)
}

// FamilyConnection is one direction of the edge between a parent and a
// supporter. Each connection is stored twice, once per owner, so that either
// side can list its families without a join on direction.
type FamilyConnection struct {
	ID            int64
	OwnerID       string
	CounterpartID string
	Status        ConnectionStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CanTransitionTo reports whether the status change is legal. Approved and
// rejected are terminal; nothing ever returns to pending.
func (c *FamilyConnection) CanTransitionTo(next ConnectionStatus) bool {
	return c.Status == ConnectionPending &&
		(next == ConnectionApproved || next == ConnectionRejected)
}

// ApprovedFamily is a connection resolved to the counterpart's public profile
type ApprovedFamily struct {
	ConnectionID int64         `json:"connectionId"`
	Counterpart  PublicProfile `json:"counterpart"`
	Since        time.Time     `json:"since"`
}
