package models

import (
	"fmt"
	"time"
)

// RequestStatus is the lifecycle state of a help request.
type RequestStatus string

const (
	RequestOpen      RequestStatus = "open"
	RequestClaimed   RequestStatus = "claimed"
	RequestCompleted RequestStatus = "completed"
	RequestCanceled  RequestStatus = "canceled"
)

// ParseRequestStatus validates a status value read from storage. Unknown
// statuses are rejected at the deserialization boundary rather than passed
// through.
func ParseRequestStatus(s string) (RequestStatus, error) {
	switch RequestStatus(s) {
	case RequestOpen, RequestClaimed, RequestCompleted, RequestCanceled:
		return RequestStatus(s), nil
	}
	return "", fmt.Errorf("unknown request status %q", s)
}

// IsTerminal reports whether no further transition is permitted.
func (s RequestStatus) IsTerminal() bool {
	return s == RequestCompleted || s == RequestCanceled
}

// RequestType categorizes the kind of help being asked for.
type RequestType string

const (
	TypeBabysitting RequestType = "babysitting"
	TypeMeal        RequestType = "meal"
	TypeGroceries   RequestType = "groceries"
	TypeChildcare   RequestType = "childcare"
	TypeOther       RequestType = "other"
)

// ParseRequestType validates a request type value.
func ParseRequestType(s string) (RequestType, error) {
	switch RequestType(s) {
	case TypeBabysitting, TypeMeal, TypeGroceries, TypeChildcare, TypeOther:
		return RequestType(s), nil
	}
	return "", fmt.Errorf("unknown request type %q", s)
}

// Urgency is how soon a request needs attention.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// ParseUrgency validates an urgency value.
func ParseUrgency(s string) (Urgency, error) {
	switch Urgency(s) {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return Urgency(s), nil
	}
	return "", fmt.Errorf("unknown urgency %q", s)
}

// HelpRequest is a unit of requested assistance owned by a parent.
type HelpRequest struct {
	ID              string
	ParentID        string
	Title           string
	Type            RequestType
	Notes           string
	Status          RequestStatus
	Urgency         Urgency
	ClaimedBy       *string
	StartAt         time.Time
	EndAt           *time.Time
	NotificationIDs []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsExpired reports whether an open request's start time has passed.
// Expiry is a view classification computed on read, never a stored state.
func (r *HelpRequest) IsExpired(now time.Time) bool {
	return r.Status == RequestOpen && r.StartAt.Before(now)
}

// UpdateType labels an entry in a request's update history.
type UpdateType string

const (
	UpdateCreated   UpdateType = "created"
	UpdateClaimed   UpdateType = "claimed"
	UpdateAbandoned UpdateType = "abandoned"
	UpdateCompleted UpdateType = "completed"
	UpdateCanceled  UpdateType = "canceled"
	UpdateEdited    UpdateType = "edited"
)

// ParseUpdateType validates an update type value read from storage.
func ParseUpdateType(s string) (UpdateType, error) {
	switch UpdateType(s) {
	case UpdateCreated, UpdateClaimed, UpdateAbandoned,
		UpdateCompleted, UpdateCanceled, UpdateEdited:
		return UpdateType(s), nil
	}
	return "", fmt.Errorf("unknown update type %q", s)
}

// FieldDiff records one field-level change in an edited request.
type FieldDiff struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// RequestUpdate is one entry of a request's append-only update history.
// Entries are immutable once appended and ordered by timestamp.
type RequestUpdate struct {
	ID        int64
	RequestID string
	Type      UpdateType
	ActorID   string
	Diffs     []FieldDiff
	CreatedAt time.Time
}
