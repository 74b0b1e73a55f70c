package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clairenest/internal/models"
	"clairenest/internal/sync"
	"clairenest/internal/validation"
)

// Error taxonomy shared by the lifecycle and connection managers. Handlers
// map these to HTTP statuses; everything else is a 500.
var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnauthorized      = errors.New("actor lacks permission")
	ErrNotFound          = errors.New("not found")
	ErrAlreadyConnected  = errors.New("connection already exists")
)

// historyStore appends and lists a request's immutable update log
type historyStore interface {
	AppendUpdate(update *models.RequestUpdate) (*models.RequestUpdate, error)
	ListUpdates(requestID string) ([]models.RequestUpdate, error)
}

// connectionChecker resolves one side of a family connection
type connectionChecker interface {
	GetByOwnerAndCounterpart(ownerID, counterpartID string) (*models.FamilyConnection, error)
}

// reminderScheduler manages a request's scheduled reminders and event pushes
type reminderScheduler interface {
	ScheduleReminders(req *models.HelpRequest, now time.Time) ([]string, error)
	CancelForRequest(requestID string) error
	NotifyNow(ctx context.Context, userID string, notifType models.NotificationType,
		title, body string, data map[string]string)
}

// RequestService validates and applies help request state transitions.
// Every operation re-reads current state through the gateway, validates
// before any remote write, and appends a history entry on success.
type RequestService struct {
	gateway     sync.Gateway
	syncer      *sync.Service
	history     historyStore
	connections connectionChecker
	reminders   reminderScheduler
	now         func() time.Time
}

// NewRequestService creates a new request lifecycle service
func NewRequestService(gateway sync.Gateway, syncer *sync.Service, history historyStore,
	connections connectionChecker, reminders reminderScheduler) *RequestService {
	return &RequestService{
		gateway:     gateway,
		syncer:      syncer,
		history:     history,
		connections: connections,
		reminders:   reminders,
		now:         time.Now,
	}
}

// CreateRequestInput carries the fields a parent supplies for a new request
type CreateRequestInput struct {
	Title   string
	Type    models.RequestType
	Notes   string
	Urgency models.Urgency
	StartAt time.Time
	EndAt   *time.Time
}

// Create validates and stores a new open request, schedules its reminders
// and appends the opening history entry
func (s *RequestService) Create(ctx context.Context, parentID string, input CreateRequestInput) (*models.HelpRequest, error) {
	now := s.now()
	if err := validateInput(input, now); err != nil {
		return nil, err
	}

	req := &models.HelpRequest{
		ParentID: parentID,
		Title:    input.Title,
		Type:     input.Type,
		Notes:    input.Notes,
		Urgency:  input.Urgency,
		StartAt:  input.StartAt,
		EndAt:    input.EndAt,
	}

	created, err := s.gateway.PutRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	if _, err := s.history.AppendUpdate(&models.RequestUpdate{
		RequestID: created.ID,
		Type:      models.UpdateCreated,
		ActorID:   parentID,
	}); err != nil {
		return nil, err
	}

	ids, err := s.reminders.ScheduleReminders(created, now)
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		created, err = s.gateway.PatchRequest(ctx, created.ID, sync.RequestPatch{NotificationIDs: &ids})
		if err != nil {
			return nil, err
		}
	}

	s.syncer.RecordWrite(*created)
	return created, nil
}

func validateInput(input CreateRequestInput, now time.Time) error {
	if err := validation.ValidateRequestTitle(input.Title); err != nil {
		return err
	}
	if err := validation.ValidateStartTime(input.StartAt, now); err != nil {
		return err
	}
	return validation.ValidateTimeRange(input.StartAt, input.EndAt)
}

// Claim marks an open request as claimed by a supporter. The supporter must
// hold an approved connection to the owning parent.
func (s *RequestService) Claim(ctx context.Context, requestID, supporterID string) (*models.HelpRequest, error) {
	req, err := s.gateway.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrNotFound
	}
	if req.Status != models.RequestOpen {
		return nil, fmt.Errorf("%w: cannot claim %s request", ErrInvalidTransition, req.Status)
	}

	conn, err := s.connections.GetByOwnerAndCounterpart(supporterID, req.ParentID)
	if err != nil {
		return nil, err
	}
	if conn == nil || conn.Status != models.ConnectionApproved {
		return nil, fmt.Errorf("%w: no approved connection to this family", ErrUnauthorized)
	}

	claimed := models.RequestClaimed
	claimedBy := &supporterID
	updated, err := s.gateway.PatchRequest(ctx, requestID, sync.RequestPatch{
		Status:    &claimed,
		ClaimedBy: &claimedBy,
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.history.AppendUpdate(&models.RequestUpdate{
		RequestID: requestID,
		Type:      models.UpdateClaimed,
		ActorID:   supporterID,
	}); err != nil {
		return nil, err
	}

	s.syncer.RecordWrite(*updated)
	s.reminders.NotifyNow(ctx, req.ParentID, models.NotifRequestClaimed,
		"Someone stepped up", fmt.Sprintf("Your request %q was claimed", req.Title),
		NotificationData(updated, models.NotifRequestClaimed))
	return updated, nil
}

// Abandon reverts a claimed request to open. Only the claiming supporter may
// abandon, and that check comes before any status check.
func (s *RequestService) Abandon(ctx context.Context, requestID, supporterID string) (*models.HelpRequest, error) {
	req, err := s.gateway.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrNotFound
	}
	if req.ClaimedBy == nil || *req.ClaimedBy != supporterID {
		return nil, fmt.Errorf("%w: not the claiming supporter", ErrUnauthorized)
	}
	if req.Status != models.RequestClaimed {
		return nil, fmt.Errorf("%w: cannot abandon %s request", ErrInvalidTransition, req.Status)
	}

	open := models.RequestOpen
	var cleared *string
	updated, err := s.gateway.PatchRequest(ctx, requestID, sync.RequestPatch{
		Status:    &open,
		ClaimedBy: &cleared,
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.history.AppendUpdate(&models.RequestUpdate{
		RequestID: requestID,
		Type:      models.UpdateAbandoned,
		ActorID:   supporterID,
	}); err != nil {
		return nil, err
	}

	s.syncer.RecordWrite(*updated)
	return updated, nil
}

// Complete marks a claimed request as done. Terminal; pending reminders are
// canceled.
func (s *RequestService) Complete(ctx context.Context, requestID, actorID string) (*models.HelpRequest, error) {
	req, err := s.gateway.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrNotFound
	}
	if req.Status != models.RequestClaimed {
		return nil, fmt.Errorf("%w: cannot complete %s request", ErrInvalidTransition, req.Status)
	}
	if actorID != req.ParentID && (req.ClaimedBy == nil || *req.ClaimedBy != actorID) {
		return nil, fmt.Errorf("%w: only the parent or claimer may complete", ErrUnauthorized)
	}

	completed := models.RequestCompleted
	updated, err := s.gateway.PatchRequest(ctx, requestID, sync.RequestPatch{Status: &completed})
	if err != nil {
		return nil, err
	}

	if _, err := s.history.AppendUpdate(&models.RequestUpdate{
		RequestID: requestID,
		Type:      models.UpdateCompleted,
		ActorID:   actorID,
	}); err != nil {
		return nil, err
	}

	if err := s.reminders.CancelForRequest(requestID); err != nil {
		return nil, err
	}

	s.syncer.RecordWrite(*updated)
	return updated, nil
}

// Cancel withdraws an open or claimed request. Owner only; terminal; pending
// reminders are canceled and a claimer, if any, is notified.
func (s *RequestService) Cancel(ctx context.Context, requestID, actorID string) (*models.HelpRequest, error) {
	req, err := s.gateway.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrNotFound
	}
	if req.ParentID != actorID {
		return nil, fmt.Errorf("%w: only the owner may cancel", ErrUnauthorized)
	}
	if req.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: request already %s", ErrInvalidTransition, req.Status)
	}

	canceled := models.RequestCanceled
	updated, err := s.gateway.PatchRequest(ctx, requestID, sync.RequestPatch{Status: &canceled})
	if err != nil {
		return nil, err
	}

	if _, err := s.history.AppendUpdate(&models.RequestUpdate{
		RequestID: requestID,
		Type:      models.UpdateCanceled,
		ActorID:   actorID,
	}); err != nil {
		return nil, err
	}

	if err := s.reminders.CancelForRequest(requestID); err != nil {
		return nil, err
	}

	s.syncer.RecordWrite(*updated)
	if req.ClaimedBy != nil {
		s.reminders.NotifyNow(ctx, *req.ClaimedBy, models.NotifRequestCanceled,
			"Request canceled", fmt.Sprintf("%q no longer needs help", req.Title),
			NotificationData(updated, models.NotifRequestCanceled))
	}
	return updated, nil
}

// EditRequestPatch carries the fields an owner may change on an open request.
// Nil fields are left untouched.
type EditRequestPatch struct {
	Title   *string
	Type    *models.RequestType
	Notes   *string
	Urgency *models.Urgency
	StartAt *time.Time
	EndAt   **time.Time
}

// Edit updates an open request's fields, recording a field-level diff in the
// history. A changed start time drops the old reminders and schedules the
// still-future subset of replacements.
func (s *RequestService) Edit(ctx context.Context, requestID, actorID string, patch EditRequestPatch) (*models.HelpRequest, error) {
	req, err := s.gateway.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrNotFound
	}
	if req.ParentID != actorID {
		return nil, fmt.Errorf("%w: only the owner may edit", ErrUnauthorized)
	}
	if req.Status != models.RequestOpen {
		return nil, fmt.Errorf("%w: cannot edit %s request", ErrInvalidTransition, req.Status)
	}

	diffs, startChanged := diffPatch(req, patch)
	if len(diffs) == 0 {
		return req, nil
	}
	if patch.Title != nil {
		if err := validation.ValidateRequestTitle(*patch.Title); err != nil {
			return nil, err
		}
	}

	updated, err := s.gateway.PatchRequest(ctx, requestID, sync.RequestPatch{
		Title:   patch.Title,
		Type:    patch.Type,
		Notes:   patch.Notes,
		Urgency: patch.Urgency,
		StartAt: patch.StartAt,
		EndAt:   patch.EndAt,
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.history.AppendUpdate(&models.RequestUpdate{
		RequestID: requestID,
		Type:      models.UpdateEdited,
		ActorID:   actorID,
		Diffs:     diffs,
	}); err != nil {
		return nil, err
	}

	if startChanged {
		if err := s.reminders.CancelForRequest(requestID); err != nil {
			return nil, err
		}
		ids, err := s.reminders.ScheduleReminders(updated, s.now())
		if err != nil {
			return nil, err
		}
		if ids == nil {
			ids = []string{}
		}
		updated, err = s.gateway.PatchRequest(ctx, requestID, sync.RequestPatch{NotificationIDs: &ids})
		if err != nil {
			return nil, err
		}
	}

	s.syncer.RecordWrite(*updated)
	return updated, nil
}

// diffPatch computes the field-level changes a patch would make
func diffPatch(req *models.HelpRequest, patch EditRequestPatch) ([]models.FieldDiff, bool) {
	var diffs []models.FieldDiff
	startChanged := false

	if patch.Title != nil && *patch.Title != req.Title {
		diffs = append(diffs, models.FieldDiff{Field: "title", Old: req.Title, New: *patch.Title})
	}
	if patch.Type != nil && *patch.Type != req.Type {
		diffs = append(diffs, models.FieldDiff{Field: "type", Old: string(req.Type), New: string(*patch.Type)})
	}
	if patch.Notes != nil && *patch.Notes != req.Notes {
		diffs = append(diffs, models.FieldDiff{Field: "notes", Old: req.Notes, New: *patch.Notes})
	}
	if patch.Urgency != nil && *patch.Urgency != req.Urgency {
		diffs = append(diffs, models.FieldDiff{Field: "urgency", Old: string(req.Urgency), New: string(*patch.Urgency)})
	}
	if patch.StartAt != nil && !patch.StartAt.Equal(req.StartAt) {
		diffs = append(diffs, models.FieldDiff{
			Field: "startAt",
			Old:   req.StartAt.Format(time.RFC3339),
			New:   patch.StartAt.Format(time.RFC3339),
		})
		startChanged = true
	}
	if patch.EndAt != nil && !timesEqual(*patch.EndAt, req.EndAt) {
		diffs = append(diffs, models.FieldDiff{
			Field: "endAt",
			Old:   formatOptionalTime(req.EndAt),
			New:   formatOptionalTime(*patch.EndAt),
		})
	}
	return diffs, startChanged
}

func timesEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

// Get returns a request by id
func (s *RequestService) Get(ctx context.Context, requestID string) (*models.HelpRequest, error) {
	req, err := s.gateway.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrNotFound
	}
	return req, nil
}

// History returns a request's update log, oldest first
func (s *RequestService) History(ctx context.Context, requestID string) ([]models.RequestUpdate, error) {
	req, err := s.gateway.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrNotFound
	}
	return s.history.ListUpdates(requestID)
}
