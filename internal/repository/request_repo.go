package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"clairenest/internal/database"
	"clairenest/internal/models"
)

// RequestRepository handles database operations for help requests and their
// append-only update history.
type RequestRepository struct {
	db database.DBTX
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db database.DBTX) *RequestRepository {
	return &RequestRepository{db: db}
}

const requestColumns = `id, parent_id, title, type, notes, status, urgency,
	claimed_by, start_at, end_at, notification_ids, created_at, updated_at`

// CreateRequest inserts a new open help request and returns it
func (r *RequestRepository) CreateRequest(req *models.HelpRequest) (*models.HelpRequest, error) {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	now := time.Now()
	req.Status = models.RequestOpen
	req.CreatedAt = now
	req.UpdatedAt = now

	ids, err := json.Marshal(req.NotificationIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode notification ids: %w", err)
	}

	query := `
		INSERT INTO help_requests (id, parent_id, title, type, notes, status, urgency,
			claimed_by, start_at, end_at, notification_ids, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query, req.ID, req.ParentID, req.Title, string(req.Type), req.Notes,
		string(req.Status), string(req.Urgency), nullString(req.ClaimedBy),
		req.StartAt, nullTime(req.EndAt), string(ids), req.CreatedAt, req.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return req, nil
}

// GetRequestByID retrieves a request by its id
func (r *RequestRepository) GetRequestByID(id string) (*models.HelpRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM help_requests WHERE id = ?`
	return r.scanRequest(r.db.QueryRow(query, id))
}

func (r *RequestRepository) scanRequest(row *sql.Row) (*models.HelpRequest, error) {
	req, err := scanRequestFrom(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return req, nil
}

// scanRequestFrom decodes one help_requests row from any Scan-shaped source
func scanRequestFrom(scan func(dest ...any) error) (*models.HelpRequest, error) {
	req := &models.HelpRequest{}
	var reqType, status, urgency, ids string
	var claimedBy sql.NullString
	var endAt sql.NullTime

	err := scan(&req.ID, &req.ParentID, &req.Title, &reqType, &req.Notes, &status,
		&urgency, &claimedBy, &req.StartAt, &endAt, &ids, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if req.Type, err = models.ParseRequestType(reqType); err != nil {
		return nil, fmt.Errorf("corrupt request record %s: %w", req.ID, err)
	}
	if req.Status, err = models.ParseRequestStatus(status); err != nil {
		return nil, fmt.Errorf("corrupt request record %s: %w", req.ID, err)
	}
	if req.Urgency, err = models.ParseUrgency(urgency); err != nil {
		return nil, fmt.Errorf("corrupt request record %s: %w", req.ID, err)
	}
	if claimedBy.Valid {
		req.ClaimedBy = &claimedBy.String
	}
	if endAt.Valid {
		t := endAt.Time
		req.EndAt = &t
	}
	if err := json.Unmarshal([]byte(ids), &req.NotificationIDs); err != nil {
		return nil, fmt.Errorf("corrupt request record %s: %w", req.ID, err)
	}
	return req, nil
}

// QueryByParentAndRange retrieves a parent's requests whose start time falls
// inside the half-open range [from, to)
func (r *RequestRepository) QueryByParentAndRange(parentID string, from, to time.Time) ([]models.HelpRequest, error) {
	query := `
		SELECT ` + requestColumns + ` FROM help_requests
		WHERE parent_id = ? AND start_at >= ? AND start_at < ?
		ORDER BY start_at ASC
	`
	return r.queryRequests(query, parentID, from, to)
}

// QueryByParentsAndRange retrieves requests from any of the given parents
// whose start time falls inside [from, to). An empty parent list yields nil.
func (r *RequestRepository) QueryByParentsAndRange(parentIDs []string, from, to time.Time) ([]models.HelpRequest, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?, ", len(parentIDs)-1) + "?"
	query := `
		SELECT ` + requestColumns + ` FROM help_requests
		WHERE parent_id IN (` + placeholders + `) AND start_at >= ? AND start_at < ?
		ORDER BY start_at ASC
	`
	args := make([]any, 0, len(parentIDs)+2)
	for _, id := range parentIDs {
		args = append(args, id)
	}
	args = append(args, from, to)
	return r.queryRequests(query, args...)
}

// ListClaimedBy retrieves every request currently claimed by the given user
func (r *RequestRepository) ListClaimedBy(userID string) ([]models.HelpRequest, error) {
	query := `
		SELECT ` + requestColumns + ` FROM help_requests
		WHERE claimed_by = ? AND status = ?
		ORDER BY start_at ASC
	`
	return r.queryRequests(query, userID, string(models.RequestClaimed))
}

func (r *RequestRepository) queryRequests(query string, args ...any) ([]models.HelpRequest, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	var reqs []models.HelpRequest
	for rows.Next() {
		req, err := scanRequestFrom(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		reqs = append(reqs, *req)
	}
	return reqs, rows.Err()
}

// UpdateStatus transitions a request's lifecycle state and claim holder
func (r *RequestRepository) UpdateStatus(id string, status models.RequestStatus, claimedBy *string) error {
	query := `UPDATE help_requests SET status = ?, claimed_by = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.Exec(query, string(status), nullString(claimedBy), time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update request status: %w", err)
	}
	return nil
}

// UpdateDetails overwrites a request's editable fields
func (r *RequestRepository) UpdateDetails(id string, title string, reqType models.RequestType,
	notes string, urgency models.Urgency, startAt time.Time, endAt *time.Time) error {
	query := `
		UPDATE help_requests SET title = ?, type = ?, notes = ?, urgency = ?,
			start_at = ?, end_at = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.Exec(query, title, string(reqType), notes, string(urgency),
		startAt, nullTime(endAt), time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update request details: %w", err)
	}
	return nil
}

// SetNotificationIDs replaces a request's scheduled notification handles
func (r *RequestRepository) SetNotificationIDs(id string, notificationIDs []string) error {
	ids, err := json.Marshal(notificationIDs)
	if err != nil {
		return fmt.Errorf("failed to encode notification ids: %w", err)
	}
	query := `UPDATE help_requests SET notification_ids = ?, updated_at = ? WHERE id = ?`
	if _, err := r.db.Exec(query, string(ids), time.Now(), id); err != nil {
		return fmt.Errorf("failed to set notification ids: %w", err)
	}
	return nil
}

// DeleteRequest removes a request and, via cascade, its updates and messages
func (r *RequestRepository) DeleteRequest(id string) error {
	if _, err := r.db.Exec(`DELETE FROM help_requests WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete request: %w", err)
	}
	return nil
}

// AppendUpdate adds an entry to a request's update history
func (r *RequestRepository) AppendUpdate(update *models.RequestUpdate) (*models.RequestUpdate, error) {
	diffs, err := json.Marshal(update.Diffs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode diffs: %w", err)
	}
	update.CreatedAt = time.Now()

	query := `
		INSERT INTO request_updates (request_id, type, actor_id, diffs, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, update.RequestID, string(update.Type),
		update.ActorID, string(diffs), update.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to append update: %w", err)
	}
	update.ID = id
	return update, nil
}

// ListUpdates retrieves a request's update history, oldest first
func (r *RequestRepository) ListUpdates(requestID string) ([]models.RequestUpdate, error) {
	query := `
		SELECT id, request_id, type, actor_id, diffs, created_at
		FROM request_updates
		WHERE request_id = ?
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.Query(query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to query updates: %w", err)
	}
	defer rows.Close()

	var updates []models.RequestUpdate
	for rows.Next() {
		var u models.RequestUpdate
		var updateType, diffs string
		if err := rows.Scan(&u.ID, &u.RequestID, &updateType, &u.ActorID, &diffs, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan update: %w", err)
		}
		if u.Type, err = models.ParseUpdateType(updateType); err != nil {
			return nil, fmt.Errorf("corrupt update record %d: %w", u.ID, err)
		}
		if err := json.Unmarshal([]byte(diffs), &u.Diffs); err != nil {
			return nil, fmt.Errorf("corrupt update record %d: %w", u.ID, err)
		}
		updates = append(updates, u)
	}
	return updates, rows.Err()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
