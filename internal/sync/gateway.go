// Package sync owns the data flow between the durable request store and the
// in-memory state served to clients: a remote gateway abstraction, a per-user
// fetch-window cache, an entity snapshot, and a change hub for subscriptions.
package sync

import (
	"context"
	"errors"
	"time"

	"clairenest/internal/models"
	"clairenest/internal/repository"
)

// ErrRemoteFailure wraps any storage error crossing the gateway boundary.
// Callers branch on this sentinel, never on driver errors.
var ErrRemoteFailure = errors.New("remote store failure")

// RequestPatch is a partial update applied to a stored request. Nil fields
// are left untouched.
type RequestPatch struct {
	Title           *string
	Type            *models.RequestType
	Notes           *string
	Status          *models.RequestStatus
	Urgency         *models.Urgency
	ClaimedBy       **string
	StartAt         *time.Time
	EndAt           **time.Time
	NotificationIDs *[]string
}

// UserPatch is a partial update applied to a stored user.
type UserPatch struct {
	Name      *string
	PhotoURL  *string
	PushToken *string
	Role      *models.Role
}

// Gateway is the boundary to the durable document store. Every mutation the
// lifecycle and connection managers perform goes through it, so tests can
// substitute an in-memory fake.
type Gateway interface {
	QueryRequestsByParentAndRange(ctx context.Context, parentID string, from, to time.Time) ([]models.HelpRequest, error)
	QueryRequestsByParentsAndRange(ctx context.Context, parentIDs []string, from, to time.Time) ([]models.HelpRequest, error)
	GetRequest(ctx context.Context, id string) (*models.HelpRequest, error)
	PutRequest(ctx context.Context, req *models.HelpRequest) (*models.HelpRequest, error)
	PatchRequest(ctx context.Context, id string, patch RequestPatch) (*models.HelpRequest, error)
	DeleteRequest(ctx context.Context, id string) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	PatchUser(ctx context.Context, id string, patch UserPatch) (*models.User, error)
	SubscribeToRequest(ctx context.Context, requestID string) (<-chan models.HelpRequest, func(), error)
}

// SQLGateway serves the Gateway interface from the SQL repositories and an
// in-process change hub.
type SQLGateway struct {
	requests *repository.RequestRepository
	users    *repository.UserRepository
	hub      *Hub
}

// NewSQLGateway creates a gateway over the given repositories
func NewSQLGateway(requests *repository.RequestRepository, users *repository.UserRepository, hub *Hub) *SQLGateway {
	return &SQLGateway{requests: requests, users: users, hub: hub}
}

// QueryRequestsByParentAndRange fetches one parent's requests in [from, to)
func (g *SQLGateway) QueryRequestsByParentAndRange(ctx context.Context, parentID string, from, to time.Time) ([]models.HelpRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	reqs, err := g.requests.QueryByParentAndRange(parentID, from, to)
	if err != nil {
		return nil, remoteErr(err)
	}
	return reqs, nil
}

// QueryRequestsByParentsAndRange fetches requests from a set of parents,
// used for the supporter's multi-family feed
func (g *SQLGateway) QueryRequestsByParentsAndRange(ctx context.Context, parentIDs []string, from, to time.Time) ([]models.HelpRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	reqs, err := g.requests.QueryByParentsAndRange(parentIDs, from, to)
	if err != nil {
		return nil, remoteErr(err)
	}
	return reqs, nil
}

// GetRequest fetches a single request; nil when absent
func (g *SQLGateway) GetRequest(ctx context.Context, id string) (*models.HelpRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	req, err := g.requests.GetRequestByID(id)
	if err != nil {
		return nil, remoteErr(err)
	}
	return req, nil
}

// PutRequest stores a new request and publishes the change
func (g *SQLGateway) PutRequest(ctx context.Context, req *models.HelpRequest) (*models.HelpRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	created, err := g.requests.CreateRequest(req)
	if err != nil {
		return nil, remoteErr(err)
	}
	g.hub.Publish(*created)
	return created, nil
}

// PatchRequest applies a partial update, re-reads the result and publishes it
func (g *SQLGateway) PatchRequest(ctx context.Context, id string, patch RequestPatch) (*models.HelpRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	current, err := g.requests.GetRequestByID(id)
	if err != nil {
		return nil, remoteErr(err)
	}
	if current == nil {
		return nil, nil
	}

	applyRequestPatch(current, patch)

	if patch.Status != nil || patch.ClaimedBy != nil {
		if err := g.requests.UpdateStatus(id, current.Status, current.ClaimedBy); err != nil {
			return nil, remoteErr(err)
		}
	}
	if patch.Title != nil || patch.Type != nil || patch.Notes != nil ||
		patch.Urgency != nil || patch.StartAt != nil || patch.EndAt != nil {
		if err := g.requests.UpdateDetails(id, current.Title, current.Type,
			current.Notes, current.Urgency, current.StartAt, current.EndAt); err != nil {
			return nil, remoteErr(err)
		}
	}
	if patch.NotificationIDs != nil {
		if err := g.requests.SetNotificationIDs(id, current.NotificationIDs); err != nil {
			return nil, remoteErr(err)
		}
	}

	updated, err := g.requests.GetRequestByID(id)
	if err != nil {
		return nil, remoteErr(err)
	}
	if updated != nil {
		g.hub.Publish(*updated)
	}
	return updated, nil
}

func applyRequestPatch(req *models.HelpRequest, patch RequestPatch) {
	if patch.Title != nil {
		req.Title = *patch.Title
	}
	if patch.Type != nil {
		req.Type = *patch.Type
	}
	if patch.Notes != nil {
		req.Notes = *patch.Notes
	}
	if patch.Status != nil {
		req.Status = *patch.Status
	}
	if patch.Urgency != nil {
		req.Urgency = *patch.Urgency
	}
	if patch.ClaimedBy != nil {
		req.ClaimedBy = *patch.ClaimedBy
	}
	if patch.StartAt != nil {
		req.StartAt = *patch.StartAt
	}
	if patch.EndAt != nil {
		req.EndAt = *patch.EndAt
	}
	if patch.NotificationIDs != nil {
		req.NotificationIDs = *patch.NotificationIDs
	}
}

// DeleteRequest removes a request. Lifecycle transitions never delete; this
// exists for account deletion cleanup.
func (g *SQLGateway) DeleteRequest(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := g.requests.DeleteRequest(id); err != nil {
		return remoteErr(err)
	}
	return nil
}

// GetUser fetches a user by id; nil when absent
func (g *SQLGateway) GetUser(ctx context.Context, id string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	user, err := g.users.GetUserByID(id)
	if err != nil {
		return nil, remoteErr(err)
	}
	return user, nil
}

// PatchUser applies a partial update to a user and returns the result
func (g *SQLGateway) PatchUser(ctx context.Context, id string, patch UserPatch) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	current, err := g.users.GetUserByID(id)
	if err != nil {
		return nil, remoteErr(err)
	}
	if current == nil {
		return nil, nil
	}

	if patch.Name != nil || patch.PhotoURL != nil {
		name, photo := current.Name, current.PhotoURL
		if patch.Name != nil {
			name = *patch.Name
		}
		if patch.PhotoURL != nil {
			photo = *patch.PhotoURL
		}
		if err := g.users.UpdateProfile(id, name, photo); err != nil {
			return nil, remoteErr(err)
		}
	}
	if patch.PushToken != nil {
		if err := g.users.UpdatePushToken(id, *patch.PushToken); err != nil {
			return nil, remoteErr(err)
		}
	}
	if patch.Role != nil {
		if err := g.users.SetRole(id, *patch.Role); err != nil {
			return nil, remoteErr(err)
		}
	}

	updated, err := g.users.GetUserByID(id)
	if err != nil {
		return nil, remoteErr(err)
	}
	return updated, nil
}

// SubscribeToRequest streams subsequent versions of one request until the
// context is done or the returned cancel func runs
func (g *SQLGateway) SubscribeToRequest(ctx context.Context, requestID string) (<-chan models.HelpRequest, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	ch, cancel := g.hub.Subscribe(requestID)
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ch, cancel, nil
}

func remoteErr(err error) error {
	return errors.Join(ErrRemoteFailure, err)
}
