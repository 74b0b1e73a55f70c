package sync

import (
	"sort"
	gosync "sync"
	"time"

	"clairenest/internal/models"
)

// EntityStore is the in-memory snapshot of synchronized entities. Values are
// copied on the way in and out so callers never share references with the
// store. It holds only what the fetch windows have covered; the SQL store
// stays authoritative.
type EntityStore struct {
	mu       gosync.RWMutex
	users    map[string]models.User
	requests map[string]models.HelpRequest
}

// NewEntityStore creates an empty snapshot
func NewEntityStore() *EntityStore {
	return &EntityStore{
		users:    make(map[string]models.User),
		requests: make(map[string]models.HelpRequest),
	}
}

// PutUser stores a copy of the user
func (s *EntityStore) PutUser(user models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
}

// GetUser returns a copy of the user and whether it is cached
func (s *EntityStore) GetUser(id string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok
}

// PutRequest stores a copy of the request, replacing any cached version.
// The notification id slice is duplicated so the caller's copy stays private.
func (s *EntityStore) PutRequest(req models.HelpRequest) {
	req.NotificationIDs = cloneStrings(req.NotificationIDs)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[req.ID] = req
}

// PutRequests stores a batch of requests
func (s *EntityStore) PutRequests(reqs []models.HelpRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, req := range reqs {
		req.NotificationIDs = cloneStrings(req.NotificationIDs)
		s.requests[req.ID] = req
	}
}

// GetRequest returns a copy of the request and whether it is cached
func (s *EntityStore) GetRequest(id string) (models.HelpRequest, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[id]
	if ok {
		req.NotificationIDs = cloneStrings(req.NotificationIDs)
	}
	return req, ok
}

// DeleteRequest drops a request from the snapshot
func (s *EntityStore) DeleteRequest(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.requests, id)
}

// RequestsByParentAndRange returns cached requests for one parent whose
// start time falls in [from, to), ordered by start time
func (s *EntityStore) RequestsByParentAndRange(parentID string, from, to time.Time) []models.HelpRequest {
	return s.requestsInRange(map[string]bool{parentID: true}, from, to)
}

// RequestsByParentsAndRange returns cached requests for a set of parents
// whose start time falls in [from, to), ordered by start time
func (s *EntityStore) RequestsByParentsAndRange(parentIDs []string, from, to time.Time) []models.HelpRequest {
	parents := make(map[string]bool, len(parentIDs))
	for _, id := range parentIDs {
		parents[id] = true
	}
	return s.requestsInRange(parents, from, to)
}

func (s *EntityStore) requestsInRange(parents map[string]bool, from, to time.Time) []models.HelpRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.HelpRequest
	for _, req := range s.requests {
		if !parents[req.ParentID] {
			continue
		}
		if req.StartAt.Before(from) || !req.StartAt.Before(to) {
			continue
		}
		req.NotificationIDs = cloneStrings(req.NotificationIDs)
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartAt.Before(out[j].StartAt)
	})
	return out
}

// ClearUser drops everything cached for one user: their profile and every
// request they own. Called on sign-out together with the window reset.
func (s *EntityStore) ClearUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.users, userID)
	for id, req := range s.requests {
		if req.ParentID == userID {
			delete(s.requests, id)
		}
	}
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
