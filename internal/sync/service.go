package sync

import (
	"context"
	"time"

	"clairenest/internal/models"
)

// Service is the read path: it answers range queries from the entity
// snapshot when the fetch window already covers the target date, and goes
// through the gateway otherwise, growing the window with what it fetched.
type Service struct {
	gateway Gateway
	windows *WindowCache
	store   *EntityStore
}

// NewService creates a sync service over the given gateway and caches
func NewService(gateway Gateway, windows *WindowCache, store *EntityStore) *Service {
	return &Service{gateway: gateway, windows: windows, store: store}
}

// RequestsForParent returns the parent's own requests around the target
// date. A cache hit is served entirely from memory.
func (s *Service) RequestsForParent(ctx context.Context, parentID string, target time.Time) ([]models.HelpRequest, error) {
	if s.windows.ShouldFetch(parentID, target) {
		w := s.windows.ExpandAround(parentID, target, ParentBackDays, ParentForwardDays)
		reqs, err := s.gateway.QueryRequestsByParentAndRange(ctx, parentID, w.Start, w.End.AddDate(0, 0, 1))
		if err != nil {
			s.windows.Reset(parentID)
			return nil, err
		}
		s.store.PutRequests(reqs)
	}

	w, _ := s.windows.Current(parentID)
	return s.store.RequestsByParentAndRange(parentID, w.Start, w.End.AddDate(0, 0, 1)), nil
}

// RequestsForSupporter returns open and claimed requests from the
// supporter's approved families around the target date. The window belongs to
// the supporter; the fetch spans all their families at once.
func (s *Service) RequestsForSupporter(ctx context.Context, supporterID string, parentIDs []string, target time.Time) ([]models.HelpRequest, error) {
	if s.windows.ShouldFetch(supporterID, target) {
		w := s.windows.ExpandAround(supporterID, target, SupporterBackDays, SupporterForwardDays)
		reqs, err := s.gateway.QueryRequestsByParentsAndRange(ctx, parentIDs, w.Start, w.End.AddDate(0, 0, 1))
		if err != nil {
			s.windows.Reset(supporterID)
			return nil, err
		}
		s.store.PutRequests(reqs)
	}

	w, _ := s.windows.Current(supporterID)
	all := s.store.RequestsByParentsAndRange(parentIDs, w.Start, w.End.AddDate(0, 0, 1))

	// supporters never see completed or canceled requests
	visible := all[:0]
	for _, req := range all {
		if !req.Status.IsTerminal() {
			visible = append(visible, req)
		}
	}
	return visible, nil
}

// RecordWrite folds a freshly written request back into the snapshot so
// subsequent reads inside the window see it without a re-fetch
func (s *Service) RecordWrite(req models.HelpRequest) {
	s.store.PutRequest(req)
}

// SignOut drops everything cached for the user. The next read after a fresh
// sign-in starts from an empty window.
func (s *Service) SignOut(userID string) {
	s.windows.Reset(userID)
	s.store.ClearUser(userID)
}
