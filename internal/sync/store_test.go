package sync

import (
	"testing"
	"time"

	"clairenest/internal/models"
)

func testRequest(id, parentID string, startAt time.Time) models.HelpRequest {
	return models.HelpRequest{
		ID:       id,
		ParentID: parentID,
		Title:    "Need a sitter",
		Type:     models.TypeBabysitting,
		Status:   models.RequestOpen,
		Urgency:  models.UrgencyMedium,
		StartAt:  startAt,
	}
}

func TestEntityStoreValueCopy(t *testing.T) {
	store := NewEntityStore()

	req := testRequest("req-1", "parent-1", day("2026-08-15"))
	req.NotificationIDs = []string{"n-1"}
	store.PutRequest(req)

	// mutating the caller's copy must not leak into the store
	req.Title = "changed"
	req.NotificationIDs[0] = "changed"

	got, ok := store.GetRequest("req-1")
	if !ok {
		t.Fatal("Expected cached request")
	}
	if got.Title != "Need a sitter" {
		t.Errorf("Store shared the struct: title = %q", got.Title)
	}
	if got.NotificationIDs[0] != "n-1" {
		t.Errorf("Store shared the slice: ids = %v", got.NotificationIDs)
	}

	// and mutating a read result must not leak back either
	got.NotificationIDs[0] = "mutated"
	again, _ := store.GetRequest("req-1")
	if again.NotificationIDs[0] != "n-1" {
		t.Errorf("Read result shared the slice: ids = %v", again.NotificationIDs)
	}
}

func TestEntityStoreRangeQuery(t *testing.T) {
	store := NewEntityStore()
	store.PutRequests([]models.HelpRequest{
		testRequest("req-1", "parent-1", day("2026-08-10")),
		testRequest("req-2", "parent-1", day("2026-08-20")),
		testRequest("req-3", "parent-2", day("2026-08-15")),
		testRequest("req-4", "parent-1", day("2026-09-05")),
	})

	got := store.RequestsByParentAndRange("parent-1", day("2026-08-01"), day("2026-09-01"))

	if len(got) != 2 {
		t.Fatalf("Expected 2 requests, got %d", len(got))
	}
	if got[0].ID != "req-1" || got[1].ID != "req-2" {
		t.Errorf("Expected requests ordered by start time, got %s, %s", got[0].ID, got[1].ID)
	}
}

func TestEntityStoreMultiParentQuery(t *testing.T) {
	store := NewEntityStore()
	store.PutRequests([]models.HelpRequest{
		testRequest("req-1", "parent-1", day("2026-08-10")),
		testRequest("req-2", "parent-2", day("2026-08-05")),
		testRequest("req-3", "parent-3", day("2026-08-15")),
	})

	got := store.RequestsByParentsAndRange([]string{"parent-1", "parent-2"},
		day("2026-08-01"), day("2026-09-01"))

	if len(got) != 2 {
		t.Fatalf("Expected 2 requests, got %d", len(got))
	}
	if got[0].ID != "req-2" {
		t.Errorf("Expected req-2 first, got %s", got[0].ID)
	}
}

func TestEntityStoreClearUser(t *testing.T) {
	store := NewEntityStore()
	store.PutUser(models.User{ID: "parent-1", Name: "Claire"})
	store.PutRequests([]models.HelpRequest{
		testRequest("req-1", "parent-1", day("2026-08-10")),
		testRequest("req-2", "parent-2", day("2026-08-10")),
	})

	store.ClearUser("parent-1")

	if _, ok := store.GetUser("parent-1"); ok {
		t.Error("Expected user cleared")
	}
	if _, ok := store.GetRequest("req-1"); ok {
		t.Error("Expected parent-1's request cleared")
	}
	if _, ok := store.GetRequest("req-2"); !ok {
		t.Error("Expected parent-2's request retained")
	}
}

func TestHubPublishSubscribe(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe("req-1")
	defer cancel()

	hub.Publish(testRequest("req-1", "parent-1", day("2026-08-10")))
	hub.Publish(testRequest("req-2", "parent-1", day("2026-08-10")))

	select {
	case got := <-ch:
		if got.ID != "req-1" {
			t.Errorf("Expected req-1, got %s", got.ID)
		}
	default:
		t.Fatal("Expected a published update")
	}

	select {
	case got := <-ch:
		t.Errorf("Expected no update for other request, got %s", got.ID)
	default:
	}
}

func TestHubCancelIdempotent(t *testing.T) {
	hub := NewHub()
	_, cancel := hub.Subscribe("req-1")

	cancel()
	cancel()

	// publishing after cancel must not panic on the closed channel
	hub.Publish(testRequest("req-1", "parent-1", day("2026-08-10")))
}
