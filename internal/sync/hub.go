package sync

import (
	gosync "sync"

	"clairenest/internal/models"
)

// Hub fans out request changes to in-process subscribers. The gateway
// publishes after every successful write; each subscriber watches a single
// request id.
type Hub struct {
	mu   gosync.Mutex
	next int
	subs map[string]map[int]chan models.HelpRequest
}

// NewHub creates an empty change hub
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]chan models.HelpRequest)}
}

// Subscribe registers interest in one request. The returned cancel func must
// be called to release the subscription; it is safe to call more than once.
func (h *Hub) Subscribe(requestID string) (<-chan models.HelpRequest, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.next
	h.next++

	ch := make(chan models.HelpRequest, 8)
	if h.subs[requestID] == nil {
		h.subs[requestID] = make(map[int]chan models.HelpRequest)
	}
	h.subs[requestID][id] = ch

	var once gosync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if set, ok := h.subs[requestID]; ok {
				delete(set, id)
				if len(set) == 0 {
					delete(h.subs, requestID)
				}
			}
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers a request version to its subscribers. Slow subscribers
// with a full buffer miss the update rather than block the writer.
func (h *Hub) Publish(req models.HelpRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs[req.ID] {
		select {
		case ch <- req:
		default:
		}
	}
}
