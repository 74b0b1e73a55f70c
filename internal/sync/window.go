package sync

import (
	gosync "sync"
	"time"
)

// Expansion policy applied when a target date falls outside the cached
// window. Parents browse a calendar around a focused day; supporters scan a
// forward-looking feed.
const (
	ParentBackDays       = 15
	ParentForwardDays    = 30
	SupporterBackDays    = 0
	SupporterForwardDays = 30
)

// Window is a contiguous synchronized interval [Start, End].
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window, bounds inclusive
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// WindowCache tracks, per user, which date interval has already been fetched
// from the remote store. Windows only grow; there is no eviction. A user's
// window is dropped on sign-out.
type WindowCache struct {
	mu      gosync.Mutex
	windows map[string]Window
}

// NewWindowCache creates an empty window cache
func NewWindowCache() *WindowCache {
	return &WindowCache{windows: make(map[string]Window)}
}

// ShouldFetch reports whether the target date is outside the user's cached
// window and a remote fetch is needed
func (c *WindowCache) ShouldFetch(userID string, target time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	w, ok := c.windows[userID]
	return !ok || !w.Contains(target)
}

// ExpandAround computes the interval to fetch for a target date using the
// given back/forward policy, then extends the user's window to cover it.
// The returned interval is the union, so re-fetching covers any gap between
// the old window and the new range.
func (c *WindowCache) ExpandAround(userID string, target time.Time, backDays, forwardDays int) Window {
	from := target.AddDate(0, 0, -backDays)
	to := target.AddDate(0, 0, forwardDays)
	return c.Extend(userID, from, to)
}

// Extend grows the user's window to include [from, to] and returns the
// resulting window. Extending never shrinks an existing window.
func (c *WindowCache) Extend(userID string, from, to time.Time) Window {
	c.mu.Lock()
	defer c.mu.Unlock()

	w, ok := c.windows[userID]
	if !ok {
		w = Window{Start: from, End: to}
	} else {
		if from.Before(w.Start) {
			w.Start = from
		}
		if to.After(w.End) {
			w.End = to
		}
	}
	c.windows[userID] = w
	return w
}

// Current returns the user's window and whether one exists
func (c *WindowCache) Current(userID string) (Window, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	w, ok := c.windows[userID]
	return w, ok
}

// Reset drops the user's window, forcing the next read to fetch
func (c *WindowCache) Reset(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.windows, userID)
}
