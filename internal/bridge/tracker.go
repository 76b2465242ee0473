package bridge

import (
	"context"
	"sync"
)

// TabResolver answers which tab is active in the focused window.
type TabResolver interface {
	ActiveTab(ctx context.Context) (int, error)
}

// TabTracker follows TAB_ACTIVATED, WINDOW_FOCUSED and TAB_REMOVED events
// to know the active tab of the focused window. It is safe for concurrent
// use.
type TabTracker struct {
	mu       sync.Mutex
	focused  int
	hasFocus bool
	active   map[int]int
}

// NewTabTracker returns a tracker that knows no tabs yet.
func NewTabTracker() *TabTracker {
	return &TabTracker{active: make(map[int]int)}
}

// Activate records tabID as the active tab of windowID. A tab activation
// implies its window has focus.
func (t *TabTracker) Activate(tabID, windowID int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active[windowID] = tabID
	t.focused = windowID
	t.hasFocus = true
}

// Focus records windowID as the focused window.
func (t *TabTracker) Focus(windowID int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.focused = windowID
	t.hasFocus = true
}

// Remove forgets tabID wherever it was active.
func (t *TabTracker) Remove(tabID int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for w, id := range t.active {
		if id == tabID {
			delete(t.active, w)
		}
	}
}

// ActiveTab implements TabResolver.
func (t *TabTracker) ActiveTab(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.hasFocus {
		return 0, ErrNoActiveTab
	}
	id, ok := t.active[t.focused]
	if !ok {
		return 0, ErrNoActiveTab
	}
	return id, nil
}
