package view

import (
	"maps"
	"sort"
	"strings"
	"sync"
)

// Window is the update contract of the display surface. Every call carries
// an explicit visibility: slots persist across invocations, so relying on a
// previous state would leak stale values.
type Window interface {
	Update(key string, value any, visible bool)
	Popup(message string)
}

// Slot is the last value and visibility written to one named display field.
type Slot struct {
	Value   any  `json:"value"`
	Visible bool `json:"visible"`
}

// Board is an in-memory Window that remembers every slot. It is safe for
// concurrent readers while the projector writes.
type Board struct {
	mu     sync.RWMutex
	slots  map[string]Slot
	popups []string
}

// NewBoard creates an empty board.
func NewBoard() *Board {
	return &Board{
		slots: make(map[string]Slot),
	}
}

// Update stores value and visibility for key.
func (b *Board) Update(key string, value any, visible bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.slots[key] = Slot{Value: value, Visible: visible}
}

// Popup records a modal message.
func (b *Board) Popup(message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.popups = append(b.popups, message)
}

// Slot returns the slot stored under key.
func (b *Board) Slot(key string) (Slot, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.slots[key]
	return s, ok
}

// Snapshot returns a copy of all slots whose key ends with suffix. An empty
// suffix returns every slot.
func (b *Board) Snapshot(suffix string) map[string]Slot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if suffix == "" {
		return maps.Clone(b.slots)
	}

	out := make(map[string]Slot)
	for key, slot := range b.slots {
		if belongsTo(key, suffix) {
			out[key] = slot
		}
	}
	return out
}

// belongsTo matches KIND_SUFFIX and KIND_SUFFIX<index> keys.
func belongsTo(key string, suffix string) bool {
	trimmed := strings.TrimRight(key, "0123456789")
	return strings.HasSuffix(trimmed, "_"+suffix)
}

// Keys returns the stored keys in sorted order.
func (b *Board) Keys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	keys := make([]string, 0, len(b.slots))
	for k := range b.slots {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Popups returns the recorded popup messages, oldest first.
func (b *Board) Popups() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, len(b.popups))
	copy(out, b.popups)
	return out
}

// Fanout forwards every update to each window in order.
type Fanout []Window

// Update implements Window.
func (f Fanout) Update(key string, value any, visible bool) {
	for _, w := range f {
		w.Update(key, value, visible)
	}
}

// Popup implements Window.
func (f Fanout) Popup(message string) {
	for _, w := range f {
		w.Popup(message)
	}
}
