package tracking

import (
	"slices"
	"sync"

	"github.com/samber/lo"

	"shopflow-tracking/internal/domain"
)

// Listener receives the full order after every mutation.
type Listener func(o *domain.Order)

// Hub is the in-process registry of per-order listeners.
type Hub struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[string]map[uint64]Listener
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[uint64]Listener)}
}

// Subscribe registers l for orderID. The returned func removes only this
// listener and may be called any number of times.
func (h *Hub) Subscribe(orderID string, l Listener) func() {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	set, ok := h.subs[orderID]
	if !ok {
		set = make(map[uint64]Listener)
		h.subs[orderID] = set
	}
	set[id] = l
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { h.remove(orderID, id) })
	}
}

// Publish calls every listener of the order synchronously. Each listener
// gets its own copy of o.
func (h *Hub) Publish(o *domain.Order) {
	if o == nil {
		return
	}
	h.mu.RLock()
	set := h.subs[o.ID]
	// ids grow monotonically, so sorting keeps subscription order
	ids := lo.Keys(set)
	slices.Sort(ids)
	listeners := lo.Map(ids, func(id uint64, _ int) Listener { return set[id] })
	h.mu.RUnlock()

	for _, l := range listeners {
		l(o.Clone())
	}
}

// Count returns the number of listeners registered for orderID.
func (h *Hub) Count(orderID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[orderID])
}

func (h *Hub) remove(orderID string, id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.subs[orderID]
	delete(set, id)
	if len(set) == 0 {
		delete(h.subs, orderID)
	}
}
