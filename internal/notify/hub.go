package notify

import (
	"log"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/whatsfordinner/dinner/internal/dish"
)

// Kind distinguishes the events published on a Hub.
type Kind int

const (
	// HeadChanged is published when the first dish of the active list
	// differs from the one observed before.
	HeadChanged Kind = iota

	// ListSaved is published after the active list was written to the store.
	ListSaved
)

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case HeadChanged:
		return "head_changed"
	case ListSaved:
		return "list_saved"
	default:
		return "unknown"
	}
}

// Event is delivered to every subscriber.
type Event struct {
	Kind Kind

	// Previous and Current are the old and new head dish for HeadChanged.
	// Either may be nil.
	Previous *dish.Dish
	Current  *dish.Dish

	// Dishes is the list that was written for ListSaved.
	Dishes []dish.Dish

	At time.Time
}

// Hub is an explicit observer list. Subscribers are called synchronously,
// in subscription order, on the publishing goroutine.
type Hub struct {
	mu     sync.RWMutex
	next   int
	subs   map[int]func(Event)
	logger *log.Logger
}

// NewHub creates an empty Hub. If logger is nil, a default logger writing
// to stderr is used.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.New(os.Stderr, "[notify] ", log.LstdFlags)
	}
	return &Hub{
		subs:   make(map[int]func(Event)),
		logger: logger,
	}
}

// Subscribe registers fn and returns a function that removes it again.
func (h *Hub) Subscribe(fn func(Event)) (unsubscribe func()) {
	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

// Publish delivers e to every current subscriber. A panicking subscriber is
// logged and does not stop delivery to the others.
func (h *Hub) Publish(e Event) {
	h.mu.RLock()
	ids := make([]int, 0, len(h.subs))
	for id := range h.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, h.subs[id])
	}
	h.mu.RUnlock()

	for _, fn := range fns {
		h.deliver(fn, e)
	}
}

func (h *Hub) deliver(fn func(Event), e Event) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Printf("Warning: subscriber panicked on %s: %v", e.Kind, r)
		}
	}()
	fn(e)
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
