package notify

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/whatsfordinner/dinner/internal/dish"
)

// Config holds configuration for a Notifier.
type Config struct {
	// Clock stamps published events.
	Clock func() time.Time

	// Logger for notifier activity
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Clock:  time.Now,
		Logger: log.New(os.Stderr, "[notify] ", log.LstdFlags),
	}
}

// Notifier watches the head of the active list. It only speaks up when the
// head changes, because widgets show nothing else.
type Notifier struct {
	hub    *Hub
	config *Config

	mu           sync.Mutex
	last         *dish.Dish
	writeThrough func()
	fired        int
}

// New creates a Notifier publishing to hub.
func New(hub *Hub) (*Notifier, error) {
	return NewWithConfig(hub, DefaultConfig())
}

// NewWithConfig creates a Notifier with custom configuration.
func NewWithConfig(hub *Hub, config *Config) (*Notifier, error) {
	if hub == nil {
		return nil, fmt.Errorf("hub cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[notify] ", log.LstdFlags)
	}
	return &Notifier{hub: hub, config: config}, nil
}

// Hub returns the hub events are published on.
func (n *Notifier) Hub() *Hub {
	return n.hub
}

// SetWriteThrough registers the hook run synchronously before HeadChanged
// is published. The list model registers its Flush here so the store holds
// the new head by the time widgets re-read it.
func (n *Notifier) SetWriteThrough(fn func()) {
	n.mu.Lock()
	n.writeThrough = fn
	n.mu.Unlock()
}

// Seed records the head of list without firing. Call it after loading.
func (n *Notifier) Seed(list []dish.Dish) {
	n.mu.Lock()
	n.last = dish.Head(list)
	n.mu.Unlock()
}

// Head returns the last observed head, or nil.
func (n *Notifier) Head() *dish.Dish {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.last == nil {
		return nil
	}
	d := *n.last
	return &d
}

// Fired returns how many times a head change was published.
func (n *Notifier) Fired() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.fired
}

// Observe compares the head of list with the previously observed head and
// reports whether it changed. Emptying the list counts as a change. Must
// not be called while holding a lock the write-through hook needs.
func (n *Notifier) Observe(list []dish.Dish) bool {
	head := dish.Head(list)

	n.mu.Lock()
	if dish.SameHead(n.last, head) {
		n.mu.Unlock()
		return false
	}
	prev := n.last
	n.last = head
	n.fired++
	hook := n.writeThrough
	n.mu.Unlock()

	if hook != nil {
		hook()
	}

	n.config.Logger.Printf("Head changed: %s -> %s", describe(prev), describe(head))
	n.hub.Publish(Event{
		Kind:     HeadChanged,
		Previous: prev,
		Current:  head,
		At:       n.config.Clock(),
	})
	return true
}

// Saved publishes ListSaved for a list that was just written.
func (n *Notifier) Saved(list []dish.Dish) {
	n.hub.Publish(Event{
		Kind:   ListSaved,
		Dishes: dish.Clone(list),
		At:     n.config.Clock(),
	})
}

func describe(d *dish.Dish) string {
	if d == nil {
		return "(none)"
	}
	return d.Name
}
