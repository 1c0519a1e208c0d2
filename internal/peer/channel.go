package peer

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/whatsfordinner/dinner/internal/dish"
	"github.com/whatsfordinner/dinner/internal/notify"
)

// Stats counts what Push did. Useful for status output and tests.
type Stats struct {
	Skipped   int
	Messages  int
	Contexts  int
	Failures  int
	LastState State
}

// Channel pushes the phone's list to the companion.
type Channel struct {
	link   Link
	logger *log.Logger

	mu    sync.Mutex
	stats Stats
}

// New creates a Channel over link.
//
// If logger is nil, a default logger writing to stderr is used.
//
// Example:
//
//	srv := peer.NewServer(cfg)
//	ch := peer.New(srv, nil)
//	_ = ch.Push(ctx, model.Dishes(), settings.DaysInsteadOfNumbers)
func New(link Link, logger *log.Logger) *Channel {
	if logger == nil {
		logger = log.New(os.Stderr, "[peer] ", log.LstdFlags)
	}
	return &Channel{link: link, logger: logger}
}

// Push sends the list to the companion, best effort.
//
// A reachable companion gets a message. If it is not reachable, or the
// message fails, the payload replaces the pending context instead. Transport
// failures are logged, not returned: only an encode failure (wrapping
// ErrEncode) comes back, and the caller should treat that as non-fatal too.
func (c *Channel) Push(ctx context.Context, list []dish.Dish, daysInsteadOfNumbers bool) error {
	payload, err := EncodePayload(list, daysInsteadOfNumbers)
	if err != nil {
		c.logger.Printf("Warning: %v", err)
		return err
	}

	state := c.link.State()
	c.mu.Lock()
	c.stats.LastState = state
	c.mu.Unlock()

	switch state {
	case Unpaired:
		c.logger.Printf("No companion paired, skipping push of %d dishes", len(list))
		c.count(func(s *Stats) { s.Skipped++ })
		return nil

	case PairedReachable:
		err := c.link.SendMessage(ctx, payload)
		if err == nil {
			c.logger.Printf("Sent %d dishes to companion", len(list))
			c.count(func(s *Stats) { s.Messages++ })
			return nil
		}
		c.logger.Printf("Warning: failed to send message, falling back to context: %v", err)
		c.count(func(s *Stats) { s.Failures++ })
	}

	if err := c.link.UpdateContext(ctx, payload); err != nil {
		c.logger.Printf("Warning: failed to update companion context: %v", err)
		c.count(func(s *Stats) { s.Failures++ })
		return nil
	}
	c.logger.Printf("Updated companion context with %d dishes", len(list))
	c.count(func(s *Stats) { s.Contexts++ })
	return nil
}

// Attach pushes every saved list on hub synchronously, on the publishing
// goroutine. Use it with links that do not touch the network, such as
// Offline; network links go through a Pusher.
func (c *Channel) Attach(hub *notify.Hub, days func() bool) (unsubscribe func()) {
	if days == nil {
		days = func() bool { return false }
	}
	return hub.Subscribe(func(e notify.Event) {
		if e.Kind == notify.ListSaved {
			_ = c.Push(context.Background(), e.Dishes, days())
		}
	})
}

// Stats returns a snapshot of the counters.
func (c *Channel) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// String describes the link state for status output.
func (c *Channel) String() string {
	return fmt.Sprintf("companion %s", c.link.State())
}

func (c *Channel) count(fn func(*Stats)) {
	c.mu.Lock()
	fn(&c.stats)
	c.mu.Unlock()
}
