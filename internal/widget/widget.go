// Package widget provides the home-screen widget for the dinner list.
//
// A widget only ever shows the head dish. The Provider reads it from the
// shared store each time it is asked, so a widget running in its own
// process sees whatever the app last wrote.
package widget

import (
	"context"
	"fmt"
	"time"

	"github.com/whatsfordinner/dinner/internal/dish"
	"github.com/whatsfordinner/dinner/internal/store"
)

// Entry is one widget snapshot.
type Entry struct {
	Date time.Time

	// Dish is the head dish, or nil when the list is empty.
	Dish *dish.Dish
}

// Policy says when the host should ask for a new timeline.
type Policy int

const (
	// AtEnd asks again after the last entry. The phone widget uses it.
	AtEnd Policy = iota

	// Never waits for an explicit reload. The companion widget uses it,
	// since its list only changes when a payload arrives.
	Never
)

// String returns a human-readable representation of the policy.
func (p Policy) String() string {
	switch p {
	case AtEnd:
		return "at end"
	case Never:
		return "never"
	default:
		return "unknown"
	}
}

// Timeline is the set of entries handed to the widget host.
type Timeline struct {
	Entries []Entry
	Policy  Policy
}

// Provider builds entries from the shared store.
type Provider struct {
	shared *store.Shared
	policy Policy
	clock  func() time.Time
}

// NewProvider creates a provider reading from shared. The companion group
// gets the Never policy; every other group gets AtEnd.
func NewProvider(shared *store.Shared, clock func() time.Time) (*Provider, error) {
	if shared == nil {
		return nil, fmt.Errorf("shared store cannot be nil")
	}
	if clock == nil {
		clock = time.Now
	}
	policy := AtEnd
	if shared.Group() == store.CompanionGroup {
		policy = Never
	}
	return &Provider{shared: shared, policy: policy, clock: clock}, nil
}

// Placeholder is shown while real data loads.
func (p *Provider) Placeholder() Entry {
	return Entry{
		Date: p.clock(),
		Dish: &dish.Dish{ID: "placeholder", Name: "Placeholder", Emoji: "🍔"},
	}
}

// Snapshot returns the current head dish.
func (p *Provider) Snapshot(ctx context.Context) Entry {
	return Entry{Date: p.clock(), Dish: dish.Head(p.shared.LoadDishes(ctx))}
}

// Timeline returns a single-entry timeline for the current head dish.
func (p *Provider) Timeline(ctx context.Context) Timeline {
	return Timeline{Entries: []Entry{p.Snapshot(ctx)}, Policy: p.policy}
}
