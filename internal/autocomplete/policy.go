// Package autocomplete archives yesterday's dinner when a new day starts.
//
// With day labels on and auto-complete enabled, the head dish stands for
// "today". The first activation on a later calendar day archives it, so the
// list moves up by one. The check is stamped in the shared store and runs
// at most once per day.
package autocomplete

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/whatsfordinner/dinner/internal/dish"
	"github.com/whatsfordinner/dinner/internal/dishes"
	"github.com/whatsfordinner/dinner/internal/store"
)

// Outcome describes what an activation did.
type Outcome int

const (
	// Disabled means one of the two flags is off.
	Disabled Outcome = iota

	// SameDay means the stamp is already today.
	SameDay

	// Stamped means no stamp existed yet; today was recorded and nothing
	// was archived.
	Stamped

	// Advanced means a new day started but the list was empty.
	Advanced

	// Archived means the head dish was archived.
	Archived
)

// String returns a human-readable representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case Disabled:
		return "disabled"
	case SameDay:
		return "same day"
	case Stamped:
		return "stamped"
	case Advanced:
		return "advanced"
	case Archived:
		return "archived"
	default:
		return "unknown"
	}
}

// Result is returned by OnActivate.
type Result struct {
	Outcome Outcome

	// Dish is the archived dish when Outcome is Archived.
	Dish *dish.Dish
}

// Policy runs the daily head rotation.
type Policy struct {
	shared *store.Shared
	model  *dishes.Model
	logger *log.Logger
}

// New creates a Policy. If logger is nil, a default logger writing to
// stderr is used.
func New(shared *store.Shared, model *dishes.Model, logger *log.Logger) (*Policy, error) {
	if shared == nil {
		return nil, fmt.Errorf("shared store cannot be nil")
	}
	if model == nil {
		return nil, fmt.Errorf("model cannot be nil")
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[autocomplete] ", log.LstdFlags)
	}
	return &Policy{shared: shared, model: model, logger: logger}, nil
}

// OnActivate is called each time the app becomes active. Calendar days are
// compared in now's location.
func (p *Policy) OnActivate(ctx context.Context, now time.Time) Result {
	settings := p.shared.LoadSettings(ctx)
	if !settings.DaysInsteadOfNumbers || !settings.AutoCompleteDish {
		return Result{Outcome: Disabled}
	}

	last, ok := p.shared.LastAutoCompletion(ctx)
	if !ok {
		p.stamp(ctx, now)
		return Result{Outcome: Stamped}
	}

	lastDay := dish.StartOfDay(last.In(now.Location()))
	if !lastDay.Before(dish.StartOfDay(now)) {
		return Result{Outcome: SameDay}
	}

	if p.model.Len() == 0 {
		p.stamp(ctx, now)
		return Result{Outcome: Advanced}
	}

	archived, err := p.model.Delete(0)
	if err != nil {
		// Another writer emptied the list between Len and Delete.
		p.logger.Printf("Warning: auto-complete found nothing to archive: %v", err)
		p.stamp(ctx, now)
		return Result{Outcome: Advanced}
	}
	p.stamp(ctx, now)
	p.logger.Printf("Auto-completed %s", archived.Name)
	return Result{Outcome: Archived, Dish: &archived}
}

func (p *Policy) stamp(ctx context.Context, now time.Time) {
	if err := p.shared.SetLastAutoCompletion(ctx, now); err != nil {
		p.logger.Printf("Warning: failed to record auto-completion: %v", err)
	}
}
