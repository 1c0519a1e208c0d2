package widget

import (
	"context"
	"sync"

	"github.com/whatsfordinner/dinner/internal/dish"
	"github.com/whatsfordinner/dinner/internal/notify"
	"github.com/whatsfordinner/dinner/internal/store"
)

// Reloader asks the widget host to rebuild its timeline whenever the head
// dish changes in this process.
type Reloader struct {
	mu      sync.Mutex
	reloads int
	reload  func()
}

// NewReloader creates a Reloader calling reload on every head change.
func NewReloader(reload func()) *Reloader {
	if reload == nil {
		reload = func() {}
	}
	return &Reloader{reload: reload}
}

// Attach subscribes to head changes on hub.
func (r *Reloader) Attach(hub *notify.Hub) (unsubscribe func()) {
	return hub.Subscribe(func(e notify.Event) {
		if e.Kind != notify.HeadChanged {
			return
		}
		r.mu.Lock()
		r.reloads++
		r.mu.Unlock()
		r.reload()
	})
}

// Reloads returns how many reloads were requested.
func (r *Reloader) Reloads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reloads
}

// Follow calls render with a fresh entry at start and after every store
// change that moved the head dish. It returns when ctx is done or the
// watcher's channels close.
func Follow(ctx context.Context, p *Provider, w *store.Watcher, render func(Entry)) {
	last := p.Snapshot(ctx)
	render(last)

	group := p.shared.Group()
	for {
		select {
		case <-ctx.Done():
			return

		case change, ok := <-w.Events():
			if !ok {
				return
			}
			if !change.Matches(group, store.KeyDishes) {
				continue
			}
			next := p.Snapshot(ctx)
			if dish.SameHead(last.Dish, next.Dish) {
				continue
			}
			last = next
			render(next)

		case _, ok := <-w.Errors():
			if !ok {
				return
			}
		}
	}
}
