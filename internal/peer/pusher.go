package peer

import (
	"context"
	"sync"

	"github.com/whatsfordinner/dinner/internal/dish"
	"github.com/whatsfordinner/dinner/internal/notify"
)

// Pusher runs Channel.Push on a background goroutine so that saving the
// list never waits on the network. Only the newest list is kept: offers
// made while a push is in flight collapse into one follow-up push.
type Pusher struct {
	channel *Channel
	days    func() bool

	mu      sync.Mutex
	pending []dish.Dish
	has     bool
	wake    chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPusher creates a Pusher. days reports the current day-label flag at
// push time.
func NewPusher(channel *Channel, days func() bool) *Pusher {
	if days == nil {
		days = func() bool { return false }
	}
	return &Pusher{
		channel: channel,
		days:    days,
		wake:    make(chan struct{}, 1),
	}
}

// Start launches the worker. It stops when ctx is cancelled or Stop is
// called.
func (p *Pusher) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)
	p.wg.Add(1)
	go p.loop()
}

// Stop cancels the worker, waits for an in-flight push to end and then
// pushes any offer the worker had not picked up yet, so the last saved list
// still reaches the link.
func (p *Pusher) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()

	p.mu.Lock()
	list, ok := p.pending, p.has
	p.pending, p.has = nil, false
	p.mu.Unlock()
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	_ = p.channel.Push(ctx, list, p.days())
}

// Offer queues list for pushing, replacing anything not yet pushed.
func (p *Pusher) Offer(list []dish.Dish) {
	p.mu.Lock()
	p.pending = dish.Clone(list)
	p.has = true
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Attach subscribes the pusher to saved lists on hub.
func (p *Pusher) Attach(hub *notify.Hub) (unsubscribe func()) {
	return hub.Subscribe(func(e notify.Event) {
		if e.Kind == notify.ListSaved {
			p.Offer(e.Dishes)
		}
	})
}

func (p *Pusher) loop() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-p.wake:
		}
		// Once cancelled, the queued offer is left for Stop to deliver.
		if p.ctx.Err() != nil {
			return
		}

		p.mu.Lock()
		list, ok := p.pending, p.has
		p.pending, p.has = nil, false
		p.mu.Unlock()
		if !ok {
			continue
		}

		_ = p.channel.Push(p.ctx, list, p.days())
	}
}
