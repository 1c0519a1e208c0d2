package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/whatsfordinner/dinner/internal/autocomplete"
	"github.com/whatsfordinner/dinner/internal/dish"
	"github.com/whatsfordinner/dinner/internal/dishes"
	"github.com/whatsfordinner/dinner/internal/notify"
	"github.com/whatsfordinner/dinner/internal/peer"
	"github.com/whatsfordinner/dinner/internal/store"
)

// Config holds configuration for the daemon.
type Config struct {
	// DebounceInterval is how long to wait before reloading after a store
	// change. This batches rapid writes together.
	DebounceInterval time.Duration

	// ActivateInterval is how often the auto-completion policy runs while
	// the daemon is up. Zero runs it only at startup.
	ActivateInterval time.Duration

	// Server configures the phone-side sync server. Nil disables peer sync.
	Server *peer.ServerConfig

	// Clock is used for auto-completion.
	Clock func() time.Time

	// Logger for daemon activity
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DebounceInterval: 100 * time.Millisecond,
		ActivateInterval: time.Minute,
		Server:           peer.DefaultServerConfig(),
		Clock:            time.Now,
		Logger:           log.New(os.Stderr, "[daemon] ", log.LstdFlags),
	}
}

// Daemon keeps the phone's list in step with the store and the companion.
type Daemon struct {
	model    *dishes.Model
	shared   *store.Shared
	notifier *notify.Notifier
	policy   *autocomplete.Policy
	config   *Config

	server      *peer.Server
	channel     *peer.Channel
	pusher      *peer.Pusher
	unsubscribe func()

	watcher     *store.Watcher
	changedAt   time.Time
	changed     bool
	changeMu    sync.Mutex
	reloadCount int

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New creates a new Daemon instance.
//
// The daemon requires:
//   - model: the phone's List Model, already loaded
//   - shared: the store the model writes, watched for other writers
//   - notifier: the notifier the model reports to
//
// Use Start() to begin watching and syncing.
func New(model *dishes.Model, shared *store.Shared, notifier *notify.Notifier) (*Daemon, error) {
	return NewWithConfig(model, shared, notifier, DefaultConfig())
}

// NewWithConfig creates a daemon with custom configuration.
func NewWithConfig(model *dishes.Model, shared *store.Shared, notifier *notify.Notifier, config *Config) (*Daemon, error) {
	if model == nil {
		return nil, fmt.Errorf("model cannot be nil")
	}
	if shared == nil {
		return nil, fmt.Errorf("shared store cannot be nil")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.DebounceInterval <= 0 {
		config.DebounceInterval = 100 * time.Millisecond
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[daemon] ", log.LstdFlags)
	}

	policy, err := autocomplete.New(shared, model, config.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create auto-completion policy: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Daemon{
		model:    model,
		shared:   shared,
		notifier: notifier,
		policy:   policy,
		config:   config,
		ctx:      ctx,
		cancel:   cancel,
	}

	if config.Server != nil {
		if config.Server.Shared == nil {
			config.Server.Shared = shared
		}
		config.Server.OnRequest = d.RequestDishes
		d.server = peer.NewServer(config.Server)
		d.channel = peer.New(d.server, config.Logger)
		d.pusher = peer.NewPusher(d.channel, func() bool {
			return shared.LoadSettings(context.Background()).DaysInsteadOfNumbers
		})
	}

	if src, ok := shared.Store().(store.Watchable); ok {
		w, err := store.NewWatcher(src)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to create watcher: %w", err)
		}
		d.watcher = w
	} else {
		config.Logger.Printf("Warning: store cannot be watched, writes by other processes go unnoticed")
	}

	return d, nil
}

// Server returns the sync server, or nil when peer sync is off.
func (d *Daemon) Server() *peer.Server {
	return d.server
}

// Stats returns push statistics. The zero value is returned when peer sync
// is off.
func (d *Daemon) Stats() peer.Stats {
	if d.channel == nil {
		return peer.Stats{}
	}
	return d.channel.Stats()
}

// Reloads returns how many times the model was reloaded from the store.
func (d *Daemon) Reloads() int {
	d.changeMu.Lock()
	defer d.changeMu.Unlock()
	return d.reloadCount
}

// Start begins the daemon's operation.
//
// The daemon will:
//  1. Run the auto-completion policy once
//  2. Start the sync server and the pusher
//  3. Watch the store for writes by other processes
//  4. Reload the model when they settle
//
// This blocks until ctx is cancelled or Stop is called.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Println("Starting daemon")

	d.activate()

	if d.server != nil {
		if err := d.server.Start(); err != nil {
			return fmt.Errorf("failed to start sync server: %w", err)
		}
		d.pusher.Start(d.ctx)
		d.unsubscribe = d.pusher.Attach(d.notifier.Hub())
	}

	if d.watcher != nil {
		if err := d.watcher.Start(); err != nil {
			d.stopPeer()
			return fmt.Errorf("failed to start watcher: %w", err)
		}
		d.wg.Add(2)
		go d.watchChanges()
		go d.processChanges()
	}

	if d.config.ActivateInterval > 0 {
		d.wg.Add(1)
		go d.activateLoop()
	}

	select {
	case <-ctx.Done():
		d.config.Logger.Println("Shutdown signal received")
		return d.Stop()
	case <-d.ctx.Done():
		return nil
	}
}

// Stop gracefully shuts down the daemon and flushes the model. Calling it
// more than once is safe.
func (d *Daemon) Stop() error {
	d.stopOnce.Do(d.stop)
	return nil
}

func (d *Daemon) stop() {
	d.config.Logger.Println("Stopping daemon")

	d.cancel()

	if d.watcher != nil {
		if err := d.watcher.Stop(); err != nil {
			d.config.Logger.Printf("Error closing watcher: %v", err)
		}
	}

	d.wg.Wait()
	// Flush while the peer is still up so the final save is pushed.
	d.model.Flush()
	d.stopPeer()

	d.config.Logger.Println("Daemon stopped")
}

func (d *Daemon) stopPeer() {
	if d.server == nil {
		return
	}
	if d.unsubscribe != nil {
		d.unsubscribe()
		d.unsubscribe = nil
	}
	d.pusher.Stop()
	if err := d.server.Stop(); err != nil {
		d.config.Logger.Printf("Error stopping sync server: %v", err)
	}
}

// RequestDishes queues the current list for the companion. The server
// calls it when a companion asks.
func (d *Daemon) RequestDishes() {
	if d.pusher != nil {
		d.pusher.Offer(d.model.Dishes())
	}
}

// Reload re-reads the store now. It is a no-op when the store holds what
// the model already has, so the daemon's own writes do not echo.
func (d *Daemon) Reload() bool {
	if d.inSync() {
		return false
	}
	d.model.Reload(d.ctx)

	d.changeMu.Lock()
	d.reloadCount++
	d.changeMu.Unlock()

	d.config.Logger.Printf("Reloaded %d dishes", d.model.Len())
	return true
}

func (d *Daemon) inSync() bool {
	ctx := context.Background()
	return sameList(d.shared.LoadDishes(ctx), d.model.Dishes()) &&
		sameList(d.shared.LoadCompleted(ctx), d.model.Completed())
}

func sameList(a, b []dish.Dish) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func (d *Daemon) activate() {
	res := d.policy.OnActivate(d.ctx, d.config.Clock())
	if res.Outcome == autocomplete.Archived {
		d.model.Flush()
	}
}

// watchChanges turns store changes into a pending reload.
func (d *Daemon) watchChanges() {
	defer d.wg.Done()

	group := d.shared.Group()
	for {
		select {
		case <-d.ctx.Done():
			return

		case change, ok := <-d.watcher.Events():
			if !ok {
				return
			}
			if !change.Matches(group, store.KeyDishes) && !change.Matches(group, store.KeyCompletedDishes) {
				continue
			}
			d.queueChange()

		case err, ok := <-d.watcher.Errors():
			if !ok {
				return
			}
			d.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

func (d *Daemon) queueChange() {
	d.changeMu.Lock()
	defer d.changeMu.Unlock()
	d.changed = true
	d.changedAt = time.Now()
}

// processChanges reloads once changes have been quiet for the debounce
// interval.
func (d *Daemon) processChanges() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.DebounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			d.changeMu.Lock()
			due := d.changed && time.Since(d.changedAt) >= d.config.DebounceInterval
			if due {
				d.changed = false
			}
			d.changeMu.Unlock()

			if due {
				d.Reload()
			}
		}
	}
}

// activateLoop runs the auto-completion policy periodically so the list
// rolls over at midnight while the daemon is up.
func (d *Daemon) activateLoop() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.ActivateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			d.activate()
		}
	}
}
