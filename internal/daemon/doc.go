// Package daemon runs the phone side of What's for Dinner in the background.
//
// CLI invocations each open the store, change the list and exit. The daemon
// is the long-running process that notices those writes and turns them into
// widget reloads and companion pushes.
//
// # Architecture
//
// The daemon wires together components from other packages:
//
//   - store.Watcher reports writes to the dishes and completedDishes keys
//   - dishes.Model is reloaded once the writes have been quiet for
//     Config.DebounceInterval
//   - notify.Notifier decides whether the head changed and publishes events
//   - peer.Pusher follows every saved list and pushes it to the companion
//   - peer.Server accepts the companion and answers its requestDishes frame
//   - autocomplete.Policy runs at startup and every Config.ActivateInterval
//
// A store that cannot be watched (the in-memory or unavailable backend) is
// accepted; the daemon then only serves the companion and rolls the day
// over.
//
// # Usage
//
//	d, err := daemon.NewWithConfig(model, shared, notifier, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//	if err := d.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// Start returns after ctx is cancelled. Stop closes the watcher, waits for
// the background goroutines, stops the pusher and the server, and flushes
// the model. It may be called more than once.
package daemon
