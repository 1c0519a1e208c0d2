package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/whatsfordinner/dinner/internal/autocomplete"
	"github.com/whatsfordinner/dinner/internal/dishes"
	"github.com/whatsfordinner/dinner/internal/logging"
	"github.com/whatsfordinner/dinner/internal/notify"
	"github.com/whatsfordinner/dinner/internal/peer"
	"github.com/whatsfordinner/dinner/internal/store"
	"github.com/whatsfordinner/dinner/internal/ui"
	"github.com/whatsfordinner/dinner/internal/widget"
)

// app is one surface's view of the shared state, wired for a single
// process: store, notifier, model and the observers of head changes.
type app struct {
	logger   *log.Logger
	closeLog func() error

	backend  store.Store
	shared   *store.Shared
	hub      *notify.Hub
	notifier *notify.Notifier
	model    *dishes.Model

	unsubscribe []func()
}

type appOptions struct {
	// group overrides the configured store group.
	group string

	// longRunning processes always log and keep the debounced save.
	longRunning bool

	// offlinePush writes every saved list into the companion context slot.
	offlinePush bool
}

func openApp(opts appOptions) (*app, error) {
	logOpts := logging.Options{
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Quiet:      quiet || (!verbose && !opts.longRunning && cfg.Log.File == ""),
	}
	out, closeLog := logging.Output(logOpts)
	base := logging.New(out)

	storeOpts := cfg.StoreOptions()
	storeOpts.Logger = logging.For(base, "store")
	backend := store.OpenOrUnavailable(storeOpts)

	group := cfg.Store.Group
	if opts.group != "" {
		group = opts.group
	}
	shared := store.NewShared(backend, group, logging.For(base, "store"))

	hub := notify.NewHub(logging.For(base, "notify"))
	notifier, err := notify.NewWithConfig(hub, &notify.Config{Logger: logging.For(base, "notify")})
	if err != nil {
		_ = backend.Close()
		_ = closeLog()
		return nil, fmt.Errorf("failed to create notifier: %w", err)
	}

	// A one-shot command exits right after its change, so it writes
	// through instead of debouncing.
	saveDelay := cfg.SaveDelay
	if !opts.longRunning {
		saveDelay = 0
	}
	model, err := dishes.NewWithConfig(shared, notifier, &dishes.Config{
		SaveDelay: saveDelay,
		Logger:    logging.For(base, "dishes"),
	})
	if err != nil {
		_ = backend.Close()
		_ = closeLog()
		return nil, fmt.Errorf("failed to create list model: %w", err)
	}
	model.Load(context.Background())

	a := &app{
		logger:   base,
		closeLog: closeLog,
		backend:  backend,
		shared:   shared,
		hub:      hub,
		notifier: notifier,
		model:    model,
	}

	reloader := widget.NewReloader(func() {
		logging.For(base, "widget").Println("Reloading widget timelines")
	})
	a.unsubscribe = append(a.unsubscribe, reloader.Attach(hub))

	if opts.offlinePush {
		link, err := peer.NewOffline(shared, cfg.Peer.Enabled)
		if err == nil {
			ch := peer.New(link, logging.For(base, "peer"))
			a.unsubscribe = append(a.unsubscribe, ch.Attach(hub, a.daysInsteadOfNumbers))
		}
	}

	return a, nil
}

// mustOpen opens the app or exits.
func mustOpen(opts appOptions) *app {
	a, err := openApp(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return a
}

func (a *app) daysInsteadOfNumbers() bool {
	return a.shared.LoadSettings(context.Background()).DaysInsteadOfNumbers
}

// activate runs what the app does when it comes to the foreground.
func (a *app) activate(now time.Time) autocomplete.Result {
	policy, err := autocomplete.New(a.shared, a.model, logging.For(a.logger, "autocomplete"))
	if err != nil {
		return autocomplete.Result{Outcome: autocomplete.Disabled}
	}
	return policy.OnActivate(context.Background(), now)
}

// onHeadChange prints the new head dish once a command changed it.
func (a *app) onHeadChange() {
	a.unsubscribe = append(a.unsubscribe, a.hub.Subscribe(func(e notify.Event) {
		if e.Kind != notify.HeadChanged {
			return
		}
		if e.Current == nil {
			fmt.Println(ui.Subtle("Tonight: nothing planned"))
			return
		}
		fmt.Println(ui.Subtle(fmt.Sprintf("Tonight: %s %s", e.Current.Emoji, e.Current.Name)))
	}))
}

func (a *app) close() {
	if err := a.model.Close(); err != nil {
		a.logger.Printf("Warning: failed to flush dishes: %v", err)
	}
	for _, fn := range a.unsubscribe {
		fn()
	}
	if err := a.backend.Close(); err != nil {
		a.logger.Printf("Warning: failed to close store: %v", err)
	}
	_ = a.closeLog()
}

// fail closes a and exits with the error printed.
func (a *app) fail(format string, args ...interface{}) {
	ui.Error(os.Stderr, format, args...)
	a.close()
	os.Exit(1)
}
