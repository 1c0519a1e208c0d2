package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/whatsfordinner/dinner/internal/daemon"
	"github.com/whatsfordinner/dinner/internal/logging"
	"github.com/whatsfordinner/dinner/internal/peer"
	"github.com/whatsfordinner/dinner/internal/store"
	"github.com/whatsfordinner/dinner/internal/ui"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	GroupID: "sync",
	Short:   "Run the phone side: watch the store and serve the companion",
	Long: `Run in the foreground as the phone. The list is reloaded whenever
another process writes the store, yesterday's dish is archived when a new
day starts, and every saved list is pushed to the companion.

Companions connect over WebSocket to peer.listen. When none is connected
the latest list is kept as pending context and delivered on connect.

Example:
  dinner serve
  dinner serve --listen 0.0.0.0:8787`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
			cfg.Peer.Listen = listen
		}
		noPeer, _ := cmd.Flags().GetBool("no-peer")

		a := mustOpen(appOptions{longRunning: true})
		defer a.close()
		a.onHeadChange()

		dcfg := daemon.DefaultConfig()
		dcfg.Logger = logging.For(a.logger, "daemon")
		dcfg.Server = &peer.ServerConfig{
			Listen:  cfg.Peer.Listen,
			Enabled: cfg.Peer.Enabled,
			Logger:  logging.For(a.logger, "peer"),
		}
		if noPeer {
			dcfg.Server = nil
		}

		d, err := daemon.NewWithConfig(a.model, a.shared, a.notifier, dcfg)
		if err != nil {
			a.fail("failed to create daemon: %v", err)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if d.Server() != nil {
			fmt.Println(ui.Subtle(fmt.Sprintf("Serving %d dishes to companions on %s", a.model.Len(), cfg.Peer.Listen)))
		} else {
			fmt.Println(ui.Subtle(fmt.Sprintf("Watching %d dishes", a.model.Len())))
		}
		if err := d.Start(ctx); err != nil {
			a.fail("%v", err)
		}
		a.logger.Printf("Stopped after %d reloads", d.Reloads())
	},
}

var companionCmd = &cobra.Command{
	Use:     "companion",
	GroupID: "sync",
	Short:   "Run the companion side: mirror the phone's list",
	Long: `Run in the foreground as the companion device. The client connects to
peer.address and replaces its own copy of the list with every payload the
phone sends. The copy lives in the companion store group, so 'dinner widget
--companion' shows it.

Example:
  dinner companion --address 192.168.1.20:8787`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if address, _ := cmd.Flags().GetString("address"); address != "" {
			cfg.Peer.Address = address
		}

		a := mustOpen(appOptions{group: store.CompanionGroup, longRunning: true})
		defer a.close()
		a.onHeadChange()

		receiver, err := peer.NewReceiver(a.model, a.shared, logging.For(a.logger, "companion"))
		if err != nil {
			a.fail("%v", err)
		}
		client, err := peer.NewClient(receiver, &peer.ClientConfig{
			Address:   cfg.Peer.Address,
			Reconnect: cfg.Peer.Reconnect,
			Logger:    logging.For(a.logger, "companion"),
		})
		if err != nil {
			a.fail("%v", err)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		fmt.Println(ui.Subtle("Mirroring " + client.URL()))
		if err := client.Run(ctx); err != nil {
			a.fail("%v", err)
		}
		a.logger.Printf("Applied %d payloads", client.Applied())
	},
}

var statusCmd = &cobra.Command{
	Use:     "status",
	GroupID: "sync",
	Short:   "Show store and sync status",
	Long: `Show where the list is stored, how many dishes it holds, the
preferences, whether a list is waiting for the companion, and whether a
'dinner serve' process answers on peer.address.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a := mustOpen(appOptions{})
		defer a.close()

		ctx := context.Background()
		settings := a.shared.LoadSettings(ctx)

		fmt.Println(ui.Title("Store"))
		fmt.Printf("  Backend:  %s (%s)\n", cfg.Store.Backend, cfg.Home)
		if _, ok := a.backend.(store.Unavailable); ok {
			fmt.Printf("  %s\n", ui.Subtle("unavailable, nothing is saved"))
		}
		fmt.Printf("  Group:    %s\n", a.shared.Group())
		fmt.Printf("  Dishes:   %d planned, %d archived\n", a.model.Len(), len(a.model.Completed()))
		fmt.Printf("  Settings: days=%t auto-complete=%t\n", settings.DaysInsteadOfNumbers, settings.AutoCompleteDish)
		if last, ok := a.shared.LastAutoCompletion(ctx); ok {
			fmt.Printf("  Last auto-completion: %s\n", last.Format(time.RFC1123))
		}

		fmt.Println(ui.Title("Companion"))
		if !cfg.Peer.Enabled {
			fmt.Printf("  %s\n", ui.Subtle("not paired (peer.enabled is false)"))
			return
		}
		if payload, ok := a.shared.LoadContext(ctx); ok {
			if list, _, err := peer.DecodePayload(payload); err == nil {
				fmt.Printf("  Pending context: %d dishes\n", len(list))
			}
		}
		health, err := fetchHealth(ctx, cfg.Peer.Address)
		if err != nil {
			fmt.Printf("  Server:   %s\n", ui.Subtle("not running"))
			a.logger.Printf("Health check failed: %v", err)
			return
		}
		fmt.Printf("  Server:   %s, %d companion(s) connected\n", health.State, health.Clients)
	},
}

type healthReport struct {
	Status  string `json:"status"`
	Clients int    `json:"clients"`
	State   string `json:"state"`
}

func fetchHealth(ctx context.Context, address string) (*healthReport, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+address+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach %s: %w", address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	var report healthReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("failed to decode health: %w", err)
	}
	return &report, nil
}

func init() {
	serveCmd.Flags().String("listen", "", "Address to serve companions on (default: peer.listen)")
	serveCmd.Flags().Bool("no-peer", false, "Only watch the store, do not serve companions")
	companionCmd.Flags().String("address", "", "Phone address (default: peer.address)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(companionCmd)
	rootCmd.AddCommand(statusCmd)
}
