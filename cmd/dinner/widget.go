package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/whatsfordinner/dinner/internal/store"
	"github.com/whatsfordinner/dinner/internal/widget"
)

var widgetCmd = &cobra.Command{
	Use:     "widget",
	GroupID: "list",
	Short:   "Show tonight's dish as a widget",
	Long: `Render the widget: tonight's dish, read from the shared store.

--companion reads the companion's copy of the list instead of the phone's.
--watch keeps running and redraws whenever another process changes the
first dish.

Example:
  dinner widget
  dinner widget --family inline --companion
  dinner widget --watch`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		companion, _ := cmd.Flags().GetBool("companion")
		watch, _ := cmd.Flags().GetBool("watch")
		familyName, _ := cmd.Flags().GetString("family")
		family := widget.ParseFamily(familyName)

		opts := appOptions{}
		if companion {
			opts.group = store.CompanionGroup
		}
		a := mustOpen(opts)
		defer a.close()

		provider, err := widget.NewProvider(a.shared, nil)
		if err != nil {
			a.fail("%v", err)
		}

		if !watch {
			fmt.Println(widget.Render(provider.Snapshot(context.Background()), family))
			return
		}

		src, ok := a.backend.(store.Watchable)
		if !ok {
			a.fail("the %s store cannot be watched", cfg.Store.Backend)
		}
		w, err := store.NewWatcher(src)
		if err != nil {
			a.fail("%v", err)
		}
		if err := w.Start(); err != nil {
			a.fail("%v", err)
		}
		defer w.Stop()

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		widget.Follow(ctx, provider, w, func(e widget.Entry) {
			fmt.Println(widget.Render(e, family))
		})
	},
}

func init() {
	widgetCmd.Flags().Bool("companion", false, "Show the companion's list")
	widgetCmd.Flags().Bool("watch", false, "Redraw when the first dish changes")
	widgetCmd.Flags().String("family", "small", "Widget size: small or inline")

	rootCmd.AddCommand(widgetCmd)
}
