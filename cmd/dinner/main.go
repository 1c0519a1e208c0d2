// Command dinner keeps the "What's for Dinner" list: an ordered list of
// dishes whose head is tonight's dinner, shown on a widget and mirrored to
// a companion device.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/whatsfordinner/dinner/internal/config"
	"github.com/whatsfordinner/dinner/internal/ui"
)

var (
	loader  = config.NewLoader()
	cfg     *config.Config
	verbose bool
	quiet   bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "dinner",
	Short: "What's for dinner - plan tonight's dish",
	Long: `Keep an ordered list of dishes. The first dish is tonight's dinner:
it is shown on the widget and pushed to the companion device.

Removing a dish archives it in the history, from where it can be restored.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loader.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		ui.Setup(noColor)
		return nil
	},
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "list", Title: "List Commands:"},
		&cobra.Group{ID: "sync", Title: "Sync Commands:"},
		&cobra.Group{ID: "setup", Title: "Setup Commands:"},
	)

	flags := rootCmd.PersistentFlags()
	flags.String("home", config.DefaultHome(), "Data directory")
	flags.String("backend", "", "Store backend: sqlite, dir or memory")
	flags.String("group", "", "Store group (namespace)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Show component logs")
	flags.BoolVarP(&quiet, "quiet", "q", false, "Discard all logs")
	flags.BoolVar(&noColor, "no-color", false, "Disable colors")

	for key, name := range map[string]string{
		"home":          "home",
		"store.backend": "backend",
		"store.group":   "group",
	} {
		if err := loader.BindFlag(key, flags.Lookup(name)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
