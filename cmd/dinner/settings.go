package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/whatsfordinner/dinner/internal/autocomplete"
	"github.com/whatsfordinner/dinner/internal/store"
	"github.com/whatsfordinner/dinner/internal/ui"
)

var settingsCmd = &cobra.Command{
	Use:     "settings",
	GroupID: "setup",
	Short:   "Show or change preferences",
	Long: `Show or change the preferences stored next to the list:

  days           Label dishes with weekdays instead of numbers
  auto-complete  Archive yesterday's dish when a new day starts
                 (only with day labels on)

Without flags on a terminal an interactive form is shown.

Example:
  dinner settings --days=true --auto-complete=true`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a := mustOpen(appOptions{offlinePush: true})
		defer a.close()

		ctx := context.Background()
		settings := a.shared.LoadSettings(ctx)

		flags := cmd.Flags()
		changed := flags.Changed("days") || flags.Changed("auto-complete")
		switch {
		case changed:
			if flags.Changed("days") {
				settings.DaysInsteadOfNumbers, _ = flags.GetBool("days")
			}
			if flags.Changed("auto-complete") {
				settings.AutoCompleteDish, _ = flags.GetBool("auto-complete")
			}
		case ui.IsTerminal(os.Stdin) && ui.IsTerminal(os.Stdout):
			if err := settingsForm(&settings).Run(); err != nil {
				a.fail("%v", err)
			}
		default:
			printSettings(settings)
			return
		}

		if err := a.shared.SaveSettings(ctx, settings); err != nil {
			a.fail("failed to save settings: %v", err)
		}
		// The companion mirrors the day-label flag with the next payload.
		a.notifier.Saved(a.model.Dishes())
		ui.Success(os.Stdout, "Settings saved")
		printSettings(settings)
	},
}

func settingsForm(s *store.Settings) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Show weekdays instead of numbers?").
				Value(&s.DaysInsteadOfNumbers),
			huh.NewConfirm().
				Title("Archive yesterday's dish automatically?").
				Description("Only applies when weekdays are shown.").
				Value(&s.AutoCompleteDish),
		),
	)
}

func printSettings(s store.Settings) {
	fmt.Printf("days:          %t\n", s.DaysInsteadOfNumbers)
	fmt.Printf("auto-complete: %t\n", s.AutoCompleteDish)
}

var activateCmd = &cobra.Command{
	Use:     "activate",
	GroupID: "setup",
	Short:   "Run the new-day check now",
	Long: `Run what the app does when it comes to the foreground: when day labels
and auto-complete are on and a new day started since the last check, the
first dish is archived. The check runs at most once per day.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a := mustOpen(appOptions{offlinePush: true})
		defer a.close()
		a.onHeadChange()

		res := a.activate(time.Now())
		switch res.Outcome {
		case autocomplete.Archived:
			ui.Success(os.Stdout, "Archived %s %s", res.Dish.Emoji, res.Dish.Name)
		default:
			fmt.Printf("Nothing archived (%s)\n", res.Outcome)
		}
	},
}

func init() {
	settingsCmd.Flags().Bool("days", false, "Label dishes with weekdays")
	settingsCmd.Flags().Bool("auto-complete", false, "Archive yesterday's dish on a new day")

	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(activateCmd)
}
