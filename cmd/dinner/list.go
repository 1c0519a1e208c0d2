package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/whatsfordinner/dinner/internal/autocomplete"
	"github.com/whatsfordinner/dinner/internal/dish"
	"github.com/whatsfordinner/dinner/internal/ui"
)

var addCmd = &cobra.Command{
	Use:     "add <name>...",
	GroupID: "list",
	Short:   "Add a dish to the end of the list",
	Long: `Add a dish to the end of the list. The emoji is picked from the name.

Example:
  dinner add Pasta pesto
  dinner add "Stamppot boerenkool"`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := mustOpen(appOptions{offlinePush: true})
		defer a.close()
		a.onHeadChange()

		d, err := a.model.Add(strings.Join(args, " "))
		if err != nil {
			a.fail("%v", err)
		}
		ui.Success(os.Stdout, "Added %s %s at position %d", d.Emoji, d.Name, a.model.Len())
	},
}

var editCmd = &cobra.Command{
	Use:     "edit <position> <name>...",
	GroupID: "list",
	Short:   "Rename a dish",
	Long: `Rename the dish at the given position. The emoji is picked again
from the new name; the dish keeps its place and identity.`,
	Args: cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		a := mustOpen(appOptions{offlinePush: true})
		defer a.close()
		a.onHeadChange()

		index, err := parsePosition(args[0], a.model.Len())
		if err != nil {
			a.fail("%v", err)
		}
		id := a.model.Dishes()[index].ID
		d, err := a.model.Edit(id, strings.Join(args[1:], " "))
		if err != nil {
			a.fail("%v", err)
		}
		ui.Success(os.Stdout, "Renamed to %s %s", d.Emoji, d.Name)
	},
}

var rmCmd = &cobra.Command{
	Use:     "rm <position>...",
	Aliases: []string{"done"},
	GroupID: "list",
	Short:   "Archive dishes",
	Long: `Remove dishes from the list. Removed dishes are stamped with the
current time and archived; see 'dinner history' and 'dinner restore'.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := mustOpen(appOptions{offlinePush: true})
		defer a.close()
		a.onHeadChange()

		indices, err := parsePositions(args, a.model.Len())
		if err != nil {
			a.fail("%v", err)
		}
		removed, err := a.model.DeleteSet(indices)
		if err != nil {
			a.fail("%v", err)
		}
		for _, d := range removed {
			ui.Success(os.Stdout, "Archived %s %s", d.Emoji, d.Name)
		}
	},
}

var mvCmd = &cobra.Command{
	Use:     "mv <position>... --before <position>",
	GroupID: "list",
	Short:   "Reorder dishes",
	Long: `Move one or more dishes so they sit just before the given position.
Positions refer to the list as it is before the move. Use a position one
past the end to move dishes to the bottom.

Example:
  dinner mv 3 --before 1     # third dish becomes tonight's dinner
  dinner mv 1 2 --before 5   # move the first two dishes below the fourth`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		before, _ := cmd.Flags().GetInt("before")

		a := mustOpen(appOptions{offlinePush: true})
		defer a.close()
		a.onHeadChange()

		n := a.model.Len()
		indices, err := parsePositions(args, n)
		if err != nil {
			a.fail("%v", err)
		}
		if before < 1 || before > n+1 {
			a.fail("--before must be between 1 and %d", n+1)
		}
		if err := a.model.Move(indices, before-1); err != nil {
			a.fail("%v", err)
		}
		fmt.Println(ui.DishList(a.model.Dishes(), time.Now(), a.daysInsteadOfNumbers()))
	},
}

var resetCmd = &cobra.Command{
	Use:     "reset",
	GroupID: "list",
	Short:   "Clear the list",
	Long: `Clear the active list. The history is kept unless --all is given,
in which case both the list and the history are deleted from the store.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		all, _ := cmd.Flags().GetBool("all")

		a := mustOpen(appOptions{offlinePush: true})
		defer a.close()
		a.onHeadChange()

		a.model.Reset()
		if all {
			a.model.ClearArchive()
			a.model.Flush()
			if err := a.shared.ResetAll(context.Background()); err != nil {
				a.fail("%v", err)
			}
			ui.Success(os.Stdout, "Cleared the list and the history")
			return
		}
		ui.Success(os.Stdout, "Cleared the list")
	},
}

var restoreCmd = &cobra.Command{
	Use:     "restore <id>",
	GroupID: "list",
	Short:   "Put an archived dish back on the list",
	Long: `Move a dish from the history back to the end of the list. The id may
be shortened to any unique prefix, as shown by 'dinner history'.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := mustOpen(appOptions{offlinePush: true})
		defer a.close()
		a.onHeadChange()

		id, err := resolveArchived(a.model.Completed(), args[0])
		if err != nil {
			a.fail("%v", err)
		}
		d, err := a.model.Restore(id)
		if err != nil {
			a.fail("%v", err)
		}
		ui.Success(os.Stdout, "Restored %s %s at position %d", d.Emoji, d.Name, a.model.Len())
	},
}

var lsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	GroupID: "list",
	Short:   "Show the list",
	Long: `Show the active list. With day labels on, the first dish is labelled
today and each following dish the next day.

Opening the list counts as activating the app: when auto-complete is on and
a new day started, yesterday's dish is archived first.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a := mustOpen(appOptions{offlinePush: true})
		defer a.close()

		now := time.Now()
		if res := a.activate(now); res.Outcome == autocomplete.Archived {
			fmt.Println(ui.Subtle(fmt.Sprintf("Yesterday's %s was archived", res.Dish.Name)))
		}

		fmt.Println(ui.Title("What's for dinner"))
		fmt.Println(ui.DishList(a.model.Dishes(), now, a.daysInsteadOfNumbers()))
	},
}

var historyCmd = &cobra.Command{
	Use:     "history",
	GroupID: "list",
	Short:   "Show archived dishes, newest first",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")

		a := mustOpen(appOptions{})
		defer a.close()

		history := a.model.History()
		if len(history) == 0 {
			fmt.Println(ui.Subtle("No dishes in the history yet"))
			return
		}
		if limit > 0 && len(history) > limit {
			history = history[:limit]
		}
		fmt.Println(ui.Title("History"))
		now := time.Now()
		for _, d := range history {
			fmt.Println(ui.HistoryLine(d, now))
		}
	},
}

// parsePosition converts a 1-based position to an index.
func parsePosition(arg string, n int) (int, error) {
	pos, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid position %q", arg)
	}
	if pos < 1 || pos > n {
		return 0, fmt.Errorf("position %d out of range (list has %d dishes)", pos, n)
	}
	return pos - 1, nil
}

func parsePositions(args []string, n int) ([]int, error) {
	out := make([]int, 0, len(args))
	for _, arg := range args {
		i, err := parsePosition(arg, n)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, nil
}

// resolveArchived finds the archived dish whose id starts with prefix.
func resolveArchived(archive []dish.Dish, prefix string) (string, error) {
	var match string
	for _, d := range archive {
		if !strings.HasPrefix(d.ID, prefix) {
			continue
		}
		if match != "" && match != d.ID {
			return "", fmt.Errorf("id prefix %q is ambiguous", prefix)
		}
		match = d.ID
	}
	if match == "" {
		return "", fmt.Errorf("no archived dish with id %q", prefix)
	}
	return match, nil
}

func init() {
	mvCmd.Flags().Int("before", 1, "Position to insert before (1 = top)")
	resetCmd.Flags().Bool("all", false, "Also delete the history")
	historyCmd.Flags().IntP("limit", "n", 0, "Show at most n dishes")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(mvCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(historyCmd)
}
